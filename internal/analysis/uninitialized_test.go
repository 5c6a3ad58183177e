package analysis

import (
	"testing"

	"github.com/pallene-lang/pallenec/internal/checker"
	"github.com/pallene-lang/pallenec/internal/ir"
	"github.com/pallene-lang/pallenec/internal/lowering"
	"github.com/pallene-lang/pallenec/internal/parser"
)

func lowerSource(t *testing.T, src string) *ir.Function {
	t.Helper()
	prog, diags := parser.Parse("test.pln", []byte(src))
	if diags.HasErrors() {
		t.Fatalf("parse error: %s", diags.String())
	}
	checkDiags := checker.Check("test.pln", prog, nil)
	if checkDiags.HasErrors() {
		t.Fatalf("check error: %s", checkDiags.String())
	}
	mod := lowering.LowerProgram(prog)
	return mod.Functions[0]
}

func TestUninitializedReadOfUndefinedLocalIsReported(t *testing.T) {
	fn := lowerSource(t, `
function f(): integer
	local x: integer
	return x
end`)
	diags := CheckUninitialized(fn)
	if !diags.HasErrors() {
		t.Fatal("expected an uninitialized-variable diagnostic")
	}
}

func TestInitializedLocalIsNotReported(t *testing.T) {
	fn := lowerSource(t, `
function f(): integer
	local x: integer = 10
	return x
end`)
	diags := CheckUninitialized(fn)
	if diags.HasErrors() {
		t.Fatalf("unexpected diagnostics: %s", diags.String())
	}
}

func TestParametersStartDefined(t *testing.T) {
	fn := lowerSource(t, `function f(x: integer): integer return x end`)
	diags := CheckUninitialized(fn)
	if diags.HasErrors() {
		t.Fatalf("unexpected diagnostics: %s", diags.String())
	}
}

func TestDefinedOnBothIfBranchesIsFine(t *testing.T) {
	fn := lowerSource(t, `
function f(b: boolean): integer
	local x: integer
	if b then
		x = 1
	else
		x = 2
	end
	return x
end`)
	diags := CheckUninitialized(fn)
	if diags.HasErrors() {
		t.Fatalf("unexpected diagnostics: %s", diags.String())
	}
}

func TestDefinedOnOnlyOneIfBranchIsReported(t *testing.T) {
	fn := lowerSource(t, `
function f(b: boolean): integer
	local x: integer
	if b then
		x = 1
	end
	return x
end`)
	diags := CheckUninitialized(fn)
	if !diags.HasErrors() {
		t.Fatal("expected a diagnostic: x is only defined on the then-branch")
	}
}

func TestLoopBodyDefinitionDoesNotEscapeTheLoop(t *testing.T) {
	fn := lowerSource(t, `
function f(): integer
	local x: integer
	while false do
		x = 1
	end
	return x
end`)
	diags := CheckUninitialized(fn)
	if !diags.HasErrors() {
		t.Fatal("expected a diagnostic: a while loop may run zero times")
	}
}

func TestRepeatBodyAlwaysRunsAtLeastOnce(t *testing.T) {
	fn := lowerSource(t, `
function f(): integer
	local x: integer
	repeat
		x = 1
	until x == 1
	return x
end`)
	diags := CheckUninitialized(fn)
	if diags.HasErrors() {
		t.Fatalf("unexpected diagnostics: %s", diags.String())
	}
}
