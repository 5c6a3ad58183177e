package checker

import (
	"testing"

	"github.com/pallene-lang/pallenec/internal/ast"
	"github.com/pallene-lang/pallenec/internal/parser"
	"github.com/pallene-lang/pallenec/internal/types"
)

func mustParse(t *testing.T, src string) *ast.Program {
	t.Helper()
	prog, diags := parser.Parse("test.pln", []byte(src))
	if diags.HasErrors() {
		t.Fatalf("parse error: %s", diags.String())
	}
	return prog
}

func TestArithmeticPromotesMixedOperandsToFloat(t *testing.T) {
	prog := mustParse(t, `function f(): float return 1 + 2.0 end`)
	diags := Check("test.pln", prog, nil)
	if diags.HasErrors() {
		t.Fatalf("unexpected diagnostics: %s", diags.String())
	}
	fn := prog.Toplevs[0].(*ast.TopFunc)
	ret := fn.Body.Stats[0].(*ast.Return)
	bin := ret.Vals[0].(*ast.Binop)
	if bin.Type().Tag != types.TagFloat {
		t.Fatalf("got %s, want float", bin.Type())
	}
	cast, ok := bin.LHS.(*ast.Cast)
	if !ok || !cast.Implicit || cast.Target.Tag != types.TagFloat {
		t.Fatalf("expected an implicit float cast on the integer literal, got %#v", bin.LHS)
	}
}

func TestIntegerDivisionKeepsIntegerWhenBothOperandsAreIntegers(t *testing.T) {
	prog := mustParse(t, `function f(): integer return 7 // 2 end`)
	diags := Check("test.pln", prog, nil)
	if diags.HasErrors() {
		t.Fatalf("unexpected diagnostics: %s", diags.String())
	}
	fn := prog.Toplevs[0].(*ast.TopFunc)
	ret := fn.Body.Stats[0].(*ast.Return)
	if ret.Vals[0].Type().Tag != types.TagInteger {
		t.Fatalf("got %s, want integer", ret.Vals[0].Type())
	}
}

func TestDivisionAlwaysProducesFloat(t *testing.T) {
	prog := mustParse(t, `function f(): float return 4 / 2 end`)
	diags := Check("test.pln", prog, nil)
	if diags.HasErrors() {
		t.Fatalf("unexpected diagnostics: %s", diags.String())
	}
	fn := prog.Toplevs[0].(*ast.TopFunc)
	ret := fn.Body.Stats[0].(*ast.Return)
	if ret.Vals[0].Type().Tag != types.TagFloat {
		t.Fatalf("got %s, want float", ret.Vals[0].Type())
	}
}

func TestUndeclaredNameIsReported(t *testing.T) {
	prog := mustParse(t, `function f(): integer return x end`)
	diags := Check("test.pln", prog, nil)
	if !diags.HasErrors() {
		t.Fatal("expected an undeclared-name diagnostic")
	}
}

func TestBooleanOperatorsRejectNonBoolean(t *testing.T) {
	prog := mustParse(t, `function f(): boolean return 1 and true end`)
	diags := Check("test.pln", prog, nil)
	if !diags.HasErrors() {
		t.Fatal("expected a boolean-operand diagnostic for the integer operand of `and`")
	}
}

func TestRecordFieldAccessTypesCorrectly(t *testing.T) {
	prog := mustParse(t, `
record Point
	x: integer
	y: integer
end

function sum(p: Point): integer
	return p.x + p.y
end
`)
	diags := Check("test.pln", prog, nil)
	if diags.HasErrors() {
		t.Fatalf("unexpected diagnostics: %s", diags.String())
	}
}

func TestTypealiasResolvesToItsTarget(t *testing.T) {
	prog := mustParse(t, `
typealias IntArray = {integer}

function f(a: IntArray): integer
	return a[1]
end
`)
	diags := Check("test.pln", prog, nil)
	if diags.HasErrors() {
		t.Fatalf("unexpected diagnostics: %s", diags.String())
	}
}

func TestArrayLiteralRequiresContextType(t *testing.T) {
	prog := mustParse(t, `
function f(): {integer}
	local a = {1, 2, 3}
	return a
end
`)
	diags := Check("test.pln", prog, nil)
	if !diags.HasErrors() {
		t.Fatal("expected a missing-context-type diagnostic for the uninferred local")
	}
}

func TestArrayLiteralWithAnnotationTypesElements(t *testing.T) {
	prog := mustParse(t, `
function f(): {integer}
	local a: {integer} = {1, 2, 3}
	return a
end
`)
	diags := Check("test.pln", prog, nil)
	if diags.HasErrors() {
		t.Fatalf("unexpected diagnostics: %s", diags.String())
	}
}

func TestCastBetweenUnrelatedTypesIsAnError(t *testing.T) {
	prog := mustParse(t, `function f(): integer return "hi" as integer end`)
	diags := Check("test.pln", prog, nil)
	if !diags.HasErrors() {
		t.Fatal("expected a bad-cast diagnostic for string as integer")
	}
}

func TestCastThroughAnyIsAllowed(t *testing.T) {
	prog := mustParse(t, `function f(x: any): integer return x as integer end`)
	diags := Check("test.pln", prog, nil)
	if diags.HasErrors() {
		t.Fatalf("unexpected diagnostics: %s", diags.String())
	}
}

func TestDirectCallToTopLevelFunctionIsMarked(t *testing.T) {
	prog := mustParse(t, `
function g(): integer return 1 end
function f(): integer return g() end
`)
	diags := Check("test.pln", prog, nil)
	if diags.HasErrors() {
		t.Fatalf("unexpected diagnostics: %s", diags.String())
	}
	f := prog.Toplevs[1].(*ast.TopFunc)
	ret := f.Body.Stats[0].(*ast.Return)
	call := ret.Vals[0].(*ast.CallFunc)
	if !call.Direct {
		t.Fatal("expected a direct call to a named top-level function")
	}
}

func TestArityMismatchIsReported(t *testing.T) {
	prog := mustParse(t, `
function g(x: integer): integer return x end
function f(): integer return g(1, 2) end
`)
	diags := Check("test.pln", prog, nil)
	if !diags.HasErrors() {
		t.Fatal("expected an arity-mismatch diagnostic")
	}
}

func TestForLoopSpecializesToFloatWhenAnyBoundIsFloat(t *testing.T) {
	prog := mustParse(t, `
function f(): integer
	local total: integer = 0
	for i = 1, 10.0 do
		total = total + 1
	end
	return total
end
`)
	diags := Check("test.pln", prog, nil)
	if diags.HasErrors() {
		t.Fatalf("unexpected diagnostics: %s", diags.String())
	}
	fn := prog.Toplevs[0].(*ast.TopFunc)
	forStat := fn.Body.Stats[1].(*ast.For)
	if forStat.IterType.Tag != types.TagFloat {
		t.Fatalf("got %s, want float", forStat.IterType)
	}
}

func TestUndeclaredTypeIsReportedAtTheReferenceSite(t *testing.T) {
	prog := mustParse(t, `
function f(p: Point): integer
	return 1
end
`)
	diags := Check("test.pln", prog, nil)
	if !diags.HasErrors() {
		t.Fatal("expected an undeclared-type diagnostic")
	}
	items := diags.Items()
	got := items[0]
	if got.Message != "type 'Point' is not declared" {
		t.Fatalf("got message %q, want %q", got.Message, "type 'Point' is not declared")
	}
	if got.Pos.Line != 2 {
		t.Fatalf("got line %d, want 2 (the `p: Point` parameter), not the zero position", got.Pos.Line)
	}
}

func TestExportVarIsMutableInsideItsOwnModule(t *testing.T) {
	// Within the declaring module an export var assigns freely; an
	// importer assigning through its module binding is rejected by
	// checkAssign.
	prog := mustParse(t, `
export total: integer = 0

function bump()
	total = total + 1
end
`)
	diags := Check("test.pln", prog, nil)
	if diags.HasErrors() {
		t.Fatalf("unexpected diagnostics: %s", diags.String())
	}
}
