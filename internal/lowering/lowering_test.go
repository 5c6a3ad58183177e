package lowering

import (
	"testing"

	"github.com/pallene-lang/pallenec/internal/checker"
	"github.com/pallene-lang/pallenec/internal/ir"
	"github.com/pallene-lang/pallenec/internal/parser"
)

func lowerSource(t *testing.T, src string) *ir.Module {
	t.Helper()
	prog, diags := parser.Parse("test.pln", []byte(src))
	if diags.HasErrors() {
		t.Fatalf("parse error: %s", diags.String())
	}
	checkDiags := checker.Check("test.pln", prog, nil)
	if checkDiags.HasErrors() {
		t.Fatalf("check error: %s", checkDiags.String())
	}
	return LowerProgram(prog)
}

func TestLowerProgramProducesOneFunctionPerToplevelFunc(t *testing.T) {
	mod := lowerSource(t, `function f(): integer return 10 end`)
	if len(mod.Functions) != 1 {
		t.Fatalf("got %d functions, want 1", len(mod.Functions))
	}
	if mod.Functions[0].Name != "f" {
		t.Fatalf("got name %q, want f", mod.Functions[0].Name)
	}
}

func TestLowerParametersOccupyLeadingLocalSlots(t *testing.T) {
	mod := lowerSource(t, `function add(a: integer, b: integer): integer return a + b end`)
	fn := mod.Functions[0]
	if fn.NumParams != 2 {
		t.Fatalf("got %d params, want 2", fn.NumParams)
	}
	if fn.Locals[0].Name != "a" || fn.Locals[1].Name != "b" {
		t.Fatalf("got locals %+v, want a, b first", fn.Locals[:2])
	}
}

func TestLowerBinopEmitsExplicitCommand(t *testing.T) {
	mod := lowerSource(t, `function add(a: integer, b: integer): integer return a + b end`)
	fn := mod.Functions[0]
	ret, ok := fn.Body[len(fn.Body)-1].(*ir.Return)
	if !ok {
		t.Fatalf("last command is %T, want *ir.Return", fn.Body[len(fn.Body)-1])
	}
	if _, ok := ret.Vals[0].(ir.LocalRef); !ok {
		t.Fatalf("return value is %T, want ir.LocalRef to the flattened BinOp result", ret.Vals[0])
	}
	foundBinOp := false
	for _, cmd := range fn.Body {
		if _, ok := cmd.(*ir.BinOp); ok {
			foundBinOp = true
		}
	}
	if !foundBinOp {
		t.Fatal("expected a flattened *ir.BinOp command for `a + b`")
	}
}

func TestLowerIfProducesStructuredCommandNoGoto(t *testing.T) {
	mod := lowerSource(t, `
function f(b: boolean): integer
	if b then
		return 1
	else
		return 2
	end
end`)
	fn := mod.Functions[0]
	found := false
	for _, cmd := range fn.Body {
		if _, ok := cmd.(*ir.If); ok {
			found = true
		}
	}
	if !found {
		t.Fatal("expected a structured *ir.If command")
	}
}

func TestLowerIntegerForUsesForNumInt(t *testing.T) {
	mod := lowerSource(t, `
function f(): integer
	local total: integer = 0
	for i = 1, 10 do
		total = total + i
	end
	return total
end`)
	fn := mod.Functions[0]
	found := false
	for _, cmd := range fn.Body {
		if _, ok := cmd.(*ir.ForNumInt); ok {
			found = true
		}
		if _, ok := cmd.(*ir.ForNumFloat); ok {
			t.Fatal("integer for-loop lowered to ForNumFloat")
		}
	}
	if !found {
		t.Fatal("expected a *ir.ForNumInt command")
	}
}

func TestLowerMixedAndShortCircuitsIntoIf(t *testing.T) {
	mod := lowerSource(t, `
function f(a: boolean, b: boolean): boolean
	return a and b
end`)
	fn := mod.Functions[0]
	found := false
	for _, cmd := range fn.Body {
		if _, ok := cmd.(*ir.If); ok {
			found = true
		}
	}
	if !found {
		t.Fatal("expected `and` to desugar into a structured *ir.If")
	}
}
