package parser

import (
	"testing"

	"github.com/pallene-lang/pallenec/internal/ast"
)

func TestParseSimpleFunction(t *testing.T) {
	src := `function f(): integer return 10 end`
	prog, diags := Parse("test.pln", []byte(src))
	if diags.HasErrors() {
		t.Fatalf("unexpected diagnostics: %s", diags.String())
	}
	if len(prog.Toplevs) != 1 {
		t.Fatalf("got %d toplevels, want 1", len(prog.Toplevs))
	}
	fn, ok := prog.Toplevs[0].(*ast.TopFunc)
	if !ok {
		t.Fatalf("toplevel is %T, want *ast.TopFunc", prog.Toplevs[0])
	}
	if fn.Name != "f" {
		t.Fatalf("got name %q, want f", fn.Name)
	}
	if len(fn.Body.Stats) != 1 {
		t.Fatalf("got %d statements, want 1", len(fn.Body.Stats))
	}
}

func TestBreakOutsideLoopReportsAtBreak(t *testing.T) {
	src := `function f() break end`
	_, diags := Parse("test.pln", []byte(src))
	if !diags.HasErrors() {
		t.Fatal("expected a diagnostic for break outside loop")
	}
	items := diags.Items()
	if items[0].Message != LabelBreakOutsideLoop.Message() {
		t.Fatalf("got message %q, want %q", items[0].Message, LabelBreakOutsideLoop.Message())
	}
	if items[0].Pos.Line != 1 || items[0].Pos.Column != 14 {
		t.Fatalf("got position %d:%d, want 1:14 (the break keyword)", items[0].Pos.Line, items[0].Pos.Column)
	}
}

func TestBreakInsideWhileIsFine(t *testing.T) {
	src := `function f() while true do break end end`
	_, diags := Parse("test.pln", []byte(src))
	if diags.HasErrors() {
		t.Fatalf("unexpected diagnostics: %s", diags.String())
	}
}

func TestMissingEndReportsLabel(t *testing.T) {
	src := `function f(): integer return 10`
	_, diags := Parse("test.pln", []byte(src))
	if !diags.HasErrors() {
		t.Fatal("expected a diagnostic for the missing `end`")
	}
	found := false
	for _, d := range diags.Items() {
		if d.Message == LabelExpectedEnd.Message() {
			found = true
		}
	}
	if !found {
		t.Fatalf("diagnostics did not mention the missing end: %s", diags.String())
	}
}

func TestAssignNotToVarReportsError(t *testing.T) {
	src := `function f() g() = 1 end`
	_, diags := Parse("test.pln", []byte(src))
	if !diags.HasErrors() {
		t.Fatal("expected AssignNotToVar diagnostic")
	}
}

func TestOperatorPrecedenceShape(t *testing.T) {
	src := `function f(): integer return 1 + 2 * 3 end`
	prog, diags := Parse("test.pln", []byte(src))
	if diags.HasErrors() {
		t.Fatalf("unexpected diagnostics: %s", diags.String())
	}
	fn := prog.Toplevs[0].(*ast.TopFunc)
	ret := fn.Body.Stats[0].(*ast.Return)
	top, ok := ret.Vals[0].(*ast.Binop)
	if !ok || top.Op != ast.BinopAdd {
		t.Fatalf("top operator is %#v, want + at the root (lowest precedence binds last)", ret.Vals[0])
	}
	rhs, ok := top.RHS.(*ast.Binop)
	if !ok || rhs.Op != ast.BinopMul {
		t.Fatalf("rhs is %#v, want a * node nested under +", top.RHS)
	}
}

func TestConcatFlattensChain(t *testing.T) {
	src := `function f(): string return "a" .. "b" .. "c" end`
	prog, diags := Parse("test.pln", []byte(src))
	if diags.HasErrors() {
		t.Fatalf("unexpected diagnostics: %s", diags.String())
	}
	fn := prog.Toplevs[0].(*ast.TopFunc)
	ret := fn.Body.Stats[0].(*ast.Return)
	c, ok := ret.Vals[0].(*ast.Concat)
	if !ok {
		t.Fatalf("got %T, want *ast.Concat", ret.Vals[0])
	}
	if len(c.Parts) != 3 {
		t.Fatalf("got %d parts, want 3", len(c.Parts))
	}
}

func TestImportWithVersionConstraint(t *testing.T) {
	src := `import m "modules/m" >= "1.2.0"`
	prog, diags := Parse("test.pln", []byte(src))
	if diags.HasErrors() {
		t.Fatalf("unexpected diagnostics: %s", diags.String())
	}
	imp := prog.Toplevs[0].(*ast.TopImport)
	if imp.ModulePath != "modules/m" || imp.Constraint != ">= 1.2.0" {
		t.Fatalf("got %+v", imp)
	}
}
