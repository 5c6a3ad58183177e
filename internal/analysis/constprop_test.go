package analysis

import (
	"testing"

	"github.com/pallene-lang/pallenec/internal/ir"
)

func TestPropagateConstantsFoldsLiteralArithmetic(t *testing.T) {
	fn := lowerSource(t, `
function f(): integer
	local x: integer = 2
	local y: integer = 3
	return x + y
end`)
	PropagateConstants(fn)

	ret := fn.Body[len(fn.Body)-1].(*ir.Return)
	v, ok := ret.Vals[0].(ir.ConstInt)
	if !ok {
		t.Fatalf("return value is %T, want a folded ir.ConstInt", ret.Vals[0])
	}
	if v.Value != 5 {
		t.Fatalf("got %d, want 5", v.Value)
	}
}

func TestPropagateConstantsNeverFoldsDivisionByZero(t *testing.T) {
	fn := lowerSource(t, `
function f(): integer
	local x: integer = 1
	local y: integer = 0
	return x // y
end`)
	PropagateConstants(fn)

	ret := fn.Body[len(fn.Body)-1].(*ir.Return)
	if _, ok := ret.Vals[0].(ir.ConstInt); ok {
		t.Fatal("division by zero must not be folded into a compile-time constant")
	}
}

func TestPropagateConstantsSkipsLocalsAssignedMoreThanOnce(t *testing.T) {
	fn := lowerSource(t, `
function f(b: boolean): integer
	local x: integer = 1
	if b then
		x = 2
	end
	return x
end`)
	PropagateConstants(fn)

	ret := fn.Body[len(fn.Body)-1].(*ir.Return)
	if _, ok := ret.Vals[0].(ir.ConstInt); ok {
		t.Fatal("a local assigned on more than one path must not be treated as a single-assignment constant")
	}
}

func TestPropagateConstantsIsIdempotent(t *testing.T) {
	fn := lowerSource(t, `
function f(): integer
	local x: integer = 2
	local y: integer = 3
	return x + y
end`)
	PropagateConstants(fn)
	first := len(fn.Body)
	firstRet := fn.Body[len(fn.Body)-1].(*ir.Return).Vals[0]

	PropagateConstants(fn)
	second := len(fn.Body)
	secondRet := fn.Body[len(fn.Body)-1].(*ir.Return).Vals[0]

	if first != second {
		t.Fatalf("running the pass twice changed command count: %d vs %d", first, second)
	}
	if firstRet != secondRet {
		t.Fatalf("running the pass twice changed the folded value: %v vs %v", firstRet, secondRet)
	}
}
