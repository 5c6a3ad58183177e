// Package ir defines Pallene's per-function intermediate representation
//: a flat vector of Locals plus a vector of structured
// Commands operating on them by integer index. There is no SSA form; the
// IR stays close to the source's control-flow shape so the analysis
// passes in package analysis can walk it directly.
package ir

import (
	"github.com/pallene-lang/pallenec/internal/ast"
	"github.com/pallene-lang/pallenec/internal/position"
	"github.com/pallene-lang/pallenec/internal/types"
)

// Module is one compiled file's lowered functions.
type Module struct {
	Functions []*Function
}

// Local is one slot in a function's locals vector. Parameters occupy the
// first NumParams entries, in declaration order; the rest are
// function-local declarations and lowering-introduced temporaries, also
// in the order they were introduced.
type Local struct {
	Name string // "" for a lowering-introduced temporary
	Type *types.Type
}

// Function is one lowered top-level function or lambda.
type Function struct {
	Name      string
	NumParams int
	Locals    []Local
	Rets      []*types.Type
	Body      []Command
}

// Value is an operand: either a reference to a local or an immediate
// constant. Every subexpression is flattened into one of these by
// lowering, so no Command operand is itself a nested
// expression tree.
type Value interface {
	valueNode()
}

type LocalRef struct{ Index int }
type ConstNil struct{}
type ConstBool struct{ Value bool }
type ConstInt struct{ Value int64 }
type ConstFloat struct{ Value float64 }
type ConstString struct{ Value string }

// FuncRef names a lowered function by its Module-unique name: either a
// top-level function, or a synthesized name for a lambda literal's own
// lowered body.
type FuncRef struct{ Name string }

func (LocalRef) valueNode()    {}
func (ConstNil) valueNode()    {}
func (ConstBool) valueNode()   {}
func (ConstInt) valueNode()    {}
func (ConstFloat) valueNode()  {}
func (ConstString) valueNode() {}
func (FuncRef) valueNode()     {}

// Command is one IR instruction. Every command that can read or write a
// local carries a Pos so the uninitialized-variable pass (package
// analysis) can point at the exact offending read.
type Command interface {
	GetPos() position.Position
	commandNode()
}

// Base is embedded by every Command to provide GetPos without repeating
// it on every variant.
type Base struct{ Pos position.Position }

func (b Base) GetPos() position.Position { return b.Pos }
func (Base) commandNode()                {}

// GetGlobal reads a top-level (module-scope) variable into Dst. Locals
// and parameters never go through this command; only names that resolve
// to a module-scope declaration do.
type GetGlobal struct {
	Base
	Dst  int
	Name string
}

// SetGlobal writes Val into a top-level variable.
type SetGlobal struct {
	Base
	Name string
	Val  Value
}

// Move writes Src into Dst, e.g. lowering a bare `local x = e`.
type Move struct {
	Base
	Dst int
	Src Value
}

// BinOp writes the result of an already-typechecked binary operator into
// Dst.
type BinOp struct {
	Base
	Dst      int
	Op       ast.BinopKind
	LHS, RHS Value
}

// UnOp writes the result of a unary operator into Dst.
type UnOp struct {
	Base
	Dst int
	Op  ast.UnopKind
	Val Value
}

// Concat writes the concatenation of Parts (already flattened by the
// checker) into Dst.
type Concat struct {
	Base
	Dst   int
	Parts []Value
}

// Convert is the explicit form of a checker-inserted implicit cast, or of
// an explicit `as` cast.
type Convert struct {
	Base
	Dst      int
	Src      Value
	From, To *types.Type
}

// CallDirect calls a statically-known top-level function.
type CallDirect struct {
	Base
	Dsts []int
	Func string
	Args []Value
}

// CallIndirect calls a function value through the boxed-call protocol.
type CallIndirect struct {
	Base
	Dsts   []int
	Callee Value
	Args   []Value
}

// NewArray builds a fresh array value from Elems.
type NewArray struct {
	Base
	Dst   int
	Elem  *types.Type
	Elems []Value
}

// NewTable builds a fresh table or record value.
type NewTable struct {
	Base
	Dst        int
	RecordName string // "" for a plain table literal
	Order      []string
	Fields     map[string]Value
}

// GetField reads Recv.Field into Dst (record/table field access; no
// runtime check needed since the checker already verified the field
// exists).
type GetField struct {
	Base
	Dst   int
	Recv  Value
	Field string
}

// SetField writes Val into Recv.Field.
type SetField struct {
	Base
	Recv  Value
	Field string
	Val   Value
}

// CheckedIndexGet reads Recv[Index] into Dst with a runtime bounds and
// type-tag check.
type CheckedIndexGet struct {
	Base
	Dst   int
	Recv  Value
	Index Value
}

// CheckedIndexSet writes Val into Recv[Index] with the same runtime
// checks as CheckedIndexGet.
type CheckedIndexSet struct {
	Base
	Recv  Value
	Index Value
	Val   Value
}

// If is a structured conditional. CondPrep holds any commands needed to
// compute Cond (e.g. a short-circuited `and`/`or`); it runs immediately
// before Cond is tested.
type If struct {
	Base
	CondPrep []Command
	Cond     Value
	Then     []Command
	Else     []Command
}

// While is a structured pre-tested loop. CondPrep is re-run before every
// test of Cond, including the first.
type While struct {
	Base
	CondPrep []Command
	Cond     Value
	Body     []Command
}

// Repeat is a structured post-tested loop; Cond (and CondPrep) are
// evaluated in the same scope as Body, after it runs.
type Repeat struct {
	Base
	Body     []Command
	CondPrep []Command
	Cond     Value
}

// ForNumInt is a numeric for-loop over integers: stops without wrapping
// on overflow.
type ForNumInt struct {
	Base
	Local             int
	Start, Limit, Step Value
	Body              []Command
}

// ForNumFloat is a numeric for-loop over floats: stops by the direction
// of Step.
type ForNumFloat struct {
	Base
	Local              int
	Start, Limit, Step Value
	Body               []Command
}

// Break exits the innermost enclosing loop.
type Break struct{ Base }

// Return exits the function with Vals.
type Return struct {
	Base
	Vals []Value
}
