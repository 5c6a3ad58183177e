// Package ast defines Pallene's tagged AST. Every node carries
// its start position; casts, function bodies, and record/typealias
// declarations additionally carry an end position, needed only by the
// translator to know exactly which bytes to white out.
package ast

import (
	"github.com/pallene-lang/pallenec/internal/position"
	"github.com/pallene-lang/pallenec/internal/types"
)

// Node is implemented by every AST node.
type Node interface {
	GetSpan() position.Span
}

// Toplevel is implemented by Program-level declarations.
type Toplevel interface {
	Node
	toplevelNode()
}

// Stat is implemented by statement nodes.
type Stat interface {
	Node
	statNode()
}

// Exp is implemented by expression nodes. After checking, every Exp's
// Type() is non-nil; before checking it is nil.
type Exp interface {
	Node
	expNode()
	Type() *types.Type
	SetType(*types.Type)
}

// Var is implemented by assignable/addressable expressions: Name, Bracket,
// Dot. Every Var is also an Exp.
type Var interface {
	Exp
	varNode()
}

// ExpBase is embedded by every Exp to provide the decorated-type slot
// without repeating the same two methods on every node.
type ExpBase struct {
	Span position.Span
	Typ  *types.Type
}

func (e *ExpBase) GetSpan() position.Span { return e.Span }
func (e *ExpBase) Type() *types.Type      { return e.Typ }
func (e *ExpBase) SetType(t *types.Type)  { e.Typ = t }
func (e *ExpBase) expNode()               {}

// ===== Program =====

// Program is the root of one parsed file.
type Program struct {
	Span     position.Span
	Toplevs  []Toplevel
}

func (p *Program) GetSpan() position.Span { return p.Span }

// ===== Toplevel declarations =====

// TopFunc is a top-level function declaration.
type TopFunc struct {
	Span    position.Span
	Name    string
	Params  []Param
	RetSpan   position.Span // the colon plus return type (or the `()` void marker); zero value for no annotation at all
	Rets      []*types.Type
	Body      *Block
	IsLocal   bool             // false => exported
	ExportPos position.Position // position of the `export` keyword; zero value when IsLocal
}

func (f *TopFunc) GetSpan() position.Span { return f.Span }
func (*TopFunc) toplevelNode()            {}

// Param is one function parameter.
type Param struct {
	Span     position.Span
	Name     string
	Type     *types.Type
	TypeSpan position.Span // the colon plus the type annotation, stripped verbatim by the translator
}

// TopVar is a top-level variable declaration (`local`/`export x: T = e`).
type TopVar struct {
	Span     position.Span
	Name     string
	Type     *types.Type
	TypeSpan position.Span // the colon plus the type annotation; zero value when untyped
	Value     Exp
	IsLocal   bool
	ExportPos position.Position // position of the `export` keyword; zero value when IsLocal
}

func (v *TopVar) GetSpan() position.Span { return v.Span }
func (*TopVar) toplevelNode()            {}

// TopRecord is a `record Name ... end` declaration.
type TopRecord struct {
	Span       position.Span // the full declaration, including `end` — stripped verbatim by the translator
	Name       string
	FieldOrder []string
	Fields     map[string]*types.Type
}

func (r *TopRecord) GetSpan() position.Span { return r.Span }
func (*TopRecord) toplevelNode()            {}

// TopTypealias is a `typealias Name = Type` declaration.
type TopTypealias struct {
	Span   position.Span // the full declaration — stripped verbatim by the translator
	Name   string
	Target *types.Type
}

func (t *TopTypealias) GetSpan() position.Span { return t.Span }
func (*TopTypealias) toplevelNode()            {}

// TopImport is an `import name "module"` declaration, optionally with a
// semver constraint.
type TopImport struct {
	Span       position.Span
	Name       string
	ModulePath string
	Constraint string // empty when no version constraint was given
}

func (i *TopImport) GetSpan() position.Span { return i.Span }
func (*TopImport) toplevelNode()            {}

// ===== Statements =====

// Block is a sequence of statements sharing one lexical scope.
type Block struct {
	Span  position.Span
	Stats []Stat
}

func (b *Block) GetSpan() position.Span { return b.Span }
func (*Block) statNode()                {}

// Assign is `lhs = rhs`. The parser reports AssignNotToVar when the
// left-hand side is not a Var and leaves LHS nil.
type Assign struct {
	Span position.Span
	LHS  Var
	RHS  Exp
}

func (a *Assign) GetSpan() position.Span { return a.Span }
func (*Assign) statNode()                {}

// Decl is a local variable declaration, with or without an initializer.
type Decl struct {
	Span     position.Span
	Name     string
	Type     *types.Type // nil until annotated/inferred
	TypeSpan position.Span // the colon plus the type annotation; zero value when untyped
	HasInit  bool
	Value    Exp
}

func (d *Decl) GetSpan() position.Span { return d.Span }
func (*Decl) statNode()                {}

// If is `if cond then block (elseif cond then block)* (else block)? end`,
// already desugared into a chain of (Cond, Then) arms plus an optional
// Else.
type If struct {
	Span position.Span
	Arms []IfArm
	Else *Block
}

// IfArm is one `(elseif) cond then block` arm.
type IfArm struct {
	Cond Exp
	Then *Block
}

func (i *If) GetSpan() position.Span { return i.Span }
func (*If) statNode()                {}

// While is `while cond do block end`.
type While struct {
	Span position.Span
	Cond Exp
	Body *Block
}

func (w *While) GetSpan() position.Span { return w.Span }
func (*While) statNode()                {}

// Repeat is `repeat block until cond`.
type Repeat struct {
	Span position.Span
	Body *Block
	Cond Exp
}

func (r *Repeat) GetSpan() position.Span { return r.Span }
func (*Repeat) statNode()                {}

// For is a numeric `for name = start, limit [, step] do block end`.
type For struct {
	Span  position.Span
	Name  string
	Start Exp
	Limit Exp
	Step  Exp // nil => implicit 1
	Body  *Block
	// IterType is filled in by the checker: Integer or Float, selecting
	// which numeric for-loop specialization the lowering pass emits.
	IterType *types.Type
}

func (f *For) GetSpan() position.Span { return f.Span }
func (*For) statNode()                {}

// Break is a `break` statement.
type Break struct {
	Span position.Span
}

func (b *Break) GetSpan() position.Span { return b.Span }
func (*Break) statNode()                {}

// Return is a `return [exp]` statement.
type Return struct {
	Span position.Span
	Vals []Exp
}

func (r *Return) GetSpan() position.Span { return r.Span }
func (*Return) statNode()                {}

// CallStat wraps a call expression used as a statement.
type CallStat struct {
	Span position.Span
	Call Exp
}

func (c *CallStat) GetSpan() position.Span { return c.Span }
func (*CallStat) statNode()                {}

// ===== Expressions =====

type NilExp struct{ ExpBase }
type BoolExp struct {
	ExpBase
	Value bool
}
type IntExp struct {
	ExpBase
	Value int64
}
type FloatExp struct {
	ExpBase
	Value float64
}
type StringExp struct {
	ExpBase
	Value string
}

// InitList is `{e1, e2, ...}` or `{k1 = e1, ...}`, requiring a surrounding
// context type.
type InitList struct {
	ExpBase
	Keys  []string // "" for positional elements
	Elems []Exp
}

// Lambda is an anonymous function literal bound to a Function type.
type Lambda struct {
	ExpBase
	Params  []Param
	RetSpan position.Span
	Rets    []*types.Type
	Body    *Block
}

// Cast is `e as T`. AsPos/EndPos bound exactly the `as T` span, from
// the `as` keyword to the end of T (whitespace between Value and `as`
// is outside it), needed by the translator to strip exactly that span
// and nothing of Value.
type Cast struct {
	ExpBase
	AsPos  position.Position
	EndPos position.Position
	Value  Exp
	Target *types.Type
	// Implicit is true for casts the checker inserted itself (the
	// integer<->float promotions), which have no corresponding `as`
	// text and so are never stripped by the translator — they do not
	// exist in the original source.
	Implicit bool
}

// UnopKind enumerates unary operators.
type UnopKind int

const (
	UnopNot UnopKind = iota
	UnopLen
	UnopNeg
	UnopBitNot
)

type Unop struct {
	ExpBase
	Op  UnopKind
	Val Exp
}

// BinopKind enumerates binary arithmetic, comparison, bitwise, and
// logical operators. Concatenation has its own node (Concat) because it
// flattens n-ary chains.
type BinopKind int

const (
	BinopAdd BinopKind = iota
	BinopSub
	BinopMul
	BinopDiv
	BinopIDiv
	BinopMod
	BinopPow
	BinopEq
	BinopNe
	BinopLt
	BinopLe
	BinopGt
	BinopGe
	BinopAnd
	BinopOr
	BinopBitAnd
	BinopBitOr
	BinopBitXor
	BinopShl
	BinopShr
)

type Binop struct {
	ExpBase
	Op  BinopKind
	LHS Exp
	RHS Exp
}

// Concat is a flattened `a .. b .. c` chain.
type Concat struct {
	ExpBase
	Parts []Exp
}

// CallFunc is `f(args)` or an indirect call through a function value.
type CallFunc struct {
	ExpBase
	Callee Exp
	Args   []Exp
	// Direct is true when Callee statically names a known top-level
	// function, selecting the direct-call path over the boxed-call
	// protocol used for function values.
	Direct bool
}

// CallMethod is `obj:method(args)`.
type CallMethod struct {
	ExpBase
	Receiver Exp
	Method   string
	Args     []Exp
}

// Paren is a parenthesized expression, kept as its own node because it
// truncates a multi-value call to its first result.
type Paren struct {
	ExpBase
	Inner Exp
}

// NameVar, BracketVar, and DotVar are the three Var node kinds.

type NameVar struct {
	ExpBase
	Name string
}

type BracketVar struct {
	ExpBase
	Recv  Exp
	Index Exp
}

type DotVar struct {
	ExpBase
	Recv  Exp
	Field string
}

func (*NameVar) varNode()    {}
func (*BracketVar) varNode() {}
func (*DotVar) varNode()     {}
