package lowering

import (
	"github.com/pallene-lang/pallenec/internal/ast"
	"github.com/pallene-lang/pallenec/internal/ir"
	"github.com/pallene-lang/pallenec/internal/types"
)

// lowerExpr flattens e into zero or more Commands that compute it plus
// the Value holding the final result: nested calls and compound
// expressions are flattened into a sequence of single-operation
// Commands. Literals and already-a-local names need no Commands at all.
func (lw *lowerer) lowerExpr(e ast.Exp) ([]ir.Command, ir.Value) {
	switch n := e.(type) {
	case *ast.NilExp:
		return nil, ir.ConstNil{}
	case *ast.BoolExp:
		return nil, ir.ConstBool{Value: n.Value}
	case *ast.IntExp:
		return nil, ir.ConstInt{Value: n.Value}
	case *ast.FloatExp:
		return nil, ir.ConstFloat{Value: n.Value}
	case *ast.StringExp:
		return nil, ir.ConstString{Value: n.Value}
	case *ast.Paren:
		return lw.lowerExpr(n.Inner)
	case *ast.NameVar:
		return lw.lowerNameVar(n)
	case *ast.DotVar:
		return lw.lowerDotVar(n)
	case *ast.BracketVar:
		return lw.lowerBracketVar(n)
	case *ast.Unop:
		return lw.lowerUnop(n)
	case *ast.Binop:
		return lw.lowerBinop(n)
	case *ast.Concat:
		return lw.lowerConcat(n)
	case *ast.Cast:
		return lw.lowerCast(n)
	case *ast.CallFunc:
		return lw.lowerCallFunc(n)
	case *ast.CallMethod:
		return lw.lowerCallMethod(n)
	case *ast.Lambda:
		return lw.lowerLambda(n)
	case *ast.InitList:
		return lw.lowerInitList(n)
	}
	return nil, ir.ConstNil{}
}

func (lw *lowerer) lowerNameVar(n *ast.NameVar) ([]ir.Command, ir.Value) {
	if idx, ok := lw.lookup(n.Name); ok {
		return nil, ir.LocalRef{Index: idx}
	}
	dst := lw.fresh(n.Type())
	return []ir.Command{&ir.GetGlobal{Base: base(n.Span.Start), Dst: dst, Name: n.Name}}, ir.LocalRef{Index: dst}
}

func (lw *lowerer) lowerDotVar(n *ast.DotVar) ([]ir.Command, ir.Value) {
	cmds, recv := lw.lowerExpr(n.Recv)
	dst := lw.fresh(n.Type())
	cmds = append(cmds, &ir.GetField{Base: base(n.Span.Start), Dst: dst, Recv: recv, Field: n.Field})
	return cmds, ir.LocalRef{Index: dst}
}

func (lw *lowerer) lowerBracketVar(n *ast.BracketVar) ([]ir.Command, ir.Value) {
	cmds, recv := lw.lowerExpr(n.Recv)
	ic, idx := lw.lowerExpr(n.Index)
	cmds = append(cmds, ic...)
	dst := lw.fresh(n.Type())
	cmds = append(cmds, &ir.CheckedIndexGet{Base: base(n.Span.Start), Dst: dst, Recv: recv, Index: idx})
	return cmds, ir.LocalRef{Index: dst}
}

func (lw *lowerer) lowerUnop(n *ast.Unop) ([]ir.Command, ir.Value) {
	cmds, val := lw.lowerExpr(n.Val)
	dst := lw.fresh(n.Type())
	cmds = append(cmds, &ir.UnOp{Base: base(n.Span.Start), Dst: dst, Op: n.Op, Val: val})
	return cmds, ir.LocalRef{Index: dst}
}

func (lw *lowerer) lowerBinop(n *ast.Binop) ([]ir.Command, ir.Value) {
	if n.Op == ast.BinopAnd || n.Op == ast.BinopOr {
		return lw.lowerShortCircuit(n)
	}
	cl, lv := lw.lowerExpr(n.LHS)
	cr, rv := lw.lowerExpr(n.RHS)
	cmds := append(cl, cr...)
	dst := lw.fresh(n.Type())
	cmds = append(cmds, &ir.BinOp{Base: base(n.Span.Start), Dst: dst, Op: n.Op, LHS: lv, RHS: rv})
	return cmds, ir.LocalRef{Index: dst}
}

// lowerShortCircuit desugars `and`/`or` into an If writing a fresh
// boolean local, evaluating the right operand only on the
// taken branch.
func (lw *lowerer) lowerShortCircuit(n *ast.Binop) ([]ir.Command, ir.Value) {
	cl, lv := lw.lowerExpr(n.LHS)
	dst := lw.fresh(types.Boolean())

	cr, rv := lw.lowerExpr(n.RHS)
	var thenCmds, elseCmds []ir.Command
	if n.Op == ast.BinopAnd {
		thenCmds = append(cr, &ir.Move{Base: base(n.Span.Start), Dst: dst, Src: rv})
		elseCmds = []ir.Command{&ir.Move{Base: base(n.Span.Start), Dst: dst, Src: lv}}
	} else {
		thenCmds = []ir.Command{&ir.Move{Base: base(n.Span.Start), Dst: dst, Src: lv}}
		elseCmds = append(cr, &ir.Move{Base: base(n.Span.Start), Dst: dst, Src: rv})
	}

	ifCmd := &ir.If{Base: base(n.Span.Start), Cond: lv, Then: thenCmds, Else: elseCmds}
	return append(cl, ifCmd), ir.LocalRef{Index: dst}
}

func (lw *lowerer) lowerConcat(n *ast.Concat) ([]ir.Command, ir.Value) {
	var cmds []ir.Command
	vals := make([]ir.Value, len(n.Parts))
	for i, p := range n.Parts {
		c, v := lw.lowerExpr(p)
		cmds = append(cmds, c...)
		vals[i] = v
	}
	dst := lw.fresh(types.String())
	cmds = append(cmds, &ir.Concat{Base: base(n.Span.Start), Dst: dst, Parts: vals})
	return cmds, ir.LocalRef{Index: dst}
}

func (lw *lowerer) lowerCast(n *ast.Cast) ([]ir.Command, ir.Value) {
	cmds, val := lw.lowerExpr(n.Value)
	dst := lw.fresh(n.Target)
	cmds = append(cmds, &ir.Convert{Base: base(n.Span.Start), Dst: dst, Src: val, From: n.Value.Type(), To: n.Target})
	return cmds, ir.LocalRef{Index: dst}
}

func (lw *lowerer) lowerCallFunc(n *ast.CallFunc) ([]ir.Command, ir.Value) {
	var cmds []ir.Command
	args := make([]ir.Value, len(n.Args))
	for i, a := range n.Args {
		c, v := lw.lowerExpr(a)
		cmds = append(cmds, c...)
		args[i] = v
	}
	dst := lw.fresh(n.Type())
	if n.Direct {
		name := n.Callee.(*ast.NameVar).Name
		cmds = append(cmds, &ir.CallDirect{Base: base(n.Span.Start), Dsts: []int{dst}, Func: name, Args: args})
		return cmds, ir.LocalRef{Index: dst}
	}
	cc, callee := lw.lowerExpr(n.Callee)
	cmds = append(cc, cmds...)
	cmds = append(cmds, &ir.CallIndirect{Base: base(n.Span.Start), Dsts: []int{dst}, Callee: callee, Args: args})
	return cmds, ir.LocalRef{Index: dst}
}

func (lw *lowerer) lowerCallMethod(n *ast.CallMethod) ([]ir.Command, ir.Value) {
	cmds, recv := lw.lowerExpr(n.Receiver)
	args := make([]ir.Value, len(n.Args))
	for i, a := range n.Args {
		c, v := lw.lowerExpr(a)
		cmds = append(cmds, c...)
		args[i] = v
	}
	recvType := n.Receiver.Type().Resolve()
	fieldType := recvType.Fields[n.Method]
	fdst := lw.fresh(fieldType)
	cmds = append(cmds, &ir.GetField{Base: base(n.Span.Start), Dst: fdst, Recv: recv, Field: n.Method})
	dst := lw.fresh(n.Type())
	cmds = append(cmds, &ir.CallIndirect{Base: base(n.Span.Start), Dsts: []int{dst}, Callee: ir.LocalRef{Index: fdst}, Args: args})
	return cmds, ir.LocalRef{Index: dst}
}

// lowerLambda lowers a lambda literal's body into its own ir.Function,
// appended to the module under a synthesized name, and produces a
// FuncRef value naming it. A lambda only sees its own parameters as
// locals; it does not close over the enclosing function's locals —
// Pallene's static fragment restricts function values to top-level
// functions and parameterless captures of other function values, never
// of mutable locals, so there is nothing for a closure to capture here.
func (lw *lowerer) lowerLambda(n *ast.Lambda) ([]ir.Command, ir.Value) {
	name := nextLambdaName(lw.lambdaCount)
	fn := lowerTopFunc(lw.mod, lw.lambdaCount, name, n.Params, n.Rets, n.Body)
	lw.mod.Functions = append(lw.mod.Functions, fn)
	return nil, ir.FuncRef{Name: name}
}

func (lw *lowerer) lowerInitList(n *ast.InitList) ([]ir.Command, ir.Value) {
	resolved := n.Type().Resolve()
	if resolved.Tag == types.TagArray {
		var cmds []ir.Command
		vals := make([]ir.Value, len(n.Elems))
		for i, el := range n.Elems {
			c, v := lw.lowerExpr(el)
			cmds = append(cmds, c...)
			vals[i] = v
		}
		dst := lw.fresh(n.Type())
		cmds = append(cmds, &ir.NewArray{Base: base(n.Span.Start), Dst: dst, Elem: resolved.Elem, Elems: vals})
		return cmds, ir.LocalRef{Index: dst}
	}

	var cmds []ir.Command
	fields := map[string]ir.Value{}
	for i, key := range n.Keys {
		c, v := lw.lowerExpr(n.Elems[i])
		cmds = append(cmds, c...)
		fields[key] = v
	}
	dst := lw.fresh(n.Type())
	recName := ""
	if resolved.Tag == types.TagRecord {
		recName = resolved.Name
	}
	cmds = append(cmds, &ir.NewTable{Base: base(n.Span.Start), Dst: dst, RecordName: recName, Order: resolved.FieldOrder, Fields: fields})
	return cmds, ir.LocalRef{Index: dst}
}
