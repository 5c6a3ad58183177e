package checker

import (
	"github.com/pallene-lang/pallenec/internal/ast"
	"github.com/pallene-lang/pallenec/internal/diagnostics"
	"github.com/pallene-lang/pallenec/internal/position"
	"github.com/pallene-lang/pallenec/internal/types"
)

// checkExp types e with no surrounding context type, sets e's decorated
// type, and returns it. Every Exp variant is handled explicitly: the
// switch has no default case, so a newly added AST node would leave e
// untyped (caught by a failing checker test, not silently ignored).
func (c *Checker) checkExp(e ast.Exp) *types.Type {
	var t *types.Type
	switch n := e.(type) {
	case *ast.NilExp:
		t = types.Nil()
	case *ast.BoolExp:
		t = types.Boolean()
	case *ast.IntExp:
		t = types.Integer()
	case *ast.FloatExp:
		t = types.Float()
	case *ast.StringExp:
		t = types.String()
	case *ast.NameVar:
		t = c.checkNameVar(n)
	case *ast.DotVar:
		t = c.checkDotVar(n)
	case *ast.BracketVar:
		t = c.checkBracketVar(n)
	case *ast.Paren:
		t = c.checkExp(n.Inner)
	case *ast.Unop:
		t = c.checkUnop(n)
	case *ast.Binop:
		t = c.checkBinop(n)
	case *ast.Concat:
		t = c.checkConcat(n)
	case *ast.Cast:
		t = c.checkCast(n)
	case *ast.CallFunc:
		t = c.checkCallFunc(n)
	case *ast.CallMethod:
		t = c.checkCallMethod(n)
	case *ast.Lambda:
		t = c.checkLambda(n)
	case *ast.InitList:
		c.diags.Add(n.Span.Start, diagnostics.Type, msgNeedsContextType)
		t = types.Any()
	}
	e.SetType(t)
	return t
}

// checkExpWithContext is used wherever array/table literals get a
// surrounding type: variable annotations, return values,
// parameter slots, and table/array literal elements.
func (c *Checker) checkExpWithContext(e ast.Exp, ctx *types.Type) *types.Type {
	if lit, ok := e.(*ast.InitList); ok {
		t := c.checkInitList(lit, ctx)
		e.SetType(t)
		return t
	}
	return c.checkExp(e)
}

func (c *Checker) checkInitList(lit *ast.InitList, ctx *types.Type) *types.Type {
	if ctx == nil {
		c.diags.Add(lit.Span.Start, diagnostics.Type, msgNeedsContextType)
		ctx = types.Any()
	}
	resolved := ctx.Resolve()
	switch resolved.Tag {
	case types.TagArray:
		var prev *types.Type
		for i, elem := range lit.Elems {
			got := c.checkExpWithContext(elem, resolved.Elem)
			lit.Elems[i] = c.coerceTo(elem, resolved.Elem)
			if prev != nil && !types.Equal(prev, got) {
				c.diags.Add(elem.GetSpan().Start, diagnostics.Type, msgNonUniformElements, prev.String(), got.String())
			}
			prev = got
		}
		return types.Array(resolved.Elem)
	case types.TagTable:
		for i, key := range lit.Keys {
			fieldType, ok := resolved.Fields[key]
			if !ok {
				c.diags.Add(lit.Elems[i].GetSpan().Start, diagnostics.Type, msgNoSuchField, resolved.String(), key)
				continue
			}
			c.checkExpWithContext(lit.Elems[i], fieldType)
			lit.Elems[i] = c.coerceTo(lit.Elems[i], fieldType)
		}
		return resolved
	default:
		c.diags.Add(lit.Span.Start, diagnostics.Type, msgTypeMismatch, resolved.String(), "an array or table literal")
		return resolved
	}
}

func (c *Checker) checkNameVar(n *ast.NameVar) *types.Type {
	decl, ok := c.scope.Lookup(n.Name)
	if !ok {
		c.diags.Add(n.Span.Start, diagnostics.Name, msgUndeclaredName, n.Name)
		return types.Any()
	}
	return decl.Type
}

func (c *Checker) checkDotVar(n *ast.DotVar) *types.Type {
	recv := c.checkExp(n.Recv)
	resolved := recv.Resolve()
	if resolved == nil {
		return types.Any()
	}
	switch resolved.Tag {
	case types.TagRecord, types.TagTable:
		if ft, ok := resolved.Fields[n.Field]; ok {
			return ft
		}
		c.diags.Add(n.Span.Start, diagnostics.Type, msgNoSuchField, resolved.String(), n.Field)
		return types.Any()
	case types.TagAny:
		return types.Any()
	default:
		c.diags.Add(n.Span.Start, diagnostics.Type, msgNotIndexable, resolved.String())
		return types.Any()
	}
}

func (c *Checker) checkBracketVar(n *ast.BracketVar) *types.Type {
	recv := c.checkExp(n.Recv)
	index := c.checkExp(n.Index)
	resolved := recv.Resolve()
	if resolved == nil {
		return types.Any()
	}
	switch resolved.Tag {
	case types.TagArray:
		if index.Resolve().Tag != types.TagInteger {
			c.diags.Add(n.Index.GetSpan().Start, diagnostics.Type, msgIntegerOperand, index.String())
		}
		return resolved.Elem
	case types.TagAny:
		return types.Any()
	default:
		c.diags.Add(n.Span.Start, diagnostics.Type, msgNotIndexable, resolved.String())
		return types.Any()
	}
}

func (c *Checker) checkUnop(n *ast.Unop) *types.Type {
	val := c.checkExp(n.Val)
	resolved := val.Resolve()
	switch n.Op {
	case ast.UnopNot:
		if resolved.Tag != types.TagBoolean {
			c.diags.Add(n.Val.GetSpan().Start, diagnostics.Type, msgBoolOperand, resolved.String())
		}
		return types.Boolean()
	case ast.UnopLen:
		if resolved.Tag != types.TagArray && resolved.Tag != types.TagString {
			c.diags.Add(n.Val.GetSpan().Start, diagnostics.Type, msgLenOperand, resolved.String())
		}
		return types.Integer()
	case ast.UnopNeg:
		if !resolved.IsNumeric() {
			c.diags.Add(n.Val.GetSpan().Start, diagnostics.Type, msgNumericOperand, resolved.String())
			return types.Any()
		}
		return resolved
	case ast.UnopBitNot:
		if resolved.Tag != types.TagInteger {
			c.diags.Add(n.Val.GetSpan().Start, diagnostics.Type, msgIntegerOperand, resolved.String())
		}
		return types.Integer()
	}
	return types.Any()
}

// checkBinop implements the arithmetic/comparison/logical promotion
// table, inserting an explicit implicit Cast node on whichever
// operand needs promoting so later stages see homogeneous types.
func (c *Checker) checkBinop(n *ast.Binop) *types.Type {
	lhs := c.checkExp(n.LHS)
	rhs := c.checkExp(n.RHS)
	lr, rr := lhs.Resolve(), rhs.Resolve()

	switch n.Op {
	case ast.BinopAdd, ast.BinopSub, ast.BinopMul, ast.BinopMod, ast.BinopIDiv:
		return c.checkArith(n, lr, rr)
	case ast.BinopDiv, ast.BinopPow:
		if !lr.IsNumeric() || !rr.IsNumeric() {
			c.reportNonNumeric(n, lr, rr)
		}
		n.LHS = c.coerceTo(n.LHS, types.Float())
		n.RHS = c.coerceTo(n.RHS, types.Float())
		return types.Float()
	case ast.BinopEq, ast.BinopNe:
		if lr.IsNumeric() && rr.IsNumeric() {
			if !types.Equal(lr, rr) {
				target := types.Float()
				n.LHS = c.coerceTo(n.LHS, target)
				n.RHS = c.coerceTo(n.RHS, target)
			}
		} else if !types.Equal(lr, rr) && lr.Tag != types.TagAny && rr.Tag != types.TagAny {
			c.diags.Add(n.Span.Start, diagnostics.Type, msgTypeMismatch, lr.String(), rr.String())
		}
		return types.Boolean()
	case ast.BinopLt, ast.BinopLe, ast.BinopGt, ast.BinopGe:
		if !lr.IsNumeric() || !rr.IsNumeric() {
			if lr.Tag != types.TagString || rr.Tag != types.TagString {
				c.reportNonNumeric(n, lr, rr)
			}
		} else if !types.Equal(lr, rr) {
			target := types.Float()
			n.LHS = c.coerceTo(n.LHS, target)
			n.RHS = c.coerceTo(n.RHS, target)
		}
		return types.Boolean()
	case ast.BinopAnd, ast.BinopOr:
		if lr.Tag != types.TagBoolean {
			c.diags.Add(n.LHS.GetSpan().Start, diagnostics.Type, msgBoolOperand, lr.String())
		}
		if rr.Tag != types.TagBoolean {
			c.diags.Add(n.RHS.GetSpan().Start, diagnostics.Type, msgBoolOperand, rr.String())
		}
		return types.Boolean()
	case ast.BinopBitAnd, ast.BinopBitOr, ast.BinopBitXor, ast.BinopShl, ast.BinopShr:
		if lr.Tag != types.TagInteger {
			c.diags.Add(n.LHS.GetSpan().Start, diagnostics.Type, msgIntegerOperand, lr.String())
		}
		if rr.Tag != types.TagInteger {
			c.diags.Add(n.RHS.GetSpan().Start, diagnostics.Type, msgIntegerOperand, rr.String())
		}
		return types.Integer()
	}
	return types.Any()
}

func (c *Checker) reportNonNumeric(n *ast.Binop, lr, rr *types.Type) {
	if !lr.IsNumeric() {
		c.diags.Add(n.LHS.GetSpan().Start, diagnostics.Type, msgNumericOperand, lr.String())
	}
	if !rr.IsNumeric() {
		c.diags.Add(n.RHS.GetSpan().Start, diagnostics.Type, msgNumericOperand, rr.String())
	}
}

// checkArith handles `+ - * % //`: both-integer stays integer, both-float
// stays float, a mixed pair promotes the integer operand to float.
// `//` preserves kind exactly like the others here since same-kind
// pairs already keep their kind and mixed pairs already promote —
// there is no third case.
func (c *Checker) checkArith(n *ast.Binop, lr, rr *types.Type) *types.Type {
	if !lr.IsNumeric() || !rr.IsNumeric() {
		c.reportNonNumeric(n, lr, rr)
		return types.Any()
	}
	if lr.Tag == rr.Tag {
		return lr
	}
	target := types.Float()
	n.LHS = c.coerceTo(n.LHS, target)
	n.RHS = c.coerceTo(n.RHS, target)
	return target
}

func (c *Checker) checkConcat(n *ast.Concat) *types.Type {
	flat := make([]ast.Exp, 0, len(n.Parts))
	for _, p := range n.Parts {
		if inner, ok := p.(*ast.Concat); ok {
			flat = append(flat, inner.Parts...)
		} else {
			flat = append(flat, p)
		}
	}
	n.Parts = flat
	for _, p := range n.Parts {
		t := c.checkExp(p).Resolve()
		switch t.Tag {
		case types.TagString, types.TagInteger, types.TagFloat:
		default:
			c.diags.Add(p.GetSpan().Start, diagnostics.Type, msgBadConcatOperand, t.String())
		}
	}
	return types.String()
}

func (c *Checker) checkCast(n *ast.Cast) *types.Type {
	c.expandType(n.Target, map[string]bool{})
	got := c.checkExp(n.Value).Resolve()
	target := n.Target.Resolve()
	ok := got.Tag == types.TagAny || target.Tag == types.TagAny || (got.IsNumeric() && target.IsNumeric()) || types.Equal(got, target)
	if !ok {
		c.diags.Add(n.Span.Start, diagnostics.Type, msgBadCast, got.String(), target.String())
	}
	return n.Target
}

func (c *Checker) checkCallFunc(n *ast.CallFunc) *types.Type {
	calleeType := c.checkExp(n.Callee).Resolve()
	if calleeType.Tag == types.TagAny {
		for _, a := range n.Args {
			c.checkExp(a)
		}
		return types.Any()
	}
	if calleeType.Tag != types.TagFunction {
		c.diags.Add(n.Span.Start, diagnostics.Type, msgNotCallable, calleeType.String())
		for _, a := range n.Args {
			c.checkExp(a)
		}
		return types.Any()
	}
	if nv, ok := n.Callee.(*ast.NameVar); ok {
		if decl, found := c.scope.Lookup(nv.Name); found && !decl.IsImport {
			n.Direct = true
		}
	}
	c.checkArgs(n.Span.Start, calleeType, n.Args)
	return firstOrNil(calleeType.Rets)
}

func (c *Checker) checkCallMethod(n *ast.CallMethod) *types.Type {
	recv := c.checkExp(n.Receiver).Resolve()
	if recv.Tag == types.TagAny {
		for _, a := range n.Args {
			c.checkExp(a)
		}
		return types.Any()
	}
	fieldType, ok := recv.Fields[n.Method]
	if !ok || fieldType.Resolve().Tag != types.TagFunction {
		c.diags.Add(n.Span.Start, diagnostics.Type, msgNoSuchField, recv.String(), n.Method)
		for _, a := range n.Args {
			c.checkExp(a)
		}
		return types.Any()
	}
	c.checkArgs(n.Span.Start, fieldType.Resolve(), n.Args)
	return firstOrNil(fieldType.Resolve().Rets)
}

func (c *Checker) checkArgs(pos position.Position, fnType *types.Type, args []ast.Exp) {
	if len(args) != len(fnType.Args) {
		c.diags.Add(pos, diagnostics.Type, msgArityMismatch, len(fnType.Args), len(args))
	}
	n := len(args)
	if len(fnType.Args) < n {
		n = len(fnType.Args)
	}
	for i := 0; i < n; i++ {
		c.checkExpWithContext(args[i], fnType.Args[i])
		args[i] = c.coerceTo(args[i], fnType.Args[i])
	}
	for i := n; i < len(args); i++ {
		c.checkExp(args[i])
	}
}

func (c *Checker) checkLambda(n *ast.Lambda) *types.Type {
	c.pushScope()
	defer c.popScope()
	for _, p := range n.Params {
		c.expandType(p.Type, map[string]bool{})
		c.scope.Declare(&Declaration{Name: p.Name, Type: p.Type, Mutable: true})
	}
	for _, r := range n.Rets {
		c.expandType(r, map[string]bool{})
	}
	prevRets := c.retTypes
	c.retTypes = n.Rets
	c.checkBlock(n.Body)
	c.retTypes = prevRets

	args := make([]*types.Type, len(n.Params))
	for i, p := range n.Params {
		args[i] = p.Type
	}
	return types.Function(args, n.Rets)
}

// coerceTo wraps e in an implicit Cast to target when target/got are
// numeric types of different kinds (integer<->float promotion), and
// reports a type error for any other mismatch. It leaves
// e untouched when no promotion or report is needed.
func (c *Checker) coerceTo(e ast.Exp, target *types.Type) ast.Exp {
	got := e.Type()
	if target == nil || got == nil {
		return e
	}
	tr, gr := target.Resolve(), got.Resolve()
	if types.Equal(tr, gr) || tr.Tag == types.TagAny {
		return e
	}
	if tr.IsNumeric() && gr.IsNumeric() {
		cast := &ast.Cast{
			ExpBase:  ast.ExpBase{Span: e.GetSpan(), Typ: target},
			Value:    e,
			Target:   target,
			Implicit: true,
		}
		return cast
	}
	c.diags.Add(e.GetSpan().Start, diagnostics.Type, msgTypeMismatch, tr.String(), gr.String())
	return e
}

func (c *Checker) requireAssignable(e ast.Exp, target, got *types.Type) {
	tr, gr := target.Resolve(), got.Resolve()
	if types.Equal(tr, gr) || tr.Tag == types.TagAny || (tr.IsNumeric() && gr.IsNumeric()) {
		return
	}
	c.diags.Add(e.GetSpan().Start, diagnostics.Type, msgTypeMismatch, tr.String(), gr.String())
}

func firstOrNil(ts []*types.Type) *types.Type {
	if len(ts) == 0 {
		return types.Nil()
	}
	return ts[0]
}
