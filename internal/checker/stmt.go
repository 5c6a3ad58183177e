package checker

import (
	"github.com/pallene-lang/pallenec/internal/ast"
	"github.com/pallene-lang/pallenec/internal/diagnostics"
	"github.com/pallene-lang/pallenec/internal/types"
)

func (c *Checker) checkBlock(b *ast.Block) {
	c.pushScope()
	defer c.popScope()
	for _, s := range b.Stats {
		c.checkStat(s)
	}
}

func (c *Checker) checkStat(s ast.Stat) {
	switch n := s.(type) {
	case *ast.Block:
		c.checkBlock(n)
	case *ast.Decl:
		c.checkDecl(n)
	case *ast.Assign:
		c.checkAssign(n)
	case *ast.If:
		c.checkIf(n)
	case *ast.While:
		c.checkExp(n.Cond)
		c.requireBoolean(n.Cond)
		c.checkBlock(n.Body)
	case *ast.Repeat:
		c.checkRepeatBlock(n)
	case *ast.For:
		c.checkFor(n)
	case *ast.Break:
		// Validated by the parser; nothing
		// left to check here.
	case *ast.Return:
		c.checkReturn(n)
	case *ast.CallStat:
		c.checkExp(n.Call)
	}
}

func (c *Checker) checkDecl(n *ast.Decl) {
	c.expandType(n.Type, map[string]bool{})
	if !n.HasInit {
		if n.Type == nil {
			c.diags.Add(n.Span.Start, diagnostics.Type, msgNeedsContextType)
			n.Type = types.Any()
		}
		c.scope.Declare(&Declaration{Name: n.Name, Type: n.Type, Mutable: true})
		return
	}
	got := c.checkExpWithContext(n.Value, n.Type)
	if n.Type == nil {
		n.Type = got
	} else {
		n.Value = c.coerceTo(n.Value, n.Type)
		c.requireAssignable(n.Value, n.Type, got)
	}
	c.scope.Declare(&Declaration{Name: n.Name, Type: n.Type, Mutable: true})
}

func (c *Checker) checkAssign(n *ast.Assign) {
	if n.LHS == nil {
		// The parser already reported AssignNotToVar; nothing left to type.
		c.checkExp(n.RHS)
		return
	}
	lhsType := c.checkExp(n.LHS)
	if nv, ok := n.LHS.(*ast.NameVar); ok {
		if decl, found := c.scope.Lookup(nv.Name); found && !decl.Mutable {
			c.diags.Add(n.Span.Start, diagnostics.Type, msgNotAssignable, nv.Name)
		}
	}
	if dv, ok := n.LHS.(*ast.DotVar); ok {
		if recv, ok := dv.Recv.(*ast.NameVar); ok {
			if decl, found := c.scope.Lookup(recv.Name); found && decl.IsImport {
				c.diags.Add(n.Span.Start, diagnostics.Type, msgNotAssignable, recv.Name+"."+dv.Field)
			}
		}
	}
	got := c.checkExpWithContext(n.RHS, lhsType)
	n.RHS = c.coerceTo(n.RHS, lhsType)
	c.requireAssignable(n.RHS, lhsType, got)
}

func (c *Checker) checkIf(n *ast.If) {
	for i := range n.Arms {
		c.checkExp(n.Arms[i].Cond)
		c.requireBoolean(n.Arms[i].Cond)
		c.checkBlock(n.Arms[i].Then)
	}
	if n.Else != nil {
		c.checkBlock(n.Else)
	}
}

func (c *Checker) checkRepeatBlock(n *ast.Repeat) {
	// `until`'s condition is in scope of the body's locals,
	// so the body and condition share one pushed scope rather than two.
	c.pushScope()
	defer c.popScope()
	for _, s := range n.Body.Stats {
		c.checkStat(s)
	}
	c.checkExp(n.Cond)
	c.requireBoolean(n.Cond)
}

func (c *Checker) checkFor(n *ast.For) {
	startType := c.checkExp(n.Start).Resolve()
	limitType := c.checkExp(n.Limit).Resolve()
	var stepType *types.Type
	if n.Step != nil {
		stepType = c.checkExp(n.Step).Resolve()
	}

	iterType := types.Integer()
	if startType.Tag == types.TagFloat || limitType.Tag == types.TagFloat || (stepType != nil && stepType.Tag == types.TagFloat) {
		iterType = types.Float()
	}
	if !startType.IsNumeric() {
		c.diags.Add(n.Start.GetSpan().Start, diagnostics.Type, msgNumericOperand, startType.String())
	}
	if !limitType.IsNumeric() {
		c.diags.Add(n.Limit.GetSpan().Start, diagnostics.Type, msgNumericOperand, limitType.String())
	}
	if n.Step != nil && !stepType.IsNumeric() {
		c.diags.Add(n.Step.GetSpan().Start, diagnostics.Type, msgNumericOperand, stepType.String())
	}
	n.Start = c.coerceTo(n.Start, iterType)
	n.Limit = c.coerceTo(n.Limit, iterType)
	if n.Step != nil {
		n.Step = c.coerceTo(n.Step, iterType)
	}
	n.IterType = iterType

	c.pushScope()
	defer c.popScope()
	c.scope.Declare(&Declaration{Name: n.Name, Type: iterType, Mutable: true})
	for _, s := range n.Body.Stats {
		c.checkStat(s)
	}
}

func (c *Checker) checkReturn(n *ast.Return) {
	if len(n.Vals) != len(c.retTypes) {
		c.diags.Add(n.Span.Start, diagnostics.Type, msgWrongReturnCount, len(n.Vals), len(c.retTypes))
	}
	count := len(n.Vals)
	if len(c.retTypes) < count {
		count = len(c.retTypes)
	}
	for i := 0; i < count; i++ {
		got := c.checkExpWithContext(n.Vals[i], c.retTypes[i])
		n.Vals[i] = c.coerceTo(n.Vals[i], c.retTypes[i])
		c.requireAssignable(n.Vals[i], c.retTypes[i], got)
	}
	for i := count; i < len(n.Vals); i++ {
		c.checkExp(n.Vals[i])
	}
}

func (c *Checker) requireBoolean(e ast.Exp) {
	if t := e.Type().Resolve(); t.Tag != types.TagBoolean {
		c.diags.Add(e.GetSpan().Start, diagnostics.Type, msgBoolOperand, t.String())
	}
}
