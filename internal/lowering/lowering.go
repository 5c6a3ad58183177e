// Package lowering converts a checked AST into the flat, structured IR
// defined in package ir.
package lowering

import (
	"fmt"

	"github.com/pallene-lang/pallenec/internal/ast"
	"github.com/pallene-lang/pallenec/internal/ir"
	"github.com/pallene-lang/pallenec/internal/position"
	"github.com/pallene-lang/pallenec/internal/types"
)

// lowerer holds the mutable state of lowering one function body. Lambda
// literals spawn their own lowerer but share the enclosing mod and
// lambdaCount so every lowered function, top-level or synthesized, lands
// in one Module with a unique name.
type lowerer struct {
	fn          *ir.Function
	scopes      []map[string]int
	mod         *ir.Module
	lambdaCount *int
}

// LowerProgram lowers every top-level function in prog (checked by
// package checker) into ir.Functions. Top-level vars, records, and
// typealiases produce no IR function; they are consumed directly by the
// code generator from the checked AST.
func LowerProgram(prog *ast.Program) *ir.Module {
	mod := &ir.Module{}
	count := 0
	for _, top := range prog.Toplevs {
		f, ok := top.(*ast.TopFunc)
		if !ok {
			continue
		}
		fn := lowerTopFunc(mod, &count, f.Name, f.Params, f.Rets, f.Body)
		mod.Functions = append(mod.Functions, fn)
	}
	return mod
}

func lowerTopFunc(mod *ir.Module, count *int, name string, params []ast.Param, rets []*types.Type, body *ast.Block) *ir.Function {
	fn := &ir.Function{Name: name, Rets: rets}
	lw := &lowerer{fn: fn, mod: mod, lambdaCount: count}
	lw.pushScope()
	for _, p := range params {
		lw.declare(p.Name, p.Type)
	}
	fn.NumParams = len(params)
	fn.Body = lw.lowerBlock(body)
	lw.popScope()
	return fn
}

func (lw *lowerer) pushScope() { lw.scopes = append(lw.scopes, map[string]int{}) }
func (lw *lowerer) popScope()  { lw.scopes = lw.scopes[:len(lw.scopes)-1] }

func (lw *lowerer) newLocal(name string, t *types.Type) int {
	lw.fn.Locals = append(lw.fn.Locals, ir.Local{Name: name, Type: t})
	return len(lw.fn.Locals) - 1
}

func (lw *lowerer) declare(name string, t *types.Type) int {
	idx := lw.newLocal(name, t)
	lw.scopes[len(lw.scopes)-1][name] = idx
	return idx
}

func (lw *lowerer) fresh(t *types.Type) int { return lw.newLocal("", t) }

func (lw *lowerer) lookup(name string) (int, bool) {
	for i := len(lw.scopes) - 1; i >= 0; i-- {
		if idx, ok := lw.scopes[i][name]; ok {
			return idx, true
		}
	}
	return 0, false
}

func base(pos position.Position) ir.Base { return ir.Base{Pos: pos} }

// lowerBlock lowers b in its own scope.
func (lw *lowerer) lowerBlock(b *ast.Block) []ir.Command {
	lw.pushScope()
	cmds := lw.lowerStats(b.Stats)
	lw.popScope()
	return cmds
}

func (lw *lowerer) lowerStats(stats []ast.Stat) []ir.Command {
	var out []ir.Command
	for _, s := range stats {
		out = append(out, lw.lowerStat(s)...)
	}
	return out
}

func (lw *lowerer) lowerStat(s ast.Stat) []ir.Command {
	switch n := s.(type) {
	case *ast.Block:
		return lw.lowerBlock(n)
	case *ast.Decl:
		return lw.lowerDecl(n)
	case *ast.Assign:
		return lw.lowerAssign(n)
	case *ast.If:
		return lw.lowerIfChain(n.Arms, n.Else, n.Span.Start)
	case *ast.While:
		condCmds, condVal := lw.lowerExpr(n.Cond)
		body := lw.lowerBlock(n.Body)
		return []ir.Command{&ir.While{Base: base(n.Span.Start), CondPrep: condCmds, Cond: condVal, Body: body}}
	case *ast.Repeat:
		lw.pushScope()
		body := lw.lowerStats(n.Body.Stats)
		condCmds, condVal := lw.lowerExpr(n.Cond)
		lw.popScope()
		return []ir.Command{&ir.Repeat{Base: base(n.Span.Start), Body: body, CondPrep: condCmds, Cond: condVal}}
	case *ast.For:
		return lw.lowerFor(n)
	case *ast.Break:
		return []ir.Command{&ir.Break{Base: base(n.Span.Start)}}
	case *ast.Return:
		return lw.lowerReturn(n)
	case *ast.CallStat:
		cmds, _ := lw.lowerExpr(n.Call)
		return cmds
	}
	return nil
}

func (lw *lowerer) lowerDecl(n *ast.Decl) []ir.Command {
	if !n.HasInit {
		lw.declare(n.Name, n.Type)
		return nil
	}
	cmds, val := lw.lowerExpr(n.Value)
	idx := lw.declare(n.Name, n.Type)
	return append(cmds, &ir.Move{Base: base(n.Span.Start), Dst: idx, Src: val})
}

func (lw *lowerer) lowerAssign(n *ast.Assign) []ir.Command {
	cmds, val := lw.lowerExpr(n.RHS)
	switch lhs := n.LHS.(type) {
	case *ast.NameVar:
		if idx, ok := lw.lookup(lhs.Name); ok {
			return append(cmds, &ir.Move{Base: base(n.Span.Start), Dst: idx, Src: val})
		}
		return append(cmds, &ir.SetGlobal{Base: base(n.Span.Start), Name: lhs.Name, Val: val})
	case *ast.DotVar:
		rc, recv := lw.lowerExpr(lhs.Recv)
		cmds = append(cmds, rc...)
		return append(cmds, &ir.SetField{Base: base(n.Span.Start), Recv: recv, Field: lhs.Field, Val: val})
	case *ast.BracketVar:
		rc, recv := lw.lowerExpr(lhs.Recv)
		ic, idx := lw.lowerExpr(lhs.Index)
		cmds = append(cmds, rc...)
		cmds = append(cmds, ic...)
		return append(cmds, &ir.CheckedIndexSet{Base: base(n.Span.Start), Recv: recv, Index: idx, Val: val})
	}
	return cmds
}

func (lw *lowerer) lowerIfChain(arms []ast.IfArm, els *ast.Block, pos position.Position) []ir.Command {
	if len(arms) == 0 {
		if els != nil {
			return lw.lowerBlock(els)
		}
		return nil
	}
	arm := arms[0]
	condCmds, condVal := lw.lowerExpr(arm.Cond)
	thenCmds := lw.lowerBlock(arm.Then)
	elseCmds := lw.lowerIfChain(arms[1:], els, pos)
	return []ir.Command{&ir.If{Base: base(pos), CondPrep: condCmds, Cond: condVal, Then: thenCmds, Else: elseCmds}}
}

func (lw *lowerer) lowerFor(n *ast.For) []ir.Command {
	startCmds, startVal := lw.lowerExpr(n.Start)
	limitCmds, limitVal := lw.lowerExpr(n.Limit)

	var stepCmds []ir.Command
	var stepVal ir.Value
	if n.Step != nil {
		stepCmds, stepVal = lw.lowerExpr(n.Step)
	} else if n.IterType.Tag == types.TagFloat {
		stepVal = ir.ConstFloat{Value: 1}
	} else {
		stepVal = ir.ConstInt{Value: 1}
	}

	prep := append(append(startCmds, limitCmds...), stepCmds...)

	lw.pushScope()
	idx := lw.declare(n.Name, n.IterType)
	body := lw.lowerStats(n.Body.Stats)
	lw.popScope()

	var loopCmd ir.Command
	if n.IterType.Tag == types.TagFloat {
		loopCmd = &ir.ForNumFloat{Base: base(n.Span.Start), Local: idx, Start: startVal, Limit: limitVal, Step: stepVal, Body: body}
	} else {
		loopCmd = &ir.ForNumInt{Base: base(n.Span.Start), Local: idx, Start: startVal, Limit: limitVal, Step: stepVal, Body: body}
	}
	return append(prep, loopCmd)
}

func (lw *lowerer) lowerReturn(n *ast.Return) []ir.Command {
	var cmds []ir.Command
	vals := make([]ir.Value, len(n.Vals))
	for i, v := range n.Vals {
		c, val := lw.lowerExpr(v)
		cmds = append(cmds, c...)
		vals[i] = val
	}
	return append(cmds, &ir.Return{Base: base(n.Span.Start), Vals: vals})
}

func nextLambdaName(count *int) string {
	*count++
	return fmt.Sprintf("$lambda%d", *count)
}
