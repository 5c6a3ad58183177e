// Package analysis implements Pallene's two IR passes: the
// uninitialized-variable dataflow check and constant
// propagation.
package analysis

import (
	"github.com/hashicorp/go-set/v3"

	"github.com/pallene-lang/pallenec/internal/diagnostics"
	"github.com/pallene-lang/pallenec/internal/ir"
	"github.com/pallene-lang/pallenec/internal/position"
)

// CheckUninitialized runs a forward dataflow pass over fn and returns
// every "variable may be used uninitialized"
// diagnostic it finds. Parameters start in the defined set; every other
// local starts undefined until its first Move/definition command.
func CheckUninitialized(fn *ir.Function) *diagnostics.Bag {
	diags := &diagnostics.Bag{}
	defined := set.New[int](fn.NumParams)
	for i := 0; i < fn.NumParams; i++ {
		defined.Insert(i)
	}
	walkCommands(fn.Body, defined, diags)
	return diags
}

func checkValue(v ir.Value, defined *set.Set[int], pos position.Position, diags *diagnostics.Bag) {
	if lr, ok := v.(ir.LocalRef); ok && !defined.Contains(lr.Index) {
		diags.Add(pos, diagnostics.Uninitialized, "variable may be used uninitialized")
	}
}

func checkValues(vs []ir.Value, defined *set.Set[int], pos position.Position, diags *diagnostics.Bag) {
	for _, v := range vs {
		checkValue(v, defined, pos, diags)
	}
}

// walkCommands threads the defined set through a command list in order,
// checking every read against the set as of that point and returning the
// set as of the end of the list.
func walkCommands(cmds []ir.Command, defined *set.Set[int], diags *diagnostics.Bag) *set.Set[int] {
	cur := defined
	for _, c := range cmds {
		cur = walkCommand(c, cur, diags)
	}
	return cur
}

func define(defined *set.Set[int], idx int) *set.Set[int] {
	out := defined.Copy()
	out.Insert(idx)
	return out
}

func walkCommand(c ir.Command, defined *set.Set[int], diags *diagnostics.Bag) *set.Set[int] {
	pos := c.GetPos()
	switch n := c.(type) {
	case *ir.Move:
		checkValue(n.Src, defined, pos, diags)
		return define(defined, n.Dst)
	case *ir.BinOp:
		checkValue(n.LHS, defined, pos, diags)
		checkValue(n.RHS, defined, pos, diags)
		return define(defined, n.Dst)
	case *ir.UnOp:
		checkValue(n.Val, defined, pos, diags)
		return define(defined, n.Dst)
	case *ir.Concat:
		checkValues(n.Parts, defined, pos, diags)
		return define(defined, n.Dst)
	case *ir.Convert:
		checkValue(n.Src, defined, pos, diags)
		return define(defined, n.Dst)
	case *ir.CallDirect:
		checkValues(n.Args, defined, pos, diags)
		out := defined.Copy()
		for _, d := range n.Dsts {
			out.Insert(d)
		}
		return out
	case *ir.CallIndirect:
		checkValue(n.Callee, defined, pos, diags)
		checkValues(n.Args, defined, pos, diags)
		out := defined.Copy()
		for _, d := range n.Dsts {
			out.Insert(d)
		}
		return out
	case *ir.NewArray:
		checkValues(n.Elems, defined, pos, diags)
		return define(defined, n.Dst)
	case *ir.NewTable:
		for _, v := range n.Fields {
			checkValue(v, defined, pos, diags)
		}
		return define(defined, n.Dst)
	case *ir.GetField:
		checkValue(n.Recv, defined, pos, diags)
		return define(defined, n.Dst)
	case *ir.SetField:
		checkValue(n.Recv, defined, pos, diags)
		checkValue(n.Val, defined, pos, diags)
		return defined
	case *ir.CheckedIndexGet:
		checkValue(n.Recv, defined, pos, diags)
		checkValue(n.Index, defined, pos, diags)
		return define(defined, n.Dst)
	case *ir.CheckedIndexSet:
		checkValue(n.Recv, defined, pos, diags)
		checkValue(n.Index, defined, pos, diags)
		checkValue(n.Val, defined, pos, diags)
		return defined
	case *ir.GetGlobal:
		return define(defined, n.Dst)
	case *ir.SetGlobal:
		checkValue(n.Val, defined, pos, diags)
		return defined
	case *ir.If:
		return walkIf(n, defined, diags)
	case *ir.While:
		return walkWhile(n, defined, diags)
	case *ir.Repeat:
		return walkRepeat(n, defined, diags)
	case *ir.ForNumInt:
		checkValue(n.Start, defined, pos, diags)
		checkValue(n.Limit, defined, pos, diags)
		checkValue(n.Step, defined, pos, diags)
		walkLoopBody(n.Local, n.Body, defined, diags)
		return defined
	case *ir.ForNumFloat:
		checkValue(n.Start, defined, pos, diags)
		checkValue(n.Limit, defined, pos, diags)
		checkValue(n.Step, defined, pos, diags)
		walkLoopBody(n.Local, n.Body, defined, diags)
		return defined
	case *ir.Break:
		return defined
	case *ir.Return:
		checkValues(n.Vals, defined, pos, diags)
		return defined
	}
	return defined
}

func walkIf(n *ir.If, defined *set.Set[int], diags *diagnostics.Bag) *set.Set[int] {
	afterPrep := walkCommands(n.CondPrep, defined, diags)
	checkValue(n.Cond, afterPrep, n.Pos, diags)
	thenOut := walkCommands(n.Then, afterPrep.Copy(), diags)
	elseOut := walkCommands(n.Else, afterPrep.Copy(), diags)
	return thenOut.Intersect(elseOut).(*set.Set[int])
}

// walkWhile iterates to a fixed point: the body may run
// zero times, so the defined set on entry to each iteration is the
// intersection of the pre-loop set and whatever the previous iteration's
// body produced; this can only shrink, so it converges. Trial iterations
// use a scratch bag so a read that only looks uninitialized before the
// set stabilizes is never reported; the final, stable iteration re-walks
// once more against the real diags bag.
func walkWhile(n *ir.While, defined *set.Set[int], diags *diagnostics.Bag) *set.Set[int] {
	cur := defined
	for {
		scratch := &diagnostics.Bag{}
		afterPrep := walkCommands(n.CondPrep, cur, scratch)
		bodyOut := walkCommands(n.Body, afterPrep.Copy(), scratch)
		next := cur.Intersect(bodyOut).(*set.Set[int])
		if next.Equal(cur) {
			afterPrep = walkCommands(n.CondPrep, cur, diags)
			checkValue(n.Cond, afterPrep, n.Pos, diags)
			walkCommands(n.Body, afterPrep.Copy(), diags)
			return next
		}
		cur = next
	}
}

// walkRepeat iterates to a fixed point starting from a body that always
// runs at least once; the `until` condition is checked in the body's
// own scope. Same scratch-bag-until-stable treatment as walkWhile.
func walkRepeat(n *ir.Repeat, defined *set.Set[int], diags *diagnostics.Bag) *set.Set[int] {
	cur := defined
	for {
		scratch := &diagnostics.Bag{}
		bodyOut := walkCommands(n.Body, cur, scratch)
		next := cur.Intersect(bodyOut).(*set.Set[int])
		if next.Equal(cur) {
			bodyOut = walkCommands(n.Body, cur, diags)
			afterPrep := walkCommands(n.CondPrep, bodyOut, diags)
			checkValue(n.Cond, afterPrep, n.Pos, diags)
			return afterPrep
		}
		cur = next
	}
}

// walkLoopBody type-checks reads inside a numeric for-loop's body to a
// fixed point. The loop may run zero times, so — unlike the body-local
// fixed point itself — nothing the body defines becomes guaranteed after
// the loop; only the loop variable is guaranteed defined within it.
func walkLoopBody(loopVar int, body []ir.Command, defined *set.Set[int], diags *diagnostics.Bag) {
	entry := define(defined, loopVar)
	cur := entry
	for {
		scratch := &diagnostics.Bag{}
		bodyOut := walkCommands(body, cur, scratch)
		next := entry.Intersect(bodyOut).(*set.Set[int])
		if next.Equal(cur) {
			walkCommands(body, cur, diags)
			return
		}
		cur = next
	}
}
