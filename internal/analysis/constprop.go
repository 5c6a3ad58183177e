package analysis

import (
	"math"
	"strconv"
	"strings"

	"github.com/pallene-lang/pallenec/internal/ast"
	"github.com/pallene-lang/pallenec/internal/ir"
	"github.com/pallene-lang/pallenec/internal/types"
)

// PropagateConstants runs a constant-folding pass over fn: it substitutes
// every read of a local assigned exactly once with a foldable constant
// expression, and drops the now-dead defining command. The checker has
// already made every BinOp's operands homogeneous (via explicit Convert
// commands), so folding never needs to re-derive a promotion rule —
// it only needs each operator's own runtime arithmetic.
func PropagateConstants(fn *ir.Function) {
	counts := map[int]int{}
	countWrites(fn.Body, counts)
	known := map[int]ir.Value{}
	fn.Body = fold(fn.Body, known, counts)
}

func countWrites(cmds []ir.Command, counts map[int]int) {
	for _, c := range cmds {
		switch n := c.(type) {
		case *ir.Move:
			counts[n.Dst]++
		case *ir.BinOp:
			counts[n.Dst]++
		case *ir.UnOp:
			counts[n.Dst]++
		case *ir.Concat:
			counts[n.Dst]++
		case *ir.Convert:
			counts[n.Dst]++
		case *ir.CallDirect:
			for _, d := range n.Dsts {
				counts[d]++
			}
		case *ir.CallIndirect:
			for _, d := range n.Dsts {
				counts[d]++
			}
		case *ir.NewArray:
			counts[n.Dst]++
		case *ir.NewTable:
			counts[n.Dst]++
		case *ir.GetField:
			counts[n.Dst]++
		case *ir.CheckedIndexGet:
			counts[n.Dst]++
		case *ir.GetGlobal:
			counts[n.Dst]++
		case *ir.If:
			countWrites(n.CondPrep, counts)
			countWrites(n.Then, counts)
			countWrites(n.Else, counts)
		case *ir.While:
			countWrites(n.CondPrep, counts)
			countWrites(n.Body, counts)
		case *ir.Repeat:
			countWrites(n.Body, counts)
			countWrites(n.CondPrep, counts)
		case *ir.ForNumInt:
			counts[n.Local]++
			countWrites(n.Body, counts)
		case *ir.ForNumFloat:
			counts[n.Local]++
			countWrites(n.Body, counts)
		}
	}
}

// fold walks cmds in program order, substituting known-constant reads and
// dropping single-assignment definitions that fold to a literal.
func fold(cmds []ir.Command, known map[int]ir.Value, counts map[int]int) []ir.Command {
	out := make([]ir.Command, 0, len(cmds))
	for _, c := range cmds {
		switch n := c.(type) {
		case *ir.Move:
			src := substitute(n.Src, known)
			if counts[n.Dst] == 1 {
				if lit, ok := asLiteral(src); ok {
					known[n.Dst] = lit
					continue
				}
			}
			out = append(out, &ir.Move{Base: n.Base, Dst: n.Dst, Src: src})
		case *ir.BinOp:
			l, r := substitute(n.LHS, known), substitute(n.RHS, known)
			if counts[n.Dst] == 1 {
				if v, ok := computeBinOp(n.Op, l, r); ok {
					known[n.Dst] = v
					continue
				}
			}
			out = append(out, &ir.BinOp{Base: n.Base, Dst: n.Dst, Op: n.Op, LHS: l, RHS: r})
		case *ir.UnOp:
			v := substitute(n.Val, known)
			if counts[n.Dst] == 1 {
				if folded, ok := computeUnOp(n.Op, v); ok {
					known[n.Dst] = folded
					continue
				}
			}
			out = append(out, &ir.UnOp{Base: n.Base, Dst: n.Dst, Op: n.Op, Val: v})
		case *ir.Concat:
			parts := make([]ir.Value, len(n.Parts))
			for i, p := range n.Parts {
				parts[i] = substitute(p, known)
			}
			if counts[n.Dst] == 1 {
				if folded, ok := computeConcat(parts); ok {
					known[n.Dst] = folded
					continue
				}
			}
			out = append(out, &ir.Concat{Base: n.Base, Dst: n.Dst, Parts: parts})
		case *ir.Convert:
			src := substitute(n.Src, known)
			if counts[n.Dst] == 1 {
				if folded, ok := computeConvert(n.To, src); ok {
					known[n.Dst] = folded
					continue
				}
			}
			out = append(out, &ir.Convert{Base: n.Base, Dst: n.Dst, Src: src, From: n.From, To: n.To})
		case *ir.CallDirect:
			args := substituteAll(n.Args, known)
			out = append(out, &ir.CallDirect{Base: n.Base, Dsts: n.Dsts, Func: n.Func, Args: args})
		case *ir.CallIndirect:
			callee := substitute(n.Callee, known)
			args := substituteAll(n.Args, known)
			out = append(out, &ir.CallIndirect{Base: n.Base, Dsts: n.Dsts, Callee: callee, Args: args})
		case *ir.NewArray:
			elems := substituteAll(n.Elems, known)
			out = append(out, &ir.NewArray{Base: n.Base, Dst: n.Dst, Elem: n.Elem, Elems: elems})
		case *ir.NewTable:
			fields := make(map[string]ir.Value, len(n.Fields))
			for k, v := range n.Fields {
				fields[k] = substitute(v, known)
			}
			out = append(out, &ir.NewTable{Base: n.Base, Dst: n.Dst, RecordName: n.RecordName, Order: n.Order, Fields: fields})
		case *ir.GetField:
			out = append(out, &ir.GetField{Base: n.Base, Dst: n.Dst, Recv: substitute(n.Recv, known), Field: n.Field})
		case *ir.SetField:
			out = append(out, &ir.SetField{Base: n.Base, Recv: substitute(n.Recv, known), Field: n.Field, Val: substitute(n.Val, known)})
		case *ir.CheckedIndexGet:
			out = append(out, &ir.CheckedIndexGet{Base: n.Base, Dst: n.Dst, Recv: substitute(n.Recv, known), Index: substitute(n.Index, known)})
		case *ir.CheckedIndexSet:
			out = append(out, &ir.CheckedIndexSet{Base: n.Base, Recv: substitute(n.Recv, known), Index: substitute(n.Index, known), Val: substitute(n.Val, known)})
		case *ir.GetGlobal:
			out = append(out, n)
		case *ir.SetGlobal:
			out = append(out, &ir.SetGlobal{Base: n.Base, Name: n.Name, Val: substitute(n.Val, known)})
		case *ir.If:
			newCondPrep := fold(n.CondPrep, known, counts)
			cond := substitute(n.Cond, known)
			newThen := fold(n.Then, known, counts)
			newElse := fold(n.Else, known, counts)
			out = append(out, &ir.If{Base: n.Base, CondPrep: newCondPrep, Cond: cond, Then: newThen, Else: newElse})
		case *ir.While:
			newCondPrep := fold(n.CondPrep, known, counts)
			cond := substitute(n.Cond, known)
			newBody := fold(n.Body, known, counts)
			out = append(out, &ir.While{Base: n.Base, CondPrep: newCondPrep, Cond: cond, Body: newBody})
		case *ir.Repeat:
			newBody := fold(n.Body, known, counts)
			newCondPrep := fold(n.CondPrep, known, counts)
			cond := substitute(n.Cond, known)
			out = append(out, &ir.Repeat{Base: n.Base, Body: newBody, CondPrep: newCondPrep, Cond: cond})
		case *ir.ForNumInt:
			start, limit, step := substitute(n.Start, known), substitute(n.Limit, known), substitute(n.Step, known)
			newBody := fold(n.Body, known, counts)
			out = append(out, &ir.ForNumInt{Base: n.Base, Local: n.Local, Start: start, Limit: limit, Step: step, Body: newBody})
		case *ir.ForNumFloat:
			start, limit, step := substitute(n.Start, known), substitute(n.Limit, known), substitute(n.Step, known)
			newBody := fold(n.Body, known, counts)
			out = append(out, &ir.ForNumFloat{Base: n.Base, Local: n.Local, Start: start, Limit: limit, Step: step, Body: newBody})
		case *ir.Return:
			out = append(out, &ir.Return{Base: n.Base, Vals: substituteAll(n.Vals, known)})
		default:
			out = append(out, c)
		}
	}
	return out
}

func substitute(v ir.Value, known map[int]ir.Value) ir.Value {
	if lr, ok := v.(ir.LocalRef); ok {
		if val, found := known[lr.Index]; found {
			return val
		}
	}
	return v
}

func substituteAll(vs []ir.Value, known map[int]ir.Value) []ir.Value {
	out := make([]ir.Value, len(vs))
	for i, v := range vs {
		out[i] = substitute(v, known)
	}
	return out
}

func asLiteral(v ir.Value) (ir.Value, bool) {
	switch v.(type) {
	case ir.ConstNil, ir.ConstBool, ir.ConstInt, ir.ConstFloat, ir.ConstString:
		return v, true
	}
	return nil, false
}

// computeBinOp folds a binary operator whose operands are both already
// literal constants, using exactly the runtime's arithmetic: integer
// ops wrap the way Go's int64 wraps (two's complement, matching the
// runtime's own integer representation), and div-by-zero is never
// folded — it is left as a live BinOp so it still traps at runtime.
func computeBinOp(op ast.BinopKind, l, r ir.Value) (ir.Value, bool) {
	if li, ok := l.(ir.ConstInt); ok {
		if ri, ok := r.(ir.ConstInt); ok {
			return computeIntBinOp(op, li.Value, ri.Value)
		}
	}
	if lf, ok := l.(ir.ConstFloat); ok {
		if rf, ok := r.(ir.ConstFloat); ok {
			return computeFloatBinOp(op, lf.Value, rf.Value)
		}
	}
	if lb, ok := l.(ir.ConstBool); ok {
		if rb, ok := r.(ir.ConstBool); ok {
			switch op {
			case ast.BinopEq:
				return ir.ConstBool{Value: lb.Value == rb.Value}, true
			case ast.BinopNe:
				return ir.ConstBool{Value: lb.Value != rb.Value}, true
			}
		}
	}
	if ls, ok := l.(ir.ConstString); ok {
		if rs, ok := r.(ir.ConstString); ok {
			switch op {
			case ast.BinopEq:
				return ir.ConstBool{Value: ls.Value == rs.Value}, true
			case ast.BinopNe:
				return ir.ConstBool{Value: ls.Value != rs.Value}, true
			case ast.BinopLt:
				return ir.ConstBool{Value: ls.Value < rs.Value}, true
			case ast.BinopLe:
				return ir.ConstBool{Value: ls.Value <= rs.Value}, true
			case ast.BinopGt:
				return ir.ConstBool{Value: ls.Value > rs.Value}, true
			case ast.BinopGe:
				return ir.ConstBool{Value: ls.Value >= rs.Value}, true
			}
		}
	}
	return nil, false
}

func computeIntBinOp(op ast.BinopKind, l, r int64) (ir.Value, bool) {
	switch op {
	case ast.BinopAdd:
		return ir.ConstInt{Value: l + r}, true
	case ast.BinopSub:
		return ir.ConstInt{Value: l - r}, true
	case ast.BinopMul:
		return ir.ConstInt{Value: l * r}, true
	case ast.BinopMod:
		if r == 0 {
			return nil, false
		}
		m := l % r
		if m != 0 && (m < 0) != (r < 0) {
			m += r
		}
		return ir.ConstInt{Value: m}, true
	case ast.BinopIDiv:
		if r == 0 {
			return nil, false
		}
		q := l / r
		if l%r != 0 && (l < 0) != (r < 0) {
			q--
		}
		return ir.ConstInt{Value: q}, true
	case ast.BinopEq:
		return ir.ConstBool{Value: l == r}, true
	case ast.BinopNe:
		return ir.ConstBool{Value: l != r}, true
	case ast.BinopLt:
		return ir.ConstBool{Value: l < r}, true
	case ast.BinopLe:
		return ir.ConstBool{Value: l <= r}, true
	case ast.BinopGt:
		return ir.ConstBool{Value: l > r}, true
	case ast.BinopGe:
		return ir.ConstBool{Value: l >= r}, true
	case ast.BinopBitAnd:
		return ir.ConstInt{Value: l & r}, true
	case ast.BinopBitOr:
		return ir.ConstInt{Value: l | r}, true
	case ast.BinopBitXor:
		return ir.ConstInt{Value: l ^ r}, true
	case ast.BinopShl, ast.BinopShr:
		if op == ast.BinopShr {
			r = -r
		}
		if r < 0 {
			return ir.ConstInt{Value: int64(uint64(l) >> uint64(-r))}, true
		}
		return ir.ConstInt{Value: int64(uint64(l) << uint64(r))}, true
	}
	return nil, false
}

func computeFloatBinOp(op ast.BinopKind, l, r float64) (ir.Value, bool) {
	switch op {
	case ast.BinopAdd:
		return ir.ConstFloat{Value: l + r}, true
	case ast.BinopSub:
		return ir.ConstFloat{Value: l - r}, true
	case ast.BinopMul:
		return ir.ConstFloat{Value: l * r}, true
	case ast.BinopDiv:
		if r == 0 {
			return nil, false
		}
		return ir.ConstFloat{Value: l / r}, true
	case ast.BinopIDiv:
		if r == 0 {
			return nil, false
		}
		return ir.ConstFloat{Value: math.Floor(l / r)}, true
	case ast.BinopMod:
		if r == 0 {
			return nil, false
		}
		m := math.Mod(l, r)
		if m != 0 && (m < 0) != (r < 0) {
			m += r
		}
		return ir.ConstFloat{Value: m}, true
	case ast.BinopPow:
		return ir.ConstFloat{Value: math.Pow(l, r)}, true
	case ast.BinopEq:
		return ir.ConstBool{Value: l == r}, true
	case ast.BinopNe:
		return ir.ConstBool{Value: l != r}, true
	case ast.BinopLt:
		return ir.ConstBool{Value: l < r}, true
	case ast.BinopLe:
		return ir.ConstBool{Value: l <= r}, true
	case ast.BinopGt:
		return ir.ConstBool{Value: l > r}, true
	case ast.BinopGe:
		return ir.ConstBool{Value: l >= r}, true
	}
	return nil, false
}

func computeUnOp(op ast.UnopKind, v ir.Value) (ir.Value, bool) {
	switch op {
	case ast.UnopNot:
		if b, ok := v.(ir.ConstBool); ok {
			return ir.ConstBool{Value: !b.Value}, true
		}
	case ast.UnopNeg:
		if i, ok := v.(ir.ConstInt); ok {
			return ir.ConstInt{Value: -i.Value}, true
		}
		if f, ok := v.(ir.ConstFloat); ok {
			return ir.ConstFloat{Value: -f.Value}, true
		}
	case ast.UnopBitNot:
		if i, ok := v.(ir.ConstInt); ok {
			return ir.ConstInt{Value: ^i.Value}, true
		}
	case ast.UnopLen:
		if s, ok := v.(ir.ConstString); ok {
			return ir.ConstInt{Value: int64(len(s.Value))}, true
		}
	}
	return nil, false
}

// computeConvert only folds integer->float, which is always exact: every
// int64 widens to float64 without rounding in the range the runtime
// represents. Float->integer is left unfolded: the runtime's `as
// integer` conversion is a checked, non-wrapping conversion rather than
// a bare truncation, and folding it here could produce a constant that
// disagrees with what that check would do.
func computeConvert(to *types.Type, v ir.Value) (ir.Value, bool) {
	if to.Resolve().Tag == types.TagFloat {
		if i, ok := v.(ir.ConstInt); ok {
			return ir.ConstFloat{Value: float64(i.Value)}, true
		}
	}
	return nil, false
}

func computeConcat(parts []ir.Value) (ir.Value, bool) {
	var sb strings.Builder
	for _, p := range parts {
		switch x := p.(type) {
		case ir.ConstString:
			sb.WriteString(x.Value)
		case ir.ConstInt:
			sb.WriteString(strconv.FormatInt(x.Value, 10))
		case ir.ConstFloat:
			if math.IsInf(x.Value, 0) || math.IsNaN(x.Value) {
				return nil, false
			}
			s := strconv.FormatFloat(x.Value, 'g', 14, 64)
			if !strings.ContainsAny(s, ".e") {
				s += ".0"
			}
			sb.WriteString(s)
		default:
			return nil, false
		}
	}
	return ir.ConstString{Value: sb.String()}, true
}

