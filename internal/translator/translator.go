// Package translator implements the alternate, type-erasing back end:
// given the original source bytes and the checked AST built from them,
// it produces host-language source with every
// static-typing construct whited out in place, so every surviving byte
// still sits at its original column.
package translator

import (
	"bytes"

	"github.com/pallene-lang/pallenec/internal/ast"
	"github.com/pallene-lang/pallenec/internal/position"
)

// Translate runs the byte-exact, whitespace-preserving pass over src.
// It is only ever called on a program that already parsed and
// type-checked, so it has no failure mode of its own.
func Translate(src []byte, prog *ast.Program) []byte {
	out := make([]byte, len(src))
	copy(out, src)

	var exported []string
	for _, top := range prog.Toplevs {
		switch t := top.(type) {
		case *ast.TopFunc:
			if !t.IsLocal {
				rewriteExport(out, t.ExportPos)
				exported = append(exported, t.Name)
			}
			for _, p := range t.Params {
				whiteout(out, p.TypeSpan)
			}
			whiteout(out, t.RetSpan)
			walkBlock(out, t.Body)
		case *ast.TopVar:
			if !t.IsLocal {
				rewriteExport(out, t.ExportPos)
				exported = append(exported, t.Name)
			}
			whiteout(out, t.TypeSpan)
			if t.Value != nil {
				walkExpr(out, t.Value)
			}
		case *ast.TopRecord:
			whiteout(out, t.Span)
		case *ast.TopTypealias:
			whiteout(out, t.Span)
		case *ast.TopImport:
			// Import syntax has no type annotations of its own; the host
			// language's module loader consumes it verbatim.
		}
	}

	if len(exported) == 0 {
		return out
	}

	var buf bytes.Buffer
	buf.Write(out)
	buf.WriteString("return {\n")
	for _, name := range exported {
		buf.WriteString("    ")
		buf.WriteString(name)
		buf.WriteString(" = ")
		buf.WriteString(name)
		buf.WriteString(",\n")
	}
	buf.WriteString("}\n")
	return buf.Bytes()
}

// whiteout replaces every byte of span with a space, except \n, \r, and
// \t, which are kept so line and column geometry downstream of the span
// is unaffected. A zero-value (invalid) span is a no-op, so callers can
// pass an untyped declaration's empty TypeSpan unconditionally.
func whiteout(out []byte, span position.Span) {
	if !span.IsValid() {
		return
	}
	for i := span.Start.Offset; i < span.End.Offset; i++ {
		switch out[i] {
		case '\n', '\r', '\t':
		default:
			out[i] = ' '
		}
	}
}

// rewriteExport replaces the 6-byte `export` keyword with `local` plus
// one padding space, keeping every later byte at its original column.
func rewriteExport(out []byte, pos position.Position) {
	if !pos.IsValid() {
		return
	}
	copy(out[pos.Offset:pos.Offset+6], "local ")
}

func walkBlock(out []byte, b *ast.Block) {
	for _, s := range b.Stats {
		walkStat(out, s)
	}
}

func walkStat(out []byte, s ast.Stat) {
	switch n := s.(type) {
	case *ast.Block:
		walkBlock(out, n)
	case *ast.Decl:
		whiteout(out, n.TypeSpan)
		if n.HasInit {
			walkExpr(out, n.Value)
		}
	case *ast.Assign:
		walkVar(out, n.LHS)
		walkExpr(out, n.RHS)
	case *ast.If:
		for _, arm := range n.Arms {
			walkExpr(out, arm.Cond)
			walkBlock(out, arm.Then)
		}
		if n.Else != nil {
			walkBlock(out, n.Else)
		}
	case *ast.While:
		walkExpr(out, n.Cond)
		walkBlock(out, n.Body)
	case *ast.Repeat:
		walkBlock(out, n.Body)
		walkExpr(out, n.Cond)
	case *ast.For:
		walkExpr(out, n.Start)
		walkExpr(out, n.Limit)
		if n.Step != nil {
			walkExpr(out, n.Step)
		}
		walkBlock(out, n.Body)
	case *ast.Break:
	case *ast.Return:
		for _, v := range n.Vals {
			walkExpr(out, v)
		}
	case *ast.CallStat:
		walkExpr(out, n.Call)
	}
}

func walkVar(out []byte, v ast.Var) {
	switch n := v.(type) {
	case *ast.NameVar:
	case *ast.DotVar:
		walkExpr(out, n.Recv)
	case *ast.BracketVar:
		walkExpr(out, n.Recv)
		walkExpr(out, n.Index)
	}
}

func walkExpr(out []byte, e ast.Exp) {
	switch n := e.(type) {
	case *ast.Paren:
		walkExpr(out, n.Inner)
	case *ast.NameVar:
	case *ast.DotVar:
		walkExpr(out, n.Recv)
	case *ast.BracketVar:
		walkExpr(out, n.Recv)
		walkExpr(out, n.Index)
	case *ast.Unop:
		walkExpr(out, n.Val)
	case *ast.Binop:
		walkExpr(out, n.LHS)
		walkExpr(out, n.RHS)
	case *ast.Concat:
		for _, p := range n.Parts {
			walkExpr(out, p)
		}
	case *ast.Cast:
		if !n.Implicit {
			whiteout(out, position.Span{Start: n.AsPos, End: n.EndPos})
		}
		walkExpr(out, n.Value)
	case *ast.CallFunc:
		walkExpr(out, n.Callee)
		for _, a := range n.Args {
			walkExpr(out, a)
		}
	case *ast.CallMethod:
		walkExpr(out, n.Receiver)
		for _, a := range n.Args {
			walkExpr(out, a)
		}
	case *ast.Lambda:
		for _, p := range n.Params {
			whiteout(out, p.TypeSpan)
		}
		whiteout(out, n.RetSpan)
		walkBlock(out, n.Body)
	case *ast.InitList:
		for _, el := range n.Elems {
			walkExpr(out, el)
		}
	}
}
