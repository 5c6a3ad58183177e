// Package parser implements Pallene's recursive-descent parser.
//
// It is PEG-style in spirit: at every commit point (after a keyword like
// `function`, `if`, or `record`) the parser is certain which production it
// is in, and any subsequent failure reports a specific Label instead of
// a generic syntax error.
package parser

import (
	"strconv"
	"strings"

	"github.com/pallene-lang/pallenec/internal/ast"
	"github.com/pallene-lang/pallenec/internal/diagnostics"
	"github.com/pallene-lang/pallenec/internal/lexer"
	"github.com/pallene-lang/pallenec/internal/position"
	"github.com/pallene-lang/pallenec/internal/types"
)

// Parser holds all state for parsing one file. The filename and every
// other piece of state lives in this struct rather than a
// process-global marker, so two Parsers can be used from different
// goroutines — concurrent import resolution relies on this.
type Parser struct {
	filename string
	lex      *lexer.Lexer
	cur      lexer.Token
	peek     lexer.Token

	// lastEnd is the byte position immediately after the token most
	// recently consumed by advance(), so span-closing code can ask "where
	// did the node I just finished parsing end" without re-deriving it
	// from the next token's start (which would be wrong across
	// whitespace/comments).
	lastEnd position.Position

	diags *diagnostics.Bag

	loopDepth int
}

// New creates a Parser over src.
func New(filename string, src []byte) *Parser {
	p := &Parser{filename: filename, lex: lexer.New(filename, src), diags: &diagnostics.Bag{}}
	p.cur = p.lex.Next()
	p.peek = p.lex.Next()
	p.lastEnd = position.Position{Filename: filename, Offset: 0, Line: 1, Column: 1}
	return p
}

// Parse runs the parser to completion, returning the Program (nil on
// unrecoverable failure) and every syntax diagnostic collected.
func Parse(filename string, src []byte) (*ast.Program, *diagnostics.Bag) {
	p := New(filename, src)
	prog := p.parseProgram()
	return prog, p.diags
}

func (p *Parser) advance() {
	old := p.cur
	p.lastEnd = position.Position{
		Filename: p.filename,
		Offset:   old.Offset + len(old.Lexeme),
		Line:     old.Line,
		Column:   old.Column + len(old.Lexeme),
	}
	p.cur = p.peek
	p.peek = p.lex.Next()
}

func (p *Parser) pos() position.Position {
	return position.Position{Filename: p.filename, Offset: p.cur.Offset, Line: p.cur.Line, Column: p.cur.Column}
}

func (p *Parser) errorLabel(l Label) {
	p.diags.Add(p.pos(), diagnostics.Syntax, l.Message())
}

// expect consumes the current token if it matches tt, else records l and
// returns the zero Token without advancing, so callers can keep parsing
// (PEG-style error recovery: one missing token does not abort the whole
// file).
func (p *Parser) expect(tt lexer.TokenType, l Label) lexer.Token {
	if p.cur.Type == tt {
		tok := p.cur
		p.advance()
		return tok
	}
	p.errorLabel(l)
	return lexer.Token{}
}

func (p *Parser) spanFrom(start position.Position) position.Span {
	return position.Span{Start: start, End: p.lastEnd}
}

// ===== Program & toplevels =====

func (p *Parser) parseProgram() *ast.Program {
	start := p.pos()
	prog := &ast.Program{}
	for p.cur.Type != lexer.TokenEOF {
		tl := p.parseToplevel()
		if tl != nil {
			prog.Toplevs = append(prog.Toplevs, tl)
		} else {
			// Avoid an infinite loop on unrecoverable garbage.
			p.advance()
		}
	}
	prog.Span = position.Span{Start: start, End: p.lastEnd}
	return prog
}

func (p *Parser) parseToplevel() ast.Toplevel {
	switch p.cur.Type {
	case lexer.TokenFunction:
		return p.parseFunc(true)
	case lexer.TokenLocal:
		p.advance()
		return p.finishTopDecl(true, position.Position{})
	case lexer.TokenExport:
		exportPos := p.pos()
		p.advance()
		return p.finishTopDecl(false, exportPos)
	case lexer.TokenRecord:
		return p.parseRecord()
	case lexer.TokenTypealias:
		return p.parseTypealias()
	case lexer.TokenImport:
		return p.parseImport()
	default:
		p.errorLabel(LabelExpectedStatement)
		return nil
	}
}

// finishTopDecl parses whatever follows `local`/`export`: a function or a
// variable. isLocal is false when the toplevel is `export`; exportPos is
// the `export` keyword's own position, needed by the translator to
// rewrite it to `local` in place.
func (p *Parser) finishTopDecl(isLocal bool, exportPos position.Position) ast.Toplevel {
	if p.cur.Type == lexer.TokenFunction {
		f := p.parseFunc(false)
		f.IsLocal = isLocal
		f.ExportPos = exportPos
		return f
	}
	v := p.parseTopVar(isLocal)
	v.ExportPos = exportPos
	return v
}

func (p *Parser) parseFunc(implicitLocal bool) *ast.TopFunc {
	start := p.pos()
	p.advance() // `function`
	name := p.cur.Lexeme
	p.expect(lexer.TokenName, LabelExpectedName)

	p.expect(lexer.TokenLParen, LabelExpectedLParen)
	var params []ast.Param
	for p.cur.Type != lexer.TokenRParen && p.cur.Type != lexer.TokenEOF {
		pStart := p.pos()
		pname := p.cur.Lexeme
		p.expect(lexer.TokenName, LabelExpectedName)
		colonPos := p.pos()
		p.expect(lexer.TokenColon, LabelExpectedColon)
		ptyp := p.parseType()
		params = append(params, ast.Param{Span: p.spanFrom(pStart), Name: pname, Type: ptyp, TypeSpan: position.Span{Start: colonPos, End: p.lastEnd}})
		if p.cur.Type != lexer.TokenComma {
			break
		}
		p.advance()
	}
	p.expect(lexer.TokenRParen, LabelExpectedRParen)

	var rets []*types.Type
	var retSpan position.Span
	if p.cur.Type == lexer.TokenColon {
		retStart := p.pos()
		p.advance()
		if p.cur.Type == lexer.TokenLParen && p.peek.Type == lexer.TokenRParen {
			p.advance()
			p.advance() // `()` — explicit void return type
		} else {
			rets = append(rets, p.parseType())
		}
		retSpan = position.Span{Start: retStart, End: p.lastEnd}
	}

	body := p.parseBlock()
	p.expect(lexer.TokenEnd, LabelExpectedEnd)

	return &ast.TopFunc{
		Span:    p.spanFrom(start),
		Name:    name,
		Params:  params,
		RetSpan: retSpan,
		Rets:    rets,
		Body:    body,
		IsLocal: implicitLocal,
	}
}

func (p *Parser) parseTopVar(isLocal bool) *ast.TopVar {
	start := p.pos()
	name := p.cur.Lexeme
	p.expect(lexer.TokenName, LabelExpectedName)

	var typ *types.Type
	var typeSpan position.Span
	if p.cur.Type == lexer.TokenColon {
		colonPos := p.pos()
		p.advance()
		typ = p.parseType()
		typeSpan = position.Span{Start: colonPos, End: p.lastEnd}
	}

	var value ast.Exp
	if p.cur.Type == lexer.TokenAssign {
		p.advance()
		value = p.parseExpr()
	}

	return &ast.TopVar{Span: p.spanFrom(start), Name: name, Type: typ, TypeSpan: typeSpan, Value: value, IsLocal: isLocal}
}

func (p *Parser) parseRecord() *ast.TopRecord {
	start := p.pos()
	p.advance() // `record`
	name := p.cur.Lexeme
	p.expect(lexer.TokenName, LabelExpectedName)

	fields := map[string]*types.Type{}
	var order []string
	for p.cur.Type != lexer.TokenEnd && p.cur.Type != lexer.TokenEOF {
		fname := p.cur.Lexeme
		p.expect(lexer.TokenName, LabelExpectedName)
		p.expect(lexer.TokenColon, LabelExpectedColon)
		fields[fname] = p.parseType()
		order = append(order, fname)
	}
	p.expect(lexer.TokenEnd, LabelExpectedEnd)

	return &ast.TopRecord{Span: p.spanFrom(start), Name: name, FieldOrder: order, Fields: fields}
}

func (p *Parser) parseTypealias() *ast.TopTypealias {
	start := p.pos()
	p.advance() // `typealias`
	name := p.cur.Lexeme
	p.expect(lexer.TokenName, LabelExpectedName)
	p.expect(lexer.TokenAssign, LabelExpectedEquals)
	target := p.parseType()
	return &ast.TopTypealias{Span: p.spanFrom(start), Name: name, Target: target}
}

func (p *Parser) parseImport() *ast.TopImport {
	start := p.pos()
	p.advance() // `import`
	name := p.cur.Lexeme
	p.expect(lexer.TokenName, LabelExpectedName)

	modTok := p.expect(lexer.TokenString, LabelExpectedString)
	modPath := unquote(modTok.Lexeme)

	var constraint string
	if p.cur.Type == lexer.TokenGe || p.cur.Type == lexer.TokenGt ||
		p.cur.Type == lexer.TokenLe || p.cur.Type == lexer.TokenLt || p.cur.Type == lexer.TokenEq {
		op := p.cur.Lexeme
		p.advance()
		vTok := p.expect(lexer.TokenString, LabelExpectedString)
		constraint = op + " " + unquote(vTok.Lexeme)
	}

	return &ast.TopImport{Span: p.spanFrom(start), Name: name, ModulePath: modPath, Constraint: constraint}
}

// ===== Statements =====

func (p *Parser) parseBlock() *ast.Block {
	start := p.pos()
	b := &ast.Block{}
	for !p.atBlockEnd() {
		s := p.parseStat()
		if s != nil {
			b.Stats = append(b.Stats, s)
		} else {
			p.advance()
		}
	}
	b.Span = p.spanFrom(start)
	return b
}

func (p *Parser) atBlockEnd() bool {
	switch p.cur.Type {
	case lexer.TokenEnd, lexer.TokenElse, lexer.TokenElseif, lexer.TokenUntil, lexer.TokenEOF:
		return true
	}
	return false
}

func (p *Parser) parseStat() ast.Stat {
	switch p.cur.Type {
	case lexer.TokenSemi:
		p.advance()
		return nil
	case lexer.TokenLocal:
		return p.parseDecl()
	case lexer.TokenIf:
		return p.parseIf()
	case lexer.TokenWhile:
		return p.parseWhile()
	case lexer.TokenRepeat:
		return p.parseRepeat()
	case lexer.TokenFor:
		return p.parseFor()
	case lexer.TokenBreak:
		return p.parseBreak()
	case lexer.TokenReturn:
		return p.parseReturn()
	case lexer.TokenDo:
		start := p.pos()
		p.advance()
		b := p.parseBlock()
		p.expect(lexer.TokenEnd, LabelExpectedEnd)
		b.Span = p.spanFrom(start)
		return b
	default:
		return p.parseExprStatOrAssign()
	}
}

func (p *Parser) parseDecl() *ast.Decl {
	start := p.pos()
	p.advance() // `local`
	name := p.cur.Lexeme
	p.expect(lexer.TokenName, LabelExpectedName)

	var typ *types.Type
	var typeSpan position.Span
	if p.cur.Type == lexer.TokenColon {
		colonPos := p.pos()
		p.advance()
		typ = p.parseType()
		typeSpan = position.Span{Start: colonPos, End: p.lastEnd}
	}

	d := &ast.Decl{Name: name, Type: typ, TypeSpan: typeSpan}
	if p.cur.Type == lexer.TokenAssign {
		p.advance()
		d.Value = p.parseExpr()
		d.HasInit = true
	}
	d.Span = p.spanFrom(start)
	return d
}

func (p *Parser) parseIf() *ast.If {
	start := p.pos()
	p.advance() // `if`
	node := &ast.If{}
	for {
		cond := p.parseExpr()
		p.expect(lexer.TokenThen, LabelExpectedThen)
		then := p.parseBlock()
		node.Arms = append(node.Arms, ast.IfArm{Cond: cond, Then: then})
		if p.cur.Type != lexer.TokenElseif {
			break
		}
		p.advance()
	}
	if p.cur.Type == lexer.TokenElse {
		p.advance()
		node.Else = p.parseBlock()
	}
	p.expect(lexer.TokenEnd, LabelExpectedEnd)
	node.Span = p.spanFrom(start)
	return node
}

func (p *Parser) parseWhile() *ast.While {
	start := p.pos()
	p.advance() // `while`
	cond := p.parseExpr()
	p.expect(lexer.TokenDo, LabelExpectedDo)
	p.loopDepth++
	body := p.parseBlock()
	p.loopDepth--
	p.expect(lexer.TokenEnd, LabelExpectedEnd)
	return &ast.While{Span: p.spanFrom(start), Cond: cond, Body: body}
}

func (p *Parser) parseRepeat() *ast.Repeat {
	start := p.pos()
	p.advance() // `repeat`
	p.loopDepth++
	body := p.parseBlock()
	p.loopDepth--
	p.expect(lexer.TokenUntil, LabelExpectedUntil)
	cond := p.parseExpr()
	return &ast.Repeat{Span: p.spanFrom(start), Body: body, Cond: cond}
}

func (p *Parser) parseFor() *ast.For {
	start := p.pos()
	p.advance() // `for`
	name := p.cur.Lexeme
	p.expect(lexer.TokenName, LabelExpectedName)
	p.expect(lexer.TokenAssign, LabelExpectedAssignInFor)

	f := &ast.For{Name: name}
	f.Start = p.parseExpr()
	p.expect(lexer.TokenComma, LabelExpectedCommaOrDo)
	f.Limit = p.parseExpr()
	if p.cur.Type == lexer.TokenComma {
		p.advance()
		f.Step = p.parseExpr()
	}
	p.expect(lexer.TokenDo, LabelExpectedDo)
	p.loopDepth++
	f.Body = p.parseBlock()
	p.loopDepth--
	p.expect(lexer.TokenEnd, LabelExpectedEnd)
	f.Span = p.spanFrom(start)
	return f
}

func (p *Parser) parseBreak() *ast.Break {
	start := p.pos()
	p.advance()
	if p.loopDepth == 0 {
		p.diags.Add(start, diagnostics.Syntax, LabelBreakOutsideLoop.Message())
	}
	return &ast.Break{Span: position.Span{Start: start, End: p.lastEnd}}
}

func (p *Parser) parseReturn() *ast.Return {
	start := p.pos()
	p.advance() // `return`
	r := &ast.Return{}
	if !p.atBlockEnd() && p.cur.Type != lexer.TokenSemi {
		r.Vals = append(r.Vals, p.parseExpr())
		for p.cur.Type == lexer.TokenComma {
			p.advance()
			r.Vals = append(r.Vals, p.parseExpr())
		}
	}
	if p.cur.Type == lexer.TokenSemi {
		p.advance()
	}
	r.Span = p.spanFrom(start)
	return r
}

// parseExprStatOrAssign parses either a call used as a statement or an
// assignment, and enforces the assignment-target rule: the LHS of `=`
// must reduce to a Var, else AssignNotToVar is reported at the `=`.
func (p *Parser) parseExprStatOrAssign() ast.Stat {
	start := p.pos()
	e := p.parseExpr()

	if p.cur.Type != lexer.TokenAssign {
		return &ast.CallStat{Span: p.spanFrom(start), Call: e}
	}

	eqPos := p.pos()
	p.advance() // `=`
	rhs := p.parseExpr()

	v, ok := e.(ast.Var)
	if !ok {
		p.diags.Add(eqPos, diagnostics.Syntax, LabelAssignNotToVar.Message())
		return &ast.Assign{Span: p.spanFrom(start), RHS: rhs}
	}
	return &ast.Assign{Span: p.spanFrom(start), LHS: v, RHS: rhs}
}

// ===== Expressions: precedence climbing =====

func (p *Parser) parseExpr() ast.Exp { return p.parseOr() }

func (p *Parser) parseOr() ast.Exp {
	left := p.parseAnd()
	for p.cur.Type == lexer.TokenOr {
		start := left.GetSpan().Start
		p.advance()
		right := p.parseAnd()
		left = p.binop(start, ast.BinopOr, left, right)
	}
	return left
}

func (p *Parser) parseAnd() ast.Exp {
	left := p.parseComparison()
	for p.cur.Type == lexer.TokenAnd {
		start := left.GetSpan().Start
		p.advance()
		right := p.parseComparison()
		left = p.binop(start, ast.BinopAnd, left, right)
	}
	return left
}

var comparisonOps = map[lexer.TokenType]ast.BinopKind{
	lexer.TokenEq: ast.BinopEq, lexer.TokenNe: ast.BinopNe,
	lexer.TokenLt: ast.BinopLt, lexer.TokenLe: ast.BinopLe,
	lexer.TokenGt: ast.BinopGt, lexer.TokenGe: ast.BinopGe,
}

func (p *Parser) parseComparison() ast.Exp {
	left := p.parseBitOr()
	for {
		op, ok := comparisonOps[p.cur.Type]
		if !ok {
			return left
		}
		start := left.GetSpan().Start
		p.advance()
		right := p.parseBitOr()
		left = p.binop(start, op, left, right)
	}
}

func (p *Parser) parseBitOr() ast.Exp {
	left := p.parseBitXor()
	for p.cur.Type == lexer.TokenBitOr {
		start := left.GetSpan().Start
		p.advance()
		right := p.parseBitXor()
		left = p.binop(start, ast.BinopBitOr, left, right)
	}
	return left
}

func (p *Parser) parseBitXor() ast.Exp {
	left := p.parseBitAnd()
	for p.cur.Type == lexer.TokenBitNot {
		start := left.GetSpan().Start
		p.advance()
		right := p.parseBitAnd()
		left = p.binop(start, ast.BinopBitXor, left, right)
	}
	return left
}

func (p *Parser) parseBitAnd() ast.Exp {
	left := p.parseShift()
	for p.cur.Type == lexer.TokenBitAnd {
		start := left.GetSpan().Start
		p.advance()
		right := p.parseShift()
		left = p.binop(start, ast.BinopBitAnd, left, right)
	}
	return left
}

func (p *Parser) parseShift() ast.Exp {
	left := p.parseConcat()
	for p.cur.Type == lexer.TokenShl || p.cur.Type == lexer.TokenShr {
		op := ast.BinopShl
		if p.cur.Type == lexer.TokenShr {
			op = ast.BinopShr
		}
		start := left.GetSpan().Start
		p.advance()
		right := p.parseConcat()
		left = p.binop(start, op, left, right)
	}
	return left
}

// parseConcat handles right-associative `..`, flattening a chain
// `a .. b .. c` into a single n-ary Concat node.
func (p *Parser) parseConcat() ast.Exp {
	left := p.parseAdditive()
	if p.cur.Type != lexer.TokenConcat {
		return left
	}
	parts := []ast.Exp{left}
	start := left.GetSpan().Start
	for p.cur.Type == lexer.TokenConcat {
		p.advance()
		parts = append(parts, p.parseAdditive())
	}
	return &ast.Concat{ExpBase: ast.ExpBase{Span: position.Span{Start: start, End: p.lastEnd}}, Parts: parts}
}

var additiveOps = map[lexer.TokenType]ast.BinopKind{lexer.TokenPlus: ast.BinopAdd, lexer.TokenMinus: ast.BinopSub}

func (p *Parser) parseAdditive() ast.Exp {
	left := p.parseMultiplicative()
	for {
		op, ok := additiveOps[p.cur.Type]
		if !ok {
			return left
		}
		start := left.GetSpan().Start
		p.advance()
		right := p.parseMultiplicative()
		left = p.binop(start, op, left, right)
	}
}

var multiplicativeOps = map[lexer.TokenType]ast.BinopKind{
	lexer.TokenStar: ast.BinopMul, lexer.TokenPercent: ast.BinopMod,
	lexer.TokenSlash: ast.BinopDiv, lexer.TokenDSlash: ast.BinopIDiv,
}

func (p *Parser) parseMultiplicative() ast.Exp {
	left := p.parseUnary()
	for {
		op, ok := multiplicativeOps[p.cur.Type]
		if !ok {
			return left
		}
		start := left.GetSpan().Start
		p.advance()
		right := p.parseUnary()
		left = p.binop(start, op, left, right)
	}
}

func (p *Parser) parseUnary() ast.Exp {
	start := p.pos()
	switch p.cur.Type {
	case lexer.TokenNot:
		p.advance()
		v := p.parseUnary()
		return &ast.Unop{ExpBase: ast.ExpBase{Span: p.spanFrom(start)}, Op: ast.UnopNot, Val: v}
	case lexer.TokenHash:
		p.advance()
		v := p.parseUnary()
		return &ast.Unop{ExpBase: ast.ExpBase{Span: p.spanFrom(start)}, Op: ast.UnopLen, Val: v}
	case lexer.TokenMinus:
		p.advance()
		v := p.parseUnary()
		return &ast.Unop{ExpBase: ast.ExpBase{Span: p.spanFrom(start)}, Op: ast.UnopNeg, Val: v}
	case lexer.TokenBitNot:
		p.advance()
		v := p.parseUnary()
		return &ast.Unop{ExpBase: ast.ExpBase{Span: p.spanFrom(start)}, Op: ast.UnopBitNot, Val: v}
	}
	return p.parsePower()
}

// parsePower handles right-associative `^`, binding tighter than unary
//: its right operand may itself be a fresh unary
// expression, e.g. `2 ^ -2`.
func (p *Parser) parsePower() ast.Exp {
	left := p.parseCast()
	if p.cur.Type != lexer.TokenPower {
		return left
	}
	start := left.GetSpan().Start
	p.advance()
	right := p.parseUnary()
	return p.binop(start, ast.BinopPow, left, right)
}

// parseCast handles the highest-precedence postfix `as Type`.
func (p *Parser) parseCast() ast.Exp {
	e := p.parsePostfix()
	for p.cur.Type == lexer.TokenAs {
		start := e.GetSpan().Start
		asPos := p.pos()
		p.advance()
		target := p.parseType()
		end := p.lastEnd
		e = &ast.Cast{ExpBase: ast.ExpBase{Span: position.Span{Start: start, End: end}}, AsPos: asPos, EndPos: end, Value: e, Target: target}
	}
	return e
}

func (p *Parser) parsePostfix() ast.Exp {
	e := p.parsePrimary()
	for {
		switch p.cur.Type {
		case lexer.TokenDot:
			start := e.GetSpan().Start
			p.advance()
			field := p.cur.Lexeme
			p.expect(lexer.TokenName, LabelExpectedName)
			e = &ast.DotVar{ExpBase: ast.ExpBase{Span: p.spanFrom(start)}, Recv: e, Field: field}
		case lexer.TokenLBracket:
			start := e.GetSpan().Start
			p.advance()
			idx := p.parseExpr()
			p.expect(lexer.TokenRBracket, LabelExpectedRBracket)
			e = &ast.BracketVar{ExpBase: ast.ExpBase{Span: p.spanFrom(start)}, Recv: e, Index: idx}
		case lexer.TokenLParen:
			start := e.GetSpan().Start
			args := p.parseArgs()
			name, direct := directCalleeName(e)
			_ = name
			e = &ast.CallFunc{ExpBase: ast.ExpBase{Span: p.spanFrom(start)}, Callee: e, Args: args, Direct: direct}
		case lexer.TokenColon:
			start := e.GetSpan().Start
			p.advance()
			method := p.cur.Lexeme
			p.expect(lexer.TokenName, LabelExpectedName)
			args := p.parseArgs()
			e = &ast.CallMethod{ExpBase: ast.ExpBase{Span: p.spanFrom(start)}, Receiver: e, Method: method, Args: args}
		default:
			return e
		}
	}
}

func directCalleeName(e ast.Exp) (string, bool) {
	if nv, ok := e.(*ast.NameVar); ok {
		return nv.Name, true
	}
	return "", false
}

func (p *Parser) parseArgs() []ast.Exp {
	p.expect(lexer.TokenLParen, LabelExpectedLParen)
	var args []ast.Exp
	for p.cur.Type != lexer.TokenRParen && p.cur.Type != lexer.TokenEOF {
		args = append(args, p.parseExpr())
		if p.cur.Type != lexer.TokenComma {
			break
		}
		p.advance()
	}
	p.expect(lexer.TokenRParen, LabelExpectedRParen)
	return args
}

func (p *Parser) parsePrimary() ast.Exp {
	start := p.pos()
	switch p.cur.Type {
	case lexer.TokenNil:
		p.advance()
		return &ast.NilExp{ExpBase: ast.ExpBase{Span: p.spanFrom(start)}}
	case lexer.TokenTrue:
		p.advance()
		return &ast.BoolExp{ExpBase: ast.ExpBase{Span: p.spanFrom(start)}, Value: true}
	case lexer.TokenFalse:
		p.advance()
		return &ast.BoolExp{ExpBase: ast.ExpBase{Span: p.spanFrom(start)}, Value: false}
	case lexer.TokenInteger:
		text := p.cur.Lexeme
		p.advance()
		v, _ := parseIntLiteral(text)
		return &ast.IntExp{ExpBase: ast.ExpBase{Span: p.spanFrom(start)}, Value: v}
	case lexer.TokenFloat:
		text := p.cur.Lexeme
		p.advance()
		v, _ := strconv.ParseFloat(text, 64)
		return &ast.FloatExp{ExpBase: ast.ExpBase{Span: p.spanFrom(start)}, Value: v}
	case lexer.TokenString:
		text := p.cur.Lexeme
		p.advance()
		return &ast.StringExp{ExpBase: ast.ExpBase{Span: p.spanFrom(start)}, Value: unquote(text)}
	case lexer.TokenName:
		name := p.cur.Lexeme
		p.advance()
		return &ast.NameVar{ExpBase: ast.ExpBase{Span: p.spanFrom(start)}, Name: name}
	case lexer.TokenLParen:
		p.advance()
		inner := p.parseExpr()
		p.expect(lexer.TokenRParen, LabelExpectedRParen)
		return &ast.Paren{ExpBase: ast.ExpBase{Span: p.spanFrom(start)}, Inner: inner}
	case lexer.TokenLBrace:
		return p.parseInitList(start)
	case lexer.TokenFunction:
		return p.parseLambda(start)
	}
	p.errorLabel(LabelExpectedExpression)
	p.advance()
	return &ast.NilExp{ExpBase: ast.ExpBase{Span: p.spanFrom(start)}}
}

func (p *Parser) parseInitList(start position.Position) ast.Exp {
	p.advance() // '{'
	il := &ast.InitList{}
	for p.cur.Type != lexer.TokenRBrace && p.cur.Type != lexer.TokenEOF {
		if p.cur.Type == lexer.TokenName && p.peek.Type == lexer.TokenAssign {
			key := p.cur.Lexeme
			p.advance()
			p.advance()
			il.Keys = append(il.Keys, key)
			il.Elems = append(il.Elems, p.parseExpr())
		} else {
			il.Keys = append(il.Keys, "")
			il.Elems = append(il.Elems, p.parseExpr())
		}
		if p.cur.Type != lexer.TokenComma && p.cur.Type != lexer.TokenSemi {
			break
		}
		p.advance()
	}
	p.expect(lexer.TokenRBrace, LabelExpectedRBrace)
	il.Span = p.spanFrom(start)
	return il
}

func (p *Parser) parseLambda(start position.Position) ast.Exp {
	p.advance() // `function`
	p.expect(lexer.TokenLParen, LabelExpectedLParen)
	var params []ast.Param
	for p.cur.Type != lexer.TokenRParen && p.cur.Type != lexer.TokenEOF {
		pStart := p.pos()
		name := p.cur.Lexeme
		p.expect(lexer.TokenName, LabelExpectedName)
		colonPos := p.pos()
		p.expect(lexer.TokenColon, LabelExpectedColon)
		typ := p.parseType()
		params = append(params, ast.Param{Span: p.spanFrom(pStart), Name: name, Type: typ, TypeSpan: position.Span{Start: colonPos, End: p.lastEnd}})
		if p.cur.Type != lexer.TokenComma {
			break
		}
		p.advance()
	}
	p.expect(lexer.TokenRParen, LabelExpectedRParen)

	var rets []*types.Type
	var retSpan position.Span
	if p.cur.Type == lexer.TokenColon {
		retStart := p.pos()
		p.advance()
		rets = append(rets, p.parseType())
		retSpan = position.Span{Start: retStart, End: p.lastEnd}
	}
	body := p.parseBlock()
	p.expect(lexer.TokenEnd, LabelExpectedEnd)
	return &ast.Lambda{ExpBase: ast.ExpBase{Span: p.spanFrom(start)}, Params: params, RetSpan: retSpan, Rets: rets, Body: body}
}

func (p *Parser) binop(start position.Position, op ast.BinopKind, l, r ast.Exp) ast.Exp {
	return &ast.Binop{ExpBase: ast.ExpBase{Span: position.Span{Start: start, End: p.lastEnd}}, Op: op, LHS: l, RHS: r}
}

func unquote(lexeme string) string {
	if len(lexeme) < 2 {
		return lexeme
	}
	inner := lexeme[1 : len(lexeme)-1]
	inner = strings.ReplaceAll(inner, `\"`, `"`)
	inner = strings.ReplaceAll(inner, `\\`, `\`)
	inner = strings.ReplaceAll(inner, `\n`, "\n")
	inner = strings.ReplaceAll(inner, `\t`, "\t")
	return inner
}

func parseIntLiteral(text string) (int64, error) {
	if strings.HasPrefix(text, "0x") || strings.HasPrefix(text, "0X") {
		return strconv.ParseInt(text[2:], 16, 64)
	}
	return strconv.ParseInt(text, 10, 64)
}
