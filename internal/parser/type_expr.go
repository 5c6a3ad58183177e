package parser

import (
	"github.com/pallene-lang/pallenec/internal/lexer"
	"github.com/pallene-lang/pallenec/internal/types"
)

// parseType parses one type annotation. Named types (builtins, records,
// typealiases) are left as an unresolved types.NamedRef when the name is
// not one of the builtins; the checker's alias-expansion pass resolves
// them, which is what lets a record field forward
// reference a record or typealias declared later in the file.
func (p *Parser) parseType() *types.Type {
	switch p.cur.Type {
	case lexer.TokenLBrace:
		return p.parseArrayOrTableType()
	case lexer.TokenLParen:
		return p.parseFunctionType()
	case lexer.TokenName:
		name := p.cur.Lexeme
		start := p.pos()
		p.advance()
		switch name {
		case "nil":
			return types.Nil()
		case "boolean":
			return types.Boolean()
		case "integer":
			return types.Integer()
		case "float":
			return types.Float()
		case "string":
			return types.String()
		case "any":
			return types.Any()
		default:
			return types.NamedRef(name, p.spanFrom(start))
		}
	}
	p.errorLabel(LabelExpectedType)
	return types.Any()
}

func (p *Parser) parseArrayOrTableType() *types.Type {
	p.advance() // '{'

	if p.cur.Type == lexer.TokenName && p.peek.Type == lexer.TokenColon {
		var order []string
		fields := map[string]*types.Type{}
		for {
			name := p.cur.Lexeme
			p.expect(lexer.TokenName, LabelExpectedName)
			p.expect(lexer.TokenColon, LabelExpectedColon)
			fields[name] = p.parseType()
			order = append(order, name)
			if p.cur.Type != lexer.TokenComma {
				break
			}
			p.advance()
			if p.cur.Type == lexer.TokenRBrace {
				break
			}
		}
		p.expect(lexer.TokenRBrace, LabelExpectedRBrace)
		return types.Table(order, fields)
	}

	elem := p.parseType()
	p.expect(lexer.TokenRBrace, LabelExpectedRBrace)
	return types.Array(elem)
}

func (p *Parser) parseFunctionType() *types.Type {
	p.advance() // '('
	var args []*types.Type
	for p.cur.Type != lexer.TokenRParen && p.cur.Type != lexer.TokenEOF {
		args = append(args, p.parseType())
		if p.cur.Type != lexer.TokenComma {
			break
		}
		p.advance()
	}
	p.expect(lexer.TokenRParen, LabelExpectedRParen)

	// `-> T` or `-> (T1, T2)` or no arrow at all for a `()` unit type used
	// as a return-type annotation.
	if p.cur.Type != lexer.TokenMinus {
		return types.Function(args, nil)
	}
	p.advance() // '-'
	p.expect(lexer.TokenGt, LabelExpectedType)

	var rets []*types.Type
	if p.cur.Type == lexer.TokenLParen {
		p.advance()
		for p.cur.Type != lexer.TokenRParen && p.cur.Type != lexer.TokenEOF {
			rets = append(rets, p.parseType())
			if p.cur.Type != lexer.TokenComma {
				break
			}
			p.advance()
		}
		p.expect(lexer.TokenRParen, LabelExpectedRParen)
	} else {
		rets = append(rets, p.parseType())
	}
	return types.Function(args, rets)
}
