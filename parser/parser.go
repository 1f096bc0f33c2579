package parser

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/thiremani/corvid/il"
	"github.com/thiremani/corvid/lexer"
	"github.com/thiremani/corvid/syntax"
	"github.com/thiremani/corvid/token"
	"github.com/thiremani/corvid/types"
)

// Parser reads s-expressions into syntax trees.
type Parser struct {
	l      *lexer.Lexer
	errors []*token.CompileError

	curToken  token.Token
	peekToken token.Token
}

func New(l *lexer.Lexer) *Parser {
	p := &Parser{l: l}

	// Read two tokens, so curToken and peekToken are both set
	p.nextToken()
	p.nextToken()
	return p
}

func (p *Parser) nextToken() {
	p.curToken = p.peekToken
	p.peekToken = p.l.NextToken()
	for p.peekToken.Type == token.COMMENT {
		p.peekToken = p.l.NextToken()
	}
}

func (p *Parser) curTokenIs(t token.TokenType) bool {
	return p.curToken.Type == t
}

func (p *Parser) Errors() []*token.CompileError {
	return p.errors
}

func (p *Parser) errorf(anchor token.Anchor, format string, args ...any) {
	p.errors = append(p.errors, token.Errorf(anchor, token.Syntax, format, args...))
}

// Parse reads every top-level form until EOF.
func (p *Parser) Parse() []*syntax.Syntax {
	var forms []*syntax.Syntax
	for !p.curTokenIs(token.EOF) {
		if form := p.parseForm(); form != nil {
			forms = append(forms, form)
		}
		p.nextToken()
	}
	return forms
}

// parseForm parses the form starting at curToken and leaves curToken on
// its last token.
func (p *Parser) parseForm() *syntax.Syntax {
	tok := p.curToken
	switch tok.Type {
	case token.LPAREN:
		return p.parseSeq(syntax.List, token.RPAREN)
	case token.LBRACK:
		return p.parseSeq(syntax.Vector, token.RBRACK)
	case token.RPAREN, token.RBRACK:
		p.errorf(tok.Anchor, "unexpected %q", tok.Literal)
		return nil
	case token.QUOTE:
		if p.peekToken.Type != token.SYMBOL {
			p.errorf(tok.Anchor, "expected a symbol after quote, got %s", p.peekToken.Type)
			return nil
		}
		p.nextToken()
		return syntax.NewAtom(tok.Anchor, il.Sym(p.curToken.Literal))
	case token.STRING:
		return syntax.NewAtom(tok.Anchor, il.String(tok.Literal))
	case token.INT:
		v, err := parseInt(tok.Literal)
		if err != nil {
			p.errorf(tok.Anchor, "%v", err)
			return nil
		}
		return syntax.NewAtom(tok.Anchor, v)
	case token.REAL:
		v, err := parseReal(tok.Literal)
		if err != nil {
			p.errorf(tok.Anchor, "%v", err)
			return nil
		}
		return syntax.NewAtom(tok.Anchor, v)
	case token.SYMBOL:
		return syntax.NewIdent(tok.Anchor, tok.Literal)
	case token.ILLEGAL:
		p.errorf(tok.Anchor, "illegal token %q", tok.Literal)
		return nil
	}
	p.errorf(tok.Anchor, "unexpected %s", tok.Type)
	return nil
}

func (p *Parser) parseSeq(kind syntax.Kind, end token.TokenType) *syntax.Syntax {
	open := p.curToken
	items := []*syntax.Syntax{}
	for {
		p.nextToken()
		switch p.curToken.Type {
		case end:
			return syntax.NewList(open.Anchor, kind, items)
		case token.EOF:
			p.errorf(open.Anchor, "unterminated %q", open.Literal)
			return nil
		}
		if item := p.parseForm(); item != nil {
			items = append(items, item)
		}
	}
}

// splitSuffix separates an optional ":type" suffix from a number literal.
func splitSuffix(lit string, def types.Type) (string, types.Type, error) {
	i := strings.IndexByte(lit, ':')
	if i < 0 {
		return lit, def, nil
	}
	t, ok := types.LookupName(lit[i+1:])
	if !ok {
		return "", nil, fmt.Errorf("unknown type suffix %q in %q", lit[i+1:], lit)
	}
	return lit[:i], t, nil
}

func parseInt(lit string) (il.Any, error) {
	num, t, err := splitSuffix(lit, types.I32)
	if err != nil {
		return il.Any{}, err
	}
	switch tt := t.(type) {
	case types.Int:
		if tt.Signed {
			v, err := strconv.ParseInt(num, 0, int(tt.Width))
			if err != nil {
				return il.Any{}, fmt.Errorf("invalid %s literal %q", tt, num)
			}
			return il.Int(tt, v), nil
		}
		v, err := strconv.ParseUint(strings.TrimPrefix(num, "+"), 0, int(tt.Width))
		if err != nil {
			return il.Any{}, fmt.Errorf("invalid %s literal %q", tt, num)
		}
		return il.Int(tt, int64(v)), nil
	case types.Float:
		return parseReal(lit)
	}
	return il.Any{}, fmt.Errorf("%s is not a numeric type", t)
}

func parseReal(lit string) (il.Any, error) {
	num, t, err := splitSuffix(lit, types.F64)
	if err != nil {
		return il.Any{}, err
	}
	ft, ok := t.(types.Float)
	if !ok {
		return il.Any{}, fmt.Errorf("real literal %q cannot have type %s", num, t)
	}
	v, err := strconv.ParseFloat(num, int(ft.Width))
	if err != nil {
		return il.Any{}, fmt.Errorf("invalid %s literal %q", ft, num)
	}
	return il.Float(ft, v), nil
}
