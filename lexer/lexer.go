package lexer

import (
	"strings"

	"github.com/thiremani/corvid/token"
)

type Lexer struct {
	path         string
	input        []rune
	position     int  // current position in input (points to current rune)
	readPosition int  // current reading position in input (after current rune)
	curr         rune // current rune under examination
	line         int
	column       int
}

func New(path, input string) *Lexer {
	l := &Lexer{path: path, input: []rune(input), line: 1}
	l.readRune()
	return l
}

func (l *Lexer) NextToken() token.Token {
	l.skipWhitespace()
	anchor := l.anchor()

	var tok token.Token
	switch l.curr {
	case '(':
		tok = newToken(token.LPAREN, l.curr)
	case ')':
		tok = newToken(token.RPAREN, l.curr)
	case '[':
		tok = newToken(token.LBRACK, l.curr)
	case ']':
		tok = newToken(token.RBRACK, l.curr)
	case '\'':
		tok = newToken(token.QUOTE, l.curr)
	case ';':
		tok = token.Token{Type: token.COMMENT, Literal: l.readComment()}
		tok.Anchor = anchor
		return tok
	case '"':
		lit, ok := l.readString()
		tok = token.Token{Type: token.STRING, Literal: lit, Anchor: anchor}
		if !ok {
			tok.Type = token.ILLEGAL
		}
		return tok
	case 0:
		return token.Token{Type: token.EOF, Anchor: anchor}
	default:
		lit := l.readAtom()
		if lit == "" {
			tok = newToken(token.ILLEGAL, l.curr)
			break
		}
		tok = token.Token{Type: classify(lit), Literal: lit, Anchor: anchor}
		return tok
	}

	tok.Anchor = anchor
	l.readRune()
	return tok
}

func (l *Lexer) anchor() token.Anchor {
	return token.Anchor{Path: l.path, Line: l.line, Column: l.column, Offset: l.position}
}

func (l *Lexer) skipWhitespace() {
	for l.curr == ' ' || l.curr == '\t' || l.curr == '\n' || l.curr == '\r' {
		l.readRune()
	}
}

func (l *Lexer) readRune() {
	if l.curr == '\n' {
		l.line++
		l.column = 0
	}
	if l.readPosition >= len(l.input) {
		l.curr = 0
	} else {
		l.curr = l.input[l.readPosition]
	}
	l.position = l.readPosition
	l.readPosition++
	l.column++
}

func (l *Lexer) readComment() string {
	position := l.position
	for l.curr != '\n' && l.curr != 0 {
		l.readRune()
	}
	return string(l.input[position:l.position])
}

// readString reads a double-quoted string, resolving \n, \t, \" and \\.
// It reports false when the input ends before the closing quote.
func (l *Lexer) readString() (string, bool) {
	var sb strings.Builder
	l.readRune() // opening quote
	for {
		switch l.curr {
		case 0:
			return sb.String(), false
		case '"':
			l.readRune()
			return sb.String(), true
		case '\\':
			l.readRune()
			switch l.curr {
			case 'n':
				sb.WriteRune('\n')
			case 't':
				sb.WriteRune('\t')
			case 0:
				return sb.String(), false
			default:
				sb.WriteRune(l.curr)
			}
		default:
			sb.WriteRune(l.curr)
		}
		l.readRune()
	}
}

func (l *Lexer) readAtom() string {
	position := l.position
	for isAtomRune(l.curr) {
		l.readRune()
	}
	return string(l.input[position:l.position])
}

func isAtomRune(ch rune) bool {
	switch ch {
	case 0, ' ', '\t', '\n', '\r', '(', ')', '[', ']', '\'', '"', ';':
		return false
	}
	return true
}

func isDigit(ch byte) bool {
	return '0' <= ch && ch <= '9'
}

// classify decides whether an atom is a number. A number starts with a
// digit, or a sign followed by a digit, and may carry a :type suffix.
func classify(lit string) token.TokenType {
	num := lit
	if i := strings.IndexByte(num, ':'); i >= 0 {
		num = num[:i]
	}
	if len(num) > 0 && (num[0] == '-' || num[0] == '+') {
		num = num[1:]
	}
	if num == "" || !isDigit(num[0]) {
		return token.SYMBOL
	}
	if strings.HasPrefix(num, "0x") || strings.HasPrefix(num, "0X") {
		return token.INT
	}
	if strings.ContainsAny(num, ".eE") {
		return token.REAL
	}
	return token.INT
}

func newToken(tokenType token.TokenType, curr rune) token.Token {
	return token.Token{Type: tokenType, Literal: string(curr)}
}
