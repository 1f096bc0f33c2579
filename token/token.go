package token

import (
	"fmt"
	"strconv"
)

type TokenType int

const (
	ILLEGAL TokenType = iota
	EOF
	COMMENT

	literal_beg
	SYMBOL // foo, add, x:i32, rest...
	INT    // 1343456, 5:i64
	REAL   // 123.45
	STRING // "abc"
	literal_end

	delim_beg
	LPAREN // (
	RPAREN // )
	LBRACK // [
	RBRACK // ]
	QUOTE  // '
	delim_end
)

var tokens = [...]string{
	ILLEGAL: "ILLEGAL",

	EOF:     "EOF",
	COMMENT: "COMMENT",

	SYMBOL: "SYMBOL",
	INT:    "INT",
	REAL:   "REAL",
	STRING: "STRING",

	LPAREN: "(",
	RPAREN: ")",
	LBRACK: "[",
	RBRACK: "]",
	QUOTE:  "'",
}

// Anchor is an opaque source position carried through the IL for diagnostics.
type Anchor struct {
	Path   string
	Line   int
	Column int
	Offset int
}

func (a Anchor) IsZero() bool {
	return a.Line == 0 && a.Path == ""
}

func (a Anchor) String() string {
	if a.IsZero() {
		return "<unknown>"
	}
	return fmt.Sprintf("%s:%d:%d", a.Path, a.Line, a.Column)
}

type Token struct {
	Type    TokenType
	Literal string
	Anchor  Anchor
}

func (t Token) IsLiteral() bool {
	return literal_beg < t.Type && literal_end > t.Type
}

func (t Token) IsDelim() bool {
	return delim_beg < t.Type && delim_end > t.Type
}

func (t Token) String() string {
	return t.Type.String()
}

func (tokenType TokenType) String() string {
	s := ""
	if 0 <= tokenType && tokenType < TokenType(len(tokens)) {
		s = tokens[tokenType]
	}

	if s == "" {
		s = "token(" + strconv.Itoa(int(tokenType)) + ")"
	}

	return s
}
