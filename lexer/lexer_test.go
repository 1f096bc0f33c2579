package lexer

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/thiremani/corvid/token"
)

type Test struct {
	expectedType    token.TokenType
	expectedLiteral string
}

func checkInput(t *testing.T, input string, tests []Test) {
	l := New("test.cv", input)

	for i, tt := range tests {
		tok := l.NextToken()
		require.Equal(t, tt.expectedType, tok.Type, "tests[%d] - tokentype wrong, literal %q", i, tok.Literal)
		require.Equal(t, tt.expectedLiteral, tok.Literal, "tests[%d] - literal wrong", i)
	}
}

func TestNextToken(t *testing.T) {
	input := `; doubles its argument
(label double (ret x:i32)
  (add ret x x))
(label main (ret)
  (double ret 21 -4 2.5:f32 "hi\n" 'sym [1 rest...] 0x1f))
`
	tests := []Test{
		{token.COMMENT, "; doubles its argument"},
		{token.LPAREN, "("},
		{token.SYMBOL, "label"},
		{token.SYMBOL, "double"},
		{token.LPAREN, "("},
		{token.SYMBOL, "ret"},
		{token.SYMBOL, "x:i32"},
		{token.RPAREN, ")"},
		{token.LPAREN, "("},
		{token.SYMBOL, "add"},
		{token.SYMBOL, "ret"},
		{token.SYMBOL, "x"},
		{token.SYMBOL, "x"},
		{token.RPAREN, ")"},
		{token.RPAREN, ")"},
		{token.LPAREN, "("},
		{token.SYMBOL, "label"},
		{token.SYMBOL, "main"},
		{token.LPAREN, "("},
		{token.SYMBOL, "ret"},
		{token.RPAREN, ")"},
		{token.LPAREN, "("},
		{token.SYMBOL, "double"},
		{token.SYMBOL, "ret"},
		{token.INT, "21"},
		{token.INT, "-4"},
		{token.REAL, "2.5:f32"},
		{token.STRING, "hi\n"},
		{token.QUOTE, "'"},
		{token.SYMBOL, "sym"},
		{token.LBRACK, "["},
		{token.INT, "1"},
		{token.SYMBOL, "rest..."},
		{token.RBRACK, "]"},
		{token.INT, "0x1f"},
		{token.RPAREN, ")"},
		{token.RPAREN, ")"},
		{token.EOF, ""},
	}
	checkInput(t, input, tests)
}

func TestSignsAreSymbolsAlone(t *testing.T) {
	checkInput(t, "- +1 -x 1e3", []Test{
		{token.SYMBOL, "-"},
		{token.INT, "+1"},
		{token.SYMBOL, "-x"},
		{token.REAL, "1e3"},
		{token.EOF, ""},
	})
}

func TestAnchors(t *testing.T) {
	l := New("a.cv", "(f\n  x)")
	want := []token.Anchor{
		{Path: "a.cv", Line: 1, Column: 1, Offset: 0},
		{Path: "a.cv", Line: 1, Column: 2, Offset: 1},
		{Path: "a.cv", Line: 2, Column: 3, Offset: 5},
		{Path: "a.cv", Line: 2, Column: 4, Offset: 6},
	}
	for i, w := range want {
		tok := l.NextToken()
		assert.Equal(t, w, tok.Anchor, "token %d (%s)", i, tok.Literal)
	}
	assert.Equal(t, "a.cv:2:3", want[2].String())
}

func TestUnterminatedString(t *testing.T) {
	l := New("", `"abc`)
	tok := l.NextToken()
	assert.Equal(t, token.ILLEGAL, tok.Type)
}
