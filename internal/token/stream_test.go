package token

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func tokens() []Token {
	return []Token{
		{Type: BLOCK_BEGIN, Value: "{%", Position: Position{Char: 0, Line: 1, Column: 1}},
		{Type: NAME, Value: "import", Position: Position{Char: 3, Line: 1, Column: 4}},
		{Type: STRING, Value: "forms", Position: Position{Char: 10, Line: 1, Column: 11}},
		{Type: NAME, Value: "with", Position: Position{Char: 18, Line: 1, Column: 19}},
	}
}

func TestNewStreamAppendsEOF(t *testing.T) {
	s := NewStream(tokens())
	require.Len(t, s.Tokens(), 5)
	last := s.Tokens()[4]
	require.Equal(t, EOF, last.Type)
	require.Equal(t, 1, last.Line())
	require.Equal(t, 19, last.Column())

	s = NewStream(nil)
	require.True(t, s.IsEOS())
	require.Len(t, s.Tokens(), 1)

	s = NewStream([]Token{{Type: EOF}})
	require.Len(t, s.Tokens(), 1)
}

func TestStreamNavigation(t *testing.T) {
	s := NewStream(tokens())
	require.Equal(t, BLOCK_BEGIN, s.Current().Type)
	require.Equal(t, "import", s.Look(1).Value)
	require.Equal(t, EOF, s.Look(10).Type)
	require.Equal(t, BLOCK_BEGIN, s.Look(-1).Type)

	tok := s.Next()
	require.Equal(t, BLOCK_BEGIN, tok.Type)
	require.Equal(t, "import", s.Current().Value)

	s.Skip(3)
	require.True(t, s.IsEOS())
	require.Equal(t, EOF, s.Next().Type)
	require.Equal(t, EOF, s.Next().Type)
	require.True(t, s.IsEOS())
}

func TestStreamTestAndConsume(t *testing.T) {
	s := NewStream(tokens())
	require.True(t, s.Test(BLOCK_BEGIN))
	require.False(t, s.Test(NAME))
	require.False(t, s.Consume(NAME, "import"))
	require.True(t, s.Consume(BLOCK_BEGIN))
	require.True(t, s.Test(NAME, "include", "import"))
	require.False(t, s.Test(NAME, "include"))
	require.True(t, s.Consume(NAME, "import"))
	require.Equal(t, STRING, s.Current().Type)
}

func TestStreamExpect(t *testing.T) {
	s := NewStream(tokens())
	tok, err := s.Expect(BLOCK_BEGIN)
	require.Nil(t, err)
	require.Equal(t, "{%", tok.Value)

	tok, err = s.Expect(NAME, "import")
	require.Nil(t, err)
	require.Equal(t, "import", tok.Value)

	_, err = s.Expect(NAME)
	require.NotNil(t, err)
	require.Equal(t, `unexpected "forms", expecting name type in line 1 char 11`, err.Error())
	require.Equal(t, STRING, s.Current().Type, "a failed expect does not consume")

	s.Next()
	_, err = s.Expect(NAME, "as")
	require.Equal(t, `unexpected "with", expecting "as" in line 1 char 19`, err.Error())

	s.Next()
	_, err = s.Expect(BLOCK_END)
	require.Equal(t, "unexpected end of file in line 1 char 19", err.Error())
}

func TestExpecting(t *testing.T) {
	require.Equal(t, `block end (either "%}" or "-%}")`, Expecting(BLOCK_END))
	require.Equal(t, `"elseif" or "else" or "endif"`, Expecting(NAME, "elseif", "else", "endif"))
	require.Equal(t, "whatever", Type("WHATEVER").Description())
}

func TestUnexpectedEscapesNewlines(t *testing.T) {
	tok := Token{Type: TEXT, Value: "a\nb", Position: Position{Line: 2, Column: 3}}
	err := Unexpected(tok, "an expression")
	require.Equal(t, `unexpected "a\nb", expecting an expression in line 2 char 3`, err.Error())
	require.Equal(t, "a\nb", err.Value)
}

func TestTokenString(t *testing.T) {
	require.Equal(t, `NAME("x")`, Token{Type: NAME, Value: "x"}.String())
	require.Equal(t, "EOF", Token{Type: EOF}.String())
	require.Equal(t, "3:7", Position{Line: 3, Column: 7}.String())
	require.False(t, NoPos.IsValid())
}
