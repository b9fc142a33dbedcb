package token

import (
	"fmt"
	"strings"

	"github.com/scaffold-io/scaffold/errors"
)

// Stream is a cursor over a lexed token vector. The vector always ends with
// exactly one EOF token and the cursor never moves backwards.
type Stream struct {
	tokens []Token
	cursor int
}

// NewStream returns a Stream over the given tokens. An EOF token is appended
// when the vector does not already end with one.
func NewStream(tokens []Token) *Stream {
	if n := len(tokens); n == 0 || tokens[n-1].Type != EOF {
		var pos Position
		if n > 0 {
			pos = tokens[n-1].Position
		}
		tokens = append(tokens, Token{Type: EOF, Position: pos})
	}
	return &Stream{tokens: tokens}
}

// Tokens returns the full token vector, including the trailing EOF.
func (s *Stream) Tokens() []Token {
	return s.tokens
}

// Current returns the token under the cursor.
func (s *Stream) Current() Token {
	return s.tokens[s.cursor]
}

// Next advances the cursor and returns the token it moved past. At the end
// of the stream it keeps returning EOF.
func (s *Stream) Next() Token {
	tok := s.tokens[s.cursor]
	if s.cursor < len(s.tokens)-1 {
		s.cursor++
	}
	return tok
}

// Look returns the token n positions ahead of the current one without
// consuming anything. Look(0) is the current token.
func (s *Stream) Look(n int) Token {
	i := s.cursor + n
	if i >= len(s.tokens) {
		i = len(s.tokens) - 1
	}
	if i < s.cursor {
		i = s.cursor
	}
	return s.tokens[i]
}

// Skip advances the cursor n times.
func (s *Stream) Skip(n int) {
	for i := 0; i < n; i++ {
		s.Next()
	}
}

// Test reports whether the current token matches without consuming it.
func (s *Stream) Test(typ Type, values ...string) bool {
	return s.Current().Test(typ, values...)
}

// Consume advances past the current token if it matches.
func (s *Stream) Consume(typ Type, values ...string) bool {
	if !s.Test(typ, values...) {
		return false
	}
	s.Next()
	return true
}

// Expect consumes and returns the current token if it matches, otherwise it
// returns a syntax error describing what was expected.
func (s *Stream) Expect(typ Type, values ...string) (Token, error) {
	tok := s.Current()
	if !tok.Test(typ, values...) {
		return tok, Unexpected(tok, Expecting(typ, values...))
	}
	s.Next()
	return tok, nil
}

// IsEOS reports whether the cursor is on the EOF token.
func (s *Stream) IsEOS() bool {
	return s.Current().Type == EOF
}

// Expecting describes a token type or a set of accepted values.
func Expecting(typ Type, values ...string) string {
	if len(values) == 0 {
		return typ.Description()
	}
	return `"` + strings.Join(values, `" or "`) + `"`
}

// Unexpected builds the syntax error for an unexpected token.
func Unexpected(tok Token, expecting string) *errors.SyntaxError {
	if tok.Type == EOF {
		return Errorf(tok, "unexpected end of file")
	}
	return Errorf(tok, "unexpected \"%s\", expecting %s", escapeNewlines(tok.Value), expecting)
}

// Errorf builds a syntax error located at the given token.
func Errorf(tok Token, format string, args ...any) *errors.SyntaxError {
	return errors.NewSyntaxError(fmt.Sprintf(format, args...), tok.Value, tok.Position.Line, tok.Position.Column)
}

func escapeNewlines(s string) string {
	return strings.ReplaceAll(s, "\n", `\n`)
}
