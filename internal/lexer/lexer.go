// Package lexer turns template source into a stream of tokens.
//
// The lexer is modal. In text mode it scans for the next tag opener and
// emits everything before it as text. Inside a block, output or raw tag it
// emits expression tokens until it finds the matching closer.
package lexer

import (
	"strings"

	"github.com/scaffold-io/scaffold/internal/token"
)

// Tag delimiters. Each has a trimming variant with a "-" on the inside.
const (
	BlockBegin       = "{%"
	BlockBeginTrim   = "{%-"
	BlockEnd         = "%}"
	BlockEndTrim     = "-%}"
	OutputBegin      = "{{"
	OutputBeginTrim  = "{{-"
	OutputEnd        = "}}"
	OutputEndTrim    = "-}}"
	RawBegin         = "{!"
	RawBeginTrim     = "{!-"
	RawEnd           = "!}"
	RawEndTrim       = "-!}"
	CommentBegin     = "{#"
	CommentBeginTrim = "{#-"
	CommentEnd       = "#}"
	CommentEndTrim   = "-#}"
)

type mode int

const (
	modeText mode = iota
	modeBlock
	modeOutput
	modeRaw
)

type closer struct {
	end     string
	endTrim string
	typ     token.Type
}

var closers = map[mode]closer{
	modeBlock:  {BlockEnd, BlockEndTrim, token.BLOCK_END},
	modeOutput: {OutputEnd, OutputEndTrim, token.OUTPUT_END},
	modeRaw:    {RawEnd, RawEndTrim, token.RAW_END},
}

// Word operators must not be followed by a name character.
var wordOperators = []string{"and", "xor", "or", "not", "in"}

// Symbol operators, longest first where prefixes overlap.
var symbolOperators = []string{
	"=>", "<>", "<=", "<", ">=", ">", "===", "!==", "==", "!=", "=", "..",
}

const singleOperators = "[]().,%*/+|?:-@~"

var constants = []string{"true", "false", "null"}

// Lexer produces tokens from template source on demand.
type Lexer struct {
	source string
	cursor int
	line   int
	column int
	mode   mode
	trim   bool
	queue  []token.Token
	last   token.Token
	eof    bool
}

// New returns a Lexer for the given source. Line endings are normalized to
// "\n" before scanning.
func New(source string) *Lexer {
	source = strings.ReplaceAll(source, "\r\n", "\n")
	source = strings.ReplaceAll(source, "\r", "\n")
	return &Lexer{source: source, line: 1, column: 1}
}

// Tokenize lexes the whole source into a Stream.
func Tokenize(source string) *token.Stream {
	return New(source).Stream()
}

// Stream lexes the remaining source into a Stream.
func (l *Lexer) Stream() *token.Stream {
	var tokens []token.Token
	for {
		tok := l.Next()
		tokens = append(tokens, tok)
		if tok.Type == token.EOF {
			break
		}
	}
	return token.NewStream(tokens)
}

// Source returns the normalized source being lexed.
func (l *Lexer) Source() string {
	return l.source
}

// Next returns the next token. Once the source is exhausted it keeps
// returning EOF tokens.
func (l *Lexer) Next() token.Token {
	for len(l.queue) == 0 {
		if l.eof || l.cursor >= len(l.source) {
			l.eof = true
			return token.Token{Type: token.EOF, Position: l.position()}
		}
		switch l.mode {
		case modeText:
			l.lexText()
		default:
			l.lexTag(closers[l.mode])
		}
	}
	tok := l.queue[0]
	l.queue = l.queue[1:]
	return tok
}

func (l *Lexer) position() token.Position {
	return token.Position{Char: l.cursor, Line: l.line, Column: l.column}
}

func (l *Lexer) emit(typ token.Type, value string) {
	tok := token.Token{Type: typ, Value: value, Position: l.position()}
	l.queue = append(l.queue, tok)
	l.last = tok
}

// afterOperand reports whether the previous token ends an operand, in which
// case a "-" is subtraction rather than the sign of a number.
func (l *Lexer) afterOperand() bool {
	switch l.last.Type {
	case token.NAME, token.NUMBER, token.STRING, token.CONSTANT:
		return true
	case token.OPERATOR:
		return l.last.Value == ")" || l.last.Value == "]"
	}
	return false
}

// advance moves the cursor past s, which must be the next slice of the
// source, updating the line and column counters.
func (l *Lexer) advance(s string) {
	l.cursor += len(s)
	if n := strings.Count(s, "\n"); n > 0 {
		l.line += n
		l.column = len(s) - strings.LastIndex(s, "\n")
		return
	}
	l.column += len(s)
}

// trimLeading strips leading spaces and tabs and at most one newline.
func trimLeading(s string) string {
	s = strings.TrimLeft(s, " \t")
	return strings.TrimPrefix(s, "\n")
}

// findOpener locates the earliest tag opener in s.
func findOpener(s string) (int, string) {
	for i := 0; i+1 < len(s); i++ {
		if s[i] != '{' {
			continue
		}
		switch s[i+1] {
		case '%', '{', '!', '#':
			if i+2 < len(s) && s[i+2] == '-' {
				return i, s[i : i+3]
			}
			return i, s[i : i+2]
		}
	}
	return -1, ""
}

func (l *Lexer) lexText() {
	rest := l.source[l.cursor:]
	idx, opener := findOpener(rest)
	if idx < 0 {
		text := rest
		if l.trim {
			text = trimLeading(text)
			l.trim = false
		}
		if text != "" {
			l.emit(token.TEXT, text)
		}
		l.advance(rest)
		return
	}

	raw := rest[:idx]
	if raw != "" {
		text := raw
		if l.trim {
			text = trimLeading(text)
			l.trim = false
		}
		if len(opener) == 3 {
			text = strings.TrimRight(text, " \t")
		}
		if text != "" {
			l.emit(token.TEXT, text)
		}
	}
	l.advance(raw)

	switch opener[:2] {
	case CommentBegin:
		l.advance(opener)
		l.lexComment()
	case BlockBegin:
		l.emit(token.BLOCK_BEGIN, opener)
		l.advance(opener)
		l.mode = modeBlock
	case OutputBegin:
		l.emit(token.OUTPUT_BEGIN, opener)
		l.advance(opener)
		l.mode = modeOutput
	case RawBegin:
		l.emit(token.RAW_BEGIN, opener)
		l.advance(opener)
		l.mode = modeRaw
	}
}

// lexComment skips a comment body. An unterminated comment leaves the rest
// of the source to be lexed as text.
func (l *Lexer) lexComment() {
	rest := l.source[l.cursor:]
	end := strings.Index(rest, CommentEnd)
	if end < 0 {
		return
	}
	if end > 0 && rest[end-1] == '-' {
		l.trim = true
	}
	l.advance(rest[:end+len(CommentEnd)])
}

// matchCloser reports the length of leading whitespace and the closer found
// right after it at the start of s.
func matchCloser(s string, c closer) (int, string, bool) {
	ws := len(s) - len(strings.TrimLeft(s, " \t\n\r\v\f"))
	after := s[ws:]
	switch {
	case strings.HasPrefix(after, c.endTrim):
		return ws, c.endTrim, true
	case strings.HasPrefix(after, c.end):
		return ws, c.end, true
	}
	return 0, "", false
}

func (l *Lexer) lexTag(c closer) {
	rest := l.source[l.cursor:]
	if ws, end, ok := matchCloser(rest, c); ok {
		if end == c.endTrim {
			l.trim = true
		}
		l.advance(rest[:ws])
		l.emit(c.typ, end)
		l.advance(end)
		l.mode = modeText
		return
	}
	l.lexExpression(c)
}

func (l *Lexer) lexExpression(c closer) {
	rest := l.source[l.cursor:]
	if ws := len(rest) - len(strings.TrimLeft(rest, " \t\n\r\v\f")); ws > 0 {
		l.advance(rest[:ws])
		rest = rest[ws:]
	}
	if rest == "" {
		return
	}
	if n := scanNumber(rest); n > 0 && !(rest[0] == '-' && l.afterOperand()) {
		l.emit(token.NUMBER, strings.ReplaceAll(rest[:n], "_", ""))
		l.advance(rest[:n])
		return
	}
	if op := scanOperator(rest); op != "" {
		l.emit(token.OPERATOR, op)
		l.advance(op)
		return
	}
	if k := scanConstant(rest); k != "" {
		l.emit(token.CONSTANT, k)
		l.advance(k)
		return
	}
	if n := scanName(rest); n > 0 {
		l.emit(token.NAME, rest[:n])
		l.advance(rest[:n])
		return
	}
	if n, value := scanString(rest); n > 0 {
		l.emit(token.STRING, value)
		l.advance(rest[:n])
		return
	}
	// Nothing recognizable: consume up to the closer as a single text token,
	// or the remainder of the source when there is no closer.
	for k := 1; k < len(rest); k++ {
		if _, _, ok := matchCloser(rest[k:], c); ok {
			l.emit(token.TEXT, rest[:k])
			l.advance(rest[:k])
			return
		}
	}
	l.emit(token.TEXT, rest)
	l.advance(rest)
}

func isDigit(b byte) bool {
	return b >= '0' && b <= '9'
}

func isNameStart(b byte) bool {
	return b == '_' || (b >= 'a' && b <= 'z') || (b >= 'A' && b <= 'Z')
}

func isNameChar(b byte) bool {
	return isNameStart(b) || isDigit(b)
}

// scanNumber matches -?[0-9][0-9_]*(\.[0-9][0-9_]*)? and returns its length.
func scanNumber(s string) int {
	i := 0
	if i < len(s) && s[i] == '-' {
		i++
	}
	if i >= len(s) || !isDigit(s[i]) {
		return 0
	}
	for i < len(s) && (isDigit(s[i]) || s[i] == '_') {
		i++
	}
	if i+1 < len(s) && s[i] == '.' && isDigit(s[i+1]) {
		i++
		for i < len(s) && (isDigit(s[i]) || s[i] == '_') {
			i++
		}
	}
	return i
}

func scanWord(s, word string) bool {
	if !strings.HasPrefix(s, word) {
		return false
	}
	return len(s) == len(word) || !isNameChar(s[len(word)])
}

func scanOperator(s string) string {
	for _, w := range wordOperators {
		if scanWord(s, w) {
			return w
		}
	}
	for _, op := range symbolOperators {
		if strings.HasPrefix(s, op) {
			return op
		}
	}
	if strings.IndexByte(singleOperators, s[0]) >= 0 {
		return s[:1]
	}
	return ""
}

func scanConstant(s string) string {
	for _, k := range constants {
		if scanWord(s, k) {
			return k
		}
	}
	return ""
}

func scanName(s string) int {
	if !isNameStart(s[0]) {
		return 0
	}
	i := 1
	for i < len(s) && isNameChar(s[i]) {
		i++
	}
	return i
}

// scanString matches a single or double quoted string with backslash
// escapes. It returns the length of the literal and its unescaped value.
func scanString(s string) (int, string) {
	quote := s[0]
	if quote != '"' && quote != '\'' {
		return 0, ""
	}
	for i := 1; i < len(s); i++ {
		switch s[i] {
		case '\\':
			i++
		case quote:
			return i + 1, Unescape(s[1:i])
		}
	}
	return 0, ""
}
