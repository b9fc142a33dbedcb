// Package token defines the tokens produced when lexing template source.
package token

import (
	"fmt"
	"strings"
)

// Type describes the type of a token.
type Type string

// Token types
const (
	EOF          Type = "EOF"
	TEXT         Type = "TEXT"
	BLOCK_BEGIN  Type = "BLOCK_BEGIN"
	OUTPUT_BEGIN Type = "OUTPUT_BEGIN"
	RAW_BEGIN    Type = "RAW_BEGIN"
	BLOCK_END    Type = "BLOCK_END"
	OUTPUT_END   Type = "OUTPUT_END"
	RAW_END      Type = "RAW_END"
	NAME         Type = "NAME"
	NUMBER       Type = "NUMBER"
	STRING       Type = "STRING"
	OPERATOR     Type = "OPERATOR"
	CONSTANT     Type = "CONSTANT"
)

var descriptions = map[Type]string{
	EOF:          "end of file",
	TEXT:         "text type",
	BLOCK_BEGIN:  `block begin (either "{%" or "{%-")`,
	OUTPUT_BEGIN: `the start of an output tag (either "{{" or "{{-")`,
	RAW_BEGIN:    `the start of a raw output tag (either "{!" or "{!-")`,
	BLOCK_END:    `block end (either "%}" or "-%}")`,
	OUTPUT_END:   `the end of an output tag (either "}}" or "-}}")`,
	RAW_END:      `the end of a raw output tag (either "!}" or "-!}")`,
	NAME:         "name type",
	NUMBER:       "number type",
	STRING:       "string type",
	OPERATOR:     "operator type",
	CONSTANT:     "constant type (true, false, or null)",
}

// Description returns a human readable description of the token type, as
// used in "expecting ..." error messages.
func (t Type) Description() string {
	if d, ok := descriptions[t]; ok {
		return d
	}
	return strings.ToLower(string(t))
}

// Position points to a particular location in the template source.
type Position struct {
	Char   int // byte offset within the source
	Line   int // 1-based line number
	Column int // 1-based column, counted in bytes
}

// String returns the position formatted as "line:column".
func (p Position) String() string {
	return fmt.Sprintf("%d:%d", p.Line, p.Column)
}

// IsValid returns true if the position has been set.
func (p Position) IsValid() bool {
	return p.Line > 0
}

// NoPos is the zero value Position.
var NoPos = Position{}

// Token represents one token lexed from the template source.
type Token struct {
	Type     Type
	Value    string
	Position Position
}

// Test reports whether the token has the given type and, when values are
// supplied, whether its value is one of them.
func (t Token) Test(typ Type, values ...string) bool {
	if t.Type != typ {
		return false
	}
	if len(values) == 0 {
		return true
	}
	for _, v := range values {
		if t.Value == v {
			return true
		}
	}
	return false
}

// Line returns the 1-based line number of the token.
func (t Token) Line() int {
	return t.Position.Line
}

// Column returns the 1-based column of the token.
func (t Token) Column() int {
	return t.Position.Column
}

func (t Token) String() string {
	if t.Type == EOF {
		return "EOF"
	}
	return fmt.Sprintf("%s(%q)", t.Type, t.Value)
}
