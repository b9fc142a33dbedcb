package builtins

import (
	"context"
	"fmt"
	"net/url"
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/mattn/go-runewidth"
	"github.com/scaffold-io/scaffold/object"
)

const defaultTrimChars = " \t\n\r\x00\x0B"

// arg returns the i-th argument, or nil when it was not given.
func arg(args []any, i int) any {
	if i < len(args) {
		return args[i]
	}
	return nil
}

// stringArg returns the i-th argument as a string, or def when it was not
// given.
func stringArg(args []any, i int, def string) string {
	if i < len(args) {
		return object.ToString(args[i])
	}
	return def
}

func intArg(name string, args []any, i int, def int64) (int64, error) {
	if i >= len(args) {
		return def, nil
	}
	n, err := object.ToInt(args[i])
	if err != nil {
		return 0, fmt.Errorf("%s: argument %d: %w", name, i+1, err)
	}
	return n, nil
}

// Escape converts the HTML special characters of a value's string form to
// entities, quotes included. Entities already present are left alone unless
// the second argument is true.
func Escape(ctx context.Context, args ...any) (any, error) {
	if err := object.RequireRange("escape", 0, 2, args); err != nil {
		return nil, err
	}
	return escapeHTML(object.ToString(arg(args, 0)), object.Truthy(arg(args, 1))), nil
}

func escapeHTML(s string, doubleEncode bool) string {
	if !strings.ContainsAny(s, `&<>"'`) {
		return s
	}
	var b strings.Builder
	b.Grow(len(s) + 16)
	for i := 0; i < len(s); i++ {
		switch c := s[i]; c {
		case '&':
			if !doubleEncode {
				if n := entityLen(s[i:]); n > 0 {
					b.WriteString(s[i : i+n])
					i += n - 1
					continue
				}
			}
			b.WriteString("&amp;")
		case '<':
			b.WriteString("&lt;")
		case '>':
			b.WriteString("&gt;")
		case '"':
			b.WriteString("&quot;")
		case '\'':
			b.WriteString("&#039;")
		default:
			b.WriteByte(c)
		}
	}
	return b.String()
}

// entityLen returns the length of the character reference at the start of
// s, or 0 when s does not start with one.
func entityLen(s string) int {
	i := 1
	if i < len(s) && s[i] == '#' {
		i++
		hex := i < len(s) && (s[i] == 'x' || s[i] == 'X')
		if hex {
			i++
		}
		start := i
		for i < len(s) && (isDigit(s[i]) || hex && isHexLetter(s[i])) {
			i++
		}
		if i == start || i >= len(s) || s[i] != ';' {
			return 0
		}
		return i + 1
	}
	start := i
	for i < len(s) && (isLetter(s[i]) || i > start && isDigit(s[i])) {
		i++
	}
	if i == start || i >= len(s) || s[i] != ';' {
		return 0
	}
	return i + 1
}

func isDigit(c byte) bool     { return c >= '0' && c <= '9' }
func isLetter(c byte) bool    { return c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z' }
func isHexLetter(c byte) bool { return c >= 'a' && c <= 'f' || c >= 'A' && c <= 'F' }

var unescaper = strings.NewReplacer(
	"&amp;", "&",
	"&lt;", "<",
	"&gt;", ">",
	"&quot;", `"`,
	"&#039;", "'",
	"&#39;", "'",
)

// Unescape reverses Escape.
func Unescape(ctx context.Context, args ...any) (any, error) {
	if err := object.Require("unescape", 1, args); err != nil {
		return nil, err
	}
	return unescaper.Replace(object.ToString(args[0])), nil
}

func Upper(ctx context.Context, args ...any) (any, error) {
	if err := object.Require("upper", 1, args); err != nil {
		return nil, err
	}
	return strings.ToUpper(object.ToString(args[0])), nil
}

func Lower(ctx context.Context, args ...any) (any, error) {
	if err := object.Require("lower", 1, args); err != nil {
		return nil, err
	}
	return strings.ToLower(object.ToString(args[0])), nil
}

// Capitalize upper-cases the first character.
func Capitalize(ctx context.Context, args ...any) (any, error) {
	if err := object.Require("capitalize", 1, args); err != nil {
		return nil, err
	}
	s := object.ToString(args[0])
	r, size := utf8.DecodeRuneInString(s)
	if size == 0 {
		return s, nil
	}
	return string(unicode.ToUpper(r)) + s[size:], nil
}

// Title upper-cases the first character of every whitespace separated word.
func Title(ctx context.Context, args ...any) (any, error) {
	if err := object.Require("title", 1, args); err != nil {
		return nil, err
	}
	s := object.ToString(args[0])
	var b strings.Builder
	b.Grow(len(s))
	start := true
	for _, r := range s {
		if start {
			r = unicode.ToUpper(r)
		}
		start = strings.ContainsRune(" \t\r\n\f\v", r)
		b.WriteRune(r)
	}
	return b.String(), nil
}

// Trim strips the given characters, whitespace by default, from both ends.
func Trim(ctx context.Context, args ...any) (any, error) {
	if err := object.RequireRange("trim", 1, 2, args); err != nil {
		return nil, err
	}
	return strings.Trim(object.ToString(args[0]), stringArg(args, 1, defaultTrimChars)), nil
}

// Nl2br inserts a line break tag before every newline. A true second
// argument selects the XHTML form.
func Nl2br(ctx context.Context, args ...any) (any, error) {
	if err := object.RequireRange("nl2br", 1, 2, args); err != nil {
		return nil, err
	}
	tag := "<br>"
	if object.Truthy(arg(args, 1)) {
		tag = "<br />"
	}
	s := object.ToString(args[0])
	var b strings.Builder
	for i := 0; i < len(s); i++ {
		c := s[i]
		if c != '\n' && c != '\r' {
			b.WriteByte(c)
			continue
		}
		b.WriteString(tag)
		b.WriteByte(c)
		// \r\n and \n\r count as one newline.
		if i+1 < len(s) && (s[i+1] == '\n' || s[i+1] == '\r') && s[i+1] != c {
			i++
			b.WriteByte(s[i])
		}
	}
	return b.String(), nil
}

func URLEncode(ctx context.Context, args ...any) (any, error) {
	if err := object.Require("urlEncode", 1, args); err != nil {
		return nil, err
	}
	return url.QueryEscape(object.ToString(args[0])), nil
}

// Repeat repeats a string, twice by default.
func Repeat(ctx context.Context, args ...any) (any, error) {
	if err := object.RequireRange("repeat", 1, 2, args); err != nil {
		return nil, err
	}
	n, err := intArg("repeat", args, 1, 2)
	if err != nil {
		return nil, err
	}
	if n < 0 {
		return nil, fmt.Errorf("repeat: count must not be negative (%d given)", n)
	}
	return strings.Repeat(object.ToString(args[0]), int(n)), nil
}

// Truncate shortens a string to the given display width, 255 by default,
// and appends a continuation marker when it was cut.
func Truncate(ctx context.Context, args ...any) (any, error) {
	if err := object.RequireRange("truncate", 1, 3, args); err != nil {
		return nil, err
	}
	limit, err := intArg("truncate", args, 1, 255)
	if err != nil {
		return nil, err
	}
	if limit < 0 {
		limit = 0
	}
	s := object.ToString(args[0])
	if runewidth.StringWidth(s) <= int(limit) {
		return s, nil
	}
	return runewidth.Truncate(s, int(limit), "") + stringArg(args, 2, "&hellip;"), nil
}

// Replace substitutes occurrences of a search string. The search may also
// be a list of strings, paired with a list of replacements or a single
// replacement, or a map of search strings to replacements. With a true
// fourth argument the search strings are regular expressions, optionally
// wrapped in delimiters with trailing flags as in "/abc/i".
func Replace(ctx context.Context, args ...any) (any, error) {
	if err := object.RequireRange("replace", 1, 4, args); err != nil {
		return nil, err
	}
	subject := object.ToString(args[0])
	pairs, err := replacePairs(arg(args, 1), arg(args, 2))
	if err != nil {
		return nil, err
	}
	regex := object.Truthy(arg(args, 3))
	for _, p := range pairs {
		if !regex {
			if p[0] == "" {
				continue
			}
			subject = strings.ReplaceAll(subject, p[0], p[1])
			continue
		}
		re, err := compilePattern(p[0])
		if err != nil {
			return nil, err
		}
		subject = re.ReplaceAllString(subject, backrefs.ReplaceAllString(p[1], "$${$1}"))
	}
	return subject, nil
}

var backrefs = regexp.MustCompile(`[\\$]\{?(\d+)\}?`)

func replacePairs(search, replace any) ([][2]string, error) {
	if m, ok := search.(*object.Map); ok {
		pairs := make([][2]string, 0, m.Len())
		for _, k := range m.Keys() {
			v, _ := m.Get(k)
			pairs = append(pairs, [2]string{k, object.ToString(v)})
		}
		return pairs, nil
	}
	if search == nil || !object.IsIterable(search) {
		return [][2]string{{object.ToString(search), object.ToString(replace)}}, nil
	}
	searches, err := valuesOf(context.Background(), search)
	if err != nil {
		return nil, err
	}
	var replacements []any
	single := replace == nil || !object.IsIterable(replace)
	if !single {
		if replacements, err = valuesOf(context.Background(), replace); err != nil {
			return nil, err
		}
	}
	pairs := make([][2]string, len(searches))
	for i, s := range searches {
		var r any
		switch {
		case single:
			r = replace
		case i < len(replacements):
			r = replacements[i]
		}
		pairs[i] = [2]string{object.ToString(s), object.ToString(r)}
	}
	return pairs, nil
}

// compilePattern compiles a regular expression, stripping delimiters and
// translating the i, m, s and U flags when present.
func compilePattern(pattern string) (*regexp.Regexp, error) {
	if len(pattern) >= 2 {
		delim := pattern[0]
		closing := delim
		switch delim {
		case '(':
			closing = ')'
		case '{':
			closing = '}'
		case '[':
			closing = ']'
		case '<':
			closing = '>'
		}
		if !isLetter(delim) && !isDigit(delim) && delim != '\\' && delim != ' ' {
			if end := strings.LastIndexByte(pattern, closing); end > 0 {
				var flags strings.Builder
				for _, f := range pattern[end+1:] {
					if strings.ContainsRune("imsU", f) {
						flags.WriteRune(f)
					}
				}
				pattern = pattern[1:end]
				if flags.Len() > 0 {
					pattern = "(?" + flags.String() + ")" + pattern
				}
			}
		}
	}
	re, err := regexp.Compile(pattern)
	if err != nil {
		return nil, fmt.Errorf("replace: invalid pattern: %w", err)
	}
	return re, nil
}

// Format formats its arguments according to a format string.
func Format(ctx context.Context, args ...any) (any, error) {
	if len(args) < 1 {
		return nil, object.RequireRange("format", 1, -1, args)
	}
	values := make([]any, len(args)-1)
	for i, a := range args[1:] {
		values[i] = object.Normalize(a)
	}
	return fmt.Sprintf(object.ToString(args[0]), values...), nil
}
