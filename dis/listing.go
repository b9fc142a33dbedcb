package dis

import (
	"fmt"
	"sort"
	"strings"

	"github.com/scaffold-io/scaffold/bytecode"
)

// Trace maps a line of a listing to the template line of the statement
// that begins there. Lines are 1-based.
type Trace map[int]int

// Line returns the template line for a listing line: the line of the
// nearest statement at or above it.
func (t Trace) Line(listingLine int) (int, bool) {
	best, found := 0, false
	for line := range t {
		if line <= listingLine && line > best {
			best, found = line, true
		}
	}
	if !found {
		return 0, false
	}
	return t[best], true
}

// Lines returns the listing lines that carry a trace entry, in order.
func (t Trace) Lines() []int {
	lines := make([]int, 0, len(t))
	for line := range t {
		lines = append(lines, line)
	}
	sort.Ints(lines)
	return lines
}

type section struct {
	title string
	code  *bytecode.Code
}

type listing struct {
	b     strings.Builder
	line  int
	trace Trace
}

func (l *listing) printf(format string, args ...any) {
	l.b.WriteString(strings.TrimRight(fmt.Sprintf(format, args...), " "))
	l.b.WriteString("\n")
	l.line++
}

// Listing renders the whole unit as text, one instruction per line and one
// section per code block, along with the trace from listing lines back to
// template lines.
func Listing(unit *bytecode.Unit) (string, Trace, error) {
	l := &listing{trace: Trace{}}
	l.printf("; %s", unit.Name())
	if unit.Path() != "" {
		l.printf("; path %s", unit.Path())
	}
	sections := []section{{"display", unit.Main()}}
	for i := 0; i < unit.BlockCount(); i++ {
		b := unit.BlockAt(i)
		sections = append(sections, section{"block " + b.Name, b.Code})
	}
	for i := 0; i < unit.MacroCount(); i++ {
		m := unit.MacroAt(i)
		params := make([]string, m.ParamCount())
		for j := range params {
			params[j] = m.ParamAt(j).Name
		}
		title := fmt.Sprintf("macro %s(%s)", m.Name(), strings.Join(params, ", "))
		sections = append(sections, section{title, m.Code()})
		for j := 0; j < m.ParamCount(); j++ {
			p := m.ParamAt(j)
			sections = append(sections, section{fmt.Sprintf("default %s.%s", m.Name(), p.Name), p.Default})
		}
	}
	for i := 0; i < unit.ImportCount(); i++ {
		imp := unit.ImportAt(i)
		sections = append(sections, section{"import " + imp.Alias, imp.Source})
	}
	for _, s := range sections {
		for _, code := range s.code.Flatten() {
			title := s.title
			if code != s.code {
				title = s.title + " " + code.ID()
			}
			if err := l.write(title, code); err != nil {
				return "", nil, err
			}
		}
	}
	return l.b.String(), l.trace, nil
}

func (l *listing) write(title string, code *bytecode.Code) error {
	instructions, err := Disassemble(code)
	if err != nil {
		return err
	}
	l.printf("")
	l.printf("%s:", title)
	next := 0
	for _, instr := range instructions {
		for next < code.TraceCount() && code.TraceAt(next).Offset <= instr.Offset {
			if code.TraceAt(next).Offset == instr.Offset {
				l.trace[l.line+1] = code.TraceAt(next).Line
			}
			next++
		}
		operands := formatOperands(instr.Operands)
		if instr.Annotation != "" {
			annotation := instr.Annotation
			if s, ok := instr.Constant.(string); ok {
				annotation = fmt.Sprintf("%q", truncate(s))
			}
			l.printf("%6d  %-28s %-10s ; %s", instr.Offset, instr.Name, operands, annotation)
		} else {
			l.printf("%6d  %-28s %s", instr.Offset, instr.Name, operands)
		}
	}
	return nil
}
