package parser

import (
	"regexp"
	"strings"

	"github.com/gerunddev/mdirtree/internal/tree"
)

// treeSummary matches the trailing "3 directories, 5 files" line of tree(1)
var treeSummary = regexp.MustCompile(`^\d+\s+director(y|ies)(,\s*\d+\s+files?)?$`)

// asciiLine is a line split into its drawing prefix and label
type asciiLine struct {
	width     int // prefix width in columns
	connWidth int // width of the branch connector, 0 without one
	label     string
}

func isSpace(r rune) bool {
	return r == ' ' || r == '\t' || r == '\u00a0'
}

// splitASCII separates the indentation and tree drawing prefix of a line
// from the entry label. Dashes only belong to the prefix as part of a
// connector such as "├──" or "|--".
func splitASCII(line string) asciiLine {
	runes := []rune(line)
	next := func(i int) rune {
		if i+1 < len(runes) {
			return runes[i+1]
		}
		return 0
	}

	i := 0
	connStart := -1
	inConn := false
scan:
	for ; i < len(runes); i++ {
		r := runes[i]
		switch {
		case isSpace(r), r == '│':
			inConn = false
		case r == '├', r == '└':
			connStart, inConn = i, true
		case r == '|':
			if n := next(i); n == '-' || n == '─' {
				connStart, inConn = i, true
			} else {
				inConn = false
			}
		case r == '`', r == '+':
			if n := next(i); n != '-' && n != '─' {
				break scan
			}
			connStart, inConn = i, true
		case r == '─':
		case r == '-':
			if !inConn {
				break scan
			}
		default:
			break scan
		}
	}

	out := asciiLine{
		width: expandWidth(string(runes[:i])),
		label: strings.TrimSpace(string(runes[i:])),
	}
	if connStart >= 0 {
		out.connWidth = expandWidth(string(runes[connStart:i]))
	}
	return out
}

func parseASCII(lines []string) (*tree.Tree, error) {
	t := tree.New(tree.ASCII)

	var entries []entry
	connUnit := 0
	for i, raw := range lines {
		lineNo := i + 1
		if strings.TrimSpace(raw) == "" {
			continue
		}

		sl := splitASCII(raw)
		if sl.label == "" {
			if sl.connWidth > 0 {
				return nil, errorf(lineNo, "branch without an entry name")
			}
			// only vertical bars
			continue
		}
		if treeSummary.MatchString(sl.label) {
			continue
		}
		if connUnit == 0 && sl.connWidth > 0 {
			connUnit = sl.connWidth
		}

		e, err := newEntry(lineNo, sl.width, sl.label)
		if err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}

	unit := connUnit
	if unit == 0 {
		unit = firstIndent(entries)
	}
	if err := assignLevels(entries, unit); err != nil {
		return nil, err
	}
	if err := build(t, entries, false); err != nil {
		return nil, err
	}
	return t, nil
}
