package parser

import (
	"strings"

	"github.com/gerunddev/mdirtree/internal/tree"
)

// entry is one declared item before it is placed in the tree
type entry struct {
	line    int
	width   int
	level   int
	name    string
	dir     bool
	comment string
}

// expandWidth counts leading indentation columns; tabs are 4 columns
func expandWidth(s string) int {
	w := 0
	for _, r := range s {
		if r == '\t' {
			w += 4
		} else {
			w++
		}
	}
	return w
}

// splitLabel separates the entry name from a trailing "# comment" and
// the directory marker.
func splitLabel(label string) (name string, dir bool, comment string) {
	label = strings.TrimSpace(label)
	for i := 1; i < len(label); i++ {
		if label[i] == '#' && (label[i-1] == ' ' || label[i-1] == '\t') {
			comment = strings.TrimSpace(strings.TrimLeft(label[i:], "#"))
			label = strings.TrimSpace(label[:i])
			break
		}
	}
	if strings.HasSuffix(label, "/") {
		dir = true
		label = strings.TrimRight(label, "/")
	}
	return label, dir, comment
}

// currentDir is the first line of plain tree(1) output
const currentDir = "."

func newEntry(line, width int, label string) (entry, error) {
	name, dir, comment := splitLabel(label)
	if name == currentDir {
		// only valid as the root, which build decides
		return entry{line: line, width: width, name: name, dir: true, comment: comment}, nil
	}
	if err := tree.ValidateName(name); err != nil {
		return entry{}, errorf(line, "%v", err)
	}
	return entry{line: line, width: width, name: name, dir: dir, comment: comment}, nil
}

// assignLevels turns column widths into indentation levels
func assignLevels(entries []entry, unit int) error {
	if unit <= 0 {
		unit = 1
	}
	for i := range entries {
		if entries[i].width%unit != 0 {
			return errorf(entries[i].line,
				"indentation of %d columns is not a multiple of the %d column indentation unit",
				entries[i].width, unit)
		}
		entries[i].level = entries[i].width / unit
	}
	return nil
}

// firstIndent returns the width of the first indented entry, 0 if none
func firstIndent(entries []entry) int {
	for _, e := range entries {
		if e.width > 0 {
			return e.width
		}
	}
	return 0
}

// build places entries under t.Root using a stack of open ancestors.
// When labeled is false, a lone top-level directory that comes first
// becomes the root itself.
func build(t *tree.Tree, entries []entry, labeled bool) error {
	if len(entries) == 0 {
		return nil
	}

	minLevel := entries[0].level
	atMin := 0
	for _, e := range entries {
		if e.level < minLevel {
			minLevel = e.level
		}
	}
	for _, e := range entries {
		if e.level == minLevel {
			atMin++
		}
	}

	offset := 1
	first := entries[0]
	if !labeled && first.level == minLevel && atMin == 1 &&
		(first.dir || (len(entries) > 1 && entries[1].level > minLevel)) {
		// "." stands for the output directory itself and leaves the root unnamed
		if first.name != currentDir {
			t.Root.Name = first.name
		}
		t.Root.Comment = first.comment
		t.Root.Line = first.line
		entries = entries[1:]
		offset = 0
	}

	stack := []*tree.Node{t.Root}
	for _, e := range entries {
		if e.name == currentDir {
			return errorf(e.line, "%v", tree.ValidateName(e.name))
		}
		depth := e.level - minLevel + offset
		top := stack[len(stack)-1]
		if depth > top.Depth+1 {
			return errorf(e.line, "indentation skips a level: %q is at depth %d under %s at depth %d",
				e.name, depth, describe(top), top.Depth)
		}
		for depth <= top.Depth {
			stack = stack[:len(stack)-1]
			top = stack[len(stack)-1]
		}

		if top.Kind == tree.File {
			top.Kind = tree.Directory
		}
		if dup := top.Child(e.name); dup != nil {
			return errorf(e.line, "duplicate entry %q under %s (first declared on line %d)",
				e.name, describe(top), dup.Line)
		}

		n := &tree.Node{
			Name:    e.name,
			Kind:    tree.File,
			Depth:   depth,
			Comment: e.comment,
			Line:    e.line,
		}
		if e.dir {
			n.Kind = tree.Directory
		}
		top.Children = append(top.Children, n)
		stack = append(stack, n)
	}
	return nil
}

func describe(n *tree.Node) string {
	if n.Depth == 0 && n.Name == "" {
		return "the root"
	}
	return `"` + n.Name + `"`
}
