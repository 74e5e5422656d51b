package render

import (
	"strings"

	ltree "github.com/charmbracelet/lipgloss/tree"

	"github.com/gerunddev/mdirtree/internal/tree"
)

// ASCII renders t the way tree(1) prints it. Directories get a trailing
// slash so the output parses back into the same structure.
func ASCII(t *tree.Tree) string {
	if t == nil || t.Root == nil {
		return ""
	}

	root := ltree.New()
	if t.Root.Name != "" {
		root = ltree.Root(label(t.Root))
	}
	for _, c := range t.Root.Children {
		root.Child(build(c))
	}

	lines := strings.Split(root.String(), "\n")
	for i, l := range lines {
		lines[i] = strings.TrimRight(l, " ")
	}
	out := strings.Join(lines, "\n")
	if out == "" {
		return ""
	}
	return out + "\n"
}

func build(n *tree.Node) any {
	if !n.IsDir() || len(n.Children) == 0 {
		return label(n)
	}
	sub := ltree.Root(label(n))
	for _, c := range n.Children {
		sub.Child(build(c))
	}
	return sub
}

func label(n *tree.Node) string {
	s := n.Name
	if n.IsDir() {
		s += "/"
	}
	if n.Comment != "" {
		s += "  # " + n.Comment
	}
	return s
}
