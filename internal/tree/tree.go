package tree

import (
	"fmt"
	"strings"
)

// Kind tells directories and files apart
type Kind int

const (
	// Directory is a node that may hold children
	Directory Kind = iota
	// File is a leaf node that may carry content
	File
)

// String returns the short name used in reports and logs
func (k Kind) String() string {
	switch k {
	case Directory:
		return "dir"
	case File:
		return "file"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// Format is the source syntax a tree was parsed from
type Format int

const (
	// ASCII is indentation or tree(1) style box drawing
	ASCII Format = iota
	// Markdown is nested bullet lists plus fenced code blocks
	Markdown
)

// String returns the flag spelling of the format
func (f Format) String() string {
	switch f {
	case ASCII:
		return "ascii"
	case Markdown:
		return "markdown"
	default:
		return fmt.Sprintf("format(%d)", int(f))
	}
}

// Node is one entry of a parsed structure
type Node struct {
	Name       string
	Kind       Kind
	Depth      int
	Content    string
	HasContent bool
	Comment    string
	Line       int
	Children   []*Node
}

// IsDir reports whether the node is a directory
func (n *Node) IsDir() bool {
	return n.Kind == Directory
}

// Child returns the direct child with the given name, or nil
func (n *Node) Child(name string) *Node {
	for _, c := range n.Children {
		if c.Name == name {
			return c
		}
	}
	return nil
}

// Tree is the result of a single parse
type Tree struct {
	Root   *Node
	Format Format
}

// New returns a tree with an empty, unnamed root directory
func New(format Format) *Tree {
	return &Tree{
		Root:   &Node{Kind: Directory},
		Format: format,
	}
}

// WalkFunc is called for every node in pre-order. rel holds the names
// from the first level below the root down to n; it is empty for the root.
type WalkFunc func(n *Node, rel []string) error

// Walk visits every node in pre-order, children in insertion order.
// Returning ErrSkipChildren from fn skips the node's descendants.
func (t *Tree) Walk(fn WalkFunc) error {
	if t == nil || t.Root == nil {
		return nil
	}
	return walk(t.Root, nil, fn)
}

func walk(n *Node, rel []string, fn WalkFunc) error {
	if err := fn(n, rel); err != nil {
		if err == ErrSkipChildren {
			return nil
		}
		return err
	}
	for _, c := range n.Children {
		// copy so callers may keep rel
		childRel := make([]string, len(rel), len(rel)+1)
		copy(childRel, rel)
		if err := walk(c, append(childRel, c.Name), fn); err != nil {
			return err
		}
	}
	return nil
}

// Len returns the number of nodes including the root
func (t *Tree) Len() int {
	count := 0
	_ = t.Walk(func(*Node, []string) error {
		count++
		return nil
	})
	return count
}

// Lookup finds a node by slash separated path relative to the root.
// A leading "./" is ignored, and so is a leading segment equal to the
// root's own name.
func (t *Tree) Lookup(path string) *Node {
	if t == nil || t.Root == nil {
		return nil
	}
	path = strings.TrimPrefix(strings.TrimSpace(path), "./")
	path = strings.Trim(path, "/")
	if path == "" {
		return t.Root
	}

	parts := strings.Split(path, "/")
	if t.Root.Name != "" && parts[0] == t.Root.Name && t.Root.Child(parts[0]) == nil {
		parts = parts[1:]
	}

	n := t.Root
	for _, p := range parts {
		if p == "" || p == "." {
			continue
		}
		n = n.Child(p)
		if n == nil {
			return nil
		}
	}
	return n
}
