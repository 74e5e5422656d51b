// Package parser turns ASCII-art and Markdown descriptions of a
// directory structure into a tree.Tree.
//
// Both syntaxes share one set of rules. Indentation is measured in
// columns (tabs count as 4) and divided by an indentation unit: the width
// of the first branch connector ("├── " is 4) when the text draws
// branches, otherwise the width of the first indented line. A trailing
// "/" marks a directory; an entry without one becomes a directory only
// when something is nested under it.
package parser

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/gerunddev/mdirtree/internal/tree"
)

// Parse reads a complete structure description. It never returns a
// partial tree: any problem yields a *ParseError.
func Parse(text string, format tree.Format) (*tree.Tree, error) {
	lines := splitLines(text)
	switch format {
	case tree.ASCII:
		return parseASCII(lines)
	case tree.Markdown:
		return parseMarkdown(lines)
	default:
		return nil, fmt.Errorf("unsupported format %v", format)
	}
}

func splitLines(text string) []string {
	text = strings.TrimPrefix(text, "\ufeff")
	text = strings.ReplaceAll(text, "\r\n", "\n")
	text = strings.ReplaceAll(text, "\r", "\n")
	if text == "" {
		return nil
	}
	return strings.Split(text, "\n")
}

// ParseFormat maps a flag value onto a format. ok is false for "auto"
// and the empty string, which ask for Detect.
func ParseFormat(s string) (format tree.Format, ok bool, err error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "auto":
		return tree.ASCII, false, nil
	case "ascii", "tree", "text":
		return tree.ASCII, true, nil
	case "markdown", "md":
		return tree.Markdown, true, nil
	default:
		return tree.ASCII, false, fmt.Errorf("unknown format %q: must be one of auto, ascii, markdown", s)
	}
}

// Detect picks a format from the source name, falling back to sniffing
// the text for Markdown constructs.
func Detect(name, text string) tree.Format {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".md", ".markdown", ".mdown":
		return tree.Markdown
	case ".txt", ".tree":
		return tree.ASCII
	}

	lines := splitLines(text)
	if len(lines) > 0 && strings.TrimSpace(lines[0]) == "---" {
		return tree.Markdown
	}
	for _, l := range lines {
		if listItem.MatchString(l) || fenceOpen.MatchString(l) {
			return tree.Markdown
		}
		if m := heading.FindStringSubmatch(l); m != nil && strings.TrimSpace(m[2]) != "" {
			return tree.Markdown
		}
	}
	return tree.ASCII
}
