package parser

import (
	"regexp"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/gerunddev/mdirtree/internal/tree"
)

var (
	listItem     = regexp.MustCompile(`^([ \t]*)(?:[-*+]|\d{1,9}[.)])[ \t]+(.*)$`)
	heading      = regexp.MustCompile(`^[ ]{0,3}(#{1,6})(?:[ \t]+(.*?))?[ \t]*$`)
	thematic     = regexp.MustCompile(`^[ ]{0,3}([-*_])(?:[ \t]*[-*_]){2,}[ \t]*$`)
	fenceOpen    = regexp.MustCompile("^([ \t]*)(`{3,}|~{3,})(.*)$")
	taskMarker   = regexp.MustCompile(`^\[[ xX]\][ \t]+`)
	pathComment  = regexp.MustCompile(`^\s*(?:<!--|/\*|#|//|--|;)\s*(?:file:\s*)?(\S+?)\s*(?:-->|\*/)?\s*$`)
	closingHashs = regexp.MustCompile(`[ \t]+#+$`)
)

// frontMatter holds the keys recognised in a leading YAML block
type frontMatter struct {
	Root string `yaml:"root"`
}

// codeBlock is a fenced block that names the file it belongs to
type codeBlock struct {
	line    int
	path    string
	content string
}

func parseMarkdown(lines []string) (*tree.Tree, error) {
	t := tree.New(tree.Markdown)

	start, label, err := readFrontMatter(lines)
	if err != nil {
		return nil, err
	}
	labeled := label != ""
	if labeled {
		t.Root.Name = label
	}

	var (
		entries []entry
		blocks  []codeBlock
	)
	for i := start; i < len(lines); i++ {
		raw := lines[i]
		lineNo := i + 1
		if strings.TrimSpace(raw) == "" {
			continue
		}

		if m := fenceOpen.FindStringSubmatch(raw); m != nil && !(m[2][0] == '`' && strings.Contains(m[3], "`")) {
			end, block, err := readFence(lines, i, m[1], m[2])
			if err != nil {
				return nil, err
			}
			if block != nil {
				blocks = append(blocks, *block)
			}
			i = end
			continue
		}

		if thematic.MatchString(raw) {
			continue
		}

		if m := heading.FindStringSubmatch(raw); m != nil {
			text := strings.TrimSpace(closingHashs.ReplaceAllString(m[2], ""))
			if !labeled && len(entries) == 0 && strings.HasSuffix(text, "/") {
				name := strings.Trim(strings.TrimRight(text, "/"), "`")
				if err := tree.ValidateName(name); err != nil {
					return nil, errorf(lineNo, "root heading: %v", err)
				}
				t.Root.Name = name
				t.Root.Line = lineNo
				labeled = true
			}
			continue
		}

		m := listItem.FindStringSubmatch(raw)
		if m == nil {
			// prose
			continue
		}
		e, err := newEntry(lineNo, expandWidth(m[1]), markdownLabel(m[2]))
		if err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}

	if err := assignLevels(entries, firstIndent(entries)); err != nil {
		return nil, err
	}
	if err := build(t, entries, labeled); err != nil {
		return nil, err
	}
	if err := attachContent(t, blocks); err != nil {
		return nil, err
	}
	return t, nil
}

// markdownLabel normalises a list item body: task boxes, bold markers
// and a leading code span are unwrapped. Text after a code span is
// treated as a description.
func markdownLabel(body string) string {
	body = strings.TrimSpace(body)
	body = taskMarker.ReplaceAllString(body, "")
	if strings.HasPrefix(body, "**") {
		if end := strings.Index(body[2:], "**"); end >= 0 {
			body = body[2:2+end] + body[2+end+2:]
		}
	}
	if strings.HasPrefix(body, "`") {
		if end := strings.Index(body[1:], "`"); end >= 0 {
			name := body[1 : 1+end]
			rest := strings.TrimSpace(body[1+end+1:])
			rest = strings.TrimSpace(strings.TrimLeft(rest, "-—–:#"))
			if rest != "" {
				return name + " # " + rest
			}
			return name
		}
	}
	return body
}

// readFrontMatter consumes a leading "---" YAML block. It returns the
// index of the first line after the block and the root label, if any.
func readFrontMatter(lines []string) (int, string, error) {
	if len(lines) == 0 || strings.TrimSpace(lines[0]) != "---" {
		return 0, "", nil
	}
	for i := 1; i < len(lines); i++ {
		trimmed := strings.TrimSpace(lines[i])
		if trimmed != "---" && trimmed != "..." {
			continue
		}
		var fm frontMatter
		if err := yaml.Unmarshal([]byte(strings.Join(lines[1:i], "\n")), &fm); err != nil {
			return 0, "", errorf(1, "invalid front matter: %v", err)
		}
		root := strings.TrimRight(strings.TrimSpace(fm.Root), "/")
		if root != "" {
			if err := tree.ValidateName(root); err != nil {
				return 0, "", errorf(1, "front matter root: %v", err)
			}
		}
		return i + 1, root, nil
	}
	return 0, "", errorf(1, "unterminated front matter")
}

// readFence consumes a fenced code block starting at lines[open] and
// returns the index of its closing fence. The block is returned only
// when its first line is a path comment.
func readFence(lines []string, open int, indent, fence string) (int, *codeBlock, error) {
	indentWidth := expandWidth(indent)
	char := fence[0]
	var body []string
	for i := open + 1; i < len(lines); i++ {
		trimmed := strings.TrimSpace(lines[i])
		if len(trimmed) >= len(fence) && strings.Trim(trimmed, string(char)) == "" {
			return i, fencedBlock(open+1, body), nil
		}
		body = append(body, dedent(lines[i], indentWidth))
	}
	return 0, nil, errorf(open+1, "unterminated code block")
}

func fencedBlock(line int, body []string) *codeBlock {
	if len(body) == 0 || strings.HasPrefix(strings.TrimSpace(body[0]), "#!") {
		return nil
	}
	m := pathComment.FindStringSubmatch(body[0])
	if m == nil {
		return nil
	}
	content := ""
	if rest := body[1:]; len(rest) > 0 {
		content = strings.Join(rest, "\n") + "\n"
	}
	return &codeBlock{line: line, path: m[1], content: content}
}

// dedent strips up to width columns of leading whitespace
func dedent(line string, width int) string {
	cut := 0
	for cut < len(line) && width > 0 {
		switch line[cut] {
		case ' ':
			width--
		case '\t':
			width -= 4
		default:
			return line[cut:]
		}
		cut++
	}
	return line[cut:]
}

// attachContent hands code block bodies to the files they name
func attachContent(t *tree.Tree, blocks []codeBlock) error {
	for _, b := range blocks {
		n := t.Lookup(b.path)
		if n == nil {
			if strings.ContainsAny(b.path, "/.") {
				return errorf(b.line, "code block for undeclared file %q", b.path)
			}
			continue
		}
		if n.IsDir() {
			return errorf(b.line, "code block targets directory %q", b.path)
		}
		if n.HasContent {
			return errorf(b.line, "content for %q already supplied", b.path)
		}
		n.Content = b.content
		n.HasContent = true
	}
	return nil
}
