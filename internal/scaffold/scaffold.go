package scaffold

import (
	"path"
	"strings"
	"unicode"
)

// comment styles keyed by lowercase extension or base name
var commentStyles = map[string][2]string{
	".go":    {"// ", ""},
	".js":    {"// ", ""},
	".ts":    {"// ", ""},
	".tsx":   {"// ", ""},
	".jsx":   {"// ", ""},
	".java":  {"// ", ""},
	".kt":    {"// ", ""},
	".c":     {"// ", ""},
	".h":     {"// ", ""},
	".cpp":   {"// ", ""},
	".cs":    {"// ", ""},
	".rs":    {"// ", ""},
	".swift": {"// ", ""},
	".proto": {"// ", ""},
	".css":   {"/* ", " */"},
	".scss":  {"// ", ""},
	".md":    {"<!-- ", " -->"},
	".html":  {"<!-- ", " -->"},
	".xml":   {"<!-- ", " -->"},
	".sql":   {"-- ", ""},
	".lua":   {"-- ", ""},
	".hs":    {"-- ", ""},
	".ini":   {"; ", ""},
}

// ContentFor returns starter content for a file named name inside the
// directory parent. comment, when set, becomes the first line.
func ContentFor(name, parent, comment string) string {
	body := template(name, parent)
	if comment == "" {
		return body
	}

	prefix, suffix := commentSyntax(name)
	header := prefix + comment + suffix + "\n"
	// a shebang has to stay on the first line
	if strings.HasPrefix(body, "#!") {
		first, rest, _ := strings.Cut(body, "\n")
		return first + "\n" + header + rest
	}
	return header + body
}

func commentSyntax(name string) (string, string) {
	if s, ok := commentStyles[strings.ToLower(path.Ext(name))]; ok {
		return s[0], s[1]
	}
	return "# ", ""
}

func template(name, parent string) string {
	switch name {
	case "__init__.py", ".gitkeep", ".keep":
		return ""
	case "requirements.txt":
		return "# Project dependencies\n"
	case ".gitignore":
		return "__pycache__/\n*.pyc\n.env\n"
	case "README.md":
		return "# Project Documentation\n\n## Overview\n\n"
	}

	switch strings.ToLower(path.Ext(name)) {
	case ".py":
		return "\"\"\"\n" + name + "\n\"\"\"\n\n"
	case ".go":
		if name == "main.go" {
			return "package main\n"
		}
		return "package " + goPackage(parent) + "\n"
	case ".sh", ".bash":
		return "#!/usr/bin/env bash\nset -euo pipefail\n"
	}
	return ""
}

// goPackage derives a package name from a directory name; files at the
// root become package main.
func goPackage(dir string) string {
	if dir == "" || dir == "main" {
		return "main"
	}
	var b strings.Builder
	for _, r := range strings.ToLower(dir) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
		}
	}
	pkg := b.String()
	if pkg == "" || unicode.IsDigit(rune(pkg[0])) {
		return "main"
	}
	return pkg
}
