package commands

import (
	"fmt"
	"io"
	"os"

	"github.com/gerunddev/mdirtree/internal/config"
	"github.com/gerunddev/mdirtree/internal/logger"
	"github.com/gerunddev/mdirtree/internal/parser"
	"github.com/gerunddev/mdirtree/internal/tree"
)

// stdinName is how a source read from standard input is reported
const stdinName = "-"

// readSource reads the structure description named by args, or stdin
// when there is no argument or it is "-"
func readSource(stdin io.Reader, args []string) (text, name string, err error) {
	if len(args) == 0 || args[0] == stdinName {
		data, err := io.ReadAll(stdin)
		if err != nil {
			return "", "", fmt.Errorf("failed to read stdin: %w", err)
		}
		return string(data), stdinName, nil
	}

	data, err := os.ReadFile(args[0])
	if err != nil {
		return "", "", fmt.Errorf("failed to read %s: %w", args[0], err)
	}
	return string(data), args[0], nil
}

// loadTree reads and parses the source, honoring the configured format
// or detecting it from the file name and content
func loadTree(stdin io.Reader, args []string, cfg *config.Config, l *logger.Logger) (*tree.Tree, error) {
	text, name, err := readSource(stdin, args)
	if err != nil {
		return nil, err
	}

	format, ok, err := parser.ParseFormat(cfg.Format)
	if err != nil {
		return nil, err
	}
	if !ok {
		format = parser.Detect(name, text)
	}

	t, err := parser.Parse(text, format)
	if err != nil {
		return nil, err
	}
	l.Parsed(name, format.String(), t.Len())
	return t, nil
}
