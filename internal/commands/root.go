// Package commands wires the mdirtree command line.
package commands

import (
	"errors"
	"fmt"
	"io"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/gerunddev/mdirtree/internal/config"
	"github.com/gerunddev/mdirtree/internal/logger"
	"github.com/gerunddev/mdirtree/internal/materialize"
	"github.com/gerunddev/mdirtree/internal/parser"
)

// Exit codes
const (
	ExitOK         = 0
	ExitError      = 1
	ExitParse      = 2
	ExitFilesystem = 3
)

// globalOptions holds the persistent flags shared by every subcommand
type globalOptions struct {
	configFile string
	verbose    bool
	quiet      bool
}

// NewRootCommand builds the mdirtree command tree
func NewRootCommand(version string) *cobra.Command {
	g := &globalOptions{}

	cmd := &cobra.Command{
		Use:   "mdirtree",
		Short: "Create directory structures from ASCII trees and Markdown outlines",
		Long: `mdirtree turns a textual description of a directory layout into real
directories and files.

The source may be tree(1)-style ASCII art, plain indentation, or a Markdown
list. Markdown sources can carry file contents in fenced code blocks whose
first line is a comment naming the file.`,
		Example: `  mdirtree generate structure.txt -o ./out
  cat layout.md | mdirtree generate - --dry-run
  mdirtree generate layout.md --on-conflict overwrite --diff
  mdirtree show layout.md`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	flags := cmd.PersistentFlags()
	flags.StringVar(&g.configFile, "config", "", fmt.Sprintf("config file (default is %s)", config.ConfigPath()))
	flags.BoolVarP(&g.verbose, "verbose", "v", false, "log every path as it is handled")
	flags.BoolVarP(&g.quiet, "quiet", "q", false, "only print errors")
	cmd.MarkFlagsMutuallyExclusive("verbose", "quiet")

	cmd.AddCommand(
		newGenerateCommand(g),
		newShowCommand(g),
		newVersionCommand(version),
	)
	return cmd
}

// Execute runs the command line and returns the process exit code
func Execute(version string, args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	cmd := NewRootCommand(version)
	cmd.SetArgs(args)
	cmd.SetIn(stdin)
	cmd.SetOut(stdout)
	cmd.SetErr(stderr)

	err := cmd.Execute()
	if err == nil {
		return ExitOK
	}

	var parseErr *parser.ParseError
	var fsErr *materialize.FilesystemError
	switch {
	case errors.As(err, &parseErr):
		fmt.Fprintf(stderr, "parse error: %s\n", parseErr)
		return ExitParse
	case errors.As(err, &fsErr):
		fmt.Fprintf(stderr, "filesystem error: %s\n", fsErr)
		return ExitFilesystem
	default:
		fmt.Fprintf(stderr, "error: %s\n", err)
		return ExitError
	}
}

// setup loads the layered configuration and builds the logger for a run.
// The returned cleanup must be called once the command is done.
func (g *globalOptions) setup(cmd *cobra.Command) (*config.Result, *logger.Logger, func(), error) {
	res, err := config.Load(g.configFile, cmd.Flags())
	if err != nil {
		return nil, nil, nil, err
	}

	level := logger.ParseLevel(res.LogLevel)
	switch {
	case g.verbose:
		level = log.DebugLevel
	case g.quiet:
		level = log.ErrorLevel
	}

	cleanup := func() {}
	var l *logger.Logger
	if res.LogFile != "" {
		l, cleanup, err = logger.NewFileLogger(res.LogFile, level, cmd.ErrOrStderr())
		if err != nil {
			return nil, nil, nil, fmt.Errorf("failed to open log file: %w", err)
		}
	} else {
		l = logger.NewWithLevel(cmd.ErrOrStderr(), level)
	}

	l.ConfigLoaded(res.Path, res.Found)
	return res, l, cleanup, nil
}
