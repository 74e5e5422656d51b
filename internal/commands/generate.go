package commands

import (
	"fmt"
	"io"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"

	"github.com/gerunddev/mdirtree/internal/config"
	"github.com/gerunddev/mdirtree/internal/logger"
	"github.com/gerunddev/mdirtree/internal/materialize"
	"github.com/gerunddev/mdirtree/internal/styles"
)

func newGenerateCommand(g *globalOptions) *cobra.Command {
	var out string

	cmd := &cobra.Command{
		Use:     "generate [SOURCE]",
		Aliases: []string{"gen", "apply"},
		Short:   "Create the described directories and files",
		Long: `Parse SOURCE and create the structure it describes under the output
directory. SOURCE may be a file or "-" for standard input; standard input is
also used when SOURCE is omitted.

Existing paths are never an error unless --on-conflict=fail is given. A
directory that already exists is reused, a file with identical content is
left alone, and anything else is reported as a conflict.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			res, l, cleanup, err := g.setup(cmd)
			if err != nil {
				return err
			}
			defer cleanup()

			t, err := loadTree(cmd.InOrStdin(), args, res.Config, l)
			if err != nil {
				return err
			}

			opts, err := materializeOptions(res.Config, l)
			if err != nil {
				return err
			}

			report, err := materialize.Materialize(t, out, opts)
			if !g.quiet {
				printReport(cmd.OutOrStdout(), report)
			}
			return err
		},
	}

	flags := cmd.Flags()
	flags.StringVarP(&out, "out", "o", ".", "directory to create the structure in")
	flags.String("format", "auto", "source format: auto, ascii or markdown")
	flags.String("on-conflict", "skip", "what to do with existing paths: skip, overwrite or fail")
	flags.Bool("dry-run", false, "report what would happen without touching the filesystem")
	flags.Bool("parents", true, "create missing parents of the output directory")
	flags.Bool("scaffold", false, "fill files without explicit content from built-in templates")
	flags.Bool("diff", false, "show a unified diff for files whose content differs")
	flags.String("dir-perm", "0755", "permissions for created directories (octal)")
	flags.String("file-perm", "0644", "permissions for created files (octal)")

	return cmd
}

// materializeOptions translates the effective configuration
func materializeOptions(cfg *config.Config, l *logger.Logger) (materialize.Options, error) {
	policy, err := materialize.ParsePolicy(cfg.OnConflict)
	if err != nil {
		return materialize.Options{}, err
	}

	opts := materialize.DefaultOptions()
	opts.OnConflict = policy
	opts.DryRun = cfg.DryRun
	opts.NoParents = !cfg.CreateMissingParents
	opts.Scaffold = cfg.Scaffold
	opts.Diff = cfg.Diff
	opts.DirPerm = cfg.DirPerm
	opts.FilePerm = cfg.FilePerm
	opts.Fs = afero.NewOsFs()
	opts.Logger = l
	return opts, nil
}

// printReport writes one row per path followed by the summary line
func printReport(w io.Writer, r *materialize.Report) {
	if r == nil {
		return
	}
	for _, e := range r.Entries {
		fmt.Fprintln(w, styles.Row(string(e.Outcome), e.Kind.String(), e.Path, e.Reason))
		if e.Diff != "" {
			fmt.Fprintln(w, styles.Indent(e.Diff))
		}
	}
	fmt.Fprintln(w, styles.SummaryStyle.Render(r.String()))
}
