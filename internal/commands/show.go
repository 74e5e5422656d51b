package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/gerunddev/mdirtree/internal/render"
)

func newShowCommand(g *globalOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "show [SOURCE]",
		Short: "Print the parsed structure as a tree",
		Long: `Parse SOURCE and print it in canonical tree(1) form without touching
the filesystem. Useful for checking how a Markdown outline or hand-indented
listing is understood.`,
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
			fmt.Fprint(cmd.OutOrStdout(), render.ASCII(t))
			return nil
		},
	}

	cmd.Flags().String("format", "auto", "source format: auto, ascii or markdown")
	return cmd
}
