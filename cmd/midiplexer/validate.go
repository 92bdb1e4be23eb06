package main

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/nerrad567/midiplexer/internal/infrastructure/config"
	"github.com/nerrad567/midiplexer/internal/routing"
)

func newValidateCmd(cf *configFlag) *cobra.Command {
	return &cobra.Command{
		Use:   "validate [routing-file]",
		Short: "Check a routing document",
		Long: `Parses a routing document and reports structural errors and dangling table
entries. Without an argument the routing file named in the configuration is checked.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := ""
			if len(args) == 1 {
				path = args[0]
			} else {
				cfg, err := config.Load(cf.path, !cf.explicit)
				if err != nil {
					return fmt.Errorf("loading config: %w", err)
				}
				path = cfg.Plexer.RoutingFile
			}
			return validateRouting(cmd.OutOrStdout(), path)
		},
	}
}

// validateRouting checks the document at path. Warnings are printed but do
// not fail validation; the router tolerates dangling references.
func validateRouting(out io.Writer, path string) error {
	if _, err := os.Stat(path); err != nil {
		return fmt.Errorf("routing file: %w", err)
	}
	doc, err := routing.Load(path)
	if err != nil {
		return err
	}
	if err := doc.Validate(); err != nil {
		return err
	}

	tracks := 0
	for _, c := range doc.Clients {
		tracks += len(c.Tracks)
	}
	for _, w := range doc.Warnings() {
		fmt.Fprintf(out, "warning: %s\n", w)
	}
	fmt.Fprintf(out, "%s: %d controllers, %d clients, %d tracks, %d scenes\n",
		path, len(doc.Controllers), len(doc.Clients), tracks, len(doc.Scenes))
	return nil
}
