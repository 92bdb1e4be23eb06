package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// defaultConfigPath is used when neither --config nor MIDIPLEXER_CONFIG is set.
const defaultConfigPath = "configs/config.yaml"

// configFlag tracks where the configuration path came from. A path the user
// named must exist; the default may be absent.
type configFlag struct {
	path     string
	explicit bool
}

func newRootCmd() *cobra.Command {
	cf := &configFlag{}

	root := &cobra.Command{
		Use:           "midiplexer",
		Short:         "Route MIDI controller signals to client devices",
		Long:          `midiplexer listens to MIDI controllers and drives tracks on client devices in trigger or scene mode.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, _ []string) {
			cf.resolve(cmd)
		},
		RunE: func(cmd *cobra.Command, _ []string) error {
			return serve(cmd.Context(), cf)
		},
	}
	root.PersistentFlags().StringVarP(&cf.path, "config", "c", defaultConfigPath, "path to the YAML configuration file")

	root.AddCommand(newServeCmd(cf), newValidateCmd(cf), newVersionCmd())
	return root
}

// resolve applies MIDIPLEXER_CONFIG when the flag was not given.
func (cf *configFlag) resolve(cmd *cobra.Command) {
	if cmd.Flags().Changed("config") {
		cf.explicit = true
		return
	}
	if path := os.Getenv("MIDIPLEXER_CONFIG"); path != "" {
		cf.path = path
		cf.explicit = true
	}
}

func newServeCmd(cf *configFlag) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the router (default)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return serve(cmd.Context(), cf)
		},
	}
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "midiplexer %s (commit %s, built %s)\n", version, commit, date)
		},
	}
}
