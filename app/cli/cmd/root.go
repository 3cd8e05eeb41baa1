package cmd

import (
	"conflux/pkg/util/config"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"
)

type rootOpts struct {
	configFile string // --config
}

// NewRootCommand returns a new instance of a conflux command
func NewRootCommand() *cobra.Command {
	var opts rootOpts
	rootCmd := &cobra.Command{
		Use:          "conflux",
		Short:        "conflux runs data integration pipelines",
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if opts.configFile == "" {
				return nil
			}
			config.SetConfigFile(opts.configFile)
			return errors.Wrap(config.ReadInConfig(), "cannot read configuration")
		},
	}
	rootCmd.PersistentFlags().StringVarP(&opts.configFile, "config", "c", "", "configuration file (JSON or YAML)")

	rootCmd.AddCommand(NewRunCommand())
	rootCmd.AddCommand(NewValidateCommand())
	rootCmd.AddCommand(NewHandlersCommand())
	return rootCmd
}
