package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

// NewValidateCommand returns a new instance of a conflux command
func NewValidateCommand() *cobra.Command {
	command := &cobra.Command{
		Use:   "validate FILE",
		Short: "validate a pipeline file without running it",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			spec, err := readPipeline(args[0])
			if err != nil {
				return err
			}
			if err := spec.Validate(); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "pipeline %s is valid (%d stages)\n", spec.ID, len(spec.Stages))
			return nil
		},
	}
	return command
}
