package cmd

import (
	"fmt"
	"strings"
	"text/tabwriter"

	"conflux/pkg/api"
	"conflux/pkg/handler/dummy"

	"github.com/spf13/cobra"
)

// NewHandlersCommand returns a new instance of a conflux command
func NewHandlersCommand() *cobra.Command {
	command := &cobra.Command{
		Use:   "handlers",
		Short: "list the handlers available to stages",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			r := dummy.NewRegistry()
			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 3, ' ', 0)
			fmt.Fprintln(tw, "TYPE\tKEY\tHANDLERS")
			for _, t := range []api.StageType{api.StageExtract, api.StageTransform, api.StageLoad, api.StageValidate, api.StageEnrich, api.StageCustom} {
				fmt.Fprintf(tw, "%s\t%s\t%s\n", t, t.HandlerKey(), strings.Join(r.Names(t), ", "))
			}
			tw.Flush()
		},
	}
	return command
}
