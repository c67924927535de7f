package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

// NewAdminsCommand creates the admins command.
func NewAdminsCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "admins",
		Short: "List the configured administrator IDs",
		Long: `List the user IDs granted admin rights by the configuration.
Admins can run the reporting and clearing commands and are exempt from
late and missing-session penalties.`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			eng, _, err := buildEngine(rootOpts)
			if err != nil {
				return err
			}

			admins := eng.Admins()
			if rootOpts.Format == "json" {
				return newFormatter(cmd, rootOpts).Success(map[string]any{"admins": admins})
			}

			w := cmd.OutOrStdout()
			if len(admins) == 0 {
				fmt.Fprintln(w, "No admins configured.")
				return nil
			}
			for _, id := range admins {
				fmt.Fprintln(w, id)
			}
			return nil
		},
	}

	return cmd
}
