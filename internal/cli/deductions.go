package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/rollcall/internal/engine"
)

// NewDeductionsCommand creates the deductions command.
func NewDeductionsCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &RequestOptions{}

	cmd := &cobra.Command{
		Use:   "deductions",
		Short: "Show per-user deduction totals (admin)",
		Long: `Show the deduction report for a group: each member's accumulated
total and the group-wide sum. Requires an admin user.

Example:
  rollcall deductions -g office -u boss`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			res, cfg, err := dispatch(cmd, rootOpts, opts, engine.ActionShowDeductions)
			if err != nil {
				return err
			}

			if rootOpts.Format == "json" {
				users := make([]map[string]any, len(res.Deductions.Users))
				for i, u := range res.Deductions.Users {
					users[i] = map[string]any{
						"user_id": u.UserID,
						"name":    u.Name,
						"amount":  u.Amount,
					}
				}
				return newFormatter(cmd, rootOpts).Success(map[string]any{
					"users":    users,
					"total":    res.Deductions.Total,
					"currency": cfg.Currency,
				})
			}

			w := cmd.OutOrStdout()
			fmt.Fprintf(w, "Salary deductions for %s\n", opts.Group)
			for _, u := range res.Deductions.Users {
				fmt.Fprintf(w, "  %s (%s): %d %s\n", u.Name, u.UserID, u.Amount, cfg.Currency)
			}
			fmt.Fprintf(w, "Total: %d %s\n", res.Deductions.Total, cfg.Currency)
			return nil
		},
	}

	addRequestFlags(cmd, opts)
	return cmd
}

// NewClearDeductionsCommand creates the clear-deductions command.
func NewClearDeductionsCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &RequestOptions{}

	cmd := &cobra.Command{
		Use:   "clear-deductions",
		Short: "Reset every member's deductions to zero (admin)",
		Long: `Reset all deduction totals and histories for a group. Requires an
admin user.

Example:
  rollcall clear-deductions -g office -u boss`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			res, _, err := dispatch(cmd, rootOpts, opts, engine.ActionClearDeductions)
			if err != nil {
				return err
			}

			if rootOpts.Format == "json" {
				return newFormatter(cmd, rootOpts).Success(map[string]any{
					"records": res.Cleared.Records,
				})
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Cleared deductions for %d members.\n", res.Cleared.Records)
			return nil
		},
	}

	addRequestFlags(cmd, opts)
	return cmd
}
