package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/rollcall/internal/engine"
)

// NewSweepCommand creates the sweep command.
func NewSweepCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &RequestOptions{}

	cmd := &cobra.Command{
		Use:   "sweep",
		Short: "Penalize members who missed the current session (admin)",
		Long: `Deduct the configured penalty from every known member who has not
checked in for the current session today. Admins are never penalized.
Requires an admin user.

Each run deducts again: sweeping the same session twice doubles the
penalty for anyone still unmarked. Use clear-missing to undo a day's
missing-session deductions.

Example:
  rollcall sweep -g office -u boss`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			res, cfg, err := dispatch(cmd, rootOpts, opts, engine.ActionSweepMissing)
			if err != nil {
				return err
			}

			sweep := res.Sweep
			if rootOpts.Format == "json" {
				penalized := make([]map[string]any, len(sweep.Penalized))
				for i, m := range sweep.Penalized {
					penalized[i] = map[string]any{"user_id": m.ID, "name": m.Name}
				}
				return newFormatter(cmd, rootOpts).Success(map[string]any{
					"date":      sweep.Date,
					"session":   string(sweep.Session),
					"penalty":   sweep.Penalty,
					"penalized": penalized,
				})
			}

			w := cmd.OutOrStdout()
			if len(sweep.Penalized) == 0 {
				fmt.Fprintf(w, "Everyone checked in for the %s session on %s.\n", sweep.Session, sweep.Date)
				return nil
			}
			names := make([]string, len(sweep.Penalized))
			for i, m := range sweep.Penalized {
				names[i] = fmt.Sprintf("%s (%s)", m.Name, m.ID)
			}
			fmt.Fprintf(w, "Deducted %d %s from %d members missing the %s session on %s:\n  %s\n",
				sweep.Penalty, cfg.Currency, len(sweep.Penalized), sweep.Session, sweep.Date,
				strings.Join(names, "\n  "))
			return nil
		},
	}

	addRequestFlags(cmd, opts)
	return cmd
}

// NewClearMissingCommand creates the clear-missing command.
func NewClearMissingCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &RequestOptions{}

	cmd := &cobra.Command{
		Use:   "clear-missing",
		Short: "Undo today's missing-session deductions (admin)",
		Long: `Remove every missing-session deduction recorded today and restore
the amounts to the affected members. Late-arrival deductions are left
untouched. Requires an admin user.

Example:
  rollcall clear-missing -g office -u boss`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			res, cfg, err := dispatch(cmd, rootOpts, opts, engine.ActionClearMissing)
			if err != nil {
				return err
			}

			ret := res.Retraction
			if rootOpts.Format == "json" {
				restored := make([]map[string]any, len(ret.Restored))
				for i, r := range ret.Restored {
					restored[i] = map[string]any{
						"user_id": r.UserID,
						"name":    r.Name,
						"amount":  r.Amount,
					}
				}
				return newFormatter(cmd, rootOpts).Success(map[string]any{
					"date":     ret.Date,
					"restored": restored,
					"total":    ret.Total,
				})
			}

			w := cmd.OutOrStdout()
			fmt.Fprintf(w, "Restored %d %s across %d members for %s:\n",
				ret.Total, cfg.Currency, len(ret.Restored), ret.Date)
			for _, r := range ret.Restored {
				fmt.Fprintf(w, "  %s (%s): +%d %s\n", r.Name, r.UserID, r.Amount, cfg.Currency)
			}
			return nil
		},
	}

	addRequestFlags(cmd, opts)
	return cmd
}

// NewClearAttendanceCommand creates the clear-attendance command.
func NewClearAttendanceCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &RequestOptions{}

	cmd := &cobra.Command{
		Use:   "clear-attendance",
		Short: "Erase a group's attendance history (admin)",
		Long: `Delete every attendance record for a group, all dates and both
sessions. Salary records are untouched. Requires an admin user.

Example:
  rollcall clear-attendance -g office -u boss`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			_, _, err := dispatch(cmd, rootOpts, opts, engine.ActionClearAttendance)
			if err != nil {
				return err
			}

			if rootOpts.Format == "json" {
				return newFormatter(cmd, rootOpts).Success(map[string]any{"cleared": true})
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Cleared attendance records for %s.\n", opts.Group)
			return nil
		},
	}

	addRequestFlags(cmd, opts)
	return cmd
}
