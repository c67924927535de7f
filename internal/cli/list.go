package cli

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/roach88/rollcall/internal/engine"
	"github.com/roach88/rollcall/internal/ledger"
)

// NewCountCommand creates the count command.
func NewCountCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &RequestOptions{}

	cmd := &cobra.Command{
		Use:   "count",
		Short: "Show the number of check-ins for a date",
		Long: `Show how many check-ins a group recorded on a date, both sessions
combined. The date comes from --at, defaulting to today.

Example:
  rollcall count -g office -u u42 --at "2025-03-10 18:00:00"`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			res, _, err := dispatch(cmd, rootOpts, opts, engine.ActionCount)
			if err != nil {
				return err
			}

			if rootOpts.Format == "json" {
				return newFormatter(cmd, rootOpts).Success(map[string]any{
					"date":  res.Count.Date,
					"total": res.Count.Total,
				})
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s: %d check-ins\n", res.Count.Date, res.Count.Total)
			return nil
		},
	}

	addRequestFlags(cmd, opts)
	return cmd
}

// NewListCommand creates the list command.
func NewListCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &RequestOptions{}

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List a date's check-ins per session",
		Long: `List a group's check-ins for a date, split by session and in the
order they were recorded. The date comes from --at, defaulting to today.

Example:
  rollcall list -g office -u u42`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			res, _, err := dispatch(cmd, rootOpts, opts, engine.ActionList)
			if err != nil {
				return err
			}

			if rootOpts.Format == "json" {
				return newFormatter(cmd, rootOpts).Success(map[string]any{
					"date":    res.List.Date,
					"morning": entryRows(res.List.Morning),
					"evening": entryRows(res.List.Evening),
				})
			}

			w := cmd.OutOrStdout()
			fmt.Fprintf(w, "Attendance for %s\n", res.List.Date)
			printSession(w, "Morning", res.List.Morning)
			printSession(w, "Evening", res.List.Evening)
			return nil
		},
	}

	addRequestFlags(cmd, opts)
	return cmd
}

func printSession(w io.Writer, label string, entries []ledger.AttendanceEntry) {
	fmt.Fprintf(w, "%s (%d):\n", label, len(entries))
	if len(entries) == 0 {
		fmt.Fprintln(w, "  (none)")
		return
	}
	for _, e := range entries {
		status := "on time"
		if e.Late {
			status = "late"
		}
		fmt.Fprintf(w, "  %s  %s  %s  %s\n", e.Time, e.Name, e.UserID, status)
	}
}

func entryRows(entries []ledger.AttendanceEntry) []map[string]any {
	rows := make([]map[string]any, len(entries))
	for i, e := range entries {
		rows[i] = map[string]any{
			"user_id": e.UserID,
			"name":    e.Name,
			"time":    e.Time,
			"late":    e.Late,
		}
	}
	return rows
}
