package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/rollcall/internal/engine"
	"github.com/roach88/rollcall/internal/ledger"
)

// NewMarkCommand creates the mark command.
func NewMarkCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &RequestOptions{}

	cmd := &cobra.Command{
		Use:   "mark",
		Short: "Record an attendance check-in",
		Long: `Record a check-in for the current session (morning before 13:00,
evening after). A check-in past the session's on-time window deducts the
configured penalty, unless the user is a configured admin. Marking twice
in the same session is a no-op.

Examples:
  rollcall mark -g office -u u42 -n "Umar"
  rollcall mark -g office -u u42 --at "2025-03-10 10:05:00"`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runMark(cmd, rootOpts, opts)
		},
	}

	addRequestFlags(cmd, opts)
	return cmd
}

func runMark(cmd *cobra.Command, rootOpts *RootOptions, opts *RequestOptions) error {
	res, cfg, err := dispatch(cmd, rootOpts, opts, engine.ActionMark)
	if err != nil {
		return err
	}

	formatter := newFormatter(cmd, rootOpts)
	mark := res.Mark

	if rootOpts.Format == "json" {
		return formatter.Success(map[string]any{
			"status":  string(mark.Status),
			"session": string(mark.Session),
			"late":    mark.Late,
			"time":    mark.Time,
			"penalty": mark.Penalty,
		})
	}

	w := cmd.OutOrStdout()
	switch {
	case mark.Status == ledger.MarkAlreadyMarked:
		fmt.Fprintf(w, "Already marked for the %s session today.\n", mark.Session)
	case mark.Penalty > 0:
		fmt.Fprintf(w, "Marked late for the %s session at %s. Deducted %d %s.\n",
			mark.Session, mark.Time, mark.Penalty, cfg.Currency)
	case mark.Late:
		fmt.Fprintf(w, "Marked late for the %s session at %s.\n", mark.Session, mark.Time)
	default:
		fmt.Fprintf(w, "Marked on time for the %s session at %s.\n", mark.Session, mark.Time)
	}
	return nil
}
