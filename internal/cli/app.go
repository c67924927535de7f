package cli

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/roach88/rollcall/internal/config"
	"github.com/roach88/rollcall/internal/engine"
	"github.com/roach88/rollcall/internal/store"
)

// AtTimeLayout is the format for the --at timestamp override, interpreted
// in the local zone.
const AtTimeLayout = "2006-01-02 15:04:05"

// RequestOptions holds the identity flags shared by every engine-backed
// command: which group, who is asking, and optionally when.
type RequestOptions struct {
	Group string
	User  string
	Name  string
	At    string // timestamp override; empty means now
}

// addRequestFlags registers the shared identity flags on a command.
func addRequestFlags(cmd *cobra.Command, opts *RequestOptions) {
	cmd.Flags().StringVarP(&opts.Group, "group", "g", "", "group ID (required)")
	cmd.Flags().StringVarP(&opts.User, "user", "u", "", "user ID (required)")
	cmd.Flags().StringVarP(&opts.Name, "name", "n", "", "display name")
	cmd.Flags().StringVar(&opts.At, "at", "", `timestamp override ("2006-01-02 15:04:05", default now)`)
	_ = cmd.MarkFlagRequired("group")
	_ = cmd.MarkFlagRequired("user")
}

// buildEngine loads configuration and wires the store and engine.
func buildEngine(opts *RootOptions) (*engine.Engine, config.Config, error) {
	cfg, err := config.Load(opts.Config)
	if err != nil {
		return nil, config.Config{}, WrapExitError(ExitCommandError, "load config", err)
	}

	gateway := store.New(cfg.Data.AttendancePath(), cfg.Data.SalaryPath())
	eng, err := engine.New(gateway, engine.Options{
		Windows: cfg.WindowPolicy(),
		Penalty: cfg.Penalty,
		Admins:  cfg.Admins,
	})
	if err != nil {
		return nil, config.Config{}, WrapExitError(ExitCommandError, "initialize engine", err)
	}
	return eng, cfg, nil
}

// dispatch runs one engine action for the identified requester and maps
// engine errors to exit codes. Expected operational errors (permission,
// nothing to act on) are also rendered through the formatter so JSON
// consumers see a structured response.
func dispatch(cmd *cobra.Command, rootOpts *RootOptions, req *RequestOptions, action engine.Action) (*engine.Result, config.Config, error) {
	eng, cfg, err := buildEngine(rootOpts)
	if err != nil {
		return nil, config.Config{}, err
	}

	var ts time.Time
	if req.At != "" {
		ts, err = time.ParseInLocation(AtTimeLayout, req.At, time.Local)
		if err != nil {
			return nil, config.Config{}, WrapExitError(ExitCommandError, fmt.Sprintf("invalid --at %q", req.At), err)
		}
	}

	res, err := eng.Dispatch(engine.Request{
		Group:     req.Group,
		User:      req.User,
		Name:      req.Name,
		Timestamp: ts,
		Action:    action,
	})
	if err != nil {
		formatter := newFormatter(cmd, rootOpts)
		code, exitCode := classifyEngineError(err)
		_ = formatter.Error(code, err.Error(), nil)
		return nil, config.Config{}, NewExitError(exitCode, err.Error())
	}
	return res, cfg, nil
}

// classifyEngineError maps an engine error to a wire code and exit code.
// Permission and validation problems are command errors; an empty result
// is an operation failure; anything else (storage trouble) is "ERROR".
func classifyEngineError(err error) (string, int) {
	var ee *engine.EngineError
	if !errors.As(err, &ee) {
		return "ERROR", ExitCommandError
	}
	if ee.Code == engine.ErrCodeNoData {
		return string(ee.Code), ExitFailure
	}
	return string(ee.Code), ExitCommandError
}

// newFormatter builds the output formatter for a command invocation.
func newFormatter(cmd *cobra.Command, opts *RootOptions) *OutputFormatter {
	return &OutputFormatter{
		Format:  opts.Format,
		Writer:  cmd.OutOrStdout(),
		Verbose: opts.Verbose,
	}
}
