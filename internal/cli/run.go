package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/harwell-labs/snapforge/internal/engine"
)

// RunOptions holds flags for the run command.
type RunOptions struct {
	*RootOptions
	DryRun bool
}

// NewRunCommand creates the run command.
func NewRunCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &RunOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "run <rule-id>",
		Short: "Execute a snapshot rule once",
		Long: `Execute a snapshot rule once, immediately.

Selects the rule's matching source records and materializes them as target
records in a single all-or-nothing batch. With --dry-run the batch is rolled
back after the full write path has run, leaving the store unchanged.

Example:
  snapforge run account-quarterly --db ./snapforge.db
  snapforge run account-quarterly --dry-run`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSnapshot(opts, args[0], cmd)
		},
	}

	cmd.Flags().BoolVar(&opts.DryRun, "dry-run", false, "execute the full write path, then roll it back")

	return cmd
}

// runResult is the run command's output payload.
type runResult struct {
	Rule    string `json:"rule"`
	Records int    `json:"records"`
	DryRun  bool   `json:"dry_run"`
}

func (r runResult) String() string {
	if r.DryRun {
		return fmt.Sprintf("rule %s: %d record(s) translated and rolled back (dry run)", r.Rule, r.Records)
	}
	return fmt.Sprintf("rule %s: %d record(s) written", r.Rule, r.Records)
}

func runSnapshot(opts *RunOptions, ruleID string, cmd *cobra.Command) error {
	formatter := &OutputFormatter{Format: opts.Format, Writer: cmd.OutOrStdout(), Verbose: opts.Verbose}

	e, err := openEnv(opts.RootOptions)
	if err != nil {
		return err
	}
	defer e.Close()

	ctx := cmd.Context()
	exec, err := engine.New(ctx, e.store, e.catalog, e.rules, ruleID, engine.WithDryRun(opts.DryRun))
	if err != nil {
		formatter.Error(errorCode(err), err.Error())
		if engine.IsConfigurationError(err) {
			return WrapExitError(ExitCommandError, "rule configuration error", err)
		}
		return WrapExitError(ExitFailure, "executor construction failed", err)
	}

	records, err := exec.Run(ctx)
	if err != nil {
		formatter.Error(errorCode(err), err.Error())
		return WrapExitError(ExitFailure, "snapshot run failed", err)
	}

	return formatter.Success(runResult{Rule: ruleID, Records: records, DryRun: opts.DryRun})
}

// errorCode renders an engine error's code for CLI output.
func errorCode(err error) string {
	switch {
	case engine.IsConfigurationError(err):
		return "configuration"
	case engine.IsSchemaError(err):
		return "schema"
	case engine.IsQueryError(err):
		return "query"
	case engine.IsPersistenceError(err):
		return "persistence"
	default:
		return "internal"
	}
}
