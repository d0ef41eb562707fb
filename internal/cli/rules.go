package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/harwell-labs/snapforge/internal/rule"
)

// NewRulesCommand creates the rules command group.
func NewRulesCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "rules",
		Short: "Manage snapshot rule configuration",
	}

	cmd.AddCommand(newRulesLoadCommand(rootOpts))
	cmd.AddCommand(newRulesListCommand(rootOpts))

	return cmd
}

func newRulesLoadCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "load <definitions-dir>",
		Short: "Import rule definitions from CUE files",
		Long: `Import snapshot rule definitions from a directory of CUE files.

Each file is validated against the rule definition schema before anything is
written. Re-loading a rule id replaces the rule and its entire mapping set.

Example:
  snapforge rules load ./rules --db ./snapforge.db`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRulesLoad(rootOpts, args[0], cmd)
		},
	}
}

func newRulesListCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:           "list",
		Short:         "List configured snapshot rules",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRulesList(rootOpts, cmd)
		},
	}
}

// loadResult is the rules load command's output payload.
type loadResult struct {
	Loaded int      `json:"loaded"`
	Rules  []string `json:"rules"`
}

func (r loadResult) String() string {
	return fmt.Sprintf("loaded %d rule(s): %s", r.Loaded, strings.Join(r.Rules, ", "))
}

func runRulesLoad(opts *RootOptions, dir string, cmd *cobra.Command) error {
	formatter := &OutputFormatter{Format: opts.Format, Writer: cmd.OutOrStdout(), Verbose: opts.Verbose}

	defs, err := rule.LoadDir(dir)
	if err != nil {
		formatter.Error("definition", err.Error())
		return WrapExitError(ExitCommandError, "failed to load definitions", err)
	}

	e, err := openEnv(opts)
	if err != nil {
		return err
	}
	defer e.Close()

	if err := rule.Import(cmd.Context(), e.rules, defs); err != nil {
		formatter.Error("configuration", err.Error())
		return WrapExitError(ExitCommandError, "failed to import definitions", err)
	}

	result := loadResult{Loaded: len(defs)}
	for _, d := range defs {
		result.Rules = append(result.Rules, d.ID)
	}
	return formatter.Success(result)
}

// ruleListing is the rules list command's output payload.
type ruleListing struct {
	Rules []rule.Rule `json:"rules"`
}

func (l ruleListing) String() string {
	if len(l.Rules) == 0 {
		return "no rules configured"
	}
	var b strings.Builder
	for i, r := range l.Rules {
		if i > 0 {
			b.WriteByte('\n')
		}
		fmt.Fprintf(&b, "%s: %s -> %s", r.ID, r.SourceEntity, r.TargetEntity)
		if r.EntryCriteria != "" {
			fmt.Fprintf(&b, " where %s", r.EntryCriteria)
		}
		fmt.Fprintf(&b, " (%s)", r.Frequency)
	}
	return b.String()
}

func runRulesList(opts *RootOptions, cmd *cobra.Command) error {
	formatter := &OutputFormatter{Format: opts.Format, Writer: cmd.OutOrStdout(), Verbose: opts.Verbose}

	e, err := openEnv(opts)
	if err != nil {
		return err
	}
	defer e.Close()

	rules, err := e.rules.Rules(cmd.Context())
	if err != nil {
		formatter.Error("configuration", err.Error())
		return WrapExitError(ExitCommandError, "failed to list rules", err)
	}

	return formatter.Success(ruleListing{Rules: rules})
}
