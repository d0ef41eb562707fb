package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/harwell-labs/snapforge/internal/engine"
)

// ValidationResult holds the pre-flight check outcomes for one rule.
type ValidationResult struct {
	Rule     string        `json:"rule"`
	Valid    bool          `json:"valid"`
	Entities bool          `json:"entities"`
	Criteria bool          `json:"criteria"`
	Fields   []FieldResult `json:"fields"`
}

// FieldResult is the check outcome for one field mapping.
type FieldResult struct {
	Source string `json:"source"`
	Target string `json:"target"`
	Valid  bool   `json:"valid"`
}

func (r ValidationResult) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "rule %s:\n", r.Rule)
	fmt.Fprintf(&b, "  entities: %s\n", checkmark(r.Entities))
	fmt.Fprintf(&b, "  criteria: %s\n", checkmark(r.Criteria))
	for _, f := range r.Fields {
		fmt.Fprintf(&b, "  mapping %s -> %s: %s\n", f.Source, f.Target, checkmark(f.Valid))
	}
	if r.Valid {
		b.WriteString("  result: valid")
	} else {
		b.WriteString("  result: INVALID")
	}
	return b.String()
}

func checkmark(ok bool) string {
	if ok {
		return "ok"
	}
	return "FAIL"
}

// NewValidateCommand creates the validate command.
func NewValidateCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "validate <rule-id>",
		Short: "Pre-flight check a snapshot rule",
		Long: `Run the pre-flight checks for a snapshot rule without executing it.

Checks that the source and target entities resolve in the schema catalog,
that every mapped field exists on its entity, and that the entry criteria
parses by issuing an identifier-only probe query. Exits non-zero if any
check fails; nothing is written either way.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runValidate(rootOpts, args[0], cmd)
		},
	}

	return cmd
}

func runValidate(opts *RootOptions, ruleID string, cmd *cobra.Command) error {
	formatter := &OutputFormatter{Format: opts.Format, Writer: cmd.OutOrStdout(), Verbose: opts.Verbose}

	e, err := openEnv(opts)
	if err != nil {
		return err
	}
	defer e.Close()

	ctx := cmd.Context()
	r, err := e.rules.Rule(ctx, ruleID)
	if err != nil {
		formatter.Error("configuration", err.Error())
		return WrapExitError(ExitCommandError, "failed to load rule", err)
	}
	mappings, err := e.rules.Mappings(ctx, ruleID)
	if err != nil {
		formatter.Error("configuration", err.Error())
		return WrapExitError(ExitCommandError, "failed to load mappings", err)
	}

	v := &engine.Validator{Catalog: e.catalog, Store: e.store}

	result := ValidationResult{
		Rule:     ruleID,
		Entities: v.EntitiesValid(r),
		Criteria: v.CriteriaValid(ctx, r),
	}
	result.Valid = result.Entities && result.Criteria
	for _, m := range mappings {
		ok := v.FieldsValid(r, m)
		result.Valid = result.Valid && ok
		result.Fields = append(result.Fields, FieldResult{
			Source: m.SourceField,
			Target: m.TargetField,
			Valid:  ok,
		})
	}

	if err := formatter.Success(result); err != nil {
		return err
	}
	if !result.Valid {
		return NewExitError(ExitFailure, "rule failed validation")
	}
	return nil
}
