package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/harwell-labs/snapforge/internal/catalog"
)

// NewEntitiesCommand creates the entities command group.
func NewEntitiesCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "entities",
		Short: "Manage entity types in the schema catalog",
	}

	cmd.AddCommand(newEntitiesDefineCommand(rootOpts))
	cmd.AddCommand(newEntitiesListCommand(rootOpts))

	return cmd
}

// EntitiesDefineOptions holds flags for the entities define command.
type EntitiesDefineOptions struct {
	*RootOptions
	Fields []string
}

func newEntitiesDefineCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &EntitiesDefineOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "define <entity-name>",
		Short: "Define a new entity type",
		Long: `Define a new entity type in the schema catalog.

Fields are declared as name:type with an optional :required suffix. Types
are text, integer, real, and blob. Every entity gets an implicit id field.
Snapshot targets must be defined before a rule can write to them; the engine
never creates or migrates entity types on its own.

Example:
  snapforge entities define Account \
    --field Name:text:required --field Industry:text --field AnnualRevenue:real`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runEntitiesDefine(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringArrayVar(&opts.Fields, "field", nil, "field as name:type[:required] (repeatable)")

	return cmd
}

func newEntitiesListCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:           "list",
		Short:         "List entity types and their fields",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runEntitiesList(rootOpts, cmd)
		},
	}
}

// parseFieldSpec parses one --field value of the form name:type[:required].
func parseFieldSpec(spec string) (catalog.Field, error) {
	parts := strings.Split(spec, ":")
	if len(parts) < 2 || len(parts) > 3 || parts[0] == "" {
		return catalog.Field{}, fmt.Errorf("field %q: want name:type[:required]", spec)
	}
	f := catalog.Field{Name: parts[0], Type: catalog.FieldType(strings.ToLower(parts[1]))}
	if len(parts) == 3 {
		if parts[2] != "required" {
			return catalog.Field{}, fmt.Errorf("field %q: unknown modifier %q", spec, parts[2])
		}
		f.Required = true
	}
	return f, nil
}

// defineResult is the entities define command's output payload.
type defineResult struct {
	Entity string `json:"entity"`
	Fields int    `json:"fields"`
}

func (r defineResult) String() string {
	return fmt.Sprintf("entity %s defined with %d field(s)", r.Entity, r.Fields)
}

func runEntitiesDefine(opts *EntitiesDefineOptions, name string, cmd *cobra.Command) error {
	formatter := &OutputFormatter{Format: opts.Format, Writer: cmd.OutOrStdout(), Verbose: opts.Verbose}

	fields := make([]catalog.Field, 0, len(opts.Fields))
	for _, spec := range opts.Fields {
		f, err := parseFieldSpec(spec)
		if err != nil {
			formatter.Error("schema", err.Error())
			return WrapExitError(ExitCommandError, "invalid field spec", err)
		}
		fields = append(fields, f)
	}

	e, err := openEnv(opts.RootOptions)
	if err != nil {
		return err
	}
	defer e.Close()

	if err := e.catalog.Define(cmd.Context(), name, fields); err != nil {
		formatter.Error("schema", err.Error())
		return WrapExitError(ExitCommandError, "failed to define entity", err)
	}

	return formatter.Success(defineResult{Entity: name, Fields: len(fields)})
}

// entityListing is the entities list command's output payload.
type entityListing struct {
	Entities []entityInfo `json:"entities"`
}

type entityInfo struct {
	Name   string          `json:"name"`
	Fields []catalog.Field `json:"fields"`
}

func (l entityListing) String() string {
	if len(l.Entities) == 0 {
		return "no entity types defined"
	}
	var b strings.Builder
	for i, e := range l.Entities {
		if i > 0 {
			b.WriteByte('\n')
		}
		b.WriteString(e.Name)
		for _, f := range e.Fields {
			fmt.Fprintf(&b, "\n  %s %s", f.Name, f.Type)
			if f.Required {
				b.WriteString(" required")
			}
		}
	}
	return b.String()
}

func runEntitiesList(opts *RootOptions, cmd *cobra.Command) error {
	formatter := &OutputFormatter{Format: opts.Format, Writer: cmd.OutOrStdout(), Verbose: opts.Verbose}

	e, err := openEnv(opts)
	if err != nil {
		return err
	}
	defer e.Close()

	names, err := e.catalog.List(cmd.Context())
	if err != nil {
		formatter.Error("schema", err.Error())
		return WrapExitError(ExitCommandError, "failed to list entities", err)
	}

	listing := entityListing{}
	for _, name := range names {
		et, ok := e.catalog.Resolve(name)
		if !ok {
			continue
		}
		listing.Entities = append(listing.Entities, entityInfo{Name: et.Name(), Fields: et.Fields()})
	}

	return formatter.Success(listing)
}
