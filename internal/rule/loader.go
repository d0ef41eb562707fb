package rule

import (
	"context"
	_ "embed"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
)

//go:embed schema.cue
var schemaCUE string

// Definition is one rule as declared in an operator-authored CUE file.
// Field names mirror the CUE schema.
type Definition struct {
	ID            string       `json:"id"`
	SourceEntity  string       `json:"source_entity"`
	TargetEntity  string       `json:"target_entity"`
	EntryCriteria string       `json:"entry_criteria"`
	Frequency     string       `json:"frequency"`
	Mappings      []MappingDef `json:"mappings"`
}

// MappingDef is one source→target pairing in a definition file.
type MappingDef struct {
	Source string `json:"source"`
	Target string `json:"target"`
}

// Rule converts a definition into its stored form.
func (d Definition) Rule() (Rule, []Mapping) {
	r := Rule{
		ID:            d.ID,
		SourceEntity:  d.SourceEntity,
		TargetEntity:  d.TargetEntity,
		EntryCriteria: d.EntryCriteria,
		Frequency:     d.Frequency,
	}
	mappings := make([]Mapping, 0, len(d.Mappings))
	for _, m := range d.Mappings {
		mappings = append(mappings, Mapping{
			RuleID:      d.ID,
			SourceField: m.Source,
			TargetField: m.Target,
		})
	}
	return r, mappings
}

// LoadFile parses one CUE definition file, validates it against the embedded
// schema, and returns its rule definitions with defaults applied.
func LoadFile(path string) ([]Definition, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", path, err)
	}

	cctx := cuecontext.New()

	schema := cctx.CompileString(schemaCUE, cue.Filename("schema.cue"))
	if err := schema.Err(); err != nil {
		return nil, fmt.Errorf("load %s: compile schema: %w", path, err)
	}

	v := cctx.CompileBytes(data, cue.Filename(path))
	if err := v.Err(); err != nil {
		return nil, fmt.Errorf("load %s: %w", path, err)
	}

	unified := schema.Unify(v)
	if err := unified.Validate(cue.Concrete(true)); err != nil {
		return nil, fmt.Errorf("load %s: %w", path, err)
	}

	rulesVal := unified.LookupPath(cue.ParsePath("rules"))
	if !rulesVal.Exists() {
		return nil, fmt.Errorf("load %s: no rules declared", path)
	}

	var defs []Definition
	if err := rulesVal.Decode(&defs); err != nil {
		return nil, fmt.Errorf("load %s: decode rules: %w", path, err)
	}
	return defs, nil
}

// LoadDir loads every .cue file in a directory (sorted by name) and returns
// the concatenated definitions.
func LoadDir(dir string) ([]Definition, error) {
	info, err := os.Stat(dir)
	if err != nil {
		return nil, fmt.Errorf("load definitions: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("load definitions: %s is not a directory", dir)
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("load definitions: %w", err)
	}

	var files []string
	for _, e := range entries {
		if !e.IsDir() && strings.HasSuffix(e.Name(), ".cue") {
			files = append(files, filepath.Join(dir, e.Name()))
		}
	}
	if len(files) == 0 {
		return nil, fmt.Errorf("load definitions: no .cue files in %s", dir)
	}
	sort.Strings(files)

	var defs []Definition
	for _, f := range files {
		fileDefs, err := LoadFile(f)
		if err != nil {
			return nil, err
		}
		defs = append(defs, fileDefs...)
	}
	return defs, nil
}

// Import saves every definition into the configuration store. A definition
// for an existing rule id replaces the rule and its whole mapping set.
func Import(ctx context.Context, s *Store, defs []Definition) error {
	for _, d := range defs {
		r, mappings := d.Rule()
		if err := s.Save(ctx, r, mappings); err != nil {
			return fmt.Errorf("import rule %s: %w", d.ID, err)
		}
	}
	return nil
}
