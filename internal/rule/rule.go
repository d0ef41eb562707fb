package rule

import "sort"

// Rule defines one snapshot pipeline: which records of the source entity to
// select (entry criteria), which entity type to materialize them as, and how
// often the scheduler should run it.
//
// Rules are operator configuration. The engine reads them by id and never
// mutates them.
type Rule struct {
	ID            string
	SourceEntity  string
	TargetEntity  string
	EntryCriteria string // predicate fragment, no leading WHERE
	Frequency     string // schedule descriptor, consumed by the scheduler only
}

// Mapping is one source-field to target-field pairing belonging to a rule.
type Mapping struct {
	RuleID      string
	SourceField string
	TargetField string
}

// FieldMap maps source field names to target field names. It is derived from
// a rule's mappings at resolution time; the key set drives the projected
// query's field list.
type FieldMap map[string]string

// BuildFieldMap folds mappings into a FieldMap in order. A duplicate source
// field overrides the earlier pairing: last wins.
func BuildFieldMap(mappings []Mapping) FieldMap {
	fm := make(FieldMap, len(mappings))
	for _, m := range mappings {
		fm[m.SourceField] = m.TargetField
	}
	return fm
}

// SourceFields returns the map's key set in sorted order.
func (fm FieldMap) SourceFields() []string {
	fields := make([]string, 0, len(fm))
	for f := range fm {
		fields = append(fields, f)
	}
	sort.Strings(fields)
	return fields
}

// Resolved is the executable form of a snapshot rule: the rule itself plus
// its folded field map.
type Resolved struct {
	Rule   Rule
	Fields FieldMap
}
