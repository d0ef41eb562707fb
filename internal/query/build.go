package query

import (
	"sort"
	"strings"

	"github.com/harwell-labs/snapforge/internal/catalog"
)

// Query is a composed selection over one entity type, ready for execution.
type Query struct {
	// Entity is the source entity the selection reads from. Records scanned
	// from the result set are tagged with this entity name.
	Entity string

	// SQL is the rendered statement.
	SQL string
}

// Build composes a dynamic selection query.
//
// The field list is the implicit identifier followed by the given source
// fields, deduplicated and sorted, rendered as a clean comma-joined list.
// An empty field set therefore selects only the identifier, never an empty
// (malformed) field list.
//
// The criteria fragment is used verbatim as the predicate clause. It is
// trusted here: pre-flight validation of criteria happens before a rule is
// allowed to run, not at build time. Empty criteria means no predicate.
func Build(entity string, fields []string, criteria string) Query {
	entity = catalog.Normalize(entity)

	var b strings.Builder
	b.WriteString("SELECT ")
	b.WriteString(strings.Join(fieldList(fields), ", "))
	b.WriteString(" FROM ")
	b.WriteString(entity)
	writeCriteria(&b, criteria)

	return Query{Entity: entity, SQL: b.String()}
}

// Probe composes the zero-cost criteria probe: an identifier-only projection
// limited to a single row. Executing it exercises predicate parsing without
// materially reading data, which is how criteria validity is checked ahead
// of a live run.
func Probe(entity string, criteria string) Query {
	entity = catalog.Normalize(entity)

	var b strings.Builder
	b.WriteString("SELECT ")
	b.WriteString(catalog.IDField)
	b.WriteString(" FROM ")
	b.WriteString(entity)
	writeCriteria(&b, criteria)
	b.WriteString(" LIMIT 1")

	return Query{Entity: entity, SQL: b.String()}
}

// fieldList normalizes, deduplicates, and sorts field names, prepending the
// implicit identifier. Sorted order keeps rendered statements deterministic
// across runs regardless of how the field map iterates.
func fieldList(fields []string) []string {
	seen := map[string]bool{catalog.IDField: true}
	names := make([]string, 0, len(fields)+1)
	for _, f := range fields {
		f = catalog.Normalize(f)
		if f == "" || seen[f] {
			continue
		}
		seen[f] = true
		names = append(names, f)
	}
	sort.Strings(names)
	return append([]string{catalog.IDField}, names...)
}

func writeCriteria(b *strings.Builder, criteria string) {
	criteria = strings.TrimSpace(criteria)
	if criteria == "" {
		return
	}
	b.WriteString(" WHERE ")
	b.WriteString(criteria)
}
