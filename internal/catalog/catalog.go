package catalog

import (
	"sort"
	"strings"

	"golang.org/x/text/unicode/norm"
)

// IDField is the implicit identifier column present on every entity type.
// Records without an explicit id are assigned one at persistence time.
const IDField = "id"

// FieldType enumerates the storage types an entity field can carry.
type FieldType string

const (
	FieldText    FieldType = "text"
	FieldInteger FieldType = "integer"
	FieldReal    FieldType = "real"
	FieldBlob    FieldType = "blob"
)

// Field describes one column of an entity type.
type Field struct {
	Name     string
	Type     FieldType
	Required bool
}

// EntityType is a handle to one runtime-discovered entity type.
//
// Handles are snapshots of the schema at resolution time. A handle does not
// observe later schema changes; callers resolve fresh handles per run.
type EntityType interface {
	// Name returns the canonical entity name.
	Name() string

	// HasField reports whether the entity carries the named field.
	// The implicit identifier field always exists.
	HasField(name string) bool

	// Fields returns the entity's fields in name order, excluding the
	// implicit identifier.
	Fields() []Field

	// NewRecord allocates an empty record of this entity type.
	NewRecord() *Record
}

// Catalog resolves entity types by name at run time.
//
// The engine never hardcodes entity or field names; everything it touches is
// discovered through a Catalog. Two implementations exist: SQLite (backed by
// the real store's schema) and Memory (a fake for tests).
type Catalog interface {
	Resolve(name string) (EntityType, bool)
}

// Normalize canonicalizes an entity or field name for lookup.
// Operator input arrives from CUE files, CLI flags, and config rows; NFC
// normalization keeps visually identical names from resolving differently.
func Normalize(name string) string {
	return norm.NFC.String(strings.TrimSpace(name))
}

// Record is a dynamically typed record of some entity type.
//
// Field access is by name; values are opaque. The engine copies values
// between records without coercion, so a type mismatch is only detected by
// the storage layer at commit time.
type Record struct {
	entity string
	values map[string]any
}

// NewRecord creates an empty record of the named entity type.
func NewRecord(entity string) *Record {
	return &Record{
		entity: Normalize(entity),
		values: make(map[string]any),
	}
}

// Entity returns the record's entity type name.
func (r *Record) Entity() string {
	return r.entity
}

// Get returns the value of the named field, or nil if unset.
func (r *Record) Get(field string) any {
	return r.values[Normalize(field)]
}

// Set assigns the value of the named field. Setting nil is allowed and is
// persisted as NULL.
func (r *Record) Set(field string, value any) {
	r.values[Normalize(field)] = value
}

// Has reports whether the named field has been set on this record.
func (r *Record) Has(field string) bool {
	_, ok := r.values[Normalize(field)]
	return ok
}

// FieldNames returns the names of all set fields in sorted order.
// Sorted order keeps generated statements and test output deterministic.
func (r *Record) FieldNames() []string {
	names := make([]string, 0, len(r.values))
	for name := range r.values {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
