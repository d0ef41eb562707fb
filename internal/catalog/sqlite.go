package catalog

import (
	"context"
	"database/sql"
	"fmt"
	"sort"
	"strings"
)

// reservedTables are store-internal tables that never resolve as entity types.
var reservedTables = map[string]bool{
	"snapshot_rules": true,
	"field_mappings": true,
}

// SQLite is a Catalog backed by the store's own schema. Entity types are
// ordinary tables; fields are their columns, read through PRAGMA table_info.
type SQLite struct {
	db *sql.DB
}

// NewSQLite creates a catalog over the given database handle.
func NewSQLite(db *sql.DB) *SQLite {
	return &SQLite{db: db}
}

// Resolve looks up an entity type by name. Returns false for unknown names,
// store-internal tables, and sqlite system tables.
func (c *SQLite) Resolve(name string) (EntityType, bool) {
	name = Normalize(name)
	if name == "" || reservedTables[name] || strings.HasPrefix(name, "sqlite_") {
		return nil, false
	}

	var found string
	err := c.db.QueryRow(
		`SELECT name FROM sqlite_master WHERE type = 'table' AND name = ?`, name,
	).Scan(&found)
	if err != nil {
		return nil, false
	}

	fields, err := c.tableFields(found)
	if err != nil {
		return nil, false
	}

	return &sqliteEntity{name: found, fields: fields}, true
}

// Define creates a new entity table with the given fields. Every entity gets
// an implicit text identifier as primary key. Tables are created STRICT so
// that a value of the wrong type is rejected at insert time rather than
// silently stored.
func (c *SQLite) Define(ctx context.Context, name string, fields []Field) error {
	name = Normalize(name)
	if name == "" {
		return fmt.Errorf("define entity: empty name")
	}
	if reservedTables[name] || strings.HasPrefix(name, "sqlite_") {
		return fmt.Errorf("define entity: name %q is reserved", name)
	}

	cols := []string{IDField + " TEXT PRIMARY KEY"}
	for _, f := range fields {
		fname := Normalize(f.Name)
		if fname == "" || fname == IDField {
			return fmt.Errorf("define entity %s: invalid field name %q", name, f.Name)
		}
		sqlType, err := sqlTypeFor(f.Type)
		if err != nil {
			return fmt.Errorf("define entity %s: field %s: %w", name, fname, err)
		}
		col := fname + " " + sqlType
		if f.Required {
			col += " NOT NULL"
		}
		cols = append(cols, col)
	}

	stmt := fmt.Sprintf("CREATE TABLE %s (%s) STRICT", name, strings.Join(cols, ", "))
	if _, err := c.db.ExecContext(ctx, stmt); err != nil {
		return fmt.Errorf("define entity %s: %w", name, err)
	}
	return nil
}

// List returns the names of all defined entity types in sorted order.
func (c *SQLite) List(ctx context.Context) ([]string, error) {
	rows, err := c.db.QueryContext(ctx,
		`SELECT name FROM sqlite_master WHERE type = 'table' ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("list entities: %w", err)
	}
	defer rows.Close()

	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("list entities: %w", err)
		}
		if reservedTables[name] || strings.HasPrefix(name, "sqlite_") {
			continue
		}
		names = append(names, name)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list entities: %w", err)
	}
	return names, nil
}

// tableFields reads column metadata for a table via PRAGMA table_info.
func (c *SQLite) tableFields(table string) ([]Field, error) {
	rows, err := c.db.Query(fmt.Sprintf("PRAGMA table_info(%s)", table))
	if err != nil {
		return nil, fmt.Errorf("table info %s: %w", table, err)
	}
	defer rows.Close()

	var fields []Field
	for rows.Next() {
		var (
			cid     int
			name    string
			colType string
			notNull int
			dflt    sql.NullString
			pk      int
		)
		if err := rows.Scan(&cid, &name, &colType, &notNull, &dflt, &pk); err != nil {
			return nil, fmt.Errorf("table info %s: %w", table, err)
		}
		if name == IDField {
			continue
		}
		fields = append(fields, Field{
			Name:     name,
			Type:     fieldTypeFor(colType),
			Required: notNull != 0,
		})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("table info %s: %w", table, err)
	}

	sort.Slice(fields, func(i, j int) bool { return fields[i].Name < fields[j].Name })
	return fields, nil
}

func sqlTypeFor(t FieldType) (string, error) {
	switch t {
	case FieldText, "":
		return "TEXT", nil
	case FieldInteger:
		return "INTEGER", nil
	case FieldReal:
		return "REAL", nil
	case FieldBlob:
		return "BLOB", nil
	default:
		return "", fmt.Errorf("unknown field type %q", t)
	}
}

func fieldTypeFor(sqlType string) FieldType {
	switch strings.ToUpper(sqlType) {
	case "INTEGER", "INT":
		return FieldInteger
	case "REAL":
		return FieldReal
	case "BLOB":
		return FieldBlob
	default:
		return FieldText
	}
}

// sqliteEntity is the EntityType handle produced by SQLite.Resolve.
type sqliteEntity struct {
	name   string
	fields []Field
}

func (e *sqliteEntity) Name() string { return e.name }

func (e *sqliteEntity) HasField(name string) bool {
	name = Normalize(name)
	if name == IDField {
		return true
	}
	for _, f := range e.fields {
		if f.Name == name {
			return true
		}
	}
	return false
}

func (e *sqliteEntity) Fields() []Field {
	out := make([]Field, len(e.fields))
	copy(out, e.fields)
	return out
}

func (e *sqliteEntity) NewRecord() *Record {
	return NewRecord(e.name)
}
