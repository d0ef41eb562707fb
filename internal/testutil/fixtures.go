// Package testutil provides shared fixtures for snapforge tests.
package testutil

import (
	"context"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/harwell-labs/snapforge/internal/catalog"
	"github.com/harwell-labs/snapforge/internal/rule"
	"github.com/harwell-labs/snapforge/internal/store"
)

// OpenStore opens a fresh store in a temp directory, closed on cleanup.
func OpenStore(t *testing.T) *store.Store {
	t.Helper()
	s, err := store.Open(t.TempDir() + "/test.db")
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

// DefineEntity creates an entity table through the catalog.
func DefineEntity(t *testing.T, st *store.Store, name string, fields ...catalog.Field) {
	t.Helper()
	cat := catalog.NewSQLite(st.DB())
	require.NoError(t, cat.Define(context.Background(), name, fields))
}

// InsertRow inserts one row directly into an entity table, outside the
// engine's write path, for seeding source data.
func InsertRow(t *testing.T, st *store.Store, entity string, values map[string]any) {
	t.Helper()
	cols := make([]string, 0, len(values))
	args := make([]any, 0, len(values))
	placeholders := make([]string, 0, len(values))
	for col, v := range values {
		cols = append(cols, col)
		args = append(args, v)
		placeholders = append(placeholders, "?")
	}
	stmt := fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)",
		entity, strings.Join(cols, ", "), strings.Join(placeholders, ", "))
	_, err := st.DB().Exec(stmt, args...)
	require.NoError(t, err)
}

// CountRows returns the number of rows in an entity table.
func CountRows(t *testing.T, st *store.Store, entity string) int {
	t.Helper()
	var n int
	err := st.DB().QueryRow("SELECT COUNT(*) FROM " + entity).Scan(&n)
	require.NoError(t, err)
	return n
}

// SaveRule writes a rule and its mappings into the configuration store.
func SaveRule(t *testing.T, st *store.Store, r rule.Rule, mappings ...rule.Mapping) {
	t.Helper()
	cfg := rule.NewStore(st.DB())
	require.NoError(t, cfg.Save(context.Background(), r, mappings))
}
