package store_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/harwell-labs/snapforge/internal/catalog"
	"github.com/harwell-labs/snapforge/internal/query"
	"github.com/harwell-labs/snapforge/internal/store"
	"github.com/harwell-labs/snapforge/internal/testutil"
)

func openAt(path string) (*store.Store, error) {
	return store.Open(path)
}

func TestOpen_CreatesConfigSchema(t *testing.T) {
	st := testutil.OpenStore(t)

	for _, table := range []string{"snapshot_rules", "field_mappings"} {
		var name string
		err := st.DB().QueryRow(
			`SELECT name FROM sqlite_master WHERE type = 'table' AND name = ?`, table,
		).Scan(&name)
		require.NoError(t, err, "missing table %s", table)
	}
}

func TestOpen_Idempotent(t *testing.T) {
	dir := t.TempDir()
	path := dir + "/test.db"

	st, err := openAt(path)
	require.NoError(t, err)
	require.NoError(t, st.Close())

	st, err = openAt(path)
	require.NoError(t, err)
	require.NoError(t, st.Close())
}

func TestExecuteQuery(t *testing.T) {
	st := testutil.OpenStore(t)
	testutil.DefineEntity(t, st, "Account",
		catalog.Field{Name: "Name", Type: catalog.FieldText},
		catalog.Field{Name: "Industry", Type: catalog.FieldText},
	)
	testutil.InsertRow(t, st, "Account", map[string]any{"id": "a1", "Name": "Acme", "Industry": "Finance"})
	testutil.InsertRow(t, st, "Account", map[string]any{"id": "a2", "Name": "Globex", "Industry": "Tech"})

	q := query.Build("Account", []string{"Name"}, "Industry = 'Finance'")
	records, err := st.ExecuteQuery(context.Background(), q)
	require.NoError(t, err)

	require.Len(t, records, 1)
	assert.Equal(t, "Account", records[0].Entity())
	assert.Equal(t, "a1", records[0].Get("id"))
	assert.Equal(t, "Acme", records[0].Get("Name"))
}

func TestExecuteQuery_ZeroRows(t *testing.T) {
	st := testutil.OpenStore(t)
	testutil.DefineEntity(t, st, "Account",
		catalog.Field{Name: "Industry", Type: catalog.FieldText},
	)

	q := query.Build("Account", nil, "Industry = 'Nothing'")
	records, err := st.ExecuteQuery(context.Background(), q)

	require.NoError(t, err)
	assert.Empty(t, records)
}

func TestExecuteQuery_BadPredicate(t *testing.T) {
	st := testutil.OpenStore(t)
	testutil.DefineEntity(t, st, "Account")

	q := query.Build("Account", nil, "NoSuchField = 1")
	_, err := st.ExecuteQuery(context.Background(), q)

	assert.Error(t, err)
}
