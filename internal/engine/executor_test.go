package engine_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/harwell-labs/snapforge/internal/catalog"
	"github.com/harwell-labs/snapforge/internal/engine"
	"github.com/harwell-labs/snapforge/internal/rule"
	"github.com/harwell-labs/snapforge/internal/store"
	"github.com/harwell-labs/snapforge/internal/testutil"
)

// setupAccounts builds the canonical fixture: an Account source entity with
// four records (three in Finance), an AccountSnapshot target, and a rule
// mapping Name and AnnualRevenue onto snapshot fields.
func setupAccounts(t *testing.T) *store.Store {
	t.Helper()
	st := testutil.OpenStore(t)

	testutil.DefineEntity(t, st, "Account",
		catalog.Field{Name: "Name", Type: catalog.FieldText},
		catalog.Field{Name: "Industry", Type: catalog.FieldText},
		catalog.Field{Name: "AnnualRevenue", Type: catalog.FieldReal},
	)
	testutil.DefineEntity(t, st, "AccountSnapshot",
		catalog.Field{Name: "SnapshotName", Type: catalog.FieldText},
		catalog.Field{Name: "SnapshotRevenue", Type: catalog.FieldReal},
		catalog.Field{Name: "SnapshotIndustry", Type: catalog.FieldText},
	)

	testutil.InsertRow(t, st, "Account", map[string]any{"id": "a1", "Name": "Acme", "Industry": "Finance", "AnnualRevenue": 1000.0})
	testutil.InsertRow(t, st, "Account", map[string]any{"id": "a2", "Name": "Globex", "Industry": "Finance", "AnnualRevenue": 2000.0})
	testutil.InsertRow(t, st, "Account", map[string]any{"id": "a3", "Name": "Initech", "Industry": "Finance", "AnnualRevenue": 3000.0})
	testutil.InsertRow(t, st, "Account", map[string]any{"id": "a4", "Name": "Umbrella", "Industry": "Tech", "AnnualRevenue": 4000.0})

	testutil.SaveRule(t, st, rule.Rule{
		ID:            "account-finance",
		SourceEntity:  "Account",
		TargetEntity:  "AccountSnapshot",
		EntryCriteria: "Industry = 'Finance'",
		Frequency:     "daily",
	},
		rule.Mapping{RuleID: "account-finance", SourceField: "Name", TargetField: "SnapshotName"},
		rule.Mapping{RuleID: "account-finance", SourceField: "AnnualRevenue", TargetField: "SnapshotRevenue"},
	)

	return st
}

func newExecutor(t *testing.T, st *store.Store, ruleID string, opts ...engine.Option) *engine.Executor {
	t.Helper()
	exec, err := engine.New(context.Background(), st, catalog.NewSQLite(st.DB()), rule.NewStore(st.DB()), ruleID, opts...)
	require.NoError(t, err)
	return exec
}

func TestRun_MaterializesMatchingRecords(t *testing.T) {
	st := setupAccounts(t)
	exec := newExecutor(t, st, "account-finance")

	records, err := exec.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 3, records)
	assert.Equal(t, 3, testutil.CountRows(t, st, "AccountSnapshot"))

	// Mapped fields carry the source values; unmapped fields stay empty.
	rows, err := st.DB().Query(`
		SELECT SnapshotName, SnapshotRevenue, SnapshotIndustry
		FROM AccountSnapshot ORDER BY SnapshotName
	`)
	require.NoError(t, err)
	defer rows.Close()

	type snap struct {
		name     string
		revenue  float64
		industry any
	}
	var snaps []snap
	for rows.Next() {
		var s snap
		require.NoError(t, rows.Scan(&s.name, &s.revenue, &s.industry))
		snaps = append(snaps, s)
	}
	require.NoError(t, rows.Err())

	require.Len(t, snaps, 3)
	assert.Equal(t, snap{"Acme", 1000.0, nil}, snaps[0])
	assert.Equal(t, snap{"Globex", 2000.0, nil}, snaps[1])
	assert.Equal(t, snap{"Initech", 3000.0, nil}, snaps[2])
}

func TestRun_DryRunLeavesStoreUnchanged(t *testing.T) {
	st := setupAccounts(t)
	exec := newExecutor(t, st, "account-finance", engine.WithDryRun(true))

	records, err := exec.Run(context.Background())
	require.NoError(t, err)

	// The full pipeline ran (3 records translated and written), but the
	// rollback left nothing behind.
	assert.Equal(t, 3, records)
	assert.Equal(t, 0, testutil.CountRows(t, st, "AccountSnapshot"))
}

func TestRun_ZeroMatchesIsNoop(t *testing.T) {
	st := setupAccounts(t)
	testutil.SaveRule(t, st, rule.Rule{
		ID:            "no-match",
		SourceEntity:  "Account",
		TargetEntity:  "AccountSnapshot",
		EntryCriteria: "Industry = 'Shipping'",
		Frequency:     "daily",
	},
		rule.Mapping{RuleID: "no-match", SourceField: "Name", TargetField: "SnapshotName"},
	)
	exec := newExecutor(t, st, "no-match")

	records, err := exec.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0, records)
	assert.Equal(t, 0, testutil.CountRows(t, st, "AccountSnapshot"))
}

func TestRun_AllOrNothingOnConstraintViolation(t *testing.T) {
	st := testutil.OpenStore(t)
	testutil.DefineEntity(t, st, "Account",
		catalog.Field{Name: "Name", Type: catalog.FieldText},
	)
	// SnapshotName is an integer column on a STRICT table; copying text
	// into it fails at the storage layer, not earlier.
	testutil.DefineEntity(t, st, "AccountSnapshot",
		catalog.Field{Name: "SnapshotName", Type: catalog.FieldInteger},
	)
	testutil.InsertRow(t, st, "Account", map[string]any{"id": "a1", "Name": "Acme"})
	testutil.InsertRow(t, st, "Account", map[string]any{"id": "a2", "Name": "Globex"})

	testutil.SaveRule(t, st, rule.Rule{
		ID:           "mismatch",
		SourceEntity: "Account",
		TargetEntity: "AccountSnapshot",
		Frequency:    "daily",
	},
		rule.Mapping{RuleID: "mismatch", SourceField: "Name", TargetField: "SnapshotName"},
	)
	exec := newExecutor(t, st, "mismatch")

	_, err := exec.Run(context.Background())
	require.Error(t, err)
	assert.True(t, engine.IsPersistenceError(err))
	assert.Equal(t, 0, testutil.CountRows(t, st, "AccountSnapshot"))
}

func TestRun_UnknownTargetEntity(t *testing.T) {
	st := setupAccounts(t)
	testutil.SaveRule(t, st, rule.Rule{
		ID:           "bad-target",
		SourceEntity: "Account",
		TargetEntity: "NoSuchEntity",
		Frequency:    "daily",
	})
	exec := newExecutor(t, st, "bad-target")

	_, err := exec.Run(context.Background())
	require.Error(t, err)
	assert.True(t, engine.IsSchemaError(err))
	assert.Equal(t, 0, testutil.CountRows(t, st, "AccountSnapshot"))
}

func TestRun_BadCriteriaFailsQuery(t *testing.T) {
	st := setupAccounts(t)
	testutil.SaveRule(t, st, rule.Rule{
		ID:            "bad-criteria",
		SourceEntity:  "Account",
		TargetEntity:  "AccountSnapshot",
		EntryCriteria: "NoSuchField = 'x'",
		Frequency:     "daily",
	},
		rule.Mapping{RuleID: "bad-criteria", SourceField: "Name", TargetField: "SnapshotName"},
	)
	exec := newExecutor(t, st, "bad-criteria")

	_, err := exec.Run(context.Background())
	require.Error(t, err)
	assert.True(t, engine.IsQueryError(err))
	assert.Equal(t, 0, testutil.CountRows(t, st, "AccountSnapshot"))
}

func TestRun_EmptyCriteriaMatchesAll(t *testing.T) {
	st := setupAccounts(t)
	testutil.SaveRule(t, st, rule.Rule{
		ID:           "all-accounts",
		SourceEntity: "Account",
		TargetEntity: "AccountSnapshot",
		Frequency:    "daily",
	},
		rule.Mapping{RuleID: "all-accounts", SourceField: "Name", TargetField: "SnapshotName"},
	)
	exec := newExecutor(t, st, "all-accounts")

	records, err := exec.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 4, records)
}

func TestRun_DuplicateSourceFieldLastWins(t *testing.T) {
	st := setupAccounts(t)
	testutil.SaveRule(t, st, rule.Rule{
		ID:            "dup-source",
		SourceEntity:  "Account",
		TargetEntity:  "AccountSnapshot",
		EntryCriteria: "id = 'a1'",
		Frequency:     "daily",
	},
		rule.Mapping{RuleID: "dup-source", SourceField: "Name", TargetField: "SnapshotIndustry"},
		rule.Mapping{RuleID: "dup-source", SourceField: "Name", TargetField: "SnapshotName"},
	)
	exec := newExecutor(t, st, "dup-source")

	records, err := exec.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, records)

	var name string
	var industry any
	require.NoError(t, st.DB().QueryRow(
		`SELECT SnapshotName, SnapshotIndustry FROM AccountSnapshot`,
	).Scan(&name, &industry))
	assert.Equal(t, "Acme", name)
	assert.Nil(t, industry)
}

func TestRun_RepeatedRunsAppend(t *testing.T) {
	st := setupAccounts(t)
	exec := newExecutor(t, st, "account-finance")
	ctx := context.Background()

	_, err := exec.Run(ctx)
	require.NoError(t, err)
	_, err = exec.Run(ctx)
	require.NoError(t, err)

	// Snapshots are point-in-time copies; each run materializes a new batch.
	assert.Equal(t, 6, testutil.CountRows(t, st, "AccountSnapshot"))
}

func TestNew_RuleNotFound(t *testing.T) {
	st := testutil.OpenStore(t)

	_, err := engine.New(context.Background(), st, catalog.NewSQLite(st.DB()), rule.NewStore(st.DB()), "missing")
	require.Error(t, err)
	assert.True(t, engine.IsConfigurationError(err))
}

func TestRun_FailureLeavesNoLeakedCheckpoint(t *testing.T) {
	st := setupAccounts(t)
	testutil.SaveRule(t, st, rule.Rule{
		ID:           "bad-target",
		SourceEntity: "Account",
		TargetEntity: "NoSuchEntity",
		Frequency:    "daily",
	})

	bad := newExecutor(t, st, "bad-target")
	_, err := bad.Run(context.Background())
	require.Error(t, err)

	// A healthy rule still runs on the same store afterwards.
	good := newExecutor(t, st, "account-finance")
	records, err := good.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 3, records)
}
