package cli

import (
	"github.com/harwell-labs/snapforge/internal/catalog"
	"github.com/harwell-labs/snapforge/internal/rule"
	"github.com/harwell-labs/snapforge/internal/store"
)

// env bundles the handles every command needs: the backing store plus the
// catalog and rule configuration views over it.
type env struct {
	store   *store.Store
	catalog *catalog.SQLite
	rules   *rule.Store
}

func openEnv(opts *RootOptions) (*env, error) {
	st, err := store.Open(opts.Database)
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "failed to open database", err)
	}
	return &env{
		store:   st,
		catalog: catalog.NewSQLite(st.DB()),
		rules:   rule.NewStore(st.DB()),
	}, nil
}

func (e *env) Close() error {
	return e.store.Close()
}
