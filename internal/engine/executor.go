package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/harwell-labs/snapforge/internal/catalog"
	"github.com/harwell-labs/snapforge/internal/query"
	"github.com/harwell-labs/snapforge/internal/rule"
	"github.com/harwell-labs/snapforge/internal/store"
)

// Executor runs one snapshot rule: select matching source records, translate
// each into a fresh target record field by field, and commit the batch
// all-or-nothing. In dry-run mode the batch is rolled back after the full
// write path has been exercised.
//
// An executor is bound to a single rule at construction and holds no state
// across runs beyond its resolved configuration. It is not safe for
// concurrent use; hosts wanting parallel rules run one executor per rule.
type Executor struct {
	store    *store.Store
	catalog  catalog.Catalog
	resolved rule.Resolved
	dryRun   bool
	logger   *slog.Logger
}

// Option configures an Executor.
type Option func(*Executor)

// WithDryRun makes Run roll the committed batch back, leaving the store
// unchanged while still exercising query, translation, and storage-layer
// constraint checks.
func WithDryRun(dryRun bool) Option {
	return func(e *Executor) { e.dryRun = dryRun }
}

// WithLogger sets the executor's logger. Defaults to slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(e *Executor) { e.logger = logger }
}

// New constructs an executor for the given rule id, resolving the rule and
// its field map from the configuration store. Configuration problems (rule
// missing, id ambiguous) surface here, before any run is attempted.
func New(ctx context.Context, st *store.Store, cat catalog.Catalog, cfg *rule.Store, ruleID string, opts ...Option) (*Executor, error) {
	resolved, err := rule.Resolve(ctx, cfg, ruleID)
	if err != nil {
		switch {
		case errors.Is(err, rule.ErrNotFound):
			return nil, newRunError(ErrCodeRuleNotFound, ruleID, err)
		case errors.Is(err, rule.ErrAmbiguous):
			return nil, newRunError(ErrCodeRuleAmbiguous, ruleID, err)
		default:
			return nil, newRunError(ErrCodeMappingInvalid, ruleID, err)
		}
	}

	e := &Executor{
		store:    st,
		catalog:  cat,
		resolved: resolved,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e, nil
}

// RuleID returns the id of the rule this executor is bound to.
func (e *Executor) RuleID() string {
	return e.resolved.Rule.ID
}

// DryRun reports whether the executor is in dry-run mode.
func (e *Executor) DryRun() bool {
	return e.dryRun
}

// Run executes one snapshot pass and returns the number of target records
// materialized. Zero matching source records is a valid outcome: the run
// ends with nothing written and no error.
//
// Failure at any stage aborts the remainder of the run. The checkpoint taken
// before the batch write is finished on every exit path, so no transaction
// outlives the run.
func (e *Executor) Run(ctx context.Context) (int, error) {
	r := e.resolved.Rule

	q := query.Build(r.SourceEntity, e.resolved.Fields.SourceFields(), r.EntryCriteria)
	e.logger.Debug("snapshot query built", "rule", r.ID, "sql", q.SQL)

	sources, err := e.store.ExecuteQuery(ctx, q)
	if err != nil {
		return 0, newRunError(ErrCodeQueryFailed, r.ID, err)
	}

	target, ok := e.catalog.Resolve(r.TargetEntity)
	if !ok {
		return 0, newRunError(ErrCodeEntityUnresolved, r.ID,
			fmt.Errorf("target entity %q not registered", r.TargetEntity))
	}

	targets := make([]*catalog.Record, 0, len(sources))
	for _, src := range sources {
		rec := target.NewRecord()
		for srcField, dstField := range e.resolved.Fields {
			rec.Set(dstField, src.Get(srcField))
		}
		targets = append(targets, rec)
	}

	if len(targets) == 0 {
		e.logger.Debug("snapshot matched no records", "rule", r.ID)
		return 0, nil
	}

	cp, err := e.store.Checkpoint(ctx)
	if err != nil {
		return 0, newRunError(ErrCodePersistFailed, r.ID, err)
	}
	defer cp.Abort()

	for _, rec := range targets {
		if err := cp.Insert(ctx, rec); err != nil {
			return 0, newRunError(ErrCodePersistFailed, r.ID, err)
		}
	}

	if e.dryRun {
		if err := cp.Rollback(ctx); err != nil {
			return 0, newRunError(ErrCodePersistFailed, r.ID, err)
		}
		return len(targets), nil
	}
	if err := cp.Release(ctx); err != nil {
		return 0, newRunError(ErrCodePersistFailed, r.ID, err)
	}
	return len(targets), nil
}
