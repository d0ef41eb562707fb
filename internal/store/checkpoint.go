package store

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/harwell-labs/snapforge/internal/catalog"
)

// Checkpoint is a transactional savepoint scoping a batch of record writes.
//
// Lifecycle: take a checkpoint, insert records through it, then finish it
// exactly once with Release (keep the writes) or Rollback (discard the
// writes, as a dry run does). Abort is the deferred safety net for failure
// paths; it is a no-op once the checkpoint is finished, so the idiom is:
//
//	cp, err := st.Checkpoint(ctx)
//	if err != nil { ... }
//	defer cp.Abort()
//	// inserts...
//	return cp.Release(ctx)
//
// Every exit path finishes the checkpoint; an unfinished checkpoint never
// outlives the run that took it.
type Checkpoint struct {
	tx   *sql.Tx
	name string
	done bool
}

// Checkpoint begins a write transaction and marks a named savepoint in it.
func (s *Store) Checkpoint(ctx context.Context) (*Checkpoint, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("checkpoint: begin: %w", err)
	}

	name := "snap_" + strings.ReplaceAll(uuid.NewString(), "-", "")
	if _, err := tx.ExecContext(ctx, "SAVEPOINT "+name); err != nil {
		tx.Rollback()
		return nil, fmt.Errorf("checkpoint: savepoint: %w", err)
	}

	return &Checkpoint{tx: tx, name: name}, nil
}

// Insert writes one record inside the checkpoint's scope. A record with no
// identifier is assigned a fresh one. The write participates in the
// all-or-nothing batch: any failure here leaves the caller to Abort, which
// discards every prior insert in the batch.
//
// Values are passed through untyped; STRICT entity tables reject mismatched
// types here, which is where source/target type incompatibilities surface.
func (cp *Checkpoint) Insert(ctx context.Context, rec *catalog.Record) error {
	if cp.done {
		return fmt.Errorf("insert: checkpoint already finished")
	}

	if rec.Get(catalog.IDField) == nil {
		rec.Set(catalog.IDField, uuid.NewString())
	}

	fields := rec.FieldNames()
	placeholders := make([]string, len(fields))
	args := make([]any, len(fields))
	for i, f := range fields {
		placeholders[i] = "?"
		args[i] = rec.Get(f)
	}

	stmt := fmt.Sprintf(
		"INSERT INTO %s (%s) VALUES (%s)",
		rec.Entity(),
		strings.Join(fields, ", "),
		strings.Join(placeholders, ", "),
	)
	if _, err := cp.tx.ExecContext(ctx, stmt, args...); err != nil {
		return fmt.Errorf("insert into %s: %w", rec.Entity(), err)
	}
	return nil
}

// Release keeps the batch: the savepoint is released and the transaction
// committed. The checkpoint is finished afterwards.
func (cp *Checkpoint) Release(ctx context.Context) error {
	if cp.done {
		return fmt.Errorf("release: checkpoint already finished")
	}
	cp.done = true

	if _, err := cp.tx.ExecContext(ctx, "RELEASE SAVEPOINT "+cp.name); err != nil {
		cp.tx.Rollback()
		return fmt.Errorf("release savepoint: %w", err)
	}
	if err := cp.tx.Commit(); err != nil {
		return fmt.Errorf("commit checkpoint: %w", err)
	}
	return nil
}

// Rollback discards the batch while still having exercised the full write
// path: writes are rolled back to the savepoint and the then-empty
// transaction committed, leaving the store as it was before the checkpoint.
func (cp *Checkpoint) Rollback(ctx context.Context) error {
	if cp.done {
		return fmt.Errorf("rollback: checkpoint already finished")
	}
	cp.done = true

	if _, err := cp.tx.ExecContext(ctx, "ROLLBACK TO SAVEPOINT "+cp.name); err != nil {
		cp.tx.Rollback()
		return fmt.Errorf("rollback to savepoint: %w", err)
	}
	if err := cp.tx.Commit(); err != nil {
		return fmt.Errorf("commit after rollback: %w", err)
	}
	return nil
}

// Abort tears the transaction down. No-op if the checkpoint is finished;
// intended for defer so failure paths can never leak the checkpoint.
func (cp *Checkpoint) Abort() {
	if cp.done {
		return
	}
	cp.done = true
	cp.tx.Rollback()
}
