// Package store provides the SQLite backing store for snapforge.
//
// One database holds two kinds of tables: the rule configuration tables
// (snapshot_rules, field_mappings, created from the embedded schema) and
// the entity record tables the snapshot engine reads from and writes to
// (created on demand through the catalog).
//
// The store exposes exactly the surfaces the engine needs:
//
//   - ExecuteQuery: run a composed selection, scan rows into dynamic records
//   - Checkpoint: a savepoint-scoped all-or-nothing batch of inserts that
//     can be released (committed) or rolled back (dry run)
//
// Database configuration follows the single-writer SQLite setup: WAL mode,
// synchronous=NORMAL, busy_timeout=5000, foreign_keys=ON, one pooled
// connection.
package store
