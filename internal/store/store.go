package store

import (
	"context"
	"database/sql"
	_ "embed"
	"fmt"

	_ "github.com/mattn/go-sqlite3"

	"github.com/harwell-labs/snapforge/internal/catalog"
	"github.com/harwell-labs/snapforge/internal/query"
)

//go:embed schema.sql
var schemaSQL string

// Store is the SQLite-backed store holding both entity record tables and the
// snapshot rule configuration tables.
type Store struct {
	db *sql.DB
}

// Open creates or opens a SQLite database at the given path.
//
// The database is configured with:
//   - WAL mode for concurrent reads during writes
//   - NORMAL synchronous mode (balance durability/performance)
//   - 5-second busy timeout for lock contention
//   - Foreign key enforcement
//
// The connection pool is limited to a single connection: SQLite supports one
// writer at a time, and the checkpoint mechanism relies on the executor being
// the sole writer for the duration of its run.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("connect database: %w", err)
	}

	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if err := applyPragmas(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("apply pragmas: %w", err)
	}

	if _, err := db.Exec(schemaSQL); err != nil {
		db.Close()
		return nil, fmt.Errorf("apply schema: %w", err)
	}

	return &Store{db: db}, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}

// DB returns the underlying sql.DB. The catalog and the rule configuration
// store share this handle.
func (s *Store) DB() *sql.DB {
	return s.db
}

// ExecuteQuery runs a composed selection and scans every row into a record
// of the query's entity type. Column names become field names; values are
// kept opaque. Zero rows is a valid result, not an error.
func (s *Store) ExecuteQuery(ctx context.Context, q query.Query) ([]*catalog.Record, error) {
	rows, err := s.db.QueryContext(ctx, q.SQL)
	if err != nil {
		return nil, fmt.Errorf("execute query: %w", err)
	}
	defer rows.Close()

	cols, err := rows.Columns()
	if err != nil {
		return nil, fmt.Errorf("execute query: columns: %w", err)
	}

	var records []*catalog.Record
	for rows.Next() {
		values := make([]any, len(cols))
		dest := make([]any, len(cols))
		for i := range values {
			dest[i] = &values[i]
		}
		if err := rows.Scan(dest...); err != nil {
			return nil, fmt.Errorf("execute query: scan: %w", err)
		}

		rec := catalog.NewRecord(q.Entity)
		for i, col := range cols {
			rec.Set(col, values[i])
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("execute query: rows: %w", err)
	}

	return records, nil
}

func applyPragmas(db *sql.DB) error {
	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA synchronous = NORMAL",
		"PRAGMA busy_timeout = 5000",
		"PRAGMA foreign_keys = ON",
	}

	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			return fmt.Errorf("execute %q: %w", pragma, err)
		}
	}

	return nil
}
