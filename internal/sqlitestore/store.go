// Package sqlitestore implements datastore.Store on top of a SQLite
// `records` table.
package sqlitestore

import (
	"context"
	"database/sql"
	_ "embed"
	"fmt"

	"github.com/google/uuid"
	"github.com/shuvo-dotcom/nfgcalc/internal/datastore"
	_ "modernc.org/sqlite"
)

//go:embed schema.sql
var schemaSQL string

const fetchSQL = `SELECT id, source, property, value, child, date, category, unit
FROM records
WHERE property = ? COLLATE NOCASE
  AND child = ? COLLATE NOCASE
  AND (? = '' OR date = ? COLLATE NOCASE)
  AND (? = '' OR category = ? COLLATE NOCASE)
ORDER BY rowid`

const insertSQL = `INSERT INTO records (id, source, property, value, child, date, category, unit)
VALUES (?, ?, ?, ?, ?, ?, ?, ?)`

// Store reads records from SQLite.
type Store struct {
	db *sql.DB
}

// Open connects to the database at dsn and creates the schema if needed.
// Use ":memory:" for an in-memory database.
func Open(ctx context.Context, dsn string) (*Store, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite database: %w", err)
	}
	if dsn == ":memory:" {
		// Every pooled connection would otherwise see its own empty database.
		db.SetMaxOpenConns(1)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping sqlite database: %w", err)
	}

	s := New(db)
	if err := s.InitSchema(ctx); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

// New wraps an already opened database.
func New(db *sql.DB) *Store {
	return &Store{db: db}
}

// InitSchema creates the records table and its index.
func (s *Store) InitSchema(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, schemaSQL); err != nil {
		return fmt.Errorf("failed to initialize schema: %w", err)
	}
	return nil
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}

// Insert stores records in one transaction. Records without an ID get a
// generated one.
func (s *Store) Insert(ctx context.Context, records ...datastore.DataRecord) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, insertSQL)
	if err != nil {
		return fmt.Errorf("failed to prepare insert: %w", err)
	}
	defer stmt.Close()

	for _, r := range records {
		id := r.ID
		if id == "" {
			id = uuid.New().String()
		}
		if _, err := stmt.ExecContext(ctx, id, r.Source, r.Property, r.Value, r.Child, r.Date, r.Category, r.Unit); err != nil {
			return fmt.Errorf("failed to insert record %s: %w", id, err)
		}
	}
	return tx.Commit()
}

// Fetch implements datastore.Store.
func (s *Store) Fetch(ctx context.Context, req datastore.FetchRequest) ([]datastore.DataRecord, error) {
	rows, err := s.db.QueryContext(ctx, fetchSQL,
		req.Property, req.Child, req.Date, req.Date, req.Category, req.Category)
	if err != nil {
		return nil, fmt.Errorf("failed to query records for %q: %w", req.Property, err)
	}
	defer rows.Close()

	var out []datastore.DataRecord
	for rows.Next() {
		var r datastore.DataRecord
		if err := rows.Scan(&r.ID, &r.Source, &r.Property, &r.Value, &r.Child, &r.Date, &r.Category, &r.Unit); err != nil {
			return nil, fmt.Errorf("failed to scan record: %w", err)
		}
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read records for %q: %w", req.Property, err)
	}
	return out, nil
}
