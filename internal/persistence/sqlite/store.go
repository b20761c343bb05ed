// Package sqlite provides an embedded Store backed by a single SQLite file.
package sqlite

import (
	"context"
	"database/sql"
	_ "embed"
	"fmt"

	_ "github.com/mattn/go-sqlite3"

	"github.com/sikndrR/fitnessApp/internal/persistence"
)

//go:embed schema.sql
var schemaSQL string

// Store keeps ledger nodes in one table keyed by path.
type Store struct {
	db *sql.DB
}

// Open creates or opens the database at path and applies the schema.
//
// Transactions begin IMMEDIATE so a conditional write holds the write lock from
// its existence check to its insert.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite3", fmt.Sprintf("file:%s?_txlock=immediate", path))
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	// One writer at a time; a second connection would only see SQLITE_BUSY.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if err := applyPragmas(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to apply pragmas: %w", err)
	}
	if _, err := db.Exec(schemaSQL); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to apply schema: %w", err)
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

func applyPragmas(db *sql.DB) error {
	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA synchronous = NORMAL",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			return fmt.Errorf("failed to execute %q: %w", pragma, err)
		}
	}
	return nil
}

// Read implements domain.Store.
func (s *Store) Read(ctx context.Context, path string) (any, bool, error) {
	clean, err := persistence.CleanPath(path)
	if err != nil {
		return nil, false, err
	}
	nodes, err := subtree(ctx, s.db, clean)
	if err != nil {
		return nil, false, fmt.Errorf("read %s: %w", clean, err)
	}
	return persistence.Assemble(clean, nodes)
}

// Write implements domain.Store.
func (s *Store) Write(ctx context.Context, path string, value any) error {
	clean, err := persistence.CleanPath(path)
	if err != nil {
		return err
	}
	nodes, err := persistence.Flatten(clean, value)
	if err != nil {
		return err
	}
	return s.inTx(ctx, func(tx *sql.Tx) error {
		return replace(ctx, tx, clean, nodes)
	})
}

// WriteIfAbsent implements domain.ConditionalWriter.
func (s *Store) WriteIfAbsent(ctx context.Context, path string, value any) (bool, error) {
	clean, err := persistence.CleanPath(path)
	if err != nil {
		return false, err
	}
	nodes, err := persistence.Flatten(clean, value)
	if err != nil {
		return false, err
	}
	wrote := false
	err = s.inTx(ctx, func(tx *sql.Tx) error {
		existing, err := subtree(ctx, tx, clean)
		if err != nil {
			return err
		}
		if len(existing) > 0 {
			return nil
		}
		wrote = true
		return replace(ctx, tx, clean, nodes)
	})
	if err != nil {
		return false, err
	}
	return wrote, nil
}

// Delete implements domain.Store.
func (s *Store) Delete(ctx context.Context, path string) error {
	clean, err := persistence.CleanPath(path)
	if err != nil {
		return err
	}
	lo, hi := persistence.SubtreeBounds(clean)
	if _, err := s.db.ExecContext(ctx,
		`DELETE FROM ledger_nodes WHERE path = ? OR (path >= ? AND path < ?)`, clean, lo, hi); err != nil {
		return fmt.Errorf("delete %s: %w", clean, err)
	}
	return nil
}

func (s *Store) inTx(ctx context.Context, fn func(*sql.Tx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	if err := fn(tx); err != nil {
		tx.Rollback()
		return err
	}
	return tx.Commit()
}

type querier interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}

func subtree(ctx context.Context, q querier, path string) ([]persistence.Node, error) {
	lo, hi := persistence.SubtreeBounds(path)
	rows, err := q.QueryContext(ctx,
		`SELECT path, value FROM ledger_nodes WHERE path = ? OR (path >= ? AND path < ?)`, path, lo, hi)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var nodes []persistence.Node
	for rows.Next() {
		var (
			p string
			v string
		)
		if err := rows.Scan(&p, &v); err != nil {
			return nil, err
		}
		nodes = append(nodes, persistence.Node{Path: p, Value: []byte(v)})
	}
	return nodes, rows.Err()
}

func replace(ctx context.Context, tx *sql.Tx, path string, nodes []persistence.Node) error {
	lo, hi := persistence.SubtreeBounds(path)
	if _, err := tx.ExecContext(ctx,
		`DELETE FROM ledger_nodes WHERE path = ? OR (path >= ? AND path < ?)`, path, lo, hi); err != nil {
		return err
	}
	if len(nodes) == 0 {
		return nil
	}
	for _, ancestor := range persistence.Ancestors(path) {
		if _, err := tx.ExecContext(ctx,
			`DELETE FROM ledger_nodes WHERE path = ? AND value <> ?`, ancestor, string(persistence.Marker)); err != nil {
			return err
		}
	}
	for _, n := range nodes {
		if _, err := tx.ExecContext(ctx,
			`INSERT OR REPLACE INTO ledger_nodes (path, value) VALUES (?, ?)`, n.Path, string(n.Value)); err != nil {
			return err
		}
	}
	return nil
}
