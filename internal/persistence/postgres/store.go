// Package postgres provides a Store backed by Postgres through pgx.
package postgres

import (
	"context"
	_ "embed"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/sikndrR/fitnessApp/internal/persistence"
)

//go:embed schema.sql
var schemaSQL string

// Store keeps ledger nodes in the ledger_nodes table. Paths use the "C"
// collation so subtree range scans follow byte order.
type Store struct {
	pool *pgxpool.Pool
}

// NewStore constructs a Store over pool.
func NewStore(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool}
}

// EnsureSchema creates the ledger_nodes table when it does not exist.
func (s *Store) EnsureSchema(ctx context.Context) error {
	if _, err := s.pool.Exec(ctx, schemaSQL); err != nil {
		return fmt.Errorf("apply schema: %w", err)
	}
	return nil
}

// Read implements domain.Store.
func (s *Store) Read(ctx context.Context, path string) (any, bool, error) {
	clean, err := persistence.CleanPath(path)
	if err != nil {
		return nil, false, err
	}
	nodes, err := subtree(ctx, s.pool, clean)
	if err != nil {
		return nil, false, fmt.Errorf("read %s: %w", clean, err)
	}
	return persistence.Assemble(clean, nodes)
}

// Write implements domain.Store.
func (s *Store) Write(ctx context.Context, path string, value any) (err error) {
	clean, err := persistence.CleanPath(path)
	if err != nil {
		return err
	}
	nodes, err := persistence.Flatten(clean, value)
	if err != nil {
		return err
	}

	tx, err := s.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			tx.Rollback(ctx)
		}
	}()

	if err = lockPath(ctx, tx, clean); err != nil {
		return err
	}
	if err = replace(ctx, tx, clean, nodes); err != nil {
		return fmt.Errorf("write %s: %w", clean, err)
	}
	return tx.Commit(ctx)
}

// WriteIfAbsent implements domain.ConditionalWriter. An advisory lock on the path
// serialises concurrent bootstraps of the same record.
func (s *Store) WriteIfAbsent(ctx context.Context, path string, value any) (wrote bool, err error) {
	clean, err := persistence.CleanPath(path)
	if err != nil {
		return false, err
	}
	nodes, err := persistence.Flatten(clean, value)
	if err != nil {
		return false, err
	}

	tx, err := s.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return false, err
	}
	defer func() {
		if err != nil {
			tx.Rollback(ctx)
		}
	}()

	if err = lockPath(ctx, tx, clean); err != nil {
		return false, err
	}

	lo, hi := persistence.SubtreeBounds(clean)
	var exists bool
	if err = tx.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM ledger_nodes WHERE path = $1 OR (path >= $2 AND path < $3))`,
		clean, lo, hi).Scan(&exists); err != nil {
		return false, err
	}
	if exists {
		return false, tx.Commit(ctx)
	}

	if err = replace(ctx, tx, clean, nodes); err != nil {
		return false, fmt.Errorf("write %s: %w", clean, err)
	}
	if err = tx.Commit(ctx); err != nil {
		return false, err
	}
	return true, nil
}

// Delete implements domain.Store.
func (s *Store) Delete(ctx context.Context, path string) error {
	clean, err := persistence.CleanPath(path)
	if err != nil {
		return err
	}
	lo, hi := persistence.SubtreeBounds(clean)
	if _, err := s.pool.Exec(ctx,
		`DELETE FROM ledger_nodes WHERE path = $1 OR (path >= $2 AND path < $3)`, clean, lo, hi); err != nil {
		return fmt.Errorf("delete %s: %w", clean, err)
	}
	return nil
}

type querier interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

func subtree(ctx context.Context, q querier, path string) ([]persistence.Node, error) {
	lo, hi := persistence.SubtreeBounds(path)
	rows, err := q.Query(ctx,
		`SELECT path, value FROM ledger_nodes WHERE path = $1 OR (path >= $2 AND path < $3)`, path, lo, hi)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var nodes []persistence.Node
	for rows.Next() {
		var n persistence.Node
		if err := rows.Scan(&n.Path, &n.Value); err != nil {
			return nil, err
		}
		nodes = append(nodes, n)
	}
	return nodes, rows.Err()
}

func lockPath(ctx context.Context, tx pgx.Tx, path string) error {
	_, err := tx.Exec(ctx, `SELECT pg_advisory_xact_lock(hashtext($1))`, path)
	return err
}

func replace(ctx context.Context, tx pgx.Tx, path string, nodes []persistence.Node) error {
	lo, hi := persistence.SubtreeBounds(path)
	if _, err := tx.Exec(ctx,
		`DELETE FROM ledger_nodes WHERE path = $1 OR (path >= $2 AND path < $3)`, path, lo, hi); err != nil {
		return err
	}
	if len(nodes) == 0 {
		return nil
	}
	if _, err := tx.Exec(ctx,
		`DELETE FROM ledger_nodes WHERE path = ANY($1) AND value <> '{}'::jsonb`, persistence.Ancestors(path)); err != nil {
		return err
	}

	batch := &pgx.Batch{}
	for _, n := range nodes {
		batch.Queue(`INSERT INTO ledger_nodes (path, value) VALUES ($1, $2::jsonb)
            ON CONFLICT (path) DO UPDATE SET value = EXCLUDED.value`, n.Path, string(n.Value))
	}
	return tx.SendBatch(ctx, batch).Close()
}
