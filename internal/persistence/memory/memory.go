// Package memory provides an in-process Store for local development and tests.
package memory

import (
	"bytes"
	"context"
	"sort"
	"sync"

	"github.com/sikndrR/fitnessApp/internal/persistence"
)

// Store keeps node rows in a map guarded by a RWMutex. Every call holds the lock
// for its whole duration, which gives the per-path atomicity the ledger expects.
type Store struct {
	mu    sync.RWMutex
	nodes map[string][]byte
}

// New constructs an empty Store.
func New() *Store {
	return &Store{nodes: make(map[string][]byte)}
}

// Read implements domain.Store.
func (s *Store) Read(ctx context.Context, path string) (any, bool, error) {
	if err := ctx.Err(); err != nil {
		return nil, false, err
	}
	clean, err := persistence.CleanPath(path)
	if err != nil {
		return nil, false, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	return persistence.Assemble(clean, s.subtreeLocked(clean))
}

// Write implements domain.Store.
func (s *Store) Write(ctx context.Context, path string, value any) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	clean, err := persistence.CleanPath(path)
	if err != nil {
		return err
	}
	nodes, err := persistence.Flatten(clean, value)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.replaceLocked(clean, nodes)
	return nil
}

// WriteIfAbsent implements domain.ConditionalWriter.
func (s *Store) WriteIfAbsent(ctx context.Context, path string, value any) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	clean, err := persistence.CleanPath(path)
	if err != nil {
		return false, err
	}
	nodes, err := persistence.Flatten(clean, value)
	if err != nil {
		return false, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.subtreeLocked(clean)) > 0 {
		return false, nil
	}
	s.replaceLocked(clean, nodes)
	return true, nil
}

// Delete implements domain.Store.
func (s *Store) Delete(ctx context.Context, path string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	clean, err := persistence.CleanPath(path)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.deleteSubtreeLocked(clean)
	return nil
}

// Paths lists every stored row path in order. Tests use it to inspect layout.
func (s *Store) Paths() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]string, 0, len(s.nodes))
	for p := range s.nodes {
		out = append(out, p)
	}
	sort.Strings(out)
	return out
}

func (s *Store) subtreeLocked(path string) []persistence.Node {
	var out []persistence.Node
	for p, v := range s.nodes {
		if persistence.InSubtree(path, p) {
			out = append(out, persistence.Node{Path: p, Value: v})
		}
	}
	return out
}

func (s *Store) deleteSubtreeLocked(path string) {
	for p := range s.nodes {
		if persistence.InSubtree(path, p) {
			delete(s.nodes, p)
		}
	}
}

func (s *Store) replaceLocked(path string, nodes []persistence.Node) {
	s.deleteSubtreeLocked(path)
	if len(nodes) == 0 {
		return
	}
	for _, ancestor := range persistence.Ancestors(path) {
		if v, ok := s.nodes[ancestor]; ok && !bytes.Equal(v, persistence.Marker) {
			delete(s.nodes, ancestor)
		}
	}
	for _, n := range nodes {
		s.nodes[n.Path] = n.Value
	}
}
