// Package domain implements the per-user nutrition and exercise ledger on top of a
// path-addressed hierarchical store.
package domain

import "context"

// Value is a JSON-compatible tree: map[string]any for nodes, strings, numbers and
// booleans for leaves.
type Value = any

// Store is the contract every backing engine satisfies.
//
// Read reports found=false when nothing exists at or under path. Write replaces the
// value at path, descendants included, without touching siblings. Delete removes
// path and its descendants and succeeds when nothing is there. Each call is atomic
// for the path it targets; no cross-path transactions are offered.
type Store interface {
	Read(ctx context.Context, path string) (Value, bool, error)
	Write(ctx context.Context, path string, value Value) error
	Delete(ctx context.Context, path string) error
}

// ConditionalWriter is implemented by stores that can write only when a path is
// absent, in a single atomic step.
type ConditionalWriter interface {
	WriteIfAbsent(ctx context.Context, path string, value Value) (bool, error)
}

// WriteIfAbsent writes value at path unless something already exists there and
// reports whether it wrote. Stores without ConditionalWriter fall back to a read
// followed by a write; two racing callers may then both write, which is harmless
// as long as the value does not depend on the caller.
func WriteIfAbsent(ctx context.Context, store Store, path string, value Value) (bool, error) {
	if cw, ok := store.(ConditionalWriter); ok {
		return cw.WriteIfAbsent(ctx, path, value)
	}
	_, found, err := store.Read(ctx, path)
	if err != nil {
		return false, err
	}
	if found {
		return false, nil
	}
	if err := store.Write(ctx, path, value); err != nil {
		return false, err
	}
	return true, nil
}
