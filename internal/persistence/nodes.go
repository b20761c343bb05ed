// Package persistence contains helpers shared by the Store backends.
//
// Backends keep the ledger tree as flat node rows keyed by path. A map node is
// stored as a "{}" marker row, every other value as its JSON encoding. Markers
// outlive the removal of their children, so an emptied collection stays present.
package persistence

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"
)

// Separator delimits path segments.
const Separator = "/"

// Marker is the encoded form of a map node.
var Marker = []byte("{}")

// ErrInvalidPath is returned for empty paths or paths with empty segments.
var ErrInvalidPath = errors.New("invalid store path")

// Node is one stored row.
type Node struct {
	Path  string
	Value []byte
}

// IsMarker reports whether the node stands for a map.
func (n Node) IsMarker() bool {
	return bytes.Equal(n.Value, Marker)
}

// CleanPath validates path and strips leading and trailing separators.
func CleanPath(path string) (string, error) {
	trimmed := strings.Trim(path, Separator)
	if trimmed == "" {
		return "", fmt.Errorf("%w: %q", ErrInvalidPath, path)
	}
	for _, seg := range strings.Split(trimmed, Separator) {
		if seg == "" {
			return "", fmt.Errorf("%w: %q", ErrInvalidPath, path)
		}
	}
	return trimmed, nil
}

// Ancestors returns the proper prefixes of path, shortest first.
func Ancestors(path string) []string {
	segs := strings.Split(path, Separator)
	out := make([]string, 0, len(segs)-1)
	for i := 1; i < len(segs); i++ {
		out = append(out, strings.Join(segs[:i], Separator))
	}
	return out
}

// SubtreeBounds returns the half-open range [lo, hi) that contains exactly the
// descendants of path under byte-wise ordering. '0' is the byte after '/'.
func SubtreeBounds(path string) (lo, hi string) {
	return path + Separator, path + "0"
}

// InSubtree reports whether candidate is path or one of its descendants.
func InSubtree(path, candidate string) bool {
	return candidate == path || strings.HasPrefix(candidate, path+Separator)
}

// Flatten encodes value as the node rows to store under path. A nil value yields
// no rows, which makes writing nil equivalent to a delete.
func Flatten(path string, value any) ([]Node, error) {
	normalized, err := normalize(value)
	if err != nil {
		return nil, err
	}
	var nodes []Node
	if err := flatten(path, normalized, &nodes); err != nil {
		return nil, err
	}
	return nodes, nil
}

func flatten(path string, value any, out *[]Node) error {
	switch v := value.(type) {
	case nil:
		return nil
	case map[string]any:
		*out = append(*out, Node{Path: path, Value: Marker})
		for key, child := range v {
			if key == "" || strings.Contains(key, Separator) {
				return fmt.Errorf("%w: key %q under %q", ErrInvalidPath, key, path)
			}
			if err := flatten(path+Separator+key, child, out); err != nil {
				return err
			}
		}
		return nil
	default:
		encoded, err := json.Marshal(v)
		if err != nil {
			return err
		}
		*out = append(*out, Node{Path: path, Value: encoded})
		return nil
	}
}

// normalize round-trips value through JSON so that every map is map[string]any and
// every number is float64.
func normalize(value any) (any, error) {
	if value == nil {
		return nil, nil
	}
	raw, err := json.Marshal(value)
	if err != nil {
		return nil, err
	}
	var out any
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Assemble rebuilds the value at root from the rows at and below it. found is
// false when nodes is empty.
func Assemble(root string, nodes []Node) (any, bool, error) {
	if len(nodes) == 0 {
		return nil, false, nil
	}
	sorted := make([]Node, len(nodes))
	copy(sorted, nodes)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Path < sorted[j].Path })

	var result any
	for _, n := range sorted {
		if !InSubtree(root, n.Path) {
			continue
		}
		var leaf any
		if n.IsMarker() {
			leaf = map[string]any{}
		} else if err := json.Unmarshal(n.Value, &leaf); err != nil {
			return nil, false, fmt.Errorf("decode %s: %w", n.Path, err)
		}

		rel := strings.TrimPrefix(strings.TrimPrefix(n.Path, root), Separator)
		if rel == "" {
			if _, isMap := result.(map[string]any); !isMap {
				result = leaf
			}
			continue
		}

		parent, ok := result.(map[string]any)
		if !ok {
			parent = map[string]any{}
			result = parent
		}
		segs := strings.Split(rel, Separator)
		for _, seg := range segs[:len(segs)-1] {
			child, ok := parent[seg].(map[string]any)
			if !ok {
				child = map[string]any{}
				parent[seg] = child
			}
			parent = child
		}
		last := segs[len(segs)-1]
		if _, isMap := parent[last].(map[string]any); isMap {
			continue
		}
		parent[last] = leaf
	}
	return result, true, nil
}
