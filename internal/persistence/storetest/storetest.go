// Package storetest holds the behaviour every Store backend must share.
package storetest

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
)

// Store mirrors domain.Store plus the conditional write all backends implement.
type Store interface {
	Read(ctx context.Context, path string) (any, bool, error)
	Write(ctx context.Context, path string, value any) error
	Delete(ctx context.Context, path string) error
	WriteIfAbsent(ctx context.Context, path string, value any) (bool, error)
}

// Run exercises a fresh store from newStore for every subtest.
func Run(t *testing.T, newStore func(t *testing.T) Store) {
	t.Helper()

	t.Run("ReadAbsent", func(t *testing.T) {
		s := newStore(t)
		v, found, err := s.Read(context.Background(), "users/nobody/2024-01-01")
		require.NoError(t, err)
		require.False(t, found)
		require.Nil(t, v)
	})

	t.Run("WriteReadRoundTrip", func(t *testing.T) {
		ctx := context.Background()
		s := newStore(t)
		attrs := map[string]any{"Calories": "95", "Protein": "0", "Fats": "0", "Carbs": "25"}
		require.NoError(t, s.Write(ctx, "users/alice/2024-05-01/food/Apple", attrs))

		v, found, err := s.Read(ctx, "users/alice/2024-05-01/food")
		require.NoError(t, err)
		require.True(t, found)
		require.Equal(t, map[string]any{"Apple": attrs}, v)
	})

	t.Run("WriteOverwritesWholesale", func(t *testing.T) {
		ctx := context.Background()
		s := newStore(t)
		require.NoError(t, s.Write(ctx, "users/a/Goals", map[string]any{"calories": 1800.0, "protein": 90.0}))
		require.NoError(t, s.Write(ctx, "users/a/Goals", map[string]any{"calories": 2000.0}))

		v, _, err := s.Read(ctx, "users/a/Goals")
		require.NoError(t, err)
		require.Equal(t, map[string]any{"calories": 2000.0}, v)
	})

	t.Run("WriteLeavesSiblings", func(t *testing.T) {
		ctx := context.Background()
		s := newStore(t)
		require.NoError(t, s.Write(ctx, "users/a/d/food/x", map[string]any{"Calories": "1"}))
		require.NoError(t, s.Write(ctx, "users/a/d/exercises/squat", map[string]any{"Sets": "3"}))
		require.NoError(t, s.Write(ctx, "users/a/d/food/x", map[string]any{"Calories": "2"}))

		v, _, err := s.Read(ctx, "users/a/d/exercises/squat")
		require.NoError(t, err)
		require.Equal(t, map[string]any{"Sets": "3"}, v)
	})

	t.Run("PrefixIsNotAncestor", func(t *testing.T) {
		ctx := context.Background()
		s := newStore(t)
		require.NoError(t, s.Write(ctx, "users/ann", map[string]any{"k": "1"}))
		require.NoError(t, s.Write(ctx, "users/anna", map[string]any{"k": "2"}))
		require.NoError(t, s.Delete(ctx, "users/ann"))

		_, found, err := s.Read(ctx, "users/ann")
		require.NoError(t, err)
		require.False(t, found)
		v, found, err := s.Read(ctx, "users/anna")
		require.NoError(t, err)
		require.True(t, found)
		require.Equal(t, map[string]any{"k": "2"}, v)
	})

	t.Run("DeleteSubtreeAndAbsent", func(t *testing.T) {
		ctx := context.Background()
		s := newStore(t)
		require.NoError(t, s.Write(ctx, "users/a/d", map[string]any{"food": map[string]any{}, "exercises": map[string]any{}}))
		require.NoError(t, s.Write(ctx, "users/a/d/food/x", map[string]any{"Calories": "1"}))
		require.NoError(t, s.Delete(ctx, "users/a/d/food/x"))
		require.NoError(t, s.Delete(ctx, "users/a/d/food/x"))

		v, found, err := s.Read(ctx, "users/a/d")
		require.NoError(t, err)
		require.True(t, found)
		require.Equal(t, map[string]any{"food": map[string]any{}, "exercises": map[string]any{}}, v)

		require.NoError(t, s.Delete(ctx, "users/a"))
		_, found, err = s.Read(ctx, "users/a/d/food")
		require.NoError(t, err)
		require.False(t, found)
	})

	t.Run("WriteUnderScalarAncestor", func(t *testing.T) {
		ctx := context.Background()
		s := newStore(t)
		require.NoError(t, s.Write(ctx, "users/a", ""))
		require.NoError(t, s.Write(ctx, "users/a/Goals", map[string]any{"calories": 1500.0}))

		v, _, err := s.Read(ctx, "users/a")
		require.NoError(t, err)
		require.Equal(t, map[string]any{"Goals": map[string]any{"calories": 1500.0}}, v)
	})

	t.Run("WriteIfAbsent", func(t *testing.T) {
		ctx := context.Background()
		s := newStore(t)
		day := map[string]any{"food": map[string]any{}, "exercises": map[string]any{}}

		wrote, err := s.WriteIfAbsent(ctx, "users/a/2024-05-01", day)
		require.NoError(t, err)
		require.True(t, wrote)
		require.NoError(t, s.Write(ctx, "users/a/2024-05-01/food/x", map[string]any{"Calories": "1"}))

		wrote, err = s.WriteIfAbsent(ctx, "users/a/2024-05-01", day)
		require.NoError(t, err)
		require.False(t, wrote)

		v, _, err := s.Read(ctx, "users/a/2024-05-01/food")
		require.NoError(t, err)
		require.Equal(t, map[string]any{"x": map[string]any{"Calories": "1"}}, v)
	})

	t.Run("ScalarValues", func(t *testing.T) {
		ctx := context.Background()
		s := newStore(t)
		require.NoError(t, s.Write(ctx, "users/a/flag", true))
		require.NoError(t, s.Write(ctx, "users/a/n", 42))

		v, _, err := s.Read(ctx, "users/a")
		require.NoError(t, err)
		require.Equal(t, map[string]any{"flag": true, "n": 42.0}, v)
	})
}
