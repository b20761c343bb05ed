package memory

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/sikndrR/fitnessApp/internal/persistence/storetest"
)

func TestWriteReadNested(t *testing.T) {
	ctx := context.Background()
	s := New()

	require.NoError(t, s.Write(ctx, "users/alice/2024-05-01", map[string]any{
		"food":      map[string]any{},
		"exercises": map[string]any{},
	}))
	require.NoError(t, s.Write(ctx, "users/alice/2024-05-01/food/apple", map[string]string{"Calories": "95"}))

	v, found, err := s.Read(ctx, "users/alice/2024-05-01")
	require.NoError(t, err)
	require.True(t, found)
	require.Equal(t, map[string]any{
		"food":      map[string]any{"apple": map[string]any{"Calories": "95"}},
		"exercises": map[string]any{},
	}, v)
}

func TestReadAbsent(t *testing.T) {
	s := New()
	v, found, err := s.Read(context.Background(), "users/nobody")
	require.NoError(t, err)
	require.False(t, found)
	require.Nil(t, v)
}

func TestWriteReplacesSubtreeButKeepsSiblings(t *testing.T) {
	ctx := context.Background()
	s := New()

	require.NoError(t, s.Write(ctx, "users/a/d/food/x", map[string]any{"Calories": "1", "Protein": "2"}))
	require.NoError(t, s.Write(ctx, "users/a/d/food/y", map[string]any{"Calories": "3"}))
	require.NoError(t, s.Write(ctx, "users/a/d/food/x", map[string]any{"Calories": "9"}))

	v, _, err := s.Read(ctx, "users/a/d/food")
	require.NoError(t, err)
	require.Equal(t, map[string]any{
		"x": map[string]any{"Calories": "9"},
		"y": map[string]any{"Calories": "3"},
	}, v)
}

func TestDeleteKeepsEmptyParentMarker(t *testing.T) {
	ctx := context.Background()
	s := New()

	require.NoError(t, s.Write(ctx, "users/a/d", map[string]any{"food": map[string]any{}, "exercises": map[string]any{}}))
	require.NoError(t, s.Write(ctx, "users/a/d/food/x", map[string]any{"Calories": "1"}))
	require.NoError(t, s.Delete(ctx, "users/a/d/food/x"))
	require.NoError(t, s.Delete(ctx, "users/a/d/food/never-there"))

	v, found, err := s.Read(ctx, "users/a/d")
	require.NoError(t, err)
	require.True(t, found)
	require.Equal(t, map[string]any{"food": map[string]any{}, "exercises": map[string]any{}}, v)
}

func TestWriteUnderScalarReplacesIt(t *testing.T) {
	ctx := context.Background()
	s := New()

	require.NoError(t, s.Write(ctx, "users/a", ""))
	require.NoError(t, s.Write(ctx, "users/a/Goals", map[string]any{"calories": 2000}))

	v, _, err := s.Read(ctx, "users/a")
	require.NoError(t, err)
	require.Equal(t, map[string]any{"Goals": map[string]any{"calories": 2000.0}}, v)
	require.NotContains(t, s.Paths(), "users/a")
}

func TestWriteNilDeletes(t *testing.T) {
	ctx := context.Background()
	s := New()

	require.NoError(t, s.Write(ctx, "users/a/x", "1"))
	require.NoError(t, s.Write(ctx, "users/a/x", nil))
	_, found, err := s.Read(ctx, "users/a/x")
	require.NoError(t, err)
	require.False(t, found)
}

func TestWriteIfAbsent(t *testing.T) {
	ctx := context.Background()
	s := New()

	wrote, err := s.WriteIfAbsent(ctx, "users/a/d", map[string]any{"food": map[string]any{}})
	require.NoError(t, err)
	require.True(t, wrote)

	require.NoError(t, s.Write(ctx, "users/a/d/food/x", map[string]any{"Calories": "1"}))

	wrote, err = s.WriteIfAbsent(ctx, "users/a/d", map[string]any{"food": map[string]any{}})
	require.NoError(t, err)
	require.False(t, wrote)

	v, _, err := s.Read(ctx, "users/a/d/food/x")
	require.NoError(t, err)
	require.Equal(t, map[string]any{"Calories": "1"}, v)
}

func TestWriteIfAbsentSingleWinner(t *testing.T) {
	ctx := context.Background()
	s := New()

	var (
		wg   sync.WaitGroup
		mu   sync.Mutex
		wins int
	)
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			wrote, err := s.WriteIfAbsent(ctx, "users/a/d", map[string]any{"food": map[string]any{}})
			require.NoError(t, err)
			if wrote {
				mu.Lock()
				wins++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()
	require.Equal(t, 1, wins)
}

func TestInvalidPath(t *testing.T) {
	s := New()
	require.Error(t, s.Write(context.Background(), "users//a", "x"))
	_, _, err := s.Read(context.Background(), "")
	require.Error(t, err)
}

func TestCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	require.ErrorIs(t, New().Delete(ctx, "users/a"), context.Canceled)
}

func TestStoreContract(t *testing.T) {
	storetest.Run(t, func(t *testing.T) storetest.Store { return New() })
}
