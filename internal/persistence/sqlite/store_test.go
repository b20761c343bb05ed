package sqlite

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/sikndrR/fitnessApp/internal/persistence/storetest"
)

func openTemp(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "ledger.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestStoreContract(t *testing.T) {
	storetest.Run(t, func(t *testing.T) storetest.Store { return openTemp(t) })
}

func TestReopenKeepsData(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "ledger.db")

	s, err := Open(path)
	require.NoError(t, err)
	require.NoError(t, s.Write(ctx, "users/a/2024-05-01", map[string]any{"food": map[string]any{}, "exercises": map[string]any{}}))
	require.NoError(t, s.Close())

	s, err = Open(path)
	require.NoError(t, err)
	defer s.Close()

	v, found, err := s.Read(ctx, "users/a/2024-05-01")
	require.NoError(t, err)
	require.True(t, found)
	require.Equal(t, map[string]any{"food": map[string]any{}, "exercises": map[string]any{}}, v)
}
