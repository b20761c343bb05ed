package domain

import (
	"context"
	"math"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/sikndrR/fitnessApp/internal/persistence/memory"
)

func TestGoalsStoreRoundTrip(t *testing.T) {
	ctx := context.Background()
	goals := NewGoalsStore(memory.New())

	got, err := goals.Get(ctx, "alice")
	require.NoError(t, err)
	require.Nil(t, got)

	want := Goals{Calories: 2000, Protein: 150, Carbs: 250, Fats: 70}
	require.NoError(t, goals.Set(ctx, "alice", want))
	got, err = goals.Get(ctx, "alice")
	require.NoError(t, err)
	require.Equal(t, &want, got)

	want.Calories = 1800
	require.NoError(t, goals.Set(ctx, "alice", want))
	got, err = goals.Get(ctx, "alice")
	require.NoError(t, err)
	require.Equal(t, 1800.0, got.Calories)
}

func TestGoalsStoreReadsStringValues(t *testing.T) {
	ctx := context.Background()
	store := memory.New()
	require.NoError(t, store.Write(ctx, "users/bob/Goals", map[string]any{"calories": "2100", "protein": "x"}))

	got, err := NewGoalsStore(store).Get(ctx, "bob")
	require.NoError(t, err)
	require.Equal(t, &Goals{Calories: 2100}, got)
	require.Equal(t, 2100.0, got.Target("Calories"))
	require.Zero(t, got.Target("Sugar"))
}

func TestGoalsRejectNonPositive(t *testing.T) {
	store := memory.New()
	err := NewGoalsStore(store).Set(context.Background(), "alice", Goals{Calories: 2000, Protein: 0, Carbs: 1, Fats: 1})
	require.ErrorIs(t, err, ErrInvalidInput)
	require.Empty(t, store.Paths())

	_, err = ParseGoals("2000", "-1", "250", "70")
	require.ErrorIs(t, err, ErrInvalidInput)
	_, err = ParseGoals("2000", "150", "", "70")
	require.ErrorIs(t, err, ErrInvalidInput)
	_, err = ParseGoals("1e400", "150", "250", "70")
	require.ErrorIs(t, err, ErrInvalidInput)
	_, err = ParseGoals("2000", "1e200000000", "250", "70")
	require.ErrorIs(t, err, ErrInvalidInput)

	err = NewGoalsStore(store).Set(context.Background(), "alice", Goals{Calories: math.Inf(1), Protein: 1, Carbs: 1, Fats: 1})
	require.ErrorIs(t, err, ErrInvalidInput)
	require.NotErrorIs(t, err, ErrStoreUnavailable)
	err = NewGoalsStore(store).Set(context.Background(), "alice", Goals{Calories: 1e300, Protein: 1, Carbs: 1, Fats: 1})
	require.ErrorIs(t, err, ErrInvalidInput)
	require.Empty(t, store.Paths())

	g, err := ParseGoals(" 2000 ", "150.5", "250", "70")
	require.NoError(t, err)
	require.Equal(t, Goals{Calories: 2000, Protein: 150.5, Carbs: 250, Fats: 70}, g)
}
