package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/sikndrR/fitnessApp/internal/auth"
	"github.com/sikndrR/fitnessApp/internal/domain"
	"github.com/sikndrR/fitnessApp/internal/persistence/memory"
)

var fixedNow = time.Date(2024, time.May, 1, 22, 30, 0, 0, time.UTC)

func newTestMux(store domain.Store) *http.ServeMux {
	ledger := domain.NewLedger(store,
		domain.WithClock(func() time.Time { return fixedNow }),
		domain.WithLogger(log.New(io.Discard, "", 0)),
	)
	mux := http.NewServeMux()
	NewHandler(ledger, WithLogger(log.New(io.Discard, "", 0)), WithStoreTimeout(time.Second)).RegisterRoutes(mux)
	return mux
}

func writerClaims() *auth.Claims {
	return &auth.Claims{
		Subject:   "tester",
		Email:     "Jane.Roe@example.com",
		Name:      "Jane",
		Scopes:    auth.NewScopes(auth.ScopeLedgerRead, auth.ScopeLedgerWrite),
		ExpiresAt: time.Now().Add(time.Hour),
	}
}

func do(t *testing.T, mux http.Handler, claims *auth.Claims, method, target string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, target, reader)
	if claims != nil {
		req = req.WithContext(auth.WithClaims(req.Context(), claims))
	}
	rr := httptest.NewRecorder()
	mux.ServeHTTP(rr, req)
	return rr
}

func decode[T any](t *testing.T, rr *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &out), rr.Body.String())
	return out
}

func TestRegisterIsIdempotent(t *testing.T) {
	mux := newTestMux(memory.New())

	rr := do(t, mux, writerClaims(), http.MethodPost, "/v1/register", nil)
	require.Equal(t, http.StatusCreated, rr.Code)
	resp := decode[RegisterResponse](t, rr)
	require.Equal(t, "jane", resp.UserKey)
	require.True(t, resp.Created)

	rr = do(t, mux, writerClaims(), http.MethodPost, "/v1/register", nil)
	require.Equal(t, http.StatusOK, rr.Code)
	require.False(t, decode[RegisterResponse](t, rr).Created)
}

func TestUpsertListAndRemoveFood(t *testing.T) {
	mux := newTestMux(memory.New())
	claims := writerClaims()

	rr := do(t, mux, claims, http.MethodPut, "/v1/dates/2024-05-01/food/Apple", map[string]any{
		"Calories": 95, "Protein": "0.5", "Fats": "0.3", "Carbs": 25,
	})
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	entry := decode[domain.Entry](t, rr)
	require.Equal(t, "Apple", entry.Name)
	require.Equal(t, "95", entry.Attributes["Calories"])

	rr = do(t, mux, claims, http.MethodGet, "/v1/dates/2024-05-01/food", nil)
	require.Equal(t, http.StatusOK, rr.Code)
	list := decode[EntriesResponse](t, rr)
	require.Len(t, list.Entries, 1)
	require.Equal(t, domain.Attributes{"Calories": "95", "Protein": "0.5", "Fats": "0.3", "Carbs": "25"}, list.Entries[0].Attributes)

	rr = do(t, mux, claims, http.MethodGet, "/v1/dates/2024-05-01/exercise", nil)
	require.Equal(t, http.StatusOK, rr.Code)
	exercises := decode[EntriesResponse](t, rr)
	require.Equal(t, "exercises", exercises.Category)
	require.Empty(t, exercises.Entries)

	rr = do(t, mux, claims, http.MethodDelete, "/v1/dates/2024-05-01/food/Apple", nil)
	require.Equal(t, http.StatusNoContent, rr.Code)
	rr = do(t, mux, claims, http.MethodDelete, "/v1/dates/2024-05-01/food/Apple", nil)
	require.Equal(t, http.StatusNoContent, rr.Code)

	rr = do(t, mux, claims, http.MethodGet, "/v1/dates/2024-05-01/food", nil)
	require.Empty(t, decode[EntriesResponse](t, rr).Entries)

	rr = do(t, mux, claims, http.MethodGet, "/v1/dates", nil)
	require.Equal(t, []string{"2024-05-01"}, decode[DatesResponse](t, rr).Dates)
}

func TestUpsertRejectsInvalidInputWithoutWriting(t *testing.T) {
	store := memory.New()
	mux := newTestMux(store)
	claims := writerClaims()

	cases := []struct {
		name   string
		target string
		body   any
	}{
		{"missing field", "/v1/dates/2024-05-01/exercises/Squat", map[string]any{"Sets": "3", "Reps": "5"}},
		{"negative", "/v1/dates/2024-05-01/exercises/Squat", map[string]any{"Sets": "3", "Reps": "5", "Weight": "-1"}},
		{"not a number", "/v1/dates/2024-05-01/exercises/Squat", map[string]any{"Sets": "x", "Reps": "5", "Weight": "60"}},
		{"bool value", "/v1/dates/2024-05-01/exercises/Squat", map[string]any{"Sets": true, "Reps": "5", "Weight": "60"}},
		{"bad date", "/v1/dates/2024-13-01/exercises/Squat", map[string]any{"Sets": "3", "Reps": "5", "Weight": "60"}},
		{"bad category", "/v1/dates/2024-05-01/drinks/Water", map[string]any{"Sets": "3", "Reps": "5", "Weight": "60"}},
		{"reserved char", "/v1/dates/2024-05-01/exercises/Squat.v2", map[string]any{"Sets": "3", "Reps": "5", "Weight": "60"}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rr := do(t, mux, claims, http.MethodPut, tc.target, tc.body)
			require.Equal(t, http.StatusBadRequest, rr.Code, rr.Body.String())
			require.Equal(t, "validation_failed", decode[map[string]string](t, rr)["type"])
		})
	}
	require.Empty(t, store.Paths())
}

func TestGoalsLifecycle(t *testing.T) {
	mux := newTestMux(memory.New())
	claims := writerClaims()

	rr := do(t, mux, claims, http.MethodGet, "/v1/goals", nil)
	require.Equal(t, http.StatusOK, rr.Code)
	require.Nil(t, decode[GoalsResponse](t, rr).Goals)

	rr = do(t, mux, claims, http.MethodPut, "/v1/goals", map[string]any{"calories": 2000, "protein": "150", "carbs": 250, "fats": 70})
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())

	rr = do(t, mux, claims, http.MethodGet, "/v1/goals", nil)
	require.Equal(t, &domain.Goals{Calories: 2000, Protein: 150, Carbs: 250, Fats: 70}, decode[GoalsResponse](t, rr).Goals)

	rr = do(t, mux, claims, http.MethodPut, "/v1/goals", map[string]any{"calories": 0, "protein": 1, "carbs": 1, "fats": 1})
	require.Equal(t, http.StatusBadRequest, rr.Code)

	rr = do(t, mux, claims, http.MethodPut, "/v1/goals", map[string]any{"calories": 1800})
	require.Equal(t, http.StatusBadRequest, rr.Code)

	rr = do(t, mux, claims, http.MethodPut, "/v1/goals", map[string]any{"calories": json.Number("1e400"), "protein": 1, "carbs": 1, "fats": 1})
	require.Equal(t, http.StatusBadRequest, rr.Code)
	require.Contains(t, rr.Body.String(), "validation_failed")
}

func TestDaySummaryForToday(t *testing.T) {
	mux := newTestMux(memory.New())
	claims := writerClaims()

	rr := do(t, mux, claims, http.MethodPut, "/v1/goals", map[string]any{"calories": 2000, "protein": 100, "carbs": 250, "fats": 70})
	require.Equal(t, http.StatusOK, rr.Code)
	for name, calories := range map[string]string{"Oats": "1500", "Pasta": "800"} {
		rr = do(t, mux, claims, http.MethodPut, "/v1/dates/today/food/"+name, map[string]any{
			"Calories": calories, "Protein": "10", "Fats": "5", "Carbs": "abc",
		})
		require.Equal(t, http.StatusBadRequest, rr.Code)
		rr = do(t, mux, claims, http.MethodPut, "/v1/dates/today/food/"+name, map[string]any{
			"Calories": calories, "Protein": "10", "Fats": "5", "Carbs": "30",
		})
		require.Equal(t, http.StatusOK, rr.Code)
	}

	rr = do(t, mux, claims, http.MethodGet, "/v1/dates/today/summary", nil)
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	summary := decode[domain.DaySummary](t, rr)
	require.Equal(t, "2024-05-01", summary.Date)
	require.Len(t, summary.Food, 2)
	require.Len(t, summary.Progress, 4)

	calories := summary.Progress[0]
	require.Equal(t, "Calories", calories.Attribute)
	require.Equal(t, 2300.0, calories.Current)
	require.Equal(t, 2000.0, calories.DisplayCurrent)
	require.Equal(t, 1.0, calories.Ratio)

	protein := summary.Progress[1]
	require.Equal(t, 20.0, protein.Current)
	require.InDelta(t, 0.2, protein.Ratio, 1e-9)
}

func TestEnsureDateAndExport(t *testing.T) {
	mux := newTestMux(memory.New())
	claims := writerClaims()

	rr := do(t, mux, claims, http.MethodPut, "/v1/dates/2024-04-30", nil)
	require.Equal(t, http.StatusCreated, rr.Code)
	rr = do(t, mux, claims, http.MethodPut, "/v1/dates/2024-04-30", nil)
	require.Equal(t, http.StatusOK, rr.Code)

	rr = do(t, mux, claims, http.MethodGet, "/v1/export", nil)
	require.Equal(t, http.StatusOK, rr.Code)
	require.JSONEq(t, `{"user_key":"jane","ledger":{"2024-04-30":{"food":{},"exercises":{}}}}`, rr.Body.String())
}

func TestAuthorization(t *testing.T) {
	mux := newTestMux(memory.New())

	rr := do(t, mux, nil, http.MethodGet, "/v1/goals", nil)
	require.Equal(t, http.StatusUnauthorized, rr.Code)

	reader := writerClaims()
	reader.Scopes = auth.NewScopes(auth.ScopeLedgerRead)
	rr = do(t, mux, reader, http.MethodGet, "/v1/goals", nil)
	require.Equal(t, http.StatusOK, rr.Code)
	rr = do(t, mux, reader, http.MethodPut, "/v1/dates/2024-05-01", nil)
	require.Equal(t, http.StatusForbidden, rr.Code)

	noEmail := writerClaims()
	noEmail.Email = ""
	rr = do(t, mux, noEmail, http.MethodGet, "/v1/goals", nil)
	require.Equal(t, http.StatusUnauthorized, rr.Code)
}

type unavailableStore struct{}

func (unavailableStore) Read(context.Context, string) (domain.Value, bool, error) {
	return nil, false, errors.New("dial tcp: connection refused")
}

func (unavailableStore) Write(context.Context, string, domain.Value) error {
	return errors.New("dial tcp: connection refused")
}

func (unavailableStore) Delete(context.Context, string) error {
	return errors.New("dial tcp: connection refused")
}

func TestStoreFailureMapsToUnavailable(t *testing.T) {
	mux := newTestMux(unavailableStore{})

	rr := do(t, mux, writerClaims(), http.MethodGet, "/v1/dates/2024-05-01/food", nil)
	require.Equal(t, http.StatusServiceUnavailable, rr.Code)
	require.Equal(t, "store_unavailable", decode[map[string]string](t, rr)["type"])

	rr = do(t, mux, writerClaims(), http.MethodPut, "/v1/dates/2024-05-01/food/Apple", map[string]any{
		"Calories": "95", "Protein": "0", "Fats": "0", "Carbs": "25",
	})
	require.Equal(t, http.StatusServiceUnavailable, rr.Code)
}

func TestHealthz(t *testing.T) {
	rr := do(t, newTestMux(memory.New()), nil, http.MethodGet, "/healthz", nil)
	require.Equal(t, http.StatusOK, rr.Code)
	require.Equal(t, "ok", rr.Body.String())
}
