package events

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestNewStampsIDAndUTC(t *testing.T) {
	at := time.Date(2024, 5, 1, 20, 0, 0, 0, time.FixedZone("UTC-4", -4*3600))

	a := New(TypeDateBootstrapped, "alice", at, DateBootstrapped{Date: "2024-05-02"})
	b := New(TypeDateBootstrapped, "alice", at, DateBootstrapped{Date: "2024-05-02"})
	require.NotEqual(t, a.ID, b.ID)
	require.Equal(t, time.UTC, a.OccurredAt.Location())
	require.True(t, at.Equal(a.OccurredAt))

	raw, err := json.Marshal(a)
	require.NoError(t, err)
	require.JSONEq(t, `{
		"event_id": "`+a.ID+`",
		"event_type": "ledger.date_bootstrapped",
		"user_key": "alice",
		"occurred_at": "2024-05-02T00:00:00Z",
		"payload": {"date": "2024-05-02"}
	}`, string(raw))
}
