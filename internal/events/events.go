// Package events defines the change events emitted after successful ledger writes.
package events

import (
	"time"

	"github.com/google/uuid"
)

// Event types.
const (
	TypeUserRegistered   = "ledger.user_registered"
	TypeDateBootstrapped = "ledger.date_bootstrapped"
	TypeEntryUpserted    = "ledger.entry_upserted"
	TypeEntryRemoved     = "ledger.entry_removed"
	TypeGoalsUpdated     = "ledger.goals_updated"
)

// Event is the envelope published to the change feed.
type Event struct {
	ID         string    `json:"event_id"`
	Type       string    `json:"event_type"`
	UserKey    string    `json:"user_key"`
	OccurredAt time.Time `json:"occurred_at"`
	Payload    any       `json:"payload"`
}

// New stamps an event with a fresh ID and the given time.
func New(eventType, userKey string, at time.Time, payload any) Event {
	return Event{
		ID:         uuid.NewString(),
		Type:       eventType,
		UserKey:    userKey,
		OccurredAt: at.UTC(),
		Payload:    payload,
	}
}

// DateBootstrapped is emitted when a date record is created.
type DateBootstrapped struct {
	Date string `json:"date"`
}

// EntryUpserted carries the attributes that replaced the entry.
type EntryUpserted struct {
	Date       string            `json:"date"`
	Category   string            `json:"category"`
	Name       string            `json:"name"`
	Attributes map[string]string `json:"attributes"`
}

// EntryRemoved identifies a deleted entry.
type EntryRemoved struct {
	Date     string `json:"date"`
	Category string `json:"category"`
	Name     string `json:"name"`
}

// GoalsUpdated carries the new targets.
type GoalsUpdated struct {
	Calories float64 `json:"calories"`
	Protein  float64 `json:"protein"`
	Carbs    float64 `json:"carbs"`
	Fats     float64 `json:"fats"`
}

// UserRegistered is emitted when a ledger root is created.
type UserRegistered struct {
	DisplayName string `json:"display_name,omitempty"`
}
