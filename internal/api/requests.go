package api

import (
	"encoding/json"
	"fmt"

	"github.com/sikndrR/fitnessApp/internal/domain"
)

// UpsertEntryRequest is the body of PUT /v1/dates/{date}/{category}/{name}: the
// attribute values keyed by field name. Values may be JSON strings or numbers.
type UpsertEntryRequest map[string]any

// Attributes converts the request into entry attributes as entered.
func (r UpsertEntryRequest) Attributes() (domain.Attributes, error) {
	attrs := make(domain.Attributes, len(r))
	for field, raw := range r {
		switch v := raw.(type) {
		case string:
			attrs[field] = v
		case json.Number:
			attrs[field] = v.String()
		default:
			return nil, fmt.Errorf("%s must be a string or a number", field)
		}
	}
	return attrs, nil
}

// SetGoalsRequest is the body of PUT /v1/goals. Targets may be JSON numbers or
// numeric strings.
type SetGoalsRequest struct {
	Calories json.Number `json:"calories"`
	Protein  json.Number `json:"protein"`
	Carbs    json.Number `json:"carbs"`
	Fats     json.Number `json:"fats"`
}

// Goals validates the request.
func (r SetGoalsRequest) Goals() (domain.Goals, error) {
	return domain.ParseGoals(r.Calories.String(), r.Protein.String(), r.Carbs.String(), r.Fats.String())
}

// RegisterResponse reports the ledger key bound to the caller.
type RegisterResponse struct {
	UserKey string `json:"user_key"`
	Created bool   `json:"created"`
}

// DatesResponse lists the dates that have records.
type DatesResponse struct {
	Dates []string `json:"dates"`
}

// EnsureDateResponse reports whether the date record was created.
type EnsureDateResponse struct {
	Date    string `json:"date"`
	Created bool   `json:"created"`
}

// EntriesResponse lists one collection of a date.
type EntriesResponse struct {
	Date     string         `json:"date"`
	Category string         `json:"category"`
	Entries  []domain.Entry `json:"entries"`
}

// GoalsResponse wraps the goals; Goals is null until they are set.
type GoalsResponse struct {
	Goals *domain.Goals `json:"goals"`
}

// ExportResponse carries the caller's whole ledger tree.
type ExportResponse struct {
	UserKey string       `json:"user_key"`
	Ledger  domain.Value `json:"ledger"`
}
