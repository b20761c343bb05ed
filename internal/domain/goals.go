package domain

import (
	"context"
	"math"
	"strconv"
	"strings"

	"github.com/sikndrR/fitnessApp/internal/progress"
)

var maxGoal = math.Pow10(progress.MaxIntegerDigits)

// Goals are a user's daily nutrition targets.
type Goals struct {
	Calories float64 `json:"calories"`
	Protein  float64 `json:"protein"`
	Carbs    float64 `json:"carbs"`
	Fats     float64 `json:"fats"`
}

// ParseGoals validates user-entered targets; each must be a positive number.
func ParseGoals(calories, protein, carbs, fats string) (Goals, error) {
	var (
		g   Goals
		err error
	)
	if g.Calories, err = parsePositive("calories", calories); err != nil {
		return Goals{}, err
	}
	if g.Protein, err = parsePositive("protein", protein); err != nil {
		return Goals{}, err
	}
	if g.Carbs, err = parsePositive("carbs", carbs); err != nil {
		return Goals{}, err
	}
	if g.Fats, err = parsePositive("fats", fats); err != nil {
		return Goals{}, err
	}
	return g, nil
}

// Validate rejects targets that are not positive finite amounts.
func (g Goals) Validate() error {
	for _, f := range []struct {
		name  string
		value float64
	}{{"calories", g.Calories}, {"protein", g.Protein}, {"carbs", g.Carbs}, {"fats", g.Fats}} {
		if !(f.value > 0) {
			return invalid(f.name, "must be greater than zero")
		}
		if math.IsInf(f.value, 0) || f.value >= maxGoal {
			return invalid(f.name, "is out of range")
		}
	}
	return nil
}

// Target returns the goal matching a food attribute name such as "Calories".
func (g Goals) Target(attribute string) float64 {
	switch strings.ToLower(attribute) {
	case "calories":
		return g.Calories
	case "protein":
		return g.Protein
	case "carbs":
		return g.Carbs
	case "fats":
		return g.Fats
	}
	return 0
}

func (g Goals) value() Value {
	return map[string]any{
		"calories": g.Calories,
		"protein":  g.Protein,
		"carbs":    g.Carbs,
		"fats":     g.Fats,
	}
}

// GoalsStore reads and replaces a user's goals.
type GoalsStore struct {
	store Store
}

// NewGoalsStore constructs a GoalsStore.
func NewGoalsStore(store Store) *GoalsStore {
	return &GoalsStore{store: store}
}

// Get returns nil when no goals have been set yet. Fields that are missing or not
// numeric in the stored record read as zero.
func (s *GoalsStore) Get(ctx context.Context, user string) (*Goals, error) {
	if err := ValidateUserKey(user); err != nil {
		return nil, err
	}
	path := GoalsPath(user)
	value, found, err := s.store.Read(ctx, path)
	if err != nil {
		return nil, storeErr("get goals", path, err)
	}
	if !found {
		return nil, nil
	}
	fields, ok := value.(map[string]any)
	if !ok {
		return nil, nil
	}
	return &Goals{
		Calories: toNumber(fields["calories"]),
		Protein:  toNumber(fields["protein"]),
		Carbs:    toNumber(fields["carbs"]),
		Fats:     toNumber(fields["fats"]),
	}, nil
}

// Set replaces the whole goals record.
func (s *GoalsStore) Set(ctx context.Context, user string, goals Goals) error {
	if err := ValidateUserKey(user); err != nil {
		return err
	}
	if err := goals.Validate(); err != nil {
		return err
	}
	path := GoalsPath(user)
	return storeErr("set goals", path, s.store.Write(ctx, path, goals.value()))
}

func toNumber(v any) float64 {
	switch t := v.(type) {
	case float64:
		return t
	case string:
		if f, err := strconv.ParseFloat(strings.TrimSpace(t), 64); err == nil {
			return f
		}
	}
	return 0
}
