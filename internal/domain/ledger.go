package domain

import (
	"context"
	"log"
	"sort"
	"time"

	"github.com/sikndrR/fitnessApp/internal/events"
	"github.com/sikndrR/fitnessApp/internal/identity"
	"github.com/sikndrR/fitnessApp/internal/progress"
)

// Publisher receives change events after a write has been stored.
type Publisher interface {
	Publish(ctx context.Context, event events.Event) error
}

type noopPublisher struct{}

func (noopPublisher) Publish(context.Context, events.Event) error { return nil }

// Option configures optional behaviour for the Ledger.
type Option func(*Ledger)

// WithPublisher sends change events to p.
func WithPublisher(p Publisher) Option {
	return func(l *Ledger) {
		if p != nil {
			l.publisher = p
		}
	}
}

// WithLogger overrides the logger used to report publish failures.
func WithLogger(logger *log.Logger) Option {
	return func(l *Ledger) {
		l.logger = logger
	}
}

// WithClock overrides the time source used for "today" and event timestamps.
func WithClock(now func() time.Time) Option {
	return func(l *Ledger) {
		l.now = now
	}
}

// Ledger is the per-session entry point used by the API and the CLI.
type Ledger struct {
	store     Store
	dates     *Bootstrapper
	food      *Collection
	exercises *Collection
	goals     *GoalsStore
	publisher Publisher
	logger    *log.Logger
	now       func() time.Time
}

// NewLedger wires the ledger components over store.
func NewLedger(store Store, opts ...Option) *Ledger {
	l := &Ledger{
		store:     store,
		dates:     NewBootstrapper(store),
		food:      NewCollection(store, CategoryFood),
		exercises: NewCollection(store, CategoryExercises),
		goals:     NewGoalsStore(store),
		publisher: noopPublisher{},
		logger:    log.New(log.Writer(), "[ledger] ", log.LstdFlags|log.Lshortfile),
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Today is the UTC calendar date at the moment of the call.
func (l *Ledger) Today() string {
	return l.now().UTC().Format(dateLayout)
}

// Collection returns the entry collection for category.
func (l *Ledger) Collection(category Category) (*Collection, error) {
	switch category {
	case CategoryFood:
		return l.food, nil
	case CategoryExercises:
		return l.exercises, nil
	}
	return nil, invalid("category", "unknown category %q", category)
}

// Register creates the empty ledger root for a new user. An existing ledger is kept.
func (l *Ledger) Register(ctx context.Context, s identity.Session) (bool, error) {
	if err := ValidateUserKey(s.Key); err != nil {
		return false, err
	}
	path := UserPath(s.Key)
	created, err := WriteIfAbsent(ctx, l.store, path, map[string]any{})
	if err != nil {
		return false, storeErr("register", path, err)
	}
	if created {
		l.publish(ctx, events.New(events.TypeUserRegistered, s.Key, l.now(), events.UserRegistered{DisplayName: s.DisplayName}))
	}
	return created, nil
}

// EnsureDate bootstraps the date record for the session's user.
func (l *Ledger) EnsureDate(ctx context.Context, s identity.Session, date string) (bool, error) {
	created, err := l.dates.EnsureDate(ctx, s.Key, date)
	if err != nil {
		return false, err
	}
	if created {
		l.publish(ctx, events.New(events.TypeDateBootstrapped, s.Key, l.now(), events.DateBootstrapped{Date: date}))
	}
	return created, nil
}

// Upsert bootstraps date if needed and then replaces the named entry.
func (l *Ledger) Upsert(ctx context.Context, s identity.Session, category Category, date, name string, attrs Attributes) (Entry, error) {
	c, err := l.Collection(category)
	if err != nil {
		return Entry{}, err
	}
	if err := ValidateName(name); err != nil {
		return Entry{}, err
	}
	if _, err := ValidateAttributes(category, attrs); err != nil {
		return Entry{}, err
	}
	if _, err := l.EnsureDate(ctx, s, date); err != nil {
		return Entry{}, err
	}
	stored, err := c.Upsert(ctx, s.Key, date, name, attrs)
	if err != nil {
		return Entry{}, err
	}
	l.publish(ctx, events.New(events.TypeEntryUpserted, s.Key, l.now(), events.EntryUpserted{
		Date:       date,
		Category:   string(category),
		Name:       name,
		Attributes: stored,
	}))
	return Entry{Name: name, Attributes: stored}, nil
}

// Remove deletes the named entry; a missing entry is not an error.
func (l *Ledger) Remove(ctx context.Context, s identity.Session, category Category, date, name string) error {
	c, err := l.Collection(category)
	if err != nil {
		return err
	}
	if err := c.Remove(ctx, s.Key, date, name); err != nil {
		return err
	}
	l.publish(ctx, events.New(events.TypeEntryRemoved, s.Key, l.now(), events.EntryRemoved{
		Date:     date,
		Category: string(category),
		Name:     name,
	}))
	return nil
}

// List returns the entries of one collection for date, sorted by name.
func (l *Ledger) List(ctx context.Context, s identity.Session, category Category, date string) ([]Entry, error) {
	c, err := l.Collection(category)
	if err != nil {
		return nil, err
	}
	return c.List(ctx, s.Key, date)
}

// Goals returns the user's goals or nil when none are set.
func (l *Ledger) Goals(ctx context.Context, s identity.Session) (*Goals, error) {
	return l.goals.Get(ctx, s.Key)
}

// SetGoals replaces the user's goals.
func (l *Ledger) SetGoals(ctx context.Context, s identity.Session, g Goals) error {
	if err := l.goals.Set(ctx, s.Key, g); err != nil {
		return err
	}
	l.publish(ctx, events.New(events.TypeGoalsUpdated, s.Key, l.now(), events.GoalsUpdated{
		Calories: g.Calories,
		Protein:  g.Protein,
		Carbs:    g.Carbs,
		Fats:     g.Fats,
	}))
	return nil
}

// Dates lists the dates that have a record, oldest first.
func (l *Ledger) Dates(ctx context.Context, s identity.Session) ([]string, error) {
	tree, err := l.Export(ctx, s)
	if err != nil {
		return nil, err
	}
	dates := []string{}
	root, ok := tree.(map[string]any)
	if !ok {
		return dates, nil
	}
	for key := range root {
		if IsDateKey(key) {
			dates = append(dates, key)
		}
	}
	sort.Strings(dates)
	return dates, nil
}

// Export returns the user's whole ledger tree, or nil when the user has none.
func (l *Ledger) Export(ctx context.Context, s identity.Session) (Value, error) {
	if err := ValidateUserKey(s.Key); err != nil {
		return nil, err
	}
	path := UserPath(s.Key)
	value, found, err := l.store.Read(ctx, path)
	if err != nil {
		return nil, storeErr("export", path, err)
	}
	if !found {
		return nil, nil
	}
	return value, nil
}

// DaySummary is everything the daily log shows for one date.
type DaySummary struct {
	Date      string              `json:"date"`
	Food      []Entry             `json:"food"`
	Exercises []Entry             `json:"exercises"`
	Goals     *Goals              `json:"goals,omitempty"`
	Progress  []progress.Progress `json:"progress"`
}

// SummaryAttributes are the food attributes measured against goals, in display order.
var SummaryAttributes = []string{"Calories", "Protein", "Carbs", "Fats"}

// DaySummary bootstraps date, then gathers its entries, the goals and the progress
// of each macro.
func (l *Ledger) DaySummary(ctx context.Context, s identity.Session, date string) (DaySummary, error) {
	if _, err := l.EnsureDate(ctx, s, date); err != nil {
		return DaySummary{}, err
	}
	food, err := l.food.List(ctx, s.Key, date)
	if err != nil {
		return DaySummary{}, err
	}
	exercises, err := l.exercises.List(ctx, s.Key, date)
	if err != nil {
		return DaySummary{}, err
	}
	goals, err := l.goals.Get(ctx, s.Key)
	if err != nil {
		return DaySummary{}, err
	}

	rows := make([]map[string]string, 0, len(food))
	for _, e := range food {
		rows = append(rows, e.Attributes)
	}
	summary := DaySummary{
		Date:      date,
		Food:      food,
		Exercises: exercises,
		Goals:     goals,
		Progress:  make([]progress.Progress, 0, len(SummaryAttributes)),
	}
	for _, attr := range SummaryAttributes {
		var goal any
		if goals != nil {
			goal = goals.Target(attr)
		}
		summary.Progress = append(summary.Progress, progress.Calculate(rows, attr, goal))
	}
	return summary, nil
}

func (l *Ledger) publish(ctx context.Context, event events.Event) {
	if err := l.publisher.Publish(ctx, event); err != nil {
		l.logger.Printf("publish %s for %s failed: %v", event.Type, event.UserKey, err)
	}
}
