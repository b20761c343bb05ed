package domain

import (
	"context"
	"fmt"
	"sort"
	"strconv"
)

// Attributes holds an entry's values as entered, e.g. {"Calories": "95"}.
type Attributes map[string]string

// Entry is one named food or exercise record.
type Entry struct {
	Name       string     `json:"name"`
	Attributes Attributes `json:"attributes"`
}

// Collection reads and writes the entries of one category under a user's dates.
type Collection struct {
	store    Store
	category Category
}

// NewCollection constructs a Collection for category.
func NewCollection(store Store, category Category) *Collection {
	return &Collection{store: store, category: category}
}

// Category reports which collection this is.
func (c *Collection) Category() Category { return c.category }

// Upsert writes attrs under name, replacing any entry of that name wholesale.
// Attributes are validated before anything is written.
func (c *Collection) Upsert(ctx context.Context, user, date, name string, attrs Attributes) (Attributes, error) {
	if err := c.validateScope(user, date); err != nil {
		return nil, err
	}
	if err := ValidateName(name); err != nil {
		return nil, err
	}
	clean, err := ValidateAttributes(c.category, attrs)
	if err != nil {
		return nil, err
	}

	value := make(map[string]any, len(clean))
	for k, v := range clean {
		value[k] = v
	}
	path := EntryPath(user, date, c.category, name)
	if err := c.store.Write(ctx, path, value); err != nil {
		return nil, storeErr("upsert", path, err)
	}
	return clean, nil
}

// Remove deletes the named entry. Removing a name that is not there succeeds.
func (c *Collection) Remove(ctx context.Context, user, date, name string) error {
	if err := c.validateScope(user, date); err != nil {
		return err
	}
	if err := ValidateName(name); err != nil {
		return err
	}
	path := EntryPath(user, date, c.category, name)
	return storeErr("remove", path, c.store.Delete(ctx, path))
}

// List returns the entries of the collection sorted by name. A missing date or
// collection yields an empty slice.
func (c *Collection) List(ctx context.Context, user, date string) ([]Entry, error) {
	if err := c.validateScope(user, date); err != nil {
		return nil, err
	}
	path := CollectionPath(user, date, c.category)
	value, found, err := c.store.Read(ctx, path)
	if err != nil {
		return nil, storeErr("list", path, err)
	}
	entries := []Entry{}
	if !found {
		return entries, nil
	}
	children, ok := value.(map[string]any)
	if !ok {
		// Legacy records stored an empty string for a fresh collection.
		return entries, nil
	}
	for name, raw := range children {
		entries = append(entries, Entry{Name: name, Attributes: toAttributes(raw)})
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].Name < entries[j].Name })
	return entries, nil
}

func (c *Collection) validateScope(user, date string) error {
	if err := ValidateUserKey(user); err != nil {
		return err
	}
	return ValidateDate(date)
}

func toAttributes(raw any) Attributes {
	attrs := Attributes{}
	fields, ok := raw.(map[string]any)
	if !ok {
		return attrs
	}
	for k, v := range fields {
		attrs[k] = stringify(v)
	}
	return attrs
}

func stringify(v any) string {
	switch t := v.(type) {
	case string:
		return t
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case nil:
		return ""
	default:
		return fmt.Sprint(t)
	}
}
