package domain

import "strings"

// Separator delimits path segments.
const Separator = "/"

const (
	usersRoot  = "users"
	goalsKey   = "Goals"
	dateLayout = "2006-01-02"
)

// Category selects one of the two entry collections under a date.
type Category string

const (
	CategoryFood      Category = "food"
	CategoryExercises Category = "exercises"
)

// Categories lists every collection a bootstrapped date carries.
var Categories = []Category{CategoryFood, CategoryExercises}

// ParseCategory accepts the collection names used in paths plus "exercise" as a singular alias.
func ParseCategory(raw string) (Category, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case string(CategoryFood):
		return CategoryFood, nil
	case string(CategoryExercises), "exercise":
		return CategoryExercises, nil
	}
	return "", invalid("category", "unknown category %q", raw)
}

// Fields returns the attribute names every entry of the category must carry.
func (c Category) Fields() []string {
	switch c {
	case CategoryFood:
		return []string{"Calories", "Protein", "Fats", "Carbs"}
	case CategoryExercises:
		return []string{"Sets", "Reps", "Weight"}
	}
	return nil
}

// JoinPath builds a store path from segments.
func JoinPath(segments ...string) string {
	return strings.Join(segments, Separator)
}

// UserPath is the ledger root of one user.
func UserPath(user string) string {
	return JoinPath(usersRoot, user)
}

// GoalsPath holds the user's nutrition targets.
func GoalsPath(user string) string {
	return JoinPath(usersRoot, user, goalsKey)
}

// DatePath is the record of one calendar date.
func DatePath(user, date string) string {
	return JoinPath(usersRoot, user, date)
}

// CollectionPath addresses the food or exercises collection of a date.
func CollectionPath(user, date string, category Category) string {
	return JoinPath(usersRoot, user, date, string(category))
}

// EntryPath addresses one named entry.
func EntryPath(user, date string, category Category, name string) string {
	return JoinPath(usersRoot, user, date, string(category), name)
}
