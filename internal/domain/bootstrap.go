package domain

import "context"

// Bootstrapper makes sure a date record exists before entries are read or written under it.
type Bootstrapper struct {
	store Store
}

// NewBootstrapper constructs a Bootstrapper.
func NewBootstrapper(store Store) *Bootstrapper {
	return &Bootstrapper{store: store}
}

// emptyDay is the shape of a freshly bootstrapped date. It is identical for every
// caller, which is what makes a lost check-then-set race harmless.
func emptyDay() Value {
	day := make(map[string]any, len(Categories))
	for _, c := range Categories {
		day[string(c)] = map[string]any{}
	}
	return day
}

// EnsureDate creates users/{user}/{date} with empty collections when it is missing
// and reports whether it did. An existing record is left untouched.
func (b *Bootstrapper) EnsureDate(ctx context.Context, user, date string) (bool, error) {
	if err := ValidateUserKey(user); err != nil {
		return false, err
	}
	if err := ValidateDate(date); err != nil {
		return false, err
	}
	path := DatePath(user, date)
	created, err := WriteIfAbsent(ctx, b.store, path, emptyDay())
	if err != nil {
		return false, storeErr("ensure date", path, err)
	}
	return created, nil
}
