// Package identity derives the storage key under which a user's ledger lives.
package identity

import (
	"errors"
	"strings"

	"github.com/sikndrR/fitnessApp/internal/auth"
)

// ErrEmptyEmail is returned when a session is requested without an email address.
var ErrEmptyEmail = errors.New("email is required")

// Normalize maps a raw email address to its canonical ledger key.
//
// Characters are copied up to the first '.' and the result is lowercased, so
// "John.Doe@x.com" and "john.smith@y.com" share the key "john". Existing ledgers are
// keyed this way and the scheme has to stay stable for them to remain reachable.
func Normalize(rawEmail string) string {
	if i := strings.IndexByte(rawEmail, '.'); i >= 0 {
		rawEmail = rawEmail[:i]
	}
	return strings.ToLower(rawEmail)
}

// Session carries the authenticated user through every ledger call.
type Session struct {
	Key         string
	Email       string
	DisplayName string
}

// NewSession normalizes the email once and binds it to the caller. The email is
// used verbatim, surrounding whitespace included, so keys match those of existing
// records.
func NewSession(email, displayName string) (Session, error) {
	if strings.TrimSpace(email) == "" {
		return Session{}, ErrEmptyEmail
	}
	key := Normalize(email)
	if key == "" {
		return Session{}, errors.New("email normalizes to an empty key")
	}
	return Session{Key: key, Email: email, DisplayName: displayName}, nil
}

// FromClaims builds the session for an authenticated request.
func FromClaims(claims *auth.Claims) (Session, error) {
	if claims == nil {
		return Session{}, ErrEmptyEmail
	}
	return NewSession(claims.Email, claims.Name)
}
