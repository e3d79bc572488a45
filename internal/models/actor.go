package models

import "errors"

// ErrInvalidActor is returned when an operation is invoked without a usable identity.
var ErrInvalidActor = errors.New("actor id and role are required")

// Actor identifies who performs an operation and from where. It is built per
// request and passed explicitly to services.
type Actor struct {
	ID     int64
	Role   UserRole
	Origin string
}

// Validate checks the identity is complete.
func (a Actor) Validate() error {
	if a.ID <= 0 || a.Role == "" {
		return ErrInvalidActor
	}
	return nil
}

// HasRole reports whether the actor's role is in allowed.
func (a Actor) HasRole(allowed []UserRole) bool {
	for _, role := range allowed {
		if a.Role == role {
			return true
		}
	}
	return false
}
