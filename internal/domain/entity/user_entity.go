package entity

import (
	"time"
)

// User is the aggregate root for the account domain.
// Password holds a bcrypt hash; the plaintext is never persisted.
// FirstName, LastName, Image and Color stay nil until the account
// finishes profile setup.
type User struct {
	ID           string
	Email        string
	Password     string
	FirstName    *string
	LastName     *string
	Image        *string
	Color        *int
	ProfileSetup bool
	CreatedAt    time.Time
	UpdatedAt    time.Time
}
