package domain

import "time"

// User is the application profile a person owns, reachable through one or
// more linked accounts.
type User struct {
	ID        string
	Name      string
	Email     string
	CreatedAt time.Time
	UpdatedAt time.Time
}
