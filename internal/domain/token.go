package domain

import "time"

// AuthToken stores the hash of the most recently issued refresh token for one
// (account, device) pair. The raw token is never persisted; the hash column
// is only loaded by queries that explicitly select it.
type AuthToken struct {
	ID               string
	AccountID        string
	Device           string
	RefreshTokenHash string
	ExpiresAt        time.Time
	CreatedAt        time.Time
	UpdatedAt        time.Time
}
