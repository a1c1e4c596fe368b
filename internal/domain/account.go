package domain

import "time"

// Provider identifies the authentication method backing an account.
type Provider string

const (
	ProviderLocal     Provider = "local"
	ProviderGoogle    Provider = "google"
	ProviderGitHub    Provider = "github"
	ProviderFacebook  Provider = "facebook"
	ProviderLinkedIn  Provider = "linkedin"
	ProviderApple     Provider = "apple"
	ProviderMicrosoft Provider = "microsoft"
	ProviderOkta      Provider = "okta"
)

// Valid reports whether the provider is one of the known values.
func (p Provider) Valid() bool {
	switch p {
	case ProviderLocal, ProviderGoogle, ProviderGitHub, ProviderFacebook,
		ProviderLinkedIn, ProviderApple, ProviderMicrosoft, ProviderOkta:
		return true
	}
	return false
}

// Account is one authentication identity for one provider. Several accounts
// may resolve to the same User once linked. The password hash is only loaded
// by queries that explicitly select it.
type Account struct {
	ID             string
	Provider       Provider
	ProviderUserID string
	Email          string
	PasswordHash   string
	AvatarURL      string
	Username       string
	Verified       bool
	UserID         string
	User           *User
	LastLoginAt    *time.Time
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// OAuthProfile is the normalized identity extracted from a provider callback.
type OAuthProfile struct {
	Provider       Provider
	ProviderUserID string
	Email          string
	AvatarURL      string
}
