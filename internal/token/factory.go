package token

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"time"

	gojose "github.com/go-jose/go-jose/v4"
	gojwt "github.com/go-jose/go-jose/v4/jwt"
	"github.com/google/uuid"

	"github.com/francopiloto/finance-api/internal/domain"
)

// Claims are the verified contents of an access or refresh token.
type Claims struct {
	AccountID string
	Device    string
	UserID    string
}

type customClaims struct {
	UserID string `json:"userId,omitempty"`
}

// Factory mints signed access/refresh token pairs for an (account, device)
// pair and derives the storable hash of refresh tokens. It is stateless; all
// inputs come from configuration.
type Factory struct {
	secret        []byte
	refreshSecret []byte
	accessTTL     time.Duration
	refreshTTL    time.Duration
	horizon       time.Duration
}

// NewFactory constructs a token factory. refreshSecret falls back to secret
// when empty.
func NewFactory(secret, refreshSecret string, accessTTL, refreshTTL, horizon time.Duration) *Factory {
	if refreshSecret == "" {
		refreshSecret = secret
	}
	return &Factory{
		secret:        []byte(secret),
		refreshSecret: []byte(refreshSecret),
		accessTTL:     accessTTL,
		refreshTTL:    refreshTTL,
		horizon:       horizon,
	}
}

// Generate signs an access and a refresh token sharing the same payload and
// returns the refresh-token record ready for upsert. The record's ExpiresAt
// is the stored revocation horizon, independent of the JWT exp claim.
func (f *Factory) Generate(account domain.Account, device string) (string, string, domain.AuthToken, error) {
	access, err := f.sign(f.secret, account, device, f.accessTTL)
	if err != nil {
		return "", "", domain.AuthToken{}, fmt.Errorf("sign access token: %w", err)
	}

	refresh, err := f.sign(f.refreshSecret, account, device, f.refreshTTL)
	if err != nil {
		return "", "", domain.AuthToken{}, fmt.Errorf("sign refresh token: %w", err)
	}

	record := domain.AuthToken{
		AccountID:        account.ID,
		Device:           device,
		RefreshTokenHash: HashToken(refresh),
		ExpiresAt:        time.Now().UTC().Add(f.horizon),
	}

	return access, refresh, record, nil
}

// ParseAccess verifies an access token's signature and expiry.
func (f *Factory) ParseAccess(raw string) (Claims, error) {
	return parse(raw, f.secret)
}

// ParseRefresh verifies a refresh token's signature and expiry. The signature
// alone is necessary but not sufficient; callers must also match the stored
// hash for the claimed (account, device) pair.
func (f *Factory) ParseRefresh(raw string) (Claims, error) {
	return parse(raw, f.refreshSecret)
}

// HashToken returns the SHA-256 hex digest of a token. Hash equality against
// the stored record is the sole proof a presented refresh token is the most
// recently issued one for its device.
func HashToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}

func (f *Factory) sign(secret []byte, account domain.Account, device string, ttl time.Duration) (string, error) {
	signer, err := gojose.NewSigner(
		gojose.SigningKey{Algorithm: gojose.HS256, Key: secret},
		(&gojose.SignerOptions{}).WithType("JWT"),
	)
	if err != nil {
		return "", fmt.Errorf("new signer: %w", err)
	}

	now := time.Now().UTC()
	std := gojwt.Claims{
		ID:        uuid.NewString(),
		Subject:   account.ID,
		Audience:  gojwt.Audience{device},
		IssuedAt:  gojwt.NewNumericDate(now),
		NotBefore: gojwt.NewNumericDate(now),
		Expiry:    gojwt.NewNumericDate(now.Add(ttl)),
	}
	custom := customClaims{UserID: account.UserID}

	return gojwt.Signed(signer).Claims(std).Claims(custom).Serialize()
}

func parse(raw string, secret []byte) (Claims, error) {
	parsed, err := gojwt.ParseSigned(raw, []gojose.SignatureAlgorithm{gojose.HS256})
	if err != nil {
		return Claims{}, fmt.Errorf("parse token: %w", err)
	}

	var std gojwt.Claims
	var custom customClaims
	if err := parsed.Claims(secret, &std, &custom); err != nil {
		return Claims{}, fmt.Errorf("verify token: %w", err)
	}

	if err := std.Validate(gojwt.Expected{Time: time.Now().UTC()}); err != nil {
		return Claims{}, fmt.Errorf("validate claims: %w", err)
	}

	if std.Subject == "" || len(std.Audience) == 0 {
		return Claims{}, fmt.Errorf("token missing subject or audience")
	}

	return Claims{AccountID: std.Subject, Device: std.Audience[0], UserID: custom.UserID}, nil
}
