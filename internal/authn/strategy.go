// Package authn validates bearer tokens and resolves the calling identity.
package authn

import (
	"context"
	"crypto/subtle"
	"errors"
	"time"

	"github.com/francopiloto/finance-api/internal/domain"
	"github.com/francopiloto/finance-api/internal/repository"
	"github.com/francopiloto/finance-api/internal/token"
)

// ErrInvalidToken covers every validation failure so callers cannot tell a
// forged token from a revoked one.
var ErrInvalidToken = errors.New("invalid token")

// Identity is the authenticated caller resolved from a token.
type Identity struct {
	Account domain.Account
	User    *domain.User
	Device  string
}

// AccessStrategy validates access tokens by signature and expiry.
type AccessStrategy struct {
	factory  *token.Factory
	accounts repository.AccountRepository
}

func NewAccessStrategy(factory *token.Factory, accounts repository.AccountRepository) *AccessStrategy {
	return &AccessStrategy{factory: factory, accounts: accounts}
}

func (s *AccessStrategy) Validate(ctx context.Context, raw string) (Identity, error) {
	claims, err := s.factory.ParseAccess(raw)
	if err != nil {
		return Identity{}, ErrInvalidToken
	}

	account, err := s.accounts.FindByID(ctx, claims.AccountID)
	if err != nil {
		return Identity{}, ErrInvalidToken
	}

	return Identity{Account: account, User: account.User, Device: claims.Device}, nil
}

// RefreshStrategy validates refresh tokens by signature and by the stored
// hash for the (account, device) pair, so a signed-out or rotated token is
// rejected even while its signature is still valid.
type RefreshStrategy struct {
	factory  *token.Factory
	accounts repository.AccountRepository
	tokens   repository.TokenRepository
}

func NewRefreshStrategy(factory *token.Factory, accounts repository.AccountRepository, tokens repository.TokenRepository) *RefreshStrategy {
	return &RefreshStrategy{factory: factory, accounts: accounts, tokens: tokens}
}

func (s *RefreshStrategy) Validate(ctx context.Context, raw string) (Identity, error) {
	claims, err := s.factory.ParseRefresh(raw)
	if err != nil {
		return Identity{}, ErrInvalidToken
	}

	record, err := s.tokens.FindByAccountDevice(ctx, claims.AccountID, claims.Device)
	if err != nil {
		return Identity{}, ErrInvalidToken
	}
	if time.Now().After(record.ExpiresAt) {
		return Identity{}, ErrInvalidToken
	}

	hash := token.HashToken(raw)
	if subtle.ConstantTimeCompare([]byte(hash), []byte(record.RefreshTokenHash)) != 1 {
		return Identity{}, ErrInvalidToken
	}

	account, err := s.accounts.FindByID(ctx, claims.AccountID)
	if err != nil {
		return Identity{}, ErrInvalidToken
	}

	return Identity{Account: account, User: account.User, Device: claims.Device}, nil
}
