package token_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/francopiloto/finance-api/internal/domain"
	"github.com/francopiloto/finance-api/internal/token"
)

// HS256 in go-jose requires keys of at least 32 bytes.
const (
	testSecret        = "0123456789abcdef0123456789abcdef"
	testRefreshSecret = "fedcba9876543210fedcba9876543210"
)

func newFactory() *token.Factory {
	return token.NewFactory(testSecret, testRefreshSecret, time.Hour, 24*time.Hour, 7*24*time.Hour)
}

func TestGenerateRoundTrip(t *testing.T) {
	factory := newFactory()
	account := domain.Account{ID: "acc-1", UserID: "user-1"}

	access, refresh, record, err := factory.Generate(account, "web")
	require.NoError(t, err)
	require.NotEmpty(t, access)
	require.NotEmpty(t, refresh)
	require.NotEqual(t, access, refresh)

	claims, err := factory.ParseAccess(access)
	require.NoError(t, err)
	require.Equal(t, "acc-1", claims.AccountID)
	require.Equal(t, "web", claims.Device)
	require.Equal(t, "user-1", claims.UserID)

	refreshClaims, err := factory.ParseRefresh(refresh)
	require.NoError(t, err)
	require.Equal(t, "acc-1", refreshClaims.AccountID)
	require.Equal(t, "web", refreshClaims.Device)

	require.Equal(t, "acc-1", record.AccountID)
	require.Equal(t, "web", record.Device)
	require.Equal(t, token.HashToken(refresh), record.RefreshTokenHash)
	require.WithinDuration(t, time.Now().Add(7*24*time.Hour), record.ExpiresAt, time.Minute)
}

func TestGenerateOmitsUserClaimWhenUnlinked(t *testing.T) {
	factory := newFactory()

	access, _, _, err := factory.Generate(domain.Account{ID: "acc-2"}, "mobile")
	require.NoError(t, err)

	claims, err := factory.ParseAccess(access)
	require.NoError(t, err)
	require.Empty(t, claims.UserID)
	require.Equal(t, "mobile", claims.Device)
}

func TestAccessAndRefreshSecretsAreIndependent(t *testing.T) {
	factory := newFactory()

	access, refresh, _, err := factory.Generate(domain.Account{ID: "acc-3"}, "web")
	require.NoError(t, err)

	_, err = factory.ParseAccess(refresh)
	require.Error(t, err)
	_, err = factory.ParseRefresh(access)
	require.Error(t, err)
}

func TestHashTokenDeterministicAndDistinct(t *testing.T) {
	factory := newFactory()
	account := domain.Account{ID: "acc-4"}

	_, first, _, err := factory.Generate(account, "web")
	require.NoError(t, err)
	_, second, _, err := factory.Generate(account, "web")
	require.NoError(t, err)

	require.Equal(t, token.HashToken(first), token.HashToken(first))
	require.NotEqual(t, token.HashToken(first), token.HashToken(second))
}

func TestExpiredTokenRejected(t *testing.T) {
	factory := token.NewFactory(testSecret, "", -time.Minute, -time.Minute, time.Hour)

	access, _, _, err := factory.Generate(domain.Account{ID: "acc-5"}, "web")
	require.NoError(t, err)

	_, err = factory.ParseAccess(access)
	require.Error(t, err)
}
