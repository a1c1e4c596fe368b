package authn_test

import (
	"context"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/require"

	"github.com/francopiloto/finance-api/internal/authn"
	"github.com/francopiloto/finance-api/internal/domain"
	"github.com/francopiloto/finance-api/internal/repository"
	"github.com/francopiloto/finance-api/internal/token"
)

func newFactory() *token.Factory {
	// HS256 in go-jose requires keys of at least 32 bytes.
	return token.NewFactory("0123456789abcdef0123456789abcdef", "fedcba9876543210fedcba9876543210", time.Hour, 7*24*time.Hour, 7*24*time.Hour)
}

func TestAccessStrategyResolvesIdentity(t *testing.T) {
	factory := newFactory()
	user := domain.User{ID: "user-1", Name: "Ada"}
	account := domain.Account{ID: "acc-1", Provider: domain.ProviderLocal, Email: "user@example.com", UserID: user.ID, User: &user}
	accounts := &stubAccountRepo{accounts: map[string]domain.Account{account.ID: account}}

	access, _, _, err := factory.Generate(account, "web")
	require.NoError(t, err)

	strategy := authn.NewAccessStrategy(factory, accounts)
	identity, err := strategy.Validate(context.Background(), access)
	require.NoError(t, err)
	require.Equal(t, account.ID, identity.Account.ID)
	require.Equal(t, "web", identity.Device)
	require.NotNil(t, identity.User)
	require.Equal(t, user.ID, identity.User.ID)
}

func TestAccessStrategyRejectsTamperedToken(t *testing.T) {
	factory := newFactory()
	account := domain.Account{ID: "acc-1", Provider: domain.ProviderLocal}
	accounts := &stubAccountRepo{accounts: map[string]domain.Account{account.ID: account}}

	access, _, _, err := factory.Generate(account, "web")
	require.NoError(t, err)

	strategy := authn.NewAccessStrategy(factory, accounts)
	_, err = strategy.Validate(context.Background(), access+"x")
	require.ErrorIs(t, err, authn.ErrInvalidToken)
}

func TestAccessStrategyRejectsRefreshToken(t *testing.T) {
	factory := newFactory()
	account := domain.Account{ID: "acc-1", Provider: domain.ProviderLocal}
	accounts := &stubAccountRepo{accounts: map[string]domain.Account{account.ID: account}}

	_, refresh, _, err := factory.Generate(account, "web")
	require.NoError(t, err)

	strategy := authn.NewAccessStrategy(factory, accounts)
	_, err = strategy.Validate(context.Background(), refresh)
	require.ErrorIs(t, err, authn.ErrInvalidToken)
}

func TestAccessStrategyRejectsDeletedAccount(t *testing.T) {
	factory := newFactory()
	account := domain.Account{ID: "acc-1", Provider: domain.ProviderLocal}
	accounts := &stubAccountRepo{accounts: map[string]domain.Account{}}

	access, _, _, err := factory.Generate(account, "web")
	require.NoError(t, err)

	strategy := authn.NewAccessStrategy(factory, accounts)
	_, err = strategy.Validate(context.Background(), access)
	require.ErrorIs(t, err, authn.ErrInvalidToken)
}

func TestRefreshStrategyAcceptsStoredToken(t *testing.T) {
	factory := newFactory()
	account := domain.Account{ID: "acc-1", Provider: domain.ProviderLocal}
	accounts := &stubAccountRepo{accounts: map[string]domain.Account{account.ID: account}}

	_, refresh, record, err := factory.Generate(account, "web")
	require.NoError(t, err)
	tokens := &stubTokenRepo{records: map[string]domain.AuthToken{"acc-1|web": record}}

	strategy := authn.NewRefreshStrategy(factory, accounts, tokens)
	identity, err := strategy.Validate(context.Background(), refresh)
	require.NoError(t, err)
	require.Equal(t, "acc-1", identity.Account.ID)
	require.Equal(t, "web", identity.Device)
}

func TestRefreshStrategyRejectsRotatedToken(t *testing.T) {
	factory := newFactory()
	account := domain.Account{ID: "acc-1", Provider: domain.ProviderLocal}
	accounts := &stubAccountRepo{accounts: map[string]domain.Account{account.ID: account}}

	_, oldRefresh, _, err := factory.Generate(account, "web")
	require.NoError(t, err)
	_, _, newRecord, err := factory.Generate(account, "web")
	require.NoError(t, err)
	tokens := &stubTokenRepo{records: map[string]domain.AuthToken{"acc-1|web": newRecord}}

	strategy := authn.NewRefreshStrategy(factory, accounts, tokens)
	_, err = strategy.Validate(context.Background(), oldRefresh)
	require.ErrorIs(t, err, authn.ErrInvalidToken)
}

func TestRefreshStrategyRejectsSignedOutDevice(t *testing.T) {
	factory := newFactory()
	account := domain.Account{ID: "acc-1", Provider: domain.ProviderLocal}
	accounts := &stubAccountRepo{accounts: map[string]domain.Account{account.ID: account}}

	_, refresh, _, err := factory.Generate(account, "web")
	require.NoError(t, err)
	tokens := &stubTokenRepo{records: map[string]domain.AuthToken{}}

	strategy := authn.NewRefreshStrategy(factory, accounts, tokens)
	_, err = strategy.Validate(context.Background(), refresh)
	require.ErrorIs(t, err, authn.ErrInvalidToken)
}

func TestRefreshStrategyRejectsExpiredRecord(t *testing.T) {
	factory := newFactory()
	account := domain.Account{ID: "acc-1", Provider: domain.ProviderLocal}
	accounts := &stubAccountRepo{accounts: map[string]domain.Account{account.ID: account}}

	_, refresh, record, err := factory.Generate(account, "web")
	require.NoError(t, err)
	record.ExpiresAt = time.Now().Add(-time.Minute)
	tokens := &stubTokenRepo{records: map[string]domain.AuthToken{"acc-1|web": record}}

	strategy := authn.NewRefreshStrategy(factory, accounts, tokens)
	_, err = strategy.Validate(context.Background(), refresh)
	require.ErrorIs(t, err, authn.ErrInvalidToken)
}

type stubAccountRepo struct {
	accounts map[string]domain.Account
}

func (r *stubAccountRepo) Create(_ context.Context, account domain.Account) (domain.Account, error) {
	return account, nil
}

func (r *stubAccountRepo) FindByID(_ context.Context, id string) (domain.Account, error) {
	account, ok := r.accounts[id]
	if !ok {
		return domain.Account{}, pgx.ErrNoRows
	}
	return account, nil
}

func (r *stubAccountRepo) FindLocalByEmail(context.Context, string) (domain.Account, error) {
	return domain.Account{}, pgx.ErrNoRows
}

func (r *stubAccountRepo) FindLocalByEmailWithPassword(context.Context, string) (domain.Account, error) {
	return domain.Account{}, pgx.ErrNoRows
}

func (r *stubAccountRepo) FindByProvider(context.Context, domain.Provider, string, string) (domain.Account, error) {
	return domain.Account{}, pgx.ErrNoRows
}

func (r *stubAccountRepo) FindVerifiedLinkedByEmail(context.Context, string) (domain.Account, error) {
	return domain.Account{}, pgx.ErrNoRows
}

func (r *stubAccountRepo) FindAssignable(context.Context, string, string) ([]domain.Account, error) {
	return nil, nil
}

func (r *stubAccountRepo) AssignUser(context.Context, string, []string) error { return nil }

func (r *stubAccountRepo) UpdateLastLogin(context.Context, string, time.Time) error { return nil }

func (r *stubAccountRepo) WithTx(pgx.Tx) repository.AccountRepository { return r }

type stubTokenRepo struct {
	records map[string]domain.AuthToken
}

func (r *stubTokenRepo) Upsert(_ context.Context, record domain.AuthToken) (domain.AuthToken, error) {
	r.records[record.AccountID+"|"+record.Device] = record
	return record, nil
}

func (r *stubTokenRepo) FindByAccountDevice(_ context.Context, accountID, device string) (domain.AuthToken, error) {
	record, ok := r.records[accountID+"|"+device]
	if !ok {
		return domain.AuthToken{}, pgx.ErrNoRows
	}
	return record, nil
}

func (r *stubTokenRepo) Delete(_ context.Context, accountID, device string) error {
	delete(r.records, accountID+"|"+device)
	return nil
}

func (r *stubTokenRepo) WithTx(pgx.Tx) repository.TokenRepository { return r }
