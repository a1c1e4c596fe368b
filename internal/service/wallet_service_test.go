package service_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/francopiloto/finance-api/internal/domain"
	"github.com/francopiloto/finance-api/internal/service"
)

func newWalletFixture() (*service.WalletService, *fakeWalletRepo) {
	wallets := newFakeWalletRepo()
	return service.NewWalletService(wallets, zap.NewNop()), wallets
}

func TestWalletCreateDuplicateName(t *testing.T) {
	svc, _ := newWalletFixture()

	_, err := svc.Create(context.Background(), domain.Wallet{UserID: "user-1", Name: "Savings"})
	require.NoError(t, err)

	_, err = svc.Create(context.Background(), domain.Wallet{UserID: "user-1", Name: "Savings"})
	apiErr := apiError(t, err)
	require.Equal(t, "wallet_name_in_use", apiErr.Code)
	require.Equal(t, 409, apiErr.Status)

	_, err = svc.Create(context.Background(), domain.Wallet{UserID: "user-2", Name: "Savings"})
	require.NoError(t, err)
}

func TestWalletGetScopedToOwner(t *testing.T) {
	svc, _ := newWalletFixture()

	wallet, err := svc.Create(context.Background(), domain.Wallet{UserID: "user-1", Name: "Savings"})
	require.NoError(t, err)

	got, err := svc.Get(context.Background(), "user-1", wallet.ID)
	require.NoError(t, err)
	require.Equal(t, wallet.ID, got.ID)

	_, err = svc.Get(context.Background(), "user-2", wallet.ID)
	apiErr := apiError(t, err)
	require.Equal(t, 404, apiErr.Status)
}

func TestWalletUpdateRename(t *testing.T) {
	svc, _ := newWalletFixture()

	wallet, err := svc.Create(context.Background(), domain.Wallet{UserID: "user-1", Name: "Savings"})
	require.NoError(t, err)
	_, err = svc.Create(context.Background(), domain.Wallet{UserID: "user-1", Name: "Daily"})
	require.NoError(t, err)

	wallet.Name = "Emergency"
	updated, err := svc.Update(context.Background(), wallet)
	require.NoError(t, err)
	require.Equal(t, "Emergency", updated.Name)

	wallet.Name = "Daily"
	_, err = svc.Update(context.Background(), wallet)
	apiErr := apiError(t, err)
	require.Equal(t, "wallet_name_in_use", apiErr.Code)
}

func TestWalletDelete(t *testing.T) {
	svc, wallets := newWalletFixture()

	wallet, err := svc.Create(context.Background(), domain.Wallet{UserID: "user-1", Name: "Savings"})
	require.NoError(t, err)

	require.NoError(t, svc.Delete(context.Background(), "user-1", wallet.ID))
	require.Empty(t, wallets.wallets)

	err = svc.Delete(context.Background(), "user-1", wallet.ID)
	apiErr := apiError(t, err)
	require.Equal(t, 404, apiErr.Status)
}
