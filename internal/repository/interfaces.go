package repository

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/francopiloto/finance-api/internal/domain"
)

// DB is the subset of pgx querying shared by *pgxpool.Pool and pgx.Tx, so the
// same repository code runs inside and outside transactions.
type DB interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// TxBeginner opens transactions; satisfied by *pgxpool.Pool.
type TxBeginner interface {
	Begin(ctx context.Context) (pgx.Tx, error)
}

// AccountRepository exposes persistence for authentication identities.
type AccountRepository interface {
	Create(ctx context.Context, account domain.Account) (domain.Account, error)
	FindByID(ctx context.Context, id string) (domain.Account, error)
	FindLocalByEmail(ctx context.Context, email string) (domain.Account, error)
	FindLocalByEmailWithPassword(ctx context.Context, email string) (domain.Account, error)
	FindByProvider(ctx context.Context, provider domain.Provider, providerUserID, email string) (domain.Account, error)
	FindVerifiedLinkedByEmail(ctx context.Context, email string) (domain.Account, error)
	FindAssignable(ctx context.Context, email, excludeAccountID string) ([]domain.Account, error)
	AssignUser(ctx context.Context, userID string, accountIDs []string) error
	UpdateLastLogin(ctx context.Context, id string, at time.Time) error
	WithTx(tx pgx.Tx) AccountRepository
}

// TokenRepository handles per-device refresh-token hash records.
type TokenRepository interface {
	Upsert(ctx context.Context, record domain.AuthToken) (domain.AuthToken, error)
	FindByAccountDevice(ctx context.Context, accountID, device string) (domain.AuthToken, error)
	Delete(ctx context.Context, accountID, device string) error
	WithTx(tx pgx.Tx) TokenRepository
}

// UserRepository exposes persistence for user profiles.
type UserRepository interface {
	Create(ctx context.Context, user domain.User) (domain.User, error)
	FindByID(ctx context.Context, id string) (domain.User, error)
	FindByEmail(ctx context.Context, email string) (domain.User, error)
	Update(ctx context.Context, user domain.User) (domain.User, error)
	Delete(ctx context.Context, id string) error
	WithTx(tx pgx.Tx) UserRepository
}

// WalletRepository stores user wallets.
type WalletRepository interface {
	Create(ctx context.Context, wallet domain.Wallet) (domain.Wallet, error)
	ListByUser(ctx context.Context, userID string) ([]domain.Wallet, error)
	FindByID(ctx context.Context, userID, id string) (domain.Wallet, error)
	Update(ctx context.Context, wallet domain.Wallet) (domain.Wallet, error)
	Delete(ctx context.Context, userID, id string) error
}

// ExpenseGroupRepository stores expense groups; groups without a creator are
// shared defaults visible to everyone.
type ExpenseGroupRepository interface {
	Create(ctx context.Context, group domain.ExpenseGroup) (domain.ExpenseGroup, error)
	ListVisible(ctx context.Context, userID string) ([]domain.ExpenseGroup, error)
	FindOwned(ctx context.Context, userID, id string) (domain.ExpenseGroup, error)
	FindVisible(ctx context.Context, userID, id string) (domain.ExpenseGroup, error)
	Update(ctx context.Context, group domain.ExpenseGroup) (domain.ExpenseGroup, error)
	Delete(ctx context.Context, id string) error
	HasExpenses(ctx context.Context, groupID string) (bool, error)
	WithTx(tx pgx.Tx) ExpenseGroupRepository
}

// PaymentMethodRepository stores user payment methods.
type PaymentMethodRepository interface {
	Create(ctx context.Context, method domain.PaymentMethod) (domain.PaymentMethod, error)
	ListByUser(ctx context.Context, userID string) ([]domain.PaymentMethod, error)
	FindByID(ctx context.Context, userID, id string) (domain.PaymentMethod, error)
	Update(ctx context.Context, method domain.PaymentMethod) (domain.PaymentMethod, error)
	Delete(ctx context.Context, id string) error
	HasInstallments(ctx context.Context, methodID string) (bool, error)
	WithTx(tx pgx.Tx) PaymentMethodRepository
}

// InstallmentFilter narrows installment listings.
type InstallmentFilter struct {
	ExpenseID       string
	Status          domain.InstallmentStatus
	BillingMonth    *time.Time
	PaymentMethodID string
	PaidAt          *time.Time
	PaidAtFrom      *time.Time
	PaidAtTo        *time.Time
	Page            int
	PageSize        int
}

// ExpenseRepository stores expenses and their installments.
type ExpenseRepository interface {
	Create(ctx context.Context, expense domain.Expense) (domain.Expense, error)
	FindByID(ctx context.Context, userID, id string) (domain.Expense, error)
	FindByIDWithInstallments(ctx context.Context, userID, id string) (domain.Expense, error)
	Update(ctx context.Context, expense domain.Expense) (domain.Expense, error)
	Delete(ctx context.Context, id string) error
	WithTx(tx pgx.Tx) ExpenseRepository
}

// InstallmentRepository stores installments.
type InstallmentRepository interface {
	Create(ctx context.Context, installment domain.Installment) (domain.Installment, error)
	CreateBatch(ctx context.Context, installments []domain.Installment) error
	List(ctx context.Context, userID string, filter InstallmentFilter) ([]domain.Installment, int64, error)
	FindByID(ctx context.Context, userID, id string) (domain.Installment, error)
	Update(ctx context.Context, installment domain.Installment) (domain.Installment, error)
	Delete(ctx context.Context, id string) error
	WithTx(tx pgx.Tx) InstallmentRepository
}
