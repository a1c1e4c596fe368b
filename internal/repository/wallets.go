package repository

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/francopiloto/finance-api/internal/domain"
)

var _ WalletRepository = (*PostgresWalletRepo)(nil)

type PostgresWalletRepo struct {
	db DB
}

func NewPostgresWalletRepo(db DB) *PostgresWalletRepo {
	return &PostgresWalletRepo{db: db}
}

func (r *PostgresWalletRepo) Create(ctx context.Context, wallet domain.Wallet) (domain.Wallet, error) {
	if wallet.ID == "" {
		wallet.ID = uuid.NewString()
	}

	const query = `
INSERT INTO wallets (id, user_id, name, description)
VALUES ($1, $2, $3, NULLIF($4, ''))
RETURNING created_at, updated_at`

	row := r.db.QueryRow(ctx, query, wallet.ID, wallet.UserID, wallet.Name, wallet.Description)
	if err := row.Scan(&wallet.CreatedAt, &wallet.UpdatedAt); err != nil {
		return domain.Wallet{}, fmt.Errorf("create wallet: %w", err)
	}
	return wallet, nil
}

func (r *PostgresWalletRepo) ListByUser(ctx context.Context, userID string) ([]domain.Wallet, error) {
	const query = `
SELECT id, user_id, name, COALESCE(description, ''), created_at, updated_at
FROM wallets
WHERE user_id = $1
ORDER BY name`

	rows, err := r.db.Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("list wallets: %w", err)
	}
	defer rows.Close()

	var wallets []domain.Wallet
	for rows.Next() {
		var w domain.Wallet
		if err := rows.Scan(&w.ID, &w.UserID, &w.Name, &w.Description, &w.CreatedAt, &w.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan wallet: %w", err)
		}
		wallets = append(wallets, w)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list wallets: %w", err)
	}
	return wallets, nil
}

func (r *PostgresWalletRepo) FindByID(ctx context.Context, userID, id string) (domain.Wallet, error) {
	const query = `
SELECT id, user_id, name, COALESCE(description, ''), created_at, updated_at
FROM wallets
WHERE id = $1 AND user_id = $2`

	var w domain.Wallet
	row := r.db.QueryRow(ctx, query, id, userID)
	if err := row.Scan(&w.ID, &w.UserID, &w.Name, &w.Description, &w.CreatedAt, &w.UpdatedAt); err != nil {
		return domain.Wallet{}, fmt.Errorf("find wallet: %w", err)
	}
	return w, nil
}

func (r *PostgresWalletRepo) Update(ctx context.Context, wallet domain.Wallet) (domain.Wallet, error) {
	const query = `
UPDATE wallets SET name = $3, description = NULLIF($4, ''), updated_at = now()
WHERE id = $1 AND user_id = $2
RETURNING updated_at`

	row := r.db.QueryRow(ctx, query, wallet.ID, wallet.UserID, wallet.Name, wallet.Description)
	if err := row.Scan(&wallet.UpdatedAt); err != nil {
		return domain.Wallet{}, fmt.Errorf("update wallet: %w", err)
	}
	return wallet, nil
}

func (r *PostgresWalletRepo) Delete(ctx context.Context, userID, id string) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM wallets WHERE id = $1 AND user_id = $2`, id, userID)
	if err != nil {
		return fmt.Errorf("delete wallet: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("delete wallet: %w", pgx.ErrNoRows)
	}
	return nil
}
