package repository

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/francopiloto/finance-api/internal/domain"
)

var _ TokenRepository = (*PostgresTokenRepo)(nil)

// PostgresTokenRepo persists refresh-token records, one row per
// (account, device) pair.
type PostgresTokenRepo struct {
	db DB
}

func NewPostgresTokenRepo(db DB) *PostgresTokenRepo {
	return &PostgresTokenRepo{db: db}
}

func (r *PostgresTokenRepo) WithTx(tx pgx.Tx) TokenRepository {
	return &PostgresTokenRepo{db: tx}
}

// Upsert replaces the stored hash for the pair, so issuing new tokens on a
// device invalidates the refresh token previously held by that device.
func (r *PostgresTokenRepo) Upsert(ctx context.Context, token domain.AuthToken) (domain.AuthToken, error) {
	if token.ID == "" {
		token.ID = uuid.NewString()
	}

	const query = `
INSERT INTO auth_tokens (id, account_id, device, refresh_token_hash, expires_at)
VALUES ($1, $2, $3, $4, $5)
ON CONFLICT (account_id, device) DO UPDATE
SET refresh_token_hash = EXCLUDED.refresh_token_hash,
    expires_at = EXCLUDED.expires_at,
    updated_at = now()
RETURNING id, created_at, updated_at`

	row := r.db.QueryRow(ctx, query, token.ID, token.AccountID, token.Device, token.RefreshTokenHash, token.ExpiresAt)
	if err := row.Scan(&token.ID, &token.CreatedAt, &token.UpdatedAt); err != nil {
		return domain.AuthToken{}, fmt.Errorf("upsert auth token: %w", err)
	}
	return token, nil
}

func (r *PostgresTokenRepo) FindByAccountDevice(ctx context.Context, accountID, device string) (domain.AuthToken, error) {
	const query = `
SELECT id, account_id, device, refresh_token_hash, expires_at, created_at, updated_at
FROM auth_tokens
WHERE account_id = $1 AND device = $2`

	var token domain.AuthToken
	row := r.db.QueryRow(ctx, query, accountID, device)
	if err := row.Scan(&token.ID, &token.AccountID, &token.Device, &token.RefreshTokenHash,
		&token.ExpiresAt, &token.CreatedAt, &token.UpdatedAt); err != nil {
		return domain.AuthToken{}, fmt.Errorf("find auth token: %w", err)
	}
	return token, nil
}

// Delete is idempotent; removing a pair that does not exist is not an error.
func (r *PostgresTokenRepo) Delete(ctx context.Context, accountID, device string) error {
	const query = `DELETE FROM auth_tokens WHERE account_id = $1 AND device = $2`
	if _, err := r.db.Exec(ctx, query, accountID, device); err != nil {
		return fmt.Errorf("delete auth token: %w", err)
	}
	return nil
}
