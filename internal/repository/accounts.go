package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/francopiloto/finance-api/internal/domain"
)

var _ AccountRepository = (*PostgresAccountRepo)(nil)

// PostgresAccountRepo implements AccountRepository on pgx.
type PostgresAccountRepo struct {
	db DB
}

func NewPostgresAccountRepo(db DB) *PostgresAccountRepo {
	return &PostgresAccountRepo{db: db}
}

func (r *PostgresAccountRepo) WithTx(tx pgx.Tx) AccountRepository {
	return &PostgresAccountRepo{db: tx}
}

// accountColumns excludes password_hash; credentials are only loaded by the
// queries that explicitly need them.
const accountColumns = `a.id, a.provider, a.provider_user_id, a.email, a.avatar_url, a.username,
	a.verified, a.user_id, a.last_login_at, a.created_at, a.updated_at`

const nullableUserColumns = `u.id, u.name, u.email, u.created_at, u.updated_at`

const accountUserJoin = `LEFT JOIN users u ON u.id = a.user_id`

func (r *PostgresAccountRepo) Create(ctx context.Context, account domain.Account) (domain.Account, error) {
	if account.ID == "" {
		account.ID = uuid.NewString()
	}

	const query = `
INSERT INTO accounts (id, provider, provider_user_id, email, password_hash, avatar_url, username, verified, user_id)
VALUES ($1, $2, NULLIF($3, ''), NULLIF($4, ''), NULLIF($5, ''), NULLIF($6, ''), NULLIF($7, ''), $8, NULLIF($9, '')::uuid)
RETURNING created_at, updated_at`

	row := r.db.QueryRow(ctx, query,
		account.ID,
		string(account.Provider),
		account.ProviderUserID,
		account.Email,
		account.PasswordHash,
		account.AvatarURL,
		account.Username,
		account.Verified,
		account.UserID,
	)
	if err := row.Scan(&account.CreatedAt, &account.UpdatedAt); err != nil {
		return domain.Account{}, fmt.Errorf("create account: %w", err)
	}

	account.PasswordHash = ""
	return account, nil
}

func (r *PostgresAccountRepo) FindByID(ctx context.Context, id string) (domain.Account, error) {
	query := fmt.Sprintf(`
SELECT %s, %s
FROM accounts a
%s
WHERE a.id = $1`, accountColumns, nullableUserColumns, accountUserJoin)

	account, err := scanAccountWithUser(r.db.QueryRow(ctx, query, id))
	if err != nil {
		return domain.Account{}, fmt.Errorf("find account: %w", err)
	}
	return account, nil
}

func (r *PostgresAccountRepo) FindLocalByEmail(ctx context.Context, email string) (domain.Account, error) {
	query := fmt.Sprintf(`
SELECT %s, %s
FROM accounts a
%s
WHERE a.provider = 'local' AND a.email = $1`, accountColumns, nullableUserColumns, accountUserJoin)

	account, err := scanAccountWithUser(r.db.QueryRow(ctx, query, email))
	if err != nil {
		return domain.Account{}, fmt.Errorf("find local account: %w", err)
	}
	return account, nil
}

func (r *PostgresAccountRepo) FindLocalByEmailWithPassword(ctx context.Context, email string) (domain.Account, error) {
	query := fmt.Sprintf(`
SELECT %s, %s, a.password_hash
FROM accounts a
%s
WHERE a.provider = 'local' AND a.email = $1`, accountColumns, nullableUserColumns, accountUserJoin)

	var hash sql.NullString
	account, err := scanAccountWithUser(r.db.QueryRow(ctx, query, email), &hash)
	if err != nil {
		return domain.Account{}, fmt.Errorf("find local account: %w", err)
	}
	account.PasswordHash = hash.String
	return account, nil
}

func (r *PostgresAccountRepo) FindByProvider(ctx context.Context, provider domain.Provider, providerUserID, email string) (domain.Account, error) {
	query := fmt.Sprintf(`
SELECT %s, %s
FROM accounts a
%s
WHERE a.provider = $1 AND (a.provider_user_id = $2 OR ($3 <> '' AND a.email = $3))
ORDER BY (a.provider_user_id = $2) DESC
LIMIT 1`, accountColumns, nullableUserColumns, accountUserJoin)

	account, err := scanAccountWithUser(r.db.QueryRow(ctx, query, string(provider), providerUserID, email))
	if err != nil {
		return domain.Account{}, fmt.Errorf("find provider account: %w", err)
	}
	return account, nil
}

func (r *PostgresAccountRepo) FindVerifiedLinkedByEmail(ctx context.Context, email string) (domain.Account, error) {
	query := fmt.Sprintf(`
SELECT %s, %s
FROM accounts a
%s
WHERE a.email = $1 AND a.verified AND a.user_id IS NOT NULL
LIMIT 1`, accountColumns, nullableUserColumns, accountUserJoin)

	account, err := scanAccountWithUser(r.db.QueryRow(ctx, query, email))
	if err != nil {
		return domain.Account{}, fmt.Errorf("find verified linked account: %w", err)
	}
	return account, nil
}

// FindAssignable locks the matched rows so a concurrent assignment touching
// the same email serializes behind this transaction.
func (r *PostgresAccountRepo) FindAssignable(ctx context.Context, email, excludeAccountID string) ([]domain.Account, error) {
	query := fmt.Sprintf(`
SELECT %s
FROM accounts a
WHERE a.email = $1 AND a.verified AND a.user_id IS NULL AND a.id <> $2
FOR UPDATE`, accountColumns)

	rows, err := r.db.Query(ctx, query, email, excludeAccountID)
	if err != nil {
		return nil, fmt.Errorf("find assignable accounts: %w", err)
	}
	defer rows.Close()

	var accounts []domain.Account
	for rows.Next() {
		account, err := scanAccount(rows)
		if err != nil {
			return nil, fmt.Errorf("scan assignable account: %w", err)
		}
		accounts = append(accounts, account)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("find assignable accounts: %w", err)
	}
	return accounts, nil
}

func (r *PostgresAccountRepo) AssignUser(ctx context.Context, userID string, accountIDs []string) error {
	const query = `UPDATE accounts SET user_id = $1, updated_at = now() WHERE id = ANY($2)`
	if _, err := r.db.Exec(ctx, query, userID, accountIDs); err != nil {
		return fmt.Errorf("assign user to accounts: %w", err)
	}
	return nil
}

func (r *PostgresAccountRepo) UpdateLastLogin(ctx context.Context, id string, at time.Time) error {
	const query = `UPDATE accounts SET last_login_at = $2, updated_at = now() WHERE id = $1`
	if _, err := r.db.Exec(ctx, query, id, at); err != nil {
		return fmt.Errorf("update last login: %w", err)
	}
	return nil
}
