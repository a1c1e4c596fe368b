package repository

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/francopiloto/finance-api/internal/domain"
)

var _ UserRepository = (*PostgresUserRepo)(nil)

type PostgresUserRepo struct {
	db DB
}

func NewPostgresUserRepo(db DB) *PostgresUserRepo {
	return &PostgresUserRepo{db: db}
}

func (r *PostgresUserRepo) WithTx(tx pgx.Tx) UserRepository {
	return &PostgresUserRepo{db: tx}
}

func (r *PostgresUserRepo) Create(ctx context.Context, user domain.User) (domain.User, error) {
	if user.ID == "" {
		user.ID = uuid.NewString()
	}

	const query = `
INSERT INTO users (id, name, email)
VALUES ($1, $2, $3)
RETURNING created_at, updated_at`

	row := r.db.QueryRow(ctx, query, user.ID, user.Name, user.Email)
	if err := row.Scan(&user.CreatedAt, &user.UpdatedAt); err != nil {
		return domain.User{}, fmt.Errorf("create user: %w", err)
	}
	return user, nil
}

func (r *PostgresUserRepo) FindByID(ctx context.Context, id string) (domain.User, error) {
	const query = `SELECT id, name, email, created_at, updated_at FROM users WHERE id = $1`

	var user domain.User
	row := r.db.QueryRow(ctx, query, id)
	if err := row.Scan(&user.ID, &user.Name, &user.Email, &user.CreatedAt, &user.UpdatedAt); err != nil {
		return domain.User{}, fmt.Errorf("find user: %w", err)
	}
	return user, nil
}

func (r *PostgresUserRepo) FindByEmail(ctx context.Context, email string) (domain.User, error) {
	const query = `SELECT id, name, email, created_at, updated_at FROM users WHERE email = $1`

	var user domain.User
	row := r.db.QueryRow(ctx, query, email)
	if err := row.Scan(&user.ID, &user.Name, &user.Email, &user.CreatedAt, &user.UpdatedAt); err != nil {
		return domain.User{}, fmt.Errorf("find user by email: %w", err)
	}
	return user, nil
}

func (r *PostgresUserRepo) Update(ctx context.Context, user domain.User) (domain.User, error) {
	const query = `
UPDATE users SET name = $2, email = $3, updated_at = now()
WHERE id = $1
RETURNING updated_at`

	row := r.db.QueryRow(ctx, query, user.ID, user.Name, user.Email)
	if err := row.Scan(&user.UpdatedAt); err != nil {
		return domain.User{}, fmt.Errorf("update user: %w", err)
	}
	return user, nil
}

func (r *PostgresUserRepo) Delete(ctx context.Context, id string) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM users WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete user: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("delete user: %w", pgx.ErrNoRows)
	}
	return nil
}
