package repository

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/francopiloto/finance-api/internal/domain"
)

var _ PaymentMethodRepository = (*PostgresPaymentMethodRepo)(nil)

type PostgresPaymentMethodRepo struct {
	db DB
}

func NewPostgresPaymentMethodRepo(db DB) *PostgresPaymentMethodRepo {
	return &PostgresPaymentMethodRepo{db: db}
}

func (r *PostgresPaymentMethodRepo) WithTx(tx pgx.Tx) PaymentMethodRepository {
	return &PostgresPaymentMethodRepo{db: tx}
}

func (r *PostgresPaymentMethodRepo) Create(ctx context.Context, method domain.PaymentMethod) (domain.PaymentMethod, error) {
	if method.ID == "" {
		method.ID = uuid.NewString()
	}

	const query = `
INSERT INTO payment_methods (id, user_id, name, issuer, statement_closing_day, due_day)
VALUES ($1, $2, $3, NULLIF($4, ''), $5, $6)
RETURNING created_at, updated_at`

	row := r.db.QueryRow(ctx, query, method.ID, method.UserID, method.Name, method.Issuer,
		method.StatementClosingDay, method.DueDay)
	if err := row.Scan(&method.CreatedAt, &method.UpdatedAt); err != nil {
		return domain.PaymentMethod{}, fmt.Errorf("create payment method: %w", err)
	}
	return method, nil
}

func (r *PostgresPaymentMethodRepo) ListByUser(ctx context.Context, userID string) ([]domain.PaymentMethod, error) {
	const query = `
SELECT id, user_id, name, COALESCE(issuer, ''), statement_closing_day, due_day, created_at, updated_at
FROM payment_methods
WHERE user_id = $1
ORDER BY name`

	rows, err := r.db.Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("list payment methods: %w", err)
	}
	defer rows.Close()

	var methods []domain.PaymentMethod
	for rows.Next() {
		var m domain.PaymentMethod
		if err := rows.Scan(&m.ID, &m.UserID, &m.Name, &m.Issuer, &m.StatementClosingDay,
			&m.DueDay, &m.CreatedAt, &m.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan payment method: %w", err)
		}
		methods = append(methods, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list payment methods: %w", err)
	}
	return methods, nil
}

func (r *PostgresPaymentMethodRepo) FindByID(ctx context.Context, userID, id string) (domain.PaymentMethod, error) {
	const query = `
SELECT id, user_id, name, COALESCE(issuer, ''), statement_closing_day, due_day, created_at, updated_at
FROM payment_methods
WHERE id = $1 AND user_id = $2`

	var m domain.PaymentMethod
	row := r.db.QueryRow(ctx, query, id, userID)
	if err := row.Scan(&m.ID, &m.UserID, &m.Name, &m.Issuer, &m.StatementClosingDay,
		&m.DueDay, &m.CreatedAt, &m.UpdatedAt); err != nil {
		return domain.PaymentMethod{}, fmt.Errorf("find payment method: %w", err)
	}
	return m, nil
}

func (r *PostgresPaymentMethodRepo) Update(ctx context.Context, method domain.PaymentMethod) (domain.PaymentMethod, error) {
	const query = `
UPDATE payment_methods
SET name = $3, issuer = NULLIF($4, ''), statement_closing_day = $5, due_day = $6, updated_at = now()
WHERE id = $1 AND user_id = $2
RETURNING updated_at`

	row := r.db.QueryRow(ctx, query, method.ID, method.UserID, method.Name, method.Issuer,
		method.StatementClosingDay, method.DueDay)
	if err := row.Scan(&method.UpdatedAt); err != nil {
		return domain.PaymentMethod{}, fmt.Errorf("update payment method: %w", err)
	}
	return method, nil
}

func (r *PostgresPaymentMethodRepo) Delete(ctx context.Context, id string) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM payment_methods WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete payment method: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("delete payment method: %w", pgx.ErrNoRows)
	}
	return nil
}

func (r *PostgresPaymentMethodRepo) HasInstallments(ctx context.Context, methodID string) (bool, error) {
	const query = `SELECT EXISTS (SELECT 1 FROM installments WHERE payment_method_id = $1)`

	var exists bool
	if err := r.db.QueryRow(ctx, query, methodID).Scan(&exists); err != nil {
		return false, fmt.Errorf("check method installments: %w", err)
	}
	return exists, nil
}
