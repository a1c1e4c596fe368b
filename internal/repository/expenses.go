package repository

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/francopiloto/finance-api/internal/domain"
)

var _ ExpenseRepository = (*PostgresExpenseRepo)(nil)

type PostgresExpenseRepo struct {
	db DB
}

func NewPostgresExpenseRepo(db DB) *PostgresExpenseRepo {
	return &PostgresExpenseRepo{db: db}
}

func (r *PostgresExpenseRepo) WithTx(tx pgx.Tx) ExpenseRepository {
	return &PostgresExpenseRepo{db: tx}
}

func (r *PostgresExpenseRepo) Create(ctx context.Context, expense domain.Expense) (domain.Expense, error) {
	if expense.ID == "" {
		expense.ID = uuid.NewString()
	}

	const query = `
INSERT INTO expenses (id, group_id, user_id, date, priority, description, beneficiary)
VALUES ($1, $2, $3, $4, $5, $6, NULLIF($7, ''))
RETURNING created_at, updated_at`

	row := r.db.QueryRow(ctx, query, expense.ID, expense.GroupID, expense.UserID,
		expense.Date, string(expense.Priority), expense.Description, expense.Beneficiary)
	if err := row.Scan(&expense.CreatedAt, &expense.UpdatedAt); err != nil {
		return domain.Expense{}, fmt.Errorf("create expense: %w", err)
	}
	return expense, nil
}

const expenseColumns = `e.id, e.group_id, e.user_id, e.date, e.priority, e.description,
	COALESCE(e.beneficiary, ''), e.created_at, e.updated_at`

func (r *PostgresExpenseRepo) FindByID(ctx context.Context, userID, id string) (domain.Expense, error) {
	query := fmt.Sprintf(`
SELECT %s, g.id, g.name, COALESCE(g.created_by::text, ''), g.created_at, g.updated_at
FROM expenses e
JOIN expense_groups g ON g.id = e.group_id
WHERE e.id = $1 AND e.user_id = $2`, expenseColumns)

	expense, err := scanExpenseWithGroup(r.db.QueryRow(ctx, query, id, userID))
	if err != nil {
		return domain.Expense{}, fmt.Errorf("find expense: %w", err)
	}
	return expense, nil
}

func (r *PostgresExpenseRepo) FindByIDWithInstallments(ctx context.Context, userID, id string) (domain.Expense, error) {
	expense, err := r.FindByID(ctx, userID, id)
	if err != nil {
		return domain.Expense{}, err
	}

	const query = `
SELECT id, expense_id, user_id, status, value, billing_month, COALESCE(payment_method_id::text, ''), paid_at, created_at, updated_at
FROM installments
WHERE expense_id = $1
ORDER BY billing_month`

	rows, err := r.db.Query(ctx, query, id)
	if err != nil {
		return domain.Expense{}, fmt.Errorf("load installments: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		installment, err := scanInstallment(rows)
		if err != nil {
			return domain.Expense{}, fmt.Errorf("scan installment: %w", err)
		}
		expense.Installments = append(expense.Installments, installment)
	}
	if err := rows.Err(); err != nil {
		return domain.Expense{}, fmt.Errorf("load installments: %w", err)
	}
	return expense, nil
}

func (r *PostgresExpenseRepo) Update(ctx context.Context, expense domain.Expense) (domain.Expense, error) {
	const query = `
UPDATE expenses
SET group_id = $3, date = $4, priority = $5, description = $6, beneficiary = NULLIF($7, ''), updated_at = now()
WHERE id = $1 AND user_id = $2
RETURNING updated_at`

	row := r.db.QueryRow(ctx, query, expense.ID, expense.UserID, expense.GroupID,
		expense.Date, string(expense.Priority), expense.Description, expense.Beneficiary)
	if err := row.Scan(&expense.UpdatedAt); err != nil {
		return domain.Expense{}, fmt.Errorf("update expense: %w", err)
	}
	return expense, nil
}

// Delete cascades to the expense's installments at the schema level.
func (r *PostgresExpenseRepo) Delete(ctx context.Context, id string) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM expenses WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete expense: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("delete expense: %w", pgx.ErrNoRows)
	}
	return nil
}

func scanExpenseWithGroup(row rowScanner) (domain.Expense, error) {
	var (
		expense domain.Expense
		group   domain.ExpenseGroup
	)
	err := row.Scan(&expense.ID, &expense.GroupID, &expense.UserID, &expense.Date,
		&expense.Priority, &expense.Description, &expense.Beneficiary,
		&expense.CreatedAt, &expense.UpdatedAt,
		&group.ID, &group.Name, &group.CreatedBy, &group.CreatedAt, &group.UpdatedAt)
	if err != nil {
		return domain.Expense{}, err
	}
	expense.Group = &group
	return expense, nil
}
