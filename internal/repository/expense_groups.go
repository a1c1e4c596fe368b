package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/francopiloto/finance-api/internal/domain"
)

var _ ExpenseGroupRepository = (*PostgresExpenseGroupRepo)(nil)

type PostgresExpenseGroupRepo struct {
	db DB
}

func NewPostgresExpenseGroupRepo(db DB) *PostgresExpenseGroupRepo {
	return &PostgresExpenseGroupRepo{db: db}
}

func (r *PostgresExpenseGroupRepo) WithTx(tx pgx.Tx) ExpenseGroupRepository {
	return &PostgresExpenseGroupRepo{db: tx}
}

func (r *PostgresExpenseGroupRepo) Create(ctx context.Context, group domain.ExpenseGroup) (domain.ExpenseGroup, error) {
	if group.ID == "" {
		group.ID = uuid.NewString()
	}

	const query = `
INSERT INTO expense_groups (id, name, created_by)
VALUES ($1, $2, NULLIF($3, '')::uuid)
RETURNING created_at, updated_at`

	row := r.db.QueryRow(ctx, query, group.ID, group.Name, group.CreatedBy)
	if err := row.Scan(&group.CreatedAt, &group.UpdatedAt); err != nil {
		return domain.ExpenseGroup{}, fmt.Errorf("create expense group: %w", err)
	}
	return group, nil
}

// ListVisible returns the shared defaults plus the user's own groups.
func (r *PostgresExpenseGroupRepo) ListVisible(ctx context.Context, userID string) ([]domain.ExpenseGroup, error) {
	const query = `
SELECT id, name, created_by, created_at, updated_at
FROM expense_groups
WHERE created_by IS NULL OR created_by = $1
ORDER BY created_by NULLS FIRST, name`

	rows, err := r.db.Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("list expense groups: %w", err)
	}
	defer rows.Close()

	var groups []domain.ExpenseGroup
	for rows.Next() {
		group, err := scanExpenseGroup(rows)
		if err != nil {
			return nil, fmt.Errorf("scan expense group: %w", err)
		}
		groups = append(groups, group)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list expense groups: %w", err)
	}
	return groups, nil
}

// FindOwned matches only groups the user created; shared defaults cannot be
// modified through it.
func (r *PostgresExpenseGroupRepo) FindOwned(ctx context.Context, userID, id string) (domain.ExpenseGroup, error) {
	const query = `
SELECT id, name, created_by, created_at, updated_at
FROM expense_groups
WHERE id = $1 AND created_by = $2`

	group, err := scanExpenseGroup(r.db.QueryRow(ctx, query, id, userID))
	if err != nil {
		return domain.ExpenseGroup{}, fmt.Errorf("find expense group: %w", err)
	}
	return group, nil
}

func (r *PostgresExpenseGroupRepo) FindVisible(ctx context.Context, userID, id string) (domain.ExpenseGroup, error) {
	const query = `
SELECT id, name, created_by, created_at, updated_at
FROM expense_groups
WHERE id = $1 AND (created_by IS NULL OR created_by = $2)`

	group, err := scanExpenseGroup(r.db.QueryRow(ctx, query, id, userID))
	if err != nil {
		return domain.ExpenseGroup{}, fmt.Errorf("find expense group: %w", err)
	}
	return group, nil
}

func (r *PostgresExpenseGroupRepo) Update(ctx context.Context, group domain.ExpenseGroup) (domain.ExpenseGroup, error) {
	const query = `
UPDATE expense_groups SET name = $2, updated_at = now()
WHERE id = $1
RETURNING updated_at`

	row := r.db.QueryRow(ctx, query, group.ID, group.Name)
	if err := row.Scan(&group.UpdatedAt); err != nil {
		return domain.ExpenseGroup{}, fmt.Errorf("update expense group: %w", err)
	}
	return group, nil
}

func (r *PostgresExpenseGroupRepo) Delete(ctx context.Context, id string) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM expense_groups WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete expense group: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("delete expense group: %w", pgx.ErrNoRows)
	}
	return nil
}

func (r *PostgresExpenseGroupRepo) HasExpenses(ctx context.Context, groupID string) (bool, error) {
	const query = `SELECT EXISTS (SELECT 1 FROM expenses WHERE group_id = $1)`

	var exists bool
	if err := r.db.QueryRow(ctx, query, groupID).Scan(&exists); err != nil {
		return false, fmt.Errorf("check group expenses: %w", err)
	}
	return exists, nil
}

func scanExpenseGroup(row rowScanner) (domain.ExpenseGroup, error) {
	var (
		group     domain.ExpenseGroup
		createdBy sql.NullString
	)
	if err := row.Scan(&group.ID, &group.Name, &createdBy, &group.CreatedAt, &group.UpdatedAt); err != nil {
		return domain.ExpenseGroup{}, err
	}
	group.CreatedBy = createdBy.String
	return group, nil
}
