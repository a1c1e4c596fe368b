package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/francopiloto/finance-api/internal/domain"
)

var _ InstallmentRepository = (*PostgresInstallmentRepo)(nil)

type PostgresInstallmentRepo struct {
	db DB
}

func NewPostgresInstallmentRepo(db DB) *PostgresInstallmentRepo {
	return &PostgresInstallmentRepo{db: db}
}

func (r *PostgresInstallmentRepo) WithTx(tx pgx.Tx) InstallmentRepository {
	return &PostgresInstallmentRepo{db: tx}
}

const installmentColumns = `i.id, i.expense_id, i.user_id, i.status, i.value, i.billing_month,
	COALESCE(i.payment_method_id::text, ''), i.paid_at, i.created_at, i.updated_at`

func (r *PostgresInstallmentRepo) Create(ctx context.Context, installment domain.Installment) (domain.Installment, error) {
	if installment.ID == "" {
		installment.ID = uuid.NewString()
	}

	const query = `
INSERT INTO installments (id, expense_id, user_id, status, value, billing_month, payment_method_id, paid_at)
VALUES ($1, $2, $3, $4, $5, $6, NULLIF($7, '')::uuid, $8)
RETURNING created_at, updated_at`

	row := r.db.QueryRow(ctx, query, installment.ID, installment.ExpenseID, installment.UserID,
		string(installment.Status), installment.Value, installment.BillingMonth,
		installment.PaymentMethodID, nullTime(installment.PaidAt))
	if err := row.Scan(&installment.CreatedAt, &installment.UpdatedAt); err != nil {
		return domain.Installment{}, fmt.Errorf("create installment: %w", err)
	}
	return installment, nil
}

// CreateBatch inserts one row per installment in a single round trip.
func (r *PostgresInstallmentRepo) CreateBatch(ctx context.Context, installments []domain.Installment) error {
	if len(installments) == 0 {
		return nil
	}

	var (
		sb   strings.Builder
		args []any
	)
	sb.WriteString(`INSERT INTO installments (id, expense_id, user_id, status, value, billing_month, payment_method_id) VALUES `)
	for i, inst := range installments {
		if inst.ID == "" {
			inst.ID = uuid.NewString()
		}
		if i > 0 {
			sb.WriteString(", ")
		}
		base := i * 7
		fmt.Fprintf(&sb, "($%d, $%d, $%d, $%d, $%d, $%d, NULLIF($%d, '')::uuid)",
			base+1, base+2, base+3, base+4, base+5, base+6, base+7)
		args = append(args, inst.ID, inst.ExpenseID, inst.UserID, string(inst.Status),
			inst.Value, inst.BillingMonth, inst.PaymentMethodID)
	}

	if _, err := r.db.Exec(ctx, sb.String(), args...); err != nil {
		return fmt.Errorf("create installments: %w", err)
	}
	return nil
}

// List applies the filter and returns one page plus the unpaged total.
func (r *PostgresInstallmentRepo) List(ctx context.Context, userID string, filter InstallmentFilter) ([]domain.Installment, int64, error) {
	conds := []string{"i.user_id = $1"}
	args := []any{userID}

	addCond := func(expr string, arg any) {
		args = append(args, arg)
		conds = append(conds, fmt.Sprintf(expr, len(args)))
	}

	if filter.ExpenseID != "" {
		addCond("i.expense_id = $%d", filter.ExpenseID)
	}
	if filter.Status != "" {
		addCond("i.status = $%d", string(filter.Status))
	}
	if filter.BillingMonth != nil {
		addCond("i.billing_month = $%d", *filter.BillingMonth)
	}
	if filter.PaymentMethodID != "" {
		addCond("i.payment_method_id = $%d", filter.PaymentMethodID)
	}
	if filter.PaidAt != nil {
		addCond("i.paid_at::date = $%d::date", *filter.PaidAt)
	}
	if filter.PaidAtFrom != nil {
		addCond("i.paid_at >= $%d", *filter.PaidAtFrom)
	}
	if filter.PaidAtTo != nil {
		addCond("i.paid_at <= $%d", *filter.PaidAtTo)
	}

	where := strings.Join(conds, " AND ")

	var total int64
	countQuery := fmt.Sprintf(`SELECT count(*) FROM installments i WHERE %s`, where)
	if err := r.db.QueryRow(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count installments: %w", err)
	}

	page := filter.Page
	if page < 1 {
		page = 1
	}
	pageSize := filter.PageSize
	if pageSize < 1 {
		pageSize = 20
	}

	query := fmt.Sprintf(`
SELECT %s
FROM installments i
WHERE %s
ORDER BY i.billing_month, i.created_at
LIMIT $%d OFFSET $%d`, installmentColumns, where, len(args)+1, len(args)+2)
	args = append(args, pageSize, (page-1)*pageSize)

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list installments: %w", err)
	}
	defer rows.Close()

	var installments []domain.Installment
	for rows.Next() {
		installment, err := scanInstallment(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("scan installment: %w", err)
		}
		installments = append(installments, installment)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("list installments: %w", err)
	}
	return installments, total, nil
}

func (r *PostgresInstallmentRepo) FindByID(ctx context.Context, userID, id string) (domain.Installment, error) {
	query := fmt.Sprintf(`
SELECT %s
FROM installments i
WHERE i.id = $1 AND i.user_id = $2`, installmentColumns)

	installment, err := scanInstallment(r.db.QueryRow(ctx, query, id, userID))
	if err != nil {
		return domain.Installment{}, fmt.Errorf("find installment: %w", err)
	}
	return installment, nil
}

func (r *PostgresInstallmentRepo) Update(ctx context.Context, installment domain.Installment) (domain.Installment, error) {
	const query = `
UPDATE installments
SET status = $3, value = $4, billing_month = $5, payment_method_id = NULLIF($6, '')::uuid, paid_at = $7, updated_at = now()
WHERE id = $1 AND user_id = $2
RETURNING updated_at`

	row := r.db.QueryRow(ctx, query, installment.ID, installment.UserID, string(installment.Status),
		installment.Value, installment.BillingMonth, installment.PaymentMethodID, nullTime(installment.PaidAt))
	if err := row.Scan(&installment.UpdatedAt); err != nil {
		return domain.Installment{}, fmt.Errorf("update installment: %w", err)
	}
	return installment, nil
}

func (r *PostgresInstallmentRepo) Delete(ctx context.Context, id string) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM installments WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete installment: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("delete installment: %w", pgx.ErrNoRows)
	}
	return nil
}

func scanInstallment(row rowScanner) (domain.Installment, error) {
	var (
		installment domain.Installment
		paidAt      sql.NullTime
	)
	err := row.Scan(&installment.ID, &installment.ExpenseID, &installment.UserID,
		&installment.Status, &installment.Value, &installment.BillingMonth,
		&installment.PaymentMethodID, &paidAt, &installment.CreatedAt, &installment.UpdatedAt)
	if err != nil {
		return domain.Installment{}, err
	}
	if paidAt.Valid {
		at := paidAt.Time.UTC()
		installment.PaidAt = &at
	}
	return installment, nil
}
