package service

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/francopiloto/finance-api/internal/domain"
	"github.com/francopiloto/finance-api/internal/repository"
)

// CreateExpenseInput describes a purchase to split into installments.
type CreateExpenseInput struct {
	GroupID          string
	Date             time.Time
	Priority         domain.ExpensePriority
	Description      string
	Beneficiary      string
	Value            float64
	InstallmentCount int
	PaymentMethodID  string
}

// ExpenseService manages expenses and generates their installments.
type ExpenseService struct {
	pool         repository.TxBeginner
	expenses     repository.ExpenseRepository
	installments repository.InstallmentRepository
	groups       repository.ExpenseGroupRepository
	methods      repository.PaymentMethodRepository
	logger       *zap.Logger
	tracer       trace.Tracer
}

func NewExpenseService(pool repository.TxBeginner, expenses repository.ExpenseRepository, installments repository.InstallmentRepository, groups repository.ExpenseGroupRepository, methods repository.PaymentMethodRepository, logger *zap.Logger) *ExpenseService {
	return &ExpenseService{
		pool:         pool,
		expenses:     expenses,
		installments: installments,
		groups:       groups,
		methods:      methods,
		logger:       logger,
		tracer:       otel.Tracer("github.com/francopiloto/finance-api/internal/service"),
	}
}

// Create stores the expense and its generated installments atomically. Each
// installment carries round(value/count, 2) and bills one month after the
// previous one, starting at the expense date's month.
func (s *ExpenseService) Create(ctx context.Context, userID string, input CreateExpenseInput) (domain.Expense, error) {
	ctx, span := s.tracer.Start(ctx, "ExpenseService.Create")
	defer span.End()

	if input.InstallmentCount < 1 {
		input.InstallmentCount = 1
	}
	if input.Value <= 0 {
		return domain.Expense{}, newBadRequest("invalid_request", "Expense value must be positive.")
	}

	group, err := s.groups.FindVisible(ctx, userID, input.GroupID)
	if err != nil {
		if isNoRows(err) {
			return domain.Expense{}, newNotFound("Expense group not found.")
		}
		span.RecordError(err)
		return domain.Expense{}, fmt.Errorf("get expense group: %w", err)
	}

	if input.PaymentMethodID != "" {
		if _, err := s.methods.FindByID(ctx, userID, input.PaymentMethodID); err != nil {
			if isNoRows(err) {
				return domain.Expense{}, newNotFound("Payment method not found.")
			}
			span.RecordError(err)
			return domain.Expense{}, fmt.Errorf("get payment method: %w", err)
		}
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		span.RecordError(err)
		return domain.Expense{}, fmt.Errorf("begin expense: %w", err)
	}
	defer tx.Rollback(ctx)

	expense, err := s.expenses.WithTx(tx).Create(ctx, domain.Expense{
		GroupID:     group.ID,
		UserID:      userID,
		Date:        input.Date,
		Priority:    input.Priority,
		Description: input.Description,
		Beneficiary: input.Beneficiary,
	})
	if err != nil {
		span.RecordError(err)
		return domain.Expense{}, fmt.Errorf("create expense: %w", err)
	}

	installments := buildInstallments(expense, input)
	if err := s.installments.WithTx(tx).CreateBatch(ctx, installments); err != nil {
		span.RecordError(err)
		return domain.Expense{}, fmt.Errorf("create installments: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		span.RecordError(err)
		return domain.Expense{}, fmt.Errorf("commit expense: %w", err)
	}

	s.logger.Info("expense created",
		zap.String("expense_id", expense.ID),
		zap.String("user_id", userID),
		zap.Int("installments", len(installments)))

	expense.Group = &group
	expense.Installments = installments
	return expense, nil
}

func buildInstallments(expense domain.Expense, input CreateExpenseInput) []domain.Installment {
	value := round2(input.Value / float64(input.InstallmentCount))

	installments := make([]domain.Installment, input.InstallmentCount)
	for i := range installments {
		installments[i] = domain.Installment{
			ID:              uuid.NewString(),
			ExpenseID:       expense.ID,
			UserID:          expense.UserID,
			Status:          domain.InstallmentPending,
			Value:           value,
			BillingMonth:    monthStart(input.Date, i),
			PaymentMethodID: input.PaymentMethodID,
		}
	}
	return installments
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

// monthStart normalizes to the first day of the month offset months ahead,
// so a purchase on Jan 31 bills Feb, Mar, ... without day-overflow drift.
func monthStart(t time.Time, offset int) time.Time {
	return time.Date(t.Year(), t.Month()+time.Month(offset), 1, 0, 0, 0, 0, time.UTC)
}

func (s *ExpenseService) Get(ctx context.Context, userID, id string) (domain.Expense, error) {
	ctx, span := s.tracer.Start(ctx, "ExpenseService.Get")
	defer span.End()

	expense, err := s.expenses.FindByIDWithInstallments(ctx, userID, id)
	if err != nil {
		if isNoRows(err) {
			return domain.Expense{}, newNotFound("Expense not found.")
		}
		span.RecordError(err)
		return domain.Expense{}, fmt.Errorf("get expense: %w", err)
	}
	return expense, nil
}

// UpdateExpenseInput carries the mutable expense fields.
type UpdateExpenseInput struct {
	GroupID     string
	Date        *time.Time
	Priority    domain.ExpensePriority
	Description string
	Beneficiary *string
}

func (s *ExpenseService) Update(ctx context.Context, userID, id string, input UpdateExpenseInput) (domain.Expense, error) {
	ctx, span := s.tracer.Start(ctx, "ExpenseService.Update")
	defer span.End()

	expense, err := s.expenses.FindByID(ctx, userID, id)
	if err != nil {
		if isNoRows(err) {
			return domain.Expense{}, newNotFound("Expense not found.")
		}
		span.RecordError(err)
		return domain.Expense{}, fmt.Errorf("get expense: %w", err)
	}

	if input.GroupID != "" && input.GroupID != expense.GroupID {
		group, err := s.groups.FindVisible(ctx, userID, input.GroupID)
		if err != nil {
			if isNoRows(err) {
				return domain.Expense{}, newNotFound("Expense group not found.")
			}
			span.RecordError(err)
			return domain.Expense{}, fmt.Errorf("get expense group: %w", err)
		}
		expense.GroupID = group.ID
		expense.Group = &group
	}
	if input.Date != nil {
		expense.Date = *input.Date
	}
	if input.Priority != "" {
		expense.Priority = input.Priority
	}
	if input.Description != "" {
		expense.Description = input.Description
	}
	if input.Beneficiary != nil {
		expense.Beneficiary = *input.Beneficiary
	}

	updated, err := s.expenses.Update(ctx, expense)
	if err != nil {
		span.RecordError(err)
		return domain.Expense{}, fmt.Errorf("update expense: %w", err)
	}
	return updated, nil
}

// Delete removes the expense and its installments, unless any installment
// already left the pending state.
func (s *ExpenseService) Delete(ctx context.Context, userID, id string) error {
	ctx, span := s.tracer.Start(ctx, "ExpenseService.Delete")
	defer span.End()

	expense, err := s.expenses.FindByIDWithInstallments(ctx, userID, id)
	if err != nil {
		if isNoRows(err) {
			return newNotFound("Expense not found.")
		}
		span.RecordError(err)
		return fmt.Errorf("get expense: %w", err)
	}

	for _, installment := range expense.Installments {
		if installment.Status != domain.InstallmentPending {
			return newConflict("expense_in_progress", "Expense has scheduled or paid installments.")
		}
	}

	if err := s.expenses.Delete(ctx, expense.ID); err != nil {
		span.RecordError(err)
		return fmt.Errorf("delete expense: %w", err)
	}

	s.logger.Info("expense deleted",
		zap.String("expense_id", expense.ID),
		zap.String("user_id", userID))
	return nil
}
