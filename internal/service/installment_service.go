package service

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/francopiloto/finance-api/internal/domain"
	"github.com/francopiloto/finance-api/internal/repository"
)

// InstallmentService manages installment lifecycle and queries.
type InstallmentService struct {
	installments repository.InstallmentRepository
	methods      repository.PaymentMethodRepository
	expenses     repository.ExpenseRepository
	logger       *zap.Logger
	tracer       trace.Tracer
}

func NewInstallmentService(installments repository.InstallmentRepository, methods repository.PaymentMethodRepository, expenses repository.ExpenseRepository, logger *zap.Logger) *InstallmentService {
	return &InstallmentService{
		installments: installments,
		methods:      methods,
		expenses:     expenses,
		logger:       logger,
		tracer:       otel.Tracer("github.com/francopiloto/finance-api/internal/service"),
	}
}

// CreateInstallmentInput carries the fields for one extra installment
// appended to an existing expense.
type CreateInstallmentInput struct {
	Value           float64
	BillingMonth    time.Time
	PaymentMethodID string
}

// Create appends a PENDING installment to one of the caller's expenses.
func (s *InstallmentService) Create(ctx context.Context, userID, expenseID string, input CreateInstallmentInput) (domain.Installment, error) {
	ctx, span := s.tracer.Start(ctx, "InstallmentService.Create")
	defer span.End()

	if _, err := s.expenses.FindByID(ctx, userID, expenseID); err != nil {
		if isNoRows(err) {
			return domain.Installment{}, newNotFound("Expense not found.")
		}
		span.RecordError(err)
		return domain.Installment{}, fmt.Errorf("get expense: %w", err)
	}
	if input.PaymentMethodID != "" {
		if _, err := s.methods.FindByID(ctx, userID, input.PaymentMethodID); err != nil {
			if isNoRows(err) {
				return domain.Installment{}, newNotFound("Payment method not found.")
			}
			span.RecordError(err)
			return domain.Installment{}, fmt.Errorf("get payment method: %w", err)
		}
	}

	installment, err := s.installments.Create(ctx, domain.Installment{
		ExpenseID:       expenseID,
		UserID:          userID,
		Status:          domain.InstallmentPending,
		Value:           round2(input.Value),
		BillingMonth:    monthStart(input.BillingMonth, 0),
		PaymentMethodID: input.PaymentMethodID,
	})
	if err != nil {
		span.RecordError(err)
		return domain.Installment{}, fmt.Errorf("create installment: %w", err)
	}

	s.logger.Info("installment created",
		zap.String("installment_id", installment.ID),
		zap.String("expense_id", expenseID))
	return installment, nil
}

func (s *InstallmentService) List(ctx context.Context, userID string, filter repository.InstallmentFilter) ([]domain.Installment, int64, error) {
	ctx, span := s.tracer.Start(ctx, "InstallmentService.List")
	defer span.End()

	installments, total, err := s.installments.List(ctx, userID, filter)
	if err != nil {
		span.RecordError(err)
		return nil, 0, fmt.Errorf("list installments: %w", err)
	}
	return installments, total, nil
}

func (s *InstallmentService) Get(ctx context.Context, userID, id string) (domain.Installment, error) {
	ctx, span := s.tracer.Start(ctx, "InstallmentService.Get")
	defer span.End()

	installment, err := s.installments.FindByID(ctx, userID, id)
	if err != nil {
		if isNoRows(err) {
			return domain.Installment{}, newNotFound("Installment not found.")
		}
		span.RecordError(err)
		return domain.Installment{}, fmt.Errorf("get installment: %w", err)
	}
	return installment, nil
}

// UpdateInstallmentInput carries the mutable installment fields. A nil
// field leaves the current value untouched.
type UpdateInstallmentInput struct {
	Status          domain.InstallmentStatus
	PaymentMethodID *string
	PaidAt          *time.Time
}

// Update applies a status transition and/or reassigns the payment method.
// Paid installments are final.
func (s *InstallmentService) Update(ctx context.Context, userID, id string, input UpdateInstallmentInput) (domain.Installment, error) {
	ctx, span := s.tracer.Start(ctx, "InstallmentService.Update")
	defer span.End()

	installment, err := s.installments.FindByID(ctx, userID, id)
	if err != nil {
		if isNoRows(err) {
			return domain.Installment{}, newNotFound("Installment not found.")
		}
		span.RecordError(err)
		return domain.Installment{}, fmt.Errorf("get installment: %w", err)
	}

	if input.PaymentMethodID != nil {
		if installment.Status == domain.InstallmentPaid {
			return domain.Installment{}, newConflict("installment_paid", "Paid installments cannot be changed.")
		}
		if installment.Status == domain.InstallmentScheduled {
			return domain.Installment{}, newConflict("installment_scheduled", "Scheduled installments only accept status changes.")
		}
		if *input.PaymentMethodID != "" {
			if _, err := s.methods.FindByID(ctx, userID, *input.PaymentMethodID); err != nil {
				if isNoRows(err) {
					return domain.Installment{}, newNotFound("Payment method not found.")
				}
				span.RecordError(err)
				return domain.Installment{}, fmt.Errorf("get payment method: %w", err)
			}
		}
		installment.PaymentMethodID = *input.PaymentMethodID
	}

	if input.Status != "" && input.Status != installment.Status {
		if !installment.Status.CanTransitionTo(input.Status) {
			return domain.Installment{}, newConflict("invalid_status_transition",
				fmt.Sprintf("Installment cannot move from %s to %s.", installment.Status, input.Status))
		}
		installment.Status = input.Status
		if input.Status == domain.InstallmentPaid {
			paidAt := time.Now().UTC()
			if input.PaidAt != nil {
				paidAt = input.PaidAt.UTC()
			}
			installment.PaidAt = &paidAt
		}
	}

	updated, err := s.installments.Update(ctx, installment)
	if err != nil {
		span.RecordError(err)
		return domain.Installment{}, fmt.Errorf("update installment: %w", err)
	}

	s.logger.Info("installment updated",
		zap.String("installment_id", updated.ID),
		zap.String("status", string(updated.Status)))
	return updated, nil
}

// Delete removes an installment that has not entered the payment flow yet.
func (s *InstallmentService) Delete(ctx context.Context, userID, id string) error {
	ctx, span := s.tracer.Start(ctx, "InstallmentService.Delete")
	defer span.End()

	installment, err := s.installments.FindByID(ctx, userID, id)
	if err != nil {
		if isNoRows(err) {
			return newNotFound("Installment not found.")
		}
		span.RecordError(err)
		return fmt.Errorf("get installment: %w", err)
	}
	if installment.Status != domain.InstallmentPending {
		return newConflict("installment_not_pending", "Only pending installments can be removed.")
	}

	if err := s.installments.Delete(ctx, id); err != nil {
		span.RecordError(err)
		return fmt.Errorf("delete installment: %w", err)
	}

	s.logger.Info("installment deleted", zap.String("installment_id", id))
	return nil
}
