package service

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/francopiloto/finance-api/internal/domain"
	"github.com/francopiloto/finance-api/internal/repository"
)

// PaymentMethodService manages user payment methods.
type PaymentMethodService struct {
	methods repository.PaymentMethodRepository
	logger  *zap.Logger
	tracer  trace.Tracer
}

func NewPaymentMethodService(methods repository.PaymentMethodRepository, logger *zap.Logger) *PaymentMethodService {
	return &PaymentMethodService{
		methods: methods,
		logger:  logger,
		tracer:  otel.Tracer("github.com/francopiloto/finance-api/internal/service"),
	}
}

func (s *PaymentMethodService) Create(ctx context.Context, method domain.PaymentMethod) (domain.PaymentMethod, error) {
	ctx, span := s.tracer.Start(ctx, "PaymentMethodService.Create")
	defer span.End()

	created, err := s.methods.Create(ctx, method)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.PaymentMethod{}, newConflict("method_name_in_use", "A payment method with this name already exists.")
		}
		span.RecordError(err)
		return domain.PaymentMethod{}, fmt.Errorf("create payment method: %w", err)
	}
	return created, nil
}

func (s *PaymentMethodService) List(ctx context.Context, userID string) ([]domain.PaymentMethod, error) {
	ctx, span := s.tracer.Start(ctx, "PaymentMethodService.List")
	defer span.End()

	methods, err := s.methods.ListByUser(ctx, userID)
	if err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("list payment methods: %w", err)
	}
	return methods, nil
}

func (s *PaymentMethodService) Get(ctx context.Context, userID, id string) (domain.PaymentMethod, error) {
	ctx, span := s.tracer.Start(ctx, "PaymentMethodService.Get")
	defer span.End()

	method, err := s.methods.FindByID(ctx, userID, id)
	if err != nil {
		if isNoRows(err) {
			return domain.PaymentMethod{}, newNotFound("Payment method not found.")
		}
		span.RecordError(err)
		return domain.PaymentMethod{}, fmt.Errorf("get payment method: %w", err)
	}
	return method, nil
}

func (s *PaymentMethodService) Update(ctx context.Context, method domain.PaymentMethod) (domain.PaymentMethod, error) {
	ctx, span := s.tracer.Start(ctx, "PaymentMethodService.Update")
	defer span.End()

	updated, err := s.methods.Update(ctx, method)
	if err != nil {
		switch {
		case isNoRows(err):
			return domain.PaymentMethod{}, newNotFound("Payment method not found.")
		case isUniqueViolation(err):
			return domain.PaymentMethod{}, newConflict("method_name_in_use", "A payment method with this name already exists.")
		}
		span.RecordError(err)
		return domain.PaymentMethod{}, fmt.Errorf("update payment method: %w", err)
	}
	return updated, nil
}

// Delete refuses to remove a method still referenced by installments.
func (s *PaymentMethodService) Delete(ctx context.Context, userID, id string) error {
	ctx, span := s.tracer.Start(ctx, "PaymentMethodService.Delete")
	defer span.End()

	method, err := s.methods.FindByID(ctx, userID, id)
	if err != nil {
		if isNoRows(err) {
			return newNotFound("Payment method not found.")
		}
		span.RecordError(err)
		return fmt.Errorf("get payment method: %w", err)
	}

	inUse, err := s.methods.HasInstallments(ctx, method.ID)
	if err != nil {
		span.RecordError(err)
		return fmt.Errorf("check method usage: %w", err)
	}
	if inUse {
		return newConflict("method_in_use", "Payment method is still referenced by installments.")
	}

	if err := s.methods.Delete(ctx, method.ID); err != nil {
		span.RecordError(err)
		return fmt.Errorf("delete payment method: %w", err)
	}
	return nil
}
