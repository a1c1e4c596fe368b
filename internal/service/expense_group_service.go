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

// ExpenseGroupService manages expense categories. Users see the shared
// defaults plus their own groups, but may only modify their own.
type ExpenseGroupService struct {
	groups repository.ExpenseGroupRepository
	logger *zap.Logger
	tracer trace.Tracer
}

func NewExpenseGroupService(groups repository.ExpenseGroupRepository, logger *zap.Logger) *ExpenseGroupService {
	return &ExpenseGroupService{
		groups: groups,
		logger: logger,
		tracer: otel.Tracer("github.com/francopiloto/finance-api/internal/service"),
	}
}

func (s *ExpenseGroupService) Create(ctx context.Context, userID, name string) (domain.ExpenseGroup, error) {
	ctx, span := s.tracer.Start(ctx, "ExpenseGroupService.Create")
	defer span.End()

	group, err := s.groups.Create(ctx, domain.ExpenseGroup{Name: name, CreatedBy: userID})
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ExpenseGroup{}, newConflict("group_name_in_use", "An expense group with this name already exists.")
		}
		span.RecordError(err)
		return domain.ExpenseGroup{}, fmt.Errorf("create expense group: %w", err)
	}
	return group, nil
}

func (s *ExpenseGroupService) List(ctx context.Context, userID string) ([]domain.ExpenseGroup, error) {
	ctx, span := s.tracer.Start(ctx, "ExpenseGroupService.List")
	defer span.End()

	groups, err := s.groups.ListVisible(ctx, userID)
	if err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("list expense groups: %w", err)
	}
	return groups, nil
}

func (s *ExpenseGroupService) Get(ctx context.Context, userID, id string) (domain.ExpenseGroup, error) {
	ctx, span := s.tracer.Start(ctx, "ExpenseGroupService.Get")
	defer span.End()

	group, err := s.groups.FindVisible(ctx, userID, id)
	if err != nil {
		if isNoRows(err) {
			return domain.ExpenseGroup{}, newNotFound("Expense group not found.")
		}
		span.RecordError(err)
		return domain.ExpenseGroup{}, fmt.Errorf("get expense group: %w", err)
	}
	return group, nil
}

// Update renames a group the user owns. Shared defaults are read-only and
// surface as not found.
func (s *ExpenseGroupService) Update(ctx context.Context, userID, id, name string) (domain.ExpenseGroup, error) {
	ctx, span := s.tracer.Start(ctx, "ExpenseGroupService.Update")
	defer span.End()

	group, err := s.groups.FindOwned(ctx, userID, id)
	if err != nil {
		if isNoRows(err) {
			return domain.ExpenseGroup{}, newNotFound("Expense group not found.")
		}
		span.RecordError(err)
		return domain.ExpenseGroup{}, fmt.Errorf("get expense group: %w", err)
	}

	group.Name = name
	updated, err := s.groups.Update(ctx, group)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ExpenseGroup{}, newConflict("group_name_in_use", "An expense group with this name already exists.")
		}
		span.RecordError(err)
		return domain.ExpenseGroup{}, fmt.Errorf("update expense group: %w", err)
	}
	return updated, nil
}

// Delete refuses to remove a group that still has expenses.
func (s *ExpenseGroupService) Delete(ctx context.Context, userID, id string) error {
	ctx, span := s.tracer.Start(ctx, "ExpenseGroupService.Delete")
	defer span.End()

	group, err := s.groups.FindOwned(ctx, userID, id)
	if err != nil {
		if isNoRows(err) {
			return newNotFound("Expense group not found.")
		}
		span.RecordError(err)
		return fmt.Errorf("get expense group: %w", err)
	}

	inUse, err := s.groups.HasExpenses(ctx, group.ID)
	if err != nil {
		span.RecordError(err)
		return fmt.Errorf("check group usage: %w", err)
	}
	if inUse {
		return newConflict("group_in_use", "Expense group still has expenses.")
	}

	if err := s.groups.Delete(ctx, group.ID); err != nil {
		span.RecordError(err)
		return fmt.Errorf("delete expense group: %w", err)
	}
	return nil
}
