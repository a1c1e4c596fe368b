package service

import (
	"context"
	"fmt"
	"strings"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/francopiloto/finance-api/internal/domain"
	"github.com/francopiloto/finance-api/internal/repository"
)

// UserService manages user profiles.
type UserService struct {
	users  repository.UserRepository
	logger *zap.Logger
	tracer trace.Tracer
}

func NewUserService(users repository.UserRepository, logger *zap.Logger) *UserService {
	return &UserService{
		users:  users,
		logger: logger,
		tracer: otel.Tracer("github.com/francopiloto/finance-api/internal/service"),
	}
}

func (s *UserService) Get(ctx context.Context, id string) (domain.User, error) {
	ctx, span := s.tracer.Start(ctx, "UserService.Get")
	defer span.End()

	user, err := s.users.FindByID(ctx, id)
	if err != nil {
		if isNoRows(err) {
			return domain.User{}, newNotFound("User not found.")
		}
		span.RecordError(err)
		return domain.User{}, fmt.Errorf("get user: %w", err)
	}
	return user, nil
}

func (s *UserService) Update(ctx context.Context, id, name string) (domain.User, error) {
	ctx, span := s.tracer.Start(ctx, "UserService.Update")
	defer span.End()

	user, err := s.users.FindByID(ctx, id)
	if err != nil {
		if isNoRows(err) {
			return domain.User{}, newNotFound("User not found.")
		}
		span.RecordError(err)
		return domain.User{}, fmt.Errorf("get user: %w", err)
	}

	if name = strings.TrimSpace(name); name != "" {
		user.Name = name
	}

	updated, err := s.users.Update(ctx, user)
	if err != nil {
		span.RecordError(err)
		return domain.User{}, fmt.Errorf("update user: %w", err)
	}
	return updated, nil
}

// Delete removes the user; linked accounts survive with their user reference
// cleared and fall back to onboarding on next sign-in.
func (s *UserService) Delete(ctx context.Context, id string) error {
	ctx, span := s.tracer.Start(ctx, "UserService.Delete")
	defer span.End()

	if err := s.users.Delete(ctx, id); err != nil {
		if isNoRows(err) {
			return newNotFound("User not found.")
		}
		span.RecordError(err)
		return fmt.Errorf("delete user: %w", err)
	}

	s.logger.Info("user deleted", zap.String("user_id", id))
	return nil
}
