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

// OnboardingService turns a bare authenticated account into a full user.
// Creating the user, linking the accounts, and issuing the upgraded token
// pair happen in one transaction.
type OnboardingService struct {
	pool     repository.TxBeginner
	users    repository.UserRepository
	accounts repository.AccountRepository
	tokens   repository.TokenRepository
	auth     *AuthService
	logger   *zap.Logger
	tracer   trace.Tracer
}

func NewOnboardingService(pool repository.TxBeginner, users repository.UserRepository, accounts repository.AccountRepository, tokens repository.TokenRepository, auth *AuthService, logger *zap.Logger) *OnboardingService {
	return &OnboardingService{
		pool:     pool,
		users:    users,
		accounts: accounts,
		tokens:   tokens,
		auth:     auth,
		logger:   logger,
		tracer:   otel.Tracer("github.com/francopiloto/finance-api/internal/service"),
	}
}

// Onboard creates the user profile for the account and links every eligible
// same-email account to it. The returned tokens carry the new user claim.
func (s *OnboardingService) Onboard(ctx context.Context, account domain.Account, name, device string) (domain.User, *TokenResponse, error) {
	ctx, span := s.tracer.Start(ctx, "OnboardingService.Onboard")
	defer span.End()

	if account.UserID != "" {
		return domain.User{}, nil, newConflict("account_already_linked", "Account is already linked to a user.")
	}
	if !account.Verified {
		return domain.User{}, nil, newForbidden("account_not_verified", "Email address has not been verified.")
	}

	name = strings.TrimSpace(name)
	if name == "" {
		return domain.User{}, nil, newBadRequest("invalid_request", "Name is required.")
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		span.RecordError(err)
		return domain.User{}, nil, fmt.Errorf("begin onboarding: %w", err)
	}
	defer tx.Rollback(ctx)

	user, err := s.users.WithTx(tx).Create(ctx, domain.User{
		Name:  name,
		Email: account.Email,
	})
	if err != nil {
		span.RecordError(err)
		return domain.User{}, nil, fmt.Errorf("create user: %w", err)
	}

	linked, err := s.auth.AssignUserToAccount(ctx, s.accounts.WithTx(tx), account, user.ID)
	if err != nil {
		return domain.User{}, nil, err
	}

	tokens, err := s.auth.GenerateTokensWith(ctx, s.tokens.WithTx(tx), linked, device)
	if err != nil {
		return domain.User{}, nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		span.RecordError(err)
		return domain.User{}, nil, fmt.Errorf("commit onboarding: %w", err)
	}

	s.logger.Info("user onboarded",
		zap.String("user_id", user.ID),
		zap.String("account_id", account.ID))
	return user, tokens, nil
}
