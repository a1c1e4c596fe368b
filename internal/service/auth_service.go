package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/francopiloto/finance-api/internal/config"
	"github.com/francopiloto/finance-api/internal/domain"
	pw "github.com/francopiloto/finance-api/internal/password"
	"github.com/francopiloto/finance-api/internal/repository"
	"github.com/francopiloto/finance-api/internal/token"
)

// TokenResponse matches OAuth token responses.
type TokenResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token,omitempty"`
	TokenType    string `json:"token_type"`
	ExpiresIn    int    `json:"expires_in"`
}

// AuthService encapsulates authentication flows.
type AuthService struct {
	accounts repository.AccountRepository
	tokens   repository.TokenRepository
	factory  *token.Factory
	cfg      *config.Config
	logger   *zap.Logger
	tracer   trace.Tracer
}

// NewAuthService wires dependencies.
func NewAuthService(accounts repository.AccountRepository, tokens repository.TokenRepository, factory *token.Factory, cfg *config.Config, logger *zap.Logger) *AuthService {
	return &AuthService{
		accounts: accounts,
		tokens:   tokens,
		factory:  factory,
		cfg:      cfg,
		logger:   logger,
		tracer:   otel.Tracer("github.com/francopiloto/finance-api/internal/service"),
	}
}

func (s *AuthService) startSpan(ctx context.Context, name string) (context.Context, trace.Span) {
	return s.tracer.Start(ctx, name)
}

// RegisterLocal creates a password account. The account starts unverified but
// still receives tokens so the client can poll verification state.
func (s *AuthService) RegisterLocal(ctx context.Context, email, password, device string) (*TokenResponse, error) {
	ctx, span := s.startSpan(ctx, "AuthService.RegisterLocal")
	defer span.End()

	normalized := strings.ToLower(strings.TrimSpace(email))

	_, err := s.accounts.FindLocalByEmail(ctx, normalized)
	if err == nil {
		return nil, newConflict("email_in_use", "An account with this email already exists.")
	}
	if !isNoRows(err) {
		span.RecordError(err)
		return nil, fmt.Errorf("check existing account: %w", err)
	}

	hash, err := pw.Hash(password)
	if err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("hash password: %w", err)
	}

	account, err := s.accounts.Create(ctx, domain.Account{
		Provider:     domain.ProviderLocal,
		Email:        normalized,
		PasswordHash: hash,
	})
	if err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("create account: %w", err)
	}

	// TODO: send the verification email once the mailer service lands.
	s.logger.Info("account registered",
		zap.String("account_id", account.ID),
		zap.String("provider", string(account.Provider)))

	return s.GenerateTokens(ctx, account, device)
}

// LoginLocal authenticates a password account.
func (s *AuthService) LoginLocal(ctx context.Context, email, password, device string) (*TokenResponse, error) {
	ctx, span := s.startSpan(ctx, "AuthService.LoginLocal")
	defer span.End()

	normalized := strings.ToLower(strings.TrimSpace(email))

	account, err := s.accounts.FindLocalByEmailWithPassword(ctx, normalized)
	if err != nil {
		if isNoRows(err) {
			return nil, newUnauthorized("invalid_credentials", "Wrong email or password.")
		}
		span.RecordError(err)
		return nil, fmt.Errorf("find account: %w", err)
	}

	if !pw.Verify(password, account.PasswordHash) {
		return nil, newUnauthorized("invalid_credentials", "Wrong email or password.")
	}
	if !account.Verified {
		return nil, newForbidden("account_not_verified", "Email address has not been verified.")
	}

	if err := s.accounts.UpdateLastLogin(ctx, account.ID, time.Now().UTC()); err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("update last login: %w", err)
	}

	s.logger.Info("account signed in",
		zap.String("account_id", account.ID),
		zap.String("provider", string(account.Provider)),
		zap.String("device", device))

	return s.GenerateTokens(ctx, account, device)
}

// LoginOAuth resolves or provisions an account from a provider profile.
// A new account whose verified email already belongs to a linked account is
// attached to that account's user, so provider identities with the same
// mailbox converge on one user.
func (s *AuthService) LoginOAuth(ctx context.Context, profile domain.OAuthProfile, device string) (*TokenResponse, error) {
	ctx, span := s.startSpan(ctx, "AuthService.LoginOAuth")
	defer span.End()

	if !profile.Provider.Valid() || profile.Provider == domain.ProviderLocal {
		return nil, newBadRequest("invalid_request", "Unsupported identity provider.")
	}

	email := strings.ToLower(strings.TrimSpace(profile.Email))

	account, err := s.accounts.FindByProvider(ctx, profile.Provider, profile.ProviderUserID, email)
	switch {
	case err == nil:
	case isNoRows(err):
		account, err = s.provisionOAuthAccount(ctx, profile, email)
		if err != nil {
			span.RecordError(err)
			return nil, err
		}
	default:
		span.RecordError(err)
		return nil, fmt.Errorf("find provider account: %w", err)
	}

	if err := s.accounts.UpdateLastLogin(ctx, account.ID, time.Now().UTC()); err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("update last login: %w", err)
	}

	s.logger.Info("account signed in",
		zap.String("account_id", account.ID),
		zap.String("provider", string(account.Provider)),
		zap.String("device", device))

	return s.GenerateTokens(ctx, account, device)
}

func (s *AuthService) provisionOAuthAccount(ctx context.Context, profile domain.OAuthProfile, email string) (domain.Account, error) {
	account := domain.Account{
		Provider:       profile.Provider,
		ProviderUserID: profile.ProviderUserID,
		Email:          email,
		AvatarURL:      profile.AvatarURL,
		Verified:       true,
	}

	if email != "" {
		linked, err := s.accounts.FindVerifiedLinkedByEmail(ctx, email)
		switch {
		case err == nil:
			account.UserID = linked.UserID
		case !isNoRows(err):
			return domain.Account{}, fmt.Errorf("find linked account: %w", err)
		}
	}

	created, err := s.accounts.Create(ctx, account)
	if err != nil {
		return domain.Account{}, fmt.Errorf("create account: %w", err)
	}

	s.logger.Info("account provisioned",
		zap.String("account_id", created.ID),
		zap.String("provider", string(created.Provider)))
	return created, nil
}

// GenerateTokens issues a fresh token pair and stores the refresh hash for
// the (account, device) pair, replacing any previous one.
func (s *AuthService) GenerateTokens(ctx context.Context, account domain.Account, device string) (*TokenResponse, error) {
	return s.GenerateTokensWith(ctx, s.tokens, account, device)
}

// GenerateTokensWith issues tokens through the given repository, so callers
// already inside a transaction can persist the record with it.
func (s *AuthService) GenerateTokensWith(ctx context.Context, tokens repository.TokenRepository, account domain.Account, device string) (*TokenResponse, error) {
	ctx, span := s.startSpan(ctx, "AuthService.GenerateTokens")
	defer span.End()

	access, refresh, record, err := s.factory.Generate(account, device)
	if err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("generate tokens: %w", err)
	}

	if _, err := tokens.Upsert(ctx, record); err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("store refresh token: %w", err)
	}

	return &TokenResponse{
		AccessToken:  access,
		RefreshToken: refresh,
		TokenType:    "Bearer",
		ExpiresIn:    int(s.cfg.AccessTokenTTL.Seconds()),
	}, nil
}

// Signout discards the refresh-token record for the device. Signing out a
// device with no record succeeds.
func (s *AuthService) Signout(ctx context.Context, accountID, device string) error {
	ctx, span := s.startSpan(ctx, "AuthService.Signout")
	defer span.End()

	if err := s.tokens.Delete(ctx, accountID, device); err != nil {
		span.RecordError(err)
		return fmt.Errorf("signout: %w", err)
	}

	s.logger.Info("account signed out",
		zap.String("account_id", accountID),
		zap.String("device", device))
	return nil
}

// AssignUserToAccount links the account to the user, together with every
// other verified unlinked account sharing the same email. The caller supplies
// a transaction-scoped repository; the linked account is re-read through it.
func (s *AuthService) AssignUserToAccount(ctx context.Context, accounts repository.AccountRepository, account domain.Account, userID string) (domain.Account, error) {
	ctx, span := s.startSpan(ctx, "AuthService.AssignUserToAccount")
	defer span.End()

	if account.UserID != "" {
		return domain.Account{}, newConflict("account_already_linked", "Account is already linked to a user.")
	}

	ids := []string{account.ID}
	if account.Email != "" {
		assignable, err := accounts.FindAssignable(ctx, account.Email, account.ID)
		if err != nil {
			span.RecordError(err)
			return domain.Account{}, fmt.Errorf("find assignable accounts: %w", err)
		}
		for _, a := range assignable {
			ids = append(ids, a.ID)
		}
	}

	if err := accounts.AssignUser(ctx, userID, ids); err != nil {
		span.RecordError(err)
		return domain.Account{}, fmt.Errorf("assign user: %w", err)
	}

	linked, err := accounts.FindByID(ctx, account.ID)
	if err != nil {
		span.RecordError(err)
		return domain.Account{}, fmt.Errorf("reload account: %w", err)
	}

	s.logger.Info("accounts linked to user",
		zap.String("user_id", userID),
		zap.Int("account_count", len(ids)))
	return linked, nil
}
