package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/francopiloto/finance-api/internal/domain"
	"github.com/francopiloto/finance-api/internal/repository"
)

// uniqueViolation is the Postgres error code raised on unique constraints.
const uniqueViolation = "23505"

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == uniqueViolation
}

// WalletService manages user wallets.
type WalletService struct {
	wallets repository.WalletRepository
	logger  *zap.Logger
	tracer  trace.Tracer
}

func NewWalletService(wallets repository.WalletRepository, logger *zap.Logger) *WalletService {
	return &WalletService{
		wallets: wallets,
		logger:  logger,
		tracer:  otel.Tracer("github.com/francopiloto/finance-api/internal/service"),
	}
}

func (s *WalletService) Create(ctx context.Context, wallet domain.Wallet) (domain.Wallet, error) {
	ctx, span := s.tracer.Start(ctx, "WalletService.Create")
	defer span.End()

	created, err := s.wallets.Create(ctx, wallet)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.Wallet{}, newConflict("wallet_name_in_use", "A wallet with this name already exists.")
		}
		span.RecordError(err)
		return domain.Wallet{}, fmt.Errorf("create wallet: %w", err)
	}
	return created, nil
}

func (s *WalletService) List(ctx context.Context, userID string) ([]domain.Wallet, error) {
	ctx, span := s.tracer.Start(ctx, "WalletService.List")
	defer span.End()

	wallets, err := s.wallets.ListByUser(ctx, userID)
	if err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("list wallets: %w", err)
	}
	return wallets, nil
}

func (s *WalletService) Get(ctx context.Context, userID, id string) (domain.Wallet, error) {
	ctx, span := s.tracer.Start(ctx, "WalletService.Get")
	defer span.End()

	wallet, err := s.wallets.FindByID(ctx, userID, id)
	if err != nil {
		if isNoRows(err) {
			return domain.Wallet{}, newNotFound("Wallet not found.")
		}
		span.RecordError(err)
		return domain.Wallet{}, fmt.Errorf("get wallet: %w", err)
	}
	return wallet, nil
}

func (s *WalletService) Update(ctx context.Context, wallet domain.Wallet) (domain.Wallet, error) {
	ctx, span := s.tracer.Start(ctx, "WalletService.Update")
	defer span.End()

	updated, err := s.wallets.Update(ctx, wallet)
	if err != nil {
		switch {
		case isNoRows(err):
			return domain.Wallet{}, newNotFound("Wallet not found.")
		case isUniqueViolation(err):
			return domain.Wallet{}, newConflict("wallet_name_in_use", "A wallet with this name already exists.")
		}
		span.RecordError(err)
		return domain.Wallet{}, fmt.Errorf("update wallet: %w", err)
	}
	return updated, nil
}

func (s *WalletService) Delete(ctx context.Context, userID, id string) error {
	ctx, span := s.tracer.Start(ctx, "WalletService.Delete")
	defer span.End()

	if err := s.wallets.Delete(ctx, userID, id); err != nil {
		if isNoRows(err) {
			return newNotFound("Wallet not found.")
		}
		span.RecordError(err)
		return fmt.Errorf("delete wallet: %w", err)
	}
	return nil
}
