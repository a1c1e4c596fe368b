package main

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/francopiloto/finance-api/internal/authn"
	"github.com/francopiloto/finance-api/internal/bootstrap"
	"github.com/francopiloto/finance-api/internal/config"
	"github.com/francopiloto/finance-api/internal/database"
	httptransport "github.com/francopiloto/finance-api/internal/http"
	"github.com/francopiloto/finance-api/internal/http/handler"
	"github.com/francopiloto/finance-api/internal/http/middleware"
	"github.com/francopiloto/finance-api/internal/oauth"
	"github.com/francopiloto/finance-api/internal/repository"
	"github.com/francopiloto/finance-api/internal/server"
	"github.com/francopiloto/finance-api/internal/service"
	"github.com/francopiloto/finance-api/internal/telemetry"
	"github.com/francopiloto/finance-api/internal/token"
)

func main() {
	app := fx.New(
		fx.Provide(
			newConfig,
			newLogger,
			newTelemetry,
			database.NewPool,
			newTxBeginner,
			newRedisClient,
			newTokenFactory,
			newAccountRepository,
			newTokenRepository,
			newUserRepository,
			newWalletRepository,
			newExpenseGroupRepository,
			newPaymentMethodRepository,
			newExpenseRepository,
			newInstallmentRepository,
			oauth.NewProviders,
			newStateStore,
			authn.NewAccessStrategy,
			authn.NewRefreshStrategy,
			service.NewAuthService,
			service.NewOnboardingService,
			service.NewUserService,
			service.NewWalletService,
			service.NewExpenseGroupService,
			service.NewPaymentMethodService,
			service.NewExpenseService,
			service.NewInstallmentService,
			newHandlers,
			newAuthMiddleware,
			newRateLimiter,
			newRouter,
		),
		fx.Invoke(useTelemetry, runMigrations, seedGroups, startHTTPServer),
	)

	app.Run()
}

func newConfig() (*config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	return &cfg, nil
}

func newLogger(cfg *config.Config) (*zap.Logger, error) {
	var (
		logger *zap.Logger
		err    error
	)
	if cfg.Environment == "development" {
		logger, err = zap.NewDevelopment()
	} else {
		logger, err = zap.NewProduction()
	}
	if err != nil {
		return nil, err
	}
	zap.ReplaceGlobals(logger)
	return logger, nil
}

func newTelemetry(lc fx.Lifecycle, cfg *config.Config, logger *zap.Logger) (*telemetry.Provider, error) {
	provider, err := telemetry.New(context.Background(), cfg, logger)
	if err != nil {
		return nil, fmt.Errorf("telemetry init: %w", err)
	}

	lc.Append(fx.Hook{
		OnStop: func(ctx context.Context) error {
			stopCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
			defer cancel()
			return provider.Shutdown(stopCtx)
		},
	})

	return provider, nil
}

func newRedisClient(lc fx.Lifecycle, cfg *config.Config) (redis.UniversalClient, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}
	lc.Append(fx.Hook{
		OnStop: func(context.Context) error {
			return client.Close()
		},
	})
	return client, nil
}

func newTokenFactory(cfg *config.Config) *token.Factory {
	return token.NewFactory(cfg.JWTSecret, cfg.JWTRefreshSecret, cfg.AccessTokenTTL, cfg.RefreshTokenTTL, cfg.TokenHorizon)
}

func newTxBeginner(pool *pgxpool.Pool) repository.TxBeginner {
	return pool
}

func newAccountRepository(pool *pgxpool.Pool) repository.AccountRepository {
	return repository.NewPostgresAccountRepo(pool)
}

func newTokenRepository(pool *pgxpool.Pool) repository.TokenRepository {
	return repository.NewPostgresTokenRepo(pool)
}

func newUserRepository(pool *pgxpool.Pool) repository.UserRepository {
	return repository.NewPostgresUserRepo(pool)
}

func newWalletRepository(pool *pgxpool.Pool) repository.WalletRepository {
	return repository.NewPostgresWalletRepo(pool)
}

func newExpenseGroupRepository(pool *pgxpool.Pool) repository.ExpenseGroupRepository {
	return repository.NewPostgresExpenseGroupRepo(pool)
}

func newPaymentMethodRepository(pool *pgxpool.Pool) repository.PaymentMethodRepository {
	return repository.NewPostgresPaymentMethodRepo(pool)
}

func newExpenseRepository(pool *pgxpool.Pool) repository.ExpenseRepository {
	return repository.NewPostgresExpenseRepo(pool)
}

func newInstallmentRepository(pool *pgxpool.Pool) repository.InstallmentRepository {
	return repository.NewPostgresInstallmentRepo(pool)
}

func newStateStore(client redis.UniversalClient) *oauth.StateStore {
	return oauth.NewStateStore(client)
}

func newHandlers(
	auth *service.AuthService,
	onboarding *service.OnboardingService,
	users *service.UserService,
	wallets *service.WalletService,
	groups *service.ExpenseGroupService,
	methods *service.PaymentMethodService,
	expenses *service.ExpenseService,
	installments *service.InstallmentService,
	providers *oauth.Providers,
	states *oauth.StateStore,
) httptransport.Handlers {
	return httptransport.Handlers{
		Auth:         &handler.AuthHandler{Auth: auth, Providers: providers, States: states},
		Users:        &handler.UserHandler{Onboarding: onboarding, Users: users},
		Wallets:      &handler.WalletHandler{Wallets: wallets},
		Groups:       &handler.ExpenseGroupHandler{Groups: groups},
		Methods:      &handler.PaymentMethodHandler{Methods: methods},
		Expenses:     &handler.ExpenseHandler{Expenses: expenses},
		Installments: &handler.InstallmentHandler{Installments: installments},
	}
}

func newAuthMiddleware(access *authn.AccessStrategy, refresh *authn.RefreshStrategy) *middleware.Auth {
	return &middleware.Auth{Access: access, Refresh: refresh}
}

func newRateLimiter(cfg *config.Config) *middleware.RateLimiter {
	return middleware.NewRateLimiter(cfg.RateLimitRPM)
}

func newRouter(cfg *config.Config, logger *zap.Logger, h httptransport.Handlers, auth *middleware.Auth, rateLimiter *middleware.RateLimiter) *server.HTTPServer {
	engine := httptransport.NewRouter(cfg, logger, h, auth, rateLimiter)
	return server.NewHTTPServer(engine)
}

func runMigrations(cfg *config.Config, logger *zap.Logger) error {
	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
	defer cancel()
	return database.Migrate(ctx, cfg.DatabaseURL, logger)
}

func seedGroups(groups repository.ExpenseGroupRepository, logger *zap.Logger) error {
	return bootstrap.EnsureDefaultGroups(groups, logger)
}

func startHTTPServer(lc fx.Lifecycle, srv *server.HTTPServer, cfg *config.Config, logger *zap.Logger) {
	addr := ":" + cfg.HTTPPort
	var (
		cancel context.CancelFunc
		done   chan struct{}
	)

	lc.Append(fx.Hook{
		OnStart: func(context.Context) error {
			runCtx, stop := context.WithCancel(context.Background())
			cancel = stop
			done = make(chan struct{})

			go func() {
				if err := srv.Run(runCtx, addr); err != nil {
					logger.Error("http server stopped", zap.Error(err))
				}
				close(done)
			}()

			return nil
		},
		OnStop: func(ctx context.Context) error {
			if cancel != nil {
				cancel()
			}
			if done == nil {
				return nil
			}
			select {
			case <-done:
				return nil
			case <-ctx.Done():
				return ctx.Err()
			}
		},
	})
}

func useTelemetry(*telemetry.Provider) {}
