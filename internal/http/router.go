// Package http wires the gin engine, routes, and middleware.
package http

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"go.uber.org/zap"

	"github.com/francopiloto/finance-api/internal/config"
	"github.com/francopiloto/finance-api/internal/http/handler"
	"github.com/francopiloto/finance-api/internal/http/middleware"
)

// Handlers groups the route handlers the router mounts.
type Handlers struct {
	Auth         *handler.AuthHandler
	Users        *handler.UserHandler
	Wallets      *handler.WalletHandler
	Groups       *handler.ExpenseGroupHandler
	Methods      *handler.PaymentMethodHandler
	Expenses     *handler.ExpenseHandler
	Installments *handler.InstallmentHandler
}

// NewRouter wires gin routes and middleware.
func NewRouter(cfg *config.Config, logger *zap.Logger, h Handlers, auth *middleware.Auth, rateLimiter *middleware.RateLimiter) *gin.Engine {
	if cfg.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	registerValidations()

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.RequestLogger(logger))
	if rateLimiter != nil {
		r.Use(rateLimiter.Handler())
	}
	r.Use(middleware.CORS(cfg))
	r.Use(otelgin.Middleware(cfg.ServiceName))

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	authGroup := r.Group("/auth")
	{
		authGroup.POST("/signup", h.Auth.Signup)
		authGroup.POST("/signin", h.Auth.Signin)
		authGroup.POST("/signout", auth.RequireAccess, h.Auth.Signout)
		authGroup.POST("/refresh", auth.RequireRefresh, h.Auth.Refresh)
		authGroup.GET("/me", auth.RequireAccess, h.Auth.Me)

		authGroup.GET("/oauth/:provider", h.Auth.OAuthStart)
		authGroup.GET("/oauth/:provider/callback", h.Auth.OAuthCallback)
	}

	users := r.Group("/users", auth.RequireAccess)
	{
		users.POST("", auth.RequireVerified, h.Users.Create)

		me := users.Group("/me", auth.RequireUser)
		{
			me.GET("", h.Users.Me)
			me.PATCH("", h.Users.Update)
			me.DELETE("", h.Users.Delete)
		}
	}

	// Finance routes require a fully onboarded account.
	finance := r.Group("", auth.RequireAccess, auth.RequireUser)
	{
		wallets := finance.Group("/wallets")
		{
			wallets.POST("", h.Wallets.Create)
			wallets.GET("", h.Wallets.List)
			wallets.GET("/:id", h.Wallets.Get)
			wallets.PUT("/:id", h.Wallets.Update)
			wallets.DELETE("/:id", h.Wallets.Delete)
		}

		groups := finance.Group("/expense-groups")
		{
			groups.POST("", h.Groups.Create)
			groups.GET("", h.Groups.List)
			groups.GET("/:id", h.Groups.Get)
			groups.PUT("/:id", h.Groups.Update)
			groups.DELETE("/:id", h.Groups.Delete)
		}

		methods := finance.Group("/payment-methods")
		{
			methods.POST("", h.Methods.Create)
			methods.GET("", h.Methods.List)
			methods.GET("/:id", h.Methods.Get)
			methods.PUT("/:id", h.Methods.Update)
			methods.DELETE("/:id", h.Methods.Delete)
		}

		expenses := finance.Group("/expenses")
		{
			expenses.POST("", h.Expenses.Create)
			expenses.GET("/:id", h.Expenses.Get)
			expenses.PATCH("/:id", h.Expenses.Update)
			expenses.DELETE("/:id", h.Expenses.Delete)
			expenses.POST("/:id/installments", h.Installments.Create)
		}

		installments := finance.Group("/installments")
		{
			installments.GET("", h.Installments.List)
			installments.GET("/:id", h.Installments.Get)
			installments.PATCH("/:id", h.Installments.Update)
			installments.DELETE("/:id", h.Installments.Delete)
		}
	}

	return r
}

// registerValidations adds custom binding validators shared by the handlers.
func registerValidations() {
	v, ok := binding.Validator.Engine().(*validator.Validate)
	if !ok {
		return
	}
	_ = v.RegisterValidation("notblank", func(fl validator.FieldLevel) bool {
		return strings.TrimSpace(fl.Field().String()) != ""
	})
}
