package api

import (
	"net/http"

	"github.com/freelancehub/wallet-ledger/internal/api/handler"
	"github.com/freelancehub/wallet-ledger/internal/api/middleware"
	"github.com/freelancehub/wallet-ledger/internal/api/spec"
	"github.com/freelancehub/wallet-ledger/internal/config"
	"github.com/freelancehub/wallet-ledger/internal/domain"
	"github.com/freelancehub/wallet-ledger/internal/service"
	"github.com/go-chi/chi/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	httpSwagger "github.com/swaggo/http-swagger/v2"
	"go.uber.org/zap"
)

// Services groups the domain services the HTTP layer exposes.
type Services struct {
	Wallets *service.WalletService
	Payouts *service.PayoutService
	Orders  *service.OrderService
}

type Router struct {
	cfg         *config.Config
	logger      *zap.Logger
	db          *pgxpool.Pool
	redis       redis.Cmdable
	idempotency middleware.IdempotencyStore
	services    Services
}

func NewRouter(cfg *config.Config, logger *zap.Logger, db *pgxpool.Pool, redis redis.Cmdable, idem middleware.IdempotencyStore, services Services) *Router {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Router{
		cfg:         cfg,
		logger:      logger,
		db:          db,
		redis:       redis,
		idempotency: idem,
		services:    services,
	}
}

func (api *Router) Routes() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.TraceMiddleware)
	r.Use(middleware.LoggingMiddleware(api.logger))
	r.Use(middleware.MetricsMiddleware)
	r.Use(middleware.RecoverMiddleware(api.logger))
	if len(api.cfg.CORSAllowedOrigins) > 0 {
		r.Use(middleware.CORSMiddleware(api.cfg.CORSAllowedOrigins))
	}

	healthHandler := handler.NewHealthHandler(api.db, api.redis)
	walletHandler := handler.NewWalletHandler(api.services.Wallets)
	orderHandler := handler.NewOrderHandler(api.services.Orders)
	adminHandler := handler.NewAdminHandler(api.services.Wallets, api.services.Payouts)
	idempotent := middleware.IdempotencyMiddleware(api.idempotency, api.logger)

	// Operational routes
	r.Get("/health/live", healthHandler.Live)
	r.Get("/health/ready", healthHandler.Ready)
	r.Handle("/metrics", promhttp.Handler())
	r.Get("/openapi.yaml", spec.OpenAPIHandler())
	r.Get("/docs", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/docs/index.html", http.StatusMovedPermanently)
	})
	r.Get("/docs/*", httpSwagger.Handler(httpSwagger.URL("/openapi.yaml")))

	r.Group(func(r chi.Router) {
		r.Use(middleware.PublicRateLimiter(api.cfg.PublicRateLimitRPS))
		r.Get("/v1/freelancers/{id}/stats", orderHandler.FreelancerStats)
	})

	// Protected routes
	r.Group(func(r chi.Router) {
		r.Use(middleware.AuthMiddleware)
		r.Use(middleware.AuthRateLimiter(api.cfg.AuthRateLimitRPS))

		r.Route("/v1/freelancer/wallet", func(r chi.Router) {
			r.Use(middleware.RequireRole(domain.RoleFreelancer))
			r.Get("/", walletHandler.GetWallet)
			r.Get("/transactions", walletHandler.ListTransactions)
			r.With(idempotent).Post("/payout-request", walletHandler.RequestPayout)
			r.Get("/payout-requests", walletHandler.ListPayoutRequests)
		})

		r.Route("/v1/orders", func(r chi.Router) {
			r.With(middleware.RequireRole(domain.RoleClient)).Post("/", orderHandler.Create)
			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", orderHandler.Get)
				r.Post("/start", orderHandler.Start)
				r.Post("/submit-review", orderHandler.SubmitForReview)
				r.Post("/deliver", orderHandler.Deliver)
				r.Post("/request-revision", orderHandler.RequestRevision)
				r.Post("/complete", orderHandler.Complete)
				r.Post("/cancel", orderHandler.Cancel)
				r.Post("/review", orderHandler.Review)
			})
		})

		r.Route("/v1/admin", func(r chi.Router) {
			r.Use(middleware.RequireRole(domain.RoleAdmin))
			r.Post("/orders/{id}/verify-payment", orderHandler.VerifyPayment)
			r.Post("/orders/{id}/reject-payment", orderHandler.RejectPayment)
			r.Get("/payouts", adminHandler.ListPayouts)
			r.Get("/payouts/{id}", adminHandler.GetPayout)
			r.Post("/payouts/{id}/process", adminHandler.ProcessPayout)
			r.With(idempotent).Post("/wallets/manual-operation", adminHandler.ManualOperation)
			r.Post("/wallets/{wallet}/lock", adminHandler.LockWallet)
			r.Post("/wallets/{wallet}/unlock", adminHandler.UnlockWallet)
			r.Get("/wallets/export", adminHandler.ExportWallets)
		})
	})

	return r
}
