package api

import (
	"net/http"

	"github.com/ayo6706/wallet-ledger/internal/api/handler"
	"github.com/ayo6706/wallet-ledger/internal/api/middleware"
	"github.com/ayo6706/wallet-ledger/internal/api/spec"
	"github.com/ayo6706/wallet-ledger/internal/config"
	"github.com/ayo6706/wallet-ledger/internal/domain"
	"github.com/ayo6706/wallet-ledger/internal/idempotency"
	"github.com/ayo6706/wallet-ledger/internal/service"
	"github.com/go-chi/chi/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	httpSwagger "github.com/swaggo/http-swagger/v2"
	"go.uber.org/zap"
)

// ReportSource exposes the most recent scheduled reconciliation report.
type ReportSource interface {
	LastReport() *service.ReconciliationReport
}

type Router struct {
	cfg       *config.Config
	logger    *zap.Logger
	db        *pgxpool.Pool
	redis     redis.Cmdable
	idemStore idempotency.Store
	wallets   *service.WalletService
	transfers *service.TransferService
	audit     *service.AuditService
	recon     *service.ReconciliationService
	reports   ReportSource
}

// NewRouter wires the HTTP surface. db, redis and reports may be nil.
func NewRouter(
	cfg *config.Config,
	logger *zap.Logger,
	db *pgxpool.Pool,
	redisClient redis.Cmdable,
	idemStore idempotency.Store,
	wallets *service.WalletService,
	transfers *service.TransferService,
	audit *service.AuditService,
	recon *service.ReconciliationService,
	reports ReportSource,
) *Router {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Router{
		cfg:       cfg,
		logger:    logger,
		db:        db,
		redis:     redisClient,
		idemStore: idemStore,
		wallets:   wallets,
		transfers: transfers,
		audit:     audit,
		recon:     recon,
		reports:   reports,
	}
}

func (api *Router) Routes() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.TraceMiddleware)
	r.Use(middleware.RecoverMiddleware(api.logger))
	r.Use(middleware.LoggingMiddleware(api.logger))
	r.Use(middleware.MetricsMiddleware)

	healthHandler := handler.NewHealthHandler(api.db, api.redis)
	authHandler := handler.NewAuthHandler()
	walletHandler := handler.NewWalletHandler(api.wallets)
	transferHandler := handler.NewTransferHandler(api.transfers)
	adminHandler := handler.NewAdminHandler(api.wallets, api.audit, api.recon)

	// Public Routes
	r.Group(func(r chi.Router) {
		r.Use(middleware.PublicRateLimiter(api.cfg.PublicRateLimitRPS))

		r.Get("/health/live", healthHandler.Live)
		r.Get("/health/ready", healthHandler.Ready)
		r.Handle("/metrics", promhttp.Handler())
		r.Get("/v1/openapi.yaml", spec.OpenAPIHandler())
		r.Get("/swagger/*", httpSwagger.Handler(httpSwagger.URL("/v1/openapi.yaml")))
	})

	// Protected Routes
	r.Group(func(r chi.Router) {
		r.Use(middleware.AuthMiddleware)
		r.Use(middleware.AuthRateLimiter(api.cfg.AuthRateLimitRPS))

		// Wallets
		r.Post("/v1/wallets", walletHandler.CreateWallet)
		r.Get("/v1/wallets/{id}/balance", walletHandler.GetBalance)
		r.Get("/v1/wallets/{id}/statement", walletHandler.GetStatement)

		// Transfers
		r.With(middleware.IdempotencyMiddleware(api.idemStore, api.logger)).Post("/v1/transfers", transferHandler.CreateTransfer)

		// Admin
		r.Group(func(r chi.Router) {
			r.Use(middleware.RequireRole(domain.RoleAdmin))

			r.Post("/v1/auth/tokens", authHandler.IssueToken)
			r.Get("/v1/wallets", walletHandler.ListWallets)
			r.Get("/v1/ledger", adminHandler.ListLedger)
			r.Get("/v1/audit/events", adminHandler.ListAuditEvents)
			r.Post("/v1/reconciliation", adminHandler.Reconcile)
			r.Get("/v1/reconciliation", api.lastReport)
		})
	})

	return r
}

func (api *Router) lastReport(w http.ResponseWriter, r *http.Request) {
	if api.reports == nil {
		handler.RespondError(w, r, http.StatusNotFound, "reconciliation/not-scheduled", "scheduled reconciliation is not running")
		return
	}
	report := api.reports.LastReport()
	if report == nil {
		handler.RespondError(w, r, http.StatusNotFound, "reconciliation/no-report", "no reconciliation has completed yet")
		return
	}
	handler.RespondJSON(w, http.StatusOK, report)
}
