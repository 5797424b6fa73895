package app

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/ayo6706/wallet-ledger/internal/api"
	"github.com/ayo6706/wallet-ledger/internal/api/middleware"
	"github.com/ayo6706/wallet-ledger/internal/config"
	"github.com/ayo6706/wallet-ledger/internal/db"
	"github.com/ayo6706/wallet-ledger/internal/directory"
	"github.com/ayo6706/wallet-ledger/internal/domain"
	"github.com/ayo6706/wallet-ledger/internal/idempotency"
	"github.com/ayo6706/wallet-ledger/internal/ledger"
	"github.com/ayo6706/wallet-ledger/internal/observability"
	"github.com/ayo6706/wallet-ledger/internal/service"
	"github.com/ayo6706/wallet-ledger/internal/sink"
	"github.com/ayo6706/wallet-ledger/internal/wallet"
	"github.com/ayo6706/wallet-ledger/internal/worker"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// Run bootstraps the ledger, the HTTP server and the reconciliation worker,
// blocking until shutdown.
func Run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	logger, err := newLogger(cfg.LogLevel)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer logger.Sync()
	zap.ReplaceGlobals(logger)
	observability.Init()
	middleware.SetJWTSecret(cfg.JWTSecret)
	middleware.SetJWTValidation(cfg.JWTIssuer, cfg.JWTAudience)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var pool *pgxpool.Pool
	if cfg.DatabaseURL != "" {
		pool, err = db.Connect(ctx, cfg.DatabaseURL)
		if err != nil {
			return fmt.Errorf("connect database: %w", err)
		}
		defer pool.Close()
	}

	var redisClient *redis.Client
	if cfg.RedisURL != "" {
		redisClient, err = newRedisClient(cfg.RedisURL)
		if err != nil {
			return fmt.Errorf("connect redis: %w", err)
		}
		defer redisClient.Close()
	}

	dir, err := newDirectory(ctx, cfg, pool)
	if err != nil {
		return err
	}

	txSink, err := newSink(ctx, cfg, pool, redisClient)
	if err != nil {
		return err
	}
	l := ledger.New(logger)
	stopSink := func() {}
	switch s := txSink.(type) {
	case nil:
	case *sink.Async:
		stopSink = s.Run(ctx)
		l.WithSink(s)
	default:
		l.WithSink(s)
	}

	store := wallet.NewStore()
	audit := service.NewAuditService(cfg.AuditCapacity, logger)
	walletSvc := service.NewWalletService(store, l, dir, logger)
	transferSvc := service.NewTransferService(store, l, dir, audit, logger).
		WithLockTimeout(cfg.LockTimeout).
		WithRetryBackoff(cfg.LockRetryBackoff)
	reconSvc := service.NewReconciliationService(store, l, logger)

	reconWorker := worker.NewReconciliationWorker(reconSvc).WithInterval(cfg.ReconciliationInterval)
	stopWorker := reconWorker.Run(ctx)
	logger.Info("reconciliation worker started", zap.Duration("interval", cfg.ReconciliationInterval))

	var idemStore idempotency.Store
	var redisCmd redis.Cmdable
	if redisClient != nil {
		idemStore = idempotency.NewRedisStore(redisClient, cfg.IdempotencyTTL)
		redisCmd = redisClient
	} else {
		idemStore = idempotency.NewMemoryStore(cfg.IdempotencyTTL)
	}

	router := api.NewRouter(cfg, logger, pool, redisCmd, idemStore, walletSvc, transferSvc, audit, reconSvc, reconWorker)

	server := &http.Server{
		Addr:         ":" + cfg.HTTPPort,
		Handler:      router.Routes(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	serverErr := make(chan error, 1)
	go func() {
		logger.Info("http server starting", zap.String("port", cfg.HTTPPort))
		serverErr <- server.ListenAndServe()
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	select {
	case <-sigChan:
		logger.Info("shutdown signal received")
	case err := <-serverErr:
		if err != nil && err != http.ErrServerClosed {
			return fmt.Errorf("server error: %w", err)
		}
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("http server shutdown failed", zap.Error(err))
	}

	logger.Info("stopping reconciliation worker")
	stopWorker()
	logger.Info("flushing transaction sink")
	stopSink()

	logger.Info("shutdown complete")
	return nil
}

func newDirectory(ctx context.Context, cfg *config.Config, pool *pgxpool.Pool) (directory.Directory, error) {
	if cfg.DirectoryBackend != domain.DirectoryBackendPostgres {
		return directory.NewMemory(), nil
	}
	pg := directory.NewPostgres(pool)
	if err := pg.EnsureSchema(ctx); err != nil {
		return nil, fmt.Errorf("prepare directory schema: %w", err)
	}
	return pg, nil
}

// newSink returns nil when no backend is configured.
func newSink(ctx context.Context, cfg *config.Config, pool *pgxpool.Pool, client *redis.Client) (sink.Sink, error) {
	var backend sink.Sink
	switch cfg.SinkBackend {
	case domain.SinkBackendRedis:
		backend = sink.NewRedisStream(client, cfg.SinkStream).WithMaxLen(cfg.SinkStreamMaxLen)
	case domain.SinkBackendPostgres:
		pg := sink.NewPostgres(pool)
		if err := pg.EnsureSchema(ctx); err != nil {
			return nil, fmt.Errorf("prepare sink schema: %w", err)
		}
		backend = pg
	default:
		return nil, nil
	}
	if cfg.SinkMode == domain.SinkModeSync {
		return backend, nil
	}
	return sink.NewAsync(backend, cfg.SinkBuffer, zap.L().Named("sink")), nil
}

func newLogger(level string) (*zap.Logger, error) {
	cfg := zap.NewProductionConfig()
	switch strings.ToLower(level) {
	case "debug":
		cfg.Level = zap.NewAtomicLevelAt(zap.DebugLevel)
	case "info", "":
		cfg.Level = zap.NewAtomicLevelAt(zap.InfoLevel)
	case "warn":
		cfg.Level = zap.NewAtomicLevelAt(zap.WarnLevel)
	case "error":
		cfg.Level = zap.NewAtomicLevelAt(zap.ErrorLevel)
	default:
		cfg.Level = zap.NewAtomicLevelAt(zap.InfoLevel)
	}
	return cfg.Build()
}

func newRedisClient(url string) (*redis.Client, error) {
	opt, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	client := redis.NewClient(opt)
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}
	return client, nil
}
