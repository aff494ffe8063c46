package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/DanielPopoola/ficmart-billing/internal/adapters/handler"
	"github.com/DanielPopoola/ficmart-billing/internal/adapters/handler/middleware"
	"github.com/DanielPopoola/ficmart-billing/internal/adapters/postgres"
	billingredis "github.com/DanielPopoola/ficmart-billing/internal/adapters/redis"
	"github.com/DanielPopoola/ficmart-billing/internal/config"
	"github.com/DanielPopoola/ficmart-billing/internal/core/ports"
	"github.com/DanielPopoola/ficmart-billing/internal/core/service"
	"github.com/DanielPopoola/ficmart-billing/internal/worker"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	logger := cfg.Logger.NewLogger()
	slog.SetDefault(logger)

	logger.Info("starting billing service",
		"env", cfg.Primary.Env,
		"port", cfg.Server.Port,
		"log_level", cfg.Logger.Level,
		"sequence_backend", cfg.Sequence.Backend,
	)

	if err := postgres.Migrate(&cfg.Database, logger); err != nil {
		logger.Error("failed to migrate database", "error", err)
		os.Exit(1)
	}

	ctx := context.Background()
	db, err := postgres.Connect(ctx, &cfg.Database, logger)
	if err != nil {
		logger.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	seq, closeSeq, err := newSequence(ctx, cfg.Sequence, logger)
	if err != nil {
		logger.Error("failed to set up invoice sequence", "error", err)
		os.Exit(1)
	}
	defer closeSeq()

	paymentRepo := postgres.NewPaymentRepository(db)
	invoiceRepo := postgres.NewInvoiceRepository(db)

	invoiceService := service.NewInvoiceService(invoiceRepo, paymentRepo, service.NewInvoiceNumberer(seq), logger)
	paymentService := service.NewPaymentService(paymentRepo, invoiceService, logger)

	mux := http.NewServeMux()
	handler.NewPaymentHandler(paymentService, logger).RegisterRoutes(mux)
	handler.NewInvoiceHandler(invoiceService, logger).RegisterRoutes(mux)
	handler.RegisterHealth(mux, db)

	server := &http.Server{
		Addr: "0.0.0.0:" + cfg.Server.Port,
		Handler: middleware.Chain(mux,
			middleware.Logging(logger),
			middleware.Recovery(logger),
			middleware.Timeout(cfg.Server.RequestTimeout),
		),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	reconciler := worker.NewInvoiceReconciler(
		paymentRepo,
		invoiceService,
		cfg.Worker.Interval,
		cfg.Worker.BatchSize,
		logger,
	)

	workerCtx, cancelWorkers := context.WithCancel(context.Background())
	defer cancelWorkers()

	go reconciler.Start(workerCtx)

	go func() {
		logger.Info("server starting", "addr", server.Addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down server...")

	cancelWorkers()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("server forced to shutdown", "error", err)
	}

	logger.Info("server exited")
}

// newSequence returns the invoice sequence source for the configured backend
// and a func releasing whatever it holds.
func newSequence(ctx context.Context, cfg config.SequenceConfig, logger *slog.Logger) (ports.SequenceSource, func(), error) {
	if cfg.Backend != config.SequenceBackendRedis {
		logger.Warn("using in-process invoice sequence; numbers restart with the process")
		return service.NewAtomicSequence(), func() {}, nil
	}

	client, err := billingredis.Connect(ctx, cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB, logger)
	if err != nil {
		return nil, nil, err
	}
	closeFn := func() {
		if err := client.Close(); err != nil {
			logger.Warn("failed to close redis client", "error", err)
		}
	}
	return billingredis.NewSequence(client, cfg.Key), closeFn, nil
}
