package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"lapor/internal/amqp"
	"lapor/internal/audit"
	"lapor/internal/config"
	apphttp "lapor/internal/http"
	"lapor/internal/log"
	"lapor/internal/render"
	"lapor/internal/services"
	"lapor/internal/storage"
)

func main() {
	// Load .env for local development (ignore errors in production/docker)
	_ = godotenv.Load()

	logger := log.New(log.DefaultConfig())
	log.SetDefault(logger)

	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		logger.Error("Configuration validation failed", "error", err)
		os.Exit(1)
	}

	// NewSQLiteRepository runs the embedded migrations before returning.
	repo, err := storage.NewSQLiteRepository(cfg.SQLiteDBPath)
	if err != nil {
		logger.Error("Failed to initialize SQLite repository", "error", err, "path", cfg.SQLiteDBPath)
		os.Exit(1)
	}
	defer repo.Close()

	renderer, err := render.FromConfig(cfg, logger.WithComponent(log.ComponentRenderer).Logger)
	if err != nil {
		logger.Error("Failed to initialize renderer", "error", err, "renderer", cfg.Renderer)
		os.Exit(1)
	}

	// AMQP is optional: without it, audit events go to the log and the
	// recap mirror relies on the worker's pending sweep.
	var (
		emitter   audit.Emitter
		publisher services.SyncPublisher
	)
	if cfg.AMQPURL != "" {
		client, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
		if err != nil {
			logger.Error("Failed to initialize AMQP client", "error", err)
			os.Exit(1)
		}
		defer client.Close()
		emitter = audit.NewAMQPEmitter(client, logger.WithComponent(log.ComponentAudit).Logger)
		publisher = client
		logger.Info("AMQP client initialized", "exchange", cfg.AMQPExchange, "queue", cfg.AMQPQueue)
	} else {
		emitter = audit.NewLogEmitter(logger.WithComponent(log.ComponentAudit).Logger)
		logger.Info("AMQP disabled - audit events will only be logged")
	}

	svc := services.NewReportService(
		repo,
		storage.NewDiskFiles(),
		renderer,
		emitter,
		publisher,
		cfg.ReportsDir,
		cfg.RenderTimeout,
		logger.WithComponent(log.ComponentReport).Logger,
	)

	uploads := apphttp.NewUploadStore(cfg.UploadsDir)
	srv := apphttp.NewServer(":"+cfg.Port, svc, repo, repo, uploads, cfg.ReportsDir)

	srv.ReadTimeout = 30 * time.Second
	srv.WriteTimeout = 60 * time.Second
	srv.IdleTimeout = 60 * time.Second
	srv.MaxHeaderBytes = 1 << 16

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		sig := <-sigChan
		logger.Info("Shutdown signal received", "signal", sig.String())

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer shutdownCancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error("Server shutdown error", "error", err)
		}
		cancel()
	}()

	logger.Info("Starting lapor server",
		"port", cfg.Port,
		"renderer", cfg.Renderer,
		"reports_dir", cfg.ReportsDir)
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Error("Server error", "error", err, "port", cfg.Port)
		os.Exit(1)
	}

	<-ctx.Done()
	logger.Info("Server stopped gracefully")
}
