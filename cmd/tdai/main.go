package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/ktpcontractings-rgb/tdai-legal-platform-complete/internal/auth"
	"github.com/ktpcontractings-rgb/tdai-legal-platform-complete/internal/billing"
	"github.com/ktpcontractings-rgb/tdai-legal-platform-complete/internal/config"
	"github.com/ktpcontractings-rgb/tdai-legal-platform-complete/internal/ratelimit"
	"github.com/ktpcontractings-rgb/tdai-legal-platform-complete/internal/search"
	"github.com/ktpcontractings-rgb/tdai-legal-platform-complete/internal/seed"
	"github.com/ktpcontractings-rgb/tdai-legal-platform-complete/internal/server"
	"github.com/ktpcontractings-rgb/tdai-legal-platform-complete/internal/service/completion"
	"github.com/ktpcontractings-rgb/tdai-legal-platform-complete/internal/service/embedding"
	"github.com/ktpcontractings-rgb/tdai-legal-platform-complete/internal/service/knowledge"
	"github.com/ktpcontractings-rgb/tdai-legal-platform-complete/internal/service/tickets"
	"github.com/ktpcontractings-rgb/tdai-legal-platform-complete/internal/storage"
	"github.com/ktpcontractings-rgb/tdai-legal-platform-complete/internal/telemetry"
	"github.com/ktpcontractings-rgb/tdai-legal-platform-complete/migrations"
)

// version is set at build time via -ldflags.
var version = "dev"

func main() {
	os.Exit(run0())
}

func run0() int {
	level := slog.LevelInfo
	if os.Getenv("TDAI_LOG_LEVEL") == "debug" {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: level,
	}))
	slog.SetDefault(logger)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx, logger); err != nil {
		slog.Error("fatal error", "error", err)
		return 1
	}
	return 0
}

func run(ctx context.Context, logger *slog.Logger) error {
	// Load .env file if present (non-fatal; production won't have one).
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	slog.Info("tdai starting", "version", version, "port", cfg.Port)

	// Initialize OpenTelemetry.
	otelShutdown, err := telemetry.Init(ctx, cfg.OTELEndpoint, cfg.ServiceName, version, cfg.OTELInsecure)
	if err != nil {
		return fmt.Errorf("telemetry: %w", err)
	}
	defer func() { _ = otelShutdown(context.Background()) }()

	// Connect to database and apply embedded migrations. RunMigrations tracks
	// applied files in schema_migrations and skips duplicates, so errors here
	// indicate real failures (not "already exists").
	db, err := storage.New(ctx, cfg.DatabaseURL, logger)
	if err != nil {
		return fmt.Errorf("storage: %w", err)
	}
	defer db.Close()

	if err := db.RunMigrations(ctx, migrations.FS); err != nil {
		return fmt.Errorf("migrations: %w", err)
	}

	// Create JWT manager. With no key paths configured it generates an
	// ephemeral Ed25519 pair; tokens then die with the process.
	jwtMgr, err := auth.NewJWTManager(cfg.JWTPrivateKeyPath, cfg.JWTPublicKeyPath, cfg.JWTExpiration)
	if err != nil {
		return fmt.Errorf("auth: %w", err)
	}

	// Embedding and completion providers.
	var embedder embedding.Provider
	var completer completion.Provider
	if cfg.OpenAIAPIKey != "" {
		embedder = embedding.NewOpenAIProvider(cfg.OpenAIAPIKey, cfg.OpenAIBaseURL,
			cfg.EmbeddingModel, cfg.EmbeddingDimensions, cfg.EmbeddingTimeout)
		completer = completion.NewOpenAIProvider(cfg.OpenAIAPIKey, cfg.OpenAIBaseURL,
			cfg.CompletionModel, cfg.CompletionTimeout)
		logger.Info("openai providers enabled",
			"embedding_model", cfg.EmbeddingModel, "completion_model", cfg.CompletionModel)
	} else {
		embedder = embedding.NewNoopProvider(cfg.EmbeddingDimensions)
		logger.Warn("no OPENAI_API_KEY: semantic search degraded, agent replies disabled")
	}

	// Initialize Qdrant search index (optional — disabled if QDRANT_URL is
	// empty; retrieval then falls back to the pgvector path).
	var searcher search.Searcher
	if cfg.QdrantURL != "" {
		qdrantIndex, err := search.NewQdrantIndex(search.QdrantConfig{
			URL:        cfg.QdrantURL,
			APIKey:     cfg.QdrantAPIKey,
			Collection: cfg.QdrantCollection,
			Dims:       uint64(cfg.EmbeddingDimensions), //nolint:gosec // validated positive in config.Validate
		}, logger)
		if err != nil {
			return fmt.Errorf("qdrant: %w", err)
		}
		defer func() { _ = qdrantIndex.Close() }()

		if err := qdrantIndex.EnsureCollection(ctx); err != nil {
			return fmt.Errorf("qdrant ensure collection: %w", err)
		}

		searcher = qdrantIndex
		logger.Info("qdrant: enabled", "collection", cfg.QdrantCollection)

		// Background retry of index writes that failed at request time.
		outbox := search.NewOutboxWorker(db, qdrantIndex, embedder, logger, 15*time.Second, 50)
		outbox.Start(ctx)
		defer func() {
			drainCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			outbox.Drain(drainCtx)
		}()
	} else {
		logger.Info("qdrant: disabled (no QDRANT_URL)")
	}

	// Domain services.
	knowledgeSvc := knowledge.New(db, embedder, searcher, completer, logger)
	ticketSvc := tickets.New(db, logger)

	billingSvc, err := billing.New(db, billing.Config{
		SecretKey:          cfg.StripeSecretKey,
		WebhookSecret:      cfg.StripeWebhookSecret,
		PriceIDIndividual:  cfg.StripePriceIDIndividual,
		PriceIDSmallBiz:    cfg.StripePriceIDSmallBiz,
		PriceIDLawFirmPro:  cfg.StripePriceIDLawFirmPro,
		PriceIDCorpLegal:   cfg.StripePriceIDCorpLegal,
		CheckoutSuccessURL: cfg.CheckoutSuccessURL,
		CheckoutCancelURL:  cfg.CheckoutCancelURL,
	}, logger)
	if err != nil {
		return fmt.Errorf("billing: %w", err)
	}

	// Rate limiter.
	var limiter ratelimit.Limiter
	if cfg.RateLimitEnabled {
		limiter = ratelimit.NewMemoryLimiter(cfg.RateLimitRPS, cfg.RateLimitBurst)
		defer func() { _ = limiter.Close() }()
		logger.Info("rate limiting: memory (in-process token bucket)",
			"rps", cfg.RateLimitRPS, "burst", cfg.RateLimitBurst)
	} else {
		limiter = ratelimit.NoopLimiter{}
		logger.Info("rate limiting: disabled")
	}

	srv := server.New(server.ServerConfig{
		DB:                  db,
		JWTMgr:              jwtMgr,
		KnowledgeSvc:        knowledgeSvc,
		TicketSvc:           ticketSvc,
		BillingSvc:          billingSvc,
		Limiter:             limiter,
		Searcher:            searcher,
		Logger:              logger,
		Port:                cfg.Port,
		ReadTimeout:         cfg.ReadTimeout,
		WriteTimeout:        cfg.WriteTimeout,
		Version:             version,
		OwnerOpenID:         cfg.OwnerOpenID,
		MaxRequestBodyBytes: cfg.MaxRequestBodyBytes,
	})

	// Seed the persona roster, starter knowledge, and the admin service
	// account. Seeding is idempotent; failures are logged but never block
	// startup against an already-populated database.
	if err := seed.Apply(ctx, db, logger); err != nil {
		logger.Warn("persona seed failed", "error", err)
	}
	if err := seed.IndexKnowledge(ctx, db, knowledgeSvc, logger); err != nil {
		logger.Warn("knowledge seed failed", "error", err)
	}
	if err := srv.Handlers().SeedAdmin(ctx, cfg.AdminAPIKey); err != nil {
		logger.Warn("admin seed failed", "error", err)
	}

	// Start HTTP server in background.
	errCh := make(chan error, 1)
	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	// Wait for shutdown signal or server error.
	select {
	case <-ctx.Done():
	case err := <-errCh:
		return err
	}

	slog.Info("tdai shutting down")

	httpCtx, httpCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer httpCancel()
	if err := srv.Shutdown(httpCtx); err != nil {
		slog.Error("http shutdown error", "error", err)
	}

	slog.Info("tdai stopped")
	return nil
}
