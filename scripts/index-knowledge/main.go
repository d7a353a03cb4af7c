// Command index-knowledge bulk-loads the starter knowledge base for any agent
// that has no documents yet, embedding each document and indexing its chunks
// when OPENAI_API_KEY and QDRANT_URL are configured. Without them documents
// are still stored and served through the context endpoint; only similarity
// search is degraded.
//
// Usage:
//
//	DATABASE_URL=postgres://... go run ./scripts/index-knowledge
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/joho/godotenv"

	"github.com/ktpcontractings-rgb/tdai-legal-platform-complete/internal/search"
	"github.com/ktpcontractings-rgb/tdai-legal-platform-complete/internal/seed"
	"github.com/ktpcontractings-rgb/tdai-legal-platform-complete/internal/service/embedding"
	"github.com/ktpcontractings-rgb/tdai-legal-platform-complete/internal/service/knowledge"
	"github.com/ktpcontractings-rgb/tdai-legal-platform-complete/internal/storage"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	_ = godotenv.Load()

	dsn := os.Getenv("DATABASE_URL")
	if dsn == "" {
		return fmt.Errorf("DATABASE_URL not set")
	}

	ctx := context.Background()
	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))

	db, err := storage.New(ctx, dsn, logger)
	if err != nil {
		return err
	}
	defer db.Close()

	dims := 1536
	var embedder embedding.Provider = embedding.NewNoopProvider(dims)
	if key := os.Getenv("OPENAI_API_KEY"); key != "" {
		embedder = embedding.NewOpenAIProvider(key,
			envOr("OPENAI_BASE_URL", "https://api.openai.com/v1"),
			envOr("TDAI_EMBEDDING_MODEL", "text-embedding-3-small"),
			dims, 15*time.Second)
	}

	var searcher search.Searcher
	if url := os.Getenv("QDRANT_URL"); url != "" {
		idx, err := search.NewQdrantIndex(search.QdrantConfig{
			URL:        url,
			APIKey:     os.Getenv("QDRANT_API_KEY"),
			Collection: envOr("QDRANT_COLLECTION", "tdai_knowledge"),
			Dims:       uint64(dims),
		}, logger)
		if err != nil {
			return err
		}
		defer func() { _ = idx.Close() }()
		if err := idx.EnsureCollection(ctx); err != nil {
			return err
		}
		searcher = idx
	}

	svc := knowledge.New(db, embedder, searcher, nil, logger)
	return seed.IndexKnowledge(ctx, db, svc, logger)
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
