// Command seed-agents loads the starter persona roster: legal agents,
// management agents, and the regulatory board. Idempotent; existing rows are
// refreshed in place.
//
// Usage:
//
//	DATABASE_URL=postgres://... go run ./scripts/seed-agents
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/joho/godotenv"

	"github.com/ktpcontractings-rgb/tdai-legal-platform-complete/internal/seed"
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

	return seed.Apply(ctx, db, logger)
}
