// Command make-admin grants the admin role to an existing user, looked up by
// email or open ID. The user must have logged in at least once.
//
// Usage:
//
//	DATABASE_URL=postgres://... go run ./scripts/make-admin user@example.com
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/joho/godotenv"

	"github.com/ktpcontractings-rgb/tdai-legal-platform-complete/internal/model"
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

	if len(os.Args) < 2 {
		return fmt.Errorf("usage: make-admin <email-or-open-id>")
	}
	identifier := os.Args[1]

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

	user, err := db.GetUserByEmail(ctx, identifier)
	if errors.Is(err, storage.ErrNotFound) {
		user, err = db.GetUserByOpenID(ctx, identifier)
	}
	if errors.Is(err, storage.ErrNotFound) {
		return fmt.Errorf("user %q not found; they must log in at least once", identifier)
	}
	if err != nil {
		return err
	}

	if user.Role == model.RoleAdmin {
		fmt.Printf("%s is already an admin\n", identifier)
		return nil
	}

	if _, err := db.SetUserRole(ctx, user.ID, model.RoleAdmin, storage.AuditEntry{
		EntityType:  "user",
		Action:      "role_admin_granted",
		PerformedBy: "make-admin",
	}); err != nil {
		return err
	}

	fmt.Printf("%s is now an admin\n", identifier)
	return nil
}
