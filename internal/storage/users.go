package storage

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/ktpcontractings-rgb/tdai-legal-platform-complete/internal/model"
)

const userColumns = `id, open_id, name, email, login_method, role, api_key_hash,
	created_at, updated_at, last_signed_in`

func scanUser(row pgx.Row) (model.User, error) {
	var u model.User
	err := row.Scan(&u.ID, &u.OpenID, &u.Name, &u.Email, &u.LoginMethod,
		&u.Role, &u.APIKeyHash, &u.CreatedAt, &u.UpdatedAt, &u.LastSignedIn)
	return u, err
}

// UpsertUser creates the user on first login or refreshes profile fields and
// last_signed_in on subsequent logins. The role column is never downgraded
// by a login.
func (db *DB) UpsertUser(ctx context.Context, req model.LoginRequest, role model.UserRole) (model.User, error) {
	row := db.pool.QueryRow(ctx,
		`INSERT INTO users (open_id, name, email, login_method, role)
		 VALUES ($1, NULLIF($2, ''), NULLIF($3, ''), NULLIF($4, ''), $5)
		 ON CONFLICT (open_id) DO UPDATE SET
		     name           = COALESCE(NULLIF(EXCLUDED.name, ''), users.name),
		     email          = COALESCE(NULLIF(EXCLUDED.email, ''), users.email),
		     login_method   = COALESCE(NULLIF(EXCLUDED.login_method, ''), users.login_method),
		     role           = CASE WHEN users.role = 'admin' THEN users.role ELSE EXCLUDED.role END,
		     updated_at     = now(),
		     last_signed_in = now()
		 RETURNING `+userColumns,
		req.OpenID, req.Name, req.Email, req.LoginMethod, string(role),
	)
	u, err := scanUser(row)
	if err != nil {
		return model.User{}, fmt.Errorf("storage: upsert user: %w", err)
	}
	return u, nil
}

// GetUser returns a user by internal ID.
func (db *DB) GetUser(ctx context.Context, id uuid.UUID) (model.User, error) {
	row := db.pool.QueryRow(ctx,
		`SELECT `+userColumns+` FROM users WHERE id = $1`, id)
	u, err := scanUser(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return model.User{}, ErrNotFound
	}
	if err != nil {
		return model.User{}, fmt.Errorf("storage: get user: %w", err)
	}
	return u, nil
}

// GetUserByOpenID returns a user by identity-provider ID.
func (db *DB) GetUserByOpenID(ctx context.Context, openID string) (model.User, error) {
	row := db.pool.QueryRow(ctx,
		`SELECT `+userColumns+` FROM users WHERE open_id = $1`, openID)
	u, err := scanUser(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return model.User{}, ErrNotFound
	}
	if err != nil {
		return model.User{}, fmt.Errorf("storage: get user by open_id: %w", err)
	}
	return u, nil
}

// GetUserByEmail returns a user by email address.
func (db *DB) GetUserByEmail(ctx context.Context, email string) (model.User, error) {
	row := db.pool.QueryRow(ctx,
		`SELECT `+userColumns+` FROM users WHERE email = $1`, email)
	u, err := scanUser(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return model.User{}, ErrNotFound
	}
	if err != nil {
		return model.User{}, fmt.Errorf("storage: get user by email: %w", err)
	}
	return u, nil
}

// SetUserRole updates a user's role and writes an audit row in the same
// transaction.
func (db *DB) SetUserRole(ctx context.Context, id uuid.UUID, role model.UserRole, audit AuditEntry) (model.User, error) {
	tx, err := db.pool.Begin(ctx)
	if err != nil {
		return model.User{}, fmt.Errorf("storage: begin set role tx: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	row := tx.QueryRow(ctx,
		`UPDATE users SET role = $2, updated_at = now() WHERE id = $1
		 RETURNING `+userColumns,
		id, string(role),
	)
	u, err := scanUser(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return model.User{}, ErrNotFound
	}
	if err != nil {
		return model.User{}, fmt.Errorf("storage: set user role: %w", err)
	}

	audit.EntityID = id.String()
	if err := InsertAuditTx(ctx, tx, audit); err != nil {
		return model.User{}, err
	}
	if err := tx.Commit(ctx); err != nil {
		return model.User{}, fmt.Errorf("storage: commit set role tx: %w", err)
	}
	return u, nil
}

// SetUserAPIKeyHash stores the Argon2id hash for a provisioned API key.
func (db *DB) SetUserAPIKeyHash(ctx context.Context, id uuid.UUID, hash string) error {
	tag, err := db.pool.Exec(ctx,
		`UPDATE users SET api_key_hash = $2, updated_at = now() WHERE id = $1`,
		id, hash,
	)
	if err != nil {
		return fmt.Errorf("storage: set user api key hash: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// CountUsers returns the total number of accounts.
func (db *DB) CountUsers(ctx context.Context) (int, error) {
	var n int
	if err := db.pool.QueryRow(ctx, `SELECT count(*) FROM users`).Scan(&n); err != nil {
		return 0, fmt.Errorf("storage: count users: %w", err)
	}
	return n, nil
}
