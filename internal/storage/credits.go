package storage

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/ktpcontractings-rgb/tdai-legal-platform-complete/internal/model"
)

const creditColumns = `id, user_id, balance, total_purchased, total_used,
	created_at, updated_at`

func scanCredits(row pgx.Row) (model.TicketCredits, error) {
	var c model.TicketCredits
	err := row.Scan(&c.ID, &c.UserID, &c.Balance, &c.TotalPurchased,
		&c.TotalUsed, &c.CreatedAt, &c.UpdatedAt)
	return c, err
}

// GetTicketCredits returns a user's credit record. Users who have never
// purchased get a zero-value record rather than ErrNotFound.
func (db *DB) GetTicketCredits(ctx context.Context, userID uuid.UUID) (model.TicketCredits, error) {
	row := db.pool.QueryRow(ctx,
		`SELECT `+creditColumns+` FROM user_ticket_credits WHERE user_id = $1`, userID)
	c, err := scanCredits(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return model.TicketCredits{UserID: userID}, nil
	}
	if err != nil {
		return model.TicketCredits{}, fmt.Errorf("storage: get ticket credits: %w", err)
	}
	return c, nil
}

// AddTicketCredits grants credits to a user, creating the record on first
// purchase.
func (db *DB) AddTicketCredits(ctx context.Context, userID uuid.UUID, credits int) (model.TicketCredits, error) {
	if credits <= 0 {
		return model.TicketCredits{}, fmt.Errorf("storage: credits must be positive, got %d", credits)
	}
	row := db.pool.QueryRow(ctx,
		`INSERT INTO user_ticket_credits (user_id, balance, total_purchased)
		 VALUES ($1, $2, $2)
		 ON CONFLICT (user_id) DO UPDATE SET
		     balance = user_ticket_credits.balance + EXCLUDED.balance,
		     total_purchased = user_ticket_credits.total_purchased + EXCLUDED.balance,
		     updated_at = now()
		 RETURNING `+creditColumns,
		userID, credits,
	)
	c, err := scanCredits(row)
	if err != nil {
		return model.TicketCredits{}, fmt.Errorf("storage: add ticket credits: %w", err)
	}
	return c, nil
}

const purchaseColumns = `id, user_id, credits, amount_cents, stripe_session_id,
	stripe_payment_id, status, created_at, updated_at`

func scanPurchase(row pgx.Row) (model.TicketPurchase, error) {
	var p model.TicketPurchase
	err := row.Scan(&p.ID, &p.UserID, &p.Credits, &p.AmountCents,
		&p.StripeSessionID, &p.StripePaymentID, &p.Status,
		&p.CreatedAt, &p.UpdatedAt)
	return p, err
}

// CreatePurchase inserts a pending credit pack purchase.
func (db *DB) CreatePurchase(ctx context.Context, p model.TicketPurchase) (model.TicketPurchase, error) {
	row := db.pool.QueryRow(ctx,
		`INSERT INTO ticket_purchases (id, user_id, credits, amount_cents,
		     stripe_session_id, status)
		 VALUES ($1, $2, $3, $4, $5, $6)
		 RETURNING `+purchaseColumns,
		p.ID, p.UserID, p.Credits, p.AmountCents, p.StripeSessionID, string(p.Status),
	)
	created, err := scanPurchase(row)
	if err != nil {
		return model.TicketPurchase{}, fmt.Errorf("storage: create purchase: %w", err)
	}
	return created, nil
}

// AttachPurchaseSession records the checkout session ID on a pending purchase.
func (db *DB) AttachPurchaseSession(ctx context.Context, id, sessionID string) error {
	tag, err := db.pool.Exec(ctx,
		`UPDATE ticket_purchases SET stripe_session_id = $2, updated_at = now()
		 WHERE id = $1`, id, sessionID)
	if err != nil {
		return fmt.Errorf("storage: attach purchase session: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// CompletePurchase marks a pending purchase completed and credits the
// balance in one transaction. The guarded UPDATE makes completion
// idempotent: a webhook redelivery finds no pending row, returns the
// purchase as-is, and grants nothing twice.
func (db *DB) CompletePurchase(ctx context.Context, sessionID, paymentID string, audit AuditEntry) (model.TicketPurchase, error) {
	tx, err := db.pool.Begin(ctx)
	if err != nil {
		return model.TicketPurchase{}, fmt.Errorf("storage: begin complete purchase tx: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	row := tx.QueryRow(ctx,
		`UPDATE ticket_purchases
		 SET status = 'completed', stripe_payment_id = $2, updated_at = now()
		 WHERE stripe_session_id = $1 AND status = 'pending'
		 RETURNING `+purchaseColumns,
		sessionID, paymentID,
	)
	p, err := scanPurchase(row)
	if errors.Is(err, pgx.ErrNoRows) {
		row := tx.QueryRow(ctx,
			`SELECT `+purchaseColumns+` FROM ticket_purchases WHERE stripe_session_id = $1`,
			sessionID)
		existing, lookupErr := scanPurchase(row)
		if errors.Is(lookupErr, pgx.ErrNoRows) {
			return model.TicketPurchase{}, ErrNotFound
		}
		if lookupErr != nil {
			return model.TicketPurchase{}, fmt.Errorf("storage: complete purchase lookup: %w", lookupErr)
		}
		return existing, nil
	}
	if err != nil {
		return model.TicketPurchase{}, fmt.Errorf("storage: complete purchase: %w", err)
	}

	if _, err := tx.Exec(ctx,
		`INSERT INTO user_ticket_credits (user_id, balance, total_purchased)
		 VALUES ($1, $2, $2)
		 ON CONFLICT (user_id) DO UPDATE SET
		     balance = user_ticket_credits.balance + EXCLUDED.balance,
		     total_purchased = user_ticket_credits.total_purchased + EXCLUDED.balance,
		     updated_at = now()`,
		p.UserID, p.Credits,
	); err != nil {
		return model.TicketPurchase{}, fmt.Errorf("storage: credit purchase balance: %w", err)
	}

	audit.EntityID = p.ID
	if err := InsertAuditTx(ctx, tx, audit); err != nil {
		return model.TicketPurchase{}, err
	}
	if err := tx.Commit(ctx); err != nil {
		return model.TicketPurchase{}, fmt.Errorf("storage: commit complete purchase tx: %w", err)
	}
	return p, nil
}

// FailPurchase marks a pending purchase failed (expired or abandoned session).
func (db *DB) FailPurchase(ctx context.Context, sessionID string) error {
	_, err := db.pool.Exec(ctx,
		`UPDATE ticket_purchases SET status = 'failed', updated_at = now()
		 WHERE stripe_session_id = $1 AND status = 'pending'`, sessionID)
	if err != nil {
		return fmt.Errorf("storage: fail purchase: %w", err)
	}
	return nil
}

// ListPurchasesByUser returns a user's purchase history, newest first.
func (db *DB) ListPurchasesByUser(ctx context.Context, userID uuid.UUID) ([]model.TicketPurchase, error) {
	rows, err := db.pool.Query(ctx,
		`SELECT `+purchaseColumns+` FROM ticket_purchases
		 WHERE user_id = $1 ORDER BY created_at DESC`, userID)
	if err != nil {
		return nil, fmt.Errorf("storage: list purchases: %w", err)
	}
	defer rows.Close()

	purchases := []model.TicketPurchase{}
	for rows.Next() {
		p, err := scanPurchase(rows)
		if err != nil {
			return nil, fmt.Errorf("storage: scan purchase: %w", err)
		}
		purchases = append(purchases, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("storage: iterate purchases: %w", err)
	}
	return purchases, nil
}
