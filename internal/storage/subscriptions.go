package storage

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/ktpcontractings-rgb/tdai-legal-platform-complete/internal/model"
)

const subscriptionColumns = `id, user_id, plan, price_cents, billing_cycle,
	status, stripe_session_id, trial_ends_at, period_start, period_end,
	cancelled_at, created_at, updated_at`

func scanSubscription(row pgx.Row) (model.Subscription, error) {
	var s model.Subscription
	err := row.Scan(&s.ID, &s.UserID, &s.Plan, &s.PriceCents, &s.BillingCycle,
		&s.Status, &s.StripeSessionID, &s.TrialEndsAt, &s.PeriodStart,
		&s.PeriodEnd, &s.CancelledAt, &s.CreatedAt, &s.UpdatedAt)
	return s, err
}

// CreateSubscription inserts a subscription record.
func (db *DB) CreateSubscription(ctx context.Context, s model.Subscription) (model.Subscription, error) {
	row := db.pool.QueryRow(ctx,
		`INSERT INTO subscriptions (id, user_id, plan, price_cents, billing_cycle,
		     status, stripe_session_id, trial_ends_at, period_start, period_end)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		 RETURNING `+subscriptionColumns,
		s.ID, s.UserID, string(s.Plan), s.PriceCents, string(s.BillingCycle),
		string(s.Status), s.StripeSessionID, s.TrialEndsAt, s.PeriodStart, s.PeriodEnd,
	)
	created, err := scanSubscription(row)
	if err != nil {
		return model.Subscription{}, fmt.Errorf("storage: create subscription: %w", err)
	}
	return created, nil
}

// GetCurrentSubscription returns a user's most recent non-expired
// subscription, or ErrNotFound when the user has none.
func (db *DB) GetCurrentSubscription(ctx context.Context, userID uuid.UUID) (model.Subscription, error) {
	row := db.pool.QueryRow(ctx,
		`SELECT `+subscriptionColumns+` FROM subscriptions
		 WHERE user_id = $1 AND status IN ('trial', 'active')
		 ORDER BY created_at DESC LIMIT 1`, userID)
	s, err := scanSubscription(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return model.Subscription{}, ErrNotFound
	}
	if err != nil {
		return model.Subscription{}, fmt.Errorf("storage: get current subscription: %w", err)
	}
	return s, nil
}

// ListSubscriptions returns all subscriptions, newest first. Admin only.
func (db *DB) ListSubscriptions(ctx context.Context, limit int) ([]model.Subscription, error) {
	if limit <= 0 || limit > 500 {
		limit = 100
	}
	rows, err := db.pool.Query(ctx,
		`SELECT `+subscriptionColumns+` FROM subscriptions
		 ORDER BY created_at DESC LIMIT $1`, limit)
	if err != nil {
		return nil, fmt.Errorf("storage: list subscriptions: %w", err)
	}
	defer rows.Close()

	subs := []model.Subscription{}
	for rows.Next() {
		s, err := scanSubscription(rows)
		if err != nil {
			return nil, fmt.Errorf("storage: scan subscription: %w", err)
		}
		subs = append(subs, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("storage: iterate subscriptions: %w", err)
	}
	return subs, nil
}

// ActivateSubscriptionBySession flips a trial subscription to active when its
// checkout session completes. Idempotent under webhook redelivery.
func (db *DB) ActivateSubscriptionBySession(ctx context.Context, sessionID string) (model.Subscription, error) {
	row := db.pool.QueryRow(ctx,
		`UPDATE subscriptions
		 SET status = 'active', period_start = now(), updated_at = now()
		 WHERE stripe_session_id = $1 AND status IN ('trial', 'active')
		 RETURNING `+subscriptionColumns,
		sessionID,
	)
	s, err := scanSubscription(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return model.Subscription{}, ErrNotFound
	}
	if err != nil {
		return model.Subscription{}, fmt.Errorf("storage: activate subscription: %w", err)
	}
	return s, nil
}

// CancelSubscription marks a subscription cancelled.
func (db *DB) CancelSubscription(ctx context.Context, id string) (model.Subscription, error) {
	row := db.pool.QueryRow(ctx,
		`UPDATE subscriptions
		 SET status = 'cancelled', cancelled_at = now(), updated_at = now()
		 WHERE id = $1 AND status IN ('trial', 'active')
		 RETURNING `+subscriptionColumns,
		id,
	)
	s, err := scanSubscription(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return model.Subscription{}, ErrNotFound
	}
	if err != nil {
		return model.Subscription{}, fmt.Errorf("storage: cancel subscription: %w", err)
	}
	return s, nil
}
