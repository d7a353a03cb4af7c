package storage

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/ktpcontractings-rgb/tdai-legal-platform-complete/internal/model"
)

const consultationColumns = `id, user_id, legal_agent_id, case_type, status,
	transcript, duration_secs, rating, feedback, scheduled_at, completed_at,
	created_at`

func scanConsultation(row pgx.Row) (model.Consultation, error) {
	var c model.Consultation
	err := row.Scan(&c.ID, &c.UserID, &c.LegalAgentID, &c.CaseType, &c.Status,
		&c.Transcript, &c.DurationSecs, &c.Rating, &c.Feedback,
		&c.ScheduledAt, &c.CompletedAt, &c.CreatedAt)
	return c, err
}

// CreateConsultation inserts a scheduled consultation and an audit row in
// one transaction.
func (db *DB) CreateConsultation(ctx context.Context, c model.Consultation, audit AuditEntry) (model.Consultation, error) {
	tx, err := db.pool.Begin(ctx)
	if err != nil {
		return model.Consultation{}, fmt.Errorf("storage: begin create consultation tx: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	row := tx.QueryRow(ctx,
		`INSERT INTO consultations (id, user_id, legal_agent_id, case_type, status)
		 VALUES ($1, $2, $3, $4, $5)
		 RETURNING `+consultationColumns,
		c.ID, c.UserID, c.LegalAgentID, c.CaseType, string(c.Status),
	)
	created, err := scanConsultation(row)
	if err != nil {
		return model.Consultation{}, fmt.Errorf("storage: create consultation: %w", err)
	}

	audit.EntityID = created.ID
	if err := InsertAuditTx(ctx, tx, audit); err != nil {
		return model.Consultation{}, err
	}
	if err := tx.Commit(ctx); err != nil {
		return model.Consultation{}, fmt.Errorf("storage: commit create consultation tx: %w", err)
	}
	return created, nil
}

// GetConsultation returns one consultation by ID.
func (db *DB) GetConsultation(ctx context.Context, id string) (model.Consultation, error) {
	row := db.pool.QueryRow(ctx,
		`SELECT `+consultationColumns+` FROM consultations WHERE id = $1`, id)
	c, err := scanConsultation(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return model.Consultation{}, ErrNotFound
	}
	if err != nil {
		return model.Consultation{}, fmt.Errorf("storage: get consultation: %w", err)
	}
	return c, nil
}

// ListConsultationsByUser returns a user's consultations, newest first.
func (db *DB) ListConsultationsByUser(ctx context.Context, userID uuid.UUID) ([]model.Consultation, error) {
	rows, err := db.pool.Query(ctx,
		`SELECT `+consultationColumns+` FROM consultations
		 WHERE user_id = $1 ORDER BY created_at DESC`, userID)
	if err != nil {
		return nil, fmt.Errorf("storage: list consultations by user: %w", err)
	}
	defer rows.Close()

	consultations := []model.Consultation{}
	for rows.Next() {
		c, err := scanConsultation(rows)
		if err != nil {
			return nil, fmt.Errorf("storage: scan consultation: %w", err)
		}
		consultations = append(consultations, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("storage: iterate consultations: %w", err)
	}
	return consultations, nil
}

// UpdateConsultationStatus transitions a consultation's state. Completed
// sessions record completed_at; partial fields follow the COALESCE pattern
// so absent inputs leave stored values untouched.
func (db *DB) UpdateConsultationStatus(ctx context.Context, id string, status model.ConsultationStatus, transcript string, durationSecs *int) (model.Consultation, error) {
	row := db.pool.QueryRow(ctx,
		`UPDATE consultations
		 SET status = $2,
		     transcript = COALESCE(NULLIF($3, ''), transcript),
		     duration_secs = COALESCE($4, duration_secs),
		     completed_at = CASE WHEN $2 = 'completed' THEN now() ELSE completed_at END
		 WHERE id = $1
		 RETURNING `+consultationColumns,
		id, string(status), transcript, durationSecs,
	)
	c, err := scanConsultation(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return model.Consultation{}, ErrNotFound
	}
	if err != nil {
		return model.Consultation{}, fmt.Errorf("storage: update consultation status: %w", err)
	}
	return c, nil
}

// RateConsultation stores a completed session's rating and feedback.
func (db *DB) RateConsultation(ctx context.Context, id string, rating int, feedback string) (model.Consultation, error) {
	if rating < 1 || rating > 5 {
		return model.Consultation{}, fmt.Errorf("storage: rating must be between 1 and 5, got %d", rating)
	}
	row := db.pool.QueryRow(ctx,
		`UPDATE consultations
		 SET rating = $2, feedback = COALESCE(NULLIF($3, ''), feedback)
		 WHERE id = $1
		 RETURNING `+consultationColumns,
		id, rating, feedback,
	)
	c, err := scanConsultation(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return model.Consultation{}, ErrNotFound
	}
	if err != nil {
		return model.Consultation{}, fmt.Errorf("storage: rate consultation: %w", err)
	}
	return c, nil
}
