package storage

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/ktpcontractings-rgb/tdai-legal-platform-complete/internal/model"
)

const decisionColumns = `id, agent_id, decision, description, recommendation,
	status, priority, requires_regulatory_approval, regulatory_status,
	approved_by, approved_at, created_at, updated_at`

func scanDecision(row pgx.Row) (model.AgentDecision, error) {
	var d model.AgentDecision
	err := row.Scan(&d.ID, &d.AgentID, &d.Decision, &d.Description,
		&d.Recommendation, &d.Status, &d.Priority,
		&d.RequiresRegulatoryApproval, &d.RegulatoryStatus,
		&d.ApprovedBy, &d.ApprovedAt, &d.CreatedAt, &d.UpdatedAt)
	return d, err
}

// CreateDecision inserts a new pending decision.
func (db *DB) CreateDecision(ctx context.Context, d model.AgentDecision) (model.AgentDecision, error) {
	row := db.pool.QueryRow(ctx,
		`INSERT INTO agent_decisions (id, agent_id, decision, description,
		     recommendation, status, priority, requires_regulatory_approval)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		 RETURNING `+decisionColumns,
		d.ID, d.AgentID, d.Decision, d.Description, d.Recommendation,
		string(d.Status), string(d.Priority), d.RequiresRegulatoryApproval,
	)
	created, err := scanDecision(row)
	if err != nil {
		if isUniqueViolation(err) {
			return model.AgentDecision{}, ErrDuplicate
		}
		return model.AgentDecision{}, fmt.Errorf("storage: create decision: %w", err)
	}
	return created, nil
}

// GetDecision returns one decision by ID.
func (db *DB) GetDecision(ctx context.Context, id string) (model.AgentDecision, error) {
	row := db.pool.QueryRow(ctx,
		`SELECT `+decisionColumns+` FROM agent_decisions WHERE id = $1`, id)
	d, err := scanDecision(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return model.AgentDecision{}, ErrNotFound
	}
	if err != nil {
		return model.AgentDecision{}, fmt.Errorf("storage: get decision: %w", err)
	}
	return d, nil
}

// ListPendingDecisions returns pending decisions, newest first.
func (db *DB) ListPendingDecisions(ctx context.Context, limit int) ([]model.AgentDecision, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	rows, err := db.pool.Query(ctx,
		`SELECT `+decisionColumns+` FROM agent_decisions
		 WHERE status = 'pending'
		 ORDER BY created_at DESC LIMIT $1`, limit)
	if err != nil {
		return nil, fmt.Errorf("storage: list pending decisions: %w", err)
	}
	defer rows.Close()
	return collectDecisions(rows)
}

// ListDecisionsByAgent returns an agent's decisions, newest first.
func (db *DB) ListDecisionsByAgent(ctx context.Context, agentID string, limit int) ([]model.AgentDecision, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	rows, err := db.pool.Query(ctx,
		`SELECT `+decisionColumns+` FROM agent_decisions
		 WHERE agent_id = $1
		 ORDER BY created_at DESC LIMIT $2`, agentID, limit)
	if err != nil {
		return nil, fmt.Errorf("storage: list decisions by agent: %w", err)
	}
	defer rows.Close()
	return collectDecisions(rows)
}

func collectDecisions(rows pgx.Rows) ([]model.AgentDecision, error) {
	decisions := []model.AgentDecision{}
	for rows.Next() {
		d, err := scanDecision(rows)
		if err != nil {
			return nil, fmt.Errorf("storage: scan decision: %w", err)
		}
		decisions = append(decisions, d)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("storage: iterate decisions: %w", err)
	}
	return decisions, nil
}

// ResolveDecision transitions a pending decision to approved or rejected and
// writes an audit row in the same transaction. The guarded UPDATE makes the
// transition terminal: a second resolution attempt returns ErrAlreadyResolved
// and leaves the stored row untouched.
func (db *DB) ResolveDecision(ctx context.Context, id string, status model.DecisionStatus, resolvedBy string, audit AuditEntry) (model.AgentDecision, error) {
	if status != model.DecisionApproved && status != model.DecisionRejected {
		return model.AgentDecision{}, fmt.Errorf("storage: invalid resolution status %q", status)
	}

	tx, err := db.pool.Begin(ctx)
	if err != nil {
		return model.AgentDecision{}, fmt.Errorf("storage: begin resolve decision tx: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	row := tx.QueryRow(ctx,
		`UPDATE agent_decisions
		 SET status = $2, approved_by = $3, approved_at = now(), updated_at = now()
		 WHERE id = $1 AND status = 'pending'
		 RETURNING `+decisionColumns,
		id, string(status), resolvedBy,
	)
	d, err := scanDecision(row)
	if errors.Is(err, pgx.ErrNoRows) {
		// Distinguish a missing decision from one that is already resolved.
		var existing string
		lookupErr := tx.QueryRow(ctx,
			`SELECT status FROM agent_decisions WHERE id = $1`, id).Scan(&existing)
		if errors.Is(lookupErr, pgx.ErrNoRows) {
			return model.AgentDecision{}, ErrNotFound
		}
		if lookupErr != nil {
			return model.AgentDecision{}, fmt.Errorf("storage: resolve decision lookup: %w", lookupErr)
		}
		return model.AgentDecision{}, ErrAlreadyResolved
	}
	if err != nil {
		return model.AgentDecision{}, fmt.Errorf("storage: resolve decision: %w", err)
	}

	audit.EntityID = id
	if err := InsertAuditTx(ctx, tx, audit); err != nil {
		return model.AgentDecision{}, err
	}
	if err := tx.Commit(ctx); err != nil {
		return model.AgentDecision{}, fmt.Errorf("storage: commit resolve decision tx: %w", err)
	}
	return d, nil
}
