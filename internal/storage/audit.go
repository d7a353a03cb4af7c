package storage

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/ktpcontractings-rgb/tdai-legal-platform-complete/internal/model"
)

// AuditEntry is an append-only record of a state-changing operation.
// Details is optional free-form text (usually a short JSON fragment).
type AuditEntry struct {
	EntityType  string
	EntityID    string
	Action      string
	PerformedBy string
	Details     *string
}

// InsertAudit appends an audit entry outside any transaction.
func (db *DB) InsertAudit(ctx context.Context, e AuditEntry) error {
	if _, err := db.pool.Exec(ctx,
		`INSERT INTO audit_logs (entity_type, entity_id, action, performed_by, details)
		 VALUES ($1, $2, $3, $4, $5)`,
		e.EntityType, e.EntityID, e.Action, e.PerformedBy, e.Details,
	); err != nil {
		return fmt.Errorf("storage: insert audit: %w", err)
	}
	return nil
}

// InsertAuditTx appends an audit entry within an existing transaction so the
// audit row commits or rolls back together with the mutation it records.
func InsertAuditTx(ctx context.Context, tx pgx.Tx, e AuditEntry) error {
	if _, err := tx.Exec(ctx,
		`INSERT INTO audit_logs (entity_type, entity_id, action, performed_by, details)
		 VALUES ($1, $2, $3, $4, $5)`,
		e.EntityType, e.EntityID, e.Action, e.PerformedBy, e.Details,
	); err != nil {
		return fmt.Errorf("storage: insert audit tx: %w", err)
	}
	return nil
}

// ListAuditLogs returns recent audit entries, optionally filtered by entity.
// Limit is clamped to [1, 500].
func (db *DB) ListAuditLogs(ctx context.Context, entityID string, limit int) ([]model.AuditLog, error) {
	if limit <= 0 || limit > 500 {
		limit = 100
	}

	query := `SELECT id, entity_type, entity_id, action, performed_by, details, created_at
	          FROM audit_logs`
	args := []any{}
	if entityID != "" {
		query += ` WHERE entity_id = $1`
		args = append(args, entityID)
	}
	query += fmt.Sprintf(` ORDER BY created_at DESC LIMIT %d`, limit)

	rows, err := db.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("storage: list audit logs: %w", err)
	}
	defer rows.Close()

	logs := []model.AuditLog{}
	for rows.Next() {
		var l model.AuditLog
		if err := rows.Scan(&l.ID, &l.EntityType, &l.EntityID, &l.Action,
			&l.PerformedBy, &l.Details, &l.CreatedAt); err != nil {
			return nil, fmt.Errorf("storage: scan audit log: %w", err)
		}
		logs = append(logs, l)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("storage: iterate audit logs: %w", err)
	}
	return logs, nil
}
