package storage

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/ktpcontractings-rgb/tdai-legal-platform-complete/internal/model"
)

// InsertChatPair persists a user message and the assistant reply together so
// history never contains an orphaned half of an exchange.
func (db *DB) InsertChatPair(ctx context.Context, userID uuid.UUID, userMsg, reply, agentID string) error {
	tx, err := db.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("storage: begin chat pair tx: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if _, err := tx.Exec(ctx,
		`INSERT INTO ceo_chat_messages (user_id, message, role, agent_id)
		 VALUES ($1, $2, 'user', $3)`,
		userID, userMsg, agentID,
	); err != nil {
		return fmt.Errorf("storage: insert user chat message: %w", err)
	}
	if _, err := tx.Exec(ctx,
		`INSERT INTO ceo_chat_messages (user_id, message, role, agent_id)
		 VALUES ($1, $2, 'assistant', $3)`,
		userID, reply, agentID,
	); err != nil {
		return fmt.Errorf("storage: insert assistant chat message: %w", err)
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("storage: commit chat pair tx: %w", err)
	}
	return nil
}

// ListChatHistory returns a user's recent executive-chat messages in
// chronological order. Limit counts messages, not exchanges.
func (db *DB) ListChatHistory(ctx context.Context, userID uuid.UUID, limit int) ([]model.ChatMessage, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	rows, err := db.pool.Query(ctx,
		`SELECT id, user_id, message, role, agent_id, created_at
		 FROM (
		     SELECT id, user_id, message, role, agent_id, created_at
		     FROM ceo_chat_messages
		     WHERE user_id = $1
		     ORDER BY created_at DESC LIMIT $2
		 ) recent
		 ORDER BY created_at`, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("storage: list chat history: %w", err)
	}
	defer rows.Close()

	messages := []model.ChatMessage{}
	for rows.Next() {
		var m model.ChatMessage
		if err := rows.Scan(&m.ID, &m.UserID, &m.Message, &m.Role, &m.AgentID, &m.CreatedAt); err != nil {
			return nil, fmt.Errorf("storage: scan chat message: %w", err)
		}
		messages = append(messages, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("storage: iterate chat messages: %w", err)
	}
	return messages, nil
}
