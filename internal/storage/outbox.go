package storage

import (
	"context"
	"fmt"
	"time"
)

// Search outbox operations.
const (
	SearchOpUpsert = "upsert"
	SearchOpDelete = "delete"
)

// MaxSearchOutboxAttempts is the retry ceiling; entries at or above it are
// dead-lettered and ignored by ClaimSearchOutbox.
const MaxSearchOutboxAttempts = 10

// SearchOutboxEntry is one pending vector index write.
type SearchOutboxEntry struct {
	ID         int64
	DocumentID string
	Operation  string
	Attempts   int
}

// EnqueueSearchIndex records a knowledge document whose vector index write
// failed, for the outbox worker to retry. Re-enqueueing a document resets
// its existing row, so the queue never holds duplicates.
func (db *DB) EnqueueSearchIndex(ctx context.Context, documentID, operation string) error {
	if _, err := db.pool.Exec(ctx,
		`INSERT INTO search_outbox (document_id, operation)
		 VALUES ($1, $2)
		 ON CONFLICT (document_id, operation) DO UPDATE SET
		     created_at = now(), attempts = 0, locked_until = NULL, last_error = NULL`,
		documentID, operation,
	); err != nil {
		return fmt.Errorf("storage: enqueue search index: %w", err)
	}
	return nil
}

// ClaimSearchOutbox selects up to limit pending entries and locks them for
// 60 seconds so a second worker cannot pick them up mid-flight. Entries at
// the attempt ceiling are skipped.
func (db *DB) ClaimSearchOutbox(ctx context.Context, limit int) ([]SearchOutboxEntry, error) {
	tx, err := db.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("storage: begin claim outbox tx: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	rows, err := tx.Query(ctx,
		`SELECT id, document_id, operation, attempts
		 FROM search_outbox
		 WHERE (locked_until IS NULL OR locked_until < now())
		   AND attempts < $1
		 ORDER BY created_at
		 LIMIT $2
		 FOR UPDATE SKIP LOCKED`,
		MaxSearchOutboxAttempts, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("storage: select outbox entries: %w", err)
	}

	entries := []SearchOutboxEntry{}
	for rows.Next() {
		var e SearchOutboxEntry
		if err := rows.Scan(&e.ID, &e.DocumentID, &e.Operation, &e.Attempts); err != nil {
			rows.Close()
			return nil, fmt.Errorf("storage: scan outbox entry: %w", err)
		}
		entries = append(entries, e)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("storage: iterate outbox entries: %w", err)
	}
	if len(entries) == 0 {
		return entries, tx.Commit(ctx)
	}

	ids := make([]int64, len(entries))
	for i, e := range entries {
		ids[i] = e.ID
	}
	if _, err := tx.Exec(ctx,
		`UPDATE search_outbox SET locked_until = now() + interval '60 seconds'
		 WHERE id = ANY($1)`, ids,
	); err != nil {
		return nil, fmt.Errorf("storage: lock outbox entries: %w", err)
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("storage: commit claim outbox tx: %w", err)
	}
	return entries, nil
}

// CompleteSearchOutbox removes entries whose index writes succeeded.
func (db *DB) CompleteSearchOutbox(ctx context.Context, ids []int64) error {
	if len(ids) == 0 {
		return nil
	}
	if _, err := db.pool.Exec(ctx,
		`DELETE FROM search_outbox WHERE id = ANY($1)`, ids,
	); err != nil {
		return fmt.Errorf("storage: complete outbox entries: %w", err)
	}
	return nil
}

// RetrySearchOutbox bumps the attempt count and pushes the next try out
// with exponential backoff, capped at five minutes, so a Qdrant outage
// does not turn into a tight retry loop.
func (db *DB) RetrySearchOutbox(ctx context.Context, ids []int64, lastError string) error {
	if len(ids) == 0 {
		return nil
	}
	if _, err := db.pool.Exec(ctx,
		`UPDATE search_outbox
		 SET attempts = attempts + 1,
		     last_error = $1,
		     locked_until = now() + LEAST(POWER(2, attempts + 1), 300) * interval '1 second'
		 WHERE id = ANY($2)`,
		lastError, ids,
	); err != nil {
		return fmt.Errorf("storage: retry outbox entries: %w", err)
	}
	return nil
}

// PurgeSearchOutbox deletes dead-lettered entries older than the retention
// window. Returns the number of rows removed.
func (db *DB) PurgeSearchOutbox(ctx context.Context, retention time.Duration) (int64, error) {
	tag, err := db.pool.Exec(ctx,
		`DELETE FROM search_outbox
		 WHERE attempts >= $1 AND created_at < now() - make_interval(secs => $2)`,
		MaxSearchOutboxAttempts, retention.Seconds(),
	)
	if err != nil {
		return 0, fmt.Errorf("storage: purge outbox dead letters: %w", err)
	}
	return tag.RowsAffected(), nil
}

// CountSearchOutboxPending returns how many entries still await indexing.
func (db *DB) CountSearchOutboxPending(ctx context.Context) (int64, error) {
	var n int64
	if err := db.pool.QueryRow(ctx,
		`SELECT count(*) FROM search_outbox WHERE attempts < $1`,
		MaxSearchOutboxAttempts,
	).Scan(&n); err != nil {
		return 0, fmt.Errorf("storage: count outbox pending: %w", err)
	}
	return n, nil
}
