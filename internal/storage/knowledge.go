package storage

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/pgvector/pgvector-go"

	"github.com/ktpcontractings-rgb/tdai-legal-platform-complete/internal/model"
)

const knowledgeColumns = `id, agent_id, title, content, category, source_type,
	importance, vector_id, created_at, updated_at`

func scanKnowledgeDocument(row pgx.Row) (model.KnowledgeDocument, error) {
	var d model.KnowledgeDocument
	err := row.Scan(&d.ID, &d.AgentID, &d.Title, &d.Content, &d.Category,
		&d.SourceType, &d.Importance, &d.VectorID, &d.CreatedAt, &d.UpdatedAt)
	return d, err
}

// InsertKnowledgeDocument stores a document with its embedding. A nil
// embedding is allowed when no embedding provider is configured; such
// documents still serve the context-building path but are invisible to the
// pgvector fallback search.
func (db *DB) InsertKnowledgeDocument(ctx context.Context, d model.KnowledgeDocument, embedding []float32) (model.KnowledgeDocument, error) {
	var vec any
	if embedding != nil {
		v := pgvector.NewVector(embedding)
		vec = v
	}
	row := db.pool.QueryRow(ctx,
		`INSERT INTO knowledge_documents (id, agent_id, title, content, category,
		     source_type, importance, embedding, vector_id)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		 RETURNING `+knowledgeColumns,
		d.ID, d.AgentID, d.Title, d.Content, string(d.Category),
		string(d.SourceType), d.Importance, vec, d.VectorID,
	)
	created, err := scanKnowledgeDocument(row)
	if err != nil {
		if isUniqueViolation(err) {
			return model.KnowledgeDocument{}, ErrDuplicate
		}
		return model.KnowledgeDocument{}, fmt.Errorf("storage: insert knowledge document: %w", err)
	}
	return created, nil
}

// GetKnowledgeDocument returns one document by ID.
func (db *DB) GetKnowledgeDocument(ctx context.Context, id string) (model.KnowledgeDocument, error) {
	row := db.pool.QueryRow(ctx,
		`SELECT `+knowledgeColumns+` FROM knowledge_documents WHERE id = $1`, id)
	d, err := scanKnowledgeDocument(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return model.KnowledgeDocument{}, ErrNotFound
	}
	if err != nil {
		return model.KnowledgeDocument{}, fmt.Errorf("storage: get knowledge document: %w", err)
	}
	return d, nil
}

// ListKnowledgeByAgent returns an agent's documents ordered by importance.
func (db *DB) ListKnowledgeByAgent(ctx context.Context, agentID string) ([]model.KnowledgeDocument, error) {
	rows, err := db.pool.Query(ctx,
		`SELECT `+knowledgeColumns+` FROM knowledge_documents
		 WHERE agent_id = $1 ORDER BY importance DESC, created_at`, agentID)
	if err != nil {
		return nil, fmt.Errorf("storage: list knowledge by agent: %w", err)
	}
	defer rows.Close()

	docs := []model.KnowledgeDocument{}
	for rows.Next() {
		d, err := scanKnowledgeDocument(rows)
		if err != nil {
			return nil, fmt.Errorf("storage: scan knowledge document: %w", err)
		}
		docs = append(docs, d)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("storage: iterate knowledge documents: %w", err)
	}
	return docs, nil
}

// ListKnowledgeDocumentsByIDs returns the documents that still exist among
// ids. Missing IDs are simply absent from the result, not an error; the
// outbox worker treats them as deleted.
func (db *DB) ListKnowledgeDocumentsByIDs(ctx context.Context, ids []string) ([]model.KnowledgeDocument, error) {
	rows, err := db.pool.Query(ctx,
		`SELECT `+knowledgeColumns+` FROM knowledge_documents WHERE id = ANY($1)`, ids)
	if err != nil {
		return nil, fmt.Errorf("storage: list knowledge by ids: %w", err)
	}
	defer rows.Close()

	docs := []model.KnowledgeDocument{}
	for rows.Next() {
		d, err := scanKnowledgeDocument(rows)
		if err != nil {
			return nil, fmt.Errorf("storage: scan knowledge document: %w", err)
		}
		docs = append(docs, d)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("storage: iterate knowledge documents: %w", err)
	}
	return docs, nil
}

// CountKnowledgeByAgent returns how many documents an agent has.
func (db *DB) CountKnowledgeByAgent(ctx context.Context, agentID string) (int, error) {
	var n int
	if err := db.pool.QueryRow(ctx,
		`SELECT count(*) FROM knowledge_documents WHERE agent_id = $1`, agentID,
	).Scan(&n); err != nil {
		return 0, fmt.Errorf("storage: count knowledge documents: %w", err)
	}
	return n, nil
}

// DeleteKnowledgeDocument removes a document. The caller is responsible for
// removing its chunks from the vector store.
func (db *DB) DeleteKnowledgeDocument(ctx context.Context, id string) error {
	tag, err := db.pool.Exec(ctx,
		`DELETE FROM knowledge_documents WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("storage: delete knowledge document: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// SearchKnowledgeByEmbedding is the Postgres-side similarity search used
// when the vector store is not configured. Results are scoped to one agent
// and ordered by cosine distance; documents without embeddings never match.
func (db *DB) SearchKnowledgeByEmbedding(ctx context.Context, agentID string, embedding []float32, limit int) ([]model.KnowledgeSearchResult, error) {
	if limit <= 0 || limit > 50 {
		limit = 5
	}
	rows, err := db.pool.Query(ctx,
		`SELECT id, title, content, 1 - (embedding <=> $2) AS score
		 FROM knowledge_documents
		 WHERE agent_id = $1 AND embedding IS NOT NULL
		 ORDER BY embedding <=> $2
		 LIMIT $3`,
		agentID, pgvector.NewVector(embedding), limit)
	if err != nil {
		return nil, fmt.Errorf("storage: search knowledge by embedding: %w", err)
	}
	defer rows.Close()

	results := []model.KnowledgeSearchResult{}
	for rows.Next() {
		var r model.KnowledgeSearchResult
		if err := rows.Scan(&r.DocumentID, &r.Title, &r.Content, &r.Score); err != nil {
			return nil, fmt.Errorf("storage: scan knowledge search result: %w", err)
		}
		results = append(results, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("storage: iterate knowledge search results: %w", err)
	}
	return results, nil
}
