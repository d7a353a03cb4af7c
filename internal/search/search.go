// Package search provides agent-scoped vector retrieval over knowledge
// document chunks, backed by Qdrant with a pgvector fallback in Postgres.
package search

import (
	"context"
	"strings"

	"github.com/ktpcontractings-rgb/tdai-legal-platform-complete/internal/model"
)

// Chunk is one slice of a knowledge document prepared for indexing.
type Chunk struct {
	DocumentID string
	AgentID    string
	Title      string
	Content    string
	Index      int
	Embedding  []float32
}

// Searcher is the interface for vector indexes over knowledge chunks.
// Implementations must be safe for concurrent use. Every operation is
// scoped to a single agent: one agent's documents are never visible to
// another agent's retrieval.
type Searcher interface {
	// UpsertChunks indexes a document's chunks under the owning agent.
	UpsertChunks(ctx context.Context, chunks []Chunk) error

	// DeleteDocument removes every chunk belonging to a document.
	DeleteDocument(ctx context.Context, documentID string) error

	// Search returns the top-scoring chunks for one agent's namespace.
	Search(ctx context.Context, agentID string, embedding []float32, limit int) ([]model.KnowledgeSearchResult, error)

	// Healthy returns nil if the index is reachable, or an error describing the problem.
	Healthy(ctx context.Context) error
}

// Chunking parameters. Overlapping windows keep sentences that straddle a
// boundary retrievable from both sides.
const (
	ChunkSize    = 1000
	ChunkOverlap = 200
)

// ChunkText splits text into overlapping windows of at most ChunkSize
// characters. Short texts produce a single chunk; empty text produces none.
func ChunkText(text string) []string {
	if strings.TrimSpace(text) == "" {
		return nil
	}
	runes := []rune(text)
	if len(runes) <= ChunkSize {
		return []string{text}
	}

	step := ChunkSize - ChunkOverlap
	chunks := []string{}
	for start := 0; start < len(runes); start += step {
		end := start + ChunkSize
		if end > len(runes) {
			end = len(runes)
		}
		chunks = append(chunks, string(runes[start:end]))
		if end == len(runes) {
			break
		}
	}
	return chunks
}
