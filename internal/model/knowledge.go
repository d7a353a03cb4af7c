package model

import (
	"fmt"
	"strings"
	"time"
)

// KnowledgeCategory classifies a knowledge base document.
type KnowledgeCategory string

const (
	KnowledgeCurriculum     KnowledgeCategory = "curriculum"
	KnowledgeCaseStudy      KnowledgeCategory = "case_study"
	KnowledgeLegalUpdate    KnowledgeCategory = "legal_update"
	KnowledgeTraining       KnowledgeCategory = "training"
	KnowledgeStrategy       KnowledgeCategory = "strategy"
	KnowledgeTechnical      KnowledgeCategory = "technical"
	KnowledgeMarketResearch KnowledgeCategory = "market_research"
)

// ValidKnowledgeCategory reports whether c is a recognized category.
func ValidKnowledgeCategory(c KnowledgeCategory) bool {
	switch c {
	case KnowledgeCurriculum, KnowledgeCaseStudy, KnowledgeLegalUpdate,
		KnowledgeTraining, KnowledgeStrategy, KnowledgeTechnical,
		KnowledgeMarketResearch:
		return true
	}
	return false
}

// KnowledgeSourceType records how a document entered the knowledge base.
type KnowledgeSourceType string

const (
	SourceManual    KnowledgeSourceType = "manual"
	SourceLearned   KnowledgeSourceType = "learned"
	SourceImported  KnowledgeSourceType = "imported"
	SourceGenerated KnowledgeSourceType = "generated"
)

// ValidKnowledgeSourceType reports whether t is a recognized source type.
func ValidKnowledgeSourceType(t KnowledgeSourceType) bool {
	switch t {
	case SourceManual, SourceLearned, SourceImported, SourceGenerated:
		return true
	}
	return false
}

// KnowledgeDocument is a reference text scoped to a single agent persona.
// The document-level embedding is kept in Postgres; chunk embeddings live in
// the vector store under the owning agent's namespace.
type KnowledgeDocument struct {
	ID         string              `json:"id"`
	AgentID    string              `json:"agent_id"`
	Title      string              `json:"title"`
	Content    string              `json:"content"`
	Category   KnowledgeCategory   `json:"category"`
	SourceType KnowledgeSourceType `json:"source_type"`
	Importance int                 `json:"importance"`
	VectorID   *string             `json:"vector_id,omitempty"`
	CreatedAt  time.Time           `json:"created_at"`
	UpdatedAt  time.Time           `json:"updated_at"`
}

// AddKnowledgeRequest is the request body for POST /v1/knowledge/{agent_id}.
type AddKnowledgeRequest struct {
	Title      string              `json:"title"`
	Content    string              `json:"content"`
	Category   KnowledgeCategory   `json:"category"`
	SourceType KnowledgeSourceType `json:"source_type,omitempty"`
	Importance int                 `json:"importance,omitempty"`
}

// Validate checks document fields. SourceType defaults to manual and
// importance to 5.
func (r *AddKnowledgeRequest) Validate() error {
	if strings.TrimSpace(r.Title) == "" {
		return fmt.Errorf("title is required")
	}
	if strings.TrimSpace(r.Content) == "" {
		return fmt.Errorf("content is required")
	}
	if !ValidKnowledgeCategory(r.Category) {
		return fmt.Errorf("invalid category %q", r.Category)
	}
	if r.SourceType == "" {
		r.SourceType = SourceManual
	}
	if !ValidKnowledgeSourceType(r.SourceType) {
		return fmt.Errorf("invalid source_type %q", r.SourceType)
	}
	if r.Importance == 0 {
		r.Importance = 5
	}
	if r.Importance < 1 || r.Importance > 10 {
		return fmt.Errorf("importance must be between 1 and 10")
	}
	return nil
}

// KnowledgeSearchRequest is the request body for knowledge similarity search.
type KnowledgeSearchRequest struct {
	Query string `json:"query"`
	TopK  int    `json:"top_k,omitempty"`
}

// KnowledgeSearchResult is a scored retrieval hit scoped to one agent.
type KnowledgeSearchResult struct {
	DocumentID string  `json:"document_id"`
	Title      string  `json:"title"`
	Content    string  `json:"content"`
	Score      float32 `json:"score"`
	ChunkIndex int     `json:"chunk_index"`
}
