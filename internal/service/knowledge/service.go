// Package knowledge provides the shared business logic for the agent knowledge
// base: indexing documents, retrieving context, and generating agent replies.
//
// Both the consultation and CEO chat endpoints delegate to this service so
// retrieval, prompt assembly, and completion behave identically everywhere.
package knowledge

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/metric"

	"github.com/ktpcontractings-rgb/tdai-legal-platform-complete/internal/model"
	"github.com/ktpcontractings-rgb/tdai-legal-platform-complete/internal/search"
	"github.com/ktpcontractings-rgb/tdai-legal-platform-complete/internal/service/completion"
	"github.com/ktpcontractings-rgb/tdai-legal-platform-complete/internal/service/embedding"
	"github.com/ktpcontractings-rgb/tdai-legal-platform-complete/internal/storage"
	"github.com/ktpcontractings-rgb/tdai-legal-platform-complete/internal/telemetry"
)

const (
	// DefaultTopK is the number of chunks retrieved per query.
	DefaultTopK = 5

	// contextBudgetChars caps the assembled knowledge context at roughly
	// 3000 tokens, estimated at 4 characters per token.
	contextBudgetChars = 12000

	// maxHistoryTurns is how many prior turns are replayed to the model.
	maxHistoryTurns = 10

	// emptyKnowledgePlaceholder is injected when an agent has no indexed
	// documents, so the model knows to answer from general knowledge.
	emptyKnowledgePlaceholder = "No specific knowledge base loaded yet."
)

// Service encapsulates knowledge-base logic shared by consultation and chat handlers.
type Service struct {
	db        *storage.DB
	embedder  embedding.Provider
	searcher  search.Searcher
	completer completion.Provider
	logger    *slog.Logger

	embeddingDuration metric.Float64Histogram
	searchDuration    metric.Float64Histogram
}

// New creates a knowledge Service.
// searcher may be nil if Qdrant is not configured (falls back to pgvector).
func New(db *storage.DB, embedder embedding.Provider, searcher search.Searcher, completer completion.Provider, logger *slog.Logger) *Service {
	meter := telemetry.Meter("tdai/knowledge")
	embDur, _ := meter.Float64Histogram("tdai.embedding.duration",
		metric.WithDescription("Time to generate embeddings (ms)"),
		metric.WithUnit("ms"),
	)
	searchDur, _ := meter.Float64Histogram("tdai.knowledge.search.duration",
		metric.WithDescription("Time to execute knowledge retrieval (ms)"),
		metric.WithUnit("ms"),
	)
	return &Service{
		db:                db,
		embedder:          embedder,
		searcher:          searcher,
		completer:         completer,
		logger:            logger,
		embeddingDuration: embDur,
		searchDuration:    searchDur,
	}
}

// CompletionConfigured reports whether a completion provider is wired.
func (s *Service) CompletionConfigured() bool {
	return s.completer != nil
}

// Index embeds a document, stores it in Postgres, and pushes its chunks to the
// vector index. The Postgres write is authoritative; a Qdrant failure enqueues
// the document in the search outbox for background retry, and retrieval falls
// back to pgvector until the retry succeeds.
func (s *Service) Index(ctx context.Context, agentID string, req model.AddKnowledgeRequest) (model.KnowledgeDocument, error) {
	embStart := time.Now()
	docEmb, err := s.embedder.Embed(ctx, req.Title+"\n"+req.Content)
	s.embeddingDuration.Record(ctx, float64(time.Since(embStart).Milliseconds()))
	if err != nil {
		s.logger.Warn("index: document embedding failed, storing without vector", "error", err, "agent_id", agentID)
		docEmb = nil
	} else if len(docEmb) != s.embedder.Dimensions() {
		return model.KnowledgeDocument{}, fmt.Errorf("index: embedding dimension mismatch: got %d, want %d", len(docEmb), s.embedder.Dimensions())
	}

	id := "kb_" + uuid.NewString()
	doc := model.KnowledgeDocument{
		ID:         id,
		AgentID:    agentID,
		Title:      req.Title,
		Content:    req.Content,
		Category:   req.Category,
		SourceType: req.SourceType,
		Importance: req.Importance,
		VectorID:   &id,
	}
	created, err := s.db.InsertKnowledgeDocument(ctx, doc, docEmb)
	if err != nil {
		return model.KnowledgeDocument{}, fmt.Errorf("index: store document: %w", err)
	}

	if err := s.indexChunks(ctx, created); err != nil {
		s.logger.Warn("index: vector index update failed, queueing for retry",
			"error", err, "document_id", created.ID)
		if err := s.db.EnqueueSearchIndex(ctx, created.ID, storage.SearchOpUpsert); err != nil {
			s.logger.Error("index: enqueue outbox entry", "error", err, "document_id", created.ID)
		}
	}

	return created, nil
}

// indexChunks splits the document, embeds each chunk, and upserts them into Qdrant.
func (s *Service) indexChunks(ctx context.Context, doc model.KnowledgeDocument) error {
	if s.searcher == nil {
		return nil
	}

	texts := search.ChunkText(doc.Content)
	if len(texts) == 0 {
		return nil
	}

	embs, err := s.embedder.EmbedBatch(ctx, texts)
	if err != nil {
		return fmt.Errorf("embed %d chunks: %w", len(texts), err)
	}

	chunks := make([]search.Chunk, len(texts))
	for i, text := range texts {
		chunks[i] = search.Chunk{
			DocumentID: doc.ID,
			AgentID:    doc.AgentID,
			Title:      doc.Title,
			Content:    text,
			Index:      i,
			Embedding:  embs[i],
		}
	}

	return s.searcher.UpsertChunks(ctx, chunks)
}

// Delete removes a document from Postgres and the vector index. A failed
// index cleanup is queued in the search outbox so stale chunks do not linger.
func (s *Service) Delete(ctx context.Context, id string) error {
	if err := s.db.DeleteKnowledgeDocument(ctx, id); err != nil {
		return err
	}
	if s.searcher != nil {
		if err := s.searcher.DeleteDocument(ctx, id); err != nil {
			s.logger.Warn("delete: vector index cleanup failed, queueing for retry", "error", err, "document_id", id)
			if err := s.db.EnqueueSearchIndex(ctx, id, storage.SearchOpDelete); err != nil {
				s.logger.Error("delete: enqueue outbox entry", "error", err, "document_id", id)
			}
		}
	}
	return nil
}

// ContextForAgent concatenates every document in an agent's knowledge base
// into the "### title" block format, uncapped. An empty knowledge base is not
// an error; it yields the standard placeholder.
func (s *Service) ContextForAgent(ctx context.Context, agentID string) (string, error) {
	docs, err := s.db.ListKnowledgeByAgent(ctx, agentID)
	if err != nil {
		return "", fmt.Errorf("context for agent: %w", err)
	}
	if len(docs) == 0 {
		return emptyKnowledgePlaceholder, nil
	}

	var b strings.Builder
	for _, d := range docs {
		b.WriteString("### " + d.Title + "\n" + d.Content + "\n\n")
	}
	return strings.TrimRight(b.String(), "\n"), nil
}

// Retrieve returns the chunks most relevant to the query within one agent's
// knowledge base. Fallback chain: Qdrant (chunk-level) → pgvector (document-level).
func (s *Service) Retrieve(ctx context.Context, agentID, query string, limit int) ([]model.KnowledgeSearchResult, error) {
	if limit <= 0 {
		limit = DefaultTopK
	}

	embStart := time.Now()
	queryEmb, err := s.embedder.Embed(ctx, query)
	s.embeddingDuration.Record(ctx, float64(time.Since(embStart).Milliseconds()))
	if err != nil {
		return nil, fmt.Errorf("retrieve: embed query: %w", err)
	}
	if isZeroVector(queryEmb) {
		// Noop embedder: similarity is meaningless, skip retrieval.
		return []model.KnowledgeSearchResult{}, nil
	}

	if s.searcher != nil {
		if err := s.searcher.Healthy(ctx); err == nil {
			searchStart := time.Now()
			results, err := s.searcher.Search(ctx, agentID, queryEmb, limit)
			s.searchDuration.Record(ctx, float64(time.Since(searchStart).Milliseconds()))
			if err == nil {
				return results, nil
			}
			s.logger.Warn("retrieve: qdrant query failed, falling back to pgvector", "error", err)
		} else {
			s.logger.Debug("retrieve: qdrant unhealthy, using pgvector", "error", err)
		}
	}

	return s.db.SearchKnowledgeByEmbedding(ctx, agentID, queryEmb, limit)
}

// BuildContext assembles retrieved chunks into the prompt context block. Each
// chunk contributes a "### title" section; total size is capped so the prompt
// stays within the model's context budget.
func BuildContext(results []model.KnowledgeSearchResult) string {
	if len(results) == 0 {
		return emptyKnowledgePlaceholder
	}

	var b strings.Builder
	for _, r := range results {
		section := "### " + r.Title + "\n" + r.Content + "\n\n"
		if b.Len()+len(section) > contextBudgetChars {
			break
		}
		b.WriteString(section)
	}
	if b.Len() == 0 {
		return emptyKnowledgePlaceholder
	}
	return strings.TrimRight(b.String(), "\n")
}

// Respond generates an agent reply for a user message, grounding the model in
// the agent's persona and retrieved knowledge, replaying recent history.
func (s *Service) Respond(ctx context.Context, persona Persona, message string, history []model.ChatTurn) (string, error) {
	results, err := s.Retrieve(ctx, persona.AgentID, message, DefaultTopK)
	if err != nil {
		s.logger.Warn("respond: knowledge retrieval failed, answering without context",
			"error", err, "agent_id", persona.AgentID)
		results = nil
	}

	messages := []completion.Message{
		{Role: completion.RoleSystem, Content: systemPrompt(persona, BuildContext(results))},
	}

	if len(history) > maxHistoryTurns {
		history = history[len(history)-maxHistoryTurns:]
	}
	for _, turn := range history {
		role := completion.RoleUser
		if turn.Role == model.ChatRoleAssistant {
			role = completion.RoleAssistant
		}
		messages = append(messages, completion.Message{Role: role, Content: turn.Content})
	}

	messages = append(messages, completion.Message{Role: completion.RoleUser, Content: message})

	reply, err := s.completer.Complete(ctx, messages)
	if err != nil {
		return "", fmt.Errorf("respond: %w", err)
	}
	return reply, nil
}

// Persona describes the agent on whose behalf a reply is generated.
type Persona struct {
	AgentID        string
	Name           string
	Title          string
	Specialization string
	Description    string
}

// PersonaForLegalAgent adapts a legal agent record for reply generation.
func PersonaForLegalAgent(a model.LegalAgent) Persona {
	return Persona{
		AgentID:        a.ID,
		Name:           a.Name,
		Title:          a.Title,
		Specialization: string(a.Specialization),
		Description:    a.Description,
	}
}

// PersonaForManagementAgent adapts a management agent record for reply generation.
func PersonaForManagementAgent(a model.ManagementAgent) Persona {
	return Persona{
		AgentID:        a.ID,
		Name:           a.Name,
		Title:          a.Title,
		Specialization: string(a.Role),
		Description:    a.Description,
	}
}

func systemPrompt(p Persona, knowledgeContext string) string {
	var b strings.Builder
	b.WriteString("You are " + p.Name + ", " + p.Title + " at TDAI, an AI-powered legal services platform.")
	if p.Specialization != "" {
		b.WriteString(" Your specialization is " + strings.ToLower(strings.ReplaceAll(p.Specialization, "_", " ")) + ".")
	}
	if p.Description != "" {
		b.WriteString("\n\n" + p.Description)
	}
	b.WriteString("\n\nUse the following knowledge base context when it is relevant. ")
	b.WriteString("If the context does not cover the question, answer from general legal knowledge ")
	b.WriteString("and recommend consulting a licensed attorney for jurisdiction-specific advice.\n\n")
	b.WriteString("Knowledge base:\n")
	b.WriteString(knowledgeContext)
	return b.String()
}

func isZeroVector(v []float32) bool {
	for _, val := range v {
		if val != 0 {
			return false
		}
	}
	return true
}
