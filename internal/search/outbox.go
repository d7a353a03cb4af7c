package search

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"go.opentelemetry.io/otel/metric"

	"github.com/ktpcontractings-rgb/tdai-legal-platform-complete/internal/model"
	"github.com/ktpcontractings-rgb/tdai-legal-platform-complete/internal/storage"
	"github.com/ktpcontractings-rgb/tdai-legal-platform-complete/internal/telemetry"
)

// OutboxStore is the slice of the storage layer the outbox worker drives.
// *storage.DB implements it.
type OutboxStore interface {
	ClaimSearchOutbox(ctx context.Context, limit int) ([]storage.SearchOutboxEntry, error)
	CompleteSearchOutbox(ctx context.Context, ids []int64) error
	RetrySearchOutbox(ctx context.Context, ids []int64, lastError string) error
	PurgeSearchOutbox(ctx context.Context, retention time.Duration) (int64, error)
	CountSearchOutboxPending(ctx context.Context) (int64, error)
	ListKnowledgeDocumentsByIDs(ctx context.Context, ids []string) ([]model.KnowledgeDocument, error)
}

// ChunkEmbedder embeds chunk batches for re-indexing.
// embedding.Provider satisfies it.
type ChunkEmbedder interface {
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)
}

// deadLetterRetention is how long exhausted entries are kept for inspection
// before the periodic purge removes them.
const deadLetterRetention = 7 * 24 * time.Hour

// OutboxWorker drains the search outbox: knowledge documents whose Qdrant
// write failed at request time are re-chunked, re-embedded, and upserted
// here until they stick. Retrieval serves from the pgvector fallback in the
// meantime, so the worker only ever improves result quality, never gates it.
type OutboxWorker struct {
	store        OutboxStore
	index        Searcher
	embedder     ChunkEmbedder
	logger       *slog.Logger
	pollInterval time.Duration
	batchSize    int

	started    atomic.Bool
	cancelLoop context.CancelFunc
	done       chan struct{}
	once       sync.Once
	lastPurge  time.Time
}

// NewOutboxWorker creates a worker. It does nothing until Start is called.
func NewOutboxWorker(store OutboxStore, index Searcher, embedder ChunkEmbedder, logger *slog.Logger, pollInterval time.Duration, batchSize int) *OutboxWorker {
	return &OutboxWorker{
		store:        store,
		index:        index,
		embedder:     embedder,
		logger:       logger,
		pollInterval: pollInterval,
		batchSize:    batchSize,
		done:         make(chan struct{}),
	}
}

// Start launches the background poll loop. Calling Start twice is a no-op.
func (w *OutboxWorker) Start(ctx context.Context) {
	if !w.started.CompareAndSwap(false, true) {
		w.logger.Warn("search outbox: Start called more than once, ignoring")
		return
	}
	w.registerMetrics()
	loopCtx, cancel := context.WithCancel(ctx)
	w.cancelLoop = cancel
	go w.pollLoop(loopCtx)
}

// Drain stops the poll loop, runs one final pass over pending entries, and
// blocks until that pass finishes or ctx expires.
func (w *OutboxWorker) Drain(ctx context.Context) {
	if w.cancelLoop != nil {
		w.cancelLoop()
	}
	select {
	case <-w.done:
	case <-ctx.Done():
		w.logger.Warn("search outbox: drain timed out")
	}
}

func (w *OutboxWorker) pollLoop(ctx context.Context) {
	ticker := time.NewTicker(w.pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			// Final pass on its own deadline; ctx is already cancelled.
			finalCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			w.processBatch(finalCtx)
			cancel()
			w.once.Do(func() { close(w.done) })
			return
		case <-ticker.C:
			batchCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
			w.processBatch(batchCtx)
			cancel()
		}
	}
}

func (w *OutboxWorker) processBatch(ctx context.Context) {
	entries, err := w.store.ClaimSearchOutbox(ctx, w.batchSize)
	if err != nil {
		w.logger.Error("search outbox: claim entries", "error", err)
		return
	}

	var upserts, deletes []storage.SearchOutboxEntry
	for _, e := range entries {
		switch e.Operation {
		case storage.SearchOpUpsert:
			upserts = append(upserts, e)
		case storage.SearchOpDelete:
			deletes = append(deletes, e)
		}
	}
	if len(upserts) > 0 {
		w.processUpserts(ctx, upserts)
	}
	if len(deletes) > 0 {
		w.processDeletes(ctx, deletes)
	}

	if time.Since(w.lastPurge) > time.Hour {
		if n, err := w.store.PurgeSearchOutbox(ctx, deadLetterRetention); err != nil {
			w.logger.Error("search outbox: purge dead letters", "error", err)
		} else if n > 0 {
			w.logger.Info("search outbox: purged dead letters", "deleted", n)
		}
		w.lastPurge = time.Now()
	}
}

func (w *OutboxWorker) processUpserts(ctx context.Context, entries []storage.SearchOutboxEntry) {
	ids := make([]string, len(entries))
	for i, e := range entries {
		ids[i] = e.DocumentID
	}
	docs, err := w.store.ListKnowledgeDocumentsByIDs(ctx, ids)
	if err != nil {
		w.logger.Error("search outbox: fetch documents", "error", err, "count", len(ids))
		w.retry(ctx, entries, err.Error())
		return
	}
	byID := make(map[string]model.KnowledgeDocument, len(docs))
	for _, d := range docs {
		byID[d.ID] = d
	}

	var ok, failed []storage.SearchOutboxEntry
	var lastErr error
	for _, e := range entries {
		doc, exists := byID[e.DocumentID]
		if !exists {
			// Deleted since it was enqueued; nothing left to index.
			ok = append(ok, e)
			continue
		}
		if err := w.reindex(ctx, doc); err != nil {
			lastErr = err
			failed = append(failed, e)
			continue
		}
		ok = append(ok, e)
	}

	w.complete(ctx, ok)
	if len(failed) > 0 {
		w.logger.Warn("search outbox: reindex failed", "error", lastErr, "count", len(failed))
		w.retry(ctx, failed, lastErr.Error())
	}
	if len(ok) > 0 {
		w.logger.Info("search outbox: reindexed", "count", len(ok))
	}
}

// reindex rebuilds a single document's chunks from scratch. Embeddings are
// recomputed rather than persisted at enqueue time: the failure being
// retried may have been the embedding call itself.
func (w *OutboxWorker) reindex(ctx context.Context, doc model.KnowledgeDocument) error {
	texts := ChunkText(doc.Content)
	if len(texts) == 0 {
		return nil
	}
	embs, err := w.embedder.EmbedBatch(ctx, texts)
	if err != nil {
		return err
	}
	chunks := make([]Chunk, len(texts))
	for i, text := range texts {
		chunks[i] = Chunk{
			DocumentID: doc.ID,
			AgentID:    doc.AgentID,
			Title:      doc.Title,
			Content:    text,
			Index:      i,
			Embedding:  embs[i],
		}
	}
	return w.index.UpsertChunks(ctx, chunks)
}

func (w *OutboxWorker) processDeletes(ctx context.Context, entries []storage.SearchOutboxEntry) {
	var ok, failed []storage.SearchOutboxEntry
	var lastErr error
	for _, e := range entries {
		if err := w.index.DeleteDocument(ctx, e.DocumentID); err != nil {
			lastErr = err
			failed = append(failed, e)
			continue
		}
		ok = append(ok, e)
	}

	w.complete(ctx, ok)
	if len(failed) > 0 {
		w.logger.Warn("search outbox: delete failed", "error", lastErr, "count", len(failed))
		w.retry(ctx, failed, lastErr.Error())
	}
	if len(ok) > 0 {
		w.logger.Info("search outbox: deleted from index", "count", len(ok))
	}
}

func (w *OutboxWorker) complete(ctx context.Context, entries []storage.SearchOutboxEntry) {
	if len(entries) == 0 {
		return
	}
	ids := make([]int64, len(entries))
	for i, e := range entries {
		ids[i] = e.ID
	}
	if err := w.store.CompleteSearchOutbox(ctx, ids); err != nil {
		w.logger.Error("search outbox: complete entries", "error", err)
	}
}

func (w *OutboxWorker) retry(ctx context.Context, entries []storage.SearchOutboxEntry, errMsg string) {
	ids := make([]int64, len(entries))
	for i, e := range entries {
		ids[i] = e.ID
	}
	if err := w.store.RetrySearchOutbox(ctx, ids, errMsg); err != nil {
		w.logger.Error("search outbox: schedule retries", "error", err)
	}
	for _, e := range entries {
		if e.Attempts+1 >= storage.MaxSearchOutboxAttempts {
			w.logger.Warn("search outbox: entry dead-lettered",
				"outbox_id", e.ID,
				"document_id", e.DocumentID,
				"operation", e.Operation,
				"attempts", e.Attempts+1,
			)
		}
	}
}

func (w *OutboxWorker) registerMetrics() {
	meter := telemetry.Meter("tdai/search")
	_, _ = meter.Int64ObservableGauge("tdai.search.outbox.depth",
		metric.WithDescription("Knowledge documents awaiting vector index retry"),
		metric.WithInt64Callback(func(ctx context.Context, o metric.Int64Observer) error {
			n, err := w.store.CountSearchOutboxPending(ctx)
			if err != nil {
				return nil // skip this observation
			}
			o.Observe(n)
			return nil
		}),
	)
}
