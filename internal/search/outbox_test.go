package search

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ktpcontractings-rgb/tdai-legal-platform-complete/internal/model"
	"github.com/ktpcontractings-rgb/tdai-legal-platform-complete/internal/storage"
)

type fakeOutboxStore struct {
	entries   []storage.SearchOutboxEntry
	docs      map[string]model.KnowledgeDocument
	completed []int64
	retried   []int64
	lastError string
	purged    int
}

func (f *fakeOutboxStore) ClaimSearchOutbox(_ context.Context, limit int) ([]storage.SearchOutboxEntry, error) {
	if limit > len(f.entries) {
		limit = len(f.entries)
	}
	claimed := f.entries[:limit]
	f.entries = f.entries[limit:]
	return claimed, nil
}

func (f *fakeOutboxStore) CompleteSearchOutbox(_ context.Context, ids []int64) error {
	f.completed = append(f.completed, ids...)
	return nil
}

func (f *fakeOutboxStore) RetrySearchOutbox(_ context.Context, ids []int64, lastError string) error {
	f.retried = append(f.retried, ids...)
	f.lastError = lastError
	return nil
}

func (f *fakeOutboxStore) PurgeSearchOutbox(_ context.Context, _ time.Duration) (int64, error) {
	f.purged++
	return 0, nil
}

func (f *fakeOutboxStore) CountSearchOutboxPending(_ context.Context) (int64, error) {
	return int64(len(f.entries)), nil
}

func (f *fakeOutboxStore) ListKnowledgeDocumentsByIDs(_ context.Context, ids []string) ([]model.KnowledgeDocument, error) {
	var out []model.KnowledgeDocument
	for _, id := range ids {
		if doc, ok := f.docs[id]; ok {
			out = append(out, doc)
		}
	}
	return out, nil
}

type fakeIndex struct {
	upserted  []Chunk
	deleted   []string
	upsertErr error
	deleteErr error
}

func (f *fakeIndex) UpsertChunks(_ context.Context, chunks []Chunk) error {
	if f.upsertErr != nil {
		return f.upsertErr
	}
	f.upserted = append(f.upserted, chunks...)
	return nil
}

func (f *fakeIndex) DeleteDocument(_ context.Context, documentID string) error {
	if f.deleteErr != nil {
		return f.deleteErr
	}
	f.deleted = append(f.deleted, documentID)
	return nil
}

func (f *fakeIndex) Search(_ context.Context, _ string, _ []float32, _ int) ([]model.KnowledgeSearchResult, error) {
	return nil, nil
}

func (f *fakeIndex) Healthy(_ context.Context) error { return nil }

type fakeEmbedder struct {
	err error
}

func (f *fakeEmbedder) EmbedBatch(_ context.Context, texts []string) ([][]float32, error) {
	if f.err != nil {
		return nil, f.err
	}
	out := make([][]float32, len(texts))
	for i := range texts {
		out[i] = []float32{1, 0, 0}
	}
	return out, nil
}

func testWorker(store OutboxStore, index Searcher, embedder ChunkEmbedder) *OutboxWorker {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewOutboxWorker(store, index, embedder, logger, time.Minute, 50)
}

func TestOutboxWorker_ReindexesPendingDocuments(t *testing.T) {
	store := &fakeOutboxStore{
		entries: []storage.SearchOutboxEntry{
			{ID: 1, DocumentID: "kb_a", Operation: storage.SearchOpUpsert},
		},
		docs: map[string]model.KnowledgeDocument{
			"kb_a": {ID: "kb_a", AgentID: "agent_traffic_sarah", Title: "Radar calibration", Content: "Radar units must be calibrated."},
		},
	}
	index := &fakeIndex{}
	w := testWorker(store, index, &fakeEmbedder{})

	w.processBatch(context.Background())

	require.Len(t, index.upserted, 1)
	assert.Equal(t, "kb_a", index.upserted[0].DocumentID)
	assert.Equal(t, "agent_traffic_sarah", index.upserted[0].AgentID)
	assert.Equal(t, []int64{1}, store.completed)
	assert.Empty(t, store.retried)
}

func TestOutboxWorker_RetriesOnIndexFailure(t *testing.T) {
	store := &fakeOutboxStore{
		entries: []storage.SearchOutboxEntry{
			{ID: 7, DocumentID: "kb_b", Operation: storage.SearchOpUpsert, Attempts: 2},
		},
		docs: map[string]model.KnowledgeDocument{
			"kb_b": {ID: "kb_b", AgentID: "agent_traffic_sarah", Title: "t", Content: "c"},
		},
	}
	index := &fakeIndex{upsertErr: errors.New("qdrant unavailable")}
	w := testWorker(store, index, &fakeEmbedder{})

	w.processBatch(context.Background())

	assert.Empty(t, store.completed)
	assert.Equal(t, []int64{7}, store.retried)
	assert.Equal(t, "qdrant unavailable", store.lastError)
}

func TestOutboxWorker_RetriesOnEmbeddingFailure(t *testing.T) {
	store := &fakeOutboxStore{
		entries: []storage.SearchOutboxEntry{
			{ID: 3, DocumentID: "kb_c", Operation: storage.SearchOpUpsert},
		},
		docs: map[string]model.KnowledgeDocument{
			"kb_c": {ID: "kb_c", AgentID: "agent_traffic_sarah", Title: "t", Content: "c"},
		},
	}
	index := &fakeIndex{}
	w := testWorker(store, index, &fakeEmbedder{err: errors.New("embedding provider down")})

	w.processBatch(context.Background())

	assert.Empty(t, index.upserted)
	assert.Equal(t, []int64{3}, store.retried)
}

func TestOutboxWorker_CompletesVanishedDocument(t *testing.T) {
	// The document was deleted after its upsert was enqueued. There is
	// nothing to index, so the entry completes instead of retrying forever.
	store := &fakeOutboxStore{
		entries: []storage.SearchOutboxEntry{
			{ID: 4, DocumentID: "kb_gone", Operation: storage.SearchOpUpsert},
		},
		docs: map[string]model.KnowledgeDocument{},
	}
	index := &fakeIndex{}
	w := testWorker(store, index, &fakeEmbedder{})

	w.processBatch(context.Background())

	assert.Empty(t, index.upserted)
	assert.Equal(t, []int64{4}, store.completed)
	assert.Empty(t, store.retried)
}

func TestOutboxWorker_ProcessesDeletes(t *testing.T) {
	store := &fakeOutboxStore{
		entries: []storage.SearchOutboxEntry{
			{ID: 5, DocumentID: "kb_d", Operation: storage.SearchOpDelete},
			{ID: 6, DocumentID: "kb_e", Operation: storage.SearchOpDelete},
		},
	}
	index := &fakeIndex{}
	w := testWorker(store, index, &fakeEmbedder{})

	w.processBatch(context.Background())

	assert.ElementsMatch(t, []string{"kb_d", "kb_e"}, index.deleted)
	assert.ElementsMatch(t, []int64{5, 6}, store.completed)
}

func TestOutboxWorker_RetriesFailedDeletes(t *testing.T) {
	store := &fakeOutboxStore{
		entries: []storage.SearchOutboxEntry{
			{ID: 9, DocumentID: "kb_f", Operation: storage.SearchOpDelete},
		},
	}
	index := &fakeIndex{deleteErr: errors.New("connection refused")}
	w := testWorker(store, index, &fakeEmbedder{})

	w.processBatch(context.Background())

	assert.Empty(t, store.completed)
	assert.Equal(t, []int64{9}, store.retried)
}

func TestOutboxWorker_StartTwiceIsNoop(t *testing.T) {
	store := &fakeOutboxStore{}
	w := testWorker(store, &fakeIndex{}, &fakeEmbedder{})

	ctx, cancel := context.WithCancel(context.Background())
	w.Start(ctx)
	w.Start(ctx) // second call must not spawn another loop
	cancel()

	drainCtx, drainCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer drainCancel()
	w.Drain(drainCtx)

	select {
	case <-w.done:
	default:
		t.Fatal("worker did not shut down")
	}
}
