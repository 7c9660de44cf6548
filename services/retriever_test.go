package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"document-chat-service/internal/vectorstore"
	"document-chat-service/models"
)

func seedMapping(store *fakeIndexStore, name string, dimensions int, model string) {
	store.docs[name] = models.DocumentIndex{
		Name:           name,
		IndexName:      "document-chunks",
		ChunkCount:     3,
		Dimensions:     dimensions,
		EmbeddingModel: model,
		IndexedAt:      time.Now(),
	}
}

func TestRetrieveUnknownDocument(t *testing.T) {
	store := newFakeIndexStore()
	r := NewRetriever(store, &fakeEmbedder{dimensions: 4}, "text-embedding-004", 4, newFakeVectorIndex(), 3, nil)

	_, err := r.Retrieve(context.Background(), "missing", "what is this about?")
	if !errors.Is(err, ErrDocumentNotFound) {
		t.Fatalf("expected ErrDocumentNotFound, got %v", err)
	}
}

func TestRetrieveReturnsMatchesInOrder(t *testing.T) {
	store := newFakeIndexStore()
	seedMapping(store, "doc1", 4, "text-embedding-004")

	vectors := newFakeVectorIndex()
	vectors.matches = []vectorstore.Match{
		{ID: "doc1_2", Score: 0.92, Metadata: map[string]any{"text": "most relevant", "document": "doc1"}},
		{ID: "doc1_0", Score: 0.81, Metadata: map[string]any{"text": "second", "document": "doc1"}},
		{ID: "doc1_1", Score: 0.55, Metadata: map[string]any{"text": "third", "document": "doc1"}},
	}
	embedder := &fakeEmbedder{dimensions: 4}
	r := NewRetriever(store, embedder, "text-embedding-004", 4, vectors, 3, nil)

	chunks, err := r.Retrieve(context.Background(), "doc1", "what is the policy?")
	if err != nil {
		t.Fatalf("Retrieve: %v", err)
	}
	if len(chunks) != 3 {
		t.Fatalf("got %d chunks, want 3", len(chunks))
	}
	for i, want := range []string{"most relevant", "second", "third"} {
		if chunks[i].Text != want {
			t.Fatalf("chunk %d text = %q, want %q", i, chunks[i].Text, want)
		}
	}
	if chunks[0].Score < chunks[1].Score || chunks[1].Score < chunks[2].Score {
		t.Fatal("chunks not in descending score order")
	}
	if embedder.lastQuery != "what is the policy?" {
		t.Fatalf("query embedded = %q", embedder.lastQuery)
	}
	if vectors.lastTopK != 3 {
		t.Fatalf("topK = %d, want 3", vectors.lastTopK)
	}
}

func TestRetrieveScopesQueryToDocument(t *testing.T) {
	store := newFakeIndexStore()
	seedMapping(store, "doc1", 4, "text-embedding-004")

	vectors := newFakeVectorIndex()
	r := NewRetriever(store, &fakeEmbedder{dimensions: 4}, "text-embedding-004", 4, vectors, 3, nil)

	if _, err := r.Retrieve(context.Background(), "doc1", "anything at all?"); err != nil {
		t.Fatalf("Retrieve: %v", err)
	}

	cond, ok := vectors.lastFilter["document"].(map[string]any)
	if !ok {
		t.Fatalf("filter missing document condition: %v", vectors.lastFilter)
	}
	if cond["$eq"] != "doc1" {
		t.Fatalf("filter document = %v, want doc1", cond["$eq"])
	}
}

func TestRetrieveSkipsMatchesWithoutText(t *testing.T) {
	store := newFakeIndexStore()
	seedMapping(store, "doc1", 4, "text-embedding-004")

	vectors := newFakeVectorIndex()
	vectors.matches = []vectorstore.Match{
		{ID: "doc1_0", Score: 0.9, Metadata: map[string]any{"text": "usable"}},
		{ID: "doc1_1", Score: 0.8, Metadata: map[string]any{"document": "doc1"}},
		{ID: "doc1_2", Score: 0.7, Metadata: nil},
	}
	r := NewRetriever(store, &fakeEmbedder{dimensions: 4}, "text-embedding-004", 4, vectors, 3, nil)

	chunks, err := r.Retrieve(context.Background(), "doc1", "what survives?")
	if err != nil {
		t.Fatalf("Retrieve: %v", err)
	}
	if len(chunks) != 1 || chunks[0].Text != "usable" {
		t.Fatalf("expected only the match with text metadata, got %v", chunks)
	}
}

func TestRetrieveNoMatches(t *testing.T) {
	store := newFakeIndexStore()
	seedMapping(store, "doc1", 4, "text-embedding-004")
	r := NewRetriever(store, &fakeEmbedder{dimensions: 4}, "text-embedding-004", 4, newFakeVectorIndex(), 3, nil)

	chunks, err := r.Retrieve(context.Background(), "doc1", "is anything there?")
	if err != nil {
		t.Fatalf("Retrieve: %v", err)
	}
	if len(chunks) != 0 {
		t.Fatalf("expected empty result, got %d chunks", len(chunks))
	}
}

func TestRetrieveRejectsDimensionMismatch(t *testing.T) {
	store := newFakeIndexStore()
	seedMapping(store, "doc1", 1536, "text-embedding-004")
	vectors := newFakeVectorIndex()
	r := NewRetriever(store, &fakeEmbedder{dimensions: 4}, "text-embedding-004", 4, vectors, 3, nil)

	if _, err := r.Retrieve(context.Background(), "doc1", "will this run?"); err == nil {
		t.Fatal("expected error for dimension mismatch")
	}
	if vectors.lastTopK != 0 {
		t.Fatal("vector store must not be queried on dimension mismatch")
	}
}

func TestRetrieveRejectsModelMismatch(t *testing.T) {
	store := newFakeIndexStore()
	seedMapping(store, "doc1", 4, "embedding-001")
	r := NewRetriever(store, &fakeEmbedder{dimensions: 4}, "text-embedding-004", 4, newFakeVectorIndex(), 3, nil)

	if _, err := r.Retrieve(context.Background(), "doc1", "will this run?"); err == nil {
		t.Fatal("expected error for embedding model mismatch")
	}
}

func TestRetrieveLegacyMappingWithoutVersionFields(t *testing.T) {
	// Mappings written before model and dimension tracking have zero
	// values there; they still retrieve.
	store := newFakeIndexStore()
	seedMapping(store, "doc1", 0, "")
	r := NewRetriever(store, &fakeEmbedder{dimensions: 4}, "text-embedding-004", 4, newFakeVectorIndex(), 3, nil)

	if _, err := r.Retrieve(context.Background(), "doc1", "still works?"); err != nil {
		t.Fatalf("Retrieve: %v", err)
	}
}

func TestRetrieveEmbedFailure(t *testing.T) {
	store := newFakeIndexStore()
	seedMapping(store, "doc1", 4, "text-embedding-004")
	r := NewRetriever(store, &fakeEmbedder{dimensions: 4, failQuery: true}, "text-embedding-004", 4, newFakeVectorIndex(), 3, nil)

	if _, err := r.Retrieve(context.Background(), "doc1", "will this fail?"); err == nil {
		t.Fatal("expected error when query embedding fails")
	}
}
