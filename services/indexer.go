package services

import (
	"context"
	"fmt"
	"time"

	"document-chat-service/internal/logger"
	"document-chat-service/internal/telemetry"
	"document-chat-service/internal/vectorstore"
	"document-chat-service/models"
)

// Embedder turns text into fixed-length vectors. Satisfied by ai.Embedder;
// tests substitute a fake.
type Embedder interface {
	EmbedDocuments(ctx context.Context, texts []string) ([][]float32, error)
	EmbedQuery(ctx context.Context, text string) ([]float32, error)
}

// VectorIndex is the slice of the vector store the pipeline uses.
// Satisfied by vectorstore.Client.
type VectorIndex interface {
	Upsert(ctx context.Context, records []vectorstore.Record) error
	Query(ctx context.Context, vector []float32, topK int, filter map[string]any) ([]vectorstore.Match, error)
}

// Indexer embeds document chunks and writes them to the vector store
// under deterministic per-document ids, then records the name to index
// mapping. All collaborators are passed in at construction.
type Indexer struct {
	indexName  string
	dimensions int
	embedder   Embedder
	modelName  string
	vectors    VectorIndex
	store      IndexStore
	metrics    *telemetry.Metrics
}

func NewIndexer(indexName string, dimensions int, embedder Embedder, modelName string, vectors VectorIndex, store IndexStore, metrics *telemetry.Metrics) *Indexer {
	return &Indexer{
		indexName:  indexName,
		dimensions: dimensions,
		embedder:   embedder,
		modelName:  modelName,
		vectors:    vectors,
		store:      store,
		metrics:    metrics,
	}
}

// IndexDocument embeds all chunks in one batch, upserts one record per
// chunk with id "{name}_{i}" and the chunk text as metadata, and persists
// the name mapping only after the upsert is confirmed. If embedding fails
// nothing is upserted; if the upsert fails no mapping is written, so a
// mapping never points at a vector set that was not fully submitted.
//
// Re-uploading a shorter document under the same name overwrites records
// at matching indices but leaves stale higher-index records in place;
// the vector store is never cleaned up.
func (ix *Indexer) IndexDocument(ctx context.Context, name string, chunks []string) error {
	if name == "" {
		return fmt.Errorf("document name is required")
	}

	rec := models.DocumentIndex{
		Name:           name,
		IndexName:      ix.indexName,
		ChunkCount:     len(chunks),
		Dimensions:     ix.dimensions,
		EmbeddingModel: ix.modelName,
		IndexedAt:      time.Now(),
	}

	// A document with no extractable text still gets a mapping so the
	// query path can answer with the fallback instead of a 404.
	if len(chunks) == 0 {
		logger.Warn("indexing document with no chunks", "document", name)
		return ix.store.Put(ctx, rec)
	}

	vectors, err := ix.embedder.EmbedDocuments(ctx, chunks)
	if err != nil {
		return fmt.Errorf("embedding document %q: %w", name, err)
	}
	if len(vectors) != len(chunks) {
		return fmt.Errorf("embedding document %q: got %d vectors for %d chunks", name, len(vectors), len(chunks))
	}

	records := make([]vectorstore.Record, len(chunks))
	for i, chunk := range chunks {
		records[i] = vectorstore.Record{
			ID:     fmt.Sprintf("%s_%d", name, i),
			Values: vectors[i],
			Metadata: map[string]any{
				"text":     chunk,
				"document": name,
			},
		}
	}

	if err := ix.vectors.Upsert(ctx, records); err != nil {
		return fmt.Errorf("upserting document %q: %w", name, err)
	}

	if err := ix.store.Put(ctx, rec); err != nil {
		return err
	}

	if ix.metrics != nil {
		ix.metrics.RecordIndexing(name, len(chunks))
	}
	logger.Info("document indexed", "document", name, "chunks", len(chunks))

	return nil
}
