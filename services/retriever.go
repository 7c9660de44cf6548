package services

import (
	"context"
	"fmt"
	"time"

	"document-chat-service/internal/telemetry"
	"document-chat-service/models"
)

// Retriever resolves a document name to its index mapping, embeds the
// query and fetches the most similar chunks from the vector store.
type Retriever struct {
	store      IndexStore
	embedder   Embedder
	modelName  string
	dimensions int
	vectors    VectorIndex
	topK       int
	metrics    *telemetry.Metrics
}

func NewRetriever(store IndexStore, embedder Embedder, modelName string, dimensions int, vectors VectorIndex, topK int, metrics *telemetry.Metrics) *Retriever {
	if topK <= 0 {
		topK = 3
	}
	return &Retriever{
		store:      store,
		embedder:   embedder,
		modelName:  modelName,
		dimensions: dimensions,
		vectors:    vectors,
		topK:       topK,
		metrics:    metrics,
	}
}

// Retrieve returns up to topK chunks of the named document in descending
// similarity order. An unknown name fails with ErrDocumentNotFound; no
// matches is an empty result, not an error. Queries are filtered to the
// document's records, so chunks of other documents sharing the physical
// index cannot leak in. Matches without text metadata are skipped.
func (r *Retriever) Retrieve(ctx context.Context, name, question string) ([]models.RetrievedChunk, error) {
	rec, err := r.store.Get(ctx, name)
	if err != nil {
		return nil, err
	}

	// Vectors written under a different embedding model or dimensionality
	// have incompatible geometry; refuse to query them.
	if rec.Dimensions != 0 && rec.Dimensions != r.dimensions {
		return nil, fmt.Errorf("document %q indexed with %d dimensions, service configured for %d; re-upload required",
			name, rec.Dimensions, r.dimensions)
	}
	if rec.EmbeddingModel != "" && rec.EmbeddingModel != r.modelName {
		return nil, fmt.Errorf("document %q indexed with embedding model %q, service configured for %q; re-upload required",
			name, rec.EmbeddingModel, r.modelName)
	}

	vector, err := r.embedder.EmbedQuery(ctx, question)
	if err != nil {
		return nil, fmt.Errorf("embedding question for %q: %w", name, err)
	}

	filter := map[string]any{
		"document": map[string]any{"$eq": name},
	}

	start := time.Now()
	matches, err := r.vectors.Query(ctx, vector, r.topK, filter)
	if err != nil {
		return nil, fmt.Errorf("querying chunks for %q: %w", name, err)
	}
	if r.metrics != nil {
		r.metrics.RecordVectorQuery(time.Since(start).Seconds(), len(matches))
	}

	chunks := make([]models.RetrievedChunk, 0, len(matches))
	for _, m := range matches {
		text, ok := m.Metadata["text"].(string)
		if !ok {
			continue
		}
		chunks = append(chunks, models.RetrievedChunk{
			ID:    m.ID,
			Text:  text,
			Score: m.Score,
		})
	}

	return chunks, nil
}
