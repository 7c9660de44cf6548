package ai

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"
)

// ErrEmbedding marks failures of the embedding provider.
var ErrEmbedding = errors.New("embedding failed")

// Embedder wraps the Google Generative AI embedding model.
// Constructed once at process start and passed to every component
// that needs it.
type Embedder struct {
	client *genai.Client
	model  string
}

// NewEmbedder creates an embedder backed by the given model
// (text-embedding-004 by default, 768 dimensions).
func NewEmbedder(ctx context.Context, apiKey, model string) (*Embedder, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("missing GEMINI_API_KEY for embeddings")
	}
	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, err
	}

	return &Embedder{
		client: client,
		model:  model,
	}, nil
}

// EmbedDocuments embeds all texts in one batch call. The provider
// preserves order: vector i corresponds to texts[i].
func (e *Embedder) EmbedDocuments(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}

	model := e.client.EmbeddingModel(e.model)
	batch := model.NewBatch()
	for _, text := range texts {
		batch.AddContent(genai.Text(text))
	}

	resp, err := model.BatchEmbedContents(ctx, batch)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrEmbedding, err)
	}
	if len(resp.Embeddings) != len(texts) {
		return nil, fmt.Errorf("%w: got %d embeddings for %d texts", ErrEmbedding, len(resp.Embeddings), len(texts))
	}

	vectors := make([][]float32, len(resp.Embeddings))
	for i, emb := range resp.Embeddings {
		if emb == nil || len(emb.Values) == 0 {
			return nil, fmt.Errorf("%w: empty embedding at position %d", ErrEmbedding, i)
		}
		vectors[i] = emb.Values
	}

	return vectors, nil
}

// EmbedQuery embeds a single query string.
func (e *Embedder) EmbedQuery(ctx context.Context, text string) ([]float32, error) {
	model := e.client.EmbeddingModel(e.model)
	resp, err := model.EmbedContent(ctx, genai.Text(text))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrEmbedding, err)
	}
	if resp.Embedding == nil || len(resp.Embedding.Values) == 0 {
		return nil, fmt.Errorf("%w: no embedding returned", ErrEmbedding)
	}

	return resp.Embedding.Values, nil
}

// Model reports the embedding model identifier.
func (e *Embedder) Model() string {
	return e.model
}

// Close releases the underlying client.
func (e *Embedder) Close() error {
	if e.client != nil {
		return e.client.Close()
	}
	return nil
}
