package services

import (
	"context"

	"document-chat-service/internal/telemetry"
	"document-chat-service/models"
)

// AnswerModel is the generation backend. Satisfied by ai.GeminiClient.
type AnswerModel interface {
	Answer(ctx context.Context, contextChunks []string, question string) (string, int, error)
	Model() string
}

// Synthesizer feeds retrieved chunks plus the question to the language
// model under the fixed answering prompt and returns the answer text
// verbatim. Model-call errors surface to the caller unretried.
type Synthesizer struct {
	model   AnswerModel
	metrics *telemetry.Metrics
}

func NewSynthesizer(model AnswerModel, metrics *telemetry.Metrics) *Synthesizer {
	return &Synthesizer{
		model:   model,
		metrics: metrics,
	}
}

func (s *Synthesizer) Synthesize(ctx context.Context, chunks []models.RetrievedChunk, question string) (string, error) {
	texts := make([]string, len(chunks))
	for i, chunk := range chunks {
		texts[i] = chunk.Text
	}

	answer, tokens, err := s.model.Answer(ctx, texts, question)
	if err != nil {
		return "", err
	}

	if s.metrics != nil {
		s.metrics.RecordTokensUsed(int64(tokens), s.model.Model())
	}

	return answer, nil
}
