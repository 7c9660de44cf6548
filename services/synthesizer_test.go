package services

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"document-chat-service/internal/ai"
	"document-chat-service/models"
)

type fakeAnswerModel struct {
	answer     string
	err        error
	lastChunks []string
	lastQ      string
}

func (f *fakeAnswerModel) Answer(ctx context.Context, contextChunks []string, question string) (string, int, error) {
	f.lastChunks = contextChunks
	f.lastQ = question
	if f.err != nil {
		return "", 0, f.err
	}
	return f.answer, 42, nil
}

func (f *fakeAnswerModel) Model() string { return "gemini-2.0-flash" }

func TestSynthesizePassesChunksAndQuestion(t *testing.T) {
	model := &fakeAnswerModel{answer: "Paris is the capital."}
	s := NewSynthesizer(model, nil)

	chunks := []models.RetrievedChunk{
		{ID: "doc1_0", Text: "France's capital is Paris.", Score: 0.9},
		{ID: "doc1_1", Text: "Paris has two million residents.", Score: 0.7},
	}

	answer, err := s.Synthesize(context.Background(), chunks, "What is the capital of France?")
	if err != nil {
		t.Fatalf("Synthesize: %v", err)
	}
	if answer != "Paris is the capital." {
		t.Fatalf("answer = %q", answer)
	}
	if len(model.lastChunks) != 2 || model.lastChunks[0] != chunks[0].Text {
		t.Fatalf("chunk texts not forwarded: %v", model.lastChunks)
	}
	if model.lastQ != "What is the capital of France?" {
		t.Fatalf("question not forwarded: %q", model.lastQ)
	}
}

func TestSynthesizeNoChunks(t *testing.T) {
	// With nothing retrieved the model still runs; the prompt instructs
	// it to return the fixed fallback on its own.
	model := &fakeAnswerModel{answer: ai.NoAnswerFallback}
	s := NewSynthesizer(model, nil)

	answer, err := s.Synthesize(context.Background(), nil, "Is anything known?")
	if err != nil {
		t.Fatalf("Synthesize: %v", err)
	}
	if answer != ai.NoAnswerFallback {
		t.Fatalf("answer = %q", answer)
	}
	if len(model.lastChunks) != 0 {
		t.Fatalf("expected no chunk texts, got %v", model.lastChunks)
	}
}

func TestSynthesizeModelError(t *testing.T) {
	model := &fakeAnswerModel{err: fmt.Errorf("%w: backend down", ai.ErrSynthesis)}
	s := NewSynthesizer(model, nil)

	_, err := s.Synthesize(context.Background(), nil, "Will this fail?")
	if !errors.Is(err, ai.ErrSynthesis) {
		t.Fatalf("expected synthesis error to surface, got %v", err)
	}
}
