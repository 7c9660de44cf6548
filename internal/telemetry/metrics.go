package telemetry

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// Metrics holds all application metrics
type Metrics struct {
	DocumentsIndexed    metric.Int64Counter
	ChunksUpserted      metric.Int64Counter
	QuestionsAnswered   metric.Int64Counter
	QuestionsRejected   metric.Int64Counter
	VectorQueryDuration metric.Float64Histogram
	TokensUsed          metric.Int64Counter
}

// InitMetrics initializes all application metrics
func InitMetrics() (*Metrics, error) {
	meter := otel.Meter("document-chat-service")

	documentsIndexed, err := meter.Int64Counter(
		"documents.indexed.total",
		metric.WithDescription("Total documents indexed"),
	)
	if err != nil {
		return nil, err
	}

	chunksUpserted, err := meter.Int64Counter(
		"chunks.upserted.total",
		metric.WithDescription("Total chunk vectors upserted"),
	)
	if err != nil {
		return nil, err
	}

	questionsAnswered, err := meter.Int64Counter(
		"questions.answered.total",
		metric.WithDescription("Total questions answered"),
	)
	if err != nil {
		return nil, err
	}

	questionsRejected, err := meter.Int64Counter(
		"questions.rejected.total",
		metric.WithDescription("Questions rejected by validation"),
	)
	if err != nil {
		return nil, err
	}

	vectorQueryDuration, err := meter.Float64Histogram(
		"vectorstore.query.duration",
		metric.WithDescription("Vector store query duration in seconds"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, err
	}

	tokensUsed, err := meter.Int64Counter(
		"gemini.tokens.used",
		metric.WithDescription("Total Gemini tokens used"),
	)
	if err != nil {
		return nil, err
	}

	return &Metrics{
		DocumentsIndexed:    documentsIndexed,
		ChunksUpserted:      chunksUpserted,
		QuestionsAnswered:   questionsAnswered,
		QuestionsRejected:   questionsRejected,
		VectorQueryDuration: vectorQueryDuration,
		TokensUsed:          tokensUsed,
	}, nil
}

// RecordIndexing records a completed document indexing run
func (m *Metrics) RecordIndexing(document string, chunks int) {
	attrs := []attribute.KeyValue{
		attribute.String("document.name", document),
	}

	m.DocumentsIndexed.Add(context.Background(), 1, metric.WithAttributes(attrs...))
	m.ChunksUpserted.Add(context.Background(), int64(chunks), metric.WithAttributes(attrs...))
}

// RecordQuestion records the outcome of a question
func (m *Metrics) RecordQuestion(document string, rejected bool) {
	attrs := []attribute.KeyValue{
		attribute.String("document.name", document),
	}

	if rejected {
		m.QuestionsRejected.Add(context.Background(), 1, metric.WithAttributes(attrs...))
		return
	}
	m.QuestionsAnswered.Add(context.Background(), 1, metric.WithAttributes(attrs...))
}

// RecordVectorQuery records a vector store query duration
func (m *Metrics) RecordVectorQuery(duration float64, matches int) {
	attrs := []attribute.KeyValue{
		attribute.Int("vectorstore.matches", matches),
	}

	m.VectorQueryDuration.Record(context.Background(), duration, metric.WithAttributes(attrs...))
}

// RecordTokensUsed records Gemini token usage
func (m *Metrics) RecordTokensUsed(tokens int64, model string) {
	attrs := []attribute.KeyValue{
		attribute.String("gemini.model", model),
	}

	m.TokensUsed.Add(context.Background(), tokens, metric.WithAttributes(attrs...))
}
