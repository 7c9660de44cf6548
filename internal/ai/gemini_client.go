package ai

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"sync"
	"time"

	"github.com/sony/gobreaker"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"golang.org/x/time/rate"
	"google.golang.org/api/option"

	genai "github.com/google/generative-ai-go/genai"
)

// ErrSynthesis marks failures of the generation model call.
var ErrSynthesis = errors.New("answer synthesis failed")

// NoAnswerFallback is the verbatim reply the model is instructed to give
// when the retrieved context does not contain the answer.
const NoAnswerFallback = "answer is not available in the context"

// answerTemperature keeps answers determinism-leaning and non-creative.
const answerTemperature = 0.3

type GeminiClient struct {
	breaker     *gobreaker.CircuitBreaker
	rateLimiter *rate.Limiter
	requests    *RequestCounter
	client      *genai.Client
	model       string
}

// RequestCounter tracks per-minute and per-day request budgets locally
// so quota errors are caught before the network call.
type RequestCounter struct {
	mu              sync.Mutex
	minuteRequests  int
	dailyRequests   int
	lastMinuteReset time.Time
	lastDayReset    time.Time
	limits          RateLimits
}

type RateLimits struct {
	RPM int // Requests per minute
	RPD int // Requests per day
}

func NewGeminiClient(apiKey, model, tier string) (*GeminiClient, error) {
	ctx := context.Background()
	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, err
	}

	limits := getRateLimits(tier)

	breaker := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "GeminiAPI",
		MaxRequests: 5,
		Interval:    10 * time.Second,
		Timeout:     60 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
			return counts.Requests >= 3 && failureRatio >= 0.6
		},
		OnStateChange: func(name string, from gobreaker.State, to gobreaker.State) {
			log.Printf("Circuit breaker %s: %s -> %s", name, from, to)
		},
	})

	// RPM limit with some buffer
	rateLimiter := rate.NewLimiter(rate.Limit(float64(limits.RPM)*0.9/60.0), limits.RPM/10)

	return &GeminiClient{
		breaker:     breaker,
		rateLimiter: rateLimiter,
		requests:    &RequestCounter{limits: limits},
		client:      client,
		model:       model,
	}, nil
}

func getRateLimits(tier string) RateLimits {
	switch tier {
	case "free":
		return RateLimits{RPM: 10, RPD: 250}
	case "tier1":
		return RateLimits{RPM: 1000, RPD: 10000}
	case "tier2":
		return RateLimits{RPM: 2000, RPD: 50000}
	default:
		return RateLimits{RPM: 10, RPD: 250}
	}
}

// Answer asks the generation model the question against the retrieved
// context chunks and returns the answer text verbatim, plus the token
// count the call consumed. One call, no retry.
func (gc *GeminiClient) Answer(ctx context.Context, contextChunks []string, question string) (string, int, error) {
	tracer := otel.Tracer("gemini-client")
	ctx, span := tracer.Start(ctx, "gemini.answer")
	defer span.End()

	span.SetAttributes(
		attribute.Int("gemini.context_chunks", len(contextChunks)),
		attribute.String("gemini.model", gc.model),
	)

	if !gc.requests.CanConsume(1) {
		span.SetAttributes(attribute.Bool("gemini.rate_limited", true))
		return "", 0, fmt.Errorf("%w: request budget exceeded, wait before retry", ErrSynthesis)
	}

	if err := gc.rateLimiter.Wait(ctx); err != nil {
		span.SetAttributes(attribute.Bool("gemini.rate_limited", true))
		return "", 0, fmt.Errorf("%w: %v", ErrSynthesis, err)
	}

	prompt := BuildAnswerPrompt(contextChunks, question)

	result, err := gc.breaker.Execute(func() (interface{}, error) {
		model := gc.client.GenerativeModel(gc.model)
		model.SetTemperature(answerTemperature)
		model.SetMaxOutputTokens(2048)

		resp, err := model.GenerateContent(ctx, genai.Text(prompt))
		if err != nil {
			return nil, err
		}

		gc.requests.RecordUsage(1)
		return resp, nil
	})
	if err != nil {
		span.SetAttributes(attribute.Bool("gemini.error", true))
		if err == gobreaker.ErrOpenState {
			span.SetAttributes(attribute.Bool("gemini.circuit_breaker_open", true))
		}
		return "", 0, fmt.Errorf("%w: %v", ErrSynthesis, err)
	}

	resp := result.(*genai.GenerateContentResponse)
	answer := extractResponseText(resp)
	if answer == "" {
		return "", 0, fmt.Errorf("%w: empty model response", ErrSynthesis)
	}

	tokens := TokenUsage(resp)
	span.SetAttributes(
		attribute.Bool("gemini.success", true),
		attribute.Int("gemini.tokens", tokens),
	)
	return answer, tokens, nil
}

// TokenUsage reports the token count of the last response when the
// provider returns usage metadata, estimating from length otherwise.
func TokenUsage(resp *genai.GenerateContentResponse) int {
	if resp.UsageMetadata != nil {
		return int(resp.UsageMetadata.TotalTokenCount)
	}

	// Average is ~4 characters per token for Gemini
	totalText := ""
	for _, candidate := range resp.Candidates {
		if candidate.Content != nil {
			for _, part := range candidate.Content.Parts {
				if text, ok := part.(genai.Text); ok {
					totalText += string(text)
				}
			}
		}
	}

	estimated := len(totalText) / 4
	if estimated < 1 {
		estimated = 1
	}
	return estimated
}

func (rc *RequestCounter) CanConsume(requests int) bool {
	rc.mu.Lock()
	defer rc.mu.Unlock()

	now := time.Now()

	if now.Sub(rc.lastMinuteReset) >= time.Minute {
		rc.minuteRequests = 0
		rc.lastMinuteReset = now
	}

	if now.Sub(rc.lastDayReset) >= 24*time.Hour {
		rc.dailyRequests = 0
		rc.lastDayReset = now
	}

	if rc.minuteRequests+requests > rc.limits.RPM {
		return false
	}
	if rc.dailyRequests+requests > rc.limits.RPD {
		return false
	}

	return true
}

func (rc *RequestCounter) RecordUsage(requests int) {
	rc.mu.Lock()
	defer rc.mu.Unlock()

	rc.minuteRequests += requests
	rc.dailyRequests += requests
}

// BuildAnswerPrompt formats the fixed instruction the synthesizer uses:
// answer from the provided context only, with a literal fallback when
// the context does not contain the answer.
func BuildAnswerPrompt(contextChunks []string, question string) string {
	var b strings.Builder

	b.WriteString("Answer the question as detailed as possible from the provided context. ")
	b.WriteString(fmt.Sprintf("If the answer is not in the provided context, say '%s'.\n\n", NoAnswerFallback))
	b.WriteString("Context:\n")
	for _, chunk := range contextChunks {
		b.WriteString(chunk)
		b.WriteString("\n")
	}
	b.WriteString("\nQuestion:\n")
	b.WriteString(question)
	b.WriteString("\n\nAnswer:\n")

	return b.String()
}

func extractResponseText(resp *genai.GenerateContentResponse) string {
	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return ""
	}

	var b strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if text, ok := part.(genai.Text); ok {
			b.WriteString(string(text))
		}
	}
	return b.String()
}

// Model reports the generation model identifier.
func (gc *GeminiClient) Model() string {
	return gc.model
}

// Close the client
func (gc *GeminiClient) Close() error {
	if gc.client != nil {
		return gc.client.Close()
	}
	return nil
}
