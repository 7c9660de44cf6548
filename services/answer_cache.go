package services

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"time"

	"document-chat-service/internal/logger"

	"github.com/redis/go-redis/v9"
)

// AnswerCache caches synthesized answers per document and question so
// repeated questions skip the embedding, retrieval and generation calls.
// Redis failures are non-fatal: a broken cache degrades to cache misses.
type AnswerCache struct {
	rdb *redis.Client
	ttl time.Duration
}

func NewAnswerCache(rdb *redis.Client, ttl time.Duration) *AnswerCache {
	return &AnswerCache{
		rdb: rdb,
		ttl: ttl,
	}
}

func (c *AnswerCache) Get(ctx context.Context, document, question string) (string, bool) {
	if c == nil || c.rdb == nil {
		return "", false
	}

	answer, err := c.rdb.Get(ctx, cacheKey(document, question)).Result()
	if err == redis.Nil {
		return "", false
	}
	if err != nil {
		logger.Debug("answer cache read failed", "document", document, "error", err)
		return "", false
	}
	return answer, true
}

func (c *AnswerCache) Set(ctx context.Context, document, question, answer string) {
	if c == nil || c.rdb == nil {
		return
	}

	if err := c.rdb.Set(ctx, cacheKey(document, question), answer, c.ttl).Err(); err != nil {
		logger.Debug("answer cache write failed", "document", document, "error", err)
	}
}

func cacheKey(document, question string) string {
	sum := sha256.Sum256([]byte(question))
	return "answer:" + document + ":" + hex.EncodeToString(sum[:])
}
