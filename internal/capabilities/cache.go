// internal/capabilities/cache.go
package capabilities

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"time"

	"loan-decision-pipeline/internal/common/database"
	"loan-decision-pipeline/internal/common/logger"
	"loan-decision-pipeline/internal/models"
)

// CachedClassifiers wraps the three message-level classifiers with a
// read-through Redis cache keyed by message hash. The same customer message
// often arrives repeatedly within a session, and classifier output for a
// fixed text is stable. A Redis outage degrades to passthrough.
type CachedClassifiers struct {
	intent    IntentClassifier
	emotion   EmotionAnalyzer
	sentiment SentimentClassifier
	redis     *database.RedisClient
	ttl       time.Duration
	logger    logger.Logger
}

func NewCachedClassifiers(
	intent IntentClassifier,
	emotion EmotionAnalyzer,
	sentiment SentimentClassifier,
	redis *database.RedisClient,
	ttlSeconds int,
	log logger.Logger,
) *CachedClassifiers {
	return &CachedClassifiers{
		intent:    intent,
		emotion:   emotion,
		sentiment: sentiment,
		redis:     redis,
		ttl:       time.Duration(ttlSeconds) * time.Second,
		logger:    log.WithFields(map[string]interface{}{"component": "classifier-cache"}),
	}
}

func cacheKey(kind, text string) string {
	sum := sha256.Sum256([]byte(text))
	return "signal:" + kind + ":" + hex.EncodeToString(sum[:])
}

func (c *CachedClassifiers) ClassifyIntent(ctx context.Context, text string) (models.IntentResult, error) {
	var out models.IntentResult
	if c.lookup(ctx, cacheKey("intent", text), &out) {
		return out, nil
	}
	out, err := c.intent.ClassifyIntent(ctx, text)
	if err != nil {
		return out, err
	}
	c.store(ctx, cacheKey("intent", text), out)
	return out, nil
}

func (c *CachedClassifiers) AnalyzeEmotion(ctx context.Context, text string) (models.EmotionResult, error) {
	var out models.EmotionResult
	if c.lookup(ctx, cacheKey("emotion", text), &out) {
		return out, nil
	}
	out, err := c.emotion.AnalyzeEmotion(ctx, text)
	if err != nil {
		return out, err
	}
	c.store(ctx, cacheKey("emotion", text), out)
	return out, nil
}

func (c *CachedClassifiers) ClassifySentiment(ctx context.Context, text string) (models.SentimentResult, error) {
	var out models.SentimentResult
	if c.lookup(ctx, cacheKey("sentiment", text), &out) {
		return out, nil
	}
	out, err := c.sentiment.ClassifySentiment(ctx, text)
	if err != nil {
		return out, err
	}
	c.store(ctx, cacheKey("sentiment", text), out)
	return out, nil
}

// lookup returns true only on a clean cache hit. Redis errors and decode
// failures count as misses.
func (c *CachedClassifiers) lookup(ctx context.Context, key string, out interface{}) bool {
	if c.redis == nil {
		return false
	}
	val, err := c.redis.Get(ctx, key)
	if err != nil {
		return false
	}
	if err := json.Unmarshal([]byte(val), out); err != nil {
		c.logger.Warn("discarding corrupt cache entry", map[string]interface{}{"key": key})
		return false
	}
	return true
}

func (c *CachedClassifiers) store(ctx context.Context, key string, value interface{}) {
	if c.redis == nil {
		return
	}
	encoded, err := json.Marshal(value)
	if err != nil {
		return
	}
	if err := c.redis.Set(ctx, key, string(encoded), c.ttl); err != nil {
		c.logger.Warn("cache write failed", map[string]interface{}{"key": key})
	}
}
