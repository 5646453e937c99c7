package auth

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"time"

	"ask-api/internal/metrics"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// CachedVerifier remembers successful verifications in redis so repeated
// requests with the same token skip the provider. Rejections are not cached.
type CachedVerifier struct {
	next  Verifier
	redis *redis.Client
	ttl   time.Duration
	log   *zap.SugaredLogger
}

func NewCachedVerifier(next Verifier, redisClient *redis.Client, ttl time.Duration, log *zap.SugaredLogger) *CachedVerifier {
	return &CachedVerifier{next: next, redis: redisClient, ttl: ttl, log: log}
}

func tokenCacheKey(token string) string {
	sum := sha256.Sum256([]byte(token))
	return "v1:idtoken:" + hex.EncodeToString(sum[:])
}

func (c *CachedVerifier) Verify(ctx context.Context, token string) (string, error) {
	key := tokenCacheKey(token)
	uid, err := c.redis.Get(ctx, key).Result()
	switch {
	case err == nil && uid != "":
		metrics.VerifyCache.WithLabelValues("hit").Inc()
		return uid, nil
	case err != nil && !errors.Is(err, redis.Nil):
		c.log.Warnw("Verified token cache lookup failed", "error", err)
	}
	metrics.VerifyCache.WithLabelValues("miss").Inc()

	uid, err = c.next.Verify(ctx, token)
	if err != nil {
		return "", err
	}
	go func() {
		setCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), time.Second)
		defer cancel()
		if err := c.redis.Set(setCtx, key, uid, c.ttl).Err(); err != nil {
			c.log.Warnw("Failed caching verified token", "error", err)
		}
	}()
	return uid, nil
}
