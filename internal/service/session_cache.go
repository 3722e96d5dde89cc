package service

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/noah-isme/smart-attendance/internal/models"
)

const sessionCacheKey = "attendance:active_sessions"

// SessionCache keeps the student-facing active-session picker in Redis for
// a short TTL. A nil client disables caching entirely; every failure path
// degrades to a miss so the caller falls back to the database.
type SessionCache struct {
	client  *redis.Client
	ttl     time.Duration
	logger  *zap.Logger
	metrics *MetricsService
}

// NewSessionCache constructs the cache. client may be nil.
func NewSessionCache(client *redis.Client, ttl time.Duration, logger *zap.Logger, metrics *MetricsService) *SessionCache {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SessionCache{client: client, ttl: ttl, logger: logger, metrics: metrics}
}

// Get returns the cached session list, or ok=false on miss or error.
func (c *SessionCache) Get(ctx context.Context) ([]models.ActiveSession, bool) {
	if c == nil || c.client == nil {
		return nil, false
	}
	start := time.Now()
	raw, err := c.client.Get(ctx, sessionCacheKey).Bytes()
	if err != nil {
		if err != redis.Nil {
			c.logger.Warn("session cache read failed", zap.Error(err))
		}
		c.metrics.RecordCacheOperation(false, time.Since(start))
		return nil, false
	}
	var sessions []models.ActiveSession
	if err := json.Unmarshal(raw, &sessions); err != nil {
		c.logger.Warn("session cache payload corrupt", zap.Error(err))
		c.metrics.RecordCacheOperation(false, time.Since(start))
		return nil, false
	}
	c.metrics.RecordCacheOperation(true, time.Since(start))
	return sessions, true
}

// Set stores the session list best-effort.
func (c *SessionCache) Set(ctx context.Context, sessions []models.ActiveSession) {
	if c == nil || c.client == nil {
		return
	}
	raw, err := json.Marshal(sessions)
	if err != nil {
		return
	}
	start := time.Now()
	if err := c.client.Set(ctx, sessionCacheKey, raw, c.ttl).Err(); err != nil {
		c.logger.Warn("session cache write failed", zap.Error(err))
		return
	}
	c.metrics.ObserveCacheWrite(time.Since(start))
}

// Invalidate drops the cached list, called after a new code is issued.
func (c *SessionCache) Invalidate(ctx context.Context) {
	if c == nil || c.client == nil {
		return
	}
	if err := c.client.Del(ctx, sessionCacheKey).Err(); err != nil {
		c.logger.Warn("session cache invalidate failed", zap.Error(err))
	}
}
