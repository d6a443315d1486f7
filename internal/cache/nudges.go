package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/todone/todone/internal/models"
)

// DefaultNudgeTTL is how long suggested nudges stay valid before the
// worker has to regenerate them.
const DefaultNudgeTTL = 10 * time.Minute

// NudgeCache stores AI-generated nudges per user in Redis so the suggest
// endpoint can serve them without calling the model on every request.
type NudgeCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewNudgeCache connects to Redis and verifies the connection.
func NewNudgeCache(redisURL string, ttl time.Duration) (*NudgeCache, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse Redis URL: %w", err)
	}

	client := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	if ttl <= 0 {
		ttl = DefaultNudgeTTL
	}

	return &NudgeCache{client: client, ttl: ttl}, nil
}

// NewNudgeCacheWithClient wraps an existing Redis client. Used when the
// server already holds a connection for rate limiting.
func NewNudgeCacheWithClient(client *redis.Client, ttl time.Duration) *NudgeCache {
	if ttl <= 0 {
		ttl = DefaultNudgeTTL
	}
	return &NudgeCache{client: client, ttl: ttl}
}

func nudgeKey(userID uuid.UUID) string {
	return fmt.Sprintf("nudges:%s", userID)
}

// Set replaces the cached nudges for a user.
func (c *NudgeCache) Set(ctx context.Context, userID uuid.UUID, nudges []models.Nudge) error {
	data, err := json.Marshal(nudges)
	if err != nil {
		return fmt.Errorf("failed to marshal nudges: %w", err)
	}

	if err := c.client.Set(ctx, nudgeKey(userID), data, c.ttl).Err(); err != nil {
		return fmt.Errorf("failed to cache nudges: %w", err)
	}
	return nil
}

// Get returns the cached nudges for a user. A cache miss returns
// (nil, false, nil) rather than an error.
func (c *NudgeCache) Get(ctx context.Context, userID uuid.UUID) ([]models.Nudge, bool, error) {
	data, err := c.client.Get(ctx, nudgeKey(userID)).Bytes()
	if err == redis.Nil {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("failed to read cached nudges: %w", err)
	}

	var nudges []models.Nudge
	if err := json.Unmarshal(data, &nudges); err != nil {
		return nil, false, fmt.Errorf("failed to unmarshal cached nudges: %w", err)
	}
	return nudges, true, nil
}

// Invalidate drops the cached nudges for a user, forcing the next
// refresh to regenerate them.
func (c *NudgeCache) Invalidate(ctx context.Context, userID uuid.UUID) error {
	return c.client.Del(ctx, nudgeKey(userID)).Err()
}

// Ping checks if Redis is reachable.
func (c *NudgeCache) Ping(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}

// Close closes the Redis connection.
func (c *NudgeCache) Close() error {
	return c.client.Close()
}
