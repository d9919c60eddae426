package redis

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/BloodCharry/PolicyMesh/internal/core/port"
)

// LoginAttemptRepository keeps one sorted set per client key, scored by the
// attempt's UnixNano timestamp. WindowState trims the set first, so every
// member left afterwards is inside the active window.
type LoginAttemptRepository struct {
	client    *redis.Client
	keyPrefix string
	ttl       time.Duration
}

// NewLoginAttemptRepository constructs the repository. ttl caps how long an
// idle key survives; it should exceed the throttle window.
func NewLoginAttemptRepository(client *redis.Client, keyPrefix string, ttl time.Duration) *LoginAttemptRepository {
	return &LoginAttemptRepository{client: client, keyPrefix: keyPrefix, ttl: ttl}
}

// RecordAttempt registers one attempt for the client key.
func (r *LoginAttemptRepository) RecordAttempt(ctx context.Context, clientKey string, at time.Time) error {
	key := r.key(clientKey)
	score := at.UnixNano()

	pipe := r.client.TxPipeline()
	pipe.ZAdd(ctx, key, redis.Z{Score: float64(score), Member: score})
	if r.ttl > 0 {
		pipe.Expire(ctx, key, r.ttl)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("record login attempt: %w", err)
	}
	return nil
}

// WindowState trims expired attempts, then reports the surviving count and
// the oldest surviving timestamp.
func (r *LoginAttemptRepository) WindowState(ctx context.Context, clientKey string, window time.Duration, now time.Time) (int, time.Time, error) {
	if window <= 0 {
		return 0, time.Time{}, fmt.Errorf("window must be positive, got %v", window)
	}

	key := r.key(clientKey)
	cutoff := strconv.FormatInt(now.Add(-window).UnixNano(), 10)

	if err := r.client.ZRemRangeByScore(ctx, key, "-inf", cutoff).Err(); err != nil {
		return 0, time.Time{}, fmt.Errorf("trim login attempts: %w", err)
	}

	oldest, err := r.client.ZRangeWithScores(ctx, key, 0, 0).Result()
	if err != nil {
		return 0, time.Time{}, fmt.Errorf("read oldest login attempt: %w", err)
	}
	if len(oldest) == 0 {
		return 0, time.Time{}, nil
	}

	count, err := r.client.ZCard(ctx, key).Result()
	if err != nil {
		return 0, time.Time{}, fmt.Errorf("count login attempts: %w", err)
	}

	return int(count), time.Unix(0, int64(oldest[0].Score)), nil
}

func (r *LoginAttemptRepository) key(clientKey string) string {
	if r.keyPrefix == "" {
		return clientKey
	}
	return r.keyPrefix + ":" + clientKey
}

var _ port.LoginAttemptStore = (*LoginAttemptRepository)(nil)
