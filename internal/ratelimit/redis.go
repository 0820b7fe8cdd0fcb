package ratelimit

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// RedisStore keeps each window as a sorted set scored by attempt time in
// microseconds, so several server instances share one view of the window.
// Reads and writes are separate round trips; two concurrent attempts on the
// same key may both pass.
type RedisStore struct {
	client redis.UniversalClient
}

// NewRedisStore creates a RedisStore backed by the given client.
func NewRedisStore(client redis.UniversalClient) *RedisStore {
	return &RedisStore{client: client}
}

var _ Store = (*RedisStore)(nil)

func (s *RedisStore) Attempts(ctx context.Context, key string, since time.Time) ([]time.Time, error) {
	cutoff := strconv.FormatInt(since.UnixMicro(), 10)
	if err := s.client.ZRemRangeByScore(ctx, key, "-inf", cutoff).Err(); err != nil {
		return nil, fmt.Errorf("redis ZREMRANGEBYSCORE %s: %w", key, err)
	}

	zs, err := s.client.ZRangeWithScores(ctx, key, 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("redis ZRANGE %s: %w", key, err)
	}

	out := make([]time.Time, 0, len(zs))
	for _, z := range zs {
		out = append(out, time.UnixMicro(int64(z.Score)))
	}
	return out, nil
}

func (s *RedisStore) Record(ctx context.Context, key string, at time.Time, ttl time.Duration) error {
	// Members must be unique or two attempts in the same microsecond collapse.
	member := strconv.FormatInt(at.UnixMicro(), 10) + "-" + uuid.NewString()

	pipe := s.client.TxPipeline()
	pipe.ZAdd(ctx, key, redis.Z{Score: float64(at.UnixMicro()), Member: member})
	pipe.Expire(ctx, key, ttl)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("redis record %s: %w", key, err)
	}
	return nil
}

// Ping checks the Redis connection.
func (s *RedisStore) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}
