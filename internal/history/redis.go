package history

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// Connect parses a redis:// URL and verifies the server is reachable.
func Connect(ctx context.Context, url string) (*redis.Client, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parse redis URL: %w", err)
	}
	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("redis ping failed: %w", err)
	}
	return client, nil
}

// RedisStore keeps each visitor's history in a capped list that expires
// after ttl of inactivity.
type RedisStore struct {
	client redis.Cmdable
	limit  int
	ttl    time.Duration
}

func NewRedisStore(client redis.Cmdable, limit int, ttl time.Duration) *RedisStore {
	if limit <= 0 {
		limit = 10
	}
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &RedisStore{client: client, limit: limit, ttl: ttl}
}

func key(visitor string) string {
	return "govhub:history:" + visitor
}

func (s *RedisStore) Add(ctx context.Context, visitor string, e Entry) error {
	if e.empty() {
		return nil
	}
	val, err := e.encode()
	if err != nil {
		return err
	}
	k := key(visitor)
	_, err = s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.LRem(ctx, k, 0, val)
		pipe.LPush(ctx, k, val)
		pipe.LTrim(ctx, k, 0, int64(s.limit-1))
		pipe.Expire(ctx, k, s.ttl)
		return nil
	})
	return err
}

func (s *RedisStore) List(ctx context.Context, visitor string) ([]Entry, error) {
	vals, err := s.client.LRange(ctx, key(visitor), 0, -1).Result()
	if err != nil {
		return nil, err
	}
	out := make([]Entry, 0, len(vals))
	for _, v := range vals {
		if e, ok := decode(v); ok {
			out = append(out, e)
		}
	}
	return out, nil
}

func (s *RedisStore) Clear(ctx context.Context, visitor string) error {
	return s.client.Del(ctx, key(visitor)).Err()
}
