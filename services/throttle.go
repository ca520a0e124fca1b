package services

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// CommentThrottle decides whether a client may post another comment.
type CommentThrottle interface {
	Allow(ctx context.Context, clientIP string) bool
}

// NoThrottle allows everything.
type NoThrottle struct{}

func (NoThrottle) Allow(context.Context, string) bool { return true }

// RedisThrottle counts submissions per client in fixed windows. Redis
// errors let the request through.
type RedisThrottle struct {
	logger zerolog.Logger
	client *redis.Client
	limit  int64
	window time.Duration
	prefix string
}

// NewRedisThrottle connects to redisURL and checks the connection.
func NewRedisThrottle(redisURL string, limit int, window time.Duration) (*RedisThrottle, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}

	client := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("connect to redis: %w", err)
	}

	return NewRedisThrottleWithClient(client, limit, window), nil
}

func NewRedisThrottleWithClient(client *redis.Client, limit int, window time.Duration) *RedisThrottle {
	return &RedisThrottle{
		logger: log.With().Str("service", "throttle").Logger(),
		client: client,
		limit:  int64(limit),
		window: window,
		prefix: "comments:",
	}
}

func (t *RedisThrottle) key(clientIP string) string {
	return t.prefix + clientIP
}

func (t *RedisThrottle) Allow(ctx context.Context, clientIP string) bool {
	if t.limit <= 0 {
		return true
	}

	// The window is set with the counter so a key can never outlive it.
	var incr *redis.IntCmd
	key := t.key(clientIP)
	_, err := t.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.SetNX(ctx, key, 0, t.window)
		incr = pipe.Incr(ctx, key)
		return nil
	})
	if err != nil {
		t.logger.Warn().Err(err).Msg("throttle check failed")
		return true
	}
	count := incr.Val()

	if count > t.limit {
		t.logger.Info().Str("client", clientIP).Int64("count", count).Msg("comment throttled")
		return false
	}
	return true
}

func (t *RedisThrottle) Close() error {
	return t.client.Close()
}
