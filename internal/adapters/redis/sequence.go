// Package redis provides a store-backed invoice sequence shared by every
// process pointed at the same Redis database.
package redis

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/redis/go-redis/v9"
)

type Sequence struct {
	client *redis.Client
	key    string
}

func NewSequence(client *redis.Client, key string) *Sequence {
	return &Sequence{client: client, key: key}
}

// Next atomically increments the counter at the sequence key.
func (s *Sequence) Next(ctx context.Context) (int64, error) {
	n, err := s.client.Incr(ctx, s.key).Result()
	if err != nil {
		return 0, fmt.Errorf("incr %s: %w", s.key, err)
	}
	return n, nil
}

// Connect opens a client and checks it with PING.
func Connect(ctx context.Context, addr, password string, db int, logger *slog.Logger) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	pong, err := client.Ping(ctx).Result()
	if err != nil {
		_ = client.Close()
		logger.Error("failed to connect to redis", "addr", addr, "error", err)
		return nil, fmt.Errorf("ping redis at %s: %w", addr, err)
	}

	logger.Info("connected to redis", "addr", addr, "db", db, "reply", pong)
	return client, nil
}
