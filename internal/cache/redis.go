package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"

	"github.com/Skotchmaster/contacts_api/internal/models"
)

// Redis stores user snapshots as JSON under "user:<username>" with a per-key TTL.
type Redis struct {
	client     *redis.Client
	defaultTTL time.Duration
}

func NewRedis(ctx context.Context, url string, defaultTTL time.Duration) (*Redis, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("invalid redis URL: %w", err)
	}
	opts.DialTimeout = 5 * time.Second
	opts.ReadTimeout = 3 * time.Second
	opts.WriteTimeout = 3 * time.Second
	opts.PoolTimeout = 4 * time.Second

	client := redis.NewClient(opts)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	return &Redis{client: client, defaultTTL: defaultTTL}, nil
}

func (r *Redis) Get(ctx context.Context, username string) (*models.User, error) {
	key := userKey(username)

	data, err := r.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	} else if err != nil {
		return nil, fmt.Errorf("redis get failed: %w", err)
	}

	var u models.User
	if err := json.Unmarshal(data, &u); err != nil {
		r.client.Del(ctx, key)
		return nil, fmt.Errorf("failed to unmarshal user: %w", err)
	}
	return &u, nil
}

func (r *Redis) Set(ctx context.Context, username string, user *models.User, ttl time.Duration) error {
	if user == nil {
		return errors.New("cache: nil user")
	}
	if ttl <= 0 {
		ttl = r.defaultTTL
	}
	data, err := json.Marshal(snapshot(user))
	if err != nil {
		return fmt.Errorf("failed to marshal user: %w", err)
	}
	return r.client.Set(ctx, userKey(username), data, ttl).Err()
}

func (r *Redis) Delete(ctx context.Context, username string) error {
	return r.client.Del(ctx, userKey(username)).Err()
}

func (r *Redis) Close() error {
	return r.client.Close()
}
