package cache

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/wasel-app/wasel/config"
	"github.com/wasel-app/wasel/internal/domain"
)

// RedisCache keeps a short-lived copy of the open general-request pool so
// every carrier browsing the marketplace does not hit the database.
type RedisCache struct {
	client          *redis.Client
	openRequestsTTL time.Duration
}

func NewRedisCache(cfg config.RedisConfig, openRequestsTTL time.Duration) *RedisCache {
	return &RedisCache{
		client:          redis.NewClient(&redis.Options{Addr: cfg.Addr, Password: cfg.Password, DB: cfg.DB}),
		openRequestsTTL: openRequestsTTL,
	}
}

func (c *RedisCache) GetOpenRequests(ctx context.Context) ([]domain.Trip, error) {
	data, err := c.client.Get(ctx, openRequestsKey()).Bytes()
	if err != nil {
		if err == redis.Nil {
			return nil, nil
		}
		return nil, err
	}

	var trips []domain.Trip
	if err := json.Unmarshal(data, &trips); err != nil {
		return nil, err
	}
	return trips, nil
}

func (c *RedisCache) SetOpenRequests(ctx context.Context, trips []domain.Trip) error {
	payload, err := json.Marshal(trips)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, openRequestsKey(), payload, c.openRequestsTTL).Err()
}

// InvalidateOpenRequests drops the pool copy after a request is created,
// priced, or cancelled.
func (c *RedisCache) InvalidateOpenRequests(ctx context.Context) error {
	return c.client.Del(ctx, openRequestsKey()).Err()
}

func openRequestsKey() string {
	return "cache:open_requests"
}
