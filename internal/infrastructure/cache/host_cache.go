package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/jhoicas/tenancy-gateway/pkg/config"
)

const hostKeyPrefix = "tenant:host:"

// HostCache cache host -> tenant id sobre Redis.
type HostCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisClient abre el cliente y comprueba la conexión.
func NewRedisClient(ctx context.Context, cfg config.RedisConfig) (*redis.Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}
	return rdb, nil
}

// NewHostCache construye la cache. ttl <= 0 usa 30 minutos.
func NewHostCache(client *redis.Client, ttl time.Duration) *HostCache {
	if ttl <= 0 {
		ttl = 30 * time.Minute
	}
	return &HostCache{client: client, ttl: ttl}
}

// Get devuelve el tenant cacheado para host.
func (c *HostCache) Get(ctx context.Context, host string) (string, bool, error) {
	id, err := c.client.Get(ctx, hostKeyPrefix+host).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("redis get %s: %w", host, err)
	}
	return id, true, nil
}

// Set guarda host -> tenantID con el TTL configurado.
func (c *HostCache) Set(ctx context.Context, host, tenantID string) error {
	if err := c.client.Set(ctx, hostKeyPrefix+host, tenantID, c.ttl).Err(); err != nil {
		return fmt.Errorf("redis set %s: %w", host, err)
	}
	return nil
}

// Invalidate elimina las entradas de los hosts indicados (vacíos se ignoran).
func (c *HostCache) Invalidate(ctx context.Context, hosts ...string) error {
	keys := make([]string, 0, len(hosts))
	for _, h := range hosts {
		if h != "" {
			keys = append(keys, hostKeyPrefix+h)
		}
	}
	if len(keys) == 0 {
		return nil
	}
	if err := c.client.Del(ctx, keys...).Err(); err != nil {
		return fmt.Errorf("redis del: %w", err)
	}
	return nil
}
