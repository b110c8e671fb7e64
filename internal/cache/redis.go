package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/user/route-optimizer-api/internal/config"
)

// keyPrefix отделяет ключи сервиса от прочих данных в Redis
const keyPrefix = "route-optimizer:"

// Redis - JSON-кэш поверх Redis
type Redis struct {
	client *redis.Client
}

// NewRedis создаёт клиент Redis
func NewRedis(cfg config.RedisConfig) *Redis {
	return &Redis{client: redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
		Protocol: 2,
	})}
}

// NewRedisWithClient оборачивает готовый клиент
func NewRedisWithClient(client *redis.Client) *Redis {
	return &Redis{client: client}
}

// Ping проверяет соединение
func (r *Redis) Ping(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}

// Get читает значение в dest. false - ключа нет.
func (r *Redis) Get(ctx context.Context, key string, dest any) (bool, error) {
	raw, err := r.client.Get(ctx, keyPrefix+key).Bytes()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("чтение %s из кэша: %w", key, err)
	}
	if err := json.Unmarshal(raw, dest); err != nil {
		return false, fmt.Errorf("разбор %s из кэша: %w", key, err)
	}
	return true, nil
}

// Set сохраняет значение с TTL (0 - без срока)
func (r *Redis) Set(ctx context.Context, key string, value any, ttl time.Duration) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("сериализация %s: %w", key, err)
	}
	return r.client.Set(ctx, keyPrefix+key, raw, ttl).Err()
}

// Delete удаляет ключ
func (r *Redis) Delete(ctx context.Context, key string) error {
	return r.client.Del(ctx, keyPrefix+key).Err()
}

// Close закрывает соединение
func (r *Redis) Close() error {
	return r.client.Close()
}
