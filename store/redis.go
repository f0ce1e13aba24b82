package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const defaultRedisDialTimeout = 3 * time.Second

// RedisConfig 定义 Redis 后端的连接参数。
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
	// Prefix 为所有键追加的命名空间前缀，便于与其它业务共享实例。
	Prefix string
	// TTL 为持久条目的过期时间，0 表示永不过期。
	// 守护层自行判断新鲜度，这里的过期只用于控制存储占用。
	TTL time.Duration
}

// Redis 基于 go-redis 实现持久存储，适用于多实例托管部署。
type Redis struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
}

// NewRedis 建立连接并做一次连通性探测。
func NewRedis(cfg RedisConfig) (*Redis, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), defaultRedisDialTimeout)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("ping redis %s: %w", cfg.Addr, err)
	}

	return &Redis{
		client: client,
		prefix: cfg.Prefix,
		ttl:    cfg.TTL,
	}, nil
}

func (r *Redis) key(key string) string {
	if r.prefix == "" {
		return key
	}
	return r.prefix + ":" + key
}

// Get 读取指定键。
func (r *Redis) Get(ctx context.Context, key string) ([]byte, error) {
	raw, err := r.client.Get(ctx, r.key(key)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return raw, nil
}

// Set 写入指定键。
func (r *Redis) Set(ctx context.Context, key string, value []byte) error {
	return r.client.Set(ctx, r.key(key), value, r.ttl).Err()
}

// Delete 删除一个或多个键。
func (r *Redis) Delete(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	full := make([]string, len(keys))
	for i, key := range keys {
		full[i] = r.key(key)
	}
	return r.client.Del(ctx, full...).Err()
}

// Close 关闭客户端连接。
func (r *Redis) Close() error {
	return r.client.Close()
}
