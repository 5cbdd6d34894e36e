package store

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/miguelusque/NVTabular/core"
)

// RedisStore 是 Redis 实现的 Store。
// 词表以 Hash 保存（key = 词表名，field = 类别值，value = id），多个 worker 可共享。
type RedisStore struct {
	client *redis.Client
}

// RedisOption 调整 redis.Options
type RedisOption func(*redis.Options)

// WithRedisPassword 设置密码
func WithRedisPassword(password string) RedisOption {
	return func(o *redis.Options) {
		o.Password = password
	}
}

// WithRedisPoolSize 设置连接池大小
func WithRedisPoolSize(n int) RedisOption {
	return func(o *redis.Options) {
		if n > 0 {
			o.PoolSize = n
		}
	}
}

func NewRedisStore(addr string, db int, opts ...RedisOption) (*RedisStore, error) {
	options := &redis.Options{
		Addr: addr,
		DB:   db,
	}
	for _, opt := range opts {
		opt(options)
	}
	client := redis.NewClient(options)
	if err := client.Ping(context.Background()).Err(); err != nil {
		_ = client.Close()
		return nil, core.Errorf(core.ModuleStore, core.ErrorCodeUnavailable, "store: redis ping %s: %v", addr, err)
	}
	return &RedisStore{client: client}, nil
}

func (r *RedisStore) Name() string { return "redis" }

func (r *RedisStore) Get(ctx context.Context, key string) ([]byte, error) {
	val, err := r.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, core.ErrStoreNotFound
	}
	return val, err
}

func (r *RedisStore) Set(ctx context.Context, key string, value []byte, ttl ...int) error {
	return r.client.Set(ctx, key, value, expiration(ttl)).Err()
}

// Delete 删除 key；Redis 中 Hash 与字符串共用键空间，一次 DEL 即可
func (r *RedisStore) Delete(ctx context.Context, key string) error {
	return r.client.Del(ctx, key).Err()
}

func (r *RedisStore) BatchGet(ctx context.Context, keys []string) (map[string][]byte, error) {
	if len(keys) == 0 {
		return make(map[string][]byte), nil
	}

	vals, err := r.client.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, err
	}

	result := make(map[string][]byte, len(keys))
	for i, k := range keys {
		if s, ok := vals[i].(string); ok {
			result[k] = []byte(s)
		}
	}
	return result, nil
}

func (r *RedisStore) BatchSet(ctx context.Context, kvs map[string][]byte, ttl ...int) error {
	if len(kvs) == 0 {
		return nil
	}
	exp := expiration(ttl)
	pipe := r.client.Pipeline()
	for k, v := range kvs {
		pipe.Set(ctx, k, v, exp)
	}
	_, err := pipe.Exec(ctx)
	return err
}

func (r *RedisStore) HGet(ctx context.Context, key, field string) ([]byte, error) {
	val, err := r.client.HGet(ctx, key, field).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, core.ErrStoreNotFound
	}
	return val, err
}

func (r *RedisStore) HSet(ctx context.Context, key, field string, value []byte) error {
	return r.client.HSet(ctx, key, field, value).Err()
}

func (r *RedisStore) HSetAll(ctx context.Context, key string, fields map[string][]byte) error {
	if len(fields) == 0 {
		return nil
	}
	args := make([]any, 0, 2*len(fields))
	for f, v := range fields {
		args = append(args, f, v)
	}
	return r.client.HSet(ctx, key, args...).Err()
}

func (r *RedisStore) HGetAll(ctx context.Context, key string) (map[string][]byte, error) {
	vals, err := r.client.HGetAll(ctx, key).Result()
	if err != nil {
		return nil, err
	}
	result := make(map[string][]byte, len(vals))
	for k, v := range vals {
		result[k] = []byte(v)
	}
	return result, nil
}

func (r *RedisStore) Close() error {
	return r.client.Close()
}

func expiration(ttl []int) time.Duration {
	if len(ttl) > 0 && ttl[0] > 0 {
		return time.Duration(ttl[0]) * time.Second
	}
	return 0
}

var _ core.Store = (*RedisStore)(nil)
