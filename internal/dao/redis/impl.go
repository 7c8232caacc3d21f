// Package redis 提供 CacheService 接口的 Redis 实现
package redis

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"kama_chat_hub/pkg/errorx"
)

// RedisCache 同时实现 CacheService 与 AsyncCacheService
// 只需要同步读写的模块声明依赖 CacheService 即可
type RedisCache struct {
	client    *redis.Client
	taskChan  chan func()
	workerNum int
	closeOnce sync.Once
	done      chan struct{}
}

// NewRedisCache 创建 Redis 缓存实例并启动 worker
// workerNum 为 0 时所有任务同步执行
func NewRedisCache(client *redis.Client, workerNum, taskChanSize int) *RedisCache {
	rc := &RedisCache{
		client:    client,
		taskChan:  make(chan func(), taskChanSize),
		workerNum: workerNum,
		done:      make(chan struct{}),
	}
	for i := 0; i < workerNum; i++ {
		go rc.startWorker()
	}
	zap.L().Info("redis cache workers started", zap.Int("workers", workerNum), zap.Int("buffer", taskChanSize))
	return rc
}

// startWorker 单个 worker 消费循环，panic 后自动重启
func (r *RedisCache) startWorker() {
	defer func() {
		if rec := recover(); rec != nil {
			zap.L().Error("redis worker panic", zap.Any("recover", rec))
			go r.startWorker()
		}
	}()
	for {
		select {
		case <-r.done:
			return
		case task := <-r.taskChan:
			if task != nil {
				task()
			}
		}
	}
}

// Client 底层客户端，供健康检查使用
func (r *RedisCache) Client() *redis.Client {
	return r.client
}

func (r *RedisCache) Set(ctx context.Context, key string, value string, ttl time.Duration) error {
	if err := r.client.Set(ctx, key, value, ttl).Err(); err != nil {
		return errorx.Wrapf(err, errorx.CodeCacheError, "redis set key %s", key)
	}
	return nil
}

func (r *RedisCache) Get(ctx context.Context, key string) (string, error) {
	value, err := r.client.Get(ctx, key).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return "", nil
		}
		return "", errorx.Wrapf(err, errorx.CodeCacheError, "redis get key %s", key)
	}
	return value, nil
}

func (r *RedisCache) GetOrError(ctx context.Context, key string) (string, error) {
	value, err := r.client.Get(ctx, key).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return "", errorx.Wrapf(err, errorx.CodeNotFound, "redis key %s not found", key)
		}
		return "", errorx.Wrapf(err, errorx.CodeCacheError, "redis get key %s", key)
	}
	return value, nil
}

func (r *RedisCache) Incr(ctx context.Context, key string, ttl time.Duration) (int64, error) {
	var incr *redis.IntCmd
	_, err := r.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		incr = pipe.Incr(ctx, key)
		if ttl > 0 {
			pipe.Expire(ctx, key, ttl)
		}
		return nil
	})
	if err != nil {
		return 0, errorx.Wrapf(err, errorx.CodeCacheError, "redis incr key %s", key)
	}
	return incr.Val(), nil
}

func (r *RedisCache) Delete(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	if err := r.client.Unlink(ctx, keys...).Err(); err != nil {
		return errorx.Wrapf(err, errorx.CodeCacheError, "redis unlink keys %v", keys)
	}
	return nil
}

func (r *RedisCache) DeleteByPattern(ctx context.Context, pattern string) error {
	var cursor uint64
	for {
		keys, next, err := r.client.Scan(ctx, cursor, pattern, 500).Result()
		if err != nil {
			return errorx.Wrapf(err, errorx.CodeCacheError, "redis scan pattern %s", pattern)
		}
		if len(keys) > 0 {
			if err := r.client.Unlink(ctx, keys...).Err(); err != nil {
				return errorx.Wrapf(err, errorx.CodeCacheError, "redis unlink keys with pattern %s", pattern)
			}
		}
		cursor = next
		if cursor == 0 {
			return nil
		}
	}
}

// ReplaceSet DEL + SADD + EXPIRE 放在同一个 MULTI 中执行
func (r *RedisCache) ReplaceSet(ctx context.Context, key string, ttl time.Duration, members ...string) error {
	_, err := r.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Del(ctx, key)
		if len(members) > 0 {
			pipe.SAdd(ctx, key, toAny(members)...)
			if ttl > 0 {
				pipe.Expire(ctx, key, ttl)
			}
		}
		return nil
	})
	if err != nil {
		return errorx.Wrapf(err, errorx.CodeCacheError, "redis replace set key %s", key)
	}
	return nil
}

func (r *RedisCache) GetSetMembers(ctx context.Context, key string) ([]string, error) {
	members, err := r.client.SMembers(ctx, key).Result()
	if err != nil {
		return nil, errorx.Wrapf(err, errorx.CodeCacheError, "redis smembers key %s", key)
	}
	return members, nil
}

func (r *RedisCache) AddToSet(ctx context.Context, key string, members ...string) error {
	if len(members) == 0 {
		return nil
	}
	if err := r.client.SAdd(ctx, key, toAny(members)...).Err(); err != nil {
		return errorx.Wrapf(err, errorx.CodeCacheError, "redis sadd key %s", key)
	}
	return nil
}

func (r *RedisCache) RemoveFromSet(ctx context.Context, key string, members ...string) error {
	if len(members) == 0 {
		return nil
	}
	if err := r.client.SRem(ctx, key, toAny(members)...).Err(); err != nil {
		return errorx.Wrapf(err, errorx.CodeCacheError, "redis srem key %s", key)
	}
	return nil
}

func toAny(members []string) []any {
	out := make([]any, len(members))
	for i, m := range members {
		out[i] = m
	}
	return out
}

// SubmitTask 提交异步缓存任务，队列满或未启动 worker 时降级为同步执行
func (r *RedisCache) SubmitTask(action func()) {
	if r.workerNum == 0 {
		action()
		return
	}
	select {
	case r.taskChan <- action:
	default:
		zap.L().Warn("redis cache task channel full, executing synchronously")
		action()
	}
}

func (r *RedisCache) Close() {
	r.closeOnce.Do(func() { close(r.done) })
}

var _ AsyncCacheService = (*RedisCache)(nil)
