// Package redis 定义缓存服务接口
// Service 层依赖此接口而非具体 Redis 实现
package redis

import (
	"context"
	"time"
)

// CacheService 缓存服务接口
type CacheService interface {
	// Set 设置键值对并指定过期时间
	Set(ctx context.Context, key string, value string, ttl time.Duration) error
	// Get 键不存在返回空字符串和 nil
	Get(ctx context.Context, key string) (string, error)
	// GetOrError 键不存在返回 CodeNotFound
	GetOrError(ctx context.Context, key string) (string, error)
	// Incr 自增并刷新过期时间，返回自增后的值
	Incr(ctx context.Context, key string, ttl time.Duration) (int64, error)

	// Delete 删除一个或多个键，不存在不报错
	Delete(ctx context.Context, keys ...string) error
	// DeleteByPattern 删除匹配模式的所有键
	DeleteByPattern(ctx context.Context, pattern string) error

	// ReplaceSet 原子地用 members 重建集合并设置过期时间
	ReplaceSet(ctx context.Context, key string, ttl time.Duration, members ...string) error
	// GetSetMembers 集合不存在时返回空切片
	GetSetMembers(ctx context.Context, key string) ([]string, error)
	AddToSet(ctx context.Context, key string, members ...string) error
	RemoveFromSet(ctx context.Context, key string, members ...string) error
}

// AsyncCacheService 异步缓存服务接口
// 提供异步任务提交能力，用于非阻塞缓存回填
type AsyncCacheService interface {
	CacheService
	// SubmitTask 提交异步缓存任务，队列满时同步执行
	SubmitTask(action func())
	// Close 停止 worker，未执行的任务被丢弃
	Close()
}
