// Package redis 本文件负责 Redis 连接初始化
package redis

import (
	"context"
	"fmt"
	"time"

	"kama_chat_hub/internal/config"

	"github.com/redis/go-redis/v9"
)

// Init 根据配置创建客户端并探活，返回带 worker pool 的缓存服务
func Init(conf *config.RedisConfig) (*RedisCache, error) {
	port := conf.Port
	if port == 0 {
		port = 6379
	}
	workers := conf.Workers
	if workers <= 0 {
		workers = 8
	}
	queueLen := conf.QueueLen
	if queueLen <= 0 {
		queueLen = 1000
	}

	client := redis.NewClient(&redis.Options{
		Addr:         fmt.Sprintf("%s:%d", conf.Host, port),
		Password:     conf.Password,
		DB:           conf.Db,
		PoolSize:     50,
		MinIdleConns: workers,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis ping %s: %w", client.Options().Addr, err)
	}
	return NewRedisCache(client, workers, queueLen), nil
}
