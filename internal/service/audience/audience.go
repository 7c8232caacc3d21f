// Package audience 维护会话成员集合的缓存，用于确定事件投递范围
// 权限判定始终读数据库，这里的数据只决定"通知谁"
package audience

import (
	"context"
	"time"

	"go.uber.org/zap"

	"kama_chat_hub/internal/dao/mysql/repository"
	myredis "kama_chat_hub/internal/dao/redis"
)

const (
	ttl = 10 * time.Minute
	// 版本号要比集合活得久，否则过期后归零可能命中旧集合
	versionTTL = 24 * time.Hour
)

func versionKey(conversationId string) string {
	return "conversation_members_ver_" + conversationId
}

// key 集合按版本号分键，失效只需递增版本，迟到的回填写进旧键不会被读到
func key(conversationId, version string) string {
	if version == "" {
		version = "0"
	}
	return "conversation_members_" + conversationId + ":" + version
}

// Members 会话成员 ID 缓存
type Members struct {
	repos *repository.Repositories
	cache myredis.CacheService
}

// New cache 为 nil 时直接查库
func New(repos *repository.Repositories, cache myredis.CacheService) *Members {
	return &Members{repos: repos, cache: cache}
}

// Of 返回会话当前成员，缓存未命中时回源并按读库前的版本回填
func (m *Members) Of(ctx context.Context, conversationId string) ([]string, error) {
	if m.cache == nil {
		return m.repos.Member.UserIdsByConversation(conversationId)
	}

	version, err := m.cache.Get(ctx, versionKey(conversationId))
	if err != nil {
		zap.L().Warn("read member cache version", zap.String("conversation_id", conversationId), zap.Error(err))
		return m.repos.Member.UserIdsByConversation(conversationId)
	}
	cacheKey := key(conversationId, version)
	ids, err := m.cache.GetSetMembers(ctx, cacheKey)
	if err != nil {
		zap.L().Warn("read member cache", zap.String("conversation_id", conversationId), zap.Error(err))
	} else if len(ids) > 0 {
		return ids, nil
	}

	ids, err = m.repos.Member.UserIdsByConversation(conversationId)
	if err != nil {
		return nil, err
	}
	if len(ids) > 0 {
		if err := m.cache.ReplaceSet(ctx, cacheKey, ttl, ids...); err != nil {
			zap.L().Warn("fill member cache", zap.String("conversation_id", conversationId), zap.Error(err))
		}
	}
	return ids, nil
}

// Invalidate 成员变化后递增版本号，后续读取落到新键上回源
func (m *Members) Invalidate(ctx context.Context, conversationId string) {
	if m.cache == nil {
		return
	}
	if _, err := m.cache.Incr(ctx, versionKey(conversationId), versionTTL); err != nil {
		zap.L().Error("invalidate member cache", zap.String("conversation_id", conversationId), zap.Error(err))
	}
}
