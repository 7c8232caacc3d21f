// Package servicetest 服务层测试的公共环境：内存数据库 + miniredis + 事件记录器
package servicetest

import (
	"fmt"
	"sync/atomic"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"

	"kama_chat_hub/internal/config"
	"kama_chat_hub/internal/dao/mysql/dbtest"
	"kama_chat_hub/internal/dao/mysql/repository"
	myredis "kama_chat_hub/internal/dao/redis"
	"kama_chat_hub/internal/event/eventtest"
	"kama_chat_hub/internal/model"
	"kama_chat_hub/pkg/constants"
	"kama_chat_hub/pkg/util/random"
)

var userSeq atomic.Int64

type Env struct {
	Repos  *repository.Repositories
	Cache  *myredis.RedisCache
	Redis  *miniredis.Miniredis
	Events *eventtest.Recorder
	Chat   config.ChatConfig
}

func New(t testing.TB) *Env {
	t.Helper()
	repos, _ := dbtest.Open(t)

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	cache := myredis.NewRedisCache(client, 0, 0)
	t.Cleanup(cache.Close)

	return &Env{
		Repos:  repos,
		Cache:  cache,
		Redis:  mr,
		Events: &eventtest.Recorder{},
		Chat:   config.DefaultChatConfig(),
	}
}

// SeedUser 直接写入已哈希的占位密码，避免每个用户都跑一次 bcrypt
func (e *Env) SeedUser(t testing.TB, name string) string {
	t.Helper()
	uid := fmt.Sprintf("U%019d", userSeq.Add(1))
	require.NoError(t, e.Repos.User.Create(&model.UserInfo{
		Uuid:     uid,
		Username: name,
		Password: "x",
		Status:   constants.USER_NORMAL,
	}))
	return uid
}

// Ban 封禁用户
func (e *Env) Ban(t testing.TB, uid string) {
	t.Helper()
	require.NoError(t, e.Repos.User.UpdateStatus(uid, constants.USER_BANNED))
}

// SeedGroup 第一个用户为群主，其余为普通成员
func (e *Env) SeedGroup(t testing.TB, owner string, members ...string) string {
	t.Helper()
	id := random.NewID(constants.CONVERSATION_ID_PREFIX)
	require.NoError(t, e.Repos.Conversation.Create(&model.Conversation{
		Uuid: id, Kind: constants.CONVERSATION_GROUP, Name: "group", OwnerId: owner, CreatorId: owner,
	}))
	require.NoError(t, e.Repos.Member.Create(&model.ConversationMember{
		ConversationUuid: id, UserUuid: owner, Role: constants.ROLE_OWNER,
	}))
	for _, uid := range members {
		require.NoError(t, e.Repos.Member.Create(&model.ConversationMember{
			ConversationUuid: id, UserUuid: uid, Role: constants.ROLE_MEMBER,
		}))
	}
	return id
}

// SeedPrivate 两人私聊
func (e *Env) SeedPrivate(t testing.TB, a, b string) string {
	t.Helper()
	x, y := model.OrderedPair(a, b)
	pairKey := x + ":" + y
	id := random.NewID(constants.CONVERSATION_ID_PREFIX)
	require.NoError(t, e.Repos.Conversation.Create(&model.Conversation{
		Uuid: id, Kind: constants.CONVERSATION_PRIVATE, CreatorId: a, PairKey: &pairKey,
	}))
	for _, uid := range []string{a, b} {
		require.NoError(t, e.Repos.Member.Create(&model.ConversationMember{
			ConversationUuid: id, UserUuid: uid, Role: constants.ROLE_NONE,
		}))
	}
	return id
}
