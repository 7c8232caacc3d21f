package audience_test

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"kama_chat_hub/internal/dao/mysql/dbtest"
	"kama_chat_hub/internal/dao/mysql/repository"
	myredis "kama_chat_hub/internal/dao/redis"
	"kama_chat_hub/internal/model"
	"kama_chat_hub/internal/service/audience"
)

func TestMembersFillAndInvalidate(t *testing.T) {
	repos, _ := dbtest.Open(t)
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	cache := myredis.NewRedisCache(client, 0, 0)
	t.Cleanup(cache.Close)

	require.NoError(t, repos.Member.Create(&model.ConversationMember{ConversationUuid: "C1", UserUuid: "U1"}))
	require.NoError(t, repos.Member.Create(&model.ConversationMember{ConversationUuid: "C1", UserUuid: "U2"}))

	m := audience.New(repos, cache)
	ctx := context.Background()

	ids, err := m.Of(ctx, "C1")
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"U1", "U2"}, ids)
	assert.True(t, mr.Exists("conversation_members_C1:0"))

	require.NoError(t, repos.Member.Delete("C1", "U2"))
	// 失效前仍读缓存
	ids, err = m.Of(ctx, "C1")
	require.NoError(t, err)
	assert.Len(t, ids, 2)

	m.Invalidate(ctx, "C1")
	ids, err = m.Of(ctx, "C1")
	require.NoError(t, err)
	assert.Equal(t, []string{"U1"}, ids)
	assert.True(t, mr.Exists("conversation_members_C1:1"))
}

// invalidatingMembers 回源读到旧成员后、回填前，成员发生变化并触发失效
type invalidatingMembers struct {
	repository.MemberRepository
	onLoad func()
}

func (r *invalidatingMembers) UserIdsByConversation(conversationUuid string) ([]string, error) {
	ids, err := r.MemberRepository.UserIdsByConversation(conversationUuid)
	if r.onLoad != nil {
		r.onLoad()
		r.onLoad = nil
	}
	return ids, err
}

func TestLateFillDoesNotOutliveInvalidate(t *testing.T) {
	repos, _ := dbtest.Open(t)
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	cache := myredis.NewRedisCache(client, 0, 0)
	t.Cleanup(cache.Close)

	require.NoError(t, repos.Member.Create(&model.ConversationMember{ConversationUuid: "C1", UserUuid: "U1"}))
	require.NoError(t, repos.Member.Create(&model.ConversationMember{ConversationUuid: "C1", UserUuid: "U2"}))

	m := audience.New(repos, cache)
	ctx := context.Background()
	base := repos.Member
	repos.Member = &invalidatingMembers{MemberRepository: base, onLoad: func() {
		require.NoError(t, base.Delete("C1", "U2"))
		m.Invalidate(ctx, "C1")
	}}

	ids, err := m.Of(ctx, "C1")
	require.NoError(t, err)
	assert.Len(t, ids, 2)

	ids, err = m.Of(ctx, "C1")
	require.NoError(t, err)
	assert.Equal(t, []string{"U1"}, ids)
}

func TestMembersWithoutCache(t *testing.T) {
	repos, _ := dbtest.Open(t)
	require.NoError(t, repos.Member.Create(&model.ConversationMember{ConversationUuid: "C1", UserUuid: "U1"}))

	m := audience.New(repos, nil)
	ids, err := m.Of(context.Background(), "C1")
	require.NoError(t, err)
	assert.Equal(t, []string{"U1"}, ids)
	m.Invalidate(context.Background(), "C1")
}
