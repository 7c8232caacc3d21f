package conversation

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"kama_chat_hub/internal/dto/respond"
	"kama_chat_hub/internal/event"
	"kama_chat_hub/internal/event/eventtest"
	"kama_chat_hub/internal/model"
	"kama_chat_hub/internal/service/audience"
	"kama_chat_hub/internal/service/servicetest"
	"kama_chat_hub/pkg/constants"
	"kama_chat_hub/pkg/errorx"
)

func newService(t *testing.T) (*conversationService, *servicetest.Env) {
	t.Helper()
	env := servicetest.New(t)
	svc := NewConversationService(env.Repos, audience.New(env.Repos, env.Cache), env.Events, env.Chat)
	return svc, env
}

func TestCreatePrivateIsIdempotentAndSymmetric(t *testing.T) {
	svc, env := newService(t)
	ctx := context.Background()
	a := env.SeedUser(t, "alice")
	b := env.SeedUser(t, "bob")

	c1, err := svc.CreatePrivate(ctx, a, b)
	require.NoError(t, err)
	c2, err := svc.CreatePrivate(ctx, a, b)
	require.NoError(t, err)
	c3, err := svc.CreatePrivate(ctx, b, a)
	require.NoError(t, err)

	assert.Equal(t, c1.ConversationId, c2.ConversationId)
	assert.Equal(t, c1.ConversationId, c3.ConversationId)
	assert.Equal(t, "private", c1.Kind)
	assert.Equal(t, "bob", c1.Name)
	assert.Equal(t, b, c1.PeerId)
	assert.Equal(t, "alice", c3.Name)
	assert.ElementsMatch(t, []string{a, b}, c1.MemberIds)

	// 只有第一次创建发出事件
	created := env.Events.Named(event.ConversationCreated)
	require.Len(t, created, 1)
	assert.ElementsMatch(t, []string{a, b}, created[0].UserIds)
}

func TestCreatePrivateRejections(t *testing.T) {
	svc, env := newService(t)
	ctx := context.Background()
	a := env.SeedUser(t, "alice")
	b := env.SeedUser(t, "bob")

	_, err := svc.CreatePrivate(ctx, a, a)
	assert.ErrorIs(t, err, errorx.ErrSelfPairNotAllowed)

	_, err = svc.CreatePrivate(ctx, a, "U_missing")
	assert.True(t, errorx.IsNotFound(err))

	svc.chat.PrivateChatRequiresFriend = true
	_, err = svc.CreatePrivate(ctx, a, b)
	assert.ErrorIs(t, err, errorx.ErrForbidden)

	require.NoError(t, env.Repos.Friendship.Create(&model.Friendship{
		Uuid: "F1", UserA: a, UserB: b, InitiatedBy: a, Status: constants.FRIEND_ACCEPTED,
	}))
	_, err = svc.CreatePrivate(ctx, a, b)
	assert.NoError(t, err)
}

func TestCreateSelfChat(t *testing.T) {
	svc, env := newService(t)
	ctx := context.Background()
	a := env.SeedUser(t, "alice")

	c1, err := svc.CreateSelfChat(ctx, a)
	require.NoError(t, err)
	c2, err := svc.CreateSelfChat(ctx, a)
	require.NoError(t, err)

	assert.Equal(t, c1.ConversationId, c2.ConversationId)
	assert.Equal(t, "self", c1.Kind)
	assert.Equal(t, "alice", c1.Name)
	assert.Equal(t, []string{a}, c1.MemberIds)
}

func TestCreateGroupValidation(t *testing.T) {
	svc, env := newService(t)
	ctx := context.Background()
	a := env.SeedUser(t, "alice")
	b := env.SeedUser(t, "bob")

	_, err := svc.CreateGroup(ctx, a, "Team", nil)
	assert.ErrorIs(t, err, errorx.ErrEmptyMemberList)

	_, err = svc.CreateGroup(ctx, a, "Team", []string{a, a})
	assert.ErrorIs(t, err, errorx.ErrEmptyMemberList)

	_, err = svc.CreateGroup(ctx, a, "Team", []string{b, "U_missing"})
	assert.True(t, errorx.IsNotFound(err))

	g, err := svc.CreateGroup(ctx, a, "   ", []string{b, b, a})
	require.NoError(t, err)
	assert.Equal(t, constants.DEFAULT_GROUP_NAME, g.Name)
	assert.Equal(t, a, g.OwnerId)
	assert.Len(t, g.MemberIds, 2)

	settings, err := svc.GetSettings(b, g.ConversationId)
	require.NoError(t, err)
	assert.Equal(t, "member", settings.MyRole)
	require.Len(t, settings.Members, 2)
	assert.Equal(t, "owner", settings.Members[0].Role)
	assert.Equal(t, a, settings.Members[0].UserId)
}

func TestGroupLifecycle(t *testing.T) {
	svc, env := newService(t)
	ctx := context.Background()
	a := env.SeedUser(t, "alice")
	b := env.SeedUser(t, "bob")

	g, err := svc.CreateGroup(ctx, a, "Team", []string{b})
	require.NoError(t, err)
	id := g.ConversationId

	require.NoError(t, svc.Rename(ctx, a, id, "Team X"))
	assert.ErrorIs(t, svc.Rename(ctx, b, id, "Team Y"), errorx.ErrForbidden)

	require.NoError(t, svc.SetRole(ctx, a, id, b, "admin"))
	require.NoError(t, svc.Rename(ctx, b, id, "Team Y"))

	require.NoError(t, svc.TransferOwnership(ctx, a, id, b))
	settings, err := svc.GetSettings(a, id)
	require.NoError(t, err)
	assert.Equal(t, "admin", settings.MyRole)
	assert.Equal(t, b, settings.OwnerId)
	assert.Equal(t, "Team Y", settings.Name)

	assert.ErrorIs(t, svc.RemoveMember(ctx, a, id, b), errorx.ErrCannotRemoveOwner)
	require.NoError(t, svc.RemoveMember(ctx, b, id, a))

	ok, err := svc.IsMember(ctx, id, a)
	require.NoError(t, err)
	assert.False(t, ok)

	removed := env.Events.Named(event.ConversationRemoved)
	require.Len(t, removed, 1)
	assert.Equal(t, []string{a}, removed[0].Evict)
	var payload respond.ConversationRemovedEvent
	require.NoError(t, eventtest.Decode(removed[0], &payload))
	assert.Equal(t, "removed", payload.Reason)
}

func TestOwnerCannotBeDemotedOrRemoved(t *testing.T) {
	svc, env := newService(t)
	ctx := context.Background()
	a := env.SeedUser(t, "alice")
	b := env.SeedUser(t, "bob")
	c := env.SeedUser(t, "carol")

	g, err := svc.CreateGroup(ctx, a, "Team", []string{b, c})
	require.NoError(t, err)
	id := g.ConversationId

	assert.ErrorIs(t, svc.SetRole(ctx, a, id, a, "member"), errorx.ErrCannotDemoteOwner)
	assert.ErrorIs(t, svc.SetRole(ctx, b, id, c, "admin"), errorx.ErrForbidden)
	assert.True(t, errorx.IsValidation(svc.SetRole(ctx, a, id, b, "owner")))

	require.NoError(t, svc.SetRole(ctx, a, id, b, "admin"))
	assert.ErrorIs(t, svc.RemoveMember(ctx, b, id, a), errorx.ErrCannotRemoveOwner)

	// 仍然只有一个群主
	settings, err := svc.GetSettings(a, id)
	require.NoError(t, err)
	owners := 0
	for _, m := range settings.Members {
		if m.Role == "owner" {
			owners++
		}
	}
	assert.Equal(t, 1, owners)
	assert.Equal(t, "owner", settings.MyRole)
}

func TestAddMemberRestoresDepartedMember(t *testing.T) {
	svc, env := newService(t)
	ctx := context.Background()
	a := env.SeedUser(t, "alice")
	b := env.SeedUser(t, "bob")
	c := env.SeedUser(t, "carol")

	g, err := svc.CreateGroup(ctx, a, "Team", []string{b})
	require.NoError(t, err)
	id := g.ConversationId

	assert.ErrorIs(t, svc.AddMember(ctx, a, id, b), errorx.ErrAlreadyMember)
	assert.ErrorIs(t, svc.AddMember(ctx, b, id, c), errorx.ErrForbidden)
	assert.ErrorIs(t, svc.AddMember(ctx, c, id, c), errorx.ErrNotAMember)

	require.NoError(t, svc.Leave(ctx, b, id))
	ok, err := svc.IsMember(ctx, id, b)
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, svc.AddMember(ctx, a, id, b))
	settings, err := svc.GetSettings(b, id)
	require.NoError(t, err)
	assert.Equal(t, "member", settings.MyRole)
	assert.Len(t, settings.Members, 2)
}

func TestLeaveRules(t *testing.T) {
	svc, env := newService(t)
	ctx := context.Background()
	a := env.SeedUser(t, "alice")
	b := env.SeedUser(t, "bob")

	g, err := svc.CreateGroup(ctx, a, "Team", []string{b})
	require.NoError(t, err)
	id := g.ConversationId

	assert.ErrorIs(t, svc.Leave(ctx, a, id), errorx.ErrOwnerCannotLeave)
	require.NoError(t, svc.Leave(ctx, b, id))
	assert.ErrorIs(t, svc.Leave(ctx, b, id), errorx.ErrNotAMember)

	// 最后一人退出时会话被删除
	require.NoError(t, svc.Leave(ctx, a, id))
	_, err = env.Repos.Conversation.FindByUuid(id)
	assert.True(t, errorx.IsNotFound(err))

	p, err := svc.CreatePrivate(ctx, a, b)
	require.NoError(t, err)
	assert.True(t, errorx.IsInvalidState(svc.Leave(ctx, a, p.ConversationId)))
}

func TestGroupOnlyOperations(t *testing.T) {
	svc, env := newService(t)
	ctx := context.Background()
	a := env.SeedUser(t, "alice")
	b := env.SeedUser(t, "bob")

	p, err := svc.CreatePrivate(ctx, a, b)
	require.NoError(t, err)
	assert.True(t, errorx.IsInvalidState(svc.Rename(ctx, a, p.ConversationId, "x")))

	g, err := svc.CreateGroup(ctx, a, "Team", []string{b})
	require.NoError(t, err)
	assert.ErrorIs(t, svc.Rename(ctx, a, g.ConversationId, "  "), errorx.ErrEmptyName)
	assert.True(t, errorx.IsValidation(svc.SetAvatar(ctx, a, g.ConversationId, "javascript:alert(1)")))
	require.NoError(t, svc.SetAvatar(ctx, a, g.ConversationId, "/static/avatars/g.png"))

	long := make([]rune, 201)
	for i := range long {
		long[i] = '公'
	}
	assert.True(t, errorx.IsValidation(svc.SetAnnouncement(ctx, a, g.ConversationId, string(long))))
	require.NoError(t, svc.SetAnnouncement(ctx, a, g.ConversationId, "周五发布"))

	updated := env.Events.Named(event.GroupUpdated)
	require.NotEmpty(t, updated)
	var payload respond.GroupUpdatedEvent
	require.NoError(t, eventtest.Decode(updated[len(updated)-1], &payload))
	assert.Equal(t, "周五发布", payload.Announcement)
	assert.Equal(t, "/static/avatars/g.png", payload.Avatar)
	assert.ElementsMatch(t, []string{a, b}, updated[len(updated)-1].UserIds)
}

func TestGroupUpdateAuthorizesBeforeValidating(t *testing.T) {
	svc, env := newService(t)
	ctx := context.Background()
	a := env.SeedUser(t, "alice")
	b := env.SeedUser(t, "bob")
	c := env.SeedUser(t, "carol")

	g, err := svc.CreateGroup(ctx, a, "Team", []string{b})
	require.NoError(t, err)
	id := g.ConversationId
	published := len(env.Events.Named(event.GroupUpdated))

	// 非成员无论参数是否合法都只看到非成员错误
	assert.ErrorIs(t, svc.Rename(ctx, c, id, "  "), errorx.ErrNotAMember)
	assert.ErrorIs(t, svc.SetAvatar(ctx, c, id, "javascript:alert(1)"), errorx.ErrNotAMember)
	assert.ErrorIs(t, svc.Rename(ctx, b, id, ""), errorx.ErrForbidden)
	assert.ErrorIs(t, svc.Rename(ctx, a, id, ""), errorx.ErrEmptyName)

	assert.Len(t, env.Events.Named(event.GroupUpdated), published)
	settings, err := svc.GetSettings(a, id)
	require.NoError(t, err)
	assert.Equal(t, "Team", settings.Name)
}

func TestListConversationsSortedByRecency(t *testing.T) {
	svc, env := newService(t)
	ctx := context.Background()
	a := env.SeedUser(t, "alice")
	b := env.SeedUser(t, "bob")
	c := env.SeedUser(t, "carol")

	p1, err := svc.CreatePrivate(ctx, a, b)
	require.NoError(t, err)
	p2, err := svc.CreatePrivate(ctx, a, c)
	require.NoError(t, err)

	at := time.Now().Add(time.Hour)
	require.NoError(t, env.Repos.Conversation.Update(p1.ConversationId, map[string]any{"last_message_at": at}))

	list, err := svc.ListConversations(a)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, p1.ConversationId, list[0].ConversationId)
	assert.Equal(t, p2.ConversationId, list[1].ConversationId)

	empty, err := svc.ListConversations("U_nobody")
	require.NoError(t, err)
	assert.Empty(t, empty)
}
