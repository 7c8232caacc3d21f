package contact

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"kama_chat_hub/internal/dto/respond"
	"kama_chat_hub/internal/event"
	"kama_chat_hub/internal/event/eventtest"
	"kama_chat_hub/internal/service/servicetest"
	"kama_chat_hub/pkg/errorx"
)

func newService(t *testing.T) (*contactService, *servicetest.Env) {
	t.Helper()
	env := servicetest.New(t)
	return NewContactService(env.Repos, env.Events), env
}

func TestRequestAcceptRemoveCycle(t *testing.T) {
	svc, env := newService(t)
	ctx := context.Background()
	a := env.SeedUser(t, "alice")
	b := env.SeedUser(t, "bob")

	sent, err := svc.SendRequest(ctx, a, b)
	require.NoError(t, err)
	assert.Equal(t, "pending", sent.Status)

	reqs := env.Events.Named(event.FriendRequest)
	require.Len(t, reqs, 1)
	assert.Equal(t, []string{b}, reqs[0].UserIds)
	var payload respond.FriendRequestEvent
	require.NoError(t, eventtest.Decode(reqs[0], &payload))
	assert.Equal(t, "alice", payload.FromName)
	assert.Equal(t, sent.RequestId, payload.RequestId)

	_, err = svc.SendRequest(ctx, a, b)
	assert.ErrorIs(t, err, errorx.ErrAlreadyPending)

	// 发起人不能自己通过
	assert.ErrorIs(t, svc.Accept(ctx, a, sent.RequestId), errorx.ErrForbidden)

	require.NoError(t, svc.Accept(ctx, b, sent.RequestId))
	resolved := env.Events.Named(event.FriendRequestResolved)
	require.Len(t, resolved, 1)
	assert.Equal(t, []string{a}, resolved[0].UserIds)

	_, err = svc.SendRequest(ctx, b, a)
	assert.ErrorIs(t, err, errorx.ErrAlreadyFriends)

	rel, err := svc.Relation(a, b)
	require.NoError(t, err)
	assert.Equal(t, RelationFriend, rel.Relation)

	// 成为好友不会创建会话
	ids, err := env.Repos.Member.ConversationIdsByUser(a)
	require.NoError(t, err)
	assert.Empty(t, ids)

	require.NoError(t, svc.Remove(ctx, b, a))
	removed := env.Events.Named(event.FriendRemoved)
	require.Len(t, removed, 1)
	assert.Equal(t, []string{a}, removed[0].UserIds)

	assert.True(t, errorx.IsNotFound(svc.Remove(ctx, b, a)))

	// 删除后可以重新申请
	_, err = svc.SendRequest(ctx, a, b)
	require.NoError(t, err)
}

func TestReverseRequestAutoAccepts(t *testing.T) {
	svc, env := newService(t)
	ctx := context.Background()
	a := env.SeedUser(t, "alice")
	b := env.SeedUser(t, "bob")

	first, err := svc.SendRequest(ctx, a, b)
	require.NoError(t, err)
	second, err := svc.SendRequest(ctx, b, a)
	require.NoError(t, err)
	assert.Equal(t, "accepted", second.Status)
	assert.Equal(t, first.RequestId, second.RequestId)

	contacts, err := svc.ListContacts(a)
	require.NoError(t, err)
	require.Len(t, contacts.Friends, 1)
	assert.Equal(t, b, contacts.Friends[0].UserId)
	assert.Zero(t, contacts.PendingCount)
}

func TestRejectDeletesRequest(t *testing.T) {
	svc, env := newService(t)
	ctx := context.Background()
	a := env.SeedUser(t, "alice")
	b := env.SeedUser(t, "bob")
	c := env.SeedUser(t, "carol")

	sent, err := svc.SendRequest(ctx, a, b)
	require.NoError(t, err)

	assert.True(t, errorx.IsNotFound(svc.Reject(ctx, c, sent.RequestId)))
	require.NoError(t, svc.Reject(ctx, b, sent.RequestId))

	resolved := env.Events.Named(event.FriendRequestResolved)
	require.Len(t, resolved, 1)
	var payload respond.FriendRequestResolvedEvent
	require.NoError(t, eventtest.Decode(resolved[0], &payload))
	assert.False(t, payload.Accepted)

	assert.True(t, errorx.IsNotFound(svc.Accept(ctx, b, sent.RequestId)))
	rel, err := svc.Relation(a, b)
	require.NoError(t, err)
	assert.Equal(t, RelationNone, rel.Relation)
}

func TestSendRequestValidation(t *testing.T) {
	svc, env := newService(t)
	ctx := context.Background()
	a := env.SeedUser(t, "alice")

	_, err := svc.SendRequest(ctx, a, a)
	assert.ErrorIs(t, err, errorx.ErrSelfPairNotAllowed)

	_, err = svc.SendRequest(ctx, a, "U_missing")
	assert.True(t, errorx.IsNotFound(err))
}

func TestListContactsAndRelations(t *testing.T) {
	svc, env := newService(t)
	ctx := context.Background()
	a := env.SeedUser(t, "alice")
	b := env.SeedUser(t, "bob")
	c := env.SeedUser(t, "carol")
	d := env.SeedUser(t, "dave")

	out, err := svc.SendRequest(ctx, a, b)
	require.NoError(t, err)
	in, err := svc.SendRequest(ctx, c, a)
	require.NoError(t, err)

	contacts, err := svc.ListContacts(a)
	require.NoError(t, err)
	assert.Empty(t, contacts.Friends)
	require.Len(t, contacts.Outgoing, 1)
	assert.Equal(t, b, contacts.Outgoing[0].User.UserId)
	require.Len(t, contacts.Incoming, 1)
	assert.Equal(t, in.RequestId, contacts.Incoming[0].RequestId)
	assert.Equal(t, 1, contacts.PendingCount)

	rels, err := svc.Relations(a, []string{a, b, c, d})
	require.NoError(t, err)
	assert.Equal(t, RelationSelf, rels[a].Relation)
	assert.Equal(t, RelationPendingOut, rels[b].Relation)
	assert.Equal(t, out.RequestId, rels[b].RequestId)
	assert.Equal(t, RelationPendingIn, rels[c].Relation)
	assert.Equal(t, RelationNone, rels[d].Relation)
}
