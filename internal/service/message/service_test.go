package message

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"kama_chat_hub/internal/dto/request"
	"kama_chat_hub/internal/dto/respond"
	"kama_chat_hub/internal/event"
	"kama_chat_hub/internal/event/eventtest"
	"kama_chat_hub/internal/model"
	"kama_chat_hub/internal/service/audience"
	"kama_chat_hub/internal/service/servicetest"
	"kama_chat_hub/pkg/constants"
	"kama_chat_hub/pkg/errorx"
	"kama_chat_hub/pkg/util/snowflake"
)

func newService(t *testing.T, tune func(env *servicetest.Env)) (*messageService, *servicetest.Env) {
	t.Helper()
	env := servicetest.New(t)
	env.Chat.SendRate = 1000
	env.Chat.SendBurst = 1000
	if tune != nil {
		tune(env)
	}
	svc := NewMessageService(env.Repos, audience.New(env.Repos, env.Cache), env.Events, env.Chat)
	return svc, env
}

func text(conv, content string) request.SendMessageRequest {
	return request.SendMessageRequest{ConversationId: conv, Content: content}
}

func TestSendPersistsAndPublishes(t *testing.T) {
	svc, env := newService(t, nil)
	ctx := context.Background()
	a := env.SeedUser(t, "alice")
	b := env.SeedUser(t, "bob")
	conv := env.SeedPrivate(t, a, b)

	msg, err := svc.Send(ctx, a, text(conv, "  hello  "))
	require.NoError(t, err)
	assert.Equal(t, "hello", msg.Content)
	assert.Equal(t, int64(1), msg.Seq)
	assert.Equal(t, "alice", msg.SenderName)
	assert.Equal(t, constants.MSG_TEXT, msg.Type)

	newMsg := env.Events.Named(event.NewMessage)
	require.Len(t, newMsg, 1)
	assert.True(t, newMsg[0].Room)
	assert.Equal(t, conv, newMsg[0].ConversationId)

	updated := env.Events.Named(event.ConversationUpdated)
	require.Len(t, updated, 1)
	assert.ElementsMatch(t, []string{a, b}, updated[0].UserIds)
	var payload respond.ConversationUpdatedEvent
	require.NoError(t, eventtest.Decode(updated[0], &payload))
	require.NotNil(t, payload.LastMessage)
	assert.Equal(t, msg.MessageId, payload.LastMessage.MessageId)
}

func TestSendRejections(t *testing.T) {
	svc, env := newService(t, nil)
	ctx := context.Background()
	a := env.SeedUser(t, "alice")
	b := env.SeedUser(t, "bob")
	c := env.SeedUser(t, "carol")
	conv := env.SeedPrivate(t, a, b)

	_, err := svc.Send(ctx, c, text(conv, "hi"))
	assert.ErrorIs(t, err, errorx.ErrNotAMember)

	_, err = svc.Send(ctx, a, text(conv, "   "))
	assert.ErrorIs(t, err, errorx.ErrEmptyContent)

	_, err = svc.Send(ctx, a, request.SendMessageRequest{ConversationId: conv, Content: "x", Type: "sticker"})
	assert.True(t, errorx.IsValidation(err))

	_, err = svc.Send(ctx, a, request.SendMessageRequest{ConversationId: conv, Type: constants.MSG_IMAGE})
	assert.True(t, errorx.IsValidation(err))

	for _, ref := range []string{
		"javascript:alert(1)",
		"/static/../../etc/passwd",
		"/static/files/" + strings.Repeat("a", 400),
	} {
		_, err = svc.Send(ctx, a, request.SendMessageRequest{ConversationId: conv, Type: constants.MSG_IMAGE, MediaUrl: ref})
		assert.True(t, errorx.IsValidation(err), ref)
	}

	long := make([]rune, env.Chat.MaxMessageLength+1)
	for i := range long {
		long[i] = '字'
	}
	_, err = svc.Send(ctx, a, text(conv, string(long)))
	assert.True(t, errorx.IsValidation(err))

	_, err = svc.Send(ctx, a, text("C_missing", "hi"))
	assert.True(t, errorx.IsNotFound(err))

	env.Ban(t, a)
	_, err = svc.Send(ctx, a, text(conv, "hi"))
	assert.ErrorIs(t, err, errorx.ErrForbidden)

	// 失败的发送不产生任何事件
	assert.Empty(t, env.Events.Events())
}

func TestSendMediaFallsBackToFileName(t *testing.T) {
	svc, env := newService(t, nil)
	a := env.SeedUser(t, "alice")
	conv := env.SeedGroup(t, a, env.SeedUser(t, "bob"))

	msg, err := svc.Send(context.Background(), a, request.SendMessageRequest{
		ConversationId: conv,
		Type:           constants.MSG_FILE,
		MediaUrl:       "/static/files/report.pdf",
	})
	require.NoError(t, err)
	assert.Equal(t, "report.pdf", msg.Content)
	assert.Equal(t, "/static/files/report.pdf", msg.MediaUrl)
}

func TestSendIsRateLimited(t *testing.T) {
	svc, env := newService(t, func(env *servicetest.Env) {
		env.Chat.SendRate = 1
		env.Chat.SendBurst = 2
	})
	ctx := context.Background()
	a := env.SeedUser(t, "alice")
	conv := env.SeedGroup(t, a, env.SeedUser(t, "bob"))

	_, err := svc.Send(ctx, a, text(conv, "1"))
	require.NoError(t, err)
	_, err = svc.Send(ctx, a, text(conv, "2"))
	require.NoError(t, err)
	_, err = svc.Send(ctx, a, text(conv, "3"))
	assert.ErrorIs(t, err, errorx.ErrRateLimited)
}

func TestSequenceIsMonotonicUnderConcurrency(t *testing.T) {
	svc, env := newService(t, nil)
	ctx := context.Background()
	a := env.SeedUser(t, "alice")
	b := env.SeedUser(t, "bob")
	conv := env.SeedGroup(t, a, b)

	const n = 30
	var wg sync.WaitGroup
	errs := make(chan error, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			sender := a
			if i%2 == 1 {
				sender = b
			}
			_, err := svc.Send(ctx, sender, text(conv, fmt.Sprintf("m%d", i)))
			errs <- err
		}(i)
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		require.NoError(t, err)
	}

	page, err := svc.ListMessages(a, conv, 0, 100)
	require.NoError(t, err)
	require.Len(t, page.Messages, n)
	for i, m := range page.Messages {
		assert.Equal(t, int64(i+1), m.Seq)
	}

	// 广播顺序与序号一致
	var seqs []int64
	for _, e := range env.Events.Named(event.NewMessage) {
		var m respond.MessageRespond
		require.NoError(t, eventtest.Decode(e, &m))
		seqs = append(seqs, m.Seq)
	}
	assert.True(t, sort.SliceIsSorted(seqs, func(i, j int) bool { return seqs[i] < seqs[j] }))
	assert.Len(t, seqs, n)
}

func TestPaginationCompleteness(t *testing.T) {
	svc, env := newService(t, nil)
	ctx := context.Background()
	a := env.SeedUser(t, "alice")
	conv := env.SeedGroup(t, a, env.SeedUser(t, "bob"))

	for i := 1; i <= 120; i++ {
		_, err := svc.Send(ctx, a, text(conv, fmt.Sprintf("m%d", i)))
		require.NoError(t, err)
	}

	var seen []int64
	var before int64
	var pages []int
	for {
		page, err := svc.ListMessages(a, conv, before, 50)
		require.NoError(t, err)
		pages = append(pages, len(page.Messages))
		for i := len(page.Messages) - 1; i >= 0; i-- {
			seen = append(seen, page.Messages[i].Seq)
		}
		if !page.HasMore {
			break
		}
		before = page.Messages[0].Seq
	}
	assert.Equal(t, []int{50, 50, 20}, pages)
	require.Len(t, seen, 120)
	for i, seq := range seen {
		assert.Equal(t, int64(120-i), seq)
	}
}

func TestReplyRules(t *testing.T) {
	svc, env := newService(t, nil)
	ctx := context.Background()
	a := env.SeedUser(t, "alice")
	b := env.SeedUser(t, "bob")
	conv := env.SeedPrivate(t, a, b)
	other := env.SeedGroup(t, a, b)

	orig, err := svc.Send(ctx, a, text(conv, "question"))
	require.NoError(t, err)
	elsewhere, err := svc.Send(ctx, a, text(other, "noise"))
	require.NoError(t, err)

	req := text(conv, "answer")
	req.ReplyToId = snowflake.ID(12345)
	_, err = svc.Send(ctx, b, req)
	assert.ErrorIs(t, err, errorx.ErrInvalidReply)

	req.ReplyToId = elsewhere.MessageId
	_, err = svc.Send(ctx, b, req)
	assert.ErrorIs(t, err, errorx.ErrInvalidReply)

	req.ReplyToId = orig.MessageId
	reply, err := svc.Send(ctx, b, req)
	require.NoError(t, err)
	require.NotNil(t, reply.ReplyTo)
	assert.Equal(t, "question", reply.ReplyTo.Content)

	require.NoError(t, svc.Revoke(ctx, a, orig.MessageId.Int64()))
	_, err = svc.Send(ctx, b, req)
	assert.True(t, errorx.IsInvalidState(err))

	// 历史消息中的回复预览变为墓碑
	page, err := svc.ListMessages(b, conv, 0, 0)
	require.NoError(t, err)
	require.Len(t, page.Messages, 2)
	preview := page.Messages[1].ReplyTo
	require.NotNil(t, preview)
	assert.True(t, preview.IsRevoked)
	assert.Empty(t, preview.Content)
}

func TestEditRules(t *testing.T) {
	svc, env := newService(t, nil)
	ctx := context.Background()
	a := env.SeedUser(t, "alice")
	b := env.SeedUser(t, "bob")
	conv := env.SeedPrivate(t, a, b)

	msg, err := svc.Send(ctx, a, text(conv, "helo"))
	require.NoError(t, err)
	id := msg.MessageId.Int64()

	_, err = svc.Edit(ctx, b, id, "hijack")
	assert.ErrorIs(t, err, errorx.ErrNotSender)

	_, err = svc.Edit(ctx, a, id, " ")
	assert.ErrorIs(t, err, errorx.ErrEmptyContent)

	edited, err := svc.Edit(ctx, a, id, "hello")
	require.NoError(t, err)
	assert.Equal(t, "hello", edited.Content)
	assert.NotNil(t, edited.EditedAt)
	assert.Equal(t, msg.Seq, edited.Seq)
	assert.Len(t, env.Events.Named(event.MessageEdited), 1)

	media, err := svc.Send(ctx, a, request.SendMessageRequest{ConversationId: conv, Type: constants.MSG_IMAGE, MediaUrl: "/static/files/a.png"})
	require.NoError(t, err)
	_, err = svc.Edit(ctx, a, media.MessageId.Int64(), "caption")
	assert.True(t, errorx.IsValidation(err))

	_, err = svc.Edit(ctx, a, 999, "x")
	assert.True(t, errorx.IsNotFound(err))
}

func TestRevokeIsTerminal(t *testing.T) {
	svc, env := newService(t, nil)
	ctx := context.Background()
	a := env.SeedUser(t, "alice")
	b := env.SeedUser(t, "bob")
	conv := env.SeedPrivate(t, a, b)

	msg, err := svc.Send(ctx, a, request.SendMessageRequest{ConversationId: conv, Type: constants.MSG_IMAGE, MediaUrl: "/static/files/a.png"})
	require.NoError(t, err)
	id := msg.MessageId.Int64()

	require.NoError(t, svc.Pin(ctx, b, conv, id))
	fav, err := svc.ToggleFavorite(b, id)
	require.NoError(t, err)
	require.True(t, fav)

	assert.ErrorIs(t, svc.Revoke(ctx, b, id), errorx.ErrNotSender)
	require.NoError(t, svc.Revoke(ctx, a, id))

	first, err := env.Repos.Message.FindByUuid(id)
	require.NoError(t, err)
	assert.True(t, first.IsRevoked)
	assert.Empty(t, first.Content)
	assert.Empty(t, first.MediaUrl)
	require.NotNil(t, first.RevokedAt)

	// 第二次撤回：成功、无事件、时间不变
	require.NoError(t, svc.Revoke(ctx, a, id))
	second, err := env.Repos.Message.FindByUuid(id)
	require.NoError(t, err)
	assert.True(t, first.RevokedAt.Equal(*second.RevokedAt))

	revoked := env.Events.Named(event.MessageRevoked)
	require.Len(t, revoked, 1)
	var payload respond.MessageRevokedEvent
	require.NoError(t, eventtest.Decode(revoked[0], &payload))
	assert.Equal(t, "alice", payload.SenderName)
	assert.Equal(t, msg.MessageId, payload.MessageId)

	// 置顶与收藏被一并清理
	pins, err := svc.ListPinned(a, conv)
	require.NoError(t, err)
	assert.Empty(t, pins)
	favs, err := svc.ListFavorites(b, 0, 0)
	require.NoError(t, err)
	assert.Empty(t, favs.Items)
	assert.Len(t, env.Events.Named(event.PinnedUpdated), 2)

	_, err = svc.Edit(ctx, a, id, "x")
	assert.True(t, errorx.IsInvalidState(err))
	_, err = svc.ToggleFavorite(a, id)
	assert.True(t, errorx.IsInvalidState(err))
	assert.True(t, errorx.IsInvalidState(svc.Pin(ctx, a, conv, id)))
	_, err = svc.Forward(ctx, a, id, []string{conv})
	assert.True(t, errorx.IsInvalidState(err))
}

func TestForwardSkipsConversationsWithoutMembership(t *testing.T) {
	svc, env := newService(t, nil)
	ctx := context.Background()
	a := env.SeedUser(t, "alice")
	b := env.SeedUser(t, "bob")
	c := env.SeedUser(t, "carol")

	src := env.SeedPrivate(t, a, b)
	t1 := env.SeedGroup(t, a, b)
	t2 := env.SeedPrivate(t, a, c)
	t3 := env.SeedPrivate(t, b, c)

	msg, err := svc.Send(ctx, a, text(src, "news"))
	require.NoError(t, err)

	n, err := svc.Forward(ctx, a, msg.MessageId.Int64(), []string{t1, t2, t3, t1, "C_missing"})
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	page, err := svc.ListMessages(c, t2, 0, 0)
	require.NoError(t, err)
	require.Len(t, page.Messages, 1)
	assert.Equal(t, "news", page.Messages[0].Content)
	assert.Equal(t, a, page.Messages[0].SenderId)
	assert.NotEqual(t, msg.MessageId, page.Messages[0].MessageId)
	assert.Zero(t, page.Messages[0].ReplyToId)

	targets := make([]string, 21)
	for i := range targets {
		targets[i] = fmt.Sprintf("C%019d", i)
	}
	_, err = svc.Forward(ctx, a, msg.MessageId.Int64(), targets)
	assert.True(t, errorx.IsValidation(err))

	_, err = svc.Forward(ctx, c, msg.MessageId.Int64(), []string{t2})
	assert.ErrorIs(t, err, errorx.ErrNotAMember)
}

func TestPinRules(t *testing.T) {
	svc, env := newService(t, func(env *servicetest.Env) { env.Chat.MaxPinned = 2 })
	ctx := context.Background()
	a := env.SeedUser(t, "alice")
	b := env.SeedUser(t, "bob")
	group := env.SeedGroup(t, a, b)
	private := env.SeedPrivate(t, a, b)

	var ids []int64
	for i := 0; i < 3; i++ {
		m, err := svc.Send(ctx, b, text(group, fmt.Sprintf("m%d", i)))
		require.NoError(t, err)
		ids = append(ids, m.MessageId.Int64())
	}
	pm, err := svc.Send(ctx, b, text(private, "p"))
	require.NoError(t, err)

	assert.ErrorIs(t, svc.Pin(ctx, b, group, ids[0]), errorx.ErrForbidden)
	require.NoError(t, svc.Pin(ctx, a, group, ids[0]))
	require.NoError(t, svc.Pin(ctx, a, group, ids[0]))
	require.NoError(t, svc.Pin(ctx, a, group, ids[1]))
	assert.ErrorIs(t, svc.Pin(ctx, a, group, ids[2]), errorx.ErrPinLimitExceeded)
	assert.True(t, errorx.IsNotFound(svc.Pin(ctx, a, group, pm.MessageId.Int64())))

	pins, err := svc.ListPinned(b, group)
	require.NoError(t, err)
	require.Len(t, pins, 2)
	assert.Equal(t, a, pins[0].PinnedBy)

	require.NoError(t, svc.Unpin(ctx, a, group, ids[2]))
	require.NoError(t, svc.Unpin(ctx, a, group, ids[0]))
	pins, err = svc.ListPinned(a, group)
	require.NoError(t, err)
	require.Len(t, pins, 1)
	assert.Equal(t, ids[1], pins[0].Message.MessageId.Int64())

	// 私聊成员均可置顶
	require.NoError(t, svc.Pin(ctx, b, private, pm.MessageId.Int64()))

	// 两次成功置顶 + 一次取消 + 私聊置顶
	assert.Len(t, env.Events.Named(event.PinnedUpdated), 4)
}

func TestFavoritesToggleAndPage(t *testing.T) {
	svc, env := newService(t, nil)
	ctx := context.Background()
	a := env.SeedUser(t, "alice")
	b := env.SeedUser(t, "bob")
	c := env.SeedUser(t, "carol")
	group := env.SeedGroup(t, a, b)

	m, err := svc.Send(ctx, a, text(group, "keep"))
	require.NoError(t, err)
	id := m.MessageId.Int64()

	_, err = svc.ToggleFavorite(c, id)
	assert.ErrorIs(t, err, errorx.ErrNotAMember)

	on, err := svc.ToggleFavorite(b, id)
	require.NoError(t, err)
	assert.True(t, on)
	page, err := svc.ListFavorites(b, 0, 0)
	require.NoError(t, err)
	require.Len(t, page.Items, 1)
	assert.Equal(t, "keep", page.Items[0].Message.Content)
	assert.False(t, page.HasMore)

	off, err := svc.ToggleFavorite(b, id)
	require.NoError(t, err)
	assert.False(t, off)
	page, err = svc.ListFavorites(b, 0, 0)
	require.NoError(t, err)
	assert.Empty(t, page.Items)

	// 退群后收藏仍然保留，并且可以继续切换
	on, err = svc.ToggleFavorite(b, id)
	require.NoError(t, err)
	require.True(t, on)
	require.NoError(t, env.Repos.Member.Delete(group, b))
	page, err = svc.ListFavorites(b, 0, 0)
	require.NoError(t, err)
	assert.Len(t, page.Items, 1)
	off, err = svc.ToggleFavorite(b, id)
	require.NoError(t, err)
	assert.False(t, off)
}

func TestFavoritesPageWithinSameMillisecond(t *testing.T) {
	svc, env := newService(t, nil)
	ctx := context.Background()
	a := env.SeedUser(t, "alice")
	group := env.SeedGroup(t, a, env.SeedUser(t, "bob"))

	at := time.Now().Truncate(time.Millisecond)
	want := make([]int64, 0, 3)
	for i := 0; i < 3; i++ {
		m, err := svc.Send(ctx, a, text(group, fmt.Sprintf("m%d", i)))
		require.NoError(t, err)
		require.NoError(t, env.Repos.Favorite.Create(&model.FavoriteMessage{
			UserUuid: a, MessageUuid: m.MessageId.Int64(), ConversationUuid: group, CreatedAt: at,
		}))
		want = append(want, m.MessageId.Int64())
	}

	var seen []int64
	var before int64
	for {
		page, err := svc.ListFavorites(a, before, 1)
		require.NoError(t, err)
		for _, item := range page.Items {
			seen = append(seen, item.Message.MessageId.Int64())
		}
		if !page.HasMore {
			break
		}
		before = page.NextBefore
	}
	assert.ElementsMatch(t, want, seen)
	assert.Len(t, seen, 3)
}

func TestRevokeRacingFavoriteAndPinLeavesNothing(t *testing.T) {
	svc, env := newService(t, nil)
	ctx := context.Background()
	a := env.SeedUser(t, "alice")
	b := env.SeedUser(t, "bob")
	conv := env.SeedPrivate(t, a, b)

	for round := 0; round < 20; round++ {
		m, err := svc.Send(ctx, a, text(conv, fmt.Sprintf("r%d", round)))
		require.NoError(t, err)
		id := m.MessageId.Int64()

		var wg sync.WaitGroup
		wg.Add(3)
		go func() {
			defer wg.Done()
			_, _ = svc.ToggleFavorite(b, id)
		}()
		go func() {
			defer wg.Done()
			_ = svc.Pin(ctx, b, conv, id)
		}()
		go func() {
			defer wg.Done()
			assert.NoError(t, svc.Revoke(ctx, a, id))
		}()
		wg.Wait()

		_, err = env.Repos.Favorite.Find(b, id)
		assert.True(t, errorx.IsNotFound(err), "round %d left a favorite", round)
		_, err = env.Repos.Pinned.Find(conv, id)
		assert.True(t, errorx.IsNotFound(err), "round %d left a pin", round)
	}
}

func TestListMessagesRequiresMembership(t *testing.T) {
	svc, env := newService(t, nil)
	a := env.SeedUser(t, "alice")
	b := env.SeedUser(t, "bob")
	c := env.SeedUser(t, "carol")
	conv := env.SeedPrivate(t, a, b)

	_, err := svc.ListMessages(c, conv, 0, 0)
	assert.ErrorIs(t, err, errorx.ErrNotAMember)
	_, err = svc.ListPinned(c, conv)
	assert.ErrorIs(t, err, errorx.ErrNotAMember)

	page, err := svc.ListMessages(a, conv, 0, 0)
	require.NoError(t, err)
	assert.Empty(t, page.Messages)
	assert.False(t, page.HasMore)
}
