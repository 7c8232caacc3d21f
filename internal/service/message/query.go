package message

import (
	"context"

	"kama_chat_hub/internal/dto/respond"
	"kama_chat_hub/internal/event"
	"kama_chat_hub/internal/model"
	"kama_chat_hub/internal/service/guard"
	"kama_chat_hub/internal/service/view"
	"kama_chat_hub/pkg/errorx"
)

const (
	defaultMessagePage  = 50
	defaultFavoritePage = 30
	maxPage             = 100
)

// Pin 置顶消息，重复置顶直接成功
func (s *messageService) Pin(ctx context.Context, actor, conversationId string, messageId int64) error {
	if _, err := s.authorizePin(conversationId, actor); err != nil {
		return err
	}

	// 先消息锁后置顶锁，与撤回互斥
	unlockMsg := s.msgLocks.Lock(lockKey(messageId))
	defer unlockMsg()
	msg, err := s.loadMessage(messageId)
	if err != nil {
		return err
	}
	if err := guard.RequireInConversation(msg, conversationId); err != nil {
		return err
	}
	if msg.IsRevoked {
		return errorx.New(errorx.CodeInvalidState, "已撤回的消息不能置顶")
	}

	unlock := s.pinLocks.Lock(conversationId)
	defer unlock()

	if _, err := s.repos.Pinned.Find(conversationId, messageId); err == nil {
		return nil
	} else if !errorx.IsNotFound(err) {
		return storeErr("find pinned", err)
	}
	n, err := s.repos.Pinned.Count(conversationId)
	if err != nil {
		return storeErr("count pinned", err)
	}
	if int(n) >= s.chat.MaxPinned {
		return errorx.ErrPinLimitExceeded
	}
	if err := s.repos.Pinned.Create(&model.PinnedMessage{
		ConversationUuid: conversationId,
		MessageUuid:      messageId,
		PinnedBy:         actor,
	}); err != nil {
		return storeErr("create pinned", err)
	}

	s.publish(ctx, event.ToRoom(event.PinnedUpdated, conversationId, respond.ConversationRef{ConversationId: conversationId}))
	return nil
}

// Unpin 取消置顶，未置顶的消息直接成功
func (s *messageService) Unpin(ctx context.Context, actor, conversationId string, messageId int64) error {
	if _, err := s.authorizePin(conversationId, actor); err != nil {
		return err
	}

	unlock := s.pinLocks.Lock(conversationId)
	defer unlock()

	rows, err := s.repos.Pinned.Delete(conversationId, messageId)
	if err != nil {
		return storeErr("delete pinned", err)
	}
	if rows > 0 {
		s.publish(ctx, event.ToRoom(event.PinnedUpdated, conversationId, respond.ConversationRef{ConversationId: conversationId}))
	}
	return nil
}

// authorizePin 群聊需要管理员及以上，私聊与自聊只需是成员
func (s *messageService) authorizePin(conversationId, actor string) (*model.Conversation, error) {
	conv, err := s.loadConversation(conversationId)
	if err != nil {
		return nil, err
	}
	member, err := s.findMember(conversationId, actor)
	if err != nil {
		return nil, err
	}
	if err := guard.RequireManager(conv, member); err != nil {
		return nil, err
	}
	return conv, nil
}

// ListPinned 置顶列表，最新置顶在前
func (s *messageService) ListPinned(actor, conversationId string) ([]respond.PinnedRespond, error) {
	if _, err := s.loadConversation(conversationId); err != nil {
		return nil, err
	}
	if err := s.requireCurrentMember(conversationId, actor); err != nil {
		return nil, err
	}
	pins, err := s.repos.Pinned.ListByConversation(conversationId)
	if err != nil {
		return nil, storeErr("list pinned", err)
	}
	ids := make([]int64, 0, len(pins))
	for _, p := range pins {
		ids = append(ids, p.MessageUuid)
	}
	msgs, err := s.messageMap(ids)
	if err != nil {
		return nil, err
	}

	out := make([]respond.PinnedRespond, 0, len(pins))
	for _, p := range pins {
		m, ok := msgs[p.MessageUuid]
		if !ok {
			continue
		}
		out = append(out, respond.PinnedRespond{
			Message:  view.Message(m),
			PinnedBy: p.PinnedBy,
			PinnedAt: p.CreatedAt,
		})
	}
	return out, nil
}

// ToggleFavorite 收藏开关，返回操作后是否处于收藏状态
// 当前成员与已退出的成员都可以操作
func (s *messageService) ToggleFavorite(actor string, messageId int64) (bool, error) {
	unlock := s.msgLocks.Lock(lockKey(messageId))
	defer unlock()

	msg, err := s.loadMessage(messageId)
	if err != nil {
		return false, err
	}
	if _, err := s.repos.Member.FindAny(msg.ConversationUuid, actor); err != nil {
		if errorx.IsNotFound(err) {
			return false, errorx.ErrNotAMember
		}
		return false, storeErr("find member history", err)
	}

	if _, err := s.repos.Favorite.Find(actor, messageId); err == nil {
		if err := s.repos.Favorite.Delete(actor, messageId); err != nil {
			return false, storeErr("delete favorite", err)
		}
		return false, nil
	} else if !errorx.IsNotFound(err) {
		return false, storeErr("find favorite", err)
	}

	if msg.IsRevoked {
		return false, errorx.New(errorx.CodeInvalidState, "已撤回的消息不能收藏")
	}
	if err := s.repos.Favorite.Create(&model.FavoriteMessage{
		UserUuid:         actor,
		MessageUuid:      messageId,
		ConversationUuid: msg.ConversationUuid,
	}); err != nil {
		return false, storeErr("create favorite", err)
	}
	return true, nil
}

// ListFavorites 按收藏先后倒序翻页，before 为上一页返回的 next_before
func (s *messageService) ListFavorites(actor string, before int64, limit int) (*respond.FavoritePage, error) {
	limit = clampLimit(limit, defaultFavoritePage)
	var cursor uint
	if before > 0 {
		cursor = uint(before)
	}

	favs, err := s.repos.Favorite.ListBefore(actor, cursor, limit+1)
	if err != nil {
		return nil, storeErr("list favorites", err)
	}
	page := &respond.FavoritePage{Items: []respond.FavoriteRespond{}}
	if len(favs) > limit {
		page.HasMore = true
		favs = favs[:limit]
	}

	ids := make([]int64, 0, len(favs))
	for _, f := range favs {
		ids = append(ids, f.MessageUuid)
	}
	msgs, err := s.messageMap(ids)
	if err != nil {
		return nil, err
	}
	for _, f := range favs {
		m, ok := msgs[f.MessageUuid]
		if !ok {
			continue
		}
		page.Items = append(page.Items, respond.FavoriteRespond{
			Message:     view.Message(m),
			FavoritedAt: f.CreatedAt,
		})
	}
	if page.HasMore && len(favs) > 0 {
		page.NextBefore = int64(favs[len(favs)-1].ID)
	}
	return page, nil
}

// ListMessages 取 seq < before 的最新一页，按 seq 升序返回
func (s *messageService) ListMessages(actor, conversationId string, before int64, limit int) (*respond.MessagePage, error) {
	if _, err := s.loadConversation(conversationId); err != nil {
		return nil, err
	}
	if err := s.requireCurrentMember(conversationId, actor); err != nil {
		return nil, err
	}
	limit = clampLimit(limit, defaultMessagePage)

	rows, err := s.repos.Message.ListBefore(conversationId, before, limit)
	if err != nil {
		return nil, storeErr("list messages", err)
	}

	replyIds := make([]int64, 0)
	for _, m := range rows {
		if m.ReplyToId != 0 {
			replyIds = append(replyIds, m.ReplyToId)
		}
	}
	replies, err := s.messageMap(replyIds)
	if err != nil {
		return nil, err
	}

	page := &respond.MessagePage{
		Messages: make([]respond.MessageRespond, 0, len(rows)),
		HasMore:  len(rows) == limit,
	}
	for i := len(rows) - 1; i >= 0; i-- {
		item := view.Message(&rows[i])
		if r, ok := replies[rows[i].ReplyToId]; ok && r.ConversationUuid == conversationId {
			item.ReplyTo = view.ReplyPreview(r)
		}
		page.Messages = append(page.Messages, item)
	}
	return page, nil
}

func (s *messageService) messageMap(ids []int64) (map[int64]*model.Message, error) {
	out := make(map[int64]*model.Message, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	msgs, err := s.repos.Message.FindByUuids(ids)
	if err != nil {
		return nil, storeErr("find messages", err)
	}
	for i := range msgs {
		out[msgs[i].Uuid] = &msgs[i]
	}
	return out, nil
}

func clampLimit(limit, def int) int {
	if limit <= 0 {
		return def
	}
	if limit > maxPage {
		return maxPage
	}
	return limit
}
