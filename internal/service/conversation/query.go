package conversation

import (
	"sort"
	"time"

	"kama_chat_hub/internal/dto/respond"
	"kama_chat_hub/internal/model"
	"kama_chat_hub/internal/service/guard"
	"kama_chat_hub/internal/service/view"
	"kama_chat_hub/pkg/constants"
)

// ListConversations 当前用户的会话列表，按最近活跃排序
func (s *conversationService) ListConversations(actor string) ([]respond.ConversationRespond, error) {
	ids, err := s.repos.Member.ConversationIdsByUser(actor)
	if err != nil {
		return nil, storeErr("list conversation ids", err)
	}
	if len(ids) == 0 {
		return []respond.ConversationRespond{}, nil
	}
	convs, err := s.repos.Conversation.FindByUuids(ids)
	if err != nil {
		return nil, storeErr("list conversations", err)
	}
	list, err := s.assemble(actor, convs)
	if err != nil {
		return nil, err
	}
	sort.SliceStable(list, func(i, j int) bool {
		return activeAt(list[i]).After(activeAt(list[j]))
	})
	return list, nil
}

// GetSettings 会话设置页：成员列表与自己的角色
func (s *conversationService) GetSettings(actor, conversationId string) (*respond.SettingsRespond, error) {
	conv, err := s.loadConversation(conversationId)
	if err != nil {
		return nil, err
	}
	me, err := s.findMember(conversationId, actor)
	if err != nil {
		return nil, err
	}
	if err := guard.RequireMember(me); err != nil {
		return nil, err
	}

	base, err := s.viewOne(actor, conv)
	if err != nil {
		return nil, err
	}
	rows, err := s.repos.Member.ListWithUserInfo(conversationId)
	if err != nil {
		return nil, storeErr("list members with user info", err)
	}
	members := make([]respond.MemberRespond, 0, len(rows))
	for _, r := range rows {
		members = append(members, respond.MemberRespond{
			UserBrief: respond.UserBrief{
				UserId:      r.UserId,
				Username:    r.Username,
				Avatar:      r.Avatar,
				AvatarEmoji: r.AvatarEmoji,
			},
			Role:     view.RoleName(r.Role),
			JoinedAt: r.JoinedAt,
		})
	}
	return &respond.SettingsRespond{
		ConversationRespond: *base,
		Members:             members,
		MyRole:              view.RoleName(me.Role),
	}, nil
}

func (s *conversationService) viewOne(actor string, conv *model.Conversation) (*respond.ConversationRespond, error) {
	list, err := s.assemble(actor, []model.Conversation{*conv})
	if err != nil {
		return nil, err
	}
	return &list[0], nil
}

// assemble 批量查询成员、用户与最后一条消息，计算展示名称
func (s *conversationService) assemble(actor string, convs []model.Conversation) ([]respond.ConversationRespond, error) {
	ids := make([]string, 0, len(convs))
	for _, c := range convs {
		ids = append(ids, c.Uuid)
	}

	members, err := s.repos.Member.ListByConversations(ids)
	if err != nil {
		return nil, storeErr("list members", err)
	}
	memberIds := make(map[string][]string, len(convs))
	userSet := map[string]struct{}{actor: {}}
	for _, m := range members {
		memberIds[m.ConversationUuid] = append(memberIds[m.ConversationUuid], m.UserUuid)
		userSet[m.UserUuid] = struct{}{}
	}

	uids := make([]string, 0, len(userSet))
	for id := range userSet {
		uids = append(uids, id)
	}
	users, err := s.repos.User.FindByUuids(uids)
	if err != nil {
		return nil, storeErr("list users", err)
	}
	userMap := make(map[string]*model.UserInfo, len(users))
	for i := range users {
		userMap[users[i].Uuid] = &users[i]
	}

	latest, err := s.repos.Message.FindLatest(ids)
	if err != nil {
		return nil, storeErr("find latest messages", err)
	}
	latestMap := make(map[string]*model.Message, len(latest))
	for i := range latest {
		latestMap[latest[i].ConversationUuid] = &latest[i]
	}

	out := make([]respond.ConversationRespond, 0, len(convs))
	for _, c := range convs {
		item := respond.ConversationRespond{
			ConversationId: c.Uuid,
			Kind:           view.KindName(c.Kind),
			MemberIds:      memberIds[c.Uuid],
			LastMessageAt:  c.LastMessageAt,
			CreatedAt:      c.CreatedAt,
		}
		if item.MemberIds == nil {
			item.MemberIds = []string{}
		}
		switch c.Kind {
		case constants.CONVERSATION_GROUP:
			item.Name = c.Name
			item.Avatar = c.Avatar
			item.Announcement = c.Announcement
			item.OwnerId = c.OwnerId
		case constants.CONVERSATION_SELF:
			item.Name = constants.SELF_CHAT_NAME
			if u := userMap[actor]; u != nil {
				item.Name = u.Username
				item.Avatar = u.Avatar
				item.AvatarEmoji = u.AvatarEmoji
			}
			item.PeerId = actor
		default:
			for _, uid := range item.MemberIds {
				if uid == actor {
					continue
				}
				item.PeerId = uid
				if u := userMap[uid]; u != nil {
					item.Name = u.Username
					item.Avatar = u.Avatar
					item.AvatarEmoji = u.AvatarEmoji
				}
			}
		}
		if m := latestMap[c.Uuid]; m != nil {
			mv := view.Message(m)
			item.LastMessage = &mv
		}
		out = append(out, item)
	}
	return out, nil
}

func activeAt(c respond.ConversationRespond) time.Time {
	if c.LastMessageAt != nil {
		return *c.LastMessageAt
	}
	return c.CreatedAt
}
