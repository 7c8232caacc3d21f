// Package conversation 会话注册表：私聊/群聊/自聊的创建、成员与角色管理
package conversation

import (
	"context"
	"strings"
	"unicode/utf8"

	"go.uber.org/zap"

	"kama_chat_hub/internal/config"
	"kama_chat_hub/internal/dao/mysql/repository"
	"kama_chat_hub/internal/dto/respond"
	"kama_chat_hub/internal/event"
	"kama_chat_hub/internal/model"
	"kama_chat_hub/internal/service/audience"
	"kama_chat_hub/internal/service/guard"
	"kama_chat_hub/internal/service/view"
	"kama_chat_hub/pkg/constants"
	"kama_chat_hub/pkg/errorx"
	"kama_chat_hub/pkg/util/keylock"
	"kama_chat_hub/pkg/util/random"
)

// conversationService 会话业务逻辑实现
type conversationService struct {
	repos     *repository.Repositories
	members   *audience.Members
	publisher event.Publisher
	chat      config.ChatConfig
	locks     *keylock.KeyLock
}

// NewConversationService 构造函数，注入所有依赖
func NewConversationService(repos *repository.Repositories, members *audience.Members, publisher event.Publisher, chat config.ChatConfig) *conversationService {
	return &conversationService{
		repos:     repos,
		members:   members,
		publisher: publisher,
		chat:      chat,
		locks:     keylock.New(),
	}
}

// CreatePrivate 发起私聊，同一对用户重复调用返回同一个会话
func (s *conversationService) CreatePrivate(ctx context.Context, actor, peerId string) (*respond.ConversationRespond, error) {
	if actor == peerId {
		return nil, errorx.ErrSelfPairNotAllowed
	}
	if _, err := s.repos.User.FindByUuid(peerId); err != nil {
		if errorx.IsNotFound(err) {
			return nil, errorx.New(errorx.CodeNotFound, "用户不存在")
		}
		return nil, storeErr("find peer", err)
	}
	if s.chat.PrivateChatRequiresFriend {
		f, err := s.repos.Friendship.FindByPair(actor, peerId)
		if err != nil && !errorx.IsNotFound(err) {
			return nil, storeErr("find friendship", err)
		}
		if f == nil || f.Status != constants.FRIEND_ACCEPTED {
			return nil, errorx.New(errorx.CodeForbidden, "仅能与好友发起私聊")
		}
	}

	a, b := model.OrderedPair(actor, peerId)
	conv, created, err := s.findOrCreatePaired(a+":"+b, constants.CONVERSATION_PRIVATE, actor, a, b)
	if err != nil {
		return nil, err
	}
	if created {
		s.publish(ctx, event.ToUsers(event.ConversationCreated, conv.Uuid,
			respond.ConversationRef{ConversationId: conv.Uuid}, a, b))
	}
	return s.viewOne(actor, conv)
}

// CreateSelfChat 自聊会话，每个用户至多一个
func (s *conversationService) CreateSelfChat(ctx context.Context, actor string) (*respond.ConversationRespond, error) {
	conv, created, err := s.findOrCreatePaired("self:"+actor, constants.CONVERSATION_SELF, actor, actor)
	if err != nil {
		return nil, err
	}
	if created {
		s.publish(ctx, event.ToUsers(event.ConversationCreated, conv.Uuid,
			respond.ConversationRef{ConversationId: conv.Uuid}, actor))
	}
	return s.viewOne(actor, conv)
}

// findOrCreatePaired 按配对键查找，不存在则创建，成员均无角色
func (s *conversationService) findOrCreatePaired(pairKey string, kind int8, creator string, memberIds ...string) (*model.Conversation, bool, error) {
	unlock := s.locks.Lock("pair:" + pairKey)
	defer unlock()

	conv, err := s.repos.Conversation.FindByPairKey(pairKey)
	if err == nil {
		return conv, false, nil
	}
	if !errorx.IsNotFound(err) {
		return nil, false, storeErr("find conversation by pair key", err)
	}

	conv = &model.Conversation{
		Uuid:      random.NewID(constants.CONVERSATION_ID_PREFIX),
		Kind:      kind,
		CreatorId: creator,
		PairKey:   &pairKey,
	}
	err = s.repos.Transaction(func(txRepos *repository.Repositories) error {
		if err := txRepos.Conversation.Create(conv); err != nil {
			return err
		}
		for _, uid := range memberIds {
			if err := txRepos.Member.Create(&model.ConversationMember{
				ConversationUuid: conv.Uuid,
				UserUuid:         uid,
				Role:             constants.ROLE_NONE,
			}); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		// 其他进程抢先创建时唯一索引冲突，回读即可
		if repository.IsDuplicate(err) {
			if existing, findErr := s.repos.Conversation.FindByPairKey(pairKey); findErr == nil {
				return existing, false, nil
			}
		}
		return nil, false, storeErr("create paired conversation", err)
	}
	zap.L().Info("conversation created", zap.String("conversation_id", conv.Uuid), zap.Int8("kind", kind))
	return conv, true, nil
}

// CreateGroup 创建群聊，创建者为群主
func (s *conversationService) CreateGroup(ctx context.Context, actor, name string, memberIds []string) (*respond.ConversationRespond, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		name = constants.DEFAULT_GROUP_NAME
	}
	if utf8.RuneCountInString(name) > s.chat.MaxGroupNameLength {
		return nil, errorx.Newf(errorx.CodeValidation, "群名称不能超过%d个字符", s.chat.MaxGroupNameLength)
	}

	ids := dedupe(memberIds, actor)
	if len(ids) == 0 {
		return nil, errorx.ErrEmptyMemberList
	}
	users, err := s.repos.User.FindByUuids(ids)
	if err != nil {
		return nil, storeErr("find group members", err)
	}
	if len(users) != len(ids) {
		return nil, errorx.New(errorx.CodeNotFound, "部分用户不存在")
	}

	conv := &model.Conversation{
		Uuid:      random.NewID(constants.CONVERSATION_ID_PREFIX),
		Kind:      constants.CONVERSATION_GROUP,
		Name:      name,
		OwnerId:   actor,
		CreatorId: actor,
	}
	err = s.repos.Transaction(func(txRepos *repository.Repositories) error {
		if err := txRepos.Conversation.Create(conv); err != nil {
			return err
		}
		if err := txRepos.Member.Create(&model.ConversationMember{
			ConversationUuid: conv.Uuid, UserUuid: actor, Role: constants.ROLE_OWNER,
		}); err != nil {
			return err
		}
		for _, uid := range ids {
			if err := txRepos.Member.Create(&model.ConversationMember{
				ConversationUuid: conv.Uuid, UserUuid: uid, Role: constants.ROLE_MEMBER,
			}); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, storeErr("create group", err)
	}
	zap.L().Info("group created", zap.String("conversation_id", conv.Uuid), zap.Int("members", len(ids)+1))

	s.publish(ctx, event.ToUsers(event.ConversationCreated, conv.Uuid,
		respond.ConversationRef{ConversationId: conv.Uuid}, append([]string{actor}, ids...)...))
	return s.viewOne(actor, conv)
}

// Rename 修改群名
func (s *conversationService) Rename(ctx context.Context, actor, conversationId, name string) error {
	return s.updateGroup(ctx, actor, conversationId, func() (map[string]any, error) {
		name = strings.TrimSpace(name)
		if name == "" {
			return nil, errorx.ErrEmptyName
		}
		if utf8.RuneCountInString(name) > s.chat.MaxGroupNameLength {
			return nil, errorx.Newf(errorx.CodeValidation, "群名称不能超过%d个字符", s.chat.MaxGroupNameLength)
		}
		return map[string]any{"name": name}, nil
	})
}

// SetAnnouncement 修改群公告，允许清空
func (s *conversationService) SetAnnouncement(ctx context.Context, actor, conversationId, announcement string) error {
	return s.updateGroup(ctx, actor, conversationId, func() (map[string]any, error) {
		announcement = strings.TrimSpace(announcement)
		if utf8.RuneCountInString(announcement) > s.chat.MaxAnnouncementLength {
			return nil, errorx.Newf(errorx.CodeValidation, "群公告不能超过%d个字符", s.chat.MaxAnnouncementLength)
		}
		return map[string]any{"announcement": announcement}, nil
	})
}

// SetAvatar 修改群头像，只接受 http(s) 地址或站内 /static/ 路径
func (s *conversationService) SetAvatar(ctx context.Context, actor, conversationId, avatar string) error {
	return s.updateGroup(ctx, actor, conversationId, func() (map[string]any, error) {
		avatar = strings.TrimSpace(avatar)
		if !view.ValidMediaRef(avatar) {
			return nil, errorx.New(errorx.CodeValidation, "头像地址无效")
		}
		return map[string]any{"avatar": avatar}, nil
	})
}

// updateGroup 先鉴权再由 fields 校验参数，非成员拿不到字段校验的结果
func (s *conversationService) updateGroup(ctx context.Context, actor, conversationId string, fields func() (map[string]any, error)) error {
	unlock := s.locks.Lock("members:" + conversationId)
	defer unlock()

	conv, _, err := s.authorizeGroup(conversationId, actor, constants.ROLE_ADMIN)
	if err != nil {
		return err
	}
	updates, err := fields()
	if err != nil {
		return err
	}
	if err := s.repos.Conversation.Update(conversationId, updates); err != nil {
		return storeErr("update group", err)
	}
	if conv, err = s.repos.Conversation.FindByUuid(conversationId); err != nil {
		return storeErr("reload group", err)
	}
	s.publishGroupUpdated(ctx, conv)
	return nil
}

// AddMember 拉人入群，曾经退出的成员恢复原记录
func (s *conversationService) AddMember(ctx context.Context, actor, conversationId, userId string) error {
	unlock := s.locks.Lock("members:" + conversationId)
	defer unlock()

	if _, _, err := s.authorizeGroup(conversationId, actor, constants.ROLE_ADMIN); err != nil {
		return err
	}
	if _, err := s.repos.User.FindByUuid(userId); err != nil {
		if errorx.IsNotFound(err) {
			return errorx.New(errorx.CodeNotFound, "用户不存在")
		}
		return storeErr("find user", err)
	}

	existing, err := s.repos.Member.FindAny(conversationId, userId)
	switch {
	case err == nil && !existing.DeletedAt.Valid:
		return errorx.ErrAlreadyMember
	case err == nil:
		err = s.repos.Member.Restore(conversationId, userId, constants.ROLE_MEMBER)
	case errorx.IsNotFound(err):
		err = s.repos.Member.Create(&model.ConversationMember{
			ConversationUuid: conversationId, UserUuid: userId, Role: constants.ROLE_MEMBER,
		})
	}
	if err != nil {
		return storeErr("add member", err)
	}
	s.members.Invalidate(ctx, conversationId)

	s.publish(ctx, event.ToUsers(event.ConversationCreated, conversationId,
		respond.ConversationRef{ConversationId: conversationId}, userId))
	s.publishMembersChanged(ctx, conversationId, respond.MembersChangedEvent{
		ConversationId: conversationId, Action: "added", UserIds: []string{userId},
	})
	return nil
}

// RemoveMember 移出成员，管理员不能移出同级或更高角色
func (s *conversationService) RemoveMember(ctx context.Context, actor, conversationId, userId string) error {
	unlock := s.locks.Lock("members:" + conversationId)
	defer unlock()

	conv, actorMember, err := s.authorizeGroup(conversationId, actor, constants.ROLE_ADMIN)
	if err != nil {
		return err
	}
	if userId == conv.OwnerId {
		return errorx.ErrCannotRemoveOwner
	}
	target, err := s.findMember(conversationId, userId)
	if err != nil {
		return err
	}
	if target == nil {
		return errorx.New(errorx.CodeNotFound, "该用户不在群内")
	}
	if target.Role >= actorMember.Role {
		return errorx.ErrForbidden
	}

	if err := s.repos.Member.Delete(conversationId, userId); err != nil {
		return storeErr("remove member", err)
	}
	s.members.Invalidate(ctx, conversationId)

	s.publish(ctx, event.ToUsers(event.ConversationRemoved, conversationId,
		respond.ConversationRemovedEvent{ConversationId: conversationId, Reason: "removed"}, userId).WithEvict(userId))
	s.publishMembersChanged(ctx, conversationId, respond.MembersChangedEvent{
		ConversationId: conversationId, Action: "removed", UserIds: []string{userId},
	})
	return nil
}

// SetRole 群主设置管理员或普通成员
func (s *conversationService) SetRole(ctx context.Context, actor, conversationId, userId, roleName string) error {
	role, ok := view.ParseRole(roleName)
	if !ok {
		return errorx.New(errorx.CodeValidation, "角色只能是 admin 或 member")
	}

	unlock := s.locks.Lock("members:" + conversationId)
	defer unlock()

	conv, _, err := s.authorizeGroup(conversationId, actor, constants.ROLE_OWNER)
	if err != nil {
		return err
	}
	if userId == conv.OwnerId {
		return errorx.ErrCannotDemoteOwner
	}
	target, err := s.findMember(conversationId, userId)
	if err != nil {
		return err
	}
	if target == nil {
		return errorx.New(errorx.CodeNotFound, "该用户不在群内")
	}
	if target.Role == role {
		return nil
	}
	if err := s.repos.Member.UpdateRole(conversationId, userId, role); err != nil {
		return storeErr("update role", err)
	}

	s.publishMembersChanged(ctx, conversationId, respond.MembersChangedEvent{
		ConversationId: conversationId, Action: "role", UserIds: []string{userId}, Role: roleName,
	})
	return nil
}

// TransferOwnership 转让群主，原群主降为管理员
func (s *conversationService) TransferOwnership(ctx context.Context, actor, conversationId, newOwnerId string) error {
	if actor == newOwnerId {
		return errorx.New(errorx.CodeSelfPairNotAllowed, "不能转让给自己")
	}

	unlock := s.locks.Lock("members:" + conversationId)
	defer unlock()

	if _, _, err := s.authorizeGroup(conversationId, actor, constants.ROLE_OWNER); err != nil {
		return err
	}
	target, err := s.findMember(conversationId, newOwnerId)
	if err != nil {
		return err
	}
	if target == nil {
		return errorx.New(errorx.CodeNotFound, "该用户不在群内")
	}

	err = s.repos.Transaction(func(txRepos *repository.Repositories) error {
		if err := txRepos.Member.UpdateRole(conversationId, newOwnerId, constants.ROLE_OWNER); err != nil {
			return err
		}
		if err := txRepos.Member.UpdateRole(conversationId, actor, constants.ROLE_ADMIN); err != nil {
			return err
		}
		return txRepos.Conversation.Update(conversationId, map[string]any{"owner_id": newOwnerId})
	})
	if err != nil {
		return storeErr("transfer ownership", err)
	}
	zap.L().Info("group ownership transferred", zap.String("conversation_id", conversationId),
		zap.String("from", actor), zap.String("to", newOwnerId))

	conv, err := s.repos.Conversation.FindByUuid(conversationId)
	if err != nil {
		return storeErr("reload group", err)
	}
	s.publishMembersChanged(ctx, conversationId, respond.MembersChangedEvent{
		ConversationId: conversationId, Action: "transfer", UserIds: []string{newOwnerId, actor},
	})
	s.publishGroupUpdated(ctx, conv)
	return nil
}

// Leave 退出群聊，最后一人退出时解散
func (s *conversationService) Leave(ctx context.Context, actor, conversationId string) error {
	unlock := s.locks.Lock("members:" + conversationId)
	defer unlock()

	conv, _, err := s.authorizeGroup(conversationId, actor, constants.ROLE_NONE)
	if err != nil {
		return err
	}

	if actor == conv.OwnerId {
		n, err := s.repos.Member.Count(conversationId)
		if err != nil {
			return storeErr("count members", err)
		}
		if n > 1 {
			return errorx.ErrOwnerCannotLeave
		}
		if err := s.dismiss(conversationId); err != nil {
			return err
		}
		s.members.Invalidate(ctx, conversationId)
		s.publish(ctx, event.ToUsers(event.ConversationRemoved, conversationId,
			respond.ConversationRemovedEvent{ConversationId: conversationId, Reason: "dismissed"}, actor).WithEvict(actor))
		return nil
	}

	if err := s.repos.Member.Delete(conversationId, actor); err != nil {
		return storeErr("leave group", err)
	}
	s.members.Invalidate(ctx, conversationId)

	s.publish(ctx, event.ToUsers(event.ConversationRemoved, conversationId,
		respond.ConversationRemovedEvent{ConversationId: conversationId, Reason: "left"}, actor).WithEvict(actor))
	s.publishMembersChanged(ctx, conversationId, respond.MembersChangedEvent{
		ConversationId: conversationId, Action: "left", UserIds: []string{actor},
	})
	return nil
}

// Dismiss 解散群聊并把全部成员移出房间，调用方负责鉴权
func (s *conversationService) Dismiss(ctx context.Context, conversationId string) error {
	unlock := s.locks.Lock("members:" + conversationId)
	defer unlock()

	conv, err := s.loadConversation(conversationId)
	if err != nil {
		return err
	}
	if err := guard.RequireGroup(conv); err != nil {
		return err
	}
	memberIds, err := s.repos.Member.UserIdsByConversation(conversationId)
	if err != nil {
		return storeErr("list members", err)
	}
	if err := s.dismiss(conversationId); err != nil {
		return err
	}
	s.members.Invalidate(ctx, conversationId)
	s.publish(ctx, event.ToUsers(event.ConversationRemoved, conversationId,
		respond.ConversationRemovedEvent{ConversationId: conversationId, Reason: "dismissed"}, memberIds...).WithEvict(memberIds...))
	return nil
}

// dismiss 级联删除会话及其成员、消息、置顶与收藏
func (s *conversationService) dismiss(conversationId string) error {
	err := s.repos.Transaction(func(txRepos *repository.Repositories) error {
		if err := txRepos.Pinned.DeleteByConversation(conversationId); err != nil {
			return err
		}
		if err := txRepos.Favorite.DeleteByConversation(conversationId); err != nil {
			return err
		}
		if err := txRepos.Message.HardDeleteByConversation(conversationId); err != nil {
			return err
		}
		if err := txRepos.Member.HardDeleteByConversation(conversationId); err != nil {
			return err
		}
		return txRepos.Conversation.HardDelete(conversationId)
	})
	if err != nil {
		return storeErr("dismiss conversation", err)
	}
	zap.L().Info("conversation dismissed", zap.String("conversation_id", conversationId))
	return nil
}

// IsMember 供实时通道订阅房间前校验
func (s *conversationService) IsMember(_ context.Context, conversationId, userId string) (bool, error) {
	m, err := s.findMember(conversationId, userId)
	if err != nil {
		return false, err
	}
	return m != nil, nil
}

// authorizeGroup 依次校验：会话存在、是成员、是群聊、角色不低于 minRole
func (s *conversationService) authorizeGroup(conversationId, actor string, minRole int8) (*model.Conversation, *model.ConversationMember, error) {
	conv, err := s.loadConversation(conversationId)
	if err != nil {
		return nil, nil, err
	}
	member, err := s.findMember(conversationId, actor)
	if err != nil {
		return nil, nil, err
	}
	if err := guard.RequireMember(member); err != nil {
		return nil, nil, err
	}
	if err := guard.RequireGroup(conv); err != nil {
		return nil, nil, err
	}
	if err := guard.RequireRole(member, minRole); err != nil {
		return nil, nil, err
	}
	return conv, member, nil
}

func (s *conversationService) loadConversation(conversationId string) (*model.Conversation, error) {
	conv, err := s.repos.Conversation.FindByUuid(conversationId)
	if err != nil {
		if errorx.IsNotFound(err) {
			return nil, errorx.New(errorx.CodeNotFound, "会话不存在")
		}
		return nil, storeErr("find conversation", err)
	}
	return conv, nil
}

// findMember 不是成员时返回 nil, nil
func (s *conversationService) findMember(conversationId, userId string) (*model.ConversationMember, error) {
	m, err := s.repos.Member.Find(conversationId, userId)
	if err != nil {
		if errorx.IsNotFound(err) {
			return nil, nil
		}
		return nil, storeErr("find member", err)
	}
	return m, nil
}

func (s *conversationService) publishGroupUpdated(ctx context.Context, conv *model.Conversation) {
	ids, err := s.members.Of(ctx, conv.Uuid)
	if err != nil {
		zap.L().Error("load audience", zap.String("conversation_id", conv.Uuid), zap.Error(err))
		return
	}
	s.publish(ctx, event.ToUsers(event.GroupUpdated, conv.Uuid, respond.GroupUpdatedEvent{
		ConversationId: conv.Uuid,
		Name:           conv.Name,
		Avatar:         conv.Avatar,
		Announcement:   conv.Announcement,
		OwnerId:        conv.OwnerId,
	}, ids...))
}

func (s *conversationService) publishMembersChanged(ctx context.Context, conversationId string, payload respond.MembersChangedEvent) {
	ids, err := s.members.Of(ctx, conversationId)
	if err != nil {
		zap.L().Error("load audience", zap.String("conversation_id", conversationId), zap.Error(err))
		return
	}
	s.publish(ctx, event.ToUsers(event.MembersChanged, conversationId, payload, ids...))
}

// publish 实时事件尽力而为，失败只记录日志
func (s *conversationService) publish(ctx context.Context, events ...event.Event) {
	if err := s.publisher.Publish(ctx, events...); err != nil {
		zap.L().Warn("publish conversation events", zap.Error(err))
	}
}

// storeErr 持久化错误记录日志后统一返回服务繁忙，业务错误原样返回
func storeErr(op string, err error) error {
	if errorx.IsInternal(err) {
		zap.L().Error(op, zap.Error(err))
		return errorx.ErrServerBusy
	}
	return err
}

func dedupe(ids []string, exclude string) []string {
	seen := make(map[string]struct{}, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		id = strings.TrimSpace(id)
		if id == "" || id == exclude {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}

