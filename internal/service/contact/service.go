// Package contact 好友关系状态机：申请、同意、拒绝、删除
// 与会话相互独立，成为好友不会自动创建私聊
package contact

import (
	"context"
	"time"

	"go.uber.org/zap"

	"kama_chat_hub/internal/dao/mysql/repository"
	"kama_chat_hub/internal/dto/respond"
	"kama_chat_hub/internal/event"
	"kama_chat_hub/internal/model"
	"kama_chat_hub/internal/service/view"
	"kama_chat_hub/pkg/constants"
	"kama_chat_hub/pkg/errorx"
	"kama_chat_hub/pkg/util/keylock"
	"kama_chat_hub/pkg/util/random"
)

// 与对方的关系
const (
	RelationSelf       = "self"
	RelationFriend     = "friend"
	RelationPendingOut = "pending_out"
	RelationPendingIn  = "pending_in"
	RelationNone       = "none"
)

// contactService 好友业务逻辑实现
type contactService struct {
	repos     *repository.Repositories
	publisher event.Publisher
	locks     *keylock.KeyLock
}

// NewContactService 构造函数
func NewContactService(repos *repository.Repositories, publisher event.Publisher) *contactService {
	return &contactService{
		repos:     repos,
		publisher: publisher,
		locks:     keylock.New(),
	}
}

// SendRequest 发送好友请求；对方已向自己发起时直接成为好友
func (s *contactService) SendRequest(ctx context.Context, actor, to string) (*respond.SendFriendRequestRespond, error) {
	if actor == to {
		return nil, errorx.ErrSelfPairNotAllowed
	}
	users, err := s.repos.User.FindByUuids([]string{actor, to})
	if err != nil {
		return nil, storeErr("find users", err)
	}
	var from *model.UserInfo
	found := false
	for i := range users {
		switch users[i].Uuid {
		case actor:
			from = &users[i]
		case to:
			found = true
		}
	}
	if !found || from == nil {
		return nil, errorx.New(errorx.CodeNotFound, "用户不存在")
	}

	unlock := s.locks.Lock(pairKey(actor, to))
	defer unlock()

	existing, err := s.repos.Friendship.FindByPair(actor, to)
	if err != nil && !errorx.IsNotFound(err) {
		return nil, storeErr("find friendship", err)
	}
	if existing != nil {
		switch {
		case existing.Status == constants.FRIEND_ACCEPTED:
			return nil, errorx.ErrAlreadyFriends
		case existing.InitiatedBy == actor:
			return nil, errorx.ErrAlreadyPending
		}
		// 对方先发起过，直接通过
		if err := s.repos.Friendship.Accept(existing.Uuid, time.Now()); err != nil {
			return nil, storeErr("accept reverse request", err)
		}
		s.publish(ctx, event.ToUsers(event.FriendRequestResolved, "", respond.FriendRequestResolvedEvent{
			RequestId: existing.Uuid, UserId: actor, Accepted: true,
		}, to))
		return &respond.SendFriendRequestRespond{RequestId: existing.Uuid, Status: "accepted"}, nil
	}

	f := &model.Friendship{
		Uuid:        random.NewID(constants.FRIEND_ID_PREFIX),
		UserA:       actor,
		UserB:       to,
		InitiatedBy: actor,
		Status:      constants.FRIEND_PENDING,
	}
	if err := s.repos.Friendship.Create(f); err != nil {
		if repository.IsDuplicate(err) {
			return nil, errorx.ErrAlreadyPending
		}
		return nil, storeErr("create friend request", err)
	}

	s.publish(ctx, event.ToUsers(event.FriendRequest, "", respond.FriendRequestEvent{
		RequestId: f.Uuid, FromId: actor, FromName: from.Username,
	}, to))
	return &respond.SendFriendRequestRespond{RequestId: f.Uuid, Status: "pending"}, nil
}

// Accept 只有接收方可以同意
func (s *contactService) Accept(ctx context.Context, actor, requestId string) error {
	f, unlock, err := s.lockIncoming(actor, requestId)
	if err != nil {
		return err
	}
	defer unlock()

	if f.Status == constants.FRIEND_ACCEPTED {
		return errorx.ErrAlreadyFriends
	}
	if err := s.repos.Friendship.Accept(f.Uuid, time.Now()); err != nil {
		if errorx.IsNotFound(err) {
			return errorx.New(errorx.CodeNotFound, "好友请求不存在")
		}
		return storeErr("accept friend request", err)
	}

	s.publish(ctx, event.ToUsers(event.FriendRequestResolved, "", respond.FriendRequestResolvedEvent{
		RequestId: f.Uuid, UserId: actor, Accepted: true,
	}, f.InitiatedBy))
	return nil
}

// Reject 拒绝即删除该行，之后可以重新申请
func (s *contactService) Reject(ctx context.Context, actor, requestId string) error {
	f, unlock, err := s.lockIncoming(actor, requestId)
	if err != nil {
		return err
	}
	defer unlock()

	if f.Status == constants.FRIEND_ACCEPTED {
		return errorx.New(errorx.CodeInvalidState, "已经是好友，请使用删除好友")
	}
	if err := s.repos.Friendship.Delete(f.Uuid); err != nil {
		return storeErr("reject friend request", err)
	}

	s.publish(ctx, event.ToUsers(event.FriendRequestResolved, "", respond.FriendRequestResolvedEvent{
		RequestId: f.Uuid, UserId: actor, Accepted: false,
	}, f.InitiatedBy))
	return nil
}

// lockIncoming 加锁后重新读取请求，校验 actor 是接收方
func (s *contactService) lockIncoming(actor, requestId string) (*model.Friendship, func(), error) {
	f, err := s.findRequest(requestId)
	if err != nil {
		return nil, nil, err
	}
	unlock := s.locks.Lock(pairKey(f.UserA, f.UserB))
	if f, err = s.findRequest(requestId); err != nil {
		unlock()
		return nil, nil, err
	}
	if f.UserA != actor && f.UserB != actor {
		unlock()
		return nil, nil, errorx.New(errorx.CodeNotFound, "好友请求不存在")
	}
	if f.Status == constants.FRIEND_PENDING && f.InitiatedBy == actor {
		unlock()
		return nil, nil, errorx.New(errorx.CodeForbidden, "不能处理自己发出的请求")
	}
	return f, unlock, nil
}

func (s *contactService) findRequest(requestId string) (*model.Friendship, error) {
	f, err := s.repos.Friendship.FindByUuid(requestId)
	if err != nil {
		if errorx.IsNotFound(err) {
			return nil, errorx.New(errorx.CodeNotFound, "好友请求不存在")
		}
		return nil, storeErr("find friend request", err)
	}
	return f, nil
}

// Remove 删除好友，只对已通过的关系生效
func (s *contactService) Remove(ctx context.Context, actor, friendId string) error {
	unlock := s.locks.Lock(pairKey(actor, friendId))
	defer unlock()

	f, err := s.repos.Friendship.FindByPair(actor, friendId)
	if err != nil && !errorx.IsNotFound(err) {
		return storeErr("find friendship", err)
	}
	if f == nil || f.Status != constants.FRIEND_ACCEPTED {
		return errorx.New(errorx.CodeNotFound, "好友关系不存在")
	}
	if err := s.repos.Friendship.Delete(f.Uuid); err != nil {
		return storeErr("remove friend", err)
	}

	s.publish(ctx, event.ToUsers(event.FriendRemoved, "", respond.FriendRemovedEvent{UserId: actor}, friendId))
	return nil
}

// ListContacts 好友与待处理的请求
func (s *contactService) ListContacts(actor string) (*respond.ContactsRespond, error) {
	rows, err := s.repos.Friendship.ListByUser(actor)
	if err != nil {
		return nil, storeErr("list friendships", err)
	}
	others := make([]string, 0, len(rows))
	for i := range rows {
		others = append(others, rows[i].Other(actor))
	}
	users, err := s.repos.User.FindByUuids(others)
	if err != nil {
		return nil, storeErr("find contacts", err)
	}
	userMap := make(map[string]*model.UserInfo, len(users))
	for i := range users {
		userMap[users[i].Uuid] = &users[i]
	}

	out := &respond.ContactsRespond{
		Friends:  []respond.FriendRespond{},
		Incoming: []respond.FriendRequestRespond{},
		Outgoing: []respond.FriendRequestRespond{},
	}
	for i := range rows {
		f := &rows[i]
		u, ok := userMap[f.Other(actor)]
		if !ok {
			continue
		}
		brief := view.UserBrief(u)
		switch {
		case f.Status == constants.FRIEND_ACCEPTED:
			since := f.CreatedAt
			if f.AcceptedAt != nil {
				since = *f.AcceptedAt
			}
			out.Friends = append(out.Friends, respond.FriendRespond{UserBrief: brief, Since: since})
		case f.InitiatedBy == actor:
			out.Outgoing = append(out.Outgoing, respond.FriendRequestRespond{RequestId: f.Uuid, User: brief, CreatedAt: f.CreatedAt})
		default:
			out.Incoming = append(out.Incoming, respond.FriendRequestRespond{RequestId: f.Uuid, User: brief, CreatedAt: f.CreatedAt})
		}
	}
	out.PendingCount = len(out.Incoming)
	return out, nil
}

// RelationInfo 与某个用户的关系，待确认时带上请求 ID
type RelationInfo struct {
	Relation  string
	RequestId string
}

// Relations 批量计算 viewer 与 others 的关系
func (s *contactService) Relations(viewer string, others []string) (map[string]RelationInfo, error) {
	rows, err := s.repos.Friendship.ListBetween(viewer, others)
	if err != nil {
		return nil, storeErr("list relations", err)
	}
	out := make(map[string]RelationInfo, len(others))
	for _, id := range others {
		out[id] = RelationInfo{Relation: RelationNone}
	}
	out[viewer] = RelationInfo{Relation: RelationSelf}
	for i := range rows {
		f := &rows[i]
		out[f.Other(viewer)] = relationOf(viewer, f)
	}
	return out, nil
}

// Relation 单个用户的关系
func (s *contactService) Relation(viewer, other string) (RelationInfo, error) {
	m, err := s.Relations(viewer, []string{other})
	if err != nil {
		return RelationInfo{}, err
	}
	return m[other], nil
}

func relationOf(viewer string, f *model.Friendship) RelationInfo {
	switch {
	case f.Status == constants.FRIEND_ACCEPTED:
		return RelationInfo{Relation: RelationFriend}
	case f.InitiatedBy == viewer:
		return RelationInfo{Relation: RelationPendingOut, RequestId: f.Uuid}
	default:
		return RelationInfo{Relation: RelationPendingIn, RequestId: f.Uuid}
	}
}

func (s *contactService) publish(ctx context.Context, events ...event.Event) {
	if err := s.publisher.Publish(ctx, events...); err != nil {
		zap.L().Warn("publish contact events", zap.Error(err))
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

func pairKey(a, b string) string {
	x, y := model.OrderedPair(a, b)
	return x + ":" + y
}
