// Package message 消息引擎：发送、编辑、撤回、转发、置顶、收藏与历史查询
package message

import (
	"context"
	"path"
	"strings"
	"time"
	"unicode/utf8"

	"go.uber.org/zap"

	"kama_chat_hub/internal/config"
	"kama_chat_hub/internal/dao/mysql/repository"
	"kama_chat_hub/internal/dto/request"
	"kama_chat_hub/internal/dto/respond"
	"kama_chat_hub/internal/event"
	"kama_chat_hub/internal/infrastructure/metrics"
	"kama_chat_hub/internal/model"
	"kama_chat_hub/internal/service/audience"
	"kama_chat_hub/internal/service/guard"
	"kama_chat_hub/internal/service/view"
	"kama_chat_hub/pkg/constants"
	"kama_chat_hub/pkg/errorx"
	"kama_chat_hub/pkg/util/keylock"
	"kama_chat_hub/pkg/util/snowflake"
)

var allowedTypes = map[string]bool{
	constants.MSG_TEXT:  true,
	constants.MSG_IMAGE: true,
	constants.MSG_AUDIO: true,
	constants.MSG_VIDEO: true,
	constants.MSG_FILE:  true,
}

// messageService 消息业务逻辑实现
type messageService struct {
	repos     *repository.Repositories
	members   *audience.Members
	publisher event.Publisher
	chat      config.ChatConfig

	// seqLocks 按会话串行分配序号，msgLocks 按消息串行编辑与撤回
	seqLocks *keylock.KeyLock
	msgLocks *keylock.KeyLock
	pinLocks *keylock.KeyLock
	limiter  *limiterPool
}

// NewMessageService 构造函数，注入所有依赖
func NewMessageService(repos *repository.Repositories, members *audience.Members, publisher event.Publisher, chat config.ChatConfig) *messageService {
	return &messageService{
		repos:     repos,
		members:   members,
		publisher: publisher,
		chat:      chat,
		seqLocks:  keylock.New(),
		msgLocks:  keylock.New(),
		pinLocks:  keylock.New(),
		limiter:   newLimiterPool(chat.SendRate, chat.SendBurst),
	}
}

// Send 发送消息，落库成功后才会广播
func (s *messageService) Send(ctx context.Context, actor string, req request.SendMessageRequest) (*respond.MessageRespond, error) {
	conv, err := s.loadConversation(req.ConversationId)
	if err != nil {
		return nil, err
	}
	member, err := s.findMember(conv.Uuid, actor)
	if err != nil {
		return nil, err
	}
	if err := guard.RequireMember(member); err != nil {
		return nil, err
	}
	sender, err := s.loadSender(actor)
	if err != nil {
		return nil, err
	}

	msg, err := s.buildMessage(req)
	if err != nil {
		return nil, err
	}

	var reply *model.Message
	if req.ReplyToId != 0 {
		reply, err = s.repos.Message.FindByUuid(req.ReplyToId.Int64())
		if err != nil {
			if errorx.IsNotFound(err) {
				return nil, errorx.ErrInvalidReply
			}
			return nil, storeErr("find reply target", err)
		}
		if reply.ConversationUuid != conv.Uuid {
			return nil, errorx.ErrInvalidReply
		}
		if reply.IsRevoked {
			return nil, errorx.New(errorx.CodeInvalidState, "不能回复已撤回的消息")
		}
		msg.ReplyToId = reply.Uuid
	}

	if !s.limiter.Allow(actor) {
		metrics.RateLimited.Inc()
		return nil, errorx.ErrRateLimited
	}

	msg.ConversationUuid = conv.Uuid
	msg.SenderId = actor
	msg.SenderName = sender.Username
	return s.append(ctx, msg, reply)
}

// buildMessage 校验类型与内容，媒体消息内容为空时回退为文件名
func (s *messageService) buildMessage(req request.SendMessageRequest) (*model.Message, error) {
	msgType := strings.TrimSpace(req.Type)
	if msgType == "" {
		msgType = constants.MSG_TEXT
	}
	if !allowedTypes[msgType] {
		return nil, errorx.Newf(errorx.CodeValidation, "不支持的消息类型: %s", msgType)
	}

	content := strings.TrimSpace(req.Content)
	mediaUrl := strings.TrimSpace(req.MediaUrl)
	if msgType == constants.MSG_TEXT {
		if content == "" {
			return nil, errorx.ErrEmptyContent
		}
		mediaUrl = ""
	} else {
		if mediaUrl == "" {
			return nil, errorx.New(errorx.CodeValidation, "媒体消息缺少文件地址")
		}
		if !view.ValidMediaRef(mediaUrl) {
			return nil, errorx.New(errorx.CodeValidation, "文件地址不合法")
		}
		if content == "" {
			content = path.Base(mediaUrl)
		}
	}
	if utf8.RuneCountInString(content) > s.chat.MaxMessageLength {
		return nil, errorx.Newf(errorx.CodeValidation, "消息内容不能超过%d个字符", s.chat.MaxMessageLength)
	}

	return &model.Message{
		Uuid:     snowflake.GenerateID(),
		Type:     msgType,
		Content:  content,
		MediaUrl: mediaUrl,
	}, nil
}

// append 在会话锁内分配序号并落库，随后在锁内广播，保证投递顺序与序号一致
func (s *messageService) append(ctx context.Context, msg *model.Message, reply *model.Message) (*respond.MessageRespond, error) {
	unlock := s.seqLocks.Lock(msg.ConversationUuid)
	defer unlock()

	now := time.Now()
	msg.SendAt = now
	err := s.repos.Transaction(func(txRepos *repository.Repositories) error {
		seq, err := txRepos.Conversation.NextSeq(msg.ConversationUuid, now)
		if err != nil {
			return err
		}
		msg.Seq = seq
		return txRepos.Message.Create(msg)
	})
	if err != nil {
		return nil, storeErr("append message", err)
	}
	metrics.MessagesSent.WithLabelValues(msg.Type).Inc()

	rsp := view.Message(msg)
	if reply != nil {
		rsp.ReplyTo = view.ReplyPreview(reply)
	}
	s.publish(ctx, event.ToRoom(event.NewMessage, msg.ConversationUuid, rsp))
	s.publishConversationUpdated(ctx, msg.ConversationUuid, &rsp)
	return &rsp, nil
}

// Edit 编辑文本消息，撤回后不可编辑
func (s *messageService) Edit(ctx context.Context, actor string, messageId int64, content string) (*respond.MessageRespond, error) {
	unlock := s.msgLocks.Lock(lockKey(messageId))
	defer unlock()

	msg, err := s.loadMessage(messageId)
	if err != nil {
		return nil, err
	}
	if err := guard.RequireSender(msg, actor); err != nil {
		return nil, err
	}
	if err := s.requireCurrentMember(msg.ConversationUuid, actor); err != nil {
		return nil, err
	}
	if err := guard.RequireNotRevoked(msg); err != nil {
		return nil, err
	}
	if msg.Type != constants.MSG_TEXT {
		return nil, errorx.New(errorx.CodeValidation, "仅文本消息可编辑")
	}
	content = strings.TrimSpace(content)
	if content == "" {
		return nil, errorx.ErrEmptyContent
	}
	if utf8.RuneCountInString(content) > s.chat.MaxMessageLength {
		return nil, errorx.Newf(errorx.CodeValidation, "消息内容不能超过%d个字符", s.chat.MaxMessageLength)
	}

	rows, err := s.repos.Message.UpdateContent(messageId, content, time.Now())
	if err != nil {
		return nil, storeErr("edit message", err)
	}
	if rows == 0 {
		return nil, errorx.ErrAlreadyRevoked
	}
	if msg, err = s.loadMessage(messageId); err != nil {
		return nil, err
	}

	rsp := view.Message(msg)
	s.publish(ctx, event.ToRoom(event.MessageEdited, msg.ConversationUuid, rsp))
	if s.isLatest(msg) {
		s.publishConversationUpdated(ctx, msg.ConversationUuid, &rsp)
	}
	return &rsp, nil
}

// Revoke 撤回消息，重复撤回直接成功且不再广播
func (s *messageService) Revoke(ctx context.Context, actor string, messageId int64) error {
	unlock := s.msgLocks.Lock(lockKey(messageId))
	defer unlock()

	msg, err := s.loadMessage(messageId)
	if err != nil {
		return err
	}
	if err := guard.RequireSender(msg, actor); err != nil {
		return err
	}
	if msg.IsRevoked {
		return nil
	}
	if err := s.requireCurrentMember(msg.ConversationUuid, actor); err != nil {
		return err
	}

	var revoked, pinsDropped int64
	err = s.repos.Transaction(func(txRepos *repository.Repositories) error {
		var err error
		if revoked, err = txRepos.Message.MarkRevoked(messageId, time.Now()); err != nil || revoked == 0 {
			return err
		}
		if err = txRepos.Favorite.DeleteByMessage(messageId); err != nil {
			return err
		}
		pinsDropped, err = txRepos.Pinned.DeleteByMessage(messageId)
		return err
	})
	if err != nil {
		return storeErr("revoke message", err)
	}
	if revoked == 0 {
		return nil
	}
	zap.L().Info("message revoked", zap.Int64("message_id", messageId), zap.String("conversation_id", msg.ConversationUuid))

	s.publish(ctx, event.ToRoom(event.MessageRevoked, msg.ConversationUuid, respond.MessageRevokedEvent{
		ConversationId: msg.ConversationUuid,
		MessageId:      snowflake.ID(messageId),
		SenderName:     msg.SenderName,
	}))
	if pinsDropped > 0 {
		s.publish(ctx, event.ToRoom(event.PinnedUpdated, msg.ConversationUuid,
			respond.ConversationRef{ConversationId: msg.ConversationUuid}))
	}
	if s.isLatest(msg) {
		if fresh, err := s.loadMessage(messageId); err == nil {
			rsp := view.Message(fresh)
			s.publishConversationUpdated(ctx, msg.ConversationUuid, &rsp)
		}
	}
	return nil
}

// Forward 转发到多个会话，没有成员身份的目标会被跳过，返回实际转发数
func (s *messageService) Forward(ctx context.Context, actor string, messageId int64, targetIds []string) (int, error) {
	src, err := s.loadMessage(messageId)
	if err != nil {
		return 0, err
	}
	if err := s.requireCurrentMember(src.ConversationUuid, actor); err != nil {
		return 0, err
	}
	if src.IsRevoked {
		return 0, errorx.New(errorx.CodeInvalidState, "已撤回的消息不能转发")
	}

	targets := dedupe(targetIds)
	if len(targets) == 0 {
		return 0, errorx.New(errorx.CodeValidation, "请选择转发目标")
	}
	if len(targets) > s.chat.MaxForwardTargets {
		return 0, errorx.Newf(errorx.CodeValidation, "一次最多转发到%d个会话", s.chat.MaxForwardTargets)
	}
	sender, err := s.loadSender(actor)
	if err != nil {
		return 0, err
	}
	if !s.limiter.Allow(actor) {
		metrics.RateLimited.Inc()
		return 0, errorx.ErrRateLimited
	}

	count := 0
	for _, target := range targets {
		member, err := s.findMember(target, actor)
		if err != nil {
			return count, err
		}
		if member == nil {
			continue
		}
		copied := &model.Message{
			Uuid:             snowflake.GenerateID(),
			ConversationUuid: target,
			SenderId:         actor,
			SenderName:       sender.Username,
			Type:             src.Type,
			Content:          src.Content,
			MediaUrl:         src.MediaUrl,
		}
		if _, err := s.append(ctx, copied, nil); err != nil {
			return count, err
		}
		count++
	}
	return count, nil
}

func (s *messageService) loadConversation(conversationId string) (*model.Conversation, error) {
	conv, err := s.repos.Conversation.FindByUuid(conversationId)
	if err != nil {
		if errorx.IsNotFound(err) {
			return nil, errorx.New(errorx.CodeNotFound, "会话不存在")
		}
		return nil, storeErr("find conversation", err)
	}
	return conv, nil
}

func (s *messageService) loadMessage(messageId int64) (*model.Message, error) {
	msg, err := s.repos.Message.FindByUuid(messageId)
	if err != nil {
		if errorx.IsNotFound(err) {
			return nil, errorx.New(errorx.CodeNotFound, "消息不存在")
		}
		return nil, storeErr("find message", err)
	}
	return msg, nil
}

// loadSender 被封禁的账号不能发送
func (s *messageService) loadSender(actor string) (*model.UserInfo, error) {
	user, err := s.repos.User.FindByUuid(actor)
	if err != nil {
		if errorx.IsNotFound(err) {
			return nil, errorx.ErrUserNotExist
		}
		return nil, storeErr("find sender", err)
	}
	if user.IsBanned() {
		return nil, errorx.New(errorx.CodeForbidden, "账号已被封禁")
	}
	return user, nil
}

// findMember 不是成员时返回 nil, nil
func (s *messageService) findMember(conversationId, userId string) (*model.ConversationMember, error) {
	m, err := s.repos.Member.Find(conversationId, userId)
	if err != nil {
		if errorx.IsNotFound(err) {
			return nil, nil
		}
		return nil, storeErr("find member", err)
	}
	return m, nil
}

func (s *messageService) requireCurrentMember(conversationId, userId string) error {
	m, err := s.findMember(conversationId, userId)
	if err != nil {
		return err
	}
	return guard.RequireMember(m)
}

// isLatest 是否为会话最后一条消息，会话列表预览需要同步刷新
func (s *messageService) isLatest(msg *model.Message) bool {
	conv, err := s.repos.Conversation.FindByUuid(msg.ConversationUuid)
	if err != nil {
		return false
	}
	return conv.LastSeq == msg.Seq
}

func (s *messageService) publishConversationUpdated(ctx context.Context, conversationId string, last *respond.MessageRespond) {
	ids, err := s.members.Of(ctx, conversationId)
	if err != nil {
		zap.L().Error("load audience", zap.String("conversation_id", conversationId), zap.Error(err))
		return
	}
	s.publish(ctx, event.ToUsers(event.ConversationUpdated, conversationId, respond.ConversationUpdatedEvent{
		ConversationId: conversationId,
		LastMessage:    last,
	}, ids...))
}

// publish 实时事件尽力而为，失败只记录日志
func (s *messageService) publish(ctx context.Context, events ...event.Event) {
	if err := s.publisher.Publish(ctx, events...); err != nil {
		zap.L().Warn("publish message events", zap.Error(err))
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

func lockKey(messageId int64) string {
	return snowflake.ID(messageId).String()
}

func dedupe(ids []string) []string {
	seen := make(map[string]struct{}, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		id = strings.TrimSpace(id)
		if id == "" {
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
