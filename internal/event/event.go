// Package event 定义业务层发往实时通道的事件
// 事件只携带投递范围与负载，由 chat 包负责路由到具体连接
package event

import (
	"context"
	"encoding/json"

	"go.uber.org/zap"
)

// 事件名即下行帧的 event 字段
const (
	NewMessage            = "new_message"
	MessageEdited         = "message_edited"
	MessageRevoked        = "message_revoked"
	PinnedUpdated         = "pinned_updated"
	ConversationCreated   = "conversation_created"
	ConversationUpdated   = "conversation_updated"
	GroupUpdated          = "group_updated"
	MembersChanged        = "members_changed"
	ConversationRemoved   = "conversation_removed"
	FriendRequest         = "friend_request"
	FriendRequestResolved = "friend_request_resolved"
	FriendRemoved         = "friend_removed"
)

// Event 一次广播
// 投递集合 = (Room 为真时会话房间内的全部连接) ∪ (UserIds 的全部连接)
// Evict 中的用户会在投递前被移出该会话房间
type Event struct {
	Name           string          `json:"event"`
	ConversationId string          `json:"conversation_id,omitempty"`
	Room           bool            `json:"room,omitempty"`
	UserIds        []string        `json:"user_ids,omitempty"`
	Evict          []string        `json:"evict,omitempty"`
	Payload        json.RawMessage `json:"payload"`
}

// Publisher 事件发布接口，由 chat 包的 broker 实现
type Publisher interface {
	Publish(ctx context.Context, events ...Event) error
}

// ToRoom 发给会话房间
func ToRoom(name, conversationId string, payload any) Event {
	return Event{Name: name, ConversationId: conversationId, Room: true, Payload: marshal(name, payload)}
}

// ToUsers 发给指定用户的所有连接
func ToUsers(name, conversationId string, payload any, userIds ...string) Event {
	return Event{Name: name, ConversationId: conversationId, UserIds: userIds, Payload: marshal(name, payload)}
}

// WithEvict 附加需要移出房间的用户
func (e Event) WithEvict(userIds ...string) Event {
	e.Evict = append(e.Evict, userIds...)
	return e
}

// Frame 下行帧 {"event": ..., "data": ...}
func (e Event) Frame() []byte {
	b, err := json.Marshal(struct {
		Event string          `json:"event"`
		Data  json.RawMessage `json:"data"`
	}{Event: e.Name, Data: e.Payload})
	if err != nil {
		zap.L().Error("encode event frame", zap.String("event", e.Name), zap.Error(err))
		return nil
	}
	return b
}

func marshal(name string, payload any) json.RawMessage {
	if payload == nil {
		return json.RawMessage("{}")
	}
	b, err := json.Marshal(payload)
	if err != nil {
		zap.L().Error("encode event payload", zap.String("event", name), zap.Error(err))
		return json.RawMessage("{}")
	}
	return b
}

// Discard 丢弃所有事件，用于不需要实时通道的场景
type Discard struct{}

func (Discard) Publish(context.Context, ...Event) error { return nil }
