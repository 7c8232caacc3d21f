package respond

import "kama_chat_hub/pkg/util/snowflake"

// 以下为实时事件的 data 负载

// ConversationRef conversation_created / pinned_updated
type ConversationRef struct {
	ConversationId string `json:"conversation_id"`
}

// ConversationUpdatedEvent 会话列表需要刷新最后一条消息
type ConversationUpdatedEvent struct {
	ConversationId string          `json:"conversation_id"`
	LastMessage    *MessageRespond `json:"last_message"`
}

// ConversationRemovedEvent 被移出 / 退出 / 会话解散
type ConversationRemovedEvent struct {
	ConversationId string `json:"conversation_id"`
	Reason         string `json:"reason"`
}

// GroupUpdatedEvent 群资料变化
type GroupUpdatedEvent struct {
	ConversationId string `json:"conversation_id"`
	Name           string `json:"name"`
	Avatar         string `json:"avatar"`
	Announcement   string `json:"announcement"`
	OwnerId        string `json:"owner_id"`
}

// MembersChangedEvent Action: added / removed / left / role / transfer
type MembersChangedEvent struct {
	ConversationId string   `json:"conversation_id"`
	Action         string   `json:"action"`
	UserIds        []string `json:"user_ids"`
	Role           string   `json:"role,omitempty"`
}

// MessageRevokedEvent 撤回通知
type MessageRevokedEvent struct {
	ConversationId string       `json:"conversation_id"`
	MessageId      snowflake.ID `json:"message_id"`
	SenderName     string       `json:"sender_name"`
}

// FriendRequestEvent 收到好友请求
type FriendRequestEvent struct {
	RequestId string `json:"request_id"`
	FromId    string `json:"from_id"`
	FromName  string `json:"from_name"`
}

// FriendRequestResolvedEvent 请求被同意或拒绝
type FriendRequestResolvedEvent struct {
	RequestId string `json:"request_id"`
	UserId    string `json:"user_id"`
	Accepted  bool   `json:"accepted"`
}

// FriendRemovedEvent 被删除好友
type FriendRemovedEvent struct {
	UserId string `json:"user_id"`
}

// WsErrorEvent ws 请求失败
type WsErrorEvent struct {
	RequestId string `json:"request_id,omitempty"`
	Code      int    `json:"code"`
	Msg       string `json:"msg"`
}

// WsAckEvent message_sent 确认
type WsAckEvent struct {
	RequestId string         `json:"request_id,omitempty"`
	Message   MessageRespond `json:"message"`
}
