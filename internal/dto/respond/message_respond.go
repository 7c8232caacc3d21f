package respond

import (
	"time"

	"kama_chat_hub/pkg/util/snowflake"
)

// MessageRespond 单条消息
// 已撤回的消息只保留墓碑：Content 与 MediaUrl 为空
type MessageRespond struct {
	MessageId      snowflake.ID  `json:"message_id"`
	ConversationId string        `json:"conversation_id"`
	Seq            int64         `json:"seq"`
	SenderId       string        `json:"sender_id"`
	SenderName     string        `json:"sender_name"`
	Type           string        `json:"type"`
	Content        string        `json:"content"`
	MediaUrl       string        `json:"media_url,omitempty"`
	ReplyToId      snowflake.ID  `json:"reply_to_id,omitempty"`
	ReplyTo        *ReplyPreview `json:"reply_to,omitempty"`
	IsRevoked      bool          `json:"is_revoked"`
	RevokedAt      *time.Time    `json:"revoked_at,omitempty"`
	EditedAt       *time.Time    `json:"edited_at,omitempty"`
	SendAt         time.Time     `json:"send_at"`
}

// ReplyPreview 被回复消息的摘要
type ReplyPreview struct {
	MessageId  snowflake.ID `json:"message_id"`
	SenderId   string       `json:"sender_id"`
	SenderName string       `json:"sender_name"`
	Type       string       `json:"type"`
	Content    string       `json:"content"`
	IsRevoked  bool         `json:"is_revoked"`
}

// MessagePage 历史消息分页，Messages 按 seq 升序
type MessagePage struct {
	Messages []MessageRespond `json:"messages"`
	HasMore  bool             `json:"has_more"`
}

// FavoriteRespond 收藏项
type FavoriteRespond struct {
	Message     MessageRespond `json:"message"`
	FavoritedAt time.Time      `json:"favorited_at"`
}

// FavoritePage NextBefore 为下一页游标，原样回传给 before
type FavoritePage struct {
	Items      []FavoriteRespond `json:"items"`
	HasMore    bool              `json:"has_more"`
	NextBefore int64             `json:"next_before,omitempty"`
}

// FavoriteToggleRespond 收藏开关结果
type FavoriteToggleRespond struct {
	Favorited bool `json:"favorited"`
}

// PinnedRespond 置顶项
type PinnedRespond struct {
	Message  MessageRespond `json:"message"`
	PinnedBy string         `json:"pinned_by"`
	PinnedAt time.Time      `json:"pinned_at"`
}

// ForwardRespond 实际转发成功的会话数
type ForwardRespond struct {
	Count int `json:"count"`
}
