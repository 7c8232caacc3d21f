package request

import "kama_chat_hub/pkg/util/snowflake"

// SendMessageRequest 发送消息，HTTP 与 ws 的 send_message 共用
// Type 为空时按 text 处理
type SendMessageRequest struct {
	ConversationId string       `json:"conversation_id" binding:"required"`
	Content        string       `json:"content"`
	Type           string       `json:"type"`
	MediaUrl       string       `json:"media_url"`
	ReplyToId      snowflake.ID `json:"reply_to_id"`
}

// EditMessageRequest 编辑文本消息
type EditMessageRequest struct {
	MessageId snowflake.ID `json:"message_id" binding:"required"`
	Content   string       `json:"content"`
}

// MessageIdRequest 撤回、收藏
type MessageIdRequest struct {
	MessageId snowflake.ID `json:"message_id" binding:"required"`
}

// ForwardRequest 转发到多个会话
type ForwardRequest struct {
	MessageId snowflake.ID `json:"message_id" binding:"required"`
	TargetIds []string     `json:"target_ids"`
}

// PinRequest 置顶 / 取消置顶
type PinRequest struct {
	ConversationId string       `json:"conversation_id" binding:"required"`
	MessageId      snowflake.ID `json:"message_id" binding:"required"`
}

// ListMessagesRequest 拉取历史消息，Before 为消息序号游标
type ListMessagesRequest struct {
	ConversationId string `form:"conversation_id" binding:"required"`
	Before         int64  `form:"before" binding:"min=0"`
	Limit          int    `form:"limit" binding:"min=0"`
}

// ListFavoritesRequest Before 为上一页返回的 next_before，0 表示第一页
type ListFavoritesRequest struct {
	Before int64 `form:"before" binding:"min=0"`
	Limit  int   `form:"limit" binding:"min=0"`
}
