package model

import "time"

// FavoriteMessage 用户收藏，属于个人私有数据
// 取消收藏与消息撤回时直接物理删除
type FavoriteMessage struct {
	ID               uint      `gorm:"primaryKey"`
	UserUuid         string    `gorm:"column:user_uuid;uniqueIndex:idx_favorite_user_msg,priority:1;type:char(20);not null;comment:用户ID"`
	MessageUuid      int64     `gorm:"column:message_uuid;uniqueIndex:idx_favorite_user_msg,priority:2;index;type:bigint;not null;comment:消息ID"`
	ConversationUuid string    `gorm:"column:conversation_uuid;type:char(20);not null;comment:会话ID"`
	CreatedAt        time.Time `gorm:"column:created_at;index;comment:收藏时间"`
}

func (FavoriteMessage) TableName() string {
	return "favorite_message"
}

// PinnedMessage 会话置顶消息
type PinnedMessage struct {
	ID               uint      `gorm:"primaryKey"`
	ConversationUuid string    `gorm:"column:conversation_uuid;uniqueIndex:idx_pinned_conv_msg,priority:1;type:char(20);not null;comment:会话ID"`
	MessageUuid      int64     `gorm:"column:message_uuid;uniqueIndex:idx_pinned_conv_msg,priority:2;index;type:bigint;not null;comment:消息ID"`
	PinnedBy         string    `gorm:"column:pinned_by;type:char(20);not null;comment:置顶人"`
	CreatedAt        time.Time `gorm:"column:created_at;comment:置顶时间"`
}

func (PinnedMessage) TableName() string {
	return "pinned_message"
}
