// Package model 定义数据库实体模型
// 本文件定义消息模型，用于存储聊天消息
package model

import (
	"time"

	"gorm.io/gorm"
)

// Message 消息模型
// 对应数据库 message 表，(conversation_uuid, seq) 唯一，seq 在提交时由服务端分配
type Message struct {
	gorm.Model

	// Uuid 雪花 ID，对外序列化为字符串
	Uuid int64 `gorm:"column:uuid;uniqueIndex;type:bigint;not null;comment:消息雪花ID"`

	ConversationUuid string `gorm:"column:conversation_uuid;uniqueIndex:idx_message_conv_seq,priority:1;type:char(20);not null;comment:会话uuid"`
	Seq              int64  `gorm:"column:seq;uniqueIndex:idx_message_conv_seq,priority:2;not null;comment:会话内序号"`

	SenderId string `gorm:"column:sender_id;index;type:char(20);not null;comment:发送者uuid"`

	// SenderName 冗余存储，避免查询消息时关联用户表
	SenderName string `gorm:"column:sender_name;type:varchar(20);not null;comment:发送者昵称"`

	// Type text/image/audio/video/file
	Type string `gorm:"column:type;type:varchar(10);not null;comment:消息类型"`

	Content  string `gorm:"column:content;type:TEXT;comment:消息内容"`
	MediaUrl string `gorm:"column:media_url;type:varchar(255);comment:媒体地址"`

	// ReplyToId 被回复消息的 Uuid，0 表示不是回复
	ReplyToId int64 `gorm:"column:reply_to_id;type:bigint;not null;default:0;comment:回复的消息id"`

	IsRevoked bool       `gorm:"column:is_revoked;not null;default:false;comment:是否已撤回"`
	RevokedAt *time.Time `gorm:"column:revoked_at;comment:撤回时间"`
	EditedAt  *time.Time `gorm:"column:edited_at;comment:编辑时间"`
	SendAt    time.Time  `gorm:"column:send_at;not null;comment:发送时间"`
}

func (Message) TableName() string {
	return "message"
}
