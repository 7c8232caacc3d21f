package model

import (
	"time"

	"gorm.io/gorm"
)

// Conversation 会话，私聊/群聊/自聊共用一张表
type Conversation struct {
	gorm.Model

	// Uuid 会话唯一标识，格式：C + 日期前缀随机串
	Uuid string `gorm:"column:uuid;uniqueIndex;type:char(20);not null;comment:会话唯一id"`

	// Kind 1=私聊 2=群聊 3=自聊
	Kind int8 `gorm:"column:kind;index;not null;comment:会话类型，1.私聊，2.群聊，3.自聊"`

	// Name 仅群聊使用，私聊与自聊的名称在查询时计算
	Name         string `gorm:"column:name;type:varchar(50);comment:群名称"`
	Avatar       string `gorm:"column:avatar;type:varchar(255);comment:群头像"`
	Announcement string `gorm:"column:announcement;type:varchar(200);comment:群公告"`

	OwnerId   string `gorm:"column:owner_id;type:char(20);comment:群主uuid"`
	CreatorId string `gorm:"column:creator_id;type:char(20);not null;comment:创建者uuid"`

	// PairKey 私聊为 "小uid:大uid"，自聊为 "self:uid"，群聊为 NULL
	// 唯一索引保证同一对用户只有一个私聊
	PairKey *string `gorm:"column:pair_key;uniqueIndex;type:varchar(48);comment:私聊配对键"`

	// LastSeq 最近分配的消息序号
	LastSeq       int64      `gorm:"column:last_seq;not null;default:0;comment:最新消息序号"`
	LastMessageAt *time.Time `gorm:"column:last_message_at;index;comment:最新消息时间"`
}

func (Conversation) TableName() string {
	return "conversation"
}

// ConversationMember 会话成员
// 软删除行表示"曾经是成员"，重新加入时恢复该行
type ConversationMember struct {
	gorm.Model
	ConversationUuid string `gorm:"column:conversation_uuid;uniqueIndex:idx_member_conv_user,priority:1;type:char(20);not null;comment:会话ID"`
	UserUuid         string `gorm:"column:user_uuid;uniqueIndex:idx_member_conv_user,priority:2;index;type:char(20);not null;comment:用户ID"`
	Role             int8   `gorm:"column:role;not null;default:0;comment:0无角色 1普通成员 2管理员 3群主"`
}

func (ConversationMember) TableName() string {
	return "conversation_member"
}
