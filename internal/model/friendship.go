package model

import "time"

// Friendship 好友关系，一对用户只有一行
// UserA 恒为较小的 uuid，UserB 为较大的 uuid；拒绝与删除好友都会物理删除该行
type Friendship struct {
	ID uint `gorm:"primaryKey"`

	// Uuid 同时作为好友请求 ID，格式：F + 日期前缀随机串
	Uuid string `gorm:"column:uuid;uniqueIndex;type:char(20);not null;comment:关系id"`

	UserA       string `gorm:"column:user_a;uniqueIndex:idx_friend_pair,priority:1;type:char(20);not null;comment:较小的用户ID"`
	UserB       string `gorm:"column:user_b;uniqueIndex:idx_friend_pair,priority:2;index;type:char(20);not null;comment:较大的用户ID"`
	InitiatedBy string `gorm:"column:initiated_by;type:char(20);not null;comment:发起人"`

	// Status 0=待确认 1=已是好友
	Status int8 `gorm:"column:status;not null;default:0;comment:状态，0.待确认，1.好友"`

	AcceptedAt *time.Time `gorm:"column:accepted_at;comment:通过时间"`
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

func (Friendship) TableName() string {
	return "friendship"
}

// Other 返回关系中另一方
func (f *Friendship) Other(userId string) string {
	if f.UserA == userId {
		return f.UserB
	}
	return f.UserA
}

// Addressee 请求的接收方
func (f *Friendship) Addressee() string {
	return f.Other(f.InitiatedBy)
}

// OrderedPair 规范化用户对
func OrderedPair(a, b string) (string, string) {
	if a < b {
		return a, b
	}
	return b, a
}

// Tables 需要自动迁移的全部实体
func Tables() []any {
	return []any{
		&UserInfo{},
		&Conversation{},
		&ConversationMember{},
		&Message{},
		&FavoriteMessage{},
		&PinnedMessage{},
		&Friendship{},
	}
}
