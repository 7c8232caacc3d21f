package respond

import "time"

// ConversationRespond 会话列表项
// Name/Avatar 已按会话类型计算：私聊取对方，自聊取自己
type ConversationRespond struct {
	ConversationId string          `json:"conversation_id"`
	Kind           string          `json:"kind"`
	Name           string          `json:"name"`
	Avatar         string          `json:"avatar"`
	AvatarEmoji    string          `json:"avatar_emoji"`
	Announcement   string          `json:"announcement,omitempty"`
	OwnerId        string          `json:"owner_id,omitempty"`
	PeerId         string          `json:"peer_id,omitempty"`
	MemberIds      []string        `json:"member_ids"`
	LastMessage    *MessageRespond `json:"last_message"`
	LastMessageAt  *time.Time      `json:"last_message_at"`
	CreatedAt      time.Time       `json:"created_at"`
}

// MemberRespond 成员详情
type MemberRespond struct {
	UserBrief
	Role     string    `json:"role"`
	JoinedAt time.Time `json:"joined_at"`
}

// SettingsRespond 会话设置页
type SettingsRespond struct {
	ConversationRespond
	Members []MemberRespond `json:"members"`
	MyRole  string          `json:"my_role"`
}
