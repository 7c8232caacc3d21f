// Package view 把数据库实体组装为对外响应结构
// 多个 service 共用，避免各自重复拼装
package view

import (
	"strings"
	"unicode/utf8"

	"kama_chat_hub/internal/dto/respond"
	"kama_chat_hub/internal/model"
	"kama_chat_hub/pkg/constants"
	"kama_chat_hub/pkg/util/snowflake"
)

// UserBrief 用户摘要
func UserBrief(u *model.UserInfo) respond.UserBrief {
	if u == nil {
		return respond.UserBrief{}
	}
	return respond.UserBrief{
		UserId:      u.Uuid,
		Username:    u.Username,
		Avatar:      u.Avatar,
		AvatarEmoji: u.AvatarEmoji,
	}
}

// Profile 个人资料
func Profile(u *model.UserInfo) respond.ProfileRespond {
	return respond.ProfileRespond{
		UserId:      u.Uuid,
		Username:    u.Username,
		AvatarEmoji: u.AvatarEmoji,
		Avatar:      u.Avatar,
		Bio:         u.Bio,
		Theme:       u.Theme,
		FontSize:    u.FontSize,
		Status:      u.Status,
		CreatedAt:   u.CreatedAt,
	}
}

// Message 单条消息，不含回复预览
func Message(m *model.Message) respond.MessageRespond {
	return respond.MessageRespond{
		MessageId:      snowflake.ID(m.Uuid),
		ConversationId: m.ConversationUuid,
		Seq:            m.Seq,
		SenderId:       m.SenderId,
		SenderName:     m.SenderName,
		Type:           m.Type,
		Content:        m.Content,
		MediaUrl:       m.MediaUrl,
		ReplyToId:      snowflake.ID(m.ReplyToId),
		IsRevoked:      m.IsRevoked,
		RevokedAt:      m.RevokedAt,
		EditedAt:       m.EditedAt,
		SendAt:         m.SendAt,
	}
}

// ReplyPreview 被回复消息摘要，已撤回的只保留墓碑
func ReplyPreview(m *model.Message) *respond.ReplyPreview {
	p := &respond.ReplyPreview{
		MessageId:  snowflake.ID(m.Uuid),
		SenderId:   m.SenderId,
		SenderName: m.SenderName,
		Type:       m.Type,
		Content:    m.Content,
		IsRevoked:  m.IsRevoked,
	}
	if m.IsRevoked {
		p.Content = ""
	}
	return p
}

// RoleName 角色数值转字符串
func RoleName(role int8) string {
	switch role {
	case constants.ROLE_OWNER:
		return "owner"
	case constants.ROLE_ADMIN:
		return "admin"
	case constants.ROLE_MEMBER:
		return "member"
	default:
		return "none"
	}
}

// ParseRole 仅接受可被设置的角色
func ParseRole(name string) (int8, bool) {
	switch name {
	case "admin":
		return constants.ROLE_ADMIN, true
	case "member":
		return constants.ROLE_MEMBER, true
	default:
		return 0, false
	}
}

// KindName 会话类型转字符串
func KindName(kind int8) string {
	switch kind {
	case constants.CONVERSATION_GROUP:
		return "group"
	case constants.CONVERSATION_SELF:
		return "self"
	default:
		return "private"
	}
}

// ValidMediaRef 头像与媒体地址只接受本站静态路径或 http(s) 链接
// 不允许 .. 路径段、空白与控制字符
func ValidMediaRef(ref string) bool {
	if ref == "" || utf8.RuneCountInString(ref) > 255 || strings.Contains(ref, "..") {
		return false
	}
	for _, r := range ref {
		if r <= ' ' || r == 0x7f {
			return false
		}
	}
	return strings.HasPrefix(ref, "/static/") ||
		strings.HasPrefix(ref, "http://") ||
		strings.HasPrefix(ref, "https://")
}
