// Package guard 集中的权限判定
// 全部是无副作用的纯函数，调用方负责先查出成员关系与消息
package guard

import (
	"kama_chat_hub/internal/model"
	"kama_chat_hub/pkg/constants"
	"kama_chat_hub/pkg/errorx"
)

// RequireMember member 为 nil 表示不是当前成员
func RequireMember(member *model.ConversationMember) error {
	if member == nil {
		return errorx.ErrNotAMember
	}
	return nil
}

// RequireRole 角色不低于 min
func RequireRole(member *model.ConversationMember, min int8) error {
	if err := RequireMember(member); err != nil {
		return err
	}
	if member.Role < min {
		return errorx.ErrForbidden
	}
	return nil
}

// RequireOwner 仅群主
func RequireOwner(member *model.ConversationMember) error {
	return RequireRole(member, constants.ROLE_OWNER)
}

// RequireGroup 仅群聊允许的操作
func RequireGroup(conversation *model.Conversation) error {
	if conversation.Kind != constants.CONVERSATION_GROUP {
		return errorx.New(errorx.CodeInvalidState, "仅群聊支持该操作")
	}
	return nil
}

// RequireManager 群聊需要管理员及以上，私聊与自聊只需是成员
func RequireManager(conversation *model.Conversation, member *model.ConversationMember) error {
	if conversation.Kind == constants.CONVERSATION_GROUP {
		return RequireRole(member, constants.ROLE_ADMIN)
	}
	return RequireMember(member)
}

// RequireSender 只有发送者能编辑或撤回
func RequireSender(message *model.Message, actor string) error {
	if message.SenderId != actor {
		return errorx.ErrNotSender
	}
	return nil
}

// RequireNotRevoked 撤回是终态
func RequireNotRevoked(message *model.Message) error {
	if message.IsRevoked {
		return errorx.ErrAlreadyRevoked
	}
	return nil
}

// RequireInConversation 消息必须属于该会话
func RequireInConversation(message *model.Message, conversationId string) error {
	if message.ConversationUuid != conversationId {
		return errorx.New(errorx.CodeNotFound, "消息不存在")
	}
	return nil
}
