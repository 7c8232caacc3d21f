// Package repository 提供数据访问层的具体实现
// 本文件实现 MemberRepository 接口，处理会话成员相关的数据库操作
package repository

import (
	"kama_chat_hub/internal/model"

	"gorm.io/gorm"
)

type memberRepository struct {
	db *gorm.DB
}

// NewMemberRepository 创建 MemberRepository 实例
func NewMemberRepository(db *gorm.DB) MemberRepository {
	return &memberRepository{db: db}
}

// Find 查询当前成员关系，已退出的成员视为不存在
func (r *memberRepository) Find(conversationUuid, userUuid string) (*model.ConversationMember, error) {
	var m model.ConversationMember
	if err := r.db.Where("conversation_uuid = ? AND user_uuid = ?", conversationUuid, userUuid).First(&m).Error; err != nil {
		return nil, wrapDBErrorf(err, "查询会话成员 conversation_uuid=%s user_uuid=%s", conversationUuid, userUuid)
	}
	return &m, nil
}

// FindAny 包含已退出的成员记录，用于判断"曾经是成员"
func (r *memberRepository) FindAny(conversationUuid, userUuid string) (*model.ConversationMember, error) {
	var m model.ConversationMember
	if err := r.db.Unscoped().Where("conversation_uuid = ? AND user_uuid = ?", conversationUuid, userUuid).First(&m).Error; err != nil {
		return nil, wrapDBErrorf(err, "查询历史成员 conversation_uuid=%s user_uuid=%s", conversationUuid, userUuid)
	}
	return &m, nil
}

func (r *memberRepository) ListByConversation(conversationUuid string) ([]model.ConversationMember, error) {
	var members []model.ConversationMember
	if err := r.db.Where("conversation_uuid = ?", conversationUuid).
		Order("role DESC, created_at ASC, id ASC").
		Find(&members).Error; err != nil {
		return nil, wrapDBErrorf(err, "查询会话成员 conversation_uuid=%s", conversationUuid)
	}
	return members, nil
}

// ListWithUserInfo 通过 JOIN 关联用户表获取昵称和头像
func (r *memberRepository) ListWithUserInfo(conversationUuid string) ([]MemberWithUserInfo, error) {
	var members []MemberWithUserInfo
	if err := r.db.Table("conversation_member").
		Select("user_info.uuid AS user_id, user_info.username, user_info.avatar, user_info.avatar_emoji, conversation_member.role, conversation_member.created_at AS joined_at").
		Joins("JOIN user_info ON conversation_member.user_uuid = user_info.uuid").
		Where("conversation_member.conversation_uuid = ? AND conversation_member.deleted_at IS NULL", conversationUuid).
		Order("conversation_member.role DESC, conversation_member.created_at ASC, conversation_member.id ASC").
		Scan(&members).Error; err != nil {
		return nil, wrapDBErrorf(err, "查询成员详情 conversation_uuid=%s", conversationUuid)
	}
	return members, nil
}

func (r *memberRepository) ListByConversations(conversationUuids []string) ([]model.ConversationMember, error) {
	var members []model.ConversationMember
	if len(conversationUuids) == 0 {
		return members, nil
	}
	if err := r.db.Where("conversation_uuid IN ?", conversationUuids).
		Order("role DESC, created_at ASC, id ASC").
		Find(&members).Error; err != nil {
		return nil, wrapDBError(err, "批量查询会话成员")
	}
	return members, nil
}

// ConversationIdsByUser 用户当前所在的全部会话
func (r *memberRepository) ConversationIdsByUser(userUuid string) ([]string, error) {
	var ids []string
	if err := r.db.Model(&model.ConversationMember{}).
		Where("user_uuid = ?", userUuid).
		Pluck("conversation_uuid", &ids).Error; err != nil {
		return nil, wrapDBErrorf(err, "查询用户会话 user_uuid=%s", userUuid)
	}
	return ids, nil
}

func (r *memberRepository) UserIdsByConversation(conversationUuid string) ([]string, error) {
	var ids []string
	if err := r.db.Model(&model.ConversationMember{}).
		Where("conversation_uuid = ?", conversationUuid).
		Pluck("user_uuid", &ids).Error; err != nil {
		return nil, wrapDBErrorf(err, "查询会话成员ID conversation_uuid=%s", conversationUuid)
	}
	return ids, nil
}

func (r *memberRepository) Create(member *model.ConversationMember) error {
	if err := r.db.Create(member).Error; err != nil {
		return wrapDBError(err, "创建会话成员")
	}
	return nil
}

// Restore 清除软删除标记并重置角色，入群时间记为当前
func (r *memberRepository) Restore(conversationUuid, userUuid string, role int8) error {
	now := r.db.NowFunc()
	if err := r.db.Unscoped().Model(&model.ConversationMember{}).
		Where("conversation_uuid = ? AND user_uuid = ?", conversationUuid, userUuid).
		Updates(map[string]any{"deleted_at": nil, "role": role, "created_at": now}).Error; err != nil {
		return wrapDBErrorf(err, "恢复会话成员 conversation_uuid=%s user_uuid=%s", conversationUuid, userUuid)
	}
	return nil
}

func (r *memberRepository) UpdateRole(conversationUuid, userUuid string, role int8) error {
	res := r.db.Model(&model.ConversationMember{}).
		Where("conversation_uuid = ? AND user_uuid = ?", conversationUuid, userUuid).
		Update("role", role)
	if res.Error != nil {
		return wrapDBErrorf(res.Error, "更新成员角色 conversation_uuid=%s user_uuid=%s", conversationUuid, userUuid)
	}
	return nil
}

// Delete 软删除，保留"曾经是成员"的记录
func (r *memberRepository) Delete(conversationUuid, userUuid string) error {
	if err := r.db.Where("conversation_uuid = ? AND user_uuid = ?", conversationUuid, userUuid).
		Delete(&model.ConversationMember{}).Error; err != nil {
		return wrapDBErrorf(err, "删除会话成员 conversation_uuid=%s user_uuid=%s", conversationUuid, userUuid)
	}
	return nil
}

func (r *memberRepository) Count(conversationUuid string) (int64, error) {
	var n int64
	if err := r.db.Model(&model.ConversationMember{}).Where("conversation_uuid = ?", conversationUuid).Count(&n).Error; err != nil {
		return 0, wrapDBErrorf(err, "统计会话成员 conversation_uuid=%s", conversationUuid)
	}
	return n, nil
}

func (r *memberRepository) HardDeleteByConversation(conversationUuid string) error {
	if err := r.db.Unscoped().Where("conversation_uuid = ?", conversationUuid).
		Delete(&model.ConversationMember{}).Error; err != nil {
		return wrapDBErrorf(err, "清空会话成员 conversation_uuid=%s", conversationUuid)
	}
	return nil
}
