package repository

import (
	"time"

	"kama_chat_hub/internal/model"

	"gorm.io/gorm"
)

type messageRepository struct {
	db *gorm.DB
}

// NewMessageRepository 创建消息 Repository
func NewMessageRepository(db *gorm.DB) MessageRepository {
	return &messageRepository{db: db}
}

func (r *messageRepository) Create(message *model.Message) error {
	if err := r.db.Create(message).Error; err != nil {
		return wrapDBErrorf(err, "保存消息 conversation_uuid=%s", message.ConversationUuid)
	}
	return nil
}

func (r *messageRepository) FindByUuid(uuid int64) (*model.Message, error) {
	var m model.Message
	if err := r.db.First(&m, "uuid = ?", uuid).Error; err != nil {
		return nil, wrapDBErrorf(err, "查询消息 uuid=%d", uuid)
	}
	return &m, nil
}

func (r *messageRepository) FindByUuids(uuids []int64) ([]model.Message, error) {
	var list []model.Message
	if len(uuids) == 0 {
		return list, nil
	}
	if err := r.db.Where("uuid IN ?", uuids).Find(&list).Error; err != nil {
		return nil, wrapDBError(err, "批量查询消息")
	}
	return list, nil
}

// ListBefore 按 seq 倒序取一页
func (r *messageRepository) ListBefore(conversationUuid string, beforeSeq int64, limit int) ([]model.Message, error) {
	var list []model.Message
	q := r.db.Where("conversation_uuid = ?", conversationUuid)
	if beforeSeq > 0 {
		q = q.Where("seq < ?", beforeSeq)
	}
	if err := q.Order("seq DESC").Limit(limit).Find(&list).Error; err != nil {
		return nil, wrapDBErrorf(err, "查询历史消息 conversation_uuid=%s", conversationUuid)
	}
	return list, nil
}

// FindLatest 通过 last_seq 关联出每个会话的最后一条消息
func (r *messageRepository) FindLatest(conversationUuids []string) ([]model.Message, error) {
	var list []model.Message
	if len(conversationUuids) == 0 {
		return list, nil
	}
	if err := r.db.
		Joins("JOIN conversation ON conversation.uuid = message.conversation_uuid AND conversation.last_seq = message.seq").
		Where("message.conversation_uuid IN ?", conversationUuids).
		Find(&list).Error; err != nil {
		return nil, wrapDBError(err, "查询会话最新消息")
	}
	return list, nil
}

func (r *messageRepository) UpdateContent(uuid int64, content string, editedAt time.Time) (int64, error) {
	res := r.db.Model(&model.Message{}).
		Where("uuid = ? AND is_revoked = ?", uuid, false).
		Updates(map[string]any{"content": content, "edited_at": editedAt})
	if res.Error != nil {
		return 0, wrapDBErrorf(res.Error, "编辑消息 uuid=%d", uuid)
	}
	return res.RowsAffected, nil
}

// MarkRevoked 撤回后只保留墓碑：清空内容与媒体
func (r *messageRepository) MarkRevoked(uuid int64, revokedAt time.Time) (int64, error) {
	res := r.db.Model(&model.Message{}).
		Where("uuid = ? AND is_revoked = ?", uuid, false).
		Updates(map[string]any{
			"is_revoked": true,
			"revoked_at": revokedAt,
			"content":    "",
			"media_url":  "",
		})
	if res.Error != nil {
		return 0, wrapDBErrorf(res.Error, "撤回消息 uuid=%d", uuid)
	}
	return res.RowsAffected, nil
}

func (r *messageRepository) HardDeleteByConversation(conversationUuid string) error {
	if err := r.db.Unscoped().Where("conversation_uuid = ?", conversationUuid).Delete(&model.Message{}).Error; err != nil {
		return wrapDBErrorf(err, "删除会话消息 conversation_uuid=%s", conversationUuid)
	}
	return nil
}
