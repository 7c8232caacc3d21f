package repository

import (
	"kama_chat_hub/internal/model"

	"gorm.io/gorm"
)

type pinnedRepository struct {
	db *gorm.DB
}

// NewPinnedRepository 创建置顶消息 Repository
func NewPinnedRepository(db *gorm.DB) PinnedRepository {
	return &pinnedRepository{db: db}
}

func (r *pinnedRepository) Find(conversationUuid string, messageUuid int64) (*model.PinnedMessage, error) {
	var p model.PinnedMessage
	if err := r.db.Where("conversation_uuid = ? AND message_uuid = ?", conversationUuid, messageUuid).First(&p).Error; err != nil {
		return nil, wrapDBErrorf(err, "查询置顶 conversation_uuid=%s message_uuid=%d", conversationUuid, messageUuid)
	}
	return &p, nil
}

func (r *pinnedRepository) Create(pinned *model.PinnedMessage) error {
	if err := r.db.Create(pinned).Error; err != nil {
		return wrapDBError(err, "置顶消息")
	}
	return nil
}

func (r *pinnedRepository) Delete(conversationUuid string, messageUuid int64) (int64, error) {
	res := r.db.Where("conversation_uuid = ? AND message_uuid = ?", conversationUuid, messageUuid).
		Delete(&model.PinnedMessage{})
	if res.Error != nil {
		return 0, wrapDBErrorf(res.Error, "取消置顶 conversation_uuid=%s message_uuid=%d", conversationUuid, messageUuid)
	}
	return res.RowsAffected, nil
}

func (r *pinnedRepository) DeleteByMessage(messageUuid int64) (int64, error) {
	res := r.db.Where("message_uuid = ?", messageUuid).Delete(&model.PinnedMessage{})
	if res.Error != nil {
		return 0, wrapDBErrorf(res.Error, "清理消息置顶 message_uuid=%d", messageUuid)
	}
	return res.RowsAffected, nil
}

func (r *pinnedRepository) DeleteByConversation(conversationUuid string) error {
	if err := r.db.Where("conversation_uuid = ?", conversationUuid).Delete(&model.PinnedMessage{}).Error; err != nil {
		return wrapDBErrorf(err, "清理会话置顶 conversation_uuid=%s", conversationUuid)
	}
	return nil
}

func (r *pinnedRepository) Count(conversationUuid string) (int64, error) {
	var n int64
	if err := r.db.Model(&model.PinnedMessage{}).Where("conversation_uuid = ?", conversationUuid).Count(&n).Error; err != nil {
		return 0, wrapDBErrorf(err, "统计置顶 conversation_uuid=%s", conversationUuid)
	}
	return n, nil
}

// ListByConversation 最新置顶在前
func (r *pinnedRepository) ListByConversation(conversationUuid string) ([]model.PinnedMessage, error) {
	var list []model.PinnedMessage
	if err := r.db.Where("conversation_uuid = ?", conversationUuid).
		Order("created_at DESC, id DESC").
		Find(&list).Error; err != nil {
		return nil, wrapDBErrorf(err, "查询置顶列表 conversation_uuid=%s", conversationUuid)
	}
	return list, nil
}
