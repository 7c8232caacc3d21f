package repository

import (
	"kama_chat_hub/internal/model"

	"gorm.io/gorm"
)

type favoriteRepository struct {
	db *gorm.DB
}

// NewFavoriteRepository 创建收藏 Repository
func NewFavoriteRepository(db *gorm.DB) FavoriteRepository {
	return &favoriteRepository{db: db}
}

func (r *favoriteRepository) Find(userUuid string, messageUuid int64) (*model.FavoriteMessage, error) {
	var f model.FavoriteMessage
	if err := r.db.Where("user_uuid = ? AND message_uuid = ?", userUuid, messageUuid).First(&f).Error; err != nil {
		return nil, wrapDBErrorf(err, "查询收藏 user_uuid=%s message_uuid=%d", userUuid, messageUuid)
	}
	return &f, nil
}

func (r *favoriteRepository) Create(favorite *model.FavoriteMessage) error {
	if err := r.db.Create(favorite).Error; err != nil {
		return wrapDBError(err, "添加收藏")
	}
	return nil
}

func (r *favoriteRepository) Delete(userUuid string, messageUuid int64) error {
	if err := r.db.Where("user_uuid = ? AND message_uuid = ?", userUuid, messageUuid).
		Delete(&model.FavoriteMessage{}).Error; err != nil {
		return wrapDBErrorf(err, "取消收藏 user_uuid=%s message_uuid=%d", userUuid, messageUuid)
	}
	return nil
}

func (r *favoriteRepository) DeleteByMessage(messageUuid int64) error {
	if err := r.db.Where("message_uuid = ?", messageUuid).Delete(&model.FavoriteMessage{}).Error; err != nil {
		return wrapDBErrorf(err, "清理消息收藏 message_uuid=%d", messageUuid)
	}
	return nil
}

func (r *favoriteRepository) DeleteByConversation(conversationUuid string) error {
	if err := r.db.Where("conversation_uuid = ?", conversationUuid).Delete(&model.FavoriteMessage{}).Error; err != nil {
		return wrapDBErrorf(err, "清理会话收藏 conversation_uuid=%s", conversationUuid)
	}
	return nil
}

// ListBefore 自增 id 与收藏先后一致，同一毫秒内的收藏也不会被跳过
func (r *favoriteRepository) ListBefore(userUuid string, beforeId uint, limit int) ([]model.FavoriteMessage, error) {
	var list []model.FavoriteMessage
	q := r.db.Where("user_uuid = ?", userUuid)
	if beforeId > 0 {
		q = q.Where("id < ?", beforeId)
	}
	if err := q.Order("id DESC").Limit(limit).Find(&list).Error; err != nil {
		return nil, wrapDBErrorf(err, "查询收藏列表 user_uuid=%s", userUuid)
	}
	return list, nil
}
