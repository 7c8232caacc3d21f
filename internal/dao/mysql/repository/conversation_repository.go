package repository

import (
	"time"

	"kama_chat_hub/internal/model"

	"gorm.io/gorm"
)

type conversationRepository struct {
	db *gorm.DB
}

// NewConversationRepository 创建会话 Repository
func NewConversationRepository(db *gorm.DB) ConversationRepository {
	return &conversationRepository{db: db}
}

func (r *conversationRepository) FindByUuid(uuid string) (*model.Conversation, error) {
	var c model.Conversation
	if err := r.db.First(&c, "uuid = ?", uuid).Error; err != nil {
		return nil, wrapDBErrorf(err, "查询会话 uuid=%s", uuid)
	}
	return &c, nil
}

func (r *conversationRepository) FindByPairKey(pairKey string) (*model.Conversation, error) {
	var c model.Conversation
	if err := r.db.First(&c, "pair_key = ?", pairKey).Error; err != nil {
		return nil, wrapDBErrorf(err, "查询私聊会话 pair_key=%s", pairKey)
	}
	return &c, nil
}

func (r *conversationRepository) FindByUuids(uuids []string) ([]model.Conversation, error) {
	var list []model.Conversation
	if len(uuids) == 0 {
		return list, nil
	}
	if err := r.db.Where("uuid IN ?", uuids).Find(&list).Error; err != nil {
		return nil, wrapDBError(err, "批量查询会话")
	}
	return list, nil
}

func (r *conversationRepository) Create(c *model.Conversation) error {
	if err := r.db.Create(c).Error; err != nil {
		return wrapDBError(err, "创建会话")
	}
	return nil
}

func (r *conversationRepository) Update(uuid string, updates map[string]any) error {
	if err := r.db.Model(&model.Conversation{}).Where("uuid = ?", uuid).Updates(updates).Error; err != nil {
		return wrapDBErrorf(err, "更新会话 uuid=%s", uuid)
	}
	return nil
}

// NextSeq 使用 last_seq = last_seq + 1 由数据库保证递增
// 调用方在同一事务内写入消息，(conversation_uuid, seq) 唯一索引兜底
func (r *conversationRepository) NextSeq(uuid string, at time.Time) (int64, error) {
	res := r.db.Model(&model.Conversation{}).
		Where("uuid = ?", uuid).
		Updates(map[string]any{
			"last_seq":        gorm.Expr("last_seq + 1"),
			"last_message_at": at,
		})
	if res.Error != nil {
		return 0, wrapDBErrorf(res.Error, "分配消息序号 uuid=%s", uuid)
	}
	if res.RowsAffected == 0 {
		return 0, wrapDBErrorf(gorm.ErrRecordNotFound, "分配消息序号 uuid=%s", uuid)
	}
	var c model.Conversation
	if err := r.db.Select("last_seq").First(&c, "uuid = ?", uuid).Error; err != nil {
		return 0, wrapDBErrorf(err, "读取消息序号 uuid=%s", uuid)
	}
	return c.LastSeq, nil
}

func (r *conversationRepository) HardDelete(uuid string) error {
	if err := r.db.Unscoped().Where("uuid = ?", uuid).Delete(&model.Conversation{}).Error; err != nil {
		return wrapDBErrorf(err, "删除会话 uuid=%s", uuid)
	}
	return nil
}
