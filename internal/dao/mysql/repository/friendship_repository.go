package repository

import (
	"time"

	"kama_chat_hub/internal/model"

	"gorm.io/gorm"
)

type friendshipRepository struct {
	db *gorm.DB
}

// NewFriendshipRepository 创建好友关系 Repository
func NewFriendshipRepository(db *gorm.DB) FriendshipRepository {
	return &friendshipRepository{db: db}
}

func (r *friendshipRepository) FindByUuid(uuid string) (*model.Friendship, error) {
	var f model.Friendship
	if err := r.db.First(&f, "uuid = ?", uuid).Error; err != nil {
		return nil, wrapDBErrorf(err, "查询好友关系 uuid=%s", uuid)
	}
	return &f, nil
}

func (r *friendshipRepository) FindByPair(userA, userB string) (*model.Friendship, error) {
	a, b := model.OrderedPair(userA, userB)
	var f model.Friendship
	if err := r.db.Where("user_a = ? AND user_b = ?", a, b).First(&f).Error; err != nil {
		return nil, wrapDBErrorf(err, "查询好友关系 user_a=%s user_b=%s", a, b)
	}
	return &f, nil
}

func (r *friendshipRepository) Create(friendship *model.Friendship) error {
	friendship.UserA, friendship.UserB = model.OrderedPair(friendship.UserA, friendship.UserB)
	if err := r.db.Create(friendship).Error; err != nil {
		return wrapDBError(err, "创建好友请求")
	}
	return nil
}

// Accept 只把待确认的请求置为好友
func (r *friendshipRepository) Accept(uuid string, at time.Time) error {
	res := r.db.Model(&model.Friendship{}).
		Where("uuid = ? AND status = ?", uuid, 0).
		Updates(map[string]any{"status": 1, "accepted_at": at})
	if res.Error != nil {
		return wrapDBErrorf(res.Error, "通过好友请求 uuid=%s", uuid)
	}
	if res.RowsAffected == 0 {
		return wrapDBErrorf(gorm.ErrRecordNotFound, "通过好友请求 uuid=%s", uuid)
	}
	return nil
}

func (r *friendshipRepository) Delete(uuid string) error {
	if err := r.db.Where("uuid = ?", uuid).Delete(&model.Friendship{}).Error; err != nil {
		return wrapDBErrorf(err, "删除好友关系 uuid=%s", uuid)
	}
	return nil
}

func (r *friendshipRepository) ListByUser(userUuid string) ([]model.Friendship, error) {
	var list []model.Friendship
	if err := r.db.Where("user_a = ? OR user_b = ?", userUuid, userUuid).
		Order("updated_at DESC, id DESC").
		Find(&list).Error; err != nil {
		return nil, wrapDBErrorf(err, "查询好友关系 user_uuid=%s", userUuid)
	}
	return list, nil
}

func (r *friendshipRepository) ListBetween(viewer string, others []string) ([]model.Friendship, error) {
	var list []model.Friendship
	if len(others) == 0 {
		return list, nil
	}
	if err := r.db.Where("(user_a = ? AND user_b IN ?) OR (user_b = ? AND user_a IN ?)", viewer, others, viewer, others).
		Find(&list).Error; err != nil {
		return nil, wrapDBErrorf(err, "批量查询好友关系 viewer=%s", viewer)
	}
	return list, nil
}
