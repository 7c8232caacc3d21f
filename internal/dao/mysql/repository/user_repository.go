package repository

import (
	"strings"

	"kama_chat_hub/internal/model"

	"gorm.io/gorm"
)

type userRepository struct {
	db *gorm.DB
}

// NewUserRepository 创建用户 Repository
func NewUserRepository(db *gorm.DB) UserRepository {
	return &userRepository{db: db}
}

// FindByUuid 按 UUID 查找用户
func (r *userRepository) FindByUuid(uuid string) (*model.UserInfo, error) {
	var user model.UserInfo
	if err := r.db.First(&user, "uuid = ?", uuid).Error; err != nil {
		return nil, wrapDBErrorf(err, "查询用户 uuid=%s", uuid)
	}
	return &user, nil
}

// FindByUsername 按用户名查找用户
func (r *userRepository) FindByUsername(username string) (*model.UserInfo, error) {
	var user model.UserInfo
	if err := r.db.First(&user, "username = ?", username).Error; err != nil {
		return nil, wrapDBErrorf(err, "查询用户 username=%s", username)
	}
	return &user, nil
}

// FindByUuids 按 UUID 列表查找用户
func (r *userRepository) FindByUuids(uuids []string) ([]model.UserInfo, error) {
	var users []model.UserInfo
	if len(uuids) == 0 {
		return users, nil
	}
	if err := r.db.Where("uuid IN ?", uuids).Find(&users).Error; err != nil {
		return nil, wrapDBError(err, "批量查询用户")
	}
	return users, nil
}

// Search 用户名包含 keyword 的用户，按用户名排序
func (r *userRepository) Search(keyword string, limit int) ([]model.UserInfo, error) {
	var users []model.UserInfo
	escaped := strings.NewReplacer("!", "!!", "%", "!%", "_", "!_").Replace(keyword)
	if err := r.db.Where("username LIKE ? ESCAPE '!'", "%"+escaped+"%").
		Order("username ASC").
		Limit(limit).
		Find(&users).Error; err != nil {
		return nil, wrapDBErrorf(err, "搜索用户 keyword=%s", keyword)
	}
	return users, nil
}

// Create 创建用户
func (r *userRepository) Create(user *model.UserInfo) error {
	if err := r.db.Create(user).Error; err != nil {
		return wrapDBError(err, "创建用户")
	}
	return nil
}

// UpdateProfile 按字段更新资料
func (r *userRepository) UpdateProfile(uuid string, updates map[string]any) error {
	if len(updates) == 0 {
		return nil
	}
	if err := r.db.Model(&model.UserInfo{}).Where("uuid = ?", uuid).Updates(updates).Error; err != nil {
		return wrapDBErrorf(err, "更新用户资料 uuid=%s", uuid)
	}
	return nil
}

// UpdateStatus 启用/封禁
func (r *userRepository) UpdateStatus(uuid string, status int8) error {
	if err := r.db.Model(&model.UserInfo{}).Where("uuid = ?", uuid).Update("status", status).Error; err != nil {
		return wrapDBErrorf(err, "更新用户状态 uuid=%s", uuid)
	}
	return nil
}
