// Package model 定义数据库实体模型
// 本文件定义用户信息模型，包含用户基本资料和认证信息
package model

import (
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// UserInfo 用户信息模型
// 对应数据库 user_info 表
type UserInfo struct {
	gorm.Model

	// Uuid 用户唯一标识，格式：U + 日期前缀随机串
	Uuid string `gorm:"column:uuid;uniqueIndex;type:char(20);not null;comment:用户唯一id"`

	// Username 登录名，同时作为展示名
	Username string `gorm:"column:username;uniqueIndex;type:varchar(20);not null;comment:用户名"`

	// Password bcrypt 哈希，不存明文
	Password string `gorm:"column:password;type:varchar(100);not null;comment:密码"`

	// AvatarEmoji 表情头像，与 Avatar 二选一展示
	AvatarEmoji string `gorm:"column:avatar_emoji;type:varchar(16);comment:表情头像"`

	// Avatar 图片头像路径，如 /static/avatars/xxx.png
	Avatar string `gorm:"column:avatar;type:varchar(255);comment:头像"`

	Bio string `gorm:"column:bio;type:varchar(100);comment:个人简介"`

	// Theme / FontSize 外观偏好，服务端只做存储
	Theme    string `gorm:"column:theme;type:varchar(10);default:light;comment:主题"`
	FontSize string `gorm:"column:font_size;type:varchar(10);default:medium;comment:字号"`

	// Status 账号状态 0=正常, 1=封禁
	Status int8 `gorm:"column:status;index;not null;default:0;comment:状态，0.正常，1.封禁"`

	// RawPassword 明文密码，仅用于 BeforeSave 加密
	RawPassword string `gorm:"-" json:"-"`
}

func (UserInfo) TableName() string {
	return "user_info"
}

// BeforeSave 将 RawPassword 加密后写入 Password
func (u *UserInfo) BeforeSave(tx *gorm.DB) error {
	if u.RawPassword == "" {
		return nil
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(u.RawPassword), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	u.Password = string(hash)
	u.RawPassword = ""
	return nil
}

// CheckPassword 校验登录密码
func (u *UserInfo) CheckPassword(plaintext string) bool {
	return bcrypt.CompareHashAndPassword([]byte(u.Password), []byte(plaintext)) == nil
}

// IsBanned 是否被封禁
func (u *UserInfo) IsBanned() bool {
	return u.Status == 1
}
