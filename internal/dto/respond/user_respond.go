package respond

import "time"

// UserBrief 列表与消息中展示的用户摘要
type UserBrief struct {
	UserId      string `json:"user_id"`
	Username    string `json:"username"`
	Avatar      string `json:"avatar"`
	AvatarEmoji string `json:"avatar_emoji"`
}

// ProfileRespond 个人资料
type ProfileRespond struct {
	UserId      string    `json:"user_id"`
	Username    string    `json:"username"`
	AvatarEmoji string    `json:"avatar_emoji"`
	Avatar      string    `json:"avatar"`
	Bio         string    `json:"bio"`
	Theme       string    `json:"theme"`
	FontSize    string    `json:"font_size"`
	Status      int8      `json:"status"`
	CreatedAt   time.Time `json:"created_at"`
}

// LoginRespond 登录 / 注册响应
type LoginRespond struct {
	ProfileRespond
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
}

// TokenRespond 刷新后的 token 对
type TokenRespond struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
}

// SearchUserRespond 用户搜索结果
// Relation: self / friend / pending_out / pending_in / none
type SearchUserRespond struct {
	UserBrief
	Bio       string `json:"bio"`
	Relation  string `json:"relation"`
	CanChat   bool   `json:"can_chat"`
	RequestId string `json:"request_id,omitempty"`
}

// UploadRespond 上传结果
type UploadRespond struct {
	Url  string `json:"url"`
	Type string `json:"type"`
	Name string `json:"name"`
	Size int64  `json:"size"`
}
