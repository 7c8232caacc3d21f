package request

// RegisterRequest 用户注册请求
type RegisterRequest struct {
	Username    string `json:"username" binding:"required,notblank,min=3,max=20"`
	Password    string `json:"password" binding:"required,min=6,max=64"`
	AvatarEmoji string `json:"avatar_emoji" binding:"omitempty,max=16"`
}

// LoginRequest 用户密码登录请求
type LoginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required,min=6"`
}

// RefreshTokenRequest 刷新 Access Token
type RefreshTokenRequest struct {
	RefreshToken string `json:"refresh_token" binding:"required"`
}

// UpdateProfileRequest 修改个人资料，未传的字段保持不变
type UpdateProfileRequest struct {
	AvatarEmoji *string `json:"avatar_emoji" binding:"omitempty,max=16"`
	Avatar      *string `json:"avatar" binding:"omitempty,max=255"`
	Bio         *string `json:"bio" binding:"omitempty,max=100"`
	Theme       *string `json:"theme" binding:"omitempty,oneof=light dark"`
	FontSize    *string `json:"font_size" binding:"omitempty,oneof=small medium large"`
}

// SearchUsersRequest 搜索用户
type SearchUsersRequest struct {
	Q string `form:"q" binding:"max=20"`
}
