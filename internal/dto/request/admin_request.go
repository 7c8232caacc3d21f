package request

// AdminUserRequest 封禁 / 解封账号
type AdminUserRequest struct {
	UserId string `json:"user_id" binding:"required"`
}

// AdminGroupRequest 解散群聊
type AdminGroupRequest struct {
	ConversationId string `json:"conversation_id" binding:"required"`
}
