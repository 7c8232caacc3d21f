package request

// CreatePrivateRequest 发起私聊
type CreatePrivateRequest struct {
	UserId string `json:"user_id" binding:"required"`
}

// CreateGroupRequest 创建群聊，成员列表为空由业务层返回专门的错误码
type CreateGroupRequest struct {
	Name      string   `json:"name"`
	MemberIds []string `json:"member_ids"`
}

// ConversationIdRequest 只携带会话 ID 的请求（退出、查询设置）
type ConversationIdRequest struct {
	ConversationId string `json:"conversation_id" form:"conversation_id" binding:"required"`
}

// RenameRequest 修改群名
type RenameRequest struct {
	ConversationId string `json:"conversation_id" binding:"required"`
	Name           string `json:"name"`
}

// AnnouncementRequest 修改群公告，空字符串表示清空
type AnnouncementRequest struct {
	ConversationId string `json:"conversation_id" binding:"required"`
	Announcement   string `json:"announcement"`
}

// AvatarRequest 修改群头像
type AvatarRequest struct {
	ConversationId string `json:"conversation_id" binding:"required"`
	Avatar         string `json:"avatar" binding:"required,notblank,max=255"`
}

// MemberRequest 添加或移除成员
type MemberRequest struct {
	ConversationId string `json:"conversation_id" binding:"required"`
	UserId         string `json:"user_id" binding:"required"`
}

// SetRoleRequest 设置成员角色
type SetRoleRequest struct {
	ConversationId string `json:"conversation_id" binding:"required"`
	UserId         string `json:"user_id" binding:"required"`
	Role           string `json:"role" binding:"required,oneof=admin member"`
}

// TransferRequest 转让群主
type TransferRequest struct {
	ConversationId string `json:"conversation_id" binding:"required"`
	NewOwnerId     string `json:"new_owner_id" binding:"required"`
}
