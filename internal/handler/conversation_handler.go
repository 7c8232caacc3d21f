package handler

import (
	"github.com/gin-gonic/gin"

	"kama_chat_hub/internal/dto/request"
	"kama_chat_hub/internal/service"
)

// ConversationHandler 会话创建与群管理
type ConversationHandler struct {
	convSvc service.ConversationService
}

// NewConversationHandler 创建会话处理器实例
func NewConversationHandler(convSvc service.ConversationService) *ConversationHandler {
	return &ConversationHandler{convSvc: convSvc}
}

// List 当前用户的会话列表
// GET /conversation/list
func (h *ConversationHandler) List(c *gin.Context) {
	data, err := h.convSvc.ListConversations(currentUser(c))
	if err != nil {
		HandleError(c, err)
		return
	}
	HandleSuccess(c, data)
}

// Settings 会话设置与成员
// GET /conversation/settings?conversation_id=xxx
func (h *ConversationHandler) Settings(c *gin.Context) {
	var req request.ConversationIdRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		HandleParamError(c, err)
		return
	}
	data, err := h.convSvc.GetSettings(currentUser(c), req.ConversationId)
	if err != nil {
		HandleError(c, err)
		return
	}
	HandleSuccess(c, data)
}

// CreatePrivate 发起私聊，已存在时返回原会话
// POST /conversation/private
func (h *ConversationHandler) CreatePrivate(c *gin.Context) {
	var req request.CreatePrivateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		HandleParamError(c, err)
		return
	}
	data, err := h.convSvc.CreatePrivate(c.Request.Context(), currentUser(c), req.UserId)
	if err != nil {
		HandleError(c, err)
		return
	}
	HandleSuccess(c, data)
}

// CreateSelf 打开自己的收藏夹会话
// POST /conversation/self
func (h *ConversationHandler) CreateSelf(c *gin.Context) {
	data, err := h.convSvc.CreateSelfChat(c.Request.Context(), currentUser(c))
	if err != nil {
		HandleError(c, err)
		return
	}
	HandleSuccess(c, data)
}

// CreateGroup 创建群聊
// POST /conversation/group
func (h *ConversationHandler) CreateGroup(c *gin.Context) {
	var req request.CreateGroupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		HandleParamError(c, err)
		return
	}
	data, err := h.convSvc.CreateGroup(c.Request.Context(), currentUser(c), req.Name, req.MemberIds)
	if err != nil {
		HandleError(c, err)
		return
	}
	HandleSuccess(c, data)
}

// Rename 修改群名
// POST /conversation/rename
func (h *ConversationHandler) Rename(c *gin.Context) {
	var req request.RenameRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		HandleParamError(c, err)
		return
	}
	if err := h.convSvc.Rename(c.Request.Context(), currentUser(c), req.ConversationId, req.Name); err != nil {
		HandleError(c, err)
		return
	}
	HandleSuccess(c, nil)
}

// Announcement 修改或清空群公告
// POST /conversation/announcement
func (h *ConversationHandler) Announcement(c *gin.Context) {
	var req request.AnnouncementRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		HandleParamError(c, err)
		return
	}
	if err := h.convSvc.SetAnnouncement(c.Request.Context(), currentUser(c), req.ConversationId, req.Announcement); err != nil {
		HandleError(c, err)
		return
	}
	HandleSuccess(c, nil)
}

// Avatar 修改群头像
// POST /conversation/avatar
func (h *ConversationHandler) Avatar(c *gin.Context) {
	var req request.AvatarRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		HandleParamError(c, err)
		return
	}
	if err := h.convSvc.SetAvatar(c.Request.Context(), currentUser(c), req.ConversationId, req.Avatar); err != nil {
		HandleError(c, err)
		return
	}
	HandleSuccess(c, nil)
}

// AddMember 拉人进群
// POST /conversation/addMember
func (h *ConversationHandler) AddMember(c *gin.Context) {
	var req request.MemberRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		HandleParamError(c, err)
		return
	}
	if err := h.convSvc.AddMember(c.Request.Context(), currentUser(c), req.ConversationId, req.UserId); err != nil {
		HandleError(c, err)
		return
	}
	HandleSuccess(c, nil)
}

// RemoveMember 移出群成员
// POST /conversation/removeMember
func (h *ConversationHandler) RemoveMember(c *gin.Context) {
	var req request.MemberRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		HandleParamError(c, err)
		return
	}
	if err := h.convSvc.RemoveMember(c.Request.Context(), currentUser(c), req.ConversationId, req.UserId); err != nil {
		HandleError(c, err)
		return
	}
	HandleSuccess(c, nil)
}

// SetRole 设置管理员 / 取消管理员
// POST /conversation/setRole
func (h *ConversationHandler) SetRole(c *gin.Context) {
	var req request.SetRoleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		HandleParamError(c, err)
		return
	}
	if err := h.convSvc.SetRole(c.Request.Context(), currentUser(c), req.ConversationId, req.UserId, req.Role); err != nil {
		HandleError(c, err)
		return
	}
	HandleSuccess(c, nil)
}

// Transfer 转让群主
// POST /conversation/transfer
func (h *ConversationHandler) Transfer(c *gin.Context) {
	var req request.TransferRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		HandleParamError(c, err)
		return
	}
	if err := h.convSvc.TransferOwnership(c.Request.Context(), currentUser(c), req.ConversationId, req.NewOwnerId); err != nil {
		HandleError(c, err)
		return
	}
	HandleSuccess(c, nil)
}

// Leave 退出群聊
// POST /conversation/leave
func (h *ConversationHandler) Leave(c *gin.Context) {
	var req request.ConversationIdRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		HandleParamError(c, err)
		return
	}
	if err := h.convSvc.Leave(c.Request.Context(), currentUser(c), req.ConversationId); err != nil {
		HandleError(c, err)
		return
	}
	HandleSuccess(c, nil)
}
