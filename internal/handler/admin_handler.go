package handler

import (
	"github.com/gin-gonic/gin"

	"kama_chat_hub/internal/dto/request"
	"kama_chat_hub/internal/service"
)

// AdminHandler 管理后台，是否为管理员由 Service 判断
type AdminHandler struct {
	adminSvc service.AdminService
}

func NewAdminHandler(adminSvc service.AdminService) *AdminHandler {
	return &AdminHandler{adminSvc: adminSvc}
}

// BanUser 封禁账号
// POST /admin/user/ban
func (h *AdminHandler) BanUser(c *gin.Context) {
	var req request.AdminUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		HandleParamError(c, err)
		return
	}
	if err := h.adminSvc.BanUser(c.Request.Context(), currentUser(c), req.UserId); err != nil {
		HandleError(c, err)
		return
	}
	HandleSuccess(c, nil)
}

// UnbanUser POST /admin/user/unban
func (h *AdminHandler) UnbanUser(c *gin.Context) {
	var req request.AdminUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		HandleParamError(c, err)
		return
	}
	if err := h.adminSvc.UnbanUser(c.Request.Context(), currentUser(c), req.UserId); err != nil {
		HandleError(c, err)
		return
	}
	HandleSuccess(c, nil)
}

// DismissGroup 解散任意群聊，成员全部被移出
// POST /admin/group/dismiss
func (h *AdminHandler) DismissGroup(c *gin.Context) {
	var req request.AdminGroupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		HandleParamError(c, err)
		return
	}
	if err := h.adminSvc.DismissGroup(c.Request.Context(), currentUser(c), req.ConversationId); err != nil {
		HandleError(c, err)
		return
	}
	HandleSuccess(c, nil)
}
