package handler

import (
	"github.com/gin-gonic/gin"

	"kama_chat_hub/internal/dto/request"
	"kama_chat_hub/internal/service"
)

// UserHandler 个人资料与用户搜索
type UserHandler struct {
	userSvc service.UserService
}

// NewUserHandler 创建用户处理器实例
func NewUserHandler(userSvc service.UserService) *UserHandler {
	return &UserHandler{userSvc: userSvc}
}

// GetProfile 当前用户资料
// GET /user/profile
func (h *UserHandler) GetProfile(c *gin.Context) {
	data, err := h.userSvc.GetProfile(c.Request.Context(), currentUser(c))
	if err != nil {
		HandleError(c, err)
		return
	}
	HandleSuccess(c, data)
}

// UpdateProfile 修改资料，未传的字段保持不变
// POST /user/profile
// 请求体: request.UpdateProfileRequest
func (h *UserHandler) UpdateProfile(c *gin.Context) {
	var req request.UpdateProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		HandleParamError(c, err)
		return
	}
	data, err := h.userSvc.UpdateProfile(c.Request.Context(), currentUser(c), req)
	if err != nil {
		HandleError(c, err)
		return
	}
	HandleSuccess(c, data)
}

// Search 按用户名搜索
// GET /user/search?q=xxx
func (h *UserHandler) Search(c *gin.Context) {
	var req request.SearchUsersRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		HandleParamError(c, err)
		return
	}
	data, err := h.userSvc.SearchUsers(currentUser(c), req.Q)
	if err != nil {
		HandleError(c, err)
		return
	}
	HandleSuccess(c, data)
}
