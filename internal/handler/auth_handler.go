// Package handler 提供 HTTP 请求处理器
// 本文件处理注册、登录与 Token 相关的 API 请求
package handler

import (
	"github.com/gin-gonic/gin"

	"kama_chat_hub/internal/dto/request"
	"kama_chat_hub/internal/service"
)

// AuthHandler 认证请求处理器
type AuthHandler struct {
	authSvc service.AuthService
	userSvc service.UserService
}

// NewAuthHandler 创建认证处理器实例
func NewAuthHandler(authSvc service.AuthService, userSvc service.UserService) *AuthHandler {
	return &AuthHandler{authSvc: authSvc, userSvc: userSvc}
}

// Register 用户注册，成功后直接返回登录态
// POST /auth/register
// 请求体: request.RegisterRequest
// 响应: respond.LoginRespond
func (h *AuthHandler) Register(c *gin.Context) {
	var req request.RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		HandleParamError(c, err)
		return
	}
	data, err := h.userSvc.Register(c.Request.Context(), req)
	if err != nil {
		HandleError(c, err)
		return
	}
	HandleSuccess(c, data)
}

// Login 用户名密码登录
// POST /auth/login
// 请求体: request.LoginRequest
// 响应: respond.LoginRespond (资料 + 双 Token)
func (h *AuthHandler) Login(c *gin.Context) {
	var req request.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		HandleParamError(c, err)
		return
	}
	data, err := h.userSvc.Login(c.Request.Context(), req)
	if err != nil {
		HandleError(c, err)
		return
	}
	HandleSuccess(c, data)
}

// Refresh 刷新 Token
// POST /auth/refresh
// 请求体: request.RefreshTokenRequest
// 响应: respond.TokenRespond
//
// 单点互踢机制:
//   - 用户登录时会在 Redis 中存储 Token ID
//   - 如果用户在其他设备登录，会覆盖旧的 Token ID
//   - 使用旧 Token ID 刷新时会被拒绝
func (h *AuthHandler) Refresh(c *gin.Context) {
	var req request.RefreshTokenRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		HandleParamError(c, err)
		return
	}
	data, err := h.authSvc.Refresh(c.Request.Context(), req.RefreshToken)
	if err != nil {
		HandleError(c, err)
		return
	}
	HandleSuccess(c, data)
}

// Logout 注销当前登录，Refresh Token 随之失效
// POST /auth/logout（需要登录）
func (h *AuthHandler) Logout(c *gin.Context) {
	if err := h.authSvc.Logout(c.Request.Context(), currentUser(c)); err != nil {
		HandleError(c, err)
		return
	}
	HandleSuccess(c, nil)
}
