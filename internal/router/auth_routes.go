package router

import (
	"github.com/gin-gonic/gin"

	"kama_chat_hub/internal/infrastructure/middleware"
)

// RegisterAuthRoutes 注册认证相关路由
func (rt *Router) RegisterAuthRoutes(rg *gin.RouterGroup) {
	h := rt.handlers.Auth
	rg.POST("/register", h.Register)
	rg.POST("/login", h.Login)
	// 使用 Refresh Token 换取新的双 Token
	rg.POST("/refresh", h.Refresh)
	rg.POST("/logout", middleware.JWTAuth(), h.Logout)
}
