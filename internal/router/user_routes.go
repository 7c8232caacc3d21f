package router

import "github.com/gin-gonic/gin"

// RegisterUserRoutes 个人资料与用户搜索
func (rt *Router) RegisterUserRoutes(rg *gin.RouterGroup) {
	h := rt.handlers.User
	rg.GET("/profile", h.GetProfile)
	rg.POST("/profile", h.UpdateProfile)
	rg.GET("/search", h.Search)
}
