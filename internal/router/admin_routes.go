package router

import "github.com/gin-gonic/gin"

// RegisterAdminRoutes 管理员接口，非管理员调用返回无权限
func (rt *Router) RegisterAdminRoutes(rg *gin.RouterGroup) {
	h := rt.handlers.Admin

	userGroup := rg.Group("/user")
	{
		userGroup.POST("/ban", h.BanUser)
		userGroup.POST("/unban", h.UnbanUser)
	}

	groupGroup := rg.Group("/group")
	{
		groupGroup.POST("/dismiss", h.DismissGroup)
	}
}
