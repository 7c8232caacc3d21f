package router

import "github.com/gin-gonic/gin"

// RegisterConversationRoutes 会话创建与群管理
func (rt *Router) RegisterConversationRoutes(rg *gin.RouterGroup) {
	h := rt.handlers.Conversation
	rg.GET("/list", h.List)
	rg.GET("/settings", h.Settings)
	rg.POST("/private", h.CreatePrivate)
	rg.POST("/self", h.CreateSelf)
	rg.POST("/group", h.CreateGroup)

	// 群管理
	rg.POST("/rename", h.Rename)
	rg.POST("/announcement", h.Announcement)
	rg.POST("/avatar", h.Avatar)
	rg.POST("/addMember", h.AddMember)
	rg.POST("/removeMember", h.RemoveMember)
	rg.POST("/setRole", h.SetRole)
	rg.POST("/transfer", h.Transfer)
	rg.POST("/leave", h.Leave)
}
