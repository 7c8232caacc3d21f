package router

import "github.com/gin-gonic/gin"

// RegisterMessageRoutes 消息相关路由
func (rt *Router) RegisterMessageRoutes(rg *gin.RouterGroup) {
	h := rt.handlers.Message
	rg.GET("/list", h.List)
	rg.POST("/send", h.Send)
	rg.POST("/edit", h.Edit)
	rg.POST("/revoke", h.Revoke)
	rg.POST("/forward", h.Forward)
	rg.POST("/pin", h.Pin)
	rg.POST("/unpin", h.Unpin)
	rg.GET("/pinned", h.Pinned)
	rg.POST("/favorite", h.Favorite)
	rg.GET("/favorites", h.Favorites)
}
