package router

import "github.com/gin-gonic/gin"

// RegisterContactRoutes 注册联系人相关路由
func (rt *Router) RegisterContactRoutes(rg *gin.RouterGroup) {
	h := rt.handlers.Contact
	rg.GET("/friends", h.Friends)
	rg.GET("/requests", h.Requests)
	rg.POST("/request", h.Request)
	rg.POST("/accept", h.Accept)
	rg.POST("/reject", h.Reject)
	rg.POST("/remove", h.Remove)
}
