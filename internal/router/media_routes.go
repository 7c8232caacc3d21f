package router

import "github.com/gin-gonic/gin"

// RegisterMediaRoutes 上传接口
func (rt *Router) RegisterMediaRoutes(rg *gin.RouterGroup) {
	rg.POST("/upload", rt.handlers.Media.Upload)
	rg.POST("/avatar", rt.handlers.Media.UploadAvatar)
}
