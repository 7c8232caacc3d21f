// 本文件定义 WebSocket 路由
package router

import (
	"github.com/gin-gonic/gin"
)

// RegisterWebSocketRoutes 注册 WebSocket 相关路由（需要认证）
func (rt *Router) RegisterWebSocketRoutes(rg *gin.RouterGroup) {
	// 请求示例: ws://host:port/wss?token=<access_token>
	rg.GET("/wss", rt.handlers.Ws.Connect)
}
