// Package handler 提供 HTTP 请求处理器
// 本文件处理 WebSocket 连接升级
package handler

import (
	"github.com/gin-gonic/gin"

	"kama_chat_hub/internal/gateway/websocket"
	"kama_chat_hub/pkg/errorx"
)

// WsHandler 实时通道入口
type WsHandler struct {
	gateway *websocket.Gateway
}

// NewWsHandler 创建实时通道处理器
func NewWsHandler(gateway *websocket.Gateway) *WsHandler {
	return &WsHandler{gateway: gateway}
}

// Connect 升级为 WebSocket 连接
// GET /wss?token=xxx
// 浏览器无法为 WebSocket 设置 Authorization 头，JWTAuth 同时接受 token 查询参数
func (h *WsHandler) Connect(c *gin.Context) {
	if h.gateway == nil {
		HandleError(c, errorx.ErrServerBusy)
		return
	}
	h.gateway.ServeWS(c.Writer, c.Request, currentUser(c))
}
