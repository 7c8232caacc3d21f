// Package handler 提供 HTTP 请求处理器
// 本文件定义 Handler 聚合结构和构造函数
// 通过构造函数注入 Service 依赖
package handler

import (
	"kama_chat_hub/internal/gateway/websocket"
	"kama_chat_hub/internal/service"
)

// Handlers 聚合所有 Handler 实例
// Router 层通过此结构访问各个 Handler
type Handlers struct {
	Auth         *AuthHandler
	User         *UserHandler
	Conversation *ConversationHandler
	Message      *MessageHandler
	Contact      *ContactHandler
	Media        *MediaHandler
	Ws           *WsHandler
	Admin        *AdminHandler
}

// NewHandlers 创建并注入所有 Handler 实例
// gateway 为 nil 时不挂载实时通道（仅用于测试）
func NewHandlers(svc *service.Services, gateway *websocket.Gateway) *Handlers {
	return &Handlers{
		Auth:         NewAuthHandler(svc.Auth, svc.User),
		User:         NewUserHandler(svc.User),
		Conversation: NewConversationHandler(svc.Conversation),
		Message:      NewMessageHandler(svc.Message),
		Contact:      NewContactHandler(svc.Contact),
		Media:        NewMediaHandler(svc.Media),
		Ws:           NewWsHandler(gateway),
		Admin:        NewAdminHandler(svc.Admin),
	}
}
