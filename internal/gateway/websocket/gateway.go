// Package websocket 实时通道的连接层
// 每条连接一个 Session，读协程解析上行帧，写协程把发送队列写回客户端
package websocket

import (
	"context"
	"net/http"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"kama_chat_hub/internal/dto/request"
	"kama_chat_hub/internal/dto/respond"
	"kama_chat_hub/internal/service/chat"
	"kama_chat_hub/pkg/constants"
)

// MessageSender send_message 帧交给消息引擎处理
type MessageSender interface {
	Send(ctx context.Context, actor string, req request.SendMessageRequest) (*respond.MessageRespond, error)
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  2048,
	WriteBufferSize: 2048,
	// 前后端分离部署时来源不同，跨域由 cors 中间件与 token 校验兜底
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// Gateway 升级连接并创建 Session
type Gateway struct {
	hub    *chat.Hub
	sender MessageSender
	buffer int
}

// NewGateway buffer 为单连接发送队列长度
func NewGateway(hub *chat.Hub, sender MessageSender, buffer int) *Gateway {
	if buffer <= 0 {
		buffer = constants.SESSION_SEND_BUFFER
	}
	return &Gateway{hub: hub, sender: sender, buffer: buffer}
}

// ServeWS userId 已由上层完成认证
func (g *Gateway) ServeWS(w http.ResponseWriter, r *http.Request, userId string) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade 失败时已向客户端写回错误响应
		zap.L().Error("ws upgrade", zap.String("user_id", userId), zap.Error(err))
		return
	}
	client := chat.NewClient(uuid.NewString(), userId, g.buffer)
	g.hub.Register(client)

	s := newSession(conn, client, g.hub, g.sender)
	go s.writeLoop()
	go s.readLoop()
	zap.L().Info("ws连接成功", zap.String("user_id", userId), zap.String("conn_id", client.Id))
}
