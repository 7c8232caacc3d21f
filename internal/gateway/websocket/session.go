package websocket

import (
	"context"
	"encoding/json"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"kama_chat_hub/internal/dto/request"
	"kama_chat_hub/internal/dto/respond"
	"kama_chat_hub/internal/service/chat"
	"kama_chat_hub/pkg/errorx"
)

const (
	// 写超时
	writeWait = 10 * time.Second
	// 读超时，期间必须收到 pong 或任意帧
	pongWait = 60 * time.Second
	// ping 周期，必须小于 pongWait
	pingPeriod = pongWait * 9 / 10
	// 单帧上限
	readLimit = 64 << 10
	// 处理一个上行帧的超时
	handleTimeout = 10 * time.Second
)

// 上行事件
const (
	inJoin  = "join_conversation"
	inLeave = "leave_conversation"
	inSend  = "send_message"
	inPing  = "ping"
)

// 仅由连接层产生的下行事件
const (
	outSent  = "message_sent"
	outError = "error"
	outPong  = "pong"
)

// inboundFrame {"event", "data", "request_id"}
type inboundFrame struct {
	Event     string          `json:"event"`
	Data      json.RawMessage `json:"data"`
	RequestId string          `json:"request_id"`
}

type outboundFrame struct {
	Event string `json:"event"`
	Data  any    `json:"data"`
}

type conversationRef struct {
	ConversationId string `json:"conversation_id"`
}

type pongData struct {
	RequestId string `json:"request_id,omitempty"`
}

// Session 一条 ws 连接
type Session struct {
	conn   *websocket.Conn
	client *chat.Client
	hub    *chat.Hub
	sender MessageSender
}

func newSession(conn *websocket.Conn, client *chat.Client, hub *chat.Hub, sender MessageSender) *Session {
	return &Session{conn: conn, client: client, hub: hub, sender: sender}
}

// readLoop 退出时立即注销连接，写协程随发送队列关闭而退出
func (s *Session) readLoop() {
	defer func() {
		s.hub.Unregister(s.client)
		_ = s.conn.Close()
		zap.L().Info("ws连接断开", zap.String("user_id", s.client.UserId), zap.String("conn_id", s.client.Id))
	}()

	s.conn.SetReadLimit(readLimit)
	_ = s.conn.SetReadDeadline(time.Now().Add(pongWait))
	s.conn.SetPongHandler(func(string) error {
		return s.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		msgType, data, err := s.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				zap.L().Warn("ws read", zap.String("conn_id", s.client.Id), zap.Error(err))
			}
			return
		}
		_ = s.conn.SetReadDeadline(time.Now().Add(pongWait))
		if msgType != websocket.TextMessage {
			s.replyError("", errorx.New(errorx.CodeInvalidParam, "只支持文本帧"))
			continue
		}
		var frame inboundFrame
		if err := json.Unmarshal(data, &frame); err != nil {
			s.replyError("", errorx.New(errorx.CodeInvalidParam, "帧格式错误"))
			continue
		}
		s.handle(frame)
	}
}

func (s *Session) handle(frame inboundFrame) {
	ctx, cancel := context.WithTimeout(context.Background(), handleTimeout)
	defer cancel()

	switch frame.Event {
	case inPing:
		s.reply(outPong, pongData{RequestId: frame.RequestId})
	case inJoin:
		var ref conversationRef
		if err := json.Unmarshal(frame.Data, &ref); err != nil {
			s.replyError(frame.RequestId, errorx.ErrInvalidParam)
			return
		}
		// 非成员的订阅请求静默忽略
		s.hub.Join(ctx, s.client, ref.ConversationId)
	case inLeave:
		var ref conversationRef
		if err := json.Unmarshal(frame.Data, &ref); err != nil {
			s.replyError(frame.RequestId, errorx.ErrInvalidParam)
			return
		}
		s.hub.Leave(s.client, ref.ConversationId)
	case inSend:
		var req request.SendMessageRequest
		if err := json.Unmarshal(frame.Data, &req); err != nil {
			s.replyError(frame.RequestId, errorx.ErrInvalidParam)
			return
		}
		msg, err := s.sender.Send(ctx, s.client.UserId, req)
		if err != nil {
			s.replyError(frame.RequestId, err)
			return
		}
		s.reply(outSent, respond.WsAckEvent{RequestId: frame.RequestId, Message: *msg})
	default:
		s.replyError(frame.RequestId, errorx.Newf(errorx.CodeInvalidParam, "未知事件: %s", frame.Event))
	}
}

func (s *Session) replyError(requestId string, err error) {
	code := errorx.GetCode(err)
	msg := err.Error()
	if errorx.IsInternal(err) {
		zap.L().Error("ws handle", zap.String("conn_id", s.client.Id), zap.Error(err))
		code, msg = errorx.CodeServerBusy, errorx.ErrServerBusy.Msg
	}
	s.reply(outError, respond.WsErrorEvent{RequestId: requestId, Code: code, Msg: msg})
}

// reply 回复与事件共用发送队列，保证单连接内的写入顺序
func (s *Session) reply(name string, data any) {
	b, err := json.Marshal(outboundFrame{Event: name, Data: data})
	if err != nil {
		zap.L().Error("encode ws reply", zap.String("event", name), zap.Error(err))
		return
	}
	if !s.client.Push(b) {
		zap.L().Warn("ws reply dropped", zap.String("event", name), zap.String("conn_id", s.client.Id))
	}
}

// writeLoop 发送队列关闭即结束
func (s *Session) writeLoop() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = s.conn.Close()
	}()

	for {
		select {
		case frame, ok := <-s.client.Send():
			_ = s.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = s.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := s.conn.WriteMessage(websocket.TextMessage, frame); err != nil {
				zap.L().Warn("ws write", zap.String("conn_id", s.client.Id), zap.Error(err))
				return
			}
		case <-ticker.C:
			_ = s.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := s.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
