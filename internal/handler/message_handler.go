package handler

import (
	"github.com/gin-gonic/gin"

	"kama_chat_hub/internal/dto/request"
	"kama_chat_hub/internal/dto/respond"
	"kama_chat_hub/internal/service"
)

// MessageHandler 消息收发、置顶与收藏
type MessageHandler struct {
	msgSvc service.MessageService
}

// NewMessageHandler 创建消息处理器实例
func NewMessageHandler(msgSvc service.MessageService) *MessageHandler {
	return &MessageHandler{msgSvc: msgSvc}
}

// List 历史消息，before 为消息序号游标
// GET /message/list?conversation_id=&before=&limit=
func (h *MessageHandler) List(c *gin.Context) {
	var req request.ListMessagesRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		HandleParamError(c, err)
		return
	}
	data, err := h.msgSvc.ListMessages(currentUser(c), req.ConversationId, req.Before, req.Limit)
	if err != nil {
		HandleError(c, err)
		return
	}
	HandleSuccess(c, data)
}

// Send 发送消息，与 ws 的 send_message 走同一条路径
// POST /message/send
func (h *MessageHandler) Send(c *gin.Context) {
	var req request.SendMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		HandleParamError(c, err)
		return
	}
	data, err := h.msgSvc.Send(c.Request.Context(), currentUser(c), req)
	if err != nil {
		HandleError(c, err)
		return
	}
	HandleSuccess(c, data)
}

// Edit 编辑自己的文本消息
// POST /message/edit
func (h *MessageHandler) Edit(c *gin.Context) {
	var req request.EditMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		HandleParamError(c, err)
		return
	}
	data, err := h.msgSvc.Edit(c.Request.Context(), currentUser(c), req.MessageId.Int64(), req.Content)
	if err != nil {
		HandleError(c, err)
		return
	}
	HandleSuccess(c, data)
}

// Revoke 撤回消息
// POST /message/revoke
func (h *MessageHandler) Revoke(c *gin.Context) {
	var req request.MessageIdRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		HandleParamError(c, err)
		return
	}
	if err := h.msgSvc.Revoke(c.Request.Context(), currentUser(c), req.MessageId.Int64()); err != nil {
		HandleError(c, err)
		return
	}
	HandleSuccess(c, nil)
}

// Forward 转发到多个会话
// POST /message/forward
func (h *MessageHandler) Forward(c *gin.Context) {
	var req request.ForwardRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		HandleParamError(c, err)
		return
	}
	n, err := h.msgSvc.Forward(c.Request.Context(), currentUser(c), req.MessageId.Int64(), req.TargetIds)
	if err != nil {
		HandleError(c, err)
		return
	}
	HandleSuccess(c, respond.ForwardRespond{Count: n})
}

// Pin 置顶消息
// POST /message/pin
func (h *MessageHandler) Pin(c *gin.Context) {
	var req request.PinRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		HandleParamError(c, err)
		return
	}
	if err := h.msgSvc.Pin(c.Request.Context(), currentUser(c), req.ConversationId, req.MessageId.Int64()); err != nil {
		HandleError(c, err)
		return
	}
	HandleSuccess(c, nil)
}

// Unpin 取消置顶
// POST /message/unpin
func (h *MessageHandler) Unpin(c *gin.Context) {
	var req request.PinRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		HandleParamError(c, err)
		return
	}
	if err := h.msgSvc.Unpin(c.Request.Context(), currentUser(c), req.ConversationId, req.MessageId.Int64()); err != nil {
		HandleError(c, err)
		return
	}
	HandleSuccess(c, nil)
}

// Pinned 会话的置顶列表
// GET /message/pinned?conversation_id=xxx
func (h *MessageHandler) Pinned(c *gin.Context) {
	var req request.ConversationIdRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		HandleParamError(c, err)
		return
	}
	data, err := h.msgSvc.ListPinned(currentUser(c), req.ConversationId)
	if err != nil {
		HandleError(c, err)
		return
	}
	HandleSuccess(c, data)
}

// Favorite 收藏 / 取消收藏
// POST /message/favorite
func (h *MessageHandler) Favorite(c *gin.Context) {
	var req request.MessageIdRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		HandleParamError(c, err)
		return
	}
	favorited, err := h.msgSvc.ToggleFavorite(currentUser(c), req.MessageId.Int64())
	if err != nil {
		HandleError(c, err)
		return
	}
	HandleSuccess(c, respond.FavoriteToggleRespond{Favorited: favorited})
}

// Favorites 收藏列表
// GET /message/favorites?before=&limit=
func (h *MessageHandler) Favorites(c *gin.Context) {
	var req request.ListFavoritesRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		HandleParamError(c, err)
		return
	}
	data, err := h.msgSvc.ListFavorites(currentUser(c), req.Before, req.Limit)
	if err != nil {
		HandleError(c, err)
		return
	}
	HandleSuccess(c, data)
}
