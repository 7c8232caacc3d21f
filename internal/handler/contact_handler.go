package handler

import (
	"github.com/gin-gonic/gin"

	"kama_chat_hub/internal/dto/request"
	"kama_chat_hub/internal/dto/respond"
	"kama_chat_hub/internal/service"
)

// ContactHandler 好友关系
type ContactHandler struct {
	contactSvc service.ContactService
}

// NewContactHandler 创建联系人处理器实例
func NewContactHandler(contactSvc service.ContactService) *ContactHandler {
	return &ContactHandler{contactSvc: contactSvc}
}

// Friends 好友列表
// GET /contact/friends
func (h *ContactHandler) Friends(c *gin.Context) {
	contacts, err := h.contactSvc.ListContacts(currentUser(c))
	if err != nil {
		HandleError(c, err)
		return
	}
	HandleSuccess(c, contacts.Friends)
}

// Requests 收到与发出的待处理请求
// GET /contact/requests
func (h *ContactHandler) Requests(c *gin.Context) {
	contacts, err := h.contactSvc.ListContacts(currentUser(c))
	if err != nil {
		HandleError(c, err)
		return
	}
	HandleSuccess(c, respond.FriendRequestsRespond{
		Incoming:     contacts.Incoming,
		Outgoing:     contacts.Outgoing,
		PendingCount: contacts.PendingCount,
	})
}

// Request 发送好友请求，对方已向自己发出请求时直接成为好友
// POST /contact/request
func (h *ContactHandler) Request(c *gin.Context) {
	var req request.FriendUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		HandleParamError(c, err)
		return
	}
	data, err := h.contactSvc.SendRequest(c.Request.Context(), currentUser(c), req.UserId)
	if err != nil {
		HandleError(c, err)
		return
	}
	HandleSuccess(c, data)
}

// Accept 同意好友请求
// POST /contact/accept
func (h *ContactHandler) Accept(c *gin.Context) {
	var req request.FriendRequestIdRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		HandleParamError(c, err)
		return
	}
	if err := h.contactSvc.Accept(c.Request.Context(), currentUser(c), req.RequestId); err != nil {
		HandleError(c, err)
		return
	}
	HandleSuccess(c, nil)
}

// Reject 拒绝好友请求
// POST /contact/reject
func (h *ContactHandler) Reject(c *gin.Context) {
	var req request.FriendRequestIdRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		HandleParamError(c, err)
		return
	}
	if err := h.contactSvc.Reject(c.Request.Context(), currentUser(c), req.RequestId); err != nil {
		HandleError(c, err)
		return
	}
	HandleSuccess(c, nil)
}

// Remove 删除好友
// POST /contact/remove
func (h *ContactHandler) Remove(c *gin.Context) {
	var req request.FriendUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		HandleParamError(c, err)
		return
	}
	if err := h.contactSvc.Remove(c.Request.Context(), currentUser(c), req.UserId); err != nil {
		HandleError(c, err)
		return
	}
	HandleSuccess(c, nil)
}
