// Package service 定义业务层接口
// 本文件定义所有 Service 接口，供 Handler 层调用
package service

import (
	"context"
	"mime/multipart"

	"kama_chat_hub/internal/dto/request"
	"kama_chat_hub/internal/dto/respond"
)

// AuthService Token 刷新与注销
type AuthService interface {
	Refresh(ctx context.Context, refreshToken string) (*respond.TokenRespond, error)
	Logout(ctx context.Context, userID string) error
}

// UserService 账号与个人资料
type UserService interface {
	Register(ctx context.Context, req request.RegisterRequest) (*respond.LoginRespond, error)
	Login(ctx context.Context, req request.LoginRequest) (*respond.LoginRespond, error)
	GetProfile(ctx context.Context, uid string) (*respond.ProfileRespond, error)
	UpdateProfile(ctx context.Context, uid string, req request.UpdateProfileRequest) (*respond.ProfileRespond, error)
	// SearchUsers 最多 20 条，自己排在最前
	SearchUsers(viewer, keyword string) ([]respond.SearchUserRespond, error)
	SetStatus(ctx context.Context, uid string, status int8) error
}

// ConversationService 会话登记：私聊、自聊、群聊及成员管理
type ConversationService interface {
	CreatePrivate(ctx context.Context, actor, peerId string) (*respond.ConversationRespond, error)
	CreateSelfChat(ctx context.Context, actor string) (*respond.ConversationRespond, error)
	CreateGroup(ctx context.Context, actor, name string, memberIds []string) (*respond.ConversationRespond, error)
	Rename(ctx context.Context, actor, conversationId, name string) error
	SetAnnouncement(ctx context.Context, actor, conversationId, announcement string) error
	SetAvatar(ctx context.Context, actor, conversationId, avatar string) error
	AddMember(ctx context.Context, actor, conversationId, userId string) error
	RemoveMember(ctx context.Context, actor, conversationId, userId string) error
	SetRole(ctx context.Context, actor, conversationId, userId, roleName string) error
	TransferOwnership(ctx context.Context, actor, conversationId, newOwnerId string) error
	Leave(ctx context.Context, actor, conversationId string) error
	IsMember(ctx context.Context, conversationId, userId string) (bool, error)
	ListConversations(actor string) ([]respond.ConversationRespond, error)
	GetSettings(actor, conversationId string) (*respond.SettingsRespond, error)
	// Dismiss 不做鉴权，只供管理后台调用
	Dismiss(ctx context.Context, conversationId string) error
}

// MessageService 消息引擎
type MessageService interface {
	Send(ctx context.Context, actor string, req request.SendMessageRequest) (*respond.MessageRespond, error)
	Edit(ctx context.Context, actor string, messageId int64, content string) (*respond.MessageRespond, error)
	Revoke(ctx context.Context, actor string, messageId int64) error
	// Forward 返回实际转发成功的会话数
	Forward(ctx context.Context, actor string, messageId int64, targetIds []string) (int, error)
	Pin(ctx context.Context, actor, conversationId string, messageId int64) error
	Unpin(ctx context.Context, actor, conversationId string, messageId int64) error
	ListPinned(actor, conversationId string) ([]respond.PinnedRespond, error)
	ToggleFavorite(actor string, messageId int64) (bool, error)
	ListFavorites(actor string, before int64, limit int) (*respond.FavoritePage, error)
	ListMessages(actor, conversationId string, before int64, limit int) (*respond.MessagePage, error)
}

// ContactService 好友关系
type ContactService interface {
	SendRequest(ctx context.Context, actor, to string) (*respond.SendFriendRequestRespond, error)
	Accept(ctx context.Context, actor, requestId string) error
	Reject(ctx context.Context, actor, requestId string) error
	Remove(ctx context.Context, actor, friendId string) error
	ListContacts(actor string) (*respond.ContactsRespond, error)
}

// AdminService 管理后台：封禁账号、解散群聊
type AdminService interface {
	BanUser(ctx context.Context, actor, userId string) error
	UnbanUser(ctx context.Context, actor, userId string) error
	DismissGroup(ctx context.Context, actor, conversationId string) error
}

// MediaService 文件上传
type MediaService interface {
	UploadFile(fileHeader *multipart.FileHeader) (*respond.UploadRespond, error)
	UploadAvatar(fileHeader *multipart.FileHeader) (*respond.UploadRespond, error)
	MaxSize() int64
}
