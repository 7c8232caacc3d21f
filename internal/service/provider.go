// Package service 提供业务逻辑层
// 本文件实现 Service 层的依赖注入和聚合
package service

import (
	"kama_chat_hub/internal/config"
	"kama_chat_hub/internal/dao/mysql/repository"
	myredis "kama_chat_hub/internal/dao/redis"
	"kama_chat_hub/internal/event"
	"kama_chat_hub/internal/service/admin"
	"kama_chat_hub/internal/service/audience"
	"kama_chat_hub/internal/service/auth"
	"kama_chat_hub/internal/service/contact"
	"kama_chat_hub/internal/service/conversation"
	"kama_chat_hub/internal/service/media"
	"kama_chat_hub/internal/service/message"
	"kama_chat_hub/internal/service/user"
)

// Services 聚合所有 Service 实例
// 作为依赖注入的入口，Handler 层通过它访问各个 Service
type Services struct {
	Auth         AuthService
	User         UserService
	Conversation ConversationService
	Message      MessageService
	Contact      ContactService
	Media        MediaService
	Admin        AdminService
}

// Deps 创建 Service 所需的外部依赖
type Deps struct {
	Repos     *repository.Repositories
	Cache     myredis.AsyncCacheService
	Publisher event.Publisher
	Chat      config.ChatConfig
	Static    config.StaticSrcConfig
	// Admins 管理员用户名
	Admins []string
}

// NewServices 创建并注入所有 Service 实例
// 会话与消息共享同一个成员缓存，成员变更后的失效对两边同时可见
func NewServices(deps Deps) *Services {
	members := audience.New(deps.Repos, deps.Cache)
	authSvc := auth.NewAuthService(deps.Cache)
	contactSvc := contact.NewContactService(deps.Repos, deps.Publisher)
	userSvc := user.NewUserService(deps.Repos, deps.Cache, authSvc, contactSvc, deps.Chat.PrivateChatRequiresFriend)
	conversationSvc := conversation.NewConversationService(deps.Repos, members, deps.Publisher, deps.Chat)

	return &Services{
		Auth:         authSvc,
		User:         userSvc,
		Conversation: conversationSvc,
		Message:      message.NewMessageService(deps.Repos, members, deps.Publisher, deps.Chat),
		Contact:      contactSvc,
		Media:        media.NewMediaService(deps.Static.StaticFilePath, deps.Static.StaticAvatarPath, 0),
		Admin:        admin.NewAdminService(deps.Repos, userSvc, authSvc, conversationSvc, deps.Admins),
	}
}
