// Package repository 定义数据访问层接口和聚合结构
// 采用 Repository 模式将数据访问逻辑与业务逻辑分离
// 所有 Repository 接口在此文件定义，具体实现在各自的文件中
package repository

import (
	"time"

	"kama_chat_hub/internal/model"

	"gorm.io/gorm"
)

// UserRepository 用户数据访问接口
type UserRepository interface {
	FindByUuid(uuid string) (*model.UserInfo, error)
	FindByUsername(username string) (*model.UserInfo, error)
	FindByUuids(uuids []string) ([]model.UserInfo, error)
	// Search 按用户名模糊匹配
	Search(keyword string, limit int) ([]model.UserInfo, error)
	Create(user *model.UserInfo) error
	UpdateProfile(uuid string, updates map[string]any) error
	UpdateStatus(uuid string, status int8) error
}

// ConversationRepository 会话数据访问接口
type ConversationRepository interface {
	FindByUuid(uuid string) (*model.Conversation, error)
	FindByPairKey(pairKey string) (*model.Conversation, error)
	FindByUuids(uuids []string) ([]model.Conversation, error)
	Create(conversation *model.Conversation) error
	Update(uuid string, updates map[string]any) error
	// NextSeq 原子递增 last_seq 并返回新值，必须在事务内调用
	NextSeq(uuid string, at time.Time) (int64, error)
	// HardDelete 物理删除会话
	HardDelete(uuid string) error
}

// MemberWithUserInfo 成员详细信息（含用户资料）
type MemberWithUserInfo struct {
	UserId      string    `json:"user_id"`
	Username    string    `json:"username"`
	Avatar      string    `json:"avatar"`
	AvatarEmoji string    `json:"avatar_emoji"`
	Role        int8      `json:"role"`
	JoinedAt    time.Time `json:"joined_at"`
}

// MemberRepository 会话成员数据访问接口
type MemberRepository interface {
	// Find 查询当前成员
	Find(conversationUuid, userUuid string) (*model.ConversationMember, error)
	// FindAny 包含已退出（软删除）的成员记录
	FindAny(conversationUuid, userUuid string) (*model.ConversationMember, error)
	ListByConversation(conversationUuid string) ([]model.ConversationMember, error)
	// ListWithUserInfo 按角色从高到低、入群时间从早到晚排序
	ListWithUserInfo(conversationUuid string) ([]MemberWithUserInfo, error)
	ListByConversations(conversationUuids []string) ([]model.ConversationMember, error)
	ConversationIdsByUser(userUuid string) ([]string, error)
	UserIdsByConversation(conversationUuid string) ([]string, error)
	Create(member *model.ConversationMember) error
	// Restore 恢复已退出成员，同时重置角色
	Restore(conversationUuid, userUuid string, role int8) error
	UpdateRole(conversationUuid, userUuid string, role int8) error
	Delete(conversationUuid, userUuid string) error
	Count(conversationUuid string) (int64, error)
	HardDeleteByConversation(conversationUuid string) error
}

// MessageRepository 消息数据访问接口
type MessageRepository interface {
	Create(message *model.Message) error
	FindByUuid(uuid int64) (*model.Message, error)
	FindByUuids(uuids []int64) ([]model.Message, error)
	// ListBefore 返回 seq < beforeSeq 的最新 limit 条，按 seq 倒序；beforeSeq<=0 表示不限
	ListBefore(conversationUuid string, beforeSeq int64, limit int) ([]model.Message, error)
	// FindLatest 每个会话 last_seq 对应的消息
	FindLatest(conversationUuids []string) ([]model.Message, error)
	// UpdateContent 仅对未撤回消息生效，返回受影响行数
	UpdateContent(uuid int64, content string, editedAt time.Time) (int64, error)
	// MarkRevoked 仅对未撤回消息生效，返回受影响行数
	MarkRevoked(uuid int64, revokedAt time.Time) (int64, error)
	HardDeleteByConversation(conversationUuid string) error
}

// FavoriteRepository 收藏数据访问接口
type FavoriteRepository interface {
	Find(userUuid string, messageUuid int64) (*model.FavoriteMessage, error)
	Create(favorite *model.FavoriteMessage) error
	Delete(userUuid string, messageUuid int64) error
	DeleteByMessage(messageUuid int64) error
	DeleteByConversation(conversationUuid string) error
	// ListBefore 返回 id < beforeId 的最新 limit 条，按 id 倒序；beforeId 为 0 表示不限
	ListBefore(userUuid string, beforeId uint, limit int) ([]model.FavoriteMessage, error)
}

// PinnedRepository 置顶消息数据访问接口
type PinnedRepository interface {
	Find(conversationUuid string, messageUuid int64) (*model.PinnedMessage, error)
	Create(pinned *model.PinnedMessage) error
	Delete(conversationUuid string, messageUuid int64) (int64, error)
	DeleteByMessage(messageUuid int64) (int64, error)
	DeleteByConversation(conversationUuid string) error
	Count(conversationUuid string) (int64, error)
	ListByConversation(conversationUuid string) ([]model.PinnedMessage, error)
}

// FriendshipRepository 好友关系数据访问接口
type FriendshipRepository interface {
	FindByUuid(uuid string) (*model.Friendship, error)
	// FindByPair 参数顺序无关
	FindByPair(userA, userB string) (*model.Friendship, error)
	Create(friendship *model.Friendship) error
	Accept(uuid string, at time.Time) error
	Delete(uuid string) error
	ListByUser(userUuid string) ([]model.Friendship, error)
	// ListBetween viewer 与 others 之间已存在的关系
	ListBetween(viewer string, others []string) ([]model.Friendship, error)
}

// Repositories 聚合所有 Repository 实例
// 作为依赖注入的入口，Service 层通过此结构访问数据层
type Repositories struct {
	db           *gorm.DB
	User         UserRepository
	Conversation ConversationRepository
	Member       MemberRepository
	Message      MessageRepository
	Favorite     FavoriteRepository
	Pinned       PinnedRepository
	Friendship   FriendshipRepository
}

// NewRepositories 创建所有 Repository 实例
func NewRepositories(db *gorm.DB) *Repositories {
	return &Repositories{
		db:           db,
		User:         NewUserRepository(db),
		Conversation: NewConversationRepository(db),
		Member:       NewMemberRepository(db),
		Message:      NewMessageRepository(db),
		Favorite:     NewFavoriteRepository(db),
		Pinned:       NewPinnedRepository(db),
		Friendship:   NewFriendshipRepository(db),
	}
}

// Transaction 在数据库事务中执行函数
// fn 内只能使用 txRepos，返回错误时整体回滚
func (r *Repositories) Transaction(fn func(txRepos *Repositories) error) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		return fn(NewRepositories(tx))
	})
}
