// Package admin 管理后台：账号封禁与群聊解散
// 管理员由配置里的用户名列表决定，每次请求都回库确认身份
package admin

import (
	"context"

	"go.uber.org/zap"

	"kama_chat_hub/internal/dao/mysql/repository"
	"kama_chat_hub/internal/model"
	"kama_chat_hub/pkg/constants"
	"kama_chat_hub/pkg/errorx"
)

// StatusSetter 修改账号状态
type StatusSetter interface {
	SetStatus(ctx context.Context, uid string, status int8) error
}

// SessionRevoker 封禁后吊销 Refresh Token
type SessionRevoker interface {
	Logout(ctx context.Context, userID string) error
}

// GroupDismisser 解散群聊
type GroupDismisser interface {
	Dismiss(ctx context.Context, conversationId string) error
}

type Service struct {
	repos    *repository.Repositories
	users    StatusSetter
	sessions SessionRevoker
	groups   GroupDismisser
	admins   map[string]struct{}
}

// NewAdminService admins 为管理员用户名
func NewAdminService(repos *repository.Repositories, users StatusSetter, sessions SessionRevoker,
	groups GroupDismisser, admins []string) *Service {
	set := make(map[string]struct{}, len(admins))
	for _, name := range admins {
		set[name] = struct{}{}
	}
	return &Service{repos: repos, users: users, sessions: sessions, groups: groups, admins: set}
}

// BanUser 封禁后对方无法登录、刷新 Token 或发消息
func (s *Service) BanUser(ctx context.Context, actor, userId string) error {
	if err := s.requireAdmin(actor); err != nil {
		return err
	}
	if userId == actor {
		return errorx.ErrSelfPairNotAllowed
	}
	target, err := s.findUser(userId)
	if err != nil {
		return err
	}
	if s.isAdmin(target) {
		return errorx.New(errorx.CodeForbidden, "不能封禁管理员")
	}
	if target.IsBanned() {
		return nil
	}
	if err := s.users.SetStatus(ctx, userId, constants.USER_BANNED); err != nil {
		return err
	}
	if err := s.sessions.Logout(ctx, userId); err != nil {
		return err
	}
	zap.L().Info("user banned", zap.String("admin", actor), zap.String("user_id", userId))
	return nil
}

// UnbanUser 已是正常状态时直接返回
func (s *Service) UnbanUser(ctx context.Context, actor, userId string) error {
	if err := s.requireAdmin(actor); err != nil {
		return err
	}
	target, err := s.findUser(userId)
	if err != nil {
		return err
	}
	if !target.IsBanned() {
		return nil
	}
	if err := s.users.SetStatus(ctx, userId, constants.USER_NORMAL); err != nil {
		return err
	}
	zap.L().Info("user unbanned", zap.String("admin", actor), zap.String("user_id", userId))
	return nil
}

func (s *Service) DismissGroup(ctx context.Context, actor, conversationId string) error {
	if err := s.requireAdmin(actor); err != nil {
		return err
	}
	if err := s.groups.Dismiss(ctx, conversationId); err != nil {
		return err
	}
	zap.L().Info("group dismissed by admin", zap.String("admin", actor), zap.String("conversation_id", conversationId))
	return nil
}

func (s *Service) requireAdmin(actor string) error {
	user, err := s.repos.User.FindByUuid(actor)
	if err != nil {
		if errorx.IsNotFound(err) {
			return errorx.ErrForbidden
		}
		return storeErr("find admin", err)
	}
	if user.IsBanned() || !s.isAdmin(user) {
		return errorx.ErrForbidden
	}
	return nil
}

func (s *Service) isAdmin(user *model.UserInfo) bool {
	_, ok := s.admins[user.Username]
	return ok
}

func (s *Service) findUser(uid string) (*model.UserInfo, error) {
	user, err := s.repos.User.FindByUuid(uid)
	if err != nil {
		if errorx.IsNotFound(err) {
			return nil, errorx.ErrUserNotExist
		}
		return nil, storeErr("find user", err)
	}
	return user, nil
}

func storeErr(op string, err error) error {
	if errorx.IsInternal(err) {
		zap.L().Error(op, zap.Error(err))
		return errorx.ErrServerBusy
	}
	return err
}
