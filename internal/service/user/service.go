// Package user 账号与个人资料：注册、登录、资料维护、用户搜索
package user

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"go.uber.org/zap"

	"kama_chat_hub/internal/dao/mysql/repository"
	myredis "kama_chat_hub/internal/dao/redis"
	"kama_chat_hub/internal/dto/request"
	"kama_chat_hub/internal/dto/respond"
	"kama_chat_hub/internal/model"
	"kama_chat_hub/internal/service/contact"
	"kama_chat_hub/internal/service/view"
	"kama_chat_hub/pkg/constants"
	"kama_chat_hub/pkg/errorx"
	"kama_chat_hub/pkg/util/random"
)

const (
	searchLimit     = 20
	profileCacheTTL = time.Hour
)

// TokenIssuer 登录成功后签发 Token
type TokenIssuer interface {
	IssueTokens(ctx context.Context, userID string) (*respond.TokenRespond, error)
}

// RelationLookup 搜索结果需要附带好友关系
type RelationLookup interface {
	Relations(viewer string, others []string) (map[string]contact.RelationInfo, error)
}

// userInfoService 用户业务逻辑实现
type userInfoService struct {
	repos     *repository.Repositories
	cache     myredis.AsyncCacheService
	tokens    TokenIssuer
	relations RelationLookup
	// privateRequiresFriend 为 true 时只有好友才能发起私聊
	privateRequiresFriend bool
}

// NewUserService 构造函数
func NewUserService(repos *repository.Repositories, cache myredis.AsyncCacheService, tokens TokenIssuer,
	relations RelationLookup, privateRequiresFriend bool) *userInfoService {
	return &userInfoService{
		repos:                 repos,
		cache:                 cache,
		tokens:                tokens,
		relations:             relations,
		privateRequiresFriend: privateRequiresFriend,
	}
}

func profileKey(uid string) string {
	return "user_info_" + uid
}

// Register 注册并直接登录
func (u *userInfoService) Register(ctx context.Context, req request.RegisterRequest) (*respond.LoginRespond, error) {
	username := strings.TrimSpace(req.Username)
	if username == "" {
		return nil, errorx.ErrEmptyName
	}
	if _, err := u.repos.User.FindByUsername(username); err == nil {
		return nil, errorx.New(errorx.CodeUserExist, "用户名已被占用")
	} else if !errorx.IsNotFound(err) {
		return nil, storeErr("find user by name", err)
	}

	user := &model.UserInfo{
		Uuid:        random.NewID(constants.USER_ID_PREFIX),
		Username:    username,
		RawPassword: req.Password,
		AvatarEmoji: req.AvatarEmoji,
		Status:      constants.USER_NORMAL,
	}
	if err := u.repos.User.Create(user); err != nil {
		if repository.IsDuplicate(err) {
			return nil, errorx.New(errorx.CodeUserExist, "用户名已被占用")
		}
		return nil, storeErr("create user", err)
	}
	zap.L().Info("用户注册", zap.String("user_id", user.Uuid), zap.String("username", username))
	return u.issue(ctx, user)
}

// Login 用户名密码登录
func (u *userInfoService) Login(ctx context.Context, req request.LoginRequest) (*respond.LoginRespond, error) {
	user, err := u.repos.User.FindByUsername(strings.TrimSpace(req.Username))
	if err != nil {
		if errorx.IsNotFound(err) {
			return nil, errorx.New(errorx.CodeUserNotExist, "用户不存在，请注册")
		}
		return nil, storeErr("find user by name", err)
	}
	if !user.CheckPassword(req.Password) {
		return nil, errorx.New(errorx.CodeInvalidPassword, "密码不正确，请重试")
	}
	if user.IsBanned() {
		return nil, errorx.New(errorx.CodeForbidden, "账号已被封禁")
	}
	return u.issue(ctx, user)
}

func (u *userInfoService) issue(ctx context.Context, user *model.UserInfo) (*respond.LoginRespond, error) {
	tokens, err := u.tokens.IssueTokens(ctx, user.Uuid)
	if err != nil {
		return nil, err
	}
	return &respond.LoginRespond{
		ProfileRespond: view.Profile(user),
		AccessToken:    tokens.AccessToken,
		RefreshToken:   tokens.RefreshToken,
	}, nil
}

// GetProfile 先读缓存，未命中查库后异步回填
func (u *userInfoService) GetProfile(ctx context.Context, uid string) (*respond.ProfileRespond, error) {
	key := profileKey(uid)
	if cached, err := u.cache.Get(ctx, key); err == nil && cached != "" {
		var rsp respond.ProfileRespond
		if err := json.Unmarshal([]byte(cached), &rsp); err == nil {
			return &rsp, nil
		}
		zap.L().Warn("profile cache unmarshal failed", zap.String("key", key))
	}

	user, err := u.repos.User.FindByUuid(uid)
	if err != nil {
		if errorx.IsNotFound(err) {
			return nil, errorx.ErrUserNotExist
		}
		return nil, storeErr("find user", err)
	}
	rsp := view.Profile(user)

	u.cache.SubmitTask(func() {
		data, err := json.Marshal(rsp)
		if err != nil {
			return
		}
		if err := u.cache.Set(context.Background(), key, string(data), profileCacheTTL); err != nil {
			zap.L().Warn("profile cache set failed", zap.String("key", key), zap.Error(err))
		}
	})
	return &rsp, nil
}

// UpdateProfile 只更新请求里出现的字段
func (u *userInfoService) UpdateProfile(ctx context.Context, uid string, req request.UpdateProfileRequest) (*respond.ProfileRespond, error) {
	updates := make(map[string]any)
	if req.AvatarEmoji != nil {
		updates["avatar_emoji"] = *req.AvatarEmoji
	}
	if req.Avatar != nil {
		avatar := strings.TrimSpace(*req.Avatar)
		if avatar != "" && !view.ValidMediaRef(avatar) {
			return nil, errorx.New(errorx.CodeValidation, "头像地址不合法")
		}
		updates["avatar"] = avatar
	}
	if req.Bio != nil {
		updates["bio"] = strings.TrimSpace(*req.Bio)
	}
	if req.Theme != nil {
		updates["theme"] = *req.Theme
	}
	if req.FontSize != nil {
		updates["font_size"] = *req.FontSize
	}

	if _, err := u.repos.User.FindByUuid(uid); err != nil {
		if errorx.IsNotFound(err) {
			return nil, errorx.ErrUserNotExist
		}
		return nil, storeErr("find user", err)
	}
	if err := u.repos.User.UpdateProfile(uid, updates); err != nil {
		return nil, storeErr("update profile", err)
	}
	if err := u.cache.Delete(ctx, profileKey(uid)); err != nil {
		zap.L().Warn("profile cache delete failed", zap.String("user_id", uid), zap.Error(err))
	}

	user, err := u.repos.User.FindByUuid(uid)
	if err != nil {
		return nil, storeErr("reload user", err)
	}
	rsp := view.Profile(user)
	return &rsp, nil
}

// SetStatus 修改账号状态并清掉资料缓存
func (u *userInfoService) SetStatus(ctx context.Context, uid string, status int8) error {
	if err := u.repos.User.UpdateStatus(uid, status); err != nil {
		return storeErr("update status", err)
	}
	if err := u.cache.Delete(ctx, profileKey(uid)); err != nil {
		zap.L().Warn("profile cache delete failed", zap.String("user_id", uid), zap.Error(err))
	}
	return nil
}

// SearchUsers 按用户名模糊搜索，自己排在最前
func (u *userInfoService) SearchUsers(viewer, keyword string) ([]respond.SearchUserRespond, error) {
	keyword = strings.TrimSpace(keyword)
	out := make([]respond.SearchUserRespond, 0)
	if keyword == "" {
		return out, nil
	}

	users, err := u.repos.User.Search(keyword, searchLimit)
	if err != nil {
		return nil, storeErr("search users", err)
	}
	ids := make([]string, 0, len(users))
	for i := range users {
		ids = append(ids, users[i].Uuid)
	}
	rels, err := u.relations.Relations(viewer, ids)
	if err != nil {
		return nil, err
	}

	for i := range users {
		usr := &users[i]
		rel := rels[usr.Uuid]
		item := respond.SearchUserRespond{
			UserBrief: view.UserBrief(usr),
			Bio:       usr.Bio,
			Relation:  rel.Relation,
			RequestId: rel.RequestId,
			CanChat:   u.canChat(rel.Relation, usr),
		}
		if usr.Uuid == viewer {
			out = append([]respond.SearchUserRespond{item}, out...)
			continue
		}
		out = append(out, item)
	}
	return out, nil
}

func (u *userInfoService) canChat(relation string, target *model.UserInfo) bool {
	switch {
	case relation == contact.RelationSelf:
		return true
	case target.IsBanned():
		return false
	case u.privateRequiresFriend:
		return relation == contact.RelationFriend
	}
	return true
}

// storeErr 持久化错误记录日志后统一返回服务繁忙
func storeErr(op string, err error) error {
	if errorx.IsInternal(err) {
		zap.L().Error(op, zap.Error(err))
		return errorx.ErrServerBusy
	}
	return err
}
