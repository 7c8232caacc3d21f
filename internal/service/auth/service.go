// Package auth 提供认证相关的业务逻辑
// 处理 Token 签发、刷新与单点登录校验
package auth

import (
	"context"

	"go.uber.org/zap"

	myredis "kama_chat_hub/internal/dao/redis"
	"kama_chat_hub/internal/dto/respond"
	"kama_chat_hub/pkg/errorx"
	"kama_chat_hub/pkg/util/jwt"
)

// Service 认证服务实现
type Service struct {
	cache myredis.CacheService // 缓存服务（依赖倒置）
}

// NewAuthService 创建认证服务实例
func NewAuthService(cache myredis.CacheService) *Service {
	return &Service{
		cache: cache,
	}
}

func tokenKey(userID string) string {
	return "user_token:" + userID
}

// IssueTokens 签发双 Token，并记录最新的 Refresh Token ID
// 新的登录会覆盖旧的 Token ID，旧设备随后无法刷新
func (s *Service) IssueTokens(ctx context.Context, userID string) (*respond.TokenRespond, error) {
	accessToken, err := jwt.GenerateAccessToken(userID)
	if err != nil {
		zap.L().Error("生成 Access Token 失败", zap.Error(err))
		return nil, errorx.ErrServerBusy
	}
	refreshToken, tokenID, err := jwt.GenerateRefreshToken(userID)
	if err != nil {
		zap.L().Error("生成 Refresh Token 失败", zap.Error(err))
		return nil, errorx.ErrServerBusy
	}
	if err := s.cache.Set(ctx, tokenKey(userID), tokenID, jwt.RefreshExpiry()); err != nil {
		// 不阻塞登录流程，仅记录日志
		zap.L().Error("存储 Token ID 到 Redis 失败", zap.String("user_id", userID), zap.Error(err))
	}
	return &respond.TokenRespond{AccessToken: accessToken, RefreshToken: refreshToken}, nil
}

// ValidateTokenID 验证用户的 Token ID 是否仍是最新一次登录签发的
func (s *Service) ValidateTokenID(ctx context.Context, userID, tokenID string) (bool, error) {
	validTokenID, err := s.cache.Get(ctx, tokenKey(userID))
	if err != nil {
		return false, err
	}
	if validTokenID == "" {
		return false, nil
	}
	return tokenID == validTokenID, nil
}

// Refresh 用 Refresh Token 换一对新 Token
func (s *Service) Refresh(ctx context.Context, refreshToken string) (*respond.TokenRespond, error) {
	claims, err := jwt.ParseRefreshToken(refreshToken)
	if err != nil {
		return nil, errorx.New(errorx.CodeUnauthorized, "Refresh Token 已过期或无效，请重新登录")
	}
	ok, err := s.ValidateTokenID(ctx, claims.UserID, claims.TokenID)
	if err != nil {
		zap.L().Error("读取 Token ID 失败", zap.String("user_id", claims.UserID), zap.Error(err))
		return nil, errorx.ErrServerBusy
	}
	if !ok {
		return nil, errorx.New(errorx.CodeUnauthorized, "您的账号已在其他设备登录，请重新登录")
	}
	return s.IssueTokens(ctx, claims.UserID)
}

// Logout 使当前 Refresh Token 失效
func (s *Service) Logout(ctx context.Context, userID string) error {
	if err := s.cache.Delete(ctx, tokenKey(userID)); err != nil {
		zap.L().Error("删除 Token ID 失败", zap.String("user_id", userID), zap.Error(err))
		return errorx.ErrServerBusy
	}
	return nil
}
