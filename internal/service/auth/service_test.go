package auth

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	myredis "kama_chat_hub/internal/dao/redis"
	"kama_chat_hub/pkg/errorx"
	"kama_chat_hub/pkg/util/jwt"
)

func newService(t *testing.T) *Service {
	t.Helper()
	jwt.Init("auth-test-secret-auth-test-secret", 10, 1)
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewAuthService(myredis.NewRedisCache(client, 0, 0))
}

func TestRefreshRotatesTokenID(t *testing.T) {
	svc := newService(t)
	ctx := context.Background()

	first, err := svc.IssueTokens(ctx, "U1")
	require.NoError(t, err)

	second, err := svc.Refresh(ctx, first.RefreshToken)
	require.NoError(t, err)
	assert.NotEqual(t, first.RefreshToken, second.RefreshToken)

	claims, err := jwt.ParseAccessToken(second.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, "U1", claims.UserID)

	// 旧的 Refresh Token 已被替换
	_, err = svc.Refresh(ctx, first.RefreshToken)
	assert.Equal(t, errorx.CodeUnauthorized, errorx.GetCode(err))
}

func TestNewLoginKicksOldSession(t *testing.T) {
	svc := newService(t)
	ctx := context.Background()

	old, err := svc.IssueTokens(ctx, "U1")
	require.NoError(t, err)
	_, err = svc.IssueTokens(ctx, "U1")
	require.NoError(t, err)

	_, err = svc.Refresh(ctx, old.RefreshToken)
	assert.Equal(t, errorx.CodeUnauthorized, errorx.GetCode(err))
}

func TestRefreshRejectsAccessTokenAndLogout(t *testing.T) {
	svc := newService(t)
	ctx := context.Background()

	tokens, err := svc.IssueTokens(ctx, "U1")
	require.NoError(t, err)

	_, err = svc.Refresh(ctx, tokens.AccessToken)
	assert.Equal(t, errorx.CodeUnauthorized, errorx.GetCode(err))

	require.NoError(t, svc.Logout(ctx, "U1"))
	_, err = svc.Refresh(ctx, tokens.RefreshToken)
	assert.Equal(t, errorx.CodeUnauthorized, errorx.GetCode(err))
}
