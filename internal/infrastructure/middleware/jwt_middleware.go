package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"kama_chat_hub/pkg/errorx"
	"kama_chat_hub/pkg/util/jwt"
)

// ContextUserKey 认证通过后用户 ID 在 gin.Context 中的键
const ContextUserKey = "user_id"

// JWTAuth JWT 认证中间件
// 验证 Access Token 并将用户 ID 存入上下文
// 浏览器建立 ws 连接无法带 Header，因此同时接受 token 查询参数
func JWTAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		// 1. 取 Token：优先 Header，其次 query
		token, msg := extractToken(c)
		if token == "" {
			abortUnauthorized(c, msg)
			return
		}

		// 2. 验证 Token，Refresh Token 会被拒绝
		claims, err := jwt.ParseAccessToken(token)
		if err != nil {
			abortUnauthorized(c, "Token 已过期或无效，请重新登录")
			return
		}

		// 3. 将用户信息存入上下文，供后续 Handler 使用
		c.Set(ContextUserKey, claims.UserID)
		c.Next()
	}
}

func extractToken(c *gin.Context) (string, string) {
	if authHeader := c.GetHeader("Authorization"); authHeader != "" {
		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || parts[0] != "Bearer" || strings.TrimSpace(parts[1]) == "" {
			return "", "Token 格式错误，请使用 Bearer Token"
		}
		return strings.TrimSpace(parts[1]), ""
	}
	if token := c.Query("token"); token != "" {
		return token, ""
	}
	return "", "请先登录"
}

func abortUnauthorized(c *gin.Context, msg string) {
	c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
		"code": errorx.CodeUnauthorized,
		"msg":  msg,
		"data": nil,
	})
}
