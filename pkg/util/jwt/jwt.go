package jwt

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const (
	issuer         = "kama_chat_hub"
	subjectAccess  = "access_token"
	subjectRefresh = "refresh_token"
	defaultAccess  = 2 * time.Hour
	defaultRefresh = 7 * 24 * time.Hour
)

// ErrWrongTokenType access/refresh 混用
var ErrWrongTokenType = errors.New("wrong token type")

type settings struct {
	secret        []byte
	accessExpiry  time.Duration
	refreshExpiry time.Duration
}

var cfg = settings{accessExpiry: defaultAccess, refreshExpiry: defaultRefresh}

// Init 初始化签名密钥与有效期（分钟 / 小时）
func Init(secret string, accessExpiryMinutes, refreshExpiryHours int) {
	cfg.secret = []byte(secret)
	if accessExpiryMinutes > 0 {
		cfg.accessExpiry = time.Duration(accessExpiryMinutes) * time.Minute
	}
	if refreshExpiryHours > 0 {
		cfg.refreshExpiry = time.Duration(refreshExpiryHours) * time.Hour
	}
}

// Claims 自定义 JWT 声明
type Claims struct {
	UserID  string `json:"user_id"`
	TokenID string `json:"token_id,omitempty"` // 仅 Refresh Token 使用，用于单点互踢
	jwt.RegisteredClaims
}

// GenerateAccessToken 短期 token，用于接口与 ws 认证
func GenerateAccessToken(userID string) (string, error) {
	now := time.Now()
	claims := Claims{
		UserID: userID,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(cfg.accessExpiry)),
			IssuedAt:  jwt.NewNumericDate(now),
			Issuer:    issuer,
			Subject:   subjectAccess,
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(cfg.secret)
}

// GenerateRefreshToken 长期 token，返回的 tokenID 存入 Redis 实现单点登录
func GenerateRefreshToken(userID string) (tokenString string, tokenID string, err error) {
	now := time.Now()
	tokenID = uuid.NewString()
	claims := Claims{
		UserID:  userID,
		TokenID: tokenID,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(cfg.refreshExpiry)),
			IssuedAt:  jwt.NewNumericDate(now),
			Issuer:    issuer,
			Subject:   subjectRefresh,
		},
	}
	tokenString, err = jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(cfg.secret)
	return
}

// RefreshExpiry refresh token 有效期，同时作为 Redis 中 tokenID 的过期时间
func RefreshExpiry() time.Duration {
	return cfg.refreshExpiry
}

// ParseToken 解析并验证签名与过期时间
func ParseToken(tokenString string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		return cfg.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithIssuer(issuer))
	if err != nil {
		return nil, err
	}
	if claims, ok := token.Claims.(*Claims); ok && token.Valid {
		return claims, nil
	}
	return nil, jwt.ErrSignatureInvalid
}

// ParseAccessToken 只接受 access token
func ParseAccessToken(tokenString string) (*Claims, error) {
	return parseWithSubject(tokenString, subjectAccess)
}

// ParseRefreshToken 只接受 refresh token
func ParseRefreshToken(tokenString string) (*Claims, error) {
	return parseWithSubject(tokenString, subjectRefresh)
}

func parseWithSubject(tokenString, subject string) (*Claims, error) {
	claims, err := ParseToken(tokenString)
	if err != nil {
		return nil, err
	}
	if claims.Subject != subject {
		return nil, ErrWrongTokenType
	}
	return claims, nil
}
