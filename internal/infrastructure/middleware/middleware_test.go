package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"kama_chat_hub/pkg/util/jwt"
)

func newEngine() *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/me", JWTAuth(), func(c *gin.Context) {
		c.String(http.StatusOK, c.GetString(ContextUserKey))
	})
	return r
}

func TestJWTAuth(t *testing.T) {
	jwt.Init("middleware-secret-middleware-secret", 10, 1)
	access, err := jwt.GenerateAccessToken("U1")
	require.NoError(t, err)
	refresh, _, err := jwt.GenerateRefreshToken("U1")
	require.NoError(t, err)
	r := newEngine()

	cases := []struct {
		name   string
		header string
		query  string
		status int
	}{
		{"bearer header", "Bearer " + access, "", http.StatusOK},
		{"query token", "", "?token=" + access, http.StatusOK},
		{"missing", "", "", http.StatusUnauthorized},
		{"wrong scheme", "Token " + access, "", http.StatusUnauthorized},
		{"refresh token", "Bearer " + refresh, "", http.StatusUnauthorized},
		{"garbage", "Bearer abc", "", http.StatusUnauthorized},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			req := httptest.NewRequest(http.MethodGet, "/me"+tc.query, nil)
			if tc.header != "" {
				req.Header.Set("Authorization", tc.header)
			}
			r.ServeHTTP(w, req)
			assert.Equal(t, tc.status, w.Code)
			if tc.status == http.StatusOK {
				assert.Equal(t, "U1", w.Body.String())
			}
		})
	}
}

func TestTlsHandlerRedirects(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(TlsHandler("example.com", 8443, false))
	r.GET("/ping", func(c *gin.Context) { c.String(http.StatusOK, "pong") })

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "http://example.com/ping", nil))
	assert.Equal(t, http.StatusMovedPermanently, w.Code)
	assert.Equal(t, "https://example.com:8443/ping", w.Header().Get("Location"))

	w = httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "http://example.com/ping", nil)
	req.Header.Set("X-Forwarded-Proto", "https")
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "nosniff", w.Header().Get("X-Content-Type-Options"))
}
