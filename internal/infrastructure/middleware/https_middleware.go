package middleware

import (
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/unrolled/secure"
	"go.uber.org/zap"
)

// TlsHandler 把 HTTP 请求重定向到 HTTPS，并附加常用安全响应头
// 仅在 mainConfig.forceTLS 为真时挂载；由 Nginx 终结 TLS 时不需要
func TlsHandler(host string, port int, isDevelopment bool) gin.HandlerFunc {
	// 在返回函数之前初始化，避免每次请求都重复创建对象
	secureMiddleware := secure.New(secure.Options{
		SSLRedirect:        true,
		SSLHost:            host + ":" + strconv.Itoa(port),
		SSLProxyHeaders:    map[string]string{"X-Forwarded-Proto": "https"},
		FrameDeny:          true,
		ContentTypeNosniff: true,
		IsDevelopment:      isDevelopment,
	})

	return func(c *gin.Context) {
		err := secureMiddleware.Process(c.Writer, c.Request)
		// 已经写出重定向响应，Process 同时会返回 error
		if status := c.Writer.Status(); status >= 300 && status < 400 {
			c.Abort()
			return
		}
		if err != nil {
			// 不能在中间件里 Fatal，记录日志并终止当前请求
			zap.L().Error("TLS redirection failed", zap.Error(err))
			c.Abort()
			return
		}
		c.Next()
	}
}
