// Package https_server 提供 HTTP/HTTPS 服务器的初始化和配置
// 负责创建 Gin 引擎实例并配置中间件、静态资源和路由
package https_server

import (
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"kama_chat_hub/internal/config"
	"kama_chat_hub/internal/handler"
	"kama_chat_hub/internal/infrastructure/logger"
	"kama_chat_hub/internal/infrastructure/middleware"
	"kama_chat_hub/internal/router"
)

// Init 初始化 HTTP 服务器并返回 Gin 引擎实例
// 配置顺序：
//  1. 创建 Gin 引擎（空白，不含默认中间件）
//  2. 注册日志和恢复中间件
//  3. 配置 CORS 跨域规则，按需开启 HTTPS 重定向
//  4. 映射静态资源目录
//  5. 注册业务路由
func Init(handlers *handler.Handlers, cfg *config.Config) *gin.Engine {
	if cfg.MainConfig.Mode == "release" {
		gin.SetMode(gin.ReleaseMode)
	}
	// 不使用 gin.Default() 以便完全控制中间件
	engine := gin.New()

	// 记录每个请求的路径、状态码、耗时
	engine.Use(logger.GinLogger())
	// 捕获 panic 并记录堆栈
	engine.Use(logger.GinRecovery(true))

	corsConfig := cors.DefaultConfig()
	corsConfig.AllowOrigins = []string{"*"}
	corsConfig.AllowMethods = []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"}
	corsConfig.AllowHeaders = []string{"Origin", "Content-Length", "Content-Type", "Authorization"}
	engine.Use(cors.New(corsConfig))

	// 由 Nginx 终结 TLS 时保持 forceTLS = false
	if cfg.MainConfig.ForceTLS {
		engine.Use(middleware.TlsHandler(cfg.MainConfig.Host, cfg.MainConfig.Port, cfg.MainConfig.Mode != "release"))
	}

	// /static/avatars -> 头像文件目录
	engine.Static("/static/avatars", cfg.StaticAvatarPath)
	// /static/files -> 普通上传文件目录
	engine.Static("/static/files", cfg.StaticFilePath)

	metricsPath := ""
	if cfg.MetricsConfig.Enabled {
		metricsPath = cfg.MetricsConfig.Path
		if metricsPath == "" {
			metricsPath = "/metrics"
		}
	}
	router.NewRouter(handlers, metricsPath).RegisterRoutes(engine)
	return engine
}
