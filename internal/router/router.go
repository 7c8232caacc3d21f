// Package router 提供 HTTP 路由注册
// 本文件是路由注册的入口，聚合所有子模块的路由
package router

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"kama_chat_hub/internal/handler"
	"kama_chat_hub/internal/infrastructure/middleware"
)

// Router 持有 Handler 聚合，按模块注册路由
type Router struct {
	handlers    *handler.Handlers
	metricsPath string
}

// NewRouter metricsPath 为空时不暴露 Prometheus 指标
func NewRouter(handlers *handler.Handlers, metricsPath string) *Router {
	return &Router{handlers: handlers, metricsPath: metricsPath}
}

// RegisterRoutes 注册所有路由
// /auth 下的注册、登录、刷新是公开的，其余接口都要求 Access Token
func (rt *Router) RegisterRoutes(r *gin.Engine) {
	r.GET("/ping", func(c *gin.Context) {
		c.String(http.StatusOK, "pong")
	})
	if rt.metricsPath != "" {
		r.GET(rt.metricsPath, gin.WrapH(promhttp.Handler()))
	}

	rt.RegisterAuthRoutes(r.Group("/auth"))

	authed := r.Group("/", middleware.JWTAuth())
	rt.RegisterUserRoutes(authed.Group("/user"))
	rt.RegisterConversationRoutes(authed.Group("/conversation"))
	rt.RegisterMessageRoutes(authed.Group("/message"))
	rt.RegisterContactRoutes(authed.Group("/contact"))
	rt.RegisterMediaRoutes(authed.Group("/media"))
	rt.RegisterAdminRoutes(authed.Group("/admin"))
	rt.RegisterWebSocketRoutes(authed)
}
