package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"kama_chat_hub/internal/config"
	dao "kama_chat_hub/internal/dao/mysql"
	myredis "kama_chat_hub/internal/dao/redis"
	"kama_chat_hub/internal/gateway/websocket"
	"kama_chat_hub/internal/handler"
	"kama_chat_hub/internal/https_server"
	"kama_chat_hub/internal/infrastructure/logger"
	"kama_chat_hub/internal/infrastructure/metrics"
	"kama_chat_hub/internal/service"
	"kama_chat_hub/internal/service/chat"
	"kama_chat_hub/pkg/util/jwt"
	"kama_chat_hub/pkg/util/snowflake"
)

func main() {
	// 1. 加载配置
	conf, err := config.Load()
	if err != nil {
		log.Fatalf("load config failed: %v", err)
	}

	// 2. 初始化日志
	if err := logger.Init(&conf.LogConfig, conf.MainConfig.Mode); err != nil {
		log.Fatalf("init logger failed: %v", err)
	}
	defer func() { _ = zap.L().Sync() }()
	zap.L().Info("日志初始化成功")

	// 3. 雪花 ID 与 JWT
	snowflake.Init(conf.SnowflakeConfig.MachineID)
	jwt.Init(conf.JWTConfig.Secret, conf.JWTConfig.AccessTokenExpiry, conf.JWTConfig.RefreshTokenExpiry)

	// 4. 初始化数据库（含 AutoMigrate）
	repos, _, err := dao.Init(&conf.DatabaseConfig)
	if err != nil {
		zap.L().Fatal("数据库初始化失败", zap.Error(err))
	}
	zap.L().Info("数据库初始化成功")

	// 5. 初始化 Redis
	cache, err := myredis.Init(&conf.RedisConfig)
	if err != nil {
		zap.L().Fatal("Redis 初始化失败", zap.Error(err))
	}
	zap.L().Info("Redis 初始化成功")

	if conf.MetricsConfig.Enabled {
		metrics.Register()
	}

	// 6. ChatServer：成员校验依赖会话服务，服务创建后再注入
	cs := chat.NewChatServer(chat.ChatServerConfig{
		Mode:  conf.KafkaConfig.MessageMode,
		Kafka: conf.KafkaConfig,
	})

	// 7. 初始化 Service 层 (依赖注入)
	services := service.NewServices(service.Deps{
		Repos:     repos,
		Cache:     cache,
		Publisher: cs.Broker,
		Chat:      conf.ChatConfig,
		Static:    conf.StaticSrcConfig,
		Admins:    conf.Admins,
	})
	cs.Hub.SetChecker(services.Conversation)
	cs.Start()
	zap.L().Info("ChatServer 初始化成功", zap.String("mode", cs.Mode()))

	// 8. Handler 与 HTTP 服务器
	if err := handler.InitTrans("zh"); err != nil {
		zap.L().Fatal("初始化翻译器失败", zap.Error(err))
	}
	gateway := websocket.NewGateway(cs.Hub, services.Message, conf.ChatConfig.SessionBuffer)
	engine := https_server.Init(handler.NewHandlers(services, gateway), conf)

	srv := &http.Server{
		Addr:    fmt.Sprintf("%s:%d", conf.MainConfig.Host, conf.MainConfig.Port),
		Handler: engine,
	}
	go func() {
		zap.L().Info("HTTP 服务启动", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			zap.L().Fatal("server running fault", zap.Error(err))
		}
	}()

	// 设置信号监听
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	zap.L().Info("关闭服务器...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		zap.L().Error("HTTP 服务关闭失败", zap.Error(err))
	}
	// 先停代理再断开连接，最后等待缓存任务执行完
	cs.Close()
	cache.Close()

	zap.L().Info("服务器已关闭")
}
