// Package config 提供应用程序的配置加载和管理功能
// 使用 TOML 格式的配置文件，支持多路径查找，敏感项可由环境变量覆盖
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
)

// MainConfig 主配置，包含应用基本信息
type MainConfig struct {
	AppName  string `toml:"appName"`  // 应用名称，用于日志标识等
	Host     string `toml:"host"`     // 服务器监听地址，如 "0.0.0.0"
	Port     int    `toml:"port"`     // 服务器监听端口，如 8000
	Mode     string `toml:"mode"`     // 运行模式：debug / release
	ForceTLS bool   `toml:"forceTLS"` // 是否强制 HTTPS 跳转
	// Admins 管理员用户名，可访问 /admin 接口
	Admins []string `toml:"admins"`
}

// DatabaseConfig 数据库连接配置
type DatabaseConfig struct {
	Driver       string `toml:"driver"`       // mysql 或 postgres
	Host         string `toml:"host"`         // 数据库地址
	Port         int    `toml:"port"`         // 端口，mysql 默认 3306，postgres 默认 5432
	User         string `toml:"user"`         // 用户名
	Password     string `toml:"password"`     // 密码
	DatabaseName string `toml:"databaseName"` // 库名
	MaxOpenConns int    `toml:"maxOpenConns"`
	MaxIdleConns int    `toml:"maxIdleConns"`
}

// RedisConfig Redis 连接配置
type RedisConfig struct {
	Host     string `toml:"host"`
	Port     int    `toml:"port"`
	Password string `toml:"password"`
	Db       int    `toml:"db"`
	Workers  int    `toml:"workers"`  // 异步缓存任务 worker 数
	QueueLen int    `toml:"queueLen"` // 异步缓存任务队列长度
}

// LogConfig 日志配置，使用 lumberjack 进行日志轮转
type LogConfig struct {
	LogPath    string `toml:"logPath"`    // 日志文件存储目录
	FileName   string `toml:"fileName"`   // 日志文件名
	MaxSize    int    `toml:"maxSize"`    // 单个日志文件最大大小（MB）
	MaxBackups int    `toml:"maxBackups"` // 保留旧日志文件的最大个数
	MaxAge     int    `toml:"maxAge"`     // 保留旧日志文件的最大天数
	Level      string `toml:"level"`      // 日志级别：debug, info, warn, error
}

// KafkaConfig 事件总线配置
type KafkaConfig struct {
	MessageMode string        `toml:"messageMode"` // "channel" 或 "kafka"
	HostPort    string        `toml:"hostPort"`    // Kafka 服务器地址，如 "localhost:9092"
	EventTopic  string        `toml:"eventTopic"`  // 会话事件主题
	GroupID     string        `toml:"groupId"`     // 消费组
	Partition   int           `toml:"partition"`   // 分区数
	Timeout     time.Duration `toml:"timeout"`     // 写超时（秒）
}

// StaticSrcConfig 静态资源路径配置
type StaticSrcConfig struct {
	StaticAvatarPath string `toml:"staticAvatarPath"` // 头像文件存储路径
	StaticFilePath   string `toml:"staticFilePath"`   // 聊天文件存储路径
}

// JWTConfig JWT 认证配置
type JWTConfig struct {
	Secret             string `toml:"secret"`             // JWT 签名密钥，建议 32 字符以上
	AccessTokenExpiry  int    `toml:"accessTokenExpiry"`  // Access Token 有效期（分钟）
	RefreshTokenExpiry int    `toml:"refreshTokenExpiry"` // Refresh Token 有效期（小时）
}

// SnowflakeConfig 雪花算法配置
type SnowflakeConfig struct {
	MachineID int64 `toml:"machineId"` // 节点 ID，范围 0-1023
}

// ChatConfig 聊天业务参数
type ChatConfig struct {
	MaxMessageLength          int  `toml:"maxMessageLength"`
	MaxAnnouncementLength     int  `toml:"maxAnnouncementLength"`
	MaxGroupNameLength        int  `toml:"maxGroupNameLength"`
	MaxPinned                 int  `toml:"maxPinned"`
	SendRate                  int  `toml:"sendRate"`  // 每用户每秒可发送消息数
	SendBurst                 int  `toml:"sendBurst"` // 突发上限
	MaxForwardTargets         int  `toml:"maxForwardTargets"`
	SessionBuffer             int  `toml:"sessionBuffer"`
	PrivateChatRequiresFriend bool `toml:"privateChatRequiresFriend"` // 私聊是否要求好友关系
}

// MetricsConfig Prometheus 指标
type MetricsConfig struct {
	Enabled bool   `toml:"enabled"`
	Path    string `toml:"path"`
}

// Config 应用程序总配置，聚合所有子配置
type Config struct {
	MainConfig      `toml:"mainConfig"`
	DatabaseConfig  `toml:"databaseConfig"`
	RedisConfig     `toml:"redisConfig"`
	LogConfig       `toml:"logConfig"`
	KafkaConfig     `toml:"kafkaConfig"`
	StaticSrcConfig `toml:"staticSrcConfig"`
	JWTConfig       `toml:"jwtConfig"`
	SnowflakeConfig `toml:"snowflakeConfig"`
	ChatConfig      `toml:"chatConfig"`
	MetricsConfig   `toml:"metricsConfig"`
}

var (
	config     *Config
	configOnce sync.Once
)

// 候选配置文件路径（优先加载本地配置）
var searchPaths = []string{
	"configs/config_local.toml",
	"configs/config.toml",
	"../../configs/config_local.toml",
	"../../configs/config.toml",
}

// Load 按顺序尝试候选路径，找到第一个可解析的配置文件即停止
// 返回的配置已合并环境变量并补齐默认值
func Load(paths ...string) (*Config, error) {
	// .env 不存在是常态，忽略错误
	_ = godotenv.Load(".env")

	if len(paths) == 0 {
		paths = searchPaths
	}
	cfg := new(Config)
	var found bool
	for _, path := range paths {
		if _, err := toml.DecodeFile(path, cfg); err == nil {
			found = true
			break
		}
	}
	applyEnv(cfg)
	cfg.applyDefaults()
	if !found {
		return cfg, fmt.Errorf("could not find configuration file in any of the search paths")
	}
	return cfg, nil
}

// GetConfig 获取全局配置实例（单例模式）
// 首次调用时会自动加载配置文件，找不到文件时使用默认值
func GetConfig() *Config {
	configOnce.Do(func() {
		config, _ = Load()
	})
	return config
}

// applyEnv 环境变量覆盖敏感项与部署相关地址
func applyEnv(cfg *Config) {
	setString(&cfg.DatabaseConfig.Host, "KAMA_DB_HOST")
	setString(&cfg.DatabaseConfig.User, "KAMA_DB_USER")
	setString(&cfg.DatabaseConfig.Password, "KAMA_DB_PASSWORD")
	setString(&cfg.DatabaseConfig.Driver, "KAMA_DB_DRIVER")
	setString(&cfg.RedisConfig.Host, "KAMA_REDIS_HOST")
	setString(&cfg.RedisConfig.Password, "KAMA_REDIS_PASSWORD")
	setString(&cfg.JWTConfig.Secret, "KAMA_JWT_SECRET")
	setString(&cfg.KafkaConfig.HostPort, "KAMA_KAFKA_HOST_PORT")
	setString(&cfg.KafkaConfig.MessageMode, "KAMA_MESSAGE_MODE")
	setList(&cfg.MainConfig.Admins, "KAMA_ADMINS")
	setInt(&cfg.MainConfig.Port, "KAMA_PORT")
	setInt(&cfg.DatabaseConfig.Port, "KAMA_DB_PORT")
	setInt(&cfg.RedisConfig.Port, "KAMA_REDIS_PORT")
}

func setString(dst *string, key string) {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		*dst = v
	}
}

// setList 逗号分隔，忽略空项
func setList(dst *[]string, key string) {
	v, ok := os.LookupEnv(key)
	if !ok || strings.TrimSpace(v) == "" {
		return
	}
	var out []string
	for _, item := range strings.Split(v, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	*dst = out
}

func setInt(dst *int, key string) {
	v, ok := os.LookupEnv(key)
	if !ok {
		return
	}
	if n, err := strconv.Atoi(v); err == nil {
		*dst = n
	}
}

func (c *Config) applyDefaults() {
	if c.AppName == "" {
		c.AppName = "kama_chat_hub"
	}
	if c.MainConfig.Host == "" {
		c.MainConfig.Host = "0.0.0.0"
	}
	if c.MainConfig.Port == 0 {
		c.MainConfig.Port = 8000
	}
	if c.Mode == "" {
		c.Mode = "release"
	}
	if c.Driver == "" {
		c.Driver = "mysql"
	}
	if c.MessageMode == "" {
		c.MessageMode = "channel"
	}
	if c.EventTopic == "" {
		c.EventTopic = "chat_events"
	}
	if c.GroupID == "" {
		c.GroupID = "chat"
	}
	if c.KafkaConfig.Timeout == 0 {
		c.KafkaConfig.Timeout = 1
	}
	if c.StaticAvatarPath == "" {
		c.StaticAvatarPath = "./static/avatars"
	}
	if c.StaticFilePath == "" {
		c.StaticFilePath = "./static/files"
	}
	if c.AccessTokenExpiry == 0 {
		c.AccessTokenExpiry = 120
	}
	if c.RefreshTokenExpiry == 0 {
		c.RefreshTokenExpiry = 168
	}

	ch := &c.ChatConfig
	if ch.MaxMessageLength == 0 {
		ch.MaxMessageLength = 2000
	}
	if ch.MaxAnnouncementLength == 0 {
		ch.MaxAnnouncementLength = 200
	}
	if ch.MaxGroupNameLength == 0 {
		ch.MaxGroupNameLength = 50
	}
	if ch.MaxPinned == 0 {
		ch.MaxPinned = 10
	}
	if ch.SendRate == 0 {
		ch.SendRate = 6
	}
	if ch.SendBurst == 0 {
		ch.SendBurst = ch.SendRate
	}
	if ch.MaxForwardTargets == 0 {
		ch.MaxForwardTargets = 20
	}
	if ch.SessionBuffer == 0 {
		ch.SessionBuffer = 256
	}
	if c.MetricsConfig.Path == "" {
		c.MetricsConfig.Path = "/metrics"
	}
}

// DefaultChatConfig 返回补齐默认值的聊天参数，供测试与未加载配置文件的场景使用
func DefaultChatConfig() ChatConfig {
	c := new(Config)
	c.applyDefaults()
	return c.ChatConfig
}
