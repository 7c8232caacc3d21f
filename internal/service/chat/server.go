// Package chat
// server.go
// 核心职责：聊天服务器聚合结构
// 封装 Hub 与事件代理，按配置选择 Channel 或 Kafka 模式，统一管理生命周期
package chat

import (
	myconfig "kama_chat_hub/internal/config"
)

// ChatServer 聊天服务器聚合结构
type ChatServer struct {
	// Hub 本机在线连接
	Hub *Hub
	// Broker 事件代理，业务层把它当作 event.Publisher 使用
	Broker MessageBroker
	// mode 运行模式: "channel" 或 "kafka"
	mode string
}

// ChatServerConfig 聊天服务器配置
type ChatServerConfig struct {
	Mode    string // "channel" 或 "kafka"
	Kafka   myconfig.KafkaConfig
	Checker MembershipChecker
}

// NewChatServer 创建聊天服务器实例
func NewChatServer(cfg ChatServerConfig) *ChatServer {
	hub := NewHub(cfg.Checker)
	cs := &ChatServer{Hub: hub, mode: cfg.Mode}
	if cfg.Mode == "kafka" {
		cs.Broker = NewKafkaBroker(hub, cfg.Kafka)
	} else {
		cs.mode = "channel"
		cs.Broker = NewChannelBroker(hub, 0)
	}
	return cs
}

// Mode 实际使用的模式
func (cs *ChatServer) Mode() string {
	return cs.mode
}

// Start 启动事件消费
func (cs *ChatServer) Start() {
	cs.Broker.Start()
}

// Close 先停代理再断开所有连接
func (cs *ChatServer) Close() {
	cs.Broker.Close()
	cs.Hub.Close()
}
