// Package chat
// broker.go
// 核心职责：定义事件代理接口
// 业务层只依赖 event.Publisher，代理负责把事件送到 Hub
// 支持 Channel（单机）与 Kafka（多实例）两种实现
package chat

import (
	"errors"

	"kama_chat_hub/internal/event"
)

// ErrBrokerClosed 代理已关闭后继续发布
var ErrBrokerClosed = errors.New("broker closed")

// MessageBroker 事件代理接口
type MessageBroker interface {
	event.Publisher
	// Start 启动消费循环，非阻塞
	Start()
	// Close 停止消费并释放资源
	Close()
}
