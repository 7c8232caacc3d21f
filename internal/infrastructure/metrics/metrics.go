// Package metrics 实时通道与消息引擎的 Prometheus 指标
package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	// ActiveConnections 当前在线的 ws 连接数
	ActiveConnections = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "kama_chat",
		Name:      "ws_active_connections",
		Help:      "Number of live websocket sessions.",
	})

	// MessagesSent 成功落库的消息数，按类型区分
	MessagesSent = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "kama_chat",
		Name:      "messages_sent_total",
		Help:      "Messages persisted by the messaging engine.",
	}, []string{"type"})

	// EventsDelivered 投递到连接发送队列的事件帧
	EventsDelivered = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "kama_chat",
		Name:      "events_delivered_total",
		Help:      "Event frames queued to live sessions.",
	}, []string{"event"})

	// EventsDropped 因发送队列已满被丢弃的事件帧
	EventsDropped = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "kama_chat",
		Name:      "events_dropped_total",
		Help:      "Event frames dropped because the session queue was full.",
	}, []string{"event"})

	// RateLimited 被限流拒绝的发送次数
	RateLimited = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "kama_chat",
		Name:      "send_rate_limited_total",
		Help:      "Sends rejected by the per-user rate limiter.",
	})
)

var registerOnce sync.Once

// Register 把所有指标注册到默认 Registry，可重复调用
func Register() {
	registerOnce.Do(func() {
		prometheus.MustRegister(ActiveConnections, MessagesSent, EventsDelivered, EventsDropped, RateLimited)
	})
}
