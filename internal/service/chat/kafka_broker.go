// Package chat
// kafka_broker.go
// 核心职责：多实例模式下的事件代理
// 1. Writer 以会话 ID 为 key 写入，Hash 分区保证同一会话的事件有序
// 2. Reader 按消费组读取事件，交给本机 Hub 投递
package chat

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"time"

	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"

	myconfig "kama_chat_hub/internal/config"
	"kama_chat_hub/internal/event"
)

// KafkaBroker 基于 kafka-go 的事件代理
type KafkaBroker struct {
	hub      *Hub
	producer *kafka.Writer
	consumer *kafka.Reader

	ctx       context.Context
	cancel    context.CancelFunc
	startOnce sync.Once
	closeOnce sync.Once
	wg        sync.WaitGroup
}

// NewKafkaBroker 根据配置创建 Writer 与 Reader
// 多实例部署时每个实例需要使用不同的 groupId，才能各自收到全量事件
func NewKafkaBroker(hub *Hub, conf myconfig.KafkaConfig) *KafkaBroker {
	timeout := conf.Timeout * time.Second
	ctx, cancel := context.WithCancel(context.Background())
	return &KafkaBroker{
		hub: hub,
		producer: &kafka.Writer{
			Addr:                   kafka.TCP(conf.HostPort),
			Topic:                  conf.EventTopic,
			Balancer:               &kafka.Hash{},
			WriteTimeout:           timeout,
			RequiredAcks:           kafka.RequireOne,
			AllowAutoTopicCreation: false,
		},
		consumer: kafka.NewReader(kafka.ReaderConfig{
			Brokers:        []string{conf.HostPort},
			Topic:          conf.EventTopic,
			GroupID:        conf.GroupID,
			CommitInterval: timeout,
			StartOffset:    kafka.LastOffset,
		}),
		ctx:    ctx,
		cancel: cancel,
	}
}

// Publish 一次写入一批事件
func (k *KafkaBroker) Publish(ctx context.Context, events ...event.Event) error {
	if k.ctx.Err() != nil {
		return ErrBrokerClosed
	}
	msgs, err := encodeEvents(events)
	if err != nil {
		return err
	}
	if len(msgs) == 0 {
		return nil
	}
	return k.producer.WriteMessages(ctx, msgs...)
}

// Start 启动消费协程
func (k *KafkaBroker) Start() {
	k.startOnce.Do(func() {
		k.wg.Add(1)
		go k.consume()
	})
}

func (k *KafkaBroker) consume() {
	defer k.wg.Done()
	for {
		msg, err := k.consumer.ReadMessage(k.ctx)
		if err != nil {
			if errors.Is(err, context.Canceled) || k.ctx.Err() != nil {
				return
			}
			zap.L().Error("kafka read event", zap.Error(err))
			time.Sleep(time.Second)
			continue
		}
		e, err := decodeEvent(msg.Value)
		if err != nil {
			zap.L().Error("kafka decode event", zap.Int64("offset", msg.Offset), zap.Error(err))
			continue
		}
		k.hub.Deliver(e)
	}
}

// Close 停止消费并关闭连接
func (k *KafkaBroker) Close() {
	k.closeOnce.Do(func() {
		k.cancel()
		k.wg.Wait()
		if err := k.producer.Close(); err != nil {
			zap.L().Error("close kafka writer", zap.Error(err))
		}
		if err := k.consumer.Close(); err != nil {
			zap.L().Error("close kafka reader", zap.Error(err))
		}
	})
}

// encodeEvents 会话事件以会话 ID 为 key，纯用户事件以第一个用户 ID 为 key
func encodeEvents(events []event.Event) ([]kafka.Message, error) {
	msgs := make([]kafka.Message, 0, len(events))
	for _, e := range events {
		value, err := json.Marshal(e)
		if err != nil {
			return nil, err
		}
		msgs = append(msgs, kafka.Message{Key: []byte(partitionKey(e)), Value: value})
	}
	return msgs, nil
}

func partitionKey(e event.Event) string {
	if e.ConversationId != "" {
		return e.ConversationId
	}
	if len(e.UserIds) > 0 {
		return e.UserIds[0]
	}
	return e.Name
}

func decodeEvent(value []byte) (event.Event, error) {
	var e event.Event
	err := json.Unmarshal(value, &e)
	return e, err
}
