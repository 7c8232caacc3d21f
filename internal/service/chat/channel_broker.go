// Package chat
// channel_broker.go
// 核心职责：单机模式下的事件代理
// 单个消费协程按发布顺序把事件交给 Hub，同一会话的事件顺序与发布顺序一致
package chat

import (
	"context"
	"sync"

	"go.uber.org/zap"

	"kama_chat_hub/internal/event"
	"kama_chat_hub/pkg/constants"
)

// ChannelBroker 进程内缓冲通道
type ChannelBroker struct {
	hub       *Hub
	events    chan event.Event
	done      chan struct{}
	startOnce sync.Once
	closeOnce sync.Once
	wg        sync.WaitGroup
}

// NewChannelBroker size <= 0 时使用 CHANNEL_SIZE
func NewChannelBroker(hub *Hub, size int) *ChannelBroker {
	if size <= 0 {
		size = constants.CHANNEL_SIZE
	}
	return &ChannelBroker{
		hub:    hub,
		events: make(chan event.Event, size),
		done:   make(chan struct{}),
	}
}

// Publish 通道满时阻塞到 ctx 结束
func (b *ChannelBroker) Publish(ctx context.Context, events ...event.Event) error {
	for _, e := range events {
		select {
		case <-b.done:
			return ErrBrokerClosed
		default:
		}
		select {
		case b.events <- e:
		case <-b.done:
			return ErrBrokerClosed
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return nil
}

// Start 启动消费协程
func (b *ChannelBroker) Start() {
	b.startOnce.Do(func() {
		b.wg.Add(1)
		go b.loop()
	})
}

func (b *ChannelBroker) loop() {
	defer b.wg.Done()
	defer func() {
		if r := recover(); r != nil {
			zap.L().Error("channel broker panic", zap.Any("recover", r))
		}
	}()
	for {
		select {
		case e := <-b.events:
			b.hub.Deliver(e)
		case <-b.done:
			// 把已入队的事件投递完再退出
			for {
				select {
				case e := <-b.events:
					b.hub.Deliver(e)
				default:
					return
				}
			}
		}
	}
}

// Close 停止消费协程并等待其退出
func (b *ChannelBroker) Close() {
	b.closeOnce.Do(func() {
		close(b.done)
	})
	b.wg.Wait()
}
