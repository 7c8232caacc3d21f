// Package eventtest 记录发布的事件，供服务层测试断言
package eventtest

import (
	"context"
	"encoding/json"
	"sync"

	"kama_chat_hub/internal/event"
)

type Recorder struct {
	mu     sync.Mutex
	events []event.Event
}

func (r *Recorder) Publish(_ context.Context, events ...event.Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, events...)
	return nil
}

// Events 返回快照
func (r *Recorder) Events() []event.Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]event.Event(nil), r.events...)
}

// Named 指定名称的事件
func (r *Recorder) Named(name string) []event.Event {
	var out []event.Event
	for _, e := range r.Events() {
		if e.Name == name {
			out = append(out, e)
		}
	}
	return out
}

func (r *Recorder) Reset() {
	r.mu.Lock()
	r.events = nil
	r.mu.Unlock()
}

// Decode 把负载解码到 v
func Decode(e event.Event, v any) error {
	return json.Unmarshal(e.Payload, v)
}
