// Package chat 实现实时通道的核心：连接登记、会话房间订阅与事件投递
// hub.go
// 核心职责：
// 1. 维护 连接 -> 用户、会话 -> 连接 的映射
// 2. join 前通过成员校验，未授权的订阅静默忽略
// 3. 按事件的投递范围把帧放入各连接的发送队列，队列满则丢弃
package chat

import (
	"context"
	"sync"

	"go.uber.org/zap"

	"kama_chat_hub/internal/event"
	"kama_chat_hub/internal/infrastructure/metrics"
)

// MembershipChecker 订阅会话前的成员校验
type MembershipChecker interface {
	IsMember(ctx context.Context, conversationId, userId string) (bool, error)
}

// Client 一条在线连接
// send 只由 hub 与所属 session 写入，close 后写入直接丢弃
type Client struct {
	Id     string
	UserId string

	mu     sync.Mutex
	closed bool
	send   chan []byte
}

// NewClient buffer 为发送队列长度
func NewClient(id, userId string, buffer int) *Client {
	if buffer <= 0 {
		buffer = 1
	}
	return &Client{Id: id, UserId: userId, send: make(chan []byte, buffer)}
}

// Send 写协程消费的队列，连接注销后被关闭
func (c *Client) Send() <-chan []byte {
	return c.send
}

// Push 非阻塞入队，队列满或连接已关闭返回 false
func (c *Client) Push(frame []byte) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return false
	}
	select {
	case c.send <- frame:
		return true
	default:
		return false
	}
}

func (c *Client) close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	c.closed = true
	close(c.send)
}

// Hub 本进程内所有在线连接
type Hub struct {
	mu      sync.RWMutex
	checker MembershipChecker
	clients map[string]*Client
	users   map[string]map[string]*Client // userId -> connId -> client
	rooms   map[string]map[string]*Client // conversationId -> connId -> client
	subs    map[string]map[string]struct{} // connId -> 已订阅的会话
	// evicted conversationId -> 移出房间的次数，Join 用它发现校验期间发生的移除
	evicted map[string]uint64
}

// joinAttempts 校验期间会话连续发生移除时的最大重试次数
const joinAttempts = 3

// NewHub checker 可以稍后通过 SetChecker 注入
func NewHub(checker MembershipChecker) *Hub {
	return &Hub{
		checker: checker,
		clients: make(map[string]*Client),
		users:   make(map[string]map[string]*Client),
		rooms:   make(map[string]map[string]*Client),
		subs:    make(map[string]map[string]struct{}),
		evicted: make(map[string]uint64),
	}
}

// SetChecker 会话服务依赖 broker，broker 依赖 hub，因此成员校验在服务创建后注入
func (h *Hub) SetChecker(checker MembershipChecker) {
	h.mu.Lock()
	h.checker = checker
	h.mu.Unlock()
}

// Register 登记新连接
func (h *Hub) Register(c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.clients[c.Id]; ok {
		return
	}
	h.clients[c.Id] = c
	if h.users[c.UserId] == nil {
		h.users[c.UserId] = make(map[string]*Client)
	}
	h.users[c.UserId][c.Id] = c
	h.subs[c.Id] = make(map[string]struct{})
	metrics.ActiveConnections.Inc()
	zap.L().Debug("ws client registered", zap.String("conn_id", c.Id), zap.String("user_id", c.UserId))
}

// Unregister 立即移除连接的全部订阅并关闭发送队列
func (h *Hub) Unregister(c *Client) {
	h.mu.Lock()
	if _, ok := h.clients[c.Id]; !ok {
		h.mu.Unlock()
		return
	}
	for conv := range h.subs[c.Id] {
		h.removeFromRoom(conv, c.Id)
	}
	delete(h.subs, c.Id)
	delete(h.clients, c.Id)
	if conns := h.users[c.UserId]; conns != nil {
		delete(conns, c.Id)
		if len(conns) == 0 {
			delete(h.users, c.UserId)
		}
	}
	h.mu.Unlock()

	c.close()
	metrics.ActiveConnections.Dec()
	zap.L().Debug("ws client unregistered", zap.String("conn_id", c.Id), zap.String("user_id", c.UserId))
}

// Join 订阅会话房间，非成员或校验失败时返回 false
// 成员校验在锁外进行，期间若该会话有人被移出则重新校验
func (h *Hub) Join(ctx context.Context, c *Client, conversationId string) bool {
	if conversationId == "" {
		return false
	}
	for attempt := 0; attempt < joinAttempts; attempt++ {
		h.mu.RLock()
		checker := h.checker
		gen := h.evicted[conversationId]
		h.mu.RUnlock()
		if checker == nil {
			return false
		}
		ok, err := checker.IsMember(ctx, conversationId, c.UserId)
		if err != nil {
			zap.L().Warn("join membership check", zap.String("conversation_id", conversationId), zap.Error(err))
			return false
		}
		if !ok {
			return false
		}

		joined, stale := h.subscribe(c, conversationId, gen)
		if !stale {
			return joined
		}
	}
	zap.L().Warn("join gave up after repeated evictions",
		zap.String("conversation_id", conversationId), zap.String("user_id", c.UserId))
	return false
}

// subscribe gen 与当前移除计数不一致时不订阅，stale 为 true
func (h *Hub) subscribe(c *Client, conversationId string, gen uint64) (joined, stale bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.evicted[conversationId] != gen {
		return false, true
	}
	subs, registered := h.subs[c.Id]
	if !registered {
		return false, false
	}
	subs[conversationId] = struct{}{}
	if h.rooms[conversationId] == nil {
		h.rooms[conversationId] = make(map[string]*Client)
	}
	h.rooms[conversationId][c.Id] = c
	return true, false
}

// Leave 取消订阅
func (h *Hub) Leave(c *Client, conversationId string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if subs, ok := h.subs[c.Id]; ok {
		delete(subs, conversationId)
	}
	h.removeFromRoom(conversationId, c.Id)
}

// Deliver 先处理移出房间，再把事件帧投递给 房间 ∪ 指定用户 的全部连接
// 返回成功入队的连接数
func (h *Hub) Deliver(e event.Event) int {
	if len(e.Evict) > 0 && e.ConversationId != "" {
		h.evict(e.ConversationId, e.Evict)
	}
	frame := e.Frame()
	if frame == nil {
		return 0
	}

	h.mu.RLock()
	targets := make(map[string]*Client)
	if e.Room && e.ConversationId != "" {
		for id, c := range h.rooms[e.ConversationId] {
			targets[id] = c
		}
	}
	for _, uid := range e.UserIds {
		for id, c := range h.users[uid] {
			targets[id] = c
		}
	}
	h.mu.RUnlock()

	delivered := 0
	for _, c := range targets {
		if c.Push(frame) {
			delivered++
			metrics.EventsDelivered.WithLabelValues(e.Name).Inc()
			continue
		}
		metrics.EventsDropped.WithLabelValues(e.Name).Inc()
		zap.L().Warn("ws send queue full, frame dropped",
			zap.String("event", e.Name), zap.String("conn_id", c.Id), zap.String("user_id", c.UserId))
	}
	return delivered
}

// Online 用户当前的连接数
func (h *Hub) Online(userId string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.users[userId])
}

// Subscribed 连接是否订阅了会话
func (h *Hub) Subscribed(c *Client, conversationId string) bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	_, ok := h.subs[c.Id][conversationId]
	return ok
}

// Close 注销所有连接，写协程随之退出
func (h *Hub) Close() {
	h.mu.RLock()
	clients := make([]*Client, 0, len(h.clients))
	for _, c := range h.clients {
		clients = append(clients, c)
	}
	h.mu.RUnlock()
	for _, c := range clients {
		h.Unregister(c)
	}
}

func (h *Hub) evict(conversationId string, userIds []string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.evicted[conversationId]++
	for _, uid := range userIds {
		for id := range h.users[uid] {
			if subs, ok := h.subs[id]; ok {
				delete(subs, conversationId)
			}
			h.removeFromRoom(conversationId, id)
		}
	}
}

// removeFromRoom 调用方持有写锁
func (h *Hub) removeFromRoom(conversationId, connId string) {
	room := h.rooms[conversationId]
	if room == nil {
		return
	}
	delete(room, connId)
	if len(room) == 0 {
		delete(h.rooms, conversationId)
	}
}
