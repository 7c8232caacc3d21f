package message

import (
	"sync"
	"time"

	"golang.org/x/time/rate"
)

type limiterEntry struct {
	l        *rate.Limiter
	lastSeen time.Time
}

// limiterPool 每个用户一个令牌桶，Allow 不阻塞
// 长时间未发送的用户在下一次访问时顺带清理
type limiterPool struct {
	mu        sync.Mutex
	m         map[string]*limiterEntry
	limit     rate.Limit
	burst     int
	ttl       time.Duration
	lastSweep time.Time
}

func newLimiterPool(perSecond, burst int) *limiterPool {
	if perSecond <= 0 {
		perSecond = 6
	}
	if burst <= 0 {
		burst = perSecond
	}
	return &limiterPool{
		m:         make(map[string]*limiterEntry),
		limit:     rate.Limit(perSecond),
		burst:     burst,
		ttl:       10 * time.Minute,
		lastSweep: time.Now(),
	}
}

// Allow 消耗 userId 的一个令牌
func (p *limiterPool) Allow(userId string) bool {
	now := time.Now()
	p.mu.Lock()
	defer p.mu.Unlock()

	if now.Sub(p.lastSweep) > p.ttl {
		for k, e := range p.m {
			if now.Sub(e.lastSeen) > p.ttl {
				delete(p.m, k)
			}
		}
		p.lastSweep = now
	}

	e, ok := p.m[userId]
	if !ok {
		e = &limiterEntry{l: rate.NewLimiter(p.limit, p.burst)}
		p.m[userId] = e
	}
	e.lastSeen = now
	return e.l.AllowN(now, 1)
}
