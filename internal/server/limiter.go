package server

import (
	"sync"

	lru "github.com/hashicorp/golang-lru/v2"
	"golang.org/x/time/rate"
)

// limiterCacheSize bounds how many per-user limiters are kept. Evicted users
// simply start over with a fresh burst on their next message.
const limiterCacheSize = 4096

// sendLimiter throttles coach sends per user: a burst for quick follow-ups,
// then one message every couple of seconds. Oracle turns are expensive and a
// runaway client should not be able to queue dozens of them.
type sendLimiter struct {
	mu       sync.Mutex
	limiters *lru.Cache[string, *rate.Limiter]
}

func newSendLimiter() *sendLimiter {
	cache, _ := lru.New[string, *rate.Limiter](limiterCacheSize)
	return &sendLimiter{limiters: cache}
}

func (l *sendLimiter) allow(user string) bool {
	l.mu.Lock()
	lim, ok := l.limiters.Get(user)
	if !ok {
		lim = rate.NewLimiter(rate.Limit(0.5), 3)
		l.limiters.Add(user, lim)
	}
	l.mu.Unlock()
	return lim.Allow()
}
