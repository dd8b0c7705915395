package server

import (
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// clientLimiter keeps one token bucket per client key.
type clientLimiter struct {
	mu      sync.Mutex
	limit   rate.Limit
	burst   int
	clients map[string]*limitedClient
	now     func() time.Time
}

type limitedClient struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// newClientLimiter allows n events per window per client, all of which may
// be spent at once.
func newClientLimiter(n int, window time.Duration) *clientLimiter {
	return &clientLimiter{
		limit:   rate.Limit(float64(n) / window.Seconds()),
		burst:   n,
		clients: make(map[string]*limitedClient),
		now:     time.Now,
	}
}

func (l *clientLimiter) Allow(key string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	now := l.now()
	cl, ok := l.clients[key]
	if !ok {
		cl = &limitedClient{limiter: rate.NewLimiter(l.limit, l.burst)}
		l.clients[key] = cl
	}
	cl.lastSeen = now
	return cl.limiter.AllowN(now, 1)
}

// Sweep forgets clients idle for longer than idle.
func (l *clientLimiter) Sweep(idle time.Duration) int {
	l.mu.Lock()
	defer l.mu.Unlock()
	cutoff := l.now().Add(-idle)
	n := 0
	for k, cl := range l.clients {
		if cl.lastSeen.Before(cutoff) {
			delete(l.clients, k)
			n++
		}
	}
	return n
}
