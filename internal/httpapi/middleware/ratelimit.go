package middleware

import (
	"sync"

	"github.com/gin-gonic/gin"
	"github.com/suPer8Hu/mockai/internal/common"
	"github.com/suPer8Hu/mockai/internal/session"
	"golang.org/x/time/rate"
)

// clientLimiter keeps one token bucket per session key.
type clientLimiter struct {
	mu      sync.Mutex
	clients map[string]*rate.Limiter
	limit   rate.Limit
	burst   int
}

func newClientLimiter(perMinute int) *clientLimiter {
	return &clientLimiter{
		clients: make(map[string]*rate.Limiter),
		limit:   rate.Limit(float64(perMinute) / 60.0),
		burst:   max(perMinute, 1),
	}
}

func (l *clientLimiter) allow(key string) bool {
	l.mu.Lock()
	lim, ok := l.clients[key]
	if !ok {
		lim = rate.NewLimiter(l.limit, l.burst)
		l.clients[key] = lim
	}
	l.mu.Unlock()
	return lim.Allow()
}

// RateLimit caps each client (bearer token + user agent) at perMinute
// requests, answering 429 with the OpenAI rate limit envelope.
func RateLimit(perMinute int) gin.HandlerFunc {
	l := newClientLimiter(perMinute)
	return func(c *gin.Context) {
		key := session.DeriveKey(c.GetHeader("Authorization"), c.GetHeader("User-Agent"))
		if !l.allow(key) {
			common.Fail(c, common.RateLimitError())
			return
		}
		c.Next()
	}
}
