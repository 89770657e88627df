package api

import (
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/patrickmn/go-cache"
	"golang.org/x/time/rate"
)

// ClientIdleTimeout is how long a client's limiter is kept after its last
// request.
const ClientIdleTimeout = 10 * time.Minute

type clientLimiters struct {
	rps int

	mu      sync.Mutex
	clients *cache.Cache
}

func newClientLimiters(rps int, idle time.Duration) *clientLimiters {
	return &clientLimiters{
		rps:     rps,
		clients: cache.New(idle, idle),
	}
}

// get returns the limiter of ip and restarts its idle timer.
func (l *clientLimiters) get(ip string) *rate.Limiter {
	l.mu.Lock()
	defer l.mu.Unlock()

	var lim *rate.Limiter
	if v, ok := l.clients.Get(ip); ok {
		lim = v.(*rate.Limiter)
	} else {
		lim = rate.NewLimiter(rate.Limit(l.rps), l.rps)
	}
	l.clients.SetDefault(ip, lim)
	return lim
}

func (l *clientLimiters) middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !l.get(c.ClientIP()).Allow() {
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
				"error": "rate limit exceeded",
			})
			return
		}
		c.Next()
	}
}

// RateLimitMiddleware allows rps requests per second per client IP.
// Clients idle for longer than ClientIdleTimeout are forgotten.
func RateLimitMiddleware(rps int) gin.HandlerFunc {
	return newClientLimiters(rps, ClientIdleTimeout).middleware()
}
