package middleware

import (
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"

	"github.com/sinoafrica/freightbridge/internal/api/dto/common"
	"github.com/sinoafrica/freightbridge/internal/utils"
)

// RateLimitConfig defines configuration for the rate limiter
type RateLimitConfig struct {
	// Requests per second
	RPS float64
	// Burst size (number of requests that can be made in a single burst)
	Burst int
	// Idle clients are forgotten after this long
	IdleTTL time.Duration
}

type clientLimiter struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// ClientRateLimiter keeps one token bucket per client IP. It is a coarse
// flood guard in front of the API; the contact form's own submission limit
// lives in the contact package.
type ClientRateLimiter struct {
	config  RateLimitConfig
	mu      sync.Mutex
	clients map[string]*clientLimiter
}

// NewClientRateLimiter creates a per-client limiter.
func NewClientRateLimiter(config RateLimitConfig) *ClientRateLimiter {
	if config.IdleTTL <= 0 {
		config.IdleTTL = 10 * time.Minute
	}
	return &ClientRateLimiter{
		config:  config,
		clients: make(map[string]*clientLimiter),
	}
}

func (l *ClientRateLimiter) limiter(key string, now time.Time) *rate.Limiter {
	l.mu.Lock()
	defer l.mu.Unlock()

	client, ok := l.clients[key]
	if !ok {
		client = &clientLimiter{limiter: rate.NewLimiter(rate.Limit(l.config.RPS), l.config.Burst)}
		l.clients[key] = client
	}
	client.lastSeen = now
	return client.limiter
}

// Sweep forgets clients idle for longer than IdleTTL.
func (l *ClientRateLimiter) Sweep(now time.Time) int {
	l.mu.Lock()
	defer l.mu.Unlock()

	removed := 0
	for key, client := range l.clients {
		if now.Sub(client.lastSeen) > l.config.IdleTTL {
			delete(l.clients, key)
			removed++
		}
	}
	return removed
}

// Middleware returns the gin handler enforcing the limit.
func (l *ClientRateLimiter) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		now := time.Now()
		limiter := l.limiter(utils.GetRealIP(c), now)

		if !limiter.AllowN(now, 1) {
			c.Header("Retry-After", "1")
			c.AbortWithStatusJSON(http.StatusTooManyRequests, common.NewErrorResponse(
				common.ErrCodeTooManyRequests,
				"Rate limit exceeded. Please try again later.",
				nil,
			))
			return
		}

		// Set rate limit headers
		c.Header("X-RateLimit-Limit", strconv.Itoa(l.config.Burst))
		c.Header("X-RateLimit-Remaining", strconv.Itoa(int(limiter.TokensAt(now))))

		c.Next()
	}
}
