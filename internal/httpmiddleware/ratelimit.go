package httpmiddleware

import (
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
)

// Limiter is an in-memory fixed-window rate limiter keyed by client IP.
// Good enough for a single monitor process; a fleet would move this to
// Redis.
type Limiter struct {
	perWindow int
	window    time.Duration

	mu      sync.Mutex
	windows map[string]*clientWindow
}

type clientWindow struct {
	count   int
	started time.Time
}

// NewLimiter allows perMinute requests per client per minute.
func NewLimiter(perMinute int) *Limiter {
	if perMinute <= 0 {
		perMinute = 60
	}
	return &Limiter{
		perWindow: perMinute,
		window:    time.Minute,
		windows:   make(map[string]*clientWindow),
	}
}

// GinMiddleware returns a gin handler enforcing the limit.
func (l *Limiter) GinMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		ip := c.ClientIP()
		if ip == "" {
			ip = "unknown"
		}
		if !l.allow(ip, time.Now()) {
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{"error": "rate limit"})
			return
		}
		c.Next()
	}
}

func (l *Limiter) allow(key string, now time.Time) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	w, ok := l.windows[key]
	if !ok || now.Sub(w.started) >= l.window {
		l.windows[key] = &clientWindow{count: 1, started: now}
		l.pruneLocked(now)
		return true
	}
	if w.count >= l.perWindow {
		return false
	}
	w.count++
	return true
}

// pruneLocked drops windows idle for more than two periods.
func (l *Limiter) pruneLocked(now time.Time) {
	for key, w := range l.windows {
		if now.Sub(w.started) >= 2*l.window {
			delete(l.windows, key)
		}
	}
}
