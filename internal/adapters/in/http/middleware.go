package http

import (
	"crypto/subtle"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/hashicorp/golang-lru/v2/expirable"
	"github.com/suchimauz/appointment-availability-engine/internal/config"
	"github.com/suchimauz/appointment-availability-engine/internal/core/ports/out"
	"golang.org/x/time/rate"
)

func basicAuth(clients []config.ConfigBasicClient) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		username, password, hasAuth := ctx.Request.BasicAuth()
		if !hasAuth || !knownClient(clients, username, password) {
			ctx.Header("WWW-Authenticate", "Basic realm=Authorization Required")
			ctx.AbortWithStatus(http.StatusUnauthorized)
			return
		}

		ctx.Next()
	}
}

func knownClient(clients []config.ConfigBasicClient, username, password string) bool {
	found := false
	for _, client := range clients {
		userOk := subtle.ConstantTimeCompare([]byte(username), []byte(client.Username)) == 1
		passOk := subtle.ConstantTimeCompare([]byte(password), []byte(client.Password)) == 1
		if userOk && passOk {
			found = true
		}
	}
	return found
}

const (
	rateLimiterSize = 10000
	rateLimiterTTL  = 10 * time.Minute
)

// rateLimiter - token bucket на каждого клиента (по IP).
// Число отслеживаемых клиентов ограничено LRU, давно не виденные вытесняются.
type rateLimiter struct {
	mu       sync.Mutex
	limiters *expirable.LRU[string, *rate.Limiter]
	rps      rate.Limit
	burst    int
	logger   out.LoggerPort
}

func newRateLimiter(rps float64, burst int, logger out.LoggerPort) *rateLimiter {
	return newRateLimiterWithSize(rps, burst, rateLimiterSize, rateLimiterTTL, logger)
}

func newRateLimiterWithSize(rps float64, burst, size int, ttl time.Duration, logger out.LoggerPort) *rateLimiter {
	if burst <= 0 {
		burst = 1
	}
	return &rateLimiter{
		limiters: expirable.NewLRU[string, *rate.Limiter](size, nil, ttl),
		rps:      rate.Limit(rps),
		burst:    burst,
		logger:   logger,
	}
}

func (r *rateLimiter) limiter(key string) *rate.Limiter {
	// Get и Add под одной блокировкой, чтобы два запроса не создали два лимитера
	r.mu.Lock()
	defer r.mu.Unlock()

	limiter, ok := r.limiters.Get(key)
	if !ok {
		limiter = rate.NewLimiter(r.rps, r.burst)
		r.limiters.Add(key, limiter)
	}
	return limiter
}

func (r *rateLimiter) middleware() gin.HandlerFunc {
	return func(ctx *gin.Context) {
		// rps <= 0 отключает ограничение
		if r.rps <= 0 {
			ctx.Next()
			return
		}

		ip := ctx.ClientIP()
		if !r.limiter(ip).Allow() {
			r.logger.Warn("http.rate_limit.exceeded", out.LogFields{
				"ip":   ip,
				"path": ctx.FullPath(),
			})
			ctx.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{"error": "rate limit exceeded, try again later"})
			return
		}
		ctx.Next()
	}
}

func requestLogger(logger out.LoggerPort) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		start := time.Now()
		ctx.Next()

		fields := out.LogFields{
			"method":   ctx.Request.Method,
			"path":     ctx.FullPath(),
			"status":   ctx.Writer.Status(),
			"duration": time.Since(start).String(),
		}
		if ctx.Writer.Status() >= http.StatusInternalServerError {
			logger.Error("http.request.failed", fields)
			return
		}
		logger.Debug("http.request.done", fields)
	}
}
