package middleware

import (
	"fmt"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/CalistoMango/TheShipyard-sub001/internal/config"
	"github.com/gin-gonic/gin"
	"github.com/patrickmn/go-cache"
	"golang.org/x/time/rate"
)

// RateLimitError 限流响应
type RateLimitError struct {
	Error      string `json:"error"`
	Message    string `json:"message"`
	RetryAfter int    `json:"retry_after"` // seconds
}

// RateLimiter 按调用方限流，空闲的限流器随缓存过期回收
type RateLimiter struct {
	mu       sync.Mutex
	limiters *cache.Cache
	rate     rate.Limit
	burst    int
	idleTTL  time.Duration
}

// NewRateLimiter 创建限流器
func NewRateLimiter(r rate.Limit, burst int, idleTTL time.Duration) *RateLimiter {
	return &RateLimiter{
		limiters: cache.New(idleTTL, 2*idleTTL),
		rate:     r,
		burst:    burst,
		idleTTL:  idleTTL,
	}
}

// NewRateLimiterFromConfig 每分钟请求数换算为令牌速率
func NewRateLimiterFromConfig(cfg config.RateLimitConfig) *RateLimiter {
	return NewRateLimiter(rate.Every(time.Minute/time.Duration(cfg.RequestsPerMinute)), cfg.Burst, cfg.IdleTTL)
}

// AllowWithRetry 不允许时返回下一个令牌的等待时间
func (rl *RateLimiter) AllowWithRetry(key string) (bool, time.Duration) {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	var limiter *rate.Limiter
	if v, ok := rl.limiters.Get(key); ok {
		limiter = v.(*rate.Limiter)
	} else {
		limiter = rate.NewLimiter(rl.rate, rl.burst)
	}
	// 每次访问刷新过期时间
	rl.limiters.Set(key, limiter, rl.idleTTL)

	reservation := limiter.Reserve()
	if !reservation.OK() {
		return false, time.Minute
	}
	if delay := reservation.Delay(); delay > 0 {
		reservation.Cancel()
		return false, delay
	}
	return true, 0
}

// RateLimit 按调用方限流，未识别调用方时按客户端IP
func RateLimit(limiter *RateLimiter) gin.HandlerFunc {
	return func(c *gin.Context) {
		key := "ip:" + c.ClientIP()
		if callerId := CallerId(c); callerId != 0 {
			key = "caller:" + strconv.FormatInt(callerId, 10)
		}

		allowed, retryAfter := limiter.AllowWithRetry(key)
		if allowed {
			c.Next()
			return
		}

		retrySeconds := int(retryAfter.Seconds())
		if retrySeconds < 1 {
			retrySeconds = 1
		}
		c.Header("Retry-After", strconv.Itoa(retrySeconds))
		c.AbortWithStatusJSON(http.StatusTooManyRequests, RateLimitError{
			Error:      "rate_limit_exceeded",
			Message:    fmt.Sprintf("请求过于频繁，请 %d 秒后重试", retrySeconds),
			RetryAfter: retrySeconds,
		})
	}
}
