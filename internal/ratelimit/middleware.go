package ratelimit

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// VerifyRate caps how often one client can hit the public verify endpoint.
// Each allowed request costs a token; tokens refill at VerifyRefillPerSec.
const (
	VerifyRefillPerSec = 0.5
	VerifyBurst        = 5
)

// Middleware limits requests per client IP. With no limiter configured it
// passes everything through.
func Middleware(bucket *TokenBucket, log *zap.Logger) gin.HandlerFunc {
	limiterLog := log.Named("ratelimit")
	return func(c *gin.Context) {
		if bucket == nil {
			c.Next()
			return
		}

		key := "ratelimit:verify:" + c.ClientIP()
		result, err := bucket.Allow(c.Request.Context(), key, VerifyRefillPerSec, VerifyBurst)
		if err != nil {
			// Redis trouble must not take the endpoint down.
			limiterLog.Warn("rate limiter unavailable", zap.Error(err))
			c.Next()
			return
		}

		c.Header("X-RateLimit-Limit", strconv.Itoa(result.Limit))
		c.Header("X-RateLimit-Remaining", strconv.Itoa(result.Remaining))

		if !result.Allowed {
			if result.RetryAfter > 0 {
				c.Header("Retry-After", strconv.Itoa(int(result.RetryAfter.Seconds())+1))
			}
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
				"success": false,
				"message": "too many requests",
			})
			return
		}
		c.Next()
	}
}
