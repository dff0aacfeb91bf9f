// internal/middleware/rate_limit.go
package middleware

import (
	"math"
	"net/http"
	"strconv"

	"singr-service/internal/domain/constants"
	xerrors "singr-service/internal/pkg/errors"
	"singr-service/internal/pkg/response"
	"singr-service/internal/pkg/session"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// KeyFunc picks the bucket a request is counted against.
type KeyFunc func(c *gin.Context) string

// ByIP buckets requests by client address.
func ByIP(c *gin.Context) string {
	return "ip:" + c.ClientIP()
}

// ByUser buckets authenticated requests by user, falling back to address.
func ByUser(c *gin.Context) string {
	if id, ok := GetUserID(c); ok {
		return "user:" + id
	}
	return ByIP(c)
}

// RateLimit applies a fixed-window limit under name. When Redis is
// unreachable requests are let through and the failure is logged.
func RateLimit(limiter *session.RateLimiter, name string, limit constants.RateLimit, key KeyFunc, logger *zap.Logger) gin.HandlerFunc {
	l := session.Limit(limit)
	return func(c *gin.Context) {
		d, err := limiter.Allow(c.Request.Context(), name+":"+key(c), l)
		if err != nil {
			logger.Warn("rate limiter unavailable", zap.String("limit", name), zap.Error(err))
			c.Next()
			return
		}

		c.Header("X-RateLimit-Limit", strconv.FormatInt(l.Max, 10))
		c.Header("X-RateLimit-Remaining", strconv.FormatInt(d.Remaining, 10))
		c.Header("X-RateLimit-Reset", strconv.Itoa(int(math.Ceil(d.ResetAfter.Seconds()))))
		if !d.Allowed {
			retry := int(math.Ceil(d.RetryAfter.Seconds()))
			c.Header("Retry-After", strconv.Itoa(retry))
			appErr := xerrors.New(http.StatusTooManyRequests, xerrors.CodeRateLimited, "too many requests", xerrors.ErrRateLimited)
			appErr.Details = map[string]int{"retryAfter": retry}
			response.Error(c, appErr)
			return
		}
		c.Next()
	}
}
