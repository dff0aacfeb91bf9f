// internal/middleware/recovery_middleware.go
package middleware

import (
	"fmt"
	"net/http"

	xerrors "singr-service/internal/pkg/errors"
	"singr-service/internal/pkg/response"

	"github.com/getsentry/sentry-go"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// RecoveryMiddleware turns panics into 500 responses, logging them and
// reporting them to Sentry when it is configured.
func RecoveryMiddleware(logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if rec := recover(); rec != nil {
				logger.Error("panic recovered",
					zap.Any("error", rec),
					zap.String("path", c.Request.URL.Path),
					zap.String("request_id", GetRequestID(c)),
					zap.Stack("stack"),
				)

				hub := sentry.CurrentHub().Clone()
				hub.Scope().SetRequest(c.Request)
				hub.Scope().SetTag("request_id", GetRequestID(c))
				hub.RecoverWithContext(c.Request.Context(), rec)

				response.Error(c, xerrors.New(http.StatusInternalServerError, xerrors.CodeInternal,
					"an unexpected error occurred", fmt.Errorf("%w: panic: %v", xerrors.ErrInternal, rec)))
			}
		}()
		c.Next()
	}
}
