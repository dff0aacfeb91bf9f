// internal/handlers/admin/admin.go
package admin

import (
	"context"
	"net/http"

	"singr-service/internal/middleware"
	"singr-service/internal/pkg/response"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// CacheInvalidator drops cached role-to-permission expansions.
type CacheInvalidator interface {
	Invalidate(ctx context.Context) (int, error)
}

type AdminHandler struct {
	permissions CacheInvalidator
	logger      *zap.Logger
}

func NewAdminHandler(permissions CacheInvalidator, logger *zap.Logger) *AdminHandler {
	return &AdminHandler{permissions: permissions, logger: logger.Named("admin")}
}

// InvalidatePermissions clears the permission cache after role grants change.
func (h *AdminHandler) InvalidatePermissions(c *gin.Context) {
	n, err := h.permissions.Invalidate(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}

	h.logger.Info("permission cache cleared",
		zap.String("admin_id", middleware.MustGetUserID(c)),
		zap.Int("entries", n),
	)
	response.Success(c, http.StatusOK, "permission cache cleared", gin.H{"entries": n})
}
