// internal/middleware/auth_middleware.go
package middleware

import (
	"context"
	"errors"
	"strings"

	xerrors "singr-service/internal/pkg/errors"
	"singr-service/internal/pkg/jwt"
	"singr-service/internal/pkg/metrics"
	"singr-service/internal/pkg/rbac"
	"singr-service/internal/pkg/response"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const bearerPrefix = "Bearer "

// invalidTokenMessage is the only failure text callers ever see.
const invalidTokenMessage = "invalid or expired token"

// PermissionResolver expands role slugs into permission slugs.
type PermissionResolver interface {
	Permissions(ctx context.Context, roles []string) ([]string, error)
}

type AuthMiddleware struct {
	verifier    *jwt.Verifier
	inspector   *jwt.Inspector
	permissions PermissionResolver
	metrics     *metrics.Registry
	logger      *zap.Logger
}

func NewAuthMiddleware(verifier *jwt.Verifier, permissions PermissionResolver, reg *metrics.Registry, logger *zap.Logger) *AuthMiddleware {
	return &AuthMiddleware{
		verifier:    verifier,
		inspector:   jwt.NewInspector(),
		permissions: permissions,
		metrics:     reg,
		logger:      logger.Named("auth"),
	}
}

// Auth accepts only "Authorization: Bearer <access token>". Every failure
// is answered with the same 401 message; the reason goes to logs and metrics.
func (m *AuthMiddleware) Auth() gin.HandlerFunc {
	return func(c *gin.Context) {
		token, ok := bearerToken(c.GetHeader("Authorization"))
		if !ok {
			m.reject(c, "missing_or_malformed_header")
			return
		}

		claims, err := m.verifier.VerifyAccessToken(token)
		if err != nil {
			m.reject(c, string(jwt.ReasonOf(err)), m.claimedUser(token)...)
			return
		}

		c.Set(ctxKeyIdentity, claims.Identity())
		c.Set(ctxKeyUserID, claims.UserID)
		c.Set(ctxKeyRoles, claims.Roles)

		c.Next()
	}
}

func (m *AuthMiddleware) reject(c *gin.Context, reason string, extra ...zap.Field) {
	m.metrics.AuthFailure(reason)
	if ce := m.logger.Check(zap.DebugLevel, "authentication rejected"); ce != nil {
		ce.Write(append([]zap.Field{
			zap.String("reason", reason),
			zap.String("path", c.FullPath()),
			zap.String("ip", c.ClientIP()),
		}, extra...)...)
	}
	response.Unauthorized(c, invalidTokenMessage)
}

// claimedUser reads the unverified subject of a rejected token for the
// debug log. The value is never trusted.
func (m *AuthMiddleware) claimedUser(token string) []zap.Field {
	if !m.logger.Core().Enabled(zap.DebugLevel) {
		return nil
	}
	claims, err := m.inspector.DecodeUnverified(token)
	if err != nil || claims.UserID == "" {
		return nil
	}
	return []zap.Field{zap.String("claimed_user_id", claims.UserID)}
}

// RequirePermission requires the caller to hold at least one of permissions.
// MUST be used after Auth() middleware
func (m *AuthMiddleware) RequirePermission(permissions ...string) gin.HandlerFunc {
	return m.requirePermissions(permissions, rbac.HasAnyPermission)
}

// RequireAllPermissions requires the caller to hold every one of permissions.
// MUST be used after Auth() middleware
func (m *AuthMiddleware) RequireAllPermissions(permissions ...string) gin.HandlerFunc {
	return m.requirePermissions(permissions, rbac.HasAllPermissions)
}

func (m *AuthMiddleware) requirePermissions(required []string, check func(granted, required []string) bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		granted, err := m.resolve(c)
		if err != nil {
			if !errors.Is(err, xerrors.ErrAuthentication) {
				m.logger.Error("permission lookup failed", zap.Error(err))
			}
			response.Error(c, err)
			return
		}

		if !check(granted, required) {
			response.Forbidden(c, "insufficient permissions", map[string]interface{}{
				"required": required,
			})
			return
		}
		c.Next()
	}
}

// RequireRole requires the caller to hold at least one of roles.
// MUST be used after Auth() middleware
func (m *AuthMiddleware) RequireRole(roles ...string) gin.HandlerFunc {
	return requireRoles(roles, rbac.HasAnyRole)
}

// RequireAllRoles requires the caller to hold every one of roles.
// MUST be used after Auth() middleware
func (m *AuthMiddleware) RequireAllRoles(roles ...string) gin.HandlerFunc {
	return requireRoles(roles, rbac.HasAllRoles)
}

func requireRoles(required []string, check func(granted, required []string) bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		if _, ok := GetUserID(c); !ok {
			response.Unauthorized(c, invalidTokenMessage)
			return
		}
		if !check(GetRoles(c), required) {
			response.Forbidden(c, "insufficient permissions", map[string]interface{}{
				"requiredRoles": required,
			})
			return
		}
		c.Next()
	}
}

// AdminOnly returns middlewares for admin-only routes (Auth + RequireRole)
func (m *AuthMiddleware) AdminOnly() []gin.HandlerFunc {
	return []gin.HandlerFunc{
		m.Auth(),
		m.RequireRole("admin"),
	}
}

// resolve loads the caller's permissions once per request.
func (m *AuthMiddleware) resolve(c *gin.Context) ([]string, error) {
	if perms, ok := c.Get(ctxKeyPermissions); ok {
		if list, ok := perms.([]string); ok {
			return list, nil
		}
	}
	if _, ok := GetUserID(c); !ok {
		return nil, xerrors.ErrAuthentication
	}

	perms, err := m.permissions.Permissions(c.Request.Context(), GetRoles(c))
	if err != nil {
		return nil, err
	}
	c.Set(ctxKeyPermissions, perms)
	return perms, nil
}

// bearerToken extracts the token from a "Bearer <token>" header value.
func bearerToken(header string) (string, bool) {
	if !strings.HasPrefix(header, bearerPrefix) {
		return "", false
	}
	token := strings.TrimSpace(header[len(bearerPrefix):])
	if token == "" || strings.ContainsAny(token, " \t") {
		return "", false
	}
	return token, true
}
