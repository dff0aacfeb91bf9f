// internal/middleware/helpers.go
package middleware

import (
	"singr-service/internal/pkg/jwt"

	"github.com/gin-gonic/gin"
)

const (
	ctxKeyIdentity    = "identity"
	ctxKeyUserID      = "user_id"
	ctxKeyRoles       = "roles"
	ctxKeyPermissions = "permissions"
	ctxKeyRequestID   = "request_id"
)

// GetUserID returns the authenticated user's ID.
func GetUserID(c *gin.Context) (string, bool) {
	v, exists := c.Get(ctxKeyUserID)
	if !exists {
		return "", false
	}
	id, ok := v.(string)
	return id, ok && id != ""
}

// MustGetUserID gets the user ID from context or panics
func MustGetUserID(c *gin.Context) string {
	id, ok := GetUserID(c)
	if !ok {
		panic("user_id not found in context")
	}
	return id
}

// GetIdentity returns the identity attached by Auth.
func GetIdentity(c *gin.Context) (jwt.Identity, bool) {
	v, exists := c.Get(ctxKeyIdentity)
	if !exists {
		return jwt.Identity{}, false
	}
	id, ok := v.(jwt.Identity)
	return id, ok
}

// GetRoles gets user roles from context
func GetRoles(c *gin.Context) []string {
	roles, exists := c.Get(ctxKeyRoles)
	if !exists {
		return []string{}
	}

	rolesList, ok := roles.([]string)
	if !ok {
		return []string{}
	}
	return rolesList
}

// GetPermissions returns permissions resolved earlier in the chain, if any.
func GetPermissions(c *gin.Context) []string {
	perms, exists := c.Get(ctxKeyPermissions)
	if !exists {
		return []string{}
	}
	list, ok := perms.([]string)
	if !ok {
		return []string{}
	}
	return list
}

// GetRequestID returns the request's correlation id.
func GetRequestID(c *gin.Context) string {
	return c.GetString(ctxKeyRequestID)
}
