// internal/app/router.go
package app

import (
	"singr-service/internal/domain/constants"
	adminHandler "singr-service/internal/handlers/admin"
	authHandler "singr-service/internal/handlers/auth"
	healthHandler "singr-service/internal/handlers/health"
	requestHandler "singr-service/internal/handlers/request"
	venueHandler "singr-service/internal/handlers/venue"
	wsHandler "singr-service/internal/handlers/websocket"
	"singr-service/internal/middleware"
	"singr-service/internal/pkg/metrics"
	"singr-service/internal/pkg/session"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type Handlers struct {
	HealthHandler  *healthHandler.HealthHandler
	AuthHandler    *authHandler.AuthHandler
	VenueHandler   *venueHandler.VenueHandler
	RequestHandler *requestHandler.RequestHandler
	AdminHandler   *adminHandler.AdminHandler
	WSHandler      *wsHandler.WebSocketHandler
	AuthMiddleware *middleware.AuthMiddleware
}

// RouterOptions carries the cross-cutting pieces the router wires in.
type RouterOptions struct {
	Logger         *zap.Logger
	Metrics        *metrics.Registry
	RateLimiter    *session.RateLimiter
	CORSOrigins    []string
	RequestLogging bool
}

func SetupRouter(r *gin.Engine, opts RouterOptions, h *Handlers) {
	r.Use(
		middleware.RequestID(),
		middleware.RecoveryMiddleware(opts.Logger),
		middleware.SecurityHeaders(),
		middleware.CORSMiddleware(opts.CORSOrigins),
		middleware.MetricsMiddleware(opts.Metrics),
	)
	if opts.RequestLogging {
		r.Use(middleware.LoggingMiddleware(opts.Logger))
	}

	limit := func(name string, l constants.RateLimit, key middleware.KeyFunc) gin.HandlerFunc {
		return middleware.RateLimit(opts.RateLimiter, name, l, key, opts.Logger)
	}
	auth := h.AuthMiddleware

	// ==================== Health & Metrics ====================
	health := r.Group("/health")
	{
		health.GET("", h.HealthHandler.Health)
		health.GET("/detailed", h.HealthHandler.Detailed)
		health.GET("/ready", h.HealthHandler.Ready)
		health.GET("/live", h.HealthHandler.Live)
	}
	r.GET("/metrics", gin.WrapH(opts.Metrics.Handler()))

	// ==================== WebSocket ====================
	r.GET("/ws/venues/:id/requests", h.WSHandler.HandleVenueRequests)

	api := r.Group("/api/v1")
	api.Use(limit("api", constants.RateLimitCustomerAPI, middleware.ByIP))

	// ==================== Auth ====================
	authPublic := api.Group("/auth")
	{
		authPublic.POST("/login", h.AuthHandler.Login)
		authPublic.POST("/refresh", h.AuthHandler.Refresh)
	}

	authProtected := api.Group("/auth")
	authProtected.Use(auth.Auth())
	{
		authProtected.POST("/logout", h.AuthHandler.Logout)
		authProtected.POST("/logout-all", h.AuthHandler.LogoutAll)
		authProtected.GET("/me", h.AuthHandler.GetMe)
		authProtected.GET("/session", h.AuthHandler.GetSession)
		authProtected.POST("/session/extend", h.AuthHandler.ExtendSession)
	}

	// ==================== Venues ====================
	venues := api.Group("/venues")
	{
		publicVenues := limit("venues", constants.RateLimitPublicVenues, middleware.ByIP)
		venues.GET("", publicVenues, h.VenueHandler.List)
		venues.GET("/:id", publicVenues, h.VenueHandler.Get)

		venues.POST("", auth.Auth(), auth.RequirePermission(constants.PermVenuesWrite), h.VenueHandler.Create)
		venues.PATCH("/:id", auth.Auth(), auth.RequirePermission(constants.PermVenuesWrite), h.VenueHandler.Update)
		venues.DELETE("/:id", auth.Auth(), auth.RequirePermission(constants.PermVenuesDelete), h.VenueHandler.Delete)
	}

	// ==================== Requests ====================
	requests := api.Group("/requests")
	requests.Use(auth.Auth())
	{
		requests.GET("", auth.RequirePermission(constants.PermRequestsRead), h.RequestHandler.List)
		requests.GET("/:id", auth.RequirePermission(constants.PermRequestsRead), h.RequestHandler.Get)
		requests.POST("", h.RequestHandler.Create)
		requests.PATCH("/:id", auth.RequirePermission(constants.PermRequestsProcess), h.RequestHandler.Update)
		requests.DELETE("/:id", auth.RequirePermission(constants.PermRequestsProcess), h.RequestHandler.Delete)
	}

	// ==================== Admin ====================
	admin := api.Group("/admin")
	admin.Use(auth.AdminOnly()...)
	admin.Use(limit("admin", constants.RateLimitAdminAPI, middleware.ByUser))
	{
		admin.POST("/users", h.AuthHandler.CreateUser)
		admin.POST("/permissions/invalidate", h.AdminHandler.InvalidatePermissions)
		admin.GET("/ws/stats", h.WSHandler.GetStats)
	}
}
