// internal/handlers/websocket/websocket.go
package websocket

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"singr-service/internal/domain/constants"
	wstypes "singr-service/internal/domain/websocket"
	"singr-service/internal/pkg/response"
	ws "singr-service/internal/websocket"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

// VenueChecker confirms a venue exists.
type VenueChecker interface {
	Exists(ctx context.Context, id string) (bool, error)
}

type WebSocketHandler struct {
	hub      *ws.Hub
	venues   VenueChecker
	upgrader websocket.Upgrader
	logger   *zap.Logger
}

// NewWebSocketHandler builds the handler. Browser connections are accepted
// only from origins; requests without an Origin header are allowed.
func NewWebSocketHandler(hub *ws.Hub, venues VenueChecker, origins []string, logger *zap.Logger) *WebSocketHandler {
	allowed := make(map[string]bool, len(origins))
	for _, o := range origins {
		allowed[strings.TrimRight(o, "/")] = true
	}

	return &WebSocketHandler{
		hub:    hub,
		venues: venues,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				origin := r.Header.Get("Origin")
				return origin == "" || allowed[strings.TrimRight(origin, "/")]
			},
		},
		logger: logger.Named("ws"),
	}
}

// HandleVenueRequests upgrades GET /ws/venues/:id/requests and subscribes
// the connection to that venue's request events.
func (h *WebSocketHandler) HandleVenueRequests(c *gin.Context) {
	venueID := c.Param("id")
	if _, err := uuid.Parse(venueID); err != nil {
		response.NotFound(c, "venue not found")
		return
	}

	token := h.extractToken(c)
	if token == "" {
		response.Unauthorized(c, "invalid or expired token")
		return
	}

	auth, err := h.hub.AuthenticateClient(c.Request.Context(), token)
	if err != nil {
		if errors.Is(err, ws.ErrUnauthorized) {
			response.Unauthorized(c, "invalid or expired token")
			return
		}
		h.logger.Error("websocket authentication failed", zap.Error(err))
		response.Error(c, err)
		return
	}

	exists, err := h.venues.Exists(c.Request.Context(), venueID)
	if err != nil {
		response.Error(c, err)
		return
	}
	if !exists {
		response.NotFound(c, "venue not found")
		return
	}

	// Built before upgrading so a denied subscription is still a plain HTTP error
	client := ws.NewClient(h.hub, nil, auth)
	if err := client.Subscribe(wstypes.VenueChannel(venueID)); err != nil {
		client.Close()
		response.Forbidden(c, "insufficient permissions", map[string]interface{}{
			"required": []string{constants.PermRequestsRead},
		})
		return
	}

	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.logger.Warn("websocket upgrade failed", zap.Error(err), zap.String("ip", c.ClientIP()))
		client.Close()
		return
	}
	client.Attach(conn)

	if !h.hub.Register(client) {
		h.logger.Warn("websocket hub stopped, dropping client", zap.String("user_id", auth.UserID))
		_ = conn.Close()
		client.Close()
		return
	}

	h.logger.Info("websocket client connected",
		zap.String("user_id", auth.UserID),
		zap.String("venue_id", venueID),
	)

	go client.WritePump()
	go client.ReadPump()
}

// extractToken reads the token query parameter, falling back to a Bearer
// Authorization header.
func (h *WebSocketHandler) extractToken(c *gin.Context) string {
	if token := c.Query("token"); token != "" {
		return token
	}

	parts := strings.SplitN(c.GetHeader("Authorization"), " ", 2)
	if len(parts) == 2 && parts[0] == "Bearer" {
		return strings.TrimSpace(parts[1])
	}
	return ""
}

// GetStats returns websocket connection statistics.
func (h *WebSocketHandler) GetStats(c *gin.Context) {
	stats := map[string]interface{}{
		"totalConnections": h.hub.TotalClients(),
		"timestamp":        time.Now().UTC(),
	}
	if venueID := c.Query("venueId"); venueID != "" {
		stats["venueSubscribers"] = h.hub.VenueSubscribers(venueID)
	}

	response.Success(c, http.StatusOK, "websocket stats", stats)
}
