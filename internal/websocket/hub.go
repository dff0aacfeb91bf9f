// internal/websocket/hub.go
package websocket

import (
	"context"
	"fmt"
	"sync"

	wstypes "singr-service/internal/domain/websocket"
	"singr-service/internal/pkg/jwt"
	"singr-service/internal/pkg/metrics"

	"go.uber.org/zap"
)

// PermissionResolver expands role slugs into permission slugs.
type PermissionResolver interface {
	Permissions(ctx context.Context, roles []string) ([]string, error)
}

type Hub struct {
	// Registered clients by user ID
	clients map[string]map[*Client]bool
	mu      sync.RWMutex

	// Registration/unregistration
	register   chan *Client
	unregister chan *Client

	// Broadcasting
	broadcast chan *BroadcastMessage

	// Handler registry for modular message handling
	handlerRegistry *HandlerRegistry

	// Closed when Run returns
	done chan struct{}

	// Auth dependencies
	jwtVerifier *jwt.Verifier
	permissions PermissionResolver

	metrics *metrics.Registry
	logger  *zap.Logger
}

type BroadcastMessage struct {
	Channel wstypes.ChannelType
	Message *wstypes.WSMessage
}

func NewHub(jwtVerifier *jwt.Verifier, permissions PermissionResolver, reg *metrics.Registry, logger *zap.Logger) *Hub {
	return &Hub{
		clients:         make(map[string]map[*Client]bool),
		register:        make(chan *Client),
		unregister:      make(chan *Client),
		broadcast:       make(chan *BroadcastMessage, 256),
		handlerRegistry: NewHandlerRegistry(),
		done:            make(chan struct{}),
		jwtVerifier:     jwtVerifier,
		permissions:     permissions,
		metrics:         reg,
		logger:          logger.Named("ws"),
	}
}

// AuthenticateClient verifies an access token and resolves the caller's
// permissions. Refresh tokens are rejected.
func (h *Hub) AuthenticateClient(ctx context.Context, token string) (*ClientAuth, error) {
	claims, err := h.jwtVerifier.VerifyAccessToken(token)
	if err != nil {
		h.metrics.AuthFailure(string(jwt.ReasonOf(err)))
		return nil, fmt.Errorf("%w: %w", ErrUnauthorized, err)
	}

	perms, err := h.permissions.Permissions(ctx, claims.Roles)
	if err != nil {
		return nil, fmt.Errorf("resolve permissions: %w", err)
	}

	return &ClientAuth{
		UserID:      claims.UserID,
		Email:       claims.Email,
		Roles:       claims.Roles,
		Permissions: perms,
	}, nil
}

// RegisterHandler registers a message handler
func (h *Hub) RegisterHandler(handler MessageHandler) {
	h.handlerRegistry.Register(handler)
}

// HandleClientMessage dispatches msg to a registered handler. It reports
// false when no handler claims the event type.
func (h *Hub) HandleClientMessage(ctx context.Context, client *Client, msg *wstypes.WSMessage) (bool, error) {
	handler, exists := h.handlerRegistry.GetHandler(msg.Type)
	if !exists {
		return false, nil
	}
	return true, handler.HandleMessage(ctx, client, msg)
}

func (h *Hub) Run(ctx context.Context) {
	defer close(h.done)
	for {
		select {
		case <-ctx.Done():
			h.shutdown()
			return

		case client := <-h.register:
			h.registerClient(client)

		case client := <-h.unregister:
			h.unregisterClient(client)

		case msg := <-h.broadcast:
			h.BroadcastMessage(msg)
		}
	}
}

func (h *Hub) registerClient(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.clients[client.userID] == nil {
		h.clients[client.userID] = make(map[*Client]bool)
	}
	h.clients[client.userID][client] = true
	h.metrics.WebsocketConnected()

	h.logger.Info("client connected",
		zap.String("user_id", client.userID),
		zap.Int("total", h.totalClients()),
	)

	client.SendMessage(wstypes.NewMessage(wstypes.EventTypeConnected, map[string]interface{}{
		"userId":   client.userID,
		"roles":    client.roles,
		"channels": client.Channels(),
	}))
}

func (h *Hub) unregisterClient(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	clients, ok := h.clients[client.userID]
	if !ok {
		return
	}
	if _, exists := clients[client]; !exists {
		return
	}

	delete(clients, client)
	client.Close()
	if len(clients) == 0 {
		delete(h.clients, client.userID)
	}
	h.metrics.WebsocketDisconnected()

	h.logger.Info("client disconnected",
		zap.String("user_id", client.userID),
		zap.Int("total", h.totalClients()),
	)
}

// BroadcastMessage delivers msg to every client subscribed to its channel.
func (h *Hub) BroadcastMessage(msg *BroadcastMessage) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for _, clients := range h.clients {
		for client := range clients {
			if client.IsSubscribed(msg.Channel) {
				client.SendMessage(msg.Message)
			}
		}
	}
}

// PublishVenueEvent queues a request event for the venue's subscribers.
// Events are dropped when the broadcast buffer is full.
func (h *Hub) PublishVenueEvent(venueID string, event wstypes.EventType, data interface{}) {
	msg := &BroadcastMessage{
		Channel: wstypes.VenueChannel(venueID),
		Message: wstypes.NewMessage(event, data),
	}
	select {
	case h.broadcast <- msg:
	default:
		h.logger.Warn("broadcast buffer full, dropping event",
			zap.String("venue_id", venueID),
			zap.String("event", string(event)),
		)
	}
}

func (h *Hub) GetConnectedClients(userID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients[userID])
}

func (h *Hub) TotalClients() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.totalClients()
}

// VenueSubscribers counts clients listening to a venue.
func (h *Hub) VenueSubscribers(venueID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()

	channel := wstypes.VenueChannel(venueID)
	n := 0
	for _, clients := range h.clients {
		for client := range clients {
			if client.IsSubscribed(channel) {
				n++
			}
		}
	}
	return n
}

// DisconnectUser forcefully disconnects all connections for a user
func (h *Hub) DisconnectUser(userID string, reason string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	clients, ok := h.clients[userID]
	if !ok {
		return
	}

	disconnectMsg := wstypes.NewMessage(wstypes.EventTypeDisconnected, map[string]interface{}{
		"reason": reason,
	})
	for client := range clients {
		client.SendMessage(disconnectMsg)
		client.Close()
		h.metrics.WebsocketDisconnected()
	}
	delete(h.clients, userID)
	h.logger.Info("disconnected user", zap.String("user_id", userID), zap.String("reason", reason))
}

// Register hands client to the hub. It reports false once the hub has
// stopped, in which case the caller owns the client's cleanup.
func (h *Hub) Register(client *Client) bool {
	select {
	case h.register <- client:
		return true
	case <-h.done:
		return false
	}
}

// drop asks the hub to unregister client without blocking after shutdown.
func (h *Hub) drop(client *Client) {
	select {
	case h.unregister <- client:
	case <-h.done:
	}
}

func (h *Hub) totalClients() int {
	total := 0
	for _, clients := range h.clients {
		total += len(clients)
	}
	return total
}

func (h *Hub) shutdown() {
	h.mu.Lock()
	defer h.mu.Unlock()

	for userID, clients := range h.clients {
		for client := range clients {
			client.Close()
			h.metrics.WebsocketDisconnected()
		}
		delete(h.clients, userID)
	}
}
