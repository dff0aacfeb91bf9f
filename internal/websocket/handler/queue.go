// internal/websocket/handler/queue.go
package handler

import (
	"context"
	"fmt"

	"singr-service/internal/domain/request"
	wstypes "singr-service/internal/domain/websocket"
	ws "singr-service/internal/websocket"
)

// QueueReader returns the open requests of a venue in queue order.
type QueueReader interface {
	Queue(ctx context.Context, venueID string) ([]request.Request, error)
}

// QueueHandler answers queue:snapshot messages for subscribed venues.
type QueueHandler struct {
	queue QueueReader
}

func NewQueueHandler(queue QueueReader) *QueueHandler {
	return &QueueHandler{queue: queue}
}

// SupportedEvents returns events this handler supports
func (h *QueueHandler) SupportedEvents() []wstypes.EventType {
	return []wstypes.EventType{wstypes.EventTypeQueueSnapshot}
}

// HandleMessage processes queue-related messages
func (h *QueueHandler) HandleMessage(ctx context.Context, client *ws.Client, msg *wstypes.WSMessage) error {
	switch msg.Type {
	case wstypes.EventTypeQueueSnapshot:
		return h.handleSnapshot(ctx, client, msg)
	default:
		return fmt.Errorf("unsupported event type: %s", msg.Type)
	}
}

func (h *QueueHandler) handleSnapshot(ctx context.Context, client *ws.Client, msg *wstypes.WSMessage) error {
	var req wstypes.SnapshotRequest
	if err := ws.DecodeData(msg.Data, &req); err != nil {
		return fmt.Errorf("invalid snapshot request: %w", err)
	}
	if !client.IsSubscribed(wstypes.VenueChannel(req.VenueID)) {
		return ws.ErrNotSubscribed
	}

	items, err := h.queue.Queue(ctx, req.VenueID)
	if err != nil {
		return fmt.Errorf("load queue: %w", err)
	}

	client.SendMessage(wstypes.NewMessage(wstypes.EventTypeQueueSnapshot, map[string]interface{}{
		"venueId":  req.VenueID,
		"requests": items,
		"count":    len(items),
	}))
	return nil
}
