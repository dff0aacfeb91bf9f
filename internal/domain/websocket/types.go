// internal/domain/websocket/types.go
package websocket

import (
	"encoding/json"
	"strings"
	"time"

	"github.com/oklog/ulid/v2"
)

// EventType represents different real-time event types
type EventType string

const (
	// Connection events
	EventTypePing         EventType = "ping"
	EventTypePong         EventType = "pong"
	EventTypeConnected    EventType = "connected"
	EventTypeDisconnected EventType = "disconnected"
	EventTypeError        EventType = "error"

	// Subscription events
	EventTypeSubscribe   EventType = "subscribe"
	EventTypeUnsubscribe EventType = "unsubscribe"

	// Request queue events (server -> client)
	EventTypeRequestCreated EventType = "request:created"
	EventTypeRequestUpdated EventType = "request:updated"
	EventTypeRequestDeleted EventType = "request:deleted"

	// Queue snapshot (client asks, server answers with the same type)
	EventTypeQueueSnapshot EventType = "queue:snapshot"
)

// WSMessage is the universal message format
type WSMessage struct {
	Type      EventType   `json:"type"`
	Data      interface{} `json:"data,omitempty"`
	Timestamp time.Time   `json:"timestamp"`
	ID        string      `json:"id,omitempty"`
}

// ChannelType names a broadcast stream. Venue queues use "venue:<id>".
type ChannelType string

const venueChannelPrefix = "venue:"

// VenueChannel is the channel carrying a venue's request events.
func VenueChannel(venueID string) ChannelType {
	return ChannelType(venueChannelPrefix + venueID)
}

// VenueID extracts the venue id from a venue channel.
func (c ChannelType) VenueID() (string, bool) {
	s := string(c)
	if !strings.HasPrefix(s, venueChannelPrefix) || len(s) == len(venueChannelPrefix) {
		return "", false
	}
	return strings.TrimPrefix(s, venueChannelPrefix), true
}

// SubscribeRequest sent by client to subscribe to specific channels
type SubscribeRequest struct {
	Channels []ChannelType `json:"channels"`
}

// UnsubscribeRequest sent by client to unsubscribe from channels
type UnsubscribeRequest struct {
	Channels []ChannelType `json:"channels"`
}

// SnapshotRequest asks for the open queue of a venue
type SnapshotRequest struct {
	VenueID string `json:"venueId"`
}

// ErrorData for error events
type ErrorData struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details string `json:"details,omitempty"`
}

// Helper to create messages
func NewMessage(eventType EventType, data interface{}) *WSMessage {
	return &WSMessage{
		Type:      eventType,
		Data:      data,
		Timestamp: time.Now().UTC(),
		ID:        ulid.Make().String(),
	}
}

func (m *WSMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

func ParseMessage(data []byte) (*WSMessage, error) {
	var msg WSMessage
	err := json.Unmarshal(data, &msg)
	return &msg, err
}
