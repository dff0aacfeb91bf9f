// internal/pkg/session/types.go
package session

import "time"

// DefaultTTL is how long a new session lives in the store.
const DefaultTTL = 7 * 24 * time.Hour

// SessionData is the record stored under session:<token>.
// Timestamps are epoch milliseconds.
type SessionData struct {
	UserID    string   `json:"userId"`
	Email     string   `json:"email"`
	Roles     []string `json:"roles"`
	CreatedAt int64    `json:"createdAt"`
	ExpiresAt int64    `json:"expiresAt"`
}

// NewSession holds the caller-supplied fields of a session.
type NewSession struct {
	UserID string
	Email  string
	Roles  []string
}

// Patch lists the fields to merge into an existing session. Nil fields are left alone.
type Patch struct {
	UserID    *string
	Email     *string
	Roles     []string
	ExpiresAt *int64
}
