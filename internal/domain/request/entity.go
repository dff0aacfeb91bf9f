// internal/domain/request/entity.go
package request

import "time"

// Status of a song request in a venue queue.
type Status string

const (
	StatusPending   Status = "pending"
	StatusApproved  Status = "approved"
	StatusRejected  Status = "rejected"
	StatusCompleted Status = "completed"
	StatusCanceled  Status = "canceled"
)

// Terminal reports whether the request has left the queue.
func (s Status) Terminal() bool {
	switch s {
	case StatusRejected, StatusCompleted, StatusCanceled:
		return true
	}
	return false
}

// Request is a singer's song request at a venue system.
type Request struct {
	ID              string     `json:"id" gorm:"type:uuid;primaryKey"`
	VenueID         string     `json:"venueId" gorm:"type:uuid;not null;index"`
	SystemID        string     `json:"systemId" gorm:"type:uuid;not null;index"`
	SingerProfileID *string    `json:"singerProfileId,omitempty" gorm:"type:uuid;index"`
	RequestedBy     string     `json:"requestedBy" gorm:"type:uuid;not null"`
	SingerName      string     `json:"singerName" gorm:"size:255;not null"`
	Artist          string     `json:"artist" gorm:"size:255;not null"`
	Title           string     `json:"title" gorm:"size:255;not null"`
	KeyChange       int        `json:"keyChange" gorm:"not null;default:0"`
	Notes           string     `json:"notes,omitempty" gorm:"size:500"`
	Status          Status     `json:"status" gorm:"size:16;not null;default:pending;index"`
	Priority        int        `json:"priority" gorm:"not null;default:0"`
	Position        int        `json:"position" gorm:"not null;default:0"`
	RequestedAt     time.Time  `json:"requestedAt" gorm:"not null;index"`
	ProcessedAt     *time.Time `json:"processedAt,omitempty"`
	UpdatedAt       time.Time  `json:"updatedAt"`
}

func (Request) TableName() string { return "requests" }
