// internal/domain/venue/entity.go
package venue

import (
	"time"

	"gorm.io/datatypes"
)

// Venue is a karaoke location owned by a customer account.
type Venue struct {
	ID          string            `json:"id" gorm:"type:uuid;primaryKey"`
	Name        string            `json:"name" gorm:"size:255;not null"`
	URLName     string            `json:"urlName" gorm:"column:url_name;size:255;uniqueIndex;not null"`
	Description string            `json:"description,omitempty"`
	Address     string            `json:"address,omitempty"`
	City        string            `json:"city,omitempty" gorm:"size:128;index"`
	State       string            `json:"state,omitempty" gorm:"size:128;index"`
	PostalCode  string            `json:"postalCode,omitempty" gorm:"size:32"`
	Country     string            `json:"country" gorm:"size:64;not null;default:US"`
	Phone       string            `json:"phone,omitempty" gorm:"size:64"`
	Website     string            `json:"website,omitempty"`
	Timezone    string            `json:"timezone" gorm:"size:64;not null;default:UTC"`
	Latitude    *float64          `json:"latitude,omitempty"`
	Longitude   *float64          `json:"longitude,omitempty"`
	IsActive    bool              `json:"isActive" gorm:"not null;default:true;index"`
	Settings    datatypes.JSONMap `json:"settings,omitempty" gorm:"type:jsonb"`
	Metadata    datatypes.JSONMap `json:"metadata,omitempty" gorm:"type:jsonb"`
	CreatedAt   time.Time         `json:"createdAt"`
	UpdatedAt   time.Time         `json:"updatedAt"`
}

func (Venue) TableName() string { return "venues" }
