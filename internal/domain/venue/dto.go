// internal/domain/venue/dto.go
package venue

// CreateVenueRequest for creating a venue
type CreateVenueRequest struct {
	Name        string                 `json:"name" binding:"required,min=2"`
	URLName     string                 `json:"urlName" binding:"required,min=2,slug"`
	Description string                 `json:"description"`
	Address     string                 `json:"address"`
	City        string                 `json:"city"`
	State       string                 `json:"state"`
	PostalCode  string                 `json:"postalCode"`
	Country     string                 `json:"country"`
	Phone       string                 `json:"phone"`
	Website     string                 `json:"website" binding:"omitempty,url"`
	Timezone    string                 `json:"timezone"`
	Latitude    *float64               `json:"latitude" binding:"omitempty,gte=-90,lte=90"`
	Longitude   *float64               `json:"longitude" binding:"omitempty,gte=-180,lte=180"`
	IsActive    *bool                  `json:"isActive"`
	Settings    map[string]interface{} `json:"settings"`
	Metadata    map[string]interface{} `json:"metadata"`
}

// UpdateVenueRequest is a partial update; nil fields are left unchanged.
type UpdateVenueRequest struct {
	Name        *string                `json:"name" binding:"omitempty,min=2"`
	URLName     *string                `json:"urlName" binding:"omitempty,min=2,slug"`
	Description *string                `json:"description"`
	Address     *string                `json:"address"`
	City        *string                `json:"city"`
	State       *string                `json:"state"`
	PostalCode  *string                `json:"postalCode"`
	Country     *string                `json:"country"`
	Phone       *string                `json:"phone"`
	Website     *string                `json:"website" binding:"omitempty,url|len=0"`
	Timezone    *string                `json:"timezone"`
	Latitude    *float64               `json:"latitude" binding:"omitempty,gte=-90,lte=90"`
	Longitude   *float64               `json:"longitude" binding:"omitempty,gte=-180,lte=180"`
	IsActive    *bool                  `json:"isActive"`
	Settings    map[string]interface{} `json:"settings"`
	Metadata    map[string]interface{} `json:"metadata"`
}

// ListVenuesQuery filters and pages the public venue list.
type ListVenuesQuery struct {
	Search    string `form:"search"`
	City      string `form:"city"`
	State     string `form:"state"`
	IsActive  *bool  `form:"isActive"`
	Page      *int   `form:"page" binding:"omitempty,gte=1"`
	Limit     *int   `form:"limit" binding:"omitempty,gte=1,lte=100"`
	SortBy    string `form:"sortBy" binding:"omitempty,oneof=name createdAt updatedAt"`
	SortOrder string `form:"sortOrder" binding:"omitempty,oneof=asc desc"`
}

// VenueFilter is the normalized form of ListVenuesQuery.
type VenueFilter struct {
	Search    string
	City      string
	State     string
	IsActive  *bool
	Page      int
	Limit     int
	SortBy    string
	SortOrder string
}
