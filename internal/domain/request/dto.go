// internal/domain/request/dto.go
package request

// CreateRequest submits a song request.
type CreateRequest struct {
	VenueID    string  `json:"venueId" binding:"required,uuid"`
	SystemID   string  `json:"systemId" binding:"required,uuid"`
	SingerName string  `json:"singerName" binding:"required,min=1"`
	Artist     string  `json:"artist" binding:"required,min=1"`
	Title      string  `json:"title" binding:"required,min=1"`
	KeyChange  *int    `json:"keyChange" binding:"omitempty,gte=-12,lte=12"`
	Notes      *string `json:"notes" binding:"omitempty,max=500"`
}

// UpdateRequest changes queue state; nil fields are left unchanged.
type UpdateRequest struct {
	Status   *string `json:"status" binding:"omitempty,oneof=pending approved rejected completed canceled"`
	Priority *int    `json:"priority" binding:"omitempty,gte=0,lte=10"`
	Position *int    `json:"position" binding:"omitempty,gte=0"`
	Notes    *string `json:"notes" binding:"omitempty,max=500"`
}

// ListRequestsQuery filters and pages a request queue.
type ListRequestsQuery struct {
	VenueID         string `form:"venueId" binding:"omitempty,uuid"`
	SystemID        string `form:"systemId" binding:"omitempty,uuid"`
	SingerProfileID string `form:"singerProfileId" binding:"omitempty,uuid"`
	Status          string `form:"status" binding:"omitempty,oneof=pending approved rejected completed canceled"`
	Search          string `form:"search"`
	Page            *int   `form:"page" binding:"omitempty,gte=1"`
	Limit           *int   `form:"limit" binding:"omitempty,gte=1,lte=100"`
	SortBy          string `form:"sortBy" binding:"omitempty,oneof=requestedAt position priority"`
	SortOrder       string `form:"sortOrder" binding:"omitempty,oneof=asc desc"`
}

// RequestFilter is the normalized form of ListRequestsQuery.
type RequestFilter struct {
	VenueID         string
	SystemID        string
	SingerProfileID string
	Status          Status
	Search          string
	Page            int
	Limit           int
	SortBy          string
	SortOrder       string
}
