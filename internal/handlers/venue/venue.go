// internal/handlers/venue/venue.go
package venue

import (
	"net/http"

	"singr-service/internal/domain/venue"
	"singr-service/internal/pkg/response"
	venueUsecase "singr-service/internal/service/venue"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type VenueHandler struct {
	venueService *venueUsecase.VenueService
	logger       *zap.Logger
}

func NewVenueHandler(venueService *venueUsecase.VenueService, logger *zap.Logger) *VenueHandler {
	return &VenueHandler{
		venueService: venueService,
		logger:       logger.Named("venue"),
	}
}

// List returns a page of venues (public)
func (h *VenueHandler) List(c *gin.Context) {
	var q venue.ListVenuesQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		response.BindError(c, err)
		return
	}

	result, err := h.venueService.List(c.Request.Context(), q)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, http.StatusOK, "", result)
}

// Get returns one venue (public)
func (h *VenueHandler) Get(c *gin.Context) {
	v, err := h.venueService.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, http.StatusOK, "", v)
}

// Create adds a venue (venues:write)
func (h *VenueHandler) Create(c *gin.Context) {
	var req venue.CreateVenueRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BindError(c, err)
		return
	}

	v, err := h.venueService.Create(c.Request.Context(), &req)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, http.StatusCreated, "venue created", v)
}

// Update applies a partial update (venues:write)
func (h *VenueHandler) Update(c *gin.Context) {
	var req venue.UpdateVenueRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BindError(c, err)
		return
	}

	v, err := h.venueService.Update(c.Request.Context(), c.Param("id"), &req)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, http.StatusOK, "venue updated", v)
}

// Delete removes a venue and its requests (venues:delete)
func (h *VenueHandler) Delete(c *gin.Context) {
	id := c.Param("id")
	if err := h.venueService.Delete(c.Request.Context(), id); err != nil {
		response.Error(c, err)
		return
	}

	h.logger.Info("venue deleted", zap.String("venue_id", id))
	response.Success(c, http.StatusOK, "venue deleted", nil)
}
