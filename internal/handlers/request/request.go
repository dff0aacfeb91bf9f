// internal/handlers/request/request.go
package request

import (
	"net/http"

	"singr-service/internal/domain/request"
	"singr-service/internal/middleware"
	"singr-service/internal/pkg/response"
	requestUsecase "singr-service/internal/service/request"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type RequestHandler struct {
	requestService *requestUsecase.RequestService
	logger         *zap.Logger
}

func NewRequestHandler(requestService *requestUsecase.RequestService, logger *zap.Logger) *RequestHandler {
	return &RequestHandler{
		requestService: requestService,
		logger:         logger.Named("request"),
	}
}

// List returns a page of requests (requests:read)
func (h *RequestHandler) List(c *gin.Context) {
	var q request.ListRequestsQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		response.BindError(c, err)
		return
	}

	result, err := h.requestService.List(c.Request.Context(), q)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, http.StatusOK, "", result)
}

// Get returns one request (requests:read)
func (h *RequestHandler) Get(c *gin.Context) {
	req, err := h.requestService.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, http.StatusOK, "", req)
}

// Create queues a song request for the caller
func (h *RequestHandler) Create(c *gin.Context) {
	var in request.CreateRequest
	if err := c.ShouldBindJSON(&in); err != nil {
		response.BindError(c, err)
		return
	}

	req, err := h.requestService.Create(c.Request.Context(), middleware.MustGetUserID(c), &in)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, http.StatusCreated, "request submitted", req)
}

// Update changes queue state (requests:process)
func (h *RequestHandler) Update(c *gin.Context) {
	var in request.UpdateRequest
	if err := c.ShouldBindJSON(&in); err != nil {
		response.BindError(c, err)
		return
	}

	req, err := h.requestService.Update(c.Request.Context(), c.Param("id"), &in)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, http.StatusOK, "request updated", req)
}

// Delete removes a request (requests:process)
func (h *RequestHandler) Delete(c *gin.Context) {
	if err := h.requestService.Delete(c.Request.Context(), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, http.StatusOK, "request deleted", nil)
}
