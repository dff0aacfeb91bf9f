// internal/handlers/auth/auth_handler.go
package auth

import (
	"net/http"

	"singr-service/internal/domain/auth"
	"singr-service/internal/middleware"
	"singr-service/internal/pkg/response"
	authUsecase "singr-service/internal/service/auth"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// SessionTokenHeader carries the opaque session token issued at login.
const SessionTokenHeader = "X-Session-Token"

type AuthHandler struct {
	authService *authUsecase.AuthService
	logger      *zap.Logger
}

func NewAuthHandler(authService *authUsecase.AuthService, logger *zap.Logger) *AuthHandler {
	return &AuthHandler{
		authService: authService,
		logger:      logger.Named("auth"),
	}
}

// ========== Tokens ==========

// Login handles user login
func (h *AuthHandler) Login(c *gin.Context) {
	var req auth.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BindError(c, err)
		return
	}

	req.IPAddress = c.ClientIP()
	req.UserAgent = c.GetHeader("User-Agent")

	loginResp, err := h.authService.Login(c.Request.Context(), &req)
	if err != nil {
		h.logger.Info("login failed",
			zap.String("email", req.Email),
			zap.String("ip", req.IPAddress),
			zap.Error(err),
		)
		response.Error(c, err)
		return
	}

	response.Success(c, http.StatusOK, "login successful", loginResp)
}

// Refresh exchanges a refresh token for a new access token.
func (h *AuthHandler) Refresh(c *gin.Context) {
	var req auth.RefreshRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BindError(c, err)
		return
	}

	resp, err := h.authService.Refresh(c.Request.Context(), req.RefreshToken)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, http.StatusOK, "token refreshed", resp)
}

// ========== Sessions ==========

// Logout deletes the session named by X-Session-Token (requires auth)
func (h *AuthHandler) Logout(c *gin.Context) {
	userID := middleware.MustGetUserID(c)

	if err := h.authService.Logout(c.Request.Context(), userID, c.GetHeader(SessionTokenHeader)); err != nil {
		h.logger.Error("logout failed", zap.String("user_id", userID), zap.Error(err))
		response.Error(c, err)
		return
	}

	response.Success(c, http.StatusOK, "logout successful", nil)
}

// LogoutAll handles logging out all sessions (requires auth)
func (h *AuthHandler) LogoutAll(c *gin.Context) {
	userID := middleware.MustGetUserID(c)

	n, err := h.authService.LogoutAll(c.Request.Context(), userID)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, http.StatusOK, "all sessions logged out", gin.H{"count": n})
}

// GetSession returns the caller's current session record.
func (h *AuthHandler) GetSession(c *gin.Context) {
	data, err := h.authService.GetSession(c.Request.Context(), middleware.MustGetUserID(c), c.GetHeader(SessionTokenHeader))
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, http.StatusOK, "", data)
}

// ExtendSession pushes the caller's session expiry forward.
func (h *AuthHandler) ExtendSession(c *gin.Context) {
	var req auth.ExtendSessionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BindError(c, err)
		return
	}

	data, err := h.authService.ExtendSession(c.Request.Context(), middleware.MustGetUserID(c), c.GetHeader(SessionTokenHeader), req.Seconds)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, http.StatusOK, "session extended", data)
}

// ========== Profile ==========

// GetMe returns the caller's identity and resolved permissions.
func (h *AuthHandler) GetMe(c *gin.Context) {
	identity, ok := middleware.GetIdentity(c)
	if !ok {
		response.Unauthorized(c, "invalid or expired token")
		return
	}

	info, err := h.authService.Me(c.Request.Context(), identity)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, http.StatusOK, "", info)
}

// ========== Admin ==========

// CreateUser creates an account with the given roles (admin only).
func (h *AuthHandler) CreateUser(c *gin.Context) {
	var req auth.CreateUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BindError(c, err)
		return
	}

	user, err := h.authService.CreateUser(c.Request.Context(), &req)
	if err != nil {
		response.Error(c, err)
		return
	}

	h.logger.Info("user created by admin",
		zap.String("admin_id", middleware.MustGetUserID(c)),
		zap.String("user_id", user.ID),
	)
	response.Success(c, http.StatusCreated, "user created", user)
}
