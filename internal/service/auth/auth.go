// internal/service/auth/auth.go
package auth

import (
	"context"
	"errors"
	"fmt"
	"math"
	"net/http"
	"strings"
	"time"

	"singr-service/internal/domain/auth"
	"singr-service/internal/domain/constants"
	xerrors "singr-service/internal/pkg/errors"
	"singr-service/internal/pkg/jwt"
	"singr-service/internal/pkg/metrics"
	"singr-service/internal/pkg/password"
	"singr-service/internal/pkg/session"

	"go.uber.org/zap"
)

// dummyHash is verified against when the email is unknown so both
// paths cost one argon2id derivation.
const dummyHash = "$argon2id$v=19$m=19456,t=2,p=1$c2luZ3ItZHVtbXktc2FsdA$AAECAwQFBgcICQoLDA0ODxAREhMUFRYXGBkaGxwdHh8"

const tokenTypeBearer = "Bearer"

// UserStore is the persistence the auth service needs.
type UserStore interface {
	FindUserByEmail(ctx context.Context, email string) (*auth.User, error)
	FindUserByID(ctx context.Context, id string) (*auth.User, error)
	GetUserRoles(ctx context.Context, userID string) ([]string, error)
	UpdateLastLogin(ctx context.Context, id string, at time.Time) error
	UpdatePasswordHash(ctx context.Context, id, hash string) error
	CreateUserWithRoles(ctx context.Context, user *auth.User, roles []string) error
}

// PermissionResolver maps role slugs to permission slugs.
type PermissionResolver interface {
	Permissions(ctx context.Context, roles []string) ([]string, error)
}

type AuthService struct {
	users          UserStore
	jwtManager     *jwt.Manager
	sessionManager *session.Manager
	rateLimiter    *session.RateLimiter
	permissions    PermissionResolver
	metrics        *metrics.Registry
	hashParams     password.Params
	logger         *zap.Logger
}

func NewAuthService(
	users UserStore,
	jwtManager *jwt.Manager,
	sessionManager *session.Manager,
	rateLimiter *session.RateLimiter,
	permissions PermissionResolver,
	reg *metrics.Registry,
	logger *zap.Logger,
) *AuthService {
	return &AuthService{
		users:          users,
		jwtManager:     jwtManager,
		sessionManager: sessionManager,
		rateLimiter:    rateLimiter,
		permissions:    permissions,
		metrics:        reg,
		hashParams:     password.DefaultParams,
		logger:         logger.Named("auth"),
	}
}

// ========== Login ==========

// Login authenticates a user with email/password and opens a session.
func (s *AuthService) Login(ctx context.Context, req *auth.LoginRequest) (*auth.LoginResponse, error) {
	if s.jwtManager.Generator == nil {
		return nil, xerrors.New(http.StatusServiceUnavailable, xerrors.CodeUnavailable, "token issuing is disabled", nil)
	}
	email := strings.ToLower(strings.TrimSpace(req.Email))

	// Rate limiting
	decision, err := s.rateLimiter.CheckLoginAttempt(ctx, req.IPAddress, email, session.Limit(constants.RateLimitAuthSignin))
	if err != nil {
		return nil, fmt.Errorf("%w: rate limiter: %w", xerrors.ErrStoreUnavailable, err)
	}
	if !decision.Allowed {
		s.metrics.AuthFailure("rate_limited")
		appErr := xerrors.New(http.StatusTooManyRequests, xerrors.CodeRateLimited, "too many login attempts, please try again later", xerrors.ErrRateLimited)
		appErr.Details = map[string]int{"retryAfter": int(math.Ceil(decision.RetryAfter.Seconds()))}
		return nil, appErr
	}

	user, err := s.users.FindUserByEmail(ctx, email)
	if errors.Is(err, xerrors.ErrNotFound) {
		_, _ = password.Verify(req.Password, dummyHash)
		return nil, s.credentialsFailure()
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load user: %w", err)
	}

	ok, err := password.Verify(req.Password, user.PasswordHash)
	if err != nil {
		s.logger.Error("stored password hash is unreadable", zap.String("user_id", user.ID), zap.Error(err))
		return nil, s.credentialsFailure()
	}
	if !ok {
		return nil, s.credentialsFailure()
	}
	if !user.IsActive {
		s.metrics.AuthFailure("inactive")
		return nil, xerrors.Forbidden("account is disabled", nil)
	}

	if password.NeedsRehash(user.PasswordHash, s.hashParams) {
		s.rehash(ctx, user.ID, req.Password)
	}

	roles, err := s.users.GetUserRoles(ctx, user.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to load roles: %w", err)
	}
	identity := jwt.Identity{UserID: user.ID, Email: user.Email, Roles: roles}

	sessionToken, err := s.sessionManager.Create(ctx, session.NewSession{UserID: user.ID, Email: user.Email, Roles: roles})
	if err != nil {
		return nil, err
	}

	accessToken, err := s.jwtManager.Generator.IssueAccessToken(identity)
	if err != nil {
		return nil, fmt.Errorf("failed to issue access token: %w", err)
	}
	refreshToken, err := s.jwtManager.Generator.IssueRefreshToken(identity)
	if err != nil {
		return nil, fmt.Errorf("failed to issue refresh token: %w", err)
	}

	if err := s.rateLimiter.ResetLoginAttempts(ctx, req.IPAddress, email); err != nil {
		s.logger.Warn("failed to reset login attempts", zap.Error(err))
	}
	if err := s.users.UpdateLastLogin(ctx, user.ID, time.Now()); err != nil {
		s.logger.Warn("failed to update last login", zap.String("user_id", user.ID), zap.Error(err))
	}

	perms, err := s.permissions.Permissions(ctx, roles)
	if err != nil {
		s.logger.Warn("failed to resolve permissions", zap.Error(err))
	}

	s.logger.Info("user logged in", zap.String("user_id", user.ID), zap.String("ip", req.IPAddress))

	return &auth.LoginResponse{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		SessionToken: sessionToken,
		TokenType:    tokenTypeBearer,
		ExpiresIn:    int(s.jwtManager.Generator.TTL(jwt.TokenTypeAccess).Seconds()),
		User: auth.UserInfo{
			ID:          user.ID,
			Email:       user.Email,
			DisplayName: user.DisplayName,
			Roles:       roles,
			Permissions: perms,
		},
	}, nil
}

func (s *AuthService) credentialsFailure() error {
	s.metrics.AuthFailure("credentials")
	return xerrors.Authentication("invalid email or password", nil)
}

func (s *AuthService) rehash(ctx context.Context, userID, plain string) {
	hash, err := password.Hash(plain, s.hashParams)
	if err != nil {
		s.logger.Warn("failed to rehash password", zap.Error(err))
		return
	}
	if err := s.users.UpdatePasswordHash(ctx, userID, hash); err != nil {
		s.logger.Warn("failed to store rehashed password", zap.String("user_id", userID), zap.Error(err))
	}
}

// ========== Tokens ==========

// Refresh exchanges a refresh token for a new access token. Roles are
// reloaded so grants changed since login take effect.
func (s *AuthService) Refresh(ctx context.Context, refreshToken string) (*auth.RefreshResponse, error) {
	if s.jwtManager.Generator == nil {
		return nil, xerrors.New(http.StatusServiceUnavailable, xerrors.CodeUnavailable, "token issuing is disabled", nil)
	}

	claims, err := s.jwtManager.Verifier.VerifyRefreshToken(refreshToken)
	if err != nil {
		s.metrics.AuthFailure(string(jwt.ReasonOf(err)))
		return nil, err
	}

	user, err := s.users.FindUserByID(ctx, claims.UserID)
	if errors.Is(err, xerrors.ErrNotFound) {
		return nil, xerrors.ErrInvalidToken
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load user: %w", err)
	}
	if !user.IsActive {
		return nil, xerrors.ErrInvalidToken
	}

	roles, err := s.users.GetUserRoles(ctx, user.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to load roles: %w", err)
	}

	accessToken, err := s.jwtManager.Generator.IssueAccessToken(jwt.Identity{UserID: user.ID, Email: user.Email, Roles: roles})
	if err != nil {
		return nil, fmt.Errorf("failed to issue access token: %w", err)
	}

	return &auth.RefreshResponse{
		AccessToken: accessToken,
		TokenType:   tokenTypeBearer,
		ExpiresIn:   int(s.jwtManager.Generator.TTL(jwt.TokenTypeAccess).Seconds()),
	}, nil
}

// ========== Sessions ==========

// Logout deletes one session owned by userID. Unknown tokens are a no-op.
func (s *AuthService) Logout(ctx context.Context, userID, sessionToken string) error {
	if sessionToken == "" {
		return nil
	}
	if _, err := s.ownedSession(ctx, userID, sessionToken); err != nil {
		if errors.Is(err, xerrors.ErrNotFound) {
			return nil
		}
		return err
	}
	if _, err := s.sessionManager.Delete(ctx, sessionToken); err != nil {
		return err
	}
	s.logger.Info("user logged out", zap.String("user_id", userID))
	return nil
}

// LogoutAll deletes every session of userID and returns how many were removed.
func (s *AuthService) LogoutAll(ctx context.Context, userID string) (int, error) {
	n, err := s.sessionManager.DeleteAllForUser(ctx, userID)
	if err != nil {
		return 0, err
	}
	s.logger.Info("user logged out everywhere", zap.String("user_id", userID), zap.Int("sessions", n))
	return n, nil
}

// GetSession returns a live session owned by userID.
func (s *AuthService) GetSession(ctx context.Context, userID, sessionToken string) (*session.SessionData, error) {
	return s.ownedSession(ctx, userID, sessionToken)
}

// ExtendSession adds seconds to a session owned by userID.
func (s *AuthService) ExtendSession(ctx context.Context, userID, sessionToken string, seconds int) (*session.SessionData, error) {
	if _, err := s.ownedSession(ctx, userID, sessionToken); err != nil {
		return nil, err
	}
	ok, err := s.sessionManager.Extend(ctx, sessionToken, time.Duration(seconds)*time.Second)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("%w: session", xerrors.ErrNotFound)
	}
	return s.sessionManager.Get(ctx, sessionToken)
}

func (s *AuthService) ownedSession(ctx context.Context, userID, sessionToken string) (*session.SessionData, error) {
	if sessionToken == "" {
		return nil, xerrors.Validation("session token is required", nil)
	}
	data, err := s.sessionManager.Get(ctx, sessionToken)
	if err != nil {
		return nil, err
	}
	if data == nil {
		return nil, fmt.Errorf("%w: session", xerrors.ErrNotFound)
	}
	if data.UserID != userID {
		return nil, xerrors.Forbidden("session belongs to another user", nil)
	}
	return data, nil
}

// ========== Profile ==========

// Me returns the caller's profile with resolved permissions.
func (s *AuthService) Me(ctx context.Context, identity jwt.Identity) (*auth.UserInfo, error) {
	user, err := s.users.FindUserByID(ctx, identity.UserID)
	if err != nil {
		return nil, err
	}
	perms, err := s.permissions.Permissions(ctx, identity.Roles)
	if err != nil {
		return nil, err
	}
	return &auth.UserInfo{
		ID:          user.ID,
		Email:       user.Email,
		DisplayName: user.DisplayName,
		Roles:       identity.Roles,
		Permissions: perms,
	}, nil
}

// CreateUser hashes the password and stores a new account.
func (s *AuthService) CreateUser(ctx context.Context, req *auth.CreateUserRequest) (*auth.User, error) {
	hash, err := password.Hash(req.Password, s.hashParams)
	if err != nil {
		return nil, err
	}
	user := &auth.User{
		Email:        req.Email,
		PasswordHash: hash,
		DisplayName:  req.DisplayName,
		IsActive:     true,
	}
	if err := s.users.CreateUserWithRoles(ctx, user, req.Roles); err != nil {
		return nil, err
	}
	s.logger.Info("user created", zap.String("user_id", user.ID), zap.Strings("roles", req.Roles))
	return user, nil
}
