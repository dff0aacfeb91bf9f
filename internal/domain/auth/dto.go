// internal/domain/auth/dto.go
package auth

// LoginRequest for user login
type LoginRequest struct {
	Email     string `json:"email" binding:"required,email"`
	Password  string `json:"password" binding:"required"`
	IPAddress string `json:"-"`
	UserAgent string `json:"-"`
}

// LoginResponse successful login response
type LoginResponse struct {
	AccessToken  string   `json:"accessToken"`
	RefreshToken string   `json:"refreshToken"`
	SessionToken string   `json:"sessionToken"`
	TokenType    string   `json:"tokenType"`
	ExpiresIn    int      `json:"expiresIn"`
	User         UserInfo `json:"user"`
}

// RefreshRequest exchanges a refresh token for a new access token.
type RefreshRequest struct {
	RefreshToken string `json:"refreshToken" binding:"required"`
}

// RefreshResponse carries the new access token.
type RefreshResponse struct {
	AccessToken string `json:"accessToken"`
	TokenType   string `json:"tokenType"`
	ExpiresIn   int    `json:"expiresIn"`
}

// ExtendSessionRequest adds seconds to a session's lifetime.
type ExtendSessionRequest struct {
	Seconds int `json:"seconds" binding:"required,gte=1,lte=2592000"`
}

// CreateUserRequest creates an account. It is bound by the admin API and
// validated directly by singrctl.
type CreateUserRequest struct {
	Email       string   `json:"email" binding:"required,email" validate:"required,email"`
	Password    string   `json:"password" binding:"required,min=8" validate:"required,min=8"`
	DisplayName string   `json:"displayName"`
	Roles       []string `json:"roles" binding:"required,min=1,dive,required" validate:"required,min=1,dive,required"`
}

// UserInfo minimal user information
type UserInfo struct {
	ID          string   `json:"id"`
	Email       string   `json:"email"`
	DisplayName string   `json:"displayName,omitempty"`
	Roles       []string `json:"roles"`
	Permissions []string `json:"permissions,omitempty"`
}
