package auth

import (
	"context"
	"net/http"
	"strings"
	"testing"

	"singr-service/internal/domain/auth"
	xerrors "singr-service/internal/pkg/errors"
	"singr-service/internal/pkg/jwt"
	"singr-service/internal/pkg/jwt/jwttest"
	"singr-service/internal/pkg/password"
	"singr-service/internal/pkg/session"
	"singr-service/internal/repository/repofake"
	"singr-service/internal/service/access"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

var cheapParams = password.Params{Memory: 1024, Iterations: 1, Parallelism: 1, SaltLength: 16, KeyLength: 32}

var _ UserStore = (*repofake.FakeAuthRepo)(nil)

type fixture struct {
	svc   *AuthService
	repo  *repofake.FakeAuthRepo
	mr    *miniredis.Miniredis
	jwt   *jwt.Manager
	users map[string]*auth.User
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	logger := zap.NewNop()
	repo := repofake.NewFakeAuthRepo()
	manager := jwttest.NewManager(t)

	svc := NewAuthService(
		repo,
		manager,
		session.NewManager(client, nil, logger),
		session.NewRateLimiter(client),
		access.NewResolver(repo, client, logger),
		nil,
		logger,
	)
	svc.hashParams = cheapParams

	f := &fixture{svc: svc, repo: repo, mr: mr, jwt: manager, users: map[string]*auth.User{}}

	u, err := svc.CreateUser(context.Background(), &auth.CreateUserRequest{
		Email:       "Staff@Example.com",
		Password:    "correct-horse",
		DisplayName: "Staff",
		Roles:       []string{"customer_staff"},
	})
	require.NoError(t, err)
	f.users["staff"] = u
	return f
}

func login(f *fixture, email, pw string) (*auth.LoginResponse, error) {
	return f.svc.Login(context.Background(), &auth.LoginRequest{Email: email, Password: pw, IPAddress: "10.0.0.1"})
}

func TestLogin_Success(t *testing.T) {
	f := newFixture(t)

	resp, err := login(f, "staff@example.com", "correct-horse")
	require.NoError(t, err)

	assert.Equal(t, "Bearer", resp.TokenType)
	assert.Equal(t, 900, resp.ExpiresIn)
	assert.Equal(t, []string{"customer_staff"}, resp.User.Roles)
	assert.Contains(t, resp.User.Permissions, "requests:process")

	claims, err := f.jwt.Verifier.VerifyAccessToken(resp.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, f.users["staff"].ID, claims.UserID)

	_, err = f.jwt.Verifier.VerifyRefreshToken(resp.RefreshToken)
	require.NoError(t, err)

	assert.True(t, f.mr.Exists("session:"+resp.SessionToken))
	assert.NotNil(t, f.repo.User(f.users["staff"].ID).LastLoginAt)
}

func TestLogin_BadCredentials(t *testing.T) {
	f := newFixture(t)

	for _, tc := range []struct{ email, pw string }{
		{"staff@example.com", "wrong"},
		{"nobody@example.com", "correct-horse"},
	} {
		_, err := login(f, tc.email, tc.pw)
		appErr := xerrors.FromError(err)
		assert.Equal(t, http.StatusUnauthorized, appErr.Status)
		assert.Equal(t, "invalid email or password", appErr.Message)
	}
}

func TestLogin_RateLimited(t *testing.T) {
	f := newFixture(t)

	for i := 0; i < 5; i++ {
		_, err := login(f, "staff@example.com", "wrong")
		require.Error(t, err)
	}

	_, err := login(f, "staff@example.com", "correct-horse")
	appErr := xerrors.FromError(err)
	assert.Equal(t, http.StatusTooManyRequests, appErr.Status)
	assert.ErrorIs(t, err, xerrors.ErrRateLimited)
}

func TestLogin_SuccessResetsAttempts(t *testing.T) {
	f := newFixture(t)

	for i := 0; i < 4; i++ {
		_, _ = login(f, "staff@example.com", "wrong")
	}
	_, err := login(f, "staff@example.com", "correct-horse")
	require.NoError(t, err)
	assert.False(t, f.mr.Exists("ratelimit:login:10.0.0.1:staff@example.com"))
}

func TestLogin_Inactive(t *testing.T) {
	f := newFixture(t)
	f.repo.User(f.users["staff"].ID).IsActive = false

	_, err := login(f, "staff@example.com", "correct-horse")
	assert.Equal(t, http.StatusForbidden, xerrors.FromError(err).Status)
}

func TestLogin_RehashesLegacyBcrypt(t *testing.T) {
	f := newFixture(t)
	legacy, err := bcrypt.GenerateFromPassword([]byte("old-secret"), bcrypt.MinCost)
	require.NoError(t, err)
	id := f.users["staff"].ID
	require.NoError(t, f.repo.UpdatePasswordHash(context.Background(), id, string(legacy)))

	_, err = login(f, "staff@example.com", "old-secret")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(f.repo.User(id).PasswordHash, "$argon2id$"))
}

func TestRefresh(t *testing.T) {
	f := newFixture(t)
	resp, err := login(f, "staff@example.com", "correct-horse")
	require.NoError(t, err)

	out, err := f.svc.Refresh(context.Background(), resp.RefreshToken)
	require.NoError(t, err)
	claims, err := f.jwt.Verifier.VerifyAccessToken(out.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, []string{"customer_staff"}, claims.Roles)

	// an access token is not a refresh token
	_, err = f.svc.Refresh(context.Background(), resp.AccessToken)
	assert.ErrorIs(t, err, xerrors.ErrInvalidToken)
}

func TestLogout(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	resp, err := login(f, "staff@example.com", "correct-horse")
	require.NoError(t, err)
	uid := f.users["staff"].ID

	err = f.svc.Logout(ctx, "someone-else", resp.SessionToken)
	assert.ErrorIs(t, err, xerrors.ErrForbidden)

	require.NoError(t, f.svc.Logout(ctx, uid, resp.SessionToken))
	assert.False(t, f.mr.Exists("session:"+resp.SessionToken))

	// second logout is a no-op
	require.NoError(t, f.svc.Logout(ctx, uid, resp.SessionToken))
}

func TestLogoutAll(t *testing.T) {
	f := newFixture(t)
	for i := 0; i < 3; i++ {
		_, err := login(f, "staff@example.com", "correct-horse")
		require.NoError(t, err)
	}

	n, err := f.svc.LogoutAll(context.Background(), f.users["staff"].ID)
	require.NoError(t, err)
	assert.Equal(t, 3, n)
}

func TestExtendSession(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	resp, err := login(f, "staff@example.com", "correct-horse")
	require.NoError(t, err)
	uid := f.users["staff"].ID

	before, err := f.svc.GetSession(ctx, uid, resp.SessionToken)
	require.NoError(t, err)

	after, err := f.svc.ExtendSession(ctx, uid, resp.SessionToken, 3600)
	require.NoError(t, err)
	assert.Greater(t, after.ExpiresAt, before.ExpiresAt)

	_, err = f.svc.ExtendSession(ctx, uid, "missing", 60)
	assert.ErrorIs(t, err, xerrors.ErrNotFound)
}

func TestMe(t *testing.T) {
	f := newFixture(t)
	uid := f.users["staff"].ID

	info, err := f.svc.Me(context.Background(), jwt.Identity{UserID: uid, Email: "staff@example.com", Roles: []string{"customer_staff"}})
	require.NoError(t, err)
	assert.Equal(t, "Staff", info.DisplayName)
	assert.Contains(t, info.Permissions, "venues:read")
}

func TestCreateUser_Conflict(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.CreateUser(context.Background(), &auth.CreateUserRequest{
		Email: "staff@example.com", Password: "another-pass", Roles: []string{"singer"},
	})
	assert.ErrorIs(t, err, xerrors.ErrConflict)
}
