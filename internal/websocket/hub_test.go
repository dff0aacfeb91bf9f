package websocket

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"singr-service/internal/domain/constants"
	wstypes "singr-service/internal/domain/websocket"
	"singr-service/internal/pkg/jwt"
	"singr-service/internal/pkg/jwt/jwttest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type grants map[string][]string

func (g grants) Permissions(_ context.Context, roles []string) ([]string, error) {
	var out []string
	for _, r := range roles {
		out = append(out, g[r]...)
	}
	return out, nil
}

func startHub(t *testing.T) (*Hub, *jwt.Manager) {
	t.Helper()
	m := jwttest.NewManager(t)
	hub := NewHub(m.Verifier, grants(constants.DefaultGrants), nil, zap.NewNop())

	ctx, cancel := context.WithCancel(context.Background())
	go hub.Run(ctx)
	t.Cleanup(cancel)
	return hub, m
}

func recv(t *testing.T, c *Client) *wstypes.WSMessage {
	t.Helper()
	select {
	case data := <-c.send:
		var msg wstypes.WSMessage
		require.NoError(t, json.Unmarshal(data, &msg))
		return &msg
	case <-time.After(time.Second):
		t.Fatal("no message")
		return nil
	}
}

func TestAuthenticateClient(t *testing.T) {
	hub, m := startHub(t)
	id := jwt.Identity{UserID: "u1", Email: "staff@example.com", Roles: []string{constants.RoleCustomerStaff}}

	access, err := m.Generator.IssueAccessToken(id)
	require.NoError(t, err)
	auth, err := hub.AuthenticateClient(context.Background(), access)
	require.NoError(t, err)
	assert.Equal(t, "u1", auth.UserID)
	assert.Contains(t, auth.Permissions, constants.PermRequestsRead)

	refresh, err := m.Generator.IssueRefreshToken(id)
	require.NoError(t, err)
	_, err = hub.AuthenticateClient(context.Background(), refresh)
	assert.ErrorIs(t, err, ErrUnauthorized)
}

func TestSubscribe_RequiresRequestsRead(t *testing.T) {
	hub, _ := startHub(t)

	staff := NewClient(hub, nil, &ClientAuth{UserID: "u1", Permissions: []string{constants.PermRequestsRead}})
	assert.NoError(t, staff.Subscribe(wstypes.VenueChannel("v1")))
	assert.ErrorIs(t, staff.Subscribe("lobby"), ErrBadChannel)
	assert.ErrorIs(t, staff.Subscribe("venue:"), ErrBadChannel)

	singer := NewClient(hub, nil, &ClientAuth{UserID: "u2", Permissions: []string{constants.PermVenuesRead}})
	assert.ErrorIs(t, singer.Subscribe(wstypes.VenueChannel("v1")), ErrUnauthorized)
}

func TestPublishVenueEvent_ReachesSubscribersOnly(t *testing.T) {
	hub, _ := startHub(t)
	perms := []string{constants.PermRequestsRead}

	a := NewClient(hub, nil, &ClientAuth{UserID: "u1", Permissions: perms})
	require.NoError(t, a.Subscribe(wstypes.VenueChannel("v1")))
	b := NewClient(hub, nil, &ClientAuth{UserID: "u2", Permissions: perms})
	require.NoError(t, b.Subscribe(wstypes.VenueChannel("v2")))

	require.True(t, hub.Register(a))
	require.True(t, hub.Register(b))
	assert.Equal(t, wstypes.EventTypeConnected, recv(t, a).Type)
	assert.Equal(t, wstypes.EventTypeConnected, recv(t, b).Type)

	hub.PublishVenueEvent("v1", wstypes.EventTypeRequestCreated, map[string]string{"id": "r1"})

	msg := recv(t, a)
	assert.Equal(t, wstypes.EventTypeRequestCreated, msg.Type)
	assert.NotEmpty(t, msg.ID)
	select {
	case <-b.send:
		t.Fatal("v2 subscriber received a v1 event")
	case <-time.After(50 * time.Millisecond):
	}

	assert.Equal(t, 1, hub.VenueSubscribers("v1"))
	assert.Equal(t, 2, hub.TotalClients())
}

func TestHandleMessage_BuiltIns(t *testing.T) {
	hub, _ := startHub(t)
	c := NewClient(hub, nil, &ClientAuth{UserID: "u1", Permissions: []string{constants.PermRequestsRead}})

	c.handleMessage([]byte(`{"type":"ping"}`))
	assert.Equal(t, wstypes.EventTypePong, recv(t, c).Type)

	c.handleMessage([]byte(`{"type":"subscribe","data":{"channels":["venue:v9","bogus"]}}`))
	assert.Equal(t, wstypes.EventTypeError, recv(t, c).Type)
	ack := recv(t, c)
	assert.Equal(t, wstypes.EventTypeSubscribe, ack.Type)
	assert.True(t, c.IsSubscribed("venue:v9"))

	c.handleMessage([]byte(`{"type":"unsubscribe","data":{"channels":["venue:v9"]}}`))
	assert.Equal(t, wstypes.EventTypeUnsubscribe, recv(t, c).Type)
	assert.False(t, c.IsSubscribed("venue:v9"))

	c.handleMessage([]byte(`not json`))
	assert.Equal(t, wstypes.EventTypeError, recv(t, c).Type)
}

func TestDisconnectUser(t *testing.T) {
	hub, _ := startHub(t)
	c := NewClient(hub, nil, &ClientAuth{UserID: "u1"})
	require.True(t, hub.Register(c))
	recv(t, c)

	hub.DisconnectUser("u1", "logout")
	assert.Equal(t, 0, hub.GetConnectedClients("u1"))
	assert.Error(t, c.ctx.Err())
}

func TestRegister_AfterShutdownDoesNotBlock(t *testing.T) {
	m := jwttest.NewManager(t)
	hub := NewHub(m.Verifier, grants(constants.DefaultGrants), nil, zap.NewNop())

	ctx, cancel := context.WithCancel(context.Background())
	stopped := make(chan struct{})
	go func() {
		hub.Run(ctx)
		close(stopped)
	}()
	cancel()
	<-stopped

	c := NewClient(hub, nil, &ClientAuth{UserID: "u1"})
	registered := make(chan bool, 1)
	go func() { registered <- hub.Register(c) }()

	select {
	case ok := <-registered:
		assert.False(t, ok)
	case <-time.After(time.Second):
		t.Fatal("Register blocked after the hub stopped")
	}
	assert.Equal(t, 0, hub.TotalClients())
}
