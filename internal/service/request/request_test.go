package request

import (
	"context"
	"net/http"
	"sync"
	"testing"
	"time"

	"singr-service/internal/domain/request"
	wstypes "singr-service/internal/domain/websocket"
	xerrors "singr-service/internal/pkg/errors"
	"singr-service/internal/pkg/session"
	"singr-service/internal/repository/repofake"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

var _ Repository = (*repofake.FakeRequestRepo)(nil)

type venueSet map[string]bool

func (v venueSet) Exists(_ context.Context, id string) (bool, error) { return v[id], nil }

type event struct {
	venueID string
	kind    wstypes.EventType
}

type recorder struct {
	mu     sync.Mutex
	events []event
}

func (r *recorder) PublishVenueEvent(venueID string, kind wstypes.EventType, _ interface{}) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, event{venueID, kind})
}

type fixture struct {
	svc     *RequestService
	venueID string
	events  *recorder
	mr      *miniredis.Miniredis
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	venueID := uuid.NewString()
	rec := &recorder{}
	svc := NewRequestService(repofake.NewFakeRequestRepo(), venueSet{venueID: true}, rec, session.NewRateLimiter(client), zap.NewNop())
	return &fixture{svc: svc, venueID: venueID, events: rec, mr: mr}
}

func (f *fixture) submit(t *testing.T, user, title string) *request.Request {
	t.Helper()
	req, err := f.svc.Create(context.Background(), user, &request.CreateRequest{
		VenueID:    f.venueID,
		SystemID:   f.venueID,
		SingerName: " Sam ",
		Artist:     "Queen",
		Title:      title,
	})
	require.NoError(t, err)
	return req
}

func TestCreate_QueuesAndPublishes(t *testing.T) {
	f := newFixture(t)

	first := f.submit(t, "u1", "Bohemian Rhapsody")
	second := f.submit(t, "u1", "Somebody to Love")

	assert.Equal(t, request.StatusPending, first.Status)
	assert.Equal(t, "Sam", first.SingerName)
	assert.Equal(t, "u1", first.RequestedBy)
	assert.Equal(t, 1, first.Position)
	assert.Equal(t, 2, second.Position)
	assert.Equal(t, []event{
		{f.venueID, wstypes.EventTypeRequestCreated},
		{f.venueID, wstypes.EventTypeRequestCreated},
	}, f.events.events)
}

func TestCreate_UnknownVenue(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.Create(context.Background(), "u1", &request.CreateRequest{
		VenueID: uuid.NewString(), SystemID: uuid.NewString(), SingerName: "a", Artist: "b", Title: "c",
	})
	require.Error(t, err)
	assert.Equal(t, http.StatusBadRequest, xerrors.FromError(err).Status)
	assert.Empty(t, f.events.events)
}

func TestCreate_RateLimitedPerUser(t *testing.T) {
	f := newFixture(t)

	for i := 0; i < 10; i++ {
		f.submit(t, "u1", "song")
	}
	_, err := f.svc.Create(context.Background(), "u1", &request.CreateRequest{
		VenueID: f.venueID, SystemID: f.venueID, SingerName: "a", Artist: "b", Title: "c",
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, xerrors.ErrRateLimited)

	// other users are unaffected
	f.submit(t, "u2", "song")
}

func TestCreate_LimiterDown(t *testing.T) {
	f := newFixture(t)
	f.mr.SetError("LOADING")

	_, err := f.svc.Create(context.Background(), "u1", &request.CreateRequest{
		VenueID: f.venueID, SystemID: f.venueID, SingerName: "a", Artist: "b", Title: "c",
	})
	assert.ErrorIs(t, err, xerrors.ErrStoreUnavailable)
}

func TestUpdate_TerminalStatusStampsProcessedAt(t *testing.T) {
	f := newFixture(t)
	at := time.Date(2026, 10, 18, 21, 0, 0, 0, time.UTC)
	f.svc.now = func() time.Time { return at }
	req := f.submit(t, "u1", "Wonderwall")

	approved := string(request.StatusApproved)
	got, err := f.svc.Update(context.Background(), req.ID, &request.UpdateRequest{Status: &approved})
	require.NoError(t, err)
	assert.Nil(t, got.ProcessedAt)

	completed := string(request.StatusCompleted)
	prio := 3
	got, err = f.svc.Update(context.Background(), req.ID, &request.UpdateRequest{Status: &completed, Priority: &prio})
	require.NoError(t, err)
	require.NotNil(t, got.ProcessedAt)
	assert.Equal(t, at, *got.ProcessedAt)
	assert.Equal(t, 3, got.Priority)
	assert.Equal(t, wstypes.EventTypeRequestUpdated, f.events.events[len(f.events.events)-1].kind)
}

func TestGetDelete(t *testing.T) {
	f := newFixture(t)
	req := f.submit(t, "u1", "Africa")

	_, err := f.svc.Get(context.Background(), "not-a-uuid")
	assert.ErrorIs(t, err, xerrors.ErrNotFound)

	require.NoError(t, f.svc.Delete(context.Background(), req.ID))
	_, err = f.svc.Get(context.Background(), req.ID)
	assert.ErrorIs(t, err, xerrors.ErrNotFound)
	assert.Equal(t, wstypes.EventTypeRequestDeleted, f.events.events[len(f.events.events)-1].kind)
}

func TestQueue_OpenRequestsInOrder(t *testing.T) {
	f := newFixture(t)
	a := f.submit(t, "u1", "a")
	b := f.submit(t, "u1", "b")
	c := f.submit(t, "u1", "c")

	approved := string(request.StatusApproved)
	_, err := f.svc.Update(context.Background(), a.ID, &request.UpdateRequest{Status: &approved})
	require.NoError(t, err)
	done := string(request.StatusCompleted)
	_, err = f.svc.Update(context.Background(), b.ID, &request.UpdateRequest{Status: &done})
	require.NoError(t, err)

	queue, err := f.svc.Queue(context.Background(), f.venueID)
	require.NoError(t, err)
	require.Len(t, queue, 2)
	assert.Equal(t, a.ID, queue[0].ID)
	assert.Equal(t, c.ID, queue[1].ID)
}

func TestQueue_ReturnsEveryOpenRequest(t *testing.T) {
	repo := repofake.NewFakeRequestRepo()
	venueID := uuid.NewString()
	ctx := context.Background()

	// more than one page of each open status
	statuses := []request.Status{request.StatusPending, request.StatusApproved, request.StatusCompleted}
	for i := 0; i < 3*120; i++ {
		require.NoError(t, repo.Create(ctx, &request.Request{
			ID:       uuid.NewString(),
			VenueID:  venueID,
			SystemID: venueID,
			Status:   statuses[i%3],
		}))
	}

	svc := NewRequestService(repo, venueSet{venueID: true}, &recorder{}, nil, zap.NewNop())
	queue, err := svc.Queue(ctx, venueID)
	require.NoError(t, err)
	require.Len(t, queue, 240)
	for i, r := range queue {
		assert.NotEqual(t, request.StatusCompleted, r.Status)
		if i > 0 {
			assert.Less(t, queue[i-1].Position, r.Position)
		}
	}
}

func TestNormalizeQuery(t *testing.T) {
	f := NormalizeQuery(request.ListRequestsQuery{})
	assert.Equal(t, 1, f.Page)
	assert.Equal(t, 50, f.Limit)
	assert.Equal(t, "position", f.SortBy)
	assert.Equal(t, "asc", f.SortOrder)

	limit := 500
	f = NormalizeQuery(request.ListRequestsQuery{Limit: &limit, SortOrder: "desc"})
	assert.Equal(t, 100, f.Limit)
	assert.Equal(t, "desc", f.SortOrder)
}
