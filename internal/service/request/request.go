// internal/service/request/request.go
package request

import (
	"context"
	"fmt"
	"net/http"
	"sort"
	"strings"
	"time"

	"singr-service/internal/domain/constants"
	"singr-service/internal/domain/page"
	"singr-service/internal/domain/request"
	wstypes "singr-service/internal/domain/websocket"
	xerrors "singr-service/internal/pkg/errors"
	"singr-service/internal/pkg/session"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

type Repository interface {
	Create(ctx context.Context, req *request.Request) error
	FindByID(ctx context.Context, id string) (*request.Request, error)
	Save(ctx context.Context, req *request.Request) error
	Delete(ctx context.Context, id string) error
	List(ctx context.Context, f request.RequestFilter) ([]request.Request, int64, error)
}

// VenueChecker confirms a venue exists before requests are queued against it.
type VenueChecker interface {
	Exists(ctx context.Context, id string) (bool, error)
}

// Publisher fans request events out to live subscribers of a venue.
type Publisher interface {
	PublishVenueEvent(venueID string, event wstypes.EventType, data interface{})
}

type RequestService struct {
	repo      Repository
	venues    VenueChecker
	publisher Publisher
	limiter   *session.RateLimiter
	now       func() time.Time
	logger    *zap.Logger
}

// NewRequestService wires the service. publisher and limiter may be nil.
func NewRequestService(repo Repository, venues VenueChecker, publisher Publisher, limiter *session.RateLimiter, logger *zap.Logger) *RequestService {
	return &RequestService{
		repo:      repo,
		venues:    venues,
		publisher: publisher,
		limiter:   limiter,
		now:       time.Now,
		logger:    logger.Named("request"),
	}
}

// List returns one page of requests.
func (s *RequestService) List(ctx context.Context, q request.ListRequestsQuery) (page.Page[request.Request], error) {
	f := NormalizeQuery(q)
	items, total, err := s.repo.List(ctx, f)
	if err != nil {
		return page.Page[request.Request]{}, err
	}
	return page.New(items, total, f.Page, f.Limit), nil
}

// Queue returns the open requests of a venue in queue order.
func (s *RequestService) Queue(ctx context.Context, venueID string) ([]request.Request, error) {
	var open []request.Request
	for _, status := range []request.Status{request.StatusPending, request.StatusApproved} {
		items, err := s.listAll(ctx, request.RequestFilter{
			VenueID:   venueID,
			Status:    status,
			SortBy:    "position",
			SortOrder: "asc",
		})
		if err != nil {
			return nil, err
		}
		open = append(open, items...)
	}
	sort.SliceStable(open, func(i, j int) bool { return open[i].Position < open[j].Position })
	return open, nil
}

// listAll walks every page of f.
func (s *RequestService) listAll(ctx context.Context, f request.RequestFilter) ([]request.Request, error) {
	f.Limit = constants.PaginationMaxLimit
	var out []request.Request
	for f.Page = 1; ; f.Page++ {
		items, total, err := s.repo.List(ctx, f)
		if err != nil {
			return nil, err
		}
		out = append(out, items...)
		if len(items) < f.Limit || int64(len(out)) >= total {
			return out, nil
		}
	}
}

// Get returns one request.
func (s *RequestService) Get(ctx context.Context, id string) (*request.Request, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, fmt.Errorf("%w: request", xerrors.ErrNotFound)
	}
	return s.repo.FindByID(ctx, id)
}

// Create queues a request on behalf of userID. Each user may submit a
// limited number of requests per hour.
func (s *RequestService) Create(ctx context.Context, userID string, in *request.CreateRequest) (*request.Request, error) {
	if s.limiter != nil {
		decision, err := s.limiter.Allow(ctx, "requests:"+userID, session.Limit(constants.RateLimitSingerRequest))
		if err != nil {
			return nil, fmt.Errorf("%w: rate limiter: %w", xerrors.ErrStoreUnavailable, err)
		}
		if !decision.Allowed {
			return nil, xerrors.New(http.StatusTooManyRequests, xerrors.CodeRateLimited, "request limit reached, please try again later", xerrors.ErrRateLimited)
		}
	}

	ok, err := s.venues.Exists(ctx, in.VenueID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, xerrors.Validation("venue does not exist", []map[string]string{{"field": "venueId", "message": "venue not found"}})
	}

	req := &request.Request{
		ID:          uuid.NewString(),
		VenueID:     in.VenueID,
		SystemID:    in.SystemID,
		RequestedBy: userID,
		SingerName:  strings.TrimSpace(in.SingerName),
		Artist:      strings.TrimSpace(in.Artist),
		Title:       strings.TrimSpace(in.Title),
		Status:      request.StatusPending,
		RequestedAt: s.now().UTC(),
	}
	if in.KeyChange != nil {
		req.KeyChange = *in.KeyChange
	}
	if in.Notes != nil {
		req.Notes = *in.Notes
	}

	if err := s.repo.Create(ctx, req); err != nil {
		return nil, err
	}
	s.publish(req.VenueID, wstypes.EventTypeRequestCreated, req)
	s.logger.Info("request queued",
		zap.String("request_id", req.ID),
		zap.String("venue_id", req.VenueID),
		zap.Int("position", req.Position),
	)
	return req, nil
}

// Update applies queue changes. Moving to a terminal status stamps processedAt.
func (s *RequestService) Update(ctx context.Context, id string, in *request.UpdateRequest) (*request.Request, error) {
	req, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	if in.Status != nil {
		next := request.Status(*in.Status)
		if next != req.Status && next.Terminal() {
			at := s.now().UTC()
			req.ProcessedAt = &at
		}
		if !next.Terminal() {
			req.ProcessedAt = nil
		}
		req.Status = next
	}
	if in.Priority != nil {
		req.Priority = *in.Priority
	}
	if in.Position != nil {
		req.Position = *in.Position
	}
	if in.Notes != nil {
		req.Notes = *in.Notes
	}

	if err := s.repo.Save(ctx, req); err != nil {
		return nil, err
	}
	s.publish(req.VenueID, wstypes.EventTypeRequestUpdated, req)
	return req, nil
}

// Delete removes a request.
func (s *RequestService) Delete(ctx context.Context, id string) error {
	req, err := s.Get(ctx, id)
	if err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	s.publish(req.VenueID, wstypes.EventTypeRequestDeleted, map[string]string{"id": id})
	return nil
}

// NormalizeQuery applies defaults to a list query.
func NormalizeQuery(q request.ListRequestsQuery) request.RequestFilter {
	p, l := page.Normalize(q.Page, q.Limit, constants.RequestsDefaultLimit)
	f := request.RequestFilter{
		VenueID:         q.VenueID,
		SystemID:        q.SystemID,
		SingerProfileID: q.SingerProfileID,
		Status:          request.Status(q.Status),
		Search:          q.Search,
		Page:            p,
		Limit:           l,
		SortBy:          q.SortBy,
		SortOrder:       q.SortOrder,
	}
	if f.SortBy == "" {
		f.SortBy = "position"
	}
	if f.SortOrder == "" {
		f.SortOrder = "asc"
	}
	return f
}

func (s *RequestService) publish(venueID string, event wstypes.EventType, data interface{}) {
	if s.publisher != nil {
		s.publisher.PublishVenueEvent(venueID, event, data)
	}
}
