// internal/service/venue/venue.go
package venue

import (
	"context"
	"crypto/sha1"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"singr-service/internal/domain/constants"
	"singr-service/internal/domain/page"
	"singr-service/internal/domain/venue"
	xerrors "singr-service/internal/pkg/errors"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"gorm.io/datatypes"
)

const (
	detailKeyPrefix = "venue:"
	listGenKey      = "venues:list:gen"
	listKeyPrefix   = "venues:list:"
)

type Repository interface {
	Create(ctx context.Context, v *venue.Venue) error
	FindByID(ctx context.Context, id string) (*venue.Venue, error)
	Save(ctx context.Context, v *venue.Venue) error
	Delete(ctx context.Context, id string) error
	List(ctx context.Context, f venue.VenueFilter) ([]venue.Venue, int64, error)
}

// VenueService manages venues. Reads are cached in Redis; list entries
// are keyed by a generation counter that every write bumps.
type VenueService struct {
	repo   Repository
	cache  *redis.Client
	logger *zap.Logger
}

func NewVenueService(repo Repository, cache *redis.Client, logger *zap.Logger) *VenueService {
	return &VenueService{repo: repo, cache: cache, logger: logger.Named("venue")}
}

// List returns one page of venues.
func (s *VenueService) List(ctx context.Context, q venue.ListVenuesQuery) (page.Page[venue.Venue], error) {
	f := NormalizeQuery(q)

	key := s.listKey(ctx, f)
	var cached page.Page[venue.Venue]
	if s.cacheGet(ctx, key, &cached) {
		return cached, nil
	}

	items, total, err := s.repo.List(ctx, f)
	if err != nil {
		return page.Page[venue.Venue]{}, err
	}
	out := page.New(items, total, f.Page, f.Limit)
	s.cacheSet(ctx, key, out, constants.CacheTTLVenuesList)
	return out, nil
}

// Get returns one venue.
func (s *VenueService) Get(ctx context.Context, id string) (*venue.Venue, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, fmt.Errorf("%w: venue", xerrors.ErrNotFound)
	}

	var cached venue.Venue
	if s.cacheGet(ctx, detailKeyPrefix+id, &cached) {
		return &cached, nil
	}

	v, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	s.cacheSet(ctx, detailKeyPrefix+id, v, constants.CacheTTLVenueDetail)
	return v, nil
}

// Create stores a new venue with defaults applied.
func (s *VenueService) Create(ctx context.Context, req *venue.CreateVenueRequest) (*venue.Venue, error) {
	v := &venue.Venue{
		ID:          uuid.NewString(),
		Name:        strings.TrimSpace(req.Name),
		URLName:     req.URLName,
		Description: req.Description,
		Address:     req.Address,
		City:        req.City,
		State:       req.State,
		PostalCode:  req.PostalCode,
		Country:     orDefault(req.Country, "US"),
		Phone:       req.Phone,
		Website:     req.Website,
		Timezone:    orDefault(req.Timezone, "UTC"),
		Latitude:    req.Latitude,
		Longitude:   req.Longitude,
		IsActive:    req.IsActive == nil || *req.IsActive,
		Settings:    datatypes.JSONMap(req.Settings),
		Metadata:    datatypes.JSONMap(req.Metadata),
	}

	if err := s.repo.Create(ctx, v); err != nil {
		if errors.Is(err, xerrors.ErrConflict) {
			return nil, urlNameTaken(v.URLName)
		}
		return nil, err
	}
	s.invalidate(ctx, "")
	s.logger.Info("venue created", zap.String("venue_id", v.ID), zap.String("url_name", v.URLName))
	return v, nil
}

// Update applies a partial update. Settings and metadata are merged.
func (s *VenueService) Update(ctx context.Context, id string, req *venue.UpdateVenueRequest) (*venue.Venue, error) {
	v, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	setString(&v.Name, req.Name)
	setString(&v.URLName, req.URLName)
	setString(&v.Description, req.Description)
	setString(&v.Address, req.Address)
	setString(&v.City, req.City)
	setString(&v.State, req.State)
	setString(&v.PostalCode, req.PostalCode)
	setString(&v.Country, req.Country)
	setString(&v.Phone, req.Phone)
	setString(&v.Website, req.Website)
	setString(&v.Timezone, req.Timezone)
	if req.Latitude != nil {
		v.Latitude = req.Latitude
	}
	if req.Longitude != nil {
		v.Longitude = req.Longitude
	}
	if req.IsActive != nil {
		v.IsActive = *req.IsActive
	}
	if req.Settings != nil {
		v.Settings = merge(v.Settings, req.Settings)
	}
	if req.Metadata != nil {
		v.Metadata = merge(v.Metadata, req.Metadata)
	}

	if err := s.repo.Save(ctx, v); err != nil {
		if errors.Is(err, xerrors.ErrConflict) {
			return nil, urlNameTaken(v.URLName)
		}
		return nil, err
	}
	s.invalidate(ctx, id)
	return v, nil
}

// Delete removes a venue and its request queue.
func (s *VenueService) Delete(ctx context.Context, id string) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	s.invalidate(ctx, id)
	s.logger.Info("venue deleted", zap.String("venue_id", id))
	return nil
}

// Exists reports whether id names a venue.
func (s *VenueService) Exists(ctx context.Context, id string) (bool, error) {
	_, err := s.Get(ctx, id)
	if errors.Is(err, xerrors.ErrNotFound) {
		return false, nil
	}
	return err == nil, err
}

// NormalizeQuery applies defaults to a list query.
func NormalizeQuery(q venue.ListVenuesQuery) venue.VenueFilter {
	p, l := page.Normalize(q.Page, q.Limit, constants.VenuesDefaultLimit)
	return venue.VenueFilter{
		Search:    q.Search,
		City:      q.City,
		State:     q.State,
		IsActive:  q.IsActive,
		Page:      p,
		Limit:     l,
		SortBy:    orDefault(q.SortBy, "name"),
		SortOrder: orDefault(q.SortOrder, "asc"),
	}
}

// ========== Cache ==========

func (s *VenueService) listKey(ctx context.Context, f venue.VenueFilter) string {
	if s.cache == nil {
		return ""
	}
	gen, err := s.cache.Get(ctx, listGenKey).Result()
	if errors.Is(err, redis.Nil) {
		gen = "0"
	} else if err != nil {
		return ""
	}
	raw, _ := json.Marshal(f)
	sum := sha1.Sum(raw)
	return listKeyPrefix + gen + ":" + hex.EncodeToString(sum[:])
}

func (s *VenueService) cacheGet(ctx context.Context, key string, dst any) bool {
	if s.cache == nil || key == "" {
		return false
	}
	raw, err := s.cache.Get(ctx, key).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			s.logger.Warn("venue cache read failed", zap.Error(err))
		}
		return false
	}
	return json.Unmarshal(raw, dst) == nil
}

func (s *VenueService) cacheSet(ctx context.Context, key string, v any, ttl time.Duration) {
	if s.cache == nil || key == "" {
		return
	}
	raw, err := json.Marshal(v)
	if err != nil {
		return
	}
	if err := s.cache.Set(ctx, key, raw, ttl).Err(); err != nil {
		s.logger.Warn("venue cache write failed", zap.Error(err))
	}
}

// invalidate drops the detail entry for id (when set) and retires every list entry.
func (s *VenueService) invalidate(ctx context.Context, id string) {
	if s.cache == nil {
		return
	}
	pipe := s.cache.Pipeline()
	if id != "" {
		pipe.Del(ctx, detailKeyPrefix+id)
	}
	pipe.Incr(ctx, listGenKey)
	if _, err := pipe.Exec(ctx); err != nil {
		s.logger.Warn("venue cache invalidation failed", zap.Error(err))
	}
}

func urlNameTaken(urlName string) error {
	return xerrors.New(http.StatusConflict, xerrors.CodeConflict, "urlName is already taken", fmt.Errorf("%w: %s", xerrors.ErrConflict, urlName))
}

func setString(dst *string, src *string) {
	if src != nil {
		*dst = *src
	}
}

// merge returns a copy of base with patch applied on top.
func merge(base datatypes.JSONMap, patch map[string]interface{}) datatypes.JSONMap {
	out := make(datatypes.JSONMap, len(base)+len(patch))
	for k, v := range base {
		out[k] = v
	}
	for k, v := range patch {
		out[k] = v
	}
	return out
}

func orDefault(v, def string) string {
	if strings.TrimSpace(v) == "" {
		return def
	}
	return v
}
