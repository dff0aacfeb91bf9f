// internal/repository/postgres/request_repo.go
package postgres

import (
	"context"
	"fmt"
	"strings"

	"singr-service/internal/domain/page"
	"singr-service/internal/domain/request"
	"singr-service/internal/domain/venue"
	xerrors "singr-service/internal/pkg/errors"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var requestSortColumns = map[string]string{
	"requestedAt": "requested_at",
	"position":    "position",
	"priority":    "priority",
}

type RequestRepository struct {
	db *gorm.DB
}

func NewRequestRepository(db *gorm.DB) *RequestRepository {
	return &RequestRepository{db: db}
}

// Create appends a request to the end of its venue system queue.
func (r *RequestRepository) Create(ctx context.Context, req *request.Request) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := lockVenue(tx, req.VenueID).Error; err != nil {
			return translate(err, "lock venue")
		}

		var last int
		err := tx.Model(&request.Request{}).
			Where("venue_id = ? AND system_id = ?", req.VenueID, req.SystemID).
			Select("COALESCE(MAX(position), 0)").
			Scan(&last).Error
		if err != nil {
			return fmt.Errorf("failed to read queue position: %w", err)
		}
		req.Position = last + 1

		if err := tx.Create(req).Error; err != nil {
			return translate(err, "create request")
		}
		return nil
	})
}

// lockVenue holds the venue row until the transaction ends, serializing
// position assignment across its queues.
func lockVenue(tx *gorm.DB, venueID string) *gorm.DB {
	return tx.Clauses(clause.Locking{Strength: "UPDATE"}).
		Select("id").
		First(&venue.Venue{}, "id = ?", venueID)
}

// FindByID retrieves a request by ID
func (r *RequestRepository) FindByID(ctx context.Context, id string) (*request.Request, error) {
	var req request.Request
	if err := r.db.WithContext(ctx).First(&req, "id = ?", id).Error; err != nil {
		return nil, translate(err, "find request")
	}
	return &req, nil
}

// Save writes every column of an existing request.
func (r *RequestRepository) Save(ctx context.Context, req *request.Request) error {
	if err := r.db.WithContext(ctx).Save(req).Error; err != nil {
		return translate(err, "update request")
	}
	return nil
}

func (r *RequestRepository) Delete(ctx context.Context, id string) error {
	res := r.db.WithContext(ctx).Delete(&request.Request{}, "id = ?", id)
	if res.Error != nil {
		return fmt.Errorf("failed to delete request: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return xerrors.ErrNotFound
	}
	return nil
}

// List returns one page of requests matching f.
func (r *RequestRepository) List(ctx context.Context, f request.RequestFilter) ([]request.Request, int64, error) {
	q := r.db.WithContext(ctx).Model(&request.Request{})

	if f.VenueID != "" {
		q = q.Where("venue_id = ?", f.VenueID)
	}
	if f.SystemID != "" {
		q = q.Where("system_id = ?", f.SystemID)
	}
	if f.SingerProfileID != "" {
		q = q.Where("singer_profile_id = ?", f.SingerProfileID)
	}
	if f.Status != "" {
		q = q.Where("status = ?", f.Status)
	}
	if s := strings.TrimSpace(f.Search); s != "" {
		like := "%" + s + "%"
		q = q.Where("singer_name ILIKE ? OR artist ILIKE ? OR title ILIKE ?", like, like, like)
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count requests: %w", err)
	}

	var out []request.Request
	err := q.Order(orderBy(requestSortColumns, f.SortBy, "position", f.SortOrder)).
		Order("id").
		Limit(f.Limit).
		Offset(page.Offset(f.Page, f.Limit)).
		Find(&out).Error
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list requests: %w", err)
	}
	return out, total, nil
}
