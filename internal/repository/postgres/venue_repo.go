// internal/repository/postgres/venue_repo.go
package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"singr-service/internal/domain/page"
	"singr-service/internal/domain/venue"
	xerrors "singr-service/internal/pkg/errors"

	"gorm.io/gorm"
)

var venueSortColumns = map[string]string{
	"name":      "name",
	"createdAt": "created_at",
	"updatedAt": "updated_at",
}

type VenueRepository struct {
	db *gorm.DB
}

func NewVenueRepository(db *gorm.DB) *VenueRepository {
	return &VenueRepository{db: db}
}

// Create inserts a venue. A taken urlName is a conflict.
func (r *VenueRepository) Create(ctx context.Context, v *venue.Venue) error {
	if err := r.db.WithContext(ctx).Create(v).Error; err != nil {
		return translate(err, "create venue")
	}
	return nil
}

// FindByID retrieves a venue by ID
func (r *VenueRepository) FindByID(ctx context.Context, id string) (*venue.Venue, error) {
	var v venue.Venue
	if err := r.db.WithContext(ctx).First(&v, "id = ?", id).Error; err != nil {
		return nil, translate(err, "find venue")
	}
	return &v, nil
}

// Save writes every column of an existing venue.
func (r *VenueRepository) Save(ctx context.Context, v *venue.Venue) error {
	if err := r.db.WithContext(ctx).Save(v).Error; err != nil {
		return translate(err, "update venue")
	}
	return nil
}

// Delete removes a venue and its requests.
func (r *VenueRepository) Delete(ctx context.Context, id string) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Exec(`DELETE FROM requests WHERE venue_id = ?`, id).Error; err != nil {
			return fmt.Errorf("failed to delete venue requests: %w", err)
		}
		res := tx.Delete(&venue.Venue{}, "id = ?", id)
		if res.Error != nil {
			return fmt.Errorf("failed to delete venue: %w", res.Error)
		}
		if res.RowsAffected == 0 {
			return xerrors.ErrNotFound
		}
		return nil
	})
}

// List returns one page of venues matching f.
func (r *VenueRepository) List(ctx context.Context, f venue.VenueFilter) ([]venue.Venue, int64, error) {
	q := r.db.WithContext(ctx).Model(&venue.Venue{})

	if s := strings.TrimSpace(f.Search); s != "" {
		like := "%" + s + "%"
		q = q.Where("name ILIKE ? OR city ILIKE ? OR description ILIKE ?", like, like, like)
	}
	if f.City != "" {
		q = q.Where("city ILIKE ?", f.City)
	}
	if f.State != "" {
		q = q.Where("state ILIKE ?", f.State)
	}
	if f.IsActive != nil {
		q = q.Where("is_active = ?", *f.IsActive)
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count venues: %w", err)
	}

	var out []venue.Venue
	err := q.Order(orderBy(venueSortColumns, f.SortBy, "name", f.SortOrder)).
		Limit(f.Limit).
		Offset(page.Offset(f.Page, f.Limit)).
		Find(&out).Error
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list venues: %w", err)
	}
	return out, total, nil
}

// Exists reports whether a venue with id exists.
func (r *VenueRepository) Exists(ctx context.Context, id string) (bool, error) {
	var n int64
	if err := r.db.WithContext(ctx).Model(&venue.Venue{}).Where("id = ?", id).Count(&n).Error; err != nil {
		return false, fmt.Errorf("failed to check venue: %w", err)
	}
	return n > 0, nil
}

// orderBy maps an API sort key onto a whitelisted column.
func orderBy(columns map[string]string, key, fallback, order string) string {
	col, ok := columns[key]
	if !ok {
		col = columns[fallback]
	}
	if strings.EqualFold(order, "desc") {
		return col + " DESC"
	}
	return col + " ASC"
}

func translate(err error, op string) error {
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		return xerrors.ErrNotFound
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return fmt.Errorf("%w: %s: duplicate key", xerrors.ErrConflict, op)
	case errors.Is(err, gorm.ErrForeignKeyViolated):
		return fmt.Errorf("%w: %s: unknown reference", xerrors.ErrInvalidInput, op)
	default:
		return fmt.Errorf("failed to %s: %w", op, err)
	}
}
