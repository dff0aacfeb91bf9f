package repofake

import (
	"context"
	"sort"
	"strings"
	"sync"

	"singr-service/internal/domain/page"
	"singr-service/internal/domain/venue"
	xerrors "singr-service/internal/pkg/errors"
)

type FakeVenueRepo struct {
	lock   sync.RWMutex
	venues map[string]venue.Venue
}

func NewFakeVenueRepo() *FakeVenueRepo {
	return &FakeVenueRepo{venues: make(map[string]venue.Venue)}
}

func (r *FakeVenueRepo) Create(_ context.Context, v *venue.Venue) error {
	r.lock.Lock()
	defer r.lock.Unlock()
	for _, existing := range r.venues {
		if existing.URLName == v.URLName {
			return xerrors.ErrConflict
		}
	}
	r.venues[v.ID] = *v
	return nil
}

func (r *FakeVenueRepo) FindByID(_ context.Context, id string) (*venue.Venue, error) {
	r.lock.RLock()
	defer r.lock.RUnlock()
	v, ok := r.venues[id]
	if !ok {
		return nil, xerrors.ErrNotFound
	}
	return &v, nil
}

func (r *FakeVenueRepo) Save(_ context.Context, v *venue.Venue) error {
	r.lock.Lock()
	defer r.lock.Unlock()
	for id, existing := range r.venues {
		if id != v.ID && existing.URLName == v.URLName {
			return xerrors.ErrConflict
		}
	}
	r.venues[v.ID] = *v
	return nil
}

func (r *FakeVenueRepo) Delete(_ context.Context, id string) error {
	r.lock.Lock()
	defer r.lock.Unlock()
	if _, ok := r.venues[id]; !ok {
		return xerrors.ErrNotFound
	}
	delete(r.venues, id)
	return nil
}

func (r *FakeVenueRepo) Exists(_ context.Context, id string) (bool, error) {
	r.lock.RLock()
	defer r.lock.RUnlock()
	_, ok := r.venues[id]
	return ok, nil
}

// List supports the filters and the name sort; other sort keys fall back to name.
func (r *FakeVenueRepo) List(_ context.Context, f venue.VenueFilter) ([]venue.Venue, int64, error) {
	r.lock.RLock()
	defer r.lock.RUnlock()

	var matched []venue.Venue
	for _, v := range r.venues {
		if f.Search != "" && !strings.Contains(strings.ToLower(v.Name), strings.ToLower(f.Search)) {
			continue
		}
		if f.City != "" && !strings.EqualFold(v.City, f.City) {
			continue
		}
		if f.State != "" && !strings.EqualFold(v.State, f.State) {
			continue
		}
		if f.IsActive != nil && v.IsActive != *f.IsActive {
			continue
		}
		matched = append(matched, v)
	}
	sort.Slice(matched, func(i, j int) bool {
		if f.SortOrder == "desc" {
			return matched[i].Name > matched[j].Name
		}
		return matched[i].Name < matched[j].Name
	})
	return window(matched, f.Page, f.Limit), int64(len(matched)), nil
}

func window[T any](items []T, p, limit int) []T {
	start := page.Offset(p, limit)
	if start >= len(items) {
		return []T{}
	}
	end := start + limit
	if end > len(items) {
		end = len(items)
	}
	return items[start:end]
}
