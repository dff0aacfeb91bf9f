package repofake

import (
	"context"
	"sort"
	"sync"

	"singr-service/internal/domain/request"
	xerrors "singr-service/internal/pkg/errors"
)

type FakeRequestRepo struct {
	lock     sync.RWMutex
	requests map[string]request.Request
}

func NewFakeRequestRepo() *FakeRequestRepo {
	return &FakeRequestRepo{requests: make(map[string]request.Request)}
}

func (r *FakeRequestRepo) Create(_ context.Context, req *request.Request) error {
	r.lock.Lock()
	defer r.lock.Unlock()
	last := 0
	for _, existing := range r.requests {
		if existing.VenueID == req.VenueID && existing.SystemID == req.SystemID && existing.Position > last {
			last = existing.Position
		}
	}
	req.Position = last + 1
	r.requests[req.ID] = *req
	return nil
}

func (r *FakeRequestRepo) FindByID(_ context.Context, id string) (*request.Request, error) {
	r.lock.RLock()
	defer r.lock.RUnlock()
	req, ok := r.requests[id]
	if !ok {
		return nil, xerrors.ErrNotFound
	}
	return &req, nil
}

func (r *FakeRequestRepo) Save(_ context.Context, req *request.Request) error {
	r.lock.Lock()
	defer r.lock.Unlock()
	if _, ok := r.requests[req.ID]; !ok {
		return xerrors.ErrNotFound
	}
	r.requests[req.ID] = *req
	return nil
}

func (r *FakeRequestRepo) Delete(_ context.Context, id string) error {
	r.lock.Lock()
	defer r.lock.Unlock()
	if _, ok := r.requests[id]; !ok {
		return xerrors.ErrNotFound
	}
	delete(r.requests, id)
	return nil
}

// List supports venue, system and status filters ordered by position.
func (r *FakeRequestRepo) List(_ context.Context, f request.RequestFilter) ([]request.Request, int64, error) {
	r.lock.RLock()
	defer r.lock.RUnlock()

	var matched []request.Request
	for _, req := range r.requests {
		if f.VenueID != "" && req.VenueID != f.VenueID {
			continue
		}
		if f.SystemID != "" && req.SystemID != f.SystemID {
			continue
		}
		if f.Status != "" && req.Status != f.Status {
			continue
		}
		matched = append(matched, req)
	}
	sort.Slice(matched, func(i, j int) bool {
		if f.SortOrder == "desc" {
			return matched[i].Position > matched[j].Position
		}
		return matched[i].Position < matched[j].Position
	})
	return window(matched, f.Page, f.Limit), int64(len(matched)), nil
}
