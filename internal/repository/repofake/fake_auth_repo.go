package repofake

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"singr-service/internal/domain/auth"
	"singr-service/internal/domain/constants"
	xerrors "singr-service/internal/pkg/errors"
	"singr-service/internal/pkg/rbac"

	"github.com/google/uuid"
)

// FakeAuthRepo keeps users, role grants and role permissions in memory.
type FakeAuthRepo struct {
	lock      sync.RWMutex
	users     map[string]*auth.User
	emailIDs  map[string]string
	userRoles map[string][]string
	grants    map[string][]string

	// Err, when set, is returned by every method.
	Err error
}

// NewFakeAuthRepo starts with the default role grants.
func NewFakeAuthRepo() *FakeAuthRepo {
	grants := make(map[string][]string, len(constants.DefaultGrants))
	for role, perms := range constants.DefaultGrants {
		grants[role] = append([]string(nil), perms...)
	}
	return &FakeAuthRepo{
		users:     make(map[string]*auth.User),
		emailIDs:  make(map[string]string),
		userRoles: make(map[string][]string),
		grants:    grants,
	}
}

func (r *FakeAuthRepo) FindUserByEmail(_ context.Context, email string) (*auth.User, error) {
	r.lock.RLock()
	defer r.lock.RUnlock()
	if r.Err != nil {
		return nil, r.Err
	}
	id, ok := r.emailIDs[strings.ToLower(email)]
	if !ok {
		return nil, xerrors.ErrNotFound
	}
	u := *r.users[id]
	return &u, nil
}

func (r *FakeAuthRepo) FindUserByID(_ context.Context, id string) (*auth.User, error) {
	r.lock.RLock()
	defer r.lock.RUnlock()
	if r.Err != nil {
		return nil, r.Err
	}
	u, ok := r.users[id]
	if !ok {
		return nil, xerrors.ErrNotFound
	}
	cp := *u
	return &cp, nil
}

func (r *FakeAuthRepo) GetUserRoles(_ context.Context, userID string) ([]string, error) {
	r.lock.RLock()
	defer r.lock.RUnlock()
	if r.Err != nil {
		return nil, r.Err
	}
	roles := append([]string{}, r.userRoles[userID]...)
	sort.Strings(roles)
	return roles, nil
}

func (r *FakeAuthRepo) UpdateLastLogin(_ context.Context, id string, at time.Time) error {
	r.lock.Lock()
	defer r.lock.Unlock()
	if r.Err != nil {
		return r.Err
	}
	if u, ok := r.users[id]; ok {
		u.LastLoginAt = &at
	}
	return nil
}

func (r *FakeAuthRepo) UpdatePasswordHash(_ context.Context, id, hash string) error {
	r.lock.Lock()
	defer r.lock.Unlock()
	if r.Err != nil {
		return r.Err
	}
	u, ok := r.users[id]
	if !ok {
		return xerrors.ErrNotFound
	}
	u.PasswordHash = hash
	return nil
}

func (r *FakeAuthRepo) CreateUserWithRoles(_ context.Context, user *auth.User, roles []string) error {
	r.lock.Lock()
	defer r.lock.Unlock()
	if r.Err != nil {
		return r.Err
	}
	user.Email = strings.ToLower(strings.TrimSpace(user.Email))
	if _, taken := r.emailIDs[user.Email]; taken {
		return xerrors.ErrConflict
	}
	for _, role := range roles {
		if _, ok := r.grants[role]; !ok {
			return xerrors.ErrInvalidInput
		}
	}
	if user.ID == "" {
		user.ID = uuid.NewString()
	}
	now := time.Now()
	user.CreatedAt, user.UpdatedAt = now, now

	cp := *user
	r.users[user.ID] = &cp
	r.emailIDs[user.Email] = user.ID
	r.userRoles[user.ID] = append([]string(nil), roles...)
	return nil
}

func (r *FakeAuthRepo) RolesWithPermissions(_ context.Context, slugs []string) ([]rbac.Role, error) {
	r.lock.RLock()
	defer r.lock.RUnlock()
	if r.Err != nil {
		return nil, r.Err
	}
	roles := []rbac.Role{}
	for _, slug := range slugs {
		perms, ok := r.grants[slug]
		if !ok {
			continue
		}
		role := rbac.Role{Slug: slug}
		for _, p := range perms {
			role.Permissions = append(role.Permissions, rbac.Permission{Slug: p})
		}
		roles = append(roles, role)
	}
	return roles, nil
}

// User returns the stored copy of a user, for assertions.
func (r *FakeAuthRepo) User(id string) *auth.User {
	r.lock.RLock()
	defer r.lock.RUnlock()
	return r.users[id]
}
