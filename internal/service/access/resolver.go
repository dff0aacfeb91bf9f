// internal/service/access/resolver.go
package access

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"singr-service/internal/domain/constants"
	"singr-service/internal/pkg/rbac"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const cachePrefix = "perms:"

// PermissionStore loads roles together with the permissions they grant.
type PermissionStore interface {
	RolesWithPermissions(ctx context.Context, slugs []string) ([]rbac.Role, error)
}

// Resolver turns the roles carried by an access token into permissions,
// caching each distinct role set in Redis.
type Resolver struct {
	store  PermissionStore
	cache  *redis.Client
	ttl    time.Duration
	logger *zap.Logger
}

func NewResolver(store PermissionStore, cache *redis.Client, logger *zap.Logger) *Resolver {
	return &Resolver{
		store:  store,
		cache:  cache,
		ttl:    constants.CacheTTLPermissions,
		logger: logger.Named("access"),
	}
}

// Permissions returns the distinct permission slugs granted by roles.
// A cache failure falls through to the store.
func (r *Resolver) Permissions(ctx context.Context, roles []string) ([]string, error) {
	if len(roles) == 0 {
		return []string{}, nil
	}
	key := cacheKey(roles)

	if r.cache != nil {
		raw, err := r.cache.Get(ctx, key).Bytes()
		switch {
		case err == nil:
			var perms []string
			if jsonErr := json.Unmarshal(raw, &perms); jsonErr == nil {
				return perms, nil
			}
			r.logger.Warn("discarding corrupt permission cache entry", zap.String("key", key))
		case !errors.Is(err, redis.Nil):
			r.logger.Warn("permission cache read failed", zap.Error(err))
		}
	}

	granted, err := r.store.RolesWithPermissions(ctx, roles)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve permissions: %w", err)
	}
	perms := rbac.Flatten(granted)
	sort.Strings(perms)

	if r.cache != nil {
		if raw, err := json.Marshal(perms); err == nil {
			if err := r.cache.Set(ctx, key, raw, r.ttl).Err(); err != nil {
				r.logger.Warn("permission cache write failed", zap.Error(err))
			}
		}
	}
	return perms, nil
}

// Invalidate drops every cached role set. Returns the number of keys removed.
func (r *Resolver) Invalidate(ctx context.Context) (int, error) {
	if r.cache == nil {
		return 0, nil
	}
	var (
		cursor  uint64
		removed int
	)
	for {
		keys, next, err := r.cache.Scan(ctx, cursor, cachePrefix+"*", 100).Result()
		if err != nil {
			return removed, fmt.Errorf("failed to scan permission cache: %w", err)
		}
		if len(keys) > 0 {
			n, err := r.cache.Del(ctx, keys...).Result()
			if err != nil {
				return removed, fmt.Errorf("failed to clear permission cache: %w", err)
			}
			removed += int(n)
		}
		if next == 0 {
			return removed, nil
		}
		cursor = next
	}
}

// cacheKey is order-insensitive: [b a] and [a b] share an entry.
func cacheKey(roles []string) string {
	sorted := append([]string(nil), roles...)
	sort.Strings(sorted)
	return cachePrefix + strings.Join(sorted, ",")
}
