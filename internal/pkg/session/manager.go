// internal/pkg/session/manager.go
package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	xerrors "singr-service/internal/pkg/errors"
	"singr-service/internal/pkg/metrics"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const keyPrefix = "session:"

type Manager struct {
	client  *redis.Client
	ttl     time.Duration
	now     func() time.Time
	metrics *metrics.Registry
	logger  *zap.Logger
}

func NewManager(client *redis.Client, reg *metrics.Registry, logger *zap.Logger) *Manager {
	return &Manager{
		client:  client,
		ttl:     DefaultTTL,
		now:     time.Now,
		metrics: reg,
		logger:  logger,
	}
}

// ========== CRUD ==========

// Create stores a new session and returns its token.
func (m *Manager) Create(ctx context.Context, in NewSession) (string, error) {
	token := uuid.NewString()
	now := m.now()

	roles := in.Roles
	if roles == nil {
		roles = []string{}
	}

	data := &SessionData{
		UserID:    in.UserID,
		Email:     in.Email,
		Roles:     roles,
		CreatedAt: now.UnixMilli(),
		ExpiresAt: now.Add(m.ttl).UnixMilli(),
	}

	if err := m.write(ctx, token, data, m.ttl); err != nil {
		return "", err
	}

	m.metrics.SessionCreated()
	return token, nil
}

// Get returns the session for token, or nil if it does not exist.
// A record whose expiresAt has passed is deleted and reported as absent.
func (m *Manager) Get(ctx context.Context, token string) (*SessionData, error) {
	raw, err := m.client.Get(ctx, sessionKey(token)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, storeErr("get session", err)
	}

	var data SessionData
	if err := json.Unmarshal(raw, &data); err != nil {
		return nil, fmt.Errorf("failed to unmarshal session: %w", err)
	}

	if data.ExpiresAt < m.now().UnixMilli() {
		if _, err := m.Delete(ctx, token); err != nil {
			return nil, err
		}
		return nil, nil
	}

	return &data, nil
}

// Update merges patch into an existing session, keeping its remaining TTL.
// It returns false when the session is absent or expired.
func (m *Manager) Update(ctx context.Context, token string, patch Patch) (bool, error) {
	data, err := m.Get(ctx, token)
	if err != nil || data == nil {
		return false, err
	}

	if patch.UserID != nil {
		data.UserID = *patch.UserID
	}
	if patch.Email != nil {
		data.Email = *patch.Email
	}
	if patch.Roles != nil {
		data.Roles = patch.Roles
	}
	if patch.ExpiresAt != nil {
		if *patch.ExpiresAt < data.CreatedAt {
			return false, fmt.Errorf("%w: expiresAt before createdAt", xerrors.ErrInvalidInput)
		}
		data.ExpiresAt = *patch.ExpiresAt
	}

	ttl, err := m.client.TTL(ctx, sessionKey(token)).Result()
	if err != nil {
		return false, storeErr("read session ttl", err)
	}
	if ttl <= 0 {
		ttl = m.ttl
	}

	if err := m.write(ctx, token, data, ttl); err != nil {
		return false, err
	}
	return true, nil
}

// Delete removes a session. It reports whether a record existed.
func (m *Manager) Delete(ctx context.Context, token string) (bool, error) {
	n, err := m.client.Del(ctx, sessionKey(token)).Result()
	if err != nil {
		return false, storeErr("delete session", err)
	}
	if n > 0 {
		m.metrics.SessionsDeleted(int(n))
	}
	return n > 0, nil
}

// DeleteAllForUser scans every session and removes those owned by userID.
// Cost is O(active sessions); a user_sessions:<userId> set would make it O(user sessions).
func (m *Manager) DeleteAllForUser(ctx context.Context, userID string) (int, error) {
	deleted := 0

	iter := m.client.Scan(ctx, 0, keyPrefix+"*", 100).Iterator()
	for iter.Next(ctx) {
		key := iter.Val()

		raw, err := m.client.Get(ctx, key).Bytes()
		if errors.Is(err, redis.Nil) {
			continue
		}
		if err != nil {
			return deleted, storeErr("load session", err)
		}

		var data SessionData
		if err := json.Unmarshal(raw, &data); err != nil {
			m.logger.Warn("skipping unreadable session", zap.String("key", key), zap.Error(err))
			continue
		}
		if data.UserID != userID {
			continue
		}

		n, err := m.client.Del(ctx, key).Result()
		if err != nil {
			return deleted, storeErr("delete session", err)
		}
		deleted += int(n)
	}
	if err := iter.Err(); err != nil {
		return deleted, storeErr("scan sessions", err)
	}

	if deleted > 0 {
		m.metrics.SessionsDeleted(deleted)
	}
	return deleted, nil
}

// Extend adds additional to the session's remaining lifetime and moves
// expiresAt forward to match. It returns false when the session is absent.
func (m *Manager) Extend(ctx context.Context, token string, additional time.Duration) (bool, error) {
	if additional <= 0 {
		return false, fmt.Errorf("%w: extension must be positive", xerrors.ErrInvalidInput)
	}

	data, err := m.Get(ctx, token)
	if err != nil || data == nil {
		return false, err
	}

	remaining, err := m.client.TTL(ctx, sessionKey(token)).Result()
	if err != nil {
		return false, storeErr("read session ttl", err)
	}
	if remaining < 0 {
		remaining = 0
	}

	ttl := remaining + additional
	data.ExpiresAt = m.now().Add(ttl).UnixMilli()

	if err := m.write(ctx, token, data, ttl); err != nil {
		return false, err
	}
	return true, nil
}

// ========== Helpers ==========

func (m *Manager) write(ctx context.Context, token string, data *SessionData, ttl time.Duration) error {
	payload, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("failed to marshal session: %w", err)
	}
	if err := m.client.Set(ctx, sessionKey(token), payload, ttl).Err(); err != nil {
		return storeErr("store session", err)
	}
	return nil
}

func sessionKey(token string) string {
	return keyPrefix + token
}

func storeErr(op string, err error) error {
	return fmt.Errorf("%w: %s: %w", xerrors.ErrStoreUnavailable, op, err)
}
