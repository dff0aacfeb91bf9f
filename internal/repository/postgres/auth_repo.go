// internal/repository/postgres/auth_repo.go
package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"singr-service/internal/domain/auth"
	xerrors "singr-service/internal/pkg/errors"
	"singr-service/internal/pkg/rbac"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

const uniqueViolation = "23505"

type AuthRepository struct {
	db *pgxpool.Pool
}

func NewAuthRepository(db *pgxpool.Pool) *AuthRepository {
	return &AuthRepository{db: db}
}

// ========== User Methods ==========

const userColumns = `id, email, password_hash, display_name, is_active, last_login_at, created_at, updated_at`

// FindUserByEmail retrieves a user by email, case-insensitively
func (r *AuthRepository) FindUserByEmail(ctx context.Context, email string) (*auth.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE LOWER(email) = LOWER($1)`
	return r.scanUser(r.db.QueryRow(ctx, query, email))
}

// FindUserByID retrieves a user by ID
func (r *AuthRepository) FindUserByID(ctx context.Context, id string) (*auth.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE id = $1`
	return r.scanUser(r.db.QueryRow(ctx, query, id))
}

func (r *AuthRepository) scanUser(row pgx.Row) (*auth.User, error) {
	var u auth.User
	err := row.Scan(
		&u.ID, &u.Email, &u.PasswordHash, &u.DisplayName,
		&u.IsActive, &u.LastLoginAt, &u.CreatedAt, &u.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, xerrors.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find user: %w", err)
	}
	return &u, nil
}

// CreateUserWithRoles inserts a user and its role grants in one transaction.
func (r *AuthRepository) CreateUserWithRoles(ctx context.Context, user *auth.User, roles []string) error {
	tx, err := NewDB(r.db).BeginTx(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	if user.ID == "" {
		user.ID = uuid.NewString()
	}
	user.Email = strings.ToLower(strings.TrimSpace(user.Email))

	err = tx.QueryRow(ctx, `
		INSERT INTO users (id, email, password_hash, display_name, is_active, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, NOW(), NOW())
		RETURNING created_at, updated_at
	`, user.ID, user.Email, user.PasswordHash, user.DisplayName, user.IsActive).
		Scan(&user.CreatedAt, &user.UpdatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return fmt.Errorf("%w: email already registered", xerrors.ErrConflict)
		}
		return fmt.Errorf("failed to create user: %w", err)
	}

	for _, slug := range roles {
		tag, err := tx.Exec(ctx, `
			INSERT INTO user_roles (user_id, role_id, created_at)
			SELECT $1, id, NOW() FROM roles WHERE slug = $2
			ON CONFLICT DO NOTHING
		`, user.ID, slug)
		if err != nil {
			return fmt.Errorf("failed to assign role %s: %w", slug, err)
		}
		if tag.RowsAffected() == 0 {
			return fmt.Errorf("%w: unknown role %q", xerrors.ErrInvalidInput, slug)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit user: %w", err)
	}
	return nil
}

// UpdateLastLogin stamps the last successful login
func (r *AuthRepository) UpdateLastLogin(ctx context.Context, id string, at time.Time) error {
	_, err := r.db.Exec(ctx, `UPDATE users SET last_login_at = $1, updated_at = NOW() WHERE id = $2`, at, id)
	if err != nil {
		return fmt.Errorf("failed to update last login: %w", err)
	}
	return nil
}

// ========== Role Management ==========

// GetUserRoles retrieves the role slugs granted to a user
func (r *AuthRepository) GetUserRoles(ctx context.Context, userID string) ([]string, error) {
	query := `
		SELECT r.slug
		FROM user_roles ur
		JOIN roles r ON ur.role_id = r.id
		WHERE ur.user_id = $1
		ORDER BY r.slug
	`
	return r.querySlugs(ctx, query, userID)
}

// RolesWithPermissions loads the named roles with the permissions each grants.
// Unknown slugs are skipped.
func (r *AuthRepository) RolesWithPermissions(ctx context.Context, slugs []string) ([]rbac.Role, error) {
	if len(slugs) == 0 {
		return []rbac.Role{}, nil
	}
	query := `
		SELECT r.slug, COALESCE(r.description, ''),
		       COALESCE(array_agg(p.slug ORDER BY p.slug) FILTER (WHERE p.slug IS NOT NULL), '{}')
		FROM roles r
		LEFT JOIN role_permissions rp ON rp.role_id = r.id
		LEFT JOIN permissions p ON p.id = rp.permission_id
		WHERE r.slug = ANY($1)
		GROUP BY r.id
		ORDER BY r.slug
	`
	rows, err := r.db.Query(ctx, query, slugs)
	if err != nil {
		return nil, fmt.Errorf("failed to load roles: %w", err)
	}
	defer rows.Close()

	roles := []rbac.Role{}
	for rows.Next() {
		var (
			role  rbac.Role
			perms []string
		)
		if err := rows.Scan(&role.Slug, &role.Description, &perms); err != nil {
			return nil, fmt.Errorf("failed to scan role: %w", err)
		}
		for _, p := range perms {
			role.Permissions = append(role.Permissions, rbac.Permission{Slug: p})
		}
		roles = append(roles, role)
	}
	return roles, rows.Err()
}

func (r *AuthRepository) querySlugs(ctx context.Context, query string, arg any) ([]string, error) {
	rows, err := r.db.Query(ctx, query, arg)
	if err != nil {
		return nil, fmt.Errorf("failed to query slugs: %w", err)
	}
	defer rows.Close()

	slugs := []string{}
	for rows.Next() {
		var s string
		if err := rows.Scan(&s); err != nil {
			return nil, fmt.Errorf("failed to scan slug: %w", err)
		}
		slugs = append(slugs, s)
	}
	return slugs, rows.Err()
}

// UpdatePasswordHash replaces a user's stored hash
func (r *AuthRepository) UpdatePasswordHash(ctx context.Context, id, hash string) error {
	_, err := r.db.Exec(ctx, `UPDATE users SET password_hash = $1, updated_at = NOW() WHERE id = $2`, hash, id)
	if err != nil {
		return fmt.Errorf("failed to update password hash: %w", err)
	}
	return nil
}
