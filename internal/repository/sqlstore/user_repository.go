package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"plate-auction/internal/domain"
	"plate-auction/internal/repository"
)

const createUsersTable = `
CREATE TABLE IF NOT EXISTS users (
	id {{pk}},
	username TEXT NOT NULL UNIQUE,
	email TEXT NOT NULL UNIQUE,
	password_hash TEXT NOT NULL,
	is_staff BOOLEAN NOT NULL DEFAULT FALSE,
	created_at BIGINT NOT NULL
)`

const userColumns = `id, username, email, password_hash, is_staff, created_at`

type UserRepository struct {
	q       querier
	dialect dialect
}

func (r *UserRepository) Init(ctx context.Context) error {
	if _, err := r.q.ExecContext(ctx, r.dialect.ddl(createUsersTable)); err != nil {
		return fmt.Errorf("create users table: %w", err)
	}
	return nil
}

func (r *UserRepository) Create(ctx context.Context, user *domain.User) (int64, error) {
	if user.CreatedAt.IsZero() {
		user.CreatedAt = time.Now().UTC()
	}

	var id int64
	err := r.q.QueryRowContext(ctx, r.dialect.rebind(`
INSERT INTO users (username, email, password_hash, is_staff, created_at)
VALUES (?, ?, ?, ?, ?)
RETURNING id`),
		user.Username,
		user.Email,
		user.PasswordHash,
		user.IsStaff(),
		toMillis(user.CreatedAt),
	).Scan(&id)
	if err != nil {
		if r.dialect.isUniqueViolation(err) {
			return 0, fmt.Errorf("insert user %s: %w", user.Username, repository.ErrDuplicate)
		}
		return 0, fmt.Errorf("insert user: %w", err)
	}

	user.ID = id
	return id, nil
}

func (r *UserRepository) GetByUsername(ctx context.Context, username string) (*domain.User, error) {
	row := r.q.QueryRowContext(ctx, r.dialect.rebind(`
SELECT `+userColumns+`
FROM users
WHERE username = ?`),
		username,
	)
	return scanUser(row)
}

func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	row := r.q.QueryRowContext(ctx, r.dialect.rebind(`
SELECT `+userColumns+`
FROM users
WHERE email = ?`),
		email,
	)
	return scanUser(row)
}

func (r *UserRepository) GetByID(ctx context.Context, id int64) (*domain.User, error) {
	row := r.q.QueryRowContext(ctx, r.dialect.rebind(`
SELECT `+userColumns+`
FROM users
WHERE id = ?`),
		id,
	)
	return scanUser(row)
}

func scanUser(row interface {
	Scan(dest ...any) error
}) (*domain.User, error) {
	var (
		user      domain.User
		isStaff   bool
		createdAt int64
	)
	if err := row.Scan(
		&user.ID,
		&user.Username,
		&user.Email,
		&user.PasswordHash,
		&isStaff,
		&createdAt,
	); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("user: %w", repository.ErrNotFound)
		}
		return nil, fmt.Errorf("scan user: %w", err)
	}
	user.Role = domain.RoleFromStaffFlag(isStaff)
	user.CreatedAt = fromMillis(createdAt)
	return &user, nil
}
