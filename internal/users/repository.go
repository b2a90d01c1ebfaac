package users

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"speakai-platform/pkg/utils"
)

var (
	ErrNotFound   = errors.New("users: not found")
	ErrEmailTaken = errors.New("users: email already registered")
)

// Repository is the persistence contract for users.
type Repository interface {
	Create(ctx context.Context, u User) (User, error)
	GetByEmail(ctx context.Context, email string) (User, error)
	GetByID(ctx context.Context, id int64) (User, error)
	UpdatePassword(ctx context.Context, id int64, hashed string, at time.Time) error
}

// SQLRepo stores users in Postgres. updated_at is maintained by a trigger.
type SQLRepo struct {
	db *sql.DB
}

func NewSQLRepo(db *sql.DB) *SQLRepo { return &SQLRepo{db: db} }

const userColumns = `id, email, name, company_name, hashed_password, role, is_active, is_verified, created_at, updated_at`

func (r *SQLRepo) Create(ctx context.Context, u User) (User, error) {
	const q = `
INSERT INTO users (email, name, company_name, hashed_password, role, is_active, is_verified)
VALUES ($1, $2, $3, $4, $5, $6, $7)
RETURNING ` + userColumns
	out, err := scanUser(r.db.QueryRowContext(ctx, q,
		u.Email,
		u.Name,
		u.CompanyName,
		u.HashedPassword,
		u.Role,
		u.IsActive,
		u.IsVerified,
	))
	if err != nil {
		if utils.IsUniqueViolation(err, "users_email_key") {
			return User{}, ErrEmailTaken
		}
		return User{}, err
	}
	return out, nil
}

func (r *SQLRepo) GetByEmail(ctx context.Context, email string) (User, error) {
	const q = `SELECT ` + userColumns + ` FROM users WHERE email = $1`
	return scanUser(r.db.QueryRowContext(ctx, q, email))
}

func (r *SQLRepo) GetByID(ctx context.Context, id int64) (User, error) {
	const q = `SELECT ` + userColumns + ` FROM users WHERE id = $1`
	return scanUser(r.db.QueryRowContext(ctx, q, id))
}

func (r *SQLRepo) UpdatePassword(ctx context.Context, id int64, hashed string, _ time.Time) error {
	const q = `UPDATE users SET hashed_password = $2 WHERE id = $1`
	res, err := r.db.ExecContext(ctx, q, id, hashed)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func scanUser(row *sql.Row) (User, error) {
	var u User
	if err := row.Scan(
		&u.ID,
		&u.Email,
		&u.Name,
		&u.CompanyName,
		&u.HashedPassword,
		&u.Role,
		&u.IsActive,
		&u.IsVerified,
		&u.CreatedAt,
		&u.UpdatedAt,
	); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return User{}, ErrNotFound
		}
		return User{}, err
	}
	return u, nil
}
