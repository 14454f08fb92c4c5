package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"golang.org/x/exp/slog"

	"memvoice/internal/domain/user"
)

const userColumns = `id, email, username, full_name, password_hash, is_active, is_superuser, created_at, updated_at`

func NewUserRepository(pool *pgxpool.Pool, log *slog.Logger) *UserRepository {
	return &UserRepository{
		pool: pool,
		log:  log.With("component", "user_repository"),
	}
}

type UserRepository struct {
	pool *pgxpool.Pool
	log  *slog.Logger
}

func (r *UserRepository) Create(ctx context.Context, u *user.User) error {
	err := r.pool.QueryRow(ctx,
		`INSERT INTO users (email, username, full_name, password_hash, is_active, is_superuser)
		 VALUES ($1, $2, $3, $4, $5, $6)
		 RETURNING id, created_at, updated_at`,
		u.Email, u.Username, u.FullName, u.PasswordHash, u.IsActive, u.IsSuperuser).
		Scan(&u.ID, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		return mapUserErr(err)
	}
	return nil
}

func (r *UserRepository) GetByID(ctx context.Context, id int) (*user.User, error) {
	return r.getBy(ctx, `id = $1`, id)
}

func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*user.User, error) {
	return r.getBy(ctx, `email = $1`, email)
}

func (r *UserRepository) GetByUsername(ctx context.Context, username string) (*user.User, error) {
	return r.getBy(ctx, `username = $1`, username)
}

func (r *UserRepository) Update(ctx context.Context, u *user.User) error {
	err := r.pool.QueryRow(ctx,
		`UPDATE users
		 SET email = $1, username = $2, full_name = $3, password_hash = $4,
		     is_active = $5, is_superuser = $6, updated_at = NOW()
		 WHERE id = $7
		 RETURNING updated_at`,
		u.Email, u.Username, u.FullName, u.PasswordHash, u.IsActive, u.IsSuperuser, u.ID).
		Scan(&u.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return user.ErrNotFound
	}
	if err != nil {
		return mapUserErr(err)
	}
	return nil
}

func (r *UserRepository) getBy(ctx context.Context, where string, arg any) (*user.User, error) {
	var u user.User
	err := r.pool.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE `+where, arg).
		Scan(&u.ID, &u.Email, &u.Username, &u.FullName, &u.PasswordHash,
			&u.IsActive, &u.IsSuperuser, &u.CreatedAt, &u.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, user.ErrNotFound
	}
	if err != nil {
		r.log.Error("failed to get user", "where", where, "error", err)
		return nil, fmt.Errorf("get user: %w", err)
	}
	return &u, nil
}

func mapUserErr(err error) error {
	code, constraint := pgCode(err)
	if code != codeUniqueViolation {
		return fmt.Errorf("write user: %w", err)
	}

	switch constraint {
	case "users_email_key":
		return user.ErrDuplicateEmail
	case "users_username_key":
		return user.ErrDuplicateUsername
	}
	return fmt.Errorf("%w: %v", user.ErrDuplicate, err)
}
