package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"golang.org/x/exp/slog"

	"memvoice/internal/domain/user"
)

const userColumns = `id, email, username, full_name, password_hash, is_active, is_superuser, created_at, updated_at`

type UserRepository struct {
	db  *sql.DB
	log *slog.Logger
}

func NewUserRepository(db *sql.DB, log *slog.Logger) *UserRepository {
	return &UserRepository{
		db:  db,
		log: log.With("component", "user_repository"),
	}
}

func (r *UserRepository) Create(ctx context.Context, u *user.User) error {
	now := time.Now().UTC()

	err := r.db.QueryRowContext(ctx,
		`INSERT INTO users (email, username, full_name, password_hash, is_active, is_superuser, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?) RETURNING id`,
		u.Email, u.Username, u.FullName, u.PasswordHash, u.IsActive, u.IsSuperuser, ts(now), ts(now)).
		Scan(&u.ID)
	if err != nil {
		return mapUserErr(err)
	}

	u.CreatedAt = now
	u.UpdatedAt = now
	return nil
}

func (r *UserRepository) GetByID(ctx context.Context, id int) (*user.User, error) {
	return r.getBy(ctx, `id = ?`, id)
}

func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*user.User, error) {
	return r.getBy(ctx, `email = ?`, email)
}

func (r *UserRepository) GetByUsername(ctx context.Context, username string) (*user.User, error) {
	return r.getBy(ctx, `username = ?`, username)
}

func (r *UserRepository) Update(ctx context.Context, u *user.User) error {
	now := time.Now().UTC()

	res, err := r.db.ExecContext(ctx,
		`UPDATE users
		 SET email = ?, username = ?, full_name = ?, password_hash = ?, is_active = ?, is_superuser = ?, updated_at = ?
		 WHERE id = ?`,
		u.Email, u.Username, u.FullName, u.PasswordHash, u.IsActive, u.IsSuperuser, ts(now), u.ID)
	if err != nil {
		return mapUserErr(err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update user: %w", err)
	}
	if n == 0 {
		return user.ErrNotFound
	}

	u.UpdatedAt = now
	return nil
}

func (r *UserRepository) getBy(ctx context.Context, where string, arg any) (*user.User, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE `+where, arg)

	u, err := scanUser(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, user.ErrNotFound
	}
	if err != nil {
		r.log.Error("failed to get user", "where", where, "error", err)
		return nil, fmt.Errorf("get user: %w", err)
	}
	return u, nil
}

func scanUser(row scanner) (*user.User, error) {
	var (
		u        user.User
		fullName sql.NullString
	)

	err := row.Scan(&u.ID, &u.Email, &u.Username, &fullName, &u.PasswordHash,
		&u.IsActive, &u.IsSuperuser, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		return nil, err
	}

	if fullName.Valid {
		u.FullName = &fullName.String
	}
	return &u, nil
}

func mapUserErr(err error) error {
	switch {
	case isUnique(err, "users.email"):
		return user.ErrDuplicateEmail
	case isUnique(err, "users.username"):
		return user.ErrDuplicateUsername
	case isUnique(err, ""):
		return fmt.Errorf("%w: %v", user.ErrDuplicate, err)
	}
	return err
}
