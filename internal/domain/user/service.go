package user

import (
	"context"
	"errors"
	"fmt"

	"golang.org/x/exp/slog"

	"memvoice/internal/app/server/security"
)

type Servicer interface {
	GetByID(ctx context.Context, id int) (*User, error)
	GetByEmail(ctx context.Context, email string) (*User, error)
	GetByUsername(ctx context.Context, username string) (*User, error)
	Create(ctx context.Context, in CreateInput) (*User, error)
	Authenticate(ctx context.Context, username, password string) (*User, error)
	Update(ctx context.Context, id int, in UpdateInput) (*User, error)
}

type Service struct {
	repo      Repository
	validator Validator
	log       *slog.Logger
}

func NewService(repo Repository, validator Validator, log *slog.Logger) *Service {
	return &Service{
		repo:      repo,
		validator: validator,
		log:       log.With("component", "user_service"),
	}
}

// GetByID возвращает (nil, nil), если пользователя нет
func (s *Service) GetByID(ctx context.Context, id int) (*User, error) {
	return s.lookup(s.repo.GetByID(ctx, id))
}

func (s *Service) GetByEmail(ctx context.Context, email string) (*User, error) {
	return s.lookup(s.repo.GetByEmail(ctx, email))
}

func (s *Service) GetByUsername(ctx context.Context, username string) (*User, error) {
	return s.lookup(s.repo.GetByUsername(ctx, username))
}

func (s *Service) lookup(u *User, err error) (*User, error) {
	if errors.Is(err, ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return u, nil
}

func (s *Service) Create(ctx context.Context, in CreateInput) (*User, error) {
	if err := s.validator.ValidateCreate(in); err != nil {
		s.log.Debug("validation failed", "username", in.Username, "error", err)
		return nil, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}

	existing, err := s.GetByEmail(ctx, in.Email)
	if err != nil {
		return nil, fmt.Errorf("check email: %w", err)
	}
	if existing != nil {
		return nil, ErrDuplicateEmail
	}

	existing, err = s.GetByUsername(ctx, in.Username)
	if err != nil {
		return nil, fmt.Errorf("check username: %w", err)
	}
	if existing != nil {
		return nil, ErrDuplicateUsername
	}

	hash, err := security.HashPassword(in.Password)
	if err != nil {
		return nil, err
	}

	u := &User{
		Email:        in.Email,
		Username:     in.Username,
		FullName:     in.FullName,
		PasswordHash: hash,
		IsActive:     in.IsActive,
		IsSuperuser:  in.IsSuperuser,
	}

	if err := s.repo.Create(ctx, u); err != nil {
		// гонка между проверкой и вставкой
		if errors.Is(err, ErrDuplicate) {
			return nil, err
		}
		return nil, fmt.Errorf("create user: %w", err)
	}

	s.log.Info("user created", "user_id", u.ID, "username", u.Username)
	return u, nil
}

// Authenticate возвращает nil при отсутствии пользователя или неверном пароле.
// Неактивные пользователи возвращаются, проверка на вызывающей стороне.
func (s *Service) Authenticate(ctx context.Context, username, password string) (*User, error) {
	u, err := s.GetByUsername(ctx, username)
	if err != nil {
		return nil, err
	}
	if u == nil {
		return nil, nil
	}

	if !security.VerifyPassword(password, u.PasswordHash) {
		return nil, nil
	}

	return u, nil
}

// Update применяет только заданные поля. (nil, nil), если пользователя нет.
func (s *Service) Update(ctx context.Context, id int, in UpdateInput) (*User, error) {
	u, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if u == nil {
		return nil, nil
	}

	if err := s.validator.ValidateUpdate(in); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}

	if in.Email != nil && *in.Email != u.Email {
		other, err := s.GetByEmail(ctx, *in.Email)
		if err != nil {
			return nil, fmt.Errorf("check email: %w", err)
		}
		if other != nil && other.ID != u.ID {
			return nil, ErrDuplicateEmail
		}
		u.Email = *in.Email
	}

	if in.Username != nil && *in.Username != u.Username {
		other, err := s.GetByUsername(ctx, *in.Username)
		if err != nil {
			return nil, fmt.Errorf("check username: %w", err)
		}
		if other != nil && other.ID != u.ID {
			return nil, ErrDuplicateUsername
		}
		u.Username = *in.Username
	}

	if in.FullName != nil {
		u.FullName = in.FullName
	}

	if in.Password != nil {
		hash, err := security.HashPassword(*in.Password)
		if err != nil {
			return nil, err
		}
		u.PasswordHash = hash
	}

	if in.IsActive != nil {
		u.IsActive = *in.IsActive
	}

	if in.IsSuperuser != nil {
		u.IsSuperuser = *in.IsSuperuser
	}

	if err := s.repo.Update(ctx, u); err != nil {
		if errors.Is(err, ErrDuplicate) {
			return nil, err
		}
		return nil, fmt.Errorf("update user: %w", err)
	}

	return u, nil
}
