package user

import (
	"context"
)

// Repository - хранилище пользователей. Отсутствие записи возвращается как ErrNotFound,
// нарушение уникальности email/username как ErrDuplicate.
type Repository interface {
	Create(ctx context.Context, u *User) error
	GetByID(ctx context.Context, id int) (*User, error)
	GetByEmail(ctx context.Context, email string) (*User, error)
	GetByUsername(ctx context.Context, username string) (*User, error)
	Update(ctx context.Context, u *User) error
}
