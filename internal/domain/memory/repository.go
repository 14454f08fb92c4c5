package memory

import (
	"context"
	"time"
)

// Repository - реляционное хранилище записей, источник истины.
// Отсутствие записи возвращается как ErrNotFound.
type Repository interface {
	Create(ctx context.Context, e *Entry) error
	Get(ctx context.Context, id int) (*Entry, error)
	Update(ctx context.Context, e *Entry) error
	SetEmbedding(ctx context.Context, id int, embedding string) error
	Delete(ctx context.Context, id int) error

	// FindByIDs возвращает записи из ids, принадлежащие userID, в произвольном порядке
	FindByIDs(ctx context.Context, userID int, ids []int) ([]Entry, error)
	// ListExpired возвращает записи с expires_at строго раньше before
	ListExpired(ctx context.Context, before time.Time) ([]Entry, error)
}
