package memory

import (
	"fmt"
	"time"
)

// Entry - запись памяти пользователя
type Entry struct {
	ID             int            `json:"id"`
	UserID         int            `json:"user_id"`
	Content        string         `json:"content"`
	Meta           map[string]any `json:"meta"`
	RelevanceScore *float64       `json:"relevance_score"`
	Embedding      *string        `json:"embedding"` // base64, little-endian float32
	CreatedAt      time.Time      `json:"created_at"`
	UpdatedAt      time.Time      `json:"updated_at"`
	ExpiresAt      *time.Time     `json:"expires_at"`
}

// Score возвращает сохранённую релевантность, отсутствие считается нулём
func (e *Entry) Score() float64 {
	if e.RelevanceScore == nil {
		return 0
	}
	return *e.RelevanceScore
}

// Expired - истёк ли срок жизни записи на момент now
func (e *Entry) Expired(now time.Time) bool {
	return e.ExpiresAt != nil && e.ExpiresAt.Before(now)
}

type CreateInput struct {
	UserID         int
	Content        string
	Meta           map[string]any
	RelevanceScore *float64
	ExpiresAt      *time.Time
}

// UpdateInput - nil означает "не менять", Clear* сбрасывает поле в NULL
type UpdateInput struct {
	Content        *string
	Meta           map[string]any
	RelevanceScore *float64
	ExpiresAt      *time.Time

	ClearRelevanceScore bool
	ClearExpiresAt      bool
}

type Query struct {
	UserID       int
	Text         string
	Limit        int
	MinRelevance float64
}

// SearchOrder - порядок выдачи результатов поиска
type SearchOrder string

const (
	// OrderExternal сохраняет ранжирование индекса
	OrderExternal SearchOrder = "external"
	// OrderRelevance сортирует по сохранённому relevance_score по убыванию
	OrderRelevance SearchOrder = "relevance"
)

func ParseSearchOrder(s string) (SearchOrder, error) {
	switch SearchOrder(s) {
	case "", OrderExternal:
		return OrderExternal, nil
	case OrderRelevance:
		return OrderRelevance, nil
	default:
		return "", fmt.Errorf("unknown search order %q", s)
	}
}

// Collection - имя коллекции пользователя во внешнем индексе
func Collection(userID int) string {
	return fmt.Sprintf("user_%d", userID)
}
