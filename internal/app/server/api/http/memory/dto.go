package memory

import (
	"bytes"
	"encoding/json"
	"reflect"
	"time"

	"github.com/danielgtaylor/huma/v2"

	"memvoice/internal/domain/memory"
)

type createInput struct {
	Body createRequest
}

type createRequest struct {
	UserID         *int           `json:"user_id,omitempty" doc:"Владелец записи, по умолчанию текущий пользователь"`
	Content        string         `json:"content" example:"Пользователь предпочитает чай без сахара"`
	Meta           map[string]any `json:"meta,omitempty" doc:"Произвольные метаданные"`
	RelevanceScore *float64       `json:"relevance_score,omitempty" example:"0.8"`
	ExpiresAt      *time.Time     `json:"expires_at,omitempty" doc:"Срок жизни краткосрочной записи"`
}

type idInput struct {
	ID int `path:"id" example:"1" doc:"ID записи"`
}

type updateInput struct {
	ID   int `path:"id" example:"1" doc:"ID записи"`
	Body updateMemoryRequest
}

// updateMemoryRequest - отсутствующее поле не меняется, null сбрасывает relevance_score и expires_at
type updateMemoryRequest struct {
	Content        *string             `json:"content,omitempty"`
	Meta           map[string]any      `json:"meta,omitempty"`
	RelevanceScore nullable[float64]   `json:"relevance_score,omitempty"`
	ExpiresAt      nullable[time.Time] `json:"expires_at,omitempty"`
}

// nullable различает отсутствующее поле и явный null
type nullable[T any] struct {
	Sent  bool
	Null  bool
	Value T
}

func (n *nullable[T]) UnmarshalJSON(b []byte) error {
	n.Sent = true
	if bytes.Equal(b, []byte("null")) {
		n.Null = true
		return nil
	}
	return json.Unmarshal(b, &n.Value)
}

func (n nullable[T]) Schema(r huma.Registry) *huma.Schema {
	s := r.Schema(reflect.TypeOf(n.Value), true, "")
	s.Nullable = true
	return s
}

// get возвращает новое значение и признак сброса в NULL
func (n nullable[T]) get() (value *T, reset bool) {
	if !n.Sent {
		return nil, false
	}
	if n.Null {
		return nil, true
	}
	v := n.Value
	return &v, false
}

type searchInput struct {
	UserID       int     `query:"user_id" doc:"Чьи записи искать, по умолчанию текущий пользователь"`
	Query        string  `query:"query" required:"true" doc:"Текст запроса"`
	Limit        int     `query:"limit" default:"10" minimum:"1" maximum:"100"`
	MinRelevance float64 `query:"min_relevance" default:"0" minimum:"0" maximum:"1"`
}

type entryOutput struct {
	Body *memory.Entry
}

type searchOutput struct {
	Body []memory.Entry
}

type deleteOutput struct {
	Body struct {
		Status string `json:"status" example:"success"`
	}
}

type cleanupOutput struct {
	Body struct {
		CleanedUpCount int `json:"cleaned_up_count"`
	}
}
