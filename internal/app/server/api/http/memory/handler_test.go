package memory

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"testing"
	"time"

	"github.com/danielgtaylor/huma/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"golang.org/x/exp/slog"

	"memvoice/internal/app/server/api/http/middleware"
	"memvoice/internal/app/server/api/http/middleware/auth"
	"memvoice/internal/domain/memory"
	"memvoice/internal/domain/user"
)

type MockService struct {
	mock.Mock
}

func (m *MockService) Create(ctx context.Context, in memory.CreateInput) (*memory.Entry, error) {
	args := m.Called(ctx, in)
	e, _ := args.Get(0).(*memory.Entry)
	return e, args.Error(1)
}

func (m *MockService) Get(ctx context.Context, id int) (*memory.Entry, error) {
	args := m.Called(ctx, id)
	e, _ := args.Get(0).(*memory.Entry)
	return e, args.Error(1)
}

func (m *MockService) Update(ctx context.Context, id int, in memory.UpdateInput) (*memory.Entry, error) {
	args := m.Called(ctx, id, in)
	e, _ := args.Get(0).(*memory.Entry)
	return e, args.Error(1)
}

func (m *MockService) Delete(ctx context.Context, id int) (bool, error) {
	args := m.Called(ctx, id)
	return args.Bool(0), args.Error(1)
}

func (m *MockService) Search(ctx context.Context, q memory.Query) ([]memory.Entry, error) {
	args := m.Called(ctx, q)
	entries, _ := args.Get(0).([]memory.Entry)
	return entries, args.Error(1)
}

func (m *MockService) CleanupExpired(ctx context.Context) (int, error) {
	args := m.Called(ctx)
	return args.Int(0), args.Error(1)
}

var (
	alice = &user.User{ID: 1, Username: "alice", IsActive: true}
	bob   = &user.User{ID: 2, Username: "bob", IsActive: true}
	admin = &user.User{ID: 3, Username: "admin", IsActive: true, IsSuperuser: true}
)

func as(u *user.User) context.Context {
	return auth.WithUser(context.Background(), u)
}

func ptr[T any](v T) *T {
	return &v
}

func status(t *testing.T, err error) int {
	t.Helper()
	var se huma.StatusError
	require.ErrorAs(t, err, &se)
	return se.GetStatus()
}

func newHandler(svc *MockService) *Handler {
	return NewHandler(svc, slog.Default(), middleware.Chains{})
}

func TestHandler_Create(t *testing.T) {
	t.Run("Owner defaults to caller", func(t *testing.T) {
		svc := new(MockService)
		h := newHandler(svc)

		svc.On("Create", mock.Anything, mock.MatchedBy(func(in memory.CreateInput) bool {
			return in.UserID == alice.ID && in.Content == "likes tea" && in.Meta["type"] == "preference"
		})).Return(&memory.Entry{ID: 10, UserID: alice.ID, Content: "likes tea"}, nil)

		input := &createInput{Body: createRequest{Content: "likes tea", Meta: map[string]any{"type": "preference"}}}
		out, err := h.create(as(alice), input)

		require.NoError(t, err)
		assert.Equal(t, 10, out.Body.ID)
		svc.AssertExpectations(t)
	})

	t.Run("Explicit own id", func(t *testing.T) {
		svc := new(MockService)
		h := newHandler(svc)
		svc.On("Create", mock.Anything, mock.MatchedBy(func(in memory.CreateInput) bool {
			return in.UserID == alice.ID
		})).Return(&memory.Entry{ID: 11, UserID: alice.ID}, nil)

		_, err := h.create(as(alice), &createInput{Body: createRequest{UserID: ptr(alice.ID), Content: "x"}})
		assert.NoError(t, err)
	})

	t.Run("Other owner is forbidden", func(t *testing.T) {
		svc := new(MockService)
		h := newHandler(svc)

		_, err := h.create(as(alice), &createInput{Body: createRequest{UserID: ptr(bob.ID), Content: "x"}})
		assert.Equal(t, http.StatusForbidden, status(t, err))
		svc.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
	})

	t.Run("Superuser may create for others", func(t *testing.T) {
		svc := new(MockService)
		h := newHandler(svc)
		svc.On("Create", mock.Anything, mock.MatchedBy(func(in memory.CreateInput) bool {
			return in.UserID == bob.ID
		})).Return(&memory.Entry{ID: 12, UserID: bob.ID}, nil)

		out, err := h.create(as(admin), &createInput{Body: createRequest{UserID: ptr(bob.ID), Content: "x"}})
		require.NoError(t, err)
		assert.Equal(t, bob.ID, out.Body.UserID)
	})

	tests := []struct {
		name       string
		err        error
		wantStatus int
	}{
		{name: "invalid input", err: fmt.Errorf("%w: content is empty", memory.ErrInvalidInput), wantStatus: http.StatusBadRequest},
		{name: "index failure", err: fmt.Errorf("%w: add memory 1: timeout", memory.ErrIndex), wantStatus: http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := new(MockService)
			h := newHandler(svc)
			svc.On("Create", mock.Anything, mock.Anything).Return(nil, tt.err)

			_, err := h.create(as(alice), &createInput{})
			assert.Equal(t, tt.wantStatus, status(t, err))
		})
	}

	t.Run("Unauthenticated", func(t *testing.T) {
		_, err := newHandler(nil).create(context.Background(), &createInput{})
		assert.Equal(t, http.StatusUnauthorized, status(t, err))
	})
}

func TestHandler_Find(t *testing.T) {
	entry := &memory.Entry{ID: 5, UserID: alice.ID, Content: "note"}

	tests := []struct {
		name       string
		caller     *user.User
		found      *memory.Entry
		wantStatus int
	}{
		{name: "owner", caller: alice, found: entry, wantStatus: http.StatusOK},
		{name: "superuser", caller: admin, found: entry, wantStatus: http.StatusOK},
		{name: "stranger", caller: bob, found: entry, wantStatus: http.StatusForbidden},
		{name: "absent", caller: alice, wantStatus: http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := new(MockService)
			h := newHandler(svc)
			svc.On("Get", mock.Anything, 5).Return(tt.found, nil)

			out, err := h.find(as(tt.caller), &idInput{ID: 5})
			if tt.wantStatus == http.StatusOK {
				require.NoError(t, err)
				assert.Equal(t, entry, out.Body)
				return
			}
			assert.Equal(t, tt.wantStatus, status(t, err))
		})
	}
}

func TestHandler_Update(t *testing.T) {
	entry := &memory.Entry{ID: 5, UserID: alice.ID, Content: "note"}

	t.Run("Owner updates", func(t *testing.T) {
		svc := new(MockService)
		h := newHandler(svc)
		svc.On("Get", mock.Anything, 5).Return(entry, nil)
		svc.On("Update", mock.Anything, 5, mock.MatchedBy(func(in memory.UpdateInput) bool {
			return in.Content != nil && *in.Content == "new" && in.Meta == nil
		})).Return(&memory.Entry{ID: 5, UserID: alice.ID, Content: "new"}, nil)

		out, err := h.update(as(alice), &updateInput{ID: 5, Body: updateMemoryRequest{Content: ptr("new")}})
		require.NoError(t, err)
		assert.Equal(t, "new", out.Body.Content)
	})

	t.Run("Stranger is forbidden before update", func(t *testing.T) {
		svc := new(MockService)
		h := newHandler(svc)
		svc.On("Get", mock.Anything, 5).Return(entry, nil)

		_, err := h.update(as(bob), &updateInput{ID: 5})
		assert.Equal(t, http.StatusForbidden, status(t, err))
		svc.AssertNotCalled(t, "Update", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("Gone between get and update", func(t *testing.T) {
		svc := new(MockService)
		h := newHandler(svc)
		svc.On("Get", mock.Anything, 5).Return(entry, nil)
		svc.On("Update", mock.Anything, 5, mock.Anything).Return(nil, nil)

		_, err := h.update(as(alice), &updateInput{ID: 5})
		assert.Equal(t, http.StatusNotFound, status(t, err))
	})
}

func TestUpdateMemoryRequest_Nullable(t *testing.T) {
	tests := []struct {
		name       string
		body       string
		wantScore  *float64
		wantReset  bool
		wantExpiry bool
		resetExp   bool
	}{
		{name: "absent", body: `{"content":"x"}`},
		{name: "null resets", body: `{"relevance_score":null,"expires_at":null}`, wantReset: true, resetExp: true},
		{name: "value sets", body: `{"relevance_score":0.7,"expires_at":"2030-01-02T03:04:05Z"}`, wantScore: ptr(0.7), wantExpiry: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var req updateMemoryRequest
			require.NoError(t, json.Unmarshal([]byte(tt.body), &req))

			score, reset := req.RelevanceScore.get()
			assert.Equal(t, tt.wantScore, score)
			assert.Equal(t, tt.wantReset, reset)

			expires, resetExp := req.ExpiresAt.get()
			assert.Equal(t, tt.resetExp, resetExp)
			if tt.wantExpiry {
				require.NotNil(t, expires)
				assert.True(t, expires.Equal(time.Date(2030, 1, 2, 3, 4, 5, 0, time.UTC)))
			} else {
				assert.Nil(t, expires)
			}
		})
	}
}

func TestHandler_Update_NullClearsExpiry(t *testing.T) {
	svc := new(MockService)
	h := newHandler(svc)
	entry := &memory.Entry{ID: 5, UserID: alice.ID, Content: "note"}

	var body updateMemoryRequest
	require.NoError(t, json.Unmarshal([]byte(`{"expires_at":null}`), &body))

	svc.On("Get", mock.Anything, 5).Return(entry, nil)
	svc.On("Update", mock.Anything, 5, mock.MatchedBy(func(in memory.UpdateInput) bool {
		return in.ClearExpiresAt && in.ExpiresAt == nil && !in.ClearRelevanceScore && in.RelevanceScore == nil
	})).Return(entry, nil)

	_, err := h.update(as(alice), &updateInput{ID: 5, Body: body})
	require.NoError(t, err)
	svc.AssertExpectations(t)
}

func TestHandler_Delete(t *testing.T) {
	entry := &memory.Entry{ID: 5, UserID: alice.ID}

	t.Run("Success", func(t *testing.T) {
		svc := new(MockService)
		h := newHandler(svc)
		svc.On("Get", mock.Anything, 5).Return(entry, nil)
		svc.On("Delete", mock.Anything, 5).Return(true, nil)

		out, err := h.delete(as(alice), &idInput{ID: 5})
		require.NoError(t, err)
		assert.Equal(t, "success", out.Body.Status)
	})

	t.Run("Absent", func(t *testing.T) {
		svc := new(MockService)
		h := newHandler(svc)
		svc.On("Get", mock.Anything, 5).Return(nil, nil)

		_, err := h.delete(as(alice), &idInput{ID: 5})
		assert.Equal(t, http.StatusNotFound, status(t, err))
		svc.AssertNotCalled(t, "Delete", mock.Anything, mock.Anything)
	})

	t.Run("Index failure", func(t *testing.T) {
		svc := new(MockService)
		h := newHandler(svc)
		svc.On("Get", mock.Anything, 5).Return(entry, nil)
		svc.On("Delete", mock.Anything, 5).Return(false, memory.ErrIndex)

		_, err := h.delete(as(alice), &idInput{ID: 5})
		assert.Equal(t, http.StatusInternalServerError, status(t, err))
	})
}

func TestHandler_Search(t *testing.T) {
	results := []memory.Entry{{ID: 1, UserID: alice.ID}, {ID: 2, UserID: alice.ID}}

	t.Run("Own memories", func(t *testing.T) {
		svc := new(MockService)
		h := newHandler(svc)
		svc.On("Search", mock.Anything, memory.Query{UserID: alice.ID, Text: "tea", Limit: 10, MinRelevance: 0.5}).
			Return(results, nil)

		out, err := h.search(as(alice), &searchInput{Query: "tea", Limit: 10, MinRelevance: 0.5})
		require.NoError(t, err)
		assert.Equal(t, results, out.Body)
	})

	t.Run("Other user requires superuser", func(t *testing.T) {
		svc := new(MockService)
		h := newHandler(svc)

		_, err := h.search(as(alice), &searchInput{UserID: bob.ID, Query: "tea", Limit: 10})
		assert.Equal(t, http.StatusForbidden, status(t, err))

		svc.On("Search", mock.Anything, mock.MatchedBy(func(q memory.Query) bool {
			return q.UserID == bob.ID
		})).Return([]memory.Entry{}, nil)

		out, err := h.search(as(admin), &searchInput{UserID: bob.ID, Query: "tea", Limit: 10})
		require.NoError(t, err)
		assert.Empty(t, out.Body)
	})

	t.Run("Index failure", func(t *testing.T) {
		svc := new(MockService)
		h := newHandler(svc)
		svc.On("Search", mock.Anything, mock.Anything).Return(nil, memory.ErrIndex)

		_, err := h.search(as(alice), &searchInput{Query: "tea", Limit: 10})
		assert.Equal(t, http.StatusInternalServerError, status(t, err))
	})
}

func TestHandler_Cleanup(t *testing.T) {
	svc := new(MockService)
	h := newHandler(svc)
	svc.On("CleanupExpired", mock.Anything).Return(3, nil).Once()
	svc.On("CleanupExpired", mock.Anything).Return(1, errors.New("index down")).Once()

	out, err := h.cleanup(as(admin), nil)
	require.NoError(t, err)
	assert.Equal(t, 3, out.Body.CleanedUpCount)

	_, err = h.cleanup(as(admin), nil)
	assert.Equal(t, http.StatusInternalServerError, status(t, err))
}
