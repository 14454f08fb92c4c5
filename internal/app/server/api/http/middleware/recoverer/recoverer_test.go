package recoverer

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/exp/slog"

	"memvoice/internal/app/server/api/http/apierr"
	"memvoice/internal/app/server/api/http/middleware/requestid"
)

func TestMiddleware_RecoversPanic(t *testing.T) {
	h := requestid.Middleware(Middleware(slog.Default())(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		panic("boom")
	})))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/memories", nil))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	var body apierr.Error
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "InternalServerError", body.Detail.Type)
	assert.Equal(t, "An unexpected error occurred", body.Detail.Message)
	assert.Equal(t, http.StatusInternalServerError, body.Detail.StatusCode)
	assert.Equal(t, rec.Header().Get(requestid.Header), body.Detail.RequestID)
	assert.NotContains(t, rec.Body.String(), "boom")
}

func TestMiddleware_PassThrough(t *testing.T) {
	h := Middleware(slog.Default())(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusTeapot, rec.Code)
}

func TestMiddleware_AbortHandlerRepanics(t *testing.T) {
	h := Middleware(slog.Default())(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		panic(http.ErrAbortHandler)
	}))

	assert.PanicsWithValue(t, http.ErrAbortHandler, func() {
		h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))
	})
}
