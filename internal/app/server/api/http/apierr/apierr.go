package apierr

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/danielgtaylor/huma/v2"
	"golang.org/x/exp/slog"

	"memvoice/internal/app/server/api/http/middleware/requestid"
)

const internalMessage = "An unexpected error occurred"

// Detail - тело ошибки: {"error": {type, message, status_code, request_id}}
type Detail struct {
	Type       string              `json:"type" example:"HTTPException"`
	Message    string              `json:"message" example:"Memory not found"`
	StatusCode int                 `json:"status_code" example:"404"`
	RequestID  string              `json:"request_id,omitempty" example:"3f1c9e0a-5b7d-4d0e-9a57-0d1f0f3a7c11"`
	Errors     []*huma.ErrorDetail `json:"errors,omitempty"`
}

type Error struct {
	Detail Detail `json:"error"`
}

func (e *Error) Error() string {
	return e.Detail.Message
}

func (e *Error) GetStatus() int {
	return e.Detail.StatusCode
}

// New заменяет huma.NewError, чтобы все ошибки API имели один формат
func New(status int, msg string, errs ...error) huma.StatusError {
	if status >= http.StatusInternalServerError {
		return &Error{Detail: Detail{Type: "InternalServerError", Message: internalMessage, StatusCode: status}}
	}

	d := Detail{Type: "HTTPException", Message: msg, StatusCode: status}
	if status == http.StatusUnprocessableEntity {
		d.Type = "ValidationError"
	}

	for _, err := range errs {
		if err == nil {
			continue
		}
		var ed huma.ErrorDetailer
		if errors.As(err, &ed) {
			d.Errors = append(d.Errors, ed.ErrorDetail())
			continue
		}
		d.Errors = append(d.Errors, &huma.ErrorDetail{Message: err.Error()})
	}

	return &Error{Detail: d}
}

// Write отдаёт ошибку в общем формате из обычного net/http обработчика (404 роутера, паника)
func Write(w http.ResponseWriter, r *http.Request, status int, msg string) error {
	e, _ := New(status, msg).(*Error)
	e.Detail.RequestID = requestid.FromContext(r.Context())

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	return json.NewEncoder(w).Encode(e)
}

func NotFound(w http.ResponseWriter, r *http.Request) {
	_ = Write(w, r, http.StatusNotFound, "Not Found")
}

func MethodNotAllowed(w http.ResponseWriter, r *http.Request) {
	_ = Write(w, r, http.StatusMethodNotAllowed, "Method Not Allowed")
}

// Internal логирует неожиданную ошибку и скрывает её текст от клиента
func Internal(ctx context.Context, log *slog.Logger, err error) error {
	log.Error("unexpected error",
		slog.String("request_id", requestid.FromContext(ctx)),
		slog.String("error", err.Error()),
	)
	return huma.Error500InternalServerError(internalMessage)
}

// Transformer проставляет request_id в тела ошибок huma
func Transformer(ctx huma.Context, _ string, v any) (any, error) {
	if e, ok := v.(*Error); ok && e.Detail.RequestID == "" {
		e.Detail.RequestID = requestid.FromContext(ctx.Context())
	}
	return v, nil
}
