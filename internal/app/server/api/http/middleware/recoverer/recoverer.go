package recoverer

import (
	"net/http"
	"runtime/debug"

	"golang.org/x/exp/slog"

	"memvoice/internal/app/server/api/http/apierr"
	"memvoice/internal/app/server/api/http/middleware/requestid"
)

// Middleware превращает панику обработчика в 500 с request_id
func Middleware(log *slog.Logger) func(http.Handler) http.Handler {
	log = log.With(slog.String("component", "recoverer"))

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				rec := recover()
				if rec == nil {
					return
				}
				if rec == http.ErrAbortHandler {
					panic(rec)
				}

				id := requestid.FromContext(r.Context())
				log.Error("panic recovered",
					slog.String("request_id", id),
					slog.String("method", r.Method),
					slog.String("path", r.URL.Path),
					slog.Any("panic", rec),
					slog.String("stack", string(debug.Stack())),
				)

				if err := apierr.Write(w, r, http.StatusInternalServerError, ""); err != nil {
					log.Error("write panic response", slog.String("error", err.Error()))
				}
			}()

			next.ServeHTTP(w, r)
		})
	}
}
