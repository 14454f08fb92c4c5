package auth

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/danielgtaylor/huma/v2"
	"golang.org/x/exp/slog"

	"memvoice/internal/app/server/api/http/middleware/requestid"
	"memvoice/internal/domain/user"
)

const (
	msgUnauthorized = "Could not validate credentials"
	msgInactive     = "Inactive user"
	msgNoPrivileges = "The user doesn't have enough privileges"
)

type TokenVerifier interface {
	Verify(token string) (string, bool)
}

type UserFinder interface {
	GetByUsername(ctx context.Context, username string) (*user.User, error)
}

type Auth struct {
	tokens TokenVerifier
	users  UserFinder
	log    *slog.Logger
}

func New(tokens TokenVerifier, users UserFinder, log *slog.Logger) *Auth {
	return &Auth{
		tokens: tokens,
		users:  users,
		log:    log.With(slog.String("component", "auth_middleware")),
	}
}

type contextKey string

const userKey contextKey = "user"

// Active пропускает только активных пользователей с валидным токеном
func (a *Auth) Active(api huma.API) func(huma.Context, func(huma.Context)) {
	return a.middleware(api, func(u *user.User) (int, string) {
		if !u.IsActive {
			return http.StatusBadRequest, msgInactive
		}
		return 0, ""
	})
}

// Superuser пропускает только суперпользователей
func (a *Auth) Superuser(api huma.API) func(huma.Context, func(huma.Context)) {
	return a.middleware(api, func(u *user.User) (int, string) {
		if !u.IsSuperuser {
			return http.StatusBadRequest, msgNoPrivileges
		}
		return 0, ""
	})
}

func (a *Auth) middleware(api huma.API, check func(*user.User) (int, string)) func(huma.Context, func(huma.Context)) {
	return func(ctx huma.Context, next func(huma.Context)) {
		u, err := a.authenticate(ctx)
		switch {
		case errors.Is(err, errMissingToken), errors.Is(err, errInvalidToken):
			a.log.Debug("authentication failed",
				slog.String("request_id", requestid.FromContext(ctx.Context())),
				slog.String("path", ctx.URL().Path),
				slog.String("reason", err.Error()),
			)
			a.unauthorized(api, ctx)
			return
		case err != nil:
			a.log.Error("load user",
				slog.String("request_id", requestid.FromContext(ctx.Context())),
				slog.String("error", err.Error()),
			)
			a.writeErr(api, ctx, http.StatusInternalServerError, "")
			return
		case u == nil:
			a.unauthorized(api, ctx)
			return
		}

		if status, msg := check(u); status != 0 {
			a.writeErr(api, ctx, status, msg)
			return
		}

		next(huma.WithContext(ctx, WithUser(ctx.Context(), u)))
	}
}

// authenticate возвращает nil без ошибки, если токен валиден, но пользователя уже нет
func (a *Auth) authenticate(ctx huma.Context) (*user.User, error) {
	token, ok := bearer(ctx.Header("Authorization"))
	if !ok {
		return nil, errMissingToken
	}

	username, ok := a.tokens.Verify(token)
	if !ok {
		return nil, errInvalidToken
	}

	return a.users.GetByUsername(ctx.Context(), username)
}

func (a *Auth) unauthorized(api huma.API, ctx huma.Context) {
	ctx.SetHeader("WWW-Authenticate", "Bearer")
	a.writeErr(api, ctx, http.StatusUnauthorized, msgUnauthorized)
}

func (a *Auth) writeErr(api huma.API, ctx huma.Context, status int, msg string) {
	if err := huma.WriteErr(api, ctx, status, msg); err != nil {
		a.log.Error("write auth error", slog.String("error", err.Error()))
	}
}

func bearer(header string) (string, bool) {
	scheme, token, ok := strings.Cut(header, " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}

func WithUser(ctx context.Context, u *user.User) context.Context {
	return context.WithValue(ctx, userKey, u)
}

// CurrentUser - пользователь, положенный в контекст мидлварью
func CurrentUser(ctx context.Context) (*user.User, bool) {
	u, ok := ctx.Value(userKey).(*user.User)
	return u, ok && u != nil
}
