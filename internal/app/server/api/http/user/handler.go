package user

import (
	"context"
	"errors"
	"time"

	"github.com/danielgtaylor/huma/v2"
	"golang.org/x/exp/slog"

	"memvoice/internal/app/server/api/http/apierr"
	"memvoice/internal/app/server/api/http/middleware"
	"memvoice/internal/app/server/api/http/middleware/auth"
	"memvoice/internal/domain/user"
)

type TokenIssuer interface {
	Issue(subject string, ttl time.Duration) (string, error)
}

type Handler struct {
	service user.Servicer
	tokens  TokenIssuer
	log     *slog.Logger
	mw      middleware.Chains
}

func NewHandler(service user.Servicer, tokens TokenIssuer, log *slog.Logger, mw middleware.Chains) *Handler {
	return &Handler{
		service: service,
		tokens:  tokens,
		log:     log.With(slog.String("component", "user_handler")),
		mw:      mw,
	}
}

func (h *Handler) SetupRoutes(api huma.API) {
	huma.Register(api, h.registerOp(), h.register)
	huma.Register(api, h.loginOp(), h.login)
	huma.Register(api, h.authMeOp(), h.me)
	huma.Register(api, h.readMeOp(), h.me)
	huma.Register(api, h.updateMeOp(), h.updateMe)
	huma.Register(api, h.findOp(), h.find)
	huma.Register(api, h.updateOp(), h.update)
}

func (h *Handler) register(ctx context.Context, input *registerInput) (*userOutput, error) {
	// флаг суперпользователя через регистрацию не выставляется
	u, err := h.service.Create(ctx, user.CreateInput{
		Email:    input.Body.Email,
		Username: input.Body.Username,
		Password: input.Body.Password,
		FullName: input.Body.FullName,
		IsActive: true,
	})
	if err != nil {
		return nil, h.mapErr(ctx, err)
	}

	h.log.Info("user registered", slog.Int("user_id", u.ID))
	return &userOutput{Body: u}, nil
}

func (h *Handler) login(ctx context.Context, input *loginInput) (*loginOutput, error) {
	u, err := h.service.Authenticate(ctx, input.Body.Username, input.Body.Password)
	if err != nil {
		return nil, apierr.Internal(ctx, h.log, err)
	}
	if u == nil {
		return nil, huma.Error401Unauthorized("Incorrect username or password")
	}
	if !u.IsActive {
		return nil, huma.Error400BadRequest("Inactive user")
	}

	// ttl 0 - срок жизни из конфигурации
	token, err := h.tokens.Issue(u.Username, 0)
	if err != nil {
		return nil, apierr.Internal(ctx, h.log, err)
	}

	return &loginOutput{
		Body: TokenResponse{AccessToken: token, TokenType: "bearer"},
	}, nil
}

func (h *Handler) me(ctx context.Context, _ *struct{}) (*userOutput, error) {
	u, ok := auth.CurrentUser(ctx)
	if !ok {
		return nil, huma.Error401Unauthorized("Could not validate credentials")
	}
	return &userOutput{Body: u}, nil
}

func (h *Handler) updateMe(ctx context.Context, input *updateMeInput) (*userOutput, error) {
	current, ok := auth.CurrentUser(ctx)
	if !ok {
		return nil, huma.Error401Unauthorized("Could not validate credentials")
	}

	in := input.Body.toInput()
	// свой статус суперпользователя менять нельзя
	in.IsSuperuser = nil

	return h.updateUser(ctx, current.ID, in)
}

func (h *Handler) find(ctx context.Context, input *findInput) (*userOutput, error) {
	u, err := h.service.GetByID(ctx, input.ID)
	if err != nil {
		return nil, apierr.Internal(ctx, h.log, err)
	}
	if u == nil {
		return nil, huma.Error404NotFound("User not found")
	}
	return &userOutput{Body: u}, nil
}

func (h *Handler) update(ctx context.Context, input *updateInput) (*userOutput, error) {
	return h.updateUser(ctx, input.ID, input.Body.toInput())
}

func (h *Handler) updateUser(ctx context.Context, id int, in user.UpdateInput) (*userOutput, error) {
	u, err := h.service.Update(ctx, id, in)
	if err != nil {
		return nil, h.mapErr(ctx, err)
	}
	if u == nil {
		return nil, huma.Error404NotFound("User not found")
	}
	return &userOutput{Body: u}, nil
}

func (h *Handler) mapErr(ctx context.Context, err error) error {
	switch {
	case errors.Is(err, user.ErrDuplicate), errors.Is(err, user.ErrInvalidInput):
		return huma.Error400BadRequest(err.Error())
	default:
		return apierr.Internal(ctx, h.log, err)
	}
}
