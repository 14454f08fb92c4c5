package memory

import (
	"context"
	"errors"

	"github.com/danielgtaylor/huma/v2"
	"golang.org/x/exp/slog"

	"memvoice/internal/app/server/api/http/apierr"
	"memvoice/internal/app/server/api/http/middleware"
	"memvoice/internal/app/server/api/http/middleware/auth"
	"memvoice/internal/domain/memory"
	"memvoice/internal/domain/user"
)

const (
	msgNotFound  = "Memory not found"
	msgForbidden = "Not enough permissions for this memory"
)

type Handler struct {
	service memory.Servicer
	log     *slog.Logger
	mw      middleware.Chains
}

func NewHandler(service memory.Servicer, log *slog.Logger, mw middleware.Chains) *Handler {
	return &Handler{
		service: service,
		log:     log.With(slog.String("component", "memory_handler")),
		mw:      mw,
	}
}

func (h *Handler) SetupRoutes(api huma.API) {
	huma.Register(api, h.createOp(), h.create)
	huma.Register(api, h.searchOp(), h.search)
	huma.Register(api, h.cleanupOp(), h.cleanup)
	huma.Register(api, h.findOp(), h.find)
	huma.Register(api, h.updateOp(), h.update)
	huma.Register(api, h.deleteOp(), h.delete)
}

func (h *Handler) create(ctx context.Context, input *createInput) (*entryOutput, error) {
	current, ok := auth.CurrentUser(ctx)
	if !ok {
		return nil, huma.Error401Unauthorized("Could not validate credentials")
	}

	owner, err := targetUser(current, input.Body.UserID)
	if err != nil {
		return nil, err
	}

	e, err := h.service.Create(ctx, memory.CreateInput{
		UserID:         owner,
		Content:        input.Body.Content,
		Meta:           input.Body.Meta,
		RelevanceScore: input.Body.RelevanceScore,
		ExpiresAt:      input.Body.ExpiresAt,
	})
	if err != nil {
		return nil, h.mapErr(ctx, err)
	}

	return &entryOutput{Body: e}, nil
}

func (h *Handler) find(ctx context.Context, input *idInput) (*entryOutput, error) {
	e, err := h.owned(ctx, input.ID)
	if err != nil {
		return nil, err
	}
	return &entryOutput{Body: e}, nil
}

func (h *Handler) update(ctx context.Context, input *updateInput) (*entryOutput, error) {
	if _, err := h.owned(ctx, input.ID); err != nil {
		return nil, err
	}

	in := memory.UpdateInput{
		Content: input.Body.Content,
		Meta:    input.Body.Meta,
	}
	in.RelevanceScore, in.ClearRelevanceScore = input.Body.RelevanceScore.get()
	in.ExpiresAt, in.ClearExpiresAt = input.Body.ExpiresAt.get()

	e, err := h.service.Update(ctx, input.ID, in)
	if err != nil {
		return nil, h.mapErr(ctx, err)
	}
	if e == nil {
		return nil, huma.Error404NotFound(msgNotFound)
	}

	return &entryOutput{Body: e}, nil
}

func (h *Handler) delete(ctx context.Context, input *idInput) (*deleteOutput, error) {
	if _, err := h.owned(ctx, input.ID); err != nil {
		return nil, err
	}

	ok, err := h.service.Delete(ctx, input.ID)
	if err != nil {
		return nil, h.mapErr(ctx, err)
	}
	if !ok {
		return nil, huma.Error404NotFound(msgNotFound)
	}

	out := &deleteOutput{}
	out.Body.Status = "success"
	return out, nil
}

func (h *Handler) search(ctx context.Context, input *searchInput) (*searchOutput, error) {
	current, ok := auth.CurrentUser(ctx)
	if !ok {
		return nil, huma.Error401Unauthorized("Could not validate credentials")
	}

	var requested *int
	if input.UserID != 0 {
		requested = &input.UserID
	}
	owner, err := targetUser(current, requested)
	if err != nil {
		return nil, err
	}

	entries, err := h.service.Search(ctx, memory.Query{
		UserID:       owner,
		Text:         input.Query,
		Limit:        input.Limit,
		MinRelevance: input.MinRelevance,
	})
	if err != nil {
		return nil, h.mapErr(ctx, err)
	}

	return &searchOutput{Body: entries}, nil
}

func (h *Handler) cleanup(ctx context.Context, _ *struct{}) (*cleanupOutput, error) {
	count, err := h.service.CleanupExpired(ctx)
	if err != nil {
		h.log.Warn("cleanup interrupted", slog.Int("cleaned_up_count", count))
		return nil, h.mapErr(ctx, err)
	}

	out := &cleanupOutput{}
	out.Body.CleanedUpCount = count
	return out, nil
}

// owned загружает запись и проверяет, что она принадлежит текущему пользователю
func (h *Handler) owned(ctx context.Context, id int) (*memory.Entry, error) {
	current, ok := auth.CurrentUser(ctx)
	if !ok {
		return nil, huma.Error401Unauthorized("Could not validate credentials")
	}

	e, err := h.service.Get(ctx, id)
	if err != nil {
		return nil, h.mapErr(ctx, err)
	}
	if e == nil {
		return nil, huma.Error404NotFound(msgNotFound)
	}
	if e.UserID != current.ID && !current.IsSuperuser {
		return nil, huma.Error403Forbidden(msgForbidden)
	}

	return e, nil
}

// targetUser - чужой user_id доступен только суперпользователю
func targetUser(current *user.User, requested *int) (int, error) {
	if requested == nil || *requested == current.ID {
		return current.ID, nil
	}
	if !current.IsSuperuser {
		return 0, huma.Error403Forbidden(msgForbidden)
	}
	return *requested, nil
}

func (h *Handler) mapErr(ctx context.Context, err error) error {
	switch {
	case errors.Is(err, memory.ErrInvalidInput):
		return huma.Error400BadRequest(err.Error())
	case errors.Is(err, memory.ErrNotFound):
		return huma.Error404NotFound(msgNotFound)
	default:
		return apierr.Internal(ctx, h.log, err)
	}
}
