package health

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/danielgtaylor/huma/v2"
	"golang.org/x/exp/slog"
)

const (
	statusHealthy   = "healthy"
	statusUnhealthy = "unhealthy"
)

type Pinger interface {
	Ping(ctx context.Context) error
}

// Info - статические сведения о сервисе для ответов health
type Info struct {
	Service     string
	Version     string
	Environment string
	DocsURL     string
	// Missing - незаданные обязательные параметры конфигурации
	Missing []string
}

type Handler struct {
	db         Pinger
	info       Info
	now        func() time.Time
	log        *slog.Logger
	middleware huma.Middlewares
}

func NewHandler(db Pinger, info Info, log *slog.Logger, middleware huma.Middlewares) *Handler {
	return &Handler{
		db:         db,
		info:       info,
		now:        time.Now,
		log:        log,
		middleware: middleware,
	}
}

func (h *Handler) SetupRoutes(api huma.API) {
	huma.Register(api, h.healthCheckOp(), h.healthCheck)
	huma.Register(api, h.detailedOp(), h.detailed)
	huma.Register(api, h.pingOp(), h.ping)
	huma.Register(api, h.rootOp(), h.root)
}

func (h *Handler) healthCheck(_ context.Context, _ *Input) (*Output, error) {
	h.log.Debug("health check request received")

	return &Output{
		Body: h.basic(),
	}, nil
}

func (h *Handler) detailed(ctx context.Context, _ *Input) (*DetailedOutput, error) {
	resp := DetailedResponse{
		Response:    h.basic(),
		Environment: h.info.Environment,
		Checks:      make(map[string]Check, 2),
	}

	if err := h.db.Ping(ctx); err != nil {
		h.log.Warn("database health check failed", "error", err)
		resp.Status = statusUnhealthy
		resp.Checks["database"] = Check{
			Status:  statusUnhealthy,
			Message: fmt.Sprintf("Database connection failed: %v", err),
		}
	} else {
		resp.Checks["database"] = Check{Status: statusHealthy, Message: "Database connection successful"}
	}

	if len(h.info.Missing) > 0 {
		resp.Status = statusUnhealthy
		resp.Checks["configuration"] = Check{
			Status:  statusUnhealthy,
			Message: "Configuration issues: " + strings.Join(h.info.Missing, ", "),
		}
	} else {
		resp.Checks["configuration"] = Check{Status: statusHealthy, Message: "All required configuration present"}
	}

	return &DetailedOutput{Body: resp}, nil
}

func (h *Handler) ping(_ context.Context, _ *Input) (*PingOutput, error) {
	out := &PingOutput{}
	out.Body.Message = "pong"
	return out, nil
}

func (h *Handler) root(_ context.Context, _ *Input) (*RootOutput, error) {
	out := &RootOutput{}
	out.Body.Message = h.info.Service + " is running"
	out.Body.Version = h.info.Version
	out.Body.DocsURL = h.info.DocsURL
	out.Body.Environment = h.info.Environment
	return out, nil
}

func (h *Handler) basic() Response {
	return Response{
		Status:    statusHealthy,
		Timestamp: h.now().UTC(),
		Service:   h.info.Service,
		Version:   h.info.Version,
	}
}
