package health

import (
	"net/http"

	"github.com/danielgtaylor/huma/v2"
)

func (h *Handler) healthCheckOp() huma.Operation {
	return huma.Operation{
		OperationID: "health-check",
		Method:      http.MethodGet,
		Path:        "/health",
		Summary:     "Health check endpoint",
		Description: "Returns the health status of the service",
		Tags:        []string{"health"},
		Middlewares: h.middleware,
	}
}

func (h *Handler) detailedOp() huma.Operation {
	return huma.Operation{
		OperationID: "health-detailed",
		Method:      http.MethodGet,
		Path:        "/health/detailed",
		Summary:     "Detailed health check",
		Description: "Checks database connectivity and required configuration",
		Tags:        []string{"health"},
		Middlewares: h.middleware,
	}
}

func (h *Handler) pingOp() huma.Operation {
	return huma.Operation{
		OperationID: "health-ping",
		Method:      http.MethodGet,
		Path:        "/health/ping",
		Summary:     "Ping for load balancers",
		Tags:        []string{"health"},
		Middlewares: h.middleware,
	}
}

func (h *Handler) rootOp() huma.Operation {
	return huma.Operation{
		OperationID: "service-info",
		Method:      http.MethodGet,
		Path:        "/",
		Summary:     "Service information",
		Tags:        []string{"health"},
		Middlewares: h.middleware,
	}
}
