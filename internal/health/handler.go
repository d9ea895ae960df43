package health

import (
	"context"
	"time"

	"github.com/danielgtaylor/huma/v2"
)

const checkTimeout = 2 * time.Second

// Checker defines the interface for checking a dependency's health.
type Checker interface {
	Ping(ctx context.Context) error
}

// Handler handles health check operations.
type Handler struct {
	redis    Checker
	postgres Checker
}

// NewHandler creates a new health handler. postgres may be nil when the
// service runs without a durable store.
func NewHandler(redis, postgres Checker) *Handler {
	return &Handler{redis: redis, postgres: postgres}
}

// Response is the response for health check endpoint.
type Response struct {
	Body struct {
		Status   string `json:"status"`
		Redis    string `json:"redis"`
		Postgres string `json:"postgres,omitempty"`
	}
}

// Check performs a health check of the application and its dependencies.
func (h *Handler) Check(ctx context.Context, _ *struct{}) (*Response, error) {
	resp := &Response{}
	resp.Body.Status = "ok"

	resp.Body.Redis = probe(ctx, h.redis)
	if resp.Body.Redis != "healthy" {
		resp.Body.Status = "degraded"
	}

	if h.postgres != nil {
		resp.Body.Postgres = probe(ctx, h.postgres)
		if resp.Body.Postgres != "healthy" {
			resp.Body.Status = "degraded"
		}
	}

	return resp, nil
}

func probe(ctx context.Context, c Checker) string {
	ctx, cancel := context.WithTimeout(ctx, checkTimeout)
	defer cancel()

	if err := c.Ping(ctx); err != nil {
		return "unhealthy"
	}

	return "healthy"
}

// RegisterRoutes registers health check routes.
func RegisterRoutes(api huma.API, h *Handler) {
	huma.Get(api, "/health", h.Check)
}
