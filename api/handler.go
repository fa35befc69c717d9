// Package api exposes the gateway over HTTP. Handlers only translate
// requests into pipeline calls; everything user-visible is decided inside
// the pipeline.
package api

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/xiaot623/modgate/monitor"
	"github.com/xiaot623/modgate/pipeline"
	"github.com/xiaot623/modgate/session"
)

// Submitter is the pipeline entry point used by the handlers.
type Submitter interface {
	Submit(ctx context.Context, sessionID, userID, text string) pipeline.Result
}

// Handler holds the HTTP dependencies.
type Handler struct {
	pipeline Submitter
	sessions *session.Store
	monitor  *monitor.Monitor
	hub      *monitor.Hub
	logger   *slog.Logger
}

// NewHandler creates a Handler.
func NewHandler(pipeline Submitter, sessions *session.Store, mon *monitor.Monitor, hub *monitor.Hub, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{
		pipeline: pipeline,
		sessions: sessions,
		monitor:  mon,
		hub:      hub,
		logger:   logger,
	}
}

// RegisterRoutes registers all routes on the echo instance.
func (h *Handler) RegisterRoutes(e *echo.Echo) {
	e.POST("/v1/sessions/:session_id/messages", h.SubmitMessage)
	e.GET("/v1/sessions/:session_id/messages", h.GetMessages)
	e.GET("/v1/monitor", h.GetMonitor)
	e.GET("/ws/monitor", h.MonitorStream)
	e.GET("/healthz", h.Health)
}

// Health is the liveness endpoint.
func (h *Handler) Health(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
}
