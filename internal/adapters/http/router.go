package http

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/viralforge/mesh/services/marketing/M61-campaign-orchestrator/internal/application"
)

// ReadinessCheck reports whether storage is reachable.
type ReadinessCheck func(ctx context.Context) error

type Handler struct {
	service *application.Service
	logger  *slog.Logger
	ready   ReadinessCheck
}

func NewHandler(service *application.Service, logger *slog.Logger, ready ReadinessCheck) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{service: service, logger: logger, ready: ready}
}

func NewRouter(handler *Handler) http.Handler {
	r := chi.NewRouter()
	r.Use(requestIDMiddleware)
	r.Use(recoverMiddleware(handler.logger))
	r.Use(loggingMiddleware(handler.logger))

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) { writeMessage(w, http.StatusOK, "ok") })
	r.Get("/readyz", handler.readyz)

	r.Route("/v1/campaigns", func(r chi.Router) {
		r.Post("/", handler.launchCampaign)
		r.Get("/", handler.listCampaigns)
		r.Route("/{campaign_id}", func(r chi.Router) {
			r.Get("/", handler.getCampaign)
			r.Get("/state", handler.getState)
			r.Get("/log", handler.getLog)
			r.Post("/pause", handler.pauseCampaign)
			r.Post("/resume", handler.resumeCampaign)
		})
	})
	return r
}
