package http

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/viralforge/mesh/services/marketing/M61-campaign-orchestrator/internal/application"
)

const maxLaunchBody = 1 << 20

func (h *Handler) readyz(w http.ResponseWriter, r *http.Request) {
	if h.ready != nil {
		if err := h.ready(r.Context()); err != nil {
			h.logger.WarnContext(r.Context(), "readiness check failed",
				"module", "http.handlers",
				"layer", "adapter",
				"operation", "readyz",
				"error", err,
			)
			writeError(w, http.StatusServiceUnavailable, "NOT_READY", "storage unavailable")
			return
		}
	}
	writeMessage(w, http.StatusOK, "ready")
}

// launchCampaign runs the campaign to its first stopping point before
// responding. A workflow failure is still a 200 with success=false; only
// requests that never started a run get an error status.
func (h *Handler) launchCampaign(w http.ResponseWriter, r *http.Request) {
	var req application.LaunchRequest
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxLaunchBody))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "VALIDATION_ERROR", "invalid json body")
		return
	}
	res, err := h.service.LaunchCampaign(r.Context(), req)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeSuccess(w, http.StatusCreated, res)
}

func (h *Handler) listCampaigns(w http.ResponseWriter, r *http.Request) {
	items, err := h.service.ListCampaigns(r.Context(), r.URL.Query().Get("profile_id"))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeSuccess(w, http.StatusOK, items)
}

func (h *Handler) getCampaign(w http.ResponseWriter, r *http.Request) {
	campaign, err := h.service.GetCampaign(r.Context(), campaignID(r))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeSuccess(w, http.StatusOK, campaign)
}

func (h *Handler) getState(w http.ResponseWriter, r *http.Request) {
	state, err := h.service.GetState(r.Context(), campaignID(r))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeSuccess(w, http.StatusOK, state)
}

func (h *Handler) getLog(w http.ResponseWriter, r *http.Request) {
	entries, err := h.service.ListLog(r.Context(), campaignID(r))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeSuccess(w, http.StatusOK, entries)
}

func (h *Handler) pauseCampaign(w http.ResponseWriter, r *http.Request) {
	campaign, err := h.service.PauseCampaign(r.Context(), campaignID(r))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeSuccess(w, http.StatusOK, campaign)
}

func (h *Handler) resumeCampaign(w http.ResponseWriter, r *http.Request) {
	res, err := h.service.ResumeCampaign(r.Context(), campaignID(r))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeSuccess(w, http.StatusOK, res)
}

func campaignID(r *http.Request) string {
	return strings.TrimSpace(chi.URLParam(r, "campaign_id"))
}
