package http

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/viralforge/mesh/services/marketing/M61-campaign-orchestrator/internal/adapters/archive"
	"github.com/viralforge/mesh/services/marketing/M61-campaign-orchestrator/internal/adapters/collaborators"
	"github.com/viralforge/mesh/services/marketing/M61-campaign-orchestrator/internal/adapters/memory"
	"github.com/viralforge/mesh/services/marketing/M61-campaign-orchestrator/internal/adapters/pricing"
	"github.com/viralforge/mesh/services/marketing/M61-campaign-orchestrator/internal/application"
	"github.com/viralforge/mesh/services/marketing/M61-campaign-orchestrator/internal/domain"
)

type envelope struct {
	Status  string          `json:"status"`
	Code    string          `json:"code"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

func newTestServer(t *testing.T, ready ReadinessCheck) *httptest.Server {
	t.Helper()
	repos := memory.NewRepositories()
	sandbox := collaborators.NewSandbox(nil)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	svc := application.NewService(application.Dependencies{
		Logger:     logger,
		Campaigns:  repos.Campaigns,
		Contents:   repos.Contents,
		Logs:       repos.Logs,
		Outbox:     repos.Outbox,
		EventDedup: repos.EventDedup,
		StateCache: repos.StateCache,
		Artifacts:  repos.Artifacts,
		Landscape:  sandbox.Landscape,
		Strategy:   sandbox.Strategy,
		Generator:  sandbox.Generator,
		Repurposer: sandbox.Repurposer,
		Publisher:  sandbox.Publisher,
		Estimator:  pricing.NewCalculator(pricing.DefaultRateCard()),
		Archive:    archive.Noop{},
	})
	t.Cleanup(svc.Shutdown)
	srv := httptest.NewServer(NewRouter(NewHandler(svc, logger, ready)))
	t.Cleanup(srv.Close)
	return srv
}

func do(t *testing.T, method, url string, body any) (*http.Response, envelope) {
	t.Helper()
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}
	req, err := http.NewRequest(method, url, reader)
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	var env envelope
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&env))
	return resp, env
}

func TestCampaignLifecycleOverHTTP(t *testing.T) {
	srv := newTestServer(t, nil)
	blogs := 1

	resp, env := do(t, http.MethodPost, srv.URL+"/v1/campaigns", application.LaunchRequest{
		ProfileID:          "p-1",
		CampaignName:       "Fall Sale",
		Mode:               domain.ModeSemiAuto,
		Budget:             500,
		Platforms:          []string{"twitter"},
		ContentPreferences: domain.ContentPreferences{Blogs: &blogs},
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	assert.NotEmpty(t, resp.Header.Get("X-Request-Id"))
	var launched application.LaunchResult
	require.NoError(t, json.Unmarshal(env.Data, &launched))
	assert.True(t, launched.Success)
	assert.Equal(t, application.RunStatusAwaitingApproval, launched.Status)

	base := srv.URL + "/v1/campaigns/" + launched.CampaignID

	resp, env = do(t, http.MethodGet, base+"/state", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var state domain.OrchestrationState
	require.NoError(t, json.Unmarshal(env.Data, &state))
	assert.True(t, state.AwaitingApproval)

	resp, env = do(t, http.MethodPost, base+"/resume", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var resumed application.LaunchResult
	require.NoError(t, json.Unmarshal(env.Data, &resumed))
	assert.Equal(t, application.RunStatusCompleted, resumed.Status)
	require.NotNil(t, resumed.Summary)
	assert.Equal(t, 1, resumed.Summary.TotalContent)

	resp, env = do(t, http.MethodPost, base+"/pause", nil)
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
	assert.Equal(t, "CONFLICT", env.Code)

	resp, env = do(t, http.MethodGet, base+"/log", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var entries []domain.LogEntry
	require.NoError(t, json.Unmarshal(env.Data, &entries))
	assert.NotEmpty(t, entries)

	resp, env = do(t, http.MethodGet, srv.URL+"/v1/campaigns?profile_id=p-1", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var list []domain.Campaign
	require.NoError(t, json.Unmarshal(env.Data, &list))
	require.Len(t, list, 1)
	assert.Equal(t, domain.CampaignStatusActive, list[0].Status)
}

func TestErrorMapping(t *testing.T) {
	srv := newTestServer(t, nil)

	resp, env := do(t, http.MethodGet, srv.URL+"/v1/campaigns/does-not-exist", nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.Equal(t, "error", env.Status)
	assert.Equal(t, "NOT_FOUND", env.Code)

	resp, env = do(t, http.MethodPost, srv.URL+"/v1/campaigns", map[string]any{
		"profile_id":    "p-1",
		"campaign_name": "x",
		"budget":        100,
	})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "VALIDATION_ERROR", env.Code)

	resp, env = do(t, http.MethodPost, srv.URL+"/v1/campaigns", map[string]any{"unexpected": true})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "invalid json body", env.Message)

	resp, _ = do(t, http.MethodGet, srv.URL+"/v1/campaigns", nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestReadiness(t *testing.T) {
	healthy := newTestServer(t, func(context.Context) error { return nil })
	resp, _ := do(t, http.MethodGet, healthy.URL+"/readyz", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	down := newTestServer(t, func(context.Context) error { return errors.New("connection refused") })
	resp, env := do(t, http.MethodGet, down.URL+"/readyz", nil)
	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
	assert.Equal(t, "NOT_READY", env.Code)
}

func TestMapDomainErrorRunning(t *testing.T) {
	status, code, _ := mapDomainError(domain.ErrCampaignRunning)
	assert.Equal(t, http.StatusConflict, status)
	assert.Equal(t, "CAMPAIGN_RUNNING", code)
}
