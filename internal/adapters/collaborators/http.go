package collaborators

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"time"

	"github.com/viralforge/mesh/services/marketing/M61-campaign-orchestrator/internal/domain"
	"github.com/viralforge/mesh/services/marketing/M61-campaign-orchestrator/internal/ports"
)

// HTTPLandscape talks to the market landscape service:
// GET /landscape/{profile} for the cached analysis, POST to recompute.
type HTTPLandscape struct {
	client jsonClient
}

func NewHTTPLandscape(baseURL string, httpClient *http.Client, timeout time.Duration) *HTTPLandscape {
	return &HTTPLandscape{client: newJSONClient(baseURL, httpClient, timeout)}
}

func (c *HTTPLandscape) GetCached(ctx context.Context, profileID string) (*domain.LandscapeAnalysis, error) {
	var out domain.LandscapeAnalysis
	err := c.client.do(ctx, http.MethodGet, "/landscape/"+url.PathEscape(profileID), nil, &out)
	if errors.Is(err, errNotCached) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *HTTPLandscape) Compute(ctx context.Context, profileID string) (domain.LandscapeAnalysis, error) {
	var out domain.LandscapeAnalysis
	err := c.client.do(ctx, http.MethodPost, "/landscape/"+url.PathEscape(profileID), struct{}{}, &out)
	return out, err
}

type HTTPStrategy struct {
	client jsonClient
}

func NewHTTPStrategy(baseURL string, httpClient *http.Client, timeout time.Duration) *HTTPStrategy {
	return &HTTPStrategy{client: newJSONClient(baseURL, httpClient, timeout)}
}

func (c *HTTPStrategy) GetCached(ctx context.Context, profileID string) (*domain.StrategyPlan, error) {
	var out domain.StrategyPlan
	err := c.client.do(ctx, http.MethodGet, "/strategy/"+url.PathEscape(profileID), nil, &out)
	if errors.Is(err, errNotCached) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *HTTPStrategy) Compute(ctx context.Context, profileID string) (domain.StrategyPlan, error) {
	var out domain.StrategyPlan
	err := c.client.do(ctx, http.MethodPost, "/strategy/"+url.PathEscape(profileID), struct{}{}, &out)
	return out, err
}

// HTTPGenerator is used when no GenAI key is configured but a content
// service is.
type HTTPGenerator struct {
	client jsonClient
}

func NewHTTPGenerator(baseURL string, httpClient *http.Client, timeout time.Duration) *HTTPGenerator {
	return &HTTPGenerator{client: newJSONClient(baseURL, httpClient, timeout)}
}

func (c *HTTPGenerator) Generate(ctx context.Context, brief domain.ContentBrief) (domain.GeneratedContent, error) {
	var out domain.GeneratedContent
	err := c.client.do(ctx, http.MethodPost, "/content/generate", brief, &out)
	return out, err
}

type HTTPRepurposer struct {
	client jsonClient
}

func NewHTTPRepurposer(baseURL string, httpClient *http.Client, timeout time.Duration) *HTTPRepurposer {
	return &HTTPRepurposer{client: newJSONClient(baseURL, httpClient, timeout)}
}

type repurposeRequest struct {
	ProfileID string                `json:"profile_id"`
	Source    domain.ContentPiece   `json:"source"`
	Rules     domain.RepurposeRules `json:"rules"`
}

func (c *HTTPRepurposer) Repurpose(ctx context.Context, source domain.ContentPiece, rules domain.RepurposeRules, profileID string) (domain.RepurposedBatch, error) {
	var out domain.RepurposedBatch
	err := c.client.do(ctx, http.MethodPost, "/repurpose", repurposeRequest{ProfileID: profileID, Source: source, Rules: rules}, &out)
	if err != nil {
		return domain.RepurposedBatch{}, err
	}
	if out.ContentID == "" {
		out.ContentID = source.ContentID
	}
	return out, nil
}

type HTTPPublisher struct {
	client jsonClient
}

func NewHTTPPublisher(baseURL string, httpClient *http.Client, timeout time.Duration) *HTTPPublisher {
	return &HTTPPublisher{client: newJSONClient(baseURL, httpClient, timeout)}
}

func (c *HTTPPublisher) Publish(ctx context.Context, req domain.PublishRequest) (domain.PublishResult, error) {
	var out domain.PublishResult
	err := c.client.do(ctx, http.MethodPost, "/publish", req, &out)
	return out, err
}

var (
	_ ports.LandscapeAnalyzer = (*HTTPLandscape)(nil)
	_ ports.StrategyPlanner   = (*HTTPStrategy)(nil)
	_ ports.ContentGenerator  = (*HTTPGenerator)(nil)
	_ ports.Repurposer        = (*HTTPRepurposer)(nil)
	_ ports.Publisher         = (*HTTPPublisher)(nil)
)
