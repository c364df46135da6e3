package collaborators

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/genai"

	"github.com/viralforge/mesh/services/marketing/M61-campaign-orchestrator/internal/domain"
)

func TestHTTPLandscapeCachedAndCompute(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.Method == http.MethodGet && r.URL.Path == "/landscape/missing":
			http.NotFound(w, r)
		case r.Method == http.MethodGet && r.URL.Path == "/landscape/p-1":
			_ = json.NewEncoder(w).Encode(domain.LandscapeAnalysis{ProfileID: "p-1", Summary: "cached"})
		case r.Method == http.MethodPost && r.URL.Path == "/landscape/p-1":
			assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
			_ = json.NewEncoder(w).Encode(domain.LandscapeAnalysis{ProfileID: "p-1", Summary: "fresh"})
		default:
			w.WriteHeader(http.StatusInternalServerError)
		}
	}))
	defer srv.Close()

	client := NewHTTPLandscape(srv.URL+"/", srv.Client(), time.Second)
	ctx := context.Background()

	miss, err := client.GetCached(ctx, "missing")
	require.NoError(t, err)
	assert.Nil(t, miss)

	hit, err := client.GetCached(ctx, "p-1")
	require.NoError(t, err)
	require.NotNil(t, hit)
	assert.Equal(t, "cached", hit.Summary)

	fresh, err := client.Compute(ctx, "p-1")
	require.NoError(t, err)
	assert.Equal(t, "fresh", fresh.Summary)

	_, err = client.Compute(ctx, "broken")
	require.ErrorIs(t, err, domain.ErrDependencyUnavailable)
}

func TestHTTPPublisherClientErrorIsNotDependencyFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req domain.PublishRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		if req.CampaignID == "bad" {
			http.Error(w, "unknown platform", http.StatusUnprocessableEntity)
			return
		}
		_ = json.NewEncoder(w).Encode(domain.PublishResult{
			Successful: 1,
			Results:    []domain.PublishItemResult{{Platform: req.Content[0].Platform, Success: true}},
		})
	}))
	defer srv.Close()

	client := NewHTTPPublisher(srv.URL, srv.Client(), time.Second)
	res, err := client.Publish(context.Background(), domain.PublishRequest{
		CampaignID: "c-1",
		Content:    []domain.PublishItem{{Platform: "linkedin", Body: "hello"}},
	})
	require.NoError(t, err)
	assert.Equal(t, 1, res.Successful)

	_, err = client.Publish(context.Background(), domain.PublishRequest{
		CampaignID: "bad",
		Content:    []domain.PublishItem{{Platform: "linkedin"}},
	})
	require.Error(t, err)
	assert.False(t, errors.Is(err, domain.ErrDependencyUnavailable))
	assert.Contains(t, err.Error(), "unknown platform")
}

func TestHTTPClientHonoursTimeout(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer srv.Close()
	defer close(release)

	client := NewHTTPStrategy(srv.URL, srv.Client(), 20*time.Millisecond)
	_, err := client.Compute(context.Background(), "p-1")
	require.Error(t, err)
}

type stubModels struct {
	text   string
	err    error
	prompt string
}

func (s *stubModels) GenerateContent(_ context.Context, _ string, contents []*genai.Content, _ *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error) {
	if len(contents) > 0 && len(contents[0].Parts) > 0 {
		s.prompt = contents[0].Parts[0].Text
	}
	if s.err != nil {
		return nil, s.err
	}
	return &genai.GenerateContentResponse{
		Candidates: []*genai.Candidate{{
			Content: &genai.Content{Parts: []*genai.Part{{Text: s.text}}},
		}},
	}, nil
}

func TestGenAIGeneratorParsesJSONAndFallsBack(t *testing.T) {
	brief := domain.ContentBrief{
		ProfileID:    "p-1",
		CampaignName: "Fall Sale",
		ContentType:  domain.ContentTypeBlog,
		Sequence:     2,
		Total:        3,
		Strategy:     domain.StrategyPlan{Summary: "educate", Themes: []string{"savings"}},
	}

	models := &stubModels{text: "```json\n{\"title\":\"Save more\",\"content\":\"one two three four\",\"metaDescription\":\"m\"}\n```"}
	gen := &GenAIGenerator{models: models, model: "test-model"}
	out, err := gen.Generate(context.Background(), brief)
	require.NoError(t, err)
	assert.Equal(t, "Save more", out.Title)
	assert.Equal(t, 4, out.WordCount)
	assert.Contains(t, models.prompt, "2 of 3")
	assert.Contains(t, models.prompt, "savings")

	models.text = "Plain prose about savings"
	out, err = gen.Generate(context.Background(), brief)
	require.NoError(t, err)
	assert.Equal(t, "Fall Sale part 2", out.Title)
	assert.Equal(t, "Plain prose about savings", out.Content)
	assert.Equal(t, 4, out.WordCount)

	models.err = errors.New("quota exceeded")
	_, err = gen.Generate(context.Background(), brief)
	require.ErrorIs(t, err, domain.ErrDependencyUnavailable)
}

func TestSandboxRepurposerHonoursRules(t *testing.T) {
	sandbox := NewSandbox(nil)
	rules := domain.RepurposeRules{
		"twitter":  {Enabled: true, MaxPieces: 2, IncludeHashtags: true},
		"linkedin": {Enabled: true},
		"facebook": {Enabled: false},
	}
	batch, err := sandbox.Repurposer.Repurpose(context.Background(), domain.ContentPiece{ContentID: "c-1", Title: "Post"}, rules, "p-1")
	require.NoError(t, err)
	assert.Equal(t, "c-1", batch.ContentID)
	assert.Equal(t, 3, batch.TotalPieces)
	assert.Equal(t, int64(750), batch.EstimatedReach)
	require.Len(t, batch.Generated, 2)
	assert.Equal(t, "linkedin", batch.Generated[0].Platform)
	assert.Equal(t, []string{"#twitter"}, batch.Generated[1].Pieces[0].Hashtags)
}

func TestSandboxLandscapeCachesAfterCompute(t *testing.T) {
	sandbox := NewSandbox(func() time.Time { return time.Unix(0, 0).UTC() })
	ctx := context.Background()

	cached, err := sandbox.Landscape.GetCached(ctx, "p-1")
	require.NoError(t, err)
	assert.Nil(t, cached)

	_, err = sandbox.Landscape.Compute(ctx, "p-1")
	require.NoError(t, err)
	cached, err = sandbox.Landscape.GetCached(ctx, "p-1")
	require.NoError(t, err)
	require.NotNil(t, cached)
	assert.Equal(t, "p-1", cached.ProfileID)
}
