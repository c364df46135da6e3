package application_test

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/viralforge/mesh/services/marketing/M61-campaign-orchestrator/internal/adapters/memory"
	"github.com/viralforge/mesh/services/marketing/M61-campaign-orchestrator/internal/application"
	"github.com/viralforge/mesh/services/marketing/M61-campaign-orchestrator/internal/domain"
	"github.com/viralforge/mesh/services/marketing/M61-campaign-orchestrator/internal/ports"
)

type fixture struct {
	service    *application.Service
	repos      memory.Repositories
	campaigns  *recordingCampaigns
	landscape  *fakeLandscape
	strategy   *fakeStrategy
	generator  *fakeGenerator
	repurposer *fakeRepurposer
	publisher  *fakePublisher
	estimator  *fakeEstimator
	archive    *fakeArchive
}

func newFixture(t *testing.T, cfg application.Config) *fixture {
	t.Helper()

	repos := memory.NewRepositories()
	f := &fixture{
		repos:      repos,
		campaigns:  &recordingCampaigns{CampaignRepository: repos.Campaigns},
		landscape:  &fakeLandscape{},
		strategy:   &fakeStrategy{},
		generator:  &fakeGenerator{blockOn: -1},
		repurposer: &fakeRepurposer{piecesPerPlatform: 1, reachPerPiece: 100},
		publisher:  &fakePublisher{fail: map[string]bool{}},
		estimator:  &fakeEstimator{},
		archive:    &fakeArchive{},
	}
	f.service = application.NewService(application.Dependencies{
		Config:     cfg,
		Campaigns:  f.campaigns,
		Contents:   repos.Contents,
		Logs:       repos.Logs,
		Outbox:     repos.Outbox,
		EventDedup: repos.EventDedup,
		StateCache: repos.StateCache,
		Artifacts:  repos.Artifacts,
		Landscape:  f.landscape,
		Strategy:   f.strategy,
		Generator:  f.generator,
		Repurposer: f.repurposer,
		Publisher:  f.publisher,
		Estimator:  f.estimator,
		Archive:    f.archive,
	})
	t.Cleanup(f.service.Shutdown)
	return f
}

// sibling builds a second service over the same storage and collaborators,
// standing in for another process sharing the database.
func (f *fixture) sibling(t *testing.T) *application.Service {
	t.Helper()

	svc := application.NewService(application.Dependencies{
		Campaigns:  f.campaigns,
		Contents:   f.repos.Contents,
		Logs:       f.repos.Logs,
		Outbox:     f.repos.Outbox,
		EventDedup: f.repos.EventDedup,
		StateCache: f.repos.StateCache,
		Artifacts:  f.repos.Artifacts,
		Landscape:  f.landscape,
		Strategy:   f.strategy,
		Generator:  f.generator,
		Repurposer: f.repurposer,
		Publisher:  f.publisher,
		Estimator:  f.estimator,
		Archive:    f.archive,
	})
	t.Cleanup(svc.Shutdown)
	return svc
}

// recordingCampaigns keeps every persisted snapshot in order.
type recordingCampaigns struct {
	ports.CampaignRepository

	mu        sync.Mutex
	snapshots []domain.OrchestrationState
}

func (r *recordingCampaigns) Update(ctx context.Context, params ports.UpdateCampaignParams) (domain.Campaign, error) {
	r.mu.Lock()
	r.snapshots = append(r.snapshots, params.State.Clone())
	r.mu.Unlock()
	return r.CampaignRepository.Update(ctx, params)
}

func (r *recordingCampaigns) history() []domain.OrchestrationState {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]domain.OrchestrationState(nil), r.snapshots...)
}

type fakeLandscape struct {
	mu       sync.Mutex
	cached   *domain.LandscapeAnalysis
	computed int
}

func (f *fakeLandscape) GetCached(_ context.Context, _ string) (*domain.LandscapeAnalysis, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.cached, nil
}

func (f *fakeLandscape) Compute(_ context.Context, profileID string) (domain.LandscapeAnalysis, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.computed++
	analysis := domain.LandscapeAnalysis{ProfileID: profileID, Summary: "crowded market", GeneratedAt: time.Now().UTC()}
	f.cached = &analysis
	return analysis, nil
}

type fakeStrategy struct {
	mu       sync.Mutex
	cached   *domain.StrategyPlan
	computed int
}

func (f *fakeStrategy) GetCached(_ context.Context, _ string) (*domain.StrategyPlan, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.cached, nil
}

func (f *fakeStrategy) Compute(_ context.Context, profileID string) (domain.StrategyPlan, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.computed++
	plan := domain.StrategyPlan{ProfileID: profileID, Summary: "educate then convert", Themes: []string{"savings"}}
	f.cached = &plan
	return plan, nil
}

// fakeGenerator blocks call number blockOn (1-based) until the run context
// is cancelled, reporting the campaign id on started first.
type fakeGenerator struct {
	mu      sync.Mutex
	calls   int
	blockOn int
	started chan string
}

func (f *fakeGenerator) Generate(ctx context.Context, brief domain.ContentBrief) (domain.GeneratedContent, error) {
	f.mu.Lock()
	f.calls++
	call := f.calls
	f.mu.Unlock()

	if call == f.blockOn {
		f.started <- brief.CampaignID
		<-ctx.Done()
		return domain.GeneratedContent{}, ctx.Err()
	}
	return domain.GeneratedContent{
		Title:           fmt.Sprintf("Post %d of %d", brief.Sequence, brief.Total),
		Content:         "three word body",
		WordCount:       3,
		MetaDescription: "meta",
	}, nil
}

func (f *fakeGenerator) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

type fakeRepurposer struct {
	mu                sync.Mutex
	piecesPerPlatform int
	reachPerPiece     int64
	err               error
	calls             int
}

func (f *fakeRepurposer) Repurpose(_ context.Context, source domain.ContentPiece, rules domain.RepurposeRules, _ string) (domain.RepurposedBatch, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.err != nil {
		return domain.RepurposedBatch{}, f.err
	}

	platforms := make([]string, 0, len(rules))
	for platform, rule := range rules {
		if rule.Enabled {
			platforms = append(platforms, platform)
		}
	}
	sort.Strings(platforms)

	batch := domain.RepurposedBatch{ContentID: source.ContentID}
	for _, platform := range platforms {
		out := domain.PlatformOutput{Platform: platform}
		for i := 0; i < f.piecesPerPlatform; i++ {
			out.Pieces = append(out.Pieces, domain.RepurposedPiece{Body: source.Title + " for " + platform})
		}
		batch.Generated = append(batch.Generated, out)
		batch.TotalPieces += f.piecesPerPlatform
	}
	batch.EstimatedReach = int64(batch.TotalPieces) * f.reachPerPiece
	return batch, nil
}

func (f *fakeRepurposer) setErr(err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.err = err
}

type fakePublisher struct {
	mu    sync.Mutex
	fail  map[string]bool
	calls int
}

func (f *fakePublisher) Publish(_ context.Context, req domain.PublishRequest) (domain.PublishResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	result := domain.PublishResult{}
	for _, item := range req.Content {
		if f.fail[item.Platform] {
			result.Results = append(result.Results, domain.PublishItemResult{Platform: item.Platform, Error: "rate limited"})
			continue
		}
		result.Successful++
		result.Results = append(result.Results, domain.PublishItemResult{Platform: item.Platform, Success: true, ExternalID: "ext"})
	}
	return result, nil
}

// fakeEstimator prices 10 per content piece, 2 per repurposed piece, 1 per
// published piece and 0.5 per platform day.
type fakeEstimator struct {
	mu     sync.Mutex
	shapes []domain.CampaignShape
}

func (f *fakeEstimator) Estimate(_ context.Context, shape domain.CampaignShape) (domain.CostEstimate, error) {
	f.mu.Lock()
	f.shapes = append(f.shapes, shape)
	f.mu.Unlock()

	total := 10*float64(shape.ContentPieces) +
		2*float64(shape.RepurposedPieces) +
		float64(shape.PublishedPieces) +
		0.5*float64(shape.DurationDays*len(shape.Platforms))
	return domain.CostEstimate{
		Summary:       domain.CostSummary{TotalEstimate: total},
		ROIProjection: domain.ROIProjection{ROI: "150.0%", ProjectedValue: total * 2.5},
	}, nil
}

// fakeArchive optionally reports on started and waits for release before
// storing the summary.
type fakeArchive struct {
	mu        sync.Mutex
	summaries map[string]domain.ExecutionSummary
	started   chan string
	release   chan struct{}
}

func (f *fakeArchive) Archive(_ context.Context, campaign domain.Campaign, summary domain.ExecutionSummary) error {
	if f.started != nil {
		f.started <- campaign.CampaignID
		<-f.release
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.summaries == nil {
		f.summaries = make(map[string]domain.ExecutionSummary)
	}
	f.summaries[campaign.CampaignID] = summary
	return nil
}

func intPtr(v int) *int { return &v }
