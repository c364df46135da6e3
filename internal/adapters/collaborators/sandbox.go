package collaborators

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/viralforge/mesh/services/marketing/M61-campaign-orchestrator/internal/domain"
	"github.com/viralforge/mesh/services/marketing/M61-campaign-orchestrator/internal/ports"
)

// Sandbox is a deterministic, network-free set of collaborators for local
// runs and the launch command.
type Sandbox struct {
	Landscape  *SandboxLandscape
	Strategy   *SandboxStrategy
	Generator  *SandboxGenerator
	Repurposer *SandboxRepurposer
	Publisher  *SandboxPublisher
}

func NewSandbox(now func() time.Time) Sandbox {
	if now == nil {
		now = func() time.Time { return time.Now().UTC() }
	}
	return Sandbox{
		Landscape:  &SandboxLandscape{now: now, cache: map[string]domain.LandscapeAnalysis{}},
		Strategy:   &SandboxStrategy{now: now, cache: map[string]domain.StrategyPlan{}},
		Generator:  &SandboxGenerator{},
		Repurposer: &SandboxRepurposer{ReachPerPiece: 250},
		Publisher:  &SandboxPublisher{},
	}
}

type SandboxLandscape struct {
	mu    sync.Mutex
	now   func() time.Time
	cache map[string]domain.LandscapeAnalysis
}

func (s *SandboxLandscape) GetCached(_ context.Context, profileID string) (*domain.LandscapeAnalysis, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out, ok := s.cache[profileID]
	if !ok {
		return nil, nil
	}
	return &out, nil
}

func (s *SandboxLandscape) Compute(ctx context.Context, profileID string) (domain.LandscapeAnalysis, error) {
	if err := ctx.Err(); err != nil {
		return domain.LandscapeAnalysis{}, err
	}
	out := domain.LandscapeAnalysis{
		ProfileID:     profileID,
		Summary:       "Three direct competitors publish weekly; long-form guides are underserved.",
		Competitors:   []string{"competitor-a", "competitor-b", "competitor-c"},
		Opportunities: []string{"how-to guides", "customer stories"},
		GeneratedAt:   s.now(),
	}
	s.mu.Lock()
	s.cache[profileID] = out
	s.mu.Unlock()
	return out, nil
}

type SandboxStrategy struct {
	mu    sync.Mutex
	now   func() time.Time
	cache map[string]domain.StrategyPlan
}

func (s *SandboxStrategy) GetCached(_ context.Context, profileID string) (*domain.StrategyPlan, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out, ok := s.cache[profileID]
	if !ok {
		return nil, nil
	}
	return &out, nil
}

func (s *SandboxStrategy) Compute(ctx context.Context, profileID string) (domain.StrategyPlan, error) {
	if err := ctx.Err(); err != nil {
		return domain.StrategyPlan{}, err
	}
	out := domain.StrategyPlan{
		ProfileID:   profileID,
		Summary:     "Lead with practical guides, then convert with social proof.",
		Themes:      []string{"education", "social proof"},
		Channels:    []string{"blog", "linkedin", "twitter"},
		GeneratedAt: s.now(),
	}
	s.mu.Lock()
	s.cache[profileID] = out
	s.mu.Unlock()
	return out, nil
}

type SandboxGenerator struct{}

func (SandboxGenerator) Generate(ctx context.Context, brief domain.ContentBrief) (domain.GeneratedContent, error) {
	if err := ctx.Err(); err != nil {
		return domain.GeneratedContent{}, err
	}
	theme := "our product"
	if len(brief.Strategy.Themes) > 0 {
		theme = brief.Strategy.Themes[(brief.Sequence-1)%len(brief.Strategy.Themes)]
	}
	title := fmt.Sprintf("%s: %s guide %d of %d", brief.CampaignName, theme, brief.Sequence, brief.Total)
	body := fmt.Sprintf("%s. %s", title, brief.Strategy.Summary)
	return domain.GeneratedContent{
		Title:           title,
		Content:         body,
		WordCount:       len(strings.Fields(body)),
		MetaDescription: fmt.Sprintf("Part %d of the %s series.", brief.Sequence, brief.CampaignName),
	}, nil
}

// SandboxRepurposer produces one piece per enabled platform, or MaxPieces
// when a rule sets it.
type SandboxRepurposer struct {
	ReachPerPiece int64
}

func (s SandboxRepurposer) Repurpose(ctx context.Context, source domain.ContentPiece, rules domain.RepurposeRules, _ string) (domain.RepurposedBatch, error) {
	if err := ctx.Err(); err != nil {
		return domain.RepurposedBatch{}, err
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
		rule := rules[platform]
		count := rule.MaxPieces
		if count <= 0 {
			count = 1
		}
		out := domain.PlatformOutput{Platform: platform}
		for i := 0; i < count; i++ {
			piece := domain.RepurposedPiece{Platform: platform, Body: source.Title}
			if rule.IncludeHashtags {
				piece.Hashtags = []string{"#" + strings.ReplaceAll(strings.ToLower(platform), " ", "")}
			}
			out.Pieces = append(out.Pieces, piece)
		}
		batch.Generated = append(batch.Generated, out)
		batch.TotalPieces += count
	}
	batch.EstimatedReach = int64(batch.TotalPieces) * s.ReachPerPiece
	return batch, nil
}

// SandboxPublisher accepts everything and fails only the platforms listed in
// Reject.
type SandboxPublisher struct {
	Reject map[string]bool
}

func (s SandboxPublisher) Publish(ctx context.Context, req domain.PublishRequest) (domain.PublishResult, error) {
	if err := ctx.Err(); err != nil {
		return domain.PublishResult{}, err
	}
	out := domain.PublishResult{Results: make([]domain.PublishItemResult, 0, len(req.Content))}
	for _, item := range req.Content {
		if s.Reject[item.Platform] {
			out.Results = append(out.Results, domain.PublishItemResult{Platform: item.Platform, Error: "rejected by sandbox"})
			continue
		}
		out.Successful++
		out.Results = append(out.Results, domain.PublishItemResult{
			Platform:   item.Platform,
			Success:    true,
			ExternalID: uuid.NewString(),
		})
	}
	return out, nil
}

var (
	_ ports.LandscapeAnalyzer = (*SandboxLandscape)(nil)
	_ ports.StrategyPlanner   = (*SandboxStrategy)(nil)
	_ ports.ContentGenerator  = SandboxGenerator{}
	_ ports.Repurposer        = SandboxRepurposer{}
	_ ports.Publisher         = SandboxPublisher{}
)
