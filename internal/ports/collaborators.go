package ports

import (
	"context"

	"github.com/viralforge/mesh/services/marketing/M61-campaign-orchestrator/internal/domain"
)

// LandscapeAnalyzer.GetCached returns nil, nil when nothing is cached.
type LandscapeAnalyzer interface {
	GetCached(ctx context.Context, profileID string) (*domain.LandscapeAnalysis, error)
	Compute(ctx context.Context, profileID string) (domain.LandscapeAnalysis, error)
}

type StrategyPlanner interface {
	GetCached(ctx context.Context, profileID string) (*domain.StrategyPlan, error)
	Compute(ctx context.Context, profileID string) (domain.StrategyPlan, error)
}

type ContentGenerator interface {
	Generate(ctx context.Context, brief domain.ContentBrief) (domain.GeneratedContent, error)
}

type Repurposer interface {
	Repurpose(ctx context.Context, source domain.ContentPiece, rules domain.RepurposeRules, profileID string) (domain.RepurposedBatch, error)
}

type Publisher interface {
	Publish(ctx context.Context, req domain.PublishRequest) (domain.PublishResult, error)
}

type CostEstimator interface {
	Estimate(ctx context.Context, shape domain.CampaignShape) (domain.CostEstimate, error)
}

type SummaryArchive interface {
	Archive(ctx context.Context, campaign domain.Campaign, summary domain.ExecutionSummary) error
}
