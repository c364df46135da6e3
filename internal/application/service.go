package application

import (
	"log/slog"
	"time"

	"github.com/viralforge/mesh/services/marketing/M61-campaign-orchestrator/internal/domain"
	"github.com/viralforge/mesh/services/marketing/M61-campaign-orchestrator/internal/ports"
)

type Config struct {
	ServiceName string
	// DefaultBlogQuota applies when a request leaves contentPreferences.blogs unset.
	DefaultBlogQuota int
	// LogWindow caps the log kept inside the state snapshot; the log
	// repository keeps the full history.
	LogWindow      int
	StateCacheTTL  time.Duration
	ListLimit      int
	MinutesPerItem int
	EventDedupTTL  time.Duration
}

type Service struct {
	cfg        Config
	logger     *slog.Logger
	campaigns  ports.CampaignRepository
	contents   ports.ContentRepository
	logs       ports.LogRepository
	outbox     ports.OutboxRepository
	eventDedup ports.EventDedupRepository
	stateCache ports.StateCache
	artifacts  ports.ArtifactStore
	landscape  ports.LandscapeAnalyzer
	strategy   ports.StrategyPlanner
	generator  ports.ContentGenerator
	repurposer ports.Repurposer
	publisher  ports.Publisher
	estimator  ports.CostEstimator
	archive    ports.SummaryArchive
	drivers    map[domain.Mode]ModeDriver
	runs       *runRegistry
	nowFn      func() time.Time
}

type Dependencies struct {
	Config     Config
	Logger     *slog.Logger
	Campaigns  ports.CampaignRepository
	Contents   ports.ContentRepository
	Logs       ports.LogRepository
	Outbox     ports.OutboxRepository
	EventDedup ports.EventDedupRepository
	StateCache ports.StateCache
	Artifacts  ports.ArtifactStore
	Landscape  ports.LandscapeAnalyzer
	Strategy   ports.StrategyPlanner
	Generator  ports.ContentGenerator
	Repurposer ports.Repurposer
	Publisher  ports.Publisher
	Estimator  ports.CostEstimator
	Archive    ports.SummaryArchive
	Clock      func() time.Time
}

func NewService(deps Dependencies) *Service {
	cfg := deps.Config
	if cfg.ServiceName == "" {
		cfg.ServiceName = "M61-Campaign-Orchestrator"
	}
	if cfg.DefaultBlogQuota <= 0 {
		cfg.DefaultBlogQuota = domain.DefaultBlogQuota
	}
	if cfg.LogWindow == 0 {
		cfg.LogWindow = 500
	}
	if cfg.StateCacheTTL <= 0 {
		cfg.StateCacheTTL = 24 * time.Hour
	}
	if cfg.ListLimit <= 0 {
		cfg.ListLimit = 50
	}
	if cfg.MinutesPerItem <= 0 {
		cfg.MinutesPerItem = 2
	}
	if cfg.EventDedupTTL <= 0 {
		cfg.EventDedupTTL = 7 * 24 * time.Hour
	}
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}
	nowFn := deps.Clock
	if nowFn == nil {
		nowFn = func() time.Time { return time.Now().UTC() }
	}

	s := &Service{
		cfg:        cfg,
		logger:     logger.With("module", "application", "layer", "application"),
		campaigns:  deps.Campaigns,
		contents:   deps.Contents,
		logs:       deps.Logs,
		outbox:     deps.Outbox,
		eventDedup: deps.EventDedup,
		stateCache: deps.StateCache,
		artifacts:  deps.Artifacts,
		landscape:  deps.Landscape,
		strategy:   deps.Strategy,
		generator:  deps.Generator,
		repurposer: deps.Repurposer,
		publisher:  deps.Publisher,
		estimator:  deps.Estimator,
		archive:    deps.Archive,
		runs:       newRunRegistry(),
		nowFn:      nowFn,
	}
	full := &fullAutoDriver{svc: s}
	s.drivers = map[domain.Mode]ModeDriver{
		domain.ModeFullAuto: full,
		domain.ModeSemiAuto: &semiAutoDriver{svc: s},
		domain.ModeHybrid:   &hybridDriver{full: full},
	}
	return s
}

// Shutdown pauses every in-flight run so that it can be resumed later.
func (s *Service) Shutdown() {
	s.runs.cancelAll(errShutdownPause)
}
