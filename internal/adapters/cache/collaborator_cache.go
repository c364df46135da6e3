package cache

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/viralforge/mesh/services/marketing/M61-campaign-orchestrator/internal/domain"
	"github.com/viralforge/mesh/services/marketing/M61-campaign-orchestrator/internal/ports"
)

// CachedLandscape serves GetCached from redis first and stores every
// computed analysis. Redis errors degrade to the wrapped analyzer.
type CachedLandscape struct {
	next   ports.LandscapeAnalyzer
	client *redis.Client
	ttl    time.Duration
	logger *slog.Logger
}

func NewCachedLandscape(next ports.LandscapeAnalyzer, client *redis.Client, ttl time.Duration, logger *slog.Logger) *CachedLandscape {
	return &CachedLandscape{next: next, client: client, ttl: ttl, logger: logger}
}

func (c *CachedLandscape) GetCached(ctx context.Context, profileID string) (*domain.LandscapeAnalysis, error) {
	var out domain.LandscapeAnalysis
	hit, err := getJSON(ctx, c.client, landscapeKey(profileID), &out)
	if err != nil {
		c.logger.WarnContext(ctx, "landscape cache read failed",
			"module", "cache.collaborators",
			"layer", "adapter",
			"operation", "get_cached_landscape",
			"error", err,
		)
	}
	if hit {
		return &out, nil
	}
	return c.next.GetCached(ctx, profileID)
}

func (c *CachedLandscape) Compute(ctx context.Context, profileID string) (domain.LandscapeAnalysis, error) {
	out, err := c.next.Compute(ctx, profileID)
	if err != nil {
		return domain.LandscapeAnalysis{}, err
	}
	if err := setJSON(ctx, c.client, landscapeKey(profileID), out, c.ttl); err != nil {
		c.logger.WarnContext(ctx, "landscape cache write failed",
			"module", "cache.collaborators",
			"layer", "adapter",
			"operation", "compute_landscape",
			"error", err,
		)
	}
	return out, nil
}

type CachedStrategy struct {
	next   ports.StrategyPlanner
	client *redis.Client
	ttl    time.Duration
	logger *slog.Logger
}

func NewCachedStrategy(next ports.StrategyPlanner, client *redis.Client, ttl time.Duration, logger *slog.Logger) *CachedStrategy {
	return &CachedStrategy{next: next, client: client, ttl: ttl, logger: logger}
}

func (c *CachedStrategy) GetCached(ctx context.Context, profileID string) (*domain.StrategyPlan, error) {
	var out domain.StrategyPlan
	hit, err := getJSON(ctx, c.client, strategyKey(profileID), &out)
	if err != nil {
		c.logger.WarnContext(ctx, "strategy cache read failed",
			"module", "cache.collaborators",
			"layer", "adapter",
			"operation", "get_cached_strategy",
			"error", err,
		)
	}
	if hit {
		return &out, nil
	}
	return c.next.GetCached(ctx, profileID)
}

func (c *CachedStrategy) Compute(ctx context.Context, profileID string) (domain.StrategyPlan, error) {
	out, err := c.next.Compute(ctx, profileID)
	if err != nil {
		return domain.StrategyPlan{}, err
	}
	if err := setJSON(ctx, c.client, strategyKey(profileID), out, c.ttl); err != nil {
		c.logger.WarnContext(ctx, "strategy cache write failed",
			"module", "cache.collaborators",
			"layer", "adapter",
			"operation", "compute_strategy",
			"error", err,
		)
	}
	return out, nil
}

func getJSON(ctx context.Context, client *redis.Client, key string, out any) (bool, error) {
	raw, err := client.Get(ctx, key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return false, nil
		}
		return false, err
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return false, err
	}
	return true, nil
}

func setJSON(ctx context.Context, client *redis.Client, key string, v any, ttl time.Duration) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return client.Set(ctx, key, raw, ttl).Err()
}

var (
	_ ports.LandscapeAnalyzer = (*CachedLandscape)(nil)
	_ ports.StrategyPlanner   = (*CachedStrategy)(nil)
)
