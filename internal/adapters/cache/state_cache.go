package cache

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/viralforge/mesh/services/marketing/M61-campaign-orchestrator/internal/domain"
	"github.com/viralforge/mesh/services/marketing/M61-campaign-orchestrator/internal/ports"
)

// RedisStateCache keeps the latest orchestration snapshot per campaign for
// polling clients.
type RedisStateCache struct {
	client *redis.Client
}

func NewRedisStateCache(client *redis.Client) *RedisStateCache {
	return &RedisStateCache{client: client}
}

func (c *RedisStateCache) Put(ctx context.Context, state domain.OrchestrationState, ttl time.Duration) error {
	raw, err := json.Marshal(state)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, stateKey(state.CampaignID), raw, ttl).Err()
}

func (c *RedisStateCache) Get(ctx context.Context, campaignID string) (*domain.OrchestrationState, error) {
	raw, err := c.client.Get(ctx, stateKey(campaignID)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, err
	}
	var state domain.OrchestrationState
	if err := json.Unmarshal(raw, &state); err != nil {
		return nil, err
	}
	return &state, nil
}

var _ ports.StateCache = (*RedisStateCache)(nil)
