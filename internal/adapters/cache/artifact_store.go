package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/viralforge/mesh/services/marketing/M61-campaign-orchestrator/internal/domain"
	"github.com/viralforge/mesh/services/marketing/M61-campaign-orchestrator/internal/ports"
)

// RedisArtifactStore keeps repurposed batches in one hash per campaign,
// keyed by content id. The hash expires ttl after the last write; a paused
// campaign resumed after that reports domain.ErrArtifactsExpired.
type RedisArtifactStore struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedisArtifactStore(client *redis.Client, ttl time.Duration) *RedisArtifactStore {
	if ttl <= 0 {
		ttl = 7 * 24 * time.Hour
	}
	return &RedisArtifactStore{client: client, ttl: ttl}
}

func (s *RedisArtifactStore) PutBatch(ctx context.Context, campaignID string, batch domain.RepurposedBatch) error {
	raw, err := json.Marshal(batch)
	if err != nil {
		return err
	}
	key := artifactKey(campaignID)
	_, err = s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.HSet(ctx, key, batch.ContentID, raw)
		pipe.Expire(ctx, key, s.ttl)
		return nil
	})
	return err
}

func (s *RedisArtifactStore) ListBatches(ctx context.Context, campaignID string) (map[string]domain.RepurposedBatch, error) {
	fields, err := s.client.HGetAll(ctx, artifactKey(campaignID)).Result()
	if err != nil {
		return nil, err
	}
	out := make(map[string]domain.RepurposedBatch, len(fields))
	for contentID, raw := range fields {
		var batch domain.RepurposedBatch
		if err := json.Unmarshal([]byte(raw), &batch); err != nil {
			return nil, fmt.Errorf("decode batch %s: %w", contentID, err)
		}
		out[contentID] = batch
	}
	return out, nil
}

var _ ports.ArtifactStore = (*RedisArtifactStore)(nil)
