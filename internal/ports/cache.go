package ports

import (
	"context"
	"time"

	"github.com/viralforge/mesh/services/marketing/M61-campaign-orchestrator/internal/domain"
)

// StateCache holds the latest snapshot for polling clients. Get returns
// nil, nil on a miss.
type StateCache interface {
	Put(ctx context.Context, state domain.OrchestrationState, ttl time.Duration) error
	Get(ctx context.Context, campaignID string) (*domain.OrchestrationState, error)
}

// ArtifactStore keeps repurposed batches between the repurposing and
// publishing stages so that publishing can resume after a pause.
type ArtifactStore interface {
	PutBatch(ctx context.Context, campaignID string, batch domain.RepurposedBatch) error
	ListBatches(ctx context.Context, campaignID string) (map[string]domain.RepurposedBatch, error)
}
