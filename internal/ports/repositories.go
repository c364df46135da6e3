package ports

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/viralforge/mesh/services/marketing/M61-campaign-orchestrator/internal/domain"
)

// UpdateCampaignParams always carries the full state; snapshots are
// overwritten wholesale.
type UpdateCampaignParams struct {
	CampaignID      string
	Status          domain.CampaignStatus
	BudgetUsed      float64
	BudgetRemaining float64
	ActualCost      float64
	CompletedAt     *time.Time
	State           domain.OrchestrationState
	UpdatedAt       time.Time
}

type CampaignRepository interface {
	Create(ctx context.Context, campaign domain.Campaign) (domain.Campaign, error)
	Update(ctx context.Context, params UpdateCampaignParams) (domain.Campaign, error)
	GetByID(ctx context.Context, campaignID string) (domain.Campaign, error)
	ListByProfile(ctx context.Context, profileID string, limit int) ([]domain.Campaign, error)
}

type ContentRepository interface {
	Create(ctx context.Context, piece domain.ContentPiece) error
	ListByCampaign(ctx context.Context, campaignID string) ([]domain.ContentPiece, error)
}

// LogRepository is the append-only history behind the windowed state log.
type LogRepository interface {
	Append(ctx context.Context, campaignID string, entry domain.LogEntry) error
	ListByCampaign(ctx context.Context, campaignID string) ([]domain.LogEntry, error)
}

type OutboxEvent struct {
	EventID          uuid.UUID
	EventType        string
	PartitionKey     string
	PartitionKeyPath string
	Payload          []byte
	OccurredAt       time.Time
	SchemaVersion    string
	TraceID          string
}

type OutboxRecord struct {
	OutboxID     uuid.UUID
	EventType    string
	PartitionKey string
	Payload      []byte
	RetryCount   int
	PublishedAt  *time.Time
	LastError    *string
	LastErrorAt  *time.Time
	FirstSeenAt  time.Time
}

type OutboxRepository interface {
	Enqueue(ctx context.Context, event OutboxEvent) error
	FetchUnpublished(ctx context.Context, limit int) ([]OutboxRecord, error)
	MarkPublished(ctx context.Context, outboxID uuid.UUID, at time.Time) error
	MarkFailed(ctx context.Context, outboxID uuid.UUID, errMsg string, at time.Time) error
}

type EventDedupRepository interface {
	IsDuplicate(ctx context.Context, eventID string, now time.Time) (bool, error)
	MarkProcessed(ctx context.Context, eventID, eventType string, expiresAt time.Time) error
}
