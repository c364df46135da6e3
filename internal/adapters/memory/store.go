package memory

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

type store struct {
	mu sync.RWMutex

	campaigns map[string]domain.Campaign
	contents  map[string][]domain.ContentPiece
	logs      map[string][]domain.LogEntry
	outbox    []ports.OutboxRecord
	states    map[string]cachedState
	batches   map[string]map[string]domain.RepurposedBatch
	dedup     map[string]time.Time
}

type cachedState struct {
	state     domain.OrchestrationState
	expiresAt time.Time
}

// Repositories is the in-process storage used by tests and local launches.
type Repositories struct {
	Campaigns  *CampaignRepository
	Contents   *ContentRepository
	Logs       *LogRepository
	Outbox     *OutboxRepository
	StateCache *StateCache
	Artifacts  *ArtifactStore
	EventDedup *EventDedupRepository
}

func NewRepositories() Repositories {
	s := &store{
		campaigns: make(map[string]domain.Campaign),
		contents:  make(map[string][]domain.ContentPiece),
		logs:      make(map[string][]domain.LogEntry),
		outbox:    make([]ports.OutboxRecord, 0),
		states:    make(map[string]cachedState),
		batches:   make(map[string]map[string]domain.RepurposedBatch),
		dedup:     make(map[string]time.Time),
	}
	return Repositories{
		Campaigns:  &CampaignRepository{s: s},
		Contents:   &ContentRepository{s: s},
		Logs:       &LogRepository{s: s},
		Outbox:     &OutboxRepository{s: s},
		StateCache: &StateCache{s: s, now: func() time.Time { return time.Now().UTC() }},
		Artifacts:  &ArtifactStore{s: s},
		EventDedup: &EventDedupRepository{s: s},
	}
}

type CampaignRepository struct {
	s *store
}

func (r *CampaignRepository) Create(_ context.Context, campaign domain.Campaign) (domain.Campaign, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, exists := r.s.campaigns[campaign.CampaignID]; exists {
		return domain.Campaign{}, fmt.Errorf("%w: campaign %s already exists", domain.ErrConflict, campaign.CampaignID)
	}
	campaign = cloneCampaign(campaign)
	r.s.campaigns[campaign.CampaignID] = campaign
	return cloneCampaign(campaign), nil
}

func (r *CampaignRepository) Update(_ context.Context, params ports.UpdateCampaignParams) (domain.Campaign, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	campaign, exists := r.s.campaigns[params.CampaignID]
	if !exists {
		return domain.Campaign{}, domain.ErrNotFound
	}
	campaign.Status = params.Status
	campaign.BudgetUsed = params.BudgetUsed
	campaign.BudgetRemaining = params.BudgetRemaining
	campaign.ActualCost = params.ActualCost
	campaign.CompletedAt = params.CompletedAt
	campaign.State = params.State.Clone()
	campaign.UpdatedAt = params.UpdatedAt
	r.s.campaigns[params.CampaignID] = campaign
	return cloneCampaign(campaign), nil
}

func (r *CampaignRepository) GetByID(_ context.Context, campaignID string) (domain.Campaign, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	campaign, exists := r.s.campaigns[strings.TrimSpace(campaignID)]
	if !exists {
		return domain.Campaign{}, domain.ErrNotFound
	}
	return cloneCampaign(campaign), nil
}

func (r *CampaignRepository) ListByProfile(_ context.Context, profileID string, limit int) ([]domain.Campaign, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	items := make([]domain.Campaign, 0)
	for _, campaign := range r.s.campaigns {
		if campaign.ProfileID != profileID {
			continue
		}
		items = append(items, cloneCampaign(campaign))
	}
	sort.Slice(items, func(i, j int) bool {
		return items[i].CreatedAt.After(items[j].CreatedAt)
	})
	if limit > 0 && len(items) > limit {
		items = items[:limit]
	}
	return items, nil
}

func cloneCampaign(c domain.Campaign) domain.Campaign {
	out := c
	out.State = c.State.Clone()
	out.Platforms = append([]string(nil), c.Platforms...)
	if c.ContentPreferences.Blogs != nil {
		blogs := *c.ContentPreferences.Blogs
		out.ContentPreferences.Blogs = &blogs
	}
	if c.RepurposeRules != nil {
		out.RepurposeRules = make(domain.RepurposeRules, len(c.RepurposeRules))
		for k, v := range c.RepurposeRules {
			out.RepurposeRules[k] = v
		}
	}
	if c.CompletedAt != nil {
		at := *c.CompletedAt
		out.CompletedAt = &at
	}
	return out
}

type ContentRepository struct {
	s *store
}

func (r *ContentRepository) Create(_ context.Context, piece domain.ContentPiece) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	for _, existing := range r.s.contents[piece.CampaignID] {
		if existing.ContentID == piece.ContentID {
			return fmt.Errorf("%w: content %s already exists", domain.ErrConflict, piece.ContentID)
		}
	}
	r.s.contents[piece.CampaignID] = append(r.s.contents[piece.CampaignID], piece)
	return nil
}

func (r *ContentRepository) ListByCampaign(_ context.Context, campaignID string) ([]domain.ContentPiece, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	items := append([]domain.ContentPiece(nil), r.s.contents[campaignID]...)
	sort.SliceStable(items, func(i, j int) bool {
		return items[i].Sequence < items[j].Sequence
	})
	return items, nil
}

type LogRepository struct {
	s *store
}

func (r *LogRepository) Append(_ context.Context, campaignID string, entry domain.LogEntry) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	r.s.logs[campaignID] = append(r.s.logs[campaignID], entry)
	return nil
}

func (r *LogRepository) ListByCampaign(_ context.Context, campaignID string) ([]domain.LogEntry, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	return append([]domain.LogEntry(nil), r.s.logs[campaignID]...), nil
}

type OutboxRepository struct {
	s *store
}

func (r *OutboxRepository) Enqueue(_ context.Context, event ports.OutboxEvent) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	r.s.outbox = append(r.s.outbox, ports.OutboxRecord{
		OutboxID:     event.EventID,
		EventType:    event.EventType,
		PartitionKey: event.PartitionKey,
		Payload:      append([]byte(nil), event.Payload...),
		FirstSeenAt:  event.OccurredAt,
	})
	return nil
}

func (r *OutboxRepository) FetchUnpublished(_ context.Context, limit int) ([]ports.OutboxRecord, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	items := make([]ports.OutboxRecord, 0, limit)
	for _, record := range r.s.outbox {
		if record.PublishedAt != nil {
			continue
		}
		items = append(items, record)
		if limit > 0 && len(items) == limit {
			break
		}
	}
	return items, nil
}

func (r *OutboxRepository) MarkPublished(_ context.Context, outboxID uuid.UUID, at time.Time) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	for i := range r.s.outbox {
		if r.s.outbox[i].OutboxID == outboxID {
			published := at
			r.s.outbox[i].PublishedAt = &published
			return nil
		}
	}
	return domain.ErrNotFound
}

func (r *OutboxRepository) MarkFailed(_ context.Context, outboxID uuid.UUID, errMsg string, at time.Time) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	for i := range r.s.outbox {
		if r.s.outbox[i].OutboxID == outboxID {
			msg := errMsg
			failedAt := at
			r.s.outbox[i].RetryCount++
			r.s.outbox[i].LastError = &msg
			r.s.outbox[i].LastErrorAt = &failedAt
			return nil
		}
	}
	return domain.ErrNotFound
}

// EventTypes lists every enqueued event type in order.
func (r *OutboxRepository) EventTypes() []string {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	out := make([]string, 0, len(r.s.outbox))
	for _, record := range r.s.outbox {
		out = append(out, record.EventType)
	}
	return out
}

type StateCache struct {
	s   *store
	now func() time.Time
}

func (c *StateCache) Put(_ context.Context, state domain.OrchestrationState, ttl time.Duration) error {
	c.s.mu.Lock()
	defer c.s.mu.Unlock()

	c.s.states[state.CampaignID] = cachedState{state: state.Clone(), expiresAt: c.now().Add(ttl)}
	return nil
}

func (c *StateCache) Get(_ context.Context, campaignID string) (*domain.OrchestrationState, error) {
	c.s.mu.RLock()
	defer c.s.mu.RUnlock()

	item, ok := c.s.states[campaignID]
	if !ok || !c.now().Before(item.expiresAt) {
		return nil, nil
	}
	state := item.state.Clone()
	return &state, nil
}

type ArtifactStore struct {
	s *store
}

func (a *ArtifactStore) PutBatch(_ context.Context, campaignID string, batch domain.RepurposedBatch) error {
	a.s.mu.Lock()
	defer a.s.mu.Unlock()

	byContent, ok := a.s.batches[campaignID]
	if !ok {
		byContent = make(map[string]domain.RepurposedBatch)
		a.s.batches[campaignID] = byContent
	}
	byContent[batch.ContentID] = batch
	return nil
}

func (a *ArtifactStore) ListBatches(_ context.Context, campaignID string) (map[string]domain.RepurposedBatch, error) {
	a.s.mu.RLock()
	defer a.s.mu.RUnlock()

	out := make(map[string]domain.RepurposedBatch, len(a.s.batches[campaignID]))
	for k, v := range a.s.batches[campaignID] {
		out[k] = v
	}
	return out, nil
}

type EventDedupRepository struct {
	s *store
}

func (r *EventDedupRepository) IsDuplicate(_ context.Context, eventID string, now time.Time) (bool, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	expiresAt, ok := r.s.dedup[eventID]
	return ok && expiresAt.After(now), nil
}

func (r *EventDedupRepository) MarkProcessed(_ context.Context, eventID, _ string, expiresAt time.Time) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	r.s.dedup[eventID] = expiresAt
	return nil
}
