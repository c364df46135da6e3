package application

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/viralforge/mesh/services/marketing/M61-campaign-orchestrator/internal/domain"
	"github.com/viralforge/mesh/services/marketing/M61-campaign-orchestrator/internal/ports"
)

const (
	eventCampaignLaunched         = "campaign.launched"
	eventStageCompleted           = "campaign.stage_completed"
	eventCampaignPaused           = "campaign.paused"
	eventCampaignResumed          = "campaign.resumed"
	eventCampaignCompleted        = "campaign.completed"
	eventCampaignFailed           = "campaign.failed"
	eventCampaignAwaitingApproval = "campaign.awaiting_approval"
)

// enqueueCampaignEvent writes a lifecycle event to the outbox. The outbox
// relay publishes it later, so failures here never fail the workflow.
func (s *Service) enqueueCampaignEvent(ctx context.Context, eventType string, campaign domain.Campaign, extra map[string]any) {
	if s.outbox == nil {
		return
	}
	occurredAt := s.nowFn()
	data := map[string]any{
		"campaign_id": campaign.CampaignID,
		"profile_id":  campaign.ProfileID,
		"mode":        string(campaign.Mode),
		"status":      string(campaign.Status),
		"phase":       string(campaign.State.Phase),
		"progress":    campaign.State.Progress,
	}
	for k, v := range extra {
		data[k] = v
	}
	payloadEnvelope := map[string]any{
		"event_id":           uuid.NewString(),
		"event_type":         eventType,
		"occurred_at":        occurredAt.Format(time.RFC3339),
		"source_service":     s.cfg.ServiceName,
		"trace_id":           "",
		"schema_version":     "1.0",
		"partition_key_path": "data.campaign_id",
		"partition_key":      campaign.CampaignID,
		"data":               data,
	}
	payload, _ := json.Marshal(payloadEnvelope)
	err := s.outbox.Enqueue(context.WithoutCancel(ctx), ports.OutboxEvent{
		EventID:          uuid.New(),
		EventType:        eventType,
		PartitionKey:     campaign.CampaignID,
		PartitionKeyPath: "data.campaign_id",
		Payload:          payload,
		OccurredAt:       occurredAt,
		SchemaVersion:    "1.0",
	})
	if err != nil {
		s.logger.Warn("outbox enqueue failed",
			"operation", "enqueue_event",
			"event_type", eventType,
			"campaign_id", campaign.CampaignID,
			"error", err,
		)
	}
}
