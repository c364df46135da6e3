package application_test

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/viralforge/mesh/services/marketing/M61-campaign-orchestrator/internal/application"
	"github.com/viralforge/mesh/services/marketing/M61-campaign-orchestrator/internal/domain"
)

func envelope(t *testing.T, eventID, eventType string, data any) []byte {
	t.Helper()
	raw, err := json.Marshal(map[string]any{
		"event_id":   eventID,
		"event_type": eventType,
		"data":       data,
	})
	require.NoError(t, err)
	return raw
}

func TestLaunchCommandIsDeduplicated(t *testing.T) {
	t.Parallel()

	f := newFixture(t, application.Config{})
	ctx := context.Background()
	payload := envelope(t, "evt-launch-1", application.TopicLaunchRequested, fallSaleRequest())

	res, err := f.service.HandleLaunchRequested(ctx, payload)
	require.NoError(t, err)
	assert.Equal(t, application.RunStatusCompleted, res.Status)

	again, err := f.service.HandleLaunchRequested(ctx, payload)
	require.NoError(t, err)
	assert.Empty(t, again.CampaignID)

	campaigns, err := f.service.ListCampaigns(ctx, "p1")
	require.NoError(t, err)
	assert.Len(t, campaigns, 1)
}

func TestCommandPayloadValidation(t *testing.T) {
	t.Parallel()

	f := newFixture(t, application.Config{})
	ctx := context.Background()

	_, err := f.service.HandleLaunchRequested(ctx, []byte("{not json"))
	require.ErrorIs(t, err, domain.ErrInvalidInput)

	err = f.service.HandlePauseRequested(ctx, envelope(t, "evt-p", application.TopicPauseRequested, map[string]any{}))
	require.ErrorIs(t, err, domain.ErrInvalidInput)

	_, err = f.service.HandleResumeRequested(ctx, envelope(t, "evt-r", application.TopicResumeRequested, map[string]any{"campaign_id": "missing"}))
	require.ErrorIs(t, err, domain.ErrNotFound)
}

func TestPauseAndResumeCommandsDriveApprovalHold(t *testing.T) {
	t.Parallel()

	f := newFixture(t, application.Config{})
	ctx := context.Background()
	req := fallSaleRequest()
	req.Mode = domain.ModeSemiAuto

	held, err := f.service.HandleLaunchRequested(ctx, envelope(t, "evt-1", application.TopicLaunchRequested, req))
	require.NoError(t, err)
	require.Equal(t, application.RunStatusAwaitingApproval, held.Status)

	target := map[string]any{"campaign_id": held.CampaignID}
	require.NoError(t, f.service.HandlePauseRequested(ctx, envelope(t, "evt-2", application.TopicPauseRequested, target)))

	res, err := f.service.HandleResumeRequested(ctx, envelope(t, "evt-3", application.TopicResumeRequested, target))
	require.NoError(t, err)
	assert.Equal(t, application.RunStatusCompleted, res.Status)

	// A redelivered resume for a completed campaign is dropped, not retried
	// into a conflict.
	dup, err := f.service.HandleResumeRequested(ctx, envelope(t, "evt-3", application.TopicResumeRequested, target))
	require.NoError(t, err)
	assert.Empty(t, dup.CampaignID)
}
