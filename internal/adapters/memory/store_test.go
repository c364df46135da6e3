package memory

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/viralforge/mesh/services/marketing/M61-campaign-orchestrator/internal/domain"
	"github.com/viralforge/mesh/services/marketing/M61-campaign-orchestrator/internal/ports"
)

func TestCampaignReadsDoNotAliasStoredState(t *testing.T) {
	repos := NewRepositories()
	ctx := context.Background()
	now := time.Now().UTC()
	state := domain.NewOrchestrationState("c-1", "p-1", 100, now)

	_, err := repos.Campaigns.Create(ctx, domain.Campaign{CampaignID: "c-1", ProfileID: "p-1", State: state, CreatedAt: now})
	require.NoError(t, err)

	got, err := repos.Campaigns.GetByID(ctx, "c-1")
	require.NoError(t, err)
	got.State.StepsCompleted = append(got.State.StepsCompleted, domain.StageAnalyzeLandscape)

	again, err := repos.Campaigns.GetByID(ctx, "c-1")
	require.NoError(t, err)
	assert.Empty(t, again.State.StepsCompleted)

	_, err = repos.Campaigns.Create(ctx, domain.Campaign{CampaignID: "c-1"})
	require.ErrorIs(t, err, domain.ErrConflict)
	_, err = repos.Campaigns.Update(ctx, ports.UpdateCampaignParams{CampaignID: "nope"})
	require.ErrorIs(t, err, domain.ErrNotFound)
}

func TestListByProfileNewestFirstWithLimit(t *testing.T) {
	repos := NewRepositories()
	ctx := context.Background()
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	for i, id := range []string{"a", "b", "c"} {
		_, err := repos.Campaigns.Create(ctx, domain.Campaign{CampaignID: id, ProfileID: "p-1", CreatedAt: base.Add(time.Duration(i) * time.Hour)})
		require.NoError(t, err)
	}
	_, err := repos.Campaigns.Create(ctx, domain.Campaign{CampaignID: "other", ProfileID: "p-2", CreatedAt: base})
	require.NoError(t, err)

	items, err := repos.Campaigns.ListByProfile(ctx, "p-1", 2)
	require.NoError(t, err)
	require.Len(t, items, 2)
	assert.Equal(t, "c", items[0].CampaignID)
	assert.Equal(t, "b", items[1].CampaignID)
}

func TestContentsSortedBySequence(t *testing.T) {
	repos := NewRepositories()
	ctx := context.Background()
	for _, seq := range []int{3, 1, 2} {
		require.NoError(t, repos.Contents.Create(ctx, domain.ContentPiece{
			ContentID:  string(rune('a' + seq)),
			CampaignID: "c-1",
			Sequence:   seq,
		}))
	}
	items, err := repos.Contents.ListByCampaign(ctx, "c-1")
	require.NoError(t, err)
	require.Len(t, items, 3)
	assert.Equal(t, []int{1, 2, 3}, []int{items[0].Sequence, items[1].Sequence, items[2].Sequence})
}

func TestStateCacheExpires(t *testing.T) {
	repos := NewRepositories()
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	repos.StateCache.now = func() time.Time { return now }
	ctx := context.Background()

	require.NoError(t, repos.StateCache.Put(ctx, domain.OrchestrationState{CampaignID: "c-1", Progress: 30}, time.Minute))
	got, err := repos.StateCache.Get(ctx, "c-1")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, 30, got.Progress)

	now = now.Add(2 * time.Minute)
	got, err = repos.StateCache.Get(ctx, "c-1")
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestEventDedupHonoursExpiry(t *testing.T) {
	repos := NewRepositories()
	ctx := context.Background()
	now := time.Now().UTC()

	require.NoError(t, repos.EventDedup.MarkProcessed(ctx, "evt-1", "marketing.campaign_launch_requested", now.Add(time.Hour)))
	dup, err := repos.EventDedup.IsDuplicate(ctx, "evt-1", now)
	require.NoError(t, err)
	assert.True(t, dup)

	dup, err = repos.EventDedup.IsDuplicate(ctx, "evt-1", now.Add(2*time.Hour))
	require.NoError(t, err)
	assert.False(t, dup)
}
