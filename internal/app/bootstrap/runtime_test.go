package bootstrap

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/viralforge/mesh/services/marketing/M61-campaign-orchestrator/internal/adapters/collaborators"
	"github.com/viralforge/mesh/services/marketing/M61-campaign-orchestrator/internal/adapters/memory"
	"github.com/viralforge/mesh/services/marketing/M61-campaign-orchestrator/internal/adapters/pricing"
	"github.com/viralforge/mesh/services/marketing/M61-campaign-orchestrator/internal/application"
	"github.com/viralforge/mesh/services/marketing/M61-campaign-orchestrator/internal/domain"
)

func TestLocalRuntimeLaunchesCampaign(t *testing.T) {
	rt, err := Build(context.Background(), LocalConfig())
	require.NoError(t, err)
	defer rt.Close()

	blogs := 2
	res, err := rt.Service().LaunchCampaign(context.Background(), application.LaunchRequest{
		ProfileID:          "p-local",
		CampaignName:       "Local smoke",
		Budget:             1000,
		Platforms:          []string{"twitter", "linkedin"},
		ContentPreferences: domain.ContentPreferences{Blogs: &blogs},
	})
	require.NoError(t, err)
	assert.True(t, res.Success)
	assert.Equal(t, application.RunStatusCompleted, res.Status)
	require.NotNil(t, res.Summary)
	assert.Equal(t, 2, res.Summary.TotalContent)
	assert.Equal(t, 4, res.Summary.TotalRepurposed)
	assert.Equal(t, 100, res.State.Progress)
}

func TestRunWorkerStopsOnCancel(t *testing.T) {
	rt, err := Build(context.Background(), LocalConfig())
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- rt.RunWorker(ctx) }()
	time.Sleep(20 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("worker did not stop")
	}
}

func TestPostgresStorageHasNoProcessLocalStateCache(t *testing.T) {
	store := postgresStorage(&gorm.DB{})

	assert.Nil(t, store.stateCache)
	assert.NotNil(t, store.campaigns)
	assert.NotNil(t, store.artifacts)
	assert.NotNil(t, store.ready)
}

func TestStateReadsFollowSharedStoreWithoutCache(t *testing.T) {
	repos := memory.NewRepositories()
	sandbox := collaborators.NewSandbox(nil)
	newService := func() *application.Service {
		svc := application.NewService(application.Dependencies{
			Campaigns:  repos.Campaigns,
			Contents:   repos.Contents,
			Logs:       repos.Logs,
			Outbox:     repos.Outbox,
			EventDedup: repos.EventDedup,
			Artifacts:  repos.Artifacts,
			Landscape:  sandbox.Landscape,
			Strategy:   sandbox.Strategy,
			Generator:  sandbox.Generator,
			Repurposer: sandbox.Repurposer,
			Publisher:  sandbox.Publisher,
			Estimator:  pricing.NewCalculator(pricing.DefaultRateCard()),
		})
		t.Cleanup(svc.Shutdown)
		return svc
	}
	api, worker := newService(), newService()
	ctx := context.Background()

	blogs := 1
	held, err := api.LaunchCampaign(ctx, application.LaunchRequest{
		ProfileID:          "p-split",
		CampaignName:       "Split processes",
		Mode:               domain.ModeSemiAuto,
		Platforms:          []string{"twitter"},
		ContentPreferences: domain.ContentPreferences{Blogs: &blogs},
	})
	require.NoError(t, err)
	require.Equal(t, application.RunStatusAwaitingApproval, held.Status)
	before, err := api.GetState(ctx, held.CampaignID)
	require.NoError(t, err)
	require.True(t, before.AwaitingApproval)

	_, err = worker.ResumeCampaign(ctx, held.CampaignID)
	require.NoError(t, err)

	after, err := api.GetState(ctx, held.CampaignID)
	require.NoError(t, err)
	assert.Equal(t, domain.PhaseCompleted, after.Phase)
	assert.Equal(t, 100, after.Progress)
}
