package domain_test

import (
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/viralforge/mesh/services/marketing/M61-campaign-orchestrator/internal/domain"
)

var t0 = time.Date(2026, 10, 1, 12, 0, 0, 0, time.UTC)

func TestNewOrchestrationState(t *testing.T) {
	t.Parallel()

	s := domain.NewOrchestrationState("c1", "p1", 500, t0)
	assert.Equal(t, domain.PhaseAnalyzing, s.Phase)
	assert.Equal(t, 0, s.Progress)
	assert.Empty(t, s.StepsCompleted)
	assert.Equal(t, domain.Stages, s.StepsRemaining)
	assert.Equal(t, 500.0, s.Metrics.BudgetRemaining)
	assert.Equal(t, domain.CampaignStatusGenerating, s.CampaignStatus())

	s.StepsRemaining[0] = "mutated"
	assert.Equal(t, domain.StageAnalyzeLandscape, domain.Stages[0], "remaining must not alias the stage list")
}

func TestStageTransitions(t *testing.T) {
	t.Parallel()

	s := domain.NewOrchestrationState("c1", "p1", 0, t0)
	s.BeginStage(domain.StageAnalyzeLandscape, t0)
	s.CompleteStage(domain.StageAnalyzeLandscape, domain.ProgressLandscape, t0)
	s.BeginStage(domain.StageGenerateStrategy, t0)
	assert.Equal(t, domain.PhasePlanning, s.Phase)
	s.CompleteStage(domain.StageGenerateStrategy, domain.ProgressStrategy, t0)

	next, ok := s.NextStage()
	require.True(t, ok)
	assert.Equal(t, domain.StageCreateContent, next)
	assert.Equal(t, 30, s.Progress)
	if diff := cmp.Diff([]domain.Stage{domain.StageAnalyzeLandscape, domain.StageGenerateStrategy}, s.StepsCompleted); diff != "" {
		t.Fatalf("completed mismatch (-want +got):\n%s", diff)
	}
	assert.Len(t, s.StepsRemaining, 5)

	// completing twice is a no-op
	s.CompleteStage(domain.StageGenerateStrategy, domain.ProgressStrategy, t0)
	assert.Len(t, s.StepsCompleted, 2)
}

func TestBeginStageKeepsCursorOnReentry(t *testing.T) {
	t.Parallel()

	s := domain.NewOrchestrationState("c1", "p1", 0, t0)
	s.BeginStage(domain.StageCreateContent, t0)
	s.AdvanceItem(35, t0)
	s.AdvanceItem(40, t0)
	s.BeginStage(domain.StageCreateContent, t0)
	assert.Equal(t, domain.Cursor{Stage: domain.StageCreateContent, Item: 2}, s.Cursor)

	s.BeginStage(domain.StageRepurpose, t0)
	assert.Equal(t, domain.Cursor{Stage: domain.StageRepurpose}, s.Cursor)
}

func TestSetProgressIsMonotonic(t *testing.T) {
	t.Parallel()

	s := domain.NewOrchestrationState("c1", "p1", 0, t0)
	s.SetProgress(45)
	s.SetProgress(30)
	assert.Equal(t, 45, s.Progress)
	s.SetProgress(250)
	assert.Equal(t, 100, s.Progress)
}

func TestCampaignStatusProjection(t *testing.T) {
	t.Parallel()

	cases := []struct {
		phase    domain.Phase
		awaiting bool
		want     domain.CampaignStatus
	}{
		{domain.PhaseAnalyzing, false, domain.CampaignStatusGenerating},
		{domain.PhasePublishing, false, domain.CampaignStatusGenerating},
		{domain.PhaseCompleted, false, domain.CampaignStatusActive},
		{domain.PhaseFailed, false, domain.CampaignStatusFailed},
		{domain.PhasePaused, false, domain.CampaignStatusPaused},
		{domain.PhasePlanning, true, domain.CampaignStatusPaused},
	}
	for _, tc := range cases {
		s := domain.OrchestrationState{Phase: tc.phase, AwaitingApproval: tc.awaiting}
		assert.Equal(t, tc.want, s.CampaignStatus(), "phase %s awaiting %v", tc.phase, tc.awaiting)
	}
}

func TestAppendLogWindow(t *testing.T) {
	t.Parallel()

	s := domain.NewOrchestrationState("c1", "p1", 0, t0)
	for i := 0; i < 10; i++ {
		s.AppendLog(domain.LogEntry{Timestamp: t0.Add(time.Duration(i) * time.Second), Message: string(rune('a' + i))}, 3)
	}
	require.Len(t, s.Log, 3)
	assert.Equal(t, "h", s.Log[0].Message)
	assert.Equal(t, "j", s.Log[2].Message)

	s.AppendLog(domain.LogEntry{Message: "k"}, 0)
	assert.Len(t, s.Log, 4)
}

func TestRecordSpendLedger(t *testing.T) {
	t.Parallel()

	s := domain.NewOrchestrationState("c1", "p1", 100, t0)
	s.RecordSpend(40, 100)
	assert.Equal(t, 40.0, s.Metrics.BudgetUsed)
	assert.Equal(t, 60.0, s.Metrics.BudgetRemaining)

	s.RecordSpend(25, 100)
	assert.Equal(t, 40.0, s.Metrics.BudgetUsed, "budget used never decreases")

	s.RecordSpend(180, 100)
	assert.Equal(t, 180.0, s.Metrics.BudgetUsed)
	assert.Equal(t, 0.0, s.Metrics.BudgetRemaining)
}

func TestInterpolate(t *testing.T) {
	t.Parallel()

	assert.Equal(t, 45, domain.Interpolate(30, 45, 0, 0))
	assert.Equal(t, 30, domain.Interpolate(30, 45, 0, 3))
	assert.Equal(t, 35, domain.Interpolate(30, 45, 1, 3))
	assert.Equal(t, 45, domain.Interpolate(30, 45, 3, 3))
	assert.Equal(t, 95, domain.Interpolate(75, 95, 9, 4))
}

func TestCloneDoesNotAlias(t *testing.T) {
	t.Parallel()

	s := domain.NewOrchestrationState("c1", "p1", 0, t0)
	eta := t0.Add(time.Hour)
	s.EstimatedCompletion = &eta
	s.AppendLog(domain.LogEntry{Message: "a"}, 0)

	c := s.Clone()
	c.Log[0].Message = "b"
	c.StepsRemaining[0] = "x"
	*c.EstimatedCompletion = t0

	assert.Equal(t, "a", s.Log[0].Message)
	assert.Equal(t, domain.StageAnalyzeLandscape, s.StepsRemaining[0])
	assert.Equal(t, eta, *s.EstimatedCompletion)
}

func TestSyncFromStateSetsCompletedAt(t *testing.T) {
	t.Parallel()

	c := domain.Campaign{State: domain.NewOrchestrationState("c1", "p1", 10, t0)}
	c.State.Phase = domain.PhaseCompleted
	c.State.RecordSpend(4, 10)
	c.SyncFromState(t0)

	assert.Equal(t, domain.CampaignStatusActive, c.Status)
	assert.Equal(t, 4.0, c.BudgetUsed)
	assert.Equal(t, 6.0, c.BudgetRemaining)
	require.NotNil(t, c.CompletedAt)
	assert.Equal(t, t0, *c.CompletedAt)
}
