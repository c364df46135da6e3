package application

import (
	"context"

	"github.com/viralforge/mesh/services/marketing/M61-campaign-orchestrator/internal/domain"
)

// ModeDriver runs the stage sequence with the approval semantics of one
// automation mode. A returned error is handled by Service.execute.
type ModeDriver interface {
	Mode() domain.Mode
	Run(ctx context.Context, run *campaignRun) (LaunchResult, error)
}

type fullAutoDriver struct {
	svc *Service
}

func (d *fullAutoDriver) Mode() domain.Mode { return domain.ModeFullAuto }

func (d *fullAutoDriver) Run(ctx context.Context, run *campaignRun) (LaunchResult, error) {
	s := d.svc
	if err := s.runStages(ctx, run, domain.StageSetupMonitoring); err != nil {
		return LaunchResult{}, err
	}

	summary := buildSummary(run)
	if s.archive != nil {
		if err := s.archive.Archive(context.WithoutCancel(ctx), run.campaign, summary); err != nil {
			s.logger.Warn("summary archive failed",
				"operation", "archive_summary",
				"campaign_id", run.campaign.CampaignID,
				"error", err,
			)
		}
	}
	s.enqueueCampaignEvent(ctx, eventCampaignCompleted, run.campaign, map[string]any{
		"total_content":     summary.TotalContent,
		"content_published": summary.ContentPublished,
		"actual_cost":       summary.ActualCost,
		"roi":               summary.ROI,
	})
	s.logger.Info("campaign completed",
		"operation", "launch_campaign",
		"outcome", "success",
		"campaign_id", run.campaign.CampaignID,
	)
	return LaunchResult{
		Success:    true,
		CampaignID: run.campaign.CampaignID,
		Status:     RunStatusCompleted,
		Summary:    &summary,
		State:      run.state().Clone(),
		NextSteps:  nextSteps(domain.ModeFullAuto),
	}, nil
}

// semiAutoDriver stops after strategy generation and holds the campaign
// until ResumeCampaign approves the plan.
type semiAutoDriver struct {
	svc *Service
}

func (d *semiAutoDriver) Mode() domain.Mode { return domain.ModeSemiAuto }

func (d *semiAutoDriver) Run(ctx context.Context, run *campaignRun) (LaunchResult, error) {
	s := d.svc
	if err := s.runStages(ctx, run, domain.StageGenerateStrategy); err != nil {
		return LaunchResult{}, err
	}

	state := run.state()
	state.AwaitingApproval = true
	state.Phase = domain.PhasePlanning
	state.CurrentStep = "Awaiting strategy approval"
	s.appendLog(ctx, run, domain.LogLevelInfo, domain.StageGenerateStrategy, "Strategy ready for review")
	if err := s.persist(ctx, run); err != nil {
		return LaunchResult{}, err
	}
	s.enqueueCampaignEvent(ctx, eventCampaignAwaitingApproval, run.campaign, nil)
	return LaunchResult{
		Success:    true,
		CampaignID: run.campaign.CampaignID,
		Status:     RunStatusAwaitingApproval,
		State:      state.Clone(),
		NextSteps:  nextSteps(domain.ModeSemiAuto),
	}, nil
}

// hybridDriver automates every stage; it shares the full-auto sequence and
// only differs in the follow-up guidance it returns.
type hybridDriver struct {
	full *fullAutoDriver
}

func (d *hybridDriver) Mode() domain.Mode { return domain.ModeHybrid }

func (d *hybridDriver) Run(ctx context.Context, run *campaignRun) (LaunchResult, error) {
	result, err := d.full.Run(ctx, run)
	if err != nil {
		return LaunchResult{}, err
	}
	result.NextSteps = nextSteps(domain.ModeHybrid)
	return result, nil
}
