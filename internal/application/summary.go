package application

import "github.com/viralforge/mesh/services/marketing/M61-campaign-orchestrator/internal/domain"

func buildSummary(run *campaignRun) domain.ExecutionSummary {
	metrics := run.state().Metrics
	summary := domain.ExecutionSummary{
		TotalContent:       metrics.ContentCreated,
		TotalRepurposed:    metrics.ContentRepurposed,
		PlatformsPublished: metrics.PublishAttempts,
		ContentPublished:   metrics.ContentPublished,
		EstimatedReach:     metrics.EstimatedReach,
		ActualCost:         run.campaign.ActualCost,
	}
	if run.estimate != nil {
		summary.ROI = run.estimate.ROIProjection.ROI
	}
	return summary
}

func nextSteps(mode domain.Mode) []string {
	switch mode {
	case domain.ModeSemiAuto:
		return []string{
			"Review the generated strategy",
			"Resume the campaign to approve the strategy and start content creation",
			"Adjust platforms or budget before resuming if needed",
		}
	case domain.ModeHybrid:
		return []string{
			"Review published content and schedule manual posts where needed",
			"Monitor engagement on each platform",
			"Adjust the strategy based on early results",
		}
	default:
		return []string{
			"Monitor campaign performance in the dashboard",
			"Review engagement metrics after 24 hours",
			"Adjust budget allocation based on ROI",
		}
	}
}

func pausedNextSteps() []string {
	return []string{
		"Resume the campaign to continue from the last completed item",
	}
}

func failedNextSteps() []string {
	return []string{
		"Inspect the campaign log for the failure reason",
		"Resume the campaign to retry from the failed stage",
	}
}
