package application

import "github.com/viralforge/mesh/services/marketing/M61-campaign-orchestrator/internal/domain"

type LaunchRequest struct {
	ProfileID          string                    `json:"profile_id"`
	CampaignName       string                    `json:"campaign_name"`
	Mode               domain.Mode               `json:"mode"`
	Budget             float64                   `json:"budget"`
	Duration           int                       `json:"duration"`
	ContentPreferences domain.ContentPreferences `json:"content_preferences"`
	Platforms          []string                  `json:"platforms"`
	RepurposeRules     domain.RepurposeRules     `json:"repurpose_rules,omitempty"`
}

type RunStatus string

const (
	RunStatusCompleted        RunStatus = "completed"
	RunStatusAwaitingApproval RunStatus = "awaiting_approval"
	RunStatusPaused           RunStatus = "paused"
	RunStatusFailed           RunStatus = "failed"
)

type LaunchResult struct {
	Success    bool                       `json:"success"`
	CampaignID string                     `json:"campaign_id"`
	Status     RunStatus                  `json:"status"`
	Error      string                     `json:"error,omitempty"`
	Summary    *domain.ExecutionSummary   `json:"summary"`
	State      domain.OrchestrationState `json:"state"`
	NextSteps  []string                   `json:"next_steps"`
}
