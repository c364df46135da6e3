package application

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/viralforge/mesh/services/marketing/M61-campaign-orchestrator/internal/domain"
)

const defaultDurationDays = 30

// LaunchCampaign creates the campaign and runs it through the driver for its
// mode. Workflow outcomes, including failures inside a stage, are reported
// through the result; an error means nothing was started.
func (s *Service) LaunchCampaign(ctx context.Context, req LaunchRequest) (LaunchResult, error) {
	campaign, err := s.newCampaign(req)
	if err != nil {
		return LaunchResult{}, err
	}
	driver := s.drivers[campaign.Mode]
	quota := campaign.ContentPreferences.BlogQuota(s.cfg.DefaultBlogQuota)

	estimate, err := s.estimator.Estimate(ctx, requestedShape(campaign, quota))
	if err != nil {
		return LaunchResult{}, fmt.Errorf("%w: cost estimate: %v", domain.ErrDependencyUnavailable, err)
	}
	campaign.EstimatedCost = estimate.Summary.TotalEstimate

	created, err := s.campaigns.Create(ctx, campaign)
	if err != nil {
		return LaunchResult{}, err
	}
	runCtx, release, err := s.runs.start(ctx, created.CampaignID)
	if err != nil {
		return LaunchResult{}, err
	}
	defer release()

	s.logger.Info("campaign launch started",
		"operation", "launch_campaign",
		"campaign_id", created.CampaignID,
		"profile_id", created.ProfileID,
		"mode", string(created.Mode),
	)
	run := newCampaignRun(created, s.cfg.DefaultBlogQuota)
	s.appendLog(runCtx, run, domain.LogLevelInfo, "",
		fmt.Sprintf("Campaign %q launched in %s mode with budget %.2f (estimated cost %.2f)",
			created.Name, created.Mode, created.BudgetAllocated, created.EstimatedCost))
	if err := s.persist(runCtx, run); err != nil {
		return s.recordFailure(runCtx, run, err), nil
	}
	s.enqueueCampaignEvent(runCtx, eventCampaignLaunched, run.campaign, map[string]any{
		"name":           created.Name,
		"budget":         created.BudgetAllocated,
		"estimated_cost": created.EstimatedCost,
		"platforms":      created.Platforms,
	})
	return s.execute(runCtx, run, driver), nil
}

func (s *Service) newCampaign(req LaunchRequest) (domain.Campaign, error) {
	profileID := strings.TrimSpace(req.ProfileID)
	if profileID == "" {
		return domain.Campaign{}, fmt.Errorf("%w: profile_id is required", domain.ErrInvalidInput)
	}
	name := strings.TrimSpace(req.CampaignName)
	if err := domain.ValidateCampaignName(name); err != nil {
		return domain.Campaign{}, err
	}
	mode := req.Mode
	if mode == "" {
		mode = domain.ModeFullAuto
	}
	if !mode.Valid() {
		return domain.Campaign{}, fmt.Errorf("%w: unsupported mode %q", domain.ErrInvalidInput, req.Mode)
	}
	if err := domain.ValidateBudget(req.Budget); err != nil {
		return domain.Campaign{}, err
	}
	duration := req.Duration
	if duration == 0 {
		duration = defaultDurationDays
	}
	if duration < 0 {
		return domain.Campaign{}, fmt.Errorf("%w: duration must be >= 1 day", domain.ErrInvalidInput)
	}
	quota := req.ContentPreferences.BlogQuota(s.cfg.DefaultBlogQuota)
	if err := domain.ValidateBlogQuota(quota); err != nil {
		return domain.Campaign{}, err
	}
	platforms, err := domain.NormalizePlatforms(req.Platforms)
	if err != nil {
		return domain.Campaign{}, err
	}
	var rules domain.RepurposeRules
	if len(req.RepurposeRules) > 0 {
		rules = make(domain.RepurposeRules, len(req.RepurposeRules))
		for platform, rule := range req.RepurposeRules {
			if !domain.IsSupportedPlatform(platform) {
				return domain.Campaign{}, fmt.Errorf("%w: repurpose rule for unsupported platform %q", domain.ErrInvalidInput, platform)
			}
			if rule.MaxPieces < 0 {
				return domain.Campaign{}, fmt.Errorf("%w: max_pieces must be >= 0", domain.ErrInvalidInput)
			}
			rules[domain.NormalizePlatform(platform)] = rule
		}
	}

	now := s.nowFn()
	campaignID := uuid.NewString()
	state := domain.NewOrchestrationState(campaignID, profileID, req.Budget, now)
	items := quota * (1 + 2*len(platforms))
	eta := now.Add(time.Duration(s.cfg.MinutesPerItem*(items+len(domain.Stages))) * time.Minute)
	state.EstimatedCompletion = &eta

	return domain.Campaign{
		CampaignID:         campaignID,
		ProfileID:          profileID,
		Name:               name,
		Mode:               mode,
		Status:             domain.CampaignStatusPlanning,
		BudgetAllocated:    req.Budget,
		BudgetRemaining:    req.Budget,
		DurationDays:       duration,
		Platforms:          platforms,
		ContentPreferences: domain.ContentPreferences{Blogs: &quota},
		RepurposeRules:     rules,
		State:              state,
		CreatedAt:          now,
		UpdatedAt:          now,
	}, nil
}

// PauseCampaign stops an in-flight run at its next checkpoint and waits for
// the paused snapshot to be recorded. A campaign with no run is paused in
// place so that a later resume picks up from its stored cursor.
func (s *Service) PauseCampaign(ctx context.Context, campaignID string) (domain.Campaign, error) {
	runCtx, release, err := s.runs.start(ctx, campaignID)
	if errors.Is(err, domain.ErrCampaignRunning) {
		if done, ok := s.runs.cancel(campaignID, domain.ErrCampaignPaused); ok {
			select {
			case <-done:
			case <-ctx.Done():
				return domain.Campaign{}, ctx.Err()
			}
		}
		campaign, err := s.campaigns.GetByID(ctx, campaignID)
		if err != nil {
			return domain.Campaign{}, err
		}
		// The run may have passed its last checkpoint before the cancel.
		if campaign.State.Phase.Terminal() {
			return domain.Campaign{}, fmt.Errorf("%w: campaign is %s", domain.ErrConflict, campaign.State.Phase)
		}
		return campaign, nil
	}
	if err != nil {
		return domain.Campaign{}, err
	}
	defer release()

	campaign, err := s.campaigns.GetByID(ctx, campaignID)
	if err != nil {
		return domain.Campaign{}, err
	}
	if campaign.State.Phase.Terminal() {
		return domain.Campaign{}, fmt.Errorf("%w: campaign is %s", domain.ErrConflict, campaign.State.Phase)
	}
	if campaign.State.Phase == domain.PhasePaused || campaign.State.AwaitingApproval {
		return campaign, nil
	}
	run := newCampaignRun(campaign, s.cfg.DefaultBlogQuota)
	s.markPaused(runCtx, run)
	return run.campaign, nil
}

// ResumeCampaign re-enters the stage driver at the first stage that has not
// completed, continuing from the stored item cursor. Only paused, failed and
// approval-held campaigns can be resumed.
func (s *Service) ResumeCampaign(ctx context.Context, campaignID string) (LaunchResult, error) {
	runCtx, release, err := s.runs.start(ctx, campaignID)
	if err != nil {
		return LaunchResult{}, err
	}
	defer release()

	campaign, err := s.campaigns.GetByID(ctx, campaignID)
	if err != nil {
		return LaunchResult{}, err
	}
	state := &campaign.State
	next, ok := state.NextStage()
	if state.Phase == domain.PhaseCompleted || !ok {
		return LaunchResult{}, fmt.Errorf("%w: campaign already completed", domain.ErrConflict)
	}
	// Any other phase means a driver, possibly in another process, still
	// owns the campaign.
	if !state.Resumable() {
		return LaunchResult{}, fmt.Errorf("%w: campaign is %s", domain.ErrCampaignRunning, state.Phase)
	}

	from := state.Phase
	state.AwaitingApproval = false
	state.Phase = next.Phase()
	state.CurrentStep = next.Label()
	run := newCampaignRun(campaign, s.cfg.DefaultBlogQuota)
	s.appendLog(runCtx, run, domain.LogLevelInfo, next,
		fmt.Sprintf("Campaign resumed from %s at %q", from, next.Label()))
	if err := s.persist(runCtx, run); err != nil {
		return LaunchResult{}, err
	}
	s.enqueueCampaignEvent(runCtx, eventCampaignResumed, run.campaign, map[string]any{
		"stage": string(next),
		"from":  string(from),
	})
	s.logger.Info("campaign resumed",
		"operation", "resume_campaign",
		"campaign_id", campaignID,
		"stage", string(next),
	)
	return s.execute(runCtx, run, s.resumeDriver(run.campaign)), nil
}

// resumeDriver runs a semi-auto campaign that has not produced its strategy
// yet through the semi-auto hold again; everything else continues
// automatically.
func (s *Service) resumeDriver(campaign domain.Campaign) ModeDriver {
	switch campaign.Mode {
	case domain.ModeSemiAuto:
		if !campaign.State.StageCompleted(domain.StageGenerateStrategy) {
			return s.drivers[domain.ModeSemiAuto]
		}
		return s.drivers[domain.ModeFullAuto]
	case domain.ModeHybrid:
		return s.drivers[domain.ModeHybrid]
	default:
		return s.drivers[domain.ModeFullAuto]
	}
}

func (s *Service) GetCampaign(ctx context.Context, campaignID string) (domain.Campaign, error) {
	return s.campaigns.GetByID(ctx, campaignID)
}

// GetState serves the snapshot from the state cache when possible.
func (s *Service) GetState(ctx context.Context, campaignID string) (domain.OrchestrationState, error) {
	if s.stateCache != nil {
		cached, err := s.stateCache.Get(ctx, campaignID)
		if err != nil {
			s.logger.Warn("state cache get failed",
				"operation", "get_state",
				"campaign_id", campaignID,
				"error", err,
			)
		}
		if cached != nil {
			return *cached, nil
		}
	}
	campaign, err := s.campaigns.GetByID(ctx, campaignID)
	if err != nil {
		return domain.OrchestrationState{}, err
	}
	return campaign.State, nil
}

func (s *Service) ListCampaigns(ctx context.Context, profileID string) ([]domain.Campaign, error) {
	profileID = strings.TrimSpace(profileID)
	if profileID == "" {
		return nil, fmt.Errorf("%w: profile_id is required", domain.ErrInvalidInput)
	}
	return s.campaigns.ListByProfile(ctx, profileID, s.cfg.ListLimit)
}

// ListLog returns the full log history, including entries that have fallen
// out of the snapshot window.
func (s *Service) ListLog(ctx context.Context, campaignID string) ([]domain.LogEntry, error) {
	campaign, err := s.campaigns.GetByID(ctx, campaignID)
	if err != nil {
		return nil, err
	}
	if s.logs == nil {
		return campaign.State.Log, nil
	}
	return s.logs.ListByCampaign(ctx, campaignID)
}
