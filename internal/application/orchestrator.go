package application

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/viralforge/mesh/services/marketing/M61-campaign-orchestrator/internal/domain"
	"github.com/viralforge/mesh/services/marketing/M61-campaign-orchestrator/internal/ports"
)

// campaignRun carries one execution of the stage sequence. Artifacts that
// are not part of the persisted state are reloaded lazily on resume.
type campaignRun struct {
	campaign  domain.Campaign
	quota     int
	landscape *domain.LandscapeAnalysis
	strategy  *domain.StrategyPlan
	contents  []domain.ContentPiece
	loaded    bool
	batches   map[string]domain.RepurposedBatch
	estimate  *domain.CostEstimate
}

func newCampaignRun(campaign domain.Campaign, defaultQuota int) *campaignRun {
	return &campaignRun{
		campaign: campaign,
		quota:    campaign.ContentPreferences.BlogQuota(defaultQuota),
	}
}

func (r *campaignRun) state() *domain.OrchestrationState {
	return &r.campaign.State
}

var stageMilestones = map[domain.Stage]int{
	domain.StageAnalyzeLandscape: domain.ProgressLandscape,
	domain.StageGenerateStrategy: domain.ProgressStrategy,
	domain.StageCreateContent:    domain.ProgressContentEnd,
	domain.StageRepurpose:        domain.ProgressRepurposeEnd,
	domain.StageValidate:         domain.ProgressValidation,
	domain.StagePublish:          domain.ProgressPublishEnd,
	domain.StageSetupMonitoring:  domain.ProgressComplete,
}

// runStages executes every stage up to and including last that has not
// completed yet.
func (s *Service) runStages(ctx context.Context, run *campaignRun, last domain.Stage) error {
	for _, stage := range domain.Stages {
		if run.state().StageCompleted(stage) {
			if stage == last {
				return nil
			}
			continue
		}
		if err := pauseCheckpoint(ctx); err != nil {
			return err
		}

		run.state().BeginStage(stage, s.nowFn())
		s.appendLog(ctx, run, domain.LogLevelInfo, stage, stage.Label())
		if err := s.persist(ctx, run); err != nil {
			return fmt.Errorf("%s: %w", stage, err)
		}
		s.logger.Info("stage started",
			"operation", "run_stage",
			"campaign_id", run.campaign.CampaignID,
			"stage", string(stage),
		)

		if err := s.runStage(ctx, run, stage); err != nil {
			return fmt.Errorf("%s: %w", stage, err)
		}

		state := run.state()
		state.CompleteStage(stage, stageMilestones[stage], s.nowFn())
		if stage == domain.StageSetupMonitoring {
			state.Phase = domain.PhaseCompleted
			state.CurrentStep = "Campaign live"
		}
		s.appendLog(ctx, run, domain.LogLevelInfo, stage, "Completed: "+stage.Label())
		if err := s.persist(ctx, run); err != nil {
			return fmt.Errorf("%s: %w", stage, err)
		}
		s.enqueueCampaignEvent(ctx, eventStageCompleted, run.campaign, map[string]any{"stage": string(stage)})
		s.logger.Info("stage completed",
			"operation", "run_stage",
			"outcome", "success",
			"campaign_id", run.campaign.CampaignID,
			"stage", string(stage),
			"progress", state.Progress,
		)
		if stage == last {
			return nil
		}
	}
	return nil
}

func (s *Service) runStage(ctx context.Context, run *campaignRun, stage domain.Stage) error {
	switch stage {
	case domain.StageAnalyzeLandscape:
		return s.ensureLandscape(ctx, run)
	case domain.StageGenerateStrategy:
		return s.ensureStrategy(ctx, run)
	case domain.StageCreateContent:
		return s.createContent(ctx, run)
	case domain.StageRepurpose:
		return s.repurposeContent(ctx, run)
	case domain.StageValidate:
		s.appendLog(ctx, run, domain.LogLevelInfo, stage, "Validation auto-passed")
		return nil
	case domain.StagePublish:
		return s.publishContent(ctx, run)
	case domain.StageSetupMonitoring:
		return s.setupMonitoring(ctx, run)
	default:
		return fmt.Errorf("unknown stage %q", stage)
	}
}

func pauseCheckpoint(ctx context.Context) error {
	if ctx.Err() != nil {
		return context.Cause(ctx)
	}
	return nil
}

func (s *Service) ensureLandscape(ctx context.Context, run *campaignRun) error {
	if run.landscape != nil {
		return nil
	}
	profileID := run.campaign.ProfileID
	cached, err := s.landscape.GetCached(ctx, profileID)
	if err != nil {
		return err
	}
	if cached == nil {
		computed, err := s.landscape.Compute(ctx, profileID)
		if err != nil {
			return err
		}
		cached = &computed
	}
	run.landscape = cached
	return nil
}

func (s *Service) ensureStrategy(ctx context.Context, run *campaignRun) error {
	if run.strategy != nil {
		return nil
	}
	profileID := run.campaign.ProfileID
	cached, err := s.strategy.GetCached(ctx, profileID)
	if err != nil {
		return err
	}
	if cached == nil {
		computed, err := s.strategy.Compute(ctx, profileID)
		if err != nil {
			return err
		}
		cached = &computed
	}
	run.strategy = cached
	return nil
}

func (s *Service) ensureContents(ctx context.Context, run *campaignRun) error {
	if run.loaded {
		return nil
	}
	existing, err := s.contents.ListByCampaign(ctx, run.campaign.CampaignID)
	if err != nil {
		return err
	}
	run.contents = existing
	run.loaded = true
	return nil
}

func (s *Service) ensureBatches(ctx context.Context, run *campaignRun) error {
	if run.batches != nil {
		return nil
	}
	batches, err := s.artifacts.ListBatches(ctx, run.campaign.CampaignID)
	if err != nil {
		return err
	}
	if batches == nil {
		batches = make(map[string]domain.RepurposedBatch)
	}
	run.batches = batches
	return nil
}

func (s *Service) createContent(ctx context.Context, run *campaignRun) error {
	if err := s.ensureLandscape(ctx, run); err != nil {
		return err
	}
	if err := s.ensureStrategy(ctx, run); err != nil {
		return err
	}
	if err := s.ensureContents(ctx, run); err != nil {
		return err
	}

	state := run.state()
	total := run.quota
	state.Cursor.Item = len(run.contents)
	state.Metrics.ContentCreated = len(run.contents)
	for i := len(run.contents); i < total; i++ {
		if err := pauseCheckpoint(ctx); err != nil {
			return err
		}
		generated, err := s.generator.Generate(ctx, domain.ContentBrief{
			ProfileID:    run.campaign.ProfileID,
			CampaignID:   run.campaign.CampaignID,
			CampaignName: run.campaign.Name,
			ContentType:  domain.ContentTypeBlog,
			Sequence:     i + 1,
			Total:        total,
			Landscape:    *run.landscape,
			Strategy:     *run.strategy,
		})
		if err != nil {
			return err
		}

		piece := domain.ContentPiece{
			ContentID:       uuid.NewString(),
			CampaignID:      run.campaign.CampaignID,
			ProfileID:       run.campaign.ProfileID,
			Type:            domain.ContentTypeBlog,
			Sequence:        i + 1,
			Title:           strings.TrimSpace(generated.Title),
			Body:            generated.Content,
			MetaDescription: generated.MetaDescription,
			WordCount:       generated.WordCount,
			Status:          domain.ContentStatusGenerated,
			CreatedAt:       s.nowFn(),
		}
		if piece.Title == "" {
			piece.Title = fmt.Sprintf("%s #%d", run.campaign.Name, i+1)
		}
		if piece.WordCount <= 0 {
			piece.WordCount = len(strings.Fields(piece.Body))
		}
		if err := s.contents.Create(context.WithoutCancel(ctx), piece); err != nil {
			return err
		}
		run.contents = append(run.contents, piece)

		state.Metrics.ContentCreated = len(run.contents)
		state.AdvanceItem(domain.Interpolate(domain.ProgressStrategy, domain.ProgressContentEnd, len(run.contents), total), s.nowFn())
		s.appendLog(ctx, run, domain.LogLevelInfo, domain.StageCreateContent,
			fmt.Sprintf("Created blog %d/%d: %s", i+1, total, piece.Title))
		if err := s.persist(ctx, run); err != nil {
			return err
		}
	}
	s.recordRunningSpend(ctx, run)
	return nil
}

func (s *Service) repurposeContent(ctx context.Context, run *campaignRun) error {
	if err := s.ensureContents(ctx, run); err != nil {
		return err
	}
	if err := s.ensureBatches(ctx, run); err != nil {
		return err
	}

	state := run.state()
	rules := domain.ScopeRules(run.campaign.RepurposeRules, run.campaign.Platforms)
	total := len(run.contents)
	done := s.tallyBatches(run)
	state.Cursor.Item = done
	for i, piece := range run.contents {
		if _, ok := run.batches[piece.ContentID]; ok {
			continue
		}
		if err := pauseCheckpoint(ctx); err != nil {
			return err
		}
		batch, err := s.repurposer.Repurpose(ctx, piece, rules, run.campaign.ProfileID)
		if err != nil {
			return err
		}
		batch.ContentID = piece.ContentID
		if batch.TotalPieces <= 0 {
			batch.TotalPieces = len(batch.Pieces())
		}
		if err := s.artifacts.PutBatch(context.WithoutCancel(ctx), run.campaign.CampaignID, batch); err != nil {
			return err
		}
		run.batches[piece.ContentID] = batch

		done = s.tallyBatches(run)
		state.AdvanceItem(domain.Interpolate(domain.ProgressContentEnd, domain.ProgressRepurposeEnd, done, total), s.nowFn())
		s.appendLog(ctx, run, domain.LogLevelInfo, domain.StageRepurpose,
			fmt.Sprintf("Repurposed %q into %d platform pieces (%d/%d)", piece.Title, batch.TotalPieces, i+1, total))
		if err := s.persist(ctx, run); err != nil {
			return err
		}
	}
	s.recordRunningSpend(ctx, run)
	return nil
}

// tallyBatches recomputes the repurposing metrics from the stored batches
// and returns how many source pieces have one.
func (s *Service) tallyBatches(run *campaignRun) int {
	var pieces int
	var reach int64
	done := 0
	for _, content := range run.contents {
		batch, ok := run.batches[content.ContentID]
		if !ok {
			continue
		}
		done++
		pieces += batch.TotalPieces
		reach += batch.EstimatedReach
	}
	run.state().Metrics.ContentRepurposed = pieces
	run.state().Metrics.EstimatedReach = reach
	return done
}

func (s *Service) publishContent(ctx context.Context, run *campaignRun) error {
	if err := s.ensureContents(ctx, run); err != nil {
		return err
	}
	if err := s.ensureBatches(ctx, run); err != nil {
		return err
	}

	items := make([]domain.PublishItem, 0, run.state().Metrics.ContentRepurposed)
	for _, content := range run.contents {
		batch, ok := run.batches[content.ContentID]
		if !ok {
			return fmt.Errorf("%w: no repurposed batch for content %s", domain.ErrArtifactsExpired, content.ContentID)
		}
		for _, piece := range batch.Pieces() {
			items = append(items, domain.PublishItem{
				ContentID: content.ContentID,
				Platform:  piece.Platform,
				Body:      piece.Body,
				MediaURLs: piece.MediaURLs,
				Hashtags:  piece.Hashtags,
			})
		}
	}

	state := run.state()
	total := len(items)
	for i := state.Cursor.Item; i < total; i++ {
		if err := pauseCheckpoint(ctx); err != nil {
			return err
		}
		item := items[i]
		result, err := s.publisher.Publish(ctx, domain.PublishRequest{
			ProfileID:  run.campaign.ProfileID,
			CampaignID: run.campaign.CampaignID,
			Content:    []domain.PublishItem{item},
		})
		if err != nil && ctx.Err() != nil {
			return context.Cause(ctx)
		}

		state.Metrics.PublishAttempts++
		switch {
		case err != nil:
			state.Metrics.PublishFailures++
			s.publishWarning(ctx, run, item, err.Error())
		case result.Successful < 1:
			state.Metrics.PublishFailures++
			s.publishWarning(ctx, run, item, publishFailureReason(result))
		default:
			state.Metrics.ContentPublished++
		}
		state.AdvanceItem(domain.Interpolate(domain.ProgressValidation, domain.ProgressPublishEnd, i+1, total), s.nowFn())
		if err := s.persist(ctx, run); err != nil {
			return err
		}
	}
	s.appendLog(ctx, run, domain.LogLevelInfo, domain.StagePublish,
		fmt.Sprintf("Published %d of %d platform pieces", state.Metrics.ContentPublished, total))
	s.recordRunningSpend(ctx, run)
	return nil
}

func (s *Service) publishWarning(ctx context.Context, run *campaignRun, item domain.PublishItem, reason string) {
	s.appendLog(ctx, run, domain.LogLevelWarning, domain.StagePublish,
		fmt.Sprintf("Failed to publish to %s: %s", item.Platform, reason))
	s.logger.Warn("publish item failed",
		"operation", "publish_content",
		"outcome", "failure",
		"campaign_id", run.campaign.CampaignID,
		"platform", item.Platform,
		"error", reason,
	)
}

func publishFailureReason(result domain.PublishResult) string {
	for _, r := range result.Results {
		if !r.Success && r.Error != "" {
			return r.Error
		}
	}
	return "publisher reported no successful deliveries"
}

func (s *Service) setupMonitoring(ctx context.Context, run *campaignRun) error {
	if err := s.ensureContents(ctx, run); err != nil {
		return err
	}
	estimate, err := s.estimator.Estimate(ctx, s.producedShape(run, true))
	if err != nil {
		return fmt.Errorf("%w: cost estimate: %v", domain.ErrDependencyUnavailable, err)
	}
	run.estimate = &estimate
	run.state().RecordSpend(estimate.Summary.TotalEstimate, run.campaign.BudgetAllocated)
	run.campaign.ActualCost = estimate.Summary.TotalEstimate
	s.appendLog(ctx, run, domain.LogLevelInfo, domain.StageSetupMonitoring,
		fmt.Sprintf("Actual cost %.2f, projected ROI %s", estimate.Summary.TotalEstimate, estimate.ROIProjection.ROI))
	return nil
}

// recordRunningSpend moves the budget ledger forward after an item stage.
// Estimator failures here only cost ledger precision, so they are logged.
func (s *Service) recordRunningSpend(ctx context.Context, run *campaignRun) {
	estimate, err := s.estimator.Estimate(ctx, s.producedShape(run, false))
	if err != nil {
		s.logger.Warn("running spend estimate failed",
			"operation", "record_spend",
			"campaign_id", run.campaign.CampaignID,
			"error", err,
		)
		return
	}
	run.state().RecordSpend(estimate.Summary.TotalEstimate, run.campaign.BudgetAllocated)
}

// producedShape describes what has actually been produced so far. Monitoring
// days are only billed once the campaign goes live.
func (s *Service) producedShape(run *campaignRun, live bool) domain.CampaignShape {
	metrics := run.state().Metrics
	shape := domain.CampaignShape{
		ContentPieces:    len(run.contents),
		RepurposedPieces: metrics.ContentRepurposed,
		PublishedPieces:  metrics.ContentPublished,
		Platforms:        run.campaign.Platforms,
		Budget:           run.campaign.BudgetAllocated,
	}
	if live {
		shape.DurationDays = run.campaign.DurationDays
	}
	return shape
}

func requestedShape(campaign domain.Campaign, quota int) domain.CampaignShape {
	perPiece := len(campaign.Platforms)
	return domain.CampaignShape{
		ContentPieces:    quota,
		RepurposedPieces: quota * perPiece,
		PublishedPieces:  quota * perPiece,
		Platforms:        campaign.Platforms,
		DurationDays:     campaign.DurationDays,
		Budget:           campaign.BudgetAllocated,
	}
}

func (s *Service) appendLog(ctx context.Context, run *campaignRun, level domain.LogLevel, stage domain.Stage, message string) {
	entry := domain.LogEntry{
		Timestamp: s.nowFn(),
		Level:     level,
		Stage:     stage,
		Message:   message,
	}
	run.state().AppendLog(entry, s.cfg.LogWindow)
	if s.logs == nil {
		return
	}
	if err := s.logs.Append(context.WithoutCancel(ctx), run.campaign.CampaignID, entry); err != nil {
		s.logger.Warn("log append failed",
			"operation", "append_log",
			"campaign_id", run.campaign.CampaignID,
			"error", err,
		)
	}
}

// persist overwrites the stored campaign with the current snapshot. Writes
// ignore run cancellation so that a pause is always recorded.
func (s *Service) persist(ctx context.Context, run *campaignRun) error {
	ctx = context.WithoutCancel(ctx)
	now := s.nowFn()
	c := &run.campaign
	c.State.UpdatedAt = now
	c.SyncFromState(now)
	if _, err := s.campaigns.Update(ctx, ports.UpdateCampaignParams{
		CampaignID:      c.CampaignID,
		Status:          c.Status,
		BudgetUsed:      c.BudgetUsed,
		BudgetRemaining: c.BudgetRemaining,
		ActualCost:      c.ActualCost,
		CompletedAt:     c.CompletedAt,
		State:           c.State.Clone(),
		UpdatedAt:       now,
	}); err != nil {
		return err
	}
	if s.stateCache != nil {
		if err := s.stateCache.Put(ctx, c.State.Clone(), s.cfg.StateCacheTTL); err != nil {
			s.logger.Warn("state cache put failed",
				"operation", "persist_state",
				"campaign_id", c.CampaignID,
				"error", err,
			)
		}
	}
	return nil
}

// execute runs driver and converts a pause or a workflow-fatal error into
// the recorded terminal snapshot for this run.
func (s *Service) execute(ctx context.Context, run *campaignRun, driver ModeDriver) LaunchResult {
	result, err := driver.Run(ctx, run)
	if err == nil {
		return result
	}
	if pauseRequested(ctx) || errors.Is(err, domain.ErrCampaignPaused) {
		return s.recordPause(ctx, run)
	}
	return s.recordFailure(ctx, run, err)
}

func (s *Service) recordPause(ctx context.Context, run *campaignRun) LaunchResult {
	s.markPaused(ctx, run)
	return LaunchResult{
		Success:    true,
		CampaignID: run.campaign.CampaignID,
		Status:     RunStatusPaused,
		State:      run.state().Clone(),
		NextSteps:  pausedNextSteps(),
	}
}

func (s *Service) markPaused(ctx context.Context, run *campaignRun) {
	state := run.state()
	at := state.CurrentStep
	state.Phase = domain.PhasePaused
	state.CurrentStep = "Paused"
	state.UpdatedAt = s.nowFn()
	message := "Campaign paused"
	if state.Cursor.Stage != "" {
		message = fmt.Sprintf("Campaign paused during %q after %d items", at, state.Cursor.Item)
	}
	s.appendLog(ctx, run, domain.LogLevelInfo, state.Cursor.Stage, message)
	if err := s.persist(ctx, run); err != nil {
		s.logger.Error("persist paused state failed",
			"operation", "pause_campaign",
			"outcome", "failure",
			"campaign_id", run.campaign.CampaignID,
			"error", err,
		)
	}
	s.enqueueCampaignEvent(ctx, eventCampaignPaused, run.campaign, map[string]any{
		"stage": string(state.Cursor.Stage),
		"item":  state.Cursor.Item,
	})
	s.logger.Info("campaign paused",
		"operation", "pause_campaign",
		"outcome", "success",
		"campaign_id", run.campaign.CampaignID,
	)
}

func (s *Service) recordFailure(ctx context.Context, run *campaignRun, cause error) LaunchResult {
	state := run.state()
	state.Phase = domain.PhaseFailed
	state.CurrentStep = "Failed"
	s.appendLog(ctx, run, domain.LogLevelError, state.Cursor.Stage, cause.Error())
	if err := s.persist(ctx, run); err != nil {
		s.logger.Error("persist failed state failed",
			"operation", "launch_campaign",
			"outcome", "failure",
			"campaign_id", run.campaign.CampaignID,
			"error", err,
		)
	}
	s.enqueueCampaignEvent(ctx, eventCampaignFailed, run.campaign, map[string]any{"error": cause.Error()})
	s.logger.Error("campaign workflow failed",
		"operation", "launch_campaign",
		"outcome", "failure",
		"campaign_id", run.campaign.CampaignID,
		"stage", string(state.Cursor.Stage),
		"error", cause,
	)
	return LaunchResult{
		Success:    false,
		CampaignID: run.campaign.CampaignID,
		Status:     RunStatusFailed,
		Error:      cause.Error(),
		State:      state.Clone(),
		NextSteps:  failedNextSteps(),
	}
}
