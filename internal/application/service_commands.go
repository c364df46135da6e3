package application

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/viralforge/mesh/services/marketing/M61-campaign-orchestrator/internal/domain"
)

const (
	TopicLaunchRequested = "marketing.campaign_launch_requested"
	TopicPauseRequested  = "marketing.campaign_pause_requested"
	TopicResumeRequested = "marketing.campaign_resume_requested"
)

type launchRequestedEvent struct {
	EventID   string        `json:"event_id"`
	EventType string        `json:"event_type"`
	Data      LaunchRequest `json:"data"`
}

type campaignCommandEvent struct {
	EventID   string `json:"event_id"`
	EventType string `json:"event_type"`
	Data      struct {
		CampaignID string `json:"campaign_id"`
	} `json:"data"`
}

// HandleLaunchRequested launches the campaign described by a
// marketing.campaign_launch_requested envelope.
func (s *Service) HandleLaunchRequested(ctx context.Context, payload []byte) (LaunchResult, error) {
	var evt launchRequestedEvent
	if err := json.Unmarshal(payload, &evt); err != nil {
		return LaunchResult{}, fmt.Errorf("%w: invalid %s payload", domain.ErrInvalidInput, TopicLaunchRequested)
	}
	dup, err := s.isDuplicate(ctx, evt.EventID)
	if err != nil || dup {
		return LaunchResult{}, err
	}
	res, err := s.LaunchCampaign(ctx, evt.Data)
	if err == nil || errors.Is(err, domain.ErrInvalidInput) {
		s.markProcessed(ctx, evt.EventID, TopicLaunchRequested)
	}
	return res, err
}

func (s *Service) HandlePauseRequested(ctx context.Context, payload []byte) error {
	campaignID, eventID, err := decodeCampaignCommand(payload, TopicPauseRequested)
	if err != nil {
		return err
	}
	dup, err := s.isDuplicate(ctx, eventID)
	if err != nil || dup {
		return err
	}
	if _, err := s.PauseCampaign(ctx, campaignID); err != nil {
		return err
	}
	s.markProcessed(ctx, eventID, TopicPauseRequested)
	return nil
}

func (s *Service) HandleResumeRequested(ctx context.Context, payload []byte) (LaunchResult, error) {
	campaignID, eventID, err := decodeCampaignCommand(payload, TopicResumeRequested)
	if err != nil {
		return LaunchResult{}, err
	}
	dup, err := s.isDuplicate(ctx, eventID)
	if err != nil || dup {
		return LaunchResult{}, err
	}
	res, err := s.ResumeCampaign(ctx, campaignID)
	if err != nil {
		return LaunchResult{}, err
	}
	s.markProcessed(ctx, eventID, TopicResumeRequested)
	return res, nil
}

func decodeCampaignCommand(payload []byte, topic string) (string, string, error) {
	var evt campaignCommandEvent
	if err := json.Unmarshal(payload, &evt); err != nil {
		return "", "", fmt.Errorf("%w: invalid %s payload", domain.ErrInvalidInput, topic)
	}
	campaignID := strings.TrimSpace(evt.Data.CampaignID)
	if campaignID == "" {
		return "", "", fmt.Errorf("%w: campaign_id is required", domain.ErrInvalidInput)
	}
	return campaignID, evt.EventID, nil
}

func (s *Service) isDuplicate(ctx context.Context, eventID string) (bool, error) {
	if s.eventDedup == nil || eventID == "" {
		return false, nil
	}
	return s.eventDedup.IsDuplicate(ctx, eventID, s.nowFn())
}

func (s *Service) markProcessed(ctx context.Context, eventID, eventType string) {
	if s.eventDedup == nil || eventID == "" {
		return
	}
	_ = s.eventDedup.MarkProcessed(context.WithoutCancel(ctx), eventID, eventType, s.nowFn().Add(s.cfg.EventDedupTTL))
}
