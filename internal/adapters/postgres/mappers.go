package postgres

import (
	"encoding/json"
	"fmt"

	"github.com/viralforge/mesh/services/marketing/M61-campaign-orchestrator/internal/domain"
)

func toCampaignModel(c domain.Campaign) (campaignModel, error) {
	platforms, err := marshalJSON(nonNilStrings(c.Platforms))
	if err != nil {
		return campaignModel{}, fmt.Errorf("encode platforms: %w", err)
	}
	prefs, err := marshalJSON(c.ContentPreferences)
	if err != nil {
		return campaignModel{}, fmt.Errorf("encode content preferences: %w", err)
	}
	rules := c.RepurposeRules
	if rules == nil {
		rules = domain.RepurposeRules{}
	}
	rulesJSON, err := marshalJSON(rules)
	if err != nil {
		return campaignModel{}, fmt.Errorf("encode repurpose rules: %w", err)
	}
	state, err := marshalJSON(c.State)
	if err != nil {
		return campaignModel{}, fmt.Errorf("encode state: %w", err)
	}
	return campaignModel{
		CampaignID:         c.CampaignID,
		ProfileID:          c.ProfileID,
		Name:               c.Name,
		Mode:               string(c.Mode),
		Status:             string(c.Status),
		BudgetAllocated:    c.BudgetAllocated,
		BudgetUsed:         c.BudgetUsed,
		BudgetRemaining:    c.BudgetRemaining,
		EstimatedCost:      c.EstimatedCost,
		ActualCost:         c.ActualCost,
		DurationDays:       c.DurationDays,
		Platforms:          platforms,
		ContentPreferences: prefs,
		RepurposeRules:     rulesJSON,
		State:              state,
		CreatedAt:          c.CreatedAt,
		UpdatedAt:          c.UpdatedAt,
		CompletedAt:        c.CompletedAt,
	}, nil
}

func toDomainCampaign(row campaignModel) (domain.Campaign, error) {
	out := domain.Campaign{
		CampaignID:      row.CampaignID,
		ProfileID:       row.ProfileID,
		Name:            row.Name,
		Mode:            domain.Mode(row.Mode),
		Status:          domain.CampaignStatus(row.Status),
		BudgetAllocated: row.BudgetAllocated,
		BudgetUsed:      row.BudgetUsed,
		BudgetRemaining: row.BudgetRemaining,
		EstimatedCost:   row.EstimatedCost,
		ActualCost:      row.ActualCost,
		DurationDays:    row.DurationDays,
		CreatedAt:       row.CreatedAt,
		UpdatedAt:       row.UpdatedAt,
		CompletedAt:     row.CompletedAt,
	}
	if err := json.Unmarshal([]byte(row.Platforms), &out.Platforms); err != nil {
		return domain.Campaign{}, fmt.Errorf("decode platforms: %w", err)
	}
	if err := json.Unmarshal([]byte(row.ContentPreferences), &out.ContentPreferences); err != nil {
		return domain.Campaign{}, fmt.Errorf("decode content preferences: %w", err)
	}
	if err := json.Unmarshal([]byte(row.RepurposeRules), &out.RepurposeRules); err != nil {
		return domain.Campaign{}, fmt.Errorf("decode repurpose rules: %w", err)
	}
	if err := json.Unmarshal([]byte(row.State), &out.State); err != nil {
		return domain.Campaign{}, fmt.Errorf("decode state: %w", err)
	}
	return out, nil
}

func toDomainContentPiece(row contentPieceModel) domain.ContentPiece {
	return domain.ContentPiece{
		ContentID:       row.ContentID,
		CampaignID:      row.CampaignID,
		ProfileID:       row.ProfileID,
		Type:            domain.ContentType(row.Type),
		Sequence:        row.Sequence,
		Title:           row.Title,
		Body:            row.Body,
		MetaDescription: row.MetaDescription,
		WordCount:       row.WordCount,
		Status:          domain.ContentStatus(row.Status),
		CreatedAt:       row.CreatedAt,
	}
}

func nonNilStrings(v []string) []string {
	if v == nil {
		return []string{}
	}
	return v
}
