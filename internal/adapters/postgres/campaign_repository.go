package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/viralforge/mesh/services/marketing/M61-campaign-orchestrator/internal/domain"
	"github.com/viralforge/mesh/services/marketing/M61-campaign-orchestrator/internal/ports"
	"gorm.io/gorm"
)

type campaignRepository struct {
	db *gorm.DB
}

func (r *campaignRepository) Create(ctx context.Context, campaign domain.Campaign) (domain.Campaign, error) {
	rec, err := toCampaignModel(campaign)
	if err != nil {
		return domain.Campaign{}, err
	}
	if err := r.db.WithContext(ctx).Create(&rec).Error; err != nil {
		if isUniqueViolation(err) || errors.Is(err, gorm.ErrDuplicatedKey) {
			return domain.Campaign{}, domain.ErrConflict
		}
		return domain.Campaign{}, fmt.Errorf("%w: %v", domain.ErrStorageUnavailable, err)
	}
	return toDomainCampaign(rec)
}

// Update overwrites the state document and the fields projected from it.
func (r *campaignRepository) Update(ctx context.Context, params ports.UpdateCampaignParams) (domain.Campaign, error) {
	state, err := marshalJSON(params.State)
	if err != nil {
		return domain.Campaign{}, fmt.Errorf("encode state: %w", err)
	}
	var rec campaignModel
	err = r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&campaignModel{}).Where("campaign_id = ?", params.CampaignID).Updates(map[string]any{
			"status":           string(params.Status),
			"budget_used":      params.BudgetUsed,
			"budget_remaining": params.BudgetRemaining,
			"actual_cost":      params.ActualCost,
			"completed_at":     params.CompletedAt,
			"state":            state,
			"updated_at":       params.UpdatedAt,
		})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return domain.ErrNotFound
		}
		return tx.Where("campaign_id = ?", params.CampaignID).Take(&rec).Error
	})
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return domain.Campaign{}, err
		}
		return domain.Campaign{}, fmt.Errorf("%w: %v", domain.ErrStorageUnavailable, err)
	}
	return toDomainCampaign(rec)
}

func (r *campaignRepository) GetByID(ctx context.Context, campaignID string) (domain.Campaign, error) {
	var rec campaignModel
	if err := r.db.WithContext(ctx).Where("campaign_id = ?", strings.TrimSpace(campaignID)).Take(&rec).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.Campaign{}, domain.ErrNotFound
		}
		return domain.Campaign{}, fmt.Errorf("%w: %v", domain.ErrStorageUnavailable, err)
	}
	return toDomainCampaign(rec)
}

func (r *campaignRepository) ListByProfile(ctx context.Context, profileID string, limit int) ([]domain.Campaign, error) {
	var rows []campaignModel
	q := r.db.WithContext(ctx).Where("profile_id = ?", profileID).Order("created_at desc")
	if limit > 0 {
		q = q.Limit(limit)
	}
	if err := q.Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrStorageUnavailable, err)
	}
	out := make([]domain.Campaign, 0, len(rows))
	for _, row := range rows {
		item, err := toDomainCampaign(row)
		if err != nil {
			return nil, err
		}
		out = append(out, item)
	}
	return out, nil
}

var _ ports.CampaignRepository = (*campaignRepository)(nil)
