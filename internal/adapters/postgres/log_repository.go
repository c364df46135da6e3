package postgres

import (
	"context"
	"fmt"

	"github.com/viralforge/mesh/services/marketing/M61-campaign-orchestrator/internal/domain"
	"github.com/viralforge/mesh/services/marketing/M61-campaign-orchestrator/internal/ports"
	"gorm.io/gorm"
)

type logRepository struct {
	db *gorm.DB
}

func (r *logRepository) Append(ctx context.Context, campaignID string, entry domain.LogEntry) error {
	rec := campaignLogModel{
		CampaignID: campaignID,
		Level:      string(entry.Level),
		Stage:      string(entry.Stage),
		Message:    entry.Message,
		LoggedAt:   entry.Timestamp,
	}
	if err := r.db.WithContext(ctx).Create(&rec).Error; err != nil {
		return fmt.Errorf("%w: %v", domain.ErrStorageUnavailable, err)
	}
	return nil
}

func (r *logRepository) ListByCampaign(ctx context.Context, campaignID string) ([]domain.LogEntry, error) {
	var rows []campaignLogModel
	if err := r.db.WithContext(ctx).Where("campaign_id = ?", campaignID).Order("log_id asc").Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrStorageUnavailable, err)
	}
	out := make([]domain.LogEntry, 0, len(rows))
	for _, row := range rows {
		out = append(out, domain.LogEntry{
			Timestamp: row.LoggedAt,
			Level:     domain.LogLevel(row.Level),
			Stage:     domain.Stage(row.Stage),
			Message:   row.Message,
		})
	}
	return out, nil
}

var _ ports.LogRepository = (*logRepository)(nil)
