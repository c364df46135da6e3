package postgres

import (
	"context"
	"time"

	"github.com/viralforge/mesh/services/marketing/M61-campaign-orchestrator/internal/ports"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type eventDedupRepository struct {
	db *gorm.DB
}

func (r *eventDedupRepository) IsDuplicate(ctx context.Context, eventID string, now time.Time) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&campaignEventDedupModel{}).
		Where("event_id = ? AND expires_at > ?", eventID, now).
		Count(&count).Error
	return count > 0, err
}

func (r *eventDedupRepository) MarkProcessed(ctx context.Context, eventID, eventType string, expiresAt time.Time) error {
	rec := campaignEventDedupModel{
		EventID:     eventID,
		EventType:   eventType,
		ProcessedAt: time.Now().UTC(),
		ExpiresAt:   expiresAt,
	}
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "event_id"}},
		DoUpdates: clause.Assignments(map[string]any{
			"event_type":   rec.EventType,
			"processed_at": rec.ProcessedAt,
			"expires_at":   rec.ExpiresAt,
		}),
	}).Create(&rec).Error
}

var _ ports.EventDedupRepository = (*eventDedupRepository)(nil)
