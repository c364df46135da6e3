package postgres

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/viralforge/mesh/services/marketing/M61-campaign-orchestrator/internal/domain"
	"github.com/viralforge/mesh/services/marketing/M61-campaign-orchestrator/internal/ports"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// artifactRepository is the durable ArtifactStore used when no redis is
// configured.
type artifactRepository struct {
	db *gorm.DB
}

func (r *artifactRepository) PutBatch(ctx context.Context, campaignID string, batch domain.RepurposedBatch) error {
	raw, err := marshalJSON(batch)
	if err != nil {
		return fmt.Errorf("encode batch: %w", err)
	}
	row := repurposedBatchModel{
		CampaignID: campaignID,
		ContentID:  batch.ContentID,
		Batch:      raw,
		CreatedAt:  time.Now().UTC(),
	}
	err = r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "campaign_id"}, {Name: "content_id"}},
		DoUpdates: clause.Assignments(map[string]any{"batch": row.Batch}),
	}).Create(&row).Error
	if err != nil {
		return fmt.Errorf("%w: %v", domain.ErrStorageUnavailable, err)
	}
	return nil
}

func (r *artifactRepository) ListBatches(ctx context.Context, campaignID string) (map[string]domain.RepurposedBatch, error) {
	var rows []repurposedBatchModel
	if err := r.db.WithContext(ctx).Where("campaign_id = ?", campaignID).Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrStorageUnavailable, err)
	}
	out := make(map[string]domain.RepurposedBatch, len(rows))
	for _, row := range rows {
		var batch domain.RepurposedBatch
		if err := json.Unmarshal([]byte(row.Batch), &batch); err != nil {
			return nil, fmt.Errorf("decode batch %s: %w", row.ContentID, err)
		}
		out[row.ContentID] = batch
	}
	return out, nil
}

var _ ports.ArtifactStore = (*artifactRepository)(nil)
