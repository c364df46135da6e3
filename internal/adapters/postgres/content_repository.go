package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/viralforge/mesh/services/marketing/M61-campaign-orchestrator/internal/domain"
	"github.com/viralforge/mesh/services/marketing/M61-campaign-orchestrator/internal/ports"
	"gorm.io/gorm"
)

type contentRepository struct {
	db *gorm.DB
}

func (r *contentRepository) Create(ctx context.Context, piece domain.ContentPiece) error {
	rec := contentPieceModel{
		ContentID:       piece.ContentID,
		CampaignID:      piece.CampaignID,
		ProfileID:       piece.ProfileID,
		Type:            string(piece.Type),
		Sequence:        piece.Sequence,
		Title:           piece.Title,
		Body:            piece.Body,
		MetaDescription: piece.MetaDescription,
		WordCount:       piece.WordCount,
		Status:          string(piece.Status),
		CreatedAt:       piece.CreatedAt,
	}
	if err := r.db.WithContext(ctx).Create(&rec).Error; err != nil {
		if isUniqueViolation(err) || errors.Is(err, gorm.ErrDuplicatedKey) {
			return fmt.Errorf("%w: content %d already exists for campaign", domain.ErrConflict, piece.Sequence)
		}
		return fmt.Errorf("%w: %v", domain.ErrStorageUnavailable, err)
	}
	return nil
}

func (r *contentRepository) ListByCampaign(ctx context.Context, campaignID string) ([]domain.ContentPiece, error) {
	var rows []contentPieceModel
	if err := r.db.WithContext(ctx).Where("campaign_id = ?", campaignID).Order("sequence asc").Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrStorageUnavailable, err)
	}
	out := make([]domain.ContentPiece, 0, len(rows))
	for _, row := range rows {
		out = append(out, toDomainContentPiece(row))
	}
	return out, nil
}

var _ ports.ContentRepository = (*contentRepository)(nil)
