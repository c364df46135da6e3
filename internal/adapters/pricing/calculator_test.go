package pricing

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/viralforge/mesh/services/marketing/M61-campaign-orchestrator/internal/domain"
)

func TestCalculatorEstimate(t *testing.T) {
	calc := NewCalculator(DefaultRateCard())
	est, err := calc.Estimate(context.Background(), domain.CampaignShape{
		ContentPieces:    2,
		RepurposedPieces: 4,
		PublishedPieces:  4,
		Platforms:        []string{"twitter", "linkedin"},
		DurationDays:     10,
	})
	require.NoError(t, err)

	// 2*10 + 4*2 + 4*1 + 20*0.5
	assert.Equal(t, 42.0, est.Summary.TotalEstimate)
	require.Len(t, est.Summary.LineItems, 4)
	assert.Equal(t, 20, est.Summary.LineItems[3].Quantity)
	// value 2*25 + 4*6 = 74
	assert.Equal(t, 74.0, est.ROIProjection.ProjectedValue)
	assert.Equal(t, "76.2%", est.ROIProjection.ROI)
}

func TestCalculatorZeroShape(t *testing.T) {
	est, err := NewCalculator(DefaultRateCard()).Estimate(context.Background(), domain.CampaignShape{})
	require.NoError(t, err)
	assert.Zero(t, est.Summary.TotalEstimate)
	assert.Equal(t, "0.0%", est.ROIProjection.ROI)
}

func TestCalculatorRejectsNegativeQuantities(t *testing.T) {
	_, err := NewCalculator(DefaultRateCard()).Estimate(context.Background(), domain.CampaignShape{ContentPieces: -1})
	require.ErrorIs(t, err, domain.ErrInvalidInput)
}
