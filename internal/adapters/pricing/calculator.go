package pricing

import (
	"context"
	"fmt"
	"math"

	"github.com/viralforge/mesh/services/marketing/M61-campaign-orchestrator/internal/domain"
	"github.com/viralforge/mesh/services/marketing/M61-campaign-orchestrator/internal/ports"
)

// RateCard prices each unit of campaign work. The value rates drive the ROI
// projection only.
type RateCard struct {
	PerContent         float64 `yaml:"per_content"`
	PerRepurposedPiece float64 `yaml:"per_repurposed_piece"`
	PerPublish         float64 `yaml:"per_publish"`
	PerPlatformDay     float64 `yaml:"per_platform_day"`
	ValuePerContent    float64 `yaml:"value_per_content"`
	ValuePerPublish    float64 `yaml:"value_per_publish"`
}

func DefaultRateCard() RateCard {
	return RateCard{
		PerContent:         10,
		PerRepurposedPiece: 2,
		PerPublish:         1,
		PerPlatformDay:     0.5,
		ValuePerContent:    25,
		ValuePerPublish:    6,
	}
}

type Calculator struct {
	rates RateCard
}

func NewCalculator(rates RateCard) *Calculator {
	return &Calculator{rates: rates}
}

func (c *Calculator) Estimate(ctx context.Context, shape domain.CampaignShape) (domain.CostEstimate, error) {
	if err := ctx.Err(); err != nil {
		return domain.CostEstimate{}, err
	}
	if shape.ContentPieces < 0 || shape.RepurposedPieces < 0 || shape.PublishedPieces < 0 || shape.DurationDays < 0 {
		return domain.CostEstimate{}, fmt.Errorf("%w: negative quantity in campaign shape", domain.ErrInvalidInput)
	}
	platformDays := shape.DurationDays * len(shape.Platforms)
	items := []domain.CostLineItem{
		lineItem("content", shape.ContentPieces, c.rates.PerContent),
		lineItem("repurposed_pieces", shape.RepurposedPieces, c.rates.PerRepurposedPiece),
		lineItem("publishing", shape.PublishedPieces, c.rates.PerPublish),
		lineItem("platform_days", platformDays, c.rates.PerPlatformDay),
	}
	total := 0.0
	for _, item := range items {
		total += item.Total
	}
	total = round2(total)
	value := round2(float64(shape.ContentPieces)*c.rates.ValuePerContent +
		float64(shape.PublishedPieces)*c.rates.ValuePerPublish)

	return domain.CostEstimate{
		Summary:       domain.CostSummary{TotalEstimate: total, LineItems: items},
		ROIProjection: domain.ROIProjection{ROI: formatROI(value, total), ProjectedValue: value},
	}, nil
}

func lineItem(name string, qty int, unit float64) domain.CostLineItem {
	return domain.CostLineItem{Name: name, Quantity: qty, UnitCost: unit, Total: round2(float64(qty) * unit)}
}

// formatROI renders (value-cost)/cost as a percentage; zero cost has no
// meaningful ratio and reports 0.0%.
func formatROI(value, cost float64) string {
	if cost <= 0 {
		return "0.0%"
	}
	return fmt.Sprintf("%.1f%%", (value-cost)/cost*100)
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

var _ ports.CostEstimator = (*Calculator)(nil)
