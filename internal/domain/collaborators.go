package domain

import "time"

type LandscapeAnalysis struct {
	ProfileID     string    `json:"profile_id"`
	Summary       string    `json:"summary"`
	Competitors   []string  `json:"competitors,omitempty"`
	Opportunities []string  `json:"opportunities,omitempty"`
	GeneratedAt   time.Time `json:"generated_at"`
}

type StrategyPlan struct {
	ProfileID   string    `json:"profile_id"`
	Summary     string    `json:"summary"`
	Themes      []string  `json:"themes,omitempty"`
	Channels    []string  `json:"channels,omitempty"`
	GeneratedAt time.Time `json:"generated_at"`
}

// ContentBrief is the prompt context handed to the content generator.
type ContentBrief struct {
	ProfileID    string            `json:"profile_id"`
	CampaignID   string            `json:"campaign_id"`
	CampaignName string            `json:"campaign_name"`
	ContentType  ContentType       `json:"content_type"`
	Sequence     int               `json:"sequence"`
	Total        int               `json:"total"`
	Landscape    LandscapeAnalysis `json:"landscape"`
	Strategy     StrategyPlan      `json:"strategy"`
}

type GeneratedContent struct {
	Title           string `json:"title"`
	Content         string `json:"content"`
	WordCount       int    `json:"wordCount"`
	MetaDescription string `json:"metaDescription"`
}

type PublishItem struct {
	ContentID string   `json:"content_id"`
	Platform  string   `json:"platform"`
	Body      string   `json:"body"`
	MediaURLs []string `json:"media_urls,omitempty"`
	Hashtags  []string `json:"hashtags,omitempty"`
}

type PublishRequest struct {
	ProfileID  string        `json:"profile_id"`
	CampaignID string        `json:"campaign_id"`
	Content    []PublishItem `json:"content"`
}

type PublishItemResult struct {
	Platform   string `json:"platform"`
	Success    bool   `json:"success"`
	ExternalID string `json:"external_id,omitempty"`
	Error      string `json:"error,omitempty"`
}

type PublishResult struct {
	Successful int                 `json:"successful"`
	Results    []PublishItemResult `json:"results"`
}

// CampaignShape is the quantity description priced by the cost estimator.
type CampaignShape struct {
	ContentPieces    int      `json:"content_pieces"`
	RepurposedPieces int      `json:"repurposed_pieces"`
	PublishedPieces  int      `json:"published_pieces"`
	Platforms        []string `json:"platforms"`
	DurationDays     int      `json:"duration_days"`
	Budget           float64  `json:"budget"`
}

type CostLineItem struct {
	Name     string  `json:"name"`
	Quantity int     `json:"quantity"`
	UnitCost float64 `json:"unit_cost"`
	Total    float64 `json:"total"`
}

type CostSummary struct {
	TotalEstimate float64        `json:"total_estimate"`
	LineItems     []CostLineItem `json:"line_items"`
}

type ROIProjection struct {
	ROI            string  `json:"roi"`
	ProjectedValue float64 `json:"projected_value"`
}

type CostEstimate struct {
	Summary       CostSummary   `json:"summary"`
	ROIProjection ROIProjection `json:"roi_projection"`
}
