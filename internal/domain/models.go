package domain

import (
	"time"
)

type Mode string

const (
	ModeFullAuto Mode = "full_auto"
	ModeSemiAuto Mode = "semi_auto"
	ModeHybrid   Mode = "hybrid"
)

func (m Mode) Valid() bool {
	switch m {
	case ModeFullAuto, ModeSemiAuto, ModeHybrid:
		return true
	default:
		return false
	}
}

type CampaignStatus string

const (
	CampaignStatusPlanning   CampaignStatus = "planning"
	CampaignStatusGenerating CampaignStatus = "generating"
	CampaignStatusActive     CampaignStatus = "active"
	CampaignStatusPaused     CampaignStatus = "paused"
	CampaignStatusFailed     CampaignStatus = "failed"
)

type ContentType string

const ContentTypeBlog ContentType = "blog"

type ContentStatus string

const ContentStatusGenerated ContentStatus = "generated"

// DefaultBlogQuota applies when a launch request leaves contentPreferences.blogs unset.
const DefaultBlogQuota = 5

type ContentPreferences struct {
	Blogs *int `json:"blogs,omitempty"`
}

// BlogQuota distinguishes an explicit zero from an unset quota.
func (p ContentPreferences) BlogQuota(fallback int) int {
	if p.Blogs == nil {
		return fallback
	}
	return *p.Blogs
}

type PlatformRule struct {
	Enabled         bool   `json:"enabled"`
	MaxPieces       int    `json:"max_pieces,omitempty"`
	Tone            string `json:"tone,omitempty"`
	IncludeHashtags bool   `json:"include_hashtags,omitempty"`
}

type RepurposeRules map[string]PlatformRule

type Campaign struct {
	CampaignID         string             `json:"campaign_id"`
	ProfileID          string             `json:"profile_id"`
	Name               string             `json:"name"`
	Mode               Mode               `json:"mode"`
	Status             CampaignStatus     `json:"status"`
	BudgetAllocated    float64            `json:"budget_allocated"`
	BudgetUsed         float64            `json:"budget_used"`
	BudgetRemaining    float64            `json:"budget_remaining"`
	EstimatedCost      float64            `json:"estimated_cost"`
	ActualCost         float64            `json:"actual_cost"`
	DurationDays       int                `json:"duration_days"`
	Platforms          []string           `json:"platforms"`
	ContentPreferences ContentPreferences `json:"content_preferences"`
	RepurposeRules     RepurposeRules     `json:"repurpose_rules,omitempty"`
	State              OrchestrationState `json:"state"`
	CreatedAt          time.Time          `json:"created_at"`
	UpdatedAt          time.Time          `json:"updated_at"`
	CompletedAt        *time.Time         `json:"completed_at,omitempty"`
}

// SyncFromState projects the embedded state onto the coarse campaign fields.
func (c *Campaign) SyncFromState(now time.Time) {
	c.Status = c.State.CampaignStatus()
	c.BudgetUsed = c.State.Metrics.BudgetUsed
	c.BudgetRemaining = c.State.Metrics.BudgetRemaining
	c.UpdatedAt = now
	if c.State.Phase == PhaseCompleted && c.CompletedAt == nil {
		at := now
		c.CompletedAt = &at
	}
}

type ContentPiece struct {
	ContentID       string        `json:"content_id"`
	CampaignID      string        `json:"campaign_id"`
	ProfileID       string        `json:"profile_id"`
	Type            ContentType   `json:"type"`
	Sequence        int           `json:"sequence"`
	Title           string        `json:"title"`
	Body            string        `json:"body"`
	MetaDescription string        `json:"meta_description,omitempty"`
	WordCount       int           `json:"word_count"`
	Status          ContentStatus `json:"status"`
	CreatedAt       time.Time     `json:"created_at"`
}

type RepurposedPiece struct {
	Platform  string   `json:"platform"`
	Body      string   `json:"body"`
	MediaURLs []string `json:"media_urls,omitempty"`
	Hashtags  []string `json:"hashtags,omitempty"`
}

type PlatformOutput struct {
	Platform string            `json:"platform"`
	Pieces   []RepurposedPiece `json:"pieces"`
}

type RepurposedBatch struct {
	ContentID      string           `json:"content_id"`
	Generated      []PlatformOutput `json:"generated"`
	TotalPieces    int              `json:"total_pieces"`
	EstimatedReach int64            `json:"estimated_reach"`
}

// Pieces flattens the batch in platform order.
func (b RepurposedBatch) Pieces() []RepurposedPiece {
	out := make([]RepurposedPiece, 0, b.TotalPieces)
	for _, gen := range b.Generated {
		for _, piece := range gen.Pieces {
			if piece.Platform == "" {
				piece.Platform = gen.Platform
			}
			out = append(out, piece)
		}
	}
	return out
}

type ExecutionSummary struct {
	TotalContent       int     `json:"total_content"`
	TotalRepurposed    int     `json:"total_repurposed"`
	PlatformsPublished int     `json:"platforms_published"`
	ContentPublished   int     `json:"content_published"`
	EstimatedReach     int64   `json:"estimated_reach"`
	ROI                string  `json:"roi"`
	ActualCost         float64 `json:"actual_cost"`
}
