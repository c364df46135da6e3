package postgres

import (
	"time"

	"github.com/google/uuid"
)

type campaignModel struct {
	CampaignID         string     `gorm:"column:campaign_id;primaryKey"`
	ProfileID          string     `gorm:"column:profile_id"`
	Name               string     `gorm:"column:name"`
	Mode               string     `gorm:"column:mode"`
	Status             string     `gorm:"column:status"`
	BudgetAllocated    float64    `gorm:"column:budget_allocated"`
	BudgetUsed         float64    `gorm:"column:budget_used"`
	BudgetRemaining    float64    `gorm:"column:budget_remaining"`
	EstimatedCost      float64    `gorm:"column:estimated_cost"`
	ActualCost         float64    `gorm:"column:actual_cost"`
	DurationDays       int        `gorm:"column:duration_days"`
	Platforms          string     `gorm:"column:platforms"`
	ContentPreferences string     `gorm:"column:content_preferences"`
	RepurposeRules     string     `gorm:"column:repurpose_rules"`
	State              string     `gorm:"column:state"`
	CreatedAt          time.Time  `gorm:"column:created_at"`
	UpdatedAt          time.Time  `gorm:"column:updated_at"`
	CompletedAt        *time.Time `gorm:"column:completed_at"`
}

func (campaignModel) TableName() string { return "campaigns" }

type contentPieceModel struct {
	ContentID       string    `gorm:"column:content_id;primaryKey"`
	CampaignID      string    `gorm:"column:campaign_id"`
	ProfileID       string    `gorm:"column:profile_id"`
	Type            string    `gorm:"column:type"`
	Sequence        int       `gorm:"column:sequence"`
	Title           string    `gorm:"column:title"`
	Body            string    `gorm:"column:body"`
	MetaDescription string    `gorm:"column:meta_description"`
	WordCount       int       `gorm:"column:word_count"`
	Status          string    `gorm:"column:status"`
	CreatedAt       time.Time `gorm:"column:created_at"`
}

func (contentPieceModel) TableName() string { return "content_pieces" }

type campaignLogModel struct {
	LogID      int64     `gorm:"column:log_id;primaryKey;autoIncrement"`
	CampaignID string    `gorm:"column:campaign_id"`
	Level      string    `gorm:"column:level"`
	Stage      string    `gorm:"column:stage"`
	Message    string    `gorm:"column:message"`
	LoggedAt   time.Time `gorm:"column:logged_at"`
}

func (campaignLogModel) TableName() string { return "campaign_logs" }

type repurposedBatchModel struct {
	CampaignID string    `gorm:"column:campaign_id;primaryKey"`
	ContentID  string    `gorm:"column:content_id;primaryKey"`
	Batch      string    `gorm:"column:batch"`
	CreatedAt  time.Time `gorm:"column:created_at"`
}

func (repurposedBatchModel) TableName() string { return "repurposed_batches" }

type campaignOutboxModel struct {
	OutboxID         uuid.UUID  `gorm:"column:outbox_id;type:uuid;primaryKey"`
	EventType        string     `gorm:"column:event_type"`
	PartitionKey     string     `gorm:"column:partition_key"`
	PartitionKeyPath string     `gorm:"column:partition_key_path"`
	Payload          string     `gorm:"column:payload"`
	SchemaVersion    string     `gorm:"column:schema_version"`
	TraceID          string     `gorm:"column:trace_id"`
	CreatedAt        time.Time  `gorm:"column:created_at"`
	FirstSeenAt      time.Time  `gorm:"column:first_seen_at"`
	PublishedAt      *time.Time `gorm:"column:published_at"`
	RetryCount       int        `gorm:"column:retry_count"`
	LastError        *string    `gorm:"column:last_error"`
	LastErrorAt      *time.Time `gorm:"column:last_error_at"`
}

func (campaignOutboxModel) TableName() string { return "campaign_outbox" }

type campaignEventDedupModel struct {
	EventID     string    `gorm:"column:event_id;primaryKey"`
	EventType   string    `gorm:"column:event_type"`
	ProcessedAt time.Time `gorm:"column:processed_at"`
	ExpiresAt   time.Time `gorm:"column:expires_at"`
}

func (campaignEventDedupModel) TableName() string { return "campaign_event_dedup" }
