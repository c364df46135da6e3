package postgres

import (
	"github.com/viralforge/mesh/services/marketing/M61-campaign-orchestrator/internal/ports"
	"gorm.io/gorm"
)

type Repositories struct {
	Campaigns  ports.CampaignRepository
	Contents   ports.ContentRepository
	Logs       ports.LogRepository
	Artifacts  ports.ArtifactStore
	Outbox     ports.OutboxRepository
	EventDedup ports.EventDedupRepository
}

func NewRepositories(db *gorm.DB) Repositories {
	return Repositories{
		Campaigns:  &campaignRepository{db: db},
		Contents:   &contentRepository{db: db},
		Logs:       &logRepository{db: db},
		Artifacts:  &artifactRepository{db: db},
		Outbox:     &outboxRepository{db: db},
		EventDedup: &eventDedupRepository{db: db},
	}
}
