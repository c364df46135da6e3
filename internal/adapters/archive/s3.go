package archive

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"path"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/viralforge/mesh/services/marketing/M61-campaign-orchestrator/internal/domain"
	"github.com/viralforge/mesh/services/marketing/M61-campaign-orchestrator/internal/ports"
)

// putObjectAPI is the part of the S3 client the archive uses.
type putObjectAPI interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

type S3Options struct {
	Bucket         string
	Prefix         string
	Region         string
	Endpoint       string
	ForcePathStyle bool
}

// S3Archive writes one JSON document per completed campaign to
// {prefix}/{profile_id}/{campaign_id}.json.
type S3Archive struct {
	client putObjectAPI
	bucket string
	prefix string
}

func NewS3Archive(ctx context.Context, opts S3Options) (*S3Archive, error) {
	if opts.Bucket == "" {
		return nil, fmt.Errorf("s3 archive requires a bucket")
	}
	loadOpts := []func(*config.LoadOptions) error{}
	if opts.Region != "" {
		loadOpts = append(loadOpts, config.WithRegion(opts.Region))
	}
	cfg, err := config.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}
	if cfg.Region == "" {
		cfg.Region = "us-east-1"
	}
	client := s3.NewFromConfig(cfg, func(o *s3.Options) {
		if opts.Endpoint != "" {
			o.BaseEndpoint = aws.String(opts.Endpoint)
		}
		o.UsePathStyle = opts.ForcePathStyle
	})
	return newS3Archive(client, opts.Bucket, opts.Prefix), nil
}

func newS3Archive(client putObjectAPI, bucket, prefix string) *S3Archive {
	if prefix == "" {
		prefix = "campaign-summaries"
	}
	return &S3Archive{client: client, bucket: bucket, prefix: prefix}
}

type archivedSummary struct {
	CampaignID  string                  `json:"campaign_id"`
	ProfileID   string                  `json:"profile_id"`
	Name        string                  `json:"name"`
	Mode        domain.Mode             `json:"mode"`
	Platforms   []string                `json:"platforms"`
	CompletedAt *time.Time              `json:"completed_at,omitempty"`
	Summary     domain.ExecutionSummary `json:"summary"`
}

func (a *S3Archive) Archive(ctx context.Context, campaign domain.Campaign, summary domain.ExecutionSummary) error {
	raw, err := json.Marshal(archivedSummary{
		CampaignID:  campaign.CampaignID,
		ProfileID:   campaign.ProfileID,
		Name:        campaign.Name,
		Mode:        campaign.Mode,
		Platforms:   campaign.Platforms,
		CompletedAt: campaign.CompletedAt,
		Summary:     summary,
	})
	if err != nil {
		return err
	}
	_, err = a.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(a.bucket),
		Key:         aws.String(a.key(campaign)),
		Body:        bytes.NewReader(raw),
		ContentType: aws.String("application/json"),
		Metadata: map[string]string{
			"campaign-id": campaign.CampaignID,
			"profile-id":  campaign.ProfileID,
		},
	})
	if err != nil {
		return fmt.Errorf("put summary %s: %w", campaign.CampaignID, err)
	}
	return nil
}

func (a *S3Archive) key(campaign domain.Campaign) string {
	return path.Join(a.prefix, campaign.ProfileID, campaign.CampaignID+".json")
}

// Noop drops summaries; used when no bucket is configured.
type Noop struct{}

func (Noop) Archive(context.Context, domain.Campaign, domain.ExecutionSummary) error {
	return nil
}

var (
	_ ports.SummaryArchive = (*S3Archive)(nil)
	_ ports.SummaryArchive = Noop{}
)
