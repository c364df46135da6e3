package bootstrap

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"sort"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/viralforge/mesh/services/marketing/M61-campaign-orchestrator/internal/adapters/pricing"
	"github.com/viralforge/mesh/services/marketing/M61-campaign-orchestrator/internal/domain"
)

const (
	StorageDriverPostgres = "postgres"
	StorageDriverMemory   = "memory"

	CollaboratorsDriverHTTP    = "http"
	CollaboratorsDriverSandbox = "sandbox"
)

type Config struct {
	ServiceID string
	LogLevel  string

	HTTPPort int
	GRPCPort int

	StorageDriver       string
	CollaboratorsDriver string

	DatabaseURL        string
	RedisURL           string
	KafkaBrokers       []string
	KafkaConsumerGroup string
	// KafkaTopicLifecycle receives every campaign.* outbox event unless
	// KafkaTopicByEvent routes it elsewhere.
	KafkaTopicLifecycle string
	KafkaTopicByEvent   map[string]string
	S3Bucket            string
	S3Region            string
	S3Endpoint          string
	S3Prefix            string
	S3ForcePathStyle    bool

	LandscapeURL string
	StrategyURL  string
	ContentURL   string
	RepurposeURL string
	PublishURL   string
	GenAIAPIKey  string
	GenAIModel   string

	MaxDBConns           int32
	OutboxPollInterval   time.Duration
	OutboxBatchSize      int
	ConsumerPollInterval time.Duration
	MaxConcurrentRuns    int

	DefaultBlogQuota     int
	LogWindow            int
	StateCacheTTL        time.Duration
	ArtifactTTL          time.Duration
	CollaboratorCacheTTL time.Duration
	CollaboratorTimeout  time.Duration
	EventDedupTTL        time.Duration

	Pricing pricing.RateCard
}

type configFile struct {
	Service struct {
		ID       string `yaml:"id"`
		HTTPPort int    `yaml:"http_port"`
		GRPCPort int    `yaml:"grpc_port"`
	} `yaml:"service"`
	Logging struct {
		Level string `yaml:"level"`
	} `yaml:"logging"`
	Storage struct {
		Driver string `yaml:"driver"`
	} `yaml:"storage"`
	Collaborators struct {
		Driver string `yaml:"driver"`
	} `yaml:"collaborators"`
	Dependencies struct {
		PostgresURL         string            `yaml:"postgres_url"`
		RedisURL            string            `yaml:"redis_url"`
		KafkaBrokers        []string          `yaml:"kafka_brokers"`
		KafkaConsumerGroup  string            `yaml:"kafka_consumer_group"`
		KafkaTopicLifecycle string            `yaml:"kafka_topic_lifecycle"`
		KafkaTopicByEvent   map[string]string `yaml:"kafka_topic_by_event"`
		S3Bucket            string            `yaml:"s3_bucket"`
		S3Region            string            `yaml:"s3_region"`
		S3Endpoint          string            `yaml:"s3_endpoint"`
		S3Prefix            string            `yaml:"s3_prefix"`
		S3ForcePathStyle    bool              `yaml:"s3_force_path_style"`
		LandscapeURL        string            `yaml:"landscape_url"`
		StrategyURL         string            `yaml:"strategy_url"`
		ContentURL          string            `yaml:"content_url"`
		RepurposeURL        string            `yaml:"repurpose_url"`
		PublishURL          string            `yaml:"publish_url"`
		GenAIAPIKey         string            `yaml:"genai_api_key"`
		GenAIModel          string            `yaml:"genai_model"`
	} `yaml:"dependencies"`
	Orchestrator struct {
		DefaultBlogQuota     int    `yaml:"default_blog_quota"`
		LogWindow            int    `yaml:"log_window"`
		StateCacheTTL        string `yaml:"state_cache_ttl"`
		ArtifactTTL          string `yaml:"artifact_ttl"`
		CollaboratorCacheTTL string `yaml:"collaborator_cache_ttl"`
		CollaboratorTimeout  string `yaml:"collaborator_timeout"`
		MaxConcurrentRuns    int    `yaml:"max_concurrent_runs"`
	} `yaml:"orchestrator"`
	Pricing *pricing.RateCard `yaml:"pricing"`
}

func LoadConfig(path string) (Config, error) {
	cfg := Config{
		ServiceID:            "M61-Campaign-Orchestrator",
		LogLevel:             "info",
		HTTPPort:             8080,
		GRPCPort:             9090,
		StorageDriver:        StorageDriverPostgres,
		CollaboratorsDriver:  CollaboratorsDriverHTTP,
		KafkaConsumerGroup:   "m61-campaign-orchestrator",
		KafkaTopicLifecycle:  "marketing.campaign_lifecycle",
		S3Prefix:             "campaign-summaries",
		MaxDBConns:           20,
		OutboxPollInterval:   2 * time.Second,
		OutboxBatchSize:      100,
		ConsumerPollInterval: 2 * time.Second,
		MaxConcurrentRuns:    8,
		DefaultBlogQuota:     5,
		LogWindow:            500,
		StateCacheTTL:        24 * time.Hour,
		ArtifactTTL:          7 * 24 * time.Hour,
		CollaboratorCacheTTL: 6 * time.Hour,
		CollaboratorTimeout:  60 * time.Second,
		EventDedupTTL:        7 * 24 * time.Hour,
		Pricing:              pricing.DefaultRateCard(),
	}

	if path != "" {
		raw, err := os.ReadFile(path)
		switch {
		case err == nil:
			if err := applyFile(&cfg, raw); err != nil {
				return Config{}, err
			}
		case !errors.Is(err, os.ErrNotExist):
			return Config{}, fmt.Errorf("read config file: %w", err)
		}
	}

	cfg.LogLevel = strings.ToLower(envOrDefault("LOG_LEVEL", cfg.LogLevel))
	cfg.StorageDriver = strings.ToLower(envOrDefault("STORAGE_DRIVER", cfg.StorageDriver))
	cfg.CollaboratorsDriver = strings.ToLower(envOrDefault("COLLABORATORS_DRIVER", cfg.CollaboratorsDriver))
	cfg.DatabaseURL = envOrDefault("DB_URL", envOrDefault("POSTGRES_URL", cfg.DatabaseURL))
	cfg.RedisURL = envOrDefault("REDIS_URL", cfg.RedisURL)
	cfg.KafkaBrokers = envCSV("KAFKA_BROKERS", cfg.KafkaBrokers)
	cfg.KafkaConsumerGroup = envOrDefault("KAFKA_CONSUMER_GROUP", cfg.KafkaConsumerGroup)
	cfg.KafkaTopicLifecycle = envOrDefault("KAFKA_TOPIC_LIFECYCLE", cfg.KafkaTopicLifecycle)
	cfg.S3Bucket = envOrDefault("S3_BUCKET", cfg.S3Bucket)
	cfg.S3Region = envOrDefault("S3_REGION", cfg.S3Region)
	cfg.S3Endpoint = envOrDefault("S3_ENDPOINT", cfg.S3Endpoint)
	cfg.S3ForcePathStyle = envBool("S3_FORCE_PATH_STYLE", cfg.S3ForcePathStyle)
	cfg.LandscapeURL = envOrDefault("LANDSCAPE_URL", cfg.LandscapeURL)
	cfg.StrategyURL = envOrDefault("STRATEGY_URL", cfg.StrategyURL)
	cfg.ContentURL = envOrDefault("CONTENT_URL", cfg.ContentURL)
	cfg.RepurposeURL = envOrDefault("REPURPOSE_URL", cfg.RepurposeURL)
	cfg.PublishURL = envOrDefault("PUBLISH_URL", cfg.PublishURL)
	cfg.GenAIAPIKey = envOrDefault("GEMINI_API_KEY", envOrDefault("GOOGLE_API_KEY", cfg.GenAIAPIKey))
	cfg.GenAIModel = envOrDefault("GENAI_MODEL", cfg.GenAIModel)
	cfg.HTTPPort = envInt("HTTP_PORT", cfg.HTTPPort)
	cfg.GRPCPort = envInt("GRPC_PORT", cfg.GRPCPort)
	cfg.MaxDBConns = int32(envInt("DB_MAX_CONNS", int(cfg.MaxDBConns)))
	cfg.OutboxPollInterval = envDuration("OUTBOX_POLL_INTERVAL", cfg.OutboxPollInterval)
	cfg.OutboxBatchSize = envInt("OUTBOX_BATCH_SIZE", cfg.OutboxBatchSize)
	cfg.ConsumerPollInterval = envDuration("CONSUMER_POLL_INTERVAL", cfg.ConsumerPollInterval)
	cfg.MaxConcurrentRuns = envInt("MAX_CONCURRENT_RUNS", cfg.MaxConcurrentRuns)
	cfg.DefaultBlogQuota = envInt("DEFAULT_BLOG_QUOTA", cfg.DefaultBlogQuota)
	cfg.LogWindow = envInt("STATE_LOG_WINDOW", cfg.LogWindow)
	cfg.StateCacheTTL = envDuration("STATE_CACHE_TTL", cfg.StateCacheTTL)
	cfg.ArtifactTTL = envDuration("ARTIFACT_TTL", cfg.ArtifactTTL)
	cfg.CollaboratorCacheTTL = envDuration("COLLABORATOR_CACHE_TTL", cfg.CollaboratorCacheTTL)
	cfg.CollaboratorTimeout = envDuration("COLLABORATOR_TIMEOUT", cfg.CollaboratorTimeout)
	cfg.EventDedupTTL = time.Duration(envInt("EVENT_DEDUP_TTL_HOURS", int(cfg.EventDedupTTL.Hours()))) * time.Hour

	return cfg, cfg.validate()
}

func applyFile(cfg *Config, raw []byte) error {
	var f configFile
	if err := yaml.Unmarshal(raw, &f); err != nil {
		return fmt.Errorf("parse config file: %w", err)
	}
	if f.Service.ID != "" {
		cfg.ServiceID = f.Service.ID
	}
	if f.Service.HTTPPort > 0 {
		cfg.HTTPPort = f.Service.HTTPPort
	}
	if f.Service.GRPCPort > 0 {
		cfg.GRPCPort = f.Service.GRPCPort
	}
	if f.Logging.Level != "" {
		cfg.LogLevel = f.Logging.Level
	}
	if f.Storage.Driver != "" {
		cfg.StorageDriver = f.Storage.Driver
	}
	if f.Collaborators.Driver != "" {
		cfg.CollaboratorsDriver = f.Collaborators.Driver
	}

	deps := f.Dependencies
	cfg.DatabaseURL = deps.PostgresURL
	cfg.RedisURL = deps.RedisURL
	if len(deps.KafkaBrokers) > 0 {
		cfg.KafkaBrokers = trimNonEmpty(deps.KafkaBrokers)
	}
	if deps.KafkaConsumerGroup != "" {
		cfg.KafkaConsumerGroup = deps.KafkaConsumerGroup
	}
	if deps.KafkaTopicLifecycle != "" {
		cfg.KafkaTopicLifecycle = deps.KafkaTopicLifecycle
	}
	cfg.KafkaTopicByEvent = deps.KafkaTopicByEvent
	cfg.S3Bucket = deps.S3Bucket
	cfg.S3Region = deps.S3Region
	cfg.S3Endpoint = deps.S3Endpoint
	cfg.S3ForcePathStyle = deps.S3ForcePathStyle
	if deps.S3Prefix != "" {
		cfg.S3Prefix = deps.S3Prefix
	}
	cfg.LandscapeURL = deps.LandscapeURL
	cfg.StrategyURL = deps.StrategyURL
	cfg.ContentURL = deps.ContentURL
	cfg.RepurposeURL = deps.RepurposeURL
	cfg.PublishURL = deps.PublishURL
	cfg.GenAIAPIKey = deps.GenAIAPIKey
	cfg.GenAIModel = deps.GenAIModel

	orch := f.Orchestrator
	if orch.DefaultBlogQuota > 0 {
		cfg.DefaultBlogQuota = orch.DefaultBlogQuota
	}
	if orch.LogWindow != 0 {
		cfg.LogWindow = orch.LogWindow
	}
	if orch.MaxConcurrentRuns > 0 {
		cfg.MaxConcurrentRuns = orch.MaxConcurrentRuns
	}
	durations := []struct {
		name string
		raw  string
		dst  *time.Duration
	}{
		{"state_cache_ttl", orch.StateCacheTTL, &cfg.StateCacheTTL},
		{"artifact_ttl", orch.ArtifactTTL, &cfg.ArtifactTTL},
		{"collaborator_cache_ttl", orch.CollaboratorCacheTTL, &cfg.CollaboratorCacheTTL},
		{"collaborator_timeout", orch.CollaboratorTimeout, &cfg.CollaboratorTimeout},
	}
	for _, d := range durations {
		if d.raw == "" {
			continue
		}
		v, err := time.ParseDuration(d.raw)
		if err != nil {
			return fmt.Errorf("parse orchestrator.%s: %w", d.name, err)
		}
		*d.dst = v
	}
	if f.Pricing != nil {
		cfg.Pricing = *f.Pricing
	}
	return nil
}

func (c Config) validate() error {
	if err := domain.ValidateBlogQuota(c.DefaultBlogQuota); err != nil {
		return fmt.Errorf("default_blog_quota: %w", err)
	}
	switch c.StorageDriver {
	case StorageDriverPostgres:
		if c.DatabaseURL == "" {
			return fmt.Errorf("missing DB_URL/POSTGRES_URL")
		}
	case StorageDriverMemory:
	default:
		return fmt.Errorf("unsupported storage driver %q", c.StorageDriver)
	}
	switch c.CollaboratorsDriver {
	case CollaboratorsDriverHTTP:
		missing := make([]string, 0)
		for name, v := range map[string]string{
			"LANDSCAPE_URL": c.LandscapeURL,
			"STRATEGY_URL":  c.StrategyURL,
			"REPURPOSE_URL": c.RepurposeURL,
			"PUBLISH_URL":   c.PublishURL,
		} {
			if v == "" {
				missing = append(missing, name)
			}
		}
		if c.ContentURL == "" && c.GenAIAPIKey == "" {
			missing = append(missing, "CONTENT_URL or GEMINI_API_KEY")
		}
		if len(missing) > 0 {
			sort.Strings(missing)
			return fmt.Errorf("missing collaborator endpoints: %s", strings.Join(missing, ", "))
		}
	case CollaboratorsDriverSandbox:
	default:
		return fmt.Errorf("unsupported collaborators driver %q", c.CollaboratorsDriver)
	}
	return nil
}

func (c Config) slogLevel() slog.Level {
	var level slog.Level
	if err := level.UnmarshalText([]byte(c.LogLevel)); err != nil {
		return slog.LevelInfo
	}
	return level
}

func envOrDefault(name, fallback string) string {
	if value := os.Getenv(name); value != "" {
		return value
	}
	return fallback
}

func envInt(name string, fallback int) int {
	raw := os.Getenv(name)
	if raw == "" {
		return fallback
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return fallback
	}
	return v
}

func envBool(name string, fallback bool) bool {
	raw := strings.TrimSpace(os.Getenv(name))
	if raw == "" {
		return fallback
	}
	switch strings.ToLower(raw) {
	case "1", "true", "yes":
		return true
	case "0", "false", "no":
		return false
	default:
		return fallback
	}
}

func envDuration(name string, fallback time.Duration) time.Duration {
	raw := strings.TrimSpace(os.Getenv(name))
	if raw == "" {
		return fallback
	}
	if v, err := time.ParseDuration(raw); err == nil {
		return v
	}
	if secs, err := strconv.Atoi(raw); err == nil {
		return time.Duration(secs) * time.Second
	}
	return fallback
}

func envCSV(name string, fallback []string) []string {
	raw := strings.TrimSpace(os.Getenv(name))
	if raw == "" {
		return fallback
	}
	return trimNonEmpty(strings.Split(raw, ","))
}

func trimNonEmpty(values []string) []string {
	out := make([]string, 0, len(values))
	for _, v := range values {
		trimmed := strings.TrimSpace(v)
		if trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
