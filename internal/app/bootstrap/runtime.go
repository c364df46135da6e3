package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/errgroup"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	"gorm.io/gorm"

	"github.com/viralforge/mesh/services/marketing/M61-campaign-orchestrator/internal/adapters/archive"
	"github.com/viralforge/mesh/services/marketing/M61-campaign-orchestrator/internal/adapters/cache"
	"github.com/viralforge/mesh/services/marketing/M61-campaign-orchestrator/internal/adapters/collaborators"
	eventadapter "github.com/viralforge/mesh/services/marketing/M61-campaign-orchestrator/internal/adapters/events"
	grpcadapter "github.com/viralforge/mesh/services/marketing/M61-campaign-orchestrator/internal/adapters/grpc"
	httpadapter "github.com/viralforge/mesh/services/marketing/M61-campaign-orchestrator/internal/adapters/http"
	"github.com/viralforge/mesh/services/marketing/M61-campaign-orchestrator/internal/adapters/memory"
	"github.com/viralforge/mesh/services/marketing/M61-campaign-orchestrator/internal/adapters/postgres"
	"github.com/viralforge/mesh/services/marketing/M61-campaign-orchestrator/internal/adapters/pricing"
	"github.com/viralforge/mesh/services/marketing/M61-campaign-orchestrator/internal/application"
	"github.com/viralforge/mesh/services/marketing/M61-campaign-orchestrator/internal/ports"
)

type Runtime struct {
	cfg          Config
	logger       *slog.Logger
	service      *application.Service
	httpServer   *http.Server
	grpcServer   *grpc.Server
	healthServer *health.Server
	health       *grpcadapter.HealthReporter
	outbox       *eventadapter.OutboxWorker
	consumer     *eventadapter.ConsumerWorker
	closers      []io.Closer
}

// storage is the persistence set chosen by the storage driver.
type storage struct {
	campaigns  ports.CampaignRepository
	contents   ports.ContentRepository
	logs       ports.LogRepository
	outbox     ports.OutboxRepository
	eventDedup ports.EventDedupRepository
	stateCache ports.StateCache
	artifacts  ports.ArtifactStore
	ready      func(ctx context.Context) error
}

type collaboratorSet struct {
	landscape  ports.LandscapeAnalyzer
	strategy   ports.StrategyPlanner
	generator  ports.ContentGenerator
	repurposer ports.Repurposer
	publisher  ports.Publisher
}

func NewRuntime(ctx context.Context, configPath string) (*Runtime, error) {
	cfg, err := LoadConfig(configPath)
	if err != nil {
		return nil, err
	}
	return Build(ctx, cfg)
}

// LocalConfig runs everything in process: memory storage, sandbox
// collaborators, no Kafka, Redis or S3.
func LocalConfig() Config {
	return Config{
		ServiceID:            "M61-Campaign-Orchestrator-local",
		StorageDriver:        StorageDriverMemory,
		CollaboratorsDriver:  CollaboratorsDriverSandbox,
		KafkaTopicLifecycle:  "marketing.campaign_lifecycle",
		OutboxPollInterval:   time.Second,
		OutboxBatchSize:      100,
		ConsumerPollInterval: time.Second,
		MaxConcurrentRuns:    1,
		DefaultBlogQuota:     5,
		LogWindow:            500,
		StateCacheTTL:        time.Hour,
		ArtifactTTL:          time.Hour,
		CollaboratorTimeout:  10 * time.Second,
		EventDedupTTL:        time.Hour,
		Pricing:              pricing.DefaultRateCard(),
	}
}

func Build(ctx context.Context, cfg Config) (*Runtime, error) {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: cfg.slogLevel()})).With("service", cfg.ServiceID)
	slog.SetDefault(logger)

	rt := &Runtime{cfg: cfg, logger: logger}
	ok := false
	defer func() {
		if !ok {
			rt.Close()
		}
	}()

	store, err := rt.openStorage(ctx)
	if err != nil {
		return nil, err
	}
	redisClient := rt.connectRedis(ctx)
	if redisClient != nil {
		store.stateCache = cache.NewRedisStateCache(redisClient)
		store.artifacts = cache.NewRedisArtifactStore(redisClient, cfg.ArtifactTTL)
	}
	collab, err := rt.collaborators(ctx, redisClient)
	if err != nil {
		return nil, err
	}

	var summaryArchive ports.SummaryArchive = archive.Noop{}
	if cfg.S3Bucket != "" {
		s3Archive, s3Err := archive.NewS3Archive(ctx, archive.S3Options{
			Bucket:         cfg.S3Bucket,
			Prefix:         cfg.S3Prefix,
			Region:         cfg.S3Region,
			Endpoint:       cfg.S3Endpoint,
			ForcePathStyle: cfg.S3ForcePathStyle,
		})
		if s3Err != nil {
			logger.WarnContext(ctx, "s3 archive disabled, summaries will not be archived", "error", s3Err)
		} else {
			summaryArchive = s3Archive
		}
	}

	rt.service = application.NewService(application.Dependencies{
		Config: application.Config{
			ServiceName:      cfg.ServiceID,
			DefaultBlogQuota: cfg.DefaultBlogQuota,
			LogWindow:        cfg.LogWindow,
			StateCacheTTL:    cfg.StateCacheTTL,
			EventDedupTTL:    cfg.EventDedupTTL,
		},
		Logger:     logger,
		Campaigns:  store.campaigns,
		Contents:   store.contents,
		Logs:       store.logs,
		Outbox:     store.outbox,
		EventDedup: store.eventDedup,
		StateCache: store.stateCache,
		Artifacts:  store.artifacts,
		Landscape:  collab.landscape,
		Strategy:   collab.strategy,
		Generator:  collab.generator,
		Repurposer: collab.repurposer,
		Publisher:  collab.publisher,
		Estimator:  pricing.NewCalculator(cfg.Pricing),
		Archive:    summaryArchive,
	})

	rt.httpServer = &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.HTTPPort),
		Handler:           httpadapter.NewRouter(httpadapter.NewHandler(rt.service, logger, store.ready)),
		ReadHeaderTimeout: 5 * time.Second,
	}
	rt.grpcServer, rt.healthServer = grpcadapter.NewServer()
	rt.health = grpcadapter.NewHealthReporter(logger, rt.healthServer, store.ready, 10*time.Second)

	topics := eventadapter.TopicMap{Default: cfg.KafkaTopicLifecycle, ByEvent: cfg.KafkaTopicByEvent}
	publisher := ports.EventPublisher(eventadapter.NewLoggingPublisher(logger, topics))
	consumer := eventadapter.Consumer(eventadapter.NewNoopConsumer())
	if len(cfg.KafkaBrokers) > 0 {
		kafkaPublisher, pubErr := eventadapter.NewKafkaPublisher(cfg.KafkaBrokers, topics)
		if pubErr != nil {
			logger.WarnContext(ctx, "kafka publisher disabled, using logging publisher", "error", pubErr)
		} else {
			publisher = kafkaPublisher
			rt.closers = append(rt.closers, kafkaPublisher)
		}
		kafkaConsumer, conErr := eventadapter.NewKafkaConsumer(cfg.KafkaBrokers, cfg.KafkaConsumerGroup, []string{
			application.TopicLaunchRequested,
			application.TopicPauseRequested,
			application.TopicResumeRequested,
		})
		if conErr != nil {
			logger.WarnContext(ctx, "kafka consumer disabled, using noop consumer", "error", conErr)
		} else {
			consumer = kafkaConsumer
			rt.closers = append(rt.closers, kafkaConsumer)
		}
	}
	rt.outbox = eventadapter.NewOutboxWorker(logger, store.outbox, publisher, cfg.OutboxPollInterval, cfg.OutboxBatchSize)
	rt.consumer = eventadapter.NewConsumerWorker(logger, consumer, rt.service, cfg.ConsumerPollInterval, cfg.MaxConcurrentRuns)

	ok = true
	return rt, nil
}

func (r *Runtime) openStorage(ctx context.Context) (storage, error) {
	if r.cfg.StorageDriver == StorageDriverMemory {
		repos := memory.NewRepositories()
		return storage{
			campaigns:  repos.Campaigns,
			contents:   repos.Contents,
			logs:       repos.Logs,
			outbox:     repos.Outbox,
			eventDedup: repos.EventDedup,
			stateCache: repos.StateCache,
			artifacts:  repos.Artifacts,
		}, nil
	}

	db, err := postgres.Connect(ctx, r.cfg.DatabaseURL, r.cfg.MaxDBConns)
	if err != nil {
		return storage{}, err
	}
	sqlDB, err := db.DB()
	if err != nil {
		return storage{}, err
	}
	r.closers = append(r.closers, sqlDB)
	if err := postgres.RunMigrations(ctx, db); err != nil {
		return storage{}, err
	}
	return postgresStorage(db), nil
}

// postgresStorage leaves the state cache unset: a per-process cache would
// keep serving snapshots that another process has since advanced. Build
// installs the shared Redis cache when one is configured.
func postgresStorage(db *gorm.DB) storage {
	repos := postgres.NewRepositories(db)
	return storage{
		campaigns:  repos.Campaigns,
		contents:   repos.Contents,
		logs:       repos.Logs,
		outbox:     repos.Outbox,
		eventDedup: repos.EventDedup,
		artifacts:  repos.Artifacts,
		ready:      func(ctx context.Context) error { return postgres.Ping(ctx, db) },
	}
}

func (r *Runtime) connectRedis(ctx context.Context) *redis.Client {
	if r.cfg.RedisURL == "" {
		return nil
	}
	client, err := cache.Connect(ctx, r.cfg.RedisURL)
	if err != nil {
		r.logger.WarnContext(ctx, "redis unavailable, using fallback state cache and artifact store", "error", err)
		return nil
	}
	r.closers = append(r.closers, client)
	return client
}

func (r *Runtime) collaborators(ctx context.Context, redisClient *redis.Client) (collaboratorSet, error) {
	var set collaboratorSet
	switch r.cfg.CollaboratorsDriver {
	case CollaboratorsDriverSandbox:
		sandbox := collaborators.NewSandbox(nil)
		set = collaboratorSet{
			landscape:  sandbox.Landscape,
			strategy:   sandbox.Strategy,
			generator:  sandbox.Generator,
			repurposer: sandbox.Repurposer,
			publisher:  sandbox.Publisher,
		}
	default:
		httpClient := &http.Client{Transport: http.DefaultTransport}
		timeout := r.cfg.CollaboratorTimeout
		set = collaboratorSet{
			landscape:  collaborators.NewHTTPLandscape(r.cfg.LandscapeURL, httpClient, timeout),
			strategy:   collaborators.NewHTTPStrategy(r.cfg.StrategyURL, httpClient, timeout),
			repurposer: collaborators.NewHTTPRepurposer(r.cfg.RepurposeURL, httpClient, timeout),
			publisher:  collaborators.NewHTTPPublisher(r.cfg.PublishURL, httpClient, timeout),
		}
		if r.cfg.GenAIAPIKey != "" {
			gen, err := collaborators.NewGenAIGenerator(ctx, r.cfg.GenAIAPIKey, r.cfg.GenAIModel)
			if err != nil {
				if r.cfg.ContentURL == "" {
					return collaboratorSet{}, err
				}
				r.logger.WarnContext(ctx, "genai generator disabled, using content service", "error", err)
			} else {
				set.generator = gen
			}
		}
		if set.generator == nil {
			set.generator = collaborators.NewHTTPGenerator(r.cfg.ContentURL, httpClient, timeout)
		}
	}
	if redisClient != nil && r.cfg.CollaboratorCacheTTL > 0 {
		set.landscape = cache.NewCachedLandscape(set.landscape, redisClient, r.cfg.CollaboratorCacheTTL, r.logger)
		set.strategy = cache.NewCachedStrategy(set.strategy, redisClient, r.cfg.CollaboratorCacheTTL, r.logger)
	}
	return set, nil
}

func (r *Runtime) Service() *application.Service {
	return r.service
}

// Close releases connections. In-flight runs are paused first so that they
// can be resumed by the next process.
func (r *Runtime) Close() {
	if r.service != nil {
		r.service.Shutdown()
	}
	for i := len(r.closers) - 1; i >= 0; i-- {
		_ = r.closers[i].Close()
	}
	r.closers = nil
}

// RunAPI serves HTTP and gRPC health and relays the outbox until the process
// is signalled.
func (r *Runtime) RunAPI(ctx context.Context) error {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()
	defer r.Close()

	lis, err := net.Listen("tcp", fmt.Sprintf(":%d", r.cfg.GRPCPort))
	if err != nil {
		return fmt.Errorf("listen grpc: %w", err)
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		r.logger.Info("http server listening", "addr", r.httpServer.Addr)
		if err := r.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		if err := r.grpcServer.Serve(lis); err != nil {
			return fmt.Errorf("grpc server: %w", err)
		}
		return nil
	})
	g.Go(func() error { return ignoreCanceled(r.health.Run(gctx)) })
	g.Go(func() error { return ignoreCanceled(r.outbox.Run(gctx)) })
	g.Go(func() error {
		<-gctx.Done()
		// Pause in-flight launches so that open HTTP requests return.
		r.service.Shutdown()
		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(gctx), 10*time.Second)
		defer cancel()
		_ = r.httpServer.Shutdown(shutdownCtx)
		r.grpcServer.GracefulStop()
		return nil
	})

	err = g.Wait()
	if err != nil {
		r.logger.Error("runtime failure", "error", err)
	}
	return err
}

// RunWorker consumes campaign commands from Kafka and relays the outbox.
func (r *Runtime) RunWorker(ctx context.Context) error {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()
	defer r.Close()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return ignoreCanceled(r.outbox.Run(gctx)) })
	g.Go(func() error { return ignoreCanceled(r.consumer.Run(gctx)) })
	err := g.Wait()
	if err != nil {
		r.logger.Error("worker failure", "error", err)
	}
	return err
}

func ignoreCanceled(err error) error {
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}
