package events

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/viralforge/mesh/services/marketing/M61-campaign-orchestrator/internal/application"
	"github.com/viralforge/mesh/services/marketing/M61-campaign-orchestrator/internal/domain"
	"golang.org/x/sync/errgroup"
)

type Message struct {
	Topic   string
	Key     []byte
	Payload []byte
}

type Consumer interface {
	Poll(ctx context.Context, max int) ([]Message, error)
}

// CommandHandler is the slice of the application service the worker drives.
type CommandHandler interface {
	HandleLaunchRequested(ctx context.Context, payload []byte) (application.LaunchResult, error)
	HandlePauseRequested(ctx context.Context, payload []byte) error
	HandleResumeRequested(ctx context.Context, payload []byte) (application.LaunchResult, error)
	Shutdown()
}

// ConsumerWorker turns command topics into service calls. Launch and resume
// run in the background, at most maxRuns at a time; commands that find no
// free slot wait in pending. Pause is handled inline and never waits on the
// run limit.
type ConsumerWorker struct {
	logger   *slog.Logger
	consumer Consumer
	handler  CommandHandler
	interval time.Duration
	maxRuns  int

	pending []Message
}

func NewConsumerWorker(logger *slog.Logger, consumer Consumer, handler CommandHandler, interval time.Duration, maxRuns int) *ConsumerWorker {
	if interval <= 0 {
		interval = 2 * time.Second
	}
	if maxRuns <= 0 {
		maxRuns = 8
	}
	return &ConsumerWorker{
		logger: logger, consumer: consumer, handler: handler, interval: interval, maxRuns: maxRuns,
	}
}

func (w *ConsumerWorker) Run(ctx context.Context) error {
	runs := new(errgroup.Group)
	runs.SetLimit(w.maxRuns)
	defer func() {
		if len(w.pending) > 0 {
			w.logger.Warn("dropping undispatched campaign commands",
				"module", "events.consumer_worker",
				"layer", "adapter",
				"operation", "shutdown",
				"count", len(w.pending),
			)
			w.pending = nil
		}
		w.handler.Shutdown()
		_ = runs.Wait()
	}()

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		if err := w.processOnce(ctx, runs); err != nil && !errors.Is(err, context.Canceled) {
			w.logger.ErrorContext(ctx, "consumer iteration failed",
				"module", "events.consumer_worker",
				"layer", "adapter",
				"operation", "process_once",
				"outcome", "failure",
				"error", err,
			)
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

func (w *ConsumerWorker) processOnce(ctx context.Context, runs *errgroup.Group) error {
	w.startPending(ctx, runs)
	msgs, err := w.consumer.Poll(ctx, 50)
	if err != nil {
		return err
	}
	for _, msg := range msgs {
		w.dispatch(ctx, runs, msg)
	}
	return nil
}

// startPending starts queued runs in arrival order while slots are free.
func (w *ConsumerWorker) startPending(ctx context.Context, runs *errgroup.Group) {
	for len(w.pending) > 0 {
		if !w.tryStart(ctx, runs, w.pending[0]) {
			return
		}
		w.pending = w.pending[1:]
	}
}

func (w *ConsumerWorker) tryStart(ctx context.Context, runs *errgroup.Group, msg Message) bool {
	return runs.TryGo(func() error {
		var (
			res application.LaunchResult
			err error
		)
		if msg.Topic == application.TopicLaunchRequested {
			res, err = w.handler.HandleLaunchRequested(ctx, msg.Payload)
		} else {
			res, err = w.handler.HandleResumeRequested(ctx, msg.Payload)
		}
		w.logOutcome(ctx, msg.Topic, res, err)
		return nil
	})
}

func (w *ConsumerWorker) dispatch(ctx context.Context, runs *errgroup.Group, msg Message) {
	switch msg.Topic {
	case application.TopicLaunchRequested, application.TopicResumeRequested:
		if len(w.pending) > 0 || !w.tryStart(ctx, runs, msg) {
			w.pending = append(w.pending, msg)
		}
	case application.TopicPauseRequested:
		if err := w.handler.HandlePauseRequested(ctx, msg.Payload); err != nil {
			w.logFailure(ctx, msg.Topic, err)
		}
	default:
		w.logger.WarnContext(ctx, "unexpected topic",
			"module", "events.consumer_worker",
			"layer", "adapter",
			"operation", "dispatch",
			"topic", msg.Topic,
		)
	}
}

func (w *ConsumerWorker) logOutcome(ctx context.Context, topic string, res application.LaunchResult, err error) {
	if err != nil {
		w.logFailure(ctx, topic, err)
		return
	}
	if res.CampaignID == "" {
		return
	}
	w.logger.InfoContext(ctx, "campaign command handled",
		"module", "events.consumer_worker",
		"layer", "adapter",
		"operation", "dispatch",
		"outcome", string(res.Status),
		"topic", topic,
		"campaign_id", res.CampaignID,
	)
}

func (w *ConsumerWorker) logFailure(ctx context.Context, topic string, err error) {
	level := slog.LevelWarn
	if errors.Is(err, domain.ErrStorageUnavailable) {
		level = slog.LevelError
	}
	w.logger.Log(ctx, level, "failed to handle campaign command",
		"module", "events.consumer_worker",
		"layer", "adapter",
		"operation", "dispatch",
		"outcome", "failure",
		"topic", topic,
		"error", err,
	)
}
