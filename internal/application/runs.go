package application

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/viralforge/mesh/services/marketing/M61-campaign-orchestrator/internal/domain"
)

var errShutdownPause = fmt.Errorf("%w: service shutting down", domain.ErrCampaignPaused)

type activeRun struct {
	cancel context.CancelCauseFunc
	done   chan struct{}
}

// runRegistry tracks the single in-flight driver per campaign.
type runRegistry struct {
	mu   sync.Mutex
	runs map[string]*activeRun
}

func newRunRegistry() *runRegistry {
	return &runRegistry{runs: make(map[string]*activeRun)}
}

// start detaches the run from the caller's cancellation (it keeps request
// values) and registers it. The returned release func must be called when
// the driver returns.
func (r *runRegistry) start(parent context.Context, campaignID string) (context.Context, func(), error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.runs[campaignID]; exists {
		return nil, nil, domain.ErrCampaignRunning
	}
	ctx, cancel := context.WithCancelCause(context.WithoutCancel(parent))
	run := &activeRun{cancel: cancel, done: make(chan struct{})}
	r.runs[campaignID] = run

	release := func() {
		r.mu.Lock()
		if r.runs[campaignID] == run {
			delete(r.runs, campaignID)
		}
		r.mu.Unlock()
		cancel(nil)
		close(run.done)
	}
	return ctx, release, nil
}

func (r *runRegistry) cancel(campaignID string, cause error) (<-chan struct{}, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	run, ok := r.runs[campaignID]
	if !ok {
		return nil, false
	}
	run.cancel(cause)
	return run.done, true
}

func (r *runRegistry) cancelAll(cause error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, run := range r.runs {
		run.cancel(cause)
	}
}

func (r *runRegistry) running(campaignID string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.runs[campaignID]
	return ok
}

// pauseRequested reports whether ctx was cancelled by a pause.
func pauseRequested(ctx context.Context) bool {
	return ctx.Err() != nil && errors.Is(context.Cause(ctx), domain.ErrCampaignPaused)
}
