package dashboard

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/goatkit/querypro/internal/apierrors"
)

// Refresher is anything that can re-fetch its data in full.
type Refresher interface {
	Refresh(ctx context.Context) error
}

// Poller re-fetches a view on a fixed interval.
type Poller struct {
	target   Refresher
	interval time.Duration
	logger   *slog.Logger
	cron     *cron.Cron
	onAuth   func(error)

	mu      sync.Mutex
	ctx     context.Context
	cancel  context.CancelFunc
	entry   cron.EntryID
	running bool
}

// PollerOption configures a Poller.
type PollerOption func(*Poller)

// WithPollerLogger injects a custom logger.
func WithPollerLogger(l *slog.Logger) PollerOption {
	return func(p *Poller) {
		p.logger = l
	}
}

// WithPollerCron supplies a preconfigured cron scheduler instance.
func WithPollerCron(c *cron.Cron) PollerOption {
	return func(p *Poller) {
		p.cron = c
	}
}

// WithUnauthorizedHandler registers a callback for refreshes rejected with
// an expired session. The poller stops before it is called.
func WithUnauthorizedHandler(fn func(error)) PollerOption {
	return func(p *Poller) {
		p.onAuth = fn
	}
}

// NewPoller creates a poller refreshing target every interval.
func NewPoller(target Refresher, interval time.Duration, opts ...PollerOption) (*Poller, error) {
	if interval < time.Second {
		return nil, fmt.Errorf("poll interval %s is below one second", interval)
	}
	p := &Poller{target: target, interval: interval, logger: slog.Default()}
	for _, opt := range opts {
		opt(p)
	}
	if p.cron == nil {
		p.cron = cron.New(cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger)))
	}
	return p, nil
}

// Spec returns the cron schedule expression.
func (p *Poller) Spec() string {
	return "@every " + p.interval.String()
}

// Start schedules the refresh job. It runs until ctx is done or Stop is called.
func (p *Poller) Start(ctx context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.running {
		return nil
	}
	p.ctx, p.cancel = context.WithCancel(ctx)
	id, err := p.cron.AddFunc(p.Spec(), p.tick)
	if err != nil {
		p.cancel()
		return fmt.Errorf("schedule refresh: %w", err)
	}
	p.entry = id
	p.running = true
	p.cron.Start()
	p.logger.Debug("poller started", "schedule", p.Spec())

	go func(done <-chan struct{}) {
		<-done
		p.Stop()
	}(p.ctx.Done())
	return nil
}

func (p *Poller) tick() {
	p.mu.Lock()
	ctx := p.ctx
	p.mu.Unlock()
	if ctx == nil || ctx.Err() != nil {
		return
	}
	p.RunOnce(ctx)
}

// RunOnce performs a single refresh with the poller's error handling.
func (p *Poller) RunOnce(ctx context.Context) {
	err := p.target.Refresh(ctx)
	switch {
	case err == nil:
	case apierrors.IsUnauthorized(err):
		p.logger.Warn("polling stopped: session expired")
		go p.Stop()
		if p.onAuth != nil {
			p.onAuth(err)
		}
	default:
		p.logger.Warn("scheduled refresh failed", "error", err)
	}
}

// Stop removes the job and waits for a running refresh to finish.
func (p *Poller) Stop() {
	p.mu.Lock()
	if !p.running {
		p.mu.Unlock()
		return
	}
	p.running = false
	p.cron.Remove(p.entry)
	cancel := p.cancel
	p.mu.Unlock()

	<-p.cron.Stop().Done()
	cancel()
	p.logger.Debug("poller stopped")
}

// Running reports whether the job is scheduled.
func (p *Poller) Running() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.running
}
