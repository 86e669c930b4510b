package store

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// Fetcher reloads one container from the remote gateway.
type Fetcher interface {
	Name() string
	Refresh(ctx context.Context) error
}

// Refresher periodically reloads containers so that changes made by other writers,
// and real-time events missed while disconnected, eventually show up.
// A run is skipped while the previous one is still going.
type Refresher struct {
	logger   *zap.Logger
	fetchers []Fetcher
	timeout  time.Duration
	busy     atomic.Bool
	cron     *cron.Cron
}

func NewRefresher(logger *zap.Logger, timeout time.Duration, fetchers ...Fetcher) *Refresher {
	return &Refresher{
		logger:   logger,
		fetchers: fetchers,
		timeout:  timeout,
	}
}

// Start schedules the refresher with a standard five-field cron spec.
func (r *Refresher) Start(schedule string) error {
	c := cron.New()
	if _, err := c.AddFunc(schedule, r.Run); err != nil {
		return err
	}
	r.cron = c
	c.Start()
	r.logger.Info("Cache refresher scheduled", zap.String("schedule", schedule))
	return nil
}

// Stop halts scheduling and waits for a running refresh to finish.
func (r *Refresher) Stop() {
	if r.cron == nil {
		return
	}
	<-r.cron.Stop().Done()
}

// Run refreshes every container once.
func (r *Refresher) Run() {
	if !r.busy.CompareAndSwap(false, true) {
		r.logger.Debug("Cache refresh still running, skipping")
		return
	}
	defer r.busy.Store(false)

	ctx, cancel := context.WithTimeout(context.Background(), r.timeout)
	defer cancel()

	for _, f := range r.fetchers {
		if err := f.Refresh(ctx); err != nil {
			r.logger.Warn("Cache refresh failed", zap.String("container", f.Name()), zap.Error(err))
			continue
		}
		r.logger.Debug("Cache refreshed", zap.String("container", f.Name()))
	}
}
