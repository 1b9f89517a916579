// Package scheduler drives asynchronous enrichment. It polls the
// durable task queue, claims a bounded batch, and runs summarization
// and classification against the configured adapter.
package scheduler

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/joseph-ayodele/doc-enricher/internal/common"
	"github.com/joseph-ayodele/doc-enricher/internal/llm"
	"github.com/joseph-ayodele/doc-enricher/internal/metrics"
)

// Scheduler polls for pending tasks and dispatches them concurrently.
// A poll claims at most Concurrency tasks, waits for the whole batch,
// then pauses: BusyPause after a productive cycle, IdleInterval when
// the queue was empty, ErrorPause after a poll failure.
type Scheduler struct {
	store    Store
	enricher llm.Enricher
	cfg      common.SchedulerConfig
	log      *slog.Logger
	metrics  *metrics.Metrics

	mu      sync.Mutex
	started bool
	stopped bool
	quit    chan struct{}
	done    chan struct{}
}

func New(store Store, enricher llm.Enricher, cfg common.SchedulerConfig, logger *slog.Logger, m *metrics.Metrics) *Scheduler {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = 3
	}
	if cfg.IdleInterval <= 0 {
		cfg.IdleInterval = 5 * time.Second
	}
	if cfg.BusyPause <= 0 {
		cfg.BusyPause = 2 * time.Second
	}
	if cfg.ErrorPause <= 0 {
		cfg.ErrorPause = 10 * time.Second
	}
	if cfg.TaskTimeout <= 0 {
		cfg.TaskTimeout = 60 * time.Second
	}
	if cfg.MaxRetryAttempts <= 0 {
		cfg.MaxRetryAttempts = 3
	}
	return &Scheduler{
		store:    store,
		enricher: enricher,
		cfg:      cfg,
		log:      logger,
		metrics:  m,
		quit:     make(chan struct{}),
		done:     make(chan struct{}),
	}
}

// Start probes the enrichment adapter and launches the polling loop.
// A failing probe aborts startup so a misconfigured adapter is caught
// before any task is claimed.
func (s *Scheduler) Start(ctx context.Context) error {
	if err := s.enricher.HealthCheck(ctx); err != nil {
		return common.WrapError(err, "enrichment adapter health check")
	}
	s.log.Info("scheduler started",
		"concurrency", s.cfg.Concurrency,
		"idle_interval", s.cfg.IdleInterval,
		"task_timeout", s.cfg.TaskTimeout)
	s.mu.Lock()
	s.started = true
	s.mu.Unlock()
	go s.run()
	return nil
}

// Stop shuts the polling loop down and waits for in-flight tasks to
// finish. Handlers run on a background-derived context, so stopping
// never abandons a claimed task mid-write. Safe to call more than
// once, and returns immediately when Start never launched the loop.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	if !s.stopped {
		s.stopped = true
		close(s.quit)
	}
	started := s.started
	s.mu.Unlock()

	if !started {
		return
	}
	<-s.done
	s.log.Info("scheduler stopped")
}

func (s *Scheduler) run() {
	defer close(s.done)
	for {
		select {
		case <-s.quit:
			return
		default:
		}

		dispatched, err := s.pollOnce(context.Background())

		var pause time.Duration
		switch {
		case err != nil:
			s.log.Error("task poll failed", "error", err)
			pause = s.cfg.ErrorPause
		case dispatched > 0:
			pause = s.cfg.BusyPause
		default:
			pause = s.cfg.IdleInterval
		}

		select {
		case <-s.quit:
			return
		case <-time.After(pause):
		}
	}
}

// pollOnce claims and runs one batch. Handler failures are recorded on
// the task rows and never escape the loop.
func (s *Scheduler) pollOnce(ctx context.Context) (int, error) {
	tasks, err := s.store.ListPendingTasks(ctx, s.cfg.Concurrency)
	if err != nil {
		return 0, err
	}
	s.metrics.SetPendingTasks(len(tasks))
	if len(tasks) == 0 {
		return 0, nil
	}

	var g errgroup.Group
	for _, t := range tasks {
		task := t
		g.Go(func() error {
			s.handleTask(ctx, task)
			return nil
		})
	}
	_ = g.Wait()
	return len(tasks), nil
}
