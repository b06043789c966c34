package task

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/hirewire/talent-api/internal/events"
	"github.com/hirewire/talent-api/internal/store"
)

// ReaperConfig holds configuration for the timeout reaper.
type ReaperConfig struct {
	// StuckTaskAge defines how long a task can sit in the running state
	// without a progress update before it is considered orphaned.
	// If zero, defaults to 5 minutes.
	StuckTaskAge time.Duration

	// CheckInterval defines how often to scan for stuck tasks.
	// If zero, defaults to 1 minute.
	CheckInterval time.Duration
}

// Reaper detects and force-clears tasks stuck in the RUNNING state. The
// engine can crash or be killed mid-run, leaving an orphaned record that
// would hold its resource lock forever and deadlock all future submissions
// for that resource. The reaper runs on its own timer, independent of
// dispatch, and is also exposed as an on-demand operation.
type Reaper struct {
	tasks      store.TaskStore
	emitter    events.Emitter
	config     ReaperConfig
	logger     *slog.Logger
	cancelFunc context.CancelFunc
	wg         sync.WaitGroup
}

// NewReaper creates a reaper over the given task store.
func NewReaper(tasks store.TaskStore, emitter events.Emitter, config ReaperConfig, logger *slog.Logger) *Reaper {
	if config.StuckTaskAge <= 0 {
		config.StuckTaskAge = 5 * time.Minute
	}
	if config.CheckInterval <= 0 {
		config.CheckInterval = time.Minute
	}
	if emitter == nil {
		emitter = events.NopEmitter{}
	}
	return &Reaper{
		tasks:   tasks,
		emitter: emitter,
		config:  config,
		logger:  logger.With("component", "reaper"),
	}
}

// Start begins the periodic scan in a background goroutine.
func (r *Reaper) Start() {
	ctx, cancel := context.WithCancel(context.Background())
	r.cancelFunc = cancel

	r.wg.Add(1)
	go func() {
		defer r.wg.Done()

		ticker := time.NewTicker(r.config.CheckInterval)
		defer ticker.Stop()

		r.logger.Info("reaper started",
			"check_interval", r.config.CheckInterval,
			"stuck_task_age", r.config.StuckTaskAge)
		for {
			select {
			case <-ctx.Done():
				r.logger.Info("reaper stopping")
				return
			case <-ticker.C:
				if _, err := r.RunOnce(ctx); err != nil {
					r.logger.Error("stuck task scan failed", "error", err)
				}
			}
		}
	}()
}

// Stop halts the periodic scan.
func (r *Reaper) Stop() {
	if r.cancelFunc != nil {
		r.cancelFunc()
	}
	r.wg.Wait()
}

// RunOnce performs a single scan, clearing every RUNNING task whose last
// update is older than the grace period. Running it again with no new
// stale tasks clears nothing. Returns the number of tasks cleared.
func (r *Reaper) RunOnce(ctx context.Context) (int, error) {
	cleared, err := r.tasks.ReapStuckTasks(ctx, r.config.StuckTaskAge)
	if err != nil {
		return 0, err
	}
	if cleared > 0 {
		r.logger.Warn("cleared stuck tasks", "count", cleared)
		r.emitter.Emit(ctx, events.NewQueueEvent(events.ActionCleaned, "", uuid.Nil))
	}
	return cleared, nil
}
