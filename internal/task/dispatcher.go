package task

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/hirewire/talent-api/internal/store"
)

// DispatcherConfig holds configuration for the deferred-task dispatcher.
type DispatcherConfig struct {
	// PollInterval determines how often the dispatcher scans for due tasks.
	// If zero, defaults to 30 seconds.
	PollInterval time.Duration
}

// Dispatcher promotes due PENDING tasks into the execution engine on a
// recurring timer. It runs independently of any client: deferred
// submissions persist their record and return immediately, and the
// dispatcher picks them up once their scheduled time elapses. Claiming
// goes through the store's atomic resource lock, so multiple dispatcher
// instances can run against the same database without double-executing.
type Dispatcher struct {
	tasks      store.TaskStore
	engine     *Engine
	config     DispatcherConfig
	logger     *slog.Logger
	now        func() time.Time
	cancelFunc context.CancelFunc
	wg         sync.WaitGroup
	runWG      sync.WaitGroup
}

// NewDispatcher creates a dispatcher over the given store and engine.
func NewDispatcher(tasks store.TaskStore, engine *Engine, config DispatcherConfig, logger *slog.Logger) *Dispatcher {
	if config.PollInterval <= 0 {
		config.PollInterval = 30 * time.Second
	}
	return &Dispatcher{
		tasks:  tasks,
		engine: engine,
		config: config,
		logger: logger.With("component", "dispatcher"),
		now:    time.Now,
	}
}

// Start begins the dispatch loop in a background goroutine.
func (d *Dispatcher) Start() {
	ctx, cancel := context.WithCancel(context.Background())
	d.cancelFunc = cancel

	d.wg.Add(1)
	go func() {
		defer d.wg.Done()

		ticker := time.NewTicker(d.config.PollInterval)
		defer ticker.Stop()

		d.logger.Info("dispatcher started", "poll_interval", d.config.PollInterval)
		for {
			select {
			case <-ctx.Done():
				d.logger.Info("dispatcher stopping")
				return
			case <-ticker.C:
				d.DispatchDue(ctx)
			}
		}
	}()
}

// Stop halts the dispatch loop and waits for in-flight dispatched tasks
// to finish.
func (d *Dispatcher) Stop() {
	if d.cancelFunc != nil {
		d.cancelFunc()
	}
	d.wg.Wait()
	d.runWG.Wait()
}

// DispatchDue performs one scan: every PENDING task whose scheduled time
// has elapsed is claimed and handed to the engine. A task whose resource
// is busy stays PENDING and is retried on the next tick; that is not a
// failure. Returns the number of tasks dispatched.
func (d *Dispatcher) DispatchDue(ctx context.Context) int {
	due, err := d.tasks.ListDueTasks(ctx, d.now())
	if err != nil {
		d.logger.Error("failed to list due tasks", "error", err)
		return 0
	}
	if len(due) == 0 {
		return 0
	}

	d.logger.Info("found due tasks", "count", len(due))

	dispatched := 0
	for _, t := range due {
		claimed, err := d.tasks.ClaimTask(ctx, t.ID)
		if err != nil {
			if errors.Is(err, store.ErrResourceBusy) {
				d.logger.Debug("resource busy, leaving task pending",
					"task_id", t.ID,
					"resource_key", t.ResourceKey)
				continue
			}
			if errors.Is(err, store.ErrTaskNotFound) {
				// Cancelled or claimed by another instance between the scan
				// and the claim.
				continue
			}
			d.logger.Error("failed to claim due task", "task_id", t.ID, "error", err)
			continue
		}

		dispatched++
		d.runWG.Add(1)
		go func() {
			defer d.runWG.Done()
			// Detached from the loop context: stopping the dispatcher must
			// not abandon a claimed task mid-run.
			d.engine.Run(context.Background(), claimed, DiscardSink{})
		}()
	}
	return dispatched
}
