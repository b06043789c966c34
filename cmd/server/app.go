package main

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"github.com/hirewire/talent-api/internal/blob"
	"github.com/hirewire/talent-api/internal/config"
	"github.com/hirewire/talent-api/internal/events"
	"github.com/hirewire/talent-api/internal/platform/gemini"
	platformminio "github.com/hirewire/talent-api/internal/platform/minio"
	"github.com/hirewire/talent-api/internal/platform/postgres"
	platformredis "github.com/hirewire/talent-api/internal/platform/redis"
	"github.com/hirewire/talent-api/internal/service"
	"github.com/hirewire/talent-api/internal/store"
	"github.com/hirewire/talent-api/internal/task"
)

// application holds all the shared application dependencies to simplify
// management and ensure proper cleanup on shutdown.
type application struct {
	// Configuration
	config *config.Config

	// Core services
	logger *slog.Logger
	db     *sql.DB

	// Stores (using interfaces for proper abstraction)
	taskStore      store.TaskStore
	candidateStore store.CandidateStore
	matchStore     store.MatchStore
	blobStore      blob.Store

	// AI provider
	provider *gemini.GeminiProvider

	// Event system
	emitter  events.Emitter
	notifier *platformredis.Notifier

	// Task orchestration
	engine      *task.Engine
	dispatcher  *task.Dispatcher
	reaper      *task.Reaper
	taskService *service.TaskService

	// cancelSubscribe stops the queue event subscription loop.
	cancelSubscribe context.CancelFunc
}

// newApplication creates a new application instance with all dependencies
// initialized and background loops started.
func newApplication(ctx context.Context, cfg *config.Config, logger *slog.Logger, db *sql.DB) (*application, error) {
	app := &application{
		config: cfg,
		logger: logger,
		db:     db,
	}

	// Initialize stores
	app.taskStore = postgres.NewPostgresTaskStore(db)
	app.candidateStore = postgres.NewPostgresCandidateStore(db)
	app.matchStore = postgres.NewPostgresMatchStore(db)

	// Initialize the object store for uploaded resume files
	if cfg.Blob.Endpoint != "" {
		blobStore, err := platformminio.NewBlobStore(ctx, cfg.Blob)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize blob store: %w", err)
		}
		app.blobStore = blobStore
		logger.Info("Blob store initialized", "bucket", cfg.Blob.Bucket)
	} else {
		app.blobStore = blob.Unconfigured{}
		logger.Warn("Blob store not configured; parse tasks will fail until it is")
	}

	// Initialize the queue event emitter. With redis configured, events fan
	// out across instances; otherwise they stay in-process.
	if cfg.Redis.Addr != "" {
		notifier, err := platformredis.NewNotifier(ctx, cfg.Redis, logger)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize redis notifier: %w", err)
		}
		app.notifier = notifier
		app.emitter = notifier
		logger.Info("Redis queue notifier initialized", "addr", cfg.Redis.Addr)
	} else {
		app.emitter = events.NewInMemoryEmitter(logger)
		logger.Info("Using in-memory queue event emitter")
	}

	// Initialize the AI provider
	provider, err := gemini.NewGeminiProvider(ctx, logger, cfg.LLM)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize AI provider: %w", err)
	}
	app.provider = provider
	logger.Info("AI provider initialized", "model", cfg.LLM.ModelName)

	// Initialize the execution engine
	app.engine, err = task.NewEngine(task.EngineDeps{
		Tasks:      app.taskStore,
		Candidates: app.candidateStore,
		Matches:    app.matchStore,
		Blobs:      app.blobStore,
		Parser:     app.provider,
		Scorer:     app.provider,
		Generator:  app.provider,
		Emitter:    app.emitter,
		Logger:     logger,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create execution engine: %w", err)
	}

	// Initialize and start the timeout reaper
	app.reaper = task.NewReaper(app.taskStore, app.emitter, task.ReaperConfig{
		StuckTaskAge:  time.Duration(cfg.Task.StuckTaskAgeMinutes) * time.Minute,
		CheckInterval: time.Duration(cfg.Task.ReaperIntervalSeconds) * time.Second,
	}, logger)
	app.reaper.Start()

	// Initialize and start the deferred-task dispatcher
	app.dispatcher = task.NewDispatcher(app.taskStore, app.engine, task.DispatcherConfig{
		PollInterval: time.Duration(cfg.Task.DispatchIntervalSeconds) * time.Second,
	}, logger)
	app.dispatcher.Start()

	// Initialize the task service
	app.taskService = service.NewTaskService(
		app.taskStore,
		app.engine,
		app.reaper,
		app.emitter,
		service.TaskServiceConfig{
			MatchScheduleHour:    cfg.Task.MatchScheduleHour,
			GenerateScheduleHour: cfg.Task.GenerateScheduleHour,
			StreamBuffer:         cfg.Task.StreamBufferSize,
		},
		logger,
	)

	// With redis, queue events from other instances trigger an early
	// dispatch scan so a task scheduled elsewhere starts here without
	// waiting for the next poll tick.
	if app.notifier != nil {
		if err := app.startQueueSubscription(); err != nil {
			return nil, err
		}
	}

	logger.Info("Application initialized successfully")
	return app, nil
}

// startQueueSubscription consumes cross-instance queue events and pokes the
// dispatcher when the queue gains runnable work.
func (app *application) startQueueSubscription() error {
	subCtx, cancel := context.WithCancel(context.Background())
	app.cancelSubscribe = cancel

	eventsCh, err := app.notifier.Subscribe(subCtx)
	if err != nil {
		cancel()
		return fmt.Errorf("failed to subscribe to queue events: %w", err)
	}

	go func() {
		for event := range eventsCh {
			app.logger.Debug("queue changed",
				"event_id", event.ID,
				"action", event.Action,
				"task_id", event.TaskID)
			switch event.Action {
			case events.ActionScheduled, events.ActionRetried, events.ActionCleaned:
				app.dispatcher.DispatchDue(subCtx)
			}
		}
	}()
	return nil
}

// Run starts the application server, handling lifecycle and cleanup.
// It returns an error if the server fails to start or encounters problems.
func (app *application) Run(ctx context.Context) error {
	router := app.setupRouter()

	if err := app.startHTTPServer(ctx, router); err != nil {
		return fmt.Errorf("server error: %w", err)
	}
	return nil
}

// cleanup handles graceful shutdown of application resources.
func (app *application) cleanup() {
	if app.cancelSubscribe != nil {
		app.cancelSubscribe()
	}

	// Stop background loops; both wait for in-flight work.
	if app.dispatcher != nil {
		app.dispatcher.Stop()
	}
	if app.reaper != nil {
		app.reaper.Stop()
	}

	if app.notifier != nil {
		if err := app.notifier.Close(); err != nil {
			app.logger.Error("Error closing redis connection", "error", err)
		}
	}

	if app.db != nil {
		if err := app.db.Close(); err != nil {
			app.logger.Error("Error closing database connection", "error", err)
		}
	}

	app.logger.Info("Application shutdown completed")
}
