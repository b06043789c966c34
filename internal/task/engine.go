package task

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/hirewire/talent-api/internal/blob"
	"github.com/hirewire/talent-api/internal/domain"
	"github.com/hirewire/talent-api/internal/events"
	"github.com/hirewire/talent-api/internal/intel"
	"github.com/hirewire/talent-api/internal/store"
)

// Common errors for Engine construction.
var (
	ErrNilTaskStore = errors.New("task store cannot be nil")
	ErrNilLogger    = errors.New("logger cannot be nil")
)

// Engine performs the side-effecting work for one claimed task and reports
// discrete progress checkpoints. The caller must have transitioned the task
// to RUNNING (claiming its resource lock) before handing it to Run; the
// engine owns the task until it reaches a terminal state.
type Engine struct {
	tasks      store.TaskStore
	candidates store.CandidateStore
	matches    store.MatchStore
	blobs      blob.Store
	parser     intel.ResumeParser
	scorer     intel.MatchScorer
	generator  intel.ContentGenerator
	emitter    events.Emitter
	logger     *slog.Logger
}

// EngineDeps bundles the Engine's dependencies.
type EngineDeps struct {
	Tasks      store.TaskStore
	Candidates store.CandidateStore
	Matches    store.MatchStore
	Blobs      blob.Store
	Parser     intel.ResumeParser
	Scorer     intel.MatchScorer
	Generator  intel.ContentGenerator
	Emitter    events.Emitter
	Logger     *slog.Logger
}

// NewEngine creates an execution engine.
func NewEngine(deps EngineDeps) (*Engine, error) {
	if deps.Tasks == nil {
		return nil, ErrNilTaskStore
	}
	if deps.Logger == nil {
		return nil, ErrNilLogger
	}
	emitter := deps.Emitter
	if emitter == nil {
		emitter = events.NopEmitter{}
	}
	return &Engine{
		tasks:      deps.Tasks,
		candidates: deps.Candidates,
		matches:    deps.Matches,
		blobs:      deps.Blobs,
		parser:     deps.Parser,
		scorer:     deps.Scorer,
		generator:  deps.Generator,
		emitter:    emitter,
		logger:     deps.Logger.With("component", "engine"),
	}, nil
}

// Run executes the task to completion and records the terminal state in the
// task store. It never returns an error to the caller: failures land on the
// task record and on the sink. Run is expected to be called on a context
// that is NOT tied to any client connection; a consumer that walks away
// must not cancel the work.
func (e *Engine) Run(ctx context.Context, t *domain.Task, sink ProgressSink) {
	if sink == nil {
		sink = DiscardSink{}
	}
	logger := e.logger.With(
		"task_id", t.ID,
		"task_kind", t.Kind,
		"resource_key", t.ResourceKey,
	)
	logger.Info("executing task")

	var resultID string
	var err error
	switch t.Kind {
	case domain.TaskKindParse:
		resultID, err = e.runParse(ctx, t, sink, logger)
	case domain.TaskKindMatchBatch:
		err = e.runMatchBatch(ctx, t, sink, logger)
		resultID = t.ID.String()
	case domain.TaskKindGenerate:
		err = e.runGenerate(ctx, t, sink, logger)
		resultID = t.ID.String()
	default:
		err = domain.ErrInvalidTaskKind
	}

	if err != nil {
		logger.Error("task execution failed", "error", err)
		e.finishFailed(ctx, t, err, logger)
		sink.Fail(err.Error())
		e.emitter.Emit(ctx, events.NewQueueEvent(events.ActionFailed, t.Kind, t.ID))
		return
	}

	logger.Info("task completed successfully")
	sink.Done(resultID)
	e.emitter.Emit(ctx, events.NewQueueEvent(events.ActionCompleted, t.Kind, t.ID))
}

// runParse uploads confirmation, sends the document to the parsing provider,
// persists a new candidate record, and removes the task record on success.
// Parse tasks are deleted rather than kept as COMPLETED rows.
func (e *Engine) runParse(ctx context.Context, t *domain.Task, sink ProgressSink, logger *slog.Logger) (string, error) {
	p := t.Parse
	if p == nil {
		return "", domain.ErrMissingPayload
	}

	sink.Progress(10, "fetching uploaded file")
	data, err := e.blobs.Fetch(ctx, p.FileKey)
	if err != nil {
		return "", fmt.Errorf("failed to fetch resume file: %w", err)
	}

	sink.Progress(30, "parsing resume")
	parsed, err := e.parser.ParseResume(ctx, data, p.Filename)
	if err != nil {
		return "", fmt.Errorf("failed to parse resume: %w", err)
	}

	sink.Progress(70, "saving candidate record")
	candidate, err := domain.NewCandidate(
		parsed.Name,
		parsed.Email,
		parsed.Phone,
		parsed.Skills,
		parsed.Summary,
		p.Filename,
	)
	if err != nil {
		return "", fmt.Errorf("parsed resume produced an invalid candidate: %w", err)
	}
	if err := e.candidates.CreateCandidate(ctx, candidate); err != nil {
		return "", fmt.Errorf("failed to save candidate: %w", err)
	}

	p.CandidateID = candidate.ID
	sink.Progress(90, "finishing up")

	// Successful parse tasks leave no record behind; deleting also releases
	// the file's resource lock.
	if err := e.tasks.DeleteTask(ctx, t.ID); err != nil {
		logger.Error("failed to delete completed parse task", "error", err)
	}

	logger.Info("candidate created from resume", "candidate_id", candidate.ID)
	return candidate.ID.String(), nil
}

// runMatchBatch iterates the candidate list, scoring each against the job
// and persisting a match result. A single candidate failing is logged and
// skipped; the batch only aborts when the provider is globally unavailable.
func (e *Engine) runMatchBatch(ctx context.Context, t *domain.Task, sink ProgressSink, logger *slog.Logger) error {
	m := t.Match
	if m == nil {
		return domain.ErrMissingPayload
	}

	// Retry re-processes the original candidate list from the beginning.
	if m.ProcessedCount > 0 {
		m.Reset()
	}

	sink.Progress(0, fmt.Sprintf("matching %d candidates", m.TotalCount))

	for _, candidateID := range m.CandidateIDs {
		itemLogger := logger.With("candidate_id", candidateID)

		score, err := e.scoreOne(ctx, m.JobID, candidateID)
		if err != nil {
			if errors.Is(err, intel.ErrUnavailable) {
				// Provider is down for everyone; freeze progress and fail
				// the whole batch so it can be retried.
				return fmt.Errorf("matching provider unavailable after %d of %d candidates: %w",
					m.ProcessedCount, m.TotalCount, err)
			}
			// Per-item failure: log, advance, continue with the next candidate.
			itemLogger.Warn("candidate match failed, continuing batch", "error", err)
			if err := m.Advance(nil); err != nil {
				return err
			}
		} else {
			if err := m.Advance(score); err != nil {
				return err
			}
		}

		pct := m.ProcessedCount * 100 / m.TotalCount
		sink.Progress(pct, fmt.Sprintf("matched %d of %d candidates", m.ProcessedCount, m.TotalCount))

		// Persist progress so a poll sees the live count and the reaper
		// sees the task as fresh.
		if err := e.tasks.UpdateProgress(ctx, t); err != nil {
			itemLogger.Error("failed to persist batch progress", "error", err)
		}
	}

	if err := t.MarkCompleted(); err != nil {
		return err
	}
	if err := e.tasks.CompleteTask(ctx, t); err != nil {
		return fmt.Errorf("failed to record batch completion: %w", err)
	}
	return nil
}

// scoreOne fetches the candidate, calls the scoring provider, and upserts
// the match result for the (job, candidate) pair.
func (e *Engine) scoreOne(ctx context.Context, jobID, candidateID uuid.UUID) (*domain.MatchResult, error) {
	candidate, err := e.candidates.GetCandidate(ctx, candidateID)
	if err != nil {
		return nil, fmt.Errorf("failed to load candidate: %w", err)
	}

	score, err := e.scorer.ScoreCandidate(ctx, jobID, candidate)
	if err != nil {
		return nil, err
	}

	result, err := domain.NewMatchResult(jobID, candidateID, score.Score, score.Summary)
	if err != nil {
		return nil, err
	}
	if err := e.matches.UpsertMatch(ctx, result); err != nil {
		return nil, fmt.Errorf("failed to save match result: %w", err)
	}
	return result, nil
}

// runGenerate is a single call-and-persist with no intermediate progress.
func (e *Engine) runGenerate(ctx context.Context, t *domain.Task, sink ProgressSink, logger *slog.Logger) error {
	g := t.Generate
	if g == nil {
		return domain.ErrMissingPayload
	}

	sink.Progress(10, "generating content")
	text, err := e.generator.GenerateContent(ctx, g.Subject, g.Department)
	if err != nil {
		return fmt.Errorf("failed to generate content: %w", err)
	}
	g.GeneratedText = text

	if err := t.MarkCompleted(); err != nil {
		return err
	}
	if err := e.tasks.CompleteTask(ctx, t); err != nil {
		return fmt.Errorf("failed to record generation completion: %w", err)
	}
	return nil
}

// finishFailed records the terminal failure. Parse tasks are deleted
// instead of kept as FAILED rows; match and generate tasks keep their
// record so the user can retry them.
func (e *Engine) finishFailed(ctx context.Context, t *domain.Task, cause error, logger *slog.Logger) {
	if t.Kind == domain.TaskKindParse {
		if err := e.tasks.DeleteTask(ctx, t.ID); err != nil {
			logger.Error("failed to delete failed parse task", "error", err)
		}
		return
	}
	if err := e.tasks.FailTask(ctx, t.ID, cause.Error()); err != nil {
		logger.Error("failed to record task failure", "error", err)
	}
}
