package api

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/hirewire/talent-api/internal/api/shared"
	"github.com/hirewire/talent-api/internal/domain"
	"github.com/hirewire/talent-api/internal/platform/logger"
	"github.com/hirewire/talent-api/internal/service"
	"github.com/hirewire/talent-api/internal/task"
)

// TaskHandler handles task-related HTTP requests.
type TaskHandler struct {
	taskService *service.TaskService
	validator   *validator.Validate
	logger      *slog.Logger
}

// NewTaskHandler creates a new TaskHandler.
func NewTaskHandler(taskService *service.TaskService, logger *slog.Logger) *TaskHandler {
	if logger == nil {
		// ALLOW-PANIC: Constructor enforcing required dependency
		panic("logger cannot be nil for TaskHandler")
	}

	return &TaskHandler{
		taskService: taskService,
		validator:   validator.New(),
		logger:      logger.With(slog.String("component", "task_handler")),
	}
}

// SubmitTask handles POST /tasks requests.
// It claims the resource lock, starts the task immediately, and streams
// progress to the client as server-sent events until the terminal event.
func (h *TaskHandler) SubmitTask(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)

	t, ok := h.decodeTask(w, r, log)
	if !ok {
		return
	}

	stream, err := h.taskService.SubmitImmediate(r.Context(), t)
	if err != nil {
		shared.RespondWithErrorAndLog(w, r, MapErrorToStatusCode(err), GetSafeErrorMessage(err), err)
		return
	}

	log.Debug("task submitted, streaming progress",
		slog.String("task_id", t.ID.String()),
		slog.String("task_kind", string(t.Kind)))
	h.streamEvents(w, r, log, stream)
}

// SubmitDeferredTask handles POST /tasks/deferred requests.
// The task is persisted as PENDING and picked up by the dispatcher at its
// scheduled time; the response returns immediately with 202 Accepted.
func (h *TaskHandler) SubmitDeferredTask(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)

	t, ok := h.decodeTask(w, r, log)
	if !ok {
		return
	}

	created, err := h.taskService.SubmitDeferred(r.Context(), t)
	if err != nil {
		shared.RespondWithErrorAndLog(w, r, MapErrorToStatusCode(err), GetSafeErrorMessage(err), err)
		return
	}

	log.Debug("task deferred",
		slog.String("task_id", created.ID.String()),
		slog.String("task_kind", string(created.Kind)))
	shared.RespondWithJSON(w, r, http.StatusAccepted, taskToResponse(created))
}

// ListTasks handles GET /tasks requests. Tasks can be filtered by kind and
// by a comma-separated list of statuses.
func (h *TaskHandler) ListTasks(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)

	var kind domain.TaskKind
	if raw := r.URL.Query().Get("kind"); raw != "" {
		kind = domain.TaskKind(raw)
		switch kind {
		case domain.TaskKindParse, domain.TaskKindMatchBatch, domain.TaskKindGenerate:
		default:
			shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid task kind")
			return
		}
	}

	var statuses []domain.TaskStatus
	if raw := r.URL.Query().Get("status"); raw != "" {
		for _, s := range strings.Split(raw, ",") {
			status := domain.TaskStatus(strings.TrimSpace(s))
			switch status {
			case domain.TaskStatusPending, domain.TaskStatusRunning,
				domain.TaskStatusCompleted, domain.TaskStatusFailed:
				statuses = append(statuses, status)
			default:
				shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid task status")
				return
			}
		}
	}

	tasks, err := h.taskService.ListTasks(r.Context(), kind, statuses)
	if err != nil {
		shared.RespondWithErrorAndLog(w, r, MapErrorToStatusCode(err), "Failed to list tasks", err)
		return
	}

	log.Debug("listed tasks", slog.Int("count", len(tasks)))
	shared.RespondWithJSON(w, r, http.StatusOK, tasksToResponse(tasks))
}

// RunTaskNow handles POST /tasks/{id}/run-now requests.
// It forces a PENDING task to run ahead of its schedule. If the resource is
// busy the task stays PENDING and the client gets 409 Conflict.
func (h *TaskHandler) RunTaskNow(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)

	id, ok := h.taskIDFromPath(w, r, log)
	if !ok {
		return
	}

	if err := h.taskService.RunNow(r.Context(), id); err != nil {
		shared.RespondWithErrorAndLog(w, r, MapErrorToStatusCode(err), GetSafeErrorMessage(err), err)
		return
	}

	log.Debug("task started ahead of schedule", slog.String("task_id", id.String()))
	w.WriteHeader(http.StatusAccepted)
}

// CancelTask handles DELETE /tasks/{id} requests.
// PENDING tasks are removed before they ever run. RUNNING tasks are
// force-cleared: the record is deleted and the resource lock released, but
// in-flight work is not interrupted.
func (h *TaskHandler) CancelTask(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)

	id, ok := h.taskIDFromPath(w, r, log)
	if !ok {
		return
	}

	if err := h.taskService.Cancel(r.Context(), id); err != nil {
		shared.RespondWithErrorAndLog(w, r, MapErrorToStatusCode(err), GetSafeErrorMessage(err), err)
		return
	}

	log.Debug("task cancelled", slog.String("task_id", id.String()))
	w.WriteHeader(http.StatusNoContent)
}

// RetryTask handles POST /tasks/{id}/retry requests.
// It re-runs a FAILED match-batch or generate task under the same identity
// and streams progress like an immediate submission.
func (h *TaskHandler) RetryTask(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)

	id, ok := h.taskIDFromPath(w, r, log)
	if !ok {
		return
	}

	stream, err := h.taskService.Retry(r.Context(), id)
	if err != nil {
		shared.RespondWithErrorAndLog(w, r, MapErrorToStatusCode(err), GetSafeErrorMessage(err), err)
		return
	}

	log.Debug("task retry started, streaming progress", slog.String("task_id", id.String()))
	h.streamEvents(w, r, log, stream)
}

// CleanupTasks handles POST /tasks/cleanup requests.
// It runs one reaper pass over stuck RUNNING tasks and reports the count.
func (h *TaskHandler) CleanupTasks(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)

	reaped, err := h.taskService.CleanupTimedOut(r.Context())
	if err != nil {
		shared.RespondWithErrorAndLog(w, r, http.StatusInternalServerError, "Failed to clean up tasks", err)
		return
	}

	log.Info("manual cleanup pass finished", slog.Int("reaped", reaped))
	shared.RespondWithJSON(w, r, http.StatusOK, CleanupResponse{Reaped: reaped})
}

// decodeTask parses and validates the request body and builds the domain
// task. It writes the error response itself and returns ok=false on failure.
func (h *TaskHandler) decodeTask(w http.ResponseWriter, r *http.Request, log *slog.Logger) (*domain.Task, bool) {
	var req CreateTaskRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		log.Warn("invalid request body", slog.String("error", err.Error()))
		shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid request format")
		return nil, false
	}

	if err := h.validator.Struct(req); err != nil {
		log.Warn("request validation failed", slog.String("error", err.Error()))
		shared.RespondWithError(w, r, http.StatusBadRequest, SanitizeValidationError(err))
		return nil, false
	}

	t, err := taskFromRequest(&req)
	if err != nil {
		log.Warn("invalid task payload", slog.String("error", err.Error()))
		shared.RespondWithError(w, r, http.StatusBadRequest, GetSafeErrorMessage(err))
		return nil, false
	}
	return t, true
}

// taskFromRequest builds a domain task from a validated request body.
func taskFromRequest(req *CreateTaskRequest) (*domain.Task, error) {
	switch domain.TaskKind(req.Kind) {
	case domain.TaskKindParse:
		if req.Parse == nil {
			return nil, domain.ErrMissingPayload
		}
		return domain.NewParseTask(req.Parse.FileKey, req.Parse.Filename, req.ScheduledFor)
	case domain.TaskKindMatchBatch:
		if req.Match == nil {
			return nil, domain.ErrMissingPayload
		}
		return domain.NewMatchBatchTask(req.Match.JobID, req.Match.CandidateIDs, req.ScheduledFor)
	case domain.TaskKindGenerate:
		if req.Generate == nil {
			return nil, domain.ErrMissingPayload
		}
		return domain.NewGenerateTask(req.Generate.RequestID, req.Generate.Subject, req.Generate.Department, req.ScheduledFor)
	default:
		return nil, domain.ErrInvalidTaskKind
	}
}

// taskIDFromPath extracts and parses the task ID from the URL path. It
// writes the error response itself and returns ok=false on failure.
func (h *TaskHandler) taskIDFromPath(w http.ResponseWriter, r *http.Request, log *slog.Logger) (uuid.UUID, bool) {
	pathID := chi.URLParam(r, "id")
	if pathID == "" {
		log.Warn("task ID not found in URL path")
		shared.RespondWithError(w, r, http.StatusBadRequest, "Task ID is required")
		return uuid.Nil, false
	}

	id, err := uuid.Parse(pathID)
	if err != nil {
		log.Warn("invalid task ID format", slog.String("task_id", pathID))
		shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid task ID format")
		return uuid.Nil, false
	}
	return id, true
}

// streamEvents writes stream events to the client as server-sent events
// until the terminal event closes the stream. A client disconnect stops the
// response but never the task: execution is detached and the task store
// keeps the authoritative outcome for later polling.
func (h *TaskHandler) streamEvents(w http.ResponseWriter, r *http.Request, log *slog.Logger, stream *task.Stream) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		log.Error("response writer does not support streaming")
		shared.RespondWithError(w, r, http.StatusInternalServerError, "Streaming not supported")
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	for {
		select {
		case ev, open := <-stream.Events():
			if !open {
				return
			}
			data, err := json.Marshal(ev)
			if err != nil {
				log.Error("failed to encode stream event", slog.String("error", err.Error()))
				return
			}
			if _, err := fmt.Fprintf(w, "event: %s\ndata: %s\n\n", ev.Type, data); err != nil {
				log.Debug("client disconnected during stream", slog.String("error", err.Error()))
				return
			}
			flusher.Flush()
		case <-r.Context().Done():
			log.Debug("client disconnected, task continues in background")
			return
		}
	}
}
