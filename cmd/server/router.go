package main

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/hirewire/talent-api/internal/api"
	apiMiddleware "github.com/hirewire/talent-api/internal/api/middleware"
)

// setupRouter creates and configures the application router with all routes
// and middleware. Returns the configured router.
func (app *application) setupRouter() http.Handler {
	r := chi.NewRouter()

	// Apply standard middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(apiMiddleware.TraceMiddleware) // Add trace IDs for improved error handling

	// Create API handlers using the application's services
	taskHandler := api.NewTaskHandler(app.taskService, app.logger)

	// Register routes
	r.Route("/api", func(r chi.Router) {
		// Task orchestration endpoints
		r.Post("/tasks", taskHandler.SubmitTask)
		r.Post("/tasks/deferred", taskHandler.SubmitDeferredTask)
		r.Get("/tasks", taskHandler.ListTasks)
		r.Post("/tasks/cleanup", taskHandler.CleanupTasks)
		r.Post("/tasks/{id}/run-now", taskHandler.RunTaskNow)
		r.Post("/tasks/{id}/retry", taskHandler.RetryTask)
		r.Delete("/tasks/{id}", taskHandler.CancelTask)
	})

	// Health check endpoint
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, err := w.Write([]byte("OK"))
		if err != nil {
			app.logger.Error("Failed to write health check response", "error", err)
		}
	})

	return r
}
