package server

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/nyaya-labs/sahayak/internal/api"
	"github.com/nyaya-labs/sahayak/internal/api/handlers"
	"github.com/nyaya-labs/sahayak/internal/api/middleware"
)

type RouterConfig struct {
	QueryHandler      *handlers.QueryHandler
	IndexHandler      *handlers.IndexHandler
	CaseHandler       *handlers.CaseHandler
	SuggestionHandler *handlers.SuggestionHandler
	StatusHandler     *handlers.StatusHandler
}

func NewRouter(cfg RouterConfig) http.Handler {
	r := chi.NewRouter()

	const maxBodyBytes int64 = 5 * 1024 * 1024

	r.Use(middleware.RequestID)
	r.Use(middleware.SentryMiddleware)
	r.Use(middleware.AccessLog)
	r.Use(middleware.MaxBodyBytes(maxBodyBytes))

	health := func(w http.ResponseWriter, r *http.Request) {
		api.Success(w, http.StatusOK, map[string]string{"status": "ok"})
	}
	r.Get("/health", health)
	r.Get("/healthz", health)
	r.Get("/status", cfg.StatusHandler.Status)

	r.Route("/api/v1", func(r chi.Router) {
		r.Post("/legal-query", cfg.QueryHandler.Answer)
		r.Get("/suggestions", cfg.SuggestionHandler.Suggest)
		r.Get("/case/{id}", cfg.CaseHandler.Get)

		r.Post("/index", cfg.IndexHandler.Index)
		r.Get("/index/jobs/{id}", cfg.IndexHandler.GetJob)
	})

	return r
}
