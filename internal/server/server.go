package server

import (
	"log/slog"
	"net/http"
	"sync"

	"github.com/go-chi/chi/v5"
	"github.com/meltforce/liftlog/internal/models"
	"github.com/meltforce/liftlog/internal/session"
	"github.com/meltforce/liftlog/internal/storage"
)

// Server holds dependencies for HTTP handlers, including the single active
// session engine. Replacing the engine when a new workout starts is a caller
// decision, arbitrated here via the force flag.
type Server struct {
	db     *storage.DB
	log    *slog.Logger
	apiKey string
	unit   models.WeightUnit
	router chi.Router

	mu     sync.Mutex
	engine *session.Engine
}

// New creates a Server with all routes configured.
func New(db *storage.DB, apiKey string, unit models.WeightUnit, log *slog.Logger) *Server {
	s := &Server{
		db:     db,
		log:    log,
		apiKey: apiKey,
		unit:   unit,
		router: chi.NewRouter(),
	}
	s.routes()
	return s
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) routes() {
	s.router.Use(RequestLogging(s.log))
	s.router.Use(CORS)

	// Read endpoints are open; everything that writes needs the API key.
	s.router.Route("/api/v1", func(r chi.Router) {
		r.Get("/exercises", s.handleListExercises)
		r.Get("/exercises/{id}", s.handleGetExercise)
		r.Get("/templates", s.handleListTemplates)
		r.Get("/templates/{id}", s.handleGetTemplate)
		r.Get("/sessions", s.handleListSessions)
		r.Get("/sessions/{id}", s.handleGetSession)
		r.Get("/active", s.handleActiveState)

		r.Group(func(r chi.Router) {
			r.Use(APIKeyAuth(s.apiKey))

			r.Post("/exercises", s.handleCreateExercise)
			r.Put("/exercises/{id}", s.handleUpdateExercise)
			r.Delete("/exercises/{id}", s.handleDeleteExercise)
			r.Post("/exercises/{id}/hide", s.handleHideExercise)
			r.Post("/exercises/{id}/unhide", s.handleUnhideExercise)
			r.Post("/exercises/unhide_all", s.handleUnhideAllExercises)

			r.Post("/templates", s.handleCreateTemplate)
			r.Put("/templates/{id}", s.handleUpdateTemplate)
			r.Delete("/templates/{id}", s.handleDeleteTemplate)
			r.Post("/templates/{id}/hide", s.handleHideTemplate)
			r.Post("/templates/{id}/unhide", s.handleUnhideTemplate)

			r.Put("/sessions/{id}", s.handleUpdateSession)
			r.Delete("/sessions/{id}", s.handleDeleteSession)

			r.Post("/active/start", s.handleActiveStart)
			r.Post("/active/toggle", s.handleActiveToggle)
			r.Post("/active/sets/reps", s.handleActiveSetReps)
			r.Post("/active/sets/weight", s.handleActiveSetWeight)
			r.Post("/active/save", s.handleActiveSave)
			r.Post("/active/discard", s.handleActiveDiscard)
		})
	})
}
