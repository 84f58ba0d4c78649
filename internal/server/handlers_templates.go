package server

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/meltforce/liftlog/internal/models"
	"github.com/meltforce/liftlog/internal/storage"
)

// templateRequest is the write shape for templates: metadata plus the full
// ordered child set. Updates replace the children wholesale.
type templateRequest struct {
	Title     string                    `json:"title"`
	Exercises []models.TemplateExercise `json:"exercises"`
}

func (s *Server) handleListTemplates(w http.ResponseWriter, r *http.Request) {
	var (
		templates []models.TemplateDetail
		err       error
	)
	if q := r.URL.Query().Get("q"); q != "" {
		templates, err = s.db.SearchTemplates(r.Context(), q)
	} else {
		templates, err = s.db.ListTemplates(r.Context())
	}
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, errBody(err))
		return
	}
	writeJSON(w, http.StatusOK, templates)
}

func (s *Server) handleGetTemplate(w http.ResponseWriter, r *http.Request) {
	t, err := s.db.GetTemplate(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, errBody(err))
		return
	}
	if t == nil {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "template not found"})
		return
	}
	writeJSON(w, http.StatusOK, t)
}

func (s *Server) handleCreateTemplate(w http.ResponseWriter, r *http.Request) {
	var req templateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON: " + err.Error()})
		return
	}
	t := models.WorkoutTemplate{ID: uuid.NewString(), Title: req.Title}
	mintTemplateExerciseIDs(req.Exercises)
	if err := s.db.CreateTemplate(r.Context(), t, req.Exercises); err != nil {
		writeJSON(w, http.StatusInternalServerError, errBody(err))
		return
	}
	detail, err := s.db.GetTemplate(r.Context(), t.ID)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, errBody(err))
		return
	}
	writeJSON(w, http.StatusCreated, detail)
}

func (s *Server) handleUpdateTemplate(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	existing, err := s.db.GetTemplate(r.Context(), id)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, errBody(err))
		return
	}
	if existing == nil {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "template not found"})
		return
	}
	if existing.IsDefault {
		writeJSON(w, http.StatusConflict, map[string]string{"error": "default templates can only be hidden"})
		return
	}

	var req templateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON: " + err.Error()})
		return
	}
	t := models.WorkoutTemplate{ID: id, Title: req.Title, IsHidden: existing.IsHidden}
	mintTemplateExerciseIDs(req.Exercises)
	if err := s.db.UpdateTemplate(r.Context(), t, req.Exercises); err != nil {
		writeJSON(w, http.StatusInternalServerError, errBody(err))
		return
	}
	detail, err := s.db.GetTemplate(r.Context(), id)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, errBody(err))
		return
	}
	writeJSON(w, http.StatusOK, detail)
}

func (s *Server) handleDeleteTemplate(w http.ResponseWriter, r *http.Request) {
	err := s.db.DeleteTemplate(r.Context(), chi.URLParam(r, "id"))
	if errors.Is(err, storage.ErrDefaultImmutable) {
		writeJSON(w, http.StatusConflict, map[string]string{"error": "default templates can only be hidden"})
		return
	}
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, errBody(err))
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleHideTemplate(w http.ResponseWriter, r *http.Request) {
	if err := s.db.HideTemplate(r.Context(), chi.URLParam(r, "id")); err != nil {
		writeJSON(w, http.StatusInternalServerError, errBody(err))
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleUnhideTemplate(w http.ResponseWriter, r *http.Request) {
	if err := s.db.UnhideTemplate(r.Context(), chi.URLParam(r, "id")); err != nil {
		writeJSON(w, http.StatusInternalServerError, errBody(err))
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func mintTemplateExerciseIDs(exercises []models.TemplateExercise) {
	for i := range exercises {
		if exercises[i].ID == "" {
			exercises[i].ID = uuid.NewString()
		}
	}
}
