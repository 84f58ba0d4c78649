package server

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/meltforce/liftlog/internal/models"
)

func (s *Server) handleListSessions(w http.ResponseWriter, r *http.Request) {
	start, end, err := parseDateRange(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errBody(err))
		return
	}
	sessions, err := s.db.ListSessionsByDateRange(r.Context(), start, end)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, errBody(err))
		return
	}
	writeJSON(w, http.StatusOK, sessions)
}

func (s *Server) handleGetSession(w http.ResponseWriter, r *http.Request) {
	sess, err := s.db.GetSession(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, errBody(err))
		return
	}
	if sess == nil {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "session not found"})
		return
	}
	writeJSON(w, http.StatusOK, sess)
}

// sessionRequest is the write shape for session edits: metadata plus the
// full replacement child graph. Historical edits replace, never patch.
type sessionRequest struct {
	Date            int64                            `json:"date"`
	DurationSeconds int                              `json:"duration_seconds"`
	Title           string                           `json:"title"`
	Exercises       []models.PerformedExerciseDetail `json:"exercises"`
}

func (s *Server) handleUpdateSession(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	var req sessionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON: " + err.Error()})
		return
	}
	sess := models.WorkoutSession{
		ID:              id,
		Date:            req.Date,
		DurationSeconds: req.DurationSeconds,
		Title:           req.Title,
	}
	for i := range req.Exercises {
		if req.Exercises[i].ID == "" {
			req.Exercises[i].ID = uuid.NewString()
		}
		for j := range req.Exercises[i].Sets {
			if req.Exercises[i].Sets[j].ID == "" {
				req.Exercises[i].Sets[j].ID = uuid.NewString()
			}
		}
	}
	if err := s.db.UpdateSession(r.Context(), sess, req.Exercises); err != nil {
		writeJSON(w, http.StatusInternalServerError, errBody(err))
		return
	}
	detail, err := s.db.GetSession(r.Context(), id)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, errBody(err))
		return
	}
	writeJSON(w, http.StatusOK, detail)
}

func (s *Server) handleDeleteSession(w http.ResponseWriter, r *http.Request) {
	if err := s.db.DeleteSession(r.Context(), chi.URLParam(r, "id")); err != nil {
		writeJSON(w, http.StatusInternalServerError, errBody(err))
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
