package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/meltforce/liftlog/internal/models"
	"github.com/meltforce/liftlog/internal/storage"
)

func (s *Server) handleListExercises(w http.ResponseWriter, r *http.Request) {
	var (
		exercises []models.Exercise
		err       error
	)
	if q := r.URL.Query().Get("q"); q != "" {
		exercises, err = s.db.SearchExercises(r.Context(), q)
	} else {
		exercises, err = s.db.ListExercises(r.Context())
	}
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, errBody(err))
		return
	}
	writeJSON(w, http.StatusOK, exercises)
}

func (s *Server) handleGetExercise(w http.ResponseWriter, r *http.Request) {
	e, err := s.db.GetExercise(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, errBody(err))
		return
	}
	if e == nil {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "exercise not found"})
		return
	}
	writeJSON(w, http.StatusOK, e)
}

func (s *Server) handleCreateExercise(w http.ResponseWriter, r *http.Request) {
	var e models.Exercise
	if err := json.NewDecoder(r.Body).Decode(&e); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON: " + err.Error()})
		return
	}
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	e.IsCustom = true
	if err := s.db.CreateExercise(r.Context(), e); err != nil {
		writeJSON(w, http.StatusInternalServerError, errBody(err))
		return
	}
	writeJSON(w, http.StatusCreated, e)
}

func (s *Server) handleUpdateExercise(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	existing, err := s.db.GetExercise(r.Context(), id)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, errBody(err))
		return
	}
	if existing == nil {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "exercise not found"})
		return
	}
	if !existing.IsCustom {
		writeJSON(w, http.StatusConflict, map[string]string{"error": "default exercises can only be hidden"})
		return
	}

	var e models.Exercise
	if err := json.NewDecoder(r.Body).Decode(&e); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON: " + err.Error()})
		return
	}
	e.ID = id
	// The custom flag is not caller-writable; flipping it would let a
	// default row be rewritten or hard-deleted.
	e.IsCustom = true
	if err := s.db.UpdateExercise(r.Context(), e); err != nil {
		writeJSON(w, http.StatusInternalServerError, errBody(err))
		return
	}
	writeJSON(w, http.StatusOK, e)
}

func (s *Server) handleDeleteExercise(w http.ResponseWriter, r *http.Request) {
	err := s.db.DeleteExercise(r.Context(), chi.URLParam(r, "id"))
	if errors.Is(err, storage.ErrDefaultImmutable) {
		writeJSON(w, http.StatusConflict, map[string]string{"error": "default exercises can only be hidden"})
		return
	}
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, errBody(err))
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleHideExercise(w http.ResponseWriter, r *http.Request) {
	if err := s.db.HideExercise(r.Context(), chi.URLParam(r, "id")); err != nil {
		writeJSON(w, http.StatusInternalServerError, errBody(err))
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleUnhideExercise(w http.ResponseWriter, r *http.Request) {
	if err := s.db.UnhideExercise(r.Context(), chi.URLParam(r, "id")); err != nil {
		writeJSON(w, http.StatusInternalServerError, errBody(err))
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleUnhideAllExercises(w http.ResponseWriter, r *http.Request) {
	if err := s.db.UnhideAllExercises(r.Context()); err != nil {
		writeJSON(w, http.StatusInternalServerError, errBody(err))
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func errBody(err error) map[string]string {
	return map[string]string{"error": err.Error()}
}

// parseDateRange reads start/end query params as epoch milliseconds or
// YYYY-MM-DD dates, defaulting to the last 30 days.
func parseDateRange(r *http.Request) (start, end int64, err error) {
	now := time.Now()
	start = now.AddDate(0, 0, -30).UnixMilli()
	end = now.UnixMilli() + 1

	parse := func(s string) (int64, error) {
		if ms, err := strconv.ParseInt(s, 10, 64); err == nil {
			return ms, nil
		}
		t, err := time.Parse("2006-01-02", s)
		if err != nil {
			return 0, err
		}
		return t.UnixMilli(), nil
	}

	if v := r.URL.Query().Get("start"); v != "" {
		if start, err = parse(v); err != nil {
			return 0, 0, err
		}
	}
	if v := r.URL.Query().Get("end"); v != "" {
		if end, err = parse(v); err != nil {
			return 0, 0, err
		}
	}
	return start, end, nil
}
