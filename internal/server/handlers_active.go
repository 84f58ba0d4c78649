package server

import (
	"encoding/json"
	"net/http"

	"github.com/meltforce/liftlog/internal/models"
	"github.com/meltforce/liftlog/internal/session"
)

// fixedUnit adapts the configured display unit to the engine's UnitSource.
type fixedUnit models.WeightUnit

func (u fixedUnit) PreferredUnit() models.WeightUnit { return models.WeightUnit(u) }

type startRequest struct {
	TemplateID string `json:"template_id"`
	// Force discards a still-active workout before starting the new one.
	Force bool `json:"force"`
}

func (s *Server) handleActiveStart(w http.ResponseWriter, r *http.Request) {
	var req startRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON: " + err.Error()})
		return
	}

	tmpl, err := s.db.GetTemplate(r.Context(), req.TemplateID)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, errBody(err))
		return
	}
	if tmpl == nil {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "template not found"})
		return
	}

	s.mu.Lock()
	if s.engine != nil && s.engine.HasActiveWorkout() {
		if !req.Force {
			s.mu.Unlock()
			writeJSON(w, http.StatusConflict, map[string]string{"error": "a workout is already active"})
			return
		}
		s.engine.Discard()
	}
	eng := session.NewEngine(s.db, s.db, s.log)
	s.engine = eng
	s.mu.Unlock()

	if err := eng.StartFromTemplate(r.Context(), *tmpl, fixedUnit(s.unit)); err != nil {
		writeJSON(w, http.StatusConflict, errBody(err))
		return
	}
	writeJSON(w, http.StatusOK, eng.Snapshot())
}

// activeEngine returns the current engine, or nil when none was started.
func (s *Server) activeEngine() *session.Engine {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.engine
}

func (s *Server) handleActiveState(w http.ResponseWriter, r *http.Request) {
	eng := s.activeEngine()
	if eng == nil {
		writeJSON(w, http.StatusOK, session.UIState{State: session.StateIdle})
		return
	}
	writeJSON(w, http.StatusOK, eng.Snapshot())
}

func (s *Server) handleActiveToggle(w http.ResponseWriter, r *http.Request) {
	eng := s.activeEngine()
	if eng == nil {
		writeJSON(w, http.StatusConflict, map[string]string{"error": "no active workout"})
		return
	}
	eng.ToggleTimer()
	writeJSON(w, http.StatusOK, eng.Snapshot())
}

type setEditRequest struct {
	ExerciseID string `json:"exercise_id"`
	SetID      string `json:"set_id"`
	Value      string `json:"value"`
}

func (s *Server) handleActiveSetReps(w http.ResponseWriter, r *http.Request) {
	s.handleSetEdit(w, r, (*session.Engine).UpdateSetReps)
}

func (s *Server) handleActiveSetWeight(w http.ResponseWriter, r *http.Request) {
	s.handleSetEdit(w, r, (*session.Engine).UpdateSetWeight)
}

func (s *Server) handleSetEdit(w http.ResponseWriter, r *http.Request, apply func(*session.Engine, string, string, string)) {
	eng := s.activeEngine()
	if eng == nil {
		writeJSON(w, http.StatusConflict, map[string]string{"error": "no active workout"})
		return
	}
	var req setEditRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON: " + err.Error()})
		return
	}
	apply(eng, req.ExerciseID, req.SetID, req.Value)
	writeJSON(w, http.StatusOK, eng.Snapshot())
}

func (s *Server) handleActiveSave(w http.ResponseWriter, r *http.Request) {
	eng := s.activeEngine()
	if eng == nil {
		writeJSON(w, http.StatusConflict, map[string]string{"error": "no active workout"})
		return
	}
	// Failures surface in the snapshot's error field; the working state
	// stays intact for a retry.
	eng.Save(r.Context())
	writeJSON(w, http.StatusOK, eng.Snapshot())
}

func (s *Server) handleActiveDiscard(w http.ResponseWriter, r *http.Request) {
	eng := s.activeEngine()
	if eng == nil {
		writeJSON(w, http.StatusConflict, map[string]string{"error": "no active workout"})
		return
	}
	eng.Discard()
	writeJSON(w, http.StatusOK, eng.Snapshot())
}
