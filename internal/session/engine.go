// Package session holds the active-session engine: the state machine that
// turns a workout template into a live, timed, editable session and
// finalizes it into persisted history.
package session

import (
	"context"
	"errors"
	"log/slog"
	"strconv"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/meltforce/liftlog/internal/models"
)

// State is the engine lifecycle state.
type State string

const (
	StateIdle       State = "idle"
	StateRunning    State = "running"
	StatePaused     State = "paused"
	StateFinalizing State = "finalizing"
	StateSaved      State = "saved"
	StateDiscarded  State = "discarded"
)

// Outcome reports how a session finalized.
type Outcome string

const (
	OutcomeSaved     Outcome = "saved"
	OutcomeDiscarded Outcome = "discarded"
)

// ErrNotIdle is returned when StartFromTemplate is called on an engine that
// already ran a session. Callers arbitrate via HasActiveWorkout.
var ErrNotIdle = errors.New("session engine is not idle")

// unknownExerciseName is displayed when a template references an exercise
// that no longer exists. A stale reference must not block a workout.
const unknownExerciseName = "Unknown Exercise"

// SessionStore persists finalized sessions.
type SessionStore interface {
	CreateSession(ctx context.Context, s models.WorkoutSession, exercises []models.PerformedExerciseDetail) error
}

// ExerciseCatalog resolves exercise ids to catalog entries.
type ExerciseCatalog interface {
	GetExercise(ctx context.Context, id string) (*models.Exercise, error)
}

// UnitSource supplies the user's preferred display unit. Consulted once, at
// session start.
type UnitSource interface {
	PreferredUnit() models.WeightUnit
}

// UIState is a plain snapshot of engine state for rendering. It reflects the
// latest committed transition.
type UIState struct {
	State          State             `json:"state"`
	Title          string            `json:"title"`
	ElapsedSeconds int               `json:"elapsed_seconds"`
	Running        bool              `json:"running"`
	Saving         bool              `json:"saving"`
	Unit           models.WeightUnit `json:"unit"`
	Exercises      []WorkingExercise `json:"exercises"`
	Err            string            `json:"error,omitempty"`
	Notice         string            `json:"notice,omitempty"`
}

// Engine is the active-session state machine. All state is guarded by one
// mutex; the tick goroutine takes the same lock, so edits and ticks are
// serialized and cancellation is race-free.
type Engine struct {
	store   SessionStore
	catalog ExerciseCatalog
	log     *slog.Logger

	// Notify, when set, receives a snapshot after every committed
	// transition. OnFinalized fires once, on Saved or Discarded.
	Notify      func(UIState)
	OnFinalized func(Outcome)

	newTicker func() (<-chan time.Time, func())
	now       func() time.Time

	mu        sync.Mutex
	state     State
	title     string
	unit      models.WeightUnit
	startTime time.Time
	elapsed   int
	exercises []*WorkingExercise
	errMsg    string
	notice    string
	tickGen   int
	stopTick  func()
}

// NewEngine creates an idle engine.
func NewEngine(store SessionStore, catalog ExerciseCatalog, log *slog.Logger) *Engine {
	return &Engine{
		store:   store,
		catalog: catalog,
		log:     log,
		state:   StateIdle,
		unit:    models.UnitKilograms,
		now:     time.Now,
		newTicker: func() (<-chan time.Time, func()) {
			t := time.NewTicker(time.Second)
			return t.C, t.Stop
		},
	}
}

// SetTicker overrides the tick source; tests drive the channel directly.
func (e *Engine) SetTicker(factory func() (<-chan time.Time, func())) {
	e.newTicker = factory
}

// SetClock overrides the wall clock used for the session start time.
func (e *Engine) SetClock(now func() time.Time) {
	e.now = now
}

// StartFromTemplate materializes a template into a running session. The
// engine must be Idle. Each planned exercise gets plannedSets empty working
// sets, in template order; exercise names are resolved once, here.
func (e *Engine) StartFromTemplate(ctx context.Context, tmpl models.TemplateDetail, units UnitSource) error {
	// Resolve names before taking the lock; catalog reads may suspend.
	names := make([]string, len(tmpl.Exercises))
	for i, te := range tmpl.Exercises {
		names[i] = e.resolveName(ctx, te.ExerciseID)
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	if e.state != StateIdle {
		return ErrNotIdle
	}

	e.title = tmpl.Title
	if units != nil {
		e.unit = units.PreferredUnit()
	}
	e.exercises = make([]*WorkingExercise, 0, len(tmpl.Exercises))
	for i, te := range tmpl.Exercises {
		we := &WorkingExercise{
			ID:         uuid.NewString(),
			ExerciseID: te.ExerciseID,
			Name:       names[i],
			Sets:       make([]WorkingSet, te.PlannedSets),
		}
		for j := range we.Sets {
			we.Sets[j] = WorkingSet{ID: uuid.NewString()}
		}
		e.exercises = append(e.exercises, we)
	}

	e.startTime = e.now()
	e.elapsed = 0
	e.state = StateRunning
	e.startTickLocked()
	e.notifyLocked()
	return nil
}

func (e *Engine) resolveName(ctx context.Context, exerciseID string) string {
	ex, err := e.catalog.GetExercise(ctx, exerciseID)
	if err != nil {
		e.log.Warn("exercise lookup failed", "exercise_id", exerciseID, "error", err)
		return unknownExerciseName
	}
	if ex == nil {
		// Deleted after the template was created; soft-fail by design of the
		// data model, but leave a trace for diagnostics.
		e.log.Warn("template references missing exercise", "exercise_id", exerciseID)
		return unknownExerciseName
	}
	return ex.Name
}

// ToggleTimer flips Running to Paused and back. No-op in any other state.
func (e *Engine) ToggleTimer() {
	e.mu.Lock()
	defer e.mu.Unlock()

	switch e.state {
	case StateRunning:
		e.stopTickLocked()
		e.state = StatePaused
	case StatePaused:
		e.state = StateRunning
		e.startTickLocked()
	default:
		return
	}
	e.notifyLocked()
}

// UpdateSetReps stores sanitized rep text for a working set. Unknown ids are
// ignored.
func (e *Engine) UpdateSetReps(exerciseID, setID, raw string) {
	e.updateSet(exerciseID, setID, func(ws *WorkingSet) {
		ws.Reps = sanitizeReps(raw)
	})
}

// UpdateSetWeight stores sanitized weight text for a working set.
func (e *Engine) UpdateSetWeight(exerciseID, setID, raw string) {
	e.updateSet(exerciseID, setID, func(ws *WorkingSet) {
		ws.Weight = sanitizeWeight(raw)
	})
}

func (e *Engine) updateSet(exerciseID, setID string, apply func(*WorkingSet)) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.state != StateRunning && e.state != StatePaused {
		return
	}
	for _, we := range e.exercises {
		if we.ID != exerciseID {
			continue
		}
		for i := range we.Sets {
			if we.Sets[i].ID == setID {
				apply(&we.Sets[i])
				e.notifyLocked()
				return
			}
		}
	}
}

// Discard cancels the timer, clears all working state, and transitions to
// Discarded without persisting anything. No-op once terminal or while a save
// is finalizing.
func (e *Engine) Discard() {
	e.mu.Lock()

	if e.state != StateRunning && e.state != StatePaused {
		e.mu.Unlock()
		return
	}
	e.stopTickLocked()
	e.exercises = nil
	e.state = StateDiscarded
	e.notifyLocked()
	e.mu.Unlock()

	e.finalized(OutcomeDiscarded)
}

// Save finalizes the session. The timer stops first; only sets with both
// reps and weight filled are kept, weights are converted from the display
// unit to kilograms, and the whole graph is written atomically. Zero kept
// sets means an implicit discard. While the write is in flight the engine is
// Finalizing and every other transition is rejected. A storage failure
// leaves the engine Paused with working state intact, so the user can retry.
func (e *Engine) Save(ctx context.Context) {
	e.mu.Lock()

	if e.state != StateRunning && e.state != StatePaused {
		e.mu.Unlock()
		return
	}
	e.stopTickLocked()

	performed := e.buildPerformedLocked()
	if len(performed) == 0 {
		e.exercises = nil
		e.state = StateDiscarded
		e.notice = "nothing logged"
		e.notifyLocked()
		e.mu.Unlock()

		e.finalized(OutcomeDiscarded)
		return
	}

	sess := models.WorkoutSession{
		ID:              uuid.NewString(),
		Date:            e.startTime.UnixMilli(),
		DurationSeconds: e.elapsed,
		Title:           e.title,
	}
	e.state = StateFinalizing
	e.notifyLocked()
	e.mu.Unlock()

	// Persist outside the lock. Save and Discard both reject Finalizing, so
	// nothing else can transition while the write is in flight.
	err := e.store.CreateSession(ctx, sess, performed)

	e.mu.Lock()
	if err != nil {
		e.log.Error("saving session failed", "error", err)
		e.state = StatePaused
		e.errMsg = "Failed to save workout"
		e.notifyLocked()
		e.mu.Unlock()
		return
	}
	e.errMsg = ""
	e.state = StateSaved
	e.notifyLocked()
	e.mu.Unlock()

	e.finalized(OutcomeSaved)
}

// buildPerformedLocked filters working sets down to fully-filled ones,
// converts weights to kilograms, and mints persisted ids. Exercises with no
// kept sets are dropped.
func (e *Engine) buildPerformedLocked() []models.PerformedExerciseDetail {
	var result []models.PerformedExerciseDetail
	for _, we := range e.exercises {
		var sets []models.WorkoutSet
		for _, ws := range we.Sets {
			if ws.Reps == "" || ws.Weight == "" {
				continue
			}
			reps, err := strconv.Atoi(ws.Reps)
			if err != nil || reps <= 0 {
				continue
			}
			display, err := strconv.ParseFloat(ws.Weight, 64)
			if err != nil {
				continue
			}
			sets = append(sets, models.WorkoutSet{
				ID:       uuid.NewString(),
				WeightKg: e.unit.ToKilograms(display),
				Reps:     reps,
			})
		}
		if len(sets) == 0 {
			continue
		}
		pe := models.PerformedExerciseDetail{
			PerformedExercise: models.PerformedExercise{
				ID:         uuid.NewString(),
				ExerciseID: we.ExerciseID,
			},
			Sets: sets,
		}
		result = append(result, pe)
	}
	return result
}

// HasActiveWorkout reports whether there is working state that has not been
// saved.
func (e *Engine) HasActiveWorkout() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.exercises) > 0 && e.state != StateSaved
}

// Snapshot returns a copy of the current engine state.
func (e *Engine) Snapshot() UIState {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.snapshotLocked()
}

func (e *Engine) snapshotLocked() UIState {
	s := UIState{
		State:          e.state,
		Title:          e.title,
		ElapsedSeconds: e.elapsed,
		Running:        e.state == StateRunning,
		Saving:         e.state == StateFinalizing,
		Unit:           e.unit,
		Err:            e.errMsg,
		Notice:         e.notice,
	}
	s.Exercises = make([]WorkingExercise, 0, len(e.exercises))
	for _, we := range e.exercises {
		cp := *we
		cp.Sets = make([]WorkingSet, len(we.Sets))
		copy(cp.Sets, we.Sets)
		s.Exercises = append(s.Exercises, cp)
	}
	return s
}

func (e *Engine) notifyLocked() {
	if e.Notify != nil {
		e.Notify(e.snapshotLocked())
	}
}

func (e *Engine) finalized(outcome Outcome) {
	if e.OnFinalized != nil {
		e.OnFinalized(outcome)
	}
}

// startTickLocked launches the tick goroutine for the current generation.
// The generation check under the lock guarantees no stale tick increments
// elapsed time after a stop.
func (e *Engine) startTickLocked() {
	ch, cancel := e.newTicker()
	e.tickGen++
	gen := e.tickGen
	done := make(chan struct{})
	e.stopTick = func() {
		cancel()
		close(done)
	}

	go func() {
		for {
			select {
			case <-done:
				return
			case _, ok := <-ch:
				if !ok {
					return
				}
				e.mu.Lock()
				if e.tickGen == gen && e.state == StateRunning {
					e.elapsed++
					e.notifyLocked()
				}
				e.mu.Unlock()
			}
		}
	}()
}

// stopTickLocked cancels the tick loop. Bumping the generation under the
// lock means a tick already in flight is discarded, never applied late.
func (e *Engine) stopTickLocked() {
	if e.stopTick != nil {
		e.stopTick()
		e.stopTick = nil
	}
	e.tickGen++
}
