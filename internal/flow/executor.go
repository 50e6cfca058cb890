package flow

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/oybekjon/hisobot/internal/models"
	"github.com/oybekjon/hisobot/internal/store"
)

// ResultKind classifies what one turn through the engine produced.
type ResultKind string

const (
	// ResultReprompt means the input was rejected; the session is unchanged
	// and the same step is asked again with Reason prepended.
	ResultReprompt ResultKind = "reprompt"

	// ResultAdvanced means the step was applied and the session moved on to
	// the next question.
	ResultAdvanced ResultKind = "advanced"

	// ResultConfirm means the session reached the confirm step. For flows
	// with AutoCommit the caller should invoke the commit engine at once.
	ResultConfirm ResultKind = "confirm"

	// ResultCommitted means a confirmed draft was written to the store and
	// the session cleared. Record holds the created domain record.
	ResultCommitted ResultKind = "committed"

	// ResultCancelled means the session was discarded without a write.
	ResultCancelled ResultKind = "cancelled"

	// ResultNothingPending means a confirm or cancel arrived with no live
	// session behind it, typically a double-tap on a stale keyboard.
	ResultNothingPending ResultKind = "nothing_pending"
)

// Result is the outcome of one engine turn, carrying everything the
// dispatcher needs to reply.
type Result struct {
	Kind ResultKind
	Flow models.FlowType
	Step string

	// Reason is the validation failure text on a reprompt.
	Reason string

	Prompt   string
	Keyboard models.Keyboard

	// AutoCommit is set on a ResultConfirm when the flow commits without an
	// explicit confirmation exchange.
	AutoCommit bool

	// Record is the created domain record on a ResultCommitted.
	Record any

	// Achievements lists awards earned by this commit, if any.
	Achievements []models.Achievement
}

// ErrNoSession is returned by Advance when the session is idle; routing
// idle-state events is the dispatcher's job, not the executor's.
var ErrNoSession = errors.New("no active flow session")

// Executor advances sessions through their flow definitions one inbound
// event at a time. It owns all session persistence during a flow: exactly
// one SaveSession per successfully applied step, none on rejection.
type Executor struct {
	store  store.Store
	logger *slog.Logger
}

// NewExecutor creates an Executor on the given store.
func NewExecutor(st store.Store, logger *slog.Logger) *Executor {
	if logger == nil {
		logger = slog.Default()
	}
	return &Executor{store: st, logger: logger}
}

// Start engages a user in a flow at its entry step, overwriting any
// previous session. A nil draft starts from the flow's empty draft.
func (e *Executor) Start(userID int64, flowType models.FlowType, draft models.Draft) (*Result, error) {
	def, ok := Lookup(flowType)
	if !ok {
		return nil, fmt.Errorf("unknown flow %q", flowType)
	}
	if draft == nil {
		draft = models.NewDraft(flowType)
	}

	prev, err := e.store.LoadSession(userID)
	if err != nil {
		return nil, &models.SessionStoreError{Err: err}
	}
	if !prev.Idle() {
		e.logger.Info("overwriting live session with new flow", "userID", userID, "oldFlow", prev.Flow, "oldStep", prev.Step, "newFlow", flowType)
	}

	session := models.IdleSession(userID)
	session.Start(flowType, def.Entry, draft)
	if err := e.store.SaveSession(session); err != nil {
		return nil, &models.SessionStoreError{Err: err}
	}

	e.logger.Debug("flow started", "userID", userID, "flow", flowType, "step", def.Entry)
	return e.stepResult(ResultAdvanced, def, session), nil
}

// Advance feeds one inbound event into a live session. Validation failures
// reprompt without touching stored state; an accepted input applies, moves
// the step pointer, and persists the session exactly once.
func (e *Executor) Advance(session *models.Session, ev models.Event) (*Result, error) {
	if session.Idle() {
		return nil, ErrNoSession
	}
	def, ok := Lookup(session.Flow)
	if !ok {
		return nil, fmt.Errorf("session references unknown flow %q", session.Flow)
	}

	if session.Step == models.StepConfirm {
		// Confirmation itself is the engine's job; any other input here
		// just re-shows the summary.
		return e.confirmResult(def, session), nil
	}

	step, ok := def.Steps[session.Step]
	if !ok {
		return nil, fmt.Errorf("session references unknown step %q in flow %q", session.Step, session.Flow)
	}

	if step.Optional && isSkip(ev) {
		return e.transition(def, step, session, nil, false)
	}

	value, err := step.Validate(session.Draft, ev)
	if err != nil {
		var verr *models.ValidationError
		if errors.As(err, &verr) {
			e.logger.Debug("input rejected", "userID", session.UserID, "flow", session.Flow, "step", session.Step, "reason", verr.Reason)
			prompt, kb := step.Prompt(session.Draft)
			return &Result{
				Kind:     ResultReprompt,
				Flow:     session.Flow,
				Step:     session.Step,
				Reason:   verr.Reason,
				Prompt:   prompt,
				Keyboard: kb,
			}, nil
		}
		return nil, fmt.Errorf("validate step %s/%s: %w", session.Flow, session.Step, err)
	}

	return e.transition(def, step, session, value, true)
}

// transition applies a validated value (when apply is set) to a copy of
// the draft, moves to the next step, and persists the session. A failed
// save restores both the step pointer and the draft, so the in-memory
// session never shows a half-applied turn.
func (e *Executor) transition(def *Definition, step Step, session *models.Session, value any, apply bool) (*Result, error) {
	prevStep := session.Step
	prevDraft := session.Draft
	if apply && step.Apply != nil {
		session.Draft = prevDraft.Clone()
		step.Apply(session.Draft, value)
	}

	next := step.Next(session.Draft)
	session.Step = next

	if err := e.store.SaveSession(session); err != nil {
		session.Step = prevStep
		session.Draft = prevDraft
		return nil, &models.SessionStoreError{Err: err}
	}

	e.logger.Info("step advanced", "userID", session.UserID, "flow", session.Flow, "from", prevStep, "to", next)

	if next == models.StepConfirm {
		return e.confirmResult(def, session), nil
	}
	return e.stepResult(ResultAdvanced, def, session), nil
}

// stepResult renders the current step's prompt into a Result.
func (e *Executor) stepResult(kind ResultKind, def *Definition, session *models.Session) *Result {
	step := def.Steps[session.Step]
	prompt, kb := step.Prompt(session.Draft)
	return &Result{
		Kind:     kind,
		Flow:     session.Flow,
		Step:     session.Step,
		Prompt:   prompt,
		Keyboard: kb,
	}
}

// confirmResult renders the confirmation summary for a completed draft.
func (e *Executor) confirmResult(def *Definition, session *models.Session) *Result {
	res := &Result{
		Kind:       ResultConfirm,
		Flow:       session.Flow,
		Step:       models.StepConfirm,
		Prompt:     def.Summary(session.Draft),
		AutoCommit: def.AutoCommit,
	}
	if !def.AutoCommit {
		res.Keyboard = models.ConfirmKeyboard(def.ConfirmAction)
	}
	return res
}
