// Package flow implements the guided-entry engine: static flow definitions,
// the step executor that advances a session one inbound event at a time, and
// the commit engine that turns a completed draft into a domain record.
package flow

import (
	"context"
	"time"

	"github.com/oybekjon/hisobot/internal/models"
	"github.com/oybekjon/hisobot/internal/store"
)

// InputKind is what a step expects from the next inbound event.
type InputKind string

const (
	InputText     InputKind = "text"
	InputAmount   InputKind = "amount"
	InputDate     InputKind = "date"
	InputCallback InputKind = "callback"
	InputDocument InputKind = "document"
)

// Step is one unit of exchange in a flow: one prompt, one expected input,
// one validation/transition rule. Steps are static configuration shared by
// all users; per-user state lives only in the session draft.
type Step struct {
	ID     string
	Expect InputKind

	// Optional steps advance without writing on an explicit skip signal.
	Optional bool

	// Prompt renders the question for this step.
	Prompt func(draft models.Draft) (string, models.Keyboard)

	// Validate parses the inbound event against this step's expectation.
	// It returns a *models.ValidationError (never a different error kind)
	// when the input is rejected; the session is then left untouched.
	Validate func(draft models.Draft, ev models.Event) (any, error)

	// Apply folds the validated value into the draft.
	Apply func(draft models.Draft, value any)

	// Next returns the following step id, or models.StepConfirm.
	Next func(draft models.Draft) string
}

// Definition is the static graph of one flow. Every flow terminates at the
// conventional "confirm" step; flows with AutoCommit set commit immediately
// on reaching it instead of asking for explicit confirmation.
type Definition struct {
	Flow          models.FlowType
	Entry         string
	Steps         map[string]Step
	AutoCommit    bool
	ConfirmAction string

	// Summary renders the confirmation message for the completed draft.
	Summary func(draft models.Draft) string

	// Commit materializes the draft through the domain store, returning the
	// created record. Flows with external collaborators (import) are
	// committed by the Engine instead and leave this nil.
	Commit func(ctx context.Context, st store.Store, userID int64, draft models.Draft, now time.Time) (any, error)
}

var registry = make(map[models.FlowType]*Definition)

// register adds a flow definition. Called from init; definitions are
// immutable afterwards.
func register(def *Definition) {
	registry[def.Flow] = def
}

// Lookup retrieves the definition for a flow type.
func Lookup(flow models.FlowType) (*Definition, bool) {
	def, ok := registry[flow]
	return def, ok
}

// EntryStep returns the entry step id for a flow type.
func EntryStep(flow models.FlowType) (string, bool) {
	if def, ok := registry[flow]; ok {
		return def.Entry, true
	}
	return "", false
}

// isSkip reports whether the event is the explicit skip signal for optional
// steps: the /skip command or its literal text.
func isSkip(ev models.Event) bool {
	if ev.Kind == models.EventCommand && ev.Command == "skip" {
		return true
	}
	return ev.Kind == models.EventText && ev.Text == "/skip"
}
