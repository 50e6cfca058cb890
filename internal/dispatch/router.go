// Package dispatch routes inbound events: commands preempt flows, live
// sessions consume everything else, and idle events fall through to menu
// labels, quick-entry shorthands, and the free-text interpreter.
package dispatch

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/oybekjon/hisobot/internal/flow"
	"github.com/oybekjon/hisobot/internal/genai"
	"github.com/oybekjon/hisobot/internal/messaging"
	"github.com/oybekjon/hisobot/internal/models"
	"github.com/oybekjon/hisobot/internal/store"
)

// Interpreter classifies free text that nothing else matched.
type Interpreter interface {
	Interpret(ctx context.Context, text string) (*genai.Suggestion, error)
}

// Router wires the engine, the store, and the transport together. One
// Router serves all users; per-user state lives in the session store.
type Router struct {
	store        store.Store
	executor     *flow.Executor
	engine       *flow.Engine
	messenger    messaging.Service
	interpreter  Interpreter
	achievements flow.AchievementEvaluator
	logger       *slog.Logger
	now          func() time.Time
}

// Opts holds Router collaborators. Interpreter and Achievements are
// optional.
type Opts struct {
	Store        store.Store
	Executor     *flow.Executor
	Engine       *flow.Engine
	Messenger    messaging.Service
	Interpreter  Interpreter
	Achievements flow.AchievementEvaluator
	Logger       *slog.Logger
}

// NewRouter creates a Router.
func NewRouter(opts Opts) *Router {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Router{
		store:        opts.Store,
		executor:     opts.Executor,
		engine:       opts.Engine,
		messenger:    opts.Messenger,
		interpreter:  opts.Interpreter,
		achievements: opts.Achievements,
		logger:       logger,
		now:          time.Now,
	}
}

// HandleEvent processes one inbound event for a user end to end, including
// the outbound reply. Errors that reach the return value are infrastructure
// failures; user mistakes are answered in-band. Session store failures are
// also answered in-band: the step did not advance, so the user must resend
// their input.
func (r *Router) HandleEvent(ctx context.Context, userID int64, ev models.Event) error {
	err := r.route(ctx, userID, ev)
	var serr *models.SessionStoreError
	if errors.As(err, &serr) {
		r.logger.Error("session store failed", "userID", userID, "kind", ev.Kind, "error", err)
		return r.send(ctx, userID, "⚠️ Could not save that. Please send it again.", messaging.Options{})
	}
	return err
}

func (r *Router) route(ctx context.Context, userID int64, ev models.Event) error {
	session, err := r.store.LoadSession(userID)
	if err != nil {
		return &models.SessionStoreError{Err: err}
	}

	switch ev.Kind {
	case models.EventCommand:
		return r.handleCommand(ctx, userID, session, ev)
	case models.EventCallback:
		return r.handleCallback(ctx, userID, session, ev)
	case models.EventText:
		if !session.Idle() {
			// Menu labels escape a live flow instead of feeding it.
			if isMenuLabel(ev.Text) {
				r.logger.Info("menu label abandons live flow", "userID", userID, "flow", session.Flow)
				if _, err := r.engine.Cancel(session); err != nil {
					return err
				}
				return r.handleIdleText(ctx, userID, ev)
			}
			return r.advance(ctx, userID, session, ev)
		}
		return r.handleIdleText(ctx, userID, ev)
	case models.EventDocument:
		if !session.Idle() {
			return r.advance(ctx, userID, session, ev)
		}
		return r.send(ctx, userID, "📥 To restore an export, use /import first.", messaging.Options{})
	}
	return fmt.Errorf("unhandled event kind %q", ev.Kind)
}

func (r *Router) handleCommand(ctx context.Context, userID int64, session *models.Session, ev models.Event) error {
	switch ev.Command {
	case "start":
		if !session.Idle() {
			if _, err := r.engine.Cancel(session); err != nil {
				return err
			}
		}
		return r.send(ctx, userID, welcomeText, messaging.Options{ReplyLabels: mainMenuLabels})
	case "help":
		return r.send(ctx, userID, helpText, messaging.Options{})
	case "task":
		return r.startFlow(ctx, userID, models.FlowTask, nil)
	case "expense":
		return r.startFlow(ctx, userID, models.FlowTransaction, &models.TransactionDraft{Type: models.TransactionExpense})
	case "income":
		return r.startFlow(ctx, userID, models.FlowTransaction, &models.TransactionDraft{Type: models.TransactionIncome})
	case "lent":
		return r.startFlow(ctx, userID, models.FlowDebt, &models.DebtDraft{Type: models.DebtGiven})
	case "borrowed":
		return r.startFlow(ctx, userID, models.FlowDebt, &models.DebtDraft{Type: models.DebtReceived})
	case "range":
		return r.startFlow(ctx, userID, models.FlowDateRange, nil)
	case "import":
		return r.startFlow(ctx, userID, models.FlowImport, nil)
	case "balance":
		return r.sendBalance(ctx, userID)
	case "debts":
		return r.sendActiveDebts(ctx, userID)
	case "cancel":
		res, err := r.engine.Cancel(session)
		if err != nil {
			return err
		}
		if res.Kind == flow.ResultNothingPending {
			return r.send(ctx, userID, "Nothing to cancel.", messaging.Options{})
		}
		return r.send(ctx, userID, "❌ Cancelled.", messaging.Options{})
	case "skip":
		if session.Idle() {
			return r.send(ctx, userID, "Nothing to skip.", messaging.Options{})
		}
		return r.advance(ctx, userID, session, ev)
	}
	return r.send(ctx, userID, "Unknown command. See /help.", messaging.Options{})
}

// startFlow engages the user in a flow and sends its first prompt.
func (r *Router) startFlow(ctx context.Context, userID int64, flowType models.FlowType, draft models.Draft) error {
	res, err := r.executor.Start(userID, flowType, draft)
	if err != nil {
		return err
	}
	return r.deliver(ctx, userID, res, models.Event{})
}

// advance feeds a live session one event and handles auto-committing flows.
func (r *Router) advance(ctx context.Context, userID int64, session *models.Session, ev models.Event) error {
	res, err := r.executor.Advance(session, ev)
	if err != nil {
		if errors.Is(err, flow.ErrNoSession) {
			return r.send(ctx, userID, "Nothing in progress. See /help.", messaging.Options{})
		}
		return err
	}
	if res.Kind == flow.ResultConfirm && res.AutoCommit {
		committed, err := r.engine.Confirm(ctx, session)
		if err != nil {
			return r.commitFailed(ctx, userID, err)
		}
		return r.deliver(ctx, userID, committed, ev)
	}
	return r.deliver(ctx, userID, res, ev)
}

// commitFailed answers a failed commit in-band and keeps the session for a
// retry.
func (r *Router) commitFailed(ctx context.Context, userID int64, err error) error {
	var cerr *models.CommitError
	if errors.As(err, &cerr) {
		r.logger.Error("commit failed", "userID", userID, "error", err)
		return r.send(ctx, userID, "⚠️ Could not save that. Please try again.", messaging.Options{})
	}
	return err
}

// deliver renders an engine result into an outbound message.
func (r *Router) deliver(ctx context.Context, userID int64, res *flow.Result, ev models.Event) error {
	opts := messaging.Options{Keyboard: res.Keyboard}
	if ev.Kind == models.EventCallback {
		opts.EditMessageRef = ev.MessageRef
	}

	switch res.Kind {
	case flow.ResultReprompt:
		return r.send(ctx, userID, "⚠️ "+res.Reason+"\n\n"+res.Prompt, opts)
	case flow.ResultAdvanced, flow.ResultConfirm:
		return r.send(ctx, userID, res.Prompt, opts)
	case flow.ResultCommitted:
		text, err := r.renderCommitted(userID, res)
		if err != nil {
			return err
		}
		opts.Keyboard = res.Keyboard
		return r.send(ctx, userID, text, opts)
	case flow.ResultCancelled:
		return r.send(ctx, userID, "❌ Cancelled.", opts)
	case flow.ResultNothingPending:
		return r.send(ctx, userID, "Nothing pending.", opts)
	}
	return fmt.Errorf("unhandled result kind %q", res.Kind)
}

func (r *Router) send(ctx context.Context, userID int64, text string, opts messaging.Options) error {
	if err := r.messenger.SendPrompt(ctx, userID, text, opts); err != nil {
		r.logger.Error("send failed", "userID", userID, "error", err)
		return err
	}
	return nil
}
