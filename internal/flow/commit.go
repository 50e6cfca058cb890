package flow

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/oybekjon/hisobot/internal/models"
	"github.com/oybekjon/hisobot/internal/store"
)

// AchievementEvaluator is notified after notable domain events and returns
// any newly earned awards.
type AchievementEvaluator interface {
	OnDomainEvent(userID int64, event string) ([]models.Achievement, error)
}

// Importer restores domain records from an uploaded export file.
type Importer interface {
	Import(ctx context.Context, userID int64, doc models.DocumentRef) (*models.ImportReport, error)
}

// Engine turns confirmed drafts into domain records. It owns the
// commit-then-clear ordering: the session is cleared only after the domain
// write succeeded, so a failed commit can be retried from the same state.
type Engine struct {
	store        store.Store
	achievements AchievementEvaluator
	importer     Importer
	logger       *slog.Logger
	now          func() time.Time
}

// NewEngine creates a commit engine. achievements and importer may be nil
// when those features are not wired.
func NewEngine(st store.Store, achievements AchievementEvaluator, importer Importer, logger *slog.Logger) *Engine {
	if logger == nil {
		logger = slog.Default()
	}
	return &Engine{
		store:        st,
		achievements: achievements,
		importer:     importer,
		logger:       logger,
		now:          time.Now,
	}
}

// Confirm commits the session's draft. Anything other than a live session
// parked at its confirm step yields ResultNothingPending, which makes a
// duplicate confirm tap harmless: the first one cleared the session.
func (e *Engine) Confirm(ctx context.Context, session *models.Session) (*Result, error) {
	if session.Idle() || session.Step != models.StepConfirm {
		return &Result{Kind: ResultNothingPending}, nil
	}
	def, ok := Lookup(session.Flow)
	if !ok {
		return nil, fmt.Errorf("session references unknown flow %q", session.Flow)
	}

	record, err := e.commit(ctx, def, session)
	if err != nil {
		e.logger.Error("commit failed, session preserved", "userID", session.UserID, "flow", session.Flow, "error", err)
		return nil, &models.CommitError{Err: err}
	}

	if err := e.store.ClearSession(session.UserID); err != nil {
		// The record is already written; a stale session is the lesser
		// problem and the next turn will overwrite it.
		e.logger.Error("session clear failed after commit", "userID", session.UserID, "flow", session.Flow, "error", err)
	}
	flowType := session.Flow
	session.Reset()

	e.logger.Info("draft committed", "userID", session.UserID, "flow", flowType)

	res := &Result{
		Kind:   ResultCommitted,
		Flow:   flowType,
		Record: record,
	}
	res.Achievements = e.evaluate(session.UserID, flowType, record)
	return res, nil
}

// Cancel discards the session wherever it is. Cancelling with nothing live
// yields ResultNothingPending.
func (e *Engine) Cancel(session *models.Session) (*Result, error) {
	if session.Idle() {
		return &Result{Kind: ResultNothingPending}, nil
	}
	if err := e.store.ClearSession(session.UserID); err != nil {
		return nil, &models.SessionStoreError{Err: err}
	}
	flowType := session.Flow
	session.Reset()
	e.logger.Info("flow cancelled", "userID", session.UserID, "flow", flowType)
	return &Result{Kind: ResultCancelled, Flow: flowType}, nil
}

func (e *Engine) commit(ctx context.Context, def *Definition, session *models.Session) (any, error) {
	if session.Flow == models.FlowImport {
		if e.importer == nil {
			return nil, fmt.Errorf("import is not available")
		}
		d := session.Draft.(*models.ImportDraft)
		return e.importer.Import(ctx, session.UserID, models.DocumentRef{FileID: d.FileID, FileName: d.FileName})
	}
	if def.Commit == nil {
		return nil, fmt.Errorf("flow %q has no commit", def.Flow)
	}
	return def.Commit(ctx, e.store, session.UserID, session.Draft, e.now())
}

// evaluate fires achievement hooks for commits that settle a debt.
func (e *Engine) evaluate(userID int64, flowType models.FlowType, record any) []models.Achievement {
	if e.achievements == nil || flowType != models.FlowPayment {
		return nil
	}
	debt, ok := record.(*models.Debt)
	if !ok || debt.Status != models.DebtPaid {
		return nil
	}
	earned, err := e.achievements.OnDomainEvent(userID, "debt_paid")
	if err != nil {
		e.logger.Error("achievement evaluation failed", "userID", userID, "error", err)
		return nil
	}
	return earned
}
