// Package achievements awards one-time badges after notable domain events.
// Awards are idempotent: a badge already held is never granted twice.
package achievements

import (
	"log/slog"
	"time"

	"github.com/oybekjon/hisobot/internal/models"
	"github.com/oybekjon/hisobot/internal/store"
)

// Domain events the evaluator reacts to.
const (
	EventTaskCompleted = "task_completed"
	EventDebtPaid      = "debt_paid"
)

type badge struct {
	kind   string
	name   string
	points int
}

// taskMilestones maps completed-task counts to their badges, checked in
// ascending order so a single completion awards at most one of them.
var taskMilestones = []struct {
	count int
	badge badge
}{
	{1, badge{"first_task", "🎯 First Step", 10}},
	{10, badge{"tasks_10", "🔥 Getting Things Done", 25}},
	{50, badge{"tasks_50", "💪 Productivity Machine", 100}},
	{100, badge{"tasks_100", "🏆 Century Club", 250}},
}

var debtFreeBadge = badge{"debt_free", "🎉 Debt Settled", 50}

// Evaluator checks domain events against the badge tables.
type Evaluator struct {
	store  store.Store
	logger *slog.Logger
	now    func() time.Time
}

// NewEvaluator creates an Evaluator on the given store.
func NewEvaluator(st store.Store, logger *slog.Logger) *Evaluator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Evaluator{store: st, logger: logger, now: time.Now}
}

// OnDomainEvent returns the badges newly earned by the event, persisting
// each one. Unknown events earn nothing.
func (e *Evaluator) OnDomainEvent(userID int64, event string) ([]models.Achievement, error) {
	switch event {
	case EventTaskCompleted:
		return e.taskCompleted(userID)
	case EventDebtPaid:
		return e.award(userID, debtFreeBadge)
	}
	return nil, nil
}

func (e *Evaluator) taskCompleted(userID int64) ([]models.Achievement, error) {
	count, err := e.store.CountCompletedTasks(userID)
	if err != nil {
		return nil, err
	}
	var earned []models.Achievement
	for _, m := range taskMilestones {
		if count < m.count {
			break
		}
		got, err := e.award(userID, m.badge)
		if err != nil {
			return earned, err
		}
		earned = append(earned, got...)
	}
	return earned, nil
}

// award grants a badge unless the user already holds it.
func (e *Evaluator) award(userID int64, b badge) ([]models.Achievement, error) {
	held, err := e.store.HasAchievement(userID, b.kind)
	if err != nil {
		return nil, err
	}
	if held {
		return nil, nil
	}
	a := &models.Achievement{
		UserID:    userID,
		Kind:      b.kind,
		Name:      b.name,
		Points:    b.points,
		AwardedAt: e.now(),
	}
	if err := e.store.SaveAchievement(a); err != nil {
		return nil, err
	}
	e.logger.Info("achievement awarded", "userID", userID, "kind", b.kind, "points", b.points)
	return []models.Achievement{*a}, nil
}
