// Package store provides storage backends for Hisobot.
//
// It persists per-user sessions and the domain records (tasks, transactions,
// debts, payments, achievements) behind a single Store interface, with
// SQLite, PostgreSQL, and in-memory implementations.
package store

import (
	"time"

	"github.com/google/uuid"

	"github.com/oybekjon/hisobot/internal/models"
)

// Store is the persistence contract shared by all backends.
//
// Session semantics: LoadSession returns an idle session when the user has
// none stored; SaveSession must be read-your-writes consistent for a single
// user's sequential turns; a failed SaveSession must leave the previously
// stored session visible.
type Store interface {
	LoadSession(userID int64) (*models.Session, error)
	SaveSession(session *models.Session) error
	ClearSession(userID int64) error

	CreateTask(task *models.Task) error
	// CompleteTask marks a task completed and returns the updated record,
	// or nil when the task does not exist for the user.
	CompleteTask(userID int64, taskID string) (*models.Task, error)
	CreateTransaction(tx *models.Transaction) error
	// SetTransactionCategory overrides the category of a stored transaction,
	// clearing its auto-categorized flag.
	SetTransactionCategory(userID int64, txID, category string) error
	CreateDebt(debt *models.Debt) error
	GetDebt(userID int64, debtID string) (*models.Debt, error)
	// ApplyDebtPayment records a payment, increases the debt's paid amount,
	// and marks the debt paid once the outstanding balance reaches zero.
	// It returns the updated debt.
	ApplyDebtPayment(payment *models.DebtPayment) (*models.Debt, error)
	ListActiveDebts(userID int64) ([]models.Debt, error)

	BalanceSummary(userID int64, now time.Time) (*models.BalanceSummary, error)
	// RangeReport aggregates transactions whose date falls inside the
	// range, inclusive on both ends.
	RangeReport(userID int64, r models.DateRange) (*models.RangeReport, error)
	CountCompletedTasks(userID int64) (int, error)

	SaveAchievement(a *models.Achievement) error
	HasAchievement(userID int64, kind string) (bool, error)

	Close() error
}

// Opts holds configuration for store constructors.
type Opts struct {
	// DSN is the backend connection string: a file path for SQLite, a
	// connection URL for Postgres.
	DSN string
}

// Option configures store constructors.
type Option func(*Opts)

// WithDSN sets the backend connection string.
func WithDSN(dsn string) Option {
	return func(o *Opts) { o.DSN = dsn }
}

// ensureID assigns a fresh UUID when the record has none.
func ensureID(id *string) {
	if *id == "" {
		*id = uuid.NewString()
	}
}
