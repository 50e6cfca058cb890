// Package store provides storage backends for Hisobot.
//
// This file implements the PostgreSQL-backed store.
package store

import (
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	_ "embed"

	_ "github.com/lib/pq"

	"github.com/oybekjon/hisobot/internal/models"
)

// Database connection pool configuration constants.
const (
	DefaultMaxOpenConns    = 25
	DefaultMaxIdleConns    = 25
	DefaultConnMaxLifetime = 5 * time.Minute
)

//go:embed migrations_postgres.sql
var postgresMigrations string

type PostgresStore struct {
	db *sql.DB
}

// NewPostgresStore creates a new Postgres store based on provided options.
func NewPostgresStore(opts ...Option) (*PostgresStore, error) {
	var cfg Opts
	for _, opt := range opts {
		opt(&cfg)
	}
	slog.Debug("NewPostgresStore invoked", "DSN_set", cfg.DSN != "")

	dsn := cfg.DSN
	if dsn == "" {
		slog.Error("PostgresStore DSN not set")
		return nil, fmt.Errorf("database DSN not set")
	}

	db, err := sql.Open("postgres", dsn)
	if err != nil {
		slog.Error("Failed to open Postgres connection", "error", err)
		return nil, err
	}

	db.SetMaxOpenConns(DefaultMaxOpenConns)
	db.SetMaxIdleConns(DefaultMaxIdleConns)
	db.SetConnMaxLifetime(DefaultConnMaxLifetime)

	if err := db.Ping(); err != nil {
		slog.Error("Postgres ping failed", "error", err)
		return nil, err
	}

	if _, err := db.Exec(postgresMigrations); err != nil {
		slog.Error("Failed to run Postgres migrations", "error", err)
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}
	slog.Debug("Postgres migrations applied")

	return &PostgresStore{db: db}, nil
}

func (s *PostgresStore) Close() error {
	return s.db.Close()
}

func (s *PostgresStore) LoadSession(userID int64) (*models.Session, error) {
	query := `SELECT flow, step, draft, created_at, updated_at FROM sessions WHERE user_id = $1`

	session := models.IdleSession(userID)
	var draftJSON sql.NullString
	err := s.db.QueryRow(query, userID).Scan(&session.Flow, &session.Step, &draftJSON, &session.CreatedAt, &session.UpdatedAt)
	if err == sql.ErrNoRows {
		return models.IdleSession(userID), nil
	}
	if err != nil {
		slog.Error("PostgresStore LoadSession failed", "error", err, "userID", userID)
		return nil, fmt.Errorf("load session for %d: %w", userID, err)
	}

	draft, err := unmarshalDraft(session.Flow, draftJSON.String)
	if err != nil {
		slog.Error("PostgresStore LoadSession draft decode failed", "error", err, "userID", userID)
		return nil, err
	}
	session.Draft = draft
	return session, nil
}

func (s *PostgresStore) SaveSession(session *models.Session) error {
	draftJSON, err := marshalDraft(session.Draft)
	if err != nil {
		return err
	}

	query := `
		INSERT INTO sessions (user_id, flow, step, draft, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (user_id) DO UPDATE SET
			flow = EXCLUDED.flow, step = EXCLUDED.step, draft = EXCLUDED.draft,
			created_at = EXCLUDED.created_at, updated_at = EXCLUDED.updated_at`
	_, err = s.db.Exec(query, session.UserID, session.Flow, session.Step, draftJSON, session.CreatedAt, session.UpdatedAt)
	if err != nil {
		slog.Error("PostgresStore SaveSession failed", "error", err, "userID", session.UserID, "flow", session.Flow)
		return fmt.Errorf("save session for %d: %w", session.UserID, err)
	}
	return nil
}

func (s *PostgresStore) ClearSession(userID int64) error {
	_, err := s.db.Exec(`DELETE FROM sessions WHERE user_id = $1`, userID)
	if err != nil {
		slog.Error("PostgresStore ClearSession failed", "error", err, "userID", userID)
		return fmt.Errorf("clear session for %d: %w", userID, err)
	}
	return nil
}

func (s *PostgresStore) CreateTask(task *models.Task) error {
	ensureID(&task.ID)
	tagsJSON, err := marshalTags(task.Tags)
	if err != nil {
		return err
	}

	query := `
		INSERT INTO tasks (id, user_id, title, description, priority, category, tags, date, time, status, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`
	_, err = s.db.Exec(query, task.ID, task.UserID, task.Title, nilIfEmpty(task.Description),
		task.Priority, task.Category, nilIfEmpty(tagsJSON), nilIfEmpty(task.Date), nilIfEmpty(task.Time),
		task.Status, task.CreatedAt)
	if err != nil {
		slog.Error("PostgresStore CreateTask failed", "error", err, "userID", task.UserID)
		return fmt.Errorf("create task: %w", err)
	}
	return nil
}

func (s *PostgresStore) CompleteTask(userID int64, taskID string) (*models.Task, error) {
	res, err := s.db.Exec(`UPDATE tasks SET status = $1 WHERE user_id = $2 AND id = $3 AND status = $4`,
		models.TaskCompleted, userID, taskID, models.TaskPending)
	if err != nil {
		slog.Error("PostgresStore CompleteTask failed", "error", err, "taskID", taskID)
		return nil, fmt.Errorf("complete task: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return nil, nil
	}

	query := `SELECT id, user_id, title, description, priority, category, tags, date, time, status, created_at
		FROM tasks WHERE user_id = $1 AND id = $2`
	var task models.Task
	var description, tagsJSON, date, timeOfDay sql.NullString
	err = s.db.QueryRow(query, userID, taskID).Scan(&task.ID, &task.UserID, &task.Title, &description,
		&task.Priority, &task.Category, &tagsJSON, &date, &timeOfDay, &task.Status, &task.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("load completed task: %w", err)
	}
	task.Description = description.String
	task.Date = date.String
	task.Time = timeOfDay.String
	task.Tags, err = unmarshalTags(tagsJSON.String)
	if err != nil {
		return nil, err
	}
	return &task, nil
}

func (s *PostgresStore) CreateTransaction(tx *models.Transaction) error {
	ensureID(&tx.ID)

	query := `
		INSERT INTO transactions (id, user_id, type, amount, currency, category, note, date, auto_categorized, category_confidence, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`
	_, err := s.db.Exec(query, tx.ID, tx.UserID, tx.Type, tx.Amount.String(), tx.Currency,
		tx.Category, nilIfEmpty(tx.Note), tx.Date, tx.AutoCategorized, tx.Confidence, tx.CreatedAt)
	if err != nil {
		slog.Error("PostgresStore CreateTransaction failed", "error", err, "userID", tx.UserID)
		return fmt.Errorf("create transaction: %w", err)
	}
	return nil
}

func (s *PostgresStore) SetTransactionCategory(userID int64, txID, category string) error {
	_, err := s.db.Exec(`UPDATE transactions SET category = $1, auto_categorized = FALSE WHERE user_id = $2 AND id = $3`,
		category, userID, txID)
	if err != nil {
		slog.Error("PostgresStore SetTransactionCategory failed", "error", err, "txID", txID)
		return fmt.Errorf("set transaction category: %w", err)
	}
	return nil
}

func (s *PostgresStore) CreateDebt(debt *models.Debt) error {
	ensureID(&debt.ID)

	query := `
		INSERT INTO debts (id, user_id, type, person_name, amount, amount_paid, currency, note, date, due_date, status, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`
	_, err := s.db.Exec(query, debt.ID, debt.UserID, debt.Type, debt.Person, debt.Amount.String(),
		debt.AmountPaid.String(), debt.Currency, nilIfEmpty(debt.Note), debt.Date, nilIfEmpty(debt.DueDate),
		debt.Status, debt.CreatedAt)
	if err != nil {
		slog.Error("PostgresStore CreateDebt failed", "error", err, "userID", debt.UserID)
		return fmt.Errorf("create debt: %w", err)
	}
	return nil
}

const postgresDebtColumns = `id, user_id, type, person_name, amount, amount_paid, currency, note, date, due_date, status, paid_at, created_at`

func (s *PostgresStore) GetDebt(userID int64, debtID string) (*models.Debt, error) {
	query := `SELECT ` + postgresDebtColumns + ` FROM debts WHERE user_id = $1 AND id = $2`
	return scanDebtRow(s.db.QueryRow(query, userID, debtID))
}

func (s *PostgresStore) ApplyDebtPayment(payment *models.DebtPayment) (*models.Debt, error) {
	ensureID(&payment.ID)

	dbTx, err := s.db.Begin()
	if err != nil {
		return nil, fmt.Errorf("begin payment transaction: %w", err)
	}
	defer dbTx.Rollback()

	debt, err := scanDebtRow(dbTx.QueryRow(
		`SELECT `+postgresDebtColumns+` FROM debts WHERE user_id = $1 AND id = $2 FOR UPDATE`,
		payment.UserID, payment.DebtID))
	if err != nil {
		return nil, err
	}
	if debt == nil {
		return nil, fmt.Errorf("debt %s not found", payment.DebtID)
	}

	debt.AmountPaid = debt.AmountPaid.Add(payment.Amount)
	if !debt.Outstanding().IsPositive() {
		debt.Status = models.DebtPaid
		now := payment.PaidAt
		debt.PaidAt = &now
	}

	if _, err := dbTx.Exec(`
		INSERT INTO debt_payments (id, debt_id, user_id, amount, paid_at)
		VALUES ($1, $2, $3, $4, $5)`,
		payment.ID, payment.DebtID, payment.UserID, payment.Amount.String(), payment.PaidAt); err != nil {
		slog.Error("PostgresStore ApplyDebtPayment insert failed", "error", err, "debtID", payment.DebtID)
		return nil, fmt.Errorf("record payment: %w", err)
	}

	var paidAt interface{}
	if debt.PaidAt != nil {
		paidAt = *debt.PaidAt
	}
	if _, err := dbTx.Exec(`UPDATE debts SET amount_paid = $1, status = $2, paid_at = $3 WHERE id = $4`,
		debt.AmountPaid.String(), debt.Status, paidAt, debt.ID); err != nil {
		slog.Error("PostgresStore ApplyDebtPayment update failed", "error", err, "debtID", debt.ID)
		return nil, fmt.Errorf("update debt: %w", err)
	}

	if err := dbTx.Commit(); err != nil {
		return nil, fmt.Errorf("commit payment transaction: %w", err)
	}
	return debt, nil
}

func (s *PostgresStore) ListActiveDebts(userID int64) ([]models.Debt, error) {
	query := `SELECT ` + postgresDebtColumns + ` FROM debts
		WHERE user_id = $1 AND status = $2 ORDER BY due_date, created_at`
	rows, err := s.db.Query(query, userID, models.DebtActive)
	if err != nil {
		slog.Error("PostgresStore ListActiveDebts failed", "error", err, "userID", userID)
		return nil, fmt.Errorf("list active debts: %w", err)
	}
	defer rows.Close()

	var debts []models.Debt
	for rows.Next() {
		debt, err := scanDebt(rows)
		if err != nil {
			return nil, err
		}
		debts = append(debts, *debt)
	}
	return debts, rows.Err()
}

func (s *PostgresStore) BalanceSummary(userID int64, now time.Time) (*models.BalanceSummary, error) {
	rows, err := s.db.Query(`SELECT type, amount, date FROM transactions WHERE user_id = $1`, userID)
	if err != nil {
		slog.Error("PostgresStore BalanceSummary failed", "error", err, "userID", userID)
		return nil, fmt.Errorf("balance summary: %w", err)
	}
	defer rows.Close()
	return sumBalance(rows, now)
}

func (s *PostgresStore) RangeReport(userID int64, r models.DateRange) (*models.RangeReport, error) {
	rows, err := s.db.Query(`SELECT type, amount, category FROM transactions WHERE user_id = $1 AND date >= $2 AND date <= $3`,
		userID, r.Start, r.End)
	if err != nil {
		slog.Error("PostgresStore RangeReport failed", "error", err, "userID", userID)
		return nil, fmt.Errorf("range report: %w", err)
	}
	defer rows.Close()
	return sumRange(rows, r)
}

func (s *PostgresStore) CountCompletedTasks(userID int64) (int, error) {
	var count int
	err := s.db.QueryRow(`SELECT COUNT(*) FROM tasks WHERE user_id = $1 AND status = $2`,
		userID, models.TaskCompleted).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count completed tasks: %w", err)
	}
	return count, nil
}

func (s *PostgresStore) SaveAchievement(a *models.Achievement) error {
	ensureID(&a.ID)
	_, err := s.db.Exec(`
		INSERT INTO achievements (id, user_id, kind, name, points, awarded_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (user_id, kind) DO NOTHING`,
		a.ID, a.UserID, a.Kind, a.Name, a.Points, a.AwardedAt)
	if err != nil {
		slog.Error("PostgresStore SaveAchievement failed", "error", err, "userID", a.UserID, "kind", a.Kind)
		return fmt.Errorf("save achievement: %w", err)
	}
	return nil
}

func (s *PostgresStore) HasAchievement(userID int64, kind string) (bool, error) {
	var count int
	err := s.db.QueryRow(`SELECT COUNT(*) FROM achievements WHERE user_id = $1 AND kind = $2`, userID, kind).Scan(&count)
	if err != nil {
		return false, fmt.Errorf("has achievement: %w", err)
	}
	return count > 0, nil
}
