// Package store provides storage backends for Hisobot.
//
// This file implements the SQLite-backed store, the default for
// single-process deployments.
package store

import (
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	_ "embed"

	_ "github.com/mattn/go-sqlite3"
	"github.com/shopspring/decimal"

	"github.com/oybekjon/hisobot/internal/models"
)

// DefaultDirPermissions defines the default permissions for database directories.
const DefaultDirPermissions = 0755

//go:embed migrations_sqlite.sql
var sqliteMigrations string

type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore creates a new SQLite store with the given DSN.
// The DSN is a file path to the database file; its directory is created if
// missing.
func NewSQLiteStore(opts ...Option) (*SQLiteStore, error) {
	var cfg Opts
	for _, opt := range opts {
		opt(&cfg)
	}
	slog.Debug("NewSQLiteStore invoked", "DSN_set", cfg.DSN != "")

	dsn := cfg.DSN
	if dsn == "" {
		slog.Error("SQLiteStore DSN not set")
		return nil, fmt.Errorf("database DSN not set")
	}

	dir := filepath.Dir(dsn)
	if err := os.MkdirAll(dir, DefaultDirPermissions); err != nil {
		slog.Error("Failed to create database directory", "error", err, "dir", dir)
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		slog.Error("Failed to open SQLite connection", "error", err)
		return nil, err
	}
	if err := db.Ping(); err != nil {
		slog.Error("SQLite ping failed", "error", err)
		return nil, err
	}

	if _, err := db.Exec(sqliteMigrations); err != nil {
		slog.Error("Failed to run SQLite migrations", "error", err)
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}
	slog.Debug("SQLite migrations applied")

	return &SQLiteStore{db: db}, nil
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// LoadSession retrieves the stored session for a user, or an idle session
// when none exists.
func (s *SQLiteStore) LoadSession(userID int64) (*models.Session, error) {
	query := `SELECT flow, step, draft, created_at, updated_at FROM sessions WHERE user_id = ?`

	session := models.IdleSession(userID)
	var draftJSON sql.NullString
	err := s.db.QueryRow(query, userID).Scan(&session.Flow, &session.Step, &draftJSON, &session.CreatedAt, &session.UpdatedAt)
	if err == sql.ErrNoRows {
		slog.Debug("SQLiteStore LoadSession not found", "userID", userID)
		return models.IdleSession(userID), nil
	}
	if err != nil {
		slog.Error("SQLiteStore LoadSession failed", "error", err, "userID", userID)
		return nil, fmt.Errorf("load session for %d: %w", userID, err)
	}

	draft, err := unmarshalDraft(session.Flow, draftJSON.String)
	if err != nil {
		slog.Error("SQLiteStore LoadSession draft decode failed", "error", err, "userID", userID)
		return nil, err
	}
	session.Draft = draft

	slog.Debug("SQLiteStore LoadSession found", "userID", userID, "flow", session.Flow, "step", session.Step)
	return session, nil
}

// SaveSession stores or replaces the session for a user.
func (s *SQLiteStore) SaveSession(session *models.Session) error {
	draftJSON, err := marshalDraft(session.Draft)
	if err != nil {
		slog.Error("SQLiteStore SaveSession draft encode failed", "error", err, "userID", session.UserID)
		return err
	}

	query := `
		INSERT OR REPLACE INTO sessions (user_id, flow, step, draft, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)`
	_, err = s.db.Exec(query, session.UserID, session.Flow, session.Step, draftJSON, session.CreatedAt, session.UpdatedAt)
	if err != nil {
		slog.Error("SQLiteStore SaveSession failed", "error", err, "userID", session.UserID, "flow", session.Flow)
		return fmt.Errorf("save session for %d: %w", session.UserID, err)
	}
	slog.Debug("SQLiteStore SaveSession succeeded", "userID", session.UserID, "flow", session.Flow, "step", session.Step)
	return nil
}

// ClearSession removes the stored session for a user.
func (s *SQLiteStore) ClearSession(userID int64) error {
	_, err := s.db.Exec(`DELETE FROM sessions WHERE user_id = ?`, userID)
	if err != nil {
		slog.Error("SQLiteStore ClearSession failed", "error", err, "userID", userID)
		return fmt.Errorf("clear session for %d: %w", userID, err)
	}
	slog.Debug("SQLiteStore ClearSession succeeded", "userID", userID)
	return nil
}

func (s *SQLiteStore) CreateTask(task *models.Task) error {
	ensureID(&task.ID)
	tagsJSON, err := marshalTags(task.Tags)
	if err != nil {
		return err
	}

	query := `
		INSERT INTO tasks (id, user_id, title, description, priority, category, tags, date, time, status, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	_, err = s.db.Exec(query, task.ID, task.UserID, task.Title, nilIfEmpty(task.Description),
		task.Priority, task.Category, nilIfEmpty(tagsJSON), nilIfEmpty(task.Date), nilIfEmpty(task.Time),
		task.Status, task.CreatedAt)
	if err != nil {
		slog.Error("SQLiteStore CreateTask failed", "error", err, "userID", task.UserID)
		return fmt.Errorf("create task: %w", err)
	}
	slog.Debug("SQLiteStore CreateTask succeeded", "userID", task.UserID, "taskID", task.ID)
	return nil
}

// CompleteTask marks a task completed and returns the updated record.
func (s *SQLiteStore) CompleteTask(userID int64, taskID string) (*models.Task, error) {
	res, err := s.db.Exec(`UPDATE tasks SET status = ? WHERE user_id = ? AND id = ? AND status = ?`,
		models.TaskCompleted, userID, taskID, models.TaskPending)
	if err != nil {
		slog.Error("SQLiteStore CompleteTask failed", "error", err, "taskID", taskID)
		return nil, fmt.Errorf("complete task: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return nil, nil
	}

	query := `SELECT id, user_id, title, description, priority, category, tags, date, time, status, created_at
		FROM tasks WHERE user_id = ? AND id = ?`
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

func (s *SQLiteStore) CreateTransaction(tx *models.Transaction) error {
	ensureID(&tx.ID)

	query := `
		INSERT INTO transactions (id, user_id, type, amount, currency, category, note, date, auto_categorized, category_confidence, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	_, err := s.db.Exec(query, tx.ID, tx.UserID, tx.Type, tx.Amount.String(), tx.Currency,
		tx.Category, nilIfEmpty(tx.Note), tx.Date, tx.AutoCategorized, tx.Confidence, tx.CreatedAt)
	if err != nil {
		slog.Error("SQLiteStore CreateTransaction failed", "error", err, "userID", tx.UserID)
		return fmt.Errorf("create transaction: %w", err)
	}
	slog.Debug("SQLiteStore CreateTransaction succeeded", "userID", tx.UserID, "txID", tx.ID, "type", tx.Type)
	return nil
}

// SetTransactionCategory overrides a stored transaction's category.
func (s *SQLiteStore) SetTransactionCategory(userID int64, txID, category string) error {
	_, err := s.db.Exec(`UPDATE transactions SET category = ?, auto_categorized = 0 WHERE user_id = ? AND id = ?`,
		category, userID, txID)
	if err != nil {
		slog.Error("SQLiteStore SetTransactionCategory failed", "error", err, "txID", txID)
		return fmt.Errorf("set transaction category: %w", err)
	}
	return nil
}

func (s *SQLiteStore) CreateDebt(debt *models.Debt) error {
	ensureID(&debt.ID)

	query := `
		INSERT INTO debts (id, user_id, type, person_name, amount, amount_paid, currency, note, date, due_date, status, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	_, err := s.db.Exec(query, debt.ID, debt.UserID, debt.Type, debt.Person, debt.Amount.String(),
		debt.AmountPaid.String(), debt.Currency, nilIfEmpty(debt.Note), debt.Date, nilIfEmpty(debt.DueDate),
		debt.Status, debt.CreatedAt)
	if err != nil {
		slog.Error("SQLiteStore CreateDebt failed", "error", err, "userID", debt.UserID)
		return fmt.Errorf("create debt: %w", err)
	}
	slog.Debug("SQLiteStore CreateDebt succeeded", "userID", debt.UserID, "debtID", debt.ID)
	return nil
}

func (s *SQLiteStore) GetDebt(userID int64, debtID string) (*models.Debt, error) {
	query := `
		SELECT id, user_id, type, person_name, amount, amount_paid, currency, note, date, due_date, status, paid_at, created_at
		FROM debts WHERE user_id = ? AND id = ?`
	return scanDebtRow(s.db.QueryRow(query, userID, debtID))
}

// ApplyDebtPayment records the payment and advances the debt atomically.
func (s *SQLiteStore) ApplyDebtPayment(payment *models.DebtPayment) (*models.Debt, error) {
	ensureID(&payment.ID)

	dbTx, err := s.db.Begin()
	if err != nil {
		return nil, fmt.Errorf("begin payment transaction: %w", err)
	}
	defer dbTx.Rollback()

	debt, err := scanDebtRow(dbTx.QueryRow(`
		SELECT id, user_id, type, person_name, amount, amount_paid, currency, note, date, due_date, status, paid_at, created_at
		FROM debts WHERE user_id = ? AND id = ?`, payment.UserID, payment.DebtID))
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
		VALUES (?, ?, ?, ?, ?)`,
		payment.ID, payment.DebtID, payment.UserID, payment.Amount.String(), payment.PaidAt); err != nil {
		slog.Error("SQLiteStore ApplyDebtPayment insert failed", "error", err, "debtID", payment.DebtID)
		return nil, fmt.Errorf("record payment: %w", err)
	}

	var paidAt interface{}
	if debt.PaidAt != nil {
		paidAt = *debt.PaidAt
	}
	if _, err := dbTx.Exec(`UPDATE debts SET amount_paid = ?, status = ?, paid_at = ? WHERE id = ?`,
		debt.AmountPaid.String(), debt.Status, paidAt, debt.ID); err != nil {
		slog.Error("SQLiteStore ApplyDebtPayment update failed", "error", err, "debtID", debt.ID)
		return nil, fmt.Errorf("update debt: %w", err)
	}

	if err := dbTx.Commit(); err != nil {
		return nil, fmt.Errorf("commit payment transaction: %w", err)
	}
	slog.Debug("SQLiteStore ApplyDebtPayment succeeded", "debtID", debt.ID, "status", debt.Status)
	return debt, nil
}

func (s *SQLiteStore) ListActiveDebts(userID int64) ([]models.Debt, error) {
	query := `
		SELECT id, user_id, type, person_name, amount, amount_paid, currency, note, date, due_date, status, paid_at, created_at
		FROM debts WHERE user_id = ? AND status = ? ORDER BY due_date, created_at`
	rows, err := s.db.Query(query, userID, models.DebtActive)
	if err != nil {
		slog.Error("SQLiteStore ListActiveDebts failed", "error", err, "userID", userID)
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

// BalanceSummary sums transactions with decimal arithmetic in Go, keeping
// the result independent of driver numeric handling.
func (s *SQLiteStore) BalanceSummary(userID int64, now time.Time) (*models.BalanceSummary, error) {
	rows, err := s.db.Query(`SELECT type, amount, date FROM transactions WHERE user_id = ?`, userID)
	if err != nil {
		slog.Error("SQLiteStore BalanceSummary failed", "error", err, "userID", userID)
		return nil, fmt.Errorf("balance summary: %w", err)
	}
	defer rows.Close()
	return sumBalance(rows, now)
}

func (s *SQLiteStore) RangeReport(userID int64, r models.DateRange) (*models.RangeReport, error) {
	rows, err := s.db.Query(`SELECT type, amount, category FROM transactions WHERE user_id = ? AND date >= ? AND date <= ?`,
		userID, r.Start, r.End)
	if err != nil {
		slog.Error("SQLiteStore RangeReport failed", "error", err, "userID", userID)
		return nil, fmt.Errorf("range report: %w", err)
	}
	defer rows.Close()
	return sumRange(rows, r)
}

func (s *SQLiteStore) CountCompletedTasks(userID int64) (int, error) {
	var count int
	err := s.db.QueryRow(`SELECT COUNT(*) FROM tasks WHERE user_id = ? AND status = ?`,
		userID, models.TaskCompleted).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count completed tasks: %w", err)
	}
	return count, nil
}

func (s *SQLiteStore) SaveAchievement(a *models.Achievement) error {
	ensureID(&a.ID)
	_, err := s.db.Exec(`
		INSERT OR IGNORE INTO achievements (id, user_id, kind, name, points, awarded_at)
		VALUES (?, ?, ?, ?, ?, ?)`,
		a.ID, a.UserID, a.Kind, a.Name, a.Points, a.AwardedAt)
	if err != nil {
		slog.Error("SQLiteStore SaveAchievement failed", "error", err, "userID", a.UserID, "kind", a.Kind)
		return fmt.Errorf("save achievement: %w", err)
	}
	return nil
}

func (s *SQLiteStore) HasAchievement(userID int64, kind string) (bool, error) {
	var count int
	err := s.db.QueryRow(`SELECT COUNT(*) FROM achievements WHERE user_id = ? AND kind = ?`, userID, kind).Scan(&count)
	if err != nil {
		return false, fmt.Errorf("has achievement: %w", err)
	}
	return count > 0, nil
}

// debtScanner covers both *sql.Row and *sql.Rows.
type debtScanner interface {
	Scan(dest ...any) error
}

func scanDebtInto(scanner debtScanner) (*models.Debt, error) {
	var debt models.Debt
	var amount, amountPaid string
	var note, dueDate sql.NullString
	var paidAt sql.NullTime
	err := scanner.Scan(&debt.ID, &debt.UserID, &debt.Type, &debt.Person, &amount, &amountPaid,
		&debt.Currency, &note, &debt.Date, &dueDate, &debt.Status, &paidAt, &debt.CreatedAt)
	if err != nil {
		return nil, err
	}
	debt.Amount, err = decimal.NewFromString(amount)
	if err != nil {
		return nil, fmt.Errorf("decode debt amount: %w", err)
	}
	debt.AmountPaid, err = decimal.NewFromString(amountPaid)
	if err != nil {
		return nil, fmt.Errorf("decode debt amount_paid: %w", err)
	}
	debt.Note = note.String
	debt.DueDate = dueDate.String
	if paidAt.Valid {
		debt.PaidAt = &paidAt.Time
	}
	return &debt, nil
}

func scanDebtRow(row *sql.Row) (*models.Debt, error) {
	debt, err := scanDebtInto(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("scan debt: %w", err)
	}
	return debt, nil
}

func scanDebt(rows *sql.Rows) (*models.Debt, error) {
	debt, err := scanDebtInto(rows)
	if err != nil {
		return nil, fmt.Errorf("scan debt: %w", err)
	}
	return debt, nil
}

// sumRange folds (type, amount, category) rows into a RangeReport.
func sumRange(rows *sql.Rows, r models.DateRange) (*models.RangeReport, error) {
	report := &models.RangeReport{Range: r, ByCategory: make(map[string]decimal.Decimal)}
	for rows.Next() {
		var txType, amountStr, category string
		if err := rows.Scan(&txType, &amountStr, &category); err != nil {
			return nil, fmt.Errorf("scan transaction: %w", err)
		}
		amount, err := decimal.NewFromString(amountStr)
		if err != nil {
			return nil, fmt.Errorf("decode transaction amount: %w", err)
		}
		report.Count++
		switch models.TransactionType(txType) {
		case models.TransactionIncome:
			report.Income = report.Income.Add(amount)
		case models.TransactionExpense:
			report.Expense = report.Expense.Add(amount)
			report.ByCategory[category] = report.ByCategory[category].Add(amount)
		}
	}
	return report, rows.Err()
}

// sumBalance folds (type, amount, date) rows into a BalanceSummary.
func sumBalance(rows *sql.Rows, now time.Time) (*models.BalanceSummary, error) {
	today := now.Format("2006-01-02")
	monthPrefix := now.Format("2006-01")

	summary := &models.BalanceSummary{}
	for rows.Next() {
		var txType, amountStr, date string
		if err := rows.Scan(&txType, &amountStr, &date); err != nil {
			return nil, fmt.Errorf("scan transaction: %w", err)
		}
		amount, err := decimal.NewFromString(amountStr)
		if err != nil {
			return nil, fmt.Errorf("decode transaction amount: %w", err)
		}
		switch models.TransactionType(txType) {
		case models.TransactionIncome:
			summary.TotalIncome = summary.TotalIncome.Add(amount)
		case models.TransactionExpense:
			summary.TotalExpense = summary.TotalExpense.Add(amount)
			if date == today {
				summary.TodayExpense = summary.TodayExpense.Add(amount)
			}
			if len(date) >= 7 && date[:7] == monthPrefix {
				summary.MonthExpense = summary.MonthExpense.Add(amount)
			}
		}
	}
	return summary, rows.Err()
}
