// Package store provides storage backends for Hisobot.
//
// This file implements an in-memory store used by tests and ephemeral runs.
package store

import (
	"fmt"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"github.com/oybekjon/hisobot/internal/models"
)

// InMemoryStore keeps everything in maps guarded by a mutex. Sessions are
// copied through their serialized form on save and load so callers never
// alias stored state.
type InMemoryStore struct {
	mu           sync.Mutex
	sessions     map[int64]storedSession
	tasks        map[string]models.Task
	transactions map[string]models.Transaction
	debts        map[string]models.Debt
	payments     map[string]models.DebtPayment
	achievements map[string]models.Achievement

	// SessionSaveErr and CreateErr, when set, are returned by SaveSession
	// and the Create*/ApplyDebtPayment calls respectively. Tests use them to
	// simulate persistence failures.
	SessionSaveErr error
	CreateErr      error
}

type storedSession struct {
	flow      models.FlowType
	step      string
	draft     string
	createdAt time.Time
	updatedAt time.Time
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{
		sessions:     make(map[int64]storedSession),
		tasks:        make(map[string]models.Task),
		transactions: make(map[string]models.Transaction),
		debts:        make(map[string]models.Debt),
		payments:     make(map[string]models.DebtPayment),
		achievements: make(map[string]models.Achievement),
	}
}

func (s *InMemoryStore) Close() error { return nil }

func (s *InMemoryStore) LoadSession(userID int64) (*models.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	stored, ok := s.sessions[userID]
	if !ok {
		return models.IdleSession(userID), nil
	}
	draft, err := unmarshalDraft(stored.flow, stored.draft)
	if err != nil {
		return nil, err
	}
	return &models.Session{
		UserID:    userID,
		Flow:      stored.flow,
		Step:      stored.step,
		Draft:     draft,
		CreatedAt: stored.createdAt,
		UpdatedAt: stored.updatedAt,
	}, nil
}

func (s *InMemoryStore) SaveSession(session *models.Session) error {
	if s.SessionSaveErr != nil {
		return s.SessionSaveErr
	}
	draft, err := marshalDraft(session.Draft)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[session.UserID] = storedSession{
		flow:      session.Flow,
		step:      session.Step,
		draft:     draft,
		createdAt: session.CreatedAt,
		updatedAt: session.UpdatedAt,
	}
	return nil
}

func (s *InMemoryStore) ClearSession(userID int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, userID)
	return nil
}

func (s *InMemoryStore) CreateTask(task *models.Task) error {
	if s.CreateErr != nil {
		return s.CreateErr
	}
	ensureID(&task.ID)
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tasks[task.ID] = *task
	return nil
}

func (s *InMemoryStore) CompleteTask(userID int64, taskID string) (*models.Task, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	task, ok := s.tasks[taskID]
	if !ok || task.UserID != userID || task.Status != models.TaskPending {
		return nil, nil
	}
	task.Status = models.TaskCompleted
	s.tasks[taskID] = task
	copied := task
	return &copied, nil
}

func (s *InMemoryStore) SetTransactionCategory(userID int64, txID, category string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, ok := s.transactions[txID]
	if !ok || tx.UserID != userID {
		return fmt.Errorf("transaction %s not found", txID)
	}
	tx.Category = category
	tx.AutoCategorized = false
	s.transactions[txID] = tx
	return nil
}

func (s *InMemoryStore) CreateTransaction(tx *models.Transaction) error {
	if s.CreateErr != nil {
		return s.CreateErr
	}
	ensureID(&tx.ID)
	s.mu.Lock()
	defer s.mu.Unlock()
	s.transactions[tx.ID] = *tx
	return nil
}

func (s *InMemoryStore) CreateDebt(debt *models.Debt) error {
	if s.CreateErr != nil {
		return s.CreateErr
	}
	ensureID(&debt.ID)
	s.mu.Lock()
	defer s.mu.Unlock()
	s.debts[debt.ID] = *debt
	return nil
}

func (s *InMemoryStore) GetDebt(userID int64, debtID string) (*models.Debt, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	debt, ok := s.debts[debtID]
	if !ok || debt.UserID != userID {
		return nil, nil
	}
	copied := debt
	return &copied, nil
}

func (s *InMemoryStore) ApplyDebtPayment(payment *models.DebtPayment) (*models.Debt, error) {
	if s.CreateErr != nil {
		return nil, s.CreateErr
	}
	ensureID(&payment.ID)

	s.mu.Lock()
	defer s.mu.Unlock()

	debt, ok := s.debts[payment.DebtID]
	if !ok || debt.UserID != payment.UserID {
		return nil, fmt.Errorf("debt %s not found", payment.DebtID)
	}

	debt.AmountPaid = debt.AmountPaid.Add(payment.Amount)
	if !debt.Outstanding().IsPositive() {
		debt.Status = models.DebtPaid
		paidAt := payment.PaidAt
		debt.PaidAt = &paidAt
	}
	s.payments[payment.ID] = *payment
	s.debts[debt.ID] = debt

	copied := debt
	return &copied, nil
}

func (s *InMemoryStore) ListActiveDebts(userID int64) ([]models.Debt, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var debts []models.Debt
	for _, debt := range s.debts {
		if debt.UserID == userID && debt.Status == models.DebtActive {
			debts = append(debts, debt)
		}
	}
	return debts, nil
}

func (s *InMemoryStore) BalanceSummary(userID int64, now time.Time) (*models.BalanceSummary, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	today := now.Format("2006-01-02")
	monthPrefix := now.Format("2006-01")

	summary := &models.BalanceSummary{}
	for _, tx := range s.transactions {
		if tx.UserID != userID {
			continue
		}
		switch tx.Type {
		case models.TransactionIncome:
			summary.TotalIncome = summary.TotalIncome.Add(tx.Amount)
		case models.TransactionExpense:
			summary.TotalExpense = summary.TotalExpense.Add(tx.Amount)
			if tx.Date == today {
				summary.TodayExpense = summary.TodayExpense.Add(tx.Amount)
			}
			if len(tx.Date) >= 7 && tx.Date[:7] == monthPrefix {
				summary.MonthExpense = summary.MonthExpense.Add(tx.Amount)
			}
		}
	}
	return summary, nil
}

func (s *InMemoryStore) RangeReport(userID int64, r models.DateRange) (*models.RangeReport, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	report := &models.RangeReport{Range: r, ByCategory: make(map[string]decimal.Decimal)}
	for _, tx := range s.transactions {
		if tx.UserID != userID || tx.Date < r.Start || tx.Date > r.End {
			continue
		}
		report.Count++
		switch tx.Type {
		case models.TransactionIncome:
			report.Income = report.Income.Add(tx.Amount)
		case models.TransactionExpense:
			report.Expense = report.Expense.Add(tx.Amount)
			report.ByCategory[tx.Category] = report.ByCategory[tx.Category].Add(tx.Amount)
		}
	}
	return report, nil
}

func (s *InMemoryStore) CountCompletedTasks(userID int64) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	count := 0
	for _, task := range s.tasks {
		if task.UserID == userID && task.Status == models.TaskCompleted {
			count++
		}
	}
	return count, nil
}

func (s *InMemoryStore) SaveAchievement(a *models.Achievement) error {
	ensureID(&a.ID)
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.achievements {
		if existing.UserID == a.UserID && existing.Kind == a.Kind {
			return nil
		}
	}
	s.achievements[a.ID] = *a
	return nil
}

func (s *InMemoryStore) HasAchievement(userID int64, kind string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, a := range s.achievements {
		if a.UserID == userID && a.Kind == kind {
			return true, nil
		}
	}
	return false, nil
}

// Tasks returns all stored tasks, for test assertions.
func (s *InMemoryStore) Tasks() []models.Task {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]models.Task, 0, len(s.tasks))
	for _, t := range s.tasks {
		out = append(out, t)
	}
	return out
}

// Transactions returns all stored transactions, for test assertions.
func (s *InMemoryStore) Transactions() []models.Transaction {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]models.Transaction, 0, len(s.transactions))
	for _, tx := range s.transactions {
		out = append(out, tx)
	}
	return out
}

// Debts returns all stored debts, for test assertions.
func (s *InMemoryStore) Debts() []models.Debt {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]models.Debt, 0, len(s.debts))
	for _, d := range s.debts {
		out = append(out, d)
	}
	return out
}

// SeedDebt inserts a debt directly, for tests.
func (s *InMemoryStore) SeedDebt(debt models.Debt) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if debt.AmountPaid.IsZero() {
		debt.AmountPaid = decimal.Zero
	}
	s.debts[debt.ID] = debt
}
