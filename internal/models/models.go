// Package models defines the core data structures shared across Hisobot
// components: domain records, sessions, inbound events, and typed outcomes.
package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// TransactionType distinguishes money coming in from money going out.
type TransactionType string

const (
	TransactionIncome  TransactionType = "income"
	TransactionExpense TransactionType = "expense"
)

// DebtType records the direction of a debt from the user's point of view.
type DebtType string

const (
	DebtGiven    DebtType = "given"    // money the user lent out
	DebtReceived DebtType = "received" // money the user borrowed
)

// DebtStatus tracks a debt through its lifecycle.
type DebtStatus string

const (
	DebtActive DebtStatus = "active"
	DebtPaid   DebtStatus = "paid"
)

// TaskStatus tracks a task through its lifecycle.
type TaskStatus string

const (
	TaskPending   TaskStatus = "pending"
	TaskCompleted TaskStatus = "completed"
)

// Priority is the urgency level of a task.
type Priority string

const (
	PriorityHigh   Priority = "high"
	PriorityMedium Priority = "medium"
	PriorityLow    Priority = "low"
)

// Task is a to-do item owned by a user.
type Task struct {
	ID          string     `json:"id"`
	UserID      int64      `json:"user_id"`
	Title       string     `json:"title"`
	Description string     `json:"description,omitempty"`
	Priority    Priority   `json:"priority"`
	Category    string     `json:"category"`
	Tags        []string   `json:"tags,omitempty"`
	Date        string     `json:"date,omitempty"` // YYYY-MM-DD
	Time        string     `json:"time,omitempty"` // HH:MM
	Status      TaskStatus `json:"status"`
	CreatedAt   time.Time  `json:"created_at"`
}

// Transaction is a single income or expense entry.
type Transaction struct {
	ID              string          `json:"id"`
	UserID          int64           `json:"user_id"`
	Type            TransactionType `json:"type"`
	Amount          decimal.Decimal `json:"amount"`
	Currency        string          `json:"currency"`
	Category        string          `json:"category"`
	Note            string          `json:"note,omitempty"`
	Date            string          `json:"date"` // YYYY-MM-DD
	AutoCategorized bool            `json:"auto_categorized,omitempty"`
	Confidence      float64         `json:"category_confidence,omitempty"`
	CreatedAt       time.Time       `json:"created_at"`
}

// Debt is money lent to or borrowed from another person.
type Debt struct {
	ID         string          `json:"id"`
	UserID     int64           `json:"user_id"`
	Type       DebtType        `json:"type"`
	Person     string          `json:"person_name"`
	Amount     decimal.Decimal `json:"amount"`
	AmountPaid decimal.Decimal `json:"amount_paid"`
	Currency   string          `json:"currency"`
	Note       string          `json:"note,omitempty"`
	Date       string          `json:"date"`               // YYYY-MM-DD
	DueDate    string          `json:"due_date,omitempty"` // YYYY-MM-DD, empty when open-ended
	Status     DebtStatus      `json:"status"`
	PaidAt     *time.Time      `json:"paid_at,omitempty"`
	CreatedAt  time.Time       `json:"created_at"`
}

// Outstanding returns the unpaid remainder of the debt.
func (d *Debt) Outstanding() decimal.Decimal {
	return d.Amount.Sub(d.AmountPaid)
}

// DebtPayment records one (possibly partial) payment against a debt.
type DebtPayment struct {
	ID     string          `json:"id"`
	DebtID string          `json:"debt_id"`
	UserID int64           `json:"user_id"`
	Amount decimal.Decimal `json:"amount"`
	PaidAt time.Time       `json:"paid_at"`
}

// Achievement is a gamification award granted after notable domain events.
type Achievement struct {
	ID        string    `json:"id"`
	UserID    int64     `json:"user_id"`
	Kind      string    `json:"kind"`
	Name      string    `json:"name"`
	Points    int       `json:"points"`
	AwardedAt time.Time `json:"awarded_at"`
}

// BalanceSummary aggregates a user's transactions for the stateless views.
type BalanceSummary struct {
	TotalIncome  decimal.Decimal `json:"total_income"`
	TotalExpense decimal.Decimal `json:"total_expense"`
	TodayExpense decimal.Decimal `json:"today_expense"`
	MonthExpense decimal.Decimal `json:"month_expense"`
}

// Balance returns total income minus total expense.
func (b BalanceSummary) Balance() decimal.Decimal {
	return b.TotalIncome.Sub(b.TotalExpense)
}

// DateRange is a committed custom calendar range.
type DateRange struct {
	Start string `json:"start"` // YYYY-MM-DD
	End   string `json:"end"`   // YYYY-MM-DD, never before Start
}

// RangeReport aggregates transactions within a custom calendar range.
type RangeReport struct {
	Range      DateRange                  `json:"range"`
	Income     decimal.Decimal            `json:"income"`
	Expense    decimal.Decimal            `json:"expense"`
	Count      int                        `json:"count"`
	ByCategory map[string]decimal.Decimal `json:"by_category,omitempty"` // expenses only
}

// ImportReport summarizes a completed export-file restore.
type ImportReport struct {
	Tasks        int `json:"tasks"`
	Transactions int `json:"transactions"`
	Debts        int `json:"debts"`
	Skipped      int `json:"skipped"`
}

// DefaultCurrency is used for records created without an explicit currency.
const DefaultCurrency = "UZS"
