// Package models defines session state structures for Hisobot guided-entry flows.
package models

import "time"

// FlowType identifies which guided-entry flow a session is engaged in.
type FlowType string

const (
	FlowNone        FlowType = ""
	FlowTask        FlowType = "task"
	FlowTransaction FlowType = "transaction"
	FlowDebt        FlowType = "debt"
	FlowPayment     FlowType = "payment"
	FlowDateRange   FlowType = "daterange"
	FlowImport      FlowType = "import"
)

// StepConfirm is the conventional terminal step of every flow.
const StepConfirm = "confirm"

// Draft is the per-flow accumulating record a session builds up across
// turns. Each flow has exactly one draft variant, so a step in one flow
// cannot read a field that only exists in another.
type Draft interface {
	Flow() FlowType

	// Clone returns an independent copy of the draft.
	Clone() Draft
}

// TaskDraft accumulates fields for a task being created.
type TaskDraft struct {
	Title    string   `json:"title"`
	Tags     []string `json:"tags,omitempty"`
	Priority Priority `json:"priority,omitempty"`
	Category string   `json:"category,omitempty"`
	Date     string   `json:"date,omitempty"`
	Time     string   `json:"time,omitempty"`
}

func (*TaskDraft) Flow() FlowType { return FlowTask }

func (d *TaskDraft) Clone() Draft {
	c := *d
	c.Tags = append([]string(nil), d.Tags...)
	return &c
}

// TransactionDraft accumulates fields for an income or expense entry.
type TransactionDraft struct {
	Type            TransactionType `json:"type"`
	Amount          string          `json:"amount,omitempty"` // decimal string
	Category        string          `json:"category,omitempty"`
	Note            string          `json:"note,omitempty"`
	AutoCategorized bool            `json:"auto_categorized,omitempty"`
	Confidence      float64         `json:"category_confidence,omitempty"`
}

func (*TransactionDraft) Flow() FlowType { return FlowTransaction }

func (d *TransactionDraft) Clone() Draft {
	c := *d
	return &c
}

// DebtDraft accumulates fields for a debt being recorded.
type DebtDraft struct {
	Type    DebtType `json:"type"`
	Person  string   `json:"person,omitempty"`
	Amount  string   `json:"amount,omitempty"` // decimal string
	DueDate string   `json:"due_date,omitempty"`
	Note    string   `json:"note,omitempty"`
}

func (*DebtDraft) Flow() FlowType { return FlowDebt }

func (d *DebtDraft) Clone() Draft {
	c := *d
	return &c
}

// PaymentDraft accumulates a partial payment against an existing debt.
type PaymentDraft struct {
	DebtID string `json:"debt_id"`
	Amount string `json:"amount,omitempty"` // decimal string, clamped to the outstanding balance
}

func (*PaymentDraft) Flow() FlowType { return FlowPayment }

func (d *PaymentDraft) Clone() Draft {
	c := *d
	return &c
}

// DateRangeDraft accumulates a custom calendar range.
type DateRangeDraft struct {
	Start string `json:"start,omitempty"`
	End   string `json:"end,omitempty"`
}

func (*DateRangeDraft) Flow() FlowType { return FlowDateRange }

func (d *DateRangeDraft) Clone() Draft {
	c := *d
	return &c
}

// ImportDraft marks a session waiting for an export file upload. The file
// reference is filled in once the document arrives.
type ImportDraft struct {
	FileID   string `json:"file_id,omitempty"`
	FileName string `json:"file_name,omitempty"`
}

func (*ImportDraft) Flow() FlowType { return FlowImport }

func (d *ImportDraft) Clone() Draft {
	c := *d
	return &c
}

// NewDraft returns the empty draft variant for a flow type, or nil for
// FlowNone and unknown flows.
func NewDraft(flow FlowType) Draft {
	switch flow {
	case FlowTask:
		return &TaskDraft{}
	case FlowTransaction:
		return &TransactionDraft{}
	case FlowDebt:
		return &DebtDraft{}
	case FlowPayment:
		return &PaymentDraft{}
	case FlowDateRange:
		return &DateRangeDraft{}
	case FlowImport:
		return &ImportDraft{}
	}
	return nil
}

// Session is the durable per-user record of the active flow, its current
// step, and the draft collected so far. A session is either fully idle
// (Flow == FlowNone, Step empty, Draft nil) or fully engaged in one flow.
type Session struct {
	UserID    int64     `json:"user_id"`
	Flow      FlowType  `json:"flow"`
	Step      string    `json:"step"`
	Draft     Draft     `json:"draft,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// IdleSession returns the idle session for a user.
func IdleSession(userID int64) *Session {
	return &Session{UserID: userID}
}

// Idle reports whether the session is not engaged in any flow.
func (s *Session) Idle() bool {
	return s.Flow == FlowNone
}

// Start engages the session in a flow at its entry step, discarding any
// previous draft.
func (s *Session) Start(flow FlowType, entryStep string, draft Draft) {
	now := time.Now()
	s.Flow = flow
	s.Step = entryStep
	s.Draft = draft
	s.CreatedAt = now
	s.UpdatedAt = now
}

// Reset returns the session to idle, discarding the draft.
func (s *Session) Reset() {
	s.Flow = FlowNone
	s.Step = ""
	s.Draft = nil
	s.UpdatedAt = time.Now()
}
