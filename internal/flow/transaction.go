package flow

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/oybekjon/hisobot/internal/models"
	"github.com/oybekjon/hisobot/internal/parse"
	"github.com/oybekjon/hisobot/internal/store"
)

// Callback actions used by the transaction flow keyboards.
const (
	ActionTxCategory = "tx_category"
	ActionTxConfirm  = "tx_confirm"
)

func init() {
	register(transactionDefinition())
}

func transactionDefinition() *Definition {
	return &Definition{
		Flow:          models.FlowTransaction,
		Entry:         "amount",
		ConfirmAction: ActionTxConfirm,
		Summary:       transactionSummary,
		Commit:        commitTransaction,
		Steps: map[string]Step{
			"amount": {
				ID:     "amount",
				Expect: InputAmount,
				Prompt: func(draft models.Draft) (string, models.Keyboard) {
					d := draft.(*models.TransactionDraft)
					if d.Type == models.TransactionIncome {
						return "💵 <b>New Income</b>\n\nEnter the amount:", nil
					}
					return "💸 <b>New Expense</b>\n\nEnter the amount:", nil
				},
				Validate: func(_ models.Draft, ev models.Event) (any, error) {
					if ev.Kind != models.EventText {
						return nil, models.Validationf("please enter the amount as text")
					}
					return parseAmountValue(ev.Text)
				},
				Apply: func(draft models.Draft, value any) {
					draft.(*models.TransactionDraft).Amount = value.(string)
				},
				Next: func(models.Draft) string { return "category" },
			},
			"category": {
				ID:       "category",
				Expect:   InputCallback,
				Optional: true,
				Prompt: func(draft models.Draft) (string, models.Keyboard) {
					d := draft.(*models.TransactionDraft)
					return "📁 <b>Select Category</b>\n\nOr /skip to categorize from the note.",
						models.CategoryKeyboard(transactionCategories(d.Type), ActionTxCategory)
				},
				Validate: func(draft models.Draft, ev models.Event) (any, error) {
					d := draft.(*models.TransactionDraft)
					value, err := callbackValue(ev, ActionTxCategory)
					if err != nil {
						return nil, err
					}
					if !models.ValidCategory(transactionCategories(d.Type), value) {
						return nil, models.Validationf("unknown category %q", value)
					}
					return value, nil
				},
				Apply: func(draft models.Draft, value any) {
					draft.(*models.TransactionDraft).Category = value.(string)
				},
				Next: func(models.Draft) string { return "note" },
			},
			"note": {
				ID:       "note",
				Expect:   InputText,
				Optional: true,
				Prompt: func(models.Draft) (string, models.Keyboard) {
					return "📝 <b>Add a note</b>\n\nWhat was this for? Or /skip.", nil
				},
				Validate: func(_ models.Draft, ev models.Event) (any, error) {
					if ev.Kind != models.EventText {
						return nil, models.Validationf("please enter the note as text, or /skip")
					}
					note := strings.TrimSpace(ev.Text)
					if note == "" {
						return nil, models.Validationf("please enter a note, or /skip")
					}
					return note, nil
				},
				Apply: func(draft models.Draft, value any) {
					d := draft.(*models.TransactionDraft)
					d.Note = value.(string)
					if d.Category == "" && d.Type == models.TransactionExpense {
						d.Category, d.Confidence = parse.AutoCategorize(d.Note)
						d.AutoCategorized = true
					}
				},
				Next: func(models.Draft) string { return models.StepConfirm },
			},
		},
	}
}

func transactionCategories(t models.TransactionType) []models.CategoryOption {
	if t == models.TransactionIncome {
		return models.IncomeCategories
	}
	return models.ExpenseCategories
}

func transactionSummary(draft models.Draft) string {
	d := draft.(*models.TransactionDraft)

	var b strings.Builder
	if d.Type == models.TransactionIncome {
		b.WriteString("💵 <b>Confirm Income</b>\n\n")
	} else {
		b.WriteString("💸 <b>Confirm Expense</b>\n\n")
	}
	fmt.Fprintf(&b, "💰 Amount: %s %s\n", formatAmount(d.Amount), models.DefaultCurrency)
	category := d.Category
	if category == "" {
		category = "other"
	}
	fmt.Fprintf(&b, "📁 Category: %s", models.CategoryLabel(transactionCategories(d.Type), category))
	if d.AutoCategorized {
		b.WriteString(" (auto)")
	}
	b.WriteString("\n")
	if d.Note != "" {
		fmt.Fprintf(&b, "📝 Note: %s\n", d.Note)
	}
	return b.String()
}

func commitTransaction(_ context.Context, st store.Store, userID int64, draft models.Draft, now time.Time) (any, error) {
	d := draft.(*models.TransactionDraft)

	amount, err := decimal.NewFromString(d.Amount)
	if err != nil {
		return nil, fmt.Errorf("parse draft amount %q: %w", d.Amount, err)
	}
	tx := &models.Transaction{
		UserID:          userID,
		Type:            d.Type,
		Amount:          amount,
		Currency:        models.DefaultCurrency,
		Category:        d.Category,
		Note:            d.Note,
		Date:            now.Format(parse.DateLayout),
		AutoCategorized: d.AutoCategorized,
		Confidence:      d.Confidence,
		CreatedAt:       now,
	}
	if tx.Category == "" {
		tx.Category = "other"
	}
	if err := st.CreateTransaction(tx); err != nil {
		return nil, err
	}
	return tx, nil
}

// formatAmount renders a decimal string for display, dropping a trailing
// ".00" the way whole sums are usually written.
func formatAmount(s string) string {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return s
	}
	if d.Equal(d.Truncate(0)) {
		return d.Truncate(0).String()
	}
	return d.StringFixed(2)
}
