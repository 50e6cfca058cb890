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

// Callback actions used by the debt flow keyboards.
const (
	ActionDebtDue     = "debt_due"
	ActionDebtConfirm = "debt_confirm"
)

func init() {
	register(debtDefinition())
}

func debtDefinition() *Definition {
	return &Definition{
		Flow:          models.FlowDebt,
		Entry:         "person",
		ConfirmAction: ActionDebtConfirm,
		Summary:       debtSummary,
		Commit:        commitDebt,
		Steps: map[string]Step{
			"person": {
				ID:     "person",
				Expect: InputText,
				Prompt: func(draft models.Draft) (string, models.Keyboard) {
					d := draft.(*models.DebtDraft)
					if d.Type == models.DebtGiven {
						return "📤 <b>I Lent Money</b>\n\nWho did you lend to?", nil
					}
					return "📥 <b>I Borrowed Money</b>\n\nWho did you borrow from?", nil
				},
				Validate: func(_ models.Draft, ev models.Event) (any, error) {
					if ev.Kind != models.EventText {
						return nil, models.Validationf("please enter the person's name as text")
					}
					person := strings.TrimSpace(ev.Text)
					if len([]rune(person)) < 2 {
						return nil, models.Validationf("please enter a name with at least 2 characters")
					}
					return person, nil
				},
				Apply: func(draft models.Draft, value any) {
					draft.(*models.DebtDraft).Person = value.(string)
				},
				Next: func(models.Draft) string { return "amount" },
			},
			"amount": {
				ID:     "amount",
				Expect: InputAmount,
				Prompt: func(draft models.Draft) (string, models.Keyboard) {
					d := draft.(*models.DebtDraft)
					return fmt.Sprintf("💰 <b>%s</b>\n\nEnter the amount:", d.Person), nil
				},
				Validate: func(_ models.Draft, ev models.Event) (any, error) {
					if ev.Kind != models.EventText {
						return nil, models.Validationf("please enter the amount as text")
					}
					return parseAmountValue(ev.Text)
				},
				Apply: func(draft models.Draft, value any) {
					draft.(*models.DebtDraft).Amount = value.(string)
				},
				Next: func(models.Draft) string { return "due" },
			},
			"due": {
				ID:       "due",
				Expect:   InputDate,
				Optional: true,
				Prompt: func(models.Draft) (string, models.Keyboard) {
					kb := models.Keyboard{
						{
							{Label: "1 week", Action: ActionDebtDue, Value: "1w"},
							{Label: "2 weeks", Action: ActionDebtDue, Value: "2w"},
						},
						{
							{Label: "1 month", Action: ActionDebtDue, Value: "1m"},
							{Label: "3 months", Action: ActionDebtDue, Value: "3m"},
						},
						{
							{Label: "No due date", Action: ActionDebtDue, Value: "none"},
						},
					}
					return "📅 <b>When is it due?</b>\n\nPick below, type a date, or /skip.", kb
				},
				Validate: func(_ models.Draft, ev models.Event) (any, error) {
					switch ev.Kind {
					case models.EventCallback:
						if ev.Action != ActionDebtDue {
							return nil, models.Validationf("unexpected selection")
						}
						due, ok := parse.DueShorthand(ev.Value, time.Now())
						if !ok {
							return nil, models.Validationf("unknown due option %q", ev.Value)
						}
						return due, nil
					case models.EventText:
						return parseDateValue(ev.Text)
					}
					return nil, models.Validationf("pick a due date below or type one like 2025-03-01")
				},
				Apply: func(draft models.Draft, value any) {
					draft.(*models.DebtDraft).DueDate = value.(string)
				},
				Next: func(models.Draft) string { return "note" },
			},
			"note": {
				ID:       "note",
				Expect:   InputText,
				Optional: true,
				Prompt: func(models.Draft) (string, models.Keyboard) {
					return "📝 <b>Add a note</b>\n\nWhat is this debt for? Or /skip.", nil
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
					draft.(*models.DebtDraft).Note = value.(string)
				},
				Next: func(models.Draft) string { return models.StepConfirm },
			},
		},
	}
}

func debtSummary(draft models.Draft) string {
	d := draft.(*models.DebtDraft)

	var b strings.Builder
	if d.Type == models.DebtGiven {
		b.WriteString("📤 <b>Confirm Debt (lent)</b>\n\n")
	} else {
		b.WriteString("📥 <b>Confirm Debt (borrowed)</b>\n\n")
	}
	fmt.Fprintf(&b, "👤 Person: %s\n", d.Person)
	fmt.Fprintf(&b, "💰 Amount: %s %s\n", formatAmount(d.Amount), models.DefaultCurrency)
	if d.DueDate != "" {
		fmt.Fprintf(&b, "📅 Due: %s\n", d.DueDate)
	} else {
		b.WriteString("📅 Due: open-ended\n")
	}
	if d.Note != "" {
		fmt.Fprintf(&b, "📝 Note: %s\n", d.Note)
	}
	return b.String()
}

func commitDebt(_ context.Context, st store.Store, userID int64, draft models.Draft, now time.Time) (any, error) {
	d := draft.(*models.DebtDraft)

	amount, err := decimal.NewFromString(d.Amount)
	if err != nil {
		return nil, fmt.Errorf("parse draft amount %q: %w", d.Amount, err)
	}
	debt := &models.Debt{
		UserID:     userID,
		Type:       d.Type,
		Person:     d.Person,
		Amount:     amount,
		AmountPaid: decimal.Zero,
		Currency:   models.DefaultCurrency,
		Note:       d.Note,
		Date:       now.Format(parse.DateLayout),
		DueDate:    d.DueDate,
		Status:     models.DebtActive,
		CreatedAt:  now,
	}
	if err := st.CreateDebt(debt); err != nil {
		return nil, err
	}
	return debt, nil
}
