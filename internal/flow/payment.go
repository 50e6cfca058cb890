package flow

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/oybekjon/hisobot/internal/models"
	"github.com/oybekjon/hisobot/internal/store"
)

func init() {
	register(paymentDefinition())
}

// The payment flow is a single amount question against a debt chosen by an
// inline button; it commits as soon as the amount is accepted.
func paymentDefinition() *Definition {
	return &Definition{
		Flow:       models.FlowPayment,
		Entry:      "amount",
		AutoCommit: true,
		Summary:    paymentSummary,
		Commit:     commitPayment,
		Steps: map[string]Step{
			"amount": {
				ID:     "amount",
				Expect: InputAmount,
				Prompt: func(models.Draft) (string, models.Keyboard) {
					return "💵 <b>Partial Payment</b>\n\nHow much was paid?", nil
				},
				Validate: func(_ models.Draft, ev models.Event) (any, error) {
					if ev.Kind != models.EventText {
						return nil, models.Validationf("please enter the amount as text")
					}
					return parseAmountValue(ev.Text)
				},
				Apply: func(draft models.Draft, value any) {
					draft.(*models.PaymentDraft).Amount = value.(string)
				},
				Next: func(models.Draft) string { return models.StepConfirm },
			},
		},
	}
}

func paymentSummary(draft models.Draft) string {
	d := draft.(*models.PaymentDraft)
	return fmt.Sprintf("💵 Payment of %s %s recorded.", formatAmount(d.Amount), models.DefaultCurrency)
}

func commitPayment(_ context.Context, st store.Store, userID int64, draft models.Draft, now time.Time) (any, error) {
	d := draft.(*models.PaymentDraft)

	amount, err := decimal.NewFromString(d.Amount)
	if err != nil {
		return nil, fmt.Errorf("parse draft amount %q: %w", d.Amount, err)
	}
	debt, err := st.GetDebt(userID, d.DebtID)
	if err != nil {
		return nil, err
	}
	if debt == nil {
		return nil, fmt.Errorf("debt %s not found", d.DebtID)
	}
	// Overpayments settle the debt exactly; the excess is not recorded.
	if outstanding := debt.Outstanding(); amount.GreaterThan(outstanding) {
		amount = outstanding
	}
	payment := &models.DebtPayment{
		DebtID: d.DebtID,
		UserID: userID,
		Amount: amount,
		PaidAt: now,
	}
	updated, err := st.ApplyDebtPayment(payment)
	if err != nil {
		return nil, err
	}
	return updated, nil
}
