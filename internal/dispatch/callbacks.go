package dispatch

import (
	"context"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/oybekjon/hisobot/internal/achievements"
	"github.com/oybekjon/hisobot/internal/flow"
	"github.com/oybekjon/hisobot/internal/messaging"
	"github.com/oybekjon/hisobot/internal/models"
)

// Callback actions that work outside any flow, attached to record messages.
const (
	actionTaskDone    = "task_done"    // value: task id
	actionDebtPartial = "debt_partial" // value: debt id
	actionDebtPayFull = "debt_pay"     // value: debt id
	actionRecat       = "tx_recat"     // value: "<tx id>:<category>"
)

func (r *Router) handleCallback(ctx context.Context, userID int64, session *models.Session, ev models.Event) error {
	// Record-level buttons stay valid regardless of session state; old
	// messages outlive the flow that produced them.
	switch ev.Action {
	case actionTaskDone:
		return r.completeTask(ctx, userID, ev)
	case actionDebtPartial:
		return r.startFlow(ctx, userID, models.FlowPayment, &models.PaymentDraft{DebtID: ev.Value})
	case actionDebtPayFull:
		return r.payDebtInFull(ctx, userID, ev)
	case actionRecat:
		return r.recategorize(ctx, userID, ev)
	}

	if session.Idle() {
		return r.send(ctx, userID, "That button has expired. See /help.", messaging.Options{EditMessageRef: ev.MessageRef})
	}

	// yes/cancel on the confirm step belongs to the commit engine.
	if session.Step == models.StepConfirm {
		if def, ok := flow.Lookup(session.Flow); ok && ev.Action == def.ConfirmAction {
			switch ev.Value {
			case "yes":
				res, err := r.engine.Confirm(ctx, session)
				if err != nil {
					return r.commitFailed(ctx, userID, err)
				}
				return r.deliver(ctx, userID, res, ev)
			case "cancel":
				res, err := r.engine.Cancel(session)
				if err != nil {
					return err
				}
				return r.deliver(ctx, userID, res, ev)
			}
		}
	}

	return r.advance(ctx, userID, session, ev)
}

// completeTask marks a task done from its record button and reports any
// milestone badges earned.
func (r *Router) completeTask(ctx context.Context, userID int64, ev models.Event) error {
	task, err := r.store.CompleteTask(userID, ev.Value)
	if err != nil {
		return err
	}
	if task == nil {
		return r.send(ctx, userID, "That task is already done or gone.", messaging.Options{EditMessageRef: ev.MessageRef})
	}

	text := fmt.Sprintf("✅ Done: <b>%s</b>", task.Title)
	if r.achievements != nil {
		earned, err := r.achievements.OnDomainEvent(userID, achievements.EventTaskCompleted)
		if err != nil {
			r.logger.Error("achievement evaluation failed", "userID", userID, "error", err)
		}
		text += achievementLines(earned)
	}
	return r.send(ctx, userID, text, messaging.Options{EditMessageRef: ev.MessageRef})
}

// payDebtInFull settles the whole outstanding balance in one payment.
func (r *Router) payDebtInFull(ctx context.Context, userID int64, ev models.Event) error {
	debt, err := r.store.GetDebt(userID, ev.Value)
	if err != nil {
		return err
	}
	if debt == nil || debt.Status != models.DebtActive {
		return r.send(ctx, userID, "That debt is already settled.", messaging.Options{EditMessageRef: ev.MessageRef})
	}

	payment := &models.DebtPayment{
		DebtID: debt.ID,
		UserID: userID,
		Amount: debt.Outstanding(),
		PaidAt: r.now(),
	}
	updated, err := r.store.ApplyDebtPayment(payment)
	if err != nil {
		return err
	}

	text := fmt.Sprintf("🎉 Debt to <b>%s</b> fully settled (%s %s).",
		updated.Person, updated.Amount.String(), updated.Currency)
	if r.achievements != nil && updated.Status == models.DebtPaid {
		earned, err := r.achievements.OnDomainEvent(userID, achievements.EventDebtPaid)
		if err != nil {
			r.logger.Error("achievement evaluation failed", "userID", userID, "error", err)
		}
		text += achievementLines(earned)
	}
	return r.send(ctx, userID, text, messaging.Options{EditMessageRef: ev.MessageRef})
}

// recategorize overrides a quick-entry expense's guessed category.
func (r *Router) recategorize(ctx context.Context, userID int64, ev models.Event) error {
	txID, category, ok := strings.Cut(ev.Value, ":")
	if !ok || !models.ValidCategory(models.ExpenseCategories, category) {
		return r.send(ctx, userID, "That button has expired.", messaging.Options{EditMessageRef: ev.MessageRef})
	}
	if err := r.store.SetTransactionCategory(userID, txID, category); err != nil {
		return err
	}
	text := fmt.Sprintf("📁 Category updated to %s.", models.CategoryLabel(models.ExpenseCategories, category))
	return r.send(ctx, userID, text, messaging.Options{EditMessageRef: ev.MessageRef})
}

// achievementLines formats newly earned badges for appending to a reply.
func achievementLines(earned []models.Achievement) string {
	var b strings.Builder
	for _, a := range earned {
		fmt.Fprintf(&b, "\n\n🏅 <b>%s</b> +%d points", a.Name, a.Points)
	}
	return b.String()
}

// formatMoney renders an amount with its currency for display.
func formatMoney(amount decimal.Decimal, currency string) string {
	if amount.Equal(amount.Truncate(0)) {
		return amount.Truncate(0).String() + " " + currency
	}
	return amount.StringFixed(2) + " " + currency
}
