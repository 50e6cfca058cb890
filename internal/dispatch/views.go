package dispatch

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/oybekjon/hisobot/internal/flow"
	"github.com/oybekjon/hisobot/internal/messaging"
	"github.com/oybekjon/hisobot/internal/models"
)

const welcomeText = `👋 <b>Welcome to Hisobot!</b>

I keep track of your tasks, money, and debts.

Quick entry works any time:
• <code>50000 lunch</code> records an expense
• <code>+1000000 salary</code> records income

Use the menu below or /help for commands.`

const helpText = `<b>Commands</b>

/task - add a task
/expense - add an expense
/income - add income
/lent - record money you lent
/borrowed - record money you borrowed
/balance - income, expenses, and balance
/debts - active debts
/range - report for a custom date range
/import - restore from a JSON export
/cancel - abandon the current entry
/skip - skip an optional question

<b>Quick entry</b>
<code>50000 lunch</code> · <code>-12000 taxi</code> · <code>+1000000 salary</code>`

const fallbackText = `🤔 I did not catch that.

Try quick entry like <code>50000 lunch</code>, or /help for commands.`

// sendBalance renders the stateless balance view.
func (r *Router) sendBalance(ctx context.Context, userID int64) error {
	summary, err := r.store.BalanceSummary(userID, r.now())
	if err != nil {
		return err
	}

	var b strings.Builder
	b.WriteString("💰 <b>Balance</b>\n\n")
	fmt.Fprintf(&b, "📈 Income: %s\n", formatMoney(summary.TotalIncome, models.DefaultCurrency))
	fmt.Fprintf(&b, "📉 Expenses: %s\n", formatMoney(summary.TotalExpense, models.DefaultCurrency))
	fmt.Fprintf(&b, "💵 Balance: %s\n\n", formatMoney(summary.Balance(), models.DefaultCurrency))
	fmt.Fprintf(&b, "📅 Spent today: %s\n", formatMoney(summary.TodayExpense, models.DefaultCurrency))
	fmt.Fprintf(&b, "🗓 Spent this month: %s", formatMoney(summary.MonthExpense, models.DefaultCurrency))
	return r.send(ctx, userID, b.String(), messaging.Options{})
}

// sendActiveDebts renders the stateless debts view with per-debt payment
// buttons.
func (r *Router) sendActiveDebts(ctx context.Context, userID int64) error {
	debts, err := r.store.ListActiveDebts(userID)
	if err != nil {
		return err
	}
	if len(debts) == 0 {
		return r.send(ctx, userID, "📋 No active debts. 🎉", messaging.Options{})
	}

	var b strings.Builder
	var kb models.Keyboard
	b.WriteString("📋 <b>Active Debts</b>\n")
	for _, debt := range debts {
		direction := "📤 lent to"
		if debt.Type == models.DebtReceived {
			direction = "📥 borrowed from"
		}
		fmt.Fprintf(&b, "\n%s <b>%s</b>: %s outstanding",
			direction, debt.Person, formatMoney(debt.Outstanding(), debt.Currency))
		if debt.DueDate != "" {
			fmt.Fprintf(&b, " (due %s)", debt.DueDate)
		}
		kb = append(kb, []models.Button{
			{Label: "💵 Pay part · " + debt.Person, Action: actionDebtPartial, Value: debt.ID},
			{Label: "✅ Settle · " + debt.Person, Action: actionDebtPayFull, Value: debt.ID},
		})
	}
	return r.send(ctx, userID, b.String(), messaging.Options{Keyboard: kb})
}

// renderCommitted formats a successful commit, with follow-up buttons where
// the record supports them.
func (r *Router) renderCommitted(userID int64, res *flow.Result) (string, error) {
	text, kb, err := r.committedMessage(userID, res)
	if err != nil {
		return "", err
	}
	res.Keyboard = kb
	return text + achievementLines(res.Achievements), nil
}

func (r *Router) committedMessage(userID int64, res *flow.Result) (string, models.Keyboard, error) {
	switch record := res.Record.(type) {
	case *models.Task:
		text := fmt.Sprintf("✅ Task saved: <b>%s</b>\n📅 %s", record.Title, record.Date)
		if record.Time != "" {
			text += " " + record.Time
		}
		kb := models.Keyboard{{{Label: "✅ Done", Action: actionTaskDone, Value: record.ID}}}
		return text, kb, nil

	case *models.Transaction:
		icon := "💸 Expense"
		if record.Type == models.TransactionIncome {
			icon = "💵 Income"
		}
		text := fmt.Sprintf("%s recorded: <b>%s</b>", icon, formatMoney(record.Amount, record.Currency))
		if record.Note != "" {
			text += "\n📝 " + record.Note
		}
		return text, nil, nil

	case *models.Debt:
		if res.Flow == models.FlowPayment {
			if record.Status == models.DebtPaid {
				return fmt.Sprintf("🎉 Debt to <b>%s</b> fully settled.", record.Person), nil, nil
			}
			text := fmt.Sprintf("💵 Payment recorded.\n<b>%s</b>: %s outstanding.",
				record.Person, formatMoney(record.Outstanding(), record.Currency))
			return text, nil, nil
		}
		direction := "lent to"
		if record.Type == models.DebtReceived {
			direction = "borrowed from"
		}
		text := fmt.Sprintf("🤝 Recorded: %s <b>%s</b>, %s",
			direction, record.Person, formatMoney(record.Amount, record.Currency))
		if record.DueDate != "" {
			text += "\n📅 Due " + record.DueDate
		}
		kb := models.Keyboard{{
			{Label: "💵 Pay part", Action: actionDebtPartial, Value: record.ID},
			{Label: "✅ Settle", Action: actionDebtPayFull, Value: record.ID},
		}}
		return text, kb, nil

	case *models.DateRange:
		report, err := r.store.RangeReport(userID, *record)
		if err != nil {
			return "", nil, err
		}
		return renderRangeReport(report), nil, nil

	case *models.ImportReport:
		text := fmt.Sprintf("📥 <b>Import finished</b>\n\n📝 Tasks: %d\n💰 Transactions: %d\n🤝 Debts: %d",
			record.Tasks, record.Transactions, record.Debts)
		if record.Skipped > 0 {
			text += fmt.Sprintf("\n⚠️ Skipped rows: %d", record.Skipped)
		}
		return text, nil, nil
	}
	return "✅ Saved.", nil, nil
}

func renderRangeReport(report *models.RangeReport) string {
	var b strings.Builder
	fmt.Fprintf(&b, "🔍 <b>Report %s to %s</b>\n\n", report.Range.Start, report.Range.End)
	fmt.Fprintf(&b, "📈 Income: %s\n", formatMoney(report.Income, models.DefaultCurrency))
	fmt.Fprintf(&b, "📉 Expenses: %s\n", formatMoney(report.Expense, models.DefaultCurrency))
	fmt.Fprintf(&b, "🧾 Entries: %d\n", report.Count)

	if len(report.ByCategory) > 0 {
		b.WriteString("\n<b>Expenses by category</b>\n")
		categories := make([]string, 0, len(report.ByCategory))
		for category := range report.ByCategory {
			categories = append(categories, category)
		}
		sort.Slice(categories, func(i, j int) bool {
			return report.ByCategory[categories[i]].GreaterThan(report.ByCategory[categories[j]])
		})
		for _, category := range categories {
			fmt.Fprintf(&b, "%s: %s\n",
				models.CategoryLabel(models.ExpenseCategories, category),
				formatMoney(report.ByCategory[category], models.DefaultCurrency))
		}
	}
	return strings.TrimRight(b.String(), "\n")
}
