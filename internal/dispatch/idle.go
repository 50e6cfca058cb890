package dispatch

import (
	"context"
	"fmt"

	"github.com/oybekjon/hisobot/internal/messaging"
	"github.com/oybekjon/hisobot/internal/models"
	"github.com/oybekjon/hisobot/internal/parse"
)

// mainMenuLabels is the persistent reply keyboard shown by /start.
var mainMenuLabels = [][]string{
	{"📝 New Task", "💸 New Expense"},
	{"💵 New Income", "💰 Balance"},
	{"📤 I Lent", "📥 I Borrowed"},
	{"📋 Active Debts", "🔍 Custom Range"},
	{"📥 Import"},
}

// isMenuLabel reports whether text is one of the reply keyboard labels.
func isMenuLabel(text string) bool {
	for _, row := range mainMenuLabels {
		for _, label := range row {
			if text == label {
				return true
			}
		}
	}
	return false
}

// handleIdleText resolves free text with no flow in progress: menu labels
// first, then quick-entry shorthands, then the interpreter.
func (r *Router) handleIdleText(ctx context.Context, userID int64, ev models.Event) error {
	switch ev.Text {
	case "📝 New Task":
		return r.startFlow(ctx, userID, models.FlowTask, nil)
	case "💸 New Expense":
		return r.startFlow(ctx, userID, models.FlowTransaction, &models.TransactionDraft{Type: models.TransactionExpense})
	case "💵 New Income":
		return r.startFlow(ctx, userID, models.FlowTransaction, &models.TransactionDraft{Type: models.TransactionIncome})
	case "📤 I Lent":
		return r.startFlow(ctx, userID, models.FlowDebt, &models.DebtDraft{Type: models.DebtGiven})
	case "📥 I Borrowed":
		return r.startFlow(ctx, userID, models.FlowDebt, &models.DebtDraft{Type: models.DebtReceived})
	case "🔍 Custom Range":
		return r.startFlow(ctx, userID, models.FlowDateRange, nil)
	case "📥 Import":
		return r.startFlow(ctx, userID, models.FlowImport, nil)
	case "💰 Balance":
		return r.sendBalance(ctx, userID)
	case "📋 Active Debts":
		return r.sendActiveDebts(ctx, userID)
	}

	if entry, ok := parse.Quick(ev.Text); ok {
		return r.commitQuickEntry(ctx, userID, entry)
	}

	return r.interpret(ctx, userID, ev.Text)
}

// commitQuickEntry saves a one-message transaction immediately. Expenses
// get a guessed category plus buttons to override it.
func (r *Router) commitQuickEntry(ctx context.Context, userID int64, entry parse.QuickEntry) error {
	now := r.now()
	tx := &models.Transaction{
		UserID:    userID,
		Type:      entry.Type,
		Amount:    entry.Amount,
		Currency:  models.DefaultCurrency,
		Note:      entry.Note,
		Date:      now.Format(parse.DateLayout),
		CreatedAt: now,
	}
	if entry.Type == models.TransactionExpense {
		tx.Category, tx.Confidence = parse.AutoCategorize(entry.Note)
		tx.AutoCategorized = true
	} else {
		tx.Category = "other"
	}
	if err := r.store.CreateTransaction(tx); err != nil {
		return err
	}
	r.logger.Info("quick entry committed", "userID", userID, "type", tx.Type, "category", tx.Category)

	if tx.Type == models.TransactionIncome {
		text := fmt.Sprintf("💵 Income recorded: <b>%s</b>\n📝 %s", formatMoney(tx.Amount, tx.Currency), tx.Note)
		return r.send(ctx, userID, text, messaging.Options{})
	}

	text := fmt.Sprintf("💸 Expense recorded: <b>%s</b>\n📝 %s\n📁 %s (guessed)",
		formatMoney(tx.Amount, tx.Currency), tx.Note, models.CategoryLabel(models.ExpenseCategories, tx.Category))
	return r.send(ctx, userID, text, messaging.Options{Keyboard: recatKeyboard(tx.ID)})
}

// recatKeyboard offers category overrides for an auto-categorized expense.
func recatKeyboard(txID string) models.Keyboard {
	var kb models.Keyboard
	var row []models.Button
	for _, opt := range models.ExpenseCategories {
		row = append(row, models.Button{Label: opt.Label, Action: actionRecat, Value: txID + ":" + opt.Key})
		if len(row) == 3 {
			kb = append(kb, row)
			row = nil
		}
	}
	if len(row) > 0 {
		kb = append(kb, row)
	}
	return kb
}

// interpret asks the classifier what an unmatched message means and starts
// the matching flow with whatever it extracted.
func (r *Router) interpret(ctx context.Context, userID int64, text string) error {
	if r.interpreter == nil {
		return r.send(ctx, userID, fallbackText, messaging.Options{})
	}

	suggestion, err := r.interpreter.Interpret(ctx, text)
	if err != nil {
		r.logger.Error("interpreter failed", "userID", userID, "error", err)
		return r.send(ctx, userID, fallbackText, messaging.Options{})
	}

	switch suggestion.Intent {
	case "task":
		draft := &models.TaskDraft{}
		if suggestion.Title != "" {
			draft.Title, draft.Tags = parse.TitleTags(suggestion.Title)
		}
		if draft.Title == "" {
			return r.startFlow(ctx, userID, models.FlowTask, nil)
		}
		// Title already known; resume at the next question.
		res, err := r.executor.Start(userID, models.FlowTask, draft)
		if err != nil {
			return err
		}
		session, err := r.store.LoadSession(userID)
		if err != nil {
			return &models.SessionStoreError{Err: err}
		}
		advanced, err := r.executor.Advance(session, models.TextEvent(suggestion.Title))
		if err != nil {
			return r.deliver(ctx, userID, res, models.Event{})
		}
		return r.deliver(ctx, userID, advanced, models.Event{})
	case "expense", "income":
		if amount, err := parse.PositiveAmount(suggestion.Amount); err == nil {
			entry := parse.QuickEntry{Type: models.TransactionExpense, Amount: amount, Note: suggestion.Note}
			if suggestion.Intent == "income" {
				entry.Type = models.TransactionIncome
				if entry.Note == "" {
					entry.Note = "Income"
				}
			}
			if entry.Note == "" {
				entry.Note = text
			}
			return r.commitQuickEntry(ctx, userID, entry)
		}
		draftType := models.TransactionExpense
		if suggestion.Intent == "income" {
			draftType = models.TransactionIncome
		}
		return r.startFlow(ctx, userID, models.FlowTransaction, &models.TransactionDraft{Type: draftType})
	}

	return r.send(ctx, userID, fallbackText, messaging.Options{})
}
