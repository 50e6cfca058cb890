package parse

import (
	"regexp"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/oybekjon/hisobot/internal/models"
)

// QuickEntry is a one-message transaction shorthand recognized when no flow
// is active: "50000 lunch" (expense), "-50000 lunch" (expense),
// "+1000000 salary" (income).
type QuickEntry struct {
	Type   models.TransactionType
	Amount decimal.Decimal
	Note   string
}

var (
	quickIncomePattern  = regexp.MustCompile(`^\+\s*(\d+(?:[.,]\d+)?)\s*(.*)$`)
	quickExpensePattern = regexp.MustCompile(`^-?\s*(\d+(?:[.,]\d+)?)\s+(.+)$`)
)

// Quick matches the quick-entry shorthands against free text. The second
// return value is false when the text is not a shorthand.
func Quick(text string) (QuickEntry, bool) {
	text = strings.TrimSpace(text)

	if m := quickIncomePattern.FindStringSubmatch(text); m != nil {
		amount, err := decimal.NewFromString(strings.ReplaceAll(m[1], ",", "."))
		if err == nil && amount.IsPositive() {
			note := strings.TrimSpace(m[2])
			if note == "" {
				note = "Income"
			}
			return QuickEntry{Type: models.TransactionIncome, Amount: amount, Note: note}, true
		}
	}

	if m := quickExpensePattern.FindStringSubmatch(text); m != nil {
		amount, err := decimal.NewFromString(strings.ReplaceAll(m[1], ",", "."))
		if err == nil && amount.IsPositive() {
			return QuickEntry{Type: models.TransactionExpense, Amount: amount, Note: strings.TrimSpace(m[2])}, true
		}
	}

	return QuickEntry{}, false
}

// categoryKeywords drives note-based auto-categorization of expenses.
var categoryKeywords = []struct {
	category string
	keywords []string
}{
	{"food", []string{"food", "lunch", "dinner", "breakfast", "restaurant", "cafe", "coffee", "grocery", "supermarket", "pizza", "burger"}},
	{"transport", []string{"taxi", "uber", "bus", "metro", "gas", "fuel", "petrol", "parking", "car", "train", "flight"}},
	{"entertainment", []string{"movie", "cinema", "concert", "game", "netflix", "spotify", "subscription", "party"}},
	{"health", []string{"pharmacy", "medicine", "doctor", "hospital", "gym", "fitness", "health"}},
	{"utilities", []string{"electricity", "water", "internet", "phone", "rent", "bill"}},
	{"education", []string{"book", "course", "school", "university", "training", "lesson"}},
	{"equipment", []string{"laptop", "phone", "computer", "device", "electronics", "tech"}},
	{"work", []string{"office", "supplies", "business", "work"}},
}

// AutoCategorize guesses an expense category from a free-text note by
// keyword match against the category tables. Unmatched notes land in
// "other" with low confidence.
func AutoCategorize(note string) (category string, confidence float64) {
	lowered := strings.ToLower(note)
	for _, entry := range categoryKeywords {
		for _, keyword := range entry.keywords {
			if strings.Contains(lowered, keyword) {
				return entry.category, 0.8
			}
		}
	}
	return "other", 0.5
}
