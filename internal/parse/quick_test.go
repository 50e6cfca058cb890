package parse

import (
	"testing"

	"github.com/shopspring/decimal"

	"github.com/oybekjon/hisobot/internal/models"
)

func mustDecimal(t *testing.T, s string) decimal.Decimal {
	t.Helper()
	d, err := decimal.NewFromString(s)
	if err != nil {
		t.Fatalf("bad decimal literal %q: %v", s, err)
	}
	return d
}

func TestQuickExpense(t *testing.T) {
	entry, ok := Quick("50000 lunch")
	if !ok {
		t.Fatal("expected quick entry match")
	}
	if entry.Type != models.TransactionExpense {
		t.Errorf("type = %s, want expense", entry.Type)
	}
	if !entry.Amount.Equal(mustDecimal(t, "50000")) {
		t.Errorf("amount = %s, want 50000", entry.Amount)
	}
	if entry.Note != "lunch" {
		t.Errorf("note = %q, want lunch", entry.Note)
	}
}

func TestQuickExpenseExplicitMinus(t *testing.T) {
	entry, ok := Quick("-12000 taxi to airport")
	if !ok {
		t.Fatal("expected quick entry match")
	}
	if entry.Type != models.TransactionExpense {
		t.Errorf("type = %s, want expense", entry.Type)
	}
	if entry.Note != "taxi to airport" {
		t.Errorf("note = %q", entry.Note)
	}
}

func TestQuickIncome(t *testing.T) {
	entry, ok := Quick("+1000000 salary")
	if !ok {
		t.Fatal("expected quick entry match")
	}
	if entry.Type != models.TransactionIncome {
		t.Errorf("type = %s, want income", entry.Type)
	}
	if entry.Note != "salary" {
		t.Errorf("note = %q, want salary", entry.Note)
	}
}

func TestQuickIncomeDefaultNote(t *testing.T) {
	entry, ok := Quick("+5000")
	if !ok {
		t.Fatal("expected quick entry match")
	}
	if entry.Note != "Income" {
		t.Errorf("note = %q, want Income", entry.Note)
	}
}

func TestQuickDecimalComma(t *testing.T) {
	entry, ok := Quick("50000,50 groceries")
	if !ok {
		t.Fatal("expected quick entry match")
	}
	if !entry.Amount.Equal(mustDecimal(t, "50000.5")) {
		t.Errorf("amount = %s, want 50000.5", entry.Amount)
	}
}

func TestQuickNoMatch(t *testing.T) {
	for _, in := range []string{"call mom", "lunch 50000", "50000", "", "+0 zero"} {
		if _, ok := Quick(in); ok {
			t.Errorf("Quick(%q) unexpectedly matched", in)
		}
	}
}

func TestAutoCategorize(t *testing.T) {
	cases := []struct {
		note       string
		category   string
		confidence float64
	}{
		{"lunch at cafe", "food", 0.8},
		{"taxi home", "transport", 0.8},
		{"netflix subscription", "entertainment", 0.8},
		{"pharmacy run", "health", 0.8},
		{"electricity bill", "utilities", 0.8},
		{"python course", "education", 0.8},
		{"new laptop", "equipment", 0.8},
		{"office supplies", "work", 0.8},
		{"mystery purchase", "other", 0.5},
	}
	for _, c := range cases {
		category, confidence := AutoCategorize(c.note)
		if category != c.category || confidence != c.confidence {
			t.Errorf("AutoCategorize(%q) = (%s, %.1f), want (%s, %.1f)",
				c.note, category, confidence, c.category, c.confidence)
		}
	}
}
