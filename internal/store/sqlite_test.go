package store

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/oybekjon/hisobot/internal/models"
)

func newSQLiteStore(t *testing.T) *SQLiteStore {
	t.Helper()
	st, err := NewSQLiteStore(WithDSN(filepath.Join(t.TempDir(), "hisobot.db")))
	if err != nil {
		t.Fatalf("NewSQLiteStore failed: %v", err)
	}
	t.Cleanup(func() { st.Close() })
	return st
}

func TestSQLiteSessionRoundTrip(t *testing.T) {
	st := newSQLiteStore(t)

	session := models.IdleSession(7)
	session.Start(models.FlowTransaction, "note", &models.TransactionDraft{
		Type: models.TransactionExpense, Amount: "50000.5", Category: "food",
	})
	if err := st.SaveSession(session); err != nil {
		t.Fatalf("SaveSession failed: %v", err)
	}

	loaded, err := st.LoadSession(7)
	if err != nil {
		t.Fatalf("LoadSession failed: %v", err)
	}
	draft, ok := loaded.Draft.(*models.TransactionDraft)
	if !ok {
		t.Fatalf("draft = %T, want *models.TransactionDraft", loaded.Draft)
	}
	if loaded.Step != "note" || draft.Amount != "50000.5" || draft.Category != "food" {
		t.Errorf("loaded = %+v draft = %+v", loaded, draft)
	}

	// An upsert replaces the previous state.
	session.Step = "confirm"
	if err := st.SaveSession(session); err != nil {
		t.Fatalf("second SaveSession failed: %v", err)
	}
	loaded, _ = st.LoadSession(7)
	if loaded.Step != "confirm" {
		t.Errorf("step = %s, want confirm", loaded.Step)
	}

	if err := st.ClearSession(7); err != nil {
		t.Fatalf("ClearSession failed: %v", err)
	}
	loaded, _ = st.LoadSession(7)
	if !loaded.Idle() {
		t.Error("session still live after clear")
	}
}

func TestSQLiteTaskLifecycle(t *testing.T) {
	st := newSQLiteStore(t)

	task := &models.Task{
		UserID: 1, Title: "call plumber", Priority: models.PriorityHigh,
		Category: "home", Tags: []string{"home", "urgent"},
		Date: "2025-03-01", Time: "09:30", Status: models.TaskPending, CreatedAt: time.Now(),
	}
	if err := st.CreateTask(task); err != nil {
		t.Fatalf("CreateTask failed: %v", err)
	}
	if task.ID == "" {
		t.Fatal("CreateTask did not assign an id")
	}

	done, err := st.CompleteTask(1, task.ID)
	if err != nil {
		t.Fatalf("CompleteTask failed: %v", err)
	}
	if done == nil || done.Status != models.TaskCompleted {
		t.Fatalf("task = %+v", done)
	}
	if len(done.Tags) != 2 || done.Tags[0] != "home" {
		t.Errorf("tags = %v", done.Tags)
	}

	again, err := st.CompleteTask(1, task.ID)
	if err != nil {
		t.Fatalf("second CompleteTask failed: %v", err)
	}
	if again != nil {
		t.Error("completing twice should return nil")
	}

	count, err := st.CountCompletedTasks(1)
	if err != nil {
		t.Fatalf("CountCompletedTasks failed: %v", err)
	}
	if count != 1 {
		t.Errorf("count = %d, want 1", count)
	}
}

func TestSQLiteDebtPayments(t *testing.T) {
	st := newSQLiteStore(t)

	debt := &models.Debt{
		UserID: 1, Type: models.DebtGiven, Person: "Karim",
		Amount: decimal.NewFromInt(100000), AmountPaid: decimal.Zero,
		Currency: models.DefaultCurrency, Date: "2025-03-01",
		DueDate: "2025-04-01", Status: models.DebtActive, CreatedAt: time.Now(),
	}
	if err := st.CreateDebt(debt); err != nil {
		t.Fatalf("CreateDebt failed: %v", err)
	}

	updated, err := st.ApplyDebtPayment(&models.DebtPayment{
		DebtID: debt.ID, UserID: 1, Amount: decimal.NewFromInt(60000), PaidAt: time.Now(),
	})
	if err != nil {
		t.Fatalf("ApplyDebtPayment failed: %v", err)
	}
	if updated.Status != models.DebtActive || !updated.Outstanding().Equal(decimal.NewFromInt(40000)) {
		t.Errorf("after partial payment: %+v", updated)
	}

	updated, err = st.ApplyDebtPayment(&models.DebtPayment{
		DebtID: debt.ID, UserID: 1, Amount: decimal.NewFromInt(40000), PaidAt: time.Now(),
	})
	if err != nil {
		t.Fatalf("final ApplyDebtPayment failed: %v", err)
	}
	if updated.Status != models.DebtPaid || updated.PaidAt == nil {
		t.Errorf("after final payment: %+v", updated)
	}

	active, err := st.ListActiveDebts(1)
	if err != nil {
		t.Fatalf("ListActiveDebts failed: %v", err)
	}
	if len(active) != 0 {
		t.Errorf("active = %v, want none", active)
	}
}

func TestSQLiteBalanceAndRange(t *testing.T) {
	st := newSQLiteStore(t)
	now := time.Date(2025, 3, 15, 12, 0, 0, 0, time.UTC)

	entries := []struct {
		txType   models.TransactionType
		amount   string
		category string
		date     string
	}{
		{models.TransactionIncome, "1000000", "salary", "2025-03-01"},
		{models.TransactionExpense, "50000.5", "food", "2025-03-15"},
		{models.TransactionExpense, "30000", "transport", "2025-03-10"},
		{models.TransactionExpense, "20000", "food", "2025-02-28"},
	}
	for _, e := range entries {
		amount, _ := decimal.NewFromString(e.amount)
		err := st.CreateTransaction(&models.Transaction{
			UserID: 1, Type: e.txType, Amount: amount, Currency: models.DefaultCurrency,
			Category: e.category, Date: e.date, CreatedAt: now,
		})
		if err != nil {
			t.Fatalf("CreateTransaction failed: %v", err)
		}
	}

	summary, err := st.BalanceSummary(1, now)
	if err != nil {
		t.Fatalf("BalanceSummary failed: %v", err)
	}
	wantExpense, _ := decimal.NewFromString("100000.5")
	if !summary.TotalExpense.Equal(wantExpense) {
		t.Errorf("expense = %s, want %s", summary.TotalExpense, wantExpense)
	}
	wantToday, _ := decimal.NewFromString("50000.5")
	if !summary.TodayExpense.Equal(wantToday) {
		t.Errorf("today = %s, want %s", summary.TodayExpense, wantToday)
	}

	report, err := st.RangeReport(1, models.DateRange{Start: "2025-03-01", End: "2025-03-31"})
	if err != nil {
		t.Fatalf("RangeReport failed: %v", err)
	}
	if report.Count != 3 {
		t.Errorf("count = %d, want 3", report.Count)
	}
	wantFood, _ := decimal.NewFromString("50000.5")
	if !report.ByCategory["food"].Equal(wantFood) {
		t.Errorf("food = %s, want %s", report.ByCategory["food"], wantFood)
	}
}

func TestSQLiteAchievements(t *testing.T) {
	st := newSQLiteStore(t)

	a := &models.Achievement{UserID: 1, Kind: "first_task", Name: "First Step", Points: 10, AwardedAt: time.Now()}
	if err := st.SaveAchievement(a); err != nil {
		t.Fatalf("SaveAchievement failed: %v", err)
	}
	// Duplicate insert is ignored.
	if err := st.SaveAchievement(&models.Achievement{UserID: 1, Kind: "first_task", Name: "First Step", Points: 10, AwardedAt: time.Now()}); err != nil {
		t.Fatalf("second SaveAchievement failed: %v", err)
	}

	held, err := st.HasAchievement(1, "first_task")
	if err != nil {
		t.Fatalf("HasAchievement failed: %v", err)
	}
	if !held {
		t.Error("achievement not recorded")
	}
}
