package achievements

import (
	"testing"

	"github.com/oybekjon/hisobot/internal/models"
	"github.com/oybekjon/hisobot/internal/store"
)

func seedCompletedTasks(t *testing.T, st *store.InMemoryStore, userID int64, n int) {
	t.Helper()
	for i := 0; i < n; i++ {
		task := &models.Task{UserID: userID, Title: "t", Status: models.TaskPending}
		if err := st.CreateTask(task); err != nil {
			t.Fatalf("CreateTask failed: %v", err)
		}
		if _, err := st.CompleteTask(userID, task.ID); err != nil {
			t.Fatalf("CompleteTask failed: %v", err)
		}
	}
}

func TestFirstTaskBadge(t *testing.T) {
	st := store.NewInMemoryStore()
	ev := NewEvaluator(st, nil)

	seedCompletedTasks(t, st, 1, 1)
	earned, err := ev.OnDomainEvent(1, EventTaskCompleted)
	if err != nil {
		t.Fatalf("OnDomainEvent failed: %v", err)
	}
	if len(earned) != 1 || earned[0].Kind != "first_task" {
		t.Fatalf("earned = %v, want [first_task]", earned)
	}
	if earned[0].Points != 10 {
		t.Errorf("points = %d, want 10", earned[0].Points)
	}
}

func TestBadgeNotAwardedTwice(t *testing.T) {
	st := store.NewInMemoryStore()
	ev := NewEvaluator(st, nil)

	seedCompletedTasks(t, st, 1, 1)
	if _, err := ev.OnDomainEvent(1, EventTaskCompleted); err != nil {
		t.Fatalf("first OnDomainEvent failed: %v", err)
	}

	seedCompletedTasks(t, st, 1, 1)
	earned, err := ev.OnDomainEvent(1, EventTaskCompleted)
	if err != nil {
		t.Fatalf("second OnDomainEvent failed: %v", err)
	}
	if len(earned) != 0 {
		t.Errorf("earned = %v, want none at 2 tasks", earned)
	}
}

func TestMilestoneCatchUp(t *testing.T) {
	st := store.NewInMemoryStore()
	ev := NewEvaluator(st, nil)

	// Imported history can put the count past several milestones at once.
	seedCompletedTasks(t, st, 1, 50)
	earned, err := ev.OnDomainEvent(1, EventTaskCompleted)
	if err != nil {
		t.Fatalf("OnDomainEvent failed: %v", err)
	}
	kinds := make(map[string]bool, len(earned))
	for _, a := range earned {
		kinds[a.Kind] = true
	}
	for _, want := range []string{"first_task", "tasks_10", "tasks_50"} {
		if !kinds[want] {
			t.Errorf("missing badge %s in %v", want, earned)
		}
	}
	if kinds["tasks_100"] {
		t.Error("tasks_100 awarded at 50 tasks")
	}
}

func TestDebtPaidBadge(t *testing.T) {
	st := store.NewInMemoryStore()
	ev := NewEvaluator(st, nil)

	earned, err := ev.OnDomainEvent(1, EventDebtPaid)
	if err != nil {
		t.Fatalf("OnDomainEvent failed: %v", err)
	}
	if len(earned) != 1 || earned[0].Kind != "debt_free" {
		t.Fatalf("earned = %v, want [debt_free]", earned)
	}

	earned, err = ev.OnDomainEvent(1, EventDebtPaid)
	if err != nil {
		t.Fatalf("second OnDomainEvent failed: %v", err)
	}
	if len(earned) != 0 {
		t.Errorf("earned = %v, want none", earned)
	}
}

func TestUnknownEventEarnsNothing(t *testing.T) {
	st := store.NewInMemoryStore()
	ev := NewEvaluator(st, nil)

	earned, err := ev.OnDomainEvent(1, "sun_rose")
	if err != nil {
		t.Fatalf("OnDomainEvent failed: %v", err)
	}
	if earned != nil {
		t.Errorf("earned = %v, want nil", earned)
	}
}
