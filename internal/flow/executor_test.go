package flow

import (
	"errors"
	"testing"

	"github.com/oybekjon/hisobot/internal/models"
	"github.com/oybekjon/hisobot/internal/store"
)

func startFlow(t *testing.T, st store.Store, userID int64, flowType models.FlowType, draft models.Draft) *Executor {
	t.Helper()
	exec := NewExecutor(st, nil)
	if _, err := exec.Start(userID, flowType, draft); err != nil {
		t.Fatalf("Start(%s) failed: %v", flowType, err)
	}
	return exec
}

func loadSession(t *testing.T, st store.Store, userID int64) *models.Session {
	t.Helper()
	session, err := st.LoadSession(userID)
	if err != nil {
		t.Fatalf("LoadSession failed: %v", err)
	}
	return session
}

func TestStartPresentsEntryStep(t *testing.T) {
	st := store.NewInMemoryStore()
	exec := NewExecutor(st, nil)

	res, err := exec.Start(1, models.FlowTask, nil)
	if err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	if res.Kind != ResultAdvanced || res.Step != "title" {
		t.Errorf("got kind=%s step=%s, want advanced/title", res.Kind, res.Step)
	}

	session := loadSession(t, st, 1)
	if session.Flow != models.FlowTask || session.Step != "title" {
		t.Errorf("session = %s/%s, want task/title", session.Flow, session.Step)
	}
}

func TestStartOverwritesLiveSession(t *testing.T) {
	st := store.NewInMemoryStore()
	exec := startFlow(t, st, 1, models.FlowTask, nil)

	if _, err := exec.Start(1, models.FlowDateRange, nil); err != nil {
		t.Fatalf("second Start failed: %v", err)
	}
	session := loadSession(t, st, 1)
	if session.Flow != models.FlowDateRange || session.Step != "start" {
		t.Errorf("session = %s/%s, want daterange/start", session.Flow, session.Step)
	}
}

func TestAdvanceRejectsIdleSession(t *testing.T) {
	st := store.NewInMemoryStore()
	exec := NewExecutor(st, nil)

	_, err := exec.Advance(models.IdleSession(1), models.TextEvent("hello"))
	if !errors.Is(err, ErrNoSession) {
		t.Errorf("err = %v, want ErrNoSession", err)
	}
}

func TestValidationFailureLeavesSessionUntouched(t *testing.T) {
	st := store.NewInMemoryStore()
	exec := startFlow(t, st, 1, models.FlowTransaction, &models.TransactionDraft{Type: models.TransactionExpense})

	session := loadSession(t, st, 1)
	res, err := exec.Advance(session, models.TextEvent("not a number"))
	if err != nil {
		t.Fatalf("Advance failed: %v", err)
	}
	if res.Kind != ResultReprompt {
		t.Fatalf("kind = %s, want reprompt", res.Kind)
	}
	if res.Reason == "" {
		t.Error("reprompt carries no reason")
	}

	stored := loadSession(t, st, 1)
	if stored.Step != "amount" {
		t.Errorf("stored step = %s, want amount", stored.Step)
	}
	if stored.Draft.(*models.TransactionDraft).Amount != "" {
		t.Error("draft amount written despite rejection")
	}
}

func TestTaskFlowWalkToConfirm(t *testing.T) {
	st := store.NewInMemoryStore()
	exec := startFlow(t, st, 1, models.FlowTask, nil)

	steps := []struct {
		ev       models.Event
		wantStep string
	}{
		{models.TextEvent("call plumber #home"), "priority"},
		{models.CallbackEvent(ActionTaskPriority, "high", 10), "category"},
		{models.CallbackEvent(ActionTaskCategory, "home", 10), "date"},
		{models.TextEvent("2025-03-01"), "time"},
		{models.TextEvent("9:30"), models.StepConfirm},
	}
	for _, s := range steps {
		session := loadSession(t, st, 1)
		res, err := exec.Advance(session, s.ev)
		if err != nil {
			t.Fatalf("Advance at %s failed: %v", session.Step, err)
		}
		if res.Kind == ResultReprompt {
			t.Fatalf("unexpected reprompt at %s: %s", session.Step, res.Reason)
		}
		if res.Step != s.wantStep {
			t.Fatalf("stepped to %s, want %s", res.Step, s.wantStep)
		}
	}

	session := loadSession(t, st, 1)
	draft := session.Draft.(*models.TaskDraft)
	if draft.Title != "call plumber" || len(draft.Tags) != 1 || draft.Tags[0] != "home" {
		t.Errorf("draft title/tags = %q/%v", draft.Title, draft.Tags)
	}
	if draft.Priority != models.PriorityHigh || draft.Category != "home" {
		t.Errorf("draft priority/category = %s/%s", draft.Priority, draft.Category)
	}
	if draft.Date != "2025-03-01" || draft.Time != "09:30" {
		t.Errorf("draft date/time = %s/%s", draft.Date, draft.Time)
	}
}

func TestConfirmStepShowsSummaryWithKeyboard(t *testing.T) {
	st := store.NewInMemoryStore()
	exec := startFlow(t, st, 1, models.FlowPayment, &models.PaymentDraft{DebtID: "d1"})

	session := loadSession(t, st, 1)
	res, err := exec.Advance(session, models.TextEvent("5000"))
	if err != nil {
		t.Fatalf("Advance failed: %v", err)
	}
	if res.Kind != ResultConfirm || !res.AutoCommit {
		t.Errorf("kind=%s autoCommit=%v, want confirm with auto commit", res.Kind, res.AutoCommit)
	}
	if len(res.Keyboard) != 0 {
		t.Error("auto-committing flow should not offer a confirm keyboard")
	}
}

func TestExplicitConfirmKeyboard(t *testing.T) {
	st := store.NewInMemoryStore()
	exec := startFlow(t, st, 1, models.FlowTransaction, &models.TransactionDraft{Type: models.TransactionExpense})

	for _, ev := range []models.Event{
		models.TextEvent("50000"),
		models.CallbackEvent(ActionTxCategory, "food", 10),
		models.TextEvent("lunch"),
	} {
		session := loadSession(t, st, 1)
		if _, err := exec.Advance(session, ev); err != nil {
			t.Fatalf("Advance failed: %v", err)
		}
	}

	session := loadSession(t, st, 1)
	if session.Step != models.StepConfirm {
		t.Fatalf("step = %s, want confirm", session.Step)
	}
	res, err := exec.Advance(session, models.TextEvent("what now?"))
	if err != nil {
		t.Fatalf("Advance at confirm failed: %v", err)
	}
	if res.Kind != ResultConfirm || res.AutoCommit {
		t.Errorf("kind=%s autoCommit=%v, want explicit confirm", res.Kind, res.AutoCommit)
	}
	if len(res.Keyboard) != 1 || len(res.Keyboard[0]) != 2 {
		t.Errorf("confirm keyboard = %v, want one yes/cancel row", res.Keyboard)
	}
}

func TestSkipOptionalStep(t *testing.T) {
	st := store.NewInMemoryStore()
	exec := startFlow(t, st, 1, models.FlowTask, nil)

	for _, ev := range []models.Event{
		models.TextEvent("water plants"),
		models.CallbackEvent(ActionTaskPriority, "low", 10),
		models.CallbackEvent(ActionTaskCategory, "home", 10),
	} {
		session := loadSession(t, st, 1)
		if _, err := exec.Advance(session, ev); err != nil {
			t.Fatalf("Advance failed: %v", err)
		}
	}

	session := loadSession(t, st, 1)
	res, err := exec.Advance(session, models.CommandEvent("skip", ""))
	if err != nil {
		t.Fatalf("skip failed: %v", err)
	}
	if res.Step != "time" {
		t.Errorf("stepped to %s, want time", res.Step)
	}
	if session.Draft.(*models.TaskDraft).Date != "" {
		t.Error("skip wrote a date")
	}
}

func TestSkipRejectedOnRequiredStep(t *testing.T) {
	st := store.NewInMemoryStore()
	exec := startFlow(t, st, 1, models.FlowDebt, &models.DebtDraft{Type: models.DebtGiven})

	session := loadSession(t, st, 1)
	res, err := exec.Advance(session, models.TextEvent("/skip"))
	if err != nil {
		t.Fatalf("Advance failed: %v", err)
	}
	if res.Kind != ResultReprompt {
		t.Errorf("kind = %s, want reprompt (person is required)", res.Kind)
	}
}

func TestSessionSaveFailureRollsBackStep(t *testing.T) {
	st := store.NewInMemoryStore()
	exec := startFlow(t, st, 1, models.FlowDateRange, nil)

	session := loadSession(t, st, 1)
	st.SessionSaveErr = errors.New("disk full")
	_, err := exec.Advance(session, models.TextEvent("2025-03-01"))
	var serr *models.SessionStoreError
	if !errors.As(err, &serr) {
		t.Fatalf("err = %v, want SessionStoreError", err)
	}
	if session.Step != "start" {
		t.Errorf("in-memory step = %s, want rolled back to start", session.Step)
	}
	if draft := session.Draft.(*models.DateRangeDraft); draft.Start != "" {
		t.Errorf("in-memory draft start = %q, want rolled back to empty", draft.Start)
	}

	st.SessionSaveErr = nil
	stored := loadSession(t, st, 1)
	if stored.Step != "start" {
		t.Errorf("stored step = %s, want start", stored.Step)
	}

	// The same session object must still accept the retried input.
	res, err := exec.Advance(session, models.TextEvent("2025-03-01"))
	if err != nil {
		t.Fatalf("retry failed: %v", err)
	}
	if res.Kind != ResultAdvanced || res.Step != "end" {
		t.Errorf("retry result = %s/%s, want advanced/end", res.Kind, res.Step)
	}
}

func TestDateRangeEndBeforeStartRejected(t *testing.T) {
	st := store.NewInMemoryStore()
	exec := startFlow(t, st, 1, models.FlowDateRange, nil)

	session := loadSession(t, st, 1)
	if _, err := exec.Advance(session, models.TextEvent("2025-03-10")); err != nil {
		t.Fatalf("start date rejected: %v", err)
	}

	session = loadSession(t, st, 1)
	res, err := exec.Advance(session, models.TextEvent("2025-03-01"))
	if err != nil {
		t.Fatalf("Advance failed: %v", err)
	}
	if res.Kind != ResultReprompt {
		t.Fatalf("kind = %s, want reprompt", res.Kind)
	}

	session = loadSession(t, st, 1)
	res, err = exec.Advance(session, models.TextEvent("2025-03-10"))
	if err != nil {
		t.Fatalf("Advance failed: %v", err)
	}
	if res.Kind != ResultConfirm {
		t.Errorf("kind = %s, want confirm (start == end is allowed)", res.Kind)
	}
}

func TestCallbackActionMismatchReprompts(t *testing.T) {
	st := store.NewInMemoryStore()
	exec := startFlow(t, st, 1, models.FlowTask, nil)

	session := loadSession(t, st, 1)
	if _, err := exec.Advance(session, models.TextEvent("buy milk")); err != nil {
		t.Fatalf("title rejected: %v", err)
	}

	session = loadSession(t, st, 1)
	res, err := exec.Advance(session, models.CallbackEvent(ActionTaskCategory, "home", 10))
	if err != nil {
		t.Fatalf("Advance failed: %v", err)
	}
	if res.Kind != ResultReprompt {
		t.Errorf("kind = %s, want reprompt for foreign callback", res.Kind)
	}
}
