package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/oybekjon/hisobot/internal/models"
)

type recordingHandler struct {
	userID int64
	event  models.Event
	calls  int
	err    error
}

func (h *recordingHandler) HandleEvent(_ context.Context, userID int64, ev models.Event) error {
	h.userID = userID
	h.event = ev
	h.calls++
	return h.err
}

func newTestServer(handler EventHandler, options ...Option) *Server {
	return NewServer(handler, nil, options...)
}

// messageUpdate is a minimal Telegram update carrying a text message.
const messageUpdate = `{
	"update_id": 1,
	"message": {
		"message_id": 10,
		"from": {"id": 42, "is_bot": false, "first_name": "Test"},
		"chat": {"id": 42, "type": "private"},
		"date": 1700000000,
		"text": "50000 lunch"
	}
}`

const callbackUpdate = `{
	"update_id": 2,
	"callback_query": {
		"id": "cb1",
		"from": {"id": 42, "is_bot": false, "first_name": "Test"},
		"message": {
			"message_id": 11,
			"chat": {"id": 42, "type": "private"},
			"date": 1700000000
		},
		"data": "task_done:abc"
	}
}`

func TestWebhookDeliversTextEvent(t *testing.T) {
	handler := &recordingHandler{}
	srv := newTestServer(handler)

	req := httptest.NewRequest(http.MethodPost, "/webhook", strings.NewReader(messageUpdate))
	rec := httptest.NewRecorder()
	srv.webhookHandler(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if handler.calls != 1 {
		t.Fatalf("handler called %d times, want 1", handler.calls)
	}
	if handler.userID != 42 {
		t.Errorf("userID = %d, want 42", handler.userID)
	}
	if handler.event.Kind != models.EventText || handler.event.Text != "50000 lunch" {
		t.Errorf("event = %+v", handler.event)
	}
}

func TestWebhookDeliversCallbackEvent(t *testing.T) {
	handler := &recordingHandler{}
	srv := newTestServer(handler)

	req := httptest.NewRequest(http.MethodPost, "/webhook", strings.NewReader(callbackUpdate))
	rec := httptest.NewRecorder()
	srv.webhookHandler(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	ev := handler.event
	if ev.Kind != models.EventCallback || ev.Action != "task_done" || ev.Value != "abc" {
		t.Errorf("event = %+v", ev)
	}
	if ev.MessageRef != 11 {
		t.Errorf("messageRef = %d, want 11", ev.MessageRef)
	}
}

func TestWebhookRejectsNonPost(t *testing.T) {
	srv := newTestServer(&recordingHandler{})

	req := httptest.NewRequest(http.MethodGet, "/webhook", nil)
	rec := httptest.NewRecorder()
	srv.webhookHandler(rec, req)

	if rec.Code != http.StatusMethodNotAllowed {
		t.Errorf("status = %d, want 405", rec.Code)
	}
}

func TestWebhookSecretTokenMismatch(t *testing.T) {
	handler := &recordingHandler{}
	srv := newTestServer(handler, WithSecretToken("s3cret"))

	req := httptest.NewRequest(http.MethodPost, "/webhook", strings.NewReader(messageUpdate))
	req.Header.Set("X-Telegram-Bot-Api-Secret-Token", "wrong")
	rec := httptest.NewRecorder()
	srv.webhookHandler(rec, req)

	if rec.Code != http.StatusForbidden {
		t.Fatalf("status = %d, want 403", rec.Code)
	}
	if handler.calls != 0 {
		t.Error("handler called despite bad secret")
	}
}

func TestWebhookSecretTokenMatch(t *testing.T) {
	handler := &recordingHandler{}
	srv := newTestServer(handler, WithSecretToken("s3cret"))

	req := httptest.NewRequest(http.MethodPost, "/webhook", strings.NewReader(messageUpdate))
	req.Header.Set("X-Telegram-Bot-Api-Secret-Token", "s3cret")
	rec := httptest.NewRecorder()
	srv.webhookHandler(rec, req)

	if rec.Code != http.StatusOK || handler.calls != 1 {
		t.Errorf("status = %d calls = %d", rec.Code, handler.calls)
	}
}

func TestWebhookBadJSON(t *testing.T) {
	srv := newTestServer(&recordingHandler{})

	req := httptest.NewRequest(http.MethodPost, "/webhook", strings.NewReader("{not json"))
	rec := httptest.NewRecorder()
	srv.webhookHandler(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
	var resp models.APIResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("response is not JSON: %v", err)
	}
	if resp.Status != "error" {
		t.Errorf("status field = %q, want error", resp.Status)
	}
}

func TestWebhookAcknowledgesUnhandledUpdates(t *testing.T) {
	handler := &recordingHandler{}
	srv := newTestServer(handler)

	// An update with no message or callback should be ACKed, not retried.
	req := httptest.NewRequest(http.MethodPost, "/webhook", strings.NewReader(`{"update_id": 3}`))
	rec := httptest.NewRecorder()
	srv.webhookHandler(rec, req)

	if rec.Code != http.StatusOK {
		t.Errorf("status = %d, want 200", rec.Code)
	}
	if handler.calls != 0 {
		t.Error("handler called for an unhandled update")
	}
}

func TestWebhookHandlerFailure(t *testing.T) {
	handler := &recordingHandler{err: errors.New("store down")}
	srv := newTestServer(handler)

	req := httptest.NewRequest(http.MethodPost, "/webhook", strings.NewReader(messageUpdate))
	rec := httptest.NewRecorder()
	srv.webhookHandler(rec, req)

	if rec.Code != http.StatusInternalServerError {
		t.Errorf("status = %d, want 500", rec.Code)
	}
}

func TestHealthEndpoint(t *testing.T) {
	srv := newTestServer(&recordingHandler{})

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rec := httptest.NewRecorder()
	srv.healthHandler(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	var resp models.APIResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("response is not JSON: %v", err)
	}
	if resp.Message != "healthy" {
		t.Errorf("message = %q, want healthy", resp.Message)
	}
}
