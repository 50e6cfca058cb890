package messaging

import (
	"context"
	"testing"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/oybekjon/hisobot/internal/models"
)

func messageUpdate(msg *tgbotapi.Message) tgbotapi.Update {
	return tgbotapi.Update{Message: msg}
}

func TestEventFromUpdateText(t *testing.T) {
	update := messageUpdate(&tgbotapi.Message{
		From: &tgbotapi.User{ID: 42},
		Chat: &tgbotapi.Chat{ID: 42},
		Text: "50000 lunch",
	})

	userID, ev, ok := EventFromUpdate(update)
	if !ok {
		t.Fatal("update not handled")
	}
	if userID != 42 || ev.Kind != models.EventText || ev.Text != "50000 lunch" {
		t.Errorf("userID = %d event = %+v", userID, ev)
	}
}

func TestEventFromUpdateCommand(t *testing.T) {
	update := messageUpdate(&tgbotapi.Message{
		From:     &tgbotapi.User{ID: 42},
		Chat:     &tgbotapi.Chat{ID: 42},
		Text:     "/expense 50000",
		Entities: []tgbotapi.MessageEntity{{Type: "bot_command", Offset: 0, Length: 8}},
	})

	_, ev, ok := EventFromUpdate(update)
	if !ok {
		t.Fatal("update not handled")
	}
	if ev.Kind != models.EventCommand || ev.Command != "expense" || ev.Text != "50000" {
		t.Errorf("event = %+v", ev)
	}
}

func TestEventFromUpdateDocument(t *testing.T) {
	update := messageUpdate(&tgbotapi.Message{
		From:     &tgbotapi.User{ID: 42},
		Chat:     &tgbotapi.Chat{ID: 42},
		Document: &tgbotapi.Document{FileID: "f1", FileName: "export.json"},
	})

	_, ev, ok := EventFromUpdate(update)
	if !ok {
		t.Fatal("update not handled")
	}
	if ev.Kind != models.EventDocument || ev.Document.FileID != "f1" || ev.Document.FileName != "export.json" {
		t.Errorf("event = %+v", ev)
	}
}

func TestEventFromUpdateCallback(t *testing.T) {
	update := tgbotapi.Update{CallbackQuery: &tgbotapi.CallbackQuery{
		From:    &tgbotapi.User{ID: 42},
		Message: &tgbotapi.Message{MessageID: 7, Chat: &tgbotapi.Chat{ID: 42}},
		Data:    "tx_recat:abc:food",
	}}

	userID, ev, ok := EventFromUpdate(update)
	if !ok {
		t.Fatal("update not handled")
	}
	if userID != 42 || ev.Kind != models.EventCallback {
		t.Fatalf("userID = %d event = %+v", userID, ev)
	}
	// Only the first colon separates action from value.
	if ev.Action != "tx_recat" || ev.Value != "abc:food" {
		t.Errorf("action = %q value = %q", ev.Action, ev.Value)
	}
	if ev.MessageRef != 7 {
		t.Errorf("messageRef = %d, want 7", ev.MessageRef)
	}
}

func TestEventFromUpdateIgnoresOtherShapes(t *testing.T) {
	if _, _, ok := EventFromUpdate(tgbotapi.Update{}); ok {
		t.Error("empty update should not be handled")
	}
	update := messageUpdate(&tgbotapi.Message{
		From: &tgbotapi.User{ID: 42},
		Chat: &tgbotapi.Chat{ID: 42},
	})
	if _, _, ok := EventFromUpdate(update); ok {
		t.Error("empty message should not be handled")
	}
}

func TestMockServiceRecordsMessages(t *testing.T) {
	mock := NewMockService()
	if mock.Last() != nil {
		t.Error("fresh mock reported a message")
	}

	if err := mock.SendPrompt(context.Background(), 42, "hi", Options{}); err != nil {
		t.Fatalf("SendPrompt failed: %v", err)
	}
	last := mock.Last()
	if last == nil || last.UserID != 42 || last.Text != "hi" {
		t.Errorf("last = %+v", last)
	}
}
