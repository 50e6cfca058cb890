package messaging

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/oybekjon/hisobot/internal/models"
)

var errFileNotFound = errors.New("file not found")

// TelegramService delivers prompts through the Telegram Bot API. Private
// chats are assumed, so the user id doubles as the chat id.
type TelegramService struct {
	api    *tgbotapi.BotAPI
	client *http.Client
	logger *slog.Logger
}

// NewTelegramService authenticates against the Bot API with the given token.
func NewTelegramService(token string, logger *slog.Logger) (*TelegramService, error) {
	api, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("create bot api: %w", err)
	}
	if logger == nil {
		logger = slog.Default()
	}
	logger.Info("telegram bot authorized", "username", api.Self.UserName)
	return &TelegramService{api: api, client: http.DefaultClient, logger: logger}, nil
}

// API exposes the underlying client for the update loop.
func (t *TelegramService) API() *tgbotapi.BotAPI {
	return t.api
}

func (t *TelegramService) SendPrompt(_ context.Context, userID int64, text string, opts Options) error {
	markup := inlineMarkup(opts.Keyboard)

	if opts.EditMessageRef > 0 {
		edit := tgbotapi.NewEditMessageText(userID, opts.EditMessageRef, text)
		edit.ParseMode = tgbotapi.ModeHTML
		if markup != nil {
			edit.ReplyMarkup = markup
		}
		if _, err := t.api.Send(edit); err != nil {
			// Telegram rejects edits of deleted or identical messages;
			// fall through to a fresh send.
			t.logger.Debug("edit failed, sending new message", "userID", userID, "messageRef", opts.EditMessageRef, "error", err)
		} else {
			return nil
		}
	}

	msg := tgbotapi.NewMessage(userID, text)
	msg.ParseMode = tgbotapi.ModeHTML
	if markup != nil {
		msg.ReplyMarkup = *markup
	} else if len(opts.ReplyLabels) > 0 {
		msg.ReplyMarkup = replyMarkup(opts.ReplyLabels)
	}
	if _, err := t.api.Send(msg); err != nil {
		return fmt.Errorf("send message to %d: %w", userID, err)
	}
	return nil
}

func (t *TelegramService) DownloadFile(ctx context.Context, fileID string) ([]byte, error) {
	url, err := t.api.GetFileDirectURL(fileID)
	if err != nil {
		return nil, fmt.Errorf("resolve file %s: %w", fileID, err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	resp, err := t.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("download file %s: %w", fileID, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("download file %s: status %s", fileID, resp.Status)
	}
	return io.ReadAll(resp.Body)
}

// AnswerCallback acknowledges a button press so the client stops its
// spinner.
func (t *TelegramService) AnswerCallback(callbackID string) {
	if _, err := t.api.Request(tgbotapi.NewCallback(callbackID, "")); err != nil {
		t.logger.Debug("answer callback failed", "error", err)
	}
}

// inlineMarkup converts the transport-neutral keyboard into Telegram inline
// markup. Callback data is encoded as "action:value".
func inlineMarkup(kb models.Keyboard) *tgbotapi.InlineKeyboardMarkup {
	if len(kb) == 0 {
		return nil
	}
	var rows [][]tgbotapi.InlineKeyboardButton
	for _, row := range kb {
		var buttons []tgbotapi.InlineKeyboardButton
		for _, b := range row {
			buttons = append(buttons, tgbotapi.NewInlineKeyboardButtonData(b.Label, b.Action+":"+b.Value))
		}
		rows = append(rows, buttons)
	}
	markup := tgbotapi.NewInlineKeyboardMarkup(rows...)
	return &markup
}

// replyMarkup builds a persistent reply keyboard from plain labels.
func replyMarkup(labels [][]string) tgbotapi.ReplyKeyboardMarkup {
	var rows [][]tgbotapi.KeyboardButton
	for _, row := range labels {
		var buttons []tgbotapi.KeyboardButton
		for _, label := range row {
			buttons = append(buttons, tgbotapi.NewKeyboardButton(label))
		}
		rows = append(rows, buttons)
	}
	markup := tgbotapi.NewReplyKeyboard(rows...)
	markup.ResizeKeyboard = true
	return markup
}

// EventFromUpdate converts an inbound Telegram update into the
// transport-neutral event. The second return is the acting user id; ok is
// false for update shapes the bot does not handle.
func EventFromUpdate(update tgbotapi.Update) (int64, models.Event, bool) {
	if cb := update.CallbackQuery; cb != nil && cb.Message != nil {
		action, value := splitCallbackData(cb.Data)
		return cb.From.ID, models.CallbackEvent(action, value, cb.Message.MessageID), true
	}

	msg := update.Message
	if msg == nil || msg.From == nil {
		return 0, models.Event{}, false
	}

	if msg.Document != nil {
		return msg.From.ID, models.DocumentEvent(msg.Document.FileID, msg.Document.FileName), true
	}
	if msg.IsCommand() {
		return msg.From.ID, models.CommandEvent(msg.Command(), strings.TrimSpace(msg.CommandArguments())), true
	}
	if msg.Text != "" {
		return msg.From.ID, models.TextEvent(msg.Text), true
	}
	return 0, models.Event{}, false
}

func splitCallbackData(data string) (action, value string) {
	if i := strings.Index(data, ":"); i >= 0 {
		return data[:i], data[i+1:]
	}
	return data, ""
}
