// Package messaging abstracts the outbound transport: sending prompts,
// editing prompts in place after a button press, and fetching uploaded
// files. The core engine never imports the transport SDK directly.
package messaging

import (
	"context"
	"sync"

	"github.com/oybekjon/hisobot/internal/models"
)

// Options adjusts how a prompt is delivered.
type Options struct {
	// Keyboard attaches inline buttons to the message.
	Keyboard models.Keyboard

	// ReplyLabels attaches a persistent reply keyboard of plain labels,
	// used for the main menu.
	ReplyLabels [][]string

	// EditMessageRef, when set, edits that existing message in place
	// instead of sending a new one.
	EditMessageRef int
}

// Service is the outbound transport contract.
type Service interface {
	// SendPrompt delivers text (HTML formatting) to the user's chat.
	SendPrompt(ctx context.Context, userID int64, text string, opts Options) error

	// DownloadFile fetches the content of an uploaded document.
	DownloadFile(ctx context.Context, fileID string) ([]byte, error)
}

// SentMessage records one SendPrompt call for assertions.
type SentMessage struct {
	UserID int64
	Text   string
	Opts   Options
}

// MockService records outbound traffic for tests.
type MockService struct {
	mu       sync.Mutex
	Messages []SentMessage

	// Files maps file ids to content served by DownloadFile.
	Files map[string][]byte

	// SendErr, when set, is returned by every SendPrompt.
	SendErr error
}

// NewMockService creates an empty recorder.
func NewMockService() *MockService {
	return &MockService{Files: make(map[string][]byte)}
}

func (m *MockService) SendPrompt(_ context.Context, userID int64, text string, opts Options) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.SendErr != nil {
		return m.SendErr
	}
	m.Messages = append(m.Messages, SentMessage{UserID: userID, Text: text, Opts: opts})
	return nil
}

func (m *MockService) DownloadFile(_ context.Context, fileID string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if content, ok := m.Files[fileID]; ok {
		return content, nil
	}
	return nil, errFileNotFound
}

// Last returns the most recent sent message, or nil when none were sent.
func (m *MockService) Last() *SentMessage {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.Messages) == 0 {
		return nil
	}
	msg := m.Messages[len(m.Messages)-1]
	return &msg
}
