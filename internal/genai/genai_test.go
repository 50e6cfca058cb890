package genai

import (
	"context"
	"errors"
	"testing"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
)

type mockChatService struct {
	resp *openai.ChatCompletion
	err  error

	// lastParams records the request for assertions.
	lastParams openai.ChatCompletionNewParams
}

func (m *mockChatService) New(_ context.Context, params openai.ChatCompletionNewParams, _ ...option.RequestOption) (*openai.ChatCompletion, error) {
	m.lastParams = params
	return m.resp, m.err
}

func completionWith(content string) *openai.ChatCompletion {
	return &openai.ChatCompletion{
		Choices: []openai.ChatCompletionChoice{
			{Message: openai.ChatCompletionMessage{Content: content}},
		},
	}
}

func TestInterpretTask(t *testing.T) {
	mock := &mockChatService{resp: completionWith(`{"intent":"task","title":"call mom"}`)}
	client := &Client{chat: mock}

	s, err := client.Interpret(context.Background(), "remind me to call mom")
	if err != nil {
		t.Fatalf("Interpret failed: %v", err)
	}
	if s.Intent != "task" || s.Title != "call mom" {
		t.Errorf("suggestion = %+v", s)
	}
	if len(mock.lastParams.Messages) != 2 {
		t.Errorf("messages sent = %d, want system + user", len(mock.lastParams.Messages))
	}
}

func TestInterpretExpense(t *testing.T) {
	mock := &mockChatService{resp: completionWith(`{"intent":"expense","amount":"50000","note":"lunch"}`)}
	client := &Client{chat: mock}

	s, err := client.Interpret(context.Background(), "spent fifty thousand on lunch")
	if err != nil {
		t.Fatalf("Interpret failed: %v", err)
	}
	if s.Intent != "expense" || s.Amount != "50000" || s.Note != "lunch" {
		t.Errorf("suggestion = %+v", s)
	}
}

func TestInterpretTolerantOfCodeFences(t *testing.T) {
	content := "```json\n{\"intent\":\"income\",\"amount\":\"1000000\"}\n```"
	client := &Client{chat: &mockChatService{resp: completionWith(content)}}

	s, err := client.Interpret(context.Background(), "got my salary")
	if err != nil {
		t.Fatalf("Interpret failed: %v", err)
	}
	if s.Intent != "income" || s.Amount != "1000000" {
		t.Errorf("suggestion = %+v", s)
	}
}

func TestInterpretEmptyIntentDefaultsToUnknown(t *testing.T) {
	client := &Client{chat: &mockChatService{resp: completionWith(`{}`)}}

	s, err := client.Interpret(context.Background(), "hello")
	if err != nil {
		t.Fatalf("Interpret failed: %v", err)
	}
	if s.Intent != "unknown" {
		t.Errorf("intent = %q, want unknown", s.Intent)
	}
}

func TestInterpretNoChoices(t *testing.T) {
	client := &Client{chat: &mockChatService{resp: &openai.ChatCompletion{}}}

	_, err := client.Interpret(context.Background(), "hello")
	if !errors.Is(err, ErrNoChoicesReturned) {
		t.Errorf("error = %v, want ErrNoChoicesReturned", err)
	}
}

func TestInterpretMalformedResponse(t *testing.T) {
	client := &Client{chat: &mockChatService{resp: completionWith("sorry, I cannot help")}}

	_, err := client.Interpret(context.Background(), "hello")
	if err == nil {
		t.Error("expected parse error for non-JSON response")
	}
}

func TestInterpretTransportError(t *testing.T) {
	client := &Client{chat: &mockChatService{err: errors.New("rate limited")}}

	_, err := client.Interpret(context.Background(), "hello")
	if err == nil {
		t.Error("expected transport error to surface")
	}
}

func TestNewClientRequiresKey(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "")

	if _, err := NewClient(); err == nil {
		t.Error("expected error without an API key")
	}
	if _, err := NewClient(WithAPIKey("sk-test")); err != nil {
		t.Errorf("NewClient with explicit key failed: %v", err)
	}
}
