package models

// EventKind is the logical shape of an inbound webhook event.
type EventKind string

const (
	EventText     EventKind = "text"
	EventCommand  EventKind = "command"
	EventCallback EventKind = "callback"
	EventDocument EventKind = "document"
)

// DocumentRef points at an uploaded file on the transport side. The core
// never parses transport payloads; it passes the reference to the importer.
type DocumentRef struct {
	FileID   string `json:"file_id"`
	FileName string `json:"file_name"`
}

// Event is the transport-independent envelope for one inbound turn.
// Exactly one shape is populated, selected by Kind.
type Event struct {
	Kind EventKind `json:"kind"`

	// Text carries the message body for text events, and the raw argument
	// string for command events.
	Text string `json:"text,omitempty"`

	// Command is the slash command name without the leading slash.
	Command string `json:"command,omitempty"`

	// Action and Value carry an inline button press ("action:value").
	Action string `json:"action,omitempty"`
	Value  string `json:"value,omitempty"`

	// MessageRef identifies the prompt message a callback originated from,
	// so the reply can edit it in place.
	MessageRef int `json:"message_ref,omitempty"`

	Document *DocumentRef `json:"document,omitempty"`
}

// TextEvent builds a plain text event.
func TextEvent(text string) Event {
	return Event{Kind: EventText, Text: text}
}

// CommandEvent builds a slash command event.
func CommandEvent(command, args string) Event {
	return Event{Kind: EventCommand, Command: command, Text: args}
}

// CallbackEvent builds an inline button press event.
func CallbackEvent(action, value string, messageRef int) Event {
	return Event{Kind: EventCallback, Action: action, Value: value, MessageRef: messageRef}
}

// DocumentEvent builds a file upload event.
func DocumentEvent(fileID, fileName string) Event {
	return Event{Kind: EventDocument, Document: &DocumentRef{FileID: fileID, FileName: fileName}}
}
