package store

import (
	"encoding/json"
	"fmt"

	"github.com/oybekjon/hisobot/internal/models"
)

// nilIfEmpty returns nil for empty strings, for nullable database columns.
func nilIfEmpty(s string) interface{} {
	if s == "" {
		return nil
	}
	return s
}

// marshalDraft serializes a session draft for the draft column. Idle
// sessions produce an empty string.
func marshalDraft(draft models.Draft) (string, error) {
	if draft == nil {
		return "", nil
	}
	data, err := json.Marshal(draft)
	if err != nil {
		return "", fmt.Errorf("marshal session draft: %w", err)
	}
	return string(data), nil
}

// unmarshalDraft rebuilds the typed draft variant for a flow from its JSON
// form. The variant is selected by flow type, so drafts never leak fields
// across flows.
func unmarshalDraft(flow models.FlowType, data string) (models.Draft, error) {
	draft := models.NewDraft(flow)
	if draft == nil {
		return nil, nil
	}
	if data == "" {
		return draft, nil
	}
	if err := json.Unmarshal([]byte(data), draft); err != nil {
		return nil, fmt.Errorf("unmarshal session draft for flow %s: %w", flow, err)
	}
	return draft, nil
}

// marshalTags serializes a task tag list for storage.
func marshalTags(tags []string) (string, error) {
	if len(tags) == 0 {
		return "", nil
	}
	data, err := json.Marshal(tags)
	if err != nil {
		return "", fmt.Errorf("marshal tags: %w", err)
	}
	return string(data), nil
}

// unmarshalTags rebuilds a task tag list from its stored form.
func unmarshalTags(data string) ([]string, error) {
	if data == "" {
		return nil, nil
	}
	var tags []string
	if err := json.Unmarshal([]byte(data), &tags); err != nil {
		return nil, fmt.Errorf("unmarshal tags: %w", err)
	}
	return tags, nil
}
