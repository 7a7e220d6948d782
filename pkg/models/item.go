package models

import "encoding/json"

// ItemType discriminates an item's payload.
type ItemType string

const (
	ItemUserMessage      ItemType = "user_message"
	ItemAssistantMessage ItemType = "assistant_message"
	ItemWidget           ItemType = "widget"
	ItemToolCall         ItemType = "tool_call"
)

// Item is one entry in a thread's log. Content is immutable except for two
// sanctioned in-place mutations: replacing the payload entirely (widget
// collapse) and patching a widget payload (in-place widget update). Both go
// through the store's upsert, which preserves CreatedTS and key position.
type Item struct {
	ID     string   `json:"id"`
	Thread string   `json:"thread"`
	Type   ItemType `json:"type"`
	// Created timestamp (ns); the sort key within a thread.
	CreatedTS int64           `json:"created_ts"`
	Payload   json.RawMessage `json:"payload,omitempty"`
}

// MessagePayload is the payload of user_message and assistant_message items.
type MessagePayload struct {
	Text string `json:"text"`
}

// ToolCallPayload records a runtime tool invocation in the transcript.
type ToolCallPayload struct {
	Name      string `json:"name"`
	Arguments string `json:"arguments,omitempty"`
	Result    string `json:"result,omitempty"`
}

// Text decodes the item payload as a message payload and returns its text.
// Returns "" for non-message payloads.
func (it Item) Text() string {
	var p MessagePayload
	if err := json.Unmarshal(it.Payload, &p); err != nil {
		return ""
	}
	return p.Text
}

// WidgetRootID returns the root identifier of a widget payload, or "" when
// the payload is not a widget tree.
func (it Item) WidgetRootID() string {
	if it.Type != ItemWidget {
		return ""
	}
	var root struct {
		ID string `json:"id"`
	}
	if err := json.Unmarshal(it.Payload, &root); err != nil {
		return ""
	}
	return root.ID
}
