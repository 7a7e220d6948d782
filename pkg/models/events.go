package models

import (
	"encoding/json"
	"strings"
)

// EventType tags a stream event emitted by the turn and action entry points.
type EventType string

const (
	// EventItemCreated carries a newly appended item.
	EventItemCreated EventType = "item_created"
	// EventItemReplaced carries an item whose payload was replaced in place
	// (widget collapse). Position and creation time are unchanged.
	EventItemReplaced EventType = "item_replaced"
	// EventItemUpdated carries an in-place widget patch: only the new widget
	// root, keyed by the patched item's id.
	EventItemUpdated EventType = "item_updated"
	// EventError reports a recovered error; the turn continues.
	EventError EventType = "error"
	// EventTurnCompleted is the best-effort completion signal. It is always
	// the final event of a turn or action response.
	EventTurnCompleted EventType = "turn_completed"
)

// StreamEvent is one element of the ordered event sequence a turn yields.
// Within a thread, event order matches store commit order.
type StreamEvent struct {
	Type   EventType `json:"type"`
	ItemID string    `json:"item_id,omitempty"`
	Item   *Item     `json:"item,omitempty"`
	// Widget holds the new widget root for item_updated events.
	Widget  json.RawMessage `json:"widget,omitempty"`
	Message string          `json:"message,omitempty"`
}

// Action is a widget-originated action descriptor: a button click, form
// submit, or checkbox toggle, plus the widget item that sent it when known.
type Action struct {
	Type         string         `json:"type"`
	Payload      map[string]any `json:"payload,omitempty"`
	SenderItemID string         `json:"sender_item_id,omitempty"`
}

// PayloadString returns the trimmed string value at key, or "".
func (a Action) PayloadString(key string) string {
	if a.Payload == nil {
		return ""
	}
	if v, ok := a.Payload[key].(string); ok {
		return strings.TrimSpace(v)
	}
	return ""
}
