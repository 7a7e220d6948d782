// Package lifecycle keeps the at-most-one-live-widget invariant for a
// thread: before a new widget is appended, every prior live widget item is
// collapsed into an inert summary in place, preserving its id and position.
package lifecycle

import (
	"encoding/json"

	"threadkit/pkg/logger"
	"threadkit/pkg/models"
	"threadkit/pkg/store"
	"threadkit/pkg/utils"
	"threadkit/pkg/widget"
)

// summaryPayload is what a collapsed widget's payload becomes. It carries no
// root id, so the item no longer matches the live-widget predicate.
type summaryPayload struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

func collapsedPayload(text string) json.RawMessage {
	b, _ := json.Marshal(summaryPayload{Type: "summary", Text: text})
	return b
}

// IsLive reports whether the item is the thread's current live widget.
func IsLive(it models.Item, threadID string) bool {
	return it.Type == models.ItemWidget && it.WidgetRootID() == widget.RootID(threadID)
}

// Sync collapses every live widget of the thread and appends payload as the
// new live widget item. It returns the emitted events (one item_replaced per
// collapse, then one item_created) and the appended item.
//
// If the history scan fails the collapse pass is skipped, not the append: a
// stale widget is recoverable on the next sync, a missing fresh widget is
// user-visible breakage.
func Sync(threadID string, payload json.RawMessage, summary string) ([]models.StreamEvent, *models.Item, error) {
	var events []models.StreamEvent

	items, err := store.ListAllItems(threadID)
	if err != nil {
		logger.Error("widget_scan_failed", "thread", threadID, "error", err)
	} else {
		for i := range items {
			it := items[i]
			if !IsLive(it, threadID) {
				continue
			}
			it.Payload = collapsedPayload(summary)
			if err := store.SaveItem(&it); err != nil {
				logger.Error("widget_collapse_failed", "thread", threadID, "item", it.ID, "error", err)
				continue
			}
			collapsed := it
			events = append(events, models.StreamEvent{
				Type:   models.EventItemReplaced,
				ItemID: collapsed.ID,
				Item:   &collapsed,
			})
			logger.Debug("widget_collapsed", "thread", threadID, "item", it.ID)
		}
	}

	fresh := models.Item{
		ID:      utils.GenItemID(),
		Thread:  threadID,
		Type:    models.ItemWidget,
		Payload: payload,
	}
	if err := store.SaveItem(&fresh); err != nil {
		return events, nil, err
	}
	events = append(events, models.StreamEvent{
		Type:   models.EventItemCreated,
		ItemID: fresh.ID,
		Item:   &fresh,
	})
	logger.Debug("widget_appended", "thread", threadID, "item", fresh.ID)
	return events, &fresh, nil
}

// Patch replaces the widget payload of a known item in place and returns the
// item_updated event carrying only the new root. Used for the low-latency
// sender-known action path; position, id and creation time are untouched.
func Patch(itemID string, payload json.RawMessage) ([]models.StreamEvent, error) {
	it, err := store.GetItem(itemID)
	if err != nil {
		return nil, err
	}
	it.Payload = payload
	if err := store.SaveItem(&it); err != nil {
		return nil, err
	}
	logger.Debug("widget_patched", "item", it.ID)
	return []models.StreamEvent{{
		Type:   models.EventItemUpdated,
		ItemID: it.ID,
		Widget: payload,
	}}, nil
}
