// Package actions routes widget-originated actions (button clicks, form
// submits, checkbox toggles) to task mutations and rebuilds the widget.
package actions

import (
	"errors"

	"threadkit/pkg/lifecycle"
	"threadkit/pkg/logger"
	"threadkit/pkg/models"
	"threadkit/pkg/store"
	"threadkit/pkg/widget"
)

// handlers is the dispatch table from action type to mutation. Every handler
// is forgiving: a missing or already-satisfied target is a no-op, never an
// error surfaced to the transcript. The widget rebuild after the mutation is
// what tells the user what actually happened.
var handlers = map[string]func(threadID string, a models.Action) error{
	widget.ActionAddItemForm:  handleAdd,
	widget.ActionCompleteItem: handleComplete,
	widget.ActionToggleItem:   handleComplete,
	widget.ActionDeleteItem:   handleDelete,
}

func handleAdd(threadID string, a models.Action) error {
	text := a.PayloadString(widget.FieldTaskText)
	if text == "" {
		// empty submit: no mutation, the rebuild still runs so the widget
		// reflects that nothing changed
		return nil
	}
	_, err := store.AddTask(text, threadID)
	return err
}

// handleComplete marks the task done. Toggling an already-completed task is a
// no-op; there is no path back to incomplete through the widget.
func handleComplete(threadID string, a models.Action) error {
	id := a.PayloadString(widget.FieldTaskID)
	if id == "" {
		return nil
	}
	if _, err := store.CompleteTask(id); err != nil && !errors.Is(err, store.ErrNotFound) {
		return err
	}
	return nil
}

func handleDelete(threadID string, a models.Action) error {
	id := a.PayloadString(widget.FieldTaskID)
	if id == "" {
		return nil
	}
	if err := store.DeleteTask(id); err != nil && !errors.Is(err, store.ErrNotFound) {
		return err
	}
	return nil
}

// Handle executes one widget action against the task set, then rebuilds the
// thread's widget. When the action names its sending widget item the rebuilt
// payload is patched into that item in place; otherwise the lifecycle
// collapse-and-append flow runs. An unknown action type yields a benign error
// event and no rebuild.
func Handle(threadID string, a models.Action) ([]models.StreamEvent, error) {
	h, ok := handlers[a.Type]
	if !ok {
		logger.Info("unknown_action", "thread", threadID, "type", a.Type)
		return []models.StreamEvent{{
			Type:    models.EventError,
			Message: "unsupported action: " + a.Type,
		}}, nil
	}
	if err := h(threadID, a); err != nil {
		return nil, err
	}

	tasks, err := store.ListAllTasks()
	if err != nil {
		return nil, err
	}
	payload := widget.Marshal(widget.TaskListCard(tasks, threadID))

	if a.SenderItemID != "" {
		events, perr := lifecycle.Patch(a.SenderItemID, payload)
		if perr == nil {
			return events, nil
		}
		if !errors.Is(perr, store.ErrNotFound) {
			return nil, perr
		}
		// sender widget vanished: fall through to collapse-and-append
		logger.Info("action_sender_missing", "thread", threadID, "item", a.SenderItemID)
	}

	events, _, err := lifecycle.Sync(threadID, payload, widget.CollapsedSummary(tasks))
	return events, err
}
