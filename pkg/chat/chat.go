// Package chat is the thin turn orchestrator: the only two entry points the
// transport calls. It owns persistence ordering for a turn; the reasoning
// runtime behind it only decides content.
package chat

import (
	"context"
	"encoding/json"
	"strings"

	"threadkit/pkg/actions"
	"threadkit/pkg/lifecycle"
	"threadkit/pkg/logger"
	"threadkit/pkg/models"
	"threadkit/pkg/runtime"
	"threadkit/pkg/store"
	"threadkit/pkg/utils"
	"threadkit/pkg/widget"
)

// titleMaxRunes caps the auto-generated thread title.
const titleMaxRunes = 48

// Orchestrator runs user turns and widget actions against one runtime.
type Orchestrator struct {
	rt runtime.Runtime
}

func New(rt runtime.Runtime) *Orchestrator {
	return &Orchestrator{rt: rt}
}

// completed appends the terminal turn_completed event. Every entry point
// ends with it, whatever happened before.
func completed(events []models.StreamEvent) []models.StreamEvent {
	return append(events, models.StreamEvent{Type: models.EventTurnCompleted})
}

func errorEvent(msg string) models.StreamEvent {
	return models.StreamEvent{Type: models.EventError, Message: msg}
}

// ProcessTurn handles one user message: persist it, run the runtime, persist
// what it produced, then rebuild the widget when the turn asked for it. The
// returned events are in store commit order and always end with
// turn_completed; a non-nil error means the turn was cut short but the
// events slice is still the best-effort transcript of what committed.
func (o *Orchestrator) ProcessTurn(ctx context.Context, threadID, userText string) ([]models.StreamEvent, error) {
	var events []models.StreamEvent

	th, err := store.LoadThread(threadID)
	if err != nil {
		return completed(append(events, errorEvent("thread unavailable"))), err
	}
	if th.Status != models.ThreadActive {
		return completed(append(events, errorEvent("thread is "+string(th.Status)))), nil
	}

	userText = strings.TrimSpace(userText)
	userItem := models.Item{
		ID:      utils.GenItemID(),
		Thread:  threadID,
		Type:    models.ItemUserMessage,
		Payload: messagePayload(userText),
	}
	if err := store.SaveItem(&userItem); err != nil {
		return completed(append(events, errorEvent("could not record message"))), err
	}
	events = append(events, models.StreamEvent{Type: models.EventItemCreated, ItemID: userItem.ID, Item: &userItem})

	if th.Title == "" && userText != "" {
		th.Title = utils.TruncateRunes(userText, titleMaxRunes)
		if err := store.SaveThread(th); err != nil {
			logger.Error("thread_title_save_failed", "thread", threadID, "error", err)
		}
	}

	history, err := store.ListAllItems(threadID)
	if err != nil {
		return completed(append(events, errorEvent("could not load history"))), err
	}

	res, rerr := o.rt.Respond(ctx, th, history)
	if rerr != nil {
		logger.Error("runtime_failed", "thread", threadID, "error", rerr)
		return completed(append(events, errorEvent("assistant unavailable"))), nil
	}

	for _, tr := range res.ToolTraces {
		item := models.Item{
			ID:      utils.GenItemID(),
			Thread:  threadID,
			Type:    models.ItemToolCall,
			Payload: toolCallPayload(tr),
		}
		if err := store.SaveItem(&item); err != nil {
			logger.Error("tool_call_save_failed", "thread", threadID, "error", err)
			continue
		}
		events = append(events, models.StreamEvent{Type: models.EventItemCreated, ItemID: item.ID, Item: &item})
	}

	if res.Reply != "" {
		item := models.Item{
			ID:      utils.GenItemID(),
			Thread:  threadID,
			Type:    models.ItemAssistantMessage,
			Payload: messagePayload(res.Reply),
		}
		if err := store.SaveItem(&item); err != nil {
			return completed(append(events, errorEvent("could not record reply"))), err
		}
		events = append(events, models.StreamEvent{Type: models.EventItemCreated, ItemID: item.ID, Item: &item})
	}

	if res.DisplayRequested {
		tasks, terr := store.ListAllTasks()
		if terr != nil {
			logger.Error("task_snapshot_failed", "thread", threadID, "error", terr)
			return completed(append(events, errorEvent("could not refresh task list"))), nil
		}
		payload := widget.Marshal(widget.TaskListCard(tasks, threadID))
		wevents, _, werr := lifecycle.Sync(threadID, payload, widget.CollapsedSummary(tasks))
		events = append(events, wevents...)
		if werr != nil {
			return completed(append(events, errorEvent("could not refresh task list"))), werr
		}
	}

	logger.Info("turn_processed", "thread", threadID, "events", len(events)+1)
	return completed(events), nil
}

// ProcessAction handles one widget action through the action router. The
// action path never calls the runtime, so it takes no work from the request
// context.
func (o *Orchestrator) ProcessAction(_ context.Context, threadID string, a models.Action) ([]models.StreamEvent, error) {
	var events []models.StreamEvent

	th, err := store.LoadThread(threadID)
	if err != nil {
		return completed(append(events, errorEvent("thread unavailable"))), err
	}
	if th.Status != models.ThreadActive {
		return completed(append(events, errorEvent("thread is "+string(th.Status)))), nil
	}

	aevents, aerr := actions.Handle(threadID, a)
	events = append(events, aevents...)
	if aerr != nil {
		return completed(append(events, errorEvent("action failed"))), aerr
	}
	logger.Info("action_processed", "thread", threadID, "type", a.Type)
	return completed(events), nil
}

func messagePayload(text string) json.RawMessage {
	b, _ := json.Marshal(models.MessagePayload{Text: text})
	return b
}

func toolCallPayload(tr runtime.ToolTrace) json.RawMessage {
	b, _ := json.Marshal(models.ToolCallPayload{Name: tr.Name, Arguments: tr.Arguments, Result: tr.Result})
	return b
}
