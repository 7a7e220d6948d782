package runtime

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"threadkit/pkg/models"
	"threadkit/pkg/store"
)

// Scripted is a deterministic Runtime for offline mode and tests. It
// dispatches on leading keywords of the user message instead of calling a
// model:
//
//	add <title>        create a task
//	complete <title>   mark the first matching task done
//	delete <title>     remove the first matching task
//	list / show        display the task list
//
// Anything else gets a canned reply with no widget.
type Scripted struct {
	tasks TaskOps
}

func NewScripted(tasks TaskOps) *Scripted {
	return &Scripted{tasks: tasks}
}

func (s *Scripted) Respond(_ context.Context, thread models.Thread, history []models.Item) (TurnResult, error) {
	var text string
	for i := len(history) - 1; i >= 0; i-- {
		if history[i].Type == models.ItemUserMessage {
			text = strings.TrimSpace(history[i].Text())
			break
		}
	}

	verb, rest, _ := strings.Cut(text, " ")
	rest = strings.TrimSpace(rest)
	switch strings.ToLower(verb) {
	case "add":
		if rest == "" {
			return TurnResult{Reply: "Tell me what to add."}, nil
		}
		t, err := s.tasks.Add(rest, thread.ID)
		if err != nil {
			return TurnResult{}, err
		}
		return TurnResult{
			Reply:            fmt.Sprintf("Added %q.", t.Title),
			ToolTraces:       []ToolTrace{{Name: "add_task", Arguments: rest, Result: t.ID}},
			DisplayRequested: true,
		}, nil
	case "complete", "done":
		t, found, err := s.byTitle(rest)
		if err != nil {
			return TurnResult{}, err
		}
		if found {
			if _, err := s.tasks.Complete(t.ID); err != nil && !errors.Is(err, store.ErrNotFound) {
				return TurnResult{}, err
			}
		}
		return TurnResult{
			Reply:            fmt.Sprintf("Marked %q done.", rest),
			ToolTraces:       []ToolTrace{{Name: "complete_task", Arguments: rest, Result: t.ID}},
			DisplayRequested: true,
		}, nil
	case "delete", "remove":
		t, found, err := s.byTitle(rest)
		if err != nil {
			return TurnResult{}, err
		}
		if found {
			if err := s.tasks.Delete(t.ID); err != nil && !errors.Is(err, store.ErrNotFound) {
				return TurnResult{}, err
			}
		}
		return TurnResult{
			Reply:            fmt.Sprintf("Deleted %q.", rest),
			ToolTraces:       []ToolTrace{{Name: "delete_task", Arguments: rest, Result: t.ID}},
			DisplayRequested: true,
		}, nil
	case "list", "show", "tasks":
		return TurnResult{Reply: "Here is the task list.", DisplayRequested: true}, nil
	default:
		return TurnResult{Reply: "I track tasks. Try: add <title>, complete <title>, delete <title>, list."}, nil
	}
}

func (s *Scripted) byTitle(title string) (models.Task, bool, error) {
	tasks, err := s.tasks.List()
	if err != nil {
		return models.Task{}, false, err
	}
	for _, t := range tasks {
		if strings.EqualFold(t.Title, title) {
			return t, true, nil
		}
	}
	return models.Task{}, false, nil
}
