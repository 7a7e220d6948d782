package actions

import (
	"testing"

	"threadkit/pkg/logger"
	"threadkit/pkg/models"
	"threadkit/pkg/store"
	"threadkit/pkg/widget"
)

func openTestStore(t *testing.T) {
	t.Helper()
	logger.Init("error", "")
	if err := store.Open(t.TempDir()); err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { store.Close() })
}

func addForm(text string) models.Action {
	return models.Action{
		Type:    widget.ActionAddItemForm,
		Payload: map[string]any{widget.FieldTaskText: text},
	}
}

func taskAction(typ, taskID string) models.Action {
	return models.Action{
		Type:    typ,
		Payload: map[string]any{widget.FieldTaskID: taskID},
	}
}

func lastIsCreated(t *testing.T, events []models.StreamEvent) models.Item {
	t.Helper()
	if len(events) == 0 {
		t.Fatalf("no events")
	}
	last := events[len(events)-1]
	if last.Type != models.EventItemCreated || last.Item == nil {
		t.Fatalf("expected trailing item_created, got %+v", last)
	}
	return *last.Item
}

func TestHandleAddCreatesTaskAndWidget(t *testing.T) {
	openTestStore(t)
	store.LoadThread("t1")

	events, err := Handle("t1", addForm("buy milk"))
	if err != nil {
		t.Fatalf("handle: %v", err)
	}
	tasks, _ := store.ListAllTasks()
	if len(tasks) != 1 || tasks[0].Title != "buy milk" {
		t.Fatalf("task not created: %+v", tasks)
	}
	it := lastIsCreated(t, events)
	if it.Type != models.ItemWidget {
		t.Fatalf("rebuild should append a widget item, got %s", it.Type)
	}
}

func TestHandleAddEmptyTextIsNoOpButRebuilds(t *testing.T) {
	openTestStore(t)
	store.LoadThread("t1")

	events, err := Handle("t1", addForm("   "))
	if err != nil {
		t.Fatalf("handle: %v", err)
	}
	tasks, _ := store.ListAllTasks()
	if len(tasks) != 0 {
		t.Fatalf("whitespace submit must not create a task")
	}
	// rebuild still happens so the client sees current state
	lastIsCreated(t, events)
}

func TestHandleCompleteAndToggleAreOneWay(t *testing.T) {
	openTestStore(t)
	store.LoadThread("t1")
	task, _ := store.AddTask("one way", "t1")

	if _, err := Handle("t1", taskAction(widget.ActionToggleItem, task.ID)); err != nil {
		t.Fatalf("toggle: %v", err)
	}
	got, _ := store.GetTask(task.ID)
	if !got.Completed {
		t.Fatalf("toggle should complete a pending task")
	}

	// a second toggle must not revert completion
	if _, err := Handle("t1", taskAction(widget.ActionToggleItem, task.ID)); err != nil {
		t.Fatalf("second toggle: %v", err)
	}
	got, _ = store.GetTask(task.ID)
	if !got.Completed {
		t.Fatalf("toggle must never un-complete")
	}

	if _, err := Handle("t1", taskAction(widget.ActionCompleteItem, task.ID)); err != nil {
		t.Fatalf("complete after complete: %v", err)
	}
}

func TestHandleCompleteMissingTask(t *testing.T) {
	openTestStore(t)
	store.LoadThread("t1")

	events, err := Handle("t1", taskAction(widget.ActionCompleteItem, "task_00000000000000000000-000000"))
	if err != nil {
		t.Fatalf("completing a missing task must stay silent: %v", err)
	}
	lastIsCreated(t, events)
}

func TestHandleDeleteIsIdempotent(t *testing.T) {
	openTestStore(t)
	store.LoadThread("t1")
	task, _ := store.AddTask("temp", "t1")

	if _, err := Handle("t1", taskAction(widget.ActionDeleteItem, task.ID)); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := store.GetTask(task.ID); err == nil {
		t.Fatalf("task should be deleted")
	}
	// deleting again is fine
	if _, err := Handle("t1", taskAction(widget.ActionDeleteItem, task.ID)); err != nil {
		t.Fatalf("second delete: %v", err)
	}
}

func TestHandleUnknownAction(t *testing.T) {
	openTestStore(t)
	store.LoadThread("t1")

	events, err := Handle("t1", models.Action{Type: "launch_rocket"})
	if err != nil {
		t.Fatalf("unknown action must not error: %v", err)
	}
	if len(events) != 1 || events[0].Type != models.EventError {
		t.Fatalf("expected a single error event, got %+v", events)
	}
	items, _ := store.ListAllItems("t1")
	if len(items) != 0 {
		t.Fatalf("unknown action must not rebuild the widget")
	}
}

func TestHandlePatchesSenderWidget(t *testing.T) {
	openTestStore(t)
	store.LoadThread("t1")

	// establish a live widget, then act through it
	first, err := Handle("t1", addForm("seed"))
	if err != nil {
		t.Fatalf("seed: %v", err)
	}
	sender := lastIsCreated(t, first)

	a := addForm("second")
	a.SenderItemID = sender.ID
	events, err := Handle("t1", a)
	if err != nil {
		t.Fatalf("handle with sender: %v", err)
	}
	if len(events) != 1 || events[0].Type != models.EventItemUpdated {
		t.Fatalf("sender-known action should patch in place, got %+v", events)
	}
	if events[0].ItemID != sender.ID {
		t.Fatalf("patch targeted the wrong item")
	}
	items, _ := store.ListAllItems("t1")
	if len(items) != 1 {
		t.Fatalf("patch must not append a new widget item, got %d", len(items))
	}
}

func TestHandleSenderMissingFallsBack(t *testing.T) {
	openTestStore(t)
	store.LoadThread("t1")

	a := addForm("fallback")
	a.SenderItemID = "item_gone"
	events, err := Handle("t1", a)
	if err != nil {
		t.Fatalf("handle: %v", err)
	}
	// falls back to collapse-and-append
	lastIsCreated(t, events)
}
