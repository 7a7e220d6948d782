package runtime

import (
	"context"
	"encoding/json"
	"strings"
	"testing"

	"threadkit/pkg/logger"
	"threadkit/pkg/models"
	"threadkit/pkg/store"
)

func openTestStore(t *testing.T) {
	t.Helper()
	logger.Init("error", "")
	if err := store.Open(t.TempDir()); err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { store.Close() })
}

func userHistory(text string) []models.Item {
	b, _ := json.Marshal(models.MessagePayload{Text: text})
	return []models.Item{{ID: "item_u", Thread: "t1", Type: models.ItemUserMessage, Payload: b}}
}

func TestScriptedAdd(t *testing.T) {
	openTestStore(t)
	s := NewScripted(StoreTasks{})

	res, err := s.Respond(context.Background(), models.Thread{ID: "t1"}, userHistory("add buy milk"))
	if err != nil {
		t.Fatalf("respond: %v", err)
	}
	if !res.DisplayRequested {
		t.Fatalf("add must request the widget")
	}
	if len(res.ToolTraces) != 1 || res.ToolTraces[0].Name != "add_task" {
		t.Fatalf("missing add_task trace: %+v", res.ToolTraces)
	}
	tasks, _ := store.ListAllTasks()
	if len(tasks) != 1 || tasks[0].Title != "buy milk" {
		t.Fatalf("task not created: %+v", tasks)
	}
}

func TestScriptedCompleteByTitle(t *testing.T) {
	openTestStore(t)
	s := NewScripted(StoreTasks{})

	task, _ := store.AddTask("Buy Milk", "t1")

	// title match is case-insensitive
	res, err := s.Respond(context.Background(), models.Thread{ID: "t1"}, userHistory("done buy milk"))
	if err != nil {
		t.Fatalf("respond: %v", err)
	}
	if !res.DisplayRequested {
		t.Fatalf("complete must request the widget")
	}
	got, _ := store.GetTask(task.ID)
	if !got.Completed {
		t.Fatalf("task not completed")
	}
}

func TestScriptedDelete(t *testing.T) {
	openTestStore(t)
	s := NewScripted(StoreTasks{})

	task, _ := store.AddTask("temp", "t1")
	if _, err := s.Respond(context.Background(), models.Thread{ID: "t1"}, userHistory("delete temp")); err != nil {
		t.Fatalf("respond: %v", err)
	}
	if _, err := store.GetTask(task.ID); err == nil {
		t.Fatalf("task should be deleted")
	}

	// deleting a title that matches nothing still succeeds
	if _, err := s.Respond(context.Background(), models.Thread{ID: "t1"}, userHistory("delete nothing here")); err != nil {
		t.Fatalf("missing title should not error: %v", err)
	}
}

func TestScriptedList(t *testing.T) {
	openTestStore(t)
	s := NewScripted(StoreTasks{})

	res, err := s.Respond(context.Background(), models.Thread{ID: "t1"}, userHistory("list"))
	if err != nil {
		t.Fatalf("respond: %v", err)
	}
	if !res.DisplayRequested || len(res.ToolTraces) != 0 {
		t.Fatalf("list shows the widget without tool calls: %+v", res)
	}
}

func TestScriptedSmallTalk(t *testing.T) {
	openTestStore(t)
	s := NewScripted(StoreTasks{})

	res, err := s.Respond(context.Background(), models.Thread{ID: "t1"}, userHistory("how are you"))
	if err != nil {
		t.Fatalf("respond: %v", err)
	}
	if res.DisplayRequested {
		t.Fatalf("small talk must not request the widget")
	}
	if !strings.Contains(res.Reply, "add") {
		t.Fatalf("fallback reply should hint at the verbs: %q", res.Reply)
	}
}

func TestScriptedUsesLastUserMessage(t *testing.T) {
	openTestStore(t)
	s := NewScripted(StoreTasks{})

	b1, _ := json.Marshal(models.MessagePayload{Text: "add old"})
	b2, _ := json.Marshal(models.MessagePayload{Text: "reply"})
	b3, _ := json.Marshal(models.MessagePayload{Text: "add new"})
	history := []models.Item{
		{ID: "i1", Thread: "t1", Type: models.ItemUserMessage, Payload: b1},
		{ID: "i2", Thread: "t1", Type: models.ItemAssistantMessage, Payload: b2},
		{ID: "i3", Thread: "t1", Type: models.ItemUserMessage, Payload: b3},
	}
	if _, err := s.Respond(context.Background(), models.Thread{ID: "t1"}, history); err != nil {
		t.Fatalf("respond: %v", err)
	}
	tasks, _ := store.ListAllTasks()
	if len(tasks) != 1 || tasks[0].Title != "new" {
		t.Fatalf("runtime must act on the last user message: %+v", tasks)
	}
}
