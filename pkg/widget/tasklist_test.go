package widget

import (
	"encoding/json"
	"strings"
	"testing"

	"threadkit/pkg/models"
)

func findNode(n Node, id string) *Node {
	if n.ID == id {
		return &n
	}
	for i := range n.Children {
		if found := findNode(n.Children[i], id); found != nil {
			return found
		}
	}
	return nil
}

func TestRootID(t *testing.T) {
	if RootID("t1") != "widget_t1" {
		t.Fatalf("unexpected root id: %s", RootID("t1"))
	}
}

func TestTaskListCardRootAndBadges(t *testing.T) {
	tasks := []models.Task{
		{ID: "task_a", Title: "buy milk"},
		{ID: "task_b", Title: "walk dog", Completed: true},
		{ID: "task_c", Title: "write tests"},
	}
	root := TaskListCard(tasks, "t1")

	if root.Type != "card" || root.ID != RootID("t1") {
		t.Fatalf("root must be the thread's widget card: %s %s", root.Type, root.ID)
	}
	pending := findNode(root, "pending_badge")
	if pending == nil || pending.Label != "2 pending" {
		t.Fatalf("pending badge wrong: %+v", pending)
	}
	done := findNode(root, "completed_badge")
	if done == nil || done.Label != "1 done" {
		t.Fatalf("done badge wrong: %+v", done)
	}
}

func TestTaskListCardEmptyState(t *testing.T) {
	root := TaskListCard(nil, "t1")
	if findNode(root, "empty_state") == nil {
		t.Fatalf("empty task list should render the empty state")
	}
	if findNode(root, "add_task_form") == nil {
		t.Fatalf("add form must be present even with no tasks")
	}
}

func TestAddFormWiring(t *testing.T) {
	root := TaskListCard(nil, "t1")

	input := findNode(root, "task_text")
	if input == nil || input.Name != FieldTaskText {
		t.Fatalf("add form input missing or misnamed: %+v", input)
	}
	btn := findNode(root, "add_button")
	if btn == nil || btn.OnClickAction == nil {
		t.Fatalf("add button has no action")
	}
	if btn.OnClickAction.Type != ActionAddItemForm || btn.OnClickAction.Handler != "server" {
		t.Fatalf("add button action wrong: %+v", btn.OnClickAction)
	}
}

func TestTaskRowWiring(t *testing.T) {
	tasks := []models.Task{{ID: "task_a", Title: "buy milk", Completed: true}}
	root := TaskListCard(tasks, "t1")

	check := findNode(root, "check_task_a")
	if check == nil || !check.DefaultChecked {
		t.Fatalf("completed task's checkbox must be checked: %+v", check)
	}
	if check.OnChangeAction == nil || check.OnChangeAction.Type != ActionToggleItem {
		t.Fatalf("checkbox action wrong: %+v", check.OnChangeAction)
	}
	if check.OnChangeAction.Payload[FieldTaskID] != "task_a" {
		t.Fatalf("checkbox payload missing task id")
	}

	label := findNode(root, "text_task_a")
	if label == nil || !label.LineThrough {
		t.Fatalf("completed task text should be struck through")
	}

	complete := findNode(root, "complete_task_a")
	if complete == nil || complete.OnClickAction.Type != ActionCompleteItem {
		t.Fatalf("complete button action wrong")
	}
	del := findNode(root, "delete_task_a")
	if del == nil || del.OnClickAction.Type != ActionDeleteItem {
		t.Fatalf("delete button action wrong")
	}
	if del.OnClickAction.Payload[FieldTaskID] != "task_a" {
		t.Fatalf("delete payload missing task id")
	}
}

func TestMarshalCarriesRootID(t *testing.T) {
	raw := Marshal(TaskListCard(nil, "t1"))
	var decoded struct {
		Type string `json:"type"`
		ID   string `json:"id"`
	}
	if err := json.Unmarshal(raw, &decoded); err != nil {
		t.Fatalf("marshal produced invalid json: %v", err)
	}
	if decoded.ID != RootID("t1") {
		t.Fatalf("serialized root id lost: %s", decoded.ID)
	}
}

func TestCollapsedSummary(t *testing.T) {
	tasks := []models.Task{
		{ID: "task_a", Title: "a"},
		{ID: "task_b", Title: "b", Completed: true},
		{ID: "task_c", Title: "c", Completed: true},
	}
	got := CollapsedSummary(tasks)
	if !strings.Contains(got, "1 pending") || !strings.Contains(got, "2 done") {
		t.Fatalf("summary counts wrong: %q", got)
	}
	if empty := CollapsedSummary(nil); !strings.Contains(empty, "0 pending") {
		t.Fatalf("empty summary wrong: %q", empty)
	}
}
