package widget

import (
	"fmt"

	"threadkit/pkg/models"
)

// Action types handled server-side. The widget builder and the action router
// agree on these strings and on the payload key names.
const (
	ActionAddItemForm  = "add_item_form"
	ActionCompleteItem = "complete_item"
	ActionToggleItem   = "toggle_item"
	ActionDeleteItem   = "delete_item"

	// FieldTaskText is the form field carrying new task text.
	FieldTaskText = "task_text"
	// FieldTaskID is the payload key naming the acted-on task.
	FieldTaskID = "task_id"
)

// RootID returns the widget root identifier for a thread. A widget item whose
// payload carries this root id is that thread's live task widget.
func RootID(threadID string) string {
	return "widget_" + threadID
}

// TaskListCard builds the interactive task list widget for a thread: header
// with pending/done badges, an add form, and one row per task with checkbox
// and complete/delete buttons.
func TaskListCard(tasks []models.Task, threadID string) Node {
	pending, completed := 0, 0
	for _, t := range tasks {
		if t.Completed {
			completed++
		} else {
			pending++
		}
	}

	pendingColor := "success"
	if pending > 0 {
		pendingColor = "warning"
	}
	children := []Node{
		Row("header_row",
			Title("title", "My Tasks", "lg"),
			Spacer("spacer1"),
			Badge("pending_badge", fmt.Sprintf("%d pending", pending), pendingColor),
			Badge("completed_badge", fmt.Sprintf("%d done", completed), "success"),
		),
		Divider("divider1"),
		addForm(),
		Spacer("spacer2"),
	}

	if len(tasks) == 0 {
		empty := Box("empty_state",
			Text("empty_text", "No tasks yet. Add one above or ask for one."),
		)
		empty.Children[0].TextAlign = "center"
		children = append(children, empty)
	} else {
		for _, t := range tasks {
			children = append(children, taskRow(t))
		}
	}

	return Card(RootID(threadID), children...)
}

func addForm() Node {
	add := Button("add_button", "Add")
	add.Color = "primary"
	add.OnClickAction = serverAction(ActionAddItemForm, nil)
	return Form("add_task_form",
		Row("form_row",
			Input("task_text", FieldTaskText, "What needs to be done?"),
			add,
		),
	)
}

func taskRow(t models.Task) Node {
	payload := map[string]string{FieldTaskID: t.ID}

	check := Checkbox("check_"+t.ID, "check_"+t.ID, t.Completed)
	check.OnChangeAction = serverAction(ActionToggleItem, payload)

	label := Text("text_"+t.ID, t.Title)
	label.LineThrough = t.Completed
	if t.Completed {
		label.Color = "secondary"
	}

	complete := Button("complete_"+t.ID, "Done")
	complete.Size = "sm"
	complete.Color = "success"
	if t.Completed {
		complete.Color = "secondary"
	}
	complete.OnClickAction = serverAction(ActionCompleteItem, payload)

	del := Button("delete_"+t.ID, "Delete")
	del.Size = "sm"
	del.Color = "danger"
	del.OnClickAction = serverAction(ActionDeleteItem, payload)

	return Row("task_"+t.ID, check, label, Spacer("spacer_"+t.ID), complete, del)
}

// CollapsedSummary is the inert text a live widget collapses to when a newer
// widget supersedes it.
func CollapsedSummary(tasks []models.Task) string {
	pending, completed := 0, 0
	for _, t := range tasks {
		if t.Completed {
			completed++
		} else {
			pending++
		}
	}
	return fmt.Sprintf("Task list snapshot: %d pending, %d done.", pending, completed)
}
