package lifecycle

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

func liveWidgets(t *testing.T, threadID string) []models.Item {
	t.Helper()
	items, err := store.ListAllItems(threadID)
	if err != nil {
		t.Fatalf("list items: %v", err)
	}
	var live []models.Item
	for _, it := range items {
		if IsLive(it, threadID) {
			live = append(live, it)
		}
	}
	return live
}

func taskPayload(threadID string, tasks []models.Task) []byte {
	return widget.Marshal(widget.TaskListCard(tasks, threadID))
}

func TestSyncAppendsLiveWidget(t *testing.T) {
	openTestStore(t)
	store.LoadThread("t1")

	events, fresh, err := Sync("t1", taskPayload("t1", nil), widget.CollapsedSummary(nil))
	if err != nil {
		t.Fatalf("sync: %v", err)
	}
	if fresh == nil || fresh.Type != models.ItemWidget {
		t.Fatalf("no fresh widget appended: %+v", fresh)
	}
	if len(events) != 1 || events[0].Type != models.EventItemCreated {
		t.Fatalf("first sync should emit exactly one item_created, got %+v", events)
	}
	if got := liveWidgets(t, "t1"); len(got) != 1 || got[0].ID != fresh.ID {
		t.Fatalf("expected the appended widget to be live, got %d", len(got))
	}
}

func TestSyncCollapsesPriorWidgets(t *testing.T) {
	openTestStore(t)
	store.LoadThread("t1")

	_, first, err := Sync("t1", taskPayload("t1", nil), widget.CollapsedSummary(nil))
	if err != nil {
		t.Fatalf("first sync: %v", err)
	}
	orig, _ := store.GetItem(first.ID)

	tasks := []models.Task{{ID: "task_a", Title: "one"}}
	events, second, err := Sync("t1", taskPayload("t1", tasks), widget.CollapsedSummary(tasks))
	if err != nil {
		t.Fatalf("second sync: %v", err)
	}

	if len(events) != 2 {
		t.Fatalf("expected item_replaced then item_created, got %d events", len(events))
	}
	if events[0].Type != models.EventItemReplaced || events[0].ItemID != first.ID {
		t.Fatalf("collapse event wrong: %+v", events[0])
	}
	if events[1].Type != models.EventItemCreated || events[1].ItemID != second.ID {
		t.Fatalf("append event wrong: %+v", events[1])
	}

	live := liveWidgets(t, "t1")
	if len(live) != 1 || live[0].ID != second.ID {
		t.Fatalf("exactly the newest widget may be live, got %d", len(live))
	}

	collapsed, err := store.GetItem(first.ID)
	if err != nil {
		t.Fatalf("collapsed widget vanished: %v", err)
	}
	if collapsed.Type != models.ItemWidget {
		t.Fatalf("collapse must not change the item type: %s", collapsed.Type)
	}
	if collapsed.CreatedTS != orig.CreatedTS {
		t.Fatalf("collapse must preserve creation time")
	}
	if collapsed.WidgetRootID() != "" {
		t.Fatalf("collapsed payload must not carry a root id")
	}
}

func TestRepeatedSyncLeavesOneLiveWidget(t *testing.T) {
	openTestStore(t)
	store.LoadThread("t1")

	var lastID string
	for i := 0; i < 5; i++ {
		_, fresh, err := Sync("t1", taskPayload("t1", nil), widget.CollapsedSummary(nil))
		if err != nil {
			t.Fatalf("sync %d: %v", i, err)
		}
		lastID = fresh.ID
	}

	live := liveWidgets(t, "t1")
	if len(live) != 1 || live[0].ID != lastID {
		t.Fatalf("after repeated syncs exactly the last widget is live, got %d", len(live))
	}
	items, _ := store.ListAllItems("t1")
	if len(items) != 5 {
		t.Fatalf("collapse must keep items in place, got %d", len(items))
	}
}

func TestSyncScopedPerThread(t *testing.T) {
	openTestStore(t)
	store.LoadThread("t1")
	store.LoadThread("t2")

	_, w1, _ := Sync("t1", taskPayload("t1", nil), widget.CollapsedSummary(nil))
	Sync("t2", taskPayload("t2", nil), widget.CollapsedSummary(nil))

	// the t2 sync must not collapse t1's widget
	if got := liveWidgets(t, "t1"); len(got) != 1 || got[0].ID != w1.ID {
		t.Fatalf("other-thread sync collapsed this thread's widget")
	}
}

func TestPatchUpdatesInPlace(t *testing.T) {
	openTestStore(t)
	store.LoadThread("t1")

	_, fresh, _ := Sync("t1", taskPayload("t1", nil), widget.CollapsedSummary(nil))
	orig, _ := store.GetItem(fresh.ID)

	tasks := []models.Task{{ID: "task_a", Title: "patched in"}}
	events, err := Patch(fresh.ID, taskPayload("t1", tasks))
	if err != nil {
		t.Fatalf("patch: %v", err)
	}
	if len(events) != 1 || events[0].Type != models.EventItemUpdated {
		t.Fatalf("patch should emit one item_updated, got %+v", events)
	}
	if events[0].ItemID != fresh.ID || len(events[0].Widget) == 0 {
		t.Fatalf("item_updated must carry the patched item id and new root")
	}
	if events[0].Item != nil {
		t.Fatalf("item_updated carries only the widget root, not the item")
	}

	after, _ := store.GetItem(fresh.ID)
	if after.CreatedTS != orig.CreatedTS {
		t.Fatalf("patch must not touch creation time")
	}
	if got := liveWidgets(t, "t1"); len(got) != 1 || got[0].ID != fresh.ID {
		t.Fatalf("patched widget must stay live")
	}
}

func TestPatchMissingItem(t *testing.T) {
	openTestStore(t)
	store.LoadThread("t1")

	if _, err := Patch("item_missing", taskPayload("t1", nil)); err == nil {
		t.Fatalf("patching an unknown item should fail")
	}
}
