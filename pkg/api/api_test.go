package api

import (
	"bufio"
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"threadkit/pkg/chat"
	"threadkit/pkg/config"
	"threadkit/pkg/logger"
	"threadkit/pkg/models"
	"threadkit/pkg/runtime"
	"threadkit/pkg/store"
)

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	logger.Init("error", "")
	if err := store.Open(t.TempDir()); err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { store.Close() })

	orch := chat.New(runtime.NewScripted(runtime.StoreTasks{}))
	srv := httptest.NewServer(Handler(orch, &config.Config{}))
	t.Cleanup(srv.Close)
	return srv
}

func doJSON(t *testing.T, method, url string, body any) (*http.Response, []byte) {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}
	req, err := http.NewRequest(method, url, &buf)
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("%s %s: %v", method, url, err)
	}
	defer resp.Body.Close()
	var out bytes.Buffer
	out.ReadFrom(resp.Body)
	return resp, out.Bytes()
}

func TestThreadCRUD(t *testing.T) {
	srv := newTestServer(t)

	resp, body := doJSON(t, http.MethodPost, srv.URL+"/v1/threads", map[string]string{"title": "groceries"})
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("create: %d %s", resp.StatusCode, body)
	}
	var th models.Thread
	json.Unmarshal(body, &th)
	if th.ID == "" || th.Title != "groceries" || th.Status != models.ThreadActive {
		t.Fatalf("created thread wrong: %+v", th)
	}

	resp, body = doJSON(t, http.MethodGet, srv.URL+"/v1/threads/"+th.ID, nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("get: %d", resp.StatusCode)
	}

	resp, body = doJSON(t, http.MethodPut, srv.URL+"/v1/threads/"+th.ID, map[string]string{"title": "renamed", "status": "locked"})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("update: %d %s", resp.StatusCode, body)
	}
	var updated models.Thread
	json.Unmarshal(body, &updated)
	if updated.Title != "renamed" || updated.Status != models.ThreadLocked {
		t.Fatalf("update not applied: %+v", updated)
	}
	if updated.CreatedTS != th.CreatedTS {
		t.Fatalf("update must preserve creation time")
	}

	resp, _ = doJSON(t, http.MethodDelete, srv.URL+"/v1/threads/"+th.ID, nil)
	if resp.StatusCode != http.StatusNoContent {
		t.Fatalf("delete: %d", resp.StatusCode)
	}
}

func TestGetThreadProvisions(t *testing.T) {
	srv := newTestServer(t)

	resp, body := doJSON(t, http.MethodGet, srv.URL+"/v1/threads/brand-new", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("get should provision, got %d", resp.StatusCode)
	}
	var th models.Thread
	json.Unmarshal(body, &th)
	if th.ID != "brand-new" || th.Status != models.ThreadActive {
		t.Fatalf("provisioned thread wrong: %+v", th)
	}
}

func TestItemEndpoints(t *testing.T) {
	srv := newTestServer(t)

	item := map[string]any{"type": "user_message", "payload": map[string]string{"text": "hello"}}
	resp, body := doJSON(t, http.MethodPost, srv.URL+"/v1/threads/t1/items", item)
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("create item: %d %s", resp.StatusCode, body)
	}
	var created models.Item
	json.Unmarshal(body, &created)
	if created.ID == "" || created.Thread != "t1" {
		t.Fatalf("created item wrong: %+v", created)
	}

	resp, body = doJSON(t, http.MethodGet, srv.URL+"/v1/threads/t1/items", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("list items: %d", resp.StatusCode)
	}
	var page store.ItemPage
	json.Unmarshal(body, &page)
	if len(page.Items) != 1 || page.HasMore {
		t.Fatalf("unexpected page: %+v", page)
	}

	// the item belongs to t1, fetching it through another thread 404s
	resp, _ = doJSON(t, http.MethodGet, srv.URL+"/v1/threads/other/items/"+created.ID, nil)
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("cross-thread get should 404, got %d", resp.StatusCode)
	}

	resp, _ = doJSON(t, http.MethodDelete, srv.URL+"/v1/threads/t1/items/"+created.ID, nil)
	if resp.StatusCode != http.StatusNoContent {
		t.Fatalf("delete item: %d", resp.StatusCode)
	}
	// deleting again still succeeds
	resp, _ = doJSON(t, http.MethodDelete, srv.URL+"/v1/threads/t1/items/"+created.ID, nil)
	if resp.StatusCode != http.StatusNoContent {
		t.Fatalf("second delete should be idempotent, got %d", resp.StatusCode)
	}
}

func TestItemValidation(t *testing.T) {
	srv := newTestServer(t)

	bad := map[string]any{"type": "hologram", "payload": map[string]string{}}
	resp, _ := doJSON(t, http.MethodPost, srv.URL+"/v1/threads/t1/items", bad)
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("unknown item type should 400, got %d", resp.StatusCode)
	}
}

func TestTaskEndpoints(t *testing.T) {
	srv := newTestServer(t)

	resp, body := doJSON(t, http.MethodPost, srv.URL+"/v1/tasks", map[string]string{"title": "buy milk", "thread": "t1"})
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("create task: %d %s", resp.StatusCode, body)
	}
	var task models.Task
	json.Unmarshal(body, &task)
	if task.ID == "" || task.Title != "buy milk" {
		t.Fatalf("created task wrong: %+v", task)
	}

	resp, _ = doJSON(t, http.MethodPost, srv.URL+"/v1/tasks", map[string]string{"title": "  "})
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("blank title should 400, got %d", resp.StatusCode)
	}

	resp, body = doJSON(t, http.MethodPost, srv.URL+"/v1/tasks/"+task.ID+"/complete", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("complete: %d %s", resp.StatusCode, body)
	}
	var done models.Task
	json.Unmarshal(body, &done)
	if !done.Completed {
		t.Fatalf("task not completed: %+v", done)
	}

	resp, _ = doJSON(t, http.MethodPost, srv.URL+"/v1/tasks/task_missing/complete", nil)
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("completing a missing task should 404, got %d", resp.StatusCode)
	}

	resp, body = doJSON(t, http.MethodGet, srv.URL+"/v1/tasks", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("list tasks: %d", resp.StatusCode)
	}
	var page store.TaskPage
	json.Unmarshal(body, &page)
	if len(page.Tasks) != 1 {
		t.Fatalf("unexpected task page: %+v", page)
	}

	resp, _ = doJSON(t, http.MethodDelete, srv.URL+"/v1/tasks/"+task.ID, nil)
	if resp.StatusCode != http.StatusNoContent {
		t.Fatalf("delete task: %d", resp.StatusCode)
	}
}

func TestAttachmentEndpoints(t *testing.T) {
	srv := newTestServer(t)

	att := map[string]any{"thread": "t1", "name": "notes.txt", "mime_type": "text/plain", "size": 42}
	resp, body := doJSON(t, http.MethodPost, srv.URL+"/v1/attachments", att)
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("create attachment: %d %s", resp.StatusCode, body)
	}
	var created models.Attachment
	json.Unmarshal(body, &created)
	if created.ID == "" || created.Thread != "t1" {
		t.Fatalf("created attachment wrong: %+v", created)
	}

	resp, _ = doJSON(t, http.MethodPost, srv.URL+"/v1/attachments", map[string]any{"name": "orphan"})
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("attachment without thread should 400, got %d", resp.StatusCode)
	}

	resp, body = doJSON(t, http.MethodGet, srv.URL+"/v1/threads/t1/attachments", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("list attachments: %d", resp.StatusCode)
	}
	var listed struct {
		Attachments []models.Attachment `json:"attachments"`
	}
	json.Unmarshal(body, &listed)
	if len(listed.Attachments) != 1 || listed.Attachments[0].ID != created.ID {
		t.Fatalf("unexpected attachment list: %+v", listed)
	}

	resp, _ = doJSON(t, http.MethodDelete, srv.URL+"/v1/attachments/"+created.ID, nil)
	if resp.StatusCode != http.StatusNoContent {
		t.Fatalf("delete attachment: %d", resp.StatusCode)
	}
}

func decodeEvents(t *testing.T, body []byte) []models.StreamEvent {
	t.Helper()
	var events []models.StreamEvent
	sc := bufio.NewScanner(bytes.NewReader(body))
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" {
			continue
		}
		var ev models.StreamEvent
		if err := json.Unmarshal([]byte(line), &ev); err != nil {
			t.Fatalf("bad event line %q: %v", line, err)
		}
		events = append(events, ev)
	}
	return events
}

func TestTurnEndpointStreamsEvents(t *testing.T) {
	srv := newTestServer(t)

	resp, body := doJSON(t, http.MethodPost, srv.URL+"/v1/threads/t1/turns", map[string]string{"text": "add buy milk"})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("turn: %d %s", resp.StatusCode, body)
	}
	if ct := resp.Header.Get("Content-Type"); ct != "application/x-ndjson" {
		t.Fatalf("content type wrong: %s", ct)
	}
	events := decodeEvents(t, body)
	if len(events) == 0 || events[len(events)-1].Type != models.EventTurnCompleted {
		t.Fatalf("stream must end with turn_completed: %+v", events)
	}
	if events[0].Type != models.EventItemCreated || events[0].Item == nil || events[0].Item.Type != models.ItemUserMessage {
		t.Fatalf("first event must carry the user item: %+v", events[0])
	}
}

func TestActionEndpoint(t *testing.T) {
	srv := newTestServer(t)

	action := map[string]any{
		"type":    "add_item_form",
		"payload": map[string]any{"task_text": "from the form"},
	}
	resp, body := doJSON(t, http.MethodPost, srv.URL+"/v1/threads/t1/actions", action)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("action: %d %s", resp.StatusCode, body)
	}
	events := decodeEvents(t, body)
	if events[len(events)-1].Type != models.EventTurnCompleted {
		t.Fatalf("action stream must end with turn_completed")
	}

	tasks, _ := store.ListAllTasks()
	if len(tasks) != 1 || tasks[0].Title != "from the form" {
		t.Fatalf("action did not create the task: %+v", tasks)
	}

	// an action without a type is rejected before the orchestrator runs
	resp, _ = doJSON(t, http.MethodPost, srv.URL+"/v1/threads/t1/actions", map[string]any{"payload": map[string]any{}})
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("missing action type should 400, got %d", resp.StatusCode)
	}
}
