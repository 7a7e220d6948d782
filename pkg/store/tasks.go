package store

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"threadkit/pkg/logger"
	"threadkit/pkg/models"
	"threadkit/pkg/utils"

	"github.com/cockroachdb/pebble"
)

// Tasks live in a single global keyspace. The task id embeds the store key
// suffix ("task_<suffix>" under "task:<suffix>"), so lookups need no
// secondary index and prefix iteration yields creation order.

func taskKey(taskID string) ([]byte, error) {
	suffix, found := strings.CutPrefix(taskID, "task_")
	if !found || suffix == "" {
		return nil, fmt.Errorf("malformed task id %q", taskID)
	}
	return []byte("task:" + suffix), nil
}

// AddTask persists a new task with the given title. The thread id is recorded
// as provenance only; it never scopes visibility.
func AddTask(title, threadID string) (models.Task, error) {
	if db == nil {
		return models.Task{}, notOpened()
	}
	done := observe("add_task")
	defer done()

	title = strings.TrimSpace(title)
	if title == "" {
		return models.Task{}, fmt.Errorf("task title required")
	}
	now := time.Now().UTC().UnixNano()
	t := models.Task{
		ID:        utils.GenTaskID(),
		Title:     title,
		Thread:    threadID,
		CreatedTS: now,
		UpdatedTS: now,
	}
	key, err := taskKey(t.ID)
	if err != nil {
		return models.Task{}, err
	}

	mu.Lock()
	defer mu.Unlock()
	b, _ := json.Marshal(t)
	if err := db.Set(key, b, pebble.Sync); err != nil {
		logger.Error("add_task_failed", "task", t.ID, "error", err)
		return models.Task{}, err
	}
	logger.Info("task_added", "task", t.ID, "thread", threadID)
	return t, nil
}

// GetTask returns the task with the given id.
func GetTask(taskID string) (models.Task, error) {
	if db == nil {
		return models.Task{}, notOpened()
	}
	key, err := taskKey(taskID)
	if err != nil {
		return models.Task{}, ErrNotFound
	}
	v, closer, gerr := db.Get(key)
	if gerr != nil {
		return models.Task{}, mapGetErr(gerr)
	}
	defer closer.Close()
	var t models.Task
	if uerr := json.Unmarshal(v, &t); uerr != nil {
		return models.Task{}, fmt.Errorf("invalid task data: %w", uerr)
	}
	return t, nil
}

// CompleteTask marks a task completed. Completion is one-way and idempotent:
// completing an already-completed task is a no-op, and there is no path back
// to incomplete.
func CompleteTask(taskID string) (models.Task, error) {
	if db == nil {
		return models.Task{}, notOpened()
	}
	done := observe("complete_task")
	defer done()

	key, err := taskKey(taskID)
	if err != nil {
		return models.Task{}, ErrNotFound
	}

	mu.Lock()
	defer mu.Unlock()
	v, closer, gerr := db.Get(key)
	if gerr != nil {
		return models.Task{}, mapGetErr(gerr)
	}
	var t models.Task
	uerr := json.Unmarshal(v, &t)
	closer.Close()
	if uerr != nil {
		return models.Task{}, fmt.Errorf("invalid task data: %w", uerr)
	}
	if t.Completed {
		return t, nil
	}
	t.Completed = true
	t.UpdatedTS = time.Now().UTC().UnixNano()
	b, _ := json.Marshal(t)
	if err := db.Set(key, b, pebble.Sync); err != nil {
		logger.Error("complete_task_failed", "task", taskID, "error", err)
		return models.Task{}, err
	}
	logger.Info("task_completed", "task", taskID)
	return t, nil
}

// DeleteTask removes a task. Deleting an absent task reports ErrNotFound;
// action handlers swallow that to stay idempotent.
func DeleteTask(taskID string) error {
	if db == nil {
		return notOpened()
	}
	done := observe("delete_task")
	defer done()

	key, err := taskKey(taskID)
	if err != nil {
		return ErrNotFound
	}

	mu.Lock()
	defer mu.Unlock()
	if _, closer, gerr := db.Get(key); gerr != nil {
		return mapGetErr(gerr)
	} else {
		closer.Close()
	}
	if err := db.Delete(key, pebble.Sync); err != nil {
		logger.Error("delete_task_failed", "task", taskID, "error", err)
		return err
	}
	logger.Info("task_deleted", "task", taskID)
	return nil
}

// TaskPage is one page of the global task list.
type TaskPage struct {
	Tasks      []models.Task `json:"tasks"`
	HasMore    bool          `json:"has_more"`
	NextCursor string        `json:"next_cursor,omitempty"`
}

// ListTasks pages through every task in creation order, regardless of which
// thread created it.
func ListTasks(cursor string, limit int, order Order) (TaskPage, error) {
	if db == nil {
		return TaskPage{}, notOpened()
	}
	done := observe("list_tasks")
	defer done()

	if limit <= 0 {
		limit = 50
	}
	curSuffix, _, ok := DecodeCursor(cursor)
	if !ok {
		return TaskPage{}, fmt.Errorf("invalid cursor")
	}

	prefix := []byte("task:")
	iter, err := db.NewIter(&pebble.IterOptions{})
	if err != nil {
		return TaskPage{}, err
	}
	defer iter.Close()

	page := TaskPage{}
	var lastSuffix string
	collect := func() bool {
		if !bytes.HasPrefix(iter.Key(), prefix) {
			return false
		}
		if len(page.Tasks) >= limit {
			page.HasMore = true
			return false
		}
		var t models.Task
		if json.Unmarshal(iter.Value(), &t) == nil && t.ID != "" {
			page.Tasks = append(page.Tasks, t)
			lastSuffix = string(iter.Key()[len(prefix):])
		}
		return true
	}

	if order == OrderDesc {
		var seek []byte
		if curSuffix != "" {
			seek = append([]byte("task:"), curSuffix...)
		} else {
			seek = append(append([]byte(nil), prefix...), 0xff)
		}
		for valid := iter.SeekLT(seek); valid; valid = iter.Prev() {
			if !collect() {
				break
			}
		}
	} else {
		seek := prefix
		if curSuffix != "" {
			seek = append(append([]byte("task:"), curSuffix...), 0x00)
		}
		for valid := iter.SeekGE(seek); valid; valid = iter.Next() {
			if !collect() {
				break
			}
		}
	}
	if err := iter.Error(); err != nil {
		return TaskPage{}, err
	}
	if page.HasMore && lastSuffix != "" && len(page.Tasks) > 0 {
		page.NextCursor = EncodeCursor(lastSuffix, page.Tasks[len(page.Tasks)-1].ID)
	}
	return page, nil
}

// ListAllTasks returns the full global task list in creation order.
func ListAllTasks() ([]models.Task, error) {
	var out []models.Task
	cursor := ""
	for {
		page, err := ListTasks(cursor, 200, OrderAsc)
		if err != nil {
			return nil, err
		}
		out = append(out, page.Tasks...)
		if !page.HasMore || page.NextCursor == "" {
			return out, nil
		}
		cursor = page.NextCursor
	}
}
