package store

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"
	"sync"
	"time"

	"threadkit/pkg/logger"
	"threadkit/pkg/models"

	"github.com/cockroachdb/pebble"
)

// Key namespaces:
//
//	thread:<threadID>:meta                  thread metadata JSON
//	thread:<threadID>:item:<ts20>-<seq6>    item JSON, key ordered by creation
//	itemidx:<itemID>                        -> primary item key
//	thread:<threadID>:attach:<attachID>     attachment JSON
//	attachidx:<attachID>                    -> thread-scoped attachment key
//	task:<ts20>-<seq6>                      task JSON (task id embeds the suffix)
var (
	db     *pebble.DB
	dbPath string

	// mu is the single logical writer lock: every mutation on the store
	// serializes through it, readers proceed concurrently. Two tool
	// invocations racing on the same task set cannot lose updates.
	mu sync.Mutex
)

// Open opens (or creates) a Pebble database at the given path and keeps a
// global handle for simple usage in this package.
func Open(path string) error {
	var err error
	logger.Info("opening_pebble_db", "path", path)
	db, err = pebble.Open(path, &pebble.Options{})
	if err != nil {
		logger.Error("pebble_open_failed", "path", path, "error", err)
		return err
	}
	dbPath = path
	logger.Info("pebble_opened", "path", path)
	return nil
}

// Close closes the opened pebble DB if present.
func Close() error {
	if db == nil {
		return nil
	}
	if err := db.Close(); err != nil {
		return err
	}
	db = nil
	logger.Info("pebble_closed")
	return nil
}

// Ready reports whether the store is opened and ready.
func Ready() bool {
	return db != nil
}

func threadMetaKey(threadID string) []byte {
	return []byte("thread:" + threadID + ":meta")
}

// LoadThread returns the thread with the given id, atomically provisioning a
// new active thread when absent. It never reports NotFound.
func LoadThread(threadID string) (models.Thread, error) {
	if db == nil {
		return models.Thread{}, notOpened()
	}
	done := observe("load_thread")
	defer done()

	v, closer, err := db.Get(threadMetaKey(threadID))
	if err == nil {
		defer closer.Close()
		var th models.Thread
		if uerr := json.Unmarshal(v, &th); uerr != nil {
			return models.Thread{}, fmt.Errorf("invalid thread metadata: %w", uerr)
		}
		return th, nil
	}
	if err != pebble.ErrNotFound {
		return models.Thread{}, err
	}

	now := time.Now().UTC().UnixNano()
	th := models.Thread{ID: threadID, Status: models.ThreadActive, CreatedTS: now, UpdatedTS: now}

	mu.Lock()
	defer mu.Unlock()
	// Re-check under the writer lock: a concurrent provision wins.
	if v2, closer2, err2 := db.Get(threadMetaKey(threadID)); err2 == nil {
		defer closer2.Close()
		var existing models.Thread
		if uerr := json.Unmarshal(v2, &existing); uerr == nil {
			return existing, nil
		}
	}
	b, _ := json.Marshal(th)
	if err := db.Set(threadMetaKey(threadID), b, pebble.Sync); err != nil {
		logger.Error("provision_thread_failed", "thread", threadID, "error", err)
		return models.Thread{}, err
	}
	logger.Info("thread_provisioned", "thread", threadID)
	return th, nil
}

// SaveThread upserts thread metadata. The original CreatedTS of an existing
// thread is preserved; a save never clobbers creation time.
func SaveThread(th models.Thread) error {
	if db == nil {
		return notOpened()
	}
	done := observe("save_thread")
	defer done()

	if th.ID == "" {
		return fmt.Errorf("thread id required")
	}
	if !th.Status.Valid() {
		th.Status = models.ThreadActive
	}
	now := time.Now().UTC().UnixNano()

	mu.Lock()
	defer mu.Unlock()
	if v, closer, err := db.Get(threadMetaKey(th.ID)); err == nil {
		var existing models.Thread
		if uerr := json.Unmarshal(v, &existing); uerr == nil && existing.CreatedTS != 0 {
			th.CreatedTS = existing.CreatedTS
		}
		closer.Close()
	} else if th.CreatedTS == 0 {
		th.CreatedTS = now
	}
	th.UpdatedTS = now

	b, _ := json.Marshal(th)
	if err := db.Set(threadMetaKey(th.ID), b, pebble.Sync); err != nil {
		logger.Error("save_thread_failed", "thread", th.ID, "error", err)
		return err
	}
	logger.Debug("thread_saved", "thread", th.ID)
	return nil
}

// touchThread bumps a thread's UpdatedTS inside an existing batch. Caller
// holds the writer lock.
func touchThread(batch *pebble.Batch, threadID string, ts int64) {
	v, closer, err := db.Get(threadMetaKey(threadID))
	if err != nil {
		return
	}
	defer closer.Close()
	var th models.Thread
	if json.Unmarshal(v, &th) != nil {
		return
	}
	th.UpdatedTS = ts
	b, _ := json.Marshal(th)
	_ = batch.Set(threadMetaKey(threadID), b, nil)
}

// DeleteThread removes a thread, cascading to its items and attachments.
// Tasks are global and deliberately survive thread deletion.
func DeleteThread(threadID string) error {
	if db == nil {
		return notOpened()
	}
	done := observe("delete_thread")
	defer done()

	mu.Lock()
	defer mu.Unlock()

	prefix := []byte("thread:" + threadID + ":")
	iter, err := db.NewIter(&pebble.IterOptions{})
	if err != nil {
		return err
	}

	batch := db.NewBatch()
	for iter.SeekGE(prefix); iter.Valid(); iter.Next() {
		if !bytes.HasPrefix(iter.Key(), prefix) {
			break
		}
		k := append([]byte(nil), iter.Key()...)
		v := append([]byte(nil), iter.Value()...)
		_ = batch.Delete(k, nil)
		// drop secondary indexes for items and attachments
		if bytes.HasPrefix(k, []byte("thread:"+threadID+":item:")) {
			var it models.Item
			if json.Unmarshal(v, &it) == nil && it.ID != "" {
				_ = batch.Delete(itemIdxKey(it.ID), nil)
			}
		} else if bytes.HasPrefix(k, []byte("thread:"+threadID+":attach:")) {
			var a models.Attachment
			if json.Unmarshal(v, &a) == nil && a.ID != "" {
				_ = batch.Delete(attachIdxKey(a.ID), nil)
			}
		}
	}
	ierr := iter.Error()
	_ = iter.Close()
	if ierr != nil {
		_ = batch.Close()
		return ierr
	}
	if err := batch.Commit(pebble.Sync); err != nil {
		logger.Error("delete_thread_failed", "thread", threadID, "error", err)
		return err
	}
	logger.Info("thread_deleted", "thread", threadID)
	return nil
}

// ThreadPage is one page of threads ordered by last-update time.
type ThreadPage struct {
	Threads    []models.Thread `json:"threads"`
	HasMore    bool            `json:"has_more"`
	NextCursor string          `json:"next_cursor,omitempty"`
}

// ListThreads returns a page of threads ordered by UpdatedTS (id breaks
// ties). The cursor resumes strictly after the referenced thread. Because the
// order is update-time, a thread touched between pages re-sorts and the
// resume position shifts with it; only the creation-ordered item and task
// listings guarantee stable cursors under concurrent writes.
func ListThreads(cursor string, limit int, order Order) (ThreadPage, error) {
	if db == nil {
		return ThreadPage{}, notOpened()
	}
	done := observe("list_threads")
	defer done()

	if limit <= 0 {
		limit = 50
	}
	curKey, curID, ok := DecodeCursor(cursor)
	if !ok {
		return ThreadPage{}, fmt.Errorf("invalid cursor")
	}

	prefix := []byte("thread:")
	iter, err := db.NewIter(&pebble.IterOptions{})
	if err != nil {
		return ThreadPage{}, err
	}
	defer iter.Close()

	var all []models.Thread
	for iter.SeekGE(prefix); iter.Valid(); iter.Next() {
		if !bytes.HasPrefix(iter.Key(), prefix) {
			break
		}
		if !bytes.HasSuffix(iter.Key(), []byte(":meta")) {
			continue
		}
		var th models.Thread
		if json.Unmarshal(iter.Value(), &th) == nil && th.ID != "" {
			all = append(all, th)
		}
	}
	if err := iter.Error(); err != nil {
		return ThreadPage{}, err
	}

	sort.Slice(all, func(i, j int) bool {
		a, b := all[i], all[j]
		if order == OrderDesc {
			if a.UpdatedTS != b.UpdatedTS {
				return a.UpdatedTS > b.UpdatedTS
			}
			return a.ID > b.ID
		}
		if a.UpdatedTS != b.UpdatedTS {
			return a.UpdatedTS < b.UpdatedTS
		}
		return a.ID < b.ID
	})

	start := 0
	if curKey != "" {
		for i, th := range all {
			if threadSortKey(th) == curKey && th.ID == curID {
				start = i + 1
				break
			}
			// cursor row deleted: resume at the first row past its position
			past := threadSortKey(th) > curKey || (threadSortKey(th) == curKey && th.ID > curID)
			if order == OrderDesc {
				past = threadSortKey(th) < curKey || (threadSortKey(th) == curKey && th.ID < curID)
			}
			if past {
				start = i
				break
			}
			start = i + 1
		}
	}

	page := ThreadPage{}
	for i := start; i < len(all); i++ {
		if len(page.Threads) >= limit {
			page.HasMore = true
			break
		}
		page.Threads = append(page.Threads, all[i])
	}
	if page.HasMore && len(page.Threads) > 0 {
		last := page.Threads[len(page.Threads)-1]
		page.NextCursor = EncodeCursor(threadSortKey(last), last.ID)
	}
	return page, nil
}

func threadSortKey(th models.Thread) string {
	return fmt.Sprintf("%020d", th.UpdatedTS)
}
