package store

import (
	"bytes"
	"encoding/json"
	"fmt"
	"time"

	"threadkit/pkg/logger"
	"threadkit/pkg/models"
	"threadkit/pkg/utils"

	"github.com/cockroachdb/pebble"
)

func itemKey(threadID, suffix string) []byte {
	return []byte("thread:" + threadID + ":item:" + suffix)
}

func itemIdxKey(itemID string) []byte {
	return []byte("itemidx:" + itemID)
}

// SaveItem upserts an item by id. A new item is appended under a fresh
// sortable key; an existing item keeps its key position and CreatedTS, only
// the payload (and type) change. An upsert naming a different thread re-homes
// the row and its index under that thread's keyspace in the same batch. This
// is the single write path for both transcript appends and the sanctioned
// in-place mutations (widget collapse, widget patch).
func SaveItem(it *models.Item) error {
	if db == nil {
		return notOpened()
	}
	done := observe("save_item")
	defer done()

	if it == nil || it.Thread == "" {
		return fmt.Errorf("item thread required")
	}
	if it.ID == "" {
		it.ID = utils.GenItemID()
	}
	now := time.Now().UTC().UnixNano()

	mu.Lock()
	defer mu.Unlock()

	batch := db.NewBatch()
	if pk, closer, err := db.Get(itemIdxKey(it.ID)); err == nil {
		primary := append([]byte(nil), pk...)
		closer.Close()
		var existing models.Item
		if v, c2, gerr := db.Get(primary); gerr == nil {
			if json.Unmarshal(v, &existing) == nil && existing.CreatedTS != 0 {
				it.CreatedTS = existing.CreatedTS
			}
			c2.Close()
		}
		if it.CreatedTS == 0 {
			it.CreatedTS = now
		}
		if existing.Thread != "" && existing.Thread != it.Thread {
			// thread changed: re-home the row so key, index and the thread
			// field stay consistent. The creation-ordered suffix moves with
			// it, keeping the item's position in the new thread's order.
			suffix := string(primary[len(itemKey(existing.Thread, "")):])
			moved := itemKey(it.Thread, suffix)
			_ = batch.Delete(primary, nil)
			_ = batch.Set(itemIdxKey(it.ID), moved, nil)
			primary = moved
		}
		b, _ := json.Marshal(it)
		_ = batch.Set(primary, b, nil)
	} else if err == pebble.ErrNotFound {
		if it.CreatedTS == 0 {
			it.CreatedTS = now
		}
		suffix := utils.SortableSuffix()
		pk := itemKey(it.Thread, suffix)
		b, _ := json.Marshal(it)
		_ = batch.Set(pk, b, nil)
		_ = batch.Set(itemIdxKey(it.ID), pk, nil)
	} else {
		_ = batch.Close()
		return err
	}
	touchThread(batch, it.Thread, now)
	if err := batch.Commit(pebble.Sync); err != nil {
		logger.Error("save_item_failed", "thread", it.Thread, "item", it.ID, "error", err)
		return err
	}
	logger.Debug("item_saved", "thread", it.Thread, "item", it.ID, "type", string(it.Type))
	return nil
}

// GetItem returns the item with the given id.
func GetItem(itemID string) (models.Item, error) {
	if db == nil {
		return models.Item{}, notOpened()
	}
	done := observe("get_item")
	defer done()

	pk, closer, err := db.Get(itemIdxKey(itemID))
	if err != nil {
		return models.Item{}, mapGetErr(err)
	}
	primary := append([]byte(nil), pk...)
	closer.Close()

	v, c2, err := db.Get(primary)
	if err != nil {
		return models.Item{}, mapGetErr(err)
	}
	defer c2.Close()
	var it models.Item
	if uerr := json.Unmarshal(v, &it); uerr != nil {
		return models.Item{}, fmt.Errorf("invalid item data: %w", uerr)
	}
	return it, nil
}

// DeleteItem removes an item and its index entry. Deleting an absent item
// reports ErrNotFound; callers treat that as success when idempotency is
// wanted.
func DeleteItem(itemID string) error {
	if db == nil {
		return notOpened()
	}
	done := observe("delete_item")
	defer done()

	mu.Lock()
	defer mu.Unlock()

	pk, closer, err := db.Get(itemIdxKey(itemID))
	if err != nil {
		return mapGetErr(err)
	}
	primary := append([]byte(nil), pk...)
	closer.Close()

	batch := db.NewBatch()
	_ = batch.Delete(primary, nil)
	_ = batch.Delete(itemIdxKey(itemID), nil)
	if err := batch.Commit(pebble.Sync); err != nil {
		logger.Error("delete_item_failed", "item", itemID, "error", err)
		return err
	}
	logger.Debug("item_deleted", "item", itemID)
	return nil
}

// ItemPage is one page of a thread's items.
type ItemPage struct {
	Items      []models.Item `json:"items"`
	HasMore    bool          `json:"has_more"`
	NextCursor string        `json:"next_cursor,omitempty"`
}

// ListItems pages through a thread's items in store-key order. Ascending
// order matches creation order; the cursor resumes strictly after (or before,
// descending) the referenced key, whether or not that row still exists.
// HasMore is computed by reading one row past the limit.
func ListItems(threadID, cursor string, limit int, order Order) (ItemPage, error) {
	if db == nil {
		return ItemPage{}, notOpened()
	}
	done := observe("list_items")
	defer done()

	if limit <= 0 {
		limit = 50
	}
	curSuffix, _, ok := DecodeCursor(cursor)
	if !ok {
		return ItemPage{}, fmt.Errorf("invalid cursor")
	}

	prefix := itemKey(threadID, "")
	iter, err := db.NewIter(&pebble.IterOptions{})
	if err != nil {
		return ItemPage{}, err
	}
	defer iter.Close()

	page := ItemPage{}
	var lastSuffix string
	collect := func() bool {
		if !bytes.HasPrefix(iter.Key(), prefix) {
			return false
		}
		if len(page.Items) >= limit {
			page.HasMore = true
			return false
		}
		var it models.Item
		if json.Unmarshal(iter.Value(), &it) == nil && it.ID != "" {
			page.Items = append(page.Items, it)
			lastSuffix = string(iter.Key()[len(prefix):])
		}
		return true
	}

	if order == OrderDesc {
		// upper bound: one past the cursor key, or the whole prefix range
		var seek []byte
		if curSuffix != "" {
			seek = itemKey(threadID, curSuffix)
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
			// append a zero byte to land strictly after the cursor key
			seek = append(itemKey(threadID, curSuffix), 0x00)
		}
		for valid := iter.SeekGE(seek); valid; valid = iter.Next() {
			if !collect() {
				break
			}
		}
	}
	if err := iter.Error(); err != nil {
		return ItemPage{}, err
	}
	if page.HasMore && lastSuffix != "" && len(page.Items) > 0 {
		page.NextCursor = EncodeCursor(lastSuffix, page.Items[len(page.Items)-1].ID)
	}
	return page, nil
}

// ListAllItems returns every item of a thread in creation order by walking
// pages internally. Intended for server-side consumers (turn context
// assembly, widget scans) where the full transcript is needed.
func ListAllItems(threadID string) ([]models.Item, error) {
	var out []models.Item
	cursor := ""
	for {
		page, err := ListItems(threadID, cursor, 200, OrderAsc)
		if err != nil {
			return nil, err
		}
		out = append(out, page.Items...)
		if !page.HasMore || page.NextCursor == "" {
			return out, nil
		}
		cursor = page.NextCursor
	}
}
