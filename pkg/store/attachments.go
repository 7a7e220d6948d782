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

func attachKey(threadID, attachID string) []byte {
	return []byte("thread:" + threadID + ":attach:" + attachID)
}

func attachIdxKey(attachID string) []byte {
	return []byte("attachidx:" + attachID)
}

// SaveAttachment persists an attachment record under its thread. A missing id
// is generated; an existing record keeps its CreatedTS.
func SaveAttachment(a *models.Attachment) error {
	if db == nil {
		return notOpened()
	}
	done := observe("save_attachment")
	defer done()

	if a == nil || a.Thread == "" {
		return fmt.Errorf("attachment thread required")
	}
	if a.ID == "" {
		a.ID = utils.GenAttachmentID()
	}

	mu.Lock()
	defer mu.Unlock()
	key := attachKey(a.Thread, a.ID)
	if v, closer, err := db.Get(key); err == nil {
		var existing models.Attachment
		if json.Unmarshal(v, &existing) == nil && existing.CreatedTS != 0 {
			a.CreatedTS = existing.CreatedTS
		}
		closer.Close()
	}
	if a.CreatedTS == 0 {
		a.CreatedTS = time.Now().UTC().UnixNano()
	}

	batch := db.NewBatch()
	b, _ := json.Marshal(a)
	_ = batch.Set(key, b, nil)
	_ = batch.Set(attachIdxKey(a.ID), key, nil)
	if err := batch.Commit(pebble.Sync); err != nil {
		logger.Error("save_attachment_failed", "thread", a.Thread, "attachment", a.ID, "error", err)
		return err
	}
	logger.Debug("attachment_saved", "thread", a.Thread, "attachment", a.ID)
	return nil
}

// GetAttachment returns the attachment with the given id.
func GetAttachment(attachID string) (models.Attachment, error) {
	if db == nil {
		return models.Attachment{}, notOpened()
	}
	pk, closer, err := db.Get(attachIdxKey(attachID))
	if err != nil {
		return models.Attachment{}, mapGetErr(err)
	}
	primary := append([]byte(nil), pk...)
	closer.Close()

	v, c2, err := db.Get(primary)
	if err != nil {
		return models.Attachment{}, mapGetErr(err)
	}
	defer c2.Close()
	var a models.Attachment
	if uerr := json.Unmarshal(v, &a); uerr != nil {
		return models.Attachment{}, fmt.Errorf("invalid attachment data: %w", uerr)
	}
	return a, nil
}

// DeleteAttachment removes an attachment and its index entry.
func DeleteAttachment(attachID string) error {
	if db == nil {
		return notOpened()
	}
	done := observe("delete_attachment")
	defer done()

	mu.Lock()
	defer mu.Unlock()
	pk, closer, err := db.Get(attachIdxKey(attachID))
	if err != nil {
		return mapGetErr(err)
	}
	primary := append([]byte(nil), pk...)
	closer.Close()

	batch := db.NewBatch()
	_ = batch.Delete(primary, nil)
	_ = batch.Delete(attachIdxKey(attachID), nil)
	if err := batch.Commit(pebble.Sync); err != nil {
		logger.Error("delete_attachment_failed", "attachment", attachID, "error", err)
		return err
	}
	logger.Debug("attachment_deleted", "attachment", attachID)
	return nil
}

// ListAttachments returns every attachment of a thread in id order.
func ListAttachments(threadID string) ([]models.Attachment, error) {
	if db == nil {
		return nil, notOpened()
	}
	done := observe("list_attachments")
	defer done()

	prefix := attachKey(threadID, "")
	iter, err := db.NewIter(&pebble.IterOptions{})
	if err != nil {
		return nil, err
	}
	defer iter.Close()

	var out []models.Attachment
	for iter.SeekGE(prefix); iter.Valid(); iter.Next() {
		if !bytes.HasPrefix(iter.Key(), prefix) {
			break
		}
		var a models.Attachment
		if json.Unmarshal(iter.Value(), &a) == nil && a.ID != "" {
			out = append(out, a)
		}
	}
	if err := iter.Error(); err != nil {
		return nil, err
	}
	return out, nil
}
