package utils

import (
	"fmt"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
)

// idSeq breaks ties when multiple ids are generated within the same
// nanosecond timestamp.
var idSeq uint64

// SortableSuffix returns a zero-padded "<unix_nano>-<seq>" string whose
// lexical order matches generation order. It is the ordering component of
// item and task identifiers and of the store keys they live under.
func SortableSuffix() string {
	n := time.Now().UTC().UnixNano()
	s := atomic.AddUint64(&idSeq, 1)
	return fmt.Sprintf("%020d-%06d", n, s%1000000)
}

// GenItemID returns a new item id. Generated item ids sort lexically in
// creation order.
func GenItemID() string {
	return "item_" + SortableSuffix()
}

// GenTaskID returns a new task id. The suffix doubles as the task's store
// key, so listing by key prefix yields creation order.
func GenTaskID() string {
	return "task_" + SortableSuffix()
}

// GenThreadID returns a new thread id for callers that do not supply one.
func GenThreadID() string {
	return "thread_" + uuid.NewString()
}

// GenAttachmentID returns a new attachment id.
func GenAttachmentID() string {
	return "att_" + uuid.NewString()
}

// TruncateRunes shortens s to at most max runes, trimming trailing spaces.
func TruncateRunes(s string, max int) string {
	if max <= 0 {
		return ""
	}
	n := 0
	for i := range s {
		if n >= max {
			return trimRight(s[:i])
		}
		n++
	}
	return trimRight(s)
}

func trimRight(s string) string {
	for len(s) > 0 && (s[len(s)-1] == ' ' || s[len(s)-1] == '\n' || s[len(s)-1] == '\t') {
		s = s[:len(s)-1]
	}
	return s
}
