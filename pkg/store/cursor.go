package store

import (
	"encoding/base64"
	"strings"
)

// Order selects pagination direction.
type Order string

const (
	OrderAsc  Order = "asc"
	OrderDesc Order = "desc"
)

// ParseOrder normalizes a raw order string; anything but "desc" is ascending.
func ParseOrder(raw string) Order {
	if strings.EqualFold(strings.TrimSpace(raw), string(OrderDesc)) {
		return OrderDesc
	}
	return OrderAsc
}

// Cursors are opaque resume positions: base64(rawurl) of "<sortkey>:<id>".
// The sort key is the zero-padded creation component of the entity's store
// key, so a cursor stays valid even if the referenced row is later deleted.
// Timestamp collisions are resolved by the id component, giving a total
// order and therefore resumable pagination.

// EncodeCursor packs a sort key and id into an opaque cursor.
func EncodeCursor(sortKey, id string) string {
	if sortKey == "" || id == "" {
		return ""
	}
	return base64.RawURLEncoding.EncodeToString([]byte(sortKey + ":" + id))
}

// DecodeCursor unpacks a cursor. The empty cursor decodes to the zero value
// with ok=true (meaning "start from the beginning").
func DecodeCursor(raw string) (sortKey, id string, ok bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", "", true
	}
	b, err := base64.RawURLEncoding.DecodeString(raw)
	if err != nil {
		return "", "", false
	}
	parts := strings.SplitN(string(b), ":", 2)
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return "", "", false
	}
	return parts[0], parts[1], true
}
