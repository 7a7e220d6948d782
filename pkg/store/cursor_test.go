package store

import "testing"

func TestCursorRoundTrip(t *testing.T) {
	c := EncodeCursor("00000000000000000042-000007", "item_x")
	if c == "" {
		t.Fatalf("expected non-empty cursor")
	}
	sortKey, id, ok := DecodeCursor(c)
	if !ok {
		t.Fatalf("decode failed for %q", c)
	}
	if sortKey != "00000000000000000042-000007" || id != "item_x" {
		t.Fatalf("round trip mismatch: %q %q", sortKey, id)
	}
}

func TestCursorEmptyMeansStart(t *testing.T) {
	sortKey, id, ok := DecodeCursor("")
	if !ok || sortKey != "" || id != "" {
		t.Fatalf("empty cursor should decode to start: %q %q %v", sortKey, id, ok)
	}
}

func TestCursorRejectsGarbage(t *testing.T) {
	for _, raw := range []string{"!!!!", "aGVsbG8", EncodeCursor("", "x")} {
		if _, _, ok := DecodeCursor(raw); ok && raw != "" {
			t.Fatalf("expected decode failure for %q", raw)
		}
	}
}

func TestCursorIDWithColons(t *testing.T) {
	// ids may contain colons; only the first separator splits
	c := EncodeCursor("k", "a:b:c")
	_, id, ok := DecodeCursor(c)
	if !ok || id != "a:b:c" {
		t.Fatalf("colon id mishandled: %q %v", id, ok)
	}
}

func TestParseOrder(t *testing.T) {
	if ParseOrder("DESC") != OrderDesc {
		t.Fatalf("DESC should parse descending")
	}
	if ParseOrder("") != OrderAsc || ParseOrder("junk") != OrderAsc {
		t.Fatalf("default order should be ascending")
	}
}
