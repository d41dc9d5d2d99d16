package bomimport

import (
	"context"
	"strings"
	"testing"
)

func TestParseDelimitedTabs(t *testing.T) {
	input := "Item\tPart No\tQty\n" +
		"\n" +
		"10\t\"P-100\"\t2\n" +
		"20\tP-200\t1\n"
	src, err := ParseDelimited(strings.NewReader(input))
	if err != nil {
		t.Fatalf("ParseDelimited failed: %v", err)
	}
	if src.Kind != SourceRawGrid {
		t.Fatalf("kind = %q, want raw_grid", src.Kind)
	}
	if len(src.Columns) != 3 || src.Columns[1] != "Part No" {
		t.Errorf("columns = %v", src.Columns)
	}
	if len(src.Rows) != 2 {
		t.Fatalf("expected 2 rows, got %d", len(src.Rows))
	}
	if src.Rows[0][1] != "P-100" {
		t.Errorf("quoted cell not trimmed: %q", src.Rows[0][1])
	}
}

func TestParseDelimitedCommas(t *testing.T) {
	input := "Part No,Qty\nP-1,3\n"
	src, err := ParseDelimited(strings.NewReader(input))
	if err != nil {
		t.Fatalf("ParseDelimited failed: %v", err)
	}
	if len(src.Columns) != 2 || src.Columns[0] != "Part No" {
		t.Errorf("columns = %v", src.Columns)
	}
	if len(src.Rows) != 1 || src.Rows[0][0] != "P-1" {
		t.Errorf("rows = %v", src.Rows)
	}
}

func TestParseDelimitedWindows1252(t *testing.T) {
	// 0xB0 is the degree sign in Windows-1252.
	input := "Part No\tDesc\nP-1\t45\xb0 bracket\n"
	src, err := ParseDelimited(strings.NewReader(input))
	if err != nil {
		t.Fatalf("ParseDelimited failed: %v", err)
	}
	if src.Rows[0][1] != "45° bracket" {
		t.Errorf("decoded cell = %q", src.Rows[0][1])
	}
}

func TestSessionStoreRoundTrip(t *testing.T) {
	store := NewMemorySessionStore()
	preview := &Preview{
		ID:           "imp-1",
		DocumentType: DocumentTypeBOM,
		State:        StatePreviewed,
		Assembly:     Assembly{PartNumber: "ASM-1"},
	}
	ctx := context.Background()
	if err := store.Save(ctx, preview); err != nil {
		t.Fatalf("Save failed: %v", err)
	}
	got, err := store.Get(ctx, "imp-1")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if got.Assembly.PartNumber != "ASM-1" {
		t.Errorf("assembly = %+v", got.Assembly)
	}
	if err := store.Delete(ctx, "imp-1"); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	if _, err := store.Get(ctx, "imp-1"); err != ErrSessionNotFound {
		t.Errorf("expected ErrSessionNotFound, got %v", err)
	}
}
