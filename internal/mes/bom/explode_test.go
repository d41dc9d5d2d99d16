package bom

import (
	"errors"
	"fmt"
	"math"
	"testing"

	"github.com/jwerthen/Werco-ERP-MES-sub000/internal/mes/entity"
)

func part(id, number string) entity.Part {
	return entity.Part{ID: id, PartNumber: number, Name: number + " part", UnitOfMeasure: "ea"}
}

func activeBOM(partID string, items ...entity.BOMItem) entity.BOM {
	return entity.BOM{
		ID:       "bom-" + partID,
		PartID:   partID,
		Revision: "A",
		Status:   entity.BOMStatusActive,
		Items:    items,
	}
}

func item(itemNumber int, componentPartID string, qty, scrap float64) entity.BOMItem {
	return entity.BOMItem{
		ID:              fmt.Sprintf("item-%s-%d", componentPartID, itemNumber),
		ItemNumber:      itemNumber,
		ComponentPartID: componentPartID,
		Quantity:        qty,
		UnitOfMeasure:   "ea",
		ItemType:        entity.ItemTypeBuy,
		LineType:        entity.LineTypeComponent,
		ScrapFactor:     scrap,
	}
}

func almostEqual(a, b float64) bool {
	return math.Abs(a-b) < 1e-9
}

func TestExplodeMultiLevel(t *testing.T) {
	snap := NewSnapshot(
		[]entity.Part{part("asm", "ASM-1"), part("a", "COMP-A"), part("b", "COMP-B"), part("x", "RAW-X")},
		[]entity.BOM{
			activeBOM("asm", item(10, "a", 2, 0), item(20, "b", 3, 0.1)),
			activeBOM("a", item(10, "x", 5, 0)),
		},
	)

	nodes, err := Explode(snap, "asm", 1)
	if err != nil {
		t.Fatalf("Explode failed: %v", err)
	}
	if len(nodes) != 2 {
		t.Fatalf("expected 2 top-level nodes, got %d", len(nodes))
	}
	a := nodes[0]
	if a.PartNumber != "COMP-A" || a.Level != 0 || !almostEqual(a.ExtendedQuantity, 2) {
		t.Errorf("COMP-A node wrong: %+v", a)
	}
	if len(a.Children) != 1 {
		t.Fatalf("expected COMP-A to have 1 child, got %d", len(a.Children))
	}
	x := a.Children[0]
	if x.PartNumber != "RAW-X" || x.Level != 1 || !almostEqual(x.ExtendedQuantity, 10) {
		t.Errorf("RAW-X node wrong: %+v", x)
	}
	b := nodes[1]
	if b.PartNumber != "COMP-B" || !almostEqual(b.ExtendedQuantity, 3) || len(b.Children) != 0 {
		t.Errorf("COMP-B node wrong: %+v", b)
	}
}

func TestExplodeNoActiveBOM(t *testing.T) {
	snap := NewSnapshot([]entity.Part{part("p", "P-1")}, nil)
	nodes, err := Explode(snap, "p", 1)
	if err != nil {
		t.Fatalf("Explode failed: %v", err)
	}
	if len(nodes) != 0 {
		t.Errorf("expected empty tree for part with no BOM, got %d nodes", len(nodes))
	}
}

func TestExplodeOrdering(t *testing.T) {
	snap := NewSnapshot(
		[]entity.Part{part("asm", "ASM-1"), part("a", "P-A"), part("b", "P-B"), part("c", "P-C")},
		[]entity.BOM{
			activeBOM("asm", item(30, "c", 1, 0), item(10, "a", 1, 0), item(20, "b", 1, 0)),
		},
	)
	nodes, err := Explode(snap, "asm", 1)
	if err != nil {
		t.Fatalf("Explode failed: %v", err)
	}
	var got []int
	for _, n := range nodes {
		got = append(got, n.ItemNumber)
	}
	want := []int{10, 20, 30}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("item numbers out of order: got %v, want %v", got, want)
		}
	}
}

func TestExplodeCycle(t *testing.T) {
	snap := NewSnapshot(
		[]entity.Part{part("a", "PART-A"), part("b", "PART-B")},
		[]entity.BOM{
			activeBOM("a", item(10, "b", 1, 0)),
			activeBOM("b", item(10, "a", 1, 0)),
		},
	)
	_, err := Explode(snap, "a", 1)
	var cycleErr *CycleError
	if !errors.As(err, &cycleErr) {
		t.Fatalf("expected CycleError, got %v", err)
	}
	want := []string{"PART-A", "PART-B", "PART-A"}
	if len(cycleErr.Path) != len(want) {
		t.Fatalf("cycle path = %v, want %v", cycleErr.Path, want)
	}
	for i := range want {
		if cycleErr.Path[i] != want[i] {
			t.Fatalf("cycle path = %v, want %v", cycleErr.Path, want)
		}
	}
}

func TestExplodeMaxDepth(t *testing.T) {
	// Chain p0 -> p1 -> ... deeper than the ceiling.
	var parts []entity.Part
	var boms []entity.BOM
	n := MaxDepth + 5
	for i := 0; i <= n; i++ {
		id := fmt.Sprintf("p%d", i)
		parts = append(parts, part(id, fmt.Sprintf("P-%d", i)))
		if i < n {
			boms = append(boms, activeBOM(id, item(10, fmt.Sprintf("p%d", i+1), 1, 0)))
		}
	}
	snap := NewSnapshot(parts, boms)
	_, err := Explode(snap, "p0", 1)
	var depthErr *MaxDepthError
	if !errors.As(err, &depthErr) {
		t.Fatalf("expected MaxDepthError, got %v", err)
	}
	if depthErr.Depth != MaxDepth {
		t.Errorf("depth = %d, want %d", depthErr.Depth, MaxDepth)
	}
}

func TestFlatten(t *testing.T) {
	snap := NewSnapshot(
		[]entity.Part{part("asm", "ASM-1"), part("a", "COMP-A"), part("b", "COMP-B"), part("x", "RAW-X")},
		[]entity.BOM{
			activeBOM("asm", item(10, "a", 2, 0), item(20, "b", 3, 0)),
			activeBOM("a", item(10, "x", 5, 0)),
		},
	)
	nodes, err := Explode(snap, "asm", 1)
	if err != nil {
		t.Fatalf("Explode failed: %v", err)
	}
	flat := Flatten(nodes)
	var got []string
	for _, n := range flat {
		got = append(got, n.PartNumber)
		if n.Children != nil {
			t.Errorf("flattened node %s still has children", n.PartNumber)
		}
	}
	want := []string{"COMP-A", "RAW-X", "COMP-B"}
	if len(got) != len(want) {
		t.Fatalf("flat order = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("flat order = %v, want %v", got, want)
		}
	}
}
