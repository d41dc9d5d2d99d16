package bom

import (
	"errors"
	"testing"

	"github.com/jwerthen/Werco-ERP-MES-sub000/internal/mes/entity"
)

func findMaterial(t *testing.T, result *RequirementsResult, partNumber string) Requirement {
	t.Helper()
	for _, m := range result.Materials {
		if m.PartNumber == partNumber {
			return m
		}
	}
	t.Fatalf("material %s not in result: %+v", partNumber, result.Materials)
	return Requirement{}
}

func TestRequirementsScenario(t *testing.T) {
	// ASM-1: COMP-A x2, COMP-B x3 scrap 0.1; COMP-A: RAW-X x5.
	snap := NewSnapshot(
		[]entity.Part{part("asm", "ASM-1"), part("a", "COMP-A"), part("b", "COMP-B"), part("x", "RAW-X")},
		[]entity.BOM{
			activeBOM("asm", item(10, "a", 2, 0), item(20, "b", 3, 0.1)),
			activeBOM("a", item(10, "x", 5, 0)),
		},
	)

	result, err := Requirements(snap, "asm", 10)
	if err != nil {
		t.Fatalf("Requirements failed: %v", err)
	}
	if !result.HasBOM {
		t.Fatal("expected HasBOM true")
	}
	if len(result.Materials) != 2 {
		t.Fatalf("expected 2 materials, got %d", len(result.Materials))
	}

	rawX := findMaterial(t, result, "RAW-X")
	if !almostEqual(rawX.TotalRequired, 100) {
		t.Errorf("RAW-X total = %v, want 100", rawX.TotalRequired)
	}

	compB := findMaterial(t, result, "COMP-B")
	if !almostEqual(compB.QuantityRequired, 30) {
		t.Errorf("COMP-B required = %v, want 30", compB.QuantityRequired)
	}
	if !almostEqual(compB.ScrapAllowance, 3) {
		t.Errorf("COMP-B scrap = %v, want 3", compB.ScrapAllowance)
	}
	if !almostEqual(compB.TotalRequired, 33) {
		t.Errorf("COMP-B total = %v, want 33", compB.TotalRequired)
	}
}

func TestRequirementsAggregatesAcrossPaths(t *testing.T) {
	// RAW-X reachable both directly from the root and through SUB-1.
	snap := NewSnapshot(
		[]entity.Part{part("asm", "ASM-1"), part("s", "SUB-1"), part("x", "RAW-X")},
		[]entity.BOM{
			activeBOM("asm", item(10, "s", 2, 0), item(20, "x", 1, 0)),
			activeBOM("s", item(10, "x", 3, 0)),
		},
	)
	result, err := Requirements(snap, "asm", 1)
	if err != nil {
		t.Fatalf("Requirements failed: %v", err)
	}
	if len(result.Materials) != 1 {
		t.Fatalf("expected a single aggregated material, got %d", len(result.Materials))
	}
	rawX := result.Materials[0]
	// 2*3 through SUB-1 plus 1 direct.
	if !almostEqual(rawX.QuantityPerAssembly, 7) {
		t.Errorf("RAW-X per assembly = %v, want 7", rawX.QuantityPerAssembly)
	}
}

func TestRequirementsScaleLinearly(t *testing.T) {
	snap := NewSnapshot(
		[]entity.Part{part("asm", "ASM-1"), part("a", "COMP-A"), part("b", "COMP-B"), part("x", "RAW-X")},
		[]entity.BOM{
			activeBOM("asm", item(10, "a", 2, 0.05), item(20, "b", 3, 0.1)),
			activeBOM("a", item(10, "x", 5, 0.02)),
		},
	)
	one, err := Requirements(snap, "asm", 1)
	if err != nil {
		t.Fatalf("Requirements failed: %v", err)
	}
	k, err := Requirements(snap, "asm", 7)
	if err != nil {
		t.Fatalf("Requirements failed: %v", err)
	}
	if len(one.Materials) != len(k.Materials) {
		t.Fatalf("material count differs: %d vs %d", len(one.Materials), len(k.Materials))
	}
	for i := range one.Materials {
		if !almostEqual(k.Materials[i].TotalRequired, 7*one.Materials[i].TotalRequired) {
			t.Errorf("%s: total(7) = %v, want 7*total(1) = %v",
				one.Materials[i].PartNumber, k.Materials[i].TotalRequired, 7*one.Materials[i].TotalRequired)
		}
	}
}

func TestRequirementsCompoundScrap(t *testing.T) {
	// SUB-1 carries scrap 0.1 on the root, RAW-X scrap 0.2 below it. The
	// leaf demand is inflated by the parent's scrap before its own applies.
	snap := NewSnapshot(
		[]entity.Part{part("asm", "ASM-1"), part("s", "SUB-1"), part("x", "RAW-X")},
		[]entity.BOM{
			activeBOM("asm", item(10, "s", 1, 0.1)),
			activeBOM("s", item(10, "x", 1, 0.2)),
		},
	)
	result, err := Requirements(snap, "asm", 1)
	if err != nil {
		t.Fatalf("Requirements failed: %v", err)
	}
	rawX := findMaterial(t, result, "RAW-X")
	if !almostEqual(rawX.QuantityRequired, 1.1) {
		t.Errorf("RAW-X required = %v, want 1.1", rawX.QuantityRequired)
	}
	if !almostEqual(rawX.ScrapAllowance, 0.22) {
		t.Errorf("RAW-X scrap = %v, want 0.22", rawX.ScrapAllowance)
	}
	if !almostEqual(rawX.TotalRequired, 1.32) {
		t.Errorf("RAW-X total = %v, want 1.32", rawX.TotalRequired)
	}
}

func TestRequirementsNoBOM(t *testing.T) {
	snap := NewSnapshot([]entity.Part{part("p", "P-1")}, nil)
	result, err := Requirements(snap, "p", 5)
	if err != nil {
		t.Fatalf("Requirements failed: %v", err)
	}
	if result.HasBOM {
		t.Error("expected HasBOM false")
	}
	if len(result.Materials) != 0 {
		t.Errorf("expected empty materials, got %d", len(result.Materials))
	}
}

func TestRequirementsSkipsReferenceLines(t *testing.T) {
	ref := item(20, "doc", 1, 0)
	ref.LineType = entity.LineTypeReference
	snap := NewSnapshot(
		[]entity.Part{part("asm", "ASM-1"), part("x", "RAW-X"), part("doc", "DOC-1")},
		[]entity.BOM{activeBOM("asm", item(10, "x", 2, 0), ref)},
	)
	result, err := Requirements(snap, "asm", 1)
	if err != nil {
		t.Fatalf("Requirements failed: %v", err)
	}
	if len(result.Materials) != 1 || result.Materials[0].PartNumber != "RAW-X" {
		t.Errorf("reference line leaked into materials: %+v", result.Materials)
	}
}

func TestRequirementsCycle(t *testing.T) {
	snap := NewSnapshot(
		[]entity.Part{part("a", "PART-A"), part("b", "PART-B")},
		[]entity.BOM{
			activeBOM("a", item(10, "b", 1, 0)),
			activeBOM("b", item(10, "a", 1, 0)),
		},
	)
	_, err := Requirements(snap, "a", 1)
	var cycleErr *CycleError
	if !errors.As(err, &cycleErr) {
		t.Fatalf("expected CycleError, got %v", err)
	}
}
