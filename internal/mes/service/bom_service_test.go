package service

import (
	"context"
	"errors"
	"math"
	"testing"

	"github.com/jwerthen/Werco-ERP-MES-sub000/internal/mes/bom"
	"github.com/jwerthen/Werco-ERP-MES-sub000/internal/mes/entity"
)

func seedPart(t *testing.T, svc *Services, number, partType string) *entity.Part {
	t.Helper()
	part, err := svc.Part.CreatePart(context.Background(), &PartInput{
		PartNumber: number,
		Name:       number + " part",
		PartType:   partType,
	}, "user-1")
	if err != nil {
		t.Fatalf("CreatePart %s failed: %v", number, err)
	}
	return part
}

func seedActiveBOM(t *testing.T, svc *Services, partID string, items []BOMItemInput) *entity.BOM {
	t.Helper()
	ctx := context.Background()
	b, err := svc.BOM.CreateBOM(ctx, &BOMInput{PartID: partID}, "user-1")
	if err != nil {
		t.Fatalf("CreateBOM failed: %v", err)
	}
	for i := range items {
		if _, err := svc.BOM.AddItem(ctx, b.ID, &items[i]); err != nil {
			t.Fatalf("AddItem failed: %v", err)
		}
	}
	if _, err := svc.BOM.ReleaseBOM(ctx, b.ID, "user-1"); err != nil {
		t.Fatalf("ReleaseBOM failed: %v", err)
	}
	activated, err := svc.BOM.ActivateBOM(ctx, b.ID)
	if err != nil {
		t.Fatalf("ActivateBOM failed: %v", err)
	}
	return activated
}

func TestAddItemDefaultsAndValidation(t *testing.T) {
	svc := newTestServices(t)
	ctx := context.Background()

	asm := seedPart(t, svc, "AI-ASM", entity.PartTypeAssembly)
	comp := seedPart(t, svc, "AI-COMP", entity.PartTypePurchased)

	b, err := svc.BOM.CreateBOM(ctx, &BOMInput{PartID: asm.ID}, "user-1")
	if err != nil {
		t.Fatalf("CreateBOM failed: %v", err)
	}
	if b.Status != entity.BOMStatusDraft {
		t.Fatalf("Expected new BOM in draft, got %q", b.Status)
	}

	item, err := svc.BOM.AddItem(ctx, b.ID, &BOMItemInput{ComponentPartID: comp.ID, Quantity: 4})
	if err != nil {
		t.Fatalf("AddItem failed: %v", err)
	}
	if item.ItemNumber != 10 {
		t.Errorf("Expected first item number 10, got %d", item.ItemNumber)
	}
	if item.UnitOfMeasure != "ea" || item.ItemType != entity.ItemTypeBuy || item.LineType != entity.LineTypeComponent {
		t.Errorf("Unexpected item defaults: %+v", item)
	}

	second, err := svc.BOM.AddItem(ctx, b.ID, &BOMItemInput{ComponentPartID: comp.ID, Quantity: 1})
	if err != nil {
		t.Fatalf("Second AddItem failed: %v", err)
	}
	if second.ItemNumber != 20 {
		t.Errorf("Expected second item number 20, got %d", second.ItemNumber)
	}

	cases := []BOMItemInput{
		{ComponentPartID: comp.ID, Quantity: 0},
		{ComponentPartID: comp.ID, Quantity: -2},
		{ComponentPartID: comp.ID, Quantity: 1, ScrapFactor: 1.0},
		{ComponentPartID: comp.ID, Quantity: 1, ScrapFactor: -0.1},
		{ComponentPartID: asm.ID, Quantity: 1},
		{ComponentPartID: "", Quantity: 1},
	}
	for i := range cases {
		_, err := svc.BOM.AddItem(ctx, b.ID, &cases[i])
		var vErr *ValidationError
		if !errors.As(err, &vErr) {
			t.Errorf("Case %d: expected ValidationError, got %v", i, err)
		}
	}
}

func TestReleaseLifecycle(t *testing.T) {
	svc := newTestServices(t)
	ctx := context.Background()

	asm := seedPart(t, svc, "RL-ASM", entity.PartTypeAssembly)
	comp := seedPart(t, svc, "RL-COMP", entity.PartTypePurchased)

	b, err := svc.BOM.CreateBOM(ctx, &BOMInput{PartID: asm.ID}, "user-1")
	if err != nil {
		t.Fatalf("CreateBOM failed: %v", err)
	}

	// An empty structure cannot be released.
	_, err = svc.BOM.ReleaseBOM(ctx, b.ID, "user-1")
	var vErr *ValidationError
	if !errors.As(err, &vErr) {
		t.Fatalf("Expected ValidationError releasing empty BOM, got %v", err)
	}

	item, err := svc.BOM.AddItem(ctx, b.ID, &BOMItemInput{ComponentPartID: comp.ID, Quantity: 2})
	if err != nil {
		t.Fatalf("AddItem failed: %v", err)
	}

	released, err := svc.BOM.ReleaseBOM(ctx, b.ID, "releaser-1")
	if err != nil {
		t.Fatalf("ReleaseBOM failed: %v", err)
	}
	if released.Status != entity.BOMStatusReleased {
		t.Errorf("Expected released status, got %q", released.Status)
	}
	if released.ReleasedAt == nil || released.ReleasedBy == nil || *released.ReleasedBy != "releaser-1" {
		t.Errorf("Expected release stamp, got %+v", released)
	}

	// Released structures are immutable.
	var sErr *InvalidStateError
	if _, err := svc.BOM.AddItem(ctx, b.ID, &BOMItemInput{ComponentPartID: comp.ID, Quantity: 1}); !errors.As(err, &sErr) {
		t.Errorf("Expected InvalidStateError adding item to released BOM, got %v", err)
	}
	if _, err := svc.BOM.UpdateItem(ctx, b.ID, item.ID, &BOMItemInput{ComponentPartID: comp.ID, Quantity: 9}); !errors.As(err, &sErr) {
		t.Errorf("Expected InvalidStateError updating item of released BOM, got %v", err)
	}
	if err := svc.BOM.DeleteItem(ctx, b.ID, item.ID); !errors.As(err, &sErr) {
		t.Errorf("Expected InvalidStateError deleting item of released BOM, got %v", err)
	}
	if err := svc.BOM.DeleteBOM(ctx, b.ID); !errors.As(err, &sErr) {
		t.Errorf("Expected InvalidStateError deleting released BOM, got %v", err)
	}

	// Releasing twice fails.
	if _, err := svc.BOM.ReleaseBOM(ctx, b.ID, "user-1"); !errors.As(err, &sErr) {
		t.Errorf("Expected InvalidStateError re-releasing, got %v", err)
	}
}

func TestActivateDemotesPreviousActive(t *testing.T) {
	svc := newTestServices(t)
	ctx := context.Background()

	asm := seedPart(t, svc, "ACT-ASM", entity.PartTypeAssembly)
	comp := seedPart(t, svc, "ACT-COMP", entity.PartTypePurchased)

	first := seedActiveBOM(t, svc, asm.ID, []BOMItemInput{{ComponentPartID: comp.ID, Quantity: 1}})

	second, err := svc.BOM.CreateBOM(ctx, &BOMInput{PartID: asm.ID, Revision: "B"}, "user-1")
	if err != nil {
		t.Fatalf("CreateBOM failed: %v", err)
	}
	if _, err := svc.BOM.AddItem(ctx, second.ID, &BOMItemInput{ComponentPartID: comp.ID, Quantity: 3}); err != nil {
		t.Fatalf("AddItem failed: %v", err)
	}

	// A draft cannot be activated directly.
	var sErr *InvalidStateError
	if _, err := svc.BOM.ActivateBOM(ctx, second.ID); !errors.As(err, &sErr) {
		t.Fatalf("Expected InvalidStateError activating a draft, got %v", err)
	}

	if _, err := svc.BOM.ReleaseBOM(ctx, second.ID, "user-1"); err != nil {
		t.Fatalf("ReleaseBOM failed: %v", err)
	}
	activated, err := svc.BOM.ActivateBOM(ctx, second.ID)
	if err != nil {
		t.Fatalf("ActivateBOM failed: %v", err)
	}
	if activated.Status != entity.BOMStatusActive {
		t.Errorf("Expected active status, got %q", activated.Status)
	}

	demoted, err := svc.BOM.GetBOM(ctx, first.ID)
	if err != nil {
		t.Fatalf("GetBOM failed: %v", err)
	}
	if demoted.Status != entity.BOMStatusReleased {
		t.Errorf("Expected previous active demoted to released, got %q", demoted.Status)
	}
}

func TestExplodeAndRequirementsFromStoredStructure(t *testing.T) {
	svc := newTestServices(t)
	ctx := context.Background()

	top := seedPart(t, svc, "TOP-ASSY", entity.PartTypeAssembly)
	sub := seedPart(t, svc, "COMP-A", entity.PartTypeManufactured)
	raw := seedPart(t, svc, "RAW-X", entity.PartTypeRaw)
	buy := seedPart(t, svc, "COMP-B", entity.PartTypePurchased)

	seedActiveBOM(t, svc, sub.ID, []BOMItemInput{
		{ComponentPartID: raw.ID, Quantity: 5},
	})
	seedActiveBOM(t, svc, top.ID, []BOMItemInput{
		{ComponentPartID: sub.ID, Quantity: 2},
		{ComponentPartID: buy.ID, Quantity: 3, ScrapFactor: 0.1},
	})

	nodes, err := svc.BOM.Explode(ctx, top.ID, 1)
	if err != nil {
		t.Fatalf("Explode failed: %v", err)
	}
	if len(nodes) != 2 {
		t.Fatalf("Expected 2 top level nodes, got %d", len(nodes))
	}
	if nodes[0].PartNumber != "COMP-A" || len(nodes[0].Children) != 1 {
		t.Errorf("Unexpected first node: %+v", nodes[0])
	}
	if got := nodes[0].Children[0].ExtendedQuantity; math.Abs(got-10) > 1e-9 {
		t.Errorf("Expected extended quantity 10 for RAW-X, got %v", got)
	}

	result, err := svc.BOM.Requirements(ctx, top.ID, 10)
	if err != nil {
		t.Fatalf("Requirements failed: %v", err)
	}
	if !result.HasBOM {
		t.Fatalf("Expected HasBOM")
	}
	byNumber := map[string]bom.Requirement{}
	for _, m := range result.Materials {
		byNumber[m.PartNumber] = m
	}
	rawReq := byNumber["RAW-X"]
	if math.Abs(rawReq.QuantityRequired-100) > 1e-9 {
		t.Errorf("Expected RAW-X requirement 100, got %v", rawReq.QuantityRequired)
	}
	buyReq := byNumber["COMP-B"]
	if math.Abs(buyReq.QuantityRequired-30) > 1e-9 || math.Abs(buyReq.ScrapAllowance-3) > 1e-9 || math.Abs(buyReq.TotalRequired-33) > 1e-9 {
		t.Errorf("Expected COMP-B 30/3/33, got %v/%v/%v", buyReq.QuantityRequired, buyReq.ScrapAllowance, buyReq.TotalRequired)
	}
}

func TestExplodeWithoutBOM(t *testing.T) {
	svc := newTestServices(t)
	part := seedPart(t, svc, "LONE-1", entity.PartTypePurchased)

	nodes, err := svc.BOM.Explode(context.Background(), part.ID, 1)
	if err != nil {
		t.Fatalf("Explode failed: %v", err)
	}
	if len(nodes) != 0 {
		t.Errorf("Expected empty explosion for part without BOM, got %d nodes", len(nodes))
	}
}

func TestCompareBOMs(t *testing.T) {
	svc := newTestServices(t)
	ctx := context.Background()

	asm := seedPart(t, svc, "CMP-ASM", entity.PartTypeAssembly)
	kept := seedPart(t, svc, "CMP-KEPT", entity.PartTypePurchased)
	removed := seedPart(t, svc, "CMP-GONE", entity.PartTypePurchased)
	added := seedPart(t, svc, "CMP-NEW", entity.PartTypePurchased)

	left, err := svc.BOM.CreateBOM(ctx, &BOMInput{PartID: asm.ID, Revision: "A"}, "user-1")
	if err != nil {
		t.Fatalf("CreateBOM failed: %v", err)
	}
	svcAdd := func(bomID string, input BOMItemInput) {
		t.Helper()
		if _, err := svc.BOM.AddItem(ctx, bomID, &input); err != nil {
			t.Fatalf("AddItem failed: %v", err)
		}
	}
	svcAdd(left.ID, BOMItemInput{ComponentPartID: kept.ID, Quantity: 2})
	svcAdd(left.ID, BOMItemInput{ComponentPartID: removed.ID, Quantity: 1})

	right, err := svc.BOM.CreateBOM(ctx, &BOMInput{PartID: asm.ID, Revision: "B"}, "user-1")
	if err != nil {
		t.Fatalf("CreateBOM failed: %v", err)
	}
	svcAdd(right.ID, BOMItemInput{ComponentPartID: kept.ID, Quantity: 5})
	svcAdd(right.ID, BOMItemInput{ComponentPartID: added.ID, Quantity: 1})

	diff, err := svc.BOM.CompareBOMs(ctx, left.ID, right.ID)
	if err != nil {
		t.Fatalf("CompareBOMs failed: %v", err)
	}
	if len(diff.Added) != 1 || diff.Added[0].PartNumber != "CMP-NEW" {
		t.Errorf("Unexpected added set: %+v", diff.Added)
	}
	if len(diff.Removed) != 1 || diff.Removed[0].PartNumber != "CMP-GONE" {
		t.Errorf("Unexpected removed set: %+v", diff.Removed)
	}
	if len(diff.Modified) != 1 {
		t.Fatalf("Expected 1 modified line, got %d", len(diff.Modified))
	}
	found := false
	for _, ch := range diff.Modified[0].Changes {
		if ch.Field == "quantity" {
			found = true
		}
	}
	if !found {
		t.Errorf("Expected a quantity change, got %+v", diff.Modified[0].Changes)
	}
}
