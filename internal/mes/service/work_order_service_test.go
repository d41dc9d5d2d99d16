package service

import (
	"context"
	"errors"
	"math"
	"strings"
	"testing"

	"github.com/jwerthen/Werco-ERP-MES-sub000/internal/mes/entity"
)

func TestCreateWorkOrderGeneratesOrderNumber(t *testing.T) {
	svc := newTestServices(t)
	ctx := context.Background()

	part := seedPart(t, svc, "WO-PART", entity.PartTypeManufactured)

	order, err := svc.WorkOrder.CreateWorkOrder(ctx, &WorkOrderInput{PartID: part.ID, Quantity: 5}, "user-1")
	if err != nil {
		t.Fatalf("CreateWorkOrder failed: %v", err)
	}
	if order.Status != entity.WorkOrderStatusCreated {
		t.Errorf("Expected created status, got %q", order.Status)
	}
	if !strings.HasPrefix(order.OrderNumber, "WO-") {
		t.Errorf("Expected generated order number, got %q", order.OrderNumber)
	}

	_, err = svc.WorkOrder.CreateWorkOrder(ctx, &WorkOrderInput{PartID: part.ID, Quantity: 0}, "user-1")
	var vErr *ValidationError
	if !errors.As(err, &vErr) {
		t.Errorf("Expected ValidationError for zero quantity, got %v", err)
	}
}

func TestReleaseWorkOrderFreezesMaterials(t *testing.T) {
	svc := newTestServices(t)
	ctx := context.Background()

	asm := seedPart(t, svc, "WOF-ASM", entity.PartTypeAssembly)
	comp := seedPart(t, svc, "WOF-COMP", entity.PartTypePurchased)
	active := seedActiveBOM(t, svc, asm.ID, []BOMItemInput{
		{ComponentPartID: comp.ID, Quantity: 3, ScrapFactor: 0.1},
	})

	order, err := svc.WorkOrder.CreateWorkOrder(ctx, &WorkOrderInput{PartID: asm.ID, Quantity: 10}, "user-1")
	if err != nil {
		t.Fatalf("CreateWorkOrder failed: %v", err)
	}

	released, err := svc.WorkOrder.ReleaseWorkOrder(ctx, order.ID)
	if err != nil {
		t.Fatalf("ReleaseWorkOrder failed: %v", err)
	}
	if released.Status != entity.WorkOrderStatusReleased {
		t.Errorf("Expected released status, got %q", released.Status)
	}
	if released.BOMID == nil || *released.BOMID != active.ID {
		t.Errorf("Expected order pinned to active BOM %s, got %v", active.ID, released.BOMID)
	}
	if len(released.Materials) != 1 {
		t.Fatalf("Expected 1 material line, got %d", len(released.Materials))
	}
	m := released.Materials[0]
	if math.Abs(m.RequiredQuantity-30) > 1e-9 || math.Abs(m.ScrapQuantity-3) > 1e-9 || math.Abs(m.TotalQuantity-33) > 1e-9 {
		t.Errorf("Expected frozen line 30/3/33, got %v/%v/%v", m.RequiredQuantity, m.ScrapQuantity, m.TotalQuantity)
	}

	// Later structure changes must not move the frozen plan.
	seedActiveBOM(t, svc, asm.ID, []BOMItemInput{
		{ComponentPartID: comp.ID, Quantity: 99},
	})
	plan, err := svc.WorkOrder.MaterialRequirements(ctx, order.ID)
	if err != nil {
		t.Fatalf("MaterialRequirements failed: %v", err)
	}
	if !plan.Frozen {
		t.Fatalf("Expected frozen plan after release")
	}
	if len(plan.Materials) != 1 || math.Abs(plan.Materials[0].TotalRequired-33) > 1e-9 {
		t.Errorf("Expected frozen total 33 after BOM change, got %+v", plan.Materials)
	}
}

func TestReleaseWorkOrderWithoutBOM(t *testing.T) {
	svc := newTestServices(t)
	ctx := context.Background()

	part := seedPart(t, svc, "WONB-1", entity.PartTypeManufactured)
	order, err := svc.WorkOrder.CreateWorkOrder(ctx, &WorkOrderInput{PartID: part.ID, Quantity: 2}, "user-1")
	if err != nil {
		t.Fatalf("CreateWorkOrder failed: %v", err)
	}

	released, err := svc.WorkOrder.ReleaseWorkOrder(ctx, order.ID)
	if err != nil {
		t.Fatalf("ReleaseWorkOrder failed: %v", err)
	}
	if released.BOMID != nil {
		t.Errorf("Expected no BOM pin, got %v", *released.BOMID)
	}
	if len(released.Materials) != 0 {
		t.Errorf("Expected no material lines, got %d", len(released.Materials))
	}
}

func TestWorkOrderTransitions(t *testing.T) {
	svc := newTestServices(t)
	ctx := context.Background()

	part := seedPart(t, svc, "WOT-1", entity.PartTypeManufactured)
	order, err := svc.WorkOrder.CreateWorkOrder(ctx, &WorkOrderInput{PartID: part.ID, Quantity: 1}, "user-1")
	if err != nil {
		t.Fatalf("CreateWorkOrder failed: %v", err)
	}

	var sErr *InvalidStateError
	if _, err := svc.WorkOrder.StartWorkOrder(ctx, order.ID); !errors.As(err, &sErr) {
		t.Errorf("Expected InvalidStateError starting a created order, got %v", err)
	}
	if _, err := svc.WorkOrder.CompleteWorkOrder(ctx, order.ID); !errors.As(err, &sErr) {
		t.Errorf("Expected InvalidStateError completing a created order, got %v", err)
	}

	if _, err := svc.WorkOrder.ReleaseWorkOrder(ctx, order.ID); err != nil {
		t.Fatalf("ReleaseWorkOrder failed: %v", err)
	}
	started, err := svc.WorkOrder.StartWorkOrder(ctx, order.ID)
	if err != nil {
		t.Fatalf("StartWorkOrder failed: %v", err)
	}
	if started.Status != entity.WorkOrderStatusInProgress {
		t.Errorf("Expected in_progress, got %q", started.Status)
	}
	completed, err := svc.WorkOrder.CompleteWorkOrder(ctx, order.ID)
	if err != nil {
		t.Fatalf("CompleteWorkOrder failed: %v", err)
	}
	if completed.Status != entity.WorkOrderStatusCompleted {
		t.Errorf("Expected completed, got %q", completed.Status)
	}

	if _, err := svc.WorkOrder.CancelWorkOrder(ctx, order.ID); !errors.As(err, &sErr) {
		t.Errorf("Expected InvalidStateError cancelling a completed order, got %v", err)
	}
}

func TestCancelWorkOrderDropsMaterials(t *testing.T) {
	svc := newTestServices(t)
	ctx := context.Background()

	asm := seedPart(t, svc, "WOC-ASM", entity.PartTypeAssembly)
	comp := seedPart(t, svc, "WOC-COMP", entity.PartTypePurchased)
	seedActiveBOM(t, svc, asm.ID, []BOMItemInput{{ComponentPartID: comp.ID, Quantity: 1}})

	order, err := svc.WorkOrder.CreateWorkOrder(ctx, &WorkOrderInput{PartID: asm.ID, Quantity: 4}, "user-1")
	if err != nil {
		t.Fatalf("CreateWorkOrder failed: %v", err)
	}
	if _, err := svc.WorkOrder.ReleaseWorkOrder(ctx, order.ID); err != nil {
		t.Fatalf("ReleaseWorkOrder failed: %v", err)
	}

	cancelled, err := svc.WorkOrder.CancelWorkOrder(ctx, order.ID)
	if err != nil {
		t.Fatalf("CancelWorkOrder failed: %v", err)
	}
	if cancelled.Status != entity.WorkOrderStatusCancelled {
		t.Errorf("Expected cancelled, got %q", cancelled.Status)
	}
	if len(cancelled.Materials) != 0 {
		t.Errorf("Expected no material lines on the cancelled order, got %d", len(cancelled.Materials))
	}
	reloaded, err := svc.WorkOrder.GetWorkOrder(ctx, order.ID)
	if err != nil {
		t.Fatalf("GetWorkOrder failed: %v", err)
	}
	if len(reloaded.Materials) != 0 {
		t.Errorf("Expected material lines dropped, got %d", len(reloaded.Materials))
	}
}
