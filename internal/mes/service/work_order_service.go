package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/jwerthen/Werco-ERP-MES-sub000/internal/mes/bom"
	"github.com/jwerthen/Werco-ERP-MES-sub000/internal/mes/entity"
	"github.com/jwerthen/Werco-ERP-MES-sub000/internal/mes/repository"
)

type WorkOrderService struct {
	orderRepo *repository.WorkOrderRepository
	partRepo  *repository.PartRepository
	bomSvc    *BOMService
}

func NewWorkOrderService(orderRepo *repository.WorkOrderRepository, partRepo *repository.PartRepository, bomSvc *BOMService) *WorkOrderService {
	return &WorkOrderService{orderRepo: orderRepo, partRepo: partRepo, bomSvc: bomSvc}
}

// WorkOrderInput carries caller-supplied order fields.
type WorkOrderInput struct {
	OrderNumber string     `json:"order_number"`
	PartID      string     `json:"part_id"`
	Quantity    float64    `json:"quantity"`
	DueDate     *time.Time `json:"due_date"`
	Notes       string     `json:"notes"`
}

// CreateWorkOrder opens a production order in created state. Material
// lines are not computed yet; they freeze at release.
func (s *WorkOrderService) CreateWorkOrder(ctx context.Context, input *WorkOrderInput, createdBy string) (*entity.WorkOrder, error) {
	if input.PartID == "" {
		return nil, validationErr("part_id", "part id is required")
	}
	if input.Quantity <= 0 {
		return nil, validationErr("quantity", "order quantity must be greater than zero")
	}
	if _, err := s.partRepo.FindByID(ctx, input.PartID); err != nil {
		return nil, err
	}

	order := &entity.WorkOrder{
		ID:          uuid.New().String()[:32],
		OrderNumber: input.OrderNumber,
		PartID:      input.PartID,
		Quantity:    input.Quantity,
		Status:      entity.WorkOrderStatusCreated,
		DueDate:     input.DueDate,
		Notes:       input.Notes,
		CreatedBy:   createdBy,
		CreatedAt:   time.Now(),
		UpdatedAt:   time.Now(),
	}
	if order.OrderNumber == "" {
		order.OrderNumber = fmt.Sprintf("WO-%s-%s", time.Now().Format("20060102"), uuid.New().String()[:8])
	}

	if err := s.orderRepo.Create(ctx, order); err != nil {
		return nil, fmt.Errorf("create work order: %w", err)
	}
	return order, nil
}

// GetWorkOrder loads an order with materials.
func (s *WorkOrderService) GetWorkOrder(ctx context.Context, id string) (*entity.WorkOrder, error) {
	return s.orderRepo.FindByID(ctx, id)
}

// ListWorkOrders lists orders newest first.
func (s *WorkOrderService) ListWorkOrders(ctx context.Context, partID, status string, page, pageSize int) ([]entity.WorkOrder, int64, error) {
	return s.orderRepo.List(ctx, partID, status, page, pageSize)
}

// ReleaseWorkOrder moves created -> released and freezes the material plan
// from the part's current active structure. An order for a part with no
// BOM releases with an empty material list.
func (s *WorkOrderService) ReleaseWorkOrder(ctx context.Context, id string) (*entity.WorkOrder, error) {
	order, err := s.orderRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if order.Status != entity.WorkOrderStatusCreated {
		return nil, invalidStateErr(order.Status, "only created work orders can be released")
	}

	result, err := s.bomSvc.Requirements(ctx, order.PartID, order.Quantity)
	if err != nil {
		return nil, fmt.Errorf("compute material requirements: %w", err)
	}

	materials := make([]entity.WorkOrderMaterial, 0, len(result.Materials))
	for _, m := range result.Materials {
		materials = append(materials, entity.WorkOrderMaterial{
			ID:               uuid.New().String()[:32],
			WorkOrderID:      order.ID,
			PartID:           m.PartID,
			RequiredQuantity: m.QuantityRequired,
			ScrapQuantity:    m.ScrapAllowance,
			TotalQuantity:    m.TotalRequired,
			Unit:             m.UnitOfMeasure,
			CreatedAt:        time.Now(),
		})
	}
	if err := s.orderRepo.BatchCreateMaterials(ctx, materials); err != nil {
		return nil, fmt.Errorf("store material lines: %w", err)
	}

	now := time.Now()
	order.Status = entity.WorkOrderStatusReleased
	order.ReleasedAt = &now
	order.UpdatedAt = now
	if result.HasBOM {
		order.BOMID = &result.BOMID
	}
	if err := s.orderRepo.Update(ctx, order); err != nil {
		return nil, fmt.Errorf("release work order: %w", err)
	}
	return s.orderRepo.FindByID(ctx, id)
}

// StartWorkOrder moves released -> in_progress.
func (s *WorkOrderService) StartWorkOrder(ctx context.Context, id string) (*entity.WorkOrder, error) {
	order, err := s.orderRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if order.Status != entity.WorkOrderStatusReleased {
		return nil, invalidStateErr(order.Status, "only released work orders can be started")
	}
	now := time.Now()
	order.Status = entity.WorkOrderStatusInProgress
	order.StartedAt = &now
	order.UpdatedAt = now
	if err := s.orderRepo.Update(ctx, order); err != nil {
		return nil, fmt.Errorf("start work order: %w", err)
	}
	return order, nil
}

// CompleteWorkOrder moves in_progress -> completed.
func (s *WorkOrderService) CompleteWorkOrder(ctx context.Context, id string) (*entity.WorkOrder, error) {
	order, err := s.orderRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if order.Status != entity.WorkOrderStatusInProgress {
		return nil, invalidStateErr(order.Status, "only in-progress work orders can be completed")
	}
	now := time.Now()
	order.Status = entity.WorkOrderStatusCompleted
	order.CompletedAt = &now
	order.UpdatedAt = now
	if err := s.orderRepo.Update(ctx, order); err != nil {
		return nil, fmt.Errorf("complete work order: %w", err)
	}
	return order, nil
}

// CancelWorkOrder cancels an order that has not completed. Frozen material
// lines are dropped with it.
func (s *WorkOrderService) CancelWorkOrder(ctx context.Context, id string) (*entity.WorkOrder, error) {
	order, err := s.orderRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if order.Status == entity.WorkOrderStatusCompleted || order.Status == entity.WorkOrderStatusCancelled {
		return nil, invalidStateErr(order.Status, "a %s work order cannot be cancelled", order.Status)
	}
	if err := s.orderRepo.DeleteMaterials(ctx, id); err != nil {
		return nil, fmt.Errorf("drop material lines: %w", err)
	}
	order.Materials = nil
	order.Status = entity.WorkOrderStatusCancelled
	order.UpdatedAt = time.Now()
	if err := s.orderRepo.Update(ctx, order); err != nil {
		return nil, fmt.Errorf("cancel work order: %w", err)
	}
	return order, nil
}

// MaterialPlan is the per-order view of required materials.
type MaterialPlan struct {
	WorkOrderID     string            `json:"work_order_id"`
	WorkOrderNumber string            `json:"work_order_number"`
	QuantityOrdered float64           `json:"quantity_ordered"`
	HasBOM          bool              `json:"has_bom"`
	BOMID           string            `json:"bom_id,omitempty"`
	BOMRevision     string            `json:"bom_revision,omitempty"`
	Frozen          bool              `json:"frozen"`
	Materials       []bom.Requirement `json:"materials"`
}

// MaterialRequirements returns the material plan for an order. Before
// release the plan is computed live from the current active structure;
// after release the frozen lines stored at release time are returned.
func (s *WorkOrderService) MaterialRequirements(ctx context.Context, id string) (*MaterialPlan, error) {
	order, err := s.orderRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	plan := &MaterialPlan{
		WorkOrderID:     order.ID,
		WorkOrderNumber: order.OrderNumber,
		QuantityOrdered: order.Quantity,
		Materials:       []bom.Requirement{},
	}

	if order.Status == entity.WorkOrderStatusCreated {
		result, err := s.bomSvc.Requirements(ctx, order.PartID, order.Quantity)
		if err != nil {
			return nil, fmt.Errorf("compute material requirements: %w", err)
		}
		plan.HasBOM = result.HasBOM
		plan.BOMID = result.BOMID
		plan.BOMRevision = result.BOMRevision
		plan.Materials = result.Materials
		return plan, nil
	}

	plan.Frozen = true
	if order.BOMID != nil {
		plan.HasBOM = true
		plan.BOMID = *order.BOMID
	}
	lines, err := s.orderRepo.ListMaterials(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("load material lines: %w", err)
	}
	for _, line := range lines {
		req := bom.Requirement{
			PartID:           line.PartID,
			UnitOfMeasure:    line.Unit,
			QuantityRequired: line.RequiredQuantity,
			ScrapAllowance:   line.ScrapQuantity,
			TotalRequired:    line.TotalQuantity,
		}
		if order.Quantity > 0 {
			req.QuantityPerAssembly = line.RequiredQuantity / order.Quantity
		}
		if line.Part != nil {
			req.PartNumber = line.Part.PartNumber
			req.PartName = line.Part.Name
		}
		plan.Materials = append(plan.Materials, req)
	}
	return plan, nil
}
