package repository

import (
	"context"
	"errors"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/jwerthen/Werco-ERP-MES-sub000/internal/mes/entity"
)

type WorkOrderRepository struct {
	db *gorm.DB
}

func NewWorkOrderRepository(db *gorm.DB) *WorkOrderRepository {
	return &WorkOrderRepository{db: db}
}

func (r *WorkOrderRepository) DB() *gorm.DB {
	return r.db
}

// Create inserts a new work order.
func (r *WorkOrderRepository) Create(ctx context.Context, order *entity.WorkOrder) error {
	return r.db.WithContext(ctx).Create(order).Error
}

// FindByID loads a work order with its part and material lines.
func (r *WorkOrderRepository) FindByID(ctx context.Context, id string) (*entity.WorkOrder, error) {
	var order entity.WorkOrder
	err := r.db.WithContext(ctx).
		Preload("Part").
		Preload("Materials").
		Preload("Materials.Part").
		First(&order, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &order, nil
}

// List returns work orders filtered by part and status, newest first.
func (r *WorkOrderRepository) List(ctx context.Context, partID, status string, page, pageSize int) ([]entity.WorkOrder, int64, error) {
	if pageSize <= 0 || pageSize > 200 {
		pageSize = 50
	}
	if page <= 0 {
		page = 1
	}
	query := r.db.WithContext(ctx).Model(&entity.WorkOrder{})
	if partID != "" {
		query = query.Where("part_id = ?", partID)
	}
	if status != "" {
		query = query.Where("status = ?", status)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var orders []entity.WorkOrder
	err := query.Preload("Part").
		Order("created_at DESC").
		Offset((page - 1) * pageSize).
		Limit(pageSize).
		Find(&orders).Error
	return orders, total, err
}

// Update saves a work order record. Associations loaded on the struct are
// not written back; material lines change only through BatchCreateMaterials
// and DeleteMaterials.
func (r *WorkOrderRepository) Update(ctx context.Context, order *entity.WorkOrder) error {
	return r.db.WithContext(ctx).Omit(clause.Associations).Save(order).Error
}

// BatchCreateMaterials inserts material lines in bulk.
func (r *WorkOrderRepository) BatchCreateMaterials(ctx context.Context, materials []entity.WorkOrderMaterial) error {
	if len(materials) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Create(&materials).Error
}

// ListMaterials returns the material lines of a work order.
func (r *WorkOrderRepository) ListMaterials(ctx context.Context, workOrderID string) ([]entity.WorkOrderMaterial, error) {
	var materials []entity.WorkOrderMaterial
	err := r.db.WithContext(ctx).
		Preload("Part").
		Where("work_order_id = ?", workOrderID).
		Order("created_at ASC").
		Find(&materials).Error
	return materials, err
}

// DeleteMaterials removes all material lines of a work order.
func (r *WorkOrderRepository) DeleteMaterials(ctx context.Context, workOrderID string) error {
	return r.db.WithContext(ctx).Delete(&entity.WorkOrderMaterial{}, "work_order_id = ?", workOrderID).Error
}
