package repository

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/jwerthen/Werco-ERP-MES-sub000/internal/mes/entity"
)

type BOMRepository struct {
	db *gorm.DB
}

func NewBOMRepository(db *gorm.DB) *BOMRepository {
	return &BOMRepository{db: db}
}

func (r *BOMRepository) DB() *gorm.DB {
	return r.db
}

// Create inserts a new BOM header.
func (r *BOMRepository) Create(ctx context.Context, bom *entity.BOM) error {
	return r.db.WithContext(ctx).Create(bom).Error
}

// FindByID loads a BOM with its items and their component parts.
func (r *BOMRepository) FindByID(ctx context.Context, id string) (*entity.BOM, error) {
	var bom entity.BOM
	err := r.db.WithContext(ctx).
		Preload("Part").
		Preload("Items", func(db *gorm.DB) *gorm.DB { return db.Order("item_number ASC") }).
		Preload("Items.ComponentPart").
		First(&bom, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &bom, nil
}

// ListByPart returns all BOM versions for a part, newest first.
func (r *BOMRepository) ListByPart(ctx context.Context, partID string, status string) ([]entity.BOM, error) {
	var boms []entity.BOM
	query := r.db.WithContext(ctx).Where("part_id = ?", partID)
	if status != "" {
		query = query.Where("status = ?", status)
	}
	err := query.Order("created_at DESC").Find(&boms).Error
	return boms, err
}

// FindActiveByPart returns the single active BOM for a part, or ErrNotFound.
func (r *BOMRepository) FindActiveByPart(ctx context.Context, partID string) (*entity.BOM, error) {
	var bom entity.BOM
	err := r.db.WithContext(ctx).
		Preload("Items", func(db *gorm.DB) *gorm.DB { return db.Order("item_number ASC") }).
		Preload("Items.ComponentPart").
		First(&bom, "part_id = ? AND status = ?", partID, entity.BOMStatusActive).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &bom, nil
}

// FindActiveByParts bulk-loads active BOMs with items for a set of parent
// part IDs, keyed by part ID.
func (r *BOMRepository) FindActiveByParts(ctx context.Context, partIDs []string) (map[string]entity.BOM, error) {
	if len(partIDs) == 0 {
		return map[string]entity.BOM{}, nil
	}
	var boms []entity.BOM
	err := r.db.WithContext(ctx).
		Preload("Items", func(db *gorm.DB) *gorm.DB { return db.Order("item_number ASC") }).
		Where("part_id IN ? AND status = ?", partIDs, entity.BOMStatusActive).
		Find(&boms).Error
	if err != nil {
		return nil, err
	}
	result := make(map[string]entity.BOM, len(boms))
	for _, b := range boms {
		result[b.PartID] = b
	}
	return result, nil
}

// Update saves a full BOM header.
func (r *BOMRepository) Update(ctx context.Context, bom *entity.BOM) error {
	return r.db.WithContext(ctx).Save(bom).Error
}

// Delete removes a BOM and its items.
func (r *BOMRepository) Delete(ctx context.Context, id string) error {
	if err := r.db.WithContext(ctx).Delete(&entity.BOMItem{}, "bom_id = ?", id).Error; err != nil {
		return err
	}
	return r.db.WithContext(ctx).Delete(&entity.BOM{}, "id = ?", id).Error
}

// DemoteActive marks any currently active BOM for the part as released.
// Used when activating a new version so at most one stays active.
func (r *BOMRepository) DemoteActive(ctx context.Context, partID string, exceptBOMID string) error {
	return r.db.WithContext(ctx).Model(&entity.BOM{}).
		Where("part_id = ? AND status = ? AND id <> ?", partID, entity.BOMStatusActive, exceptBOMID).
		Update("status", entity.BOMStatusReleased).Error
}

// CreateItem inserts one BOM line.
func (r *BOMRepository) CreateItem(ctx context.Context, item *entity.BOMItem) error {
	return r.db.WithContext(ctx).Create(item).Error
}

// BatchCreateItems inserts BOM lines in bulk.
func (r *BOMRepository) BatchCreateItems(ctx context.Context, items []entity.BOMItem) error {
	if len(items) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Create(&items).Error
}

// FindItemByID loads one BOM line.
func (r *BOMRepository) FindItemByID(ctx context.Context, id string) (*entity.BOMItem, error) {
	var item entity.BOMItem
	err := r.db.WithContext(ctx).Preload("ComponentPart").First(&item, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &item, nil
}

// ListItemsByBOM returns all lines of a BOM ordered by line number.
func (r *BOMRepository) ListItemsByBOM(ctx context.Context, bomID string) ([]entity.BOMItem, error) {
	var items []entity.BOMItem
	err := r.db.WithContext(ctx).
		Preload("ComponentPart").
		Where("bom_id = ?", bomID).
		Order("item_number ASC").
		Find(&items).Error
	return items, err
}

// UpdateItem saves one BOM line.
func (r *BOMRepository) UpdateItem(ctx context.Context, item *entity.BOMItem) error {
	return r.db.WithContext(ctx).Save(item).Error
}

// DeleteItem removes one BOM line.
func (r *BOMRepository) DeleteItem(ctx context.Context, id string) error {
	return r.db.WithContext(ctx).Delete(&entity.BOMItem{}, "id = ?", id).Error
}

// DeleteItemsByBOM removes all lines of a BOM.
func (r *BOMRepository) DeleteItemsByBOM(ctx context.Context, bomID string) error {
	return r.db.WithContext(ctx).Delete(&entity.BOMItem{}, "bom_id = ?", bomID).Error
}

// GetMaxItemNumber returns the highest item number on a BOM, 0 when empty.
func (r *BOMRepository) GetMaxItemNumber(ctx context.Context, bomID string) (int, error) {
	var maxNum *int
	err := r.db.WithContext(ctx).Model(&entity.BOMItem{}).
		Where("bom_id = ?", bomID).
		Select("MAX(item_number)").Scan(&maxNum).Error
	if err != nil {
		return 0, err
	}
	if maxNum == nil {
		return 0, nil
	}
	return *maxNum, nil
}

// CountItems counts lines on a BOM.
func (r *BOMRepository) CountItems(ctx context.Context, bomID string) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&entity.BOMItem{}).Where("bom_id = ?", bomID).Count(&count).Error
	return count, err
}
