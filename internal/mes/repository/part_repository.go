package repository

import (
	"context"
	"errors"
	"strings"

	"gorm.io/gorm"

	"github.com/jwerthen/Werco-ERP-MES-sub000/internal/mes/entity"
)

type PartRepository struct {
	db *gorm.DB
}

func NewPartRepository(db *gorm.DB) *PartRepository {
	return &PartRepository{db: db}
}

func (r *PartRepository) DB() *gorm.DB {
	return r.db
}

// Create inserts a new part.
func (r *PartRepository) Create(ctx context.Context, part *entity.Part) error {
	return r.db.WithContext(ctx).Create(part).Error
}

// FindByID loads a part by primary key.
func (r *PartRepository) FindByID(ctx context.Context, id string) (*entity.Part, error) {
	var part entity.Part
	err := r.db.WithContext(ctx).First(&part, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &part, nil
}

// FindByPartNumber loads a part by number. Obsolete entries may share a
// number with a live one; the live entry wins.
func (r *PartRepository) FindByPartNumber(ctx context.Context, partNumber string) (*entity.Part, error) {
	var part entity.Part
	err := r.db.WithContext(ctx).
		Where("part_number = ?", partNumber).
		Order("status = 'obsolete'").
		Order("created_at DESC").
		First(&part).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &part, nil
}

// FindByPartNumbers loads parts in bulk, keyed by part number.
func (r *PartRepository) FindByPartNumbers(ctx context.Context, partNumbers []string) (map[string]entity.Part, error) {
	if len(partNumbers) == 0 {
		return map[string]entity.Part{}, nil
	}
	var parts []entity.Part
	err := r.db.WithContext(ctx).Where("part_number IN ?", partNumbers).Find(&parts).Error
	if err != nil {
		return nil, err
	}
	result := make(map[string]entity.Part, len(parts))
	for _, p := range parts {
		if prev, ok := result[p.PartNumber]; ok && prev.Status != entity.PartStatusObsolete {
			continue
		}
		result[p.PartNumber] = p
	}
	return result, nil
}

// FindByIDs loads parts in bulk by primary key.
func (r *PartRepository) FindByIDs(ctx context.Context, ids []string) ([]entity.Part, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	var parts []entity.Part
	err := r.db.WithContext(ctx).Where("id IN ?", ids).Find(&parts).Error
	return parts, err
}

// ListParams filters the part list query.
type ListParams struct {
	Keyword  string
	PartType string
	Status   string
	Page     int
	PageSize int
}

// List returns a page of parts plus the total match count.
func (r *PartRepository) List(ctx context.Context, params ListParams) ([]entity.Part, int64, error) {
	if params.PageSize <= 0 || params.PageSize > 200 {
		params.PageSize = 50
	}
	if params.Page <= 0 {
		params.Page = 1
	}
	query := r.db.WithContext(ctx).Model(&entity.Part{})
	if params.Keyword != "" {
		like := "%" + strings.ToLower(params.Keyword) + "%"
		query = query.Where("LOWER(part_number) LIKE ? OR LOWER(name) LIKE ?", like, like)
	}
	if params.PartType != "" {
		query = query.Where("part_type = ?", params.PartType)
	}
	if params.Status != "" {
		query = query.Where("status = ?", params.Status)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var parts []entity.Part
	err := query.Order("part_number ASC").
		Offset((params.Page - 1) * params.PageSize).
		Limit(params.PageSize).
		Find(&parts).Error
	return parts, total, err
}

// Update saves a full part record.
func (r *PartRepository) Update(ctx context.Context, part *entity.Part) error {
	return r.db.WithContext(ctx).Save(part).Error
}

// Delete removes a part by ID.
func (r *PartRepository) Delete(ctx context.Context, id string) error {
	return r.db.WithContext(ctx).Delete(&entity.Part{}, "id = ?", id).Error
}

// CountBOMReferences counts lines of non-obsolete BOMs that use the part
// as a component.
func (r *PartRepository) CountBOMReferences(ctx context.Context, partID string) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&entity.BOMItem{}).
		Joins("JOIN mes_boms ON mes_boms.id = mes_bom_items.bom_id").
		Where("mes_bom_items.component_part_id = ? AND mes_boms.status <> ?", partID, entity.BOMStatusObsolete).
		Count(&count).Error
	return count, err
}

// PartIDsWithBOMs returns the subset of the given part IDs that have an
// active BOM defined.
func (r *PartRepository) PartIDsWithBOMs(ctx context.Context, partIDs []string) (map[string]bool, error) {
	if len(partIDs) == 0 {
		return map[string]bool{}, nil
	}
	var ids []string
	err := r.db.WithContext(ctx).Model(&entity.BOM{}).
		Distinct("part_id").
		Where("part_id IN ? AND status = ?", partIDs, entity.BOMStatusActive).
		Pluck("part_id", &ids).Error
	if err != nil {
		return nil, err
	}
	result := make(map[string]bool, len(ids))
	for _, id := range ids {
		result[id] = true
	}
	return result, nil
}
