package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/jwerthen/Werco-ERP-MES-sub000/internal/mes/bomimport"
	"github.com/jwerthen/Werco-ERP-MES-sub000/internal/mes/entity"
	"github.com/jwerthen/Werco-ERP-MES-sub000/internal/mes/repository"
)

type PartService struct {
	partRepo *repository.PartRepository
}

func NewPartService(partRepo *repository.PartRepository) *PartService {
	return &PartService{partRepo: partRepo}
}

// PartInput carries caller-supplied part fields.
type PartInput struct {
	PartNumber    string           `json:"part_number"`
	Name          string           `json:"name"`
	Description   string           `json:"description"`
	Revision      string           `json:"revision"`
	PartType      string           `json:"part_type"`
	UnitOfMeasure string           `json:"unit_of_measure"`
	StandardCost  *decimal.Decimal `json:"standard_cost"`
	LeadTimeDays  *int             `json:"lead_time_days"`
	Supplier      string           `json:"supplier"`
	DrawingNo     string           `json:"drawing_no"`
}

var validPartTypes = map[string]bool{
	entity.PartTypeManufactured: true,
	entity.PartTypePurchased:    true,
	entity.PartTypeAssembly:     true,
	entity.PartTypeRaw:          true,
	entity.PartTypeHardware:     true,
	entity.PartTypeConsumable:   true,
}

// CreatePart adds a catalog entry. Part numbers are normalized to upper
// case and must be unique among non-obsolete parts.
func (s *PartService) CreatePart(ctx context.Context, input *PartInput, createdBy string) (*entity.Part, error) {
	partNumber := bomimport.NormalizePartNumber(input.PartNumber)
	if partNumber == "" {
		return nil, validationErr("part_number", "part number is required")
	}
	if input.Name == "" {
		return nil, validationErr("name", "name is required")
	}
	if input.PartType != "" && !validPartTypes[input.PartType] {
		return nil, validationErr("part_type", "unknown part type %q", input.PartType)
	}
	if input.StandardCost != nil && input.StandardCost.IsNegative() {
		return nil, validationErr("standard_cost", "standard cost must not be negative")
	}

	existing, err := s.partRepo.FindByPartNumber(ctx, partNumber)
	if err != nil && !errors.Is(err, repository.ErrNotFound) {
		return nil, fmt.Errorf("check part number: %w", err)
	}
	if existing != nil && existing.Status != entity.PartStatusObsolete {
		return nil, validationErr("part_number", "part number %s already exists", partNumber)
	}

	part := &entity.Part{
		ID:            uuid.New().String()[:32],
		PartNumber:    partNumber,
		Name:          input.Name,
		Description:   input.Description,
		Revision:      input.Revision,
		PartType:      input.PartType,
		UnitOfMeasure: input.UnitOfMeasure,
		Status:        entity.PartStatusActive,
		StandardCost:  input.StandardCost,
		LeadTimeDays:  input.LeadTimeDays,
		Supplier:      input.Supplier,
		DrawingNo:     input.DrawingNo,
		CreatedBy:     createdBy,
		CreatedAt:     time.Now(),
		UpdatedAt:     time.Now(),
	}
	if part.Revision == "" {
		part.Revision = "A"
	}
	if part.PartType == "" {
		part.PartType = entity.PartTypePurchased
	}
	if part.UnitOfMeasure == "" {
		part.UnitOfMeasure = "ea"
	}

	if err := s.partRepo.Create(ctx, part); err != nil {
		return nil, fmt.Errorf("create part: %w", err)
	}
	return part, nil
}

// GetPart loads a part and fills its derived HasBOM flag.
func (s *PartService) GetPart(ctx context.Context, id string) (*entity.Part, error) {
	part, err := s.partRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	withBOMs, err := s.partRepo.PartIDsWithBOMs(ctx, []string{part.ID})
	if err != nil {
		return nil, fmt.Errorf("check bom flag: %w", err)
	}
	part.HasBOM = withBOMs[part.ID]
	return part, nil
}

// ListParts returns a filtered page with HasBOM resolved in one extra query.
func (s *PartService) ListParts(ctx context.Context, params repository.ListParams) ([]entity.Part, int64, error) {
	parts, total, err := s.partRepo.List(ctx, params)
	if err != nil {
		return nil, 0, err
	}
	ids := make([]string, len(parts))
	for i, p := range parts {
		ids[i] = p.ID
	}
	withBOMs, err := s.partRepo.PartIDsWithBOMs(ctx, ids)
	if err != nil {
		return nil, 0, fmt.Errorf("check bom flags: %w", err)
	}
	for i := range parts {
		parts[i].HasBOM = withBOMs[parts[i].ID]
	}
	return parts, total, nil
}

// UpdatePart edits catalog fields. The part number itself is immutable.
func (s *PartService) UpdatePart(ctx context.Context, id string, input *PartInput) (*entity.Part, error) {
	part, err := s.partRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if part.Status == entity.PartStatusObsolete {
		return nil, invalidStateErr(part.Status, "obsolete parts cannot be edited")
	}
	if n := bomimport.NormalizePartNumber(input.PartNumber); n != "" && n != part.PartNumber {
		return nil, validationErr("part_number", "part number cannot be changed")
	}
	if input.PartType != "" && !validPartTypes[input.PartType] {
		return nil, validationErr("part_type", "unknown part type %q", input.PartType)
	}
	if input.StandardCost != nil && input.StandardCost.IsNegative() {
		return nil, validationErr("standard_cost", "standard cost must not be negative")
	}

	if input.Name != "" {
		part.Name = input.Name
	}
	if input.Description != "" {
		part.Description = input.Description
	}
	if input.Revision != "" {
		part.Revision = input.Revision
	}
	if input.PartType != "" {
		part.PartType = input.PartType
	}
	if input.UnitOfMeasure != "" {
		part.UnitOfMeasure = input.UnitOfMeasure
	}
	if input.StandardCost != nil {
		part.StandardCost = input.StandardCost
	}
	if input.LeadTimeDays != nil {
		part.LeadTimeDays = input.LeadTimeDays
	}
	if input.Supplier != "" {
		part.Supplier = input.Supplier
	}
	if input.DrawingNo != "" {
		part.DrawingNo = input.DrawingNo
	}
	part.UpdatedAt = time.Now()

	if err := s.partRepo.Update(ctx, part); err != nil {
		return nil, fmt.Errorf("update part: %w", err)
	}
	return part, nil
}

// ObsoletePart retires a part. Parts are never hard-deleted; the record
// stays so old BOMs and work orders keep resolving.
func (s *PartService) ObsoletePart(ctx context.Context, id string) (*entity.Part, error) {
	part, err := s.partRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if part.Status == entity.PartStatusObsolete {
		return part, nil
	}
	refs, err := s.partRepo.CountBOMReferences(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("check bom references: %w", err)
	}
	if refs > 0 {
		return nil, invalidStateErr(part.Status, "part is used as a component on %d BOM line(s)", refs)
	}
	part.Status = entity.PartStatusObsolete
	part.UpdatedAt = time.Now()
	if err := s.partRepo.Update(ctx, part); err != nil {
		return nil, fmt.Errorf("obsolete part: %w", err)
	}
	return part, nil
}
