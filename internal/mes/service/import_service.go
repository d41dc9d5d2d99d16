package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"

	"github.com/jwerthen/Werco-ERP-MES-sub000/internal/mes/bomimport"
	"github.com/jwerthen/Werco-ERP-MES-sub000/internal/mes/entity"
	"github.com/jwerthen/Werco-ERP-MES-sub000/internal/mes/repository"
	"github.com/jwerthen/Werco-ERP-MES-sub000/internal/storage"
)

type ImportService struct {
	partRepo *repository.PartRepository
	bomRepo  *repository.BOMRepository
	sessions bomimport.SessionStore
	store    *storage.ObjectStore
	logger   *zap.Logger
}

func NewImportService(partRepo *repository.PartRepository, bomRepo *repository.BOMRepository, sessions bomimport.SessionStore, store *storage.ObjectStore, logger *zap.Logger) *ImportService {
	return &ImportService{
		partRepo: partRepo,
		bomRepo:  bomRepo,
		sessions: sessions,
		store:    store,
		logger:   logger,
	}
}

// Preview parses an uploaded document into an import session. Spreadsheets
// become a raw grid with a suggested column mapping; items are derived from
// that mapping immediately so the caller sees a first candidate list. The
// original file is archived best-effort and never blocks the preview.
func (s *ImportService) Preview(ctx context.Context, documentType, fileName string, data []byte) (*bomimport.Preview, error) {
	if documentType != bomimport.DocumentTypeBOM && documentType != bomimport.DocumentTypePart {
		return nil, validationErr("document_type", "document type must be bom or part")
	}

	var source bomimport.Source
	var err error
	switch strings.ToLower(filepath.Ext(fileName)) {
	case ".xlsx", ".xlsm":
		source, err = bomimport.ParseExcel(bytes.NewReader(data))
	default:
		source, err = bomimport.ParseDelimited(bytes.NewReader(data))
	}
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", fileName, err)
	}

	mapping := bomimport.SuggestMapping(source.Columns)
	preview := &bomimport.Preview{
		ID:           uuid.New().String()[:32],
		DocumentType: documentType,
		State:        bomimport.StatePreviewed,
		FileName:     fileName,
		Source:       source,
		ColumnMap:    mapping,
		Items:        bomimport.DeriveItems(source, mapping),
		CreatedAt:    time.Now(),
	}
	preview.Assembly = bomimport.Assembly{
		PartNumber: bomimport.NormalizePartNumber(strings.TrimSuffix(filepath.Base(fileName), filepath.Ext(fileName))),
		PartType:   entity.PartTypeAssembly,
	}

	preview.ArchiveObject = s.archiveOriginal(ctx, preview.ID, fileName, data)

	if err := s.sessions.Save(ctx, preview); err != nil {
		return nil, fmt.Errorf("save import session: %w", err)
	}
	return preview, nil
}

// PreviewStructured opens a session from rows that already carry named
// fields, e.g. a paste from another system.
func (s *ImportService) PreviewStructured(ctx context.Context, documentType string, assembly bomimport.Assembly, items []bomimport.Item) (*bomimport.Preview, error) {
	if documentType != bomimport.DocumentTypeBOM && documentType != bomimport.DocumentTypePart {
		return nil, validationErr("document_type", "document type must be bom or part")
	}
	source := bomimport.Source{Kind: bomimport.SourceStructured, Items: items}
	preview := &bomimport.Preview{
		ID:           uuid.New().String()[:32],
		DocumentType: documentType,
		State:        bomimport.StatePreviewed,
		Assembly:     assembly,
		Source:       source,
		Items:        bomimport.DeriveItems(source, bomimport.ColumnMap{}),
		CreatedAt:    time.Now(),
	}
	preview.Assembly.PartNumber = bomimport.NormalizePartNumber(preview.Assembly.PartNumber)

	if err := s.sessions.Save(ctx, preview); err != nil {
		return nil, fmt.Errorf("save import session: %w", err)
	}
	return preview, nil
}

func (s *ImportService) archiveOriginal(ctx context.Context, previewID, fileName string, data []byte) string {
	if s.store == nil {
		return ""
	}
	objectName := fmt.Sprintf("imports/%s/%s", previewID, fileName)
	if err := s.store.Put(ctx, objectName, bytes.NewReader(data), int64(len(data)), "application/octet-stream"); err != nil {
		s.logger.Warn("archive of import source failed", zap.String("object", objectName), zap.Error(err))
		return ""
	}
	return objectName
}

// OriginalFile streams the archived upload of a session back to the caller.
func (s *ImportService) OriginalFile(ctx context.Context, id string) (io.ReadCloser, string, error) {
	preview, err := s.sessions.Get(ctx, id)
	if err != nil {
		return nil, "", err
	}
	if preview.ArchiveObject == "" {
		return nil, "", repository.ErrNotFound
	}
	rc, err := s.store.Get(ctx, preview.ArchiveObject)
	if err != nil {
		return nil, "", fmt.Errorf("fetch archived original: %w", err)
	}
	return rc, preview.FileName, nil
}

// GetPreview loads an open session.
func (s *ImportService) GetPreview(ctx context.Context, id string) (*bomimport.Preview, error) {
	return s.sessions.Get(ctx, id)
}

// UpdateAssembly replaces the candidate root part fields of a session.
func (s *ImportService) UpdateAssembly(ctx context.Context, id string, assembly bomimport.Assembly) (*bomimport.Preview, error) {
	preview, err := s.sessions.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	assembly.PartNumber = bomimport.NormalizePartNumber(assembly.PartNumber)
	preview.Assembly = assembly
	if err := s.sessions.Save(ctx, preview); err != nil {
		return nil, fmt.Errorf("save import session: %w", err)
	}
	return preview, nil
}

// UpdateItems replaces the candidate item list with user-edited rows. The
// session's source flips to structured so a later remap cannot silently
// wipe manual edits.
func (s *ImportService) UpdateItems(ctx context.Context, id string, items []bomimport.Item) (*bomimport.Preview, error) {
	preview, err := s.sessions.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	source := bomimport.Source{Kind: bomimport.SourceStructured, Items: items}
	preview.Source = source
	preview.Items = bomimport.DeriveItems(source, bomimport.ColumnMap{})
	if err := s.sessions.Save(ctx, preview); err != nil {
		return nil, fmt.Errorf("save import session: %w", err)
	}
	return preview, nil
}

// Remap rebinds one semantic field to a raw grid column and recomputes the
// derived items.
func (s *ImportService) Remap(ctx context.Context, id, field string, column *int) (*bomimport.Preview, error) {
	preview, err := s.sessions.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if preview.Source.Kind != bomimport.SourceRawGrid {
		return nil, validationErr("field", "only raw grid sessions can be remapped")
	}
	mapping, items, err := bomimport.Remap(preview.Source, preview.ColumnMap, field, column)
	if err != nil {
		return nil, validationErr("field", "%s", err.Error())
	}
	preview.ColumnMap = mapping
	preview.Items = items
	if err := s.sessions.Save(ctx, preview); err != nil {
		return nil, fmt.Errorf("save import session: %w", err)
	}
	return preview, nil
}

// CommitResult reports what a commit produced. Warnings carry the lines
// that could not be resolved; they do not fail the commit.
type CommitResult struct {
	PartID       string   `json:"part_id"`
	BOMID        string   `json:"bom_id,omitempty"`
	CreatedParts int      `json:"created_parts"`
	CreatedItems int      `json:"created_items"`
	Warnings     []string `json:"warnings"`
}

// Commit persists a session. A part document creates exactly one catalog
// entry. A BOM document creates or locates the root part, opens a draft
// BOM, and turns every candidate line into either a stored item or a
// warning; unmatched part numbers abort only their own line.
func (s *ImportService) Commit(ctx context.Context, id string, createMissingParts bool, userID string) (*CommitResult, error) {
	preview, err := s.sessions.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if preview.State != bomimport.StatePreviewed {
		return nil, invalidStateErr(preview.State, "session is no longer open")
	}

	var result *CommitResult
	switch preview.DocumentType {
	case bomimport.DocumentTypePart:
		result, err = s.commitPart(ctx, preview, userID)
	case bomimport.DocumentTypeBOM:
		result, err = s.commitBOM(ctx, preview, createMissingParts, userID)
	default:
		err = validationErr("document_type", "unknown document type %q", preview.DocumentType)
	}
	if err != nil {
		return nil, err
	}

	if err := s.sessions.Delete(ctx, id); err != nil {
		s.logger.Warn("delete of committed import session failed", zap.String("session_id", id), zap.Error(err))
	}
	return result, nil
}

func (s *ImportService) commitPart(ctx context.Context, preview *bomimport.Preview, userID string) (*CommitResult, error) {
	part, err := s.createPartFromAssembly(ctx, preview.Assembly, userID)
	if err != nil {
		return nil, err
	}
	return &CommitResult{PartID: part.ID, CreatedParts: 1, Warnings: []string{}}, nil
}

func (s *ImportService) commitBOM(ctx context.Context, preview *bomimport.Preview, createMissingParts bool, userID string) (*CommitResult, error) {
	if preview.Assembly.PartNumber == "" {
		return nil, validationErr("assembly.part_number", "assembly part number is required")
	}

	result := &CommitResult{Warnings: []string{}}

	root, err := s.partRepo.FindByPartNumber(ctx, preview.Assembly.PartNumber)
	if errors.Is(err, repository.ErrNotFound) {
		root, err = s.createPartFromAssembly(ctx, preview.Assembly, userID)
		if err != nil {
			return nil, err
		}
		result.CreatedParts++
	} else if err != nil {
		return nil, fmt.Errorf("locate root part: %w", err)
	}
	result.PartID = root.ID

	if active, err := s.bomRepo.FindActiveByPart(ctx, root.ID); err == nil {
		result.Warnings = append(result.Warnings, fmt.Sprintf("part %s already has active BOM revision %s; imported structure saved as a new draft", root.PartNumber, active.Revision))
	} else if !errors.Is(err, repository.ErrNotFound) {
		return nil, fmt.Errorf("check active bom: %w", err)
	}

	b := &entity.BOM{
		ID:        uuid.New().String()[:32],
		PartID:    root.ID,
		Revision:  preview.Assembly.Revision,
		BOMType:   entity.BOMTypeStandard,
		Status:    entity.BOMStatusDraft,
		Notes:     fmt.Sprintf("imported from %s", preview.FileName),
		CreatedBy: userID,
		CreatedAt: time.Now(),
		UpdatedAt: time.Now(),
	}
	if b.Revision == "" {
		b.Revision = "A"
	}
	if preview.FileName == "" {
		b.Notes = "imported"
	}
	if err := s.bomRepo.Create(ctx, b); err != nil {
		return nil, fmt.Errorf("create bom: %w", err)
	}
	result.BOMID = b.ID

	// Resolve every part number in one query, then walk the lines.
	numbers := make([]string, 0, len(preview.Items))
	for _, it := range preview.Items {
		if it.PartNumber != "" {
			numbers = append(numbers, it.PartNumber)
		}
	}
	matched, err := s.partRepo.FindByPartNumbers(ctx, numbers)
	if err != nil {
		return nil, fmt.Errorf("match parts: %w", err)
	}

	var items []entity.BOMItem
	for _, it := range preview.Items {
		if it.PartNumber == "" {
			result.Warnings = append(result.Warnings, fmt.Sprintf("line %d: no part number, line skipped", it.LineNumber))
			continue
		}
		component, ok := matched[it.PartNumber]
		if !ok {
			if !createMissingParts {
				warn := &bomimport.UnmatchedPartError{LineNumber: it.LineNumber, PartNumber: it.PartNumber}
				result.Warnings = append(result.Warnings, warn.Error())
				continue
			}
			created, err := s.autoCreatePart(ctx, it, userID)
			if err != nil {
				result.Warnings = append(result.Warnings, fmt.Sprintf("line %d: create part %s failed: %v", it.LineNumber, it.PartNumber, err))
				continue
			}
			component = *created
			matched[it.PartNumber] = component
			result.CreatedParts++
		}
		if component.ID == root.ID {
			result.Warnings = append(result.Warnings, fmt.Sprintf("line %d: part %s references the assembly itself, line skipped", it.LineNumber, it.PartNumber))
			continue
		}

		items = append(items, entity.BOMItem{
			ID:                  uuid.New().String()[:32],
			BOMID:               b.ID,
			ItemNumber:          it.LineNumber,
			ComponentPartID:     component.ID,
			Quantity:            it.Quantity,
			UnitOfMeasure:       it.UnitOfMeasure,
			ItemType:            entity.ItemTypeBuy,
			LineType:            entity.LineTypeComponent,
			ScrapFactor:         it.ScrapFactor,
			ReferenceDesignator: it.ReferenceDesignator,
			Notes:               it.Notes,
			CreatedAt:           time.Now(),
			UpdatedAt:           time.Now(),
		})
	}

	if err := s.bomRepo.BatchCreateItems(ctx, items); err != nil {
		return nil, fmt.Errorf("create bom items: %w", err)
	}
	result.CreatedItems = len(items)
	return result, nil
}

func (s *ImportService) createPartFromAssembly(ctx context.Context, assembly bomimport.Assembly, userID string) (*entity.Part, error) {
	partNumber := bomimport.NormalizePartNumber(assembly.PartNumber)
	if partNumber == "" {
		return nil, validationErr("assembly.part_number", "part number is required")
	}
	part := &entity.Part{
		ID:            uuid.New().String()[:32],
		PartNumber:    partNumber,
		Name:          assembly.Name,
		Description:   assembly.Description,
		Revision:      assembly.Revision,
		PartType:      assembly.PartType,
		UnitOfMeasure: "ea",
		Status:        entity.PartStatusActive,
		CreatedBy:     userID,
		CreatedAt:     time.Now(),
		UpdatedAt:     time.Now(),
	}
	if part.Name == "" {
		part.Name = partNumber
	}
	if part.Revision == "" {
		part.Revision = "A"
	}
	if part.PartType == "" {
		part.PartType = entity.PartTypeAssembly
	}
	if err := s.partRepo.Create(ctx, part); err != nil {
		return nil, fmt.Errorf("create part %s: %w", partNumber, err)
	}
	return part, nil
}

// autoCreatePart materializes a catalog entry for an unmatched import
// line. Imported components default to purchased.
func (s *ImportService) autoCreatePart(ctx context.Context, it bomimport.Item, userID string) (*entity.Part, error) {
	part := &entity.Part{
		ID:            uuid.New().String()[:32],
		PartNumber:    it.PartNumber,
		Name:          it.Description,
		Revision:      "A",
		PartType:      entity.PartTypePurchased,
		UnitOfMeasure: it.UnitOfMeasure,
		Status:        entity.PartStatusActive,
		CreatedBy:     userID,
		CreatedAt:     time.Now(),
		UpdatedAt:     time.Now(),
	}
	if part.Name == "" {
		part.Name = it.PartNumber
	}
	if part.UnitOfMeasure == "" {
		part.UnitOfMeasure = "ea"
	}
	if err := s.partRepo.Create(ctx, part); err != nil {
		return nil, err
	}
	return part, nil
}

// Cancel closes a session without committing.
func (s *ImportService) Cancel(ctx context.Context, id string) error {
	if _, err := s.sessions.Get(ctx, id); err != nil {
		return err
	}
	return s.sessions.Delete(ctx, id)
}

var templateHeaders = []string{"Item No", "Part Number", "Description", "Qty", "UOM", "Scrap Factor", "Ref Des", "Notes"}

// GenerateTemplate builds the blank upload workbook handed to users.
func (s *ImportService) GenerateTemplate() (*excelize.File, error) {
	f := excelize.NewFile()
	sheet := "BOM Import"
	f.SetSheetName("Sheet1", sheet)

	boldStyle, _ := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true, Size: 11},
		Fill: excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{"#D9E1F2"}},
	})
	for i, h := range templateHeaders {
		col, _ := excelize.ColumnNumberToName(i + 1)
		f.SetCellValue(sheet, col+"1", h)
		f.SetCellStyle(sheet, col+"1", col+"1", boldStyle)
	}

	example := []interface{}{10, "P-100", "Example widget", 2, "ea", 0.05, "R1,R2", ""}
	for i, v := range example {
		col, _ := excelize.ColumnNumberToName(i + 1)
		f.SetCellValue(sheet, col+"2", v)
	}
	return f, nil
}
