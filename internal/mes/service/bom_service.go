package service

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"

	"github.com/jwerthen/Werco-ERP-MES-sub000/internal/mes/bom"
	"github.com/jwerthen/Werco-ERP-MES-sub000/internal/mes/entity"
	"github.com/jwerthen/Werco-ERP-MES-sub000/internal/mes/repository"
)

type BOMService struct {
	bomRepo  *repository.BOMRepository
	partRepo *repository.PartRepository
	logger   *zap.Logger
}

func NewBOMService(bomRepo *repository.BOMRepository, partRepo *repository.PartRepository, logger *zap.Logger) *BOMService {
	return &BOMService{bomRepo: bomRepo, partRepo: partRepo, logger: logger}
}

// BOMInput carries caller-supplied BOM header fields.
type BOMInput struct {
	PartID      string `json:"part_id"`
	Revision    string `json:"revision"`
	BOMType     string `json:"bom_type"`
	Description string `json:"description"`
	Notes       string `json:"notes"`
}

// BOMItemInput carries caller-supplied line fields.
type BOMItemInput struct {
	ItemNumber          int     `json:"item_number"`
	ComponentPartID     string  `json:"component_part_id"`
	Quantity            float64 `json:"quantity"`
	UnitOfMeasure       string  `json:"unit_of_measure"`
	ItemType            string  `json:"item_type"`
	LineType            string  `json:"line_type"`
	ScrapFactor         float64 `json:"scrap_factor"`
	IsOptional          bool    `json:"is_optional"`
	FindNumber          string  `json:"find_number"`
	ReferenceDesignator string  `json:"reference_designator"`
	Notes               string  `json:"notes"`
}

// CreateBOM opens a new draft revision for a part.
func (s *BOMService) CreateBOM(ctx context.Context, input *BOMInput, createdBy string) (*entity.BOM, error) {
	if input.PartID == "" {
		return nil, validationErr("part_id", "part id is required")
	}
	if _, err := s.partRepo.FindByID(ctx, input.PartID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("load part: %w", err)
	}

	b := &entity.BOM{
		ID:          uuid.New().String()[:32],
		PartID:      input.PartID,
		Revision:    input.Revision,
		BOMType:     input.BOMType,
		Status:      entity.BOMStatusDraft,
		Description: input.Description,
		Notes:       input.Notes,
		CreatedBy:   createdBy,
		CreatedAt:   time.Now(),
		UpdatedAt:   time.Now(),
	}
	if b.Revision == "" {
		b.Revision = "A"
	}
	if b.BOMType == "" {
		b.BOMType = entity.BOMTypeStandard
	}

	if err := s.bomRepo.Create(ctx, b); err != nil {
		return nil, fmt.Errorf("create bom: %w", err)
	}
	return b, nil
}

// GetBOM loads a BOM with items.
func (s *BOMService) GetBOM(ctx context.Context, id string) (*entity.BOM, error) {
	return s.bomRepo.FindByID(ctx, id)
}

// ListBOMs lists the revisions of a part.
func (s *BOMService) ListBOMs(ctx context.Context, partID, status string) ([]entity.BOM, error) {
	return s.bomRepo.ListByPart(ctx, partID, status)
}

// ListItems returns the lines of one revision in item-number order.
func (s *BOMService) ListItems(ctx context.Context, bomID string) ([]entity.BOMItem, error) {
	return s.bomRepo.ListItemsByBOM(ctx, bomID)
}

// UpdateBOM edits header fields while the BOM is still draft.
func (s *BOMService) UpdateBOM(ctx context.Context, id string, input *BOMInput) (*entity.BOM, error) {
	b, err := s.bomRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if b.Status != entity.BOMStatusDraft {
		return nil, invalidStateErr(b.Status, "only draft BOMs can be edited")
	}
	if input.Revision != "" {
		b.Revision = input.Revision
	}
	if input.BOMType != "" {
		b.BOMType = input.BOMType
	}
	if input.Description != "" {
		b.Description = input.Description
	}
	if input.Notes != "" {
		b.Notes = input.Notes
	}
	b.UpdatedAt = time.Now()
	if err := s.bomRepo.Update(ctx, b); err != nil {
		return nil, fmt.Errorf("update bom: %w", err)
	}
	return b, nil
}

// DeleteBOM removes a draft revision and its lines.
func (s *BOMService) DeleteBOM(ctx context.Context, id string) error {
	b, err := s.bomRepo.FindByID(ctx, id)
	if err != nil {
		return err
	}
	if b.Status != entity.BOMStatusDraft {
		return invalidStateErr(b.Status, "only draft BOMs can be deleted")
	}
	if err := s.bomRepo.DeleteItemsByBOM(ctx, id); err != nil {
		return fmt.Errorf("delete bom items: %w", err)
	}
	if err := s.bomRepo.Delete(ctx, id); err != nil {
		return fmt.Errorf("delete bom: %w", err)
	}
	return nil
}

// validateItemInput applies the line-level rules shared by add and update.
func validateItemInput(b *entity.BOM, input *BOMItemInput) error {
	if input.ComponentPartID == "" {
		return validationErr("component_part_id", "component part id is required")
	}
	if input.ComponentPartID == b.PartID {
		return validationErr("component_part_id", "a BOM cannot reference its own parent part")
	}
	if input.Quantity <= 0 {
		return validationErr("quantity", "quantity must be greater than zero")
	}
	if input.ScrapFactor < 0 || input.ScrapFactor >= 1 {
		return validationErr("scrap_factor", "scrap factor must be in [0, 1)")
	}
	return nil
}

// AddItem appends a line to a draft BOM. Status is re-checked here rather
// than trusted from the client.
func (s *BOMService) AddItem(ctx context.Context, bomID string, input *BOMItemInput) (*entity.BOMItem, error) {
	b, err := s.bomRepo.FindByID(ctx, bomID)
	if err != nil {
		return nil, err
	}
	if b.Status != entity.BOMStatusDraft {
		return nil, invalidStateErr(b.Status, "items can only be added to a draft BOM")
	}
	if err := validateItemInput(b, input); err != nil {
		return nil, err
	}
	if _, err := s.partRepo.FindByID(ctx, input.ComponentPartID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("load component part: %w", err)
	}

	item := &entity.BOMItem{
		ID:                  uuid.New().String()[:32],
		BOMID:               bomID,
		ItemNumber:          input.ItemNumber,
		ComponentPartID:     input.ComponentPartID,
		Quantity:            input.Quantity,
		UnitOfMeasure:       input.UnitOfMeasure,
		ItemType:            input.ItemType,
		LineType:            input.LineType,
		ScrapFactor:         input.ScrapFactor,
		IsOptional:          input.IsOptional,
		FindNumber:          input.FindNumber,
		ReferenceDesignator: input.ReferenceDesignator,
		Notes:               input.Notes,
		CreatedAt:           time.Now(),
		UpdatedAt:           time.Now(),
	}
	if item.UnitOfMeasure == "" {
		item.UnitOfMeasure = "ea"
	}
	if item.ItemType == "" {
		item.ItemType = entity.ItemTypeBuy
	}
	if item.LineType == "" {
		item.LineType = entity.LineTypeComponent
	}
	if item.ItemNumber == 0 {
		maxNum, err := s.bomRepo.GetMaxItemNumber(ctx, bomID)
		if err != nil {
			return nil, fmt.Errorf("next item number: %w", err)
		}
		item.ItemNumber = maxNum + 10
	}

	if err := s.bomRepo.CreateItem(ctx, item); err != nil {
		return nil, fmt.Errorf("create bom item: %w", err)
	}
	return item, nil
}

// UpdateItem edits a line on a draft BOM with the same validation as add.
func (s *BOMService) UpdateItem(ctx context.Context, bomID, itemID string, input *BOMItemInput) (*entity.BOMItem, error) {
	b, err := s.bomRepo.FindByID(ctx, bomID)
	if err != nil {
		return nil, err
	}
	if b.Status != entity.BOMStatusDraft {
		return nil, invalidStateErr(b.Status, "items can only be edited on a draft BOM")
	}
	item, err := s.bomRepo.FindItemByID(ctx, itemID)
	if err != nil {
		return nil, err
	}
	if item.BOMID != bomID {
		return nil, repository.ErrNotFound
	}
	if input.ComponentPartID == "" {
		input.ComponentPartID = item.ComponentPartID
	}
	if err := validateItemInput(b, input); err != nil {
		return nil, err
	}

	item.ComponentPartID = input.ComponentPartID
	item.Quantity = input.Quantity
	item.ScrapFactor = input.ScrapFactor
	item.IsOptional = input.IsOptional
	if input.ItemNumber != 0 {
		item.ItemNumber = input.ItemNumber
	}
	if input.UnitOfMeasure != "" {
		item.UnitOfMeasure = input.UnitOfMeasure
	}
	if input.ItemType != "" {
		item.ItemType = input.ItemType
	}
	if input.LineType != "" {
		item.LineType = input.LineType
	}
	if input.FindNumber != "" {
		item.FindNumber = input.FindNumber
	}
	if input.ReferenceDesignator != "" {
		item.ReferenceDesignator = input.ReferenceDesignator
	}
	if input.Notes != "" {
		item.Notes = input.Notes
	}
	item.ComponentPart = nil
	item.UpdatedAt = time.Now()

	if err := s.bomRepo.UpdateItem(ctx, item); err != nil {
		return nil, fmt.Errorf("update bom item: %w", err)
	}
	return item, nil
}

// DeleteItem removes a line from a draft BOM.
func (s *BOMService) DeleteItem(ctx context.Context, bomID, itemID string) error {
	b, err := s.bomRepo.FindByID(ctx, bomID)
	if err != nil {
		return err
	}
	if b.Status != entity.BOMStatusDraft {
		return invalidStateErr(b.Status, "items can only be deleted from a draft BOM")
	}
	item, err := s.bomRepo.FindItemByID(ctx, itemID)
	if err != nil {
		return err
	}
	if item.BOMID != bomID {
		return repository.ErrNotFound
	}
	if err := s.bomRepo.DeleteItem(ctx, itemID); err != nil {
		return fmt.Errorf("delete bom item: %w", err)
	}
	return nil
}

// ReleaseBOM freezes a draft. Released BOM items are immutable; every item
// mutation path re-checks status so the freeze holds regardless of what
// the client believes.
func (s *BOMService) ReleaseBOM(ctx context.Context, id, releasedBy string) (*entity.BOM, error) {
	b, err := s.bomRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if b.Status != entity.BOMStatusDraft {
		return nil, invalidStateErr(b.Status, "only draft BOMs can be released")
	}
	count, err := s.bomRepo.CountItems(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("count items: %w", err)
	}
	if count == 0 {
		return nil, validationErr("items", "a BOM with no items cannot be released")
	}

	now := time.Now()
	b.Status = entity.BOMStatusReleased
	b.ReleasedBy = &releasedBy
	b.ReleasedAt = &now
	b.UpdatedAt = now
	if err := s.bomRepo.Update(ctx, b); err != nil {
		return nil, fmt.Errorf("release bom: %w", err)
	}
	return b, nil
}

// ActivateBOM promotes a released revision to active, demoting any other
// active revision of the same part so at most one stays active.
func (s *BOMService) ActivateBOM(ctx context.Context, id string) (*entity.BOM, error) {
	b, err := s.bomRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if b.Status != entity.BOMStatusReleased {
		return nil, invalidStateErr(b.Status, "only released BOMs can be activated")
	}
	if err := s.bomRepo.DemoteActive(ctx, b.PartID, b.ID); err != nil {
		return nil, fmt.Errorf("demote active bom: %w", err)
	}

	now := time.Now()
	b.Status = entity.BOMStatusActive
	b.ActivatedAt = &now
	b.UpdatedAt = now
	if err := s.bomRepo.Update(ctx, b); err != nil {
		return nil, fmt.Errorf("activate bom: %w", err)
	}
	return b, nil
}

// LoadSnapshot walks the structure breadth-first and loads every active
// BOM plus the catalog entries it references. Each level fetches BOMs and
// parts in parallel; a failed part fetch degrades to missing metadata and
// a failed BOM fetch stops the descent rather than failing the caller, so
// readers see "no BOM data" instead of an error when storage is flaky.
func (s *BOMService) LoadSnapshot(ctx context.Context, rootPartID string) *bom.Snapshot {
	var allParts []entity.Part
	var allBOMs []entity.BOM

	visited := map[string]bool{rootPartID: true}
	frontier := []string{rootPartID}
	partPending := []string{rootPartID}

	for level := 0; len(frontier) > 0 && level <= bom.MaxDepth; level++ {
		var (
			levelBOMs  map[string]entity.BOM
			levelParts []entity.Part
			bomErr     error
			partErr    error
		)
		var wg sync.WaitGroup
		wg.Add(2)
		go func() {
			defer wg.Done()
			levelBOMs, bomErr = s.bomRepo.FindActiveByParts(ctx, frontier)
		}()
		go func() {
			defer wg.Done()
			levelParts, partErr = s.partRepo.FindByIDs(ctx, partPending)
		}()
		wg.Wait()

		if partErr != nil {
			s.logger.Warn("part fetch failed during snapshot load, continuing without catalog data",
				zap.Error(partErr), zap.Int("level", level))
		} else {
			allParts = append(allParts, levelParts...)
		}
		if bomErr != nil {
			s.logger.Warn("bom fetch failed during snapshot load, degrading to partial structure",
				zap.Error(bomErr), zap.Int("level", level))
			break
		}

		var next []string
		for _, b := range levelBOMs {
			allBOMs = append(allBOMs, b)
			for _, item := range b.Items {
				if !visited[item.ComponentPartID] {
					visited[item.ComponentPartID] = true
					next = append(next, item.ComponentPartID)
				}
			}
		}
		frontier = next
		partPending = next
	}

	return bom.NewSnapshot(allParts, allBOMs)
}

// Explode returns the multi-level tree for one unit (or quantity units) of
// a root part.
func (s *BOMService) Explode(ctx context.Context, rootPartID string, quantity float64) ([]bom.Node, error) {
	if quantity <= 0 {
		quantity = 1
	}
	if _, err := s.partRepo.FindByID(ctx, rootPartID); err != nil {
		return nil, err
	}
	snap := s.LoadSnapshot(ctx, rootPartID)
	nodes, err := bom.Explode(snap, rootPartID, quantity)
	if err != nil {
		return nil, err
	}
	if nodes == nil {
		nodes = []bom.Node{}
	}
	return nodes, nil
}

// Requirements returns aggregated leaf demand for an order quantity of a
// root part.
func (s *BOMService) Requirements(ctx context.Context, rootPartID string, quantityOrdered float64) (*bom.RequirementsResult, error) {
	if quantityOrdered <= 0 {
		return nil, validationErr("quantity", "order quantity must be greater than zero")
	}
	if _, err := s.partRepo.FindByID(ctx, rootPartID); err != nil {
		return nil, err
	}
	snap := s.LoadSnapshot(ctx, rootPartID)
	return bom.Requirements(snap, rootPartID, quantityOrdered)
}

// FieldChange records one differing field between two revisions of a line.
type FieldChange struct {
	Field string `json:"field"`
	Old   string `json:"old"`
	New   string `json:"new"`
}

// ItemDiff pairs a component with its field changes.
type ItemDiff struct {
	ComponentPartID string        `json:"component_part_id"`
	PartNumber      string        `json:"part_number"`
	Changes         []FieldChange `json:"changes,omitempty"`
}

// BOMCompareResult lists structural differences between two revisions.
type BOMCompareResult struct {
	LeftID   string     `json:"left_id"`
	RightID  string     `json:"right_id"`
	Added    []ItemDiff `json:"added"`
	Removed  []ItemDiff `json:"removed"`
	Modified []ItemDiff `json:"modified"`
}

// CompareBOMs diffs two revisions line by line, keyed by component part.
func (s *BOMService) CompareBOMs(ctx context.Context, leftID, rightID string) (*BOMCompareResult, error) {
	left, err := s.bomRepo.FindByID(ctx, leftID)
	if err != nil {
		return nil, err
	}
	right, err := s.bomRepo.FindByID(ctx, rightID)
	if err != nil {
		return nil, err
	}

	result := &BOMCompareResult{
		LeftID:   leftID,
		RightID:  rightID,
		Added:    []ItemDiff{},
		Removed:  []ItemDiff{},
		Modified: []ItemDiff{},
	}

	leftByPart := make(map[string]entity.BOMItem, len(left.Items))
	for _, item := range left.Items {
		leftByPart[item.ComponentPartID] = item
	}
	rightByPart := make(map[string]entity.BOMItem, len(right.Items))
	for _, item := range right.Items {
		rightByPart[item.ComponentPartID] = item
	}

	for _, item := range right.Items {
		old, ok := leftByPart[item.ComponentPartID]
		if !ok {
			result.Added = append(result.Added, ItemDiff{
				ComponentPartID: item.ComponentPartID,
				PartNumber:      itemPartNumber(item),
			})
			continue
		}
		changes := compareItemFields(old, item)
		if len(changes) > 0 {
			result.Modified = append(result.Modified, ItemDiff{
				ComponentPartID: item.ComponentPartID,
				PartNumber:      itemPartNumber(item),
				Changes:         changes,
			})
		}
	}
	for _, item := range left.Items {
		if _, ok := rightByPart[item.ComponentPartID]; !ok {
			result.Removed = append(result.Removed, ItemDiff{
				ComponentPartID: item.ComponentPartID,
				PartNumber:      itemPartNumber(item),
			})
		}
	}
	return result, nil
}

func itemPartNumber(item entity.BOMItem) string {
	if item.ComponentPart != nil {
		return item.ComponentPart.PartNumber
	}
	return ""
}

func compareItemFields(a, b entity.BOMItem) []FieldChange {
	var changes []FieldChange
	addChange := func(field, oldVal, newVal string) {
		if oldVal != newVal {
			changes = append(changes, FieldChange{Field: field, Old: oldVal, New: newVal})
		}
	}
	addChange("quantity", floatStr(a.Quantity), floatStr(b.Quantity))
	addChange("scrap_factor", floatStr(a.ScrapFactor), floatStr(b.ScrapFactor))
	addChange("unit_of_measure", a.UnitOfMeasure, b.UnitOfMeasure)
	addChange("item_type", a.ItemType, b.ItemType)
	addChange("line_type", a.LineType, b.LineType)
	addChange("is_optional", strconv.FormatBool(a.IsOptional), strconv.FormatBool(b.IsOptional))
	addChange("reference_designator", a.ReferenceDesignator, b.ReferenceDesignator)
	return changes
}

func floatStr(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}

var exportHeaders = []string{"Level", "Item No", "Part Number", "Name", "Qty", "Extended Qty", "UOM", "Type", "Scrap %", "Optional"}

// ExportBOM renders the exploded structure of a BOM's parent part into a
// workbook, one row per node with the level indenting the part number.
func (s *BOMService) ExportBOM(ctx context.Context, bomID string) (*excelize.File, string, error) {
	b, err := s.bomRepo.FindByID(ctx, bomID)
	if err != nil {
		return nil, "", err
	}

	snap := s.LoadSnapshotForBOM(ctx, b)
	nodes, err := bom.Explode(snap, b.PartID, 1)
	if err != nil {
		return nil, "", err
	}
	flat := bom.Flatten(nodes)

	f := excelize.NewFile()
	sheet := "BOM"
	f.SetSheetName("Sheet1", sheet)

	boldStyle, _ := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true, Size: 11},
		Fill: excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{"#D9E1F2"}},
	})
	for i, h := range exportHeaders {
		col, _ := excelize.ColumnNumberToName(i + 1)
		f.SetCellValue(sheet, col+"1", h)
		f.SetCellStyle(sheet, col+"1", col+"1", boldStyle)
	}

	for i, node := range flat {
		row := strconv.Itoa(i + 2)
		f.SetCellValue(sheet, "A"+row, node.Level)
		f.SetCellValue(sheet, "B"+row, node.ItemNumber)
		f.SetCellValue(sheet, "C"+row, node.PartNumber)
		f.SetCellValue(sheet, "D"+row, node.PartName)
		f.SetCellValue(sheet, "E"+row, node.Quantity)
		f.SetCellValue(sheet, "F"+row, node.ExtendedQuantity)
		f.SetCellValue(sheet, "G"+row, node.UnitOfMeasure)
		f.SetCellValue(sheet, "H"+row, node.ItemType)
		f.SetCellValue(sheet, "I"+row, node.ScrapFactor)
		f.SetCellValue(sheet, "J"+row, node.IsOptional)
	}

	rootNumber := b.PartID
	if b.Part != nil {
		rootNumber = b.Part.PartNumber
	}
	fileName := fmt.Sprintf("BOM_%s_%s.xlsx", rootNumber, b.Revision)
	return f, fileName, nil
}

// LoadSnapshotForBOM builds a snapshot rooted at a specific BOM, letting a
// draft or released revision be exploded for preview even while another
// revision is active.
func (s *BOMService) LoadSnapshotForBOM(ctx context.Context, b *entity.BOM) *bom.Snapshot {
	snap := s.LoadSnapshot(ctx, b.PartID)
	if _, ok := snap.ActiveBOM(b.PartID); ok && b.Status == entity.BOMStatusActive {
		return snap
	}
	// Splice the requested revision in as the root structure. Sub-levels
	// still come from whatever is active below.
	return spliceRoot(ctx, s, b)
}

func spliceRoot(ctx context.Context, s *BOMService, b *entity.BOM) *bom.Snapshot {
	var parts []entity.Part
	var boms []entity.BOM

	rootCopy := *b
	rootCopy.Status = entity.BOMStatusActive
	boms = append(boms, rootCopy)

	visited := map[string]bool{b.PartID: true}
	var frontier []string
	partIDs := []string{b.PartID}
	for _, item := range b.Items {
		if !visited[item.ComponentPartID] {
			visited[item.ComponentPartID] = true
			frontier = append(frontier, item.ComponentPartID)
			partIDs = append(partIDs, item.ComponentPartID)
		}
	}
	if loaded, err := s.partRepo.FindByIDs(ctx, partIDs); err == nil {
		parts = append(parts, loaded...)
	}

	for level := 0; len(frontier) > 0 && level <= bom.MaxDepth; level++ {
		levelBOMs, err := s.bomRepo.FindActiveByParts(ctx, frontier)
		if err != nil {
			s.logger.Warn("bom fetch failed during snapshot load, degrading to partial structure", zap.Error(err))
			break
		}
		var next []string
		for _, lb := range levelBOMs {
			boms = append(boms, lb)
			for _, item := range lb.Items {
				if !visited[item.ComponentPartID] {
					visited[item.ComponentPartID] = true
					next = append(next, item.ComponentPartID)
				}
			}
		}
		if loaded, err := s.partRepo.FindByIDs(ctx, next); err == nil {
			parts = append(parts, loaded...)
		}
		frontier = next
	}
	return bom.NewSnapshot(parts, boms)
}
