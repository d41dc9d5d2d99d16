package bomimport

import (
	"fmt"
	"strconv"
	"strings"
)

// Mappable field names. These are the semantic fields a raw grid column can
// be bound to.
const (
	FieldLineNumber          = "line_number"
	FieldPartNumber          = "part_number"
	FieldDescription         = "description"
	FieldQuantity            = "quantity"
	FieldUnitOfMeasure       = "unit_of_measure"
	FieldScrapFactor         = "scrap_factor"
	FieldReferenceDesignator = "reference_designator"
	FieldNotes               = "notes"
)

// ColumnMap binds semantic fields to raw grid column indexes. A nil entry
// means the field is unmapped.
type ColumnMap struct {
	LineNumber          *int `json:"line_number"`
	PartNumber          *int `json:"part_number"`
	Description         *int `json:"description"`
	Quantity            *int `json:"quantity"`
	UnitOfMeasure       *int `json:"unit_of_measure"`
	ScrapFactor         *int `json:"scrap_factor"`
	ReferenceDesignator *int `json:"reference_designator"`
	Notes               *int `json:"notes"`
}

// Set binds one field to a column index, nil to unbind. Unknown field
// names are rejected.
func (m *ColumnMap) Set(field string, col *int) error {
	switch field {
	case FieldLineNumber:
		m.LineNumber = col
	case FieldPartNumber:
		m.PartNumber = col
	case FieldDescription:
		m.Description = col
	case FieldQuantity:
		m.Quantity = col
	case FieldUnitOfMeasure:
		m.UnitOfMeasure = col
	case FieldScrapFactor:
		m.ScrapFactor = col
	case FieldReferenceDesignator:
		m.ReferenceDesignator = col
	case FieldNotes:
		m.Notes = col
	default:
		return fmt.Errorf("unknown mapping field %q", field)
	}
	return nil
}

// headerHints maps normalized header fragments to fields, checked in order
// so the more specific fragments win.
var headerHints = []struct {
	fragment string
	field    string
}{
	{"part number", FieldPartNumber},
	{"part no", FieldPartNumber},
	{"part#", FieldPartNumber},
	{"p/n", FieldPartNumber},
	{"pn", FieldPartNumber},
	{"item number", FieldLineNumber},
	{"item no", FieldLineNumber},
	{"line", FieldLineNumber},
	{"item", FieldLineNumber},
	{"find", FieldLineNumber},
	{"qty", FieldQuantity},
	{"quantity", FieldQuantity},
	{"scrap", FieldScrapFactor},
	{"uom", FieldUnitOfMeasure},
	{"unit", FieldUnitOfMeasure},
	{"ref des", FieldReferenceDesignator},
	{"reference", FieldReferenceDesignator},
	{"designator", FieldReferenceDesignator},
	{"desc", FieldDescription},
	{"name", FieldDescription},
	{"note", FieldNotes},
	{"remark", FieldNotes},
	{"comment", FieldNotes},
}

// SuggestMapping guesses a column map from header texts. First matching
// column wins per field; unmatched fields stay nil.
func SuggestMapping(columns []string) ColumnMap {
	var m ColumnMap
	taken := make(map[string]bool)
	for i, col := range columns {
		header := strings.ToLower(strings.TrimSpace(col))
		if header == "" {
			continue
		}
		for _, hint := range headerHints {
			if !strings.Contains(header, hint.fragment) {
				continue
			}
			if taken[hint.field] {
				break
			}
			idx := i
			m.Set(hint.field, &idx)
			taken[hint.field] = true
			break
		}
	}
	return m
}

// DeriveItems turns a source into candidate items. Structured sources pass
// through default resolution only; raw grids are projected through the
// column map. Rows where every cell is blank are skipped. Defaults are
// deterministic: a missing or unparsable line number falls back to a
// running counter stepping by 10 from 10, a missing quantity falls back
// to 1.
func DeriveItems(source Source, m ColumnMap) []Item {
	switch source.Kind {
	case SourceStructured:
		items := make([]Item, 0, len(source.Items))
		for i, it := range source.Items {
			items = append(items, resolveDefaults(it, i))
		}
		return items
	case SourceRawGrid:
		items := make([]Item, 0, len(source.Rows))
		for _, row := range source.Rows {
			if blankRow(row) {
				continue
			}
			it := Item{
				PartNumber:          NormalizePartNumber(cell(row, m.PartNumber)),
				Description:         strings.TrimSpace(cell(row, m.Description)),
				UnitOfMeasure:       strings.TrimSpace(cell(row, m.UnitOfMeasure)),
				ReferenceDesignator: strings.TrimSpace(cell(row, m.ReferenceDesignator)),
				Notes:               strings.TrimSpace(cell(row, m.Notes)),
			}
			if n, err := strconv.Atoi(strings.TrimSpace(cell(row, m.LineNumber))); err == nil {
				it.LineNumber = n
			}
			if q, err := strconv.ParseFloat(strings.TrimSpace(cell(row, m.Quantity)), 64); err == nil {
				it.Quantity = q
			}
			if sf, err := strconv.ParseFloat(strings.TrimSpace(cell(row, m.ScrapFactor)), 64); err == nil {
				it.ScrapFactor = sf
			}
			items = append(items, resolveDefaults(it, len(items)))
		}
		return items
	}
	return nil
}

// Remap rebinds one field and recomputes items from the source. Pure: the
// inputs are not mutated.
func Remap(source Source, m ColumnMap, field string, col *int) (ColumnMap, []Item, error) {
	if err := m.Set(field, col); err != nil {
		return m, nil, err
	}
	return m, DeriveItems(source, m), nil
}

// resolveDefaults fills deterministic defaults for one item at position i
// of the derived list.
func resolveDefaults(it Item, i int) Item {
	if it.LineNumber <= 0 {
		it.LineNumber = (i + 1) * 10
	}
	if it.Quantity <= 0 {
		it.Quantity = 1
	}
	if it.UnitOfMeasure == "" {
		it.UnitOfMeasure = "ea"
	}
	if it.ScrapFactor < 0 || it.ScrapFactor >= 1 {
		it.ScrapFactor = 0
	}
	return it
}

func cell(row []string, col *int) string {
	if col == nil || *col < 0 || *col >= len(row) {
		return ""
	}
	return row[*col]
}

func blankRow(row []string) bool {
	for _, c := range row {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}
