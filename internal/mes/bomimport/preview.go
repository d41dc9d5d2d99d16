package bomimport

import (
	"fmt"
	"strings"
	"time"
)

// Document types
const (
	DocumentTypeBOM  = "bom"
	DocumentTypePart = "part"
)

// Preview states
const (
	StatePreviewed = "previewed"
	StateCommitted = "committed"
	StateCancelled = "cancelled"
)

// Item is one candidate BOM line derived from an uploaded document. It is
// not persisted until the preview is committed.
type Item struct {
	LineNumber          int     `json:"line_number"`
	PartNumber          string  `json:"part_number"`
	Description         string  `json:"description,omitempty"`
	Quantity            float64 `json:"quantity"`
	UnitOfMeasure       string  `json:"unit_of_measure,omitempty"`
	ScrapFactor         float64 `json:"scrap_factor,omitempty"`
	ReferenceDesignator string  `json:"reference_designator,omitempty"`
	Notes               string  `json:"notes,omitempty"`
}

// Assembly is the candidate root part of a BOM import, or the single part
// of a part import. User-editable between preview and commit.
type Assembly struct {
	PartNumber  string `json:"part_number"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	Revision    string `json:"revision,omitempty"`
	PartType    string `json:"part_type,omitempty"`
}

// Source kinds
const (
	SourceStructured = "structured"
	SourceRawGrid    = "raw_grid"
)

// Source is a tagged variant over the two shapes an uploaded document can
// take: rows already parsed into named fields, or an untyped column/row
// grid that needs a column mapping before items exist.
type Source struct {
	Kind    string     `json:"kind"` // structured/raw_grid
	Items   []Item     `json:"items,omitempty"`
	Columns []string   `json:"columns,omitempty"`
	Rows    [][]string `json:"rows,omitempty"`
}

// Preview is one import session. It is created by a preview call, mutated
// through user edits and remapping, and destroyed on commit or cancel.
type Preview struct {
	ID           string    `json:"id"`
	DocumentType string    `json:"document_type"` // bom/part
	State        string    `json:"state"`
	FileName     string    `json:"file_name,omitempty"`
	// ArchiveObject is the object-store key of the uploaded original,
	// empty when archiving was off or failed.
	ArchiveObject string    `json:"archive_object,omitempty"`
	Assembly      Assembly  `json:"assembly"`
	Source        Source    `json:"source"`
	ColumnMap     ColumnMap `json:"column_map"`
	Items         []Item    `json:"items"`
	CreatedAt     time.Time `json:"created_at"`
}

// UnmatchedPartError reports an import line whose part number resolved to
// nothing and auto-creation was off. Collected as a warning per line, never
// aborting the batch.
type UnmatchedPartError struct {
	LineNumber int
	PartNumber string
}

func (e *UnmatchedPartError) Error() string {
	return fmt.Sprintf("line %d: no part matches %q and part creation is disabled", e.LineNumber, e.PartNumber)
}

// NormalizePartNumber applies the catalog convention: trimmed, upper-cased.
func NormalizePartNumber(raw string) string {
	return strings.ToUpper(strings.TrimSpace(raw))
}
