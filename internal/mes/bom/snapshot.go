package bom

import (
	"sort"

	"github.com/jwerthen/Werco-ERP-MES-sub000/internal/mes/entity"
)

// Snapshot is an immutable view of the part catalog and the active BOM per
// part, loaded once before an explosion. The engine never touches storage:
// callers build a snapshot and every computation over it is pure, so one
// snapshot may be shared across concurrent calls.
type Snapshot struct {
	parts      map[string]entity.Part
	activeBOMs map[string]entity.BOM
}

// NewSnapshot builds a snapshot from loaded parts and active BOMs. BOMs are
// keyed by their parent part ID; each BOM's items are re-sorted by item
// number so traversal order never depends on load order.
func NewSnapshot(parts []entity.Part, activeBOMs []entity.BOM) *Snapshot {
	s := &Snapshot{
		parts:      make(map[string]entity.Part, len(parts)),
		activeBOMs: make(map[string]entity.BOM, len(activeBOMs)),
	}
	for _, p := range parts {
		s.parts[p.ID] = p
	}
	for _, b := range activeBOMs {
		sort.SliceStable(b.Items, func(i, j int) bool {
			return b.Items[i].ItemNumber < b.Items[j].ItemNumber
		})
		s.activeBOMs[b.PartID] = b
	}
	return s
}

// Part returns the catalog entry for a part ID.
func (s *Snapshot) Part(partID string) (entity.Part, bool) {
	p, ok := s.parts[partID]
	return p, ok
}

// ActiveBOM returns the active BOM for a parent part, if one exists.
func (s *Snapshot) ActiveBOM(partID string) (entity.BOM, bool) {
	b, ok := s.activeBOMs[partID]
	return b, ok
}

// HasBOM reports whether the part has an active BOM.
func (s *Snapshot) HasBOM(partID string) bool {
	_, ok := s.activeBOMs[partID]
	return ok
}

// partNumber resolves a part ID to its part number for error paths,
// falling back to the raw ID when the part is not in the snapshot.
func (s *Snapshot) partNumber(partID string) string {
	if p, ok := s.parts[partID]; ok {
		return p.PartNumber
	}
	return partID
}
