package bom

import "github.com/jwerthen/Werco-ERP-MES-sub000/internal/mes/entity"

// Requirement is the aggregated demand for one leaf component across every
// path it is reachable by in the exploded structure.
type Requirement struct {
	PartID              string  `json:"part_id"`
	PartNumber          string  `json:"part_number"`
	PartName            string  `json:"part_name"`
	UnitOfMeasure       string  `json:"unit_of_measure"`
	QuantityPerAssembly float64 `json:"quantity_per_assembly"`
	QuantityRequired    float64 `json:"quantity_required"`
	ScrapAllowance      float64 `json:"scrap_allowance"`
	TotalRequired       float64 `json:"total_required"`
}

// RequirementsResult is the material plan for one order quantity of a root
// part. HasBOM is false when the root has no active BOM, which is not an
// error for purchased or raw parts.
type RequirementsResult struct {
	RootPartID      string        `json:"root_part_id"`
	QuantityOrdered float64       `json:"quantity_ordered"`
	HasBOM          bool          `json:"has_bom"`
	BOMID           string        `json:"bom_id,omitempty"`
	BOMRevision     string        `json:"bom_revision,omitempty"`
	Materials       []Requirement `json:"materials"`
}

type accumulator struct {
	partID      string
	requiredPer float64
	scrapPer    float64
}

// Requirements computes total demand per distinct leaf component for an
// order of quantityOrdered units of rootPartID. A leaf is a component with
// no active BOM of its own; intermediate assemblies are traversed, not
// reported. The same leaf reached through several branches accumulates by
// summation.
//
// Scrap compounds multiplicatively level by level: each item's scrap
// factor applies to a demand already inflated by every ancestor's scrap,
// since a scrap factor is declared relative to its own immediate parent.
// Reference lines document the structure and carry no material demand, so
// they are skipped here while still appearing in Explode output.
func Requirements(snap *Snapshot, rootPartID string, quantityOrdered float64) (*RequirementsResult, error) {
	result := &RequirementsResult{
		RootPartID:      rootPartID,
		QuantityOrdered: quantityOrdered,
		Materials:       []Requirement{},
	}
	root, ok := snap.ActiveBOM(rootPartID)
	if !ok {
		return result, nil
	}
	result.HasBOM = true
	result.BOMID = root.ID
	result.BOMRevision = root.Revision

	byPart := make(map[string]*accumulator)
	var order []string
	err := accumulate(snap, rootPartID, 1, []string{rootPartID}, byPart, &order)
	if err != nil {
		return nil, err
	}

	for _, partID := range order {
		acc := byPart[partID]
		req := Requirement{
			PartID:              partID,
			QuantityPerAssembly: acc.requiredPer,
			QuantityRequired:    acc.requiredPer * quantityOrdered,
			ScrapAllowance:      acc.scrapPer * quantityOrdered,
		}
		req.TotalRequired = req.QuantityRequired + req.ScrapAllowance
		if p, ok := snap.Part(partID); ok {
			req.PartNumber = p.PartNumber
			req.PartName = p.Name
			req.UnitOfMeasure = p.UnitOfMeasure
		}
		result.Materials = append(result.Materials, req)
	}
	return result, nil
}

// accumulate folds per-unit demand into byPart. multiplier carries the
// product of every ancestor quantity and ancestor scrap inflation.
func accumulate(snap *Snapshot, partID string, multiplier float64, path []string, byPart map[string]*accumulator, order *[]string) error {
	b, ok := snap.ActiveBOM(partID)
	if !ok {
		return nil
	}
	depth := len(path) - 1
	if depth >= MaxDepth {
		return &MaxDepthError{PartNumber: snap.partNumber(partID), Depth: MaxDepth}
	}
	for _, item := range b.Items {
		next := make([]string, len(path)+1)
		copy(next, path)
		next[len(path)] = item.ComponentPartID
		for _, seen := range path {
			if seen == item.ComponentPartID {
				return &CycleError{Path: numberPath(snap, next)}
			}
		}
		if item.LineType == entity.LineTypeReference {
			continue
		}
		perUnit := item.Quantity * multiplier
		if snap.HasBOM(item.ComponentPartID) {
			childMult := perUnit * (1 + item.ScrapFactor)
			if err := accumulate(snap, item.ComponentPartID, childMult, next, byPart, order); err != nil {
				return err
			}
			continue
		}
		acc, ok := byPart[item.ComponentPartID]
		if !ok {
			acc = &accumulator{partID: item.ComponentPartID}
			byPart[item.ComponentPartID] = acc
			*order = append(*order, item.ComponentPartID)
		}
		acc.requiredPer += perUnit
		acc.scrapPer += perUnit * item.ScrapFactor
	}
	return nil
}
