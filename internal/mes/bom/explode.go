package bom

// MaxDepth bounds the explosion recursion. Legitimate product structures
// run a handful of levels deep; anything past this is treated as corrupt.
const MaxDepth = 50

// Node is one row of an exploded BOM tree. ExtendedQuantity is the total
// units of this component consumed per one unit of the top-level assembly,
// i.e. the product of every quantity on the path down from the root.
type Node struct {
	Level            int     `json:"level"`
	ItemNumber       int     `json:"item_number"`
	ComponentPartID  string  `json:"component_part_id"`
	PartNumber       string  `json:"part_number"`
	PartName         string  `json:"part_name"`
	ItemType         string  `json:"item_type"`
	LineType         string  `json:"line_type"`
	Quantity         float64 `json:"quantity"`
	ExtendedQuantity float64 `json:"extended_quantity"`
	UnitOfMeasure    string  `json:"unit_of_measure"`
	ScrapFactor      float64 `json:"scrap_factor"`
	IsOptional       bool    `json:"is_optional"`
	Children         []Node  `json:"children,omitempty"`
}

// Explode expands the active BOM of rootPartID into a multi-level tree.
// Children are emitted in ascending item number order. A part with no
// active BOM yields an empty tree, which is a legitimate state for
// purchased and raw material parts. Revisiting a part already on the
// current path fails with *CycleError; recursing past MaxDepth fails
// with *MaxDepthError.
func Explode(snap *Snapshot, rootPartID string, quantity float64) ([]Node, error) {
	return explode(snap, rootPartID, quantity, []string{rootPartID})
}

func explode(snap *Snapshot, partID string, multiplier float64, path []string) ([]Node, error) {
	b, ok := snap.ActiveBOM(partID)
	if !ok {
		return nil, nil
	}
	depth := len(path) - 1
	if depth >= MaxDepth {
		return nil, &MaxDepthError{PartNumber: snap.partNumber(partID), Depth: MaxDepth}
	}

	nodes := make([]Node, 0, len(b.Items))
	for _, item := range b.Items {
		next := make([]string, len(path)+1)
		copy(next, path)
		next[len(path)] = item.ComponentPartID
		for _, seen := range path {
			if seen == item.ComponentPartID {
				return nil, &CycleError{Path: numberPath(snap, next)}
			}
		}
		extended := item.Quantity * multiplier
		node := Node{
			Level:            depth,
			ItemNumber:       item.ItemNumber,
			ComponentPartID:  item.ComponentPartID,
			ItemType:         item.ItemType,
			LineType:         item.LineType,
			Quantity:         item.Quantity,
			ExtendedQuantity: extended,
			UnitOfMeasure:    item.UnitOfMeasure,
			ScrapFactor:      item.ScrapFactor,
			IsOptional:       item.IsOptional,
		}
		if p, ok := snap.Part(item.ComponentPartID); ok {
			node.PartNumber = p.PartNumber
			node.PartName = p.Name
		}
		children, err := explode(snap, item.ComponentPartID, extended, next)
		if err != nil {
			return nil, err
		}
		node.Children = children
		nodes = append(nodes, node)
	}
	return nodes, nil
}

// Flatten walks an exploded tree depth-first and returns every node as a
// flat list in traversal order.
func Flatten(nodes []Node) []Node {
	var out []Node
	for _, n := range nodes {
		children := n.Children
		n.Children = nil
		out = append(out, n)
		out = append(out, Flatten(children)...)
	}
	return out
}

func numberPath(snap *Snapshot, path []string) []string {
	out := make([]string, len(path))
	for i, id := range path {
		out[i] = snap.partNumber(id)
	}
	return out
}
