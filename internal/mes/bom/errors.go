package bom

import (
	"fmt"
	"strings"
)

// CycleError reports a structural loop found during explosion. Path holds
// the chain of part numbers from the root down to the repeated part.
type CycleError struct {
	Path []string
}

func (e *CycleError) Error() string {
	return fmt.Sprintf("bom structure contains a cycle: %s", strings.Join(e.Path, " -> "))
}

// MaxDepthError reports an explosion deeper than the configured ceiling,
// almost always a sign of corrupt structure data.
type MaxDepthError struct {
	PartNumber string
	Depth      int
}

func (e *MaxDepthError) Error() string {
	return fmt.Sprintf("bom explosion exceeded max depth %d at part %s", e.Depth, e.PartNumber)
}
