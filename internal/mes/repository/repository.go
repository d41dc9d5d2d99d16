package repository

import (
	"errors"

	"gorm.io/gorm"
)

var (
	ErrNotFound = errors.New("record not found")
)

// Repositories bundles all data access objects.
type Repositories struct {
	Part      *PartRepository
	BOM       *BOMRepository
	WorkOrder *WorkOrderRepository
}

func NewRepositories(db *gorm.DB) *Repositories {
	return &Repositories{
		Part:      NewPartRepository(db),
		BOM:       NewBOMRepository(db),
		WorkOrder: NewWorkOrderRepository(db),
	}
}
