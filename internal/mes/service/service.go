package service

import (
	"go.uber.org/zap"

	"github.com/jwerthen/Werco-ERP-MES-sub000/internal/mes/bomimport"
	"github.com/jwerthen/Werco-ERP-MES-sub000/internal/mes/repository"
	"github.com/jwerthen/Werco-ERP-MES-sub000/internal/storage"
)

// Services bundles the business layer.
type Services struct {
	Part      *PartService
	BOM       *BOMService
	WorkOrder *WorkOrderService
	Import    *ImportService
}

func NewServices(repos *repository.Repositories, sessions bomimport.SessionStore, store *storage.ObjectStore, logger *zap.Logger) *Services {
	partSvc := NewPartService(repos.Part)
	bomSvc := NewBOMService(repos.BOM, repos.Part, logger)
	return &Services{
		Part:      partSvc,
		BOM:       bomSvc,
		WorkOrder: NewWorkOrderService(repos.WorkOrder, repos.Part, bomSvc),
		Import:    NewImportService(repos.Part, repos.BOM, sessions, store, logger),
	}
}
