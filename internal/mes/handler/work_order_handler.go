package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/jwerthen/Werco-ERP-MES-sub000/internal/mes/service"
)

type WorkOrderHandler struct {
	svc *service.WorkOrderService
}

func NewWorkOrderHandler(svc *service.WorkOrderService) *WorkOrderHandler {
	return &WorkOrderHandler{svc: svc}
}

// Create handles POST /api/v1/work-orders
func (h *WorkOrderHandler) Create(c *gin.Context) {
	var input service.WorkOrderInput
	if err := c.ShouldBindJSON(&input); err != nil {
		BadRequest(c, "invalid request body: "+err.Error())
		return
	}
	order, err := h.svc.CreateWorkOrder(c.Request.Context(), &input, GetUserID(c))
	if err != nil {
		RespondError(c, err)
		return
	}
	Created(c, order)
}

// Get handles GET /api/v1/work-orders/:id
func (h *WorkOrderHandler) Get(c *gin.Context) {
	order, err := h.svc.GetWorkOrder(c.Request.Context(), c.Param("id"))
	if err != nil {
		RespondError(c, err)
		return
	}
	Success(c, order)
}

// List handles GET /api/v1/work-orders
func (h *WorkOrderHandler) List(c *gin.Context) {
	page, pageSize := GetPagination(c)
	orders, total, err := h.svc.ListWorkOrders(c.Request.Context(), c.Query("part_id"), c.Query("status"), page, pageSize)
	if err != nil {
		RespondError(c, err)
		return
	}
	Success(c, gin.H{
		"items": orders,
		"pagination": Pagination{
			Page:       page,
			PageSize:   pageSize,
			Total:      int(total),
			TotalPages: totalPages(total, pageSize),
		},
	})
}

// Release handles POST /api/v1/work-orders/:id/release
func (h *WorkOrderHandler) Release(c *gin.Context) {
	order, err := h.svc.ReleaseWorkOrder(c.Request.Context(), c.Param("id"))
	if err != nil {
		RespondError(c, err)
		return
	}
	Success(c, order)
}

// Start handles POST /api/v1/work-orders/:id/start
func (h *WorkOrderHandler) Start(c *gin.Context) {
	order, err := h.svc.StartWorkOrder(c.Request.Context(), c.Param("id"))
	if err != nil {
		RespondError(c, err)
		return
	}
	Success(c, order)
}

// Complete handles POST /api/v1/work-orders/:id/complete
func (h *WorkOrderHandler) Complete(c *gin.Context) {
	order, err := h.svc.CompleteWorkOrder(c.Request.Context(), c.Param("id"))
	if err != nil {
		RespondError(c, err)
		return
	}
	Success(c, order)
}

// Cancel handles POST /api/v1/work-orders/:id/cancel
func (h *WorkOrderHandler) Cancel(c *gin.Context) {
	order, err := h.svc.CancelWorkOrder(c.Request.Context(), c.Param("id"))
	if err != nil {
		RespondError(c, err)
		return
	}
	Success(c, order)
}

// Materials handles GET /api/v1/work-orders/:id/materials
func (h *WorkOrderHandler) Materials(c *gin.Context) {
	plan, err := h.svc.MaterialRequirements(c.Request.Context(), c.Param("id"))
	if err != nil {
		RespondError(c, err)
		return
	}
	Success(c, plan)
}
