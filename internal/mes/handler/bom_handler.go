package handler

import (
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/jwerthen/Werco-ERP-MES-sub000/internal/mes/service"
)

type BOMHandler struct {
	svc *service.BOMService
}

func NewBOMHandler(svc *service.BOMService) *BOMHandler {
	return &BOMHandler{svc: svc}
}

// Create handles POST /api/v1/boms
func (h *BOMHandler) Create(c *gin.Context) {
	var input service.BOMInput
	if err := c.ShouldBindJSON(&input); err != nil {
		BadRequest(c, "invalid request body: "+err.Error())
		return
	}
	b, err := h.svc.CreateBOM(c.Request.Context(), &input, GetUserID(c))
	if err != nil {
		RespondError(c, err)
		return
	}
	Created(c, b)
}

// Get handles GET /api/v1/boms/:id
func (h *BOMHandler) Get(c *gin.Context) {
	b, err := h.svc.GetBOM(c.Request.Context(), c.Param("id"))
	if err != nil {
		RespondError(c, err)
		return
	}
	Success(c, b)
}

// List handles GET /api/v1/boms?part_id=...&status=...
func (h *BOMHandler) List(c *gin.Context) {
	partID := c.Query("part_id")
	if partID == "" {
		BadRequest(c, "part_id is required")
		return
	}
	boms, err := h.svc.ListBOMs(c.Request.Context(), partID, c.Query("status"))
	if err != nil {
		RespondError(c, err)
		return
	}
	Success(c, gin.H{"items": boms})
}

// Update handles PUT /api/v1/boms/:id
func (h *BOMHandler) Update(c *gin.Context) {
	var input service.BOMInput
	if err := c.ShouldBindJSON(&input); err != nil {
		BadRequest(c, "invalid request body: "+err.Error())
		return
	}
	b, err := h.svc.UpdateBOM(c.Request.Context(), c.Param("id"), &input)
	if err != nil {
		RespondError(c, err)
		return
	}
	Success(c, b)
}

// Delete handles DELETE /api/v1/boms/:id
func (h *BOMHandler) Delete(c *gin.Context) {
	if err := h.svc.DeleteBOM(c.Request.Context(), c.Param("id")); err != nil {
		RespondError(c, err)
		return
	}
	Success(c, gin.H{"deleted": true})
}

// ListItems handles GET /api/v1/boms/:id/items
func (h *BOMHandler) ListItems(c *gin.Context) {
	items, err := h.svc.ListItems(c.Request.Context(), c.Param("id"))
	if err != nil {
		RespondError(c, err)
		return
	}
	Success(c, items)
}

// AddItem handles POST /api/v1/boms/:id/items
func (h *BOMHandler) AddItem(c *gin.Context) {
	var input service.BOMItemInput
	if err := c.ShouldBindJSON(&input); err != nil {
		BadRequest(c, "invalid request body: "+err.Error())
		return
	}
	item, err := h.svc.AddItem(c.Request.Context(), c.Param("id"), &input)
	if err != nil {
		RespondError(c, err)
		return
	}
	Created(c, item)
}

// UpdateItem handles PUT /api/v1/boms/:id/items/:itemId
func (h *BOMHandler) UpdateItem(c *gin.Context) {
	var input service.BOMItemInput
	if err := c.ShouldBindJSON(&input); err != nil {
		BadRequest(c, "invalid request body: "+err.Error())
		return
	}
	item, err := h.svc.UpdateItem(c.Request.Context(), c.Param("id"), c.Param("itemId"), &input)
	if err != nil {
		RespondError(c, err)
		return
	}
	Success(c, item)
}

// DeleteItem handles DELETE /api/v1/boms/:id/items/:itemId
func (h *BOMHandler) DeleteItem(c *gin.Context) {
	if err := h.svc.DeleteItem(c.Request.Context(), c.Param("id"), c.Param("itemId")); err != nil {
		RespondError(c, err)
		return
	}
	Success(c, gin.H{"deleted": true})
}

// Release handles POST /api/v1/boms/:id/release
func (h *BOMHandler) Release(c *gin.Context) {
	b, err := h.svc.ReleaseBOM(c.Request.Context(), c.Param("id"), GetUserID(c))
	if err != nil {
		RespondError(c, err)
		return
	}
	Success(c, b)
}

// Activate handles POST /api/v1/boms/:id/activate
func (h *BOMHandler) Activate(c *gin.Context) {
	b, err := h.svc.ActivateBOM(c.Request.Context(), c.Param("id"))
	if err != nil {
		RespondError(c, err)
		return
	}
	Success(c, b)
}

// Explode handles GET /api/v1/parts/:id/explode?quantity=N
func (h *BOMHandler) Explode(c *gin.Context) {
	quantity := 1.0
	if q := c.Query("quantity"); q != "" {
		v, err := strconv.ParseFloat(q, 64)
		if err != nil || v <= 0 {
			BadRequest(c, "quantity must be a positive number")
			return
		}
		quantity = v
	}
	nodes, err := h.svc.Explode(c.Request.Context(), c.Param("id"), quantity)
	if err != nil {
		RespondError(c, err)
		return
	}
	Success(c, gin.H{"quantity": quantity, "nodes": nodes})
}

// Requirements handles GET /api/v1/parts/:id/requirements?quantity=N
func (h *BOMHandler) Requirements(c *gin.Context) {
	quantity, err := strconv.ParseFloat(c.DefaultQuery("quantity", "1"), 64)
	if err != nil {
		BadRequest(c, "quantity must be a number")
		return
	}
	result, err := h.svc.Requirements(c.Request.Context(), c.Param("id"), quantity)
	if err != nil {
		RespondError(c, err)
		return
	}
	Success(c, result)
}

// Compare handles GET /api/v1/boms/:id/compare?with=otherId
func (h *BOMHandler) Compare(c *gin.Context) {
	other := c.Query("with")
	if other == "" {
		BadRequest(c, "with is required")
		return
	}
	result, err := h.svc.CompareBOMs(c.Request.Context(), c.Param("id"), other)
	if err != nil {
		RespondError(c, err)
		return
	}
	Success(c, result)
}

// Export handles GET /api/v1/boms/:id/export
func (h *BOMHandler) Export(c *gin.Context) {
	f, fileName, err := h.svc.ExportBOM(c.Request.Context(), c.Param("id"))
	if err != nil {
		RespondError(c, err)
		return
	}
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%s", url.QueryEscape(fileName)))
	c.Header("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	if err := f.Write(c.Writer); err != nil {
		c.Status(http.StatusInternalServerError)
	}
}
