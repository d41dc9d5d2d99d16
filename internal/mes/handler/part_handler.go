package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/jwerthen/Werco-ERP-MES-sub000/internal/mes/repository"
	"github.com/jwerthen/Werco-ERP-MES-sub000/internal/mes/service"
)

type PartHandler struct {
	svc *service.PartService
}

func NewPartHandler(svc *service.PartService) *PartHandler {
	return &PartHandler{svc: svc}
}

// Create handles POST /api/v1/parts
func (h *PartHandler) Create(c *gin.Context) {
	var input service.PartInput
	if err := c.ShouldBindJSON(&input); err != nil {
		BadRequest(c, "invalid request body: "+err.Error())
		return
	}
	part, err := h.svc.CreatePart(c.Request.Context(), &input, GetUserID(c))
	if err != nil {
		RespondError(c, err)
		return
	}
	Created(c, part)
}

// Get handles GET /api/v1/parts/:id
func (h *PartHandler) Get(c *gin.Context) {
	part, err := h.svc.GetPart(c.Request.Context(), c.Param("id"))
	if err != nil {
		RespondError(c, err)
		return
	}
	Success(c, part)
}

// List handles GET /api/v1/parts
func (h *PartHandler) List(c *gin.Context) {
	page, pageSize := GetPagination(c)
	params := repository.ListParams{
		Keyword:  c.Query("q"),
		PartType: c.Query("part_type"),
		Status:   c.Query("status"),
		Page:     page,
		PageSize: pageSize,
	}
	parts, total, err := h.svc.ListParts(c.Request.Context(), params)
	if err != nil {
		RespondError(c, err)
		return
	}
	Success(c, gin.H{
		"items": parts,
		"pagination": Pagination{
			Page:       page,
			PageSize:   pageSize,
			Total:      int(total),
			TotalPages: totalPages(total, pageSize),
		},
	})
}

// Update handles PUT /api/v1/parts/:id
func (h *PartHandler) Update(c *gin.Context) {
	var input service.PartInput
	if err := c.ShouldBindJSON(&input); err != nil {
		BadRequest(c, "invalid request body: "+err.Error())
		return
	}
	part, err := h.svc.UpdatePart(c.Request.Context(), c.Param("id"), &input)
	if err != nil {
		RespondError(c, err)
		return
	}
	Success(c, part)
}

// Delete handles DELETE /api/v1/parts/:id. Parts are retired, not removed.
func (h *PartHandler) Delete(c *gin.Context) {
	part, err := h.svc.ObsoletePart(c.Request.Context(), c.Param("id"))
	if err != nil {
		RespondError(c, err)
		return
	}
	Success(c, part)
}
