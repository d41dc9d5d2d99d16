package handler

import (
	"fmt"
	"io"

	"github.com/gin-gonic/gin"

	"github.com/jwerthen/Werco-ERP-MES-sub000/internal/mes/bomimport"
	"github.com/jwerthen/Werco-ERP-MES-sub000/internal/mes/service"
)

const maxUploadSize = 20 << 20

type ImportHandler struct {
	svc *service.ImportService
}

func NewImportHandler(svc *service.ImportService) *ImportHandler {
	return &ImportHandler{svc: svc}
}

// Preview handles POST /api/v1/imports/preview (multipart upload)
func (h *ImportHandler) Preview(c *gin.Context) {
	documentType := c.DefaultPostForm("document_type", bomimport.DocumentTypeBOM)

	fileHeader, err := c.FormFile("file")
	if err != nil {
		BadRequest(c, "file is required")
		return
	}
	if fileHeader.Size > maxUploadSize {
		BadRequest(c, "file exceeds upload size limit")
		return
	}

	file, err := fileHeader.Open()
	if err != nil {
		InternalError(c, "failed to open uploaded file")
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		InternalError(c, "failed to read uploaded file")
		return
	}

	preview, err := h.svc.Preview(c.Request.Context(), documentType, fileHeader.Filename, data)
	if err != nil {
		RespondError(c, err)
		return
	}
	Created(c, preview)
}

// PreviewStructured handles POST /api/v1/imports/preview-structured
func (h *ImportHandler) PreviewStructured(c *gin.Context) {
	var req struct {
		DocumentType string             `json:"document_type"`
		Assembly     bomimport.Assembly `json:"assembly"`
		Items        []bomimport.Item   `json:"items"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, "invalid request body: "+err.Error())
		return
	}
	if req.DocumentType == "" {
		req.DocumentType = bomimport.DocumentTypeBOM
	}
	preview, err := h.svc.PreviewStructured(c.Request.Context(), req.DocumentType, req.Assembly, req.Items)
	if err != nil {
		RespondError(c, err)
		return
	}
	Created(c, preview)
}

// Get handles GET /api/v1/imports/:id
func (h *ImportHandler) Get(c *gin.Context) {
	preview, err := h.svc.GetPreview(c.Request.Context(), c.Param("id"))
	if err != nil {
		RespondError(c, err)
		return
	}
	Success(c, preview)
}

// UpdateAssembly handles PUT /api/v1/imports/:id/assembly
func (h *ImportHandler) UpdateAssembly(c *gin.Context) {
	var assembly bomimport.Assembly
	if err := c.ShouldBindJSON(&assembly); err != nil {
		BadRequest(c, "invalid request body: "+err.Error())
		return
	}
	preview, err := h.svc.UpdateAssembly(c.Request.Context(), c.Param("id"), assembly)
	if err != nil {
		RespondError(c, err)
		return
	}
	Success(c, preview)
}

// UpdateItems handles PUT /api/v1/imports/:id/items
func (h *ImportHandler) UpdateItems(c *gin.Context) {
	var req struct {
		Items []bomimport.Item `json:"items"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, "invalid request body: "+err.Error())
		return
	}
	preview, err := h.svc.UpdateItems(c.Request.Context(), c.Param("id"), req.Items)
	if err != nil {
		RespondError(c, err)
		return
	}
	Success(c, preview)
}

// Remap handles PUT /api/v1/imports/:id/mapping
func (h *ImportHandler) Remap(c *gin.Context) {
	var req struct {
		Field  string `json:"field"`
		Column *int   `json:"column"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, "invalid request body: "+err.Error())
		return
	}
	if req.Field == "" {
		BadRequest(c, "field is required")
		return
	}
	preview, err := h.svc.Remap(c.Request.Context(), c.Param("id"), req.Field, req.Column)
	if err != nil {
		RespondError(c, err)
		return
	}
	Success(c, preview)
}

// Commit handles POST /api/v1/imports/:id/commit
func (h *ImportHandler) Commit(c *gin.Context) {
	var req struct {
		CreateMissingParts bool `json:"create_missing_parts"`
	}
	if err := c.ShouldBindJSON(&req); err != nil && err != io.EOF {
		BadRequest(c, "invalid request body: "+err.Error())
		return
	}
	result, err := h.svc.Commit(c.Request.Context(), c.Param("id"), req.CreateMissingParts, GetUserID(c))
	if err != nil {
		RespondError(c, err)
		return
	}
	Success(c, result)
}

// Cancel handles POST /api/v1/imports/:id/cancel
func (h *ImportHandler) Cancel(c *gin.Context) {
	if err := h.svc.Cancel(c.Request.Context(), c.Param("id")); err != nil {
		RespondError(c, err)
		return
	}
	Success(c, gin.H{"cancelled": true})
}

// Original handles GET /api/v1/imports/:id/original
func (h *ImportHandler) Original(c *gin.Context) {
	rc, fileName, err := h.svc.OriginalFile(c.Request.Context(), c.Param("id"))
	if err != nil {
		RespondError(c, err)
		return
	}
	defer rc.Close()

	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", fileName))
	c.Header("Content-Type", "application/octet-stream")
	if _, err := io.Copy(c.Writer, rc); err != nil {
		InternalError(c, "failed to write file")
	}
}

// Template handles GET /api/v1/imports/template
func (h *ImportHandler) Template(c *gin.Context) {
	f, err := h.svc.GenerateTemplate()
	if err != nil {
		RespondError(c, err)
		return
	}
	defer f.Close()

	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", "bom_import_template.xlsx"))
	c.Header("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	if err := f.Write(c.Writer); err != nil {
		InternalError(c, "failed to write template")
	}
}
