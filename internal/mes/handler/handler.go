package handler

import (
	"errors"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/jwerthen/Werco-ERP-MES-sub000/internal/mes/bom"
	"github.com/jwerthen/Werco-ERP-MES-sub000/internal/mes/bomimport"
	"github.com/jwerthen/Werco-ERP-MES-sub000/internal/mes/repository"
	"github.com/jwerthen/Werco-ERP-MES-sub000/internal/mes/service"
)

// Handlers bundles the HTTP layer.
type Handlers struct {
	Part      *PartHandler
	BOM       *BOMHandler
	WorkOrder *WorkOrderHandler
	Import    *ImportHandler
}

func NewHandlers(svc *service.Services) *Handlers {
	return &Handlers{
		Part:      NewPartHandler(svc.Part),
		BOM:       NewBOMHandler(svc.BOM),
		WorkOrder: NewWorkOrderHandler(svc.WorkOrder),
		Import:    NewImportHandler(svc.Import),
	}
}

// Response is the envelope every endpoint returns.
type Response struct {
	Code    int         `json:"code"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

// Pagination describes one page of a list response.
type Pagination struct {
	Page       int `json:"page"`
	PageSize   int `json:"page_size"`
	Total      int `json:"total"`
	TotalPages int `json:"total_pages"`
}

// Success writes a 200 envelope.
func Success(c *gin.Context, data interface{}) {
	c.JSON(200, Response{
		Code:    0,
		Message: "success",
		Data:    data,
	})
}

// Created writes a 201 envelope.
func Created(c *gin.Context, data interface{}) {
	c.JSON(201, Response{
		Code:    0,
		Message: "success",
		Data:    data,
	})
}

// Error writes an error envelope; the HTTP status is the leading three
// digits of the business code.
func Error(c *gin.Context, code int, message string) {
	statusCode := code / 100
	if statusCode < 100 || statusCode > 599 {
		statusCode = 500
	}
	c.JSON(statusCode, Response{
		Code:    code,
		Message: message,
	})
}

func BadRequest(c *gin.Context, message string) {
	Error(c, 40000, message)
}

func NotFound(c *gin.Context, message string) {
	Error(c, 40400, message)
}

func Conflict(c *gin.Context, message string) {
	Error(c, 40900, message)
}

func Unprocessable(c *gin.Context, message string) {
	Error(c, 42200, message)
}

func InternalError(c *gin.Context, message string) {
	Error(c, 50000, message)
}

// RespondError maps a service error onto the envelope: validation failures
// are 400, lifecycle conflicts 409, structural BOM errors 422, missing
// records 404, everything else 500.
func RespondError(c *gin.Context, err error) {
	var validationErr *service.ValidationError
	var stateErr *service.InvalidStateError
	var cycleErr *bom.CycleError
	var depthErr *bom.MaxDepthError
	switch {
	case errors.Is(err, repository.ErrNotFound):
		NotFound(c, "record not found")
	case errors.Is(err, bomimport.ErrSessionNotFound):
		NotFound(c, err.Error())
	case errors.As(err, &validationErr):
		BadRequest(c, validationErr.Error())
	case errors.As(err, &stateErr):
		Conflict(c, stateErr.Error())
	case errors.As(err, &cycleErr):
		Unprocessable(c, cycleErr.Error())
	case errors.As(err, &depthErr):
		Unprocessable(c, depthErr.Error())
	default:
		InternalError(c, err.Error())
	}
}

// GetUserID reads the authenticated user from the context.
func GetUserID(c *gin.Context) string {
	userID, _ := c.Get("user_id")
	if id, ok := userID.(string); ok {
		return id
	}
	return ""
}

// GetPagination reads page/page_size query params with sane bounds.
func GetPagination(c *gin.Context) (page, pageSize int) {
	page = 1
	pageSize = 20

	if p := c.Query("page"); p != "" {
		if v, err := strconv.Atoi(p); err == nil && v > 0 {
			page = v
		}
	}

	if ps := c.Query("page_size"); ps != "" {
		if v, err := strconv.Atoi(ps); err == nil && v > 0 && v <= 100 {
			pageSize = v
		}
	}

	return page, pageSize
}

func totalPages(total int64, pageSize int) int {
	if pageSize <= 0 {
		return 0
	}
	return int((total + int64(pageSize) - 1) / int64(pageSize))
}
