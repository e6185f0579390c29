package handler

import (
	"errors"

	"github.com/gin-gonic/gin"

	"sicet/backend/internal/dto"
	"sicet/backend/internal/service"
	"sicet/backend/pkg/response"
)

// KpiHandler 控制项（KPI）模块 HTTP 处理器
type KpiHandler struct {
	kpiSvc service.KpiService
}

// NewKpiHandler 创建 KpiHandler
func NewKpiHandler(kpiSvc service.KpiService) *KpiHandler {
	return &KpiHandler{kpiSvc: kpiSvc}
}

// Create 创建控制项
// POST /api/v1/kpis
func (h *KpiHandler) Create(c *gin.Context) {
	callerID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	var req dto.CreateKpiRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	result, err := h.kpiSvc.Create(c.Request.Context(), &req, callerID)
	if err != nil {
		if errors.Is(err, service.ErrKpiInvalidFields) {
			response.BadRequest(c, 14002, err.Error())
			return
		}
		response.InternalError(c)
		return
	}

	response.Created(c, result)
}

// Get 控制项详情
// GET /api/v1/kpis/:id
func (h *KpiHandler) Get(c *gin.Context) {
	result, err := h.kpiSvc.GetByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		if errors.Is(err, service.ErrKpiNotFound) {
			response.NotFound(c, 14001, "控制项不存在")
			return
		}
		response.InternalError(c)
		return
	}

	response.OK(c, result)
}

// List 控制项列表
// GET /api/v1/kpis
func (h *KpiHandler) List(c *gin.Context) {
	var req dto.KpiListRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	list, total, err := h.kpiSvc.List(c.Request.Context(), &req)
	if err != nil {
		response.InternalError(c)
		return
	}

	response.OKPage(c, list, total, req.Page, req.PageSize)
}

// Update 更新控制项
// PUT /api/v1/kpis/:id
func (h *KpiHandler) Update(c *gin.Context) {
	callerID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	var req dto.UpdateKpiRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	result, err := h.kpiSvc.Update(c.Request.Context(), c.Param("id"), &req, callerID)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrKpiNotFound):
			response.NotFound(c, 14001, "控制项不存在")
		case errors.Is(err, service.ErrKpiInvalidFields):
			response.BadRequest(c, 14002, err.Error())
		default:
			response.InternalError(c)
		}
		return
	}

	response.OK(c, result)
}

// Delete 删除控制项
// DELETE /api/v1/kpis/:id
func (h *KpiHandler) Delete(c *gin.Context) {
	callerID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	if err := h.kpiSvc.Delete(c.Request.Context(), c.Param("id"), callerID); err != nil {
		if errors.Is(err, service.ErrKpiNotFound) {
			response.NotFound(c, 14001, "控制项不存在")
			return
		}
		response.InternalError(c)
		return
	}

	response.OK(c, nil)
}
