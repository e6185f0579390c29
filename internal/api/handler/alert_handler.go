package handler

import (
	"errors"
	"time"

	"github.com/gin-gonic/gin"

	"sicet/backend/internal/dto"
	"sicet/backend/internal/service"
	"sicet/backend/pkg/response"
)

// AlertHandler 告警模块 HTTP 处理器
type AlertHandler struct {
	alertSvc   service.AlertService
	overdueSvc service.OverdueService
}

// NewAlertHandler 创建 AlertHandler
func NewAlertHandler(alertSvc service.AlertService, overdueSvc service.OverdueService) *AlertHandler {
	return &AlertHandler{alertSvc: alertSvc, overdueSvc: overdueSvc}
}

// Create 创建告警配置
// POST /api/v1/alerts
func (h *AlertHandler) Create(c *gin.Context) {
	callerID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	var req dto.CreateAlertRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	result, err := h.alertSvc.Create(c.Request.Context(), &req, callerID)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrAlertScopeMissing):
			response.BadRequest(c, 16002, "必须指定设备或控制项之一")
		case errors.Is(err, service.ErrDeviceNotFound):
			response.NotFound(c, 13001, "控制点不存在")
		case errors.Is(err, service.ErrKpiNotFound):
			response.NotFound(c, 14001, "控制项不存在")
		default:
			response.InternalError(c)
		}
		return
	}

	response.Created(c, result)
}

// Get 告警配置详情
// GET /api/v1/alerts/:id
func (h *AlertHandler) Get(c *gin.Context) {
	result, err := h.alertSvc.GetByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		if errors.Is(err, service.ErrAlertNotFound) {
			response.NotFound(c, 16001, "告警配置不存在")
			return
		}
		response.InternalError(c)
		return
	}

	response.OK(c, result)
}

// List 告警配置列表
// GET /api/v1/alerts
func (h *AlertHandler) List(c *gin.Context) {
	var req dto.AlertListRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	list, total, err := h.alertSvc.List(c.Request.Context(), &req)
	if err != nil {
		response.InternalError(c)
		return
	}

	response.OKPage(c, list, total, req.Page, req.PageSize)
}

// Update 更新告警配置
// PUT /api/v1/alerts/:id
func (h *AlertHandler) Update(c *gin.Context) {
	callerID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	var req dto.UpdateAlertRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	result, err := h.alertSvc.Update(c.Request.Context(), c.Param("id"), &req, callerID)
	if err != nil {
		if errors.Is(err, service.ErrAlertNotFound) {
			response.NotFound(c, 16001, "告警配置不存在")
			return
		}
		response.InternalError(c)
		return
	}

	response.OK(c, result)
}

// Delete 删除告警配置
// DELETE /api/v1/alerts/:id
func (h *AlertHandler) Delete(c *gin.Context) {
	callerID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	if err := h.alertSvc.Delete(c.Request.Context(), c.Param("id"), callerID); err != nil {
		if errors.Is(err, service.ErrAlertNotFound) {
			response.NotFound(c, 16001, "告警配置不存在")
			return
		}
		response.InternalError(c)
		return
	}

	response.OK(c, nil)
}

// TriggerScan 手动触发一轮逾期扫描（后台定时扫描之外的运维入口）
// POST /api/v1/alerts/scan
func (h *AlertHandler) TriggerScan(c *gin.Context) {
	result, err := h.overdueSvc.Scan(c.Request.Context(), time.Now())
	if err != nil {
		response.InternalError(c)
		return
	}

	response.OK(c, result)
}
