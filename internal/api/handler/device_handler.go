package handler

import (
	"errors"

	"github.com/gin-gonic/gin"

	"sicet/backend/internal/dto"
	"sicet/backend/internal/service"
	"sicet/backend/pkg/response"
)

// DeviceHandler 控制点模块 HTTP 处理器
type DeviceHandler struct {
	deviceSvc service.DeviceService
}

// NewDeviceHandler 创建 DeviceHandler
func NewDeviceHandler(deviceSvc service.DeviceService) *DeviceHandler {
	return &DeviceHandler{deviceSvc: deviceSvc}
}

// Create 创建控制点
// POST /api/v1/devices
func (h *DeviceHandler) Create(c *gin.Context) {
	callerID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	var req dto.CreateDeviceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	result, err := h.deviceSvc.Create(c.Request.Context(), &req, callerID)
	if err != nil {
		response.InternalError(c)
		return
	}

	response.Created(c, result)
}

// Get 控制点详情
// GET /api/v1/devices/:id
func (h *DeviceHandler) Get(c *gin.Context) {
	result, err := h.deviceSvc.GetByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		if errors.Is(err, service.ErrDeviceNotFound) {
			response.NotFound(c, 13001, "控制点不存在")
			return
		}
		response.InternalError(c)
		return
	}

	response.OK(c, result)
}

// List 控制点列表
// GET /api/v1/devices
func (h *DeviceHandler) List(c *gin.Context) {
	var req dto.DeviceListRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	list, total, err := h.deviceSvc.List(c.Request.Context(), &req)
	if err != nil {
		response.InternalError(c)
		return
	}

	response.OKPage(c, list, total, req.Page, req.PageSize)
}

// Update 更新控制点
// PUT /api/v1/devices/:id
func (h *DeviceHandler) Update(c *gin.Context) {
	callerID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	var req dto.UpdateDeviceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	result, err := h.deviceSvc.Update(c.Request.Context(), c.Param("id"), &req, callerID)
	if err != nil {
		if errors.Is(err, service.ErrDeviceNotFound) {
			response.NotFound(c, 13001, "控制点不存在")
			return
		}
		response.InternalError(c)
		return
	}

	response.OK(c, result)
}

// Delete 删除控制点
// DELETE /api/v1/devices/:id
func (h *DeviceHandler) Delete(c *gin.Context) {
	callerID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	if err := h.deviceSvc.Delete(c.Request.Context(), c.Param("id"), callerID); err != nil {
		if errors.Is(err, service.ErrDeviceNotFound) {
			response.NotFound(c, 13001, "控制点不存在")
			return
		}
		response.InternalError(c)
		return
	}

	response.OK(c, nil)
}
