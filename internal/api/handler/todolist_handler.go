package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"sicet/backend/internal/dto"
	"sicet/backend/internal/model"
	"sicet/backend/internal/service"
	pkgerrors "sicet/backend/pkg/errors"
	"sicet/backend/pkg/response"
)

// TodolistHandler 巡检清单模块 HTTP 处理器
type TodolistHandler struct {
	todolistSvc service.TodolistService
}

// NewTodolistHandler 创建 TodolistHandler
func NewTodolistHandler(todolistSvc service.TodolistService) *TodolistHandler {
	return &TodolistHandler{todolistSvc: todolistSvc}
}

// Schedule 批量排定巡检清单
// POST /api/v1/todolists/schedule
func (h *TodolistHandler) Schedule(c *gin.Context) {
	callerID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	var req dto.ScheduleTodolistsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	result, err := h.todolistSvc.Schedule(c.Request.Context(), &req, callerID)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrDeviceNotFound):
			response.NotFound(c, 13001, "控制点不存在")
		case errors.Is(err, service.ErrKpiNotFound):
			response.NotFound(c, 14001, "控制项不存在")
		case errors.Is(err, model.ErrInvalidTimeSlot):
			response.BadRequest(c, 15002, "时间段编码无效")
		case errors.Is(err, service.ErrScheduleInvalidDate):
			response.BadRequest(c, 15003, "排定日期格式无效")
		default:
			response.InternalError(c)
		}
		return
	}

	response.Created(c, result)
}

// Get 清单详情（含派生分类与截止时刻）
// GET /api/v1/todolists/:id
func (h *TodolistHandler) Get(c *gin.Context) {
	result, err := h.todolistSvc.GetByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		if errors.Is(err, service.ErrTodolistNotFound) {
			response.NotFound(c, 15001, "巡检清单不存在")
			return
		}
		response.InternalError(c)
		return
	}

	response.OK(c, result)
}

// List 清单列表
// GET /api/v1/todolists
func (h *TodolistHandler) List(c *gin.Context) {
	var req dto.TodolistListRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	list, total, err := h.todolistSvc.List(c.Request.Context(), &req)
	if err != nil {
		if errors.Is(err, service.ErrScheduleInvalidDate) {
			response.BadRequest(c, 15003, "日期格式无效")
			return
		}
		response.InternalError(c)
		return
	}

	response.OKPage(c, list, total, req.Page, req.PageSize)
}

// CompleteTask 记录任务值并完成任务
// POST /api/v1/todolists/:id/tasks/:taskId/complete
func (h *TodolistHandler) CompleteTask(c *gin.Context) {
	callerID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	var req dto.CompleteTaskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	result, err := h.todolistSvc.CompleteTask(c.Request.Context(), c.Param("id"), c.Param("taskId"), &req, callerID)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrTodolistNotFound):
			response.NotFound(c, 15001, "巡检清单不存在")
		case errors.Is(err, service.ErrTaskNotFound):
			response.NotFound(c, 15004, "任务不存在")
		case errors.Is(err, service.ErrTaskAlreadyCompleted):
			response.BadRequest(c, 15005, "任务已完成，不可重复提交")
		case errors.Is(err, service.ErrValueMissingRequired):
			response.BadRequest(c, 15006, err.Error())
		case errors.Is(err, pkgerrors.ErrOptimisticLock):
			response.Error(c, http.StatusConflict, 15007, "清单已被其他操作修改，请刷新后重试")
		default:
			response.InternalError(c)
		}
		return
	}

	response.OK(c, result)
}
