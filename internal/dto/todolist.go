package dto

import "sicet/backend/internal/model"

// ── 巡检清单模块 DTO ──

// ScheduleTodolistsRequest 批量排定请求：
// 为每个 设备 × 日期 × 时间段 组合创建一条清单，任务按 KpiIDs 生成。
type ScheduleTodolistsRequest struct {
	DeviceIDs []string `json:"device_ids" binding:"required,min=1"`
	Dates     []string `json:"dates"      binding:"required,min=1,dive,datetime=2006-01-02"`
	TimeSlots []string `json:"time_slots" binding:"required,min=1"` // "morning" 或 "08:00-14:00"
	KpiIDs    []string `json:"kpi_ids"    binding:"required,min=1"`
	Category  *string  `json:"category"   binding:"omitempty,max=100"`
}

// ScheduleTodolistsResponse 批量排定结果
type ScheduleTodolistsResponse struct {
	CreatedCount int      `json:"created_count"`
	TodolistIDs  []string `json:"todolist_ids"`
}

// TodolistListRequest 清单列表查询参数
type TodolistListRequest struct {
	DeviceID string `form:"device_id" binding:"omitempty,uuid"`
	Status   string `form:"status"    binding:"omitempty,oneof=pending in_progress completed"`
	DateFrom string `form:"date_from" binding:"omitempty,datetime=2006-01-02"`
	DateTo   string `form:"date_to"   binding:"omitempty,datetime=2006-01-02"`
	Page     int    `form:"page,default=1"       binding:"omitempty,min=1"`
	PageSize int    `form:"page_size,default=20" binding:"omitempty,min=1,max=100"`
}

// CompleteTaskRequest 任务完成请求：按 KPI 字段ID 提交记录值
type CompleteTaskRequest struct {
	RecordedValue model.JSONMap `json:"recorded_value" binding:"required"`
}

// TaskResponse 任务信息响应
type TaskResponse struct {
	ID            string        `json:"id"`
	KpiID         string        `json:"kpi_id"`
	Kpi           *KpiBrief     `json:"kpi,omitempty"`
	Status        string        `json:"status"`
	RecordedValue model.JSONMap `json:"recorded_value,omitempty"`
	CompletedAt   *string       `json:"completed_at,omitempty"`
}

// TodolistResponse 清单信息响应。
// Classification 为派生状态（含 overdue），Status 为持久化状态。
type TodolistResponse struct {
	ID             string         `json:"id"`
	DeviceID       string         `json:"device_id"`
	Device         *DeviceBrief   `json:"device,omitempty"`
	ScheduledDate  string         `json:"scheduled_date"`
	TimeSlot       string         `json:"time_slot"`
	TimeSlotLabel  string         `json:"time_slot_label"`
	Status         string         `json:"status"`
	Classification string         `json:"classification"`
	CompletionDate *string        `json:"completion_date,omitempty"`
	Category       *string        `json:"category,omitempty"`
	Deadline       *string        `json:"deadline,omitempty"`
	Tasks          []TaskResponse `json:"tasks,omitempty"`
}
