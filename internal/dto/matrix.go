package dto

// ── 矩阵（聚合报表）模块 DTO ──

// MatrixRequest 矩阵查询参数，日期区间为必填
type MatrixRequest struct {
	DateFrom string `form:"date_from" binding:"required,datetime=2006-01-02"`
	DateTo   string `form:"date_to"   binding:"required,datetime=2006-01-02"`
}

// MatrixGroupResponse 单个分组（设备 × KPI组合）的统计
type MatrixGroupResponse struct {
	DeviceID   string   `json:"device_id"`
	DeviceName string   `json:"device_name"`
	GroupType  string   `json:"group_type"` // "single" | "composite"
	KpiIDs     []string `json:"kpi_ids"`
	Label      string   `json:"label"`

	TotalScheduledCount int `json:"total_scheduled_count"`
	FutureRemainingCount int `json:"future_remaining_count"`
	PendingCount        int `json:"pending_count"`
	InProgressCount     int `json:"in_progress_count"`
	CompletedCount      int `json:"completed_count"`

	FirstScheduledExecution *string  `json:"first_scheduled_execution,omitempty"`
	LastScheduledExecution  *string  `json:"last_scheduled_execution,omitempty"`
	NextScheduledExecution  *string  `json:"next_scheduled_execution,omitempty"`
	FrequencyDays           *float64 `json:"frequency_days,omitempty"`

	SlotKinds       []string `json:"slot_kinds"`
	CustomStartHour *int     `json:"custom_start_hour,omitempty"`
	CustomEndHour   *int     `json:"custom_end_hour,omitempty"`
	MaxEndDayTime   *string  `json:"max_end_day_time,omitempty"`
	Categories      []string `json:"categories"`
}

// MatrixAggregatedResponse 跨设备聚合行（按 KPI 组合合并）
type MatrixAggregatedResponse struct {
	KpiIDs      []string `json:"kpi_ids"`
	Label       string   `json:"label"`
	DeviceCount int      `json:"device_count"`

	TotalScheduledCount  int `json:"total_scheduled_count"`
	FutureRemainingCount int `json:"future_remaining_count"`
	PendingCount         int `json:"pending_count"`
	InProgressCount      int `json:"in_progress_count"`
	CompletedCount       int `json:"completed_count"`

	FirstScheduledExecution *string  `json:"first_scheduled_execution,omitempty"`
	LastScheduledExecution  *string  `json:"last_scheduled_execution,omitempty"`
	NextScheduledExecution  *string  `json:"next_scheduled_execution,omitempty"`
	FrequencyDays           *float64 `json:"frequency_days,omitempty"`

	SlotKinds       []string `json:"slot_kinds"`
	CustomStartHour *int     `json:"custom_start_hour,omitempty"`
	CustomEndHour   *int     `json:"custom_end_hour,omitempty"`
	Categories      []string `json:"categories"`
}

// MatrixResponse 矩阵视图完整响应
type MatrixResponse struct {
	Groups     []MatrixGroupResponse      `json:"groups"`
	Aggregated []MatrixAggregatedResponse `json:"aggregated"`
}
