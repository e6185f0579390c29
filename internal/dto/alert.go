package dto

import "sicet/backend/internal/model"

// ── 告警模块 DTO ──

// CreateAlertRequest 创建告警配置请求。
// DeviceID 与 KpiID 二选一：设备告警盯逾期，KPI 告警盯记录值。
type CreateAlertRequest struct {
	Name       string                `json:"name"       binding:"required,min=2,max=100"`
	Email      string                `json:"email"      binding:"required,email"`
	DeviceID   *string               `json:"device_id"  binding:"omitempty,uuid"`
	KpiID      *string               `json:"kpi_id"     binding:"omitempty,uuid"`
	Conditions model.AlertConditions `json:"conditions"`
}

// UpdateAlertRequest 更新告警配置请求
type UpdateAlertRequest struct {
	Name       *string                `json:"name"  binding:"omitempty,min=2,max=100"`
	Email      *string                `json:"email" binding:"omitempty,email"`
	Conditions *model.AlertConditions `json:"conditions"`
	IsActive   *bool                  `json:"is_active"`
}

// AlertListRequest 告警配置列表查询参数
type AlertListRequest struct {
	Page     int `form:"page,default=1"       binding:"omitempty,min=1"`
	PageSize int `form:"page_size,default=20" binding:"omitempty,min=1,max=100"`
}

// AlertResponse 告警配置响应
type AlertResponse struct {
	ID         string                `json:"id"`
	Name       string                `json:"name"`
	Email      string                `json:"email"`
	DeviceID   *string               `json:"device_id,omitempty"`
	Device     *DeviceBrief          `json:"device,omitempty"`
	KpiID      *string               `json:"kpi_id,omitempty"`
	Kpi        *KpiBrief             `json:"kpi,omitempty"`
	Conditions model.AlertConditions `json:"conditions,omitempty"`
	IsActive   bool                  `json:"is_active"`
	CreatedAt  string                `json:"created_at"`
}

// ScanResultResponse 逾期扫描结果
type ScanResultResponse struct {
	ProcessedCount int `json:"processed_count"`
	ErrorCount     int `json:"error_count"`
}
