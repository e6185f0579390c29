package dto

import "sicet/backend/internal/model"

// ── 控制项（KPI）模块 DTO ──

// CreateKpiRequest 创建 KPI 请求
type CreateKpiRequest struct {
	Name        string          `json:"name"   binding:"required,min=2,max=100"`
	Description string          `json:"description"`
	Fields      model.FieldDefs `json:"fields" binding:"required,min=1"`
}

// UpdateKpiRequest 更新 KPI 请求。
// 字段定义的修改只影响后续排定的任务，历史记录值原样保留。
type UpdateKpiRequest struct {
	Name        *string          `json:"name" binding:"omitempty,min=2,max=100"`
	Description *string          `json:"description"`
	Fields      *model.FieldDefs `json:"fields"`
	IsActive    *bool            `json:"is_active"`
}

// KpiListRequest KPI 列表查询参数
type KpiListRequest struct {
	Page       int  `form:"page,default=1"       binding:"omitempty,min=1"`
	PageSize   int  `form:"page_size,default=20" binding:"omitempty,min=1,max=100"`
	OnlyActive bool `form:"only_active"`
}

// KpiResponse KPI 信息响应
type KpiResponse struct {
	ID          string          `json:"id"`
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Fields      model.FieldDefs `json:"fields"`
	IsActive    bool            `json:"is_active"`
	CreatedAt   string          `json:"created_at"`
	UpdatedAt   string          `json:"updated_at"`
}

// KpiBrief KPI 简要信息（嵌入其他响应）
type KpiBrief struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}
