package dto

// ── 控制点模块 DTO ──

// CreateDeviceRequest 创建控制点请求
type CreateDeviceRequest struct {
	Name        string `json:"name"        binding:"required,min=2,max=100"`
	Location    string `json:"location"    binding:"omitempty,max=255"`
	Description string `json:"description"`
}

// UpdateDeviceRequest 更新控制点请求
type UpdateDeviceRequest struct {
	Name        *string `json:"name" binding:"omitempty,min=2,max=100"`
	Location    *string `json:"location" binding:"omitempty,max=255"`
	Description *string `json:"description"`
	IsActive    *bool   `json:"is_active"`
}

// DeviceListRequest 控制点列表查询参数
type DeviceListRequest struct {
	Page       int  `form:"page,default=1"       binding:"omitempty,min=1"`
	PageSize   int  `form:"page_size,default=20" binding:"omitempty,min=1,max=100"`
	OnlyActive bool `form:"only_active"`
}

// DeviceResponse 控制点信息响应
type DeviceResponse struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Location    string `json:"location"`
	Description string `json:"description"`
	IsActive    bool   `json:"is_active"`
	CreatedAt   string `json:"created_at"`
	UpdatedAt   string `json:"updated_at"`
}

// DeviceBrief 控制点简要信息（嵌入其他响应）
type DeviceBrief struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Location string `json:"location"`
}
