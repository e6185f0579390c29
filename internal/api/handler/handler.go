package handler

import "sicet/backend/internal/service"

// Handler 所有 Handler 的聚合入口
type Handler struct {
	Auth     *AuthHandler
	User     *UserHandler
	Device   *DeviceHandler
	Kpi      *KpiHandler
	Todolist *TodolistHandler
	Alert    *AlertHandler
	Matrix   *MatrixHandler
}

// NewHandler 创建 Handler 聚合
func NewHandler(svc *service.Service) *Handler {
	return &Handler{
		Auth:     NewAuthHandler(svc.Auth),
		User:     NewUserHandler(svc.User),
		Device:   NewDeviceHandler(svc.Device),
		Kpi:      NewKpiHandler(svc.Kpi),
		Todolist: NewTodolistHandler(svc.Todolist),
		Alert:    NewAlertHandler(svc.Alert, svc.Overdue),
		Matrix:   NewMatrixHandler(svc.Matrix, svc.Export),
	}
}
