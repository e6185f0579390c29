package repository

import "gorm.io/gorm"

// Repository 所有 Repository 的聚合入口
type Repository struct {
	User     UserRepository
	Device   DeviceRepository
	Kpi      KpiRepository
	Todolist TodolistRepository
	Alert    AlertRepository
	AlertLog AlertLogRepository
}

// NewRepository 创建 Repository 聚合
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{
		User:     NewUserRepo(db),
		Device:   NewDeviceRepo(db),
		Kpi:      NewKpiRepo(db),
		Todolist: NewTodolistRepo(db),
		Alert:    NewAlertRepo(db),
		AlertLog: NewAlertLogRepo(db),
	}
}
