package repository

import (
	"context"

	"gorm.io/gorm"

	"sicet/backend/internal/model"
)

// AlertLogRepository 告警日志数据访问接口
type AlertLogRepository interface {
	// CreateTodolistLog 追加一条逾期通知发送日志
	CreateTodolistLog(ctx context.Context, log *model.TodolistAlertLog) error
	// CreateKpiLog 追加一条 KPI 告警触发日志
	CreateKpiLog(ctx context.Context, log *model.KpiAlertLog) error
	// HasTodolistLog 某清单+告警组合是否已发送过通知
	HasTodolistLog(ctx context.Context, todolistID, alertID string) (bool, error)
	ListTodolistLogs(ctx context.Context, todolistID string) ([]model.TodolistAlertLog, error)
	ListKpiLogs(ctx context.Context, kpiID string, offset, limit int) ([]model.KpiAlertLog, int64, error)
}

// alertLogRepo AlertLogRepository 的 GORM 实现
type alertLogRepo struct {
	db *gorm.DB
}

// NewAlertLogRepo 创建 AlertLogRepository 实例
func NewAlertLogRepo(db *gorm.DB) AlertLogRepository {
	return &alertLogRepo{db: db}
}

func (r *alertLogRepo) CreateTodolistLog(ctx context.Context, log *model.TodolistAlertLog) error {
	return r.db.WithContext(ctx).Create(log).Error
}

func (r *alertLogRepo) CreateKpiLog(ctx context.Context, log *model.KpiAlertLog) error {
	return r.db.WithContext(ctx).Create(log).Error
}

func (r *alertLogRepo) HasTodolistLog(ctx context.Context, todolistID, alertID string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&model.TodolistAlertLog{}).
		Where("todolist_id = ? AND alert_id = ? AND error_message IS NULL", todolistID, alertID).
		Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

func (r *alertLogRepo) ListTodolistLogs(ctx context.Context, todolistID string) ([]model.TodolistAlertLog, error) {
	var logs []model.TodolistAlertLog
	err := r.db.WithContext(ctx).
		Where("todolist_id = ?", todolistID).
		Order("sent_at DESC").
		Find(&logs).Error
	return logs, err
}

func (r *alertLogRepo) ListKpiLogs(ctx context.Context, kpiID string, offset, limit int) ([]model.KpiAlertLog, int64, error) {
	var logs []model.KpiAlertLog
	var total int64

	db := r.db.WithContext(ctx).Model(&model.KpiAlertLog{}).Where("kpi_id = ?", kpiID)

	if err := db.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	if err := db.Offset(offset).Limit(limit).
		Order("triggered_at DESC").
		Find(&logs).Error; err != nil {
		return nil, 0, err
	}

	return logs, total, nil
}
