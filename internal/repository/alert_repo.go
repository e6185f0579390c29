package repository

import (
	"context"

	"gorm.io/gorm"

	"sicet/backend/internal/model"
)

// AlertRepository 告警配置数据访问接口
type AlertRepository interface {
	Create(ctx context.Context, alert *model.Alert) error
	GetByID(ctx context.Context, id string) (*model.Alert, error)
	List(ctx context.Context, offset, limit int) ([]model.Alert, int64, error)
	// ListActiveByDevice 查询某设备的有效逾期告警配置
	ListActiveByDevice(ctx context.Context, deviceID string) ([]model.Alert, error)
	// ListActiveByKpi 查询某 KPI 的有效取值告警配置
	ListActiveByKpi(ctx context.Context, kpiID string) ([]model.Alert, error)
	Update(ctx context.Context, alert *model.Alert) error
	Delete(ctx context.Context, id string, deletedBy string) error
}

// alertRepo AlertRepository 的 GORM 实现
type alertRepo struct {
	db *gorm.DB
}

// NewAlertRepo 创建 AlertRepository 实例
func NewAlertRepo(db *gorm.DB) AlertRepository {
	return &alertRepo{db: db}
}

func (r *alertRepo) Create(ctx context.Context, alert *model.Alert) error {
	return r.db.WithContext(ctx).Create(alert).Error
}

func (r *alertRepo) GetByID(ctx context.Context, id string) (*model.Alert, error) {
	var alert model.Alert
	err := r.db.WithContext(ctx).
		Preload("Device").
		Preload("Kpi").
		Where("alert_id = ?", id).
		First(&alert).Error
	if err != nil {
		return nil, err
	}
	return &alert, nil
}

func (r *alertRepo) List(ctx context.Context, offset, limit int) ([]model.Alert, int64, error) {
	var alerts []model.Alert
	var total int64

	db := r.db.WithContext(ctx).Model(&model.Alert{})

	if err := db.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	if err := db.Preload("Device").Preload("Kpi").
		Offset(offset).Limit(limit).
		Order("name ASC").
		Find(&alerts).Error; err != nil {
		return nil, 0, err
	}

	return alerts, total, nil
}

func (r *alertRepo) ListActiveByDevice(ctx context.Context, deviceID string) ([]model.Alert, error) {
	var alerts []model.Alert
	err := r.db.WithContext(ctx).
		Where("device_id = ? AND is_active = ?", deviceID, true).
		Find(&alerts).Error
	return alerts, err
}

func (r *alertRepo) ListActiveByKpi(ctx context.Context, kpiID string) ([]model.Alert, error) {
	var alerts []model.Alert
	err := r.db.WithContext(ctx).
		Where("kpi_id = ? AND is_active = ?", kpiID, true).
		Find(&alerts).Error
	return alerts, err
}

func (r *alertRepo) Update(ctx context.Context, alert *model.Alert) error {
	return r.db.WithContext(ctx).Save(alert).Error
}

func (r *alertRepo) Delete(ctx context.Context, id string, deletedBy string) error {
	return r.db.WithContext(ctx).
		Model(&model.Alert{}).
		Where("alert_id = ?", id).
		Updates(map[string]interface{}{
			"deleted_by": deletedBy,
			"deleted_at": gorm.Expr("NOW()"),
		}).Error
}
