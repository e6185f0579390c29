package repository

import (
	"context"

	"gorm.io/gorm"

	"sicet/backend/internal/model"
)

// DeviceRepository 控制点数据访问接口
type DeviceRepository interface {
	Create(ctx context.Context, device *model.Device) error
	GetByID(ctx context.Context, id string) (*model.Device, error)
	List(ctx context.Context, offset, limit int, onlyActive bool) ([]model.Device, int64, error)
	ListByIDs(ctx context.Context, ids []string) ([]model.Device, error)
	Update(ctx context.Context, device *model.Device) error
	Delete(ctx context.Context, id string, deletedBy string) error
}

// deviceRepo DeviceRepository 的 GORM 实现
type deviceRepo struct {
	db *gorm.DB
}

// NewDeviceRepo 创建 DeviceRepository 实例
func NewDeviceRepo(db *gorm.DB) DeviceRepository {
	return &deviceRepo{db: db}
}

func (r *deviceRepo) Create(ctx context.Context, device *model.Device) error {
	return r.db.WithContext(ctx).Create(device).Error
}

func (r *deviceRepo) GetByID(ctx context.Context, id string) (*model.Device, error) {
	var device model.Device
	err := r.db.WithContext(ctx).
		Where("device_id = ?", id).
		First(&device).Error
	if err != nil {
		return nil, err
	}
	return &device, nil
}

func (r *deviceRepo) List(ctx context.Context, offset, limit int, onlyActive bool) ([]model.Device, int64, error) {
	var devices []model.Device
	var total int64

	db := r.db.WithContext(ctx).Model(&model.Device{})
	if onlyActive {
		db = db.Where("is_active = ?", true)
	}

	if err := db.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	if err := db.Offset(offset).Limit(limit).
		Order("name ASC").
		Find(&devices).Error; err != nil {
		return nil, 0, err
	}

	return devices, total, nil
}

func (r *deviceRepo) ListByIDs(ctx context.Context, ids []string) ([]model.Device, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	var devices []model.Device
	err := r.db.WithContext(ctx).
		Where("device_id IN ?", ids).
		Find(&devices).Error
	return devices, err
}

func (r *deviceRepo) Update(ctx context.Context, device *model.Device) error {
	return r.db.WithContext(ctx).Save(device).Error
}

func (r *deviceRepo) Delete(ctx context.Context, id string, deletedBy string) error {
	return r.db.WithContext(ctx).
		Model(&model.Device{}).
		Where("device_id = ?", id).
		Updates(map[string]interface{}{
			"deleted_by": deletedBy,
			"deleted_at": gorm.Expr("NOW()"),
		}).Error
}
