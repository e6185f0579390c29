package repository

import (
	"context"

	"gorm.io/gorm"

	"sicet/backend/internal/model"
)

// KpiRepository 控制项（KPI）数据访问接口
type KpiRepository interface {
	Create(ctx context.Context, kpi *model.Kpi) error
	GetByID(ctx context.Context, id string) (*model.Kpi, error)
	List(ctx context.Context, offset, limit int, onlyActive bool) ([]model.Kpi, int64, error)
	ListByIDs(ctx context.Context, ids []string) ([]model.Kpi, error)
	Update(ctx context.Context, kpi *model.Kpi) error
	Delete(ctx context.Context, id string, deletedBy string) error
}

// kpiRepo KpiRepository 的 GORM 实现
type kpiRepo struct {
	db *gorm.DB
}

// NewKpiRepo 创建 KpiRepository 实例
func NewKpiRepo(db *gorm.DB) KpiRepository {
	return &kpiRepo{db: db}
}

func (r *kpiRepo) Create(ctx context.Context, kpi *model.Kpi) error {
	return r.db.WithContext(ctx).Create(kpi).Error
}

func (r *kpiRepo) GetByID(ctx context.Context, id string) (*model.Kpi, error) {
	var kpi model.Kpi
	err := r.db.WithContext(ctx).
		Where("kpi_id = ?", id).
		First(&kpi).Error
	if err != nil {
		return nil, err
	}
	return &kpi, nil
}

func (r *kpiRepo) List(ctx context.Context, offset, limit int, onlyActive bool) ([]model.Kpi, int64, error) {
	var kpis []model.Kpi
	var total int64

	db := r.db.WithContext(ctx).Model(&model.Kpi{})
	if onlyActive {
		db = db.Where("is_active = ?", true)
	}

	if err := db.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	if err := db.Offset(offset).Limit(limit).
		Order("name ASC").
		Find(&kpis).Error; err != nil {
		return nil, 0, err
	}

	return kpis, total, nil
}

func (r *kpiRepo) ListByIDs(ctx context.Context, ids []string) ([]model.Kpi, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	var kpis []model.Kpi
	err := r.db.WithContext(ctx).
		Where("kpi_id IN ?", ids).
		Find(&kpis).Error
	return kpis, err
}

func (r *kpiRepo) Update(ctx context.Context, kpi *model.Kpi) error {
	return r.db.WithContext(ctx).Save(kpi).Error
}

func (r *kpiRepo) Delete(ctx context.Context, id string, deletedBy string) error {
	return r.db.WithContext(ctx).
		Model(&model.Kpi{}).
		Where("kpi_id = ?", id).
		Updates(map[string]interface{}{
			"deleted_by": deletedBy,
			"deleted_at": gorm.Expr("NOW()"),
		}).Error
}
