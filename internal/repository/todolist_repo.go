package repository

import (
	"context"
	"time"

	"gorm.io/gorm"

	"sicet/backend/internal/model"
	pkgerrors "sicet/backend/pkg/errors"
)

// TodolistRepository 巡检清单数据访问接口
type TodolistRepository interface {
	CreateBatch(ctx context.Context, lists []model.Todolist) error
	GetByID(ctx context.Context, id string) (*model.Todolist, error)
	List(ctx context.Context, filter TodolistFilter) ([]model.Todolist, int64, error)
	// ListInRange 查询日期区间内的清单（含任务），供矩阵聚合使用
	ListInRange(ctx context.Context, dateFrom, dateTo time.Time) ([]model.Todolist, error)
	// ListUncompleted 查询所有未完成的清单（含任务与设备），供逾期扫描使用
	ListUncompleted(ctx context.Context) ([]model.Todolist, error)
	Update(ctx context.Context, list *model.Todolist) error
	GetTask(ctx context.Context, taskID string) (*model.Task, error)
	UpdateTask(ctx context.Context, task *model.Task) error
}

// TodolistFilter 清单列表查询条件
type TodolistFilter struct {
	DeviceID string
	Status   string
	DateFrom *time.Time
	DateTo   *time.Time
	Offset   int
	Limit    int
}

// todolistRepo TodolistRepository 的 GORM 实现
type todolistRepo struct {
	db *gorm.DB
}

// NewTodolistRepo 创建 TodolistRepository 实例
func NewTodolistRepo(db *gorm.DB) TodolistRepository {
	return &todolistRepo{db: db}
}

func (r *todolistRepo) CreateBatch(ctx context.Context, lists []model.Todolist) error {
	if len(lists) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Create(&lists).Error
}

func (r *todolistRepo) GetByID(ctx context.Context, id string) (*model.Todolist, error) {
	var list model.Todolist
	err := r.db.WithContext(ctx).
		Preload("Device").
		Preload("Tasks").
		Preload("Tasks.Kpi").
		Where("todolist_id = ?", id).
		First(&list).Error
	if err != nil {
		return nil, err
	}
	return &list, nil
}

func (r *todolistRepo) List(ctx context.Context, filter TodolistFilter) ([]model.Todolist, int64, error) {
	var lists []model.Todolist
	var total int64

	db := r.db.WithContext(ctx).Model(&model.Todolist{})

	if filter.DeviceID != "" {
		db = db.Where("device_id = ?", filter.DeviceID)
	}
	if filter.Status != "" {
		db = db.Where("status = ?", filter.Status)
	}
	if filter.DateFrom != nil {
		db = db.Where("scheduled_date >= ?", filter.DateFrom)
	}
	if filter.DateTo != nil {
		db = db.Where("scheduled_date <= ?", filter.DateTo)
	}

	if err := db.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	if err := db.Preload("Device").Preload("Tasks").
		Offset(filter.Offset).Limit(filter.Limit).
		Order("scheduled_date ASC").
		Find(&lists).Error; err != nil {
		return nil, 0, err
	}

	return lists, total, nil
}

func (r *todolistRepo) ListInRange(ctx context.Context, dateFrom, dateTo time.Time) ([]model.Todolist, error) {
	var lists []model.Todolist
	err := r.db.WithContext(ctx).
		Preload("Device").
		Preload("Tasks").
		Where("scheduled_date >= ? AND scheduled_date <= ?", dateFrom, dateTo).
		Order("scheduled_date ASC").
		Find(&lists).Error
	return lists, err
}

func (r *todolistRepo) ListUncompleted(ctx context.Context) ([]model.Todolist, error) {
	var lists []model.Todolist
	err := r.db.WithContext(ctx).
		Preload("Device").
		Preload("Tasks").
		Preload("Tasks.Kpi").
		Where("status <> ?", model.StatusCompleted).
		Order("scheduled_date ASC").
		Find(&lists).Error
	return lists, err
}

// Update 带乐观锁的清单更新：version 不匹配说明清单已被并发修改
func (r *todolistRepo) Update(ctx context.Context, list *model.Todolist) error {
	oldVersion := list.Version
	result := r.db.WithContext(ctx).
		Model(list).
		Where("todolist_id = ? AND version = ?", list.TodolistID, oldVersion).
		Updates(map[string]interface{}{
			"status":          list.Status,
			"completion_date": list.CompletionDate,
			"category":        list.Category,
			"updated_by":      list.UpdatedBy,
			"version":         oldVersion + 1,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return pkgerrors.ErrOptimisticLock
	}
	list.Version = oldVersion + 1
	return nil
}

func (r *todolistRepo) GetTask(ctx context.Context, taskID string) (*model.Task, error) {
	var task model.Task
	err := r.db.WithContext(ctx).
		Preload("Kpi").
		Where("task_id = ?", taskID).
		First(&task).Error
	if err != nil {
		return nil, err
	}
	return &task, nil
}

func (r *todolistRepo) UpdateTask(ctx context.Context, task *model.Task) error {
	return r.db.WithContext(ctx).
		Omit("Kpi").
		Save(task).Error
}
