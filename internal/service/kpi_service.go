package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"sicet/backend/internal/dto"
	"sicet/backend/internal/model"
	"sicet/backend/internal/repository"
)

// ── 控制项模块业务错误 ──

var (
	ErrKpiNotFound      = errors.New("控制项不存在")
	ErrKpiInvalidFields = errors.New("控制项字段定义无效")
)

// KpiService 控制项（KPI）业务接口
type KpiService interface {
	Create(ctx context.Context, req *dto.CreateKpiRequest, callerID string) (*dto.KpiResponse, error)
	GetByID(ctx context.Context, id string) (*dto.KpiResponse, error)
	List(ctx context.Context, req *dto.KpiListRequest) ([]dto.KpiResponse, int64, error)
	Update(ctx context.Context, id string, req *dto.UpdateKpiRequest, callerID string) (*dto.KpiResponse, error)
	Delete(ctx context.Context, id string, callerID string) error
}

type kpiService struct {
	repo   *repository.Repository
	logger *zap.Logger
}

// NewKpiService 创建 KpiService 实例
func NewKpiService(repo *repository.Repository, logger *zap.Logger) KpiService {
	return &kpiService{repo: repo, logger: logger}
}

// validateFields 校验字段定义：ID 唯一、类型合法、select 必须带可选值。
func validateFields(fields model.FieldDefs) error {
	validTypes := map[string]bool{
		model.FieldText: true, model.FieldTextarea: true,
		model.FieldNumber: true, model.FieldDecimal: true,
		model.FieldDate: true, model.FieldBoolean: true, model.FieldSelect: true,
	}

	seen := make(map[string]bool, len(fields))
	for _, f := range fields {
		if f.ID == "" || f.Name == "" {
			return fmt.Errorf("%w: 字段ID与名称不能为空", ErrKpiInvalidFields)
		}
		if seen[f.ID] {
			return fmt.Errorf("%w: 字段ID重复 %q", ErrKpiInvalidFields, f.ID)
		}
		seen[f.ID] = true
		if !validTypes[f.Type] {
			return fmt.Errorf("%w: 未知字段类型 %q", ErrKpiInvalidFields, f.Type)
		}
		if f.Type == model.FieldSelect && len(f.Options) == 0 {
			return fmt.Errorf("%w: select 字段 %q 缺少可选值", ErrKpiInvalidFields, f.ID)
		}
		if f.Min != nil && f.Max != nil && *f.Min > *f.Max {
			return fmt.Errorf("%w: 字段 %q 的 min 大于 max", ErrKpiInvalidFields, f.ID)
		}
	}
	return nil
}

func (s *kpiService) Create(ctx context.Context, req *dto.CreateKpiRequest, callerID string) (*dto.KpiResponse, error) {
	if err := validateFields(req.Fields); err != nil {
		return nil, err
	}

	kpi := &model.Kpi{
		Name:        req.Name,
		Description: req.Description,
		Fields:      req.Fields,
		IsActive:    true,
	}
	kpi.CreatedBy = &callerID
	kpi.UpdatedBy = &callerID

	if err := s.repo.Kpi.Create(ctx, kpi); err != nil {
		s.logger.Error("创建控制项失败", zap.Error(err))
		return nil, err
	}

	return toKpiResponse(kpi), nil
}

func (s *kpiService) GetByID(ctx context.Context, id string) (*dto.KpiResponse, error) {
	kpi, err := s.repo.Kpi.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrKpiNotFound
		}
		s.logger.Error("查询控制项失败", zap.String("id", id), zap.Error(err))
		return nil, err
	}

	return toKpiResponse(kpi), nil
}

func (s *kpiService) List(ctx context.Context, req *dto.KpiListRequest) ([]dto.KpiResponse, int64, error) {
	offset := (req.Page - 1) * req.PageSize
	kpis, total, err := s.repo.Kpi.List(ctx, offset, req.PageSize, req.OnlyActive)
	if err != nil {
		s.logger.Error("列出控制项失败", zap.Error(err))
		return nil, 0, err
	}

	result := make([]dto.KpiResponse, 0, len(kpis))
	for i := range kpis {
		result = append(result, *toKpiResponse(&kpis[i]))
	}

	return result, total, nil
}

func (s *kpiService) Update(ctx context.Context, id string, req *dto.UpdateKpiRequest, callerID string) (*dto.KpiResponse, error) {
	kpi, err := s.repo.Kpi.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrKpiNotFound
		}
		s.logger.Error("查询控制项失败", zap.String("id", id), zap.Error(err))
		return nil, err
	}

	if req.Name != nil {
		kpi.Name = *req.Name
	}
	if req.Description != nil {
		kpi.Description = *req.Description
	}
	if req.Fields != nil {
		// 字段定义修改只影响后续任务，已有记录值保持原样
		if err := validateFields(*req.Fields); err != nil {
			return nil, err
		}
		kpi.Fields = *req.Fields
	}
	if req.IsActive != nil {
		kpi.IsActive = *req.IsActive
	}

	kpi.UpdatedBy = &callerID

	if err := s.repo.Kpi.Update(ctx, kpi); err != nil {
		s.logger.Error("更新控制项失败", zap.String("id", id), zap.Error(err))
		return nil, err
	}

	return toKpiResponse(kpi), nil
}

func (s *kpiService) Delete(ctx context.Context, id string, callerID string) error {
	_, err := s.repo.Kpi.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrKpiNotFound
		}
		s.logger.Error("查询控制项失败", zap.String("id", id), zap.Error(err))
		return err
	}

	if err := s.repo.Kpi.Delete(ctx, id, callerID); err != nil {
		s.logger.Error("删除控制项失败", zap.String("id", id), zap.Error(err))
		return err
	}

	return nil
}

// ── 内部辅助方法 ──

func toKpiResponse(kpi *model.Kpi) *dto.KpiResponse {
	return &dto.KpiResponse{
		ID:          kpi.KpiID,
		Name:        kpi.Name,
		Description: kpi.Description,
		Fields:      kpi.Fields,
		IsActive:    kpi.IsActive,
		CreatedAt:   kpi.CreatedAt.Format(time.RFC3339),
		UpdatedAt:   kpi.UpdatedAt.Format(time.RFC3339),
	}
}
