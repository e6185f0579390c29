package service

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"sicet/backend/internal/dto"
	"sicet/backend/internal/model"
	"sicet/backend/internal/repository"
)

// ── 控制点模块业务错误 ──

var (
	ErrDeviceNotFound = errors.New("控制点不存在")
)

// DeviceService 控制点业务接口
type DeviceService interface {
	Create(ctx context.Context, req *dto.CreateDeviceRequest, callerID string) (*dto.DeviceResponse, error)
	GetByID(ctx context.Context, id string) (*dto.DeviceResponse, error)
	List(ctx context.Context, req *dto.DeviceListRequest) ([]dto.DeviceResponse, int64, error)
	Update(ctx context.Context, id string, req *dto.UpdateDeviceRequest, callerID string) (*dto.DeviceResponse, error)
	Delete(ctx context.Context, id string, callerID string) error
}

type deviceService struct {
	repo   *repository.Repository
	logger *zap.Logger
}

// NewDeviceService 创建 DeviceService 实例
func NewDeviceService(repo *repository.Repository, logger *zap.Logger) DeviceService {
	return &deviceService{repo: repo, logger: logger}
}

func (s *deviceService) Create(ctx context.Context, req *dto.CreateDeviceRequest, callerID string) (*dto.DeviceResponse, error) {
	device := &model.Device{
		Name:        req.Name,
		Location:    req.Location,
		Description: req.Description,
		IsActive:    true,
	}
	device.CreatedBy = &callerID
	device.UpdatedBy = &callerID

	if err := s.repo.Device.Create(ctx, device); err != nil {
		s.logger.Error("创建控制点失败", zap.Error(err))
		return nil, err
	}

	return toDeviceResponse(device), nil
}

func (s *deviceService) GetByID(ctx context.Context, id string) (*dto.DeviceResponse, error) {
	device, err := s.repo.Device.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrDeviceNotFound
		}
		s.logger.Error("查询控制点失败", zap.String("id", id), zap.Error(err))
		return nil, err
	}

	return toDeviceResponse(device), nil
}

func (s *deviceService) List(ctx context.Context, req *dto.DeviceListRequest) ([]dto.DeviceResponse, int64, error) {
	offset := (req.Page - 1) * req.PageSize
	devices, total, err := s.repo.Device.List(ctx, offset, req.PageSize, req.OnlyActive)
	if err != nil {
		s.logger.Error("列出控制点失败", zap.Error(err))
		return nil, 0, err
	}

	result := make([]dto.DeviceResponse, 0, len(devices))
	for i := range devices {
		result = append(result, *toDeviceResponse(&devices[i]))
	}

	return result, total, nil
}

func (s *deviceService) Update(ctx context.Context, id string, req *dto.UpdateDeviceRequest, callerID string) (*dto.DeviceResponse, error) {
	device, err := s.repo.Device.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrDeviceNotFound
		}
		s.logger.Error("查询控制点失败", zap.String("id", id), zap.Error(err))
		return nil, err
	}

	if req.Name != nil {
		device.Name = *req.Name
	}
	if req.Location != nil {
		device.Location = *req.Location
	}
	if req.Description != nil {
		device.Description = *req.Description
	}
	if req.IsActive != nil {
		device.IsActive = *req.IsActive
	}

	device.UpdatedBy = &callerID

	if err := s.repo.Device.Update(ctx, device); err != nil {
		s.logger.Error("更新控制点失败", zap.String("id", id), zap.Error(err))
		return nil, err
	}

	return toDeviceResponse(device), nil
}

func (s *deviceService) Delete(ctx context.Context, id string, callerID string) error {
	_, err := s.repo.Device.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrDeviceNotFound
		}
		s.logger.Error("查询控制点失败", zap.String("id", id), zap.Error(err))
		return err
	}

	if err := s.repo.Device.Delete(ctx, id, callerID); err != nil {
		s.logger.Error("删除控制点失败", zap.String("id", id), zap.Error(err))
		return err
	}

	return nil
}

// ── 内部辅助方法 ──

func toDeviceResponse(device *model.Device) *dto.DeviceResponse {
	return &dto.DeviceResponse{
		ID:          device.DeviceID,
		Name:        device.Name,
		Location:    device.Location,
		Description: device.Description,
		IsActive:    device.IsActive,
		CreatedAt:   device.CreatedAt.Format(time.RFC3339),
		UpdatedAt:   device.UpdatedAt.Format(time.RFC3339),
	}
}
