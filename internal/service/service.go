package service

import (
	"go.uber.org/zap"

	"sicet/backend/config"
	"sicet/backend/internal/repository"
	"sicet/backend/pkg/jwt"
	"sicet/backend/pkg/mailer"
	"sicet/backend/pkg/redis"
)

// Service 所有 Service 的聚合入口
type Service struct {
	Auth     AuthService
	User     UserService
	Device   DeviceService
	Kpi      KpiService
	Todolist TodolistService
	Alert    AlertService
	Overdue  OverdueService
	Matrix   MatrixService
	Export   ExportService
}

// NewService 创建 Service 聚合
func NewService(
	cfg *config.Config,
	repo *repository.Repository,
	jwtMgr *jwt.Manager,
	rdb *redis.Client,
	mail mailer.Mailer,
	logger *zap.Logger,
) *Service {
	alertSvc := NewAlertService(repo, mail, logger)
	matrixSvc := NewMatrixService(repo, logger)

	return &Service{
		Auth:     NewAuthService(cfg, repo, jwtMgr, rdb, logger),
		User:     NewUserService(repo, logger),
		Device:   NewDeviceService(repo, logger),
		Kpi:      NewKpiService(repo, logger),
		Todolist: NewTodolistService(cfg, repo, alertSvc, logger),
		Alert:    alertSvc,
		Overdue:  NewOverdueService(cfg, repo, mail, logger),
		Matrix:   matrixSvc,
		Export:   NewExportService(matrixSvc, logger),
	}
}
