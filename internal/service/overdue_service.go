package service

import (
	"context"
	"time"

	"go.uber.org/zap"

	"sicet/backend/config"
	"sicet/backend/internal/dto"
	"sicet/backend/internal/model"
	"sicet/backend/internal/repository"
	"sicet/backend/pkg/mailer"
)

// OverdueService 逾期扫描业务接口
type OverdueService interface {
	// Scan 批量扫描逾期清单并发送通知。
	// 单条失败只计入 ErrorCount，不中断整批。
	Scan(ctx context.Context, now time.Time) (*dto.ScanResultResponse, error)
}

type overdueService struct {
	cfg    *config.Config
	repo   *repository.Repository
	mail   mailer.Mailer
	logger *zap.Logger
}

// NewOverdueService 创建 OverdueService 实例
func NewOverdueService(cfg *config.Config, repo *repository.Repository, mail mailer.Mailer, logger *zap.Logger) OverdueService {
	return &overdueService{cfg: cfg, repo: repo, mail: mail, logger: logger}
}

// Scan 的处理口径：
//   - 候选 = 未完成清单 × 该设备的有效逾期告警配置
//   - 已有成功发送记录的 (清单, 配置) 对跳过，保证不重复打扰
//   - 过了截止时刻才通知；发送失败也写日志行，ErrorMessage 记录原因
func (s *overdueService) Scan(ctx context.Context, now time.Time) (*dto.ScanResultResponse, error) {
	lists, err := s.repo.Todolist.ListUncompleted(ctx)
	if err != nil {
		s.logger.Error("逾期扫描：查询未完成清单失败", zap.Error(err))
		return nil, err
	}

	result := &dto.ScanResultResponse{}

	for i := range lists {
		list := &lists[i]
		result.ProcessedCount++

		if err := s.processList(ctx, list, now); err != nil {
			result.ErrorCount++
			s.logger.Error("逾期扫描：单条清单处理失败",
				zap.String("todolist_id", list.TodolistID),
				zap.Error(err),
			)
		}
	}

	s.logger.Info("逾期扫描完成",
		zap.Int("processed", result.ProcessedCount),
		zap.Int("errors", result.ErrorCount),
	)

	return result, nil
}

// processList 处理单条未完成清单：逐个有效告警配置判定并通知
func (s *overdueService) processList(ctx context.Context, list *model.Todolist, now time.Time) error {
	alerts, err := s.repo.Alert.ListActiveByDevice(ctx, list.DeviceID)
	if err != nil {
		return err
	}
	if len(alerts) == 0 {
		return nil
	}

	if !IsOverdue(list, now, s.cfg.Alert.ToleranceHours) {
		return nil
	}

	for i := range alerts {
		alert := &alerts[i]

		sent, err := s.repo.AlertLog.HasTodolistLog(ctx, list.TodolistID, alert.AlertID)
		if err != nil {
			return err
		}
		if sent {
			continue
		}

		if err := s.notify(ctx, list, alert, now); err != nil {
			return err
		}
	}

	return nil
}

// notify 发送逾期通知并写发送日志。
// 日志行始终写入：发送失败时 ErrorMessage 记录原因，下轮扫描会重试。
func (s *overdueService) notify(ctx context.Context, list *model.Todolist, alert *model.Alert, now time.Time) error {
	deviceName, deviceLocation := list.DeviceID, ""
	if list.Device != nil {
		deviceName = list.Device.Name
		deviceLocation = list.Device.Location
	}

	var pending []string
	for _, task := range list.Tasks {
		if task.Status == model.StatusCompleted {
			continue
		}
		name := task.KpiID
		if task.Kpi != nil {
			name = task.Kpi.Name
		}
		pending = append(pending, name)
	}

	sendErr := s.mail.SendOverdueNotice(&mailer.OverdueNotice{
		DeviceName:         deviceName,
		DeviceLocation:     deviceLocation,
		ScheduledExecution: list.ScheduledDate,
		SlotLabel:          list.TimeSlot.Format(),
		RecipientEmail:     alert.Email,
		Tasks:              pending,
	})

	log := &model.TodolistAlertLog{
		TodolistID: list.TodolistID,
		AlertID:    alert.AlertID,
		Email:      alert.Email,
		SentAt:     now,
	}
	if sendErr != nil {
		msg := sendErr.Error()
		log.ErrorMessage = &msg
		s.logger.Error("逾期通知发送失败",
			zap.String("todolist_id", list.TodolistID),
			zap.String("email", alert.Email),
			zap.Error(sendErr),
		)
	}

	if err := s.repo.AlertLog.CreateTodolistLog(ctx, log); err != nil {
		return err
	}

	return sendErr
}
