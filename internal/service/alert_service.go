package service

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"sicet/backend/internal/dto"
	"sicet/backend/internal/model"
	"sicet/backend/internal/repository"
	"sicet/backend/pkg/mailer"
)

// ── 告警模块业务错误 ──

var (
	ErrAlertNotFound     = errors.New("告警配置不存在")
	ErrAlertScopeMissing = errors.New("告警配置必须指定设备或控制项之一")
)

// TriggeredCondition 单条触发结果：条件 + 命中的字段值 + 字段名
type TriggeredCondition struct {
	Condition  model.AlertCondition
	FieldName  string
	FieldValue string
	Detail     string
}

// AlertService 告警业务接口
type AlertService interface {
	Create(ctx context.Context, req *dto.CreateAlertRequest, callerID string) (*dto.AlertResponse, error)
	GetByID(ctx context.Context, id string) (*dto.AlertResponse, error)
	List(ctx context.Context, req *dto.AlertListRequest) ([]dto.AlertResponse, int64, error)
	Update(ctx context.Context, id string, req *dto.UpdateAlertRequest, callerID string) (*dto.AlertResponse, error)
	Delete(ctx context.Context, id string, callerID string) error
	// HandleTaskValue 任务记录值写入后的同步告警评估：
	// 命中条件则写触发日志并发送通知，任一失败只记日志，绝不让提交失败
	HandleTaskValue(ctx context.Context, task *model.Task, kpi *model.Kpi, deviceID string) error
}

type alertService struct {
	repo   *repository.Repository
	mail   mailer.Mailer
	logger *zap.Logger
}

// NewAlertService 创建 AlertService 实例
func NewAlertService(repo *repository.Repository, mail mailer.Mailer, logger *zap.Logger) AlertService {
	return &alertService{repo: repo, mail: mail, logger: logger}
}

// ════════════════════════════════════════════════════════════
// EvaluateConditions — 纯函数条件评估
// ════════════════════════════════════════════════════════════
//
// "触发" 的语义是"值得告警的状况成立"，不是"校验失败"：
//   - numeric:  值落在 [min,max] 之外（任一边界可省略）
//   - text:     禁用/关注的子串【出现】在记录文本中
//   - boolean:  记录值与期望值不一致（原因里始终带上实际/期望）
//   - select:   记录值属于关注集合
// 找不到对应字段的记录值时该条件跳过，不触发。

func EvaluateConditions(value model.JSONMap, fields model.FieldDefs, conditions model.AlertConditions) []TriggeredCondition {
	var triggered []TriggeredCondition

	for _, cond := range conditions {
		raw, ok := value[cond.FieldID]
		if !ok || raw == nil {
			continue
		}

		fieldName := cond.FieldID
		if fd, ok := fields.FindByID(cond.FieldID); ok {
			fieldName = fd.Name
		}

		switch cond.Type {
		case model.CondNumeric:
			num, ok := toFloat(raw)
			if !ok {
				continue
			}
			below := cond.Min != nil && num < *cond.Min
			above := cond.Max != nil && num > *cond.Max
			if below || above {
				detail := "fuori soglia"
				if below {
					detail = fmt.Sprintf("sotto il minimo %v", *cond.Min)
				} else if above {
					detail = fmt.Sprintf("sopra il massimo %v", *cond.Max)
				}
				triggered = append(triggered, TriggeredCondition{
					Condition:  cond,
					FieldName:  fieldName,
					FieldValue: formatValue(raw),
					Detail:     detail,
				})
			}

		case model.CondText:
			s, ok := raw.(string)
			if !ok || cond.MatchText == nil {
				continue
			}
			// 命中即告警：关注的子串出现在记录文本中才触发
			if strings.Contains(s, *cond.MatchText) {
				triggered = append(triggered, TriggeredCondition{
					Condition:  cond,
					FieldName:  fieldName,
					FieldValue: s,
					Detail:     fmt.Sprintf("contiene %q", *cond.MatchText),
				})
			}

		case model.CondBoolean:
			b, ok := raw.(bool)
			if !ok || cond.Expected == nil {
				continue
			}
			if b != *cond.Expected {
				triggered = append(triggered, TriggeredCondition{
					Condition:  cond,
					FieldName:  fieldName,
					FieldValue: strconv.FormatBool(b),
					Detail:     fmt.Sprintf("atteso %v, registrato %v", *cond.Expected, b),
				})
			}

		case model.CondSelect:
			s, ok := raw.(string)
			if !ok {
				continue
			}
			for _, mv := range cond.MatchValues {
				if s == mv {
					triggered = append(triggered, TriggeredCondition{
						Condition:  cond,
						FieldName:  fieldName,
						FieldValue: s,
						Detail:     "valore in lista di attenzione",
					})
					break
				}
			}
		}
	}

	return triggered
}

// toFloat 将 JSON 记录值安全转为 float64
func toFloat(raw interface{}) (float64, bool) {
	switch v := raw.(type) {
	case float64:
		return v, true
	case int:
		return float64(v), true
	case string:
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return 0, false
		}
		return f, true
	default:
		return 0, false
	}
}

func formatValue(raw interface{}) string {
	return fmt.Sprintf("%v", raw)
}

// ────────────────────── HandleTaskValue ──────────────────────

func (s *alertService) HandleTaskValue(ctx context.Context, task *model.Task, kpi *model.Kpi, deviceID string) error {
	alerts, err := s.repo.Alert.ListActiveByKpi(ctx, kpi.KpiID)
	if err != nil {
		return fmt.Errorf("查询 KPI 告警配置失败: %w", err)
	}

	for i := range alerts {
		alert := &alerts[i]
		triggered := EvaluateConditions(task.RecordedValue, kpi.Fields, alert.Conditions)
		if len(triggered) == 0 {
			continue
		}

		s.dispatchKpiAlert(ctx, alert, kpi, deviceID, triggered)
	}

	return nil
}

// dispatchKpiAlert 发送通知并写触发日志。
// 发送失败不影响日志写入，日志写入失败只记 zap 日志。
func (s *alertService) dispatchKpiAlert(ctx context.Context, alert *model.Alert, kpi *model.Kpi, deviceID string, triggered []TriggeredCondition) {
	deviceName, deviceLocation := deviceID, ""
	if device, err := s.repo.Device.GetByID(ctx, deviceID); err == nil {
		deviceName = device.Name
		deviceLocation = device.Location
	}

	parts := make([]string, 0, len(triggered))
	reasons := make([]mailer.TriggeredReason, 0, len(triggered))
	for _, tc := range triggered {
		parts = append(parts, fmt.Sprintf("%s=%s", tc.FieldName, tc.FieldValue))
		reasons = append(reasons, mailer.TriggeredReason{
			FieldName:  tc.FieldName,
			FieldValue: tc.FieldValue,
			Detail:     tc.Detail,
		})
	}
	triggeredValue := strings.Join(parts, "; ")

	now := time.Now()
	sendErr := s.mail.SendAlertNotice(&mailer.AlertNotice{
		KpiName:        kpi.Name,
		KpiDescription: kpi.Description,
		DeviceName:     deviceName,
		DeviceLocation: deviceLocation,
		TriggeredValue: triggeredValue,
		RecipientEmail: alert.Email,
		Reasons:        reasons,
	})

	log := &model.KpiAlertLog{
		AlertID:        alert.AlertID,
		KpiID:          kpi.KpiID,
		DeviceID:       deviceID,
		TriggeredValue: triggeredValue,
		TriggeredAt:    now,
		EmailSent:      sendErr == nil,
	}
	if sendErr == nil {
		log.EmailSentAt = &now
	} else {
		msg := sendErr.Error()
		log.ErrorMessage = &msg
		s.logger.Error("告警邮件发送失败",
			zap.String("alert_id", alert.AlertID),
			zap.String("email", alert.Email),
			zap.Error(sendErr),
		)
	}

	if err := s.repo.AlertLog.CreateKpiLog(ctx, log); err != nil {
		s.logger.Error("写入告警触发日志失败",
			zap.String("alert_id", alert.AlertID),
			zap.String("kpi_id", kpi.KpiID),
			zap.Error(err),
		)
	}
}

// ────────────────────── CRUD ──────────────────────

func (s *alertService) Create(ctx context.Context, req *dto.CreateAlertRequest, callerID string) (*dto.AlertResponse, error) {
	if req.DeviceID == nil && req.KpiID == nil {
		return nil, ErrAlertScopeMissing
	}

	if req.DeviceID != nil {
		if _, err := s.repo.Device.GetByID(ctx, *req.DeviceID); err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, ErrDeviceNotFound
			}
			return nil, err
		}
	}
	if req.KpiID != nil {
		if _, err := s.repo.Kpi.GetByID(ctx, *req.KpiID); err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, ErrKpiNotFound
			}
			return nil, err
		}
	}

	alert := &model.Alert{
		Name:       req.Name,
		Email:      req.Email,
		DeviceID:   req.DeviceID,
		KpiID:      req.KpiID,
		Conditions: req.Conditions,
		IsActive:   true,
	}
	alert.CreatedBy = &callerID
	alert.UpdatedBy = &callerID

	if err := s.repo.Alert.Create(ctx, alert); err != nil {
		s.logger.Error("创建告警配置失败", zap.Error(err))
		return nil, err
	}

	return toAlertResponse(alert), nil
}

func (s *alertService) GetByID(ctx context.Context, id string) (*dto.AlertResponse, error) {
	alert, err := s.repo.Alert.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrAlertNotFound
		}
		s.logger.Error("查询告警配置失败", zap.String("id", id), zap.Error(err))
		return nil, err
	}

	return toAlertResponse(alert), nil
}

func (s *alertService) List(ctx context.Context, req *dto.AlertListRequest) ([]dto.AlertResponse, int64, error) {
	offset := (req.Page - 1) * req.PageSize
	alerts, total, err := s.repo.Alert.List(ctx, offset, req.PageSize)
	if err != nil {
		s.logger.Error("列出告警配置失败", zap.Error(err))
		return nil, 0, err
	}

	result := make([]dto.AlertResponse, 0, len(alerts))
	for i := range alerts {
		result = append(result, *toAlertResponse(&alerts[i]))
	}

	return result, total, nil
}

func (s *alertService) Update(ctx context.Context, id string, req *dto.UpdateAlertRequest, callerID string) (*dto.AlertResponse, error) {
	alert, err := s.repo.Alert.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrAlertNotFound
		}
		s.logger.Error("查询告警配置失败", zap.String("id", id), zap.Error(err))
		return nil, err
	}

	if req.Name != nil {
		alert.Name = *req.Name
	}
	if req.Email != nil {
		alert.Email = *req.Email
	}
	if req.Conditions != nil {
		alert.Conditions = *req.Conditions
	}
	if req.IsActive != nil {
		alert.IsActive = *req.IsActive
	}

	alert.UpdatedBy = &callerID

	if err := s.repo.Alert.Update(ctx, alert); err != nil {
		s.logger.Error("更新告警配置失败", zap.String("id", id), zap.Error(err))
		return nil, err
	}

	return toAlertResponse(alert), nil
}

func (s *alertService) Delete(ctx context.Context, id string, callerID string) error {
	_, err := s.repo.Alert.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrAlertNotFound
		}
		s.logger.Error("查询告警配置失败", zap.String("id", id), zap.Error(err))
		return err
	}

	if err := s.repo.Alert.Delete(ctx, id, callerID); err != nil {
		s.logger.Error("删除告警配置失败", zap.String("id", id), zap.Error(err))
		return err
	}

	return nil
}

// ── 内部辅助方法 ──

func toAlertResponse(alert *model.Alert) *dto.AlertResponse {
	resp := &dto.AlertResponse{
		ID:         alert.AlertID,
		Name:       alert.Name,
		Email:      alert.Email,
		DeviceID:   alert.DeviceID,
		KpiID:      alert.KpiID,
		Conditions: alert.Conditions,
		IsActive:   alert.IsActive,
		CreatedAt:  alert.CreatedAt.Format(time.RFC3339),
	}
	if alert.Device != nil {
		resp.Device = &dto.DeviceBrief{
			ID:       alert.Device.DeviceID,
			Name:     alert.Device.Name,
			Location: alert.Device.Location,
		}
	}
	if alert.Kpi != nil {
		resp.Kpi = &dto.KpiBrief{ID: alert.Kpi.KpiID, Name: alert.Kpi.Name}
	}
	return resp
}
