package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"sicet/backend/config"
	"sicet/backend/internal/dto"
	"sicet/backend/internal/model"
	"sicet/backend/internal/repository"
)

// ── 巡检清单模块业务错误 ──

var (
	ErrTodolistNotFound      = errors.New("巡检清单不存在")
	ErrTaskNotFound          = errors.New("任务不存在")
	ErrTaskAlreadyCompleted  = errors.New("任务已完成，不可重复提交")
	ErrValueMissingRequired  = errors.New("记录值缺少必填字段")
	ErrScheduleInvalidDate   = errors.New("排定日期格式无效")
)

// TodolistService 巡检清单业务接口
type TodolistService interface {
	// Schedule 批量排定：设备 × 日期 × 时间段 每个组合创建一条清单
	Schedule(ctx context.Context, req *dto.ScheduleTodolistsRequest, callerID string) (*dto.ScheduleTodolistsResponse, error)
	GetByID(ctx context.Context, id string) (*dto.TodolistResponse, error)
	List(ctx context.Context, req *dto.TodolistListRequest) ([]dto.TodolistResponse, int64, error)
	// CompleteTask 记录任务值并完成任务，维护清单状态不变量，触发取值告警评估
	CompleteTask(ctx context.Context, todolistID, taskID string, req *dto.CompleteTaskRequest, callerID string) (*dto.TodolistResponse, error)
}

type todolistService struct {
	cfg      *config.Config
	repo     *repository.Repository
	alertSvc AlertService
	logger   *zap.Logger
}

// NewTodolistService 创建 TodolistService 实例
func NewTodolistService(cfg *config.Config, repo *repository.Repository, alertSvc AlertService, logger *zap.Logger) TodolistService {
	return &todolistService{cfg: cfg, repo: repo, alertSvc: alertSvc, logger: logger}
}

// ────────────────────── Schedule ──────────────────────

func (s *todolistService) Schedule(ctx context.Context, req *dto.ScheduleTodolistsRequest, callerID string) (*dto.ScheduleTodolistsResponse, error) {
	// 1. 校验设备
	devices, err := s.repo.Device.ListByIDs(ctx, req.DeviceIDs)
	if err != nil {
		s.logger.Error("查询设备失败", zap.Error(err))
		return nil, err
	}
	if len(devices) != len(req.DeviceIDs) {
		return nil, ErrDeviceNotFound
	}

	// 2. 校验 KPI
	kpis, err := s.repo.Kpi.ListByIDs(ctx, req.KpiIDs)
	if err != nil {
		s.logger.Error("查询控制项失败", zap.Error(err))
		return nil, err
	}
	if len(kpis) != len(req.KpiIDs) {
		return nil, ErrKpiNotFound
	}

	// 3. 解析时间段
	slots := make([]model.TimeSlot, 0, len(req.TimeSlots))
	for _, raw := range req.TimeSlots {
		slot, err := model.ParseTimeSlot(raw)
		if err != nil {
			return nil, err
		}
		slots = append(slots, slot)
	}

	// 4. 解析日期
	dates := make([]time.Time, 0, len(req.Dates))
	for _, raw := range req.Dates {
		d, err := time.ParseInLocation("2006-01-02", raw, time.Local)
		if err != nil {
			return nil, fmt.Errorf("%w: %q", ErrScheduleInvalidDate, raw)
		}
		dates = append(dates, d)
	}

	// 5. 生成清单：每个 设备 × 日期 × 时间段 组合一条，
	//    截止时刻预计算入 end_day_time 缓存
	tolerance := s.cfg.Alert.ToleranceHours
	var lists []model.Todolist
	for _, deviceID := range req.DeviceIDs {
		for _, date := range dates {
			for _, slot := range slots {
				deadline, err := ComputeDeadline(date, slot, tolerance)
				if err != nil {
					return nil, err
				}

				tasks := make([]model.Task, 0, len(req.KpiIDs))
				for _, kpiID := range req.KpiIDs {
					tasks = append(tasks, model.Task{
						KpiID:  kpiID,
						Status: model.StatusPending,
					})
				}

				list := model.Todolist{
					DeviceID:      deviceID,
					ScheduledDate: date,
					TimeSlot:      slot,
					Status:        model.StatusPending,
					Category:      req.Category,
					EndDayTime:    &deadline,
					Tasks:         tasks,
				}
				list.CreatedBy = &callerID
				list.UpdatedBy = &callerID
				lists = append(lists, list)
			}
		}
	}

	if err := s.repo.Todolist.CreateBatch(ctx, lists); err != nil {
		s.logger.Error("批量创建清单失败", zap.Int("count", len(lists)), zap.Error(err))
		return nil, err
	}

	ids := make([]string, 0, len(lists))
	for i := range lists {
		ids = append(ids, lists[i].TodolistID)
	}

	s.logger.Info("批量排定完成",
		zap.Int("created", len(lists)),
		zap.Int("devices", len(req.DeviceIDs)),
		zap.Int("dates", len(dates)),
		zap.Int("slots", len(slots)),
	)

	return &dto.ScheduleTodolistsResponse{
		CreatedCount: len(lists),
		TodolistIDs:  ids,
	}, nil
}

// ────────────────────── GetByID ──────────────────────

func (s *todolistService) GetByID(ctx context.Context, id string) (*dto.TodolistResponse, error) {
	list, err := s.repo.Todolist.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrTodolistNotFound
		}
		s.logger.Error("查询清单失败", zap.String("id", id), zap.Error(err))
		return nil, err
	}

	return s.toTodolistResponse(list, time.Now()), nil
}

// ────────────────────── List ──────────────────────

func (s *todolistService) List(ctx context.Context, req *dto.TodolistListRequest) ([]dto.TodolistResponse, int64, error) {
	filter := repository.TodolistFilter{
		DeviceID: req.DeviceID,
		Status:   req.Status,
		Offset:   (req.Page - 1) * req.PageSize,
		Limit:    req.PageSize,
	}
	if req.DateFrom != "" {
		d, err := time.ParseInLocation("2006-01-02", req.DateFrom, time.Local)
		if err != nil {
			return nil, 0, fmt.Errorf("%w: %q", ErrScheduleInvalidDate, req.DateFrom)
		}
		filter.DateFrom = &d
	}
	if req.DateTo != "" {
		d, err := time.ParseInLocation("2006-01-02", req.DateTo, time.Local)
		if err != nil {
			return nil, 0, fmt.Errorf("%w: %q", ErrScheduleInvalidDate, req.DateTo)
		}
		filter.DateTo = &d
	}

	lists, total, err := s.repo.Todolist.List(ctx, filter)
	if err != nil {
		s.logger.Error("列出清单失败", zap.Error(err))
		return nil, 0, err
	}

	now := time.Now()
	result := make([]dto.TodolistResponse, 0, len(lists))
	for i := range lists {
		result = append(result, *s.toTodolistResponse(&lists[i], now))
	}

	return result, total, nil
}

// ────────────────────── CompleteTask ──────────────────────

func (s *todolistService) CompleteTask(ctx context.Context, todolistID, taskID string, req *dto.CompleteTaskRequest, callerID string) (*dto.TodolistResponse, error) {
	// 1. 加载清单（含任务与 KPI）
	list, err := s.repo.Todolist.GetByID(ctx, todolistID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrTodolistNotFound
		}
		s.logger.Error("查询清单失败", zap.String("id", todolistID), zap.Error(err))
		return nil, err
	}

	// 2. 定位任务
	var task *model.Task
	for i := range list.Tasks {
		if list.Tasks[i].TaskID == taskID {
			task = &list.Tasks[i]
			break
		}
	}
	if task == nil {
		return nil, ErrTaskNotFound
	}
	if task.Status == model.StatusCompleted {
		return nil, ErrTaskAlreadyCompleted
	}

	// 3. 必填字段校验（字段结构来自 KPI 定义）
	if task.Kpi != nil {
		for _, f := range task.Kpi.Fields {
			if f.Required {
				if _, ok := req.RecordedValue[f.ID]; !ok {
					return nil, fmt.Errorf("%w: %q", ErrValueMissingRequired, f.ID)
				}
			}
		}
	}

	// 4. 完成任务
	now := time.Now()
	task.Status = model.StatusCompleted
	task.RecordedValue = req.RecordedValue
	task.CompletedAt = &now
	task.UpdatedBy = &callerID

	if err := s.repo.Todolist.UpdateTask(ctx, task); err != nil {
		s.logger.Error("更新任务失败", zap.String("task_id", taskID), zap.Error(err))
		return nil, err
	}

	// 5. 维护清单状态不变量
	derived := list.DeriveStatus()
	if derived != list.Status {
		list.Status = derived
		if derived == model.StatusCompleted {
			list.CompletionDate = &now
		}
		list.UpdatedBy = &callerID
		if err := s.repo.Todolist.Update(ctx, list); err != nil {
			s.logger.Error("更新清单状态失败", zap.String("id", todolistID), zap.Error(err))
			return nil, err
		}
	}

	// 6. 取值告警评估：失败只记日志，绝不中断本次提交
	if task.Kpi != nil {
		if err := s.alertSvc.HandleTaskValue(ctx, task, task.Kpi, list.DeviceID); err != nil {
			s.logger.Error("取值告警处理失败",
				zap.String("task_id", taskID),
				zap.String("kpi_id", task.KpiID),
				zap.Error(err),
			)
		}
	}

	return s.toTodolistResponse(list, now), nil
}

// ── 内部辅助方法 ──

func (s *todolistService) toTodolistResponse(list *model.Todolist, now time.Time) *dto.TodolistResponse {
	resp := &dto.TodolistResponse{
		ID:             list.TodolistID,
		DeviceID:       list.DeviceID,
		ScheduledDate:  list.ScheduledDate.Format("2006-01-02"),
		TimeSlot:       list.TimeSlot.Encode(),
		TimeSlotLabel:  list.TimeSlot.Format(),
		Status:         list.Status,
		Classification: Classify(list, now, s.cfg.Alert.ToleranceHours),
		Category:       list.Category,
	}

	if list.CompletionDate != nil {
		v := list.CompletionDate.Format(time.RFC3339)
		resp.CompletionDate = &v
	}
	if list.EndDayTime != nil {
		v := list.EndDayTime.Format(time.RFC3339)
		resp.Deadline = &v
	}
	if list.Device != nil {
		resp.Device = &dto.DeviceBrief{
			ID:       list.Device.DeviceID,
			Name:     list.Device.Name,
			Location: list.Device.Location,
		}
	}

	for i := range list.Tasks {
		task := &list.Tasks[i]
		tr := dto.TaskResponse{
			ID:            task.TaskID,
			KpiID:         task.KpiID,
			Status:        task.Status,
			RecordedValue: task.RecordedValue,
		}
		if task.CompletedAt != nil {
			v := task.CompletedAt.Format(time.RFC3339)
			tr.CompletedAt = &v
		}
		if task.Kpi != nil {
			tr.Kpi = &dto.KpiBrief{ID: task.Kpi.KpiID, Name: task.Kpi.Name}
		}
		resp.Tasks = append(resp.Tasks, tr)
	}

	return resp
}
