package service

import (
	"context"
	"errors"
	"testing"

	"go.uber.org/zap"

	"sicet/backend/config"
	"sicet/backend/internal/dto"
	"sicet/backend/internal/model"
	"sicet/backend/internal/repository"
	pkgerrors "sicet/backend/pkg/errors"
)

func setupTodolistTest() (TodolistService, *repository.Repository, *mockMailer) {
	cfg := &config.Config{}
	cfg.Alert.ToleranceHours = 3
	repo := newTestRepo()
	mail := newMockMailer()
	alertSvc := NewAlertService(repo, mail, zap.NewNop())
	svc := NewTodolistService(cfg, repo, alertSvc, zap.NewNop())
	return svc, repo, mail
}

func seedScheduleData(repo *repository.Repository) {
	ctx := context.Background()
	repo.Device.Create(ctx, &model.Device{DeviceID: "dev-1", Name: "Caldaia Nord", IsActive: true})
	repo.Device.Create(ctx, &model.Device{DeviceID: "dev-2", Name: "Pompa Sud", IsActive: true})
	repo.Kpi.Create(ctx, &model.Kpi{
		KpiID: "kpi-1", Name: "Pressione", IsActive: true,
		Fields: model.FieldDefs{
			{ID: "f-bar", Name: "Bar", Type: model.FieldNumber, Required: true},
			{ID: "f-note", Name: "Note", Type: model.FieldText},
		},
	})
	repo.Kpi.Create(ctx, &model.Kpi{KpiID: "kpi-2", Name: "Temperatura", IsActive: true})
}

// ════════════════════════════════════════════════════════════
// Schedule 测试
// ════════════════════════════════════════════════════════════

func TestTodolistService_Schedule_CartesianProduct(t *testing.T) {
	svc, repo, _ := setupTodolistTest()
	seedScheduleData(repo)

	req := &dto.ScheduleTodolistsRequest{
		DeviceIDs: []string{"dev-1", "dev-2"},
		Dates:     []string{"2024-03-01", "2024-03-02", "2024-03-03"},
		TimeSlots: []string{"morning", "evening"},
		KpiIDs:    []string{"kpi-1", "kpi-2"},
	}

	result, err := svc.Schedule(context.Background(), req, "admin-1")
	if err != nil {
		t.Fatalf("Schedule 应成功: %v", err)
	}

	// 2设备 × 3天 × 2时段 = 12条清单
	if result.CreatedCount != 12 {
		t.Errorf("期望创建12条，实际=%d", result.CreatedCount)
	}
	if len(result.TodolistIDs) != 12 {
		t.Errorf("期望返回12个ID，实际=%d", len(result.TodolistIDs))
	}

	// 每条清单2个任务、截止时刻已预计算
	list, err := repo.Todolist.GetByID(context.Background(), result.TodolistIDs[0])
	if err != nil {
		t.Fatalf("查询清单失败: %v", err)
	}
	if len(list.Tasks) != 2 {
		t.Errorf("期望每条清单2个任务，实际=%d", len(list.Tasks))
	}
	if list.EndDayTime == nil {
		t.Error("截止时刻缓存不应为空")
	}
	if list.Status != model.StatusPending {
		t.Errorf("新清单状态应为 pending，实际=%s", list.Status)
	}
}

func TestTodolistService_Schedule_CustomSlot(t *testing.T) {
	svc, repo, _ := setupTodolistTest()
	seedScheduleData(repo)

	req := &dto.ScheduleTodolistsRequest{
		DeviceIDs: []string{"dev-1"},
		Dates:     []string{"2024-03-01"},
		TimeSlots: []string{"08:00-14:00"},
		KpiIDs:    []string{"kpi-1"},
	}

	result, err := svc.Schedule(context.Background(), req, "admin-1")
	if err != nil {
		t.Fatalf("Schedule 应成功: %v", err)
	}

	list, _ := repo.Todolist.GetByID(context.Background(), result.TodolistIDs[0])
	if !list.TimeSlot.IsCustom() {
		t.Error("时间段应为 custom")
	}
	if list.TimeSlot.StartHour != 8 || list.TimeSlot.EndHour != 14 {
		t.Errorf("自定义区间解析错误: %d-%d", list.TimeSlot.StartHour, list.TimeSlot.EndHour)
	}
}

func TestTodolistService_Schedule_UnknownDevice(t *testing.T) {
	svc, repo, _ := setupTodolistTest()
	seedScheduleData(repo)

	req := &dto.ScheduleTodolistsRequest{
		DeviceIDs: []string{"dev-1", "dev-ghost"},
		Dates:     []string{"2024-03-01"},
		TimeSlots: []string{"morning"},
		KpiIDs:    []string{"kpi-1"},
	}

	_, err := svc.Schedule(context.Background(), req, "admin-1")
	if !errors.Is(err, ErrDeviceNotFound) {
		t.Errorf("期望 ErrDeviceNotFound，实际: %v", err)
	}
}

func TestTodolistService_Schedule_InvalidSlot(t *testing.T) {
	svc, repo, _ := setupTodolistTest()
	seedScheduleData(repo)

	req := &dto.ScheduleTodolistsRequest{
		DeviceIDs: []string{"dev-1"},
		Dates:     []string{"2024-03-01"},
		TimeSlots: []string{"siesta"},
		KpiIDs:    []string{"kpi-1"},
	}

	_, err := svc.Schedule(context.Background(), req, "admin-1")
	if !errors.Is(err, model.ErrInvalidTimeSlot) {
		t.Errorf("期望 ErrInvalidTimeSlot，实际: %v", err)
	}
}

// ════════════════════════════════════════════════════════════
// CompleteTask 测试
// ════════════════════════════════════════════════════════════

// scheduleOne 排定单条清单并返回其ID
func scheduleOne(t *testing.T, svc TodolistService) string {
	t.Helper()
	result, err := svc.Schedule(context.Background(), &dto.ScheduleTodolistsRequest{
		DeviceIDs: []string{"dev-1"},
		Dates:     []string{"2024-03-01"},
		TimeSlots: []string{"morning"},
		KpiIDs:    []string{"kpi-1", "kpi-2"},
	}, "admin-1")
	if err != nil {
		t.Fatalf("Schedule 应成功: %v", err)
	}
	return result.TodolistIDs[0]
}

// attachKpis mock 批量创建不会自动带出 Kpi 关联，手动补上
func attachKpis(repo *repository.Repository, listID string) {
	list, _ := repo.Todolist.GetByID(context.Background(), listID)
	for i := range list.Tasks {
		kpi, _ := repo.Kpi.GetByID(context.Background(), list.Tasks[i].KpiID)
		list.Tasks[i].Kpi = kpi
	}
}

func TestTodolistService_CompleteTask_StatusInvariant(t *testing.T) {
	svc, repo, _ := setupTodolistTest()
	seedScheduleData(repo)
	listID := scheduleOne(t, svc)
	attachKpis(repo, listID)

	list, _ := repo.Todolist.GetByID(context.Background(), listID)

	// 完成第1个任务（kpi-1 有必填字段 f-bar）→ in_progress
	resp, err := svc.CompleteTask(context.Background(), listID, list.Tasks[0].TaskID,
		&dto.CompleteTaskRequest{RecordedValue: model.JSONMap{"f-bar": float64(2.5)}}, "op-1")
	if err != nil {
		t.Fatalf("CompleteTask 应成功: %v", err)
	}
	if resp.Status != model.StatusInProgress {
		t.Errorf("部分完成期望 in_progress，实际=%s", resp.Status)
	}

	// 完成第2个任务 → completed，完成时间写入
	resp, err = svc.CompleteTask(context.Background(), listID, list.Tasks[1].TaskID,
		&dto.CompleteTaskRequest{RecordedValue: model.JSONMap{}}, "op-1")
	if err != nil {
		t.Fatalf("CompleteTask 应成功: %v", err)
	}
	if resp.Status != model.StatusCompleted {
		t.Errorf("全部完成期望 completed，实际=%s", resp.Status)
	}
	if resp.CompletionDate == nil {
		t.Error("完成时间不应为空")
	}
}

func TestTodolistService_CompleteTask_MissingRequiredField(t *testing.T) {
	svc, repo, _ := setupTodolistTest()
	seedScheduleData(repo)
	listID := scheduleOne(t, svc)
	attachKpis(repo, listID)

	list, _ := repo.Todolist.GetByID(context.Background(), listID)

	// kpi-1 的 f-bar 必填
	_, err := svc.CompleteTask(context.Background(), listID, list.Tasks[0].TaskID,
		&dto.CompleteTaskRequest{RecordedValue: model.JSONMap{"f-note": "ok"}}, "op-1")
	if !errors.Is(err, ErrValueMissingRequired) {
		t.Errorf("期望 ErrValueMissingRequired，实际: %v", err)
	}
}

func TestTodolistService_CompleteTask_AlreadyCompleted(t *testing.T) {
	svc, repo, _ := setupTodolistTest()
	seedScheduleData(repo)
	listID := scheduleOne(t, svc)
	attachKpis(repo, listID)

	list, _ := repo.Todolist.GetByID(context.Background(), listID)
	taskID := list.Tasks[0].TaskID
	value := &dto.CompleteTaskRequest{RecordedValue: model.JSONMap{"f-bar": float64(1)}}

	if _, err := svc.CompleteTask(context.Background(), listID, taskID, value, "op-1"); err != nil {
		t.Fatalf("第一次提交应成功: %v", err)
	}
	_, err := svc.CompleteTask(context.Background(), listID, taskID, value, "op-1")
	if !errors.Is(err, ErrTaskAlreadyCompleted) {
		t.Errorf("期望 ErrTaskAlreadyCompleted，实际: %v", err)
	}
}

func TestTodolistService_CompleteTask_TriggersAlert(t *testing.T) {
	svc, repo, mail := setupTodolistTest()
	seedScheduleData(repo)

	// kpi-1 的 f-bar 上限 5：提交 9.2 触发告警
	kid := "kpi-1"
	repo.Alert.Create(context.Background(), &model.Alert{
		AlertID: "alert-1", Name: "Pressione alta", Email: "tecnico@example.com",
		KpiID: &kid, IsActive: true,
		Conditions: model.AlertConditions{
			{FieldID: "f-bar", Type: model.CondNumeric, Max: floatPtr(5)},
		},
	})

	listID := scheduleOne(t, svc)
	attachKpis(repo, listID)
	list, _ := repo.Todolist.GetByID(context.Background(), listID)

	_, err := svc.CompleteTask(context.Background(), listID, list.Tasks[0].TaskID,
		&dto.CompleteTaskRequest{RecordedValue: model.JSONMap{"f-bar": float64(9.2)}}, "op-1")
	if err != nil {
		t.Fatalf("CompleteTask 应成功: %v", err)
	}

	if len(mail.alertSent) != 1 {
		t.Fatalf("期望发送1封告警邮件，实际=%d", len(mail.alertSent))
	}
	logRepo := repo.AlertLog.(*mockAlertLogRepo)
	if len(logRepo.kpiLogs) != 1 {
		t.Errorf("期望1条触发日志，实际=%d", len(logRepo.kpiLogs))
	}
}

func TestTodolistService_CompleteTask_AlertFailureDoesNotAbort(t *testing.T) {
	svc, repo, mail := setupTodolistTest()
	seedScheduleData(repo)
	mail.failWith = "smtp down"

	kid := "kpi-1"
	repo.Alert.Create(context.Background(), &model.Alert{
		AlertID: "alert-1", Name: "Pressione alta", Email: "tecnico@example.com",
		KpiID: &kid, IsActive: true,
		Conditions: model.AlertConditions{
			{FieldID: "f-bar", Type: model.CondNumeric, Max: floatPtr(5)},
		},
	})

	listID := scheduleOne(t, svc)
	attachKpis(repo, listID)
	list, _ := repo.Todolist.GetByID(context.Background(), listID)

	// 告警链路失败绝不影响值写入
	resp, err := svc.CompleteTask(context.Background(), listID, list.Tasks[0].TaskID,
		&dto.CompleteTaskRequest{RecordedValue: model.JSONMap{"f-bar": float64(9.2)}}, "op-1")
	if err != nil {
		t.Fatalf("邮件失败不应使提交失败: %v", err)
	}
	if resp.Tasks[0].Status != model.StatusCompleted && resp.Tasks[1].Status != model.StatusCompleted {
		t.Error("任务应已完成")
	}
}

func TestTodolistService_GetByID_NotFound(t *testing.T) {
	svc, _, _ := setupTodolistTest()

	_, err := svc.GetByID(context.Background(), "tl-ghost")
	if !errors.Is(err, ErrTodolistNotFound) {
		t.Errorf("期望 ErrTodolistNotFound，实际: %v", err)
	}
}

func TestTodolistUpdate_StaleVersionConflict(t *testing.T) {
	svc, repo, _ := setupTodolistTest()
	seedScheduleData(repo)
	id := scheduleOne(t, svc)

	ctx := context.Background()
	list, err := repo.Todolist.GetByID(ctx, id)
	if err != nil {
		t.Fatalf("查询清单失败: %v", err)
	}

	// 基于同一版本的两份副本，先提交的赢
	stale := *list
	list.Status = model.StatusInProgress
	if err := repo.Todolist.Update(ctx, list); err != nil {
		t.Fatalf("第一次更新应成功: %v", err)
	}

	stale.Status = model.StatusCompleted
	if err := repo.Todolist.Update(ctx, &stale); !errors.Is(err, pkgerrors.ErrOptimisticLock) {
		t.Errorf("期望 ErrOptimisticLock，实际: %v", err)
	}
}
