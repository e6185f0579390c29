package service

import (
	"testing"
	"time"

	"sicet/backend/internal/model"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.Local)
}

// ════════════════════════════════════════════════════════════
// ComputeDeadline 测试
// ════════════════════════════════════════════════════════════

func TestComputeDeadline_StandardMorning(t *testing.T) {
	// 端到端场景：2024-01-10 上午班次（06:00–12:00）+ 3小时宽限 → 当天 15:00
	deadline, err := ComputeDeadline(date(2024, 1, 10), model.StandardSlot(model.SlotMorning), 3)
	if err != nil {
		t.Fatalf("ComputeDeadline 应成功: %v", err)
	}

	want := time.Date(2024, 1, 10, 15, 0, 0, 0, time.Local)
	if !deadline.Equal(want) {
		t.Errorf("期望 %v，实际=%v", want, deadline)
	}
}

func TestComputeDeadline_RolloverNextDay(t *testing.T) {
	// 晚班结束于 22 点，宽限 3 小时 → 25 点取模为 1 点，进位到次日
	deadline, err := ComputeDeadline(date(2024, 1, 10), model.StandardSlot(model.SlotEvening), 3)
	if err != nil {
		t.Fatalf("ComputeDeadline 应成功: %v", err)
	}

	want := time.Date(2024, 1, 11, 1, 0, 0, 0, time.Local)
	if !deadline.Equal(want) {
		t.Errorf("期望次日 01:00，实际=%v", deadline)
	}
}

func TestComputeDeadline_RolloverExactMidnight(t *testing.T) {
	// 22 + 2 = 24 → 0 点次日
	deadline, err := ComputeDeadline(date(2024, 1, 10), model.StandardSlot(model.SlotEvening), 2)
	if err != nil {
		t.Fatalf("ComputeDeadline 应成功: %v", err)
	}

	want := time.Date(2024, 1, 11, 0, 0, 0, 0, time.Local)
	if !deadline.Equal(want) {
		t.Errorf("期望次日 00:00，实际=%v", deadline)
	}
}

func TestComputeDeadline_CustomSlotSmallEndHour(t *testing.T) {
	// 自定义时段结束于 01:00，宽限 3 小时得 04:00：
	// 新小时(4) >= 原结束小时(1)，按现行算法不进位。
	// 这是沿用行为，测试钉住它防止被"好心修正"。
	deadline, err := ComputeDeadline(date(2024, 1, 10), model.CustomSlot(22, 1), 3)
	if err != nil {
		t.Fatalf("ComputeDeadline 应成功: %v", err)
	}

	want := time.Date(2024, 1, 10, 4, 0, 0, 0, time.Local)
	if !deadline.Equal(want) {
		t.Errorf("期望当天 04:00（不进位），实际=%v", deadline)
	}
}

func TestComputeDeadline_ZeroTolerance(t *testing.T) {
	deadline, err := ComputeDeadline(date(2024, 1, 10), model.StandardSlot(model.SlotAfternoon), 0)
	if err != nil {
		t.Fatalf("ComputeDeadline 应成功: %v", err)
	}

	want := time.Date(2024, 1, 10, 18, 0, 0, 0, time.Local)
	if !deadline.Equal(want) {
		t.Errorf("期望当天 18:00，实际=%v", deadline)
	}
}

func TestComputeDeadline_ToleranceMonotonicity(t *testing.T) {
	// 固定班次与日期下，宽限增加截止时刻不得提前
	scheduled := date(2024, 3, 15)
	for _, slotName := range []string{model.SlotMorning, model.SlotAfternoon, model.SlotEvening, model.SlotFullDay} {
		var prev time.Time
		for tol := 0; tol <= 23; tol++ {
			deadline, err := ComputeDeadline(scheduled, model.StandardSlot(slotName), tol)
			if err != nil {
				t.Fatalf("slot=%s tol=%d: %v", slotName, tol, err)
			}
			if tol > 0 && deadline.Before(prev) {
				t.Errorf("slot=%s: tol=%d 的截止时刻 %v 早于 tol=%d 的 %v",
					slotName, tol, deadline, tol-1, prev)
			}
			prev = deadline
		}
	}
}

func TestComputeDeadline_InvalidSlot(t *testing.T) {
	_, err := ComputeDeadline(date(2024, 1, 10), model.StandardSlot("siesta"), 3)
	if err == nil {
		t.Error("未知班次名应返回错误")
	}
}

// ════════════════════════════════════════════════════════════
// IsOverdue / Classify 测试
// ════════════════════════════════════════════════════════════

func morningList(status string) *model.Todolist {
	return &model.Todolist{
		TodolistID:    "tl-1",
		DeviceID:      "dev-1",
		ScheduledDate: date(2024, 1, 10),
		TimeSlot:      model.StandardSlot(model.SlotMorning),
		Status:        status,
	}
}

func TestIsOverdue_EndToEnd(t *testing.T) {
	list := morningList(model.StatusPending)

	// 截止 15:00：16:00 已逾期
	now := time.Date(2024, 1, 10, 16, 0, 0, 0, time.Local)
	if !IsOverdue(list, now, 3) {
		t.Error("16:00 应已逾期")
	}

	// 14:00 尚未逾期
	now = time.Date(2024, 1, 10, 14, 0, 0, 0, time.Local)
	if IsOverdue(list, now, 3) {
		t.Error("14:00 不应逾期")
	}
}

func TestIsOverdue_CompletedNeverOverdue(t *testing.T) {
	list := morningList(model.StatusCompleted)

	now := time.Date(2024, 6, 1, 12, 0, 0, 0, time.Local)
	if IsOverdue(list, now, 3) {
		t.Error("已完成的清单永不逾期")
	}
}

func TestClassify_OverdueImpliesNotCompleted(t *testing.T) {
	list := morningList(model.StatusPending)
	list.Tasks = []model.Task{
		{TaskID: "t1", KpiID: "kpi-1", Status: model.StatusPending},
	}

	now := time.Date(2024, 1, 10, 16, 0, 0, 0, time.Local)
	got := Classify(list, now, 3)
	if got != model.StatusOverdue {
		t.Fatalf("期望 overdue，实际=%s", got)
	}

	// 全部任务完成后同一时刻分类为 completed，不再是 overdue
	list.Tasks[0].Status = model.StatusCompleted
	list.Status = model.StatusCompleted
	got = Classify(list, now, 3)
	if got != model.StatusCompleted {
		t.Errorf("期望 completed，实际=%s", got)
	}
}

func TestClassify_Idempotent(t *testing.T) {
	list := morningList(model.StatusInProgress)
	list.Tasks = []model.Task{
		{TaskID: "t1", KpiID: "kpi-1", Status: model.StatusCompleted},
		{TaskID: "t2", KpiID: "kpi-2", Status: model.StatusPending},
	}

	now := time.Date(2024, 1, 10, 11, 0, 0, 0, time.Local)
	first := Classify(list, now, 3)
	second := Classify(list, now, 3)
	if first != second {
		t.Errorf("相同输入应得相同结果: %s != %s", first, second)
	}
	if first != model.StatusInProgress {
		t.Errorf("期望 in_progress，实际=%s", first)
	}
}

func TestClassify_PendingBeforeDeadline(t *testing.T) {
	list := morningList(model.StatusPending)
	list.Tasks = []model.Task{
		{TaskID: "t1", KpiID: "kpi-1", Status: model.StatusPending},
	}

	now := time.Date(2024, 1, 10, 8, 0, 0, 0, time.Local)
	if got := Classify(list, now, 3); got != model.StatusPending {
		t.Errorf("期望 pending，实际=%s", got)
	}
}
