package service

import (
	"time"

	"sicet/backend/internal/model"
)

// ── 截止时刻计算与逾期分类 ──
//
// 纯函数，不触碰任何外部资源；调用方负责参数校验。

// ComputeDeadline 计算清单的绝对截止时刻：
// 排定日期 + 时间段结束小时 + 宽限小时数。
//
// 跨午夜判定沿用历史实现：宽限加到结束小时后先对 24 取模，
// 再将新小时与【原结束小时】比较，小于才进位一天。
// 注意这不是通用的按 24 进位——自定义时段结束小时很小时
// （如 01:00 加 3 小时得 04:00）不会进位，属沿用行为，勿"修正"。
func ComputeDeadline(scheduledDate time.Time, slot model.TimeSlot, toleranceHours int) (time.Time, error) {
	hr, err := slot.Hours()
	if err != nil {
		return time.Time{}, err
	}

	newHour := hr.EndHour + toleranceHours
	if newHour >= 24 {
		newHour %= 24
	}

	dayOffset := 0
	if newHour < hr.EndHour {
		dayOffset = 1
	}

	// 本地挂钟语义：只在日期与小时字段上做算术，不做时区换算
	return time.Date(
		scheduledDate.Year(), scheduledDate.Month(), scheduledDate.Day()+dayOffset,
		newHour, 0, 0, 0,
		scheduledDate.Location(),
	), nil
}

// IsOverdue 判断清单在 now 时刻是否逾期。
// 已完成的清单永不逾期；时间段无效时视为不逾期（由调用方在入库时拦截）。
func IsOverdue(list *model.Todolist, now time.Time, toleranceHours int) bool {
	if list.Status == model.StatusCompleted {
		return false
	}
	deadline, err := ComputeDeadline(list.ScheduledDate, list.TimeSlot, toleranceHours)
	if err != nil {
		return false
	}
	return now.After(deadline)
}

// Classify 返回清单的派生分类：
// completed / overdue / in_progress / pending。
// 相同输入恒得相同结果（instance + now 的纯函数）。
func Classify(list *model.Todolist, now time.Time, toleranceHours int) string {
	derived := list.DeriveStatus()
	if derived == model.StatusCompleted {
		return model.StatusCompleted
	}
	if IsOverdue(list, now, toleranceHours) {
		return model.StatusOverdue
	}
	return derived
}
