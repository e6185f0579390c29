package model

import "time"

// ── 清单状态 ──

const (
	StatusPending    = "pending"
	StatusInProgress = "in_progress"
	StatusCompleted  = "completed"
	// StatusOverdue 仅作为派生分类值存在，不持久化到 status 列
	StatusOverdue = "overdue"
)

// Todolist 巡检清单实例表 — 对应 todolists。
// 一条记录代表某设备在某日期某时间段的一次排定巡检。
// 状态不变量：所有任务完成 → completed；部分完成 → in_progress；否则 pending。
type Todolist struct {
	TodolistID    string     `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"todolist_id"`
	DeviceID      string     `gorm:"type:uuid;not null;index"                       json:"device_id"`
	ScheduledDate time.Time  `gorm:"type:date;not null;index"                       json:"scheduled_date"`
	TimeSlot      TimeSlot   `gorm:"type:varchar(20);not null"                      json:"time_slot"`
	Status        string     `gorm:"type:varchar(20);not null;default:'pending'"    json:"status"`
	CompletionDate *time.Time `gorm:"type:timestamptz"                              json:"completion_date,omitempty"`
	Category      *string    `gorm:"type:varchar(100)"                              json:"category,omitempty"`
	// EndDayTime 预计算的截止时刻缓存（排定时写入）
	EndDayTime *time.Time `gorm:"type:timestamptz" json:"end_day_time,omitempty"`
	VersionedModel

	// 关联
	Device *Device `gorm:"foreignKey:DeviceID;references:DeviceID" json:"device,omitempty"`
	Tasks  []Task  `gorm:"foreignKey:TodolistID;references:TodolistID" json:"tasks,omitempty"`
}

// TableName 指定表名
func (Todolist) TableName() string { return "todolists" }

// KpiIDs 返回清单任务引用的去重 KPI ID 集合。
func (t *Todolist) KpiIDs() []string {
	seen := make(map[string]bool, len(t.Tasks))
	var ids []string
	for _, task := range t.Tasks {
		if !seen[task.KpiID] {
			seen[task.KpiID] = true
			ids = append(ids, task.KpiID)
		}
	}
	return ids
}

// DeriveStatus 按任务完成情况推导清单状态（状态不变量的唯一实现）。
func (t *Todolist) DeriveStatus() string {
	if len(t.Tasks) == 0 {
		return StatusPending
	}
	completed := 0
	for _, task := range t.Tasks {
		if task.Status == StatusCompleted {
			completed++
		}
	}
	switch {
	case completed == len(t.Tasks):
		return StatusCompleted
	case completed > 0:
		return StatusInProgress
	default:
		return StatusPending
	}
}

// Task 清单任务表 — 对应 tasks。
// RecordedValue 按 KPI 字段ID 存放操作员记录的值。
type Task struct {
	TaskID      string     `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"task_id"`
	TodolistID  string     `gorm:"type:uuid;not null;index"                       json:"todolist_id"`
	KpiID       string     `gorm:"type:uuid;not null;index"                       json:"kpi_id"`
	Status      string     `gorm:"type:varchar(20);not null;default:'pending'"    json:"status"`
	RecordedValue JSONMap  `gorm:"type:jsonb"                                     json:"recorded_value,omitempty"`
	CompletedAt *time.Time `gorm:"type:timestamptz"                               json:"completed_at,omitempty"`
	BaseModel

	// 关联
	Kpi *Kpi `gorm:"foreignKey:KpiID;references:KpiID" json:"kpi,omitempty"`
}

// TableName 指定表名
func (Task) TableName() string { return "tasks" }
