package model

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"
)

// ── 告警条件类型 ──

const (
	CondNumeric = "numeric"
	CondText    = "text"
	CondBoolean = "boolean"
	CondSelect  = "select"
)

// AlertCondition 单字段告警条件。
// 每个条件只作用于某一个 KPI 的某一个字段。
//   - numeric: 记录值落在 [Min,Max] 之外时触发（两端可选）
//   - text:    记录文本包含 MatchText 时触发（命中即告警，不是缺失才告警）
//   - boolean: 记录布尔值与 Expected 不一致时触发
//   - select:  记录值属于 MatchValues 集合时触发
type AlertCondition struct {
	FieldID     string   `json:"field_id"`
	Type        string   `json:"type"`
	Min         *float64 `json:"min,omitempty"`
	Max         *float64 `json:"max,omitempty"`
	MatchText   *string  `json:"match_text,omitempty"`
	Expected    *bool    `json:"expected,omitempty"`
	MatchValues []string `json:"match_values,omitempty"`
}

// AlertConditions 条件列表，JSONB 持久化。
type AlertConditions []AlertCondition

// Scan 反序列化 JSONB 条件列表
func (a *AlertConditions) Scan(src interface{}) error {
	if src == nil {
		*a = nil
		return nil
	}
	var b []byte
	switch v := src.(type) {
	case []byte:
		b = v
	case string:
		b = []byte(v)
	default:
		return fmt.Errorf("AlertConditions.Scan: unsupported type %T", src)
	}
	return json.Unmarshal(b, a)
}

// Value 序列化为 JSONB
func (a AlertConditions) Value() (driver.Value, error) {
	if a == nil {
		return nil, nil
	}
	return json.Marshal(a)
}

// Alert 告警配置表 — 对应 alerts。
// DeviceID 非空表示逾期告警（作用于该设备的清单）；
// KpiID 非空表示取值告警（作用于该 KPI 的任务记录值，条件在 Conditions）。
type Alert struct {
	AlertID    string          `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"alert_id"`
	Name       string          `gorm:"type:varchar(100);not null"                     json:"name"`
	Email      string          `gorm:"type:varchar(255);not null"                     json:"email"`
	DeviceID   *string         `gorm:"type:uuid;index"                                json:"device_id,omitempty"`
	KpiID      *string         `gorm:"type:uuid;index"                                json:"kpi_id,omitempty"`
	Conditions AlertConditions `gorm:"type:jsonb"                                     json:"conditions,omitempty"`
	IsActive   bool            `gorm:"not null;default:true"                          json:"is_active"`
	VersionedModel

	// 关联
	Device *Device `gorm:"foreignKey:DeviceID;references:DeviceID" json:"device,omitempty"`
	Kpi    *Kpi    `gorm:"foreignKey:KpiID;references:KpiID"       json:"kpi,omitempty"`
}

// TableName 指定表名
func (Alert) TableName() string { return "alerts" }

// TodolistAlertLog 逾期通知发送日志表 — 对应 todolist_alert_logs。
// 发送失败时 ErrorMessage 记录原因，日志行始终写入。
type TodolistAlertLog struct {
	LogID        string    `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"log_id"`
	TodolistID   string    `gorm:"type:uuid;not null;index"                       json:"todolist_id"`
	AlertID      string    `gorm:"type:uuid;not null;index"                       json:"alert_id"`
	Email        string    `gorm:"type:varchar(255);not null"                     json:"email"`
	SentAt       time.Time `gorm:"type:timestamptz;not null"                      json:"sent_at"`
	ErrorMessage *string   `gorm:"type:text"                                      json:"error_message,omitempty"`
}

// TableName 指定表名
func (TodolistAlertLog) TableName() string { return "todolist_alert_logs" }

// KpiAlertLog KPI 取值告警触发日志表 — 对应 kpi_alert_logs。
type KpiAlertLog struct {
	LogID          string     `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"log_id"`
	AlertID        string     `gorm:"type:uuid;not null;index"                       json:"alert_id"`
	KpiID          string     `gorm:"type:uuid;not null;index"                       json:"kpi_id"`
	DeviceID       string     `gorm:"type:uuid;not null;index"                       json:"device_id"`
	TriggeredValue string     `gorm:"type:text;not null"                             json:"triggered_value"`
	TriggeredAt    time.Time  `gorm:"type:timestamptz;not null"                      json:"triggered_at"`
	EmailSent      bool       `gorm:"not null;default:false"                         json:"email_sent"`
	EmailSentAt    *time.Time `gorm:"type:timestamptz"                               json:"email_sent_at,omitempty"`
	ErrorMessage   *string    `gorm:"type:text"                                      json:"error_message,omitempty"`
}

// TableName 指定表名
func (KpiAlertLog) TableName() string { return "kpi_alert_logs" }
