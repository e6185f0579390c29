package model

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
)

// ── KPI 字段类型 ──

const (
	FieldText     = "text"
	FieldTextarea = "textarea"
	FieldNumber   = "number"
	FieldDecimal  = "decimal"
	FieldDate     = "date"
	FieldBoolean  = "boolean"
	FieldSelect   = "select"
)

// FieldDef KPI 单个字段定义。
// 历史任务引用后定义视为不可变，编辑只影响后续使用。
type FieldDef struct {
	ID       string   `json:"id"`
	Name     string   `json:"name"`
	Type     string   `json:"type"`
	Required bool     `json:"required"`
	Min      *float64 `json:"min,omitempty"`
	Max      *float64 `json:"max,omitempty"`
	Options  []string `json:"options,omitempty"` // select 类型的可选值
}

// FieldDefs 有序字段定义列表，JSONB 持久化。
type FieldDefs []FieldDef

// Scan 反序列化 JSONB 字段定义
func (f *FieldDefs) Scan(src interface{}) error {
	if src == nil {
		*f = nil
		return nil
	}
	var b []byte
	switch v := src.(type) {
	case []byte:
		b = v
	case string:
		b = []byte(v)
	default:
		return fmt.Errorf("FieldDefs.Scan: unsupported type %T", src)
	}
	return json.Unmarshal(b, f)
}

// Value 序列化为 JSONB
func (f FieldDefs) Value() (driver.Value, error) {
	if f == nil {
		return nil, nil
	}
	return json.Marshal(f)
}

// FindByID 按字段ID查找定义
func (f FieldDefs) FindByID(id string) (FieldDef, bool) {
	for _, fd := range f {
		if fd.ID == id {
			return fd, true
		}
	}
	return FieldDef{}, false
}

// Kpi 控制项（KPI，带类型的字段结构定义）表 — 对应 kpis
type Kpi struct {
	KpiID       string    `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"kpi_id"`
	Name        string    `gorm:"type:varchar(100);not null"                     json:"name"`
	Description string    `gorm:"type:text"                                      json:"description"`
	Fields      FieldDefs `gorm:"type:jsonb;not null;default:'[]'"               json:"fields"`
	IsActive    bool      `gorm:"not null;default:true"                          json:"is_active"`
	VersionedModel
}

// TableName 指定表名
func (Kpi) TableName() string { return "kpis" }
