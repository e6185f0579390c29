package model

import (
	"database/sql/driver"
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// ── 时间段值对象 ──
//
// 时间段要么是固定班次（morning/afternoon/evening/night/full_day），
// 要么是自定义小时区间（结束小时可小于开始小时，表示跨午夜）。
// 数据库中以编码字符串持久化："morning" 或 "08:00-14:00"。

var ErrInvalidTimeSlot = errors.New("时间段编码无效")

// SlotKind 时间段类别
type SlotKind string

const (
	SlotStandard SlotKind = "standard"
	SlotCustom   SlotKind = "custom"
)

// 标准班次名称
const (
	SlotMorning   = "morning"
	SlotAfternoon = "afternoon"
	SlotEvening   = "evening"
	SlotNight     = "night"
	SlotFullDay   = "full_day"
)

// HourRange 小时区间 [StartHour, EndHour)
type HourRange struct {
	StartHour int
	EndHour   int
}

// StandardSlotHours 标准班次小时表（唯一权威来源）。
// 历史上曾存在多套不一致的班次表，统一采用逾期判定逻辑使用的这一套；
// 如需修正，只改这里。
var StandardSlotHours = map[string]HourRange{
	SlotMorning:   {StartHour: 6, EndHour: 12},
	SlotAfternoon: {StartHour: 12, EndHour: 18},
	SlotEvening:   {StartHour: 18, EndHour: 22},
	SlotNight:     {StartHour: 22, EndHour: 6}, // 跨午夜
	SlotFullDay:   {StartHour: 6, EndHour: 17},
}

// standardSlotLabels 班次显示名
var standardSlotLabels = map[string]string{
	SlotMorning:   "Mattina",
	SlotAfternoon: "Pomeriggio",
	SlotEvening:   "Sera",
	SlotNight:     "Notte",
	SlotFullDay:   "Giornata intera",
}

// TimeSlot 时间段值对象（不可变）。
// Kind=standard 时 Name 必填；Kind=custom 时 StartHour/EndHour 必填。
type TimeSlot struct {
	Kind      SlotKind `json:"kind"`
	Name      string   `json:"name,omitempty"`
	StartHour int      `json:"start_hour,omitempty"`
	EndHour   int      `json:"end_hour,omitempty"`
}

// StandardSlot 构造标准班次
func StandardSlot(name string) TimeSlot {
	return TimeSlot{Kind: SlotStandard, Name: name}
}

// CustomSlot 构造自定义时间段
func CustomSlot(startHour, endHour int) TimeSlot {
	return TimeSlot{Kind: SlotCustom, StartHour: startHour, EndHour: endHour}
}

// ParseTimeSlot 解析时间段编码。
// 接受标准班次名（"morning"）或自定义区间（"08:00-14:00"）。
func ParseTimeSlot(raw string) (TimeSlot, error) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return TimeSlot{}, ErrInvalidTimeSlot
	}

	if _, ok := StandardSlotHours[s]; ok {
		return StandardSlot(s), nil
	}

	// 自定义区间 "HH:MM-HH:MM"
	parts := strings.Split(s, "-")
	if len(parts) != 2 {
		return TimeSlot{}, fmt.Errorf("%w: %q", ErrInvalidTimeSlot, raw)
	}
	start, err := parseHour(parts[0])
	if err != nil {
		return TimeSlot{}, fmt.Errorf("%w: %q", ErrInvalidTimeSlot, raw)
	}
	end, err := parseHour(parts[1])
	if err != nil {
		return TimeSlot{}, fmt.Errorf("%w: %q", ErrInvalidTimeSlot, raw)
	}

	return CustomSlot(start, end), nil
}

// parseHour 解析 "HH:MM"，仅取小时部分，校验 0-23。
func parseHour(s string) (int, error) {
	s = strings.TrimSpace(s)
	hhmm := strings.SplitN(s, ":", 2)
	h, err := strconv.Atoi(hhmm[0])
	if err != nil {
		return 0, err
	}
	if h < 0 || h > 23 {
		return 0, fmt.Errorf("小时超出范围: %d", h)
	}
	return h, nil
}

// IsStandard 是否为标准班次
func (t TimeSlot) IsStandard() bool { return t.Kind == SlotStandard }

// IsCustom 是否为自定义时间段
func (t TimeSlot) IsCustom() bool { return t.Kind == SlotCustom }

// Hours 解析小时区间：标准班次查表，自定义直接返回。
func (t TimeSlot) Hours() (HourRange, error) {
	if t.IsStandard() {
		hr, ok := StandardSlotHours[t.Name]
		if !ok {
			return HourRange{}, fmt.Errorf("%w: 未知班次 %q", ErrInvalidTimeSlot, t.Name)
		}
		return hr, nil
	}
	return HourRange{StartHour: t.StartHour, EndHour: t.EndHour}, nil
}

// Encode 生成持久化编码（Parse 的逆运算）。
func (t TimeSlot) Encode() string {
	if t.IsStandard() {
		return t.Name
	}
	return fmt.Sprintf("%02d:00-%02d:00", t.StartHour, t.EndHour)
}

// Format 生成可读标签，如 "Mattina (fino alle 12:00)" / "Personalizzato (08:00-14:00)"。
func (t TimeSlot) Format() string {
	if t.IsStandard() {
		hr := StandardSlotHours[t.Name]
		label, ok := standardSlotLabels[t.Name]
		if !ok {
			label = t.Name
		}
		return fmt.Sprintf("%s (fino alle %02d:00)", label, hr.EndHour)
	}
	return fmt.Sprintf("Personalizzato (%02d:00-%02d:00)", t.StartHour, t.EndHour)
}

// ── GORM Scanner/Valuer ──

// Scan 从数据库编码字符串解析时间段。
func (t *TimeSlot) Scan(src interface{}) error {
	if src == nil {
		*t = TimeSlot{}
		return nil
	}
	var s string
	switch v := src.(type) {
	case []byte:
		s = string(v)
	case string:
		s = v
	default:
		return fmt.Errorf("TimeSlot.Scan: unsupported type %T", src)
	}
	parsed, err := ParseTimeSlot(s)
	if err != nil {
		return err
	}
	*t = parsed
	return nil
}

// Value 将时间段序列化为编码字符串。
func (t TimeSlot) Value() (driver.Value, error) {
	return t.Encode(), nil
}
