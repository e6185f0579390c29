package model

// Device 控制点（设备/位置）表 — 对应 devices
type Device struct {
	DeviceID    string `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"device_id"`
	Name        string `gorm:"type:varchar(100);not null"                     json:"name"`
	Location    string `gorm:"type:varchar(255)"                              json:"location"`
	Description string `gorm:"type:text"                                      json:"description"`
	IsActive    bool   `gorm:"not null;default:true"                          json:"is_active"`
	VersionedModel
}

// TableName 指定表名
func (Device) TableName() string { return "devices" }
