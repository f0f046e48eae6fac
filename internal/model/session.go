package model

import "time"

// DeviceToken 设备本地保存的（已加密）上游令牌，仅 mysql 存储使用
type DeviceToken struct {
	DeviceID  string     `gorm:"primaryKey;type:varchar(64)"`
	Sealed    string     `gorm:"type:text;not null"`
	ExpiresAt *time.Time `gorm:"index"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

func (DeviceToken) TableName() string {
	return "device_tokens"
}

// Session 当前设备的登录态
type Session struct {
	DeviceID  string    `json:"deviceId"`
	Token     string    `json:"-"`
	UserID    string    `json:"userId"`
	Role      UserRole  `json:"role"`
	ExpiresAt time.Time `json:"expiresAt,omitempty"`
}

func (s *Session) IsTeacher() bool {
	return s.Role == Teacher || s.Role == Admin
}
