package model

import "time"

// swagger:model Notification
type Notification struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	Body      string    `json:"body"`
	Type      string    `json:"type,omitempty"`
	IsRead    bool      `json:"isRead"`
	CreatedAt time.Time `json:"createdAt"`
}

// NotificationSettings 通知开关，键为通知类别（homework/exams/doubts/...）
type NotificationSettings struct {
	Push     bool            `json:"push"`
	Email    bool            `json:"email"`
	Channels map[string]bool `json:"channels"`
}

type NotificationView struct {
	Items  []Notification `json:"items"`
	Unread int            `json:"unread"`
}

// SettingsPatch 只修改出现的开关
type SettingsPatch struct {
	Push     *bool           `json:"push,omitempty"`
	Email    *bool           `json:"email,omitempty"`
	Channels map[string]bool `json:"channels,omitempty"`
}
