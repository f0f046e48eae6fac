package model

import "time"

type DoubtStatus string

const (
	DoubtPending    DoubtStatus = "pending"
	DoubtInProgress DoubtStatus = "in_progress"
	DoubtResolved   DoubtStatus = "resolved"
)

// swagger:model Doubt
type Doubt struct {
	ID        string      `json:"id"`
	Subject   string      `json:"subject,omitempty"`
	Title     string      `json:"title"`
	StudentID string      `json:"studentId"`
	TeacherID string      `json:"teacherId,omitempty"`
	Status    DoubtStatus `json:"status"`
	Messages  []Message   `json:"messages,omitempty"`
	UpdatedAt *time.Time  `json:"updatedAt,omitempty"`
}

// swagger:model Message
type Message struct {
	ID          string    `json:"id"`
	DoubtID     string    `json:"doubtId"`
	SenderID    string    `json:"senderId"`
	SenderRole  UserRole  `json:"senderRole,omitempty"`
	Content     string    `json:"content"`
	CreatedAt   time.Time `json:"createdAt"`
	ClientMsgID string    `json:"clientMsgId,omitempty"`
	// Pending 乐观发送、尚未被服务端确认
	Pending bool `json:"pending,omitempty"`
}

type NewDoubt struct {
	Subject string `json:"subject"`
	Title   string `json:"title"`
	Message string `json:"message"`
}
