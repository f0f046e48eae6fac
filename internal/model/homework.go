package model

import "time"

type HomeworkStatus string

const (
	HomeworkDraft     HomeworkStatus = "draft"
	HomeworkPublished HomeworkStatus = "published"
	HomeworkClosed    HomeworkStatus = "closed"
)

type TargetType string

const (
	TargetAll      TargetType = "all"
	TargetClass    TargetType = "class"
	TargetBatch    TargetType = "batch"
	TargetStudents TargetType = "students"
)

// AssignTarget 作业布置对象
type AssignTarget struct {
	Type       TargetType `json:"type"`
	ClassID    string     `json:"classId,omitempty"`
	BatchID    string     `json:"batchId,omitempty"`
	StudentIDs []string   `json:"studentIds,omitempty"`
}

type Attachment struct {
	Name string `json:"name"`
	URL  string `json:"url"`
	Type string `json:"type,omitempty"`
	Size int64  `json:"size,omitempty"`
}

// swagger:model Homework
type Homework struct {
	ID          string         `json:"id"`
	Title       string         `json:"title"`
	Description string         `json:"description,omitempty"`
	Subject     string         `json:"subject,omitempty"`
	Target      AssignTarget   `json:"target"`
	Status      HomeworkStatus `json:"status"`
	DueDate     *time.Time     `json:"dueDate,omitempty"`
	MaxMarks    float64        `json:"maxMarks"`
	Attachments []Attachment   `json:"attachments,omitempty"`
	TeacherID   string         `json:"teacherId,omitempty"`
	Submissions []Submission   `json:"submissions,omitempty"`
	// 学生视角下自己的提交
	MySubmission *Submission `json:"mySubmission,omitempty"`
}

type SubmissionStatus string

const (
	SubmissionPending   SubmissionStatus = "pending"
	SubmissionSubmitted SubmissionStatus = "submitted"
	SubmissionGraded    SubmissionStatus = "graded"
	SubmissionLate      SubmissionStatus = "late"
)

type Submission struct {
	ID          string           `json:"id"`
	HomeworkID  string           `json:"homeworkId"`
	StudentID   string           `json:"studentId"`
	StudentName string           `json:"studentName,omitempty"`
	Content     string           `json:"content,omitempty"`
	Attachments []Attachment     `json:"attachments,omitempty"`
	SubmittedAt *time.Time       `json:"submittedAt,omitempty"`
	Grade       *float64         `json:"grade,omitempty"`
	Feedback    string           `json:"feedback,omitempty"`
	Status      SubmissionStatus `json:"status"`
}

// HomeworkForm 教师端作业表单
type HomeworkForm struct {
	Title       string       `json:"title"`
	Description string       `json:"description"`
	Subject     string       `json:"subject"`
	Target      AssignTarget `json:"target"`
	DueDate     *time.Time   `json:"dueDate"`
	MaxMarks    float64      `json:"maxMarks"`
	Attachments []Attachment `json:"attachments,omitempty"`
}

type GradeInput struct {
	Grade    float64 `json:"grade"`
	Feedback string  `json:"feedback"`
}
