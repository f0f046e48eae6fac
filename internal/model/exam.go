package model

import "time"

type AttemptStatus string

const (
	AttemptNotStarted    AttemptStatus = "not_started"
	AttemptInProgress    AttemptStatus = "in_progress"
	AttemptSubmitted     AttemptStatus = "submitted"
	AttemptAutoSubmitted AttemptStatus = "auto_submitted"
)

// Finished 已交卷（含超时自动交卷）
func (s AttemptStatus) Finished() bool {
	return s == AttemptSubmitted || s == AttemptAutoSubmitted
}

// swagger:model Exam
type Exam struct {
	ID              string     `json:"id"`
	Title           string     `json:"title"`
	Subject         string     `json:"subject,omitempty"`
	StartTime       *time.Time `json:"startTime,omitempty"`
	EndTime         *time.Time `json:"endTime,omitempty"`
	DurationMinutes int        `json:"duration"`
	TotalMarks      float64    `json:"totalMarks"`
	QuestionCount   int        `json:"questionCount,omitempty"`
	IsPractice      bool       `json:"isPractice,omitempty"`
}

type Answer struct {
	QuestionID string   `json:"questionId"`
	Selected   []string `json:"selected,omitempty"`
	Text       string   `json:"text,omitempty"`
	Marked     bool     `json:"markedForReview,omitempty"`
}

// swagger:model Attempt
type Attempt struct {
	ID          string            `json:"id"`
	ExamID      string            `json:"examId"`
	Exam        *Exam             `json:"exam,omitempty"`
	Answers     map[string]Answer `json:"answers,omitempty"`
	Score       float64           `json:"score"`
	MaxScore    float64           `json:"maxScore"`
	Status      AttemptStatus     `json:"status"`
	StartedAt   *time.Time        `json:"startedAt,omitempty"`
	SubmittedAt *time.Time        `json:"submittedAt,omitempty"`
}

type ListingStatus string

const (
	ListingInProgress ListingStatus = "in_progress"
	ListingActive     ListingStatus = "active"
	ListingUpcoming   ListingStatus = "upcoming"
	ListingSubmitted  ListingStatus = "submitted"
	ListingEnded      ListingStatus = "ended"
)

// ListingPriority 考试列表排序优先级，越小越靠前
var ListingPriority = map[ListingStatus]int{
	ListingInProgress: 0,
	ListingActive:     1,
	ListingUpcoming:   2,
	ListingSubmitted:  3,
	ListingEnded:      4,
}

// ExamListing 考试列表中的一行
type ExamListing struct {
	Exam    Exam          `json:"exam"`
	Attempt *Attempt      `json:"attempt,omitempty"`
	Status  ListingStatus `json:"status"`
}
