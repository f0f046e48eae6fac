package model

import "time"

type AttendanceStatus string

const (
	Present AttendanceStatus = "present"
	Absent  AttendanceStatus = "absent"
	Late    AttendanceStatus = "late"
	Excused AttendanceStatus = "excused"
)

// swagger:model AttendanceRecord
type AttendanceRecord struct {
	ID        string           `json:"id"`
	Date      time.Time        `json:"date"`
	Status    AttendanceStatus `json:"status"`
	ClassID   string           `json:"classId,omitempty"`
	StudentID string           `json:"studentId"`
	Remarks   string           `json:"remarks,omitempty"`
}

type AttendanceSummary struct {
	Present int     `json:"present"`
	Absent  int     `json:"absent"`
	Late    int     `json:"late"`
	Excused int     `json:"excused"`
	Total   int     `json:"total"`
	Percent float64 `json:"percent"`
}

type AttendanceView struct {
	Records []AttendanceRecord `json:"records"`
	Summary AttendanceSummary  `json:"summary"`
}

// AttendanceMark 教师点名
type AttendanceMark struct {
	ClassID string                      `json:"classId"`
	Date    time.Time                   `json:"date"`
	Marks   map[string]AttendanceStatus `json:"marks"`
}

type LeaveStatus string

const (
	LeavePending   LeaveStatus = "pending"
	LeaveApproved  LeaveStatus = "approved"
	LeaveRejected  LeaveStatus = "rejected"
	LeaveCancelled LeaveStatus = "cancelled"
)

// swagger:model LeaveRequest
type LeaveRequest struct {
	ID           string      `json:"id"`
	StudentID    string      `json:"studentId"`
	StudentName  string      `json:"studentName,omitempty"`
	FromDate     time.Time   `json:"fromDate"`
	ToDate       time.Time   `json:"toDate"`
	Reason       string      `json:"reason"`
	Type         string      `json:"type"`
	Status       LeaveStatus `json:"status"`
	ReviewerNote string      `json:"reviewerNote,omitempty"`
}

type LeaveReview struct {
	Status LeaveStatus `json:"status"`
	Note   string      `json:"note,omitempty"`
}
