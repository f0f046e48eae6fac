package service

import (
	"context"
	"learning_portal/internal/model"
	"learning_portal/internal/repository"
	"learning_portal/internal/util"
	"net/url"
	"strings"
	"time"
)

type AttendanceService struct {
	Repo *repository.AttendanceRepository
}

func NewAttendanceService(repo *repository.AttendanceRepository) *AttendanceService {
	return &AttendanceService{Repo: repo}
}

// Records 日期区间内的考勤记录及汇总，from/to 为空时由上游决定默认区间
func (s *AttendanceService) Records(ctx context.Context, sess *model.Session, from, to, classID string) (*model.AttendanceView, error) {
	q := url.Values{}
	if from != "" {
		if _, err := util.ParseDate(from); err != nil {
			return nil, util.Invalid("from", "invalid date %q", from)
		}
		q.Set("from", from)
	}
	if to != "" {
		if _, err := util.ParseDate(to); err != nil {
			return nil, util.Invalid("to", "invalid date %q", to)
		}
		q.Set("to", to)
	}
	if classID != "" {
		q.Set("classId", classID)
	}
	records, err := s.Repo.ListAttendance(ctx, sess.Token, q)
	if err != nil {
		return nil, err
	}
	if records == nil {
		records = []model.AttendanceRecord{}
	}
	return &model.AttendanceView{Records: records, Summary: Summarize(records)}, nil
}

// Summarize 出勤率把迟到计为出勤，请假不计入分母
func Summarize(records []model.AttendanceRecord) model.AttendanceSummary {
	var sum model.AttendanceSummary
	for _, r := range records {
		switch r.Status {
		case model.Present:
			sum.Present++
		case model.Absent:
			sum.Absent++
		case model.Late:
			sum.Late++
		case model.Excused:
			sum.Excused++
		default:
			continue
		}
		sum.Total++
	}
	sum.Percent = percent(sum.Present+sum.Late, sum.Total-sum.Excused)
	return sum
}

func (s *AttendanceService) Mark(ctx context.Context, sess *model.Session, mark model.AttendanceMark) error {
	if !sess.IsTeacher() {
		return util.ErrPermissionDenied
	}
	if mark.ClassID == "" {
		return util.Invalid("classId", "choose a class")
	}
	if len(mark.Marks) == 0 {
		return util.Invalid("marks", "mark at least one student")
	}
	for student, st := range mark.Marks {
		switch st {
		case model.Present, model.Absent, model.Late, model.Excused:
		default:
			return util.Invalid("marks", "unknown status %q for %s", st, student)
		}
	}
	if mark.Date.IsZero() {
		mark.Date = time.Now()
	}
	return s.Repo.MarkAttendance(ctx, sess.Token, mark)
}

type LeaveService struct {
	Repo *repository.AttendanceRepository
}

func NewLeaveService(repo *repository.AttendanceRepository) *LeaveService {
	return &LeaveService{Repo: repo}
}

func (s *LeaveService) List(ctx context.Context, sess *model.Session, status string) ([]model.LeaveRequest, error) {
	q := url.Values{}
	if status != "" {
		q.Set("status", status)
	}
	return s.Repo.ListLeaves(ctx, sess.Token, q)
}

func ValidateLeave(req model.LeaveRequest) error {
	if req.FromDate.IsZero() || req.ToDate.IsZero() {
		return util.Invalid("fromDate", "choose the leave dates")
	}
	if req.ToDate.Before(req.FromDate) {
		return util.Invalid("toDate", "end date cannot be before start date")
	}
	if strings.TrimSpace(req.Reason) == "" {
		return util.Invalid("reason", "reason is required")
	}
	if strings.TrimSpace(req.Type) == "" {
		return util.Invalid("type", "choose a leave type")
	}
	return nil
}

func (s *LeaveService) Apply(ctx context.Context, sess *model.Session, req model.LeaveRequest) (*model.LeaveRequest, error) {
	req.Reason = strings.TrimSpace(req.Reason)
	if err := ValidateLeave(req); err != nil {
		return nil, err
	}
	req.ID = ""
	req.StudentID = sess.UserID
	req.Status = model.LeavePending
	return s.Repo.ApplyLeave(ctx, sess.Token, req)
}

// Cancel 只能撤回自己待审批的申请
func (s *LeaveService) Cancel(ctx context.Context, sess *model.Session, id string) error {
	leaves, err := s.Repo.ListLeaves(ctx, sess.Token, nil)
	if err != nil {
		return err
	}
	for _, l := range leaves {
		if l.ID != id {
			continue
		}
		if l.StudentID != "" && l.StudentID != sess.UserID {
			return util.ErrPermissionDenied
		}
		if l.Status != model.LeavePending {
			return util.Invalid("status", "only pending requests can be cancelled")
		}
		return s.Repo.CancelLeave(ctx, sess.Token, id)
	}
	return util.ErrNotFound
}

func (s *LeaveService) Review(ctx context.Context, sess *model.Session, id string, review model.LeaveReview) (*model.LeaveRequest, error) {
	if !sess.IsTeacher() {
		return nil, util.ErrPermissionDenied
	}
	if review.Status != model.LeaveApproved && review.Status != model.LeaveRejected {
		return nil, util.Invalid("status", "status must be approved or rejected")
	}
	return s.Repo.ReviewLeave(ctx, sess.Token, id, review)
}
