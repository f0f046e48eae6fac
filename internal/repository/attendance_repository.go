package repository

import (
	"context"
	"learning_portal/internal/model"
	"learning_portal/pkg/apiclient"
	"net/url"
)

// AttendanceRepository 考勤与请假
type AttendanceRepository struct {
	API *apiclient.Client
}

func NewAttendanceRepository(api *apiclient.Client) *AttendanceRepository {
	return &AttendanceRepository{API: api}
}

func (r *AttendanceRepository) ListAttendance(ctx context.Context, token string, query url.Values) ([]model.AttendanceRecord, error) {
	var list []model.AttendanceRecord
	err := r.API.WithToken(token).Get(ctx, "/attendance", query, &list)
	return list, err
}

func (r *AttendanceRepository) MarkAttendance(ctx context.Context, token string, mark model.AttendanceMark) error {
	return r.API.WithToken(token).Post(ctx, "/attendance", mark, nil)
}

func (r *AttendanceRepository) ListLeaves(ctx context.Context, token string, query url.Values) ([]model.LeaveRequest, error) {
	var list []model.LeaveRequest
	err := r.API.WithToken(token).Get(ctx, "/leaves", query, &list)
	return list, err
}

func (r *AttendanceRepository) ApplyLeave(ctx context.Context, token string, req model.LeaveRequest) (*model.LeaveRequest, error) {
	var out model.LeaveRequest
	err := r.API.WithToken(token).Post(ctx, "/leaves", map[string]interface{}{
		"fromDate": req.FromDate,
		"toDate":   req.ToDate,
		"reason":   req.Reason,
		"type":     req.Type,
	}, &out)
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (r *AttendanceRepository) CancelLeave(ctx context.Context, token, id string) error {
	return r.API.WithToken(token).Delete(ctx, "/leaves/"+url.PathEscape(id), nil)
}

func (r *AttendanceRepository) ReviewLeave(ctx context.Context, token, id string, review model.LeaveReview) (*model.LeaveRequest, error) {
	var out model.LeaveRequest
	if err := r.API.WithToken(token).Patch(ctx, "/leaves/"+url.PathEscape(id), review, &out); err != nil {
		return nil, err
	}
	return &out, nil
}
