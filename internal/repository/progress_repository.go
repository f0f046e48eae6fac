package repository

import (
	"context"
	"fmt"
	"learning_portal/internal/model"
	"learning_portal/pkg/apiclient"
	"net/url"
)

// ProgressRepository 视频观看进度与课程大纲完成度
type ProgressRepository struct {
	API *apiclient.Client
}

func NewProgressRepository(api *apiclient.Client) *ProgressRepository {
	return &ProgressRepository{API: api}
}

func lecturePath(courseID, lectureID string) string {
	return fmt.Sprintf("/courses/%s/lectures/%s", url.PathEscape(courseID), url.PathEscape(lectureID))
}

// GetLectureProgress 续播位置
func (r *ProgressRepository) GetLectureProgress(ctx context.Context, token, courseID, lectureID string) (*model.LectureProgress, error) {
	var p model.LectureProgress
	if err := r.API.WithToken(token).Get(ctx, lecturePath(courseID, lectureID)+"/progress", nil, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *ProgressRepository) SaveLectureProgress(ctx context.Context, token, courseID, lectureID string, currentTime, duration float64) error {
	return r.API.WithToken(token).Post(ctx, lecturePath(courseID, lectureID)+"/progress", map[string]float64{
		"currentTime": currentTime,
		"duration":    duration,
	}, nil)
}

func (r *ProgressRepository) MarkLectureComplete(ctx context.Context, token, courseID, lectureID string, watched, duration float64) error {
	return r.API.WithToken(token).Post(ctx, lecturePath(courseID, lectureID)+"/complete", map[string]float64{
		"watchedDuration": watched,
		"duration":        duration,
	}, nil)
}

func (r *ProgressRepository) GetSyllabusProgress(ctx context.Context, token, courseID string) (*model.SyllabusProgress, error) {
	var p model.SyllabusProgress
	if err := r.API.WithToken(token).Get(ctx, "/courses/"+url.PathEscape(courseID)+"/syllabus-progress", nil, &p); err != nil {
		return nil, err
	}
	return &p, nil
}
