package repository

import (
	"context"
	"learning_portal/internal/model"
	"learning_portal/pkg/apiclient"
	"net/url"
)

type CourseRepository struct {
	API *apiclient.Client
}

func NewCourseRepository(api *apiclient.Client) *CourseRepository {
	return &CourseRepository{API: api}
}

func (r *CourseRepository) List(ctx context.Context, token string, query url.Values) ([]model.Course, error) {
	var courses []model.Course
	err := r.API.WithToken(token).Get(ctx, "/courses", query, &courses)
	return courses, err
}

func (r *CourseRepository) ListEnrolled(ctx context.Context, token string) ([]model.Course, error) {
	var courses []model.Course
	err := r.API.WithToken(token).Get(ctx, "/courses/my", nil, &courses)
	return courses, err
}

func (r *CourseRepository) Get(ctx context.Context, token, courseID string) (*model.Course, error) {
	var course model.Course
	if err := r.API.WithToken(token).Get(ctx, "/courses/"+url.PathEscape(courseID), nil, &course); err != nil {
		return nil, err
	}
	return &course, nil
}

func (r *CourseRepository) Enroll(ctx context.Context, token, courseID string) error {
	return r.API.WithToken(token).Post(ctx, "/courses/"+url.PathEscape(courseID)+"/enroll", struct{}{}, nil)
}
