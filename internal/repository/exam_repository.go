package repository

import (
	"context"
	"learning_portal/internal/model"
	"learning_portal/pkg/apiclient"
	"net/url"
)

type ExamRepository struct {
	API *apiclient.Client
}

func NewExamRepository(api *apiclient.Client) *ExamRepository {
	return &ExamRepository{API: api}
}

func (r *ExamRepository) ListExams(ctx context.Context, token string) ([]model.Exam, error) {
	var exams []model.Exam
	err := r.API.WithToken(token).Get(ctx, "/exams", nil, &exams)
	return exams, err
}

func (r *ExamRepository) ListMyAttempts(ctx context.Context, token string) ([]model.Attempt, error) {
	var attempts []model.Attempt
	err := r.API.WithToken(token).Get(ctx, "/attempts/my", nil, &attempts)
	return attempts, err
}

func (r *ExamRepository) StartAttempt(ctx context.Context, token, examID string) (*model.Attempt, error) {
	var a model.Attempt
	if err := r.API.WithToken(token).Post(ctx, "/exams/"+url.PathEscape(examID)+"/attempts", struct{}{}, &a); err != nil {
		return nil, err
	}
	return &a, nil
}

func (r *ExamRepository) GetAttempt(ctx context.Context, token, attemptID string) (*model.Attempt, error) {
	var a model.Attempt
	if err := r.API.WithToken(token).Get(ctx, "/attempts/"+url.PathEscape(attemptID), nil, &a); err != nil {
		return nil, err
	}
	return &a, nil
}

func (r *ExamRepository) SaveAnswer(ctx context.Context, token, attemptID string, answer model.Answer) error {
	return r.API.WithToken(token).Put(ctx, "/attempts/"+url.PathEscape(attemptID)+"/answers", answer, nil)
}

func (r *ExamRepository) SubmitAttempt(ctx context.Context, token, attemptID string) (*model.Attempt, error) {
	var a model.Attempt
	if err := r.API.WithToken(token).Post(ctx, "/attempts/"+url.PathEscape(attemptID)+"/submit", struct{}{}, &a); err != nil {
		return nil, err
	}
	return &a, nil
}

func (r *ExamRepository) CreatePracticeTest(ctx context.Context, token string, cfg model.PracticeTestConfig) (*model.PracticeTest, error) {
	var t model.PracticeTest
	if err := r.API.WithToken(token).Post(ctx, "/practice-tests", cfg, &t); err != nil {
		return nil, err
	}
	return &t, nil
}

func (r *ExamRepository) StartPracticeTest(ctx context.Context, token, testID string) (*model.Attempt, error) {
	var a model.Attempt
	if err := r.API.WithToken(token).Post(ctx, "/practice-tests/"+url.PathEscape(testID)+"/start", struct{}{}, &a); err != nil {
		return nil, err
	}
	return &a, nil
}
