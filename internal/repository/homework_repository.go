package repository

import (
	"context"
	"learning_portal/internal/model"
	"learning_portal/pkg/apiclient"
	"net/url"
)

type HomeworkRepository struct {
	API *apiclient.Client
}

func NewHomeworkRepository(api *apiclient.Client) *HomeworkRepository {
	return &HomeworkRepository{API: api}
}

func homeworkPath(id string) string {
	return "/homework/" + url.PathEscape(id)
}

func (r *HomeworkRepository) List(ctx context.Context, token string, query url.Values) ([]model.Homework, error) {
	var list []model.Homework
	err := r.API.WithToken(token).Get(ctx, "/homework", query, &list)
	return list, err
}

func (r *HomeworkRepository) Get(ctx context.Context, token, id string) (*model.Homework, error) {
	var hw model.Homework
	if err := r.API.WithToken(token).Get(ctx, homeworkPath(id), nil, &hw); err != nil {
		return nil, err
	}
	return &hw, nil
}

func (r *HomeworkRepository) Create(ctx context.Context, token string, form model.HomeworkForm) (*model.Homework, error) {
	var hw model.Homework
	if err := r.API.WithToken(token).Post(ctx, "/homework", form, &hw); err != nil {
		return nil, err
	}
	return &hw, nil
}

func (r *HomeworkRepository) Update(ctx context.Context, token, id string, form model.HomeworkForm) (*model.Homework, error) {
	var hw model.Homework
	if err := r.API.WithToken(token).Put(ctx, homeworkPath(id), form, &hw); err != nil {
		return nil, err
	}
	return &hw, nil
}

// SetStatus 发布 / 截止
func (r *HomeworkRepository) SetStatus(ctx context.Context, token, id string, status model.HomeworkStatus) (*model.Homework, error) {
	action := "publish"
	if status == model.HomeworkClosed {
		action = "close"
	}
	var hw model.Homework
	if err := r.API.WithToken(token).Post(ctx, homeworkPath(id)+"/"+action, struct{}{}, &hw); err != nil {
		return nil, err
	}
	return &hw, nil
}

func (r *HomeworkRepository) Delete(ctx context.Context, token, id string) error {
	return r.API.WithToken(token).Delete(ctx, homeworkPath(id), nil)
}

func (r *HomeworkRepository) Submit(ctx context.Context, token, id string, content string, attachments []model.Attachment) (*model.Submission, error) {
	var sub model.Submission
	err := r.API.WithToken(token).Post(ctx, homeworkPath(id)+"/submissions", map[string]interface{}{
		"content":     content,
		"attachments": attachments,
	}, &sub)
	if err != nil {
		return nil, err
	}
	return &sub, nil
}

func (r *HomeworkRepository) Grade(ctx context.Context, token, id, submissionID string, in model.GradeInput) (*model.Submission, error) {
	var sub model.Submission
	path := homeworkPath(id) + "/submissions/" + url.PathEscape(submissionID) + "/grade"
	if err := r.API.WithToken(token).Put(ctx, path, in, &sub); err != nil {
		return nil, err
	}
	return &sub, nil
}
