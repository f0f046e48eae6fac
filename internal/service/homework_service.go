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

type HomeworkService struct {
	Repo *repository.HomeworkRepository
	now  func() time.Time
}

func NewHomeworkService(repo *repository.HomeworkRepository) *HomeworkService {
	return &HomeworkService{Repo: repo, now: time.Now}
}

func (s *HomeworkService) List(ctx context.Context, sess *model.Session, status string) ([]model.Homework, error) {
	q := url.Values{}
	if status != "" {
		q.Set("status", status)
	}
	return s.Repo.List(ctx, sess.Token, q)
}

func (s *HomeworkService) Detail(ctx context.Context, sess *model.Session, id string) (*model.Homework, error) {
	return s.Repo.Get(ctx, sess.Token, id)
}

func (s *HomeworkService) Submit(ctx context.Context, sess *model.Session, id, content string, attachments []model.Attachment) (*model.Submission, error) {
	if sess.IsTeacher() {
		return nil, util.ErrPermissionDenied
	}
	content = strings.TrimSpace(content)
	if content == "" && len(attachments) == 0 {
		return nil, util.Invalid("content", "write an answer or attach a file")
	}
	return s.Repo.Submit(ctx, sess.Token, id, content, attachments)
}

// Submissions 教师查看作业的全部提交，随详情一并返回
func (s *HomeworkService) Submissions(ctx context.Context, sess *model.Session, id string) ([]model.Submission, error) {
	if !sess.IsTeacher() {
		return nil, util.ErrPermissionDenied
	}
	hw, err := s.Repo.Get(ctx, sess.Token, id)
	if err != nil {
		return nil, err
	}
	if hw.Submissions == nil {
		return []model.Submission{}, nil
	}
	return hw.Submissions, nil
}

// ValidateHomeworkForm 草稿与发布共用的校验
func ValidateHomeworkForm(f model.HomeworkForm) error {
	if strings.TrimSpace(f.Title) == "" {
		return util.Invalid("title", "title is required")
	}
	switch f.Target.Type {
	case model.TargetAll:
	case model.TargetClass:
		if f.Target.ClassID == "" {
			return util.Invalid("target", "choose a class")
		}
	case model.TargetBatch:
		if f.Target.BatchID == "" {
			return util.Invalid("target", "choose a batch")
		}
	case model.TargetStudents:
		if len(f.Target.StudentIDs) == 0 {
			return util.Invalid("target", "choose at least one student")
		}
	default:
		return util.Invalid("target", "unknown target %q", f.Target.Type)
	}
	if f.MaxMarks < 0 {
		return util.Invalid("maxMarks", "max marks cannot be negative")
	}
	return nil
}

// Create 新作业以草稿保存
func (s *HomeworkService) Create(ctx context.Context, sess *model.Session, f model.HomeworkForm) (*model.Homework, error) {
	if !sess.IsTeacher() {
		return nil, util.ErrPermissionDenied
	}
	f.Title = strings.TrimSpace(f.Title)
	if err := ValidateHomeworkForm(f); err != nil {
		return nil, err
	}
	return s.Repo.Create(ctx, sess.Token, f)
}

func (s *HomeworkService) Update(ctx context.Context, sess *model.Session, id string, f model.HomeworkForm) (*model.Homework, error) {
	if !sess.IsTeacher() {
		return nil, util.ErrPermissionDenied
	}
	f.Title = strings.TrimSpace(f.Title)
	if err := ValidateHomeworkForm(f); err != nil {
		return nil, err
	}
	return s.Repo.Update(ctx, sess.Token, id, f)
}

// Publish 发布前要求截止时间在未来
func (s *HomeworkService) Publish(ctx context.Context, sess *model.Session, id string) (*model.Homework, error) {
	if !sess.IsTeacher() {
		return nil, util.ErrPermissionDenied
	}
	hw, err := s.Repo.Get(ctx, sess.Token, id)
	if err != nil {
		return nil, err
	}
	if hw.Status == model.HomeworkPublished {
		return hw, nil
	}
	if hw.DueDate == nil || !hw.DueDate.After(s.now()) {
		return nil, util.Invalid("dueDate", "due date must be in the future")
	}
	return s.Repo.SetStatus(ctx, sess.Token, id, model.HomeworkPublished)
}

func (s *HomeworkService) Close(ctx context.Context, sess *model.Session, id string) (*model.Homework, error) {
	if !sess.IsTeacher() {
		return nil, util.ErrPermissionDenied
	}
	return s.Repo.SetStatus(ctx, sess.Token, id, model.HomeworkClosed)
}

func (s *HomeworkService) Delete(ctx context.Context, sess *model.Session, id string) error {
	if !sess.IsTeacher() {
		return util.ErrPermissionDenied
	}
	return s.Repo.Delete(ctx, sess.Token, id)
}

// Grade 分数必须在 0..满分 之间
func (s *HomeworkService) Grade(ctx context.Context, sess *model.Session, id, submissionID string, in model.GradeInput) (*model.Submission, error) {
	if !sess.IsTeacher() {
		return nil, util.ErrPermissionDenied
	}
	hw, err := s.Repo.Get(ctx, sess.Token, id)
	if err != nil {
		return nil, err
	}
	if in.Grade < 0 || (hw.MaxMarks > 0 && in.Grade > hw.MaxMarks) {
		return nil, util.Invalid("grade", "grade must be between 0 and %g", hw.MaxMarks)
	}
	return s.Repo.Grade(ctx, sess.Token, id, submissionID, in)
}
