package service

import (
	"context"
	"learning_portal/internal/model"
	"learning_portal/internal/repository"
	"learning_portal/pkg/logger"
	"math"
	"net/url"
	"sort"
	"strings"

	"go.uber.org/zap"
)

type CourseService struct {
	CourseRepo   *repository.CourseRepository
	ProgressRepo *repository.ProgressRepository
}

func NewCourseService(courseRepo *repository.CourseRepository, progressRepo *repository.ProgressRepository) *CourseService {
	return &CourseService{CourseRepo: courseRepo, ProgressRepo: progressRepo}
}

// List 全部课程，可按学科与关键字过滤
func (s *CourseService) List(ctx context.Context, sess *model.Session, subject, search string) ([]model.Course, error) {
	q := url.Values{}
	if subject = strings.TrimSpace(subject); subject != "" {
		q.Set("subject", subject)
	}
	if search = strings.TrimSpace(search); search != "" {
		q.Set("search", search)
	}
	return s.CourseRepo.List(ctx, sess.Token, q)
}

func (s *CourseService) MyCourses(ctx context.Context, sess *model.Session) ([]model.Course, error) {
	return s.CourseRepo.ListEnrolled(ctx, sess.Token)
}

func (s *CourseService) Detail(ctx context.Context, sess *model.Session, courseID string) (*model.Course, error) {
	return s.CourseRepo.Get(ctx, sess.Token, courseID)
}

// Enroll 报名后重新拉取详情，返回最新的报名状态
func (s *CourseService) Enroll(ctx context.Context, sess *model.Session, courseID string) (*model.Course, error) {
	if err := s.CourseRepo.Enroll(ctx, sess.Token, courseID); err != nil {
		return nil, err
	}
	return s.CourseRepo.Get(ctx, sess.Token, courseID)
}

// Syllabus 课程大纲及每章完成度；进度拉取失败时按全部未完成展示
func (s *CourseService) Syllabus(ctx context.Context, sess *model.Session, courseID string) (*model.SyllabusView, error) {
	course, err := s.CourseRepo.Get(ctx, sess.Token, courseID)
	if err != nil {
		return nil, err
	}
	var completed []string
	if p, err := s.ProgressRepo.GetSyllabusProgress(ctx, sess.Token, courseID); err != nil {
		logger.Log.Debug("Syllabus progress unavailable", zap.String("courseId", courseID), zap.Error(err))
	} else {
		completed = p.CompletedLectureIDs
	}
	return BuildSyllabusView(course, completed), nil
}

func BuildSyllabusView(course *model.Course, completedIDs []string) *model.SyllabusView {
	done := make(map[string]bool, len(completedIDs))
	for _, id := range completedIDs {
		done[id] = true
	}

	sections := append([]model.Section(nil), course.Syllabus...)
	sort.SliceStable(sections, func(i, j int) bool { return sections[i].Order < sections[j].Order })

	view := &model.SyllabusView{Course: course, Done: map[string]bool{}, Sections: make([]model.SectionProgress, 0, len(sections))}
	total, finished := 0, 0
	for _, sec := range sections {
		sp := model.SectionProgress{SectionID: sec.ID, Title: sec.Title, Total: len(sec.Lectures)}
		for _, l := range sec.Lectures {
			if done[l.ID] {
				sp.Completed++
				view.Done[l.ID] = true
			}
		}
		sp.Percent = percent(sp.Completed, sp.Total)
		total += sp.Total
		finished += sp.Completed
		view.Sections = append(view.Sections, sp)
	}
	view.Percent = percent(finished, total)
	return view
}

// percent 保留一位小数
func percent(part, total int) float64 {
	if total == 0 {
		return 0
	}
	return math.Round(float64(part)*1000/float64(total)) / 10
}
