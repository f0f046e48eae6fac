package service

import (
	"context"
	"learning_portal/internal/model"
	"learning_portal/internal/util"
	"learning_portal/pkg/logger"
	"sort"
	"strings"
	"time"

	"github.com/sourcegraph/conc"
	"go.uber.org/zap"
)

// ExamAPI 考试与作答上游接口
type ExamAPI interface {
	ListExams(ctx context.Context, token string) ([]model.Exam, error)
	ListMyAttempts(ctx context.Context, token string) ([]model.Attempt, error)
	StartAttempt(ctx context.Context, token, examID string) (*model.Attempt, error)
	GetAttempt(ctx context.Context, token, attemptID string) (*model.Attempt, error)
	SaveAnswer(ctx context.Context, token, attemptID string, answer model.Answer) error
	SubmitAttempt(ctx context.Context, token, attemptID string) (*model.Attempt, error)
}

type ExamService struct {
	Repo ExamAPI
	now  func() time.Time
}

func NewExamService(repo ExamAPI) *ExamService {
	return &ExamService{Repo: repo, now: time.Now}
}

// Listings 考试列表：并发拉取考试与我的作答，按状态优先级排序
func (s *ExamService) Listings(ctx context.Context, sess *model.Session) ([]model.ExamListing, error) {
	var (
		exams       []model.Exam
		attempts    []model.Attempt
		examErr     error
		attemptsErr error
	)
	var wg conc.WaitGroup
	wg.Go(func() { exams, examErr = s.Repo.ListExams(ctx, sess.Token) })
	wg.Go(func() { attempts, attemptsErr = s.Repo.ListMyAttempts(ctx, sess.Token) })
	wg.Wait()

	if examErr != nil {
		return nil, examErr
	}
	// 作答记录拉取失败时按未作答处理
	if attemptsErr != nil {
		logger.Log.Warn("Attempts unavailable, listing exams by schedule only",
			zap.String("deviceId", sess.DeviceID), zap.Error(attemptsErr))
		attempts = nil
	}
	return BuildListings(exams, attempts, s.now()), nil
}

// BuildListings 为每场考试推导列表状态并排序
func BuildListings(exams []model.Exam, attempts []model.Attempt, now time.Time) []model.ExamListing {
	latest := make(map[string]*model.Attempt, len(attempts))
	for i := range attempts {
		a := &attempts[i]
		if cur, ok := latest[a.ExamID]; !ok || attemptNewer(a, cur) {
			latest[a.ExamID] = a
		}
	}

	out := make([]model.ExamListing, 0, len(exams))
	for _, e := range exams {
		l := model.ExamListing{Exam: e, Attempt: latest[e.ID]}
		l.Status = listingStatus(e, l.Attempt, now)
		out = append(out, l)
	}
	SortListings(out)
	return out
}

func attemptNewer(a, b *model.Attempt) bool {
	// 进行中的作答优先
	if (a.Status == model.AttemptInProgress) != (b.Status == model.AttemptInProgress) {
		return a.Status == model.AttemptInProgress
	}
	if a.StartedAt == nil || b.StartedAt == nil {
		return a.StartedAt != nil
	}
	return a.StartedAt.After(*b.StartedAt)
}

func listingStatus(e model.Exam, a *model.Attempt, now time.Time) model.ListingStatus {
	if a != nil {
		if a.Status == model.AttemptInProgress {
			return model.ListingInProgress
		}
		if a.Status.Finished() {
			return model.ListingSubmitted
		}
	}
	if e.StartTime != nil && now.Before(*e.StartTime) {
		return model.ListingUpcoming
	}
	if e.EndTime != nil && now.After(*e.EndTime) {
		return model.ListingEnded
	}
	return model.ListingActive
}

// SortListings 按 in_progress < active < upcoming < submitted < ended 稳定排序，同级按开始时间
func SortListings(list []model.ExamListing) {
	sort.SliceStable(list, func(i, j int) bool {
		pi, pj := model.ListingPriority[list[i].Status], model.ListingPriority[list[j].Status]
		if pi != pj {
			return pi < pj
		}
		si, sj := list[i].Exam.StartTime, list[j].Exam.StartTime
		if si == nil || sj == nil {
			return si != nil && sj == nil
		}
		return si.Before(*sj)
	})
}

func (s *ExamService) StartAttempt(ctx context.Context, sess *model.Session, examID string) (*model.Attempt, error) {
	return s.Repo.StartAttempt(ctx, sess.Token, examID)
}

func (s *ExamService) GetAttempt(ctx context.Context, sess *model.Session, attemptID string) (*model.Attempt, error) {
	return s.Repo.GetAttempt(ctx, sess.Token, attemptID)
}

// SaveAnswer 保存单题答案，交卷前可反复覆盖
func (s *ExamService) SaveAnswer(ctx context.Context, sess *model.Session, attemptID string, answer model.Answer) error {
	if strings.TrimSpace(answer.QuestionID) == "" {
		return util.Invalid("questionId", "question id is required")
	}
	return s.Repo.SaveAnswer(ctx, sess.Token, attemptID, answer)
}

func (s *ExamService) SubmitAttempt(ctx context.Context, sess *model.Session, attemptID string) (*model.Attempt, error) {
	return s.Repo.SubmitAttempt(ctx, sess.Token, attemptID)
}
