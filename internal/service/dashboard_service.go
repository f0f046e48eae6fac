package service

import (
	"context"
	"learning_portal/internal/model"
	"learning_portal/pkg/logger"
	"sync"

	"github.com/sourcegraph/conc"
	"go.uber.org/zap"
)

const (
	SectionCourses       = "courses"
	SectionExams         = "exams"
	SectionHomework      = "homework"
	SectionNotifications = "notifications"
	SectionDoubts        = "doubts"
)

type DashboardService struct {
	CourseService       *CourseService
	ExamService         *ExamService
	HomeworkService     *HomeworkService
	NotificationService *NotificationService
	DoubtService        *DoubtService
}

func NewDashboardService(
	courseService *CourseService,
	examService *ExamService,
	homeworkService *HomeworkService,
	notificationService *NotificationService,
	doubtService *DoubtService,
) *DashboardService {
	return &DashboardService{
		CourseService:       courseService,
		ExamService:         examService,
		HomeworkService:     homeworkService,
		NotificationService: notificationService,
		DoubtService:        doubtService,
	}
}

// Dashboard 首页：各区块独立加载，失败的区块写入 Errors
type Dashboard struct {
	User        *model.Session      `json:"user"`
	MyCourses   []model.Course      `json:"myCourses"`
	Exams       []model.ExamListing `json:"exams"`
	Homework    []model.Homework    `json:"pendingHomework"`
	UnreadCount int                 `json:"unreadNotifications"`
	OpenDoubts  []model.Doubt       `json:"openDoubts"`
	Errors      map[string]string   `json:"errors,omitempty"`
}

// GetDashboard 并发拉取首页各区块，一个区块失败不影响其他区块
func (s *DashboardService) GetDashboard(ctx context.Context, sess *model.Session) *Dashboard {
	d := &Dashboard{User: sess}
	var (
		mu   sync.Mutex
		errs = map[string]string{}
	)
	fail := func(section string, err error) {
		logger.Log.Debug("Dashboard section failed", zap.String("section", section), zap.Error(err))
		mu.Lock()
		errs[section] = err.Error()
		mu.Unlock()
	}

	var wg conc.WaitGroup
	wg.Go(func() {
		courses, err := s.CourseService.MyCourses(ctx, sess)
		if err != nil {
			fail(SectionCourses, err)
			return
		}
		d.MyCourses = courses
	})
	wg.Go(func() {
		listings, err := s.ExamService.Listings(ctx, sess)
		if err != nil {
			fail(SectionExams, err)
			return
		}
		d.Exams = upcomingExams(listings)
	})
	wg.Go(func() {
		hw, err := s.HomeworkService.List(ctx, sess, string(model.HomeworkPublished))
		if err != nil {
			fail(SectionHomework, err)
			return
		}
		d.Homework = pendingHomework(hw)
	})
	wg.Go(func() {
		n, err := s.NotificationService.UnreadCount(ctx, sess)
		if err != nil {
			fail(SectionNotifications, err)
			return
		}
		d.UnreadCount = n
	})
	wg.Go(func() {
		doubts, err := s.DoubtService.List(ctx, sess, "")
		if err != nil {
			fail(SectionDoubts, err)
			return
		}
		d.OpenDoubts = openDoubts(doubts)
	})
	// 区块内的 panic 由 conc 在 Wait 时重新抛出
	wg.Wait()

	if len(errs) > 0 {
		d.Errors = errs
	}
	return d
}

// upcomingExams 首页只展示进行中、可参加和即将开始的考试
func upcomingExams(list []model.ExamListing) []model.ExamListing {
	out := make([]model.ExamListing, 0, len(list))
	for _, l := range list {
		if model.ListingPriority[l.Status] <= model.ListingPriority[model.ListingUpcoming] {
			out = append(out, l)
		}
	}
	return out
}

func pendingHomework(list []model.Homework) []model.Homework {
	out := make([]model.Homework, 0, len(list))
	for _, h := range list {
		if h.Status != model.HomeworkPublished {
			continue
		}
		if h.MySubmission != nil && h.MySubmission.Status != model.SubmissionPending {
			continue
		}
		out = append(out, h)
	}
	return out
}

func openDoubts(list []model.Doubt) []model.Doubt {
	out := make([]model.Doubt, 0, len(list))
	for _, d := range list {
		if d.Status != model.DoubtResolved {
			out = append(out, d)
		}
	}
	return out
}
