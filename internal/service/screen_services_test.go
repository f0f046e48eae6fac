package service

import (
	"context"
	"net/http"
	"testing"
	"time"

	"learning_portal/internal/model"
	"learning_portal/internal/repository"
	"learning_portal/internal/util"
	"learning_portal/pkg/apiclient"
)

var (
	student = &model.Session{DeviceID: "dev-s", Token: "tok-s", UserID: "stu-1", Role: model.Student}
	teacher = &model.Session{DeviceID: "dev-t", Token: "tok-t", UserID: "tea-1", Role: model.Teacher}
)

const courseBody = `{"data":{"id":"c1","title":"Mechanics","isEnrolled":false,"syllabus":[
	{"id":"s2","title":"Dynamics","order":2,"lectures":[{"id":"l3"},{"id":"l4"}]},
	{"id":"s1","title":"Kinematics","order":1,"lectures":[{"id":"l1"},{"id":"l2"}]}
]}}`

func TestSyllabusProgressPerSection(t *testing.T) {
	lms, api := newFakeLMS(t)
	lms.on("GET", "/courses/c1", 200, courseBody)
	lms.on("GET", "/courses/c1/syllabus-progress", 200, `{"data":{"courseId":"c1","completedLectures":["l1","l2","l3"]}}`)

	svc := NewCourseService(repository.NewCourseRepository(api), repository.NewProgressRepository(api))
	v, err := svc.Syllabus(context.Background(), student, "c1")
	if err != nil {
		t.Fatal(err)
	}
	if len(v.Sections) != 2 || v.Sections[0].SectionID != "s1" {
		t.Fatalf("sections not ordered: %+v", v.Sections)
	}
	if v.Sections[0].Percent != 100 || v.Sections[1].Percent != 50 || v.Percent != 75 {
		t.Fatalf("unexpected percents %+v total %v", v.Sections, v.Percent)
	}
	if !v.Done["l3"] || v.Done["l4"] {
		t.Fatalf("done map %+v", v.Done)
	}
}

func TestSyllabusWithoutProgressShowsNothingDone(t *testing.T) {
	lms, api := newFakeLMS(t)
	lms.on("GET", "/courses/c1", 200, courseBody)

	svc := NewCourseService(repository.NewCourseRepository(api), repository.NewProgressRepository(api))
	v, err := svc.Syllabus(context.Background(), student, "c1")
	if err != nil {
		t.Fatal(err)
	}
	if v.Percent != 0 || len(v.Done) != 0 {
		t.Fatalf("expected empty progress, got %+v", v)
	}
}

func TestEnrollRefetchesDetail(t *testing.T) {
	lms, api := newFakeLMS(t)
	lms.on("POST", "/courses/c1/enroll", 200, `{}`)
	lms.on("GET", "/courses/c1", 200, `{"data":{"id":"c1","isEnrolled":true}}`)

	svc := NewCourseService(repository.NewCourseRepository(api), repository.NewProgressRepository(api))
	c, err := svc.Enroll(context.Background(), student, "c1")
	if err != nil || !c.IsEnrolled {
		t.Fatalf("enroll: %+v %v", c, err)
	}
	if lms.called("GET /courses/c1") != 1 {
		t.Fatal("detail not re-fetched")
	}
}

func TestHomeworkFormValidation(t *testing.T) {
	cases := []struct {
		name string
		form model.HomeworkForm
		ok   bool
	}{
		{"blank title", model.HomeworkForm{Title: " ", Target: model.AssignTarget{Type: model.TargetAll}}, false},
		{"class without id", model.HomeworkForm{Title: "HW", Target: model.AssignTarget{Type: model.TargetClass}}, false},
		{"batch without id", model.HomeworkForm{Title: "HW", Target: model.AssignTarget{Type: model.TargetBatch}}, false},
		{"no students", model.HomeworkForm{Title: "HW", Target: model.AssignTarget{Type: model.TargetStudents}}, false},
		{"unknown target", model.HomeworkForm{Title: "HW", Target: model.AssignTarget{Type: "school"}}, false},
		{"students", model.HomeworkForm{Title: "HW", Target: model.AssignTarget{Type: model.TargetStudents, StudentIDs: []string{"s1"}}}, true},
		{"class", model.HomeworkForm{Title: "HW", Target: model.AssignTarget{Type: model.TargetClass, ClassID: "10A"}}, true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := ValidateHomeworkForm(tc.form)
			if tc.ok != (err == nil) {
				t.Fatalf("ok=%v err=%v", tc.ok, err)
			}
		})
	}
}

func TestHomeworkTeacherFlow(t *testing.T) {
	lms, api := newFakeLMS(t)
	svc := NewHomeworkService(repository.NewHomeworkRepository(api))
	now := time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return now }
	ctx := context.Background()

	if _, err := svc.Create(ctx, student, model.HomeworkForm{Title: "HW"}); err != util.ErrPermissionDenied {
		t.Fatalf("student create: %v", err)
	}

	lms.on("GET", "/homework/h1", 200, `{"data":{"id":"h1","status":"draft","maxMarks":20,"dueDate":"2024-04-30T00:00:00Z"}}`)
	if _, err := svc.Publish(ctx, teacher, "h1"); !util.IsValidation(err) {
		t.Fatalf("past due date should block publish: %v", err)
	}

	lms.on("GET", "/homework/h1", 200, `{"data":{"id":"h1","status":"draft","maxMarks":20,"dueDate":"2024-05-10T00:00:00Z"}}`)
	lms.on("POST", "/homework/h1/publish", 200, `{"data":{"id":"h1","status":"published"}}`)
	hw, err := svc.Publish(ctx, teacher, "h1")
	if err != nil || hw.Status != model.HomeworkPublished {
		t.Fatalf("publish: %+v %v", hw, err)
	}

	if _, err := svc.Grade(ctx, teacher, "h1", "sub1", model.GradeInput{Grade: 25}); !util.IsValidation(err) {
		t.Fatalf("grade above max should fail: %v", err)
	}
	lms.on("PUT", "/homework/h1/submissions/sub1/grade", 200, `{"data":{"id":"sub1","grade":18,"status":"graded"}}`)
	sub, err := svc.Grade(ctx, teacher, "h1", "sub1", model.GradeInput{Grade: 18, Feedback: "good"})
	if err != nil || sub.Status != model.SubmissionGraded {
		t.Fatalf("grade: %+v %v", sub, err)
	}
}

func TestHomeworkSubmitRequiresContent(t *testing.T) {
	_, api := newFakeLMS(t)
	svc := NewHomeworkService(repository.NewHomeworkRepository(api))
	if _, err := svc.Submit(context.Background(), student, "h1", "  ", nil); !util.IsValidation(err) {
		t.Fatalf("empty submission: %v", err)
	}
	if _, err := svc.Submit(context.Background(), teacher, "h1", "answer", nil); err != util.ErrPermissionDenied {
		t.Fatalf("teacher submit: %v", err)
	}
}

func TestAttendanceSummary(t *testing.T) {
	records := []model.AttendanceRecord{
		{Status: model.Present}, {Status: model.Present}, {Status: model.Late},
		{Status: model.Absent}, {Status: model.Excused}, {Status: "unknown"},
	}
	s := Summarize(records)
	if s.Total != 5 || s.Present != 2 || s.Late != 1 || s.Absent != 1 || s.Excused != 1 {
		t.Fatalf("counts %+v", s)
	}
	if s.Percent != 75 {
		t.Fatalf("percent %v", s.Percent)
	}
	if Summarize(nil).Percent != 0 {
		t.Fatal("empty summary should be 0%")
	}
}

func TestLeaveRules(t *testing.T) {
	lms, api := newFakeLMS(t)
	svc := NewLeaveService(repository.NewAttendanceRepository(api))
	ctx := context.Background()
	day := time.Date(2024, 6, 3, 0, 0, 0, 0, time.UTC)

	bad := model.LeaveRequest{FromDate: day, ToDate: day.AddDate(0, 0, -1), Reason: "fever", Type: "sick"}
	if _, err := svc.Apply(ctx, student, bad); !util.IsValidation(err) {
		t.Fatalf("reversed dates: %v", err)
	}

	lms.on("GET", "/leaves", 200, `{"data":[
		{"id":"lv1","studentId":"stu-1","status":"approved"},
		{"id":"lv2","studentId":"stu-1","status":"pending"},
		{"id":"lv3","studentId":"stu-9","status":"pending"}
	]}`)
	lms.on("DELETE", "/leaves/lv2", 200, `{}`)

	if err := svc.Cancel(ctx, student, "lv1"); !util.IsValidation(err) {
		t.Fatalf("approved leave cancel: %v", err)
	}
	if err := svc.Cancel(ctx, student, "lv3"); err != util.ErrPermissionDenied {
		t.Fatalf("foreign leave cancel: %v", err)
	}
	if err := svc.Cancel(ctx, student, "missing"); err != util.ErrNotFound {
		t.Fatalf("missing leave cancel: %v", err)
	}
	if err := svc.Cancel(ctx, student, "lv2"); err != nil {
		t.Fatal(err)
	}

	if _, err := svc.Review(ctx, student, "lv2", model.LeaveReview{Status: model.LeaveApproved}); err != util.ErrPermissionDenied {
		t.Fatalf("student review: %v", err)
	}
}

func TestNotificationOptimisticRollback(t *testing.T) {
	lms, api := newFakeLMS(t)
	svc := NewNotificationService(repository.NewNotificationRepository(api))
	ctx := context.Background()

	lms.on("GET", "/notifications", 200, `{"data":[{"id":"n1","isRead":false},{"id":"n2","isRead":false}]}`)
	v, err := svc.List(ctx, student)
	if err != nil || v.Unread != 2 {
		t.Fatalf("list: %+v %v", v, err)
	}

	lms.on("PATCH", "/notifications/n1/read", 500, `{"message":"db down"}`)
	if _, err := svc.MarkRead(ctx, student, "n1"); err == nil {
		t.Fatal("expected failure")
	}
	if svc.Cached(student.DeviceID).Unread != 2 {
		t.Fatal("failed mark-read not rolled back")
	}

	lms.on("PATCH", "/notifications/n1/read", 200, `{}`)
	if v, _ := svc.MarkRead(ctx, student, "n1"); v.Unread != 1 {
		t.Fatalf("unread after mark read: %d", v.Unread)
	}

	lms.on("DELETE", "/notifications/n2", 502, `{"message":"bad gateway"}`)
	if _, err := svc.Delete(ctx, student, "n2"); err == nil {
		t.Fatal("expected delete failure")
	}
	if len(svc.Cached(student.DeviceID).Items) != 2 {
		t.Fatal("failed delete not rolled back")
	}

	lms.on("POST", "/notifications/read-all", 200, `{}`)
	if v, _ := svc.MarkAllRead(ctx, student); v.Unread != 0 {
		t.Fatalf("unread after read-all: %d", v.Unread)
	}
}

func TestNotificationSettingsToggleRollback(t *testing.T) {
	lms, api := newFakeLMS(t)
	svc := NewNotificationService(repository.NewNotificationRepository(api))
	ctx := context.Background()

	lms.on("GET", "/settings/notifications", 200, `{"data":{"push":true,"email":false,"channels":{"homework":true}}}`)
	lms.on("PUT", "/settings/notifications", http.StatusServiceUnavailable, `{"message":"try later"}`)

	off := false
	if _, err := svc.UpdateSettings(ctx, student, model.SettingsPatch{Push: &off}); err == nil {
		t.Fatal("expected failure")
	}
	if s := svc.CachedSettings(student.DeviceID); s == nil || !s.Push {
		t.Fatalf("toggle not rolled back: %+v", s)
	}

	lms.on("PUT", "/settings/notifications", 200, `{}`)
	s, err := svc.UpdateSettings(ctx, student, model.SettingsPatch{Channels: map[string]bool{"homework": false}})
	if err != nil || s.Channels["homework"] || !s.Push {
		t.Fatalf("update: %+v %v", s, err)
	}
	if _, err := svc.UpdateSettings(ctx, student, model.SettingsPatch{}); !util.IsValidation(err) {
		t.Fatalf("empty patch: %v", err)
	}
}

func TestDashboardSectionsFailIndependently(t *testing.T) {
	lms, api := newFakeLMS(t)
	lms.on("GET", "/courses/my", 200, `{"data":[{"id":"c1"}]}`)
	lms.on("GET", "/exams", 500, `{"message":"exams down"}`)
	lms.on("GET", "/attempts/my", 200, `{"data":[]}`)
	lms.on("GET", "/homework", 200, `{"data":[
		{"id":"h1","status":"published"},
		{"id":"h2","status":"published","mySubmission":{"id":"s","status":"submitted"}}
	]}`)
	lms.on("GET", "/notifications", 200, `{"data":[{"id":"n1"}]}`)
	lms.on("GET", "/doubts", 200, `{"data":[{"id":"d1","status":"pending"},{"id":"d2","status":"resolved"}]}`)

	svc := newDashboard(api)
	d := svc.GetDashboard(context.Background(), student)

	if len(d.MyCourses) != 1 || len(d.Homework) != 1 || d.UnreadCount != 1 || len(d.OpenDoubts) != 1 {
		t.Fatalf("unexpected dashboard %+v", d)
	}
	if _, ok := d.Errors[SectionExams]; !ok || len(d.Errors) != 1 {
		t.Fatalf("errors %+v", d.Errors)
	}
}

func newDashboard(api *apiclient.Client) *DashboardService {
	return NewDashboardService(
		NewCourseService(repository.NewCourseRepository(api), repository.NewProgressRepository(api)),
		NewExamService(repository.NewExamRepository(api)),
		NewHomeworkService(repository.NewHomeworkRepository(api)),
		NewNotificationService(repository.NewNotificationRepository(api)),
		NewDoubtService(repository.NewDoubtRepository(api), nil, nil),
	)
}
