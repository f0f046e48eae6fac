package controller

import (
	"bytes"
	"context"
	"encoding/json"
	"learning_portal/internal/config"
	"learning_portal/internal/middleware"
	"learning_portal/internal/model"
	"learning_portal/internal/repository"
	"learning_portal/internal/service"
	"learning_portal/internal/util"
	"learning_portal/pkg/apiclient"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
)

type fakeResolver struct {
	role model.UserRole
}

func (f fakeResolver) Session(_ context.Context, deviceID string) (*model.Session, error) {
	if deviceID == "" {
		return nil, util.ErrMissingDevice
	}
	if deviceID == "expired" {
		return nil, util.ErrSessionExpired
	}
	return &model.Session{DeviceID: deviceID, Token: "tok", UserID: "u1", Role: f.role}, nil
}

func init() {
	gin.SetMode(gin.TestMode)
}

type apiResponse struct {
	Code    int             `json:"code"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

func do(t *testing.T, r http.Handler, method, path, device string, body interface{}) (int, apiResponse) {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatal(err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if device != "" {
		req.Header.Set("X-Device-ID", device)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	var resp apiResponse
	if w.Body.Len() > 0 {
		if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
			t.Fatalf("decode %s %s: %v (%s)", method, path, err, w.Body.String())
		}
	}
	return w.Code, resp
}

// upstream 返回固定响应的上游
func upstream(t *testing.T, routes map[string]string, fail map[string]int) *apiclient.Client {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		key := r.Method + " " + r.URL.Path
		w.Header().Set("Content-Type", "application/json")
		if code, ok := fail[key]; ok {
			w.WriteHeader(code)
			w.Write([]byte(`{"message":"upstream failed"}`))
			return
		}
		body, ok := routes[key]
		if !ok {
			w.WriteHeader(http.StatusNotFound)
			w.Write([]byte(`{"message":"not found"}`))
			return
		}
		w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return apiclient.New(apiclient.Config{BaseURL: srv.URL})
}

func TestHealthCheck(t *testing.T) {
	playback := service.NewPlaybackService(nil, config.PlaybackConfig{
		SampleInterval:      time.Second,
		PersistInterval:     10 * time.Second,
		CompletionThreshold: 0.8,
	})
	h := NewHealthController(repository.NewMemoryTokenStore(), nil, playback)

	r := gin.New()
	r.GET("/api/health", h.HealthCheck)

	code, resp := do(t, r, http.MethodGet, "/api/health", "", nil)
	if code != http.StatusOK {
		t.Fatalf("status = %d", code)
	}
	var data struct {
		Status     string            `json:"status"`
		Components map[string]string `json:"components"`
		Trackers   int               `json:"activeTrackers"`
	}
	json.Unmarshal(resp.Data, &data)
	if data.Status != "ok" || data.Components["realtime"] != "disabled" || data.Components["store"] != "up" {
		t.Fatalf("unexpected health payload: %+v", data)
	}
}

func TestAuthAndRoleMiddleware(t *testing.T) {
	hw := NewHomeworkController(service.NewHomeworkService(repository.NewHomeworkRepository(upstream(t, nil, nil))))

	build := func(role model.UserRole) *gin.Engine {
		r := gin.New()
		g := r.Group("/api")
		g.Use(middleware.AuthMiddleware(fakeResolver{role: role}))
		teacher := g.Group("")
		teacher.Use(middleware.RoleMiddleware(model.Teacher))
		teacher.POST("/homework", hw.CreateHomework)
		return r
	}

	form := model.HomeworkForm{Title: "", Target: model.AssignTarget{Type: model.TargetAll}}

	if code, _ := do(t, build(model.Student), http.MethodPost, "/api/homework", "", form); code != http.StatusUnauthorized {
		t.Fatalf("missing device: status = %d", code)
	}
	if code, _ := do(t, build(model.Student), http.MethodPost, "/api/homework", "expired", form); code != http.StatusUnauthorized {
		t.Fatalf("expired session: status = %d", code)
	}
	if code, _ := do(t, build(model.Student), http.MethodPost, "/api/homework", "dev-1", form); code != http.StatusForbidden {
		t.Fatalf("student on teacher route: status = %d", code)
	}
	// 通过鉴权后由表单校验拦截
	code, resp := do(t, build(model.Admin), http.MethodPost, "/api/homework", "dev-1", form)
	if code != http.StatusBadRequest {
		t.Fatalf("empty title: status = %d (%s)", code, resp.Message)
	}
}

func TestPracticeEndpoints(t *testing.T) {
	api := upstream(t, map[string]string{
		"POST /practice-tests": `{"data":{"id":"pt-1","subjects":["math"],"chapters":[],"questionCount":30}}`,
	}, map[string]int{
		"POST /practice-tests/pt-1/start": http.StatusInternalServerError,
	})
	pc := NewPracticeController(service.NewPracticeTestService(repository.NewExamRepository(api)))

	r := gin.New()
	g := r.Group("/api")
	g.Use(middleware.AuthMiddleware(fakeResolver{role: model.Student}))
	g.GET("/practice-tests/defaults", pc.Defaults)
	g.POST("/practice-tests/validate", pc.Validate)
	g.POST("/practice-tests/difficulty", pc.Difficulty)
	g.POST("/practice-tests", pc.Create)

	code, resp := do(t, r, http.MethodGet, "/api/practice-tests/defaults", "dev", nil)
	var defaults model.PracticeTestConfig
	json.Unmarshal(resp.Data, &defaults)
	if code != http.StatusOK || defaults.QuestionCount != 30 || defaults.Difficulty.Sum() != 100 {
		t.Fatalf("defaults: %d %+v", code, defaults)
	}

	bad := PracticeRequest{PracticeTestConfig: defaults}
	bad.Subjects = nil
	if code, _ := do(t, r, http.MethodPost, "/api/practice-tests/validate", "dev", bad); code != http.StatusBadRequest {
		t.Fatalf("validate without subjects: status = %d", code)
	}

	code, resp = do(t, r, http.MethodPost, "/api/practice-tests/difficulty", "dev", DifficultyRequest{
		Difficulty: model.Difficulty{Easy: 30, Medium: 50, Hard: 20},
		Level:      model.Easy,
		Value:      50,
	})
	var d model.Difficulty
	json.Unmarshal(resp.Data, &d)
	if code != http.StatusOK || d != (model.Difficulty{Easy: 50, Medium: 36, Hard: 14}) {
		t.Fatalf("difficulty: %d %+v", code, d)
	}

	good := PracticeRequest{PracticeTestConfig: defaults}
	good.Subjects = []string{"math"}
	code, resp = do(t, r, http.MethodPost, "/api/practice-tests", "dev", good)
	if code != http.StatusBadGateway {
		t.Fatalf("start failure: status = %d", code)
	}
	var start model.PracticeTestStart
	json.Unmarshal(resp.Data, &start)
	if start.Test == nil || start.Test.ID != "pt-1" || start.Attempt != nil {
		t.Fatalf("created test should be returned with the error: %+v", start)
	}
}

func TestPracticeCreateWithPartialBody(t *testing.T) {
	var (
		mu    sync.Mutex
		paths []string
		sent  map[string]json.RawMessage
	)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		paths = append(paths, r.Method+" "+r.URL.Path)
		if r.URL.Path == "/practice-tests" {
			json.NewDecoder(r.Body).Decode(&sent)
		}
		mu.Unlock()
		w.Header().Set("Content-Type", "application/json")
		switch r.URL.Path {
		case "/practice-tests":
			w.Write([]byte(`{"data":{"id":"pt-7","subjects":["Physics"],"questionCount":20}}`))
		case "/practice-tests/pt-7/start":
			w.Write([]byte(`{"data":{"id":"at-1","status":"in_progress"}}`))
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer srv.Close()

	pc := NewPracticeController(service.NewPracticeTestService(repository.NewExamRepository(apiclient.New(apiclient.Config{BaseURL: srv.URL}))))
	r := gin.New()
	g := r.Group("/api")
	g.Use(middleware.AuthMiddleware(fakeResolver{role: model.Student}))
	g.POST("/practice-tests/validate", pc.Validate)
	g.POST("/practice-tests", pc.Create)

	// 客户端只提交改动过的字段，其余沿用表单默认值
	body := gin.H{
		"subjects":      []string{"Physics"},
		"questionCount": 20,
		"difficulty":    gin.H{"easy": 30, "medium": 50, "hard": 20},
		"marking":       gin.H{"correct": 1, "incorrect": 0},
	}
	if code, resp := do(t, r, http.MethodPost, "/api/practice-tests/validate", "dev", body); code != http.StatusOK {
		t.Fatalf("validate: status = %d (%s)", code, resp.Message)
	}

	code, resp := do(t, r, http.MethodPost, "/api/practice-tests", "dev", body)
	if code != http.StatusCreated {
		t.Fatalf("create: status = %d (%s)", code, resp.Message)
	}
	var start model.PracticeTestStart
	json.Unmarshal(resp.Data, &start)
	if start.Test == nil || start.Test.ID != "pt-7" || start.Attempt == nil || start.Attempt.ID != "at-1" {
		t.Fatalf("unexpected start %+v", start)
	}

	mu.Lock()
	defer mu.Unlock()
	if len(paths) != 2 || paths[0] != "POST /practice-tests" || paths[1] != "POST /practice-tests/pt-7/start" {
		t.Fatalf("upstream calls = %v", paths)
	}
	if string(sent["subjects"]) != `["Physics"]` || string(sent["questionCount"]) != "20" || string(sent["durationMode"]) != `"timed"` {
		t.Fatalf("create body = %v", sent)
	}
}

func TestPlaybackUnknownSession(t *testing.T) {
	playback := service.NewPlaybackService(nil, config.PlaybackConfig{
		SampleInterval:      time.Second,
		PersistInterval:     10 * time.Second,
		CompletionThreshold: 0.8,
	})
	pc := NewPlaybackController(playback)

	r := gin.New()
	g := r.Group("/api")
	g.Use(middleware.AuthMiddleware(fakeResolver{role: model.Student}))
	g.POST("/playback", pc.StartPlayback)
	g.POST("/playback/:sid/play", pc.Play)
	g.DELETE("/playback/:sid", pc.StopPlayback)

	if code, _ := do(t, r, http.MethodPost, "/api/playback/nope/play", "dev", nil); code != http.StatusNotFound {
		t.Fatalf("play unknown session: status = %d", code)
	}
	if code, _ := do(t, r, http.MethodDelete, "/api/playback/nope", "dev", nil); code != http.StatusNotFound {
		t.Fatalf("stop unknown session: status = %d", code)
	}
	if code, _ := do(t, r, http.MethodPost, "/api/playback", "dev", gin.H{"courseId": "c1"}); code != http.StatusBadRequest {
		t.Fatalf("missing videoUrl: status = %d", code)
	}
}

func TestNotificationRollbackSurfacesError(t *testing.T) {
	api := upstream(t, map[string]string{
		"GET /notifications": `{"data":[{"id":"n1","title":"t","body":"b","isRead":false}]}`,
	}, map[string]int{
		"PATCH /notifications/n1/read": http.StatusInternalServerError,
	})
	svc := service.NewNotificationService(repository.NewNotificationRepository(api))
	nc := NewNotificationController(svc)

	r := gin.New()
	g := r.Group("/api")
	g.Use(middleware.AuthMiddleware(fakeResolver{role: model.Student}))
	g.GET("/notifications", nc.ListNotifications)
	g.PATCH("/notifications/:id/read", nc.MarkRead)

	code, resp := do(t, r, http.MethodGet, "/api/notifications", "dev", nil)
	var view model.NotificationView
	json.Unmarshal(resp.Data, &view)
	if code != http.StatusOK || view.Unread != 1 {
		t.Fatalf("list: %d %+v", code, view)
	}

	if code, _ := do(t, r, http.MethodPatch, "/api/notifications/n1/read", "dev", nil); code != http.StatusBadGateway {
		t.Fatalf("failed mark read: status = %d", code)
	}
	if cached := svc.Cached("dev"); cached == nil || cached.Unread != 1 {
		t.Fatalf("mark read was not rolled back: %+v", cached)
	}
}
