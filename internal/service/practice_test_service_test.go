package service

import (
	"context"
	"encoding/json"
	"io"
	"math/rand"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"learning_portal/internal/model"
	"learning_portal/internal/repository"
	"learning_portal/internal/util"
	"learning_portal/pkg/apiclient"
)

func TestPracticeFormDefaultsAreValid(t *testing.T) {
	f := NewPracticeForm()
	if f.Config.Difficulty != (model.Difficulty{Easy: 30, Medium: 50, Hard: 20}) {
		t.Fatalf("default difficulty %+v", f.Config.Difficulty)
	}
	if err := f.Validate(); !util.IsValidation(err) {
		t.Fatalf("empty subjects should fail validation, got %v", err)
	}
	f.ToggleSubject("Physics")
	if err := f.Validate(); err != nil {
		t.Fatalf("defaults with a subject should validate: %v", err)
	}
	f.ToggleSubject("Physics")
	if len(f.Config.Subjects) != 0 {
		t.Fatalf("toggle should remove subject, got %v", f.Config.Subjects)
	}
}

func TestRedistributeDifficultyProportional(t *testing.T) {
	d, err := RedistributeDifficulty(model.Difficulty{Easy: 30, Medium: 50, Hard: 20}, model.Easy, 50)
	if err != nil {
		t.Fatal(err)
	}
	// 剩余 50 按 50:20 分配
	if d.Easy != 50 || d.Medium != 36 || d.Hard != 14 {
		t.Fatalf("got %+v", d)
	}

	d, _ = RedistributeDifficulty(model.Difficulty{Easy: 100}, model.Easy, 40)
	if d.Medium != 30 || d.Hard != 30 {
		t.Fatalf("equal split expected, got %+v", d)
	}

	d, _ = RedistributeDifficulty(model.Difficulty{Easy: 30, Medium: 50, Hard: 20}, model.Hard, 150)
	if d.Hard != 100 || d.Easy != 0 || d.Medium != 0 {
		t.Fatalf("clamp expected, got %+v", d)
	}
}

func TestRedistributeDifficultyStaysNearHundred(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	levels := []model.DifficultyLevel{model.Easy, model.Medium, model.Hard}
	d := model.Difficulty{Easy: 30, Medium: 50, Hard: 20}
	for i := 0; i < 5000; i++ {
		var err error
		d, err = RedistributeDifficulty(d, levels[rng.Intn(3)], rng.Intn(101))
		if err != nil {
			t.Fatal(err)
		}
		if sum := d.Sum(); sum < 99 || sum > 101 {
			t.Fatalf("step %d: sum %d out of range (%+v)", i, sum, d)
		}
	}
}

func TestValidatePracticeConfig(t *testing.T) {
	base := NewPracticeForm().Config
	base.Subjects = []string{"Math"}

	cases := []struct {
		name  string
		edit  func(c *model.PracticeTestConfig)
		field string
	}{
		{"too few questions", func(c *model.PracticeTestConfig) { c.QuestionCount = 4 }, "questionCount"},
		{"too many questions", func(c *model.PracticeTestConfig) { c.QuestionCount = 201 }, "questionCount"},
		{"short duration", func(c *model.PracticeTestConfig) { c.DurationMinutes = 2 }, "duration"},
		{"untimed ignores duration", func(c *model.PracticeTestConfig) { c.DurationMode = model.DurationUntimed; c.DurationMinutes = 0 }, ""},
		{"difficulty off by two", func(c *model.PracticeTestConfig) { c.Difficulty = model.Difficulty{Easy: 34, Medium: 34, Hard: 34} }, "difficulty"},
		{"difficulty off by one", func(c *model.PracticeTestConfig) { c.Difficulty = model.Difficulty{Easy: 33, Medium: 33, Hard: 33} }, ""},
		{"zero correct marks", func(c *model.PracticeTestConfig) { c.Marking.Correct = 0 }, "marking"},
		{"positive incorrect marks", func(c *model.PracticeTestConfig) { c.Marking.Incorrect = 1 }, "marking"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			c := base
			tc.edit(&c)
			err := ValidatePracticeConfig(c, false)
			if tc.field == "" {
				if err != nil {
					t.Fatalf("unexpected error %v", err)
				}
				return
			}
			v, ok := err.(*util.ValidationError)
			if !ok || v.Field != tc.field {
				t.Fatalf("want %s error, got %v", tc.field, err)
			}
		})
	}

	if err := ValidatePracticeConfig(base, true); err == nil {
		t.Fatal("chapters required but none selected")
	}
}

func TestCreatePracticeTestSendsExactBodyThenStarts(t *testing.T) {
	type call struct {
		method, path string
		body         map[string]json.RawMessage
	}
	var (
		mu    sync.Mutex
		calls []call
	)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		c := call{method: r.Method, path: r.URL.Path}
		raw, _ := io.ReadAll(r.Body)
		json.Unmarshal(raw, &c.body)
		mu.Lock()
		calls = append(calls, c)
		mu.Unlock()

		switch r.URL.Path {
		case "/practice-tests":
			w.Write([]byte(`{"data":{"id":"pt-9","subjects":["Physics"],"questionCount":20}}`))
		case "/practice-tests/pt-9/start":
			w.Write([]byte(`{"data":{"id":"att-1","examId":"pt-9","status":"in_progress"}}`))
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer srv.Close()

	repo := repository.NewExamRepository(apiclient.New(apiclient.Config{BaseURL: srv.URL}))
	svc := NewPracticeTestService(repo)

	f := NewPracticeForm()
	f.ToggleSubject("Physics")
	f.SetQuestionCount(20)
	f.SetMarking(1, 0)

	out, err := svc.Create(context.Background(), &model.Session{Token: "tok"}, f.Config, false)
	if err != nil {
		t.Fatal(err)
	}
	if out.Test.ID != "pt-9" || out.Attempt == nil || out.Attempt.ID != "att-1" {
		t.Fatalf("unexpected result %+v", out)
	}

	if len(calls) != 2 {
		t.Fatalf("expected 2 upstream calls, got %d", len(calls))
	}
	create := calls[0]
	if create.method != http.MethodPost || create.path != "/practice-tests" {
		t.Fatalf("first call %s %s", create.method, create.path)
	}
	want := map[string]string{
		"subjects":      `["Physics"]`,
		"questionCount": `20`,
		"difficulty":    `{"easy":30,"medium":50,"hard":20}`,
		"marking":       `{"correct":1,"incorrect":0}`,
	}
	for field, v := range want {
		if got := string(create.body[field]); got != v {
			t.Errorf("%s = %s, want %s", field, got, v)
		}
	}
	if calls[1].method != http.MethodPost || calls[1].path != "/practice-tests/pt-9/start" {
		t.Fatalf("second call %s %s", calls[1].method, calls[1].path)
	}
}

type failingStart struct {
	created int
}

func (f *failingStart) CreatePracticeTest(ctx context.Context, token string, cfg model.PracticeTestConfig) (*model.PracticeTest, error) {
	f.created++
	return &model.PracticeTest{ID: "pt-1", PracticeTestConfig: cfg}, nil
}

func (f *failingStart) StartPracticeTest(ctx context.Context, token, testID string) (*model.Attempt, error) {
	return nil, &apiclient.APIError{Status: 500, Message: "boom"}
}

func TestCreatePracticeTestStartFailureKeepsTest(t *testing.T) {
	api := &failingStart{}
	svc := NewPracticeTestService(api)

	cfg := NewPracticeForm().Config
	if _, err := svc.Create(context.Background(), &model.Session{}, cfg, false); !util.IsValidation(err) || api.created != 0 {
		t.Fatalf("invalid config must not reach upstream: %v", err)
	}

	cfg.Subjects = []string{"Chemistry"}
	out, err := svc.Create(context.Background(), &model.Session{}, cfg, false)
	if err == nil {
		t.Fatal("expected start error")
	}
	if out == nil || out.Test.ID != "pt-1" || out.Attempt != nil {
		t.Fatalf("unexpected result %+v", out)
	}
}
