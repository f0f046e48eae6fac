package apiclient

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"
)

type course struct {
	ID    string `json:"id"`
	Title string `json:"title"`
}

func TestDoAttachesTokenAndUnwrapsEnvelope(t *testing.T) {
	var gotAuth, gotQuery string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		gotQuery = r.URL.RawQuery
		json.NewEncoder(w).Encode(map[string]interface{}{
			"success": true,
			"data":    []course{{ID: "c1", Title: "Physics"}},
		})
	}))
	defer srv.Close()

	c := New(Config{BaseURL: srv.URL + "/", Timeout: time.Second}).WithToken("tok")
	var out []course
	if err := c.Get(context.Background(), "/courses", url.Values{"page": {"1"}}, &out); err != nil {
		t.Fatal(err)
	}
	if gotAuth != "Bearer tok" {
		t.Errorf("Authorization = %q", gotAuth)
	}
	if gotQuery != "page=1" {
		t.Errorf("query = %q", gotQuery)
	}
	if len(out) != 1 || out[0].Title != "Physics" {
		t.Fatalf("decoded %+v", out)
	}
}

func TestDoDecodesRawBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"id":"c2","title":"Maths"}`))
	}))
	defer srv.Close()

	var out course
	if err := New(Config{BaseURL: srv.URL}).Get(context.Background(), "/courses/c2", nil, &out); err != nil {
		t.Fatal(err)
	}
	if out.ID != "c2" {
		t.Fatalf("decoded %+v", out)
	}
}

func TestDoReturnsAPIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "" {
			t.Error("shared client must not send a token")
		}
		w.WriteHeader(http.StatusConflict)
		w.Write([]byte(`{"success":false,"message":"already enrolled"}`))
	}))
	defer srv.Close()

	err := New(Config{BaseURL: srv.URL}).Post(context.Background(), "/courses/42/enroll", map[string]string{}, nil)
	if !IsStatus(err, http.StatusConflict) {
		t.Fatalf("expected 409 APIError, got %v", err)
	}
	apiErr := err.(*APIError)
	if apiErr.Message != "already enrolled" {
		t.Errorf("message = %q", apiErr.Message)
	}
	if apiErr.Endpoint != "POST /courses/:id/enroll" {
		t.Errorf("endpoint = %q", apiErr.Endpoint)
	}
}

func TestDoSendsJSONBody(t *testing.T) {
	var got map[string]interface{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if ct := r.Header.Get("Content-Type"); ct != "application/json" {
			t.Errorf("content type %q", ct)
		}
		json.NewDecoder(r.Body).Decode(&got)
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	err := New(Config{BaseURL: srv.URL}).Put(context.Background(), "/x", map[string]int{"currentTime": 12}, nil)
	if err != nil {
		t.Fatal(err)
	}
	if got["currentTime"].(float64) != 12 {
		t.Fatalf("body %+v", got)
	}
}

func TestDoHonoursCancelledContext(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
	}))
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	if err := New(Config{BaseURL: srv.URL}).Get(ctx, "/slow", nil, nil); err == nil {
		t.Fatal("expected context error")
	}
}

func TestEndpointLabel(t *testing.T) {
	cases := map[string]string{
		"/courses":                            "/courses",
		"/courses/64f1a2/lectures/7/progress": "/courses/:id/lectures/:id/progress",
		"/doubts/abc?x=1":                     "/doubts/abc",
	}
	for in, want := range cases {
		if got := EndpointLabel(in); got != want {
			t.Errorf("EndpointLabel(%q) = %q, want %q", in, got, want)
		}
	}
}
