package service

import (
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"learning_portal/pkg/apiclient"
)

type route struct {
	status int
	body   string
}

// fakeLMS 按 "METHOD path" 返回固定响应的上游
type fakeLMS struct {
	mu     sync.Mutex
	routes map[string]route
	calls  []string
}

func newFakeLMS(t *testing.T) (*fakeLMS, *apiclient.Client) {
	t.Helper()
	f := &fakeLMS{routes: map[string]route{}}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		key := r.Method + " " + r.URL.Path
		f.mu.Lock()
		f.calls = append(f.calls, key)
		rt, ok := f.routes[key]
		f.mu.Unlock()
		if !ok {
			rt = route{status: http.StatusNotFound, body: `{"message":"not found"}`}
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(rt.status)
		w.Write([]byte(rt.body))
	}))
	t.Cleanup(srv.Close)
	return f, apiclient.New(apiclient.Config{BaseURL: srv.URL})
}

func (f *fakeLMS) on(method, path string, status int, body string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.routes[method+" "+path] = route{status: status, body: body}
}

func (f *fakeLMS) called(key string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, c := range f.calls {
		if c == key {
			n++
		}
	}
	return n
}
