package server

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/muurk/luxws/internal/session"
	"github.com/muurk/luxws/internal/snapshot"
	"github.com/prometheus/client_golang/prometheus"
)

type fakeSnapshot struct {
	ready   chan struct{}
	leaves  []snapshot.Leaf
	updated time.Time
}

func (f *fakeSnapshot) Wait(ctx context.Context) ([]snapshot.Leaf, time.Time, error) {
	select {
	case <-f.ready:
		return f.leaves, f.updated, nil
	case <-ctx.Done():
		return nil, time.Time{}, ctx.Err()
	}
}

type fakeStatus struct {
	status session.Status
}

func (f fakeStatus) Status() session.Status { return f.status }

func readySnapshot(leaves ...snapshot.Leaf) *fakeSnapshot {
	f := &fakeSnapshot{
		ready:   make(chan struct{}),
		leaves:  leaves,
		updated: time.Date(2026, 10, 16, 8, 0, 0, 0, time.UTC),
	}
	close(f.ready)
	return f
}

func num(v float64) *float64 { return &v }

func TestDataHandler(t *testing.T) {
	snap := readySnapshot(snapshot.Leaf{
		ID:       "flow",
		Category: "temperature",
		Name:     "Vorlauf",
		Unit:     "°C",
		Numeric:  num(31.2),
	})
	h := NewHandler(snap, fakeStatus{}, nil)

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); !strings.HasPrefix(ct, "application/json") {
		t.Errorf("Content-Type = %q", ct)
	}

	var resp Response
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(resp.Data) != 1 || resp.Data[0].ID != "flow" || *resp.Data[0].Numeric != 31.2 {
		t.Errorf("data = %+v", resp.Data)
	}
	if !resp.Metadata.Timestamp.Equal(snap.updated) {
		t.Errorf("timestamp = %v, want %v", resp.Metadata.Timestamp, snap.updated)
	}
	if resp.Metadata.Version == "" {
		t.Error("metadata.version is empty")
	}
}

func TestDataHandler_EmptySnapshotIsArray(t *testing.T) {
	h := NewHandler(readySnapshot(), fakeStatus{}, nil)

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	if !strings.Contains(rec.Body.String(), `"data":[]`) {
		t.Errorf("body = %s, want empty data array", rec.Body.String())
	}
}

func TestDataHandler_CancelledBeforeData(t *testing.T) {
	snap := &fakeSnapshot{ready: make(chan struct{})}
	h := NewHandler(snap, fakeStatus{}, nil)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	req := httptest.NewRequest(http.MethodGet, "/", nil).WithContext(ctx)

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	if rec.Code != http.StatusServiceUnavailable {
		t.Errorf("status = %d, want 503", rec.Code)
	}
}

func TestRouting(t *testing.T) {
	reg := prometheus.NewRegistry()
	reg.MustRegister(prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Name: "luxws_test_gauge",
		Help: "Test gauge",
	}, func() float64 { return 1 }))

	h := NewHandler(readySnapshot(), fakeStatus{status: session.Status{State: session.StateDataSelected}}, reg)

	tests := []struct {
		name       string
		method     string
		path       string
		wantStatus int
		wantBody   string
	}{
		{"data", http.MethodGet, "/", http.StatusOK, `"metadata"`},
		{"metrics", http.MethodGet, "/metrics", http.StatusOK, "luxws_test_gauge 1"},
		{"health", http.MethodGet, "/healthz", http.StatusOK, `"state":"DATA_SELECTED"`},
		{"unknown path", http.MethodGet, "/nope", http.StatusNotFound, ""},
		{"wrong method", http.MethodPost, "/", http.StatusMethodNotAllowed, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, httptest.NewRequest(tt.method, tt.path, nil))
			if rec.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d", rec.Code, tt.wantStatus)
			}
			if tt.wantBody != "" && !strings.Contains(rec.Body.String(), tt.wantBody) {
				t.Errorf("body = %s, want containing %s", rec.Body.String(), tt.wantBody)
			}
		})
	}
}

func TestHealthHandler_ErrorState(t *testing.T) {
	h := NewHandler(readySnapshot(), fakeStatus{status: session.Status{State: session.StateError, Errors: 3}}, nil)

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))

	if rec.Code != http.StatusServiceUnavailable {
		t.Errorf("status = %d, want 503", rec.Code)
	}
}

func TestServer_StartAndShutdown(t *testing.T) {
	snap := &fakeSnapshot{ready: make(chan struct{})}
	srv := New(&Config{Listen: "127.0.0.1:0"}, snap, fakeStatus{}, nil)
	if err := srv.Listen(); err != nil {
		t.Fatalf("Listen() error = %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- srv.Start(ctx) }()

	// A request waiting for the first snapshot must not block shutdown.
	reqDone := make(chan int, 1)
	go func() {
		resp, err := http.Get("http://" + srv.Addr() + "/")
		if err != nil {
			reqDone <- 0
			return
		}
		_, _ = io.Copy(io.Discard, resp.Body)
		resp.Body.Close()
		reqDone <- resp.StatusCode
	}()

	resp, err := http.Get("http://" + srv.Addr() + "/healthz")
	if err != nil {
		t.Fatalf("GET /healthz: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("healthz status = %d", resp.StatusCode)
	}

	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Errorf("Start() error = %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("Start() did not return after cancellation")
	}

	select {
	case code := <-reqDone:
		if code != 0 && code != http.StatusServiceUnavailable {
			t.Errorf("pending request status = %d, want 503 or connection error", code)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("pending request was not released")
	}
}
