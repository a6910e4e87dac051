package server

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/muurk/luxws/internal/logging"
	"github.com/muurk/luxws/internal/session"
	"github.com/muurk/luxws/internal/snapshot"
	"github.com/muurk/luxws/internal/version"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

// Snapshot provides the data served on GET /.
type Snapshot interface {
	Wait(ctx context.Context) ([]snapshot.Leaf, time.Time, error)
}

// StatusSource provides the data served on GET /healthz.
type StatusSource interface {
	Status() session.Status
}

// Response is the body of GET /.
type Response struct {
	Data     []snapshot.Leaf `json:"data"`
	Metadata Metadata        `json:"metadata"`
}

// Metadata describes the build and the age of the data.
type Metadata struct {
	Version   string    `json:"version"`
	Commit    string    `json:"commit"`
	Timestamp time.Time `json:"timestamp"`
}

// NewHandler builds the router. A nil gatherer disables /metrics.
func NewHandler(snap Snapshot, status StatusSource, gatherer prometheus.Gatherer) http.Handler {
	mux := http.NewServeMux()
	mux.Handle("GET /{$}", dataHandler(snap))
	mux.Handle("GET /healthz", healthHandler(status))
	if gatherer != nil {
		mux.Handle("GET /metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))
	}
	return logRequests(mux)
}

func dataHandler(snap Snapshot) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		leaves, updated, err := snap.Wait(r.Context())
		if err != nil {
			logging.Debug("Request cancelled before first snapshot",
				zap.String("remote_addr", r.RemoteAddr),
				zap.Error(err),
			)
			http.Error(w, "no data available yet", http.StatusServiceUnavailable)
			return
		}
		if leaves == nil {
			leaves = []snapshot.Leaf{}
		}

		info := version.Get()
		writeJSON(w, http.StatusOK, Response{
			Data: leaves,
			Metadata: Metadata{
				Version:   info.Version,
				Commit:    info.Commit,
				Timestamp: updated.UTC(),
			},
		})
	}
}

func healthHandler(status StatusSource) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		st := status.Status()
		code := http.StatusOK
		if st.State == session.StateError {
			code = http.StatusServiceUnavailable
		}
		writeJSON(w, code, st)
	}
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logging.Debug("Failed to write response", zap.Error(err))
	}
}

// statusRecorder captures the status code written by a handler.
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

func (r *statusRecorder) Unwrap() http.ResponseWriter {
	return r.ResponseWriter
}

func logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		logging.LogHTTPRequest(r.RemoteAddr, r.Method, r.URL.Path, rec.status, time.Since(start))
	})
}
