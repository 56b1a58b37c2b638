package service

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestMetricsServiceExposesSolveOutcomes(t *testing.T) {
	m := NewMetricsService()
	m.ObserveSolve("optimal", 250*time.Millisecond)
	m.ObserveSolve("invalid", 0)
	m.ObserveHTTPRequest(http.MethodPost, "/api/v1/exam-schedules/generate", http.StatusOK, time.Second)

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	body := rec.Body.String()
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, body, `exam_schedule_solves_total{outcome="optimal"} 1`)
	assert.Contains(t, body, `exam_schedule_solves_total{outcome="invalid"} 1`)
	assert.Contains(t, body, `exam_schedule_solve_duration_seconds_count{outcome="optimal"} 1`)
	assert.NotContains(t, body, `exam_schedule_solve_duration_seconds_count{outcome="invalid"}`)
	assert.Contains(t, body, `http_requests_total{method="POST",path="/api/v1/exam-schedules/generate",status="200"} 1`)
}

func TestMetricsServiceNilSafe(t *testing.T) {
	var m *MetricsService
	m.ObserveSolve("optimal", time.Second)
	m.ObserveHTTPRequest(http.MethodGet, "/", http.StatusOK, time.Second)

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}
