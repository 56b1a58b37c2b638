package main

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/noah-isme/sma-exam-scheduler/internal/handler"
	"github.com/noah-isme/sma-exam-scheduler/internal/service"
	"github.com/noah-isme/sma-exam-scheduler/pkg/config"
)

func testRouter(env string) *gin.Engine {
	metrics := service.NewMetricsService()
	cfg := &config.Config{Env: env, APIPrefix: "/api/v1"}
	return newRouter(cfg, zap.NewNop(), routes{
		schedules: handler.NewExamScheduleHandler(nil),
		subjects:  handler.NewSubjectHandler(nil),
		rooms:     handler.NewRoomHandler(nil),
		ops:       handler.NewMetricsHandler(metrics.Handler(), nil, zap.NewNop()),
	}, metrics)
}

func get(r http.Handler, path string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, nil))
	return w
}

func TestRouterServesSwaggerOutsideProduction(t *testing.T) {
	r := testRouter(config.EnvDevelopment)

	doc := get(r, "/docs/doc.json")
	require.Equal(t, http.StatusOK, doc.Code)
	assert.Contains(t, doc.Body.String(), "/api/v1/exam-schedules/generate")
	assert.Contains(t, doc.Body.String(), "/api/v1/rooms/import")

	assert.Equal(t, http.StatusOK, get(r, "/health").Code)
}

func TestRouterHidesSwaggerInProduction(t *testing.T) {
	r := testRouter(config.EnvProduction)

	assert.Equal(t, http.StatusNotFound, get(r, "/docs/doc.json").Code)
	assert.Equal(t, http.StatusOK, get(r, "/health").Code)
}
