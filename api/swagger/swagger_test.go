package swagger

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/swaggo/swag"
)

func TestDocumentListsServedRoutes(t *testing.T) {
	raw, err := swag.ReadDoc()
	require.NoError(t, err)

	var doc struct {
		Paths       map[string]map[string]json.RawMessage `json:"paths"`
		Definitions map[string]json.RawMessage            `json:"definitions"`
	}
	require.NoError(t, json.Unmarshal([]byte(raw), &doc))

	expected := map[string][]string{
		"/health":                                    {"get"},
		"/ready":                                     {"get"},
		"/metrics":                                   {"get"},
		"/api/v1/exam-schedules":                     {"get"},
		"/api/v1/exam-schedules/generate":            {"post"},
		"/api/v1/exam-schedules/generate/async":      {"post"},
		"/api/v1/exam-schedules/jobs/{id}":           {"get"},
		"/api/v1/exam-schedules/save":                {"post"},
		"/api/v1/exam-schedules/conflicts":           {"post"},
		"/api/v1/exam-schedules/{id}":                {"delete"},
		"/api/v1/exam-schedules/{id}/items":          {"get", "post"},
		"/api/v1/exam-schedules/{id}/items/{itemId}": {"put", "delete"},
		"/api/v1/exam-schedules/{id}/conflicts":      {"get"},
		"/api/v1/exam-schedules/{id}/export":         {"get"},
		"/api/v1/subjects":                           {"get", "post"},
		"/api/v1/subjects/{id}":                      {"get", "put", "delete"},
		"/api/v1/rooms":                              {"get", "post"},
		"/api/v1/rooms/import":                       {"post"},
		"/api/v1/rooms/{id}":                         {"get", "put", "delete"},
	}
	assert.Len(t, doc.Paths, len(expected))
	for path, methods := range expected {
		ops, ok := doc.Paths[path]
		if !assert.True(t, ok, "missing path %s", path) {
			continue
		}
		for _, method := range methods {
			assert.Contains(t, ops, method, "path %s", path)
		}
	}
	assert.Contains(t, doc.Definitions, "ResponseEnvelope")
	assert.Contains(t, doc.Definitions, "GenerateExamScheduleRequest")
}
