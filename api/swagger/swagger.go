package swagger

import "github.com/swaggo/swag"

const docTemplate = `{
    "swagger": "2.0",
    "info": {
        "title": "Exam Scheduler API",
        "description": "Generates, stores and validates examination timetables.",
        "version": "1.0.0"
    },
    "basePath": "/",
    "schemes": [
        "http"
    ],
    "tags": [
        {"name": "ExamSchedules", "description": "Timetable generation, storage and conflict checks"},
        {"name": "Subjects", "description": "Subject catalogue"},
        {"name": "Rooms", "description": "Exam rooms"},
        {"name": "Operations", "description": "Health, readiness and metrics"}
    ],
    "paths": {
        "/health": {
            "get": {
                "tags": ["Operations"],
                "summary": "Liveness check",
                "responses": {
                    "200": {"description": "OK"}
                }
            }
        },
        "/ready": {
            "get": {
                "tags": ["Operations"],
                "summary": "Readiness check",
                "description": "Pings postgres and, when proposals live in redis, redis.",
                "responses": {
                    "200": {"description": "Ready"},
                    "503": {"description": "A dependency is unreachable"}
                }
            }
        },
        "/metrics": {
            "get": {
                "tags": ["Operations"],
                "summary": "Prometheus metrics",
                "produces": ["text/plain"],
                "responses": {
                    "200": {"description": "Prometheus exposition format"}
                }
            }
        },
        "/api/v1/exam-schedules": {
            "get": {
                "tags": ["ExamSchedules"],
                "summary": "List saved exam schedules",
                "parameters": [
                    {"name": "semester", "in": "query", "type": "string"},
                    {"name": "examType", "in": "query", "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/api/v1/exam-schedules/generate": {
            "post": {
                "tags": ["ExamSchedules"],
                "summary": "Generate an exam schedule proposal",
                "description": "Runs the solver synchronously. Infeasible runs answer 422 with a diagnosis; a timed-out run with allowPartial answers 206 with the partial schedule.",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/GenerateExamScheduleRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "206": {"description": "Partial schedule", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "400": {"description": "Invalid configuration", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "422": {"description": "Unassignable subject or infeasible schedule", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/api/v1/exam-schedules/generate/async": {
            "post": {
                "tags": ["ExamSchedules"],
                "summary": "Queue an exam schedule generation",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/GenerateExamScheduleRequest"}}
                ],
                "responses": {
                    "202": {"description": "Accepted", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/api/v1/exam-schedules/jobs/{id}": {
            "get": {
                "tags": ["ExamSchedules"],
                "summary": "Poll a generation job",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "404": {"description": "Unknown or expired job", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/api/v1/exam-schedules/save": {
            "post": {
                "tags": ["ExamSchedules"],
                "summary": "Persist a generated proposal",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/SaveExamScheduleRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/api/v1/exam-schedules/conflicts": {
            "post": {
                "tags": ["ExamSchedules"],
                "summary": "Re-validate a submitted exam schedule",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/DetectConflictsRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/api/v1/exam-schedules/{id}": {
            "delete": {
                "tags": ["ExamSchedules"],
                "summary": "Delete a saved exam schedule and its items",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "204": {"description": "No Content"}
                }
            }
        },
        "/api/v1/exam-schedules/{id}/items": {
            "get": {
                "tags": ["ExamSchedules"],
                "summary": "List items of a saved exam schedule",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            },
            "post": {
                "tags": ["ExamSchedules"],
                "summary": "Add a subject to a saved exam schedule",
                "description": "The item is stored and the response lists every conflict the schedule has afterwards.",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"},
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/CreateExamScheduleItemRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "409": {"description": "Subject already scheduled", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/api/v1/exam-schedules/{id}/items/{itemId}": {
            "put": {
                "tags": ["ExamSchedules"],
                "summary": "Move an exam to another room, date or time",
                "description": "The edit is stored and the response lists every conflict the schedule has afterwards.",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"},
                    {"name": "itemId", "in": "path", "required": true, "type": "string"},
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/UpdateExamScheduleItemRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            },
            "delete": {
                "tags": ["ExamSchedules"],
                "summary": "Remove an exam from a saved schedule",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"},
                    {"name": "itemId", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "Remaining conflicts", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/api/v1/exam-schedules/{id}/conflicts": {
            "get": {
                "tags": ["ExamSchedules"],
                "summary": "Re-validate a saved exam schedule",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/api/v1/exam-schedules/{id}/export": {
            "get": {
                "tags": ["ExamSchedules"],
                "summary": "Export a saved exam schedule",
                "produces": ["text/csv", "application/pdf"],
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"},
                    {"name": "format", "in": "query", "type": "string", "enum": ["csv", "pdf"]}
                ],
                "responses": {
                    "200": {"description": "File", "schema": {"type": "file"}}
                }
            }
        },
        "/api/v1/subjects": {
            "get": {
                "tags": ["Subjects"],
                "summary": "List subjects",
                "parameters": [
                    {"name": "semester", "in": "query", "type": "string"},
                    {"name": "type", "in": "query", "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            },
            "post": {
                "tags": ["Subjects"],
                "summary": "Create subject",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/SubjectRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "409": {"description": "Code already exists", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/api/v1/subjects/{id}": {
            "get": {
                "tags": ["Subjects"],
                "summary": "Get subject",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            },
            "put": {
                "tags": ["Subjects"],
                "summary": "Update subject",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"},
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/SubjectRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            },
            "delete": {
                "tags": ["Subjects"],
                "summary": "Delete subject",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "204": {"description": "No Content"},
                    "409": {"description": "Referenced by a saved schedule", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/api/v1/rooms": {
            "get": {
                "tags": ["Rooms"],
                "summary": "List rooms",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            },
            "post": {
                "tags": ["Rooms"],
                "summary": "Create room",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/RoomRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/api/v1/rooms/import": {
            "post": {
                "tags": ["Rooms"],
                "summary": "Import rooms from CSV",
                "description": "Multipart file field or raw text/csv body with name, type and capacity columns. Rooms are matched by name.",
                "consumes": ["text/csv", "multipart/form-data"],
                "parameters": [
                    {"name": "file", "in": "formData", "type": "file"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "400": {"description": "Invalid rows", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/api/v1/rooms/{id}": {
            "get": {
                "tags": ["Rooms"],
                "summary": "Get room",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            },
            "put": {
                "tags": ["Rooms"],
                "summary": "Update room",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"},
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/RoomRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            },
            "delete": {
                "tags": ["Rooms"],
                "summary": "Delete room",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "204": {"description": "No Content"},
                    "409": {"description": "Used by a saved schedule", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        }
    },
    "definitions": {
        "WorkingHours": {
            "type": "object",
            "properties": {
                "start": {"type": "string", "example": "09:00"},
                "end": {"type": "string", "example": "17:00"}
            },
            "required": ["start", "end"]
        },
        "ScheduleConfigRequest": {
            "type": "object",
            "properties": {
                "semester": {"type": "string"},
                "examType": {"type": "string", "enum": ["Theory", "Practical", "Internal", "External", "Regular"]},
                "startDate": {"type": "string", "example": "2024-03-04"},
                "workingHours": {"$ref": "#/definitions/WorkingHours"},
                "examDurations": {"type": "object", "additionalProperties": {"type": "integer"}},
                "breakMinutes": {"type": "integer"},
                "skipSundays": {"type": "boolean"},
                "highGapDays": {"type": "integer"},
                "mediumGapDays": {"type": "integer"},
                "allowMultiplePerRoom": {"type": "boolean"},
                "horizonDays": {"type": "integer"}
            },
            "required": ["startDate"]
        },
        "SubjectInput": {
            "type": "object",
            "properties": {
                "code": {"type": "string"},
                "name": {"type": "string"},
                "category": {"type": "string"},
                "semester": {"type": "string"},
                "difficulty": {"type": "string", "enum": ["Low", "Medium", "High"]},
                "durationMinutes": {"type": "integer"}
            },
            "required": ["code", "category", "semester"]
        },
        "RoomInput": {
            "type": "object",
            "properties": {
                "id": {"type": "string"},
                "name": {"type": "string"},
                "category": {"type": "string", "enum": ["Classroom", "Lab"]},
                "capacity": {"type": "integer"}
            },
            "required": ["id", "category"]
        },
        "GenerateExamScheduleRequest": {
            "type": "object",
            "properties": {
                "config": {"$ref": "#/definitions/ScheduleConfigRequest"},
                "subjects": {"type": "array", "items": {"$ref": "#/definitions/SubjectInput"}},
                "rooms": {"type": "array", "items": {"$ref": "#/definitions/RoomInput"}},
                "timeLimitSeconds": {"type": "integer"},
                "allowPartial": {"type": "boolean"},
                "abortOnUnassignable": {"type": "boolean"}
            },
            "required": ["config"]
        },
        "SaveExamScheduleRequest": {
            "type": "object",
            "properties": {
                "proposalId": {"type": "string"},
                "name": {"type": "string"}
            },
            "required": ["proposalId", "name"]
        },
        "CreateExamScheduleItemRequest": {
            "type": "object",
            "properties": {
                "subjectCode": {"type": "string"},
                "roomId": {"type": "string"},
                "date": {"type": "string"},
                "startTime": {"type": "string"},
                "endTime": {"type": "string"}
            },
            "required": ["subjectCode", "roomId", "date", "startTime"]
        },
        "UpdateExamScheduleItemRequest": {
            "type": "object",
            "properties": {
                "roomId": {"type": "string"},
                "date": {"type": "string"},
                "startTime": {"type": "string"},
                "endTime": {"type": "string"}
            },
            "required": ["roomId", "date", "startTime"]
        },
        "SubmittedItem": {
            "type": "object",
            "properties": {
                "subject": {"$ref": "#/definitions/SubjectInput"},
                "room": {"$ref": "#/definitions/RoomInput"},
                "date": {"type": "string"},
                "startTime": {"type": "string"},
                "endTime": {"type": "string"}
            },
            "required": ["subject", "room", "date", "startTime", "endTime"]
        },
        "DetectConflictsRequest": {
            "type": "object",
            "properties": {
                "config": {"$ref": "#/definitions/ScheduleConfigRequest"},
                "items": {"type": "array", "items": {"$ref": "#/definitions/SubmittedItem"}}
            },
            "required": ["config", "items"]
        },
        "SubjectRequest": {
            "type": "object",
            "properties": {
                "code": {"type": "string"},
                "name": {"type": "string"},
                "type": {"type": "string", "enum": ["Theory", "Practical", "Internal", "External", "Regular"]},
                "semester": {"type": "string"},
                "difficulty": {"type": "string", "enum": ["Low", "Medium", "High"]},
                "duration": {"type": "integer"}
            },
            "required": ["code", "name", "type", "semester"]
        },
        "RoomRequest": {
            "type": "object",
            "properties": {
                "id": {"type": "string"},
                "name": {"type": "string"},
                "type": {"type": "string", "enum": ["Classroom", "Lab"]},
                "capacity": {"type": "integer"}
            },
            "required": ["name", "type", "capacity"]
        },
        "APIError": {
            "type": "object",
            "properties": {
                "code": {"type": "string"},
                "message": {"type": "string"},
                "status": {"type": "integer"},
                "details": {"type": "object"}
            }
        },
        "ResponseEnvelope": {
            "type": "object",
            "properties": {
                "data": {"type": "object"},
                "error": {"$ref": "#/definitions/APIError"},
                "meta": {"type": "object"}
            }
        }
    }
}`

type swaggerDoc struct{}

// ReadDoc returns the Swagger document.
func (s *swaggerDoc) ReadDoc() string {
	return docTemplate
}

func init() {
	swag.Register(swag.Name, &swaggerDoc{})
}
