package handler

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/sma-exam-scheduler/internal/dto"
	"github.com/noah-isme/sma-exam-scheduler/internal/models"
	"github.com/noah-isme/sma-exam-scheduler/internal/service"
	appErrors "github.com/noah-isme/sma-exam-scheduler/pkg/errors"
	"github.com/noah-isme/sma-exam-scheduler/pkg/jobs"
	"github.com/noah-isme/sma-exam-scheduler/pkg/response"
)

type examScheduler interface {
	Generate(ctx context.Context, req dto.GenerateExamScheduleRequest) (*dto.GenerateExamScheduleResponse, error)
	GenerateAsync(ctx context.Context, req dto.GenerateExamScheduleRequest) (*dto.GenerateJobResponse, error)
	JobStatus(id string) (*jobs.Status, error)
	Save(ctx context.Context, req dto.SaveExamScheduleRequest) (*models.ExamSchedule, error)
	List(ctx context.Context, query dto.ExamScheduleQuery) ([]models.ExamSchedule, error)
	GetItems(ctx context.Context, scheduleID string) ([]dto.ExamScheduleItemView, error)
	AddItem(ctx context.Context, scheduleID string, req dto.CreateExamScheduleItemRequest) (*dto.UpdateExamScheduleItemResponse, error)
	UpdateItem(ctx context.Context, scheduleID, itemID string, req dto.UpdateExamScheduleItemRequest) (*dto.UpdateExamScheduleItemResponse, error)
	DeleteItem(ctx context.Context, scheduleID, itemID string) (*dto.ConflictCheckResponse, error)
	DetectConflicts(ctx context.Context, scheduleID string) (*dto.ConflictCheckResponse, error)
	DetectSubmitted(ctx context.Context, req dto.DetectConflictsRequest) (*dto.ConflictCheckResponse, error)
	Export(ctx context.Context, scheduleID, format string) (*service.ExportFile, error)
	Delete(ctx context.Context, scheduleID string) error
}

// ExamScheduleHandler exposes exam scheduling endpoints.
type ExamScheduleHandler struct {
	service examScheduler
}

// NewExamScheduleHandler constructs the handler.
func NewExamScheduleHandler(svc examScheduler) *ExamScheduleHandler {
	return &ExamScheduleHandler{service: svc}
}

// Register mounts the exam schedule routes on the group.
func (h *ExamScheduleHandler) Register(group *gin.RouterGroup) {
	group.POST("/generate", h.Generate)
	group.POST("/generate/async", h.GenerateAsync)
	group.GET("/jobs/:id", h.JobStatus)
	group.POST("/save", h.Save)
	group.POST("/conflicts", h.DetectSubmitted)
	group.GET("", h.List)
	group.GET("/:id/items", h.Items)
	group.POST("/:id/items", h.AddItem)
	group.PUT("/:id/items/:itemId", h.UpdateItem)
	group.DELETE("/:id/items/:itemId", h.DeleteItem)
	group.GET("/:id/conflicts", h.Conflicts)
	group.GET("/:id/export", h.Export)
	group.DELETE("/:id", h.Delete)
}

func bindJSON(c *gin.Context, dst interface{}, message string) bool {
	if err := c.ShouldBindJSON(dst); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, message))
		return false
	}
	return true
}

// Generate godoc
// @Summary Generate an exam schedule proposal
// @Description Runs the solver synchronously. Infeasible runs answer 422 with a diagnosis; a timed-out run with allowPartial answers 206 with the partial schedule.
// @Tags ExamSchedules
// @Accept json
// @Produce json
// @Param payload body dto.GenerateExamScheduleRequest true "Generation payload"
// @Success 200 {object} response.Envelope
// @Router /exam-schedules/generate [post]
func (h *ExamScheduleHandler) Generate(c *gin.Context) {
	var req dto.GenerateExamScheduleRequest
	if !bindJSON(c, &req, "invalid exam schedule payload") {
		return
	}
	resp, err := h.service.Generate(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, resp)
}

// GenerateAsync godoc
// @Summary Queue exam schedule generation
// @Tags ExamSchedules
// @Accept json
// @Produce json
// @Param payload body dto.GenerateExamScheduleRequest true "Generation payload"
// @Success 202 {object} response.Envelope
// @Router /exam-schedules/generate/async [post]
func (h *ExamScheduleHandler) GenerateAsync(c *gin.Context) {
	var req dto.GenerateExamScheduleRequest
	if !bindJSON(c, &req, "invalid exam schedule payload") {
		return
	}
	resp, err := h.service.GenerateAsync(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	resp.StatusURL = jobStatusURL(c.FullPath(), resp.JobID)
	response.Accepted(c, resp)
}

// jobStatusURL derives the job route from the route that accepted the job.
func jobStatusURL(fullPath, jobID string) string {
	if base, ok := strings.CutSuffix(fullPath, "/generate/async"); ok {
		return base + "/jobs/" + jobID
	}
	return "jobs/" + jobID
}

// JobStatus godoc
// @Summary Get generation job status
// @Tags ExamSchedules
// @Produce json
// @Param id path string true "Job ID"
// @Success 200 {object} response.Envelope
// @Router /exam-schedules/jobs/{id} [get]
func (h *ExamScheduleHandler) JobStatus(c *gin.Context) {
	st, err := h.service.JobStatus(c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, st)
}

// Save godoc
// @Summary Persist a generated proposal
// @Tags ExamSchedules
// @Accept json
// @Produce json
// @Param payload body dto.SaveExamScheduleRequest true "Save payload"
// @Success 201 {object} response.Envelope
// @Router /exam-schedules/save [post]
func (h *ExamScheduleHandler) Save(c *gin.Context) {
	var req dto.SaveExamScheduleRequest
	if !bindJSON(c, &req, "invalid save payload") {
		return
	}
	record, err := h.service.Save(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, record)
}

// List godoc
// @Summary List saved exam schedules
// @Tags ExamSchedules
// @Produce json
// @Param semester query string false "Semester"
// @Param examType query string false "Exam type"
// @Success 200 {object} response.Envelope
// @Router /exam-schedules [get]
func (h *ExamScheduleHandler) List(c *gin.Context) {
	var query dto.ExamScheduleQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid query"))
		return
	}
	list, err := h.service.List(c.Request.Context(), query)
	if err != nil {
		response.Error(c, err)
		return
	}
	if list == nil {
		list = []models.ExamSchedule{}
	}
	response.JSON(c, http.StatusOK, list, map[string]interface{}{"total": len(list)})
}

// Items godoc
// @Summary List items of a saved exam schedule
// @Tags ExamSchedules
// @Produce json
// @Param id path string true "Schedule ID"
// @Success 200 {object} response.Envelope
// @Router /exam-schedules/{id}/items [get]
func (h *ExamScheduleHandler) Items(c *gin.Context) {
	items, err := h.service.GetItems(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, items)
}

// AddItem godoc
// @Summary Add a subject to a saved exam schedule
// @Description The item is stored and the response lists every conflict the schedule has afterwards.
// @Tags ExamSchedules
// @Accept json
// @Produce json
// @Param id path string true "Schedule ID"
// @Param payload body dto.CreateExamScheduleItemRequest true "Item payload"
// @Success 201 {object} response.Envelope
// @Router /exam-schedules/{id}/items [post]
func (h *ExamScheduleHandler) AddItem(c *gin.Context) {
	var req dto.CreateExamScheduleItemRequest
	if !bindJSON(c, &req, "invalid item payload") {
		return
	}
	resp, err := h.service.AddItem(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, resp)
}

// UpdateItem godoc
// @Summary Move an exam to another room, date or time
// @Description The edit is stored and the response lists every conflict the schedule has afterwards.
// @Tags ExamSchedules
// @Accept json
// @Produce json
// @Param id path string true "Schedule ID"
// @Param itemId path string true "Item ID"
// @Param payload body dto.UpdateExamScheduleItemRequest true "Item payload"
// @Success 200 {object} response.Envelope
// @Router /exam-schedules/{id}/items/{itemId} [put]
func (h *ExamScheduleHandler) UpdateItem(c *gin.Context) {
	var req dto.UpdateExamScheduleItemRequest
	if !bindJSON(c, &req, "invalid item payload") {
		return
	}
	resp, err := h.service.UpdateItem(c.Request.Context(), c.Param("id"), c.Param("itemId"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, resp)
}

// DeleteItem godoc
// @Summary Remove an exam from a saved schedule
// @Description Responds with the conflicts that remain after the removal.
// @Tags ExamSchedules
// @Produce json
// @Param id path string true "Schedule ID"
// @Param itemId path string true "Item ID"
// @Success 200 {object} response.Envelope
// @Router /exam-schedules/{id}/items/{itemId} [delete]
func (h *ExamScheduleHandler) DeleteItem(c *gin.Context) {
	resp, err := h.service.DeleteItem(c.Request.Context(), c.Param("id"), c.Param("itemId"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, resp)
}

// Conflicts godoc
// @Summary Re-validate a saved exam schedule
// @Tags ExamSchedules
// @Produce json
// @Param id path string true "Schedule ID"
// @Success 200 {object} response.Envelope
// @Router /exam-schedules/{id}/conflicts [get]
func (h *ExamScheduleHandler) Conflicts(c *gin.Context) {
	resp, err := h.service.DetectConflicts(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, resp)
}

// DetectSubmitted godoc
// @Summary Re-validate a submitted exam schedule
// @Tags ExamSchedules
// @Accept json
// @Produce json
// @Param payload body dto.DetectConflictsRequest true "Schedule to check"
// @Success 200 {object} response.Envelope
// @Router /exam-schedules/conflicts [post]
func (h *ExamScheduleHandler) DetectSubmitted(c *gin.Context) {
	var req dto.DetectConflictsRequest
	if !bindJSON(c, &req, "invalid conflict check payload") {
		return
	}
	resp, err := h.service.DetectSubmitted(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, resp)
}

// Export godoc
// @Summary Export a saved exam schedule
// @Tags ExamSchedules
// @Produce text/csv
// @Produce application/pdf
// @Param id path string true "Schedule ID"
// @Param format query string false "csv or pdf"
// @Success 200 {file} file
// @Router /exam-schedules/{id}/export [get]
func (h *ExamScheduleHandler) Export(c *gin.Context) {
	var query dto.ExportQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid export query"))
		return
	}
	file, err := h.service.Export(c.Request.Context(), c.Param("id"), query.Format)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Attachment(c, file.Filename, file.ContentType, file.Body)
}

// Delete godoc
// @Summary Delete a saved exam schedule and its items
// @Tags ExamSchedules
// @Param id path string true "Schedule ID"
// @Success 204
// @Router /exam-schedules/{id} [delete]
func (h *ExamScheduleHandler) Delete(c *gin.Context) {
	if err := h.service.Delete(c.Request.Context(), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}
