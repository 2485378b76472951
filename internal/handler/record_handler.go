package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/mkovalenko/student-journal-api/internal/models"
	appErrors "github.com/mkovalenko/student-journal-api/pkg/errors"
	"github.com/mkovalenko/student-journal-api/pkg/response"
)

type recordService interface {
	CreateGrade(ctx context.Context, actor *models.User, req models.CreateGradeRequest) (*models.Grade, error)
	ListGrades(ctx context.Context, actor *models.User, filter models.RecordFilter) ([]models.Grade, error)
	GetGrade(ctx context.Context, actor *models.User, id string) (*models.Grade, error)
	UpdateGrade(ctx context.Context, actor *models.User, id string, req models.UpdateGradeRequest) (*models.Grade, error)
	DeleteGrade(ctx context.Context, actor *models.User, id string) error
	CreateAttendance(ctx context.Context, actor *models.User, req models.CreateAttendanceRequest) (*models.Attendance, error)
	ListAttendance(ctx context.Context, actor *models.User, filter models.RecordFilter) ([]models.Attendance, error)
	GetAttendance(ctx context.Context, actor *models.User, id string) (*models.Attendance, error)
	UpdateAttendance(ctx context.Context, actor *models.User, id string, req models.UpdateAttendanceRequest) (*models.Attendance, error)
	DeleteAttendance(ctx context.Context, actor *models.User, id string) error
}

// RecordHandler exposes grade and attendance endpoints.
type RecordHandler struct {
	records recordService
}

// NewRecordHandler constructs handler.
func NewRecordHandler(records recordService) *RecordHandler {
	return &RecordHandler{records: records}
}

func recordFilter(c *gin.Context) models.RecordFilter {
	skip, limit := paging(c)
	return models.RecordFilter{
		StudentID:      c.Query("student_id"),
		SubjectGroupID: c.Query("subject_group_id"),
		Skip:           skip,
		Limit:          limit,
	}
}

// CreateGrade godoc
// @Summary Record a grade
// @Tags Records
// @Accept json
// @Produce json
// @Param payload body models.CreateGradeRequest true "Grade payload"
// @Success 201 {object} response.Envelope
// @Security BearerAuth
// @Router /api/journal/grades [post]
func (h *RecordHandler) CreateGrade(c *gin.Context) {
	var req models.CreateGradeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	grade, err := h.records.CreateGrade(c.Request.Context(), currentUser(c), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, grade)
}

// ListGrades godoc
// @Summary List grades
// @Description Students only ever receive their own grades.
// @Tags Records
// @Produce json
// @Param student_id query string false "Filter by student"
// @Param subject_group_id query string false "Filter by binding"
// @Success 200 {object} response.Envelope
// @Security BearerAuth
// @Router /api/journal/grades [get]
func (h *RecordHandler) ListGrades(c *gin.Context) {
	grades, err := h.records.ListGrades(c.Request.Context(), currentUser(c), recordFilter(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, grades, nil)
}

// GetGrade godoc
// @Summary Get a grade
// @Tags Records
// @Produce json
// @Param id path string true "Grade ID"
// @Success 200 {object} response.Envelope
// @Security BearerAuth
// @Router /api/journal/grades/{id} [get]
func (h *RecordHandler) GetGrade(c *gin.Context) {
	grade, err := h.records.GetGrade(c.Request.Context(), currentUser(c), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, grade, nil)
}

// UpdateGrade godoc
// @Summary Update a grade
// @Tags Records
// @Accept json
// @Produce json
// @Param id path string true "Grade ID"
// @Param payload body models.UpdateGradeRequest true "Update payload"
// @Success 200 {object} response.Envelope
// @Security BearerAuth
// @Router /api/journal/grades/{id} [put]
func (h *RecordHandler) UpdateGrade(c *gin.Context) {
	var req models.UpdateGradeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	grade, err := h.records.UpdateGrade(c.Request.Context(), currentUser(c), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, grade, nil)
}

// DeleteGrade godoc
// @Summary Delete a grade
// @Tags Records
// @Produce json
// @Param id path string true "Grade ID"
// @Success 204
// @Security BearerAuth
// @Router /api/journal/grades/{id} [delete]
func (h *RecordHandler) DeleteGrade(c *gin.Context) {
	if err := h.records.DeleteGrade(c.Request.Context(), currentUser(c), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// CreateAttendance godoc
// @Summary Record attendance
// @Tags Records
// @Accept json
// @Produce json
// @Param payload body models.CreateAttendanceRequest true "Attendance payload"
// @Success 201 {object} response.Envelope
// @Security BearerAuth
// @Router /api/journal/attendance [post]
func (h *RecordHandler) CreateAttendance(c *gin.Context) {
	var req models.CreateAttendanceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	record, err := h.records.CreateAttendance(c.Request.Context(), currentUser(c), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, record)
}

// ListAttendance godoc
// @Summary List attendance records
// @Description Students only ever receive their own records.
// @Tags Records
// @Produce json
// @Param student_id query string false "Filter by student"
// @Param subject_group_id query string false "Filter by binding"
// @Success 200 {object} response.Envelope
// @Security BearerAuth
// @Router /api/journal/attendance [get]
func (h *RecordHandler) ListAttendance(c *gin.Context) {
	records, err := h.records.ListAttendance(c.Request.Context(), currentUser(c), recordFilter(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, records, nil)
}

// GetAttendance godoc
// @Summary Get an attendance record
// @Tags Records
// @Produce json
// @Param id path string true "Record ID"
// @Success 200 {object} response.Envelope
// @Security BearerAuth
// @Router /api/journal/attendance/{id} [get]
func (h *RecordHandler) GetAttendance(c *gin.Context) {
	record, err := h.records.GetAttendance(c.Request.Context(), currentUser(c), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, record, nil)
}

// UpdateAttendance godoc
// @Summary Update an attendance record
// @Tags Records
// @Accept json
// @Produce json
// @Param id path string true "Record ID"
// @Param payload body models.UpdateAttendanceRequest true "Update payload"
// @Success 200 {object} response.Envelope
// @Security BearerAuth
// @Router /api/journal/attendance/{id} [put]
func (h *RecordHandler) UpdateAttendance(c *gin.Context) {
	var req models.UpdateAttendanceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	record, err := h.records.UpdateAttendance(c.Request.Context(), currentUser(c), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, record, nil)
}

// DeleteAttendance godoc
// @Summary Delete an attendance record
// @Tags Records
// @Produce json
// @Param id path string true "Record ID"
// @Success 204
// @Security BearerAuth
// @Router /api/journal/attendance/{id} [delete]
func (h *RecordHandler) DeleteAttendance(c *gin.Context) {
	if err := h.records.DeleteAttendance(c.Request.Context(), currentUser(c), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}
