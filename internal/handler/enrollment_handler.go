package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/mkovalenko/student-journal-api/internal/models"
	appErrors "github.com/mkovalenko/student-journal-api/pkg/errors"
	"github.com/mkovalenko/student-journal-api/pkg/response"
)

type enrollmentService interface {
	Enroll(ctx context.Context, req models.CreateStudentSubjectRequest) (*models.EnrollmentResponse, error)
	List(ctx context.Context, actor *models.User, filter models.StudentSubjectFilter) ([]models.StudentSubject, error)
	Delete(ctx context.Context, id string) error
}

// EnrollmentHandler exposes student-subject enrollment endpoints.
type EnrollmentHandler struct {
	enrollments enrollmentService
}

// NewEnrollmentHandler constructs handler.
func NewEnrollmentHandler(enrollments enrollmentService) *EnrollmentHandler {
	return &EnrollmentHandler{enrollments: enrollments}
}

// Create godoc
// @Summary Enroll a student into a subject
// @Description Creates the subject-group binding for the student's group when missing and returns the journal location.
// @Tags Enrollments
// @Accept json
// @Produce json
// @Param payload body models.CreateStudentSubjectRequest true "Enrollment payload"
// @Success 201 {object} response.Envelope
// @Security BearerAuth
// @Router /api/journal/student-subjects [post]
func (h *EnrollmentHandler) Create(c *gin.Context) {
	var req models.CreateStudentSubjectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	res, err := h.enrollments.Enroll(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, res)
}

// List godoc
// @Summary List enrollments
// @Description Students only ever see their own enrollments.
// @Tags Enrollments
// @Produce json
// @Param student_id query string false "Filter by student"
// @Param subject_id query string false "Filter by subject"
// @Success 200 {object} response.Envelope
// @Security BearerAuth
// @Router /api/journal/student-subjects [get]
func (h *EnrollmentHandler) List(c *gin.Context) {
	skip, limit := paging(c)
	links, err := h.enrollments.List(c.Request.Context(), currentUser(c), models.StudentSubjectFilter{
		StudentID: c.Query("student_id"),
		SubjectID: c.Query("subject_id"),
		Skip:      skip,
		Limit:     limit,
	})
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, links, nil)
}

// Delete godoc
// @Summary Delete an enrollment
// @Tags Enrollments
// @Produce json
// @Param id path string true "Enrollment ID"
// @Success 204
// @Security BearerAuth
// @Router /api/journal/student-subjects/{id} [delete]
func (h *EnrollmentHandler) Delete(c *gin.Context) {
	if err := h.enrollments.Delete(c.Request.Context(), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}
