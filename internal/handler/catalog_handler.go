package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/mkovalenko/student-journal-api/internal/models"
	appErrors "github.com/mkovalenko/student-journal-api/pkg/errors"
	"github.com/mkovalenko/student-journal-api/pkg/response"
)

type catalogService interface {
	CreateFaculty(ctx context.Context, req models.CreateFacultyRequest) (*models.Faculty, error)
	ListFaculties(ctx context.Context) ([]models.Faculty, error)
	GetFaculty(ctx context.Context, id string) (*models.Faculty, error)
	DeleteFaculty(ctx context.Context, id string) error
	CreateGroup(ctx context.Context, req models.CreateGroupRequest) (*models.Group, error)
	ListGroups(ctx context.Context, filter models.GroupFilter) ([]models.Group, error)
	GetGroup(ctx context.Context, id string) (*models.Group, error)
	DeleteGroup(ctx context.Context, id string) error
	CreateSubject(ctx context.Context, req models.CreateSubjectRequest) (*models.Subject, error)
	ListSubjects(ctx context.Context, actor *models.User, filter models.SubjectFilter) ([]models.Subject, error)
	GetSubject(ctx context.Context, actor *models.User, id string) (*models.Subject, error)
	DeleteSubject(ctx context.Context, id string) error
	CreateSubjectGroup(ctx context.Context, req models.CreateSubjectGroupRequest) (*models.SubjectGroup, error)
	ListSubjectGroups(ctx context.Context, filter models.SubjectGroupFilter) ([]models.SubjectGroup, error)
	GetSubjectGroup(ctx context.Context, id string) (*models.SubjectGroup, error)
	DeleteSubjectGroup(ctx context.Context, id string) error
	AssignTeacherSubject(ctx context.Context, userID, subjectID string) error
	RemoveTeacherSubject(ctx context.Context, userID, subjectID string) error
	ListTeacherAssignments(ctx context.Context) ([]models.TeacherSubject, error)
	ListTeacherSubjects(ctx context.Context, actor *models.User, teacherID string) ([]models.Subject, error)
}

// CatalogHandler exposes faculty, group, subject, subject-group and
// teacher-subject endpoints.
type CatalogHandler struct {
	catalog catalogService
}

// NewCatalogHandler constructs handler.
func NewCatalogHandler(catalog catalogService) *CatalogHandler {
	return &CatalogHandler{catalog: catalog}
}

// CreateFaculty godoc
// @Summary Create a faculty
// @Tags Catalog
// @Accept json
// @Produce json
// @Param payload body models.CreateFacultyRequest true "Faculty payload"
// @Success 201 {object} response.Envelope
// @Security BearerAuth
// @Router /api/journal/faculties [post]
func (h *CatalogHandler) CreateFaculty(c *gin.Context) {
	var req models.CreateFacultyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	faculty, err := h.catalog.CreateFaculty(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, faculty)
}

// ListFaculties godoc
// @Summary List faculties
// @Tags Catalog
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /api/journal/faculties [get]
func (h *CatalogHandler) ListFaculties(c *gin.Context) {
	faculties, err := h.catalog.ListFaculties(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, faculties, nil)
}

// GetFaculty godoc
// @Summary Get a faculty
// @Tags Catalog
// @Produce json
// @Param id path string true "Faculty ID"
// @Success 200 {object} response.Envelope
// @Router /api/journal/faculties/{id} [get]
func (h *CatalogHandler) GetFaculty(c *gin.Context) {
	faculty, err := h.catalog.GetFaculty(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, faculty, nil)
}

// DeleteFaculty godoc
// @Summary Delete a faculty with all its groups, subjects and records
// @Tags Catalog
// @Produce json
// @Param id path string true "Faculty ID"
// @Success 204
// @Security BearerAuth
// @Router /api/journal/faculties/{id} [delete]
func (h *CatalogHandler) DeleteFaculty(c *gin.Context) {
	if err := h.catalog.DeleteFaculty(c.Request.Context(), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// CreateGroup godoc
// @Summary Create a group
// @Tags Catalog
// @Accept json
// @Produce json
// @Param payload body models.CreateGroupRequest true "Group payload"
// @Success 201 {object} response.Envelope
// @Security BearerAuth
// @Router /api/journal/groups [post]
func (h *CatalogHandler) CreateGroup(c *gin.Context) {
	var req models.CreateGroupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	group, err := h.catalog.CreateGroup(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, group)
}

// ListGroups godoc
// @Summary List groups
// @Tags Catalog
// @Produce json
// @Param faculty_id query string false "Filter by faculty"
// @Success 200 {object} response.Envelope
// @Router /api/journal/groups [get]
func (h *CatalogHandler) ListGroups(c *gin.Context) {
	skip, limit := paging(c)
	groups, err := h.catalog.ListGroups(c.Request.Context(), models.GroupFilter{
		FacultyID: c.Query("faculty_id"),
		Skip:      skip,
		Limit:     limit,
	})
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, groups, nil)
}

// GetGroup godoc
// @Summary Get a group
// @Tags Catalog
// @Produce json
// @Param id path string true "Group ID"
// @Success 200 {object} response.Envelope
// @Router /api/journal/groups/{id} [get]
func (h *CatalogHandler) GetGroup(c *gin.Context) {
	group, err := h.catalog.GetGroup(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, group, nil)
}

// DeleteGroup godoc
// @Summary Delete a group
// @Description Rejected while the group still has active students.
// @Tags Catalog
// @Produce json
// @Param id path string true "Group ID"
// @Success 204
// @Security BearerAuth
// @Router /api/journal/groups/{id} [delete]
func (h *CatalogHandler) DeleteGroup(c *gin.Context) {
	if err := h.catalog.DeleteGroup(c.Request.Context(), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// CreateSubject godoc
// @Summary Create a subject
// @Tags Catalog
// @Accept json
// @Produce json
// @Param payload body models.CreateSubjectRequest true "Subject payload"
// @Success 201 {object} response.Envelope
// @Security BearerAuth
// @Router /api/journal/subjects [post]
func (h *CatalogHandler) CreateSubject(c *gin.Context) {
	var req models.CreateSubjectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	subject, err := h.catalog.CreateSubject(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, subject)
}

// ListSubjects godoc
// @Summary List subjects
// @Description Teachers only see subjects assigned to them.
// @Tags Catalog
// @Produce json
// @Param faculty_id query string false "Filter by faculty"
// @Success 200 {object} response.Envelope
// @Security BearerAuth
// @Router /api/journal/subjects [get]
func (h *CatalogHandler) ListSubjects(c *gin.Context) {
	skip, limit := paging(c)
	subjects, err := h.catalog.ListSubjects(c.Request.Context(), currentUser(c), models.SubjectFilter{
		FacultyID: c.Query("faculty_id"),
		Skip:      skip,
		Limit:     limit,
	})
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, subjects, nil)
}

// GetSubject godoc
// @Summary Get a subject
// @Tags Catalog
// @Produce json
// @Param id path string true "Subject ID"
// @Success 200 {object} response.Envelope
// @Security BearerAuth
// @Router /api/journal/subjects/{id} [get]
func (h *CatalogHandler) GetSubject(c *gin.Context) {
	subject, err := h.catalog.GetSubject(c.Request.Context(), currentUser(c), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, subject, nil)
}

// DeleteSubject godoc
// @Summary Delete a subject with its bindings, enrollments and records
// @Tags Catalog
// @Produce json
// @Param id path string true "Subject ID"
// @Success 204
// @Security BearerAuth
// @Router /api/journal/subjects/{id} [delete]
func (h *CatalogHandler) DeleteSubject(c *gin.Context) {
	if err := h.catalog.DeleteSubject(c.Request.Context(), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// CreateSubjectGroup godoc
// @Summary Bind a subject to a group
// @Tags Catalog
// @Accept json
// @Produce json
// @Param payload body models.CreateSubjectGroupRequest true "Binding payload"
// @Success 201 {object} response.Envelope
// @Security BearerAuth
// @Router /api/journal/subject-groups [post]
func (h *CatalogHandler) CreateSubjectGroup(c *gin.Context) {
	var req models.CreateSubjectGroupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	sg, err := h.catalog.CreateSubjectGroup(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, sg)
}

// ListSubjectGroups godoc
// @Summary List subject-group bindings
// @Tags Catalog
// @Produce json
// @Param subject_id query string false "Filter by subject"
// @Param group_id query string false "Filter by group"
// @Success 200 {object} response.Envelope
// @Security BearerAuth
// @Router /api/journal/subject-groups [get]
func (h *CatalogHandler) ListSubjectGroups(c *gin.Context) {
	skip, limit := paging(c)
	bindings, err := h.catalog.ListSubjectGroups(c.Request.Context(), models.SubjectGroupFilter{
		SubjectID: c.Query("subject_id"),
		GroupID:   c.Query("group_id"),
		Skip:      skip,
		Limit:     limit,
	})
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, bindings, nil)
}

// GetSubjectGroup godoc
// @Summary Get a subject-group binding
// @Tags Catalog
// @Produce json
// @Param id path string true "Binding ID"
// @Success 200 {object} response.Envelope
// @Security BearerAuth
// @Router /api/journal/subject-groups/{id} [get]
func (h *CatalogHandler) GetSubjectGroup(c *gin.Context) {
	sg, err := h.catalog.GetSubjectGroup(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, sg, nil)
}

// DeleteSubjectGroup godoc
// @Summary Delete a binding and its records
// @Tags Catalog
// @Produce json
// @Param id path string true "Binding ID"
// @Success 204
// @Security BearerAuth
// @Router /api/journal/subject-groups/{id} [delete]
func (h *CatalogHandler) DeleteSubjectGroup(c *gin.Context) {
	if err := h.catalog.DeleteSubjectGroup(c.Request.Context(), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// AssignTeacherSubject godoc
// @Summary Assign a subject to a teacher
// @Tags Catalog
// @Produce json
// @Param userId path string true "Teacher ID"
// @Param subjectId path string true "Subject ID"
// @Success 200 {object} response.Envelope
// @Security BearerAuth
// @Router /api/journal/teacher-subjects/{userId}/{subjectId} [post]
func (h *CatalogHandler) AssignTeacherSubject(c *gin.Context) {
	if err := h.catalog.AssignTeacherSubject(c.Request.Context(), c.Param("userId"), c.Param("subjectId")); err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, gin.H{"status": "assigned"}, nil)
}

// RemoveTeacherSubject godoc
// @Summary Remove a subject from a teacher
// @Tags Catalog
// @Produce json
// @Param userId path string true "Teacher ID"
// @Param subjectId path string true "Subject ID"
// @Success 204
// @Security BearerAuth
// @Router /api/journal/teacher-subjects/{userId}/{subjectId} [delete]
func (h *CatalogHandler) RemoveTeacherSubject(c *gin.Context) {
	if err := h.catalog.RemoveTeacherSubject(c.Request.Context(), c.Param("userId"), c.Param("subjectId")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// ListTeacherAssignments godoc
// @Summary List all teacher-subject links
// @Tags Catalog
// @Produce json
// @Success 200 {object} response.Envelope
// @Security BearerAuth
// @Router /api/journal/teacher-subjects [get]
func (h *CatalogHandler) ListTeacherAssignments(c *gin.Context) {
	links, err := h.catalog.ListTeacherAssignments(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, links, nil)
}

// ListTeacherSubjects godoc
// @Summary List the subjects of one teacher
// @Tags Catalog
// @Produce json
// @Param userId path string true "Teacher ID"
// @Success 200 {object} response.Envelope
// @Security BearerAuth
// @Router /api/journal/teacher-subjects/{userId} [get]
func (h *CatalogHandler) ListTeacherSubjects(c *gin.Context) {
	subjects, err := h.catalog.ListTeacherSubjects(c.Request.Context(), currentUser(c), c.Param("userId"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, subjects, nil)
}
