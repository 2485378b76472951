package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mkovalenko/student-journal-api/internal/middleware"
	"github.com/mkovalenko/student-journal-api/internal/models"
	appErrors "github.com/mkovalenko/student-journal-api/pkg/errors"
)

type enrollmentServiceMock struct {
	resp       *models.EnrollmentResponse
	links      []models.StudentSubject
	err        error
	lastFilter models.StudentSubjectFilter
}

func (m *enrollmentServiceMock) Enroll(ctx context.Context, req models.CreateStudentSubjectRequest) (*models.EnrollmentResponse, error) {
	return m.resp, m.err
}

func (m *enrollmentServiceMock) List(ctx context.Context, actor *models.User, filter models.StudentSubjectFilter) ([]models.StudentSubject, error) {
	m.lastFilter = filter
	return m.links, m.err
}

func (m *enrollmentServiceMock) Delete(ctx context.Context, id string) error {
	return m.err
}

func TestEnrollmentHandlerCreate(t *testing.T) {
	gin.SetMode(gin.TestMode)
	mockSvc := &enrollmentServiceMock{
		resp: &models.EnrollmentResponse{
			JournalURL: "/journal/Computer%20Science/CS%2021/Data%20Structures",
		},
	}
	handler := NewEnrollmentHandler(mockSvc)

	payload, _ := json.Marshal(models.CreateStudentSubjectRequest{StudentID: "s1", SubjectID: "sub1"})
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	req, _ := http.NewRequest(http.MethodPost, "/student-subjects", bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	c.Request = req
	c.Set(middleware.ContextUserKey, &models.User{ID: "a1", Role: models.RoleAdmin})

	handler.Create(c)
	require.Equal(t, http.StatusCreated, w.Code)
	assert.Contains(t, w.Body.String(), "Computer%20Science")
}

func TestEnrollmentHandlerCreateDuplicate(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := NewEnrollmentHandler(&enrollmentServiceMock{err: appErrors.ErrConflict})

	payload, _ := json.Marshal(models.CreateStudentSubjectRequest{StudentID: "s1", SubjectID: "sub1"})
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	req, _ := http.NewRequest(http.MethodPost, "/student-subjects", bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	c.Request = req
	c.Set(middleware.ContextUserKey, &models.User{ID: "a1", Role: models.RoleAdmin})

	handler.Create(c)
	require.Equal(t, http.StatusBadRequest, w.Code)
}

func TestEnrollmentHandlerListFilter(t *testing.T) {
	gin.SetMode(gin.TestMode)
	mockSvc := &enrollmentServiceMock{}
	handler := NewEnrollmentHandler(mockSvc)

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	req, _ := http.NewRequest(http.MethodGet, "/student-subjects?subject_id=sub1&skip=10", nil)
	c.Request = req
	c.Set(middleware.ContextUserKey, &models.User{ID: "a1", Role: models.RoleAdmin})

	handler.List(c)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "sub1", mockSvc.lastFilter.SubjectID)
	assert.Equal(t, 10, mockSvc.lastFilter.Skip)
}
