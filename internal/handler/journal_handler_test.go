package handler

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mkovalenko/student-journal-api/internal/middleware"
	"github.com/mkovalenko/student-journal-api/internal/models"
	appErrors "github.com/mkovalenko/student-journal-api/pkg/errors"
	"github.com/mkovalenko/student-journal-api/pkg/export"
)

type journalServiceMock struct {
	view      *models.JournalView
	viewErr   error
	dataset   export.Dataset
	title     string
	exportErr error
	lastNames [3]string
}

func (m *journalServiceMock) ViewByNames(ctx context.Context, actor *models.User, facultyName, groupName, subjectName string) (*models.JournalView, error) {
	m.lastNames = [3]string{facultyName, groupName, subjectName}
	return m.view, m.viewErr
}

func (m *journalServiceMock) ViewBySubjectGroup(ctx context.Context, actor *models.User, subjectGroupID string) (*models.JournalView, error) {
	return m.view, m.viewErr
}

func (m *journalServiceMock) ExportDataset(ctx context.Context, actor *models.User, facultyName, groupName, subjectName string) (export.Dataset, string, error) {
	return m.dataset, m.title, m.exportErr
}

func journalParams(faculty, group, subject string) gin.Params {
	return gin.Params{
		{Key: "faculty", Value: faculty},
		{Key: "group", Value: group},
		{Key: "subject", Value: subject},
	}
}

func TestJournalHandlerView(t *testing.T) {
	gin.SetMode(gin.TestMode)
	mockSvc := &journalServiceMock{
		view: &models.JournalView{Faculty: "Mathematics", Group: "MA-21", Subject: "Algebra"},
	}
	handler := NewJournalHandler(mockSvc, nil)

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	req, _ := http.NewRequest(http.MethodGet, "/api/journal/Mathematics/MA-21/Algebra", nil)
	c.Request = req
	c.Params = journalParams("Mathematics", "MA-21", "Algebra")
	c.Set(middleware.ContextUserKey, &models.User{ID: "a1", Role: models.RoleAdmin})

	handler.View(c)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, [3]string{"Mathematics", "MA-21", "Algebra"}, mockSvc.lastNames)
	assert.Contains(t, w.Body.String(), "MA-21")
}

func TestJournalHandlerViewForbidden(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := NewJournalHandler(&journalServiceMock{viewErr: appErrors.ErrForbidden}, nil)

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	req, _ := http.NewRequest(http.MethodGet, "/api/journal/Mathematics/MA-21/Algebra", nil)
	c.Request = req
	c.Params = journalParams("Mathematics", "MA-21", "Algebra")
	c.Set(middleware.ContextUserKey, &models.User{ID: "s1", Role: models.RoleStudent})

	handler.View(c)
	require.Equal(t, http.StatusForbidden, w.Code)
}

func TestJournalHandlerExportCSV(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := NewJournalHandler(&journalServiceMock{
		dataset: export.Dataset{
			Headers: []string{"Student", "2024-09-02"},
			Rows:    []map[string]string{{"Student": "Олена Ковальчук", "2024-09-02": "9/+"}},
		},
		title: "Mathematics - MA-21 - Algebra",
	}, nil)

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	req, _ := http.NewRequest(http.MethodGet, "/api/journal/Mathematics/MA-21/Algebra/export?format=csv", nil)
	c.Request = req
	c.Params = journalParams("Mathematics", "MA-21", "Algebra")
	c.Set(middleware.ContextUserKey, &models.User{ID: "t1", Role: models.RoleTeacher})

	handler.Export(c)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "text/csv", w.Header().Get("Content-Type"))
	assert.Contains(t, w.Header().Get("Content-Disposition"), "journal.csv")
	assert.Contains(t, w.Body.String(), "9/+")
}

func TestJournalHandlerExportUnknownFormat(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := NewJournalHandler(&journalServiceMock{
		dataset: export.Dataset{Headers: []string{"Student"}},
	}, nil)

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	req, _ := http.NewRequest(http.MethodGet, "/api/journal/Mathematics/MA-21/Algebra/export?format=xlsx", nil)
	c.Request = req
	c.Params = journalParams("Mathematics", "MA-21", "Algebra")
	c.Set(middleware.ContextUserKey, &models.User{ID: "t1", Role: models.RoleTeacher})

	handler.Export(c)
	require.Equal(t, http.StatusBadRequest, w.Code)
}
