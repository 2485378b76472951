package handler

import (
	"context"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/mkovalenko/student-journal-api/internal/models"
	"github.com/mkovalenko/student-journal-api/internal/service"
	appErrors "github.com/mkovalenko/student-journal-api/pkg/errors"
	"github.com/mkovalenko/student-journal-api/pkg/export"
	"github.com/mkovalenko/student-journal-api/pkg/response"
)

type journalService interface {
	ViewByNames(ctx context.Context, actor *models.User, facultyName, groupName, subjectName string) (*models.JournalView, error)
	ViewBySubjectGroup(ctx context.Context, actor *models.User, subjectGroupID string) (*models.JournalView, error)
	ExportDataset(ctx context.Context, actor *models.User, facultyName, groupName, subjectName string) (export.Dataset, string, error)
}

// JournalHandler exposes the journal projection and its exports.
type JournalHandler struct {
	journal journalService
	metrics *service.MetricsService
	csv     *export.CSVExporter
	pdf     *export.PDFExporter
}

// NewJournalHandler constructs handler.
func NewJournalHandler(journal journalService, metrics *service.MetricsService) *JournalHandler {
	return &JournalHandler{
		journal: journal,
		metrics: metrics,
		csv:     export.NewCSVExporter(),
		pdf:     export.NewPDFExporter(),
	}
}

func actorRole(actor *models.User) string {
	if actor == nil {
		return "anonymous"
	}
	return string(actor.Role)
}

// View godoc
// @Summary Journal table for a faculty, group and subject
// @Description Returns the roster, the lesson date axis and dense grade and attendance matrices.
// @Tags Journal
// @Produce json
// @Param faculty path string true "Faculty name"
// @Param group path string true "Group name"
// @Param subject path string true "Subject name"
// @Success 200 {object} response.Envelope
// @Security BearerAuth
// @Router /api/journal/{faculty}/{group}/{subject} [get]
func (h *JournalHandler) View(c *gin.Context) {
	actor := currentUser(c)
	view, err := h.journal.ViewByNames(c.Request.Context(), actor,
		c.Param("faculty"), c.Param("group"), c.Param("subject"))
	if err != nil {
		response.Error(c, err)
		return
	}
	h.metrics.ObserveJournalView(actorRole(actor))
	response.JSON(c, http.StatusOK, view, nil)
}

// ViewBySubjectGroup godoc
// @Summary Journal table for a subject-group binding
// @Tags Journal
// @Produce json
// @Param id path string true "Subject-group ID"
// @Success 200 {object} response.Envelope
// @Security BearerAuth
// @Router /api/journal/subject-groups/{id}/journal [get]
func (h *JournalHandler) ViewBySubjectGroup(c *gin.Context) {
	actor := currentUser(c)
	view, err := h.journal.ViewBySubjectGroup(c.Request.Context(), actor, c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	h.metrics.ObserveJournalView(actorRole(actor))
	response.JSON(c, http.StatusOK, view, nil)
}

// Export godoc
// @Summary Download a journal as CSV or PDF
// @Tags Journal
// @Produce text/csv
// @Produce application/pdf
// @Param faculty path string true "Faculty name"
// @Param group path string true "Group name"
// @Param subject path string true "Subject name"
// @Param format query string false "Export format" Enums(csv, pdf) default(csv)
// @Success 200 {file} file
// @Security BearerAuth
// @Router /api/journal/{faculty}/{group}/{subject}/export [get]
func (h *JournalHandler) Export(c *gin.Context) {
	actor := currentUser(c)
	dataset, title, err := h.journal.ExportDataset(c.Request.Context(), actor,
		c.Param("faculty"), c.Param("group"), c.Param("subject"))
	if err != nil {
		response.Error(c, err)
		return
	}

	format := c.DefaultQuery("format", "csv")
	var (
		body        []byte
		contentType string
		extension   string
	)
	switch format {
	case "csv":
		body, err = h.csv.Render(dataset)
		contentType = "text/csv"
		extension = "csv"
	case "pdf":
		body, err = h.pdf.Render(dataset, title)
		contentType = "application/pdf"
		extension = "pdf"
	default:
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "unsupported export format"))
		return
	}
	if err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrInternal.Code, http.StatusInternalServerError, "could not render export"))
		return
	}

	h.metrics.ObserveJournalExport(format)
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", "journal."+extension))
	c.Data(http.StatusOK, contentType, body)
}
