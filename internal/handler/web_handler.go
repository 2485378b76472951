package handler

import (
	"context"
	"net/http"
	"net/url"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/mkovalenko/student-journal-api/internal/middleware"
	"github.com/mkovalenko/student-journal-api/internal/models"
	"github.com/mkovalenko/student-journal-api/internal/service"
	appErrors "github.com/mkovalenko/student-journal-api/pkg/errors"
)

type webCatalogService interface {
	ListFaculties(ctx context.Context) ([]models.Faculty, error)
	ListGroups(ctx context.Context, filter models.GroupFilter) ([]models.Group, error)
}

// WebHandler serves the server-rendered browser pages. API clients get the
// JSON envelope; these routes get templates and localized error pages instead.
type WebHandler struct {
	journal journalService
	catalog webCatalogService
	metrics *service.MetricsService
}

// NewWebHandler constructs handler.
func NewWebHandler(journal journalService, catalog webCatalogService, metrics *service.MetricsService) *WebHandler {
	return &WebHandler{journal: journal, catalog: catalog, metrics: metrics}
}

// statusMessages holds the Ukrainian error page texts keyed by HTTP status.
var statusMessages = map[int]string{
	http.StatusBadRequest:          "Некоректний запит",
	http.StatusUnauthorized:        "Потрібно увійти до системи",
	http.StatusForbidden:           "Недостатньо прав для перегляду цієї сторінки",
	http.StatusNotFound:            "Сторінку не знайдено",
	http.StatusInternalServerError: "Внутрішня помилка сервера",
}

// renderError renders the localized error page for the given failure.
func renderError(c *gin.Context, err error) {
	appErr := appErrors.FromError(err)
	message, ok := statusMessages[appErr.Status]
	if !ok {
		message = statusMessages[http.StatusInternalServerError]
	}
	c.HTML(appErr.Status, "error.tmpl", gin.H{
		"Status":  appErr.Status,
		"Message": message,
		"User":    currentUser(c),
	})
}

// Index renders the landing page with the faculty catalog.
func (h *WebHandler) Index(c *gin.Context) {
	faculties, err := h.catalog.ListFaculties(c.Request.Context())
	if err != nil {
		renderError(c, err)
		return
	}
	c.HTML(http.StatusOK, "index.tmpl", gin.H{
		"User":      currentUser(c),
		"Faculties": faculties,
	})
}

// LoginPage renders the login form.
func (h *WebHandler) LoginPage(c *gin.Context) {
	c.HTML(http.StatusOK, "login.tmpl", gin.H{"User": currentUser(c)})
}

// RegisterPage renders the registration form with faculties and groups for
// the group picker. Both listings are public so the form works anonymously.
func (h *WebHandler) RegisterPage(c *gin.Context) {
	faculties, err := h.catalog.ListFaculties(c.Request.Context())
	if err != nil {
		renderError(c, err)
		return
	}
	groups, err := h.catalog.ListGroups(c.Request.Context(), models.GroupFilter{Limit: 500})
	if err != nil {
		renderError(c, err)
		return
	}
	c.HTML(http.StatusOK, "register.tmpl", gin.H{
		"User":      currentUser(c),
		"Faculties": faculties,
		"Groups":    groups,
	})
}

// AdminPage renders the management console shell. The page itself loads data
// through the JSON API, so here we only gate access.
func (h *WebHandler) AdminPage(c *gin.Context) {
	actor := currentUser(c)
	if actor == nil {
		c.Redirect(http.StatusFound, "/login")
		return
	}
	if actor.Role != models.RoleAdmin {
		renderError(c, appErrors.ErrForbidden)
		return
	}
	c.HTML(http.StatusOK, "admin.tmpl", gin.H{"User": actor})
}

// journalPageCell is one student×date cell prepared for template rendering.
type journalPageCell struct {
	Grade    string
	Presence string
}

// journalPageRow is one student row of the rendered journal table.
type journalPageRow struct {
	Student string
	Cells   []journalPageCell
}

// JournalPage renders the journal table for a faculty, group and subject.
func (h *WebHandler) JournalPage(c *gin.Context) {
	actor := currentUser(c)
	if actor == nil {
		c.Redirect(http.StatusFound, "/login")
		return
	}
	view, err := h.journal.ViewByNames(c.Request.Context(), actor,
		c.Param("faculty"), c.Param("group"), c.Param("subject"))
	if err != nil {
		renderError(c, err)
		return
	}
	h.metrics.ObserveJournalView(string(actor.Role))
	c.HTML(http.StatusOK, "journal.tmpl", gin.H{
		"User":      actor,
		"View":      view,
		"Rows":      journalPageRows(view),
		"CanRecord": actor.Role == models.RoleAdmin || actor.Role == models.RoleTeacher,
		"ExportURL": "/api/journal" + journalPath(view.Faculty, view.Group, view.Subject) + "/export",
	})
}

// journalPageRows flattens the projection into printable cells, one row per
// student in roster order.
func journalPageRows(view *models.JournalView) []journalPageRow {
	rows := make([]journalPageRow, 0, len(view.Students))
	for _, student := range view.Students {
		row := journalPageRow{Student: student.FullName, Cells: make([]journalPageCell, 0, len(view.Dates))}
		for _, date := range view.Dates {
			var cell journalPageCell
			if grade := view.Grades[student.ID][date]; grade != nil {
				cell.Grade = strconv.Itoa(*grade)
			}
			if present := view.Attendance[student.ID][date]; present != nil {
				if *present {
					cell.Presence = "+"
				} else {
					cell.Presence = "-"
				}
			}
			row.Cells = append(row.Cells, cell)
		}
		rows = append(rows, row)
	}
	return rows
}

// LegacyJournalRedirect keeps the old top-level journal links working.
func (h *WebHandler) LegacyJournalRedirect(c *gin.Context) {
	c.Redirect(http.StatusFound,
		"/journal"+journalPath(c.Param("faculty"), c.Param("group"), c.Param("subject")))
}

// LogoutRedirect clears the session cookie and sends the browser home.
func (h *WebHandler) LogoutRedirect(c *gin.Context) {
	c.SetCookie(middleware.AccessTokenCookie, "", -1, "/", "", false, true)
	c.Redirect(http.StatusFound, "/")
}

func journalPath(faculty, group, subject string) string {
	return "/" + url.PathEscape(faculty) + "/" + url.PathEscape(group) + "/" + url.PathEscape(subject)
}
