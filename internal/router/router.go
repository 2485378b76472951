package router

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/jmoiron/sqlx"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	_ "github.com/mkovalenko/student-journal-api/api/swagger"
	"github.com/mkovalenko/student-journal-api/internal/handler"
	"github.com/mkovalenko/student-journal-api/internal/middleware"
	"github.com/mkovalenko/student-journal-api/internal/models"
	"github.com/mkovalenko/student-journal-api/internal/service"
	"github.com/mkovalenko/student-journal-api/pkg/config"
	"github.com/mkovalenko/student-journal-api/pkg/logger"
	corsmiddleware "github.com/mkovalenko/student-journal-api/pkg/middleware/cors"
	reqidmiddleware "github.com/mkovalenko/student-journal-api/pkg/middleware/requestid"
)

// Dependencies carries everything the route table needs.
type Dependencies struct {
	Config  *config.Config
	Logger  *zap.Logger
	DB      *sqlx.DB
	Auth    *service.AuthService
	Metrics *service.MetricsService

	AuthHandler       *handler.AuthHandler
	UserHandler       *handler.UserHandler
	CatalogHandler    *handler.CatalogHandler
	RecordHandler     *handler.RecordHandler
	EnrollmentHandler *handler.EnrollmentHandler
	JournalHandler    *handler.JournalHandler
	WebHandler        *handler.WebHandler
}

// New builds the gin engine with the full route table.
func New(deps Dependencies) *gin.Engine {
	if deps.Config.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(deps.Logger))
	r.Use(corsmiddleware.New(deps.Config.CORS.AllowedOrigins))
	r.Use(middleware.Metrics(deps.Metrics))

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/ready", func(c *gin.Context) {
		if err := deps.DB.PingContext(c.Request.Context()); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "database unreachable"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ready"})
	})
	r.GET("/metrics", gin.WrapH(deps.Metrics.Handler()))

	if deps.Config.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	registerWebRoutes(r, deps)
	registerAuthRoutes(r, deps)
	registerUserRoutes(r, deps)
	registerJournalAPIRoutes(r, deps)

	return r
}

// registerWebRoutes wires the server-rendered pages. They run with optional
// auth so anonymous visitors still get the public pages.
func registerWebRoutes(r *gin.Engine, deps Dependencies) {
	r.LoadHTMLGlob(deps.Config.Web.TemplatesGlob)
	r.Static("/static", deps.Config.Web.StaticDir)

	web := r.Group("/", middleware.OptionalAuth(deps.Auth))
	{
		web.GET("/", deps.WebHandler.Index)
		web.GET("/login", deps.WebHandler.LoginPage)
		web.GET("/register", deps.WebHandler.RegisterPage)
		web.GET("/admin", deps.WebHandler.AdminPage)
		web.GET("/logout", deps.WebHandler.LogoutRedirect)
		web.GET("/journal/:faculty/:group/:subject", deps.WebHandler.JournalPage)
		// Pre-rename journal links live at the top level.
		web.GET("/:faculty/:group/:subject", deps.WebHandler.LegacyJournalRedirect)
	}
}

func registerAuthRoutes(r *gin.Engine, deps Dependencies) {
	r.POST("/register", deps.AuthHandler.Register)
	r.POST("/login", deps.AuthHandler.Login)
	r.POST("/token", deps.AuthHandler.Token)
	r.POST("/logout", deps.AuthHandler.Logout)
}

func registerUserRoutes(r *gin.Engine, deps Dependencies) {
	users := r.Group("/users", middleware.Auth(deps.Auth), middleware.RequireActive())
	{
		users.GET("/me", deps.AuthHandler.Me)
		users.GET("/:id", deps.UserHandler.Get)
		users.PUT("/:id", deps.UserHandler.Update)

		admin := users.Group("", middleware.RequireRoles(models.RoleAdmin))
		{
			admin.GET("", deps.UserHandler.List)
			admin.GET("/unverified", deps.UserHandler.Unverified)
			admin.GET("/role/:role", deps.UserHandler.ByRole)
			admin.POST("/:id/verify", deps.UserHandler.Verify)
			admin.POST("/:id/deactivate", deps.UserHandler.Deactivate)
			admin.DELETE("/:id", deps.UserHandler.Delete)
		}
	}
}

func registerJournalAPIRoutes(r *gin.Engine, deps Dependencies) {
	// The registration form needs faculties and groups before login.
	public := r.Group("/api/journal/public")
	{
		public.GET("/faculties", deps.CatalogHandler.ListFaculties)
		public.GET("/groups", deps.CatalogHandler.ListGroups)
	}

	api := r.Group("/api/journal",
		middleware.Auth(deps.Auth),
		middleware.RequireActive(),
		middleware.RequireVerified(),
	)
	adminOnly := middleware.RequireRoles(models.RoleAdmin)
	recorders := middleware.RequireRoles(models.RoleAdmin, models.RoleTeacher)
	{
		api.POST("/faculties", adminOnly, deps.CatalogHandler.CreateFaculty)
		api.GET("/faculties", deps.CatalogHandler.ListFaculties)
		api.GET("/faculties/:id", deps.CatalogHandler.GetFaculty)
		api.DELETE("/faculties/:id", adminOnly, deps.CatalogHandler.DeleteFaculty)

		api.POST("/groups", adminOnly, deps.CatalogHandler.CreateGroup)
		api.GET("/groups", deps.CatalogHandler.ListGroups)
		api.GET("/groups/:id", deps.CatalogHandler.GetGroup)
		api.DELETE("/groups/:id", adminOnly, deps.CatalogHandler.DeleteGroup)

		api.POST("/subjects", adminOnly, deps.CatalogHandler.CreateSubject)
		api.GET("/subjects", deps.CatalogHandler.ListSubjects)
		api.GET("/subjects/:id", deps.CatalogHandler.GetSubject)
		api.DELETE("/subjects/:id", adminOnly, deps.CatalogHandler.DeleteSubject)

		api.POST("/subject-groups", adminOnly, deps.CatalogHandler.CreateSubjectGroup)
		api.GET("/subject-groups", deps.CatalogHandler.ListSubjectGroups)
		api.GET("/subject-groups/:id", deps.CatalogHandler.GetSubjectGroup)
		api.DELETE("/subject-groups/:id", adminOnly, deps.CatalogHandler.DeleteSubjectGroup)
		api.GET("/subject-groups/:id/journal", deps.JournalHandler.ViewBySubjectGroup)

		api.POST("/teacher-subjects/:userId/:subjectId", adminOnly, deps.CatalogHandler.AssignTeacherSubject)
		api.DELETE("/teacher-subjects/:userId/:subjectId", adminOnly, deps.CatalogHandler.RemoveTeacherSubject)
		api.GET("/teacher-subjects", adminOnly, deps.CatalogHandler.ListTeacherAssignments)
		api.GET("/teacher-subjects/:userId", deps.CatalogHandler.ListTeacherSubjects)

		api.POST("/grades", recorders, deps.RecordHandler.CreateGrade)
		api.GET("/grades", deps.RecordHandler.ListGrades)
		api.GET("/grades/:id", deps.RecordHandler.GetGrade)
		api.PUT("/grades/:id", recorders, deps.RecordHandler.UpdateGrade)
		api.DELETE("/grades/:id", recorders, deps.RecordHandler.DeleteGrade)

		api.POST("/attendance", recorders, deps.RecordHandler.CreateAttendance)
		api.GET("/attendance", deps.RecordHandler.ListAttendance)
		api.GET("/attendance/:id", deps.RecordHandler.GetAttendance)
		api.PUT("/attendance/:id", recorders, deps.RecordHandler.UpdateAttendance)
		api.DELETE("/attendance/:id", recorders, deps.RecordHandler.DeleteAttendance)

		api.POST("/student-subjects", adminOnly, deps.EnrollmentHandler.Create)
		api.GET("/student-subjects", deps.EnrollmentHandler.List)
		api.DELETE("/student-subjects/:id", adminOnly, deps.EnrollmentHandler.Delete)

		api.GET("/:faculty/:group/:subject", deps.JournalHandler.View)
		api.GET("/:faculty/:group/:subject/export", deps.JournalHandler.Export)
	}
}
