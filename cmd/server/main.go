package main

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/mkovalenko/student-journal-api/internal/handler"
	"github.com/mkovalenko/student-journal-api/internal/repository"
	"github.com/mkovalenko/student-journal-api/internal/router"
	"github.com/mkovalenko/student-journal-api/internal/service"
	"github.com/mkovalenko/student-journal-api/pkg/config"
	"github.com/mkovalenko/student-journal-api/pkg/database"
	"github.com/mkovalenko/student-journal-api/pkg/logger"
)

// @title Student Journal API
// @version 1.0.0
// @description Role-based academic record keeping: faculties, groups, subjects, grades and attendance
// @BasePath /
// @schemes http

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logr, err := logger.New(cfg)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logr.Sync() //nolint:errcheck

	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		logr.Sugar().Fatalw("database connection failed", "error", err)
	}
	defer db.Close()

	if cfg.Seed.InitDB {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		if err := database.Bootstrap(ctx, db, cfg.Seed, logr); err != nil {
			cancel()
			logr.Sugar().Fatalw("database bootstrap failed", "error", err)
		}
		cancel()
	}

	users := repository.NewUserRepository(db)
	faculties := repository.NewFacultyRepository(db)
	groups := repository.NewGroupRepository(db)
	subjects := repository.NewSubjectRepository(db)
	subjectGroups := repository.NewSubjectGroupRepository(db)
	grades := repository.NewGradeRepository(db)
	attendance := repository.NewAttendanceRepository(db)
	enrollments := repository.NewStudentSubjectRepository(db)

	validate := validator.New()
	metrics := service.NewMetricsService()

	authSvc := service.NewAuthService(users, groups, validate, logr, service.AuthConfig{
		Secret:      cfg.JWT.Secret,
		Algorithm:   cfg.JWT.Algorithm,
		TokenExpiry: cfg.JWT.Expiration,
	})
	userSvc := service.NewUserService(users, groups, validate, logr)
	catalogSvc := service.NewCatalogService(faculties, groups, subjects, subjectGroups, users, validate, logr)
	recordSvc := service.NewRecordService(grades, attendance, subjectGroups, users, subjects, validate, logr)
	enrollmentSvc := service.NewEnrollmentService(enrollments, subjectGroups, users, subjects, groups, faculties, validate, logr)
	journalSvc := service.NewJournalService(faculties, groups, subjects, subjectGroups, users, grades, attendance, logr)

	cookieMaxAge := int(cfg.JWT.Expiration / time.Second)

	engine := router.New(router.Dependencies{
		Config:  cfg,
		Logger:  logr,
		DB:      db,
		Auth:    authSvc,
		Metrics: metrics,

		AuthHandler:       handler.NewAuthHandler(authSvc, metrics, cookieMaxAge),
		UserHandler:       handler.NewUserHandler(userSvc),
		CatalogHandler:    handler.NewCatalogHandler(catalogSvc),
		RecordHandler:     handler.NewRecordHandler(recordSvc),
		EnrollmentHandler: handler.NewEnrollmentHandler(enrollmentSvc),
		JournalHandler:    handler.NewJournalHandler(journalSvc, metrics),
		WebHandler:        handler.NewWebHandler(journalSvc, catalogSvc, metrics),
	})

	addr := fmt.Sprintf(":%d", cfg.Port)
	logr.Sugar().Infow("server starting", "addr", addr, "env", cfg.Env)
	if err := engine.Run(addr); err != nil {
		logr.Sugar().Fatalw("server failed", "error", err)
	}
}
