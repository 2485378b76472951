package service

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/mkovalenko/student-journal-api/internal/models"
	appErrors "github.com/mkovalenko/student-journal-api/pkg/errors"
)

type gradeRepository interface {
	Create(ctx context.Context, grade *models.Grade) error
	FindByID(ctx context.Context, id string) (*models.Grade, error)
	List(ctx context.Context, filter models.RecordFilter) ([]models.Grade, error)
	Update(ctx context.Context, grade *models.Grade) error
	Delete(ctx context.Context, id string) error
}

type attendanceRepository interface {
	Create(ctx context.Context, record *models.Attendance) error
	FindByID(ctx context.Context, id string) (*models.Attendance, error)
	FindByStudentAndDate(ctx context.Context, studentID, subjectGroupID string, date time.Time) (*models.Attendance, error)
	List(ctx context.Context, filter models.RecordFilter) ([]models.Attendance, error)
	Update(ctx context.Context, record *models.Attendance) error
	Delete(ctx context.Context, id string) error
}

type recordSubjectGroupRepository interface {
	FindByID(ctx context.Context, id string) (*models.SubjectGroup, error)
}

type recordUserRepository interface {
	FindByID(ctx context.Context, id string) (*models.User, error)
}

type recordTeacherRepository interface {
	ListSubjectIDsForTeacher(ctx context.Context, userID string) ([]string, error)
}

// RecordService manages grades and attendance. Teachers may only touch
// records of subjects assigned to them; students only ever read their own
// records.
type RecordService struct {
	grades        gradeRepository
	attendance    attendanceRepository
	subjectGroups recordSubjectGroupRepository
	users         recordUserRepository
	teachers      recordTeacherRepository
	validator     *validator.Validate
	logger        *zap.Logger
}

// NewRecordService constructs a RecordService instance.
func NewRecordService(
	grades gradeRepository,
	attendance attendanceRepository,
	subjectGroups recordSubjectGroupRepository,
	users recordUserRepository,
	teachers recordTeacherRepository,
	validate *validator.Validate,
	logger *zap.Logger,
) *RecordService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = validator.New()
	}
	return &RecordService{
		grades:        grades,
		attendance:    attendance,
		subjectGroups: subjectGroups,
		users:         users,
		teachers:      teachers,
		validator:     validate,
		logger:        logger,
	}
}

// CreateGrade records a mark. Several marks on the same date are allowed.
func (s *RecordService) CreateGrade(ctx context.Context, actor *models.User, req models.CreateGradeRequest) (*models.Grade, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid grade payload")
	}

	sg, err := s.checkRecordTarget(ctx, actor, req.StudentID, req.SubjectGroupID)
	if err != nil {
		return nil, err
	}

	date, err := parseRecordDate(req.Date)
	if err != nil {
		return nil, err
	}

	grade := &models.Grade{
		StudentID:      req.StudentID,
		SubjectGroupID: sg.ID,
		Grade:          req.Grade,
		Date:           date,
		Description:    req.Description,
	}
	if err := s.grades.Create(ctx, grade); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create grade")
	}
	return grade, nil
}

// ListGrades returns grades matching the filter. Students are always scoped
// to their own records regardless of the requested filter.
func (s *RecordService) ListGrades(ctx context.Context, actor *models.User, filter models.RecordFilter) ([]models.Grade, error) {
	filter = scopeRecordFilter(actor, filter)
	grades, err := s.grades.List(ctx, filter)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list grades")
	}
	return grades, nil
}

// GetGrade returns a single grade.
func (s *RecordService) GetGrade(ctx context.Context, actor *models.User, id string) (*models.Grade, error) {
	grade, err := s.grades.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "grade not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load grade")
	}
	if actor.Role == models.RoleStudent && grade.StudentID != actor.ID {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "not enough permissions")
	}
	return grade, nil
}

// UpdateGrade applies a partial update to a grade.
func (s *RecordService) UpdateGrade(ctx context.Context, actor *models.User, id string, req models.UpdateGradeRequest) (*models.Grade, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid grade payload")
	}

	grade, err := s.grades.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "grade not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load grade")
	}

	if err := s.checkTeacherScope(ctx, actor, grade.SubjectGroupID); err != nil {
		return nil, err
	}

	if req.Grade != nil {
		grade.Grade = *req.Grade
	}
	if req.Date != nil {
		date, err := parseRecordDate(*req.Date)
		if err != nil {
			return nil, err
		}
		grade.Date = date
	}
	if req.Description != nil {
		grade.Description = *req.Description
	}

	if err := s.grades.Update(ctx, grade); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update grade")
	}
	return grade, nil
}

// DeleteGrade removes a grade.
func (s *RecordService) DeleteGrade(ctx context.Context, actor *models.User, id string) error {
	grade, err := s.grades.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "grade not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load grade")
	}
	if err := s.checkTeacherScope(ctx, actor, grade.SubjectGroupID); err != nil {
		return err
	}
	if err := s.grades.Delete(ctx, id); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete grade")
	}
	return nil
}

// CreateAttendance records presence for a lesson. A student has at most one
// record per binding and date.
func (s *RecordService) CreateAttendance(ctx context.Context, actor *models.User, req models.CreateAttendanceRequest) (*models.Attendance, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid attendance payload")
	}

	sg, err := s.checkRecordTarget(ctx, actor, req.StudentID, req.SubjectGroupID)
	if err != nil {
		return nil, err
	}

	date, err := parseRecordDate(req.Date)
	if err != nil {
		return nil, err
	}

	if _, err := s.attendance.FindByStudentAndDate(ctx, req.StudentID, sg.ID, date); err == nil {
		return nil, appErrors.Clone(appErrors.ErrConflict, "attendance already recorded for this date")
	} else if !errors.Is(err, sql.ErrNoRows) {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check attendance")
	}

	isPresent := true
	if req.IsPresent != nil {
		isPresent = *req.IsPresent
	}

	record := &models.Attendance{
		StudentID:      req.StudentID,
		SubjectGroupID: sg.ID,
		Date:           date,
		IsPresent:      isPresent,
	}
	if err := s.attendance.Create(ctx, record); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create attendance")
	}
	return record, nil
}

// ListAttendance returns attendance records, students scoped to themselves.
func (s *RecordService) ListAttendance(ctx context.Context, actor *models.User, filter models.RecordFilter) ([]models.Attendance, error) {
	filter = scopeRecordFilter(actor, filter)
	records, err := s.attendance.List(ctx, filter)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list attendance")
	}
	return records, nil
}

// GetAttendance returns a single attendance record.
func (s *RecordService) GetAttendance(ctx context.Context, actor *models.User, id string) (*models.Attendance, error) {
	record, err := s.attendance.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "attendance record not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load attendance")
	}
	if actor.Role == models.RoleStudent && record.StudentID != actor.ID {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "not enough permissions")
	}
	return record, nil
}

// UpdateAttendance applies a partial update to an attendance record.
func (s *RecordService) UpdateAttendance(ctx context.Context, actor *models.User, id string, req models.UpdateAttendanceRequest) (*models.Attendance, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid attendance payload")
	}

	record, err := s.attendance.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "attendance record not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load attendance")
	}

	if err := s.checkTeacherScope(ctx, actor, record.SubjectGroupID); err != nil {
		return nil, err
	}

	if req.Date != nil {
		date, err := parseRecordDate(*req.Date)
		if err != nil {
			return nil, err
		}
		record.Date = date
	}
	if req.IsPresent != nil {
		record.IsPresent = *req.IsPresent
	}

	if err := s.attendance.Update(ctx, record); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update attendance")
	}
	return record, nil
}

// DeleteAttendance removes an attendance record.
func (s *RecordService) DeleteAttendance(ctx context.Context, actor *models.User, id string) error {
	record, err := s.attendance.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "attendance record not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load attendance")
	}
	if err := s.checkTeacherScope(ctx, actor, record.SubjectGroupID); err != nil {
		return err
	}
	if err := s.attendance.Delete(ctx, id); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete attendance")
	}
	return nil
}

// checkRecordTarget validates the student and binding of a new record and
// enforces teacher scoping.
func (s *RecordService) checkRecordTarget(ctx context.Context, actor *models.User, studentID, subjectGroupID string) (*models.SubjectGroup, error) {
	student, err := s.users.FindByID(ctx, studentID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "student not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load student")
	}
	if student.Role != models.RoleStudent {
		return nil, appErrors.Clone(appErrors.ErrValidation, "user is not a student")
	}

	sg, err := s.subjectGroups.FindByID(ctx, subjectGroupID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "subject group not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load subject group")
	}

	if err := s.checkTeacherSubject(ctx, actor, sg.SubjectID); err != nil {
		return nil, err
	}
	return sg, nil
}

// checkTeacherScope resolves a binding and verifies the actor may mutate its
// records.
func (s *RecordService) checkTeacherScope(ctx context.Context, actor *models.User, subjectGroupID string) error {
	if actor.Role != models.RoleTeacher {
		return nil
	}
	sg, err := s.subjectGroups.FindByID(ctx, subjectGroupID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "subject group not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load subject group")
	}
	return s.checkTeacherSubject(ctx, actor, sg.SubjectID)
}

func (s *RecordService) checkTeacherSubject(ctx context.Context, actor *models.User, subjectID string) error {
	if actor.Role != models.RoleTeacher {
		return nil
	}
	ids, err := s.teachers.ListSubjectIDsForTeacher(ctx, actor.ID)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load teacher subjects")
	}
	for _, id := range ids {
		if id == subjectID {
			return nil
		}
	}
	return appErrors.Clone(appErrors.ErrForbidden, "subject is not assigned to you")
}

func scopeRecordFilter(actor *models.User, filter models.RecordFilter) models.RecordFilter {
	if actor.Role == models.RoleStudent {
		filter.StudentID = actor.ID
	}
	return filter
}

// parseRecordDate parses a YYYY-MM-DD date, defaulting to today.
func parseRecordDate(raw string) (time.Time, error) {
	if raw == "" {
		now := time.Now().UTC()
		return time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC), nil
	}
	date, err := time.Parse(time.DateOnly, raw)
	if err != nil {
		return time.Time{}, appErrors.Clone(appErrors.ErrValidation, "date must be formatted as YYYY-MM-DD")
	}
	return date, nil
}
