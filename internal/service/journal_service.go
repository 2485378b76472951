package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/mkovalenko/student-journal-api/internal/models"
	appErrors "github.com/mkovalenko/student-journal-api/pkg/errors"
	"github.com/mkovalenko/student-journal-api/pkg/export"
)

type journalFacultyRepository interface {
	FindByID(ctx context.Context, id string) (*models.Faculty, error)
	FindByName(ctx context.Context, name string) (*models.Faculty, error)
}

type journalGroupRepository interface {
	FindByID(ctx context.Context, id string) (*models.Group, error)
	FindByNameInFaculty(ctx context.Context, facultyID, name string) (*models.Group, error)
}

type journalSubjectRepository interface {
	FindByID(ctx context.Context, id string) (*models.Subject, error)
	FindByNameInFaculty(ctx context.Context, facultyID, name string) (*models.Subject, error)
	ListSubjectIDsForTeacher(ctx context.Context, userID string) ([]string, error)
}

type journalSubjectGroupRepository interface {
	Create(ctx context.Context, sg *models.SubjectGroup) error
	FindByID(ctx context.Context, id string) (*models.SubjectGroup, error)
	FindByPair(ctx context.Context, subjectID, groupID string) (*models.SubjectGroup, error)
}

type journalRosterRepository interface {
	ListStudentsByGroup(ctx context.Context, groupID string) ([]models.User, error)
}

type journalGradeRepository interface {
	ListBySubjectGroup(ctx context.Context, subjectGroupID string) ([]models.Grade, error)
}

type journalAttendanceRepository interface {
	ListBySubjectGroup(ctx context.Context, subjectGroupID string) ([]models.Attendance, error)
}

// JournalService assembles the journal projection: the roster of a group
// crossed with the lesson dates of a subject-group binding.
type JournalService struct {
	faculties     journalFacultyRepository
	groups        journalGroupRepository
	subjects      journalSubjectRepository
	subjectGroups journalSubjectGroupRepository
	roster        journalRosterRepository
	grades        journalGradeRepository
	attendance    journalAttendanceRepository
	logger        *zap.Logger
}

// NewJournalService constructs a JournalService instance.
func NewJournalService(
	faculties journalFacultyRepository,
	groups journalGroupRepository,
	subjects journalSubjectRepository,
	subjectGroups journalSubjectGroupRepository,
	roster journalRosterRepository,
	grades journalGradeRepository,
	attendance journalAttendanceRepository,
	logger *zap.Logger,
) *JournalService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &JournalService{
		faculties:     faculties,
		groups:        groups,
		subjects:      subjects,
		subjectGroups: subjectGroups,
		roster:        roster,
		grades:        grades,
		attendance:    attendance,
		logger:        logger,
	}
}

// ViewByNames resolves faculty, group and subject by their names and builds
// the journal. The binding is created on first access if it does not exist.
func (s *JournalService) ViewByNames(ctx context.Context, actor *models.User, facultyName, groupName, subjectName string) (*models.JournalView, error) {
	faculty, err := s.faculties.FindByName(ctx, facultyName)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "faculty not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load faculty")
	}

	group, err := s.groups.FindByNameInFaculty(ctx, faculty.ID, groupName)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "group not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load group")
	}

	subject, err := s.subjects.FindByNameInFaculty(ctx, faculty.ID, subjectName)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "subject not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load subject")
	}

	return s.view(ctx, actor, faculty, group, subject)
}

// ViewBySubjectGroup builds the journal for an existing binding.
func (s *JournalService) ViewBySubjectGroup(ctx context.Context, actor *models.User, subjectGroupID string) (*models.JournalView, error) {
	sg, err := s.subjectGroups.FindByID(ctx, subjectGroupID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "subject group not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load subject group")
	}

	group, err := s.groups.FindByID(ctx, sg.GroupID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load group")
	}
	subject, err := s.subjects.FindByID(ctx, sg.SubjectID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load subject")
	}
	faculty, err := s.faculties.FindByID(ctx, subject.FacultyID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load faculty")
	}

	return s.view(ctx, actor, faculty, group, subject)
}

// ExportDataset renders the journal as a tabular dataset, one row per
// student and one column per lesson date.
func (s *JournalService) ExportDataset(ctx context.Context, actor *models.User, facultyName, groupName, subjectName string) (export.Dataset, string, error) {
	view, err := s.ViewByNames(ctx, actor, facultyName, groupName, subjectName)
	if err != nil {
		return export.Dataset{}, "", err
	}

	headers := append([]string{"Student"}, view.Dates...)
	rows := make([]map[string]string, 0, len(view.Students))
	for _, student := range view.Students {
		row := map[string]string{"Student": student.FullName}
		if student.FullName == "" {
			row["Student"] = student.Username
		}
		for _, date := range view.Dates {
			row[date] = formatJournalCell(view.Grades[student.ID][date], view.Attendance[student.ID][date])
		}
		rows = append(rows, row)
	}

	title := fmt.Sprintf("%s - %s - %s", view.Faculty, view.Group, view.Subject)
	return export.Dataset{Headers: headers, Rows: rows}, title, nil
}

func (s *JournalService) view(ctx context.Context, actor *models.User, faculty *models.Faculty, group *models.Group, subject *models.Subject) (*models.JournalView, error) {
	if err := s.checkAccess(ctx, actor, group, subject); err != nil {
		return nil, err
	}

	sg, err := s.subjectGroups.FindByPair(ctx, subject.ID, group.ID)
	if err != nil {
		if !errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load subject group")
		}
		sg = &models.SubjectGroup{SubjectID: subject.ID, GroupID: group.ID}
		if err := s.subjectGroups.Create(ctx, sg); err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create subject group")
		}
	}

	view, err := s.project(ctx, faculty, group, subject, sg)
	if err != nil {
		s.logger.Error("journal projection failed",
			zap.String("subject_group_id", sg.ID), zap.Error(err))
		return nil, appErrors.Wrap(err, appErrors.ErrProjection.Code, appErrors.ErrProjection.Status, "failed to build journal")
	}
	return view, nil
}

// project builds the dense matrices. The date axis is the sorted union of
// grade and attendance dates; an empty union degenerates to today so the
// journal always renders at least one column. Cells without a record stay
// null. When several grades share a date, the latest recorded one wins.
func (s *JournalService) project(ctx context.Context, faculty *models.Faculty, group *models.Group, subject *models.Subject, sg *models.SubjectGroup) (*models.JournalView, error) {
	students, err := s.roster.ListStudentsByGroup(ctx, group.ID)
	if err != nil {
		return nil, err
	}

	grades, err := s.grades.ListBySubjectGroup(ctx, sg.ID)
	if err != nil {
		return nil, err
	}
	attendance, err := s.attendance.ListBySubjectGroup(ctx, sg.ID)
	if err != nil {
		return nil, err
	}

	dateSet := make(map[string]struct{})
	for _, g := range grades {
		dateSet[g.Date.Format(time.DateOnly)] = struct{}{}
	}
	for _, a := range attendance {
		dateSet[a.Date.Format(time.DateOnly)] = struct{}{}
	}
	dates := make([]string, 0, len(dateSet))
	for d := range dateSet {
		dates = append(dates, d)
	}
	sort.Strings(dates)
	if len(dates) == 0 {
		dates = []string{time.Now().UTC().Format(time.DateOnly)}
	}

	roster := make([]models.JournalStudent, 0, len(students))
	gradeMatrix := make(map[string]map[string]*int, len(students))
	attendanceMatrix := make(map[string]map[string]*bool, len(students))
	for _, student := range students {
		roster = append(roster, models.JournalStudent{
			ID:       student.ID,
			Username: student.Username,
			FullName: student.FullName,
		})
		gradeRow := make(map[string]*int, len(dates))
		attendanceRow := make(map[string]*bool, len(dates))
		for _, d := range dates {
			gradeRow[d] = nil
			attendanceRow[d] = nil
		}
		gradeMatrix[student.ID] = gradeRow
		attendanceMatrix[student.ID] = attendanceRow
	}

	for _, g := range grades {
		row, ok := gradeMatrix[g.StudentID]
		if !ok {
			continue
		}
		value := g.Grade
		row[g.Date.Format(time.DateOnly)] = &value
	}
	for _, a := range attendance {
		row, ok := attendanceMatrix[a.StudentID]
		if !ok {
			continue
		}
		value := a.IsPresent
		row[a.Date.Format(time.DateOnly)] = &value
	}

	return &models.JournalView{
		Faculty:        faculty.Name,
		Group:          group.Name,
		Subject:        subject.Name,
		SubjectGroupID: sg.ID,
		Students:       roster,
		Dates:          dates,
		Grades:         gradeMatrix,
		Attendance:     attendanceMatrix,
	}, nil
}

// checkAccess enforces journal visibility: students must belong to the
// group, teachers must teach the subject. Admins see everything.
func (s *JournalService) checkAccess(ctx context.Context, actor *models.User, group *models.Group, subject *models.Subject) error {
	if actor == nil || actor.Role == models.RoleAdmin {
		return nil
	}

	switch actor.Role {
	case models.RoleStudent:
		if actor.GroupID == nil || *actor.GroupID != group.ID {
			return appErrors.Clone(appErrors.ErrForbidden, "journal belongs to another group")
		}
	case models.RoleTeacher:
		ids, err := s.subjects.ListSubjectIDsForTeacher(ctx, actor.ID)
		if err != nil {
			return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load teacher subjects")
		}
		for _, id := range ids {
			if id == subject.ID {
				return nil
			}
		}
		return appErrors.Clone(appErrors.ErrForbidden, "subject is not assigned to you")
	}
	return nil
}

func formatJournalCell(grade *int, present *bool) string {
	switch {
	case grade == nil && present == nil:
		return ""
	case grade != nil && present == nil:
		return strconv.Itoa(*grade)
	case grade == nil:
		return presenceMark(*present)
	default:
		return strconv.Itoa(*grade) + "/" + presenceMark(*present)
	}
}

func presenceMark(present bool) string {
	if present {
		return "+"
	}
	return "-"
}
