package service

import (
	"context"
	"testing"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/mkovalenko/student-journal-api/internal/models"
	appErrors "github.com/mkovalenko/student-journal-api/pkg/errors"
)

type recordFixture struct {
	svc        *RecordService
	users      *memUsers
	subjects   *memSubjects
	grades     *memGrades
	attendance *memAttendance
	admin      *models.User
	teacher    *models.User
	student    *models.User
	binding    *models.SubjectGroup
}

func newRecordFixture() *recordFixture {
	groupID := "g1"
	admin := &models.User{ID: "a1", Username: "admin", Role: models.RoleAdmin, IsActive: true, IsVerified: true}
	teacher := &models.User{ID: "t1", Username: "petro", Role: models.RoleTeacher, IsActive: true, IsVerified: true}
	student := &models.User{ID: "s1", Username: "olena", Role: models.RoleStudent, IsActive: true, IsVerified: true, GroupID: &groupID}

	users := newMemUsers(admin, teacher, student)
	subjects := newMemSubjects(&models.Subject{ID: "sub1", Name: "Algebra", FacultyID: "f1"})
	subjects.teachers = []models.TeacherSubject{{UserID: "t1", SubjectID: "sub1"}}
	bindings := newMemSubjectGroups(&models.SubjectGroup{ID: "sg1", SubjectID: "sub1", GroupID: groupID})
	grades := newMemGrades()
	attendance := newMemAttendance()

	svc := NewRecordService(grades, attendance, bindings, users, subjects, validator.New(), zap.NewNop())
	binding, _ := bindings.FindByID(context.Background(), "sg1")
	return &recordFixture{
		svc:        svc,
		users:      users,
		subjects:   subjects,
		grades:     grades,
		attendance: attendance,
		admin:      admin,
		teacher:    teacher,
		student:    student,
		binding:    binding,
	}
}

func TestCreateGradeByAssignedTeacher(t *testing.T) {
	f := newRecordFixture()

	grade, err := f.svc.CreateGrade(context.Background(), f.teacher, models.CreateGradeRequest{
		StudentID: "s1", SubjectGroupID: "sg1", Grade: 10, Date: "2026-03-02",
	})
	require.NoError(t, err)
	assert.Equal(t, 10, grade.Grade)
	assert.Equal(t, "2026-03-02", grade.Date.Format(time.DateOnly))
}

func TestCreateGradeForeignSubjectForbidden(t *testing.T) {
	f := newRecordFixture()
	f.subjects.teachers = nil // teacher no longer owns the subject

	_, err := f.svc.CreateGrade(context.Background(), f.teacher, models.CreateGradeRequest{
		StudentID: "s1", SubjectGroupID: "sg1", Grade: 10,
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrForbidden.Code, appErrors.FromError(err).Code)
}

func TestCreateGradeDefaultsToToday(t *testing.T) {
	f := newRecordFixture()

	grade, err := f.svc.CreateGrade(context.Background(), f.admin, models.CreateGradeRequest{
		StudentID: "s1", SubjectGroupID: "sg1", Grade: 7,
	})
	require.NoError(t, err)
	assert.Equal(t, time.Now().UTC().Format(time.DateOnly), grade.Date.Format(time.DateOnly))
}

func TestCreateGradeAllowsDuplicateDates(t *testing.T) {
	f := newRecordFixture()

	for i := 0; i < 2; i++ {
		_, err := f.svc.CreateGrade(context.Background(), f.admin, models.CreateGradeRequest{
			StudentID: "s1", SubjectGroupID: "sg1", Grade: 5 + i, Date: "2026-03-02",
		})
		require.NoError(t, err)
	}

	grades, err := f.svc.ListGrades(context.Background(), f.admin, models.RecordFilter{SubjectGroupID: "sg1"})
	require.NoError(t, err)
	assert.Len(t, grades, 2)
}

func TestCreateGradeStudentMustExist(t *testing.T) {
	f := newRecordFixture()

	_, err := f.svc.CreateGrade(context.Background(), f.admin, models.CreateGradeRequest{
		StudentID: "ghost", SubjectGroupID: "sg1", Grade: 10,
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}

func TestCreateGradeTargetMustBeStudent(t *testing.T) {
	f := newRecordFixture()

	_, err := f.svc.CreateGrade(context.Background(), f.admin, models.CreateGradeRequest{
		StudentID: "t1", SubjectGroupID: "sg1", Grade: 10,
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestListGradesStudentForcedToSelf(t *testing.T) {
	f := newRecordFixture()
	f.grades.grades["gr1"] = &models.Grade{ID: "gr1", StudentID: "s1", SubjectGroupID: "sg1", Grade: 9}
	f.grades.grades["gr2"] = &models.Grade{ID: "gr2", StudentID: "s2", SubjectGroupID: "sg1", Grade: 3}

	grades, err := f.svc.ListGrades(context.Background(), f.student, models.RecordFilter{StudentID: "s2"})
	require.NoError(t, err)
	require.Len(t, grades, 1)
	assert.Equal(t, "s1", grades[0].StudentID)
}

func TestGetGradeForeignStudentForbidden(t *testing.T) {
	f := newRecordFixture()
	f.grades.grades["gr2"] = &models.Grade{ID: "gr2", StudentID: "s2", SubjectGroupID: "sg1", Grade: 3}

	_, err := f.svc.GetGrade(context.Background(), f.student, "gr2")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrForbidden.Code, appErrors.FromError(err).Code)
}

func TestUpdateGradePartial(t *testing.T) {
	f := newRecordFixture()
	f.grades.grades["gr1"] = &models.Grade{ID: "gr1", StudentID: "s1", SubjectGroupID: "sg1", Grade: 5, Description: "test"}

	newGrade := 11
	updated, err := f.svc.UpdateGrade(context.Background(), f.teacher, "gr1", models.UpdateGradeRequest{Grade: &newGrade})
	require.NoError(t, err)
	assert.Equal(t, 11, updated.Grade)
	assert.Equal(t, "test", updated.Description)
}

func TestCreateAttendanceDuplicateConflict(t *testing.T) {
	f := newRecordFixture()

	_, err := f.svc.CreateAttendance(context.Background(), f.teacher, models.CreateAttendanceRequest{
		StudentID: "s1", SubjectGroupID: "sg1", Date: "2026-03-02",
	})
	require.NoError(t, err)

	_, err = f.svc.CreateAttendance(context.Background(), f.teacher, models.CreateAttendanceRequest{
		StudentID: "s1", SubjectGroupID: "sg1", Date: "2026-03-02",
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrConflict.Code, appErrors.FromError(err).Code)
}

func TestCreateAttendanceDefaultsPresent(t *testing.T) {
	f := newRecordFixture()

	record, err := f.svc.CreateAttendance(context.Background(), f.admin, models.CreateAttendanceRequest{
		StudentID: "s1", SubjectGroupID: "sg1",
	})
	require.NoError(t, err)
	assert.True(t, record.IsPresent)
}

func TestDeleteAttendanceForeignSubjectForbidden(t *testing.T) {
	f := newRecordFixture()
	f.attendance.records["at1"] = &models.Attendance{ID: "at1", StudentID: "s1", SubjectGroupID: "sg1"}
	f.subjects.teachers = nil

	err := f.svc.DeleteAttendance(context.Background(), f.teacher, "at1")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrForbidden.Code, appErrors.FromError(err).Code)
}
