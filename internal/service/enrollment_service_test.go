package service

import (
	"context"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/mkovalenko/student-journal-api/internal/models"
	appErrors "github.com/mkovalenko/student-journal-api/pkg/errors"
)

type enrollmentFixture struct {
	svc      *EnrollmentService
	links    *memStudentSubjects
	bindings *memSubjectGroups
	users    *memUsers
}

func newEnrollmentFixture() *enrollmentFixture {
	groupID := "g1"
	users := newMemUsers(
		&models.User{ID: "s1", Username: "olena", Role: models.RoleStudent, IsActive: true, IsVerified: true, GroupID: &groupID},
		&models.User{ID: "s2", Username: "ivan", Role: models.RoleStudent, IsActive: true, IsVerified: true},
		&models.User{ID: "t1", Username: "petro", Role: models.RoleTeacher, IsActive: true},
	)
	faculties := newMemFaculties(&models.Faculty{ID: "f1", Name: "Computer Science"})
	groups := newMemGroups(&models.Group{ID: "g1", Name: "CS 21", FacultyID: "f1"})
	subjects := newMemSubjects(&models.Subject{ID: "sub1", Name: "Data Structures", FacultyID: "f1"})
	bindings := newMemSubjectGroups()
	links := newMemStudentSubjects()

	svc := NewEnrollmentService(links, bindings, users, subjects, groups, faculties, validator.New(), zap.NewNop())
	return &enrollmentFixture{svc: svc, links: links, bindings: bindings, users: users}
}

func TestEnrollCreatesBindingAndJournalURL(t *testing.T) {
	f := newEnrollmentFixture()

	res, err := f.svc.Enroll(context.Background(), models.CreateStudentSubjectRequest{StudentID: "s1", SubjectID: "sub1"})
	require.NoError(t, err)
	assert.Equal(t, "Computer Science", res.Faculty)
	assert.Equal(t, "CS 21", res.Group)
	assert.Equal(t, "Data Structures", res.Subject)
	assert.Equal(t, "/journal/Computer%20Science/CS%2021/Data%20Structures", res.JournalURL)

	_, err = f.bindings.FindByPair(context.Background(), "sub1", "g1")
	assert.NoError(t, err)
}

func TestEnrollReusesExistingBinding(t *testing.T) {
	f := newEnrollmentFixture()
	f.bindings.bindings["sg1"] = &models.SubjectGroup{ID: "sg1", SubjectID: "sub1", GroupID: "g1"}

	_, err := f.svc.Enroll(context.Background(), models.CreateStudentSubjectRequest{StudentID: "s1", SubjectID: "sub1"})
	require.NoError(t, err)
	assert.Len(t, f.bindings.bindings, 1)
}

func TestEnrollBindingFailureLeavesNoLink(t *testing.T) {
	f := newEnrollmentFixture()
	f.bindings.createErr = context.DeadlineExceeded

	_, err := f.svc.Enroll(context.Background(), models.CreateStudentSubjectRequest{StudentID: "s1", SubjectID: "sub1"})
	require.Error(t, err)

	// The binding is created before the enrollment row, so a failure here
	// must not leave an enrollment pointing at a journal that does not exist.
	assert.Empty(t, f.links.links)
}

func TestEnrollDuplicateConflict(t *testing.T) {
	f := newEnrollmentFixture()

	_, err := f.svc.Enroll(context.Background(), models.CreateStudentSubjectRequest{StudentID: "s1", SubjectID: "sub1"})
	require.NoError(t, err)

	_, err = f.svc.Enroll(context.Background(), models.CreateStudentSubjectRequest{StudentID: "s1", SubjectID: "sub1"})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrConflict.Code, appErrors.FromError(err).Code)
}

func TestEnrollStudentWithoutGroupRejected(t *testing.T) {
	f := newEnrollmentFixture()

	_, err := f.svc.Enroll(context.Background(), models.CreateStudentSubjectRequest{StudentID: "s2", SubjectID: "sub1"})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestEnrollNonStudentRejected(t *testing.T) {
	f := newEnrollmentFixture()

	_, err := f.svc.Enroll(context.Background(), models.CreateStudentSubjectRequest{StudentID: "t1", SubjectID: "sub1"})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestEnrollmentListStudentScoped(t *testing.T) {
	f := newEnrollmentFixture()
	f.links.links["l1"] = &models.StudentSubject{ID: "l1", StudentID: "s1", SubjectID: "sub1"}
	f.links.links["l2"] = &models.StudentSubject{ID: "l2", StudentID: "s2", SubjectID: "sub1"}

	student, _ := f.users.FindByID(context.Background(), "s1")
	links, err := f.svc.List(context.Background(), student, models.StudentSubjectFilter{StudentID: "s2"})
	require.NoError(t, err)
	require.Len(t, links, 1)
	assert.Equal(t, "s1", links[0].StudentID)
}
