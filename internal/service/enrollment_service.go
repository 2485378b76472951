package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/url"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/mkovalenko/student-journal-api/internal/models"
	appErrors "github.com/mkovalenko/student-journal-api/pkg/errors"
)

type studentSubjectRepository interface {
	Create(ctx context.Context, link *models.StudentSubject) error
	FindByID(ctx context.Context, id string) (*models.StudentSubject, error)
	FindByPair(ctx context.Context, studentID, subjectID string) (*models.StudentSubject, error)
	List(ctx context.Context, filter models.StudentSubjectFilter) ([]models.StudentSubject, error)
	Delete(ctx context.Context, id string) error
}

type enrollmentSubjectGroupRepository interface {
	Create(ctx context.Context, sg *models.SubjectGroup) error
	FindByPair(ctx context.Context, subjectID, groupID string) (*models.SubjectGroup, error)
}

// EnrollmentService enrolls students into subjects. Enrolling lazily creates
// the subject-group binding for the student's group, so the journal for the
// pair exists as soon as the first student joins.
type EnrollmentService struct {
	enrollments   studentSubjectRepository
	subjectGroups enrollmentSubjectGroupRepository
	users         recordUserRepository
	subjects      subjectRepository
	groups        groupRepository
	faculties     facultyRepository
	validator     *validator.Validate
	logger        *zap.Logger
}

// NewEnrollmentService constructs an EnrollmentService instance.
func NewEnrollmentService(
	enrollments studentSubjectRepository,
	subjectGroups enrollmentSubjectGroupRepository,
	users recordUserRepository,
	subjects subjectRepository,
	groups groupRepository,
	faculties facultyRepository,
	validate *validator.Validate,
	logger *zap.Logger,
) *EnrollmentService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = validator.New()
	}
	return &EnrollmentService{
		enrollments:   enrollments,
		subjectGroups: subjectGroups,
		users:         users,
		subjects:      subjects,
		groups:        groups,
		faculties:     faculties,
		validator:     validate,
		logger:        logger,
	}
}

// Enroll links a student to a subject and returns the journal location of the
// subject within the student's group.
func (s *EnrollmentService) Enroll(ctx context.Context, req models.CreateStudentSubjectRequest) (*models.EnrollmentResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid enrollment payload")
	}

	student, err := s.users.FindByID(ctx, req.StudentID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "student not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load student")
	}
	if student.Role != models.RoleStudent {
		return nil, appErrors.Clone(appErrors.ErrValidation, "user is not a student")
	}
	if student.GroupID == nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, "student does not belong to a group")
	}

	subject, err := s.subjects.FindByID(ctx, req.SubjectID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "subject not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load subject")
	}

	if _, err := s.enrollments.FindByPair(ctx, req.StudentID, req.SubjectID); err == nil {
		return nil, appErrors.Clone(appErrors.ErrConflict, "student is already enrolled in this subject")
	} else if !errors.Is(err, sql.ErrNoRows) {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check enrollment")
	}

	// The binding comes first: if it cannot be created, no enrollment row is
	// written and the journal never references a missing pair.
	if _, err := s.subjectGroups.FindByPair(ctx, subject.ID, *student.GroupID); err != nil {
		if !errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check subject group")
		}
		sg := &models.SubjectGroup{SubjectID: subject.ID, GroupID: *student.GroupID}
		if err := s.subjectGroups.Create(ctx, sg); err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create subject group")
		}
		s.logger.Info("subject group created on enrollment",
			zap.String("subject_id", subject.ID), zap.String("group_id", *student.GroupID))
	}

	link := &models.StudentSubject{StudentID: req.StudentID, SubjectID: req.SubjectID}
	if err := s.enrollments.Create(ctx, link); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create enrollment")
	}

	group, err := s.groups.FindByID(ctx, *student.GroupID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load group")
	}
	faculty, err := s.faculties.FindByID(ctx, subject.FacultyID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load faculty")
	}

	return &models.EnrollmentResponse{
		Enrollment: link,
		Faculty:    faculty.Name,
		Group:      group.Name,
		Subject:    subject.Name,
		JournalURL: fmt.Sprintf("/journal/%s/%s/%s",
			url.PathEscape(faculty.Name), url.PathEscape(group.Name), url.PathEscape(subject.Name)),
	}, nil
}

// List returns enrollments. Students only ever see their own.
func (s *EnrollmentService) List(ctx context.Context, actor *models.User, filter models.StudentSubjectFilter) ([]models.StudentSubject, error) {
	if actor.Role == models.RoleStudent {
		filter.StudentID = actor.ID
	}
	links, err := s.enrollments.List(ctx, filter)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list enrollments")
	}
	return links, nil
}

// Delete removes an enrollment.
func (s *EnrollmentService) Delete(ctx context.Context, id string) error {
	if _, err := s.enrollments.FindByID(ctx, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "enrollment not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load enrollment")
	}
	if err := s.enrollments.Delete(ctx, id); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete enrollment")
	}
	return nil
}
