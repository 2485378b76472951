package service

import (
	"context"
	"database/sql"
	"errors"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/mkovalenko/student-journal-api/internal/models"
	appErrors "github.com/mkovalenko/student-journal-api/pkg/errors"
)

type facultyRepository interface {
	Create(ctx context.Context, faculty *models.Faculty) error
	FindByID(ctx context.Context, id string) (*models.Faculty, error)
	FindByName(ctx context.Context, name string) (*models.Faculty, error)
	List(ctx context.Context) ([]models.Faculty, error)
	DeleteCascade(ctx context.Context, id string) error
}

type groupRepository interface {
	Create(ctx context.Context, group *models.Group) error
	FindByID(ctx context.Context, id string) (*models.Group, error)
	FindByNameInFaculty(ctx context.Context, facultyID, name string) (*models.Group, error)
	List(ctx context.Context, filter models.GroupFilter) ([]models.Group, error)
	DeleteCascade(ctx context.Context, id string) error
}

type subjectRepository interface {
	Create(ctx context.Context, subject *models.Subject) error
	FindByID(ctx context.Context, id string) (*models.Subject, error)
	FindByNameInFaculty(ctx context.Context, facultyID, name string) (*models.Subject, error)
	List(ctx context.Context, filter models.SubjectFilter) ([]models.Subject, error)
	AssignTeacher(ctx context.Context, userID, subjectID string) error
	RemoveTeacher(ctx context.Context, userID, subjectID string) error
	ListTeacherAssignments(ctx context.Context) ([]models.TeacherSubject, error)
	ListSubjectIDsForTeacher(ctx context.Context, userID string) ([]string, error)
	DeleteCascade(ctx context.Context, id string) error
}

type subjectGroupRepository interface {
	Create(ctx context.Context, sg *models.SubjectGroup) error
	FindByID(ctx context.Context, id string) (*models.SubjectGroup, error)
	FindByPair(ctx context.Context, subjectID, groupID string) (*models.SubjectGroup, error)
	List(ctx context.Context, filter models.SubjectGroupFilter) ([]models.SubjectGroup, error)
	DeleteCascade(ctx context.Context, id string) error
}

type catalogUserRepository interface {
	FindByID(ctx context.Context, id string) (*models.User, error)
	CountActiveStudentsByGroup(ctx context.Context, groupID string) (int, error)
}

// CatalogService manages faculties, groups, subjects, subject-group bindings
// and teacher assignments.
type CatalogService struct {
	faculties     facultyRepository
	groups        groupRepository
	subjects      subjectRepository
	subjectGroups subjectGroupRepository
	users         catalogUserRepository
	validator     *validator.Validate
	logger        *zap.Logger
}

// NewCatalogService constructs a CatalogService instance.
func NewCatalogService(
	faculties facultyRepository,
	groups groupRepository,
	subjects subjectRepository,
	subjectGroups subjectGroupRepository,
	users catalogUserRepository,
	validate *validator.Validate,
	logger *zap.Logger,
) *CatalogService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = validator.New()
	}
	return &CatalogService{
		faculties:     faculties,
		groups:        groups,
		subjects:      subjects,
		subjectGroups: subjectGroups,
		users:         users,
		validator:     validate,
		logger:        logger,
	}
}

// CreateFaculty creates a faculty. Names are globally unique.
func (s *CatalogService) CreateFaculty(ctx context.Context, req models.CreateFacultyRequest) (*models.Faculty, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid faculty payload")
	}

	if _, err := s.faculties.FindByName(ctx, req.Name); err == nil {
		return nil, appErrors.Clone(appErrors.ErrConflict, "faculty already exists")
	} else if !errors.Is(err, sql.ErrNoRows) {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check faculty name")
	}

	faculty := &models.Faculty{Name: req.Name}
	if err := s.faculties.Create(ctx, faculty); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create faculty")
	}
	return faculty, nil
}

// ListFaculties returns every faculty.
func (s *CatalogService) ListFaculties(ctx context.Context) ([]models.Faculty, error) {
	faculties, err := s.faculties.List(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list faculties")
	}
	return faculties, nil
}

// GetFaculty returns a faculty by id.
func (s *CatalogService) GetFaculty(ctx context.Context, id string) (*models.Faculty, error) {
	faculty, err := s.faculties.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "faculty not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load faculty")
	}
	return faculty, nil
}

// DeleteFaculty removes a faculty and everything that belongs to it.
func (s *CatalogService) DeleteFaculty(ctx context.Context, id string) error {
	if _, err := s.GetFaculty(ctx, id); err != nil {
		return err
	}
	if err := s.faculties.DeleteCascade(ctx, id); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete faculty")
	}
	s.logger.Info("faculty deleted", zap.String("faculty_id", id))
	return nil
}

// CreateGroup creates a group within an existing faculty. Names are unique
// per faculty.
func (s *CatalogService) CreateGroup(ctx context.Context, req models.CreateGroupRequest) (*models.Group, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid group payload")
	}

	if _, err := s.GetFaculty(ctx, req.FacultyID); err != nil {
		return nil, err
	}

	if _, err := s.groups.FindByNameInFaculty(ctx, req.FacultyID, req.Name); err == nil {
		return nil, appErrors.Clone(appErrors.ErrConflict, "group already exists in this faculty")
	} else if !errors.Is(err, sql.ErrNoRows) {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check group name")
	}

	group := &models.Group{Name: req.Name, FacultyID: req.FacultyID}
	if err := s.groups.Create(ctx, group); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create group")
	}
	return group, nil
}

// ListGroups returns groups, optionally narrowed to a faculty.
func (s *CatalogService) ListGroups(ctx context.Context, filter models.GroupFilter) ([]models.Group, error) {
	groups, err := s.groups.List(ctx, filter)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list groups")
	}
	return groups, nil
}

// GetGroup returns a group by id.
func (s *CatalogService) GetGroup(ctx context.Context, id string) (*models.Group, error) {
	group, err := s.groups.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "group not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load group")
	}
	return group, nil
}

// DeleteGroup removes a group. Groups with active students cannot be removed.
func (s *CatalogService) DeleteGroup(ctx context.Context, id string) error {
	if _, err := s.GetGroup(ctx, id); err != nil {
		return err
	}

	students, err := s.users.CountActiveStudentsByGroup(ctx, id)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to count group students")
	}
	if students > 0 {
		return appErrors.Clone(appErrors.ErrConflict, "group still has active students")
	}

	if err := s.groups.DeleteCascade(ctx, id); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete group")
	}
	s.logger.Info("group deleted", zap.String("group_id", id))
	return nil
}

// CreateSubject creates a subject within an existing faculty. Names are
// unique per faculty.
func (s *CatalogService) CreateSubject(ctx context.Context, req models.CreateSubjectRequest) (*models.Subject, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid subject payload")
	}

	if _, err := s.GetFaculty(ctx, req.FacultyID); err != nil {
		return nil, err
	}

	if _, err := s.subjects.FindByNameInFaculty(ctx, req.FacultyID, req.Name); err == nil {
		return nil, appErrors.Clone(appErrors.ErrConflict, "subject already exists in this faculty")
	} else if !errors.Is(err, sql.ErrNoRows) {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check subject name")
	}

	subject := &models.Subject{Name: req.Name, Description: req.Description, FacultyID: req.FacultyID}
	if err := s.subjects.Create(ctx, subject); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create subject")
	}
	return subject, nil
}

// ListSubjects returns subjects matching the filter. Teachers only ever see
// their own subjects.
func (s *CatalogService) ListSubjects(ctx context.Context, actor *models.User, filter models.SubjectFilter) ([]models.Subject, error) {
	if actor != nil && actor.Role == models.RoleTeacher {
		ids, err := s.subjects.ListSubjectIDsForTeacher(ctx, actor.ID)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load teacher subjects")
		}
		if len(ids) == 0 {
			return []models.Subject{}, nil
		}
		filter.IDs = ids
	}

	subjects, err := s.subjects.List(ctx, filter)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list subjects")
	}
	return subjects, nil
}

// GetSubject returns a subject. Teachers may only access their own subjects.
func (s *CatalogService) GetSubject(ctx context.Context, actor *models.User, id string) (*models.Subject, error) {
	subject, err := s.subjects.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "subject not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load subject")
	}

	if actor != nil && actor.Role == models.RoleTeacher {
		owns, err := s.teacherOwnsSubject(ctx, actor.ID, id)
		if err != nil {
			return nil, err
		}
		if !owns {
			return nil, appErrors.Clone(appErrors.ErrForbidden, "not enough permissions")
		}
	}
	return subject, nil
}

// DeleteSubject removes a subject with its bindings and records.
func (s *CatalogService) DeleteSubject(ctx context.Context, id string) error {
	if _, err := s.subjects.FindByID(ctx, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "subject not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load subject")
	}
	if err := s.subjects.DeleteCascade(ctx, id); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete subject")
	}
	s.logger.Info("subject deleted", zap.String("subject_id", id))
	return nil
}

// CreateSubjectGroup binds a subject to a group. The pair is unique.
func (s *CatalogService) CreateSubjectGroup(ctx context.Context, req models.CreateSubjectGroupRequest) (*models.SubjectGroup, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid subject group payload")
	}

	if _, err := s.subjects.FindByID(ctx, req.SubjectID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "subject not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load subject")
	}
	if _, err := s.GetGroup(ctx, req.GroupID); err != nil {
		return nil, err
	}

	if _, err := s.subjectGroups.FindByPair(ctx, req.SubjectID, req.GroupID); err == nil {
		return nil, appErrors.Clone(appErrors.ErrConflict, "subject is already bound to this group")
	} else if !errors.Is(err, sql.ErrNoRows) {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check subject group")
	}

	sg := &models.SubjectGroup{SubjectID: req.SubjectID, GroupID: req.GroupID}
	if err := s.subjectGroups.Create(ctx, sg); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create subject group")
	}
	return sg, nil
}

// ListSubjectGroups returns bindings matching the filter.
func (s *CatalogService) ListSubjectGroups(ctx context.Context, filter models.SubjectGroupFilter) ([]models.SubjectGroup, error) {
	bindings, err := s.subjectGroups.List(ctx, filter)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list subject groups")
	}
	return bindings, nil
}

// GetSubjectGroup returns a binding by id.
func (s *CatalogService) GetSubjectGroup(ctx context.Context, id string) (*models.SubjectGroup, error) {
	sg, err := s.subjectGroups.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "subject group not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load subject group")
	}
	return sg, nil
}

// DeleteSubjectGroup removes a binding and its records.
func (s *CatalogService) DeleteSubjectGroup(ctx context.Context, id string) error {
	if _, err := s.GetSubjectGroup(ctx, id); err != nil {
		return err
	}
	if err := s.subjectGroups.DeleteCascade(ctx, id); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete subject group")
	}
	return nil
}

// AssignTeacherSubject links a teacher to a subject. Re-assigning an existing
// pair is a no-op.
func (s *CatalogService) AssignTeacherSubject(ctx context.Context, userID, subjectID string) error {
	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "user not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load user")
	}
	if user.Role != models.RoleTeacher {
		return appErrors.Clone(appErrors.ErrValidation, "user is not a teacher")
	}

	if _, err := s.subjects.FindByID(ctx, subjectID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "subject not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load subject")
	}

	if err := s.subjects.AssignTeacher(ctx, userID, subjectID); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to assign subject")
	}
	return nil
}

// RemoveTeacherSubject unlinks a teacher from a subject.
func (s *CatalogService) RemoveTeacherSubject(ctx context.Context, userID, subjectID string) error {
	if err := s.subjects.RemoveTeacher(ctx, userID, subjectID); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to remove subject")
	}
	return nil
}

// ListTeacherAssignments returns every teacher-subject link.
func (s *CatalogService) ListTeacherAssignments(ctx context.Context) ([]models.TeacherSubject, error) {
	links, err := s.subjects.ListTeacherAssignments(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list teacher subjects")
	}
	return links, nil
}

// ListTeacherSubjects returns the subjects of one teacher. Admins may inspect
// anyone; teachers only themselves.
func (s *CatalogService) ListTeacherSubjects(ctx context.Context, actor *models.User, teacherID string) ([]models.Subject, error) {
	if actor.Role != models.RoleAdmin && actor.ID != teacherID {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "not enough permissions")
	}

	ids, err := s.subjects.ListSubjectIDsForTeacher(ctx, teacherID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load teacher subjects")
	}
	if len(ids) == 0 {
		return []models.Subject{}, nil
	}

	subjects, err := s.subjects.List(ctx, models.SubjectFilter{IDs: ids})
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list subjects")
	}
	return subjects, nil
}

func (s *CatalogService) teacherOwnsSubject(ctx context.Context, teacherID, subjectID string) (bool, error) {
	ids, err := s.subjects.ListSubjectIDsForTeacher(ctx, teacherID)
	if err != nil {
		return false, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load teacher subjects")
	}
	for _, id := range ids {
		if id == subjectID {
			return true, nil
		}
	}
	return false, nil
}
