package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/mkovalenko/student-journal-api/internal/models"
)

// SubjectRepository provides database access for subjects and the
// teacher-subject assignment table.
type SubjectRepository struct {
	db *sqlx.DB
}

// NewSubjectRepository creates a new instance of SubjectRepository.
func NewSubjectRepository(db *sqlx.DB) *SubjectRepository {
	return &SubjectRepository{db: db}
}

const subjectColumns = `id, name, description, faculty_id, created_at`

// Create inserts a new subject.
func (r *SubjectRepository) Create(ctx context.Context, subject *models.Subject) error {
	if subject.ID == "" {
		subject.ID = uuid.NewString()
	}
	if subject.CreatedAt.IsZero() {
		subject.CreatedAt = time.Now().UTC()
	}
	const query = `INSERT INTO subjects (id, name, description, faculty_id, created_at) VALUES (:id, :name, :description, :faculty_id, :created_at)`
	if _, err := r.db.NamedExecContext(ctx, query, subject); err != nil {
		return fmt.Errorf("create subject: %w", err)
	}
	return nil
}

// FindByID returns a subject by identifier.
func (r *SubjectRepository) FindByID(ctx context.Context, id string) (*models.Subject, error) {
	query := fmt.Sprintf(`SELECT %s FROM subjects WHERE id = $1 LIMIT 1`, subjectColumns)
	var subject models.Subject
	if err := r.db.GetContext(ctx, &subject, query, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find subject by id: %w", err)
	}
	return &subject, nil
}

// FindByNameInFaculty returns the subject with the given name within a faculty.
func (r *SubjectRepository) FindByNameInFaculty(ctx context.Context, facultyID, name string) (*models.Subject, error) {
	query := fmt.Sprintf(`SELECT %s FROM subjects WHERE faculty_id = $1 AND name = $2 LIMIT 1`, subjectColumns)
	var subject models.Subject
	if err := r.db.GetContext(ctx, &subject, query, facultyID, name); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find subject by name: %w", err)
	}
	return &subject, nil
}

// List returns subjects matching the filter, ordered by name. An empty IDs
// slice in the filter means no restriction; a non-empty one limits the result
// to those subjects.
func (r *SubjectRepository) List(ctx context.Context, filter models.SubjectFilter) ([]models.Subject, error) {
	query := fmt.Sprintf(`SELECT %s FROM subjects WHERE 1=1`, subjectColumns)
	var args []interface{}

	if filter.FacultyID != "" {
		args = append(args, filter.FacultyID)
		query += fmt.Sprintf(" AND faculty_id = $%d", len(args))
	}
	if len(filter.IDs) > 0 {
		placeholders := make([]string, 0, len(filter.IDs))
		for _, id := range filter.IDs {
			args = append(args, id)
			placeholders = append(placeholders, fmt.Sprintf("$%d", len(args)))
		}
		query += fmt.Sprintf(" AND id IN (%s)", strings.Join(placeholders, ", "))
	}

	limit := filter.Limit
	if limit <= 0 || limit > 500 {
		limit = 100
	}
	skip := filter.Skip
	if skip < 0 {
		skip = 0
	}
	query += fmt.Sprintf(" ORDER BY name LIMIT %d OFFSET %d", limit, skip)

	var subjects []models.Subject
	if err := r.db.SelectContext(ctx, &subjects, query, args...); err != nil {
		return nil, fmt.Errorf("list subjects: %w", err)
	}
	return subjects, nil
}

// AssignTeacher links a teacher to a subject. The link is idempotent.
func (r *SubjectRepository) AssignTeacher(ctx context.Context, userID, subjectID string) error {
	const query = `INSERT INTO teacher_subjects (user_id, subject_id)
		SELECT $1, $2 WHERE NOT EXISTS (SELECT 1 FROM teacher_subjects WHERE user_id = $1 AND subject_id = $2)`
	if _, err := r.db.ExecContext(ctx, query, userID, subjectID); err != nil {
		return fmt.Errorf("assign teacher subject: %w", err)
	}
	return nil
}

// RemoveTeacher unlinks a teacher from a subject.
func (r *SubjectRepository) RemoveTeacher(ctx context.Context, userID, subjectID string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM teacher_subjects WHERE user_id = $1 AND subject_id = $2`, userID, subjectID); err != nil {
		return fmt.Errorf("remove teacher subject: %w", err)
	}
	return nil
}

// ListTeacherAssignments returns every teacher-subject link.
func (r *SubjectRepository) ListTeacherAssignments(ctx context.Context) ([]models.TeacherSubject, error) {
	var links []models.TeacherSubject
	if err := r.db.SelectContext(ctx, &links, `SELECT user_id, subject_id FROM teacher_subjects ORDER BY user_id, subject_id`); err != nil {
		return nil, fmt.Errorf("list teacher subjects: %w", err)
	}
	return links, nil
}

// ListSubjectIDsForTeacher returns the identifiers of all subjects assigned to
// a teacher.
func (r *SubjectRepository) ListSubjectIDsForTeacher(ctx context.Context, userID string) ([]string, error) {
	var ids []string
	if err := r.db.SelectContext(ctx, &ids, `SELECT subject_id FROM teacher_subjects WHERE user_id = $1 ORDER BY subject_id`, userID); err != nil {
		return nil, fmt.Errorf("list subjects for teacher: %w", err)
	}
	return ids, nil
}

// DeleteCascade removes a subject with its bindings, enrollments, teacher
// links and records.
func (r *SubjectRepository) DeleteCascade(ctx context.Context, id string) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin subject cascade: %w", err)
	}
	defer tx.Rollback()

	statements := []string{
		`DELETE FROM grades WHERE subject_group_id IN (SELECT id FROM subject_groups WHERE subject_id = $1)`,
		`DELETE FROM attendance WHERE subject_group_id IN (SELECT id FROM subject_groups WHERE subject_id = $1)`,
		`DELETE FROM subject_groups WHERE subject_id = $1`,
		`DELETE FROM student_subjects WHERE subject_id = $1`,
		`DELETE FROM teacher_subjects WHERE subject_id = $1`,
		`DELETE FROM subjects WHERE id = $1`,
	}
	for _, stmt := range statements {
		if _, err := tx.ExecContext(ctx, stmt, id); err != nil {
			return fmt.Errorf("subject cascade: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit subject cascade: %w", err)
	}
	return nil
}
