package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/mkovalenko/student-journal-api/internal/models"
)

// StudentSubjectRepository provides database access for student enrollments.
type StudentSubjectRepository struct {
	db *sqlx.DB
}

// NewStudentSubjectRepository creates a new instance of StudentSubjectRepository.
func NewStudentSubjectRepository(db *sqlx.DB) *StudentSubjectRepository {
	return &StudentSubjectRepository{db: db}
}

// Create inserts a new enrollment.
func (r *StudentSubjectRepository) Create(ctx context.Context, link *models.StudentSubject) error {
	if link.ID == "" {
		link.ID = uuid.NewString()
	}
	if link.CreatedAt.IsZero() {
		link.CreatedAt = time.Now().UTC()
	}
	const query = `INSERT INTO student_subjects (id, student_id, subject_id, created_at) VALUES (:id, :student_id, :subject_id, :created_at)`
	if _, err := r.db.NamedExecContext(ctx, query, link); err != nil {
		return fmt.Errorf("create student subject: %w", err)
	}
	return nil
}

// FindByID returns an enrollment by identifier.
func (r *StudentSubjectRepository) FindByID(ctx context.Context, id string) (*models.StudentSubject, error) {
	const query = `SELECT id, student_id, subject_id, created_at FROM student_subjects WHERE id = $1 LIMIT 1`
	var link models.StudentSubject
	if err := r.db.GetContext(ctx, &link, query, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find student subject by id: %w", err)
	}
	return &link, nil
}

// FindByPair returns the enrollment of a student into a subject.
func (r *StudentSubjectRepository) FindByPair(ctx context.Context, studentID, subjectID string) (*models.StudentSubject, error) {
	const query = `SELECT id, student_id, subject_id, created_at FROM student_subjects WHERE student_id = $1 AND subject_id = $2 LIMIT 1`
	var link models.StudentSubject
	if err := r.db.GetContext(ctx, &link, query, studentID, subjectID); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find student subject by pair: %w", err)
	}
	return &link, nil
}

// List returns enrollments matching the filter.
func (r *StudentSubjectRepository) List(ctx context.Context, filter models.StudentSubjectFilter) ([]models.StudentSubject, error) {
	query := `SELECT id, student_id, subject_id, created_at FROM student_subjects WHERE 1=1`
	var args []interface{}

	if filter.StudentID != "" {
		args = append(args, filter.StudentID)
		query += fmt.Sprintf(" AND student_id = $%d", len(args))
	}
	if filter.SubjectID != "" {
		args = append(args, filter.SubjectID)
		query += fmt.Sprintf(" AND subject_id = $%d", len(args))
	}

	limit := filter.Limit
	if limit <= 0 || limit > 500 {
		limit = 100
	}
	skip := filter.Skip
	if skip < 0 {
		skip = 0
	}
	query += fmt.Sprintf(" ORDER BY created_at LIMIT %d OFFSET %d", limit, skip)

	var links []models.StudentSubject
	if err := r.db.SelectContext(ctx, &links, query, args...); err != nil {
		return nil, fmt.Errorf("list student subjects: %w", err)
	}
	return links, nil
}

// Delete removes an enrollment.
func (r *StudentSubjectRepository) Delete(ctx context.Context, id string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM student_subjects WHERE id = $1`, id); err != nil {
		return fmt.Errorf("delete student subject: %w", err)
	}
	return nil
}
