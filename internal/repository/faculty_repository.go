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

// FacultyRepository provides database access for faculties.
type FacultyRepository struct {
	db *sqlx.DB
}

// NewFacultyRepository creates a new instance of FacultyRepository.
func NewFacultyRepository(db *sqlx.DB) *FacultyRepository {
	return &FacultyRepository{db: db}
}

// Create inserts a new faculty.
func (r *FacultyRepository) Create(ctx context.Context, faculty *models.Faculty) error {
	if faculty.ID == "" {
		faculty.ID = uuid.NewString()
	}
	if faculty.CreatedAt.IsZero() {
		faculty.CreatedAt = time.Now().UTC()
	}
	const query = `INSERT INTO faculties (id, name, created_at) VALUES (:id, :name, :created_at)`
	if _, err := r.db.NamedExecContext(ctx, query, faculty); err != nil {
		return fmt.Errorf("create faculty: %w", err)
	}
	return nil
}

// FindByID returns a faculty by identifier.
func (r *FacultyRepository) FindByID(ctx context.Context, id string) (*models.Faculty, error) {
	const query = `SELECT id, name, created_at FROM faculties WHERE id = $1 LIMIT 1`
	var faculty models.Faculty
	if err := r.db.GetContext(ctx, &faculty, query, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find faculty by id: %w", err)
	}
	return &faculty, nil
}

// FindByName returns a faculty by its unique name.
func (r *FacultyRepository) FindByName(ctx context.Context, name string) (*models.Faculty, error) {
	const query = `SELECT id, name, created_at FROM faculties WHERE name = $1 LIMIT 1`
	var faculty models.Faculty
	if err := r.db.GetContext(ctx, &faculty, query, name); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find faculty by name: %w", err)
	}
	return &faculty, nil
}

// List returns all faculties ordered by name.
func (r *FacultyRepository) List(ctx context.Context) ([]models.Faculty, error) {
	const query = `SELECT id, name, created_at FROM faculties ORDER BY name`
	var faculties []models.Faculty
	if err := r.db.SelectContext(ctx, &faculties, query); err != nil {
		return nil, fmt.Errorf("list faculties: %w", err)
	}
	return faculties, nil
}

// DeleteCascade removes a faculty together with everything hanging off it:
// groups, subjects, their subject-group bindings, enrollments, grades and
// attendance. Students of deleted groups keep their accounts but lose the
// group reference.
func (r *FacultyRepository) DeleteCascade(ctx context.Context, id string) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin faculty cascade: %w", err)
	}
	defer tx.Rollback()

	statements := []string{
		`DELETE FROM grades WHERE subject_group_id IN (
			SELECT sg.id FROM subject_groups sg
			JOIN subjects s ON s.id = sg.subject_id
			WHERE s.faculty_id = $1)`,
		`DELETE FROM attendance WHERE subject_group_id IN (
			SELECT sg.id FROM subject_groups sg
			JOIN subjects s ON s.id = sg.subject_id
			WHERE s.faculty_id = $1)`,
		`DELETE FROM subject_groups WHERE subject_id IN (SELECT id FROM subjects WHERE faculty_id = $1)
			OR group_id IN (SELECT id FROM groups WHERE faculty_id = $1)`,
		`DELETE FROM student_subjects WHERE subject_id IN (SELECT id FROM subjects WHERE faculty_id = $1)`,
		`DELETE FROM teacher_subjects WHERE subject_id IN (SELECT id FROM subjects WHERE faculty_id = $1)`,
		`UPDATE users SET group_id = NULL WHERE group_id IN (SELECT id FROM groups WHERE faculty_id = $1)`,
		`DELETE FROM subjects WHERE faculty_id = $1`,
		`DELETE FROM groups WHERE faculty_id = $1`,
		`DELETE FROM faculties WHERE id = $1`,
	}
	for _, stmt := range statements {
		if _, err := tx.ExecContext(ctx, stmt, id); err != nil {
			return fmt.Errorf("faculty cascade: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit faculty cascade: %w", err)
	}
	return nil
}
