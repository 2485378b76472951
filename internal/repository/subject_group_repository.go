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

// SubjectGroupRepository provides database access for subject-group bindings.
type SubjectGroupRepository struct {
	db *sqlx.DB
}

// NewSubjectGroupRepository creates a new instance of SubjectGroupRepository.
func NewSubjectGroupRepository(db *sqlx.DB) *SubjectGroupRepository {
	return &SubjectGroupRepository{db: db}
}

// Create inserts a new subject-group binding.
func (r *SubjectGroupRepository) Create(ctx context.Context, sg *models.SubjectGroup) error {
	if sg.ID == "" {
		sg.ID = uuid.NewString()
	}
	if sg.CreatedAt.IsZero() {
		sg.CreatedAt = time.Now().UTC()
	}
	const query = `INSERT INTO subject_groups (id, subject_id, group_id, created_at) VALUES (:id, :subject_id, :group_id, :created_at)`
	if _, err := r.db.NamedExecContext(ctx, query, sg); err != nil {
		return fmt.Errorf("create subject group: %w", err)
	}
	return nil
}

// FindByID returns a binding by identifier.
func (r *SubjectGroupRepository) FindByID(ctx context.Context, id string) (*models.SubjectGroup, error) {
	const query = `SELECT id, subject_id, group_id, created_at FROM subject_groups WHERE id = $1 LIMIT 1`
	var sg models.SubjectGroup
	if err := r.db.GetContext(ctx, &sg, query, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find subject group by id: %w", err)
	}
	return &sg, nil
}

// FindByPair returns the binding for a subject and group.
func (r *SubjectGroupRepository) FindByPair(ctx context.Context, subjectID, groupID string) (*models.SubjectGroup, error) {
	const query = `SELECT id, subject_id, group_id, created_at FROM subject_groups WHERE subject_id = $1 AND group_id = $2 LIMIT 1`
	var sg models.SubjectGroup
	if err := r.db.GetContext(ctx, &sg, query, subjectID, groupID); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find subject group by pair: %w", err)
	}
	return &sg, nil
}

// List returns bindings matching the filter.
func (r *SubjectGroupRepository) List(ctx context.Context, filter models.SubjectGroupFilter) ([]models.SubjectGroup, error) {
	query := `SELECT id, subject_id, group_id, created_at FROM subject_groups WHERE 1=1`
	var args []interface{}

	if filter.SubjectID != "" {
		args = append(args, filter.SubjectID)
		query += fmt.Sprintf(" AND subject_id = $%d", len(args))
	}
	if filter.GroupID != "" {
		args = append(args, filter.GroupID)
		query += fmt.Sprintf(" AND group_id = $%d", len(args))
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

	var bindings []models.SubjectGroup
	if err := r.db.SelectContext(ctx, &bindings, query, args...); err != nil {
		return nil, fmt.Errorf("list subject groups: %w", err)
	}
	return bindings, nil
}

// DeleteCascade removes a binding together with its grades and attendance.
func (r *SubjectGroupRepository) DeleteCascade(ctx context.Context, id string) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin subject group cascade: %w", err)
	}
	defer tx.Rollback()

	statements := []string{
		`DELETE FROM grades WHERE subject_group_id = $1`,
		`DELETE FROM attendance WHERE subject_group_id = $1`,
		`DELETE FROM subject_groups WHERE id = $1`,
	}
	for _, stmt := range statements {
		if _, err := tx.ExecContext(ctx, stmt, id); err != nil {
			return fmt.Errorf("subject group cascade: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit subject group cascade: %w", err)
	}
	return nil
}
