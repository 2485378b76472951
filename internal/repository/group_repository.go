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

// GroupRepository provides database access for student groups.
type GroupRepository struct {
	db *sqlx.DB
}

// NewGroupRepository creates a new instance of GroupRepository.
func NewGroupRepository(db *sqlx.DB) *GroupRepository {
	return &GroupRepository{db: db}
}

// Create inserts a new group.
func (r *GroupRepository) Create(ctx context.Context, group *models.Group) error {
	if group.ID == "" {
		group.ID = uuid.NewString()
	}
	if group.CreatedAt.IsZero() {
		group.CreatedAt = time.Now().UTC()
	}
	const query = `INSERT INTO groups (id, name, faculty_id, created_at) VALUES (:id, :name, :faculty_id, :created_at)`
	if _, err := r.db.NamedExecContext(ctx, query, group); err != nil {
		return fmt.Errorf("create group: %w", err)
	}
	return nil
}

// FindByID returns a group by identifier.
func (r *GroupRepository) FindByID(ctx context.Context, id string) (*models.Group, error) {
	const query = `SELECT id, name, faculty_id, created_at FROM groups WHERE id = $1 LIMIT 1`
	var group models.Group
	if err := r.db.GetContext(ctx, &group, query, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find group by id: %w", err)
	}
	return &group, nil
}

// FindByNameInFaculty returns the group with the given name within a faculty.
func (r *GroupRepository) FindByNameInFaculty(ctx context.Context, facultyID, name string) (*models.Group, error) {
	const query = `SELECT id, name, faculty_id, created_at FROM groups WHERE faculty_id = $1 AND name = $2 LIMIT 1`
	var group models.Group
	if err := r.db.GetContext(ctx, &group, query, facultyID, name); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find group by name: %w", err)
	}
	return &group, nil
}

// List returns groups matching the filter, ordered by name.
func (r *GroupRepository) List(ctx context.Context, filter models.GroupFilter) ([]models.Group, error) {
	query := `SELECT id, name, faculty_id, created_at FROM groups WHERE 1=1`
	var args []interface{}

	if filter.FacultyID != "" {
		args = append(args, filter.FacultyID)
		query += fmt.Sprintf(" AND faculty_id = $%d", len(args))
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

	var groups []models.Group
	if err := r.db.SelectContext(ctx, &groups, query, args...); err != nil {
		return nil, fmt.Errorf("list groups: %w", err)
	}
	return groups, nil
}

// DeleteCascade removes a group with its subject-group bindings and their
// records. The caller is responsible for rejecting groups that still have
// active students.
func (r *GroupRepository) DeleteCascade(ctx context.Context, id string) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin group cascade: %w", err)
	}
	defer tx.Rollback()

	statements := []string{
		`DELETE FROM grades WHERE subject_group_id IN (SELECT id FROM subject_groups WHERE group_id = $1)`,
		`DELETE FROM attendance WHERE subject_group_id IN (SELECT id FROM subject_groups WHERE group_id = $1)`,
		`DELETE FROM subject_groups WHERE group_id = $1`,
		`UPDATE users SET group_id = NULL WHERE group_id = $1`,
		`DELETE FROM groups WHERE id = $1`,
	}
	for _, stmt := range statements {
		if _, err := tx.ExecContext(ctx, stmt, id); err != nil {
			return fmt.Errorf("group cascade: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit group cascade: %w", err)
	}
	return nil
}
