package models

import "time"

// Grade is a single mark given to a student for a lesson date within a
// subject-group binding. Multiple grades on the same date are allowed.
type Grade struct {
	ID             string    `db:"id" json:"id"`
	StudentID      string    `db:"student_id" json:"student_id"`
	SubjectGroupID string    `db:"subject_group_id" json:"subject_group_id"`
	Grade          int       `db:"grade" json:"grade"`
	Date           time.Time `db:"date" json:"date"`
	Description    string    `db:"description" json:"description"`
	CreatedAt      time.Time `db:"created_at" json:"created_at"`
}

// Attendance is a presence record for a student on a lesson date. At most one
// record per student, binding and date.
type Attendance struct {
	ID             string    `db:"id" json:"id"`
	StudentID      string    `db:"student_id" json:"student_id"`
	SubjectGroupID string    `db:"subject_group_id" json:"subject_group_id"`
	Date           time.Time `db:"date" json:"date"`
	IsPresent      bool      `db:"is_present" json:"is_present"`
	CreatedAt      time.Time `db:"created_at" json:"created_at"`
}

type CreateGradeRequest struct {
	StudentID      string `json:"student_id" validate:"required"`
	SubjectGroupID string `json:"subject_group_id" validate:"required"`
	Grade          int    `json:"grade" validate:"min=0,max=100"`
	Date           string `json:"date" validate:"omitempty,datetime=2006-01-02"`
	Description    string `json:"description"`
}

type UpdateGradeRequest struct {
	Grade       *int    `json:"grade" validate:"omitempty,min=0,max=100"`
	Date        *string `json:"date" validate:"omitempty,datetime=2006-01-02"`
	Description *string `json:"description"`
}

type CreateAttendanceRequest struct {
	StudentID      string `json:"student_id" validate:"required"`
	SubjectGroupID string `json:"subject_group_id" validate:"required"`
	Date           string `json:"date" validate:"omitempty,datetime=2006-01-02"`
	IsPresent      *bool  `json:"is_present"`
}

type UpdateAttendanceRequest struct {
	Date      *string `json:"date" validate:"omitempty,datetime=2006-01-02"`
	IsPresent *bool   `json:"is_present"`
}

// RecordFilter narrows grade and attendance listings.
type RecordFilter struct {
	StudentID      string
	SubjectGroupID string
	Skip           int
	Limit          int
}
